package keyed

import "context"

// A KeyValue is a single key-value pair within a Stream.
type KeyValue[K any, V any] struct {
	Key   K
	Value V
}

// A Stream is a lazily-evaluated sequence of key-value pairs, produced either by an
// upstream data source or by the execution of a compiled grouping or join stage.
// Streams are opaque to the algebra - it only ever threads them through to an Engine.
type Stream[K any, V any] interface {
	// Open begins iteration over the key-value pairs of this Stream. Each call
	// to Open yields an independent Iterator over the full contents.
	Open(ctx context.Context) (Iterator[KeyValue[K, V]], error)
}

// A GroupSpec is the physical description of a single grouping stage: partition a
// Stream by key, optionally sort each key's values, then run a per-key transform
// over each key's (contiguous, possibly sorted) group of values. A GroupSpec is
// produced by materializing a reduce step, and consumed by an Engine.
type GroupSpec[K any, V1 any, V2 any] struct {
	StageID     string                    // unique id for this stage, for logging and deduplication
	Source      Stream[K, V1]             // the stream to be grouped
	KeyOrdering Ordering[K]               // total order over keys. required.
	ValueSort   *SortField[V1]            // secondary sort for each key's values. nil means unsorted.
	Transform   GroupTransform[K, V1, V2] // per-key transform. required - identity steps install IdentityTransform.
	Combiner    Semigroup[V1]             // optional pre-shuffle partial aggregation of values sharing a key
	Reducers    int                       // requested parallelism for the grouping. 0 means engine default.
}

// A JoinSpec is the physical description of a single broadcast hash join stage: the
// Broadcast side is replicated in full to wherever Main is processed, and the Join
// operation is invoked once per Main pair, in Main's arrival order, with the
// (possibly empty) collection of Broadcast values sharing that pair's key. Main is
// never shuffled. Key equality is decided by KeyOrdering comparing as zero.
type JoinSpec[K any, V any, V1 any, R any] struct {
	StageID     string                     // unique id for this stage, for logging and deduplication
	Broadcast   Stream[K, V]               // the replicated side
	Main        Stream[K, V1]              // the streamed side. arrival order is preserved.
	KeyOrdering Ordering[K]                // the broadcast side's key ordering. required.
	Join        JoinOperation[K, V1, V, R] // row-at-a-time joiner. required.
}

// A GroupEngine is an execution engine capable of running a single grouping stage.
// Implementations own all genuine concurrency, shuffling and spilling - the algebra
// only guarantees that the GroupSpec it hands over is valid and minimal.
type GroupEngine[K any, V1 any, V2 any] interface {
	// ExecGroup runs one grouping stage, returning a handle to the grouped,
	// transformed output. Each key's values must be presented to the spec's
	// Transform exactly once, as a single contiguous group, sorted by the
	// spec's ValueSort if one is present.
	ExecGroup(ctx context.Context, spec *GroupSpec[K, V1, V2]) (Stream[K, V2], error)
}

// A JoinEngine is an execution engine capable of running a single broadcast hash
// join stage.
type JoinEngine[K any, V any, V1 any, R any] interface {
	// ExecHashJoin runs one broadcast join stage, returning a handle to the
	// joined output. The Main side must not be shuffled, and output order must
	// follow Main's arrival order.
	ExecHashJoin(ctx context.Context, spec *JoinSpec[K, V, V1, R]) (Stream[K, R], error)
}
