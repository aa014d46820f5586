package group

import (
	"github.com/go-sif/keyed"
	"github.com/go-sif/keyed/errors"
)

// An IteratorMappedReduce is a keyed stream whose value sequences have been
// rewritten by a per-key transform without a value ordering ever having been
// fixed. Further transforms compose onto it, and it remains legal as the
// replicated side of a broadcast hash join. Sorting is permanently lost.
type IteratorMappedReduce[K any, V1 any, V2 any] struct {
	keyOrdering keyed.Ordering[K]
	source      keyed.Stream[K, V1]
	transform   keyed.GroupTransform[K, V1, V2]
	combiner    keyed.Semigroup[V1]
	reducers    int
	mat         memo[K, V2]
}

var _ ReduceStep = (*IteratorMappedReduce[int, int, int])(nil)
var _ HashJoinable[int, int] = (*IteratorMappedReduce[int, int, int])(nil)

func (r *IteratorMappedReduce[K, V1, V2]) isReduceStep() {}

// KeyOrdering returns the total order over keys which decides this stream's grouping
func (r *IteratorMappedReduce[K, V1, V2]) KeyOrdering() keyed.Ordering[K] {
	return r.keyOrdering
}

// WithReducers requests a degree of parallelism for the physical grouping stage.
// An InvalidReducersError is returned if n is not positive.
func (r *IteratorMappedReduce[K, V1, V2]) WithReducers(n int) (*IteratorMappedReduce[K, V1, V2], error) {
	if n <= 0 {
		return nil, errors.InvalidReducersError{Count: n}
	}
	return &IteratorMappedReduce[K, V1, V2]{
		keyOrdering: r.keyOrdering,
		source:      r.source,
		transform:   r.transform,
		combiner:    r.combiner,
		reducers:    n,
	}, nil
}

// A ValueSortedReduce is a keyed stream whose value ordering was fixed before a
// per-key transform rewrote its value sequences. Each key's values are presented
// to the composed transform in sorted order. Only further transform composition
// remains legal - sorting, reversing and joining are permanently lost.
type ValueSortedReduce[K any, V1 any, V2 any] struct {
	keyOrdering keyed.Ordering[K]
	source      keyed.Stream[K, V1]
	valueSort   keyed.SortField[V1]
	transform   keyed.GroupTransform[K, V1, V2]
	reducers    int
	mat         memo[K, V2]
}

var _ ReduceStep = (*ValueSortedReduce[int, int, int])(nil)

func (r *ValueSortedReduce[K, V1, V2]) isReduceStep() {}

// KeyOrdering returns the total order over keys which decides this stream's grouping
func (r *ValueSortedReduce[K, V1, V2]) KeyOrdering() keyed.Ordering[K] {
	return r.keyOrdering
}

// WithReducers requests a degree of parallelism for the physical grouping stage.
// An InvalidReducersError is returned if n is not positive.
func (r *ValueSortedReduce[K, V1, V2]) WithReducers(n int) (*ValueSortedReduce[K, V1, V2], error) {
	if n <= 0 {
		return nil, errors.InvalidReducersError{Count: n}
	}
	return &ValueSortedReduce[K, V1, V2]{
		keyOrdering: r.keyOrdering,
		source:      r.source,
		valueSort:   r.valueSort,
		transform:   r.transform,
		reducers:    n,
	}, nil
}

// MapGroup installs a per-key transform on an unsorted grouped stream. The
// transform receives each key and an iterator over that key's values, in no
// particular order, and produces the key's new value sequence.
func MapGroup[K any, V1 any, V2 any](r *IdentityReduce[K, V1], fn keyed.GroupTransform[K, V1, V2]) (*IteratorMappedReduce[K, V1, V2], error) {
	if fn == nil {
		return nil, errors.NilTransformError{}
	}
	return &IteratorMappedReduce[K, V1, V2]{
		keyOrdering: r.keyOrdering,
		source:      r.source,
		transform:   fn,
		reducers:    r.reducers,
	}, nil
}

// MapGroupSorted installs a per-key transform on a value-sorted grouped stream.
// The transform receives each key's values in the installed sort order.
func MapGroupSorted[K any, V1 any, V2 any](r *IdentityValueSortedReduce[K, V1], fn keyed.GroupTransform[K, V1, V2]) (*ValueSortedReduce[K, V1, V2], error) {
	if fn == nil {
		return nil, errors.NilTransformError{}
	}
	return &ValueSortedReduce[K, V1, V2]{
		keyOrdering: r.keyOrdering,
		source:      r.source,
		valueSort:   r.valueSort,
		transform:   fn,
		reducers:    r.reducers,
	}, nil
}

// ComposeGroup layers a further per-key transform onto an already-reduced,
// unsorted stream. The transforms are composed left-to-right as plain function
// composition - fn consumes the prior transform's output iterator directly, so an
// arbitrarily long chain still compiles to a single grouping stage and never
// materializes an intermediate collection.
func ComposeGroup[K any, V1 any, V2 any, V3 any](r *IteratorMappedReduce[K, V1, V2], fn keyed.GroupTransform[K, V2, V3]) (*IteratorMappedReduce[K, V1, V3], error) {
	if fn == nil {
		return nil, errors.NilTransformError{}
	}
	return &IteratorMappedReduce[K, V1, V3]{
		keyOrdering: r.keyOrdering,
		source:      r.source,
		transform:   composeTransforms(r.transform, fn),
		combiner:    r.combiner,
		reducers:    r.reducers,
	}, nil
}

// ComposeGroupSorted layers a further per-key transform onto an already-reduced,
// value-sorted stream, composing exactly as ComposeGroup does
func ComposeGroupSorted[K any, V1 any, V2 any, V3 any](r *ValueSortedReduce[K, V1, V2], fn keyed.GroupTransform[K, V2, V3]) (*ValueSortedReduce[K, V1, V3], error) {
	if fn == nil {
		return nil, errors.NilTransformError{}
	}
	return &ValueSortedReduce[K, V1, V3]{
		keyOrdering: r.keyOrdering,
		source:      r.source,
		valueSort:   r.valueSort,
		transform:   composeTransforms(r.transform, fn),
		reducers:    r.reducers,
	}, nil
}

func composeTransforms[K any, V1 any, V2 any, V3 any](f keyed.GroupTransform[K, V1, V2], g keyed.GroupTransform[K, V2, V3]) keyed.GroupTransform[K, V1, V3] {
	return func(key K, values keyed.Iterator[V1]) (keyed.Iterator[V3], error) {
		mid, err := f(key, values)
		if err != nil {
			return nil, err
		}
		return g(key, mid)
	}
}

// broadcastStream returns this stream's reduced contents for replication. Since a
// broadcast side is collected in full wherever it is consumed, its per-key
// transform runs as part of building the replica rather than as a shuffle stage.
func (r *IteratorMappedReduce[K, V1, V2]) broadcastStream() (keyed.Stream[K, V2], error) {
	return &reducedBroadcast[K, V1, V2]{
		keyOrdering: r.keyOrdering,
		source:      r.source,
		transform:   r.transform,
	}, nil
}
