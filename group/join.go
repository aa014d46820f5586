package group

import (
	"context"
	"sort"

	uuid "github.com/gofrs/uuid"

	"github.com/go-sif/keyed"
	"github.com/go-sif/keyed/errors"
)

// A HashJoin describes a broadcast hash join: the joinable side's full contents
// are replicated to every partition processing main, and main is never shuffled.
// Keys present only on the replicated side never appear in the output; main pairs
// whose key is absent from the replicated side are joined against an empty
// collection. Output follows main's arrival order.
type HashJoin[K any, V any, V1 any, R any] struct {
	keyOrdering keyed.Ordering[K]
	broadcast   func() (keyed.Stream[K, V], error)
	main        keyed.Stream[K, V1]
	join        keyed.JoinOperation[K, V1, V, R]
	mat         memo[K, R]
}

// HashCogroup joins a stream which has never fixed a per-key value ordering
// against main, replicating the joinable side rather than shuffling main. The
// join operation is invoked once per main pair, row at a time, with the
// (possibly empty) collection of replicated values sharing its key. Key equality
// is decided by the joinable side's key ordering comparing as zero - an ordering
// whose equivalence disagrees with the key type's natural equality will silently
// join the wrong rows, so the two must agree.
func HashCogroup[K any, V any, V1 any, R any](joinable HashJoinable[K, V], main keyed.Stream[K, V1], join keyed.JoinOperation[K, V1, V, R]) (*HashJoin[K, V, V1, R], error) {
	if joinable == nil {
		return nil, errors.MissingSourceError{}
	}
	if main == nil {
		return nil, errors.MissingSourceError{}
	}
	if join == nil {
		return nil, errors.NilJoinerError{}
	}
	if joinable.KeyOrdering() == nil {
		return nil, errors.MissingKeyOrderingError{}
	}
	return &HashJoin[K, V, V1, R]{
		keyOrdering: joinable.KeyOrdering(),
		broadcast:   joinable.broadcastStream,
		main:        main,
		join:        join,
	}, nil
}

// Materialize compiles this join into a single broadcast stage and hands it to
// eng. No grouping stage is submitted for either side. Memoized like reduce step
// materialization.
func (h *HashJoin[K, V, V1, R]) Materialize(ctx context.Context, eng keyed.JoinEngine[K, V, V1, R]) (keyed.Stream[K, R], error) {
	h.mat.once.Do(func() {
		h.mat.stream, h.mat.err = h.compile(ctx, eng)
	})
	return h.mat.stream, h.mat.err
}

func (h *HashJoin[K, V, V1, R]) compile(ctx context.Context, eng keyed.JoinEngine[K, V, V1, R]) (keyed.Stream[K, R], error) {
	broadcast, err := h.broadcast()
	if err != nil {
		return nil, err
	}
	if broadcast == nil {
		// the joinable side must always resolve to exactly one underlying
		// stream; anything else means the composer's own contract was broken
		return nil, errors.AssertionViolatedError{Context: "hash join broadcast side resolution"}
	}
	id, err := uuid.NewV4()
	if err != nil {
		return nil, err
	}
	return eng.ExecHashJoin(ctx, &keyed.JoinSpec[K, V, V1, R]{
		StageID:     id.String(),
		Broadcast:   broadcast,
		Main:        h.main,
		KeyOrdering: h.keyOrdering,
		Join:        h.join,
	})
}

// reducedBroadcast adapts a reduced-unsorted step into a Stream by running its
// per-key transform while the replica is built. The broadcast side is collected
// in full by whoever consumes it, so grouping here locally costs nothing extra.
type reducedBroadcast[K any, V1 any, V2 any] struct {
	keyOrdering keyed.Ordering[K]
	source      keyed.Stream[K, V1]
	transform   keyed.GroupTransform[K, V1, V2]
}

func (b *reducedBroadcast[K, V1, V2]) Open(ctx context.Context) (keyed.Iterator[keyed.KeyValue[K, V2]], error) {
	it, err := b.source.Open(ctx)
	if err != nil {
		return nil, err
	}
	pairs, err := keyed.CollectIterator(it)
	if err != nil {
		return nil, err
	}
	// sort by key so each key's values form one contiguous run
	sort.SliceStable(pairs, func(i, j int) bool {
		return b.keyOrdering(pairs[i].Key, pairs[j].Key) < 0
	})
	var out []keyed.KeyValue[K, V2]
	for start := 0; start < len(pairs); {
		end := start + 1
		for end < len(pairs) && b.keyOrdering(pairs[start].Key, pairs[end].Key) == 0 {
			end++
		}
		key := pairs[start].Key
		values := make([]V1, 0, end-start)
		for _, kv := range pairs[start:end] {
			values = append(values, kv.Value)
		}
		mapped, err := b.transform(key, keyed.IteratorOf(values...))
		if err != nil {
			return nil, err
		}
		for mapped.HasNext() {
			v, err := mapped.Next()
			if err != nil {
				return nil, err
			}
			out = append(out, keyed.KeyValue[K, V2]{Key: key, Value: v})
		}
		start = end
	}
	return keyed.IteratorOf(out...), nil
}
