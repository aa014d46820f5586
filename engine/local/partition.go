package local

import (
	"context"
	"sort"

	xxhash "github.com/cespare/xxhash/v2"
	multierror "github.com/hashicorp/go-multierror"

	"github.com/go-sif/keyed"
)

// reducerFor assigns a key to a reducer by hashing its serialized form
func reducerFor[K any](key K, keyFn keyed.KeyingOperation[K], reducers int) (int, error) {
	buf, err := keyFn(key)
	if err != nil {
		return 0, err
	}
	return int(xxhash.Sum64(buf) % uint64(reducers)), nil
}

// hashTable buckets pairs by key hash, resolving collisions with the key
// ordering's equivalence
type hashTable[K any, V any] struct {
	keyOrdering keyed.Ordering[K]
	keyFn       keyed.KeyingOperation[K]
	entries     map[uint64][]*tableEntry[K, V]
}

type tableEntry[K any, V any] struct {
	key    K
	values []V
}

func newHashTable[K any, V any](keyOrdering keyed.Ordering[K], keyFn keyed.KeyingOperation[K]) *hashTable[K, V] {
	return &hashTable[K, V]{
		keyOrdering: keyOrdering,
		keyFn:       keyFn,
		entries:     map[uint64][]*tableEntry[K, V]{},
	}
}

func (t *hashTable[K, V]) entry(key K, create bool) (*tableEntry[K, V], error) {
	buf, err := t.keyFn(key)
	if err != nil {
		return nil, err
	}
	sum := xxhash.Sum64(buf)
	for _, e := range t.entries[sum] {
		if t.keyOrdering(e.key, key) == 0 {
			return e, nil
		}
	}
	if !create {
		return nil, nil
	}
	e := &tableEntry[K, V]{key: key}
	t.entries[sum] = append(t.entries[sum], e)
	return e, nil
}

// combine pre-aggregates values sharing a key within one source partition,
// preserving first-arrival key order
func combine[K any, V any](pairs []keyed.KeyValue[K, V], keyOrdering keyed.Ordering[K], keyFn keyed.KeyingOperation[K], merge keyed.Semigroup[V]) ([]keyed.KeyValue[K, V], error) {
	table := newHashTable[K, V](keyOrdering, keyFn)
	var order []*tableEntry[K, V]
	for _, kv := range pairs {
		e, err := table.entry(kv.Key, true)
		if err != nil {
			return nil, err
		}
		if len(e.values) == 0 {
			e.values = []V{kv.Value}
			order = append(order, e)
		} else {
			e.values[0] = merge(e.values[0], kv.Value)
		}
	}
	combined := make([]keyed.KeyValue[K, V], len(order))
	for i, e := range order {
		combined[i] = keyed.KeyValue[K, V]{Key: e.key, Value: e.values[0]}
	}
	return combined, nil
}

// runReducer sorts one reducer's pairs into contiguous key groups, applies the
// secondary sort within each group if the spec requests one, then runs the
// per-key transform over each group exactly once. Transform failures do not stop
// the remaining groups - all failures are aggregated and reported together.
func runReducer[K any, V1 any, V2 any](ctx context.Context, spec *keyed.GroupSpec[K, V1, V2], pairs []keyed.KeyValue[K, V1]) ([]keyed.KeyValue[K, V2], error) {
	sort.SliceStable(pairs, func(i, j int) bool {
		return spec.KeyOrdering(pairs[i].Key, pairs[j].Key) < 0
	})
	var valueCmp keyed.Ordering[V1]
	if spec.ValueSort != nil {
		valueCmp = spec.ValueSort.Comparator()
	}
	var out []keyed.KeyValue[K, V2]
	var multierr *multierror.Error
	for start := 0; start < len(pairs); {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		end := start + 1
		for end < len(pairs) && spec.KeyOrdering(pairs[start].Key, pairs[end].Key) == 0 {
			end++
		}
		key := pairs[start].Key
		values := make([]V1, 0, end-start)
		for _, kv := range pairs[start:end] {
			values = append(values, kv.Value)
		}
		if valueCmp != nil {
			sort.SliceStable(values, func(i, j int) bool {
				return valueCmp(values[i], values[j]) < 0
			})
		}
		mapped, err := spec.Transform(key, keyed.IteratorOf(values...))
		if err != nil {
			multierr = multierror.Append(multierr, err)
			start = end
			continue
		}
		for mapped.HasNext() {
			v, err := mapped.Next()
			if err != nil {
				multierr = multierror.Append(multierr, err)
				break
			}
			out = append(out, keyed.KeyValue[K, V2]{Key: key, Value: v})
		}
		start = end
	}
	if err := multierr.ErrorOrNil(); err != nil {
		return nil, err
	}
	return out, nil
}
