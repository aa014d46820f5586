package keyed

// GroupTransform - A generic function for rewriting the value sequence of a single key.
// It receives each key's values exactly once, as one contiguous Iterator, and produces
// zero or more output values for that key. Transforms must be pure: they may not
// retain the Iterator, and must not depend on anything but their arguments.
type GroupTransform[K any, V1 any, V2 any] func(key K, values Iterator[V1]) (Iterator[V2], error)

// JoinOperation - A generic function for joining a single key-value pair from the
// main side of a broadcast join against every broadcast-side value sharing its key.
// other may be empty, and is shared between invocations - it must not be mutated.
type JoinOperation[K any, V1 any, V any, R any] func(key K, value V1, other []V) (Iterator[R], error)

// Semigroup - A generic associative merge of two values into one, used for
// combiner-style partial aggregation before a shuffle
type Semigroup[V any] func(a, b V) V

// KeyingOperation - A generic function for serializing a key, used by engines to
// assign keys to reducers and hash buckets. Equal keys (under the relevant key
// Ordering) must serialize identically.
type KeyingOperation[K any] func(key K) ([]byte, error)

// IdentityTransform produces a GroupTransform which passes each key's values
// through unchanged
func IdentityTransform[K any, V any]() GroupTransform[K, V, V] {
	return func(key K, values Iterator[V]) (Iterator[V], error) {
		return values, nil
	}
}
