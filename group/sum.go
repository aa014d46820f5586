package group

import (
	"github.com/go-sif/keyed"
	"github.com/go-sif/keyed/errors"
)

// Sum collapses each key's values to a single value using an associative merge.
// Engines may use the merge as a combiner, partially aggregating values sharing a
// key within each upstream partition before the shuffle; because merge is
// associative this pre-aggregation cannot change the result, only the amount of
// data shuffled. Sum is only available before a value ordering or transform has
// been installed.
func Sum[K any, V any](r *IdentityReduce[K, V], merge keyed.Semigroup[V]) (*IteratorMappedReduce[K, V, V], error) {
	if merge == nil {
		return nil, errors.NilTransformError{}
	}
	return &IteratorMappedReduce[K, V, V]{
		keyOrdering: r.keyOrdering,
		source:      r.source,
		transform:   foldTransform[K, V](merge),
		combiner:    merge,
		reducers:    r.reducers,
	}, nil
}

// foldTransform merges a key's values pairwise, left to right. Groups are never
// empty - a key exists only because at least one value arrived for it.
func foldTransform[K any, V any](merge keyed.Semigroup[V]) keyed.GroupTransform[K, V, V] {
	return func(key K, values keyed.Iterator[V]) (keyed.Iterator[V], error) {
		if !values.HasNext() {
			return nil, errors.AssertionViolatedError{Context: "sum over empty group"}
		}
		acc, err := values.Next()
		if err != nil {
			return nil, err
		}
		for values.HasNext() {
			v, err := values.Next()
			if err != nil {
				return nil, err
			}
			acc = merge(acc, v)
		}
		return keyed.IteratorOf(acc), nil
	}
}

// Fold reduces each key's values to a single accumulated value, starting from
// init. Unlike Sum, the accumulator type may differ from the value type, and no
// combiner pre-aggregation is possible.
func Fold[K any, V any, A any](r *IdentityReduce[K, V], init A, fn func(A, V) A) (*IteratorMappedReduce[K, V, A], error) {
	if fn == nil {
		return nil, errors.NilTransformError{}
	}
	return MapGroup[K, V, A](r, foldGroupTransform[K, V, A](init, fn))
}

// FoldSorted reduces each key's values like Fold, but folds them in the stream's
// installed sort order
func FoldSorted[K any, V any, A any](r *IdentityValueSortedReduce[K, V], init A, fn func(A, V) A) (*ValueSortedReduce[K, V, A], error) {
	if fn == nil {
		return nil, errors.NilTransformError{}
	}
	return MapGroupSorted[K, V, A](r, foldGroupTransform[K, V, A](init, fn))
}

func foldGroupTransform[K any, V any, A any](init A, fn func(A, V) A) keyed.GroupTransform[K, V, A] {
	return func(key K, values keyed.Iterator[V]) (keyed.Iterator[A], error) {
		acc := init
		for values.HasNext() {
			v, err := values.Next()
			if err != nil {
				return nil, err
			}
			acc = fn(acc, v)
		}
		return keyed.IteratorOf(acc), nil
	}
}
