package group

import (
	"github.com/go-sif/keyed"
	"github.com/go-sif/keyed/errors"
)

// An IdentityValueSortedReduce is a keyed stream whose per-key value ordering has
// been fixed, but which has not yet been reduced. The ordering may still be
// replaced or reversed, and any per-key transform applied from here will observe
// each key's values in sorted order. Broadcast joining is no longer legal.
type IdentityValueSortedReduce[K any, V any] struct {
	keyOrdering keyed.Ordering[K]
	source      keyed.Stream[K, V]
	valueSort   keyed.SortField[V]
	reducers    int
	mat         memo[K, V]
}

var _ ReduceStep = (*IdentityValueSortedReduce[int, int])(nil)
var _ Sortable[int, int] = (*IdentityValueSortedReduce[int, int])(nil)

func (r *IdentityValueSortedReduce[K, V]) isReduceStep() {}

// KeyOrdering returns the total order over keys which decides this stream's grouping
func (r *IdentityValueSortedReduce[K, V]) KeyOrdering() keyed.Ordering[K] {
	return r.keyOrdering
}

// ValueSort returns the installed secondary sort
func (r *IdentityValueSortedReduce[K, V]) ValueSort() keyed.SortField[V] {
	return r.valueSort
}

func (r *IdentityValueSortedReduce[K, V]) sortSource() sortSource[K, V] {
	return sortSource[K, V]{
		keyOrdering: r.keyOrdering,
		source:      r.source,
		reducers:    r.reducers,
	}
}

// Sorted replaces the installed value ordering. Orderings are never merged - the
// last one installed wins.
func (r *IdentityValueSortedReduce[K, V]) Sorted(ord keyed.Ordering[V]) *IdentityValueSortedReduce[K, V] {
	return sorted[K, V](r, ord)
}

// SortWith replaces the installed value ordering with one described by a
// less-than predicate
func (r *IdentityValueSortedReduce[K, V]) SortWith(less func(a, b V) bool) *IdentityValueSortedReduce[K, V] {
	return sorted[K, V](r, keyed.OrderingFromLess(less))
}

// Reverse complements the installed value ordering. Reversing twice restores the
// original ordering.
func (r *IdentityValueSortedReduce[K, V]) Reverse() *IdentityValueSortedReduce[K, V] {
	return &IdentityValueSortedReduce[K, V]{
		keyOrdering: r.keyOrdering,
		source:      r.source,
		valueSort:   r.valueSort.Reversed(),
		reducers:    r.reducers,
	}
}

// WithReducers requests a degree of parallelism for the physical grouping stage.
// An InvalidReducersError is returned if n is not positive.
func (r *IdentityValueSortedReduce[K, V]) WithReducers(n int) (*IdentityValueSortedReduce[K, V], error) {
	if n <= 0 {
		return nil, errors.InvalidReducersError{Count: n}
	}
	return &IdentityValueSortedReduce[K, V]{
		keyOrdering: r.keyOrdering,
		source:      r.source,
		valueSort:   r.valueSort,
		reducers:    n,
	}, nil
}
