// Package group implements a phase-typed algebra over keyed streams. A grouping
// chain begins with By, transitions between phases via sorting and per-key
// transforms, and is finally compiled into a single physical grouping stage by
// Materialize. Each phase is a distinct Go type, so an operation which is illegal
// for a stream's current phase does not exist on it: sorting after a reduction,
// reversing an ordering that was never installed, or hash-joining a stream whose
// per-key value ordering has been fixed are all rejected at compile time.
package group

import (
	"sync"

	"github.com/go-sif/keyed"
	"github.com/go-sif/keyed/errors"
)

// A ReduceStep is one link in a grouping chain. The set of implementations is
// closed: IdentityReduce, IdentityValueSortedReduce, IteratorMappedReduce and
// ValueSortedReduce are the only four, and no fifth is ever added.
type ReduceStep interface {
	isReduceStep()
}

// Sortable is implemented by reduce steps which may still install a per-key value
// ordering - that is, steps whose values have been neither sorted nor reduced
type Sortable[K any, V any] interface {
	ReduceStep
	sortSource() sortSource[K, V]
}

// HashJoinable is implemented by reduce steps which have never fixed a per-key
// value ordering, and may therefore serve as the replicated side of a broadcast
// hash join
type HashJoinable[K any, V any] interface {
	ReduceStep
	KeyOrdering() keyed.Ordering[K]
	broadcastStream() (keyed.Stream[K, V], error)
}

// sortSource carries the state a sort operation inherits from the step it sorts
type sortSource[K any, V any] struct {
	keyOrdering keyed.Ordering[K]
	source      keyed.Stream[K, V]
	reducers    int
}

// memo caches the result of a step's first materialization, so that concurrent
// callers sharing a step never submit its stage twice
type memo[K any, V any] struct {
	once   sync.Once
	stream keyed.Stream[K, V]
	err    error
}

// An IdentityReduce is a keyed stream which has been grouped by key but neither
// sorted nor reduced. It is the initial phase of every grouping chain: values are
// unordered within each key, and both sorting and broadcast joining remain legal.
type IdentityReduce[K any, V any] struct {
	keyOrdering keyed.Ordering[K]
	source      keyed.Stream[K, V]
	reducers    int
	mat         memo[K, V]
}

var _ ReduceStep = (*IdentityReduce[int, int])(nil)
var _ Sortable[int, int] = (*IdentityReduce[int, int])(nil)
var _ HashJoinable[int, int] = (*IdentityReduce[int, int])(nil)

// By begins a grouping chain over a keyed stream, grouping its pairs by key
// according to keyOrdering
func By[K any, V any](source keyed.Stream[K, V], keyOrdering keyed.Ordering[K]) (*IdentityReduce[K, V], error) {
	if source == nil {
		return nil, errors.MissingSourceError{}
	}
	if keyOrdering == nil {
		return nil, errors.MissingKeyOrderingError{}
	}
	return &IdentityReduce[K, V]{
		keyOrdering: keyOrdering,
		source:      source,
	}, nil
}

func (r *IdentityReduce[K, V]) isReduceStep() {}

// KeyOrdering returns the total order over keys which decides this stream's grouping
func (r *IdentityReduce[K, V]) KeyOrdering() keyed.Ordering[K] {
	return r.keyOrdering
}

func (r *IdentityReduce[K, V]) sortSource() sortSource[K, V] {
	return sortSource[K, V]{
		keyOrdering: r.keyOrdering,
		source:      r.source,
		reducers:    r.reducers,
	}
}

// broadcastStream returns this stream's full contents for replication. Reducer
// hints are irrelevant to a broadcast side - it is replicated everywhere anyway.
func (r *IdentityReduce[K, V]) broadcastStream() (keyed.Stream[K, V], error) {
	return r.source, nil
}

// Sorted installs a value ordering, fixing the order in which each key's values
// will be presented to downstream transforms
func (r *IdentityReduce[K, V]) Sorted(ord keyed.Ordering[V]) *IdentityValueSortedReduce[K, V] {
	return sorted[K, V](r, ord)
}

// SortWith installs a value ordering described by a less-than predicate
func (r *IdentityReduce[K, V]) SortWith(less func(a, b V) bool) *IdentityValueSortedReduce[K, V] {
	return sorted[K, V](r, keyed.OrderingFromLess(less))
}

// WithReducers requests a degree of parallelism for the physical grouping stage.
// An InvalidReducersError is returned if n is not positive.
func (r *IdentityReduce[K, V]) WithReducers(n int) (*IdentityReduce[K, V], error) {
	if n <= 0 {
		return nil, errors.InvalidReducersError{Count: n}
	}
	return &IdentityReduce[K, V]{
		keyOrdering: r.keyOrdering,
		source:      r.source,
		reducers:    n,
	}, nil
}

// SortBy installs a value ordering which compares values by a projection. Sorting
// is only available before any reduction; if the step already carries a value
// ordering, the new one replaces it.
func SortBy[K any, V any, S keyed.Orderable](r Sortable[K, V], proj func(V) S) *IdentityValueSortedReduce[K, V] {
	return sorted[K, V](r, keyed.OrderingBy(proj))
}

func sorted[K any, V any](r Sortable[K, V], ord keyed.Ordering[V]) *IdentityValueSortedReduce[K, V] {
	src := r.sortSource()
	return &IdentityValueSortedReduce[K, V]{
		keyOrdering: src.keyOrdering,
		source:      src.source,
		valueSort:   keyed.SortFieldFor(ord),
		reducers:    src.reducers,
	}
}
