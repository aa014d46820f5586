package keyed

// An Ordering is a comparator establishing a total order: it returns a negative
// number if a sorts before b, zero if they are equivalent, and a positive number
// if a sorts after b. Orderings over keys decide grouping; Orderings over values
// decide secondary sort within each key's group.
type Ordering[T any] func(a, b T) int

// Orderable enumerates the primitive types which carry a natural ordering
type Orderable interface {
	~int | ~int8 | ~int16 | ~int32 | ~int64 |
		~uint | ~uint8 | ~uint16 | ~uint32 | ~uint64 |
		~float32 | ~float64 | ~string
}

// NaturalOrdering produces an Ordering from a type's natural comparison operators
func NaturalOrdering[T Orderable]() Ordering[T] {
	return func(a, b T) int {
		switch {
		case a < b:
			return -1
		case a > b:
			return 1
		default:
			return 0
		}
	}
}

// OrderingBy produces an Ordering which compares values by a projection
func OrderingBy[T any, S Orderable](proj func(T) S) Ordering[T] {
	natural := NaturalOrdering[S]()
	return func(a, b T) int {
		return natural(proj(a), proj(b))
	}
}

// OrderingFromLess produces an Ordering from a less-than predicate
func OrderingFromLess[T any](less func(a, b T) bool) Ordering[T] {
	return func(a, b T) int {
		switch {
		case less(a, b):
			return -1
		case less(b, a):
			return 1
		default:
			return 0
		}
	}
}

// ReverseOrdering produces the complement of an Ordering
func ReverseOrdering[T any](ord Ordering[T]) Ordering[T] {
	return func(a, b T) int {
		return ord(b, a)
	}
}

// SortDirection indicates whether a SortField sorts ascending or descending
type SortDirection int

const (
	// Ascending sorts smallest-first according to a SortField's Ordering
	Ascending SortDirection = iota
	// Descending sorts largest-first according to a SortField's Ordering
	Descending
)

// A SortField tags an Ordering with a direction, describing the secondary sort
// applied to each key's values during a grouping stage.
type SortField[T any] struct {
	Compare   Ordering[T]
	Direction SortDirection
}

// SortFieldFor produces an ascending SortField from an Ordering
func SortFieldFor[T any](ord Ordering[T]) SortField[T] {
	return SortField[T]{Compare: ord, Direction: Ascending}
}

// Reversed produces a SortField with the opposite direction
func (f SortField[T]) Reversed() SortField[T] {
	switch f.Direction {
	case Ascending:
		return SortField[T]{Compare: f.Compare, Direction: Descending}
	default:
		return SortField[T]{Compare: f.Compare, Direction: Ascending}
	}
}

// Comparator produces the effective Ordering for this SortField, folding the
// direction into the comparison
func (f SortField[T]) Comparator() Ordering[T] {
	if f.Direction == Descending {
		return ReverseOrdering(f.Compare)
	}
	return f.Compare
}
