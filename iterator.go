package keyed

import "github.com/go-sif/keyed/errors"

// Iterator is a generalized interface for iterating over values, regardless of where
// they come from. Per-key transforms consume and produce Iterators so that chains of
// transforms compose lazily, without materializing intermediate collections.
type Iterator[V any] interface {
	HasNext() bool
	Next() (V, error)
}

type sliceIterator[V any] struct {
	values []V
	next   int
}

// IteratorOf produces an Iterator over the given values
func IteratorOf[V any](values ...V) Iterator[V] {
	return &sliceIterator[V]{values: values}
}

func (i *sliceIterator[V]) HasNext() bool {
	return i.next < len(i.values)
}

func (i *sliceIterator[V]) Next() (V, error) {
	if i.next >= len(i.values) {
		var zero V
		return zero, errors.NoMoreValuesError{}
	}
	v := i.values[i.next]
	i.next++
	return v, nil
}

type mappedIterator[V any, R any] struct {
	source Iterator[V]
	fn     func(V) (R, error)
}

// MapIterator lazily applies fn to each value of source
func MapIterator[V any, R any](source Iterator[V], fn func(V) (R, error)) Iterator[R] {
	return &mappedIterator[V, R]{source: source, fn: fn}
}

func (i *mappedIterator[V, R]) HasNext() bool {
	return i.source.HasNext()
}

func (i *mappedIterator[V, R]) Next() (R, error) {
	v, err := i.source.Next()
	if err != nil {
		var zero R
		return zero, err
	}
	return i.fn(v)
}

// CollectIterator drains an Iterator into a slice
func CollectIterator[V any](it Iterator[V]) ([]V, error) {
	var values []V
	for it.HasNext() {
		v, err := it.Next()
		if err != nil {
			return nil, err
		}
		values = append(values, v)
	}
	return values, nil
}
