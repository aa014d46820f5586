package local

import (
	"context"

	"github.com/go-sif/keyed"
)

// A PartitionedStream exposes the partition structure of its contents, allowing
// engines to perform per-partition work such as combiner pre-aggregation
type PartitionedStream[K any, V any] interface {
	keyed.Stream[K, V]
	// OpenPartitions begins iteration over each partition independently
	OpenPartitions(ctx context.Context) ([]keyed.Iterator[keyed.KeyValue[K, V]], error)
}

type memoryStream[K any, V any] struct {
	partitions [][]keyed.KeyValue[K, V]
}

// NewStream produces an in-memory Stream over the given pairs, as a single partition
func NewStream[K any, V any](pairs ...keyed.KeyValue[K, V]) keyed.Stream[K, V] {
	return &memoryStream[K, V]{partitions: [][]keyed.KeyValue[K, V]{pairs}}
}

// NewPartitionedStream produces an in-memory Stream with an explicit partition
// layout, for exercising partition-sensitive engine behaviour such as combiners
func NewPartitionedStream[K any, V any](partitions ...[]keyed.KeyValue[K, V]) keyed.Stream[K, V] {
	return &memoryStream[K, V]{partitions: partitions}
}

// Pair is shorthand for constructing a KeyValue
func Pair[K any, V any](key K, value V) keyed.KeyValue[K, V] {
	return keyed.KeyValue[K, V]{Key: key, Value: value}
}

func (s *memoryStream[K, V]) Open(ctx context.Context) (keyed.Iterator[keyed.KeyValue[K, V]], error) {
	var all []keyed.KeyValue[K, V]
	for _, p := range s.partitions {
		all = append(all, p...)
	}
	return keyed.IteratorOf(all...), nil
}

func (s *memoryStream[K, V]) OpenPartitions(ctx context.Context) ([]keyed.Iterator[keyed.KeyValue[K, V]], error) {
	its := make([]keyed.Iterator[keyed.KeyValue[K, V]], len(s.partitions))
	for i, p := range s.partitions {
		its[i] = keyed.IteratorOf(p...)
	}
	return its, nil
}

// Collect drains a Stream into a slice of pairs
func Collect[K any, V any](ctx context.Context, s keyed.Stream[K, V]) ([]keyed.KeyValue[K, V], error) {
	it, err := s.Open(ctx)
	if err != nil {
		return nil, err
	}
	return keyed.CollectIterator(it)
}
