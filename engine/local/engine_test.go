package local

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/go-sif/keyed"
	"github.com/go-sif/keyed/errors"
)

func createTestGroupSpec(source keyed.Stream[string, int], reducers int) *keyed.GroupSpec[string, int, int] {
	return &keyed.GroupSpec[string, int, int]{
		StageID:     "test-stage",
		Source:      source,
		KeyOrdering: keyed.NaturalOrdering[string](),
		Transform:   keyed.IdentityTransform[string, int](),
		Reducers:    reducers,
	}
}

func TestNewGrouperValidation(t *testing.T) {
	_, err := NewGrouper[string, int, int](&Options{DefaultReducers: -1}, FormatKeyer[string]())
	require.IsType(t, errors.InvalidReducersError{}, err)

	_, err = NewGrouper[string, int, int](nil, nil)
	require.IsType(t, errors.AssertionViolatedError{}, err)
}

func TestExecGroupValidation(t *testing.T) {
	eng, err := NewGrouper[string, int, int](nil, FormatKeyer[string]())
	require.Nil(t, err)
	ctx := context.Background()
	source := NewStream(Pair("a", 1))

	_, err = eng.ExecGroup(ctx, nil)
	require.IsType(t, errors.MissingSourceError{}, err)

	spec := createTestGroupSpec(source, 0)
	spec.KeyOrdering = nil
	_, err = eng.ExecGroup(ctx, spec)
	require.IsType(t, errors.MissingKeyOrderingError{}, err)

	spec = createTestGroupSpec(source, -2)
	_, err = eng.ExecGroup(ctx, spec)
	require.IsType(t, errors.InvalidReducersError{}, err)

	spec = createTestGroupSpec(source, 0)
	spec.Transform = nil
	_, err = eng.ExecGroup(ctx, spec)
	require.IsType(t, errors.AssertionViolatedError{}, err)
}

func TestExecGroupPresentsEachKeyOnceAsAContiguousGroup(t *testing.T) {
	defer goleak.VerifyNone(t)
	ctx := context.Background()

	var pairs []keyed.KeyValue[string, int]
	for i := 0; i < 100; i++ {
		pairs = append(pairs, Pair(fmt.Sprintf("key-%d", i%10), i))
	}
	var mu sync.Mutex
	seen := map[string]int{}
	counts := map[string]int{}

	eng, err := NewGrouper[string, int, int](nil, FormatKeyer[string]())
	require.Nil(t, err)
	spec := createTestGroupSpec(NewPartitionedStream(pairs[:40], pairs[40:]), 4)
	spec.Transform = func(key string, values keyed.Iterator[int]) (keyed.Iterator[int], error) {
		collected, err := keyed.CollectIterator(values)
		if err != nil {
			return nil, err
		}
		mu.Lock()
		seen[key]++
		counts[key] = len(collected)
		mu.Unlock()
		return keyed.IteratorOf(collected...), nil
	}

	res, err := eng.ExecGroup(ctx, spec)
	require.Nil(t, err)
	out, err := Collect(ctx, res)
	require.Nil(t, err)
	require.Equal(t, 100, len(out))

	// every key's values were delivered in a single invocation
	require.Equal(t, 10, len(seen))
	for key, invocations := range seen {
		require.Equal(t, 1, invocations)
		require.Equal(t, 10, counts[key])
	}
}

func TestExecGroupSecondarySort(t *testing.T) {
	ctx := context.Background()
	eng, err := NewGrouper[string, int, int](nil, FormatKeyer[string]())
	require.Nil(t, err)

	ascending := keyed.SortFieldFor(keyed.NaturalOrdering[int]())
	spec := createTestGroupSpec(NewStream(
		Pair("a", 3), Pair("a", 1), Pair("a", 2),
	), 1)
	spec.ValueSort = &ascending

	res, err := eng.ExecGroup(ctx, spec)
	require.Nil(t, err)
	out, err := Collect(ctx, res)
	require.Nil(t, err)
	require.Equal(t, []int{1, 2, 3}, []int{out[0].Value, out[1].Value, out[2].Value})

	descending := ascending.Reversed()
	spec = createTestGroupSpec(NewStream(
		Pair("a", 3), Pair("a", 1), Pair("a", 2),
	), 1)
	spec.ValueSort = &descending

	res, err = eng.ExecGroup(ctx, spec)
	require.Nil(t, err)
	out, err = Collect(ctx, res)
	require.Nil(t, err)
	require.Equal(t, []int{3, 2, 1}, []int{out[0].Value, out[1].Value, out[2].Value})
}

func TestExecGroupHonoursReducerCount(t *testing.T) {
	defer goleak.VerifyNone(t)
	ctx := context.Background()
	eng, err := NewGrouper[string, int, int](nil, FormatKeyer[string]())
	require.Nil(t, err)

	var pairs []keyed.KeyValue[string, int]
	for i := 0; i < 50; i++ {
		pairs = append(pairs, Pair(fmt.Sprintf("key-%d", i), i))
	}
	spec := createTestGroupSpec(NewStream(pairs...), 8)

	res, err := eng.ExecGroup(ctx, spec)
	require.Nil(t, err)
	partitioned, ok := res.(PartitionedStream[string, int])
	require.True(t, ok)
	parts, err := partitioned.OpenPartitions(ctx)
	require.Nil(t, err)
	require.Equal(t, 8, len(parts))
}

func TestExecGroupCombinerPreAggregatesPerPartition(t *testing.T) {
	ctx := context.Background()
	eng, err := NewGrouper[string, int, int](nil, FormatKeyer[string]())
	require.Nil(t, err)

	var mu sync.Mutex
	groupSizes := map[string]int{}

	// both keys appear in both partitions
	spec := createTestGroupSpec(NewPartitionedStream(
		[]keyed.KeyValue[string, int]{Pair("A", 1), Pair("A", 2), Pair("B", 4)},
		[]keyed.KeyValue[string, int]{Pair("A", 3), Pair("B", 5)},
	), 1)
	spec.Combiner = func(a, b int) int { return a + b }
	spec.Transform = func(key string, values keyed.Iterator[int]) (keyed.Iterator[int], error) {
		collected, err := keyed.CollectIterator(values)
		if err != nil {
			return nil, err
		}
		mu.Lock()
		groupSizes[key] = len(collected)
		mu.Unlock()
		total := 0
		for _, v := range collected {
			total += v
		}
		return keyed.IteratorOf(total), nil
	}

	res, err := eng.ExecGroup(ctx, spec)
	require.Nil(t, err)
	out, err := Collect(ctx, res)
	require.Nil(t, err)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	require.Equal(t, []keyed.KeyValue[string, int]{
		{Key: "A", Value: 6}, {Key: "B", Value: 9},
	}, out)

	// each partition shipped at most one partial aggregate per key
	require.Equal(t, 2, groupSizes["A"])
	require.Equal(t, 2, groupSizes["B"])
}

func TestExecGroupAggregatesTransformFailures(t *testing.T) {
	defer goleak.VerifyNone(t)
	ctx := context.Background()
	eng, err := NewGrouper[string, int, int](nil, FormatKeyer[string]())
	require.Nil(t, err)

	spec := createTestGroupSpec(NewStream(
		Pair("bad-1", 1), Pair("bad-2", 2), Pair("ok", 3),
	), 1)
	spec.Transform = func(key string, values keyed.Iterator[int]) (keyed.Iterator[int], error) {
		if key == "ok" {
			return values, nil
		}
		return nil, fmt.Errorf("transform failed for %s", key)
	}

	_, err = eng.ExecGroup(ctx, spec)
	require.NotNil(t, err)
	// both failing keys are reported, not just the first
	require.Contains(t, err.Error(), "transform failed for bad-1")
	require.Contains(t, err.Error(), "transform failed for bad-2")
}
