package group

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/go-sif/keyed"
	"github.com/go-sif/keyed/engine/local"
	"github.com/go-sif/keyed/errors"
)

func createTestJoiner[V any, V1 any, R any](t *testing.T) *local.Joiner[int, V, V1, R] {
	eng, err := local.NewJoiner[int, V, V1, R](nil, local.FormatKeyer[int]())
	require.Nil(t, err)
	return eng
}

func TestHashCogroupValidation(t *testing.T) {
	main := local.NewStream(local.Pair(1, "a"))
	side := local.NewStream(local.Pair(1, "x"))
	joinable, err := By(side, keyed.NaturalOrdering[int]())
	require.Nil(t, err)

	var nilJoinable HashJoinable[int, string]
	_, err = HashCogroup[int, string, string, string](nilJoinable, main, func(k int, v1 string, other []string) (keyed.Iterator[string], error) {
		return keyed.IteratorOf[string](), nil
	})
	require.IsType(t, errors.MissingSourceError{}, err)

	_, err = HashCogroup[int, string, string, string](joinable, nil, func(k int, v1 string, other []string) (keyed.Iterator[string], error) {
		return keyed.IteratorOf[string](), nil
	})
	require.IsType(t, errors.MissingSourceError{}, err)

	_, err = HashCogroup[int, string, string, string](joinable, main, nil)
	require.IsType(t, errors.NilJoinerError{}, err)
}

func TestHashCogroupFollowsMainArrivalOrder(t *testing.T) {
	ctx := context.Background()
	side := local.NewStream(local.Pair(1, "x"), local.Pair(2, "y"))
	main := local.NewStream(local.Pair(1, "a"), local.Pair(3, "b"))

	joinable, err := By(side, keyed.NaturalOrdering[int]())
	require.Nil(t, err)
	join, err := HashCogroup[int, string, string, string](joinable, main, func(k int, v1 string, other []string) (keyed.Iterator[string], error) {
		var out []string
		for _, h := range other {
			out = append(out, v1+h)
		}
		return keyed.IteratorOf(out...), nil
	})
	require.Nil(t, err)

	res, err := join.Materialize(ctx, createTestJoiner[string, string, string](t))
	require.Nil(t, err)
	pairs, err := local.Collect(ctx, res)
	require.Nil(t, err)

	// key 2 exists only on the replicated side and must never appear; key 3
	// joins against an empty collection and so yields no rows
	require.Equal(t, []keyed.KeyValue[int, string]{{Key: 1, Value: "ax"}}, pairs)
}

func TestHashCogroupSuppliesEmptyCollectionForUnmatchedKeys(t *testing.T) {
	ctx := context.Background()
	side := local.NewStream(local.Pair(1, "x"))
	main := local.NewStream(local.Pair(1, "a"), local.Pair(3, "b"))

	joinable, err := By(side, keyed.NaturalOrdering[int]())
	require.Nil(t, err)
	join, err := HashCogroup[int, string, string, int](joinable, main, func(k int, v1 string, other []string) (keyed.Iterator[int], error) {
		return keyed.IteratorOf(len(other)), nil
	})
	require.Nil(t, err)

	res, err := join.Materialize(ctx, createTestJoiner[string, string, int](t))
	require.Nil(t, err)
	pairs, err := local.Collect(ctx, res)
	require.Nil(t, err)

	// key 3 is still processed - with an empty collection - in arrival order
	require.Equal(t, []keyed.KeyValue[int, int]{
		{Key: 1, Value: 1}, {Key: 3, Value: 0},
	}, pairs)
}

func TestHashCogroupFromReducedUnsortedSide(t *testing.T) {
	ctx := context.Background()
	side := local.NewStream(
		local.Pair(1, 10), local.Pair(1, 5), local.Pair(2, 7),
	)
	main := local.NewStream(local.Pair(1, "a"), local.Pair(2, "b"), local.Pair(3, "c"))

	grouped, err := By(side, keyed.NaturalOrdering[int]())
	require.Nil(t, err)
	// reduce the replicated side first; a reduced-unsorted stream is still joinable
	summed, err := Sum(grouped, func(a, b int) int { return a + b })
	require.Nil(t, err)

	join, err := HashCogroup[int, int, string, int](summed, main, func(k int, v1 string, other []int) (keyed.Iterator[int], error) {
		total := 0
		for _, v := range other {
			total += v
		}
		return keyed.IteratorOf(total), nil
	})
	require.Nil(t, err)

	res, err := join.Materialize(ctx, createTestJoiner[int, string, int](t))
	require.Nil(t, err)
	pairs, err := local.Collect(ctx, res)
	require.Nil(t, err)
	require.Equal(t, []keyed.KeyValue[int, int]{
		{Key: 1, Value: 15}, {Key: 2, Value: 7}, {Key: 3, Value: 0},
	}, pairs)
}

func TestHashCogroupMaterializeIsMemoized(t *testing.T) {
	ctx := context.Background()
	side := local.NewStream(local.Pair(1, "x"))
	main := local.NewStream(local.Pair(1, "a"))

	joinable, err := By(side, keyed.NaturalOrdering[int]())
	require.Nil(t, err)
	join, err := HashCogroup[int, string, string, string](joinable, main, func(k int, v1 string, other []string) (keyed.Iterator[string], error) {
		return keyed.IteratorOf(v1), nil
	})
	require.Nil(t, err)

	eng := createTestJoiner[string, string, string](t)
	first, err := join.Materialize(ctx, eng)
	require.Nil(t, err)
	second, err := join.Materialize(ctx, eng)
	require.Nil(t, err)
	require.Equal(t, first, second)
}
