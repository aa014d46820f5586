package local

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/go-sif/keyed"
	"github.com/go-sif/keyed/errors"
)

func createTestJoinSpec(broadcast keyed.Stream[int, string], main keyed.Stream[int, string]) *keyed.JoinSpec[int, string, string, string] {
	return &keyed.JoinSpec[int, string, string, string]{
		StageID:     "test-join",
		Broadcast:   broadcast,
		Main:        main,
		KeyOrdering: keyed.NaturalOrdering[int](),
		Join: func(k int, v1 string, other []string) (keyed.Iterator[string], error) {
			var out []string
			for _, h := range other {
				out = append(out, v1+h)
			}
			return keyed.IteratorOf(out...), nil
		},
	}
}

func TestNewJoinerValidation(t *testing.T) {
	_, err := NewJoiner[int, string, string, string](nil, nil)
	require.IsType(t, errors.AssertionViolatedError{}, err)

	_, err = NewJoiner[int, string, string, string](&Options{DefaultReducers: -1}, FormatKeyer[int]())
	require.IsType(t, errors.InvalidReducersError{}, err)
}

func TestExecHashJoinValidation(t *testing.T) {
	eng, err := NewJoiner[int, string, string, string](nil, FormatKeyer[int]())
	require.Nil(t, err)
	ctx := context.Background()
	broadcast := NewStream(Pair(1, "x"))
	main := NewStream(Pair(1, "a"))

	_, err = eng.ExecHashJoin(ctx, nil)
	require.IsType(t, errors.MissingSourceError{}, err)

	spec := createTestJoinSpec(broadcast, main)
	spec.KeyOrdering = nil
	_, err = eng.ExecHashJoin(ctx, spec)
	require.IsType(t, errors.MissingKeyOrderingError{}, err)

	spec = createTestJoinSpec(broadcast, main)
	spec.Join = nil
	_, err = eng.ExecHashJoin(ctx, spec)
	require.IsType(t, errors.NilJoinerError{}, err)
}

func TestExecHashJoinPreservesMainArrivalOrder(t *testing.T) {
	ctx := context.Background()
	eng, err := NewJoiner[int, string, string, string](nil, FormatKeyer[int]())
	require.Nil(t, err)

	broadcast := NewStream(Pair(2, "y"), Pair(1, "x"), Pair(1, "w"))
	main := NewStream(Pair(2, "b"), Pair(1, "a"), Pair(2, "c"))
	res, err := eng.ExecHashJoin(ctx, createTestJoinSpec(broadcast, main))
	require.Nil(t, err)
	out, err := Collect(ctx, res)
	require.Nil(t, err)
	require.Equal(t, []keyed.KeyValue[int, string]{
		{Key: 2, Value: "by"},
		{Key: 1, Value: "ax"}, {Key: 1, Value: "aw"},
		{Key: 2, Value: "cy"},
	}, out)
}

func TestExecHashJoinWithEmptyBroadcastSide(t *testing.T) {
	ctx := context.Background()
	eng, err := NewJoiner[int, string, string, int](nil, FormatKeyer[int]())
	require.Nil(t, err)

	spec := &keyed.JoinSpec[int, string, string, int]{
		StageID:     "test-join",
		Broadcast:   NewStream[int, string](),
		Main:        NewStream(Pair(1, "a"), Pair(2, "b")),
		KeyOrdering: keyed.NaturalOrdering[int](),
		Join: func(k int, v1 string, other []string) (keyed.Iterator[int], error) {
			return keyed.IteratorOf(len(other)), nil
		},
	}
	res, err := eng.ExecHashJoin(ctx, spec)
	require.Nil(t, err)
	out, err := Collect(ctx, res)
	require.Nil(t, err)
	require.Equal(t, []keyed.KeyValue[int, int]{
		{Key: 1, Value: 0}, {Key: 2, Value: 0},
	}, out)
}

func TestExecHashJoinRejectsNilJoinResult(t *testing.T) {
	ctx := context.Background()
	eng, err := NewJoiner[int, string, string, string](nil, FormatKeyer[int]())
	require.Nil(t, err)

	spec := createTestJoinSpec(NewStream(Pair(1, "x")), NewStream(Pair(1, "a")))
	spec.Join = func(k int, v1 string, other []string) (keyed.Iterator[string], error) {
		return nil, nil
	}
	_, err = eng.ExecHashJoin(ctx, spec)
	require.IsType(t, errors.AssertionViolatedError{}, err)
}
