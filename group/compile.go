package group

import (
	"context"

	uuid "github.com/gofrs/uuid"

	"github.com/go-sif/keyed"
	"github.com/go-sif/keyed/errors"
)

// Materialize compiles this step into its physical form and hands it to eng. An
// identity step with no reducer hint is a logical no-op: the source stream is
// returned directly, with no grouping stage at all. With a hint set, a
// partition-only stage is submitted purely to control output parallelism. The
// result of the first call is memoized; concurrent callers sharing this step
// observe a single stage submission.
func (r *IdentityReduce[K, V]) Materialize(ctx context.Context, eng keyed.GroupEngine[K, V, V]) (keyed.Stream[K, V], error) {
	r.mat.once.Do(func() {
		if r.reducers == 0 {
			r.mat.stream = r.source
			return
		}
		spec := &keyed.GroupSpec[K, V, V]{
			Source:      r.source,
			KeyOrdering: r.keyOrdering,
			Transform:   keyed.IdentityTransform[K, V](),
			Reducers:    r.reducers,
		}
		r.mat.stream, r.mat.err = execGroup(ctx, eng, spec)
	})
	return r.mat.stream, r.mat.err
}

// Materialize compiles this step into a grouping stage with a secondary sort:
// values pass through unchanged per key, in the installed order. Memoized as for
// IdentityReduce.
func (r *IdentityValueSortedReduce[K, V]) Materialize(ctx context.Context, eng keyed.GroupEngine[K, V, V]) (keyed.Stream[K, V], error) {
	r.mat.once.Do(func() {
		valueSort := r.valueSort
		spec := &keyed.GroupSpec[K, V, V]{
			Source:      r.source,
			KeyOrdering: r.keyOrdering,
			ValueSort:   &valueSort,
			Transform:   keyed.IdentityTransform[K, V](),
			Reducers:    r.reducers,
		}
		r.mat.stream, r.mat.err = execGroup(ctx, eng, spec)
	})
	return r.mat.stream, r.mat.err
}

// Materialize compiles this step into a grouping stage which applies the composed
// per-key transform in a single pass over each key's (unsorted) values. Memoized
// as for IdentityReduce.
func (r *IteratorMappedReduce[K, V1, V2]) Materialize(ctx context.Context, eng keyed.GroupEngine[K, V1, V2]) (keyed.Stream[K, V2], error) {
	r.mat.once.Do(func() {
		spec := &keyed.GroupSpec[K, V1, V2]{
			Source:      r.source,
			KeyOrdering: r.keyOrdering,
			Transform:   r.transform,
			Combiner:    r.combiner,
			Reducers:    r.reducers,
		}
		r.mat.stream, r.mat.err = execGroup(ctx, eng, spec)
	})
	return r.mat.stream, r.mat.err
}

// Materialize compiles this step into a grouping stage with a secondary sort,
// applying the composed per-key transform in a single pass over each key's sorted
// values. Memoized as for IdentityReduce.
func (r *ValueSortedReduce[K, V1, V2]) Materialize(ctx context.Context, eng keyed.GroupEngine[K, V1, V2]) (keyed.Stream[K, V2], error) {
	r.mat.once.Do(func() {
		valueSort := r.valueSort
		spec := &keyed.GroupSpec[K, V1, V2]{
			Source:      r.source,
			KeyOrdering: r.keyOrdering,
			ValueSort:   &valueSort,
			Transform:   r.transform,
			Reducers:    r.reducers,
		}
		r.mat.stream, r.mat.err = execGroup(ctx, eng, spec)
	})
	return r.mat.stream, r.mat.err
}

// execGroup finishes a GroupSpec with a stage id, re-validates it, and submits it.
// Validation here is defense in depth - every condition is already prevented at
// the operation which would introduce it.
func execGroup[K any, V1 any, V2 any](ctx context.Context, eng keyed.GroupEngine[K, V1, V2], spec *keyed.GroupSpec[K, V1, V2]) (keyed.Stream[K, V2], error) {
	if err := validateGroupSpec(spec); err != nil {
		return nil, err
	}
	id, err := uuid.NewV4()
	if err != nil {
		return nil, err
	}
	spec.StageID = id.String()
	return eng.ExecGroup(ctx, spec)
}

func validateGroupSpec[K any, V1 any, V2 any](spec *keyed.GroupSpec[K, V1, V2]) error {
	if spec.Source == nil {
		return errors.MissingSourceError{}
	}
	if spec.KeyOrdering == nil {
		return errors.MissingKeyOrderingError{}
	}
	if spec.Reducers < 0 {
		return errors.InvalidReducersError{Count: spec.Reducers}
	}
	if spec.Transform == nil {
		return errors.AssertionViolatedError{Context: "group stage compilation: no per-key transform"}
	}
	return nil
}
