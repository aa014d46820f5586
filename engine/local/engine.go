// Package local implements Keyed's engine capabilities in memory. It performs a
// real partition-by-key across a configurable number of reducers, honours
// secondary sort and combiner pre-aggregation, and runs per-key transforms over
// contiguous groups in parallel. It exists for testing grouping chains and for
// running them on datasets that fit in memory - distribution, spilling and fault
// tolerance are the business of heavier engines.
package local

import (
	"context"
	"fmt"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/go-sif/keyed"
	"github.com/go-sif/keyed/errors"
	"github.com/go-sif/keyed/logging"
)

// Options configures a local engine
type Options struct {
	// DefaultReducers is the reducer count used by grouping stages which carry
	// no reducer hint. Defaults to runtime.NumCPU().
	DefaultReducers int
	// LogLevel filters engine logging. Defaults to logging.InfoLevel.
	LogLevel int
}

func (o *Options) validate() error {
	if o.DefaultReducers < 0 {
		return errors.InvalidReducersError{Count: o.DefaultReducers}
	}
	return nil
}

// A Grouper executes grouping stages in memory, one reducer per goroutine
type Grouper[K any, V1 any, V2 any] struct {
	opts  *Options
	keyFn keyed.KeyingOperation[K]
	log   *logging.Logger
}

var _ keyed.GroupEngine[int, int, int] = (*Grouper[int, int, int])(nil)

// NewGrouper produces a Grouper which assigns keys to reducers by hashing keyFn's
// serialization of them. Equal keys must serialize identically.
func NewGrouper[K any, V1 any, V2 any](opts *Options, keyFn keyed.KeyingOperation[K]) (*Grouper[K, V1, V2], error) {
	if opts == nil {
		opts = &Options{}
	}
	if err := opts.validate(); err != nil {
		return nil, err
	}
	if keyFn == nil {
		return nil, errors.AssertionViolatedError{Context: "local grouper construction: nil keying operation"}
	}
	return &Grouper[K, V1, V2]{
		opts:  opts,
		keyFn: keyFn,
		log:   &logging.Logger{Level: opts.LogLevel},
	}, nil
}

// FormatKeyer produces a KeyingOperation which serializes keys via their default
// format. Suitable for primitive key types, where formatting agrees with equality.
func FormatKeyer[K any]() keyed.KeyingOperation[K] {
	return func(key K) ([]byte, error) {
		return []byte(fmt.Sprintf("%v", key)), nil
	}
}

// ExecGroup runs one grouping stage: ingest (with optional per-partition combine),
// partition by key hash, sort each reducer's pairs by key (and value, if a
// secondary sort is requested), then run the per-key transform over each
// contiguous group. Reducers run concurrently; output preserves reducer order.
func (g *Grouper[K, V1, V2]) ExecGroup(ctx context.Context, spec *keyed.GroupSpec[K, V1, V2]) (keyed.Stream[K, V2], error) {
	if err := g.validate(spec); err != nil {
		return nil, err
	}
	reducers := spec.Reducers
	if reducers == 0 {
		reducers = g.opts.DefaultReducers
	}
	if reducers == 0 {
		reducers = runtime.NumCPU()
	}
	g.log.Logf(logging.DebugLevel, "stage %s: grouping into %d reducers", spec.StageID, reducers)

	buckets, err := g.ingest(ctx, spec, reducers)
	if err != nil {
		return nil, err
	}

	results := make([][]keyed.KeyValue[K, V2], reducers)
	eg, egCtx := errgroup.WithContext(ctx)
	for i := range buckets {
		i := i
		eg.Go(func() error {
			out, err := runReducer(egCtx, spec, buckets[i])
			if err != nil {
				return err
			}
			results[i] = out
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		g.log.Logf(logging.ErrorLevel, "stage %s: %v", spec.StageID, err)
		return nil, err
	}
	g.log.Logf(logging.DebugLevel, "stage %s: finished", spec.StageID)
	return NewPartitionedStream(results...), nil
}

func (g *Grouper[K, V1, V2]) validate(spec *keyed.GroupSpec[K, V1, V2]) error {
	if spec == nil || spec.Source == nil {
		return errors.MissingSourceError{}
	}
	if spec.KeyOrdering == nil {
		return errors.MissingKeyOrderingError{}
	}
	if spec.Reducers < 0 {
		return errors.InvalidReducersError{Count: spec.Reducers}
	}
	if spec.Transform == nil {
		return errors.AssertionViolatedError{Context: "local group execution: no per-key transform"}
	}
	return nil
}

// ingest reads the source into per-reducer buckets. When the spec carries a
// combiner, values sharing a key are pre-aggregated within each source partition
// before landing in a bucket, shrinking what a real engine would shuffle.
func (g *Grouper[K, V1, V2]) ingest(ctx context.Context, spec *keyed.GroupSpec[K, V1, V2], reducers int) ([][]keyed.KeyValue[K, V1], error) {
	partitions, err := openPartitions(ctx, spec.Source)
	if err != nil {
		return nil, err
	}
	buckets := make([][]keyed.KeyValue[K, V1], reducers)
	for _, part := range partitions {
		pairs, err := keyed.CollectIterator(part)
		if err != nil {
			return nil, err
		}
		if spec.Combiner != nil {
			pairs, err = combine(pairs, spec.KeyOrdering, g.keyFn, spec.Combiner)
			if err != nil {
				return nil, err
			}
		}
		for _, kv := range pairs {
			bucket, err := reducerFor(kv.Key, g.keyFn, reducers)
			if err != nil {
				return nil, err
			}
			buckets[bucket] = append(buckets[bucket], kv)
		}
	}
	return buckets, nil
}

// openPartitions preserves the source's partition layout when it exposes one,
// and otherwise treats the whole stream as a single partition
func openPartitions[K any, V any](ctx context.Context, s keyed.Stream[K, V]) ([]keyed.Iterator[keyed.KeyValue[K, V]], error) {
	if ps, ok := s.(PartitionedStream[K, V]); ok {
		return ps.OpenPartitions(ctx)
	}
	it, err := s.Open(ctx)
	if err != nil {
		return nil, err
	}
	return []keyed.Iterator[keyed.KeyValue[K, V]]{it}, nil
}
