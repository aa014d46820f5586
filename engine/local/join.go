package local

import (
	"context"

	"github.com/go-sif/keyed"
	"github.com/go-sif/keyed/errors"
	"github.com/go-sif/keyed/logging"
)

// A Joiner executes broadcast hash join stages in memory
type Joiner[K any, V any, V1 any, R any] struct {
	opts  *Options
	keyFn keyed.KeyingOperation[K]
	log   *logging.Logger
}

var _ keyed.JoinEngine[int, int, int, int] = (*Joiner[int, int, int, int])(nil)

// NewJoiner produces a Joiner which hashes keys via keyFn's serialization of
// them. Equal keys must serialize identically.
func NewJoiner[K any, V any, V1 any, R any](opts *Options, keyFn keyed.KeyingOperation[K]) (*Joiner[K, V, V1, R], error) {
	if opts == nil {
		opts = &Options{}
	}
	if err := opts.validate(); err != nil {
		return nil, err
	}
	if keyFn == nil {
		return nil, errors.AssertionViolatedError{Context: "local joiner construction: nil keying operation"}
	}
	return &Joiner[K, V, V1, R]{
		opts:  opts,
		keyFn: keyFn,
		log:   &logging.Logger{Level: opts.LogLevel},
	}, nil
}

// ExecHashJoin collects the broadcast side into a hash table, then walks the main
// side in arrival order, invoking the join operation once per pair with whatever
// broadcast values share its key. The main side is consumed exactly once and
// never reordered.
func (j *Joiner[K, V, V1, R]) ExecHashJoin(ctx context.Context, spec *keyed.JoinSpec[K, V, V1, R]) (keyed.Stream[K, R], error) {
	if err := j.validate(spec); err != nil {
		return nil, err
	}
	table, err := j.buildTable(ctx, spec)
	if err != nil {
		return nil, err
	}
	mainIt, err := spec.Main.Open(ctx)
	if err != nil {
		return nil, err
	}
	var out []keyed.KeyValue[K, R]
	rows := 0
	for mainIt.HasNext() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		kv, err := mainIt.Next()
		if err != nil {
			return nil, err
		}
		rows++
		entry, err := table.entry(kv.Key, false)
		if err != nil {
			return nil, err
		}
		var other []V
		if entry != nil {
			other = entry.values
		}
		joined, err := spec.Join(kv.Key, kv.Value, other)
		if err != nil {
			return nil, err
		}
		if joined == nil {
			return nil, errors.AssertionViolatedError{Context: "local join execution: join operation returned nil iterator"}
		}
		for joined.HasNext() {
			r, err := joined.Next()
			if err != nil {
				return nil, err
			}
			out = append(out, keyed.KeyValue[K, R]{Key: kv.Key, Value: r})
		}
	}
	j.log.Logf(logging.DebugLevel, "stage %s: joined %d rows into %d results", spec.StageID, rows, len(out))
	return NewStream(out...), nil
}

func (j *Joiner[K, V, V1, R]) validate(spec *keyed.JoinSpec[K, V, V1, R]) error {
	if spec == nil || spec.Broadcast == nil || spec.Main == nil {
		return errors.MissingSourceError{}
	}
	if spec.KeyOrdering == nil {
		return errors.MissingKeyOrderingError{}
	}
	if spec.Join == nil {
		return errors.NilJoinerError{}
	}
	return nil
}

func (j *Joiner[K, V, V1, R]) buildTable(ctx context.Context, spec *keyed.JoinSpec[K, V, V1, R]) (*hashTable[K, V], error) {
	it, err := spec.Broadcast.Open(ctx)
	if err != nil {
		return nil, err
	}
	table := newHashTable[K, V](spec.KeyOrdering, j.keyFn)
	for it.HasNext() {
		kv, err := it.Next()
		if err != nil {
			return nil, err
		}
		entry, err := table.entry(kv.Key, true)
		if err != nil {
			return nil, err
		}
		entry.values = append(entry.values, kv.Value)
	}
	return table, nil
}
