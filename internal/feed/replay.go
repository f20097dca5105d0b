package feed

import (
	"context"

	"github.com/rs/zerolog/log"

	"vidar/internal/common"
	"vidar/internal/iterator"
)

// Sink consumes replayed records in emission order.
type Sink func(record common.Record) error

// Replayer drives a time-ordered iterator through a sink, one record per
// step. Backtests call Run directly; live hosts compose the same loop
// with adapter-fed streams.
type Replayer struct {
	it   *iterator.Iterator
	sink Sink

	emitted uint64
}

// NewReplayer creates a replayer over an iterator and sink.
func NewReplayer(it *iterator.Iterator, sink Sink) *Replayer {
	return &Replayer{it: it, sink: sink}
}

// Emitted returns the number of records delivered so far.
func (r *Replayer) Emitted() uint64 { return r.emitted }

// Run pulls records until the iterator drains, the sink fails, or the
// context is cancelled.
func (r *Replayer) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			log.Info().Uint64("emitted", r.emitted).Msg("replay cancelled")
			return ctx.Err()
		default:
		}

		record, ok := r.it.Next()
		if !ok {
			log.Info().Uint64("emitted", r.emitted).Msg("replay complete")
			return nil
		}
		if err := r.sink(record); err != nil {
			return err
		}
		r.emitted++
	}
}

// Step delivers a single record, reporting whether one was available.
func (r *Replayer) Step() (bool, error) {
	record, ok := r.it.Next()
	if !ok {
		return false, nil
	}
	if err := r.sink(record); err != nil {
		return false, err
	}
	r.emitted++
	return true, nil
}
