// Package feed hosts the data plane around the book engine: a dispatcher
// that fans inbound records out to per-instrument applier goroutines, and
// a replayer that drives the time-ordered iterator through it.
package feed

import (
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog/log"
	tomb "gopkg.in/tomb.v2"

	"vidar/internal/common"
	"vidar/internal/engine"
)

const laneSize = 100

var (
	ErrUnknownInstrument = errors.New("unknown instrument")
	ErrDispatcherClosed  = errors.New("dispatcher closed")
)

// Dispatcher routes records to per-instrument lanes. Every instrument is
// owned by exactly one applier goroutine, so book state is mutated
// without locking. Registration is not safe concurrently with Submit.
type Dispatcher struct {
	t *tomb.Tomb

	mu    sync.Mutex
	lanes map[common.InstrumentID]chan common.Record
	books map[common.InstrumentID]*engine.OrderBook
}

// NewDispatcher creates a dispatcher whose applier goroutines run under
// the given tomb.
func NewDispatcher(t *tomb.Tomb) *Dispatcher {
	return &Dispatcher{
		t:     t,
		lanes: make(map[common.InstrumentID]chan common.Record),
		books: make(map[common.InstrumentID]*engine.OrderBook),
	}
}

// Register creates the lane and applier goroutine for a book. A second
// registration for the same instrument is rejected.
func (d *Dispatcher) Register(book *engine.OrderBook) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	id := book.InstrumentID
	if _, ok := d.lanes[id]; ok {
		return fmt.Errorf("instrument %s already registered", id)
	}

	lane := make(chan common.Record, laneSize)
	d.lanes[id] = lane
	d.books[id] = book

	d.t.Go(func() error {
		return d.run(book, lane)
	})
	return nil
}

// Book returns the registered book for an instrument.
func (d *Dispatcher) Book(id common.InstrumentID) (*engine.OrderBook, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	book, ok := d.books[id]
	return book, ok
}

// Submit routes one record to its instrument's lane, blocking while the
// lane is full. Returns ErrDispatcherClosed once the tomb is dying.
func (d *Dispatcher) Submit(record common.Record) error {
	d.mu.Lock()
	lane, ok := d.lanes[record.RecordInstrumentID()]
	d.mu.Unlock()
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownInstrument, record.RecordInstrumentID())
	}

	select {
	case lane <- record:
		return nil
	case <-d.t.Dying():
		return ErrDispatcherClosed
	}
}

// run is the single applier loop for one instrument.
func (d *Dispatcher) run(book *engine.OrderBook, lane <-chan common.Record) error {
	for {
		select {
		case record := <-lane:
			if err := Apply(book, record); err != nil {
				log.Error().
					Err(err).
					Str("instrument", book.InstrumentID.String()).
					Msg("record rejected by book")
			}
		case <-d.t.Dying():
			return nil
		}
	}
}

// Apply dispatches one record to the matching book operation. Quotes and
// trades only drive L1 books; bars carry no book state and are skipped.
func Apply(book *engine.OrderBook, record common.Record) error {
	switch r := record.(type) {
	case common.BookDelta:
		return book.ApplyDelta(r)
	case common.BookDeltas:
		return book.ApplyDeltas(r)
	case common.Depth10:
		return book.ApplyDepth(r)
	case common.Quote:
		if book.BookType != common.L1MBP {
			return nil
		}
		return book.UpdateQuote(r)
	case common.Trade:
		if book.BookType != common.L1MBP {
			return nil
		}
		return book.UpdateTrade(r)
	case common.Bar:
		return nil
	default:
		return fmt.Errorf("unhandled record type %T", record)
	}
}
