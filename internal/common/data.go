package common

import (
	"errors"
	"fmt"
	"strings"

	"vidar/internal/types"
)

// Depth is the fixed number of levels per side in a Depth10 snapshot.
const Depth = 10

var ErrEmptyBatch = errors.New("empty record batch")

// Record is the closed set of market-data event types flowing through the
// plane. ts_event is the venue-assigned time, ts_init the local ingest
// time; within a stream ts_init is non-decreasing.
type Record interface {
	RecordInstrumentID() InstrumentID
	EventNs() uint64
	InitNs() uint64
}

// BookDelta is a single order book mutation.
type BookDelta struct {
	InstrumentID InstrumentID `json:"instrument_id"`
	Action       BookAction   `json:"action"`
	Order        BookOrder    `json:"order"`
	Flags        uint8        `json:"flags"`
	Sequence     uint64       `json:"sequence"`
	TsEvent      uint64       `json:"ts_event"`
	TsInit       uint64       `json:"ts_init"`
}

func (d BookDelta) RecordInstrumentID() InstrumentID { return d.InstrumentID }
func (d BookDelta) EventNs() uint64                  { return d.TsEvent }
func (d BookDelta) InitNs() uint64                   { return d.TsInit }

// NewClearDelta creates a Clear delta, which carries no order payload.
func NewClearDelta(instrumentID InstrumentID, sequence, tsEvent, tsInit uint64) BookDelta {
	return BookDelta{
		InstrumentID: instrumentID,
		Action:       ActionClear,
		Sequence:     sequence,
		TsEvent:      tsEvent,
		TsInit:       tsInit,
	}
}

// BookDeltas is an atomic batch of deltas sharing an instrument. The final
// delta carries FlagLast.
type BookDeltas struct {
	InstrumentID InstrumentID `json:"instrument_id"`
	Deltas       []BookDelta  `json:"deltas"`
}

// NewBookDeltas validates and wraps a non-empty delta batch.
func NewBookDeltas(instrumentID InstrumentID, deltas []BookDelta) (BookDeltas, error) {
	if len(deltas) == 0 {
		return BookDeltas{}, fmt.Errorf("%w: book deltas", ErrEmptyBatch)
	}
	for i, d := range deltas {
		if d.InstrumentID != instrumentID {
			return BookDeltas{}, fmt.Errorf("delta %d instrument %s does not match batch instrument %s",
				i, d.InstrumentID, instrumentID)
		}
	}
	return BookDeltas{InstrumentID: instrumentID, Deltas: deltas}, nil
}

func (d BookDeltas) RecordInstrumentID() InstrumentID { return d.InstrumentID }
func (d BookDeltas) EventNs() uint64                  { return d.Deltas[len(d.Deltas)-1].TsEvent }
func (d BookDeltas) InitNs() uint64                   { return d.Deltas[len(d.Deltas)-1].TsInit }

// Depth10 is a fixed-depth snapshot of the ten best levels per side.
// Unused slots hold zero-size orders with NoOrderSide.
type Depth10 struct {
	InstrumentID InstrumentID     `json:"instrument_id"`
	Bids         [Depth]BookOrder `json:"bids"`
	Asks         [Depth]BookOrder `json:"asks"`
	BidCounts    [Depth]uint32    `json:"bid_counts"`
	AskCounts    [Depth]uint32    `json:"ask_counts"`
	Flags        uint8            `json:"flags"`
	Sequence     uint64           `json:"sequence"`
	TsEvent      uint64           `json:"ts_event"`
	TsInit       uint64           `json:"ts_init"`
}

func (d Depth10) RecordInstrumentID() InstrumentID { return d.InstrumentID }
func (d Depth10) EventNs() uint64                  { return d.TsEvent }
func (d Depth10) InitNs() uint64                   { return d.TsInit }

// Quote is a top-of-book quote tick.
type Quote struct {
	InstrumentID InstrumentID   `json:"instrument_id"`
	BidPrice     types.Price    `json:"bid_price"`
	AskPrice     types.Price    `json:"ask_price"`
	BidSize      types.Quantity `json:"bid_size"`
	AskSize      types.Quantity `json:"ask_size"`
	TsEvent      uint64         `json:"ts_event"`
	TsInit       uint64         `json:"ts_init"`
}

func (q Quote) RecordInstrumentID() InstrumentID { return q.InstrumentID }
func (q Quote) EventNs() uint64                  { return q.TsEvent }
func (q Quote) InitNs() uint64                   { return q.TsInit }

// Trade is a trade print.
type Trade struct {
	InstrumentID  InstrumentID   `json:"instrument_id"`
	Price         types.Price    `json:"price"`
	Size          types.Quantity `json:"size"`
	AggressorSide AggressorSide  `json:"aggressor_side"`
	TradeID       TradeID        `json:"trade_id"`
	TsEvent       uint64         `json:"ts_event"`
	TsInit        uint64         `json:"ts_init"`
}

func (t Trade) RecordInstrumentID() InstrumentID { return t.InstrumentID }
func (t Trade) EventNs() uint64                  { return t.TsEvent }
func (t Trade) InitNs() uint64                   { return t.TsInit }

// BarType names an aggregation of an instrument's data, e.g.
// "BTCUSDT.BINANCE-1-MINUTE-LAST".
type BarType struct {
	InstrumentID InstrumentID `json:"instrument_id"`
	Spec         string       `json:"spec"`
}

func (b BarType) String() string {
	return b.InstrumentID.String() + "-" + b.Spec
}

// ParseBarType parses "SYMBOL.VENUE-SPEC". The instrument id ends at the
// first dash after the venue dot, so dashed symbols survive.
func ParseBarType(s string) (BarType, error) {
	dot := strings.LastIndexByte(s, '.')
	if dot < 0 {
		return BarType{}, fmt.Errorf("malformed bar type %q", s)
	}
	dash := strings.IndexByte(s[dot:], '-')
	if dash < 0 {
		return BarType{}, fmt.Errorf("malformed bar type %q", s)
	}
	dash += dot
	if dash == len(s)-1 {
		return BarType{}, fmt.Errorf("malformed bar type %q", s)
	}
	instrumentID, err := ParseInstrumentID(s[:dash])
	if err != nil {
		return BarType{}, fmt.Errorf("malformed bar type %q: %w", s, err)
	}
	return BarType{InstrumentID: instrumentID, Spec: s[dash+1:]}, nil
}

// Bar is an aggregated OHLCV bar.
type Bar struct {
	BarType BarType        `json:"bar_type"`
	Open    types.Price    `json:"open"`
	High    types.Price    `json:"high"`
	Low     types.Price    `json:"low"`
	Close   types.Price    `json:"close"`
	Volume  types.Quantity `json:"volume"`
	TsEvent uint64         `json:"ts_event"`
	TsInit  uint64         `json:"ts_init"`
}

func (b Bar) RecordInstrumentID() InstrumentID { return b.BarType.InstrumentID }
func (b Bar) EventNs() uint64                  { return b.TsEvent }
func (b Bar) InitNs() uint64                   { return b.TsInit }
