package common

import (
	"encoding/json"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vidar/internal/types"
)

func TestParseInstrumentID(t *testing.T) {
	id, err := ParseInstrumentID("BTCUSDT.BINANCE")
	require.NoError(t, err)
	assert.Equal(t, "BTCUSDT", id.Symbol)
	assert.Equal(t, "BINANCE", id.Venue)

	// Dotted symbols split at the last dot.
	id, err = ParseInstrumentID("BRK.B.NYSE")
	require.NoError(t, err)
	assert.Equal(t, "BRK.B", id.Symbol)
	assert.Equal(t, "NYSE", id.Venue)

	for _, in := range []string{"", "NOVENUE", ".BINANCE", "BTCUSDT."} {
		_, err := ParseInstrumentID(in)
		require.ErrorIs(t, err, ErrInvalidIdentifier, in)
	}
}

func TestParseBarType(t *testing.T) {
	bt, err := ParseBarType("BTCUSDT.BINANCE-1-MINUTE-LAST")
	require.NoError(t, err)
	assert.Equal(t, "BTCUSDT", bt.InstrumentID.Symbol)
	assert.Equal(t, "1-MINUTE-LAST", bt.Spec)
	assert.Equal(t, "BTCUSDT.BINANCE-1-MINUTE-LAST", bt.String())

	// Dashed symbols survive: the spec starts after the venue dot.
	bt, err = ParseBarType("BTC-PERP.FTX-5-SECOND-MID")
	require.NoError(t, err)
	assert.Equal(t, "BTC-PERP", bt.InstrumentID.Symbol)
	assert.Equal(t, "5-SECOND-MID", bt.Spec)

	for _, in := range []string{"", "BTCUSDT.BINANCE", "BTCUSDT-1-MINUTE"} {
		_, err := ParseBarType(in)
		require.Error(t, err, in)
	}
}

func TestOrderSideOpposite(t *testing.T) {
	assert.Equal(t, Sell, Buy.Opposite())
	assert.Equal(t, Buy, Sell.Opposite())
	assert.Equal(t, NoOrderSide, NoOrderSide.Opposite())
}

func TestBookActionIsValid(t *testing.T) {
	for _, a := range []BookAction{ActionAdd, ActionUpdate, ActionDelete, ActionClear} {
		assert.True(t, a.IsValid(), a.String())
	}
	assert.False(t, BookAction(0).IsValid())
	assert.False(t, BookAction(9).IsValid())
}

func TestOrderStatusIsClosed(t *testing.T) {
	closed := []OrderStatus{StatusFilled, StatusCanceled, StatusRejected, StatusExpired}
	for _, s := range closed {
		assert.True(t, s.IsClosed(), s.String())
	}
	open := []OrderStatus{StatusInitialized, StatusSubmitted, StatusAccepted, StatusPendingCancel, StatusPartiallyFilled}
	for _, s := range open {
		assert.False(t, s.IsClosed(), s.String())
	}
}

func TestSyntheticOrderID(t *testing.T) {
	price, err := types.ParsePrice("100.00", 2)
	require.NoError(t, err)

	bid := SyntheticOrderID(Buy, price)
	ask := SyntheticOrderID(Sell, price)
	assert.NotEqual(t, bid, ask)
	assert.Equal(t, uint64(price.Raw)<<1, bid)
	assert.Equal(t, uint64(price.Raw)<<1|1<<63, ask)
}

func TestSyntheticOrderIDNegativePrices(t *testing.T) {
	// Negative raw prices must not collide with positive ones on the same
	// side, and both sides of a negative price stay distinct.
	neg := types.Price{Raw: math.MinInt64 + 5, Precision: 2}
	pos := types.Price{Raw: 5, Precision: 2}
	assert.NotEqual(t, SyntheticOrderID(Buy, neg), SyntheticOrderID(Buy, pos))
	assert.NotEqual(t, SyntheticOrderID(Sell, neg), SyntheticOrderID(Sell, pos))

	spread := types.Price{Raw: -100, Precision: 2}
	assert.NotEqual(t, SyntheticOrderID(Buy, spread), SyntheticOrderID(Sell, spread))
	assert.NotEqual(t, SyntheticOrderID(Buy, spread), SyntheticOrderID(Buy, types.Price{Raw: 100, Precision: 2}))
}

func TestNewBookDeltasValidation(t *testing.T) {
	id := InstrumentID{Symbol: "BTCUSDT", Venue: "BINANCE"}
	other := InstrumentID{Symbol: "ETHUSDT", Venue: "BINANCE"}

	_, err := NewBookDeltas(id, nil)
	require.ErrorIs(t, err, ErrEmptyBatch)

	_, err = NewBookDeltas(id, []BookDelta{NewClearDelta(other, 1, 100, 100)})
	require.Error(t, err)

	batch, err := NewBookDeltas(id, []BookDelta{
		NewClearDelta(id, 1, 100, 101),
		NewClearDelta(id, 2, 200, 201),
	})
	require.NoError(t, err)
	assert.Equal(t, uint64(200), batch.EventNs())
	assert.Equal(t, uint64(201), batch.InitNs())
}

func TestRecordInterface(t *testing.T) {
	id := InstrumentID{Symbol: "BTCUSDT", Venue: "BINANCE"}
	records := []Record{
		BookDelta{InstrumentID: id, TsEvent: 1, TsInit: 2},
		Depth10{InstrumentID: id, TsEvent: 1, TsInit: 2},
		Quote{InstrumentID: id, TsEvent: 1, TsInit: 2},
		Trade{InstrumentID: id, TsEvent: 1, TsInit: 2},
		Bar{BarType: BarType{InstrumentID: id, Spec: "1-MINUTE-LAST"}, TsEvent: 1, TsInit: 2},
	}
	for _, r := range records {
		assert.Equal(t, id, r.RecordInstrumentID())
		assert.Equal(t, uint64(1), r.EventNs())
		assert.Equal(t, uint64(2), r.InitNs())
	}
}

func TestBookDeltaJSONRoundTrip(t *testing.T) {
	price, err := types.ParsePrice("100.00", 2)
	require.NoError(t, err)
	size, err := types.ParseQuantity("1.50", 2)
	require.NoError(t, err)

	delta := BookDelta{
		InstrumentID: InstrumentID{Symbol: "BTCUSDT", Venue: "BINANCE"},
		Action:       ActionAdd,
		Order:        NewBookOrder(Buy, price, size, 42),
		Flags:        FlagLast,
		Sequence:     7,
		TsEvent:      100,
		TsInit:       101,
	}

	buf, err := json.Marshal(delta)
	require.NoError(t, err)

	var back BookDelta
	require.NoError(t, json.Unmarshal(buf, &back))
	assert.Equal(t, delta, back)
}

func TestTestClock(t *testing.T) {
	clock := NewTestClock(1_000)
	assert.Equal(t, uint64(1_000), clock.TimestampNs())

	clock.Advance(2 * time.Nanosecond)
	assert.Equal(t, uint64(1_002), clock.TimestampNs())

	clock.SetTime(5_000)
	assert.Equal(t, uint64(5_000), clock.TimestampNs())
}

func TestNewClientOrderIDUnique(t *testing.T) {
	a := NewClientOrderID()
	b := NewClientOrderID()
	assert.NotEqual(t, a, b)
	assert.NotEmpty(t, a)
}
