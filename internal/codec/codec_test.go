package codec

import (
	"encoding/binary"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vidar/internal/common"
	"vidar/internal/types"
)

var testInstrument = common.InstrumentID{Symbol: "BTCUSDT", Venue: "BINANCE"}

func px(t *testing.T, s string) types.Price {
	t.Helper()
	p, err := types.PriceFromString(s)
	require.NoError(t, err)
	return p
}

func qty(t *testing.T, s string) types.Quantity {
	t.Helper()
	q, err := types.QuantityFromString(s)
	require.NoError(t, err)
	return q
}

func testDeltas(t *testing.T) []common.BookDelta {
	t.Helper()
	return []common.BookDelta{
		{
			InstrumentID: testInstrument,
			Action:       common.ActionAdd,
			Order:        common.NewBookOrder(common.Buy, px(t, "100.00"), qty(t, "1.50"), 7),
			Flags:        common.FlagLast,
			Sequence:     1,
			TsEvent:      100,
			TsInit:       101,
		},
		{
			InstrumentID: testInstrument,
			Action:       common.ActionDelete,
			Order:        common.NewBookOrder(common.Sell, px(t, "101.25"), qty(t, "0.00"), 9),
			Sequence:     2,
			TsEvent:      200,
			TsInit:       201,
		},
		common.NewClearDelta(testInstrument, 3, 300, 301),
	}
}

func TestDeltaBatchRoundTrip(t *testing.T) {
	deltas := testDeltas(t)
	buf, err := EncodeDeltas(deltas, DeltaMetadata(deltas))
	require.NoError(t, err)

	decoded, meta, err := DecodeDeltas(buf)
	require.NoError(t, err)
	assert.Equal(t, deltas, decoded)
	assert.Equal(t, testInstrument.String(), meta.ID)
	assert.Equal(t, uint8(2), meta.PricePrecision)
	assert.Equal(t, uint8(2), meta.SizePrecision)
}

func TestEncodeEmptyBatchRejected(t *testing.T) {
	_, err := EncodeDeltas(nil, Metadata{})
	require.ErrorIs(t, err, common.ErrEmptyBatch)

	_, err = EncodeQuotes(nil, Metadata{})
	require.ErrorIs(t, err, common.ErrEmptyBatch)

	_, err = EncodeTrades(nil, Metadata{})
	require.ErrorIs(t, err, common.ErrEmptyBatch)

	_, err = EncodeBars(nil, Metadata{})
	require.ErrorIs(t, err, common.ErrEmptyBatch)

	_, err = EncodeDepths(nil, Metadata{})
	require.ErrorIs(t, err, common.ErrEmptyBatch)
}

func TestDecodeBadMagic(t *testing.T) {
	_, _, err := DecodeDeltas([]byte("nope"))
	require.ErrorIs(t, err, ErrBadMagic)
}

func TestDecodeWrongKind(t *testing.T) {
	deltas := testDeltas(t)
	buf, err := EncodeDeltas(deltas, DeltaMetadata(deltas))
	require.NoError(t, err)

	_, _, err = DecodeQuotes(buf)
	require.ErrorIs(t, err, ErrWrongKind)
}

func TestDecodeTruncatedNamesColumn(t *testing.T) {
	trades := testTrades(t)
	buf, err := EncodeTrades(trades, TradeMetadata(trades))
	require.NoError(t, err)

	// Cut into the final ts_init column.
	_, _, err = DecodeTrades(buf[:len(buf)-4])
	require.Error(t, err)
	var colErr *ColumnError
	require.ErrorAs(t, err, &colErr)
	assert.Equal(t, "ts_init", colErr.Column)
}

func TestDecodeOversizedCountRejected(t *testing.T) {
	decoders := map[string]struct {
		kind   uint8
		decode func([]byte) error
	}{
		"deltas": {kindDelta, func(b []byte) error { _, _, err := DecodeDeltas(b); return err }},
		"quotes": {kindQuote, func(b []byte) error { _, _, err := DecodeQuotes(b); return err }},
		"trades": {kindTrade, func(b []byte) error { _, _, err := DecodeTrades(b); return err }},
		"bars":   {kindBar, func(b []byte) error { _, _, err := DecodeBars(b); return err }},
		"depths": {kindDepth10, func(b []byte) error { _, _, err := DecodeDepths(b); return err }},
	}

	for name, tc := range decoders {
		t.Run(name, func(t *testing.T) {
			w := &writer{}
			writeHeader(w, tc.kind, Metadata{ID: "X.Y", PricePrecision: 2, SizePrecision: 2}, 0)
			// A count no buffer this size could hold must fail the decode,
			// not drive the record allocation.
			binary.LittleEndian.PutUint32(w.buf[len(w.buf)-4:], math.MaxUint32)

			err := tc.decode(w.buf)
			require.Error(t, err)
			var colErr *ColumnError
			require.ErrorAs(t, err, &colErr)
			assert.Equal(t, "count", colErr.Column)
		})
	}
}

func TestDecodeBadInstrumentMetadata(t *testing.T) {
	deltas := testDeltas(t)
	meta := DeltaMetadata(deltas)
	meta.ID = "NODOTVENUE"
	buf, err := EncodeDeltas(deltas, meta)
	require.NoError(t, err)

	_, _, err = DecodeDeltas(buf)
	var metaErr *MetadataError
	require.ErrorAs(t, err, &metaErr)
	assert.Equal(t, "instrument_id", metaErr.Key)
}

func TestQuoteBatchRoundTrip(t *testing.T) {
	quotes := []common.Quote{
		{
			InstrumentID: testInstrument,
			BidPrice:     px(t, "100.00"),
			AskPrice:     px(t, "100.10"),
			BidSize:      qty(t, "5.0"),
			AskSize:      qty(t, "6.0"),
			TsEvent:      100,
			TsInit:       101,
		},
		{
			InstrumentID: testInstrument,
			BidPrice:     px(t, "100.05"),
			AskPrice:     px(t, "100.15"),
			BidSize:      qty(t, "4.0"),
			AskSize:      qty(t, "2.5"),
			TsEvent:      200,
			TsInit:       201,
		},
	}

	buf, err := EncodeQuotes(quotes, QuoteMetadata(quotes))
	require.NoError(t, err)
	decoded, _, err := DecodeQuotes(buf)
	require.NoError(t, err)
	assert.Equal(t, quotes, decoded)
}

func testTrades(t *testing.T) []common.Trade {
	t.Helper()
	return []common.Trade{
		{
			InstrumentID:  testInstrument,
			Price:         px(t, "100.07"),
			Size:          qty(t, "1.25"),
			AggressorSide: common.BuyAggressor,
			TradeID:       "T-1",
			TsEvent:       100,
			TsInit:        101,
		},
		{
			InstrumentID:  testInstrument,
			Price:         px(t, "100.09"),
			Size:          qty(t, "0.75"),
			AggressorSide: common.SellAggressor,
			TradeID:       "T-2",
			TsEvent:       200,
			TsInit:        201,
		},
	}
}

func TestTradeBatchRoundTrip(t *testing.T) {
	trades := testTrades(t)
	buf, err := EncodeTrades(trades, TradeMetadata(trades))
	require.NoError(t, err)
	decoded, _, err := DecodeTrades(buf)
	require.NoError(t, err)
	assert.Equal(t, trades, decoded)
}

func TestBarBatchRoundTrip(t *testing.T) {
	barType := common.BarType{InstrumentID: testInstrument, Spec: "1-MINUTE-LAST"}
	bars := []common.Bar{
		{
			BarType: barType,
			Open:    px(t, "100.00"),
			High:    px(t, "101.00"),
			Low:     px(t, "99.50"),
			Close:   px(t, "100.75"),
			Volume:  qty(t, "12.5"),
			TsEvent: 100,
			TsInit:  101,
		},
	}

	buf, err := EncodeBars(bars, BarMetadata(bars))
	require.NoError(t, err)
	decoded, meta, err := DecodeBars(buf)
	require.NoError(t, err)
	assert.Equal(t, bars, decoded)
	assert.Equal(t, "BTCUSDT.BINANCE-1-MINUTE-LAST", meta.ID)
}

func TestDepthBatchRoundTrip(t *testing.T) {
	var depth common.Depth10
	depth.InstrumentID = testInstrument
	depth.Bids[0] = common.NewBookOrder(common.Buy, px(t, "100.00"), qty(t, "1.0"), 1)
	depth.Bids[1] = common.NewBookOrder(common.Buy, px(t, "99.50"), qty(t, "2.0"), 2)
	depth.Asks[0] = common.NewBookOrder(common.Sell, px(t, "100.50"), qty(t, "3.0"), 3)
	depth.BidCounts[0] = 1
	depth.BidCounts[1] = 2
	depth.AskCounts[0] = 1
	depth.Flags = common.FlagSnapshot
	depth.Sequence = 42
	depth.TsEvent = 100
	depth.TsInit = 101

	depths := []common.Depth10{depth}
	buf, err := EncodeDepths(depths, Depth10Metadata(depths))
	require.NoError(t, err)
	decoded, _, err := DecodeDepths(buf)
	require.NoError(t, err)
	assert.Equal(t, depths, decoded)
}

func TestJSONBatchRoundTrip(t *testing.T) {
	deltas := testDeltas(t)
	buf, err := EncodeJSON(deltas)
	require.NoError(t, err)

	decoded, err := DecodeJSON[common.BookDelta](buf)
	require.NoError(t, err)
	assert.Equal(t, deltas, decoded)

	_, err = EncodeJSON[common.BookDelta](nil)
	require.ErrorIs(t, err, common.ErrEmptyBatch)
}
