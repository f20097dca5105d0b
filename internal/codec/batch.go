package codec

import (
	"fmt"

	"vidar/internal/common"
	"vidar/internal/types"
)

// DeltaMetadata derives batch metadata from the first record of a delta
// batch.
func DeltaMetadata(deltas []common.BookDelta) Metadata {
	m := Metadata{ID: deltas[0].InstrumentID.String()}
	m.PricePrecision = deltas[0].Order.Price.Precision
	m.SizePrecision = deltas[0].Order.Size.Precision
	return m
}

// EncodeDeltas encodes a homogeneous delta batch. Empty batches are
// rejected so callers handle the no-data case explicitly.
func EncodeDeltas(deltas []common.BookDelta, meta Metadata) ([]byte, error) {
	if len(deltas) == 0 {
		return nil, fmt.Errorf("%w: deltas", common.ErrEmptyBatch)
	}
	w := &writer{}
	writeHeader(w, kindDelta, meta, len(deltas))

	n := len(deltas)
	w.u8Col(n, func(i int) uint8 { return uint8(deltas[i].Action) })
	w.i64Col(n, func(i int) int64 { return deltas[i].Order.Price.Raw })
	w.u64Col(n, func(i int) uint64 { return deltas[i].Order.Size.Raw })
	w.u8Col(n, func(i int) uint8 { return uint8(deltas[i].Order.Side) })
	w.u64Col(n, func(i int) uint64 { return deltas[i].Order.OrderID })
	w.u8Col(n, func(i int) uint8 { return deltas[i].Flags })
	w.u64Col(n, func(i int) uint64 { return deltas[i].Sequence })
	w.u64Col(n, func(i int) uint64 { return deltas[i].TsEvent })
	w.u64Col(n, func(i int) uint64 { return deltas[i].TsInit })
	return w.buf, nil
}

// DecodeDeltas decodes a delta batch.
func DecodeDeltas(buf []byte) ([]common.BookDelta, Metadata, error) {
	r := &reader{buf: buf}
	meta, count := readHeader(r, kindDelta, deltaRecordBytes)
	if r.err != nil {
		return nil, Metadata{}, r.err
	}
	if count == 0 {
		return nil, Metadata{}, fmt.Errorf("%w: deltas", common.ErrEmptyBatch)
	}
	instrumentID, err := common.ParseInstrumentID(meta.ID)
	if err != nil {
		return nil, Metadata{}, &MetadataError{Key: "instrument_id", Err: err}
	}

	deltas := make([]common.BookDelta, count)
	r.u8Col("action", count, func(i int, v uint8) { deltas[i].Action = common.BookAction(v) })
	r.i64Col("price", count, func(i int, v int64) { deltas[i].Order.Price.Raw = v })
	r.u64Col("size", count, func(i int, v uint64) { deltas[i].Order.Size.Raw = v })
	r.u8Col("side", count, func(i int, v uint8) { deltas[i].Order.Side = common.OrderSide(v) })
	r.u64Col("order_id", count, func(i int, v uint64) { deltas[i].Order.OrderID = v })
	r.u8Col("flags", count, func(i int, v uint8) { deltas[i].Flags = v })
	r.u64Col("sequence", count, func(i int, v uint64) { deltas[i].Sequence = v })
	r.u64Col("ts_event", count, func(i int, v uint64) { deltas[i].TsEvent = v })
	r.u64Col("ts_init", count, func(i int, v uint64) { deltas[i].TsInit = v })
	if r.err != nil {
		return nil, Metadata{}, r.err
	}

	for i := range deltas {
		deltas[i].InstrumentID = instrumentID
		// Clear deltas carry no order payload; leave it zero.
		if deltas[i].Action != common.ActionClear {
			deltas[i].Order.Price.Precision = meta.PricePrecision
			deltas[i].Order.Size.Precision = meta.SizePrecision
		}
	}
	return deltas, meta, nil
}

// QuoteMetadata derives batch metadata from the first record of a quote
// batch.
func QuoteMetadata(quotes []common.Quote) Metadata {
	m := Metadata{ID: quotes[0].InstrumentID.String()}
	m.PricePrecision = quotes[0].BidPrice.Precision
	m.SizePrecision = quotes[0].BidSize.Precision
	return m
}

// EncodeQuotes encodes a quote batch.
func EncodeQuotes(quotes []common.Quote, meta Metadata) ([]byte, error) {
	if len(quotes) == 0 {
		return nil, fmt.Errorf("%w: quotes", common.ErrEmptyBatch)
	}
	w := &writer{}
	writeHeader(w, kindQuote, meta, len(quotes))

	n := len(quotes)
	w.i64Col(n, func(i int) int64 { return quotes[i].BidPrice.Raw })
	w.i64Col(n, func(i int) int64 { return quotes[i].AskPrice.Raw })
	w.u64Col(n, func(i int) uint64 { return quotes[i].BidSize.Raw })
	w.u64Col(n, func(i int) uint64 { return quotes[i].AskSize.Raw })
	w.u64Col(n, func(i int) uint64 { return quotes[i].TsEvent })
	w.u64Col(n, func(i int) uint64 { return quotes[i].TsInit })
	return w.buf, nil
}

// DecodeQuotes decodes a quote batch.
func DecodeQuotes(buf []byte) ([]common.Quote, Metadata, error) {
	r := &reader{buf: buf}
	meta, count := readHeader(r, kindQuote, quoteRecordBytes)
	if r.err != nil {
		return nil, Metadata{}, r.err
	}
	if count == 0 {
		return nil, Metadata{}, fmt.Errorf("%w: quotes", common.ErrEmptyBatch)
	}
	instrumentID, err := common.ParseInstrumentID(meta.ID)
	if err != nil {
		return nil, Metadata{}, &MetadataError{Key: "instrument_id", Err: err}
	}

	quotes := make([]common.Quote, count)
	r.i64Col("bid_price", count, func(i int, v int64) { quotes[i].BidPrice.Raw = v })
	r.i64Col("ask_price", count, func(i int, v int64) { quotes[i].AskPrice.Raw = v })
	r.u64Col("bid_size", count, func(i int, v uint64) { quotes[i].BidSize.Raw = v })
	r.u64Col("ask_size", count, func(i int, v uint64) { quotes[i].AskSize.Raw = v })
	r.u64Col("ts_event", count, func(i int, v uint64) { quotes[i].TsEvent = v })
	r.u64Col("ts_init", count, func(i int, v uint64) { quotes[i].TsInit = v })
	if r.err != nil {
		return nil, Metadata{}, r.err
	}

	for i := range quotes {
		quotes[i].InstrumentID = instrumentID
		quotes[i].BidPrice.Precision = meta.PricePrecision
		quotes[i].AskPrice.Precision = meta.PricePrecision
		quotes[i].BidSize.Precision = meta.SizePrecision
		quotes[i].AskSize.Precision = meta.SizePrecision
	}
	return quotes, meta, nil
}

// TradeMetadata derives batch metadata from the first record of a trade
// batch.
func TradeMetadata(trades []common.Trade) Metadata {
	m := Metadata{ID: trades[0].InstrumentID.String()}
	m.PricePrecision = trades[0].Price.Precision
	m.SizePrecision = trades[0].Size.Precision
	return m
}

// EncodeTrades encodes a trade batch.
func EncodeTrades(trades []common.Trade, meta Metadata) ([]byte, error) {
	if len(trades) == 0 {
		return nil, fmt.Errorf("%w: trades", common.ErrEmptyBatch)
	}
	w := &writer{}
	writeHeader(w, kindTrade, meta, len(trades))

	n := len(trades)
	w.i64Col(n, func(i int) int64 { return trades[i].Price.Raw })
	w.u64Col(n, func(i int) uint64 { return trades[i].Size.Raw })
	w.u8Col(n, func(i int) uint8 { return uint8(trades[i].AggressorSide) })
	w.strCol(n, func(i int) string { return string(trades[i].TradeID) })
	w.u64Col(n, func(i int) uint64 { return trades[i].TsEvent })
	w.u64Col(n, func(i int) uint64 { return trades[i].TsInit })
	return w.buf, nil
}

// DecodeTrades decodes a trade batch.
func DecodeTrades(buf []byte) ([]common.Trade, Metadata, error) {
	r := &reader{buf: buf}
	meta, count := readHeader(r, kindTrade, tradeRecordBytes)
	if r.err != nil {
		return nil, Metadata{}, r.err
	}
	if count == 0 {
		return nil, Metadata{}, fmt.Errorf("%w: trades", common.ErrEmptyBatch)
	}
	instrumentID, err := common.ParseInstrumentID(meta.ID)
	if err != nil {
		return nil, Metadata{}, &MetadataError{Key: "instrument_id", Err: err}
	}

	trades := make([]common.Trade, count)
	r.i64Col("price", count, func(i int, v int64) { trades[i].Price.Raw = v })
	r.u64Col("size", count, func(i int, v uint64) { trades[i].Size.Raw = v })
	r.u8Col("aggressor_side", count, func(i int, v uint8) { trades[i].AggressorSide = common.AggressorSide(v) })
	r.strCol("trade_id", count, func(i int, v string) { trades[i].TradeID = common.TradeID(v) })
	r.u64Col("ts_event", count, func(i int, v uint64) { trades[i].TsEvent = v })
	r.u64Col("ts_init", count, func(i int, v uint64) { trades[i].TsInit = v })
	if r.err != nil {
		return nil, Metadata{}, r.err
	}

	for i := range trades {
		trades[i].InstrumentID = instrumentID
		trades[i].Price.Precision = meta.PricePrecision
		trades[i].Size.Precision = meta.SizePrecision
	}
	return trades, meta, nil
}

// BarMetadata derives batch metadata from the first record of a bar
// batch; ID carries the bar type.
func BarMetadata(bars []common.Bar) Metadata {
	m := Metadata{ID: bars[0].BarType.String()}
	m.PricePrecision = bars[0].Open.Precision
	m.SizePrecision = bars[0].Volume.Precision
	return m
}

// EncodeBars encodes a bar batch.
func EncodeBars(bars []common.Bar, meta Metadata) ([]byte, error) {
	if len(bars) == 0 {
		return nil, fmt.Errorf("%w: bars", common.ErrEmptyBatch)
	}
	w := &writer{}
	writeHeader(w, kindBar, meta, len(bars))

	n := len(bars)
	w.i64Col(n, func(i int) int64 { return bars[i].Open.Raw })
	w.i64Col(n, func(i int) int64 { return bars[i].High.Raw })
	w.i64Col(n, func(i int) int64 { return bars[i].Low.Raw })
	w.i64Col(n, func(i int) int64 { return bars[i].Close.Raw })
	w.u64Col(n, func(i int) uint64 { return bars[i].Volume.Raw })
	w.u64Col(n, func(i int) uint64 { return bars[i].TsEvent })
	w.u64Col(n, func(i int) uint64 { return bars[i].TsInit })
	return w.buf, nil
}

// DecodeBars decodes a bar batch.
func DecodeBars(buf []byte) ([]common.Bar, Metadata, error) {
	r := &reader{buf: buf}
	meta, count := readHeader(r, kindBar, barRecordBytes)
	if r.err != nil {
		return nil, Metadata{}, r.err
	}
	if count == 0 {
		return nil, Metadata{}, fmt.Errorf("%w: bars", common.ErrEmptyBatch)
	}
	barType, err := common.ParseBarType(meta.ID)
	if err != nil {
		return nil, Metadata{}, &MetadataError{Key: "bar_type", Err: err}
	}

	bars := make([]common.Bar, count)
	r.i64Col("open", count, func(i int, v int64) { bars[i].Open.Raw = v })
	r.i64Col("high", count, func(i int, v int64) { bars[i].High.Raw = v })
	r.i64Col("low", count, func(i int, v int64) { bars[i].Low.Raw = v })
	r.i64Col("close", count, func(i int, v int64) { bars[i].Close.Raw = v })
	r.u64Col("volume", count, func(i int, v uint64) { bars[i].Volume.Raw = v })
	r.u64Col("ts_event", count, func(i int, v uint64) { bars[i].TsEvent = v })
	r.u64Col("ts_init", count, func(i int, v uint64) { bars[i].TsInit = v })
	if r.err != nil {
		return nil, Metadata{}, r.err
	}

	for i := range bars {
		bars[i].BarType = barType
		for _, p := range []*types.Price{&bars[i].Open, &bars[i].High, &bars[i].Low, &bars[i].Close} {
			p.Precision = meta.PricePrecision
		}
		bars[i].Volume.Precision = meta.SizePrecision
	}
	return bars, meta, nil
}

// Depth10Metadata derives batch metadata from the first record of a
// depth batch. Precisions come from the first populated slot.
func Depth10Metadata(depths []common.Depth10) Metadata {
	m := Metadata{ID: depths[0].InstrumentID.String()}
	for _, order := range depths[0].Bids {
		if order.Side != common.NoOrderSide {
			m.PricePrecision = order.Price.Precision
			m.SizePrecision = order.Size.Precision
			return m
		}
	}
	for _, order := range depths[0].Asks {
		if order.Side != common.NoOrderSide {
			m.PricePrecision = order.Price.Precision
			m.SizePrecision = order.Size.Precision
			return m
		}
	}
	return m
}

// EncodeDepths encodes a Depth10 batch; per-side fields are flattened to
// ten-wide arrays.
func EncodeDepths(depths []common.Depth10, meta Metadata) ([]byte, error) {
	if len(depths) == 0 {
		return nil, fmt.Errorf("%w: depths", common.ErrEmptyBatch)
	}
	w := &writer{}
	writeHeader(w, kindDepth10, meta, len(depths))

	n := len(depths)
	for slot := 0; slot < common.Depth; slot++ {
		w.i64Col(n, func(i int) int64 { return depths[i].Bids[slot].Price.Raw })
		w.u64Col(n, func(i int) uint64 { return depths[i].Bids[slot].Size.Raw })
		w.u8Col(n, func(i int) uint8 { return uint8(depths[i].Bids[slot].Side) })
		w.u64Col(n, func(i int) uint64 { return depths[i].Bids[slot].OrderID })
	}
	for slot := 0; slot < common.Depth; slot++ {
		w.i64Col(n, func(i int) int64 { return depths[i].Asks[slot].Price.Raw })
		w.u64Col(n, func(i int) uint64 { return depths[i].Asks[slot].Size.Raw })
		w.u8Col(n, func(i int) uint8 { return uint8(depths[i].Asks[slot].Side) })
		w.u64Col(n, func(i int) uint64 { return depths[i].Asks[slot].OrderID })
	}
	for slot := 0; slot < common.Depth; slot++ {
		w.u64Col(n, func(i int) uint64 { return uint64(depths[i].BidCounts[slot]) })
	}
	for slot := 0; slot < common.Depth; slot++ {
		w.u64Col(n, func(i int) uint64 { return uint64(depths[i].AskCounts[slot]) })
	}
	w.u8Col(n, func(i int) uint8 { return depths[i].Flags })
	w.u64Col(n, func(i int) uint64 { return depths[i].Sequence })
	w.u64Col(n, func(i int) uint64 { return depths[i].TsEvent })
	w.u64Col(n, func(i int) uint64 { return depths[i].TsInit })
	return w.buf, nil
}

// DecodeDepths decodes a Depth10 batch.
func DecodeDepths(buf []byte) ([]common.Depth10, Metadata, error) {
	r := &reader{buf: buf}
	meta, count := readHeader(r, kindDepth10, depth10RecordBytes)
	if r.err != nil {
		return nil, Metadata{}, r.err
	}
	if count == 0 {
		return nil, Metadata{}, fmt.Errorf("%w: depths", common.ErrEmptyBatch)
	}
	instrumentID, err := common.ParseInstrumentID(meta.ID)
	if err != nil {
		return nil, Metadata{}, &MetadataError{Key: "instrument_id", Err: err}
	}

	depths := make([]common.Depth10, count)
	for slot := 0; slot < common.Depth; slot++ {
		name := fmt.Sprintf("bid_%d", slot)
		r.i64Col(name, count, func(i int, v int64) { depths[i].Bids[slot].Price.Raw = v })
		r.u64Col(name, count, func(i int, v uint64) { depths[i].Bids[slot].Size.Raw = v })
		r.u8Col(name, count, func(i int, v uint8) { depths[i].Bids[slot].Side = common.OrderSide(v) })
		r.u64Col(name, count, func(i int, v uint64) { depths[i].Bids[slot].OrderID = v })
	}
	for slot := 0; slot < common.Depth; slot++ {
		name := fmt.Sprintf("ask_%d", slot)
		r.i64Col(name, count, func(i int, v int64) { depths[i].Asks[slot].Price.Raw = v })
		r.u64Col(name, count, func(i int, v uint64) { depths[i].Asks[slot].Size.Raw = v })
		r.u8Col(name, count, func(i int, v uint8) { depths[i].Asks[slot].Side = common.OrderSide(v) })
		r.u64Col(name, count, func(i int, v uint64) { depths[i].Asks[slot].OrderID = v })
	}
	for slot := 0; slot < common.Depth; slot++ {
		r.u64Col("bid_counts", count, func(i int, v uint64) { depths[i].BidCounts[slot] = uint32(v) })
	}
	for slot := 0; slot < common.Depth; slot++ {
		r.u64Col("ask_counts", count, func(i int, v uint64) { depths[i].AskCounts[slot] = uint32(v) })
	}
	r.u8Col("flags", count, func(i int, v uint8) { depths[i].Flags = v })
	r.u64Col("sequence", count, func(i int, v uint64) { depths[i].Sequence = v })
	r.u64Col("ts_event", count, func(i int, v uint64) { depths[i].TsEvent = v })
	r.u64Col("ts_init", count, func(i int, v uint64) { depths[i].TsInit = v })
	if r.err != nil {
		return nil, Metadata{}, r.err
	}

	for i := range depths {
		depths[i].InstrumentID = instrumentID
		// Padding slots stay zero-valued so round-trips are exact.
		for slot := 0; slot < common.Depth; slot++ {
			if depths[i].Bids[slot].Side != common.NoOrderSide {
				depths[i].Bids[slot].Price.Precision = meta.PricePrecision
				depths[i].Bids[slot].Size.Precision = meta.SizePrecision
			}
			if depths[i].Asks[slot].Side != common.NoOrderSide {
				depths[i].Asks[slot].Price.Precision = meta.PricePrecision
				depths[i].Asks[slot].Size.Precision = meta.SizePrecision
			}
		}
	}
	return depths, meta, nil
}
