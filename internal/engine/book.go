package engine

import (
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"vidar/internal/common"
	"vidar/internal/types"
)

// PriceQty is one entry of an ordered price-to-size view.
type PriceQty struct {
	Price decimal.Decimal
	Size  decimal.Decimal
}

// OrderBook is a per-instrument limit order book supporting three feed
// granularities:
//   - L3 (MBO): individual orders with venue-assigned ids.
//   - L2 (MBP): aggregated size per price level, synthetic level ids.
//   - L1 (MBP): top-of-book only, one synthetic order per side.
//
// The book is the single source of truth for market state: failed
// operations leave it untouched, and integrity checks report violations
// without correcting them.
type OrderBook struct {
	InstrumentID common.InstrumentID
	BookType     common.BookType

	bids *Ladder
	asks *Ladder

	sequence    uint64
	tsLast      uint64
	updateCount uint64
}

// NewOrderBook creates an empty book of the given type.
func NewOrderBook(instrumentID common.InstrumentID, bookType common.BookType) *OrderBook {
	return &OrderBook{
		InstrumentID: instrumentID,
		BookType:     bookType,
		bids:         NewLadder(common.Buy),
		asks:         NewLadder(common.Sell),
	}
}

// Sequence returns the sequence number of the last applied update. Gaps
// are the caller's concern; the book applies out-of-sequence deltas and
// only records what it saw.
func (b *OrderBook) Sequence() uint64 { return b.sequence }

// TsLast returns the ts_event of the most recently applied update.
func (b *OrderBook) TsLast() uint64 { return b.tsLast }

// UpdateCount returns the number of updates applied.
func (b *OrderBook) UpdateCount() uint64 { return b.updateCount }

// Reset restores the book to its initial empty state.
func (b *OrderBook) Reset() {
	b.bids.Clear()
	b.asks.Clear()
	b.sequence = 0
	b.tsLast = 0
	b.updateCount = 0
}

// preProcessOrder rewrites an inbound order according to the book type:
// MBO keeps the venue id; L2 substitutes the synthetic level id; L1 uses
// one id per side so each side holds at most a single order.
func (b *OrderBook) preProcessOrder(order common.BookOrder) common.BookOrder {
	switch b.BookType {
	case common.L2MBP:
		order.OrderID = common.SyntheticOrderID(order.Side, order.Price)
	case common.L1MBP:
		order.OrderID = uint64(order.Side)
	}
	return order
}

func (b *OrderBook) ladder(side common.OrderSide) *Ladder {
	if side == common.Buy {
		return b.bids
	}
	return b.asks
}

// resolveSide fills in a missing order side from the order-id index.
func (b *OrderBook) resolveSide(order common.BookOrder) (common.BookOrder, bool) {
	if b.bids.ContainsOrder(order.OrderID) {
		order.Side = common.Buy
		return order, true
	}
	if b.asks.ContainsOrder(order.OrderID) {
		order.Side = common.Sell
		return order, true
	}
	return order, false
}

// ApplyDelta applies one book mutation. Schema violations (unknown action,
// unresolvable side, action unsupported by the book type) fail the
// operation and leave the book unchanged.
func (b *OrderBook) ApplyDelta(delta common.BookDelta) error {
	if !delta.Action.IsValid() {
		return fmt.Errorf("%w: %d", ErrUnknownAction, delta.Action)
	}

	if delta.Action == common.ActionClear {
		b.Clear(delta.Sequence, delta.TsEvent)
		return nil
	}

	if b.BookType == common.L1MBP && delta.Action != common.ActionUpdate {
		return fmt.Errorf("%w: %s on %s book", ErrInvalidBookOperation, delta.Action, b.BookType)
	}

	order := delta.Order
	if order.Side == common.NoOrderSide {
		if order.OrderID == 0 {
			return fmt.Errorf("%w: action=%s", ErrNoOrderSide, delta.Action)
		}
		resolved, ok := b.resolveSide(order)
		if !ok {
			if delta.Action == common.ActionAdd {
				return fmt.Errorf("%w: add of order_id=%d", ErrNoOrderSide, order.OrderID)
			}
			// Update/Delete of an unknown id with no side: already
			// consistent with the delta's intent.
			log.Debug().
				Str("instrument", b.InstrumentID.String()).
				Uint64("order_id", order.OrderID).
				Str("action", delta.Action.String()).
				Msg("skipping delta for unknown order id")
			return nil
		}
		order = resolved
	}

	switch delta.Action {
	case common.ActionAdd:
		return b.Add(order, delta.Flags, delta.Sequence, delta.TsEvent)
	case common.ActionUpdate:
		return b.Update(order, delta.Flags, delta.Sequence, delta.TsEvent)
	case common.ActionDelete:
		return b.Delete(order, delta.Flags, delta.Sequence, delta.TsEvent)
	default:
		return fmt.Errorf("%w: %d", ErrUnknownAction, delta.Action)
	}
}

// ApplyDeltas applies a batch atomically: on any failure the book is
// restored to its pre-batch state and the error returned.
func (b *OrderBook) ApplyDeltas(deltas common.BookDeltas) error {
	bidsBackup := b.bids.clone()
	asksBackup := b.asks.clone()
	sequence, tsLast, updateCount := b.sequence, b.tsLast, b.updateCount

	for i, delta := range deltas.Deltas {
		if err := b.ApplyDelta(delta); err != nil {
			b.bids = bidsBackup
			b.asks = asksBackup
			b.sequence, b.tsLast, b.updateCount = sequence, tsLast, updateCount
			return fmt.Errorf("delta %d of %d: %w", i, len(deltas.Deltas), err)
		}
	}
	return nil
}

// ApplyDepth replaces both sides with a fixed-depth snapshot. Padding
// entries (no side or zero size) are skipped; a populated entry on the
// wrong side fails the whole operation before any mutation.
func (b *OrderBook) ApplyDepth(depth common.Depth10) error {
	for i, order := range depth.Bids {
		if isDepthPadding(order) {
			continue
		}
		if order.Side != common.Buy {
			return fmt.Errorf("%w: bid slot %d has side %s", ErrNoOrderSide, i, order.Side)
		}
	}
	for i, order := range depth.Asks {
		if isDepthPadding(order) {
			continue
		}
		if order.Side != common.Sell {
			return fmt.Errorf("%w: ask slot %d has side %s", ErrNoOrderSide, i, order.Side)
		}
	}

	b.bids.Clear()
	b.asks.Clear()

	for _, order := range depth.Bids {
		if isDepthPadding(order) {
			continue
		}
		_ = b.bids.Add(b.preProcessOrder(order))
	}
	for _, order := range depth.Asks {
		if isDepthPadding(order) {
			continue
		}
		_ = b.asks.Add(b.preProcessOrder(order))
	}

	b.increment(depth.Sequence, depth.TsEvent)
	return nil
}

func isDepthPadding(order common.BookOrder) bool {
	return order.Side == common.NoOrderSide || !order.Size.IsPositive()
}

// Add inserts an order after book-type preprocessing.
func (b *OrderBook) Add(order common.BookOrder, flags uint8, sequence, tsEvent uint64) error {
	order = b.preProcessOrder(order)
	if err := b.ladder(order.Side).Add(order); err != nil {
		return err
	}
	b.increment(sequence, tsEvent)
	return nil
}

// Update modifies an order after book-type preprocessing. MBP books upsert:
// a level update for an unseen synthetic id becomes an add, which is how
// venues publish new levels on aggregated feeds.
func (b *OrderBook) Update(order common.BookOrder, flags uint8, sequence, tsEvent uint64) error {
	order = b.preProcessOrder(order)
	ladder := b.ladder(order.Side)

	if b.BookType == common.L1MBP {
		// One synthetic order per side: replace outright.
		ladder.RemoveIfExists(order.OrderID)
		if err := ladder.Add(order); err != nil {
			return err
		}
		b.increment(sequence, tsEvent)
		return nil
	}

	err := ladder.Update(order)
	if err != nil && b.BookType == common.L2MBP {
		err = ladder.Add(order)
	}
	if err != nil {
		return err
	}
	b.increment(sequence, tsEvent)
	return nil
}

// Delete removes an order after book-type preprocessing. L2 deletes of
// unknown synthetic ids are tolerated as no-ops.
func (b *OrderBook) Delete(order common.BookOrder, flags uint8, sequence, tsEvent uint64) error {
	order = b.preProcessOrder(order)
	ladder := b.ladder(order.Side)

	if b.BookType == common.L2MBP {
		ladder.RemoveIfExists(order.OrderID)
	} else if err := ladder.Delete(order); err != nil {
		return err
	}
	b.increment(sequence, tsEvent)
	return nil
}

// Clear removes all orders from both sides.
func (b *OrderBook) Clear(sequence, tsEvent uint64) {
	b.bids.Clear()
	b.asks.Clear()
	b.increment(sequence, tsEvent)
}

// ClearBids removes all bid orders.
func (b *OrderBook) ClearBids(sequence, tsEvent uint64) {
	b.bids.Clear()
	b.increment(sequence, tsEvent)
}

// ClearAsks removes all ask orders.
func (b *OrderBook) ClearAsks(sequence, tsEvent uint64) {
	b.asks.Clear()
	b.increment(sequence, tsEvent)
}

func (b *OrderBook) increment(sequence, tsEvent uint64) {
	if sequence < b.sequence {
		log.Warn().
			Str("instrument", b.InstrumentID.String()).
			Uint64("old", b.sequence).
			Uint64("new", sequence).
			Msg("sequence number went backwards")
	}
	if tsEvent < b.tsLast {
		log.Warn().
			Str("instrument", b.InstrumentID.String()).
			Uint64("old", b.tsLast).
			Uint64("new", tsEvent).
			Msg("ts_event went backwards")
	}
	b.sequence = sequence
	b.tsLast = tsEvent
	b.updateCount++
}

// UpdateQuote synthesizes L1 state from a top-of-book quote. Only valid
// for L1 books.
func (b *OrderBook) UpdateQuote(quote common.Quote) error {
	if b.BookType != common.L1MBP {
		return fmt.Errorf("%w: quote update on %s book", ErrInvalidBookOperation, b.BookType)
	}

	bid := common.NewBookOrder(common.Buy, quote.BidPrice, quote.BidSize, uint64(common.Buy))
	ask := common.NewBookOrder(common.Sell, quote.AskPrice, quote.AskSize, uint64(common.Sell))
	b.replaceTop(bid)
	b.replaceTop(ask)

	b.increment(b.sequence+1, quote.TsEvent)
	return nil
}

// UpdateTrade synthesizes L1 state from a trade print, setting both sides
// to the traded price and size. Only valid for L1 books.
func (b *OrderBook) UpdateTrade(trade common.Trade) error {
	if b.BookType != common.L1MBP {
		return fmt.Errorf("%w: trade update on %s book", ErrInvalidBookOperation, b.BookType)
	}

	bid := common.NewBookOrder(common.Buy, trade.Price, trade.Size, uint64(common.Buy))
	ask := common.NewBookOrder(common.Sell, trade.Price, trade.Size, uint64(common.Sell))
	b.replaceTop(bid)
	b.replaceTop(ask)

	b.increment(b.sequence+1, trade.TsEvent)
	return nil
}

func (b *OrderBook) replaceTop(order common.BookOrder) {
	ladder := b.ladder(order.Side)
	if top, ok := ladder.Top(); ok {
		if first, ok := top.First(); ok {
			ladder.RemoveIfExists(first.OrderID)
		}
	}
	_ = ladder.Add(order)
}

// HasBid reports whether any bid order rests in the book.
func (b *OrderBook) HasBid() bool {
	top, ok := b.bids.Top()
	return ok && !top.IsEmpty()
}

// HasAsk reports whether any ask order rests in the book.
func (b *OrderBook) HasAsk() bool {
	top, ok := b.asks.Top()
	return ok && !top.IsEmpty()
}

// BestBidPrice returns the highest bid price if present.
func (b *OrderBook) BestBidPrice() (types.Price, bool) {
	if top, ok := b.bids.Top(); ok {
		return top.Price, true
	}
	return types.Price{}, false
}

// BestAskPrice returns the lowest ask price if present.
func (b *OrderBook) BestAskPrice() (types.Price, bool) {
	if top, ok := b.asks.Top(); ok {
		return top.Price, true
	}
	return types.Price{}, false
}

// BestBidSize returns the size of the first order at the best bid.
func (b *OrderBook) BestBidSize() (types.Quantity, bool) {
	if top, ok := b.bids.Top(); ok {
		if first, ok := top.First(); ok {
			return first.Size, true
		}
	}
	return types.Quantity{}, false
}

// BestAskSize returns the size of the first order at the best ask.
func (b *OrderBook) BestAskSize() (types.Quantity, bool) {
	if top, ok := b.asks.Top(); ok {
		if first, ok := top.First(); ok {
			return first.Size, true
		}
	}
	return types.Quantity{}, false
}

// Spread returns best ask minus best bid when both sides are populated.
func (b *OrderBook) Spread() (float64, bool) {
	bid, okBid := b.BestBidPrice()
	ask, okAsk := b.BestAskPrice()
	if !okBid || !okAsk {
		return 0, false
	}
	return ask.AsFloat() - bid.AsFloat(), true
}

// Midpoint returns the bid/ask midpoint when both sides are populated.
func (b *OrderBook) Midpoint() (float64, bool) {
	bid, okBid := b.BestBidPrice()
	ask, okAsk := b.BestAskPrice()
	if !okBid || !okAsk {
		return 0, false
	}
	return (ask.AsFloat() + bid.AsFloat()) / 2.0, true
}

// BidLevels returns owned copies of up to depth bid levels, best first.
func (b *OrderBook) BidLevels(depth int) []Level { return b.bids.Levels(depth) }

// AskLevels returns owned copies of up to depth ask levels, best first.
func (b *OrderBook) AskLevels(depth int) []Level { return b.asks.Levels(depth) }

// GetAvgPxForQuantity returns the VWAP required to execute qty for a taker
// on the given side, sweeping the opposite ladder.
func (b *OrderBook) GetAvgPxForQuantity(qty types.Quantity, side common.OrderSide) float64 {
	return avgPxForQuantity(qty, b.opposite(side))
}

// GetAvgPxQtyForExposure returns (avgPrice, quantity, executedExposure)
// for a target exposure on the given taker side.
func (b *OrderBook) GetAvgPxQtyForExposure(targetExposure types.Quantity, side common.OrderSide) (float64, float64, float64) {
	return avgPxQtyForExposure(targetExposure, b.opposite(side))
}

// GetQuantityForPrice returns the cumulative size available up to and
// including the given price for a taker on the given side.
func (b *OrderBook) GetQuantityForPrice(price types.Price, side common.OrderSide) float64 {
	return quantityForPrice(price, b.opposite(side))
}

func (b *OrderBook) opposite(side common.OrderSide) *Ladder {
	if side == common.Buy {
		return b.asks
	}
	return b.bids
}

// SimulateFills sweeps the opposite side for a hypothetical taker order.
func (b *OrderBook) SimulateFills(taker common.BookOrder) []Fill {
	return b.opposite(taker.Side).SimulateFills(taker)
}

// CheckIntegrity verifies the book's invariants: an uncrossed book,
// ladder/index coherence, and no empty levels. The first violation found
// is returned; the book is never mutated.
func (b *OrderBook) CheckIntegrity() error {
	bid, okBid := b.BestBidPrice()
	ask, okAsk := b.BestAskPrice()
	if okBid && okAsk && bid.Raw >= ask.Raw {
		return &IntegrityError{
			Kind:    IntegrityCrossed,
			BestBid: bid,
			BestAsk: ask,
		}
	}
	if violation := b.bids.checkIntegrity(); violation != nil {
		return violation
	}
	if violation := b.asks.checkIntegrity(); violation != nil {
		return violation
	}
	return nil
}

// ClearStaleLevels removes overlapped price levels when the book is
// strictly crossed. A side of NoOrderSide clears the crossed range on both
// sides; Buy clears crossed bids only, Sell crossed asks only. Removed
// levels are returned for inspection.
func (b *OrderBook) ClearStaleLevels(side common.OrderSide) []Level {
	if b.BookType == common.L1MBP {
		// A single top-of-book order per side; nothing to prune.
		return nil
	}

	bestBid, okBid := b.BestBidPrice()
	bestAsk, okAsk := b.BestAskPrice()
	if !okBid || !okAsk || bestBid.Raw <= bestAsk.Raw {
		return nil
	}

	clearBids := side != common.Sell
	clearAsks := side != common.Buy

	var bidPrices, askPrices []types.Price
	if clearBids {
		b.bids.Ascend(func(level *Level) bool {
			if level.Price.Raw >= bestAsk.Raw {
				bidPrices = append(bidPrices, level.Price)
				return true
			}
			return false
		})
	}
	if clearAsks {
		b.asks.Ascend(func(level *Level) bool {
			if level.Price.Raw <= bestBid.Raw {
				askPrices = append(askPrices, level.Price)
				return true
			}
			return false
		})
	}

	var removed []Level
	for _, price := range bidPrices {
		if level, ok := b.bids.RemoveLevel(price); ok {
			removed = append(removed, *level)
		}
	}
	for _, price := range askPrices {
		if level, ok := b.asks.RemoveLevel(price); ok {
			removed = append(removed, *level)
		}
	}

	if len(removed) > 0 {
		b.increment(b.sequence, b.tsLast)
		log.Warn().
			Str("instrument", b.InstrumentID.String()).
			Int("levels", len(removed)).
			Str("best_bid", bestBid.String()).
			Str("best_ask", bestAsk.String()).
			Msg("removed stale crossed levels")
	}
	return removed
}

// BidsAsMap returns ordered (price, size) entries for up to depth bid
// levels, best first. A depth of zero returns every level.
func (b *OrderBook) BidsAsMap(depth int) []PriceQty {
	return ladderAsMap(b.bids, depth)
}

// AsksAsMap returns ordered (price, size) entries for up to depth ask
// levels, best first.
func (b *OrderBook) AsksAsMap(depth int) []PriceQty {
	return ladderAsMap(b.asks, depth)
}

func ladderAsMap(ladder *Ladder, depth int) []PriceQty {
	if depth <= 0 {
		depth = ladder.Len()
	}
	out := make([]PriceQty, 0, depth)
	ladder.Ascend(func(level *Level) bool {
		out = append(out, PriceQty{
			Price: level.Price.AsDecimal(),
			Size:  level.SizeDecimal(),
		})
		return len(out) < depth
	})
	return out
}

// GroupBids buckets bid sizes by groupSize-rounded price (floor for bids),
// limited to depth buckets.
func (b *OrderBook) GroupBids(groupSize decimal.Decimal, depth int) []PriceQty {
	return groupLevels(b.bids, groupSize, depth, true)
}

// GroupAsks buckets ask sizes by groupSize-rounded price (ceil for asks),
// limited to depth buckets.
func (b *OrderBook) GroupAsks(groupSize decimal.Decimal, depth int) []PriceQty {
	return groupLevels(b.asks, groupSize, depth, false)
}

func groupLevels(ladder *Ladder, groupSize decimal.Decimal, depth int, isBid bool) []PriceQty {
	if groupSize.Sign() <= 0 {
		log.Error().Str("group_size", groupSize.String()).Msg("group size must be positive")
		return nil
	}
	if depth <= 0 {
		depth = ladder.Len()
	}

	var out []PriceQty
	ladder.Ascend(func(level *Level) bool {
		price := level.Price.AsDecimal()
		var bucket decimal.Decimal
		if isBid {
			bucket = price.Div(groupSize).Floor().Mul(groupSize)
		} else {
			bucket = price.Div(groupSize).Ceil().Mul(groupSize)
		}

		if n := len(out); n > 0 && out[n-1].Price.Equal(bucket) {
			out[n-1].Size = out[n-1].Size.Add(level.SizeDecimal())
			return true
		}
		if len(out) == depth {
			return false
		}
		out = append(out, PriceQty{Price: bucket, Size: level.SizeDecimal()})
		return true
	})
	return out
}

// BidsFilteredAsMap returns the public bid profile with own resting size
// subtracted. Own orders are filtered by status and by the accepted-buffer
// gate before subtraction; prices whose public size reaches zero are
// dropped.
func (b *OrderBook) BidsFilteredAsMap(
	depth int,
	ownBook *OwnOrderBook,
	status map[common.OrderStatus]struct{},
	acceptedBufferNs uint64,
	tsNow uint64,
) []PriceQty {
	public := b.BidsAsMap(depth)
	if ownBook == nil {
		return public
	}
	return filterQuantities(public, ownBook.BidQuantity(status, 0, decimal.Zero, acceptedBufferNs, tsNow))
}

// AsksFilteredAsMap returns the public ask profile with own resting size
// subtracted.
func (b *OrderBook) AsksFilteredAsMap(
	depth int,
	ownBook *OwnOrderBook,
	status map[common.OrderStatus]struct{},
	acceptedBufferNs uint64,
	tsNow uint64,
) []PriceQty {
	public := b.AsksAsMap(depth)
	if ownBook == nil {
		return public
	}
	return filterQuantities(public, ownBook.AskQuantity(status, 0, decimal.Zero, acceptedBufferNs, tsNow))
}

func filterQuantities(public, own []PriceQty) []PriceQty {
	ownAt := make(map[string]decimal.Decimal, len(own))
	for _, entry := range own {
		ownAt[entry.Price.String()] = entry.Size
	}

	out := public[:0]
	for _, entry := range public {
		if ownSize, ok := ownAt[entry.Price.String()]; ok {
			entry.Size = entry.Size.Sub(ownSize)
			if entry.Size.Sign() <= 0 {
				continue
			}
		}
		out = append(out, entry)
	}
	return out
}

func (b *OrderBook) String() string {
	return fmt.Sprintf("OrderBook(instrument_id=%s, book_type=%s, update_count=%d)",
		b.InstrumentID, b.BookType, b.updateCount)
}
