package engine

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/tidwall/btree"

	"vidar/internal/common"
	"vidar/internal/types"
)

// OwnBookOrder is the trader's view of one of their own live orders.
type OwnBookOrder struct {
	TraderID      common.TraderID      `json:"trader_id"`
	ClientOrderID common.ClientOrderID `json:"client_order_id"`
	VenueOrderID  common.VenueOrderID  `json:"venue_order_id,omitempty"`
	Side          common.OrderSide     `json:"side"`
	Price         types.Price          `json:"price"`
	Size          types.Quantity       `json:"size"`
	OrderType     common.OrderType     `json:"order_type"`
	TimeInForce   common.TimeInForce   `json:"time_in_force"`
	Status        common.OrderStatus   `json:"status"`
	TsLast        uint64               `json:"ts_last"`
	TsAccepted    uint64               `json:"ts_accepted"`
	TsSubmitted   uint64               `json:"ts_submitted"`
	TsInit        uint64               `json:"ts_init"`
}

func (o OwnBookOrder) String() string {
	return fmt.Sprintf("OwnBookOrder(client_order_id=%s, side=%s, price=%s, size=%s, status=%s)",
		o.ClientOrderID, o.Side, o.Price, o.Size, o.Status)
}

// ownLevel keeps the trader's orders at one price in insertion order.
type ownLevel struct {
	price  types.Price
	orders []OwnBookOrder
}

func (l *ownLevel) add(order OwnBookOrder) {
	l.orders = append(l.orders, order)
}

// replace swaps an order in place, keeping its queue position.
func (l *ownLevel) replace(order OwnBookOrder) bool {
	for i := range l.orders {
		if l.orders[i].ClientOrderID == order.ClientOrderID {
			l.orders[i] = order
			return true
		}
	}
	return false
}

func (l *ownLevel) remove(id common.ClientOrderID) bool {
	for i := range l.orders {
		if l.orders[i].ClientOrderID == id {
			l.orders = append(l.orders[:i], l.orders[i+1:]...)
			return true
		}
	}
	return false
}

// OwnLevelView is an owned snapshot of the trader's orders at one price.
type OwnLevelView struct {
	Price  types.Price
	Orders []OwnBookOrder
}

// ownLadder is one side of the own book.
type ownLadder struct {
	side   common.OrderSide
	levels *btree.BTreeG[*ownLevel]
}

func newOwnLadder(side common.OrderSide) *ownLadder {
	var less func(a, b *ownLevel) bool
	if side == common.Buy {
		less = func(a, b *ownLevel) bool { return a.price.Raw > b.price.Raw }
	} else {
		less = func(a, b *ownLevel) bool { return a.price.Raw < b.price.Raw }
	}
	return &ownLadder{side: side, levels: btree.NewBTreeG(less)}
}

func (l *ownLadder) add(order OwnBookOrder) {
	probe := &ownLevel{price: order.Price}
	if level, ok := l.levels.Get(probe); ok {
		level.add(order)
		return
	}
	level := &ownLevel{price: order.Price}
	level.add(order)
	l.levels.Set(level)
}

func (l *ownLadder) remove(price types.Price, id common.ClientOrderID) {
	probe := &ownLevel{price: price}
	if level, ok := l.levels.Get(probe); ok {
		level.remove(id)
		if len(level.orders) == 0 {
			l.levels.Delete(probe)
		}
	}
}

func (l *ownLadder) replace(price types.Price, order OwnBookOrder) bool {
	if level, ok := l.levels.Get(&ownLevel{price: price}); ok {
		return level.replace(order)
	}
	return false
}

// OwnOrderBook tracks the trader's own live orders per instrument, keyed
// by client order id and grouped by price. It answers status-filtered
// queries used for queue-position estimates against the venue book.
type OwnOrderBook struct {
	InstrumentID common.InstrumentID

	bids  *ownLadder
	asks  *ownLadder
	index map[common.ClientOrderID]OwnBookOrder

	tsLast      uint64
	updateCount uint64
}

// NewOwnOrderBook creates an empty own-order book.
func NewOwnOrderBook(instrumentID common.InstrumentID) *OwnOrderBook {
	return &OwnOrderBook{
		InstrumentID: instrumentID,
		bids:         newOwnLadder(common.Buy),
		asks:         newOwnLadder(common.Sell),
		index:        make(map[common.ClientOrderID]OwnBookOrder),
	}
}

// TsLast returns the timestamp of the last applied own-order event.
func (b *OwnOrderBook) TsLast() uint64 { return b.tsLast }

// UpdateCount returns the number of own-order events applied.
func (b *OwnOrderBook) UpdateCount() uint64 { return b.updateCount }

// Count returns the resident order count.
func (b *OwnOrderBook) Count() int { return len(b.index) }

func (b *OwnOrderBook) ladder(side common.OrderSide) *ownLadder {
	if side == common.Buy {
		return b.bids
	}
	return b.asks
}

// Add inserts an own order; the client order id must be new.
func (b *OwnOrderBook) Add(order OwnBookOrder) error {
	if order.Side == common.NoOrderSide {
		return fmt.Errorf("%w: client_order_id=%s", ErrNoOrderSide, order.ClientOrderID)
	}
	if _, ok := b.index[order.ClientOrderID]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateClientOrderID, order.ClientOrderID)
	}
	b.index[order.ClientOrderID] = order
	b.ladder(order.Side).add(order)
	b.touch(order.TsLast)
	return nil
}

// Update replaces an own order by client order id. A price change moves
// the order between levels (to the back of the new level); a same-price
// update keeps its position.
func (b *OwnOrderBook) Update(order OwnBookOrder) error {
	existing, ok := b.index[order.ClientOrderID]
	if !ok {
		return fmt.Errorf("%w: %s", ErrClientOrderNotFound, order.ClientOrderID)
	}

	if existing.Side == order.Side && existing.Price.Raw == order.Price.Raw {
		if !b.ladder(order.Side).replace(order.Price, order) {
			return fmt.Errorf("%w: %s (index without level)", ErrClientOrderNotFound, order.ClientOrderID)
		}
	} else {
		b.ladder(existing.Side).remove(existing.Price, existing.ClientOrderID)
		b.ladder(order.Side).add(order)
	}
	b.index[order.ClientOrderID] = order
	b.touch(order.TsLast)
	return nil
}

// Delete removes an own order by client order id.
func (b *OwnOrderBook) Delete(order OwnBookOrder) error {
	existing, ok := b.index[order.ClientOrderID]
	if !ok {
		return fmt.Errorf("%w: %s", ErrClientOrderNotFound, order.ClientOrderID)
	}
	b.ladder(existing.Side).remove(existing.Price, existing.ClientOrderID)
	delete(b.index, existing.ClientOrderID)
	b.touch(order.TsLast)
	return nil
}

// Clear removes every resident order.
func (b *OwnOrderBook) Clear() {
	b.bids = newOwnLadder(common.Buy)
	b.asks = newOwnLadder(common.Sell)
	b.index = make(map[common.ClientOrderID]OwnBookOrder)
}

// AuditOpenOrders reconciles against the execution engine's truth: any
// resident order whose client order id is not in openSet is evicted. The
// operation is idempotent.
func (b *OwnOrderBook) AuditOpenOrders(openSet map[common.ClientOrderID]struct{}) {
	for id, order := range b.index {
		if _, ok := openSet[id]; !ok {
			b.ladder(order.Side).remove(order.Price, id)
			delete(b.index, id)
		}
	}
}

// Order returns a resident order by client order id.
func (b *OwnOrderBook) Order(id common.ClientOrderID) (OwnBookOrder, bool) {
	order, ok := b.index[id]
	return order, ok
}

// Orders returns owned copies of every resident order.
func (b *OwnOrderBook) Orders() []OwnBookOrder {
	out := make([]OwnBookOrder, 0, len(b.index))
	for _, order := range b.index {
		out = append(out, order)
	}
	return out
}

// includeOrder applies the status filter and the accepted-buffer gate. A
// tsNow of zero disables buffer gating entirely.
func includeOrder(order OwnBookOrder, status map[common.OrderStatus]struct{}, acceptedBufferNs, tsNow uint64) bool {
	if status != nil {
		if _, ok := status[order.Status]; !ok {
			return false
		}
	}
	if acceptedBufferNs > 0 && tsNow > 0 {
		if order.TsAccepted == 0 || tsNow < order.TsAccepted+acceptedBufferNs {
			return false
		}
	}
	return true
}

// BidsAsMap returns owned per-price views of the trader's bids, best
// first, filtered by status and the accepted-buffer gate.
func (b *OwnOrderBook) BidsAsMap(status map[common.OrderStatus]struct{}, acceptedBufferNs, tsNow uint64) []OwnLevelView {
	return ownLadderAsMap(b.bids, status, acceptedBufferNs, tsNow)
}

// AsksAsMap returns owned per-price views of the trader's asks, best
// first, filtered by status and the accepted-buffer gate.
func (b *OwnOrderBook) AsksAsMap(status map[common.OrderStatus]struct{}, acceptedBufferNs, tsNow uint64) []OwnLevelView {
	return ownLadderAsMap(b.asks, status, acceptedBufferNs, tsNow)
}

func ownLadderAsMap(ladder *ownLadder, status map[common.OrderStatus]struct{}, acceptedBufferNs, tsNow uint64) []OwnLevelView {
	var out []OwnLevelView
	ladder.levels.Scan(func(level *ownLevel) bool {
		var orders []OwnBookOrder
		for _, order := range level.orders {
			if includeOrder(order, status, acceptedBufferNs, tsNow) {
				orders = append(orders, order)
			}
		}
		if len(orders) > 0 {
			out = append(out, OwnLevelView{Price: level.price, Orders: orders})
		}
		return true
	})
	return out
}

// BidQuantity aggregates the trader's bid size by price, best first.
// Depth limits the number of entries; a positive groupSize buckets prices
// (floor for bids) before aggregation.
func (b *OwnOrderBook) BidQuantity(status map[common.OrderStatus]struct{}, depth int, groupSize decimal.Decimal, acceptedBufferNs, tsNow uint64) []PriceQty {
	return ownQuantity(b.bids, status, depth, groupSize, acceptedBufferNs, tsNow, true)
}

// AskQuantity aggregates the trader's ask size by price, best first, with
// ceil bucketing when groupSize is positive.
func (b *OwnOrderBook) AskQuantity(status map[common.OrderStatus]struct{}, depth int, groupSize decimal.Decimal, acceptedBufferNs, tsNow uint64) []PriceQty {
	return ownQuantity(b.asks, status, depth, groupSize, acceptedBufferNs, tsNow, false)
}

func ownQuantity(
	ladder *ownLadder,
	status map[common.OrderStatus]struct{},
	depth int,
	groupSize decimal.Decimal,
	acceptedBufferNs, tsNow uint64,
	isBid bool,
) []PriceQty {
	grouping := groupSize.Sign() > 0
	var out []PriceQty

	ladder.levels.Scan(func(level *ownLevel) bool {
		size := decimal.Zero
		for _, order := range level.orders {
			if includeOrder(order, status, acceptedBufferNs, tsNow) {
				size = size.Add(order.Size.AsDecimal())
			}
		}
		if size.Sign() == 0 {
			return true
		}

		price := level.price.AsDecimal()
		if grouping {
			if isBid {
				price = price.Div(groupSize).Floor().Mul(groupSize)
			} else {
				price = price.Div(groupSize).Ceil().Mul(groupSize)
			}
		}

		if n := len(out); n > 0 && out[n-1].Price.Equal(price) {
			out[n-1].Size = out[n-1].Size.Add(size)
			return true
		}
		if depth > 0 && len(out) == depth {
			return false
		}
		out = append(out, PriceQty{Price: price, Size: size})
		return true
	})
	return out
}

func (b *OwnOrderBook) touch(tsLast uint64) {
	if tsLast > b.tsLast {
		b.tsLast = tsLast
	}
	b.updateCount++
}

func (b *OwnOrderBook) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "OwnOrderBook(instrument_id=%s, orders=%d)", b.InstrumentID, len(b.index))
	return sb.String()
}
