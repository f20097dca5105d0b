package engine

import (
	"fmt"
	"strings"

	"github.com/tidwall/btree"

	"vidar/internal/common"
	"vidar/internal/types"
)

// Fill is one (price, quantity) pair produced by a simulated sweep.
type Fill struct {
	Price types.Price
	Size  types.Quantity
}

// Ladder is one side of an order book: price-sorted levels plus an
// order-id index into them. Bids sort descending on price, asks ascending,
// so the best level on either side is always the btree minimum.
type Ladder struct {
	Side   common.OrderSide
	levels *btree.BTreeG[*Level]
	cache  map[uint64]types.Price
}

// NewLadder creates an empty ladder for the given side.
func NewLadder(side common.OrderSide) *Ladder {
	var less func(a, b *Level) bool
	if side == common.Buy {
		// Sorted greatest first.
		less = func(a, b *Level) bool { return a.Price.Raw > b.Price.Raw }
	} else {
		// Sorted least first.
		less = func(a, b *Level) bool { return a.Price.Raw < b.Price.Raw }
	}
	return &Ladder{
		Side:   side,
		levels: btree.NewBTreeG(less),
		cache:  make(map[uint64]types.Price),
	}
}

// Len returns the number of price levels.
func (l *Ladder) Len() int { return l.levels.Len() }

// IsEmpty reports whether the ladder has no levels.
func (l *Ladder) IsEmpty() bool { return l.levels.Len() == 0 }

// Clear removes all levels and index entries.
func (l *Ladder) Clear() {
	l.levels.Clear()
	l.cache = make(map[uint64]types.Price)
}

// Add inserts an order at its price level, creating the level if needed.
// Duplicate order ids are rejected.
func (l *Ladder) Add(order common.BookOrder) error {
	if _, ok := l.cache[order.OrderID]; ok {
		return fmt.Errorf("%w: side=%s order_id=%d", ErrDuplicateOrderID, l.Side, order.OrderID)
	}
	l.cache[order.OrderID] = order.Price

	probe := &Level{Price: order.Price}
	if level, ok := l.levels.Get(probe); ok {
		level.add(order)
	} else {
		l.levels.Set(levelFromOrder(order))
	}
	return nil
}

// Update modifies a resting order. A same-price update replaces size in
// place and keeps queue position; a price change is a delete followed by an
// add, forfeiting queue position.
func (l *Ladder) Update(order common.BookOrder) error {
	price, ok := l.cache[order.OrderID]
	if !ok {
		return fmt.Errorf("%w: side=%s order_id=%d", ErrOrderNotFound, l.Side, order.OrderID)
	}

	if price.Raw == order.Price.Raw {
		if level, ok := l.levels.Get(&Level{Price: price}); ok {
			if !level.update(order) {
				return fmt.Errorf("%w: side=%s order_id=%d (index without membership)", ErrOrderNotFound, l.Side, order.OrderID)
			}
			return nil
		}
		return fmt.Errorf("%w: side=%s order_id=%d (index without level)", ErrOrderNotFound, l.Side, order.OrderID)
	}

	// Price moved: lose queue position.
	l.removeAt(price, order.OrderID)
	delete(l.cache, order.OrderID)
	return l.Add(order)
}

// Delete removes an order by id; the level goes with it if it empties.
func (l *Ladder) Delete(order common.BookOrder) error {
	return l.Remove(order.OrderID)
}

// Remove removes an order by id.
func (l *Ladder) Remove(orderID uint64) error {
	if !l.RemoveIfExists(orderID) {
		return fmt.Errorf("%w: side=%s order_id=%d", ErrOrderNotFound, l.Side, orderID)
	}
	return nil
}

// RemoveIfExists removes an order by id, reporting whether it was present.
// MBP feeds may delete synthetic level ids the book never saw, so callers
// in L2 mode treat a miss as a no-op rather than a failure.
func (l *Ladder) RemoveIfExists(orderID uint64) bool {
	price, ok := l.cache[orderID]
	if !ok {
		return false
	}
	delete(l.cache, orderID)
	l.removeAt(price, orderID)
	return true
}

func (l *Ladder) removeAt(price types.Price, orderID uint64) {
	probe := &Level{Price: price}
	if level, ok := l.levels.Get(probe); ok {
		level.remove(orderID)
		if level.IsEmpty() {
			l.levels.Delete(probe)
		}
	}
}

// RemoveLevel removes and returns the whole level at a price, clearing the
// index entries of its orders.
func (l *Ladder) RemoveLevel(price types.Price) (*Level, bool) {
	probe := &Level{Price: price}
	level, ok := l.levels.Get(probe)
	if !ok {
		return nil, false
	}
	for _, order := range level.orders {
		delete(l.cache, order.OrderID)
	}
	l.levels.Delete(probe)
	return level, true
}

// Top returns the best level: max price for bids, min price for asks.
func (l *Ladder) Top() (*Level, bool) {
	return l.levels.Min()
}

// ContainsOrder reports whether an order id is indexed.
func (l *Ladder) ContainsOrder(orderID uint64) bool {
	_, ok := l.cache[orderID]
	return ok
}

// OrderPrice returns the indexed level price of an order id.
func (l *Ladder) OrderPrice(orderID uint64) (types.Price, bool) {
	price, ok := l.cache[orderID]
	return price, ok
}

// Ascend walks levels from best to worst, stopping when fn returns false.
func (l *Ladder) Ascend(fn func(level *Level) bool) {
	l.levels.Scan(fn)
}

// Levels returns owned copies of up to depth levels, best first. A depth of
// zero returns every level.
func (l *Ladder) Levels(depth int) []Level {
	if depth <= 0 {
		depth = l.levels.Len()
	}
	out := make([]Level, 0, depth)
	l.levels.Scan(func(level *Level) bool {
		out = append(out, *level.clone())
		return len(out) < depth
	})
	return out
}

// Sizes returns the total size resting on the ladder, as a float.
func (l *Ladder) Sizes() float64 {
	var total float64
	l.levels.Scan(func(level *Level) bool {
		total += level.Size()
		return true
	})
	return total
}

// Exposures returns the total price*size exposure of the ladder.
func (l *Ladder) Exposures() float64 {
	var total float64
	l.levels.Scan(func(level *Level) bool {
		total += level.Exposure()
		return true
	})
	return total
}

// SimulateFills walks levels from the top, consuming resting orders in
// FIFO order until the taker is exhausted, the taker's limit price is
// passed, or the ladder runs dry. Fills at one level merge into a single
// (price, qty) pair.
func (l *Ladder) SimulateFills(taker common.BookOrder) []Fill {
	var fills []Fill
	remaining := taker.Size.Raw

	l.levels.Scan(func(level *Level) bool {
		if l.Side == common.Buy {
			// Selling into bids: stop below the taker's limit.
			if level.Price.Raw < taker.Price.Raw {
				return false
			}
		} else {
			// Buying from asks: stop above the taker's limit.
			if level.Price.Raw > taker.Price.Raw {
				return false
			}
		}

		var filledAtLevel uint64
		for _, resting := range level.orders {
			if remaining == 0 {
				break
			}
			take := resting.Size.Raw
			if take > remaining {
				take = remaining
			}
			filledAtLevel += take
			remaining -= take
		}
		if filledAtLevel > 0 {
			fills = append(fills, Fill{
				Price: level.Price,
				Size:  types.Quantity{Raw: filledAtLevel, Precision: taker.Size.Precision},
			})
		}
		return remaining > 0
	})

	return fills
}

// checkIntegrity verifies index/level coherence and the non-empty level
// invariant for this side.
func (l *Ladder) checkIntegrity() *IntegrityError {
	for orderID, price := range l.cache {
		level, ok := l.levels.Get(&Level{Price: price})
		if !ok || !level.contains(orderID) {
			return &IntegrityError{
				Kind:    IntegrityIndexMismatch,
				Side:    l.Side,
				OrderID: orderID,
				Price:   price,
			}
		}
	}

	var violation *IntegrityError
	l.levels.Scan(func(level *Level) bool {
		if level.IsEmpty() {
			violation = &IntegrityError{
				Kind:  IntegrityEmptyLevel,
				Side:  l.Side,
				Price: level.Price,
			}
			return false
		}
		for _, order := range level.orders {
			price, ok := l.cache[order.OrderID]
			if !ok || price.Raw != level.Price.Raw {
				violation = &IntegrityError{
					Kind:    IntegrityIndexMismatch,
					Side:    l.Side,
					OrderID: order.OrderID,
					Price:   level.Price,
				}
				return false
			}
		}
		return true
	})
	return violation
}

// clone returns a deep copy of the ladder.
func (l *Ladder) clone() *Ladder {
	cp := NewLadder(l.Side)
	l.levels.Scan(func(level *Level) bool {
		cp.levels.Set(level.clone())
		return true
	})
	for id, price := range l.cache {
		cp.cache[id] = price
	}
	return cp
}

func (l *Ladder) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Ladder(side=%s)\n", l.Side)
	l.levels.Scan(func(level *Level) bool {
		fmt.Fprintf(&sb, "  %s -> %d orders\n", level.Price, level.Len())
		return true
	})
	return sb.String()
}
