package engine

import (
	"fmt"

	"github.com/shopspring/decimal"

	"vidar/internal/common"
	"vidar/internal/types"
)

// Level is a single price level holding resting orders in FIFO insertion
// order. All orders at a level share its price; an empty level only exists
// transiently inside the operation that removes it.
type Level struct {
	Price  types.Price
	Side   common.OrderSide
	orders []common.BookOrder
}

// NewLevel creates an empty level at the given price.
func NewLevel(price types.Price, side common.OrderSide) *Level {
	return &Level{Price: price, Side: side}
}

// levelFromOrder creates a level seeded with one order.
func levelFromOrder(order common.BookOrder) *Level {
	level := NewLevel(order.Price, order.Side)
	level.add(order)
	return level
}

func (l *Level) add(order common.BookOrder) {
	l.orders = append(l.orders, order)
}

// update replaces the resting size of an order in place, keeping its queue
// position. Returns false if the order id is not at this level.
func (l *Level) update(order common.BookOrder) bool {
	for i := range l.orders {
		if l.orders[i].OrderID == order.OrderID {
			l.orders[i] = order
			return true
		}
	}
	return false
}

// remove deletes an order by id, preserving FIFO order of the remainder.
func (l *Level) remove(orderID uint64) bool {
	for i := range l.orders {
		if l.orders[i].OrderID == orderID {
			l.orders = append(l.orders[:i], l.orders[i+1:]...)
			return true
		}
	}
	return false
}

func (l *Level) contains(orderID uint64) bool {
	for i := range l.orders {
		if l.orders[i].OrderID == orderID {
			return true
		}
	}
	return false
}

// Len returns the number of orders at this level.
func (l *Level) Len() int { return len(l.orders) }

// IsEmpty reports whether the level holds no orders.
func (l *Level) IsEmpty() bool { return len(l.orders) == 0 }

// First returns the order at the front of the FIFO queue.
func (l *Level) First() (common.BookOrder, bool) {
	if len(l.orders) == 0 {
		return common.BookOrder{}, false
	}
	return l.orders[0], true
}

// Orders returns an owned copy of the resting orders in FIFO order.
func (l *Level) Orders() []common.BookOrder {
	out := make([]common.BookOrder, len(l.orders))
	copy(out, l.orders)
	return out
}

// SizeRaw returns the summed raw size of all orders at this level.
func (l *Level) SizeRaw() uint64 {
	var total uint64
	for i := range l.orders {
		total += l.orders[i].Size.Raw
	}
	return total
}

// Size returns the total size at this level as a float.
func (l *Level) Size() float64 {
	var total float64
	for i := range l.orders {
		total += l.orders[i].Size.AsFloat()
	}
	return total
}

// SizeDecimal returns the total size at this level as an exact decimal.
func (l *Level) SizeDecimal() decimal.Decimal {
	total := decimal.Zero
	for i := range l.orders {
		total = total.Add(l.orders[i].Size.AsDecimal())
	}
	return total
}

// Exposure returns price*size summed over the level, as a float.
func (l *Level) Exposure() float64 {
	var total float64
	for i := range l.orders {
		total += l.orders[i].Exposure()
	}
	return total
}

// clone returns a deep copy of the level.
func (l *Level) clone() *Level {
	cp := &Level{Price: l.Price, Side: l.Side, orders: make([]common.BookOrder, len(l.orders))}
	copy(cp.orders, l.orders)
	return cp
}

func (l *Level) String() string {
	return fmt.Sprintf("Level(price=%s, side=%s, orders=%d)", l.Price, l.Side, len(l.orders))
}
