package common

import (
	"fmt"

	"vidar/internal/types"
)

// BookOrder is a single resting order (or synthetic level entry) in a book.
// In MBO feeds the id is venue-assigned and unique per side; in MBP feeds
// it is a synthetic level id derived from the side and raw price.
type BookOrder struct {
	Side    OrderSide      `json:"side"`
	Price   types.Price    `json:"price"`
	Size    types.Quantity `json:"size"`
	OrderID uint64         `json:"order_id"`
}

// NewBookOrder creates a book order.
func NewBookOrder(side OrderSide, price types.Price, size types.Quantity, orderID uint64) BookOrder {
	return BookOrder{Side: side, Price: price, Size: size, OrderID: orderID}
}

// SyntheticOrderID derives the deterministic level id used for MBP books.
// The raw price is zig-zag encoded so negative prices never occupy the top
// bit, then the side is folded into that bit. Injective within a side for
// all raw values, and across sides for |raw| < 2^62.
func SyntheticOrderID(side OrderSide, price types.Price) uint64 {
	id := uint64(price.Raw<<1) ^ uint64(price.Raw>>63)
	if side == Sell {
		id |= 1 << 63
	}
	return id
}

// Exposure returns price*size as a float, for analytics only.
func (o BookOrder) Exposure() float64 {
	return o.Price.AsFloat() * o.Size.AsFloat()
}

func (o BookOrder) String() string {
	return fmt.Sprintf("BookOrder(side=%s, price=%s, size=%s, order_id=%d)",
		o.Side, o.Price, o.Size, o.OrderID)
}
