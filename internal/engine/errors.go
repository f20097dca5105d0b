package engine

import (
	"errors"
	"fmt"

	"vidar/internal/common"
	"vidar/internal/types"
)

var (
	ErrDuplicateOrderID       = errors.New("order id already in book")
	ErrOrderNotFound          = errors.New("order id not found")
	ErrDuplicateClientOrderID = errors.New("client order id already in own book")
	ErrClientOrderNotFound    = errors.New("client order id not found in own book")
	ErrUnknownAction          = errors.New("unknown book action")
	ErrNoOrderSide            = errors.New("order side could not be determined")
	ErrInvalidBookOperation   = errors.New("operation invalid for book type")
)

// IntegrityKind identifies which book invariant a check found violated.
type IntegrityKind uint8

const (
	IntegrityCrossed IntegrityKind = iota + 1
	IntegrityIndexMismatch
	IntegrityEmptyLevel
)

func (k IntegrityKind) String() string {
	switch k {
	case IntegrityCrossed:
		return "CROSSED_BOOK"
	case IntegrityIndexMismatch:
		return "LADDER_INDEX_MISMATCH"
	case IntegrityEmptyLevel:
		return "EMPTY_LEVEL"
	default:
		return "UNKNOWN"
	}
}

// IntegrityError reports a violated book invariant. Detection never mutates
// book state.
type IntegrityError struct {
	Kind    IntegrityKind
	Side    common.OrderSide
	BestBid types.Price
	BestAsk types.Price
	OrderID uint64
	Price   types.Price
}

func (e *IntegrityError) Error() string {
	switch e.Kind {
	case IntegrityCrossed:
		return fmt.Sprintf("integrity violation %s: best_bid=%s >= best_ask=%s",
			e.Kind, e.BestBid, e.BestAsk)
	case IntegrityIndexMismatch:
		return fmt.Sprintf("integrity violation %s: side=%s order_id=%d price=%s",
			e.Kind, e.Side, e.OrderID, e.Price)
	case IntegrityEmptyLevel:
		return fmt.Sprintf("integrity violation %s: side=%s price=%s",
			e.Kind, e.Side, e.Price)
	default:
		return "integrity violation UNKNOWN"
	}
}
