package common

// OrderSide is the side of an order or book entry.
type OrderSide uint8

const (
	NoOrderSide OrderSide = iota
	Buy
	Sell
)

func (s OrderSide) String() string {
	switch s {
	case Buy:
		return "BUY"
	case Sell:
		return "SELL"
	default:
		return "NO_ORDER_SIDE"
	}
}

// Opposite returns the other side; NoOrderSide maps to itself.
func (s OrderSide) Opposite() OrderSide {
	switch s {
	case Buy:
		return Sell
	case Sell:
		return Buy
	default:
		return NoOrderSide
	}
}

// AggressorSide is the taker side of a trade.
type AggressorSide uint8

const (
	NoAggressor AggressorSide = iota
	BuyAggressor
	SellAggressor
)

func (s AggressorSide) String() string {
	switch s {
	case BuyAggressor:
		return "BUYER"
	case SellAggressor:
		return "SELLER"
	default:
		return "NO_AGGRESSOR"
	}
}

// BookAction is the mutation a book delta carries.
type BookAction uint8

const (
	ActionAdd BookAction = iota + 1
	ActionUpdate
	ActionDelete
	ActionClear
)

func (a BookAction) String() string {
	switch a {
	case ActionAdd:
		return "ADD"
	case ActionUpdate:
		return "UPDATE"
	case ActionDelete:
		return "DELETE"
	case ActionClear:
		return "CLEAR"
	default:
		return "UNKNOWN"
	}
}

// IsValid reports whether the action is one of the four known variants.
func (a BookAction) IsValid() bool {
	return a >= ActionAdd && a <= ActionClear
}

// BookType is the granularity an order book maintains.
type BookType uint8

const (
	// L1MBP keeps top-of-book only, one synthetic order per side.
	L1MBP BookType = iota + 1
	// L2MBP aggregates size per price level with synthetic level ids.
	L2MBP
	// L3MBO tracks individual orders with venue-assigned ids.
	L3MBO
)

func (t BookType) String() string {
	switch t {
	case L1MBP:
		return "L1_MBP"
	case L2MBP:
		return "L2_MBP"
	case L3MBO:
		return "L3_MBO"
	default:
		return "UNKNOWN"
	}
}

// OrderStatus is the lifecycle state of an own order. Transitions are
// monotonic forward: Initialized -> Submitted -> Accepted ->
// {PartiallyFilled <-> Accepted} -> {Filled | Canceled | Rejected | Expired}.
// PendingUpdate and PendingCancel are transient substates over
// Accepted/PartiallyFilled.
type OrderStatus uint8

const (
	StatusInitialized OrderStatus = iota + 1
	StatusSubmitted
	StatusAccepted
	StatusPendingUpdate
	StatusPendingCancel
	StatusPartiallyFilled
	StatusFilled
	StatusCanceled
	StatusRejected
	StatusExpired
)

func (s OrderStatus) String() string {
	switch s {
	case StatusInitialized:
		return "INITIALIZED"
	case StatusSubmitted:
		return "SUBMITTED"
	case StatusAccepted:
		return "ACCEPTED"
	case StatusPendingUpdate:
		return "PENDING_UPDATE"
	case StatusPendingCancel:
		return "PENDING_CANCEL"
	case StatusPartiallyFilled:
		return "PARTIALLY_FILLED"
	case StatusFilled:
		return "FILLED"
	case StatusCanceled:
		return "CANCELED"
	case StatusRejected:
		return "REJECTED"
	case StatusExpired:
		return "EXPIRED"
	default:
		return "UNKNOWN"
	}
}

// IsClosed reports whether the status is terminal.
func (s OrderStatus) IsClosed() bool {
	switch s {
	case StatusFilled, StatusCanceled, StatusRejected, StatusExpired:
		return true
	default:
		return false
	}
}

// OrderType is the execution instruction of an own order.
type OrderType uint8

const (
	Limit OrderType = iota + 1
	Market
	StopLimit
	StopMarket
)

func (t OrderType) String() string {
	switch t {
	case Limit:
		return "LIMIT"
	case Market:
		return "MARKET"
	case StopLimit:
		return "STOP_LIMIT"
	case StopMarket:
		return "STOP_MARKET"
	default:
		return "UNKNOWN"
	}
}

// TimeInForce is the validity constraint of an own order.
type TimeInForce uint8

const (
	GTC TimeInForce = iota + 1
	IOC
	FOK
	GTD
	Day
)

func (t TimeInForce) String() string {
	switch t {
	case GTC:
		return "GTC"
	case IOC:
		return "IOC"
	case FOK:
		return "FOK"
	case GTD:
		return "GTD"
	case Day:
		return "DAY"
	default:
		return "UNKNOWN"
	}
}

// RecordFlag bits carried on deltas and depth snapshots.
const (
	// FlagLast marks the final record of an atomic batch.
	FlagLast uint8 = 1 << 7
	// FlagTOB marks a top-of-book record.
	FlagTOB uint8 = 1 << 6
	// FlagSnapshot marks a record sourced from a snapshot rather than an
	// incremental feed.
	FlagSnapshot uint8 = 1 << 5
)
