package common

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

var ErrInvalidIdentifier = errors.New("invalid identifier")

// InstrumentID identifies a tradeable instrument at a venue, rendered as
// "SYMBOL.VENUE".
type InstrumentID struct {
	Symbol string
	Venue  string
}

// NewInstrumentID creates an instrument id from its parts.
func NewInstrumentID(symbol, venue string) (InstrumentID, error) {
	if symbol == "" || venue == "" {
		return InstrumentID{}, fmt.Errorf("%w: symbol and venue must be non-empty", ErrInvalidIdentifier)
	}
	return InstrumentID{Symbol: symbol, Venue: venue}, nil
}

// ParseInstrumentID parses "SYMBOL.VENUE". The venue is everything after
// the last dot, so dotted symbols survive.
func ParseInstrumentID(value string) (InstrumentID, error) {
	idx := strings.LastIndexByte(value, '.')
	if idx <= 0 || idx == len(value)-1 {
		return InstrumentID{}, fmt.Errorf("%w: %q is not SYMBOL.VENUE", ErrInvalidIdentifier, value)
	}
	return InstrumentID{Symbol: value[:idx], Venue: value[idx+1:]}, nil
}

func (id InstrumentID) String() string {
	return id.Symbol + "." + id.Venue
}

func (id InstrumentID) IsZero() bool {
	return id.Symbol == "" && id.Venue == ""
}

// TraderID identifies the trader owning an own-order book.
type TraderID string

// ClientOrderID is the locally-assigned id of an own order.
type ClientOrderID string

// VenueOrderID is the venue-assigned id of an own order, empty until the
// venue acknowledges the order.
type VenueOrderID string

// TradeID is the venue-assigned id of a trade print.
type TradeID string

// NewClientOrderID generates a random client order id.
func NewClientOrderID() ClientOrderID {
	return ClientOrderID(uuid.New().String())
}
