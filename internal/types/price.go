package types

import (
	"fmt"
	"math"
	"math/big"

	"github.com/shopspring/decimal"
)

// Price is a signed fixed-point price scaled by 10^Precision. Prices of
// equal precision compare and combine exactly; mixing precisions is an
// error, never a silent conversion.
type Price struct {
	Raw       int64
	Precision uint8
}

// NewPrice creates a price from a float64 at the given precision. Precision
// 18 values carry wei semantics and can only be built via PriceFromWei, so a
// float construction at that precision is rejected to prevent silent
// truncation of token amounts.
func NewPrice(value float64, precision uint8) (Price, error) {
	if err := checkPrecision(precision); err != nil {
		return Price{}, err
	}
	if precision == WeiPrecision {
		return Price{}, fmt.Errorf("%w: use PriceFromWei for precision 18", ErrPrecisionRange)
	}
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return Price{}, fmt.Errorf("%w: %v", ErrValueRange, value)
	}
	scaled := value * float64(scalar(precision))
	if scaled > math.MaxInt64 || scaled < math.MinInt64 {
		return Price{}, fmt.Errorf("%w: %v at precision %d", ErrValueRange, value, precision)
	}
	return Price{Raw: int64(math.Round(scaled)), Precision: precision}, nil
}

// PriceFromString parses a decimal string, inferring precision from the
// fractional digits (or scientific exponent).
func PriceFromString(s string) (Price, error) {
	precision, err := PrecisionFromString(s)
	if err != nil {
		return Price{}, err
	}
	raw, err := rawFromString(s, precision)
	if err != nil {
		return Price{}, err
	}
	return Price{Raw: raw, Precision: precision}, nil
}

// ParsePrice parses a decimal string at an explicit precision, failing if
// the value cannot be represented losslessly.
func ParsePrice(s string, precision uint8) (Price, error) {
	raw, err := rawFromString(s, precision)
	if err != nil {
		return Price{}, err
	}
	return Price{Raw: raw, Precision: precision}, nil
}

// PriceFromRaw wraps an already-scaled raw value.
func PriceFromRaw(raw int64, precision uint8) (Price, error) {
	if err := checkPrecision(precision); err != nil {
		return Price{}, err
	}
	return Price{Raw: raw, Precision: precision}, nil
}

// PriceFromWei creates a precision-18 price from an integer wei amount.
func PriceFromWei(wei *big.Int) (Price, error) {
	if wei == nil {
		return Price{}, fmt.Errorf("%w: nil wei value", ErrValueRange)
	}
	if !wei.IsInt64() {
		return Price{}, fmt.Errorf("%w: wei value %s exceeds raw range", ErrValueRange, wei)
	}
	return Price{Raw: wei.Int64(), Precision: WeiPrecision}, nil
}

// AsWei returns the raw integer amount of a precision-18 price.
func (p Price) AsWei() (*big.Int, error) {
	if p.Precision != WeiPrecision {
		return nil, fmt.Errorf("%w: precision is %d", ErrWeiPrecision, p.Precision)
	}
	return big.NewInt(p.Raw), nil
}

func (p Price) checkMatch(other Price) error {
	if p.Precision != other.Precision {
		return fmt.Errorf("%w: %d vs %d", ErrPrecisionMismatch, p.Precision, other.Precision)
	}
	return nil
}

// Add returns p+other at the shared precision.
func (p Price) Add(other Price) (Price, error) {
	if err := p.checkMatch(other); err != nil {
		return Price{}, err
	}
	raw, err := checkedAdd(p.Raw, other.Raw)
	if err != nil {
		return Price{}, err
	}
	return Price{Raw: raw, Precision: p.Precision}, nil
}

// Sub returns p-other at the shared precision.
func (p Price) Sub(other Price) (Price, error) {
	if err := p.checkMatch(other); err != nil {
		return Price{}, err
	}
	raw, err := checkedSub(p.Raw, other.Raw)
	if err != nil {
		return Price{}, err
	}
	return Price{Raw: raw, Precision: p.Precision}, nil
}

// Mul returns p*other at the shared precision.
func (p Price) Mul(other Price) (Price, error) {
	if err := p.checkMatch(other); err != nil {
		return Price{}, err
	}
	raw, err := mulDivRaw(p.Raw, other.Raw, scalar(p.Precision))
	if err != nil {
		return Price{}, err
	}
	return Price{Raw: raw, Precision: p.Precision}, nil
}

// Div returns p/other at the shared precision.
func (p Price) Div(other Price) (Price, error) {
	if err := p.checkMatch(other); err != nil {
		return Price{}, err
	}
	if other.Raw == 0 {
		return Price{}, fmt.Errorf("%w: division by zero", ErrValueRange)
	}
	raw, err := mulDivRaw(p.Raw, scalar(p.Precision), other.Raw)
	if err != nil {
		return Price{}, err
	}
	return Price{Raw: raw, Precision: p.Precision}, nil
}

func (p Price) IsZero() bool     { return p.Raw == 0 }
func (p Price) IsPositive() bool { return p.Raw > 0 }

// Cmp compares two prices of equal precision: -1, 0 or +1.
func (p Price) Cmp(other Price) (int, error) {
	if err := p.checkMatch(other); err != nil {
		return 0, err
	}
	switch {
	case p.Raw < other.Raw:
		return -1, nil
	case p.Raw > other.Raw:
		return 1, nil
	default:
		return 0, nil
	}
}

// AsDecimal returns the exact decimal value.
func (p Price) AsDecimal() decimal.Decimal {
	return rawToDecimal(p.Raw, p.Precision)
}

// AsFloat returns the value as a float64. Display and analytics only;
// never fed back into book state.
func (p Price) AsFloat() float64 {
	return float64(p.Raw) / float64(scalar(p.Precision))
}

func (p Price) String() string {
	return p.AsDecimal().StringFixed(int32(p.Precision))
}

// MarshalJSON renders the price as a decimal string.
func (p Price) MarshalJSON() ([]byte, error) {
	return []byte(`"` + p.String() + `"`), nil
}

// UnmarshalJSON parses a quoted decimal string, inferring precision.
func (p *Price) UnmarshalJSON(data []byte) error {
	s := string(data)
	if len(s) < 2 || s[0] != '"' || s[len(s)-1] != '"' {
		return fmt.Errorf("%w: %s", ErrMalformedDecimal, s)
	}
	parsed, err := PriceFromString(s[1 : len(s)-1])
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}
