package types

import (
	"fmt"
	"math"
	"math/big"

	"github.com/shopspring/decimal"
)

// Quantity is an unsigned fixed-point size scaled by 10^Precision.
type Quantity struct {
	Raw       uint64
	Precision uint8
}

// NewQuantity creates a quantity from a float64 at the given precision.
// Negative values are rejected; precision 18 is reserved for the wei path.
func NewQuantity(value float64, precision uint8) (Quantity, error) {
	if err := checkPrecision(precision); err != nil {
		return Quantity{}, err
	}
	if precision == WeiPrecision {
		return Quantity{}, fmt.Errorf("%w: use QuantityFromWei for precision 18", ErrPrecisionRange)
	}
	if math.IsNaN(value) || math.IsInf(value, 0) || value < 0 {
		return Quantity{}, fmt.Errorf("%w: %v", ErrValueRange, value)
	}
	scaled := value * float64(scalar(precision))
	if scaled > math.MaxUint64 {
		return Quantity{}, fmt.Errorf("%w: %v at precision %d", ErrValueRange, value, precision)
	}
	return Quantity{Raw: uint64(math.Round(scaled)), Precision: precision}, nil
}

// QuantityFromString parses a decimal string, inferring precision.
func QuantityFromString(s string) (Quantity, error) {
	precision, err := PrecisionFromString(s)
	if err != nil {
		return Quantity{}, err
	}
	return ParseQuantity(s, precision)
}

// ParseQuantity parses a decimal string at an explicit precision.
func ParseQuantity(s string, precision uint8) (Quantity, error) {
	raw, err := rawFromString(s, precision)
	if err != nil {
		return Quantity{}, err
	}
	if raw < 0 {
		return Quantity{}, fmt.Errorf("%w: negative quantity %q", ErrValueRange, s)
	}
	return Quantity{Raw: uint64(raw), Precision: precision}, nil
}

// QuantityFromRaw wraps an already-scaled raw value.
func QuantityFromRaw(raw uint64, precision uint8) (Quantity, error) {
	if err := checkPrecision(precision); err != nil {
		return Quantity{}, err
	}
	return Quantity{Raw: raw, Precision: precision}, nil
}

// QuantityFromWei creates a precision-18 quantity from an integer wei amount.
func QuantityFromWei(wei *big.Int) (Quantity, error) {
	if wei == nil {
		return Quantity{}, fmt.Errorf("%w: nil wei value", ErrValueRange)
	}
	if wei.Sign() < 0 {
		return Quantity{}, fmt.Errorf("%w: negative wei value %s", ErrValueRange, wei)
	}
	if !wei.IsUint64() {
		return Quantity{}, fmt.Errorf("%w: wei value %s exceeds raw range", ErrValueRange, wei)
	}
	return Quantity{Raw: wei.Uint64(), Precision: WeiPrecision}, nil
}

// AsWei returns the raw integer amount of a precision-18 quantity.
func (q Quantity) AsWei() (*big.Int, error) {
	if q.Precision != WeiPrecision {
		return nil, fmt.Errorf("%w: precision is %d", ErrWeiPrecision, q.Precision)
	}
	return new(big.Int).SetUint64(q.Raw), nil
}

func (q Quantity) checkMatch(other Quantity) error {
	if q.Precision != other.Precision {
		return fmt.Errorf("%w: %d vs %d", ErrPrecisionMismatch, q.Precision, other.Precision)
	}
	return nil
}

// Add returns q+other at the shared precision.
func (q Quantity) Add(other Quantity) (Quantity, error) {
	if err := q.checkMatch(other); err != nil {
		return Quantity{}, err
	}
	raw, err := checkedAddU(q.Raw, other.Raw)
	if err != nil {
		return Quantity{}, err
	}
	return Quantity{Raw: raw, Precision: q.Precision}, nil
}

// Sub returns q-other at the shared precision; underflow is an error.
func (q Quantity) Sub(other Quantity) (Quantity, error) {
	if err := q.checkMatch(other); err != nil {
		return Quantity{}, err
	}
	raw, err := checkedSubU(q.Raw, other.Raw)
	if err != nil {
		return Quantity{}, err
	}
	return Quantity{Raw: raw, Precision: q.Precision}, nil
}

func (q Quantity) IsZero() bool     { return q.Raw == 0 }
func (q Quantity) IsPositive() bool { return q.Raw > 0 }

// Cmp compares two quantities of equal precision: -1, 0 or +1.
func (q Quantity) Cmp(other Quantity) (int, error) {
	if err := q.checkMatch(other); err != nil {
		return 0, err
	}
	switch {
	case q.Raw < other.Raw:
		return -1, nil
	case q.Raw > other.Raw:
		return 1, nil
	default:
		return 0, nil
	}
}

// AsDecimal returns the exact decimal value.
func (q Quantity) AsDecimal() decimal.Decimal {
	d := decimal.NewFromBigInt(new(big.Int).SetUint64(q.Raw), 0)
	return d.Shift(-int32(q.Precision))
}

// AsFloat returns the value as a float64. Display and analytics only.
func (q Quantity) AsFloat() float64 {
	return float64(q.Raw) / float64(scalar(q.Precision))
}

func (q Quantity) String() string {
	return q.AsDecimal().StringFixed(int32(q.Precision))
}

func (q Quantity) MarshalJSON() ([]byte, error) {
	return []byte(`"` + q.String() + `"`), nil
}

func (q *Quantity) UnmarshalJSON(data []byte) error {
	s := string(data)
	if len(s) < 2 || s[0] != '"' || s[len(s)-1] != '"' {
		return fmt.Errorf("%w: %s", ErrMalformedDecimal, s)
	}
	parsed, err := QuantityFromString(s[1 : len(s)-1])
	if err != nil {
		return err
	}
	*q = parsed
	return nil
}
