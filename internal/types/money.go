package types

import (
	"fmt"
	"math"
	"math/big"

	"github.com/shopspring/decimal"
)

// Money is a signed fixed-point amount in a specific currency. The
// precision is the currency's precision; amounts in different currencies
// never combine.
type Money struct {
	Raw      int64
	Currency Currency
}

// NewMoney creates a money amount from a float64 in the given currency.
func NewMoney(value float64, currency Currency) (Money, error) {
	if currency.Precision == WeiPrecision {
		return Money{}, fmt.Errorf("%w: use MoneyFromWei for precision 18 currencies", ErrPrecisionRange)
	}
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return Money{}, fmt.Errorf("%w: %v", ErrValueRange, value)
	}
	scaled := value * float64(scalar(currency.Precision))
	if scaled > math.MaxInt64 || scaled < math.MinInt64 {
		return Money{}, fmt.Errorf("%w: %v %s", ErrValueRange, value, currency.Code)
	}
	return Money{Raw: int64(math.Round(scaled)), Currency: currency}, nil
}

// ParseMoney parses a decimal string amount in the given currency.
func ParseMoney(s string, currency Currency) (Money, error) {
	raw, err := rawFromString(s, currency.Precision)
	if err != nil {
		return Money{}, err
	}
	return Money{Raw: raw, Currency: currency}, nil
}

// MoneyFromRaw wraps an already-scaled raw value.
func MoneyFromRaw(raw int64, currency Currency) Money {
	return Money{Raw: raw, Currency: currency}
}

// MoneyFromWei creates an amount in a precision-18 currency from wei.
func MoneyFromWei(wei *big.Int, currency Currency) (Money, error) {
	if currency.Precision != WeiPrecision {
		return Money{}, fmt.Errorf("%w: currency %s has precision %d", ErrWeiPrecision, currency.Code, currency.Precision)
	}
	if wei == nil {
		return Money{}, fmt.Errorf("%w: nil wei value", ErrValueRange)
	}
	if !wei.IsInt64() {
		return Money{}, fmt.Errorf("%w: wei value %s exceeds raw range", ErrValueRange, wei)
	}
	return Money{Raw: wei.Int64(), Currency: currency}, nil
}

// AsWei returns the raw integer amount for a precision-18 currency.
func (m Money) AsWei() (*big.Int, error) {
	if m.Currency.Precision != WeiPrecision {
		return nil, fmt.Errorf("%w: currency %s has precision %d", ErrWeiPrecision, m.Currency.Code, m.Currency.Precision)
	}
	return big.NewInt(m.Raw), nil
}

func (m Money) checkMatch(other Money) error {
	if m.Currency.Code != other.Currency.Code {
		return fmt.Errorf("%w: %s vs %s", ErrCurrencyMismatch, m.Currency.Code, other.Currency.Code)
	}
	return nil
}

// Add returns m+other in the shared currency.
func (m Money) Add(other Money) (Money, error) {
	if err := m.checkMatch(other); err != nil {
		return Money{}, err
	}
	raw, err := checkedAdd(m.Raw, other.Raw)
	if err != nil {
		return Money{}, err
	}
	return Money{Raw: raw, Currency: m.Currency}, nil
}

// Sub returns m-other in the shared currency.
func (m Money) Sub(other Money) (Money, error) {
	if err := m.checkMatch(other); err != nil {
		return Money{}, err
	}
	raw, err := checkedSub(m.Raw, other.Raw)
	if err != nil {
		return Money{}, err
	}
	return Money{Raw: raw, Currency: m.Currency}, nil
}

func (m Money) IsZero() bool     { return m.Raw == 0 }
func (m Money) IsPositive() bool { return m.Raw > 0 }

// AsDecimal returns the exact decimal value.
func (m Money) AsDecimal() decimal.Decimal {
	return rawToDecimal(m.Raw, m.Currency.Precision)
}

// AsFloat returns the value as a float64. Display and analytics only.
func (m Money) AsFloat() float64 {
	return float64(m.Raw) / float64(scalar(m.Currency.Precision))
}

func (m Money) String() string {
	return m.AsDecimal().StringFixed(int32(m.Currency.Precision)) + " " + m.Currency.Code
}
