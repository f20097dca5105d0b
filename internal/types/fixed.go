package types

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// MaxPrecision is the highest number of decimal places a fixed-point value
// can encode. Precision 18 is reserved for wei-denominated amounts and is
// only reachable through the FromWei constructors.
const (
	MaxPrecision uint8 = 18
	WeiPrecision uint8 = 18

	// Largest exponent accepted in scientific notation before the input is
	// considered malformed.
	maxSciExponent = 255
)

var (
	ErrPrecisionMismatch = errors.New("precision mismatch")
	ErrCurrencyMismatch  = errors.New("currency mismatch")
	ErrPrecisionRange    = errors.New("precision exceeds maximum")
	ErrValueRange        = errors.New("value out of range")
	ErrOverflow          = errors.New("arithmetic overflow")
	ErrWeiPrecision      = errors.New("operation requires precision 18")
	ErrLossyValue        = errors.New("value not representable at precision")
	ErrMalformedDecimal  = errors.New("malformed decimal string")
)

// pow10 holds 10^i for i in [0, 18]. 10^18 fits comfortably in int64.
var pow10 = [19]int64{
	1,
	10,
	100,
	1_000,
	10_000,
	100_000,
	1_000_000,
	10_000_000,
	100_000_000,
	1_000_000_000,
	10_000_000_000,
	100_000_000_000,
	1_000_000_000_000,
	10_000_000_000_000,
	100_000_000_000_000,
	1_000_000_000_000_000,
	10_000_000_000_000_000,
	100_000_000_000_000_000,
	1_000_000_000_000_000_000,
}

func checkPrecision(precision uint8) error {
	if precision > MaxPrecision {
		return fmt.Errorf("%w: %d > %d", ErrPrecisionRange, precision, MaxPrecision)
	}
	return nil
}

func scalar(precision uint8) int64 {
	return pow10[precision]
}

// checkASCII rejects inputs carrying any byte outside the printable ASCII
// range. Exchange feeds occasionally smuggle unicode minus signs or
// zero-width spaces into numeric fields; those must fail loudly.
func checkASCII(s string) error {
	for i := 0; i < len(s); i++ {
		if s[i] < 0x20 || s[i] > 0x7e {
			return fmt.Errorf("%w: non-ASCII byte 0x%x at index %d", ErrMalformedDecimal, s[i], i)
		}
	}
	return nil
}

// PrecisionFromString infers the decimal precision encoded in s. Plain
// decimals count fractional digits; scientific notation combines the
// mantissa's fractional digits with the exponent. Inferred precision
// clamps at MaxPrecision.
func PrecisionFromString(s string) (uint8, error) {
	if s == "" {
		return 0, fmt.Errorf("%w: empty string", ErrMalformedDecimal)
	}
	if err := checkASCII(s); err != nil {
		return 0, err
	}

	lower := strings.ToLower(s)
	if idx := strings.IndexByte(lower, 'e'); idx >= 0 {
		expStr := lower[idx+1:]
		exp, err := strconv.Atoi(expStr)
		if err != nil {
			return 0, fmt.Errorf("%w: bad exponent %q", ErrMalformedDecimal, expStr)
		}
		if exp > maxSciExponent || exp < -maxSciExponent {
			return 0, fmt.Errorf("%w: exponent %d out of range", ErrMalformedDecimal, exp)
		}
		frac := 0
		if dot := strings.IndexByte(lower[:idx], '.'); dot >= 0 {
			frac = idx - dot - 1
		}
		precision := frac - exp
		if precision <= 0 {
			return 0, nil
		}
		if precision > int(MaxPrecision) {
			return MaxPrecision, nil
		}
		return uint8(precision), nil
	}

	if idx := strings.IndexByte(lower, '.'); idx >= 0 {
		frac := len(lower) - idx - 1
		if frac > int(MaxPrecision) {
			return MaxPrecision, nil
		}
		return uint8(frac), nil
	}
	return 0, nil
}

// rawFromString parses a decimal string into an integer scaled by
// 10^precision. The conversion fails if any significant digit would be
// discarded.
func rawFromString(s string, precision uint8) (int64, error) {
	if err := checkPrecision(precision); err != nil {
		return 0, err
	}
	if s == "" {
		return 0, fmt.Errorf("%w: empty string", ErrMalformedDecimal)
	}
	if err := checkASCII(s); err != nil {
		return 0, err
	}

	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrMalformedDecimal, s)
	}

	shifted := d.Shift(int32(precision))
	if !shifted.IsInteger() {
		return 0, fmt.Errorf("%w: %q at precision %d", ErrLossyValue, s, precision)
	}

	bi := shifted.BigInt()
	if !bi.IsInt64() {
		return 0, fmt.Errorf("%w: %q at precision %d", ErrValueRange, s, precision)
	}
	return bi.Int64(), nil
}

// rawToDecimal renders a raw fixed-point integer at the given precision.
func rawToDecimal(raw int64, precision uint8) decimal.Decimal {
	return decimal.New(raw, -int32(precision))
}

// checkedAdd returns a+b or ErrOverflow.
func checkedAdd(a, b int64) (int64, error) {
	sum := a + b
	if (b > 0 && sum < a) || (b < 0 && sum > a) {
		return 0, ErrOverflow
	}
	return sum, nil
}

// checkedSub returns a-b or ErrOverflow.
func checkedSub(a, b int64) (int64, error) {
	diff := a - b
	if (b < 0 && diff < a) || (b > 0 && diff > a) {
		return 0, ErrOverflow
	}
	return diff, nil
}

func checkedAddU(a, b uint64) (uint64, error) {
	sum := a + b
	if sum < a {
		return 0, ErrOverflow
	}
	return sum, nil
}

func checkedSubU(a, b uint64) (uint64, error) {
	if b > a {
		return 0, ErrOverflow
	}
	return a - b, nil
}

// mulDivRaw computes a*b/denom without intermediate overflow, failing when
// the final result leaves the int64 range. Used by fixed-point Mul/Div where
// the intermediate product can exceed 64 bits even though the result fits.
func mulDivRaw(a, b, denom int64) (int64, error) {
	da := decimal.NewFromInt(a)
	db := decimal.NewFromInt(b)
	dd := decimal.NewFromInt(denom)
	res := da.Mul(db).DivRound(dd, 0)
	bi := res.BigInt()
	if !bi.IsInt64() {
		return 0, ErrOverflow
	}
	return bi.Int64(), nil
}
