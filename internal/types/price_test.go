package types

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewPrice(t *testing.T) {
	p, err := NewPrice(100.5, 2)
	require.NoError(t, err)
	assert.Equal(t, int64(10050), p.Raw)
	assert.Equal(t, uint8(2), p.Precision)
	assert.Equal(t, "100.50", p.String())
}

func TestNewPriceRejectsPrecisionEighteen(t *testing.T) {
	_, err := NewPrice(1.5, 18)
	require.ErrorIs(t, err, ErrPrecisionRange)
}

func TestNewPriceRejectsPrecisionAboveMax(t *testing.T) {
	_, err := NewPrice(1.5, 19)
	require.ErrorIs(t, err, ErrPrecisionRange)
}

func TestNewPriceRejectsNaNAndInf(t *testing.T) {
	_, err := NewPrice(math.NaN(), 2)
	require.ErrorIs(t, err, ErrValueRange)
	_, err = NewPrice(math.Inf(1), 2)
	require.ErrorIs(t, err, ErrValueRange)
}

func TestPriceFromStringInfersPrecision(t *testing.T) {
	cases := []struct {
		in        string
		raw       int64
		precision uint8
	}{
		{"100", 100, 0},
		{"100.5", 1005, 1},
		{"100.50", 10050, 2},
		{"-3.25", -325, 2},
		{"0.000001", 1, 6},
		{"1e2", 100, 0},
		{"1.5e-3", 15, 4},
	}
	for _, tc := range cases {
		p, err := PriceFromString(tc.in)
		require.NoError(t, err, tc.in)
		assert.Equal(t, tc.raw, p.Raw, tc.in)
		assert.Equal(t, tc.precision, p.Precision, tc.in)
	}
}

func TestPriceFromStringMalformed(t *testing.T) {
	for _, in := range []string{"", "abc", "1.2.3", "1e", "1e9999", "10 "} {
		_, err := PriceFromString(in)
		require.ErrorIs(t, err, ErrMalformedDecimal, in)
	}
}

func TestParsePriceLossyValue(t *testing.T) {
	_, err := ParsePrice("100.555", 2)
	require.ErrorIs(t, err, ErrLossyValue)
}

func TestParsePriceOutOfRange(t *testing.T) {
	_, err := ParsePrice("99999999999999999999", 2)
	require.ErrorIs(t, err, ErrValueRange)
}

func TestPriceArithmetic(t *testing.T) {
	a, err := ParsePrice("100.50", 2)
	require.NoError(t, err)
	b, err := ParsePrice("0.25", 2)
	require.NoError(t, err)

	sum, err := a.Add(b)
	require.NoError(t, err)
	assert.Equal(t, "100.75", sum.String())
	assert.Equal(t, uint8(2), sum.Precision)

	diff, err := a.Sub(b)
	require.NoError(t, err)
	assert.Equal(t, "100.25", diff.String())

	two, err := ParsePrice("2.00", 2)
	require.NoError(t, err)
	prod, err := a.Mul(two)
	require.NoError(t, err)
	assert.Equal(t, "201.00", prod.String())

	quot, err := a.Div(two)
	require.NoError(t, err)
	assert.Equal(t, "50.25", quot.String())
}

func TestPricePrecisionMismatch(t *testing.T) {
	a, err := ParsePrice("100.50", 2)
	require.NoError(t, err)
	b, err := ParsePrice("100.500", 3)
	require.NoError(t, err)

	_, err = a.Add(b)
	require.ErrorIs(t, err, ErrPrecisionMismatch)
	_, err = a.Sub(b)
	require.ErrorIs(t, err, ErrPrecisionMismatch)
	_, err = a.Cmp(b)
	require.ErrorIs(t, err, ErrPrecisionMismatch)
}

func TestPriceAddOverflow(t *testing.T) {
	a, err := PriceFromRaw(math.MaxInt64, 0)
	require.NoError(t, err)
	one, err := PriceFromRaw(1, 0)
	require.NoError(t, err)

	_, err = a.Add(one)
	require.ErrorIs(t, err, ErrOverflow)
}

func TestPriceDivByZero(t *testing.T) {
	a, err := ParsePrice("1.00", 2)
	require.NoError(t, err)
	zero, err := ParsePrice("0.00", 2)
	require.NoError(t, err)

	_, err = a.Div(zero)
	require.ErrorIs(t, err, ErrValueRange)
}

func TestPriceCmp(t *testing.T) {
	a, err := ParsePrice("1.00", 2)
	require.NoError(t, err)
	b, err := ParsePrice("2.00", 2)
	require.NoError(t, err)

	c, err := a.Cmp(b)
	require.NoError(t, err)
	assert.Equal(t, -1, c)
	c, err = b.Cmp(a)
	require.NoError(t, err)
	assert.Equal(t, 1, c)
	c, err = a.Cmp(a)
	require.NoError(t, err)
	assert.Equal(t, 0, c)
}

func TestPriceWeiRoundTrip(t *testing.T) {
	wei := big1_5e18(t)
	p, err := PriceFromWei(wei)
	require.NoError(t, err)
	assert.Equal(t, uint8(18), p.Precision)
	assert.Equal(t, "1.5", p.AsDecimal().String())

	back, err := p.AsWei()
	require.NoError(t, err)
	assert.Zero(t, wei.Cmp(back))
}

func TestPriceAsWeiRequiresPrecisionEighteen(t *testing.T) {
	p, err := ParsePrice("1.00", 2)
	require.NoError(t, err)
	_, err = p.AsWei()
	require.ErrorIs(t, err, ErrWeiPrecision)
}

func TestPriceJSONRoundTrip(t *testing.T) {
	p, err := ParsePrice("64000.25", 2)
	require.NoError(t, err)

	buf, err := json.Marshal(p)
	require.NoError(t, err)
	assert.Equal(t, `"64000.25"`, string(buf))

	var back Price
	require.NoError(t, json.Unmarshal(buf, &back))
	assert.Equal(t, p, back)
}
