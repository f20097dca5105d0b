package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMoneyArithmetic(t *testing.T) {
	a, err := ParseMoney("10.50", USD)
	require.NoError(t, err)
	b, err := ParseMoney("0.25", USD)
	require.NoError(t, err)

	sum, err := a.Add(b)
	require.NoError(t, err)
	assert.Equal(t, "10.75 USD", sum.String())

	diff, err := a.Sub(b)
	require.NoError(t, err)
	assert.Equal(t, "10.25 USD", diff.String())
}

func TestMoneyCurrencyMismatch(t *testing.T) {
	usd, err := ParseMoney("1.00", USD)
	require.NoError(t, err)
	eur, err := ParseMoney("1.00", EUR)
	require.NoError(t, err)

	_, err = usd.Add(eur)
	require.ErrorIs(t, err, ErrCurrencyMismatch)
}

func TestMoneyZeroPrecisionCurrency(t *testing.T) {
	jpy, err := ParseMoney("1500", JPY)
	require.NoError(t, err)
	assert.Equal(t, int64(1500), jpy.Raw)
	assert.Equal(t, "1500 JPY", jpy.String())
}

func TestMoneyWeiCurrency(t *testing.T) {
	wei := big1_5e18(t)
	eth, err := MoneyFromWei(wei, ETH)
	require.NoError(t, err)
	assert.Equal(t, "1.5", eth.AsDecimal().String())

	back, err := eth.AsWei()
	require.NoError(t, err)
	assert.Zero(t, wei.Cmp(back))

	// Float construction is closed for precision-18 currencies.
	_, err = NewMoney(1.5, ETH)
	require.ErrorIs(t, err, ErrPrecisionRange)

	// Non-wei currencies cannot take the wei path.
	_, err = MoneyFromWei(wei, USD)
	require.ErrorIs(t, err, ErrWeiPrecision)
}

func TestCurrencyRegistry(t *testing.T) {
	c, ok := CurrencyFromCode("usd")
	require.True(t, ok)
	assert.Equal(t, USD, c)

	_, ok = CurrencyFromCode("XXX")
	assert.False(t, ok)

	custom, err := NewCurrency("SOL", 9, 0, "Solana", Crypto)
	require.NoError(t, err)
	RegisterCurrency(custom)
	got, ok := CurrencyFromCode("SOL")
	require.True(t, ok)
	assert.Equal(t, custom, got)
}

func TestNewCurrencyValidation(t *testing.T) {
	_, err := NewCurrency("", 2, 0, "", Fiat)
	require.Error(t, err)
	_, err = NewCurrency("BAD", 19, 0, "", Fiat)
	require.ErrorIs(t, err, ErrPrecisionRange)
}
