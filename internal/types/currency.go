package types

import (
	"fmt"
	"strings"
	"sync"
)

// CurrencyType classifies a currency by its issuance model.
type CurrencyType uint8

const (
	Fiat CurrencyType = iota
	Crypto
	CommodityBacked
)

func (t CurrencyType) String() string {
	switch t {
	case Fiat:
		return "FIAT"
	case Crypto:
		return "CRYPTO"
	case CommodityBacked:
		return "COMMODITY_BACKED"
	default:
		return "UNKNOWN"
	}
}

// Currency describes a settlement currency: ISO 4217 metadata for fiat,
// conventional precision for crypto assets.
type Currency struct {
	Code      string
	Precision uint8
	ISO4217   uint16
	Name      string
	Type      CurrencyType
}

// NewCurrency creates a currency definition, validating code and precision.
func NewCurrency(code string, precision uint8, iso4217 uint16, name string, currencyType CurrencyType) (Currency, error) {
	if code == "" {
		return Currency{}, fmt.Errorf("%w: empty currency code", ErrMalformedDecimal)
	}
	if err := checkPrecision(precision); err != nil {
		return Currency{}, err
	}
	return Currency{
		Code:      code,
		Precision: precision,
		ISO4217:   iso4217,
		Name:      name,
		Type:      currencyType,
	}, nil
}

func (c Currency) String() string { return c.Code }

// Built-in currency definitions. The registry can be extended at runtime
// for venue-specific assets.
var (
	USD  = Currency{Code: "USD", Precision: 2, ISO4217: 840, Name: "United States dollar", Type: Fiat}
	EUR  = Currency{Code: "EUR", Precision: 2, ISO4217: 978, Name: "Euro", Type: Fiat}
	GBP  = Currency{Code: "GBP", Precision: 2, ISO4217: 826, Name: "British pound", Type: Fiat}
	JPY  = Currency{Code: "JPY", Precision: 0, ISO4217: 392, Name: "Japanese yen", Type: Fiat}
	USDT = Currency{Code: "USDT", Precision: 8, ISO4217: 0, Name: "Tether", Type: Crypto}
	USDC = Currency{Code: "USDC", Precision: 8, ISO4217: 0, Name: "USD Coin", Type: Crypto}
	BTC  = Currency{Code: "BTC", Precision: 8, ISO4217: 0, Name: "Bitcoin", Type: Crypto}
	ETH  = Currency{Code: "ETH", Precision: 18, ISO4217: 0, Name: "Ether", Type: Crypto}
)

var (
	currencyMu  sync.RWMutex
	currencyMap = map[string]Currency{
		"USD":  USD,
		"EUR":  EUR,
		"GBP":  GBP,
		"JPY":  JPY,
		"USDT": USDT,
		"USDC": USDC,
		"BTC":  BTC,
		"ETH":  ETH,
	}
)

// CurrencyFromCode looks up a registered currency by code.
func CurrencyFromCode(code string) (Currency, bool) {
	currencyMu.RLock()
	defer currencyMu.RUnlock()
	c, ok := currencyMap[strings.ToUpper(code)]
	return c, ok
}

// RegisterCurrency adds a currency to the registry, overwriting any
// existing definition with the same code.
func RegisterCurrency(c Currency) {
	currencyMu.Lock()
	defer currencyMu.Unlock()
	currencyMap[c.Code] = c
}
