package domain

import (
	"github.com/shopspring/decimal"
)

// Currency is the closed set of currencies accepted for payments.
type Currency string

const (
	CurrencyTRY Currency = "TRY"
	CurrencyUSD Currency = "USD"
	CurrencyEUR Currency = "EUR"
	CurrencyGBP Currency = "GBP"
)

// ParseCurrency maps a request string onto the currency set.
func ParseCurrency(s string) (Currency, error) {
	switch Currency(s) {
	case CurrencyTRY, CurrencyUSD, CurrencyEUR, CurrencyGBP:
		return Currency(s), nil
	default:
		return "", NewInvalidValueError("currency", "unsupported currency: "+s)
	}
}

// Symbol returns the display symbol. Adding a currency means extending
// this switch and ParseCurrency together.
func (c Currency) Symbol() string {
	switch c {
	case CurrencyTRY:
		return "₺"
	case CurrencyUSD:
		return "$"
	case CurrencyEUR:
		return "€"
	case CurrencyGBP:
		return "£"
	}
	return ""
}

// Money is an immutable amount in a single currency. Amounts carry at
// most two decimal places and are strictly positive.
type Money struct {
	Amount   decimal.Decimal
	Currency Currency
}

func NewMoney(amount decimal.Decimal, currency Currency) (Money, error) {
	if !amount.IsPositive() {
		return Money{}, NewInvalidValueError("amount", "must be positive")
	}
	if amount.Exponent() < -2 {
		return Money{}, NewInvalidValueError("amount", "must have at most two decimal places")
	}
	if _, err := ParseCurrency(string(currency)); err != nil {
		return Money{}, err
	}
	return Money{Amount: amount, Currency: currency}, nil
}

// Equals is structural: same currency, numerically equal amount.
func (m Money) Equals(other Money) bool {
	return m.Currency == other.Currency && m.Amount.Equal(other.Amount)
}

func (m Money) String() string {
	return m.Amount.StringFixed(2) + " " + string(m.Currency)
}
