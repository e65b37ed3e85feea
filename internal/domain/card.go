package domain

import (
	"encoding/json"
	"log/slog"
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode"
)

var (
	cardNumberPattern = regexp.MustCompile(`^[0-9]{13,19}$`)
	cvvPattern        = regexp.MustCompile(`^[0-9]{3,4}$`)
)

// CardInfo holds validated card data. The full PAN and CVV are only
// reachable through Number and CVV, which exist solely for gateway
// transmission; every rendering surface (String, JSON, slog) sees the
// masked form. CVV is never persisted.
type CardInfo struct {
	holderName  string
	number      string
	expireMonth string
	expireYear  string
	cvv         string
}

// NewCardInfo validates against the current clock.
func NewCardInfo(holderName, number, expireMonth, expireYear, cvv string) (CardInfo, error) {
	return NewCardInfoAt(holderName, number, expireMonth, expireYear, cvv, time.Now())
}

// NewCardInfoAt validates expiry against a caller-supplied reference
// time, so the expiry floor is not welded to the wall clock.
func NewCardInfoAt(holderName, number, expireMonth, expireYear, cvv string, now time.Time) (CardInfo, error) {
	holder := strings.TrimSpace(holderName)
	if holder == "" {
		return CardInfo{}, NewInvalidValueError("cardHolderName", "is required")
	}

	pan := stripSpaces(number)
	if !cardNumberPattern.MatchString(pan) {
		return CardInfo{}, NewInvalidValueError("cardNumber", "must be 13-19 digits")
	}
	if !luhnValid(pan) {
		return CardInfo{}, NewInvalidValueError("cardNumber", "failed checksum validation")
	}

	if err := validateExpiry(expireMonth, expireYear, now); err != nil {
		return CardInfo{}, err
	}

	if !cvvPattern.MatchString(cvv) {
		return CardInfo{}, NewInvalidValueError("cvv", "must be 3-4 digits")
	}

	return CardInfo{
		holderName:  strings.ToUpper(holder),
		number:      pan,
		expireMonth: expireMonth,
		expireYear:  expireYear,
		cvv:         cvv,
	}, nil
}

func validateExpiry(month, year string, now time.Time) error {
	m, err := strconv.Atoi(month)
	if err != nil || m < 1 || m > 12 {
		return NewInvalidValueError("expireMonth", "must be between 01 and 12")
	}
	if len(year) != 4 {
		return NewInvalidValueError("expireYear", "must be a four digit year")
	}
	y, err := strconv.Atoi(year)
	if err != nil {
		return NewInvalidValueError("expireYear", "must be a four digit year")
	}
	if y < now.Year() || (y == now.Year() && m < int(now.Month())) {
		return NewInvalidValueError("expireYear", "card is expired")
	}
	return nil
}

func stripSpaces(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, s)
}

// luhnValid implements the Luhn checksum over a digit string.
func luhnValid(number string) bool {
	sum := 0
	alternate := false
	for i := len(number) - 1; i >= 0; i-- {
		digit := int(number[i] - '0')
		if alternate {
			digit *= 2
			if digit > 9 {
				digit -= 9
			}
		}
		sum += digit
		alternate = !alternate
	}
	return sum%10 == 0
}

func (c CardInfo) HolderName() string  { return c.holderName }
func (c CardInfo) ExpireMonth() string { return c.expireMonth }
func (c CardInfo) ExpireYear() string  { return c.expireYear }

// Number returns the full PAN. For gateway transmission only.
func (c CardInfo) Number() string { return c.number }

// CVV returns the verification value. For gateway transmission only.
func (c CardInfo) CVV() string { return c.cvv }

// MaskedNumber renders twelve asterisks plus the last four digits.
func (c CardInfo) MaskedNumber() string {
	if len(c.number) < 4 {
		return "****"
	}
	return "************" + c.number[len(c.number)-4:]
}

func (c CardInfo) String() string {
	return "CardInfo{number=" + c.MaskedNumber() + "}"
}

// LogValue keeps the PAN and CVV out of structured logs.
func (c CardInfo) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("masked_number", c.MaskedNumber()),
		slog.String("expire_month", c.expireMonth),
		slog.String("expire_year", c.expireYear),
	)
}

func (c CardInfo) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		CardHolderName string `json:"cardHolderName"`
		MaskedNumber   string `json:"maskedNumber"`
		ExpireMonth    string `json:"expireMonth"`
		ExpireYear     string `json:"expireYear"`
	}{
		CardHolderName: c.holderName,
		MaskedNumber:   c.MaskedNumber(),
		ExpireMonth:    c.expireMonth,
		ExpireYear:     c.expireYear,
	})
}
