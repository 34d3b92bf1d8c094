// Package money converts between user-entered decimal amounts and the
// integer cents stored in the ledger. Amounts never touch floats, so
// sums stay exact.
package money

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidAmount is returned for amounts that are empty, negative,
// zero, malformed, or carry more than two fraction digits.
var ErrInvalidAmount = errors.New("invalid amount")

// maxCents caps parsed values well below int64 overflow.
const maxCents = int64(1) << 50

// ParseCents parses a positive decimal string like "250.50" into cents.
// At most two fraction digits are accepted; "," is accepted as the
// decimal separator since the original client is pt-BR.
func ParseCents(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, ErrInvalidAmount
	}
	s = strings.Replace(s, ",", ".", 1)
	if strings.HasPrefix(s, "-") || strings.HasPrefix(s, "+") {
		return 0, ErrInvalidAmount
	}

	whole := s
	frac := ""
	if i := strings.IndexByte(s, '.'); i >= 0 {
		whole, frac = s[:i], s[i+1:]
	}
	if whole == "" && frac == "" {
		return 0, ErrInvalidAmount
	}
	if len(frac) > 2 {
		return 0, fmt.Errorf("%w: more than two decimal places", ErrInvalidAmount)
	}

	var cents int64
	for _, r := range whole {
		if r < '0' || r > '9' {
			return 0, ErrInvalidAmount
		}
		cents = cents*10 + int64(r-'0')
		if cents > maxCents {
			return 0, fmt.Errorf("%w: too large", ErrInvalidAmount)
		}
	}
	cents *= 100

	mult := int64(10)
	for _, r := range frac {
		if r < '0' || r > '9' {
			return 0, ErrInvalidAmount
		}
		cents += int64(r-'0') * mult
		mult /= 10
	}

	if cents <= 0 {
		return 0, ErrInvalidAmount
	}
	return cents, nil
}

// FormatCents renders cents as a plain two-decimal string, e.g. 74950
// becomes "749.50".
func FormatCents(cents int64) string {
	sign := ""
	if cents < 0 {
		sign = "-"
		cents = -cents
	}
	return fmt.Sprintf("%s%d.%02d", sign, cents/100, cents%100)
}
