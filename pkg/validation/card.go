package validation

import (
	"strconv"
	"strings"
	"time"
)

func digitsOnly(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// ValidLuhn reports whether the card number passes the mod-10 check.
// Non-digit characters (spaces, dashes) are ignored.
func ValidLuhn(cardNumber string) bool {
	n := digitsOnly(cardNumber)
	if len(n) < 13 || len(n) > 19 {
		return false
	}
	sum := 0
	double := false
	for i := len(n) - 1; i >= 0; i-- {
		d := int(n[i] - '0')
		if double {
			d *= 2
			if d > 9 {
				d -= 9
			}
		}
		sum += d
		double = !double
	}
	return sum%10 == 0
}

// DetectCardNetwork identifies the card brand from its leading IIN digits.
func DetectCardNetwork(cardNumber string) string {
	n := digitsOnly(cardNumber)
	if n == "" {
		return "unknown"
	}
	if strings.HasPrefix(n, "4") {
		return "visa"
	}
	prefix2 := 0
	if len(n) >= 2 {
		prefix2, _ = strconv.Atoi(n[:2])
	}
	prefix4 := 0
	if len(n) >= 4 {
		prefix4, _ = strconv.Atoi(n[:4])
	}
	switch {
	case (prefix2 >= 51 && prefix2 <= 55) || (prefix4 >= 2221 && prefix4 <= 2720):
		return "mastercard"
	case prefix2 == 34 || prefix2 == 37:
		return "amex"
	case prefix2 == 60 || prefix2 == 65 || (prefix2 >= 81 && prefix2 <= 89):
		return "rupay"
	}
	return "unknown"
}

// ValidExpiry reports whether month/year is a real expiry date not in the
// past. Four-digit years are reduced to two digits before comparison.
func ValidExpiry(month, year int, now time.Time) bool {
	if month < 1 || month > 12 {
		return false
	}
	if year > 1000 {
		year = year % 100
	}
	curYear := now.Year() % 100
	curMonth := int(now.Month())
	if year < curYear {
		return false
	}
	if year == curYear && month < curMonth {
		return false
	}
	return true
}
