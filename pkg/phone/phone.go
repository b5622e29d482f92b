package phone

import (
	"fmt"
	"strings"

	"github.com/nyaruka/phonenumbers"
)

// Digits strips everything but digits from a raw phone string.
func Digits(raw string) string {
	var b strings.Builder
	for _, r := range raw {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// LastTen returns the last 10 digits of a phone number, the key used for
// matching inbound numbers against leads, owners and phone assignments.
// Shorter numbers are returned as-is.
func LastTen(raw string) string {
	digits := Digits(raw)
	if len(digits) <= 10 {
		return digits
	}
	return digits[len(digits)-10:]
}

// FormatForDisplay renders a US number as "(404) 555-1234". A leading 1 is
// stripped only when the digit count is exactly 11. Anything that doesn't
// reduce to 10 digits is returned unchanged.
func FormatForDisplay(raw string) string {
	digits := Digits(raw)
	if len(digits) == 11 && digits[0] == '1' {
		digits = digits[1:]
	}
	if len(digits) != 10 {
		return raw
	}
	return fmt.Sprintf("(%s) %s-%s", digits[0:3], digits[3:6], digits[6:10])
}

// Normalize parses a phone number and returns it in E.164, the format
// required by the SMS and voice providers. countryCode defaults to US.
func Normalize(raw, countryCode string) (string, error) {
	if raw == "" {
		return "", fmt.Errorf("phone number cannot be empty")
	}
	if countryCode == "" {
		countryCode = "US"
	}

	parsed, err := phonenumbers.Parse(raw, countryCode)
	if err != nil {
		return "", fmt.Errorf("failed to parse phone number: %w", err)
	}
	if !phonenumbers.IsValidNumber(parsed) {
		return "", fmt.Errorf("invalid phone number")
	}

	return phonenumbers.Format(parsed, phonenumbers.E164), nil
}

// IsValid reports whether a phone number parses as a valid number for the
// given region. countryCode defaults to US.
func IsValid(raw, countryCode string) bool {
	if countryCode == "" {
		countryCode = "US"
	}
	parsed, err := phonenumbers.Parse(raw, countryCode)
	if err != nil {
		return false
	}
	return phonenumbers.IsValidNumber(parsed)
}
