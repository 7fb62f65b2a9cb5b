package tool

import (
	"fmt"
	"regexp"
	"strings"
)

var nonDigitPattern = regexp.MustCompile(`\D`)

// NormalizePhone strips formatting and applies the US-centric rules used as
// the user identifier key: 10 digits get a +1 prefix, 11 digits starting
// with 1 (or anything longer) get a bare + prefix.
func NormalizePhone(phone string) string {
	digits := nonDigitPattern.ReplaceAllString(phone, "")

	switch {
	case len(digits) == 10:
		return "+1" + digits
	case len(digits) == 11 && strings.HasPrefix(digits, "1"):
		return "+" + digits
	case len(digits) > 10:
		return "+" + digits
	}
	return digits
}

// FormatPhoneDisplay renders a normalized phone number for display,
// returning the input unchanged when it doesn't match a US shape.
func FormatPhoneDisplay(phone string) string {
	digits := nonDigitPattern.ReplaceAllString(phone, "")

	switch {
	case len(digits) == 11 && strings.HasPrefix(digits, "1"):
		return fmt.Sprintf("+1 (%s) %s-%s", digits[1:4], digits[4:7], digits[7:])
	case len(digits) == 10:
		return fmt.Sprintf("(%s) %s-%s", digits[:3], digits[3:6], digits[6:])
	}
	return phone
}
