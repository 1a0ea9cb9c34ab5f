package messaging

import (
	"regexp"
	"strings"
)

var phoneDigitsRe = regexp.MustCompile(`\d+`)

// NormalizePhone ensures the value begins with + and only contains digits
// afterward. Empty input stays empty.
func NormalizePhone(value string) string {
	digits := sanitizePhone(value)
	if digits == "" {
		return ""
	}
	return "+" + digits
}

// SignificantDigits strips formatting and a leading country "1" so that
// "+1 (437) 440-5408" matches a stored "4374405408". Used for fuzzy lookup
// of callers whose numbers were stored in whatever format the agent heard.
func SignificantDigits(value string) string {
	digits := sanitizePhone(value)
	if len(digits) == 11 && strings.HasPrefix(digits, "1") {
		digits = digits[1:]
	}
	return digits
}

func sanitizePhone(value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return ""
	}
	digits := phoneDigitsRe.FindAllString(value, -1)
	return strings.Join(digits, "")
}
