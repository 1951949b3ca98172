package joltsms

import (
	"regexp"
	"strings"
	"time"
)

var (
	opaqueIDPattern = regexp.MustCompile(`^(?i)[0-9a-f]{8}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{12}$`)
	nonDigits       = regexp.MustCompile(`\D`)
)

// IsOpaqueID reports whether s has the shape of an API identifier
// (36-character dashed hexadecimal).
func IsOpaqueID(s string) bool {
	return opaqueIDPattern.MatchString(s)
}

// NormalizePhone converts US phone number text to E.164 (+1 and ten digits).
// Punctuation is ignored. Accepted shapes are a bare 10-digit number, a
// leading-1 11-digit number and +1 followed by ten digits. A leading plus
// with any other digit count is rejected rather than reinterpreted.
func NormalizePhone(input string) (string, error) {
	trimmed := strings.TrimSpace(input)
	digits := nonDigits.ReplaceAllString(trimmed, "")

	if strings.HasPrefix(trimmed, "+") {
		if len(digits) == 11 && digits[0] == '1' {
			return "+" + digits, nil
		}
		return "", &PhoneFormatError{Input: input}
	}

	switch {
	case len(digits) == 11 && digits[0] == '1':
		return "+" + digits, nil
	case len(digits) == 10:
		return "+1" + digits, nil
	}
	return "", &PhoneFormatError{Input: input}
}

// timestampLayout matches the millisecond ISO 8601 form the API emits.
const timestampLayout = "2006-01-02T15:04:05.000Z07:00"

// FormatTimestamp renders t as an ISO 8601 UTC timestamp for "since" filters.
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format(timestampLayout)
}

// DatePart returns the YYYY-MM-DD prefix of an ISO 8601 timestamp.
func DatePart(ts string) string {
	date, _, _ := strings.Cut(ts, "T")
	return date
}
