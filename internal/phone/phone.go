// Package phone normalizes candidate phone numbers to E.164 for dedup.
package phone

import (
	"regexp"
	"strings"
)

var nonDigit = regexp.MustCompile(`\D`)
var indianE164 = regexp.MustCompile(`^\+91\d{10}$`)
var displayParts = regexp.MustCompile(`^\+91(\d{5})(\d{5})$`)

// NotAvailable is the sentinel used throughout for unusable phone fields.
const NotAvailable = "Not available"

// Normalize converts a raw phone string to +91XXXXXXXXXX form.
// Returns "" when the input cannot be normalized.
func Normalize(raw string) string {
	if raw == "" || raw == NotAvailable {
		return ""
	}

	cleaned := nonDigit.ReplaceAllString(raw, "")

	switch {
	case strings.HasPrefix(cleaned, "91") && len(cleaned) == 12:
		// Already has country code
		return "+" + cleaned
	case len(cleaned) == 10:
		// Bare 10-digit Indian number
		return "+91" + cleaned
	case strings.HasPrefix(cleaned, "0") && len(cleaned) == 11:
		// Trunk prefix
		return "+91" + cleaned[1:]
	case len(cleaned) > 10:
		// Some other country code without the +
		return "+" + cleaned
	default:
		return ""
	}
}

// FormatDisplay renders a normalized number as "+91 XXXXX XXXXX".
func FormatDisplay(raw string) string {
	normalized := Normalize(raw)
	if normalized == "" {
		return NotAvailable
	}
	if m := displayParts.FindStringSubmatch(normalized); m != nil {
		return "+91 " + m[1] + " " + m[2]
	}
	return normalized
}

// IsValidIndian reports whether raw normalizes to a +91 ten-digit number.
func IsValidIndian(raw string) bool {
	return indianE164.MatchString(Normalize(raw))
}

// Usable reports whether a stored phone value can be dialed.
func Usable(stored string) bool {
	return stored != "" && stored != NotAvailable
}
