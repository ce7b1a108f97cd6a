package util

import (
	"fmt"
	"regexp"
	"strconv"
)

var usernameRe = regexp.MustCompile(`^[A-Za-z0-9_]{3,20}$`)

// ValidateUsername enforces 3-20 characters of letters, digits and
// underscores.
func ValidateUsername(name string) error {
	if !usernameRe.MatchString(name) {
		return fmt.Errorf("username must be 3-20 letters, digits or underscores")
	}
	return nil
}

// ValidateCoordinate checks a grid row or column index.
func ValidateCoordinate(v int) error {
	if v < 0 || v > 9 {
		return fmt.Errorf("coordinate %d out of range 0-9", v)
	}
	return nil
}

// ParseAmountCent converts a decimal dollar string like "25" or "12.50"
// into cents. Rejects non-positive and malformed amounts.
func ParseAmountCent(s string) (int64, error) {
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid amount %q", s)
	}
	cents := int64(f*100 + 0.5)
	if cents <= 0 {
		return 0, fmt.Errorf("amount must be positive")
	}
	return cents, nil
}

// FormatCent renders cents as a two-decimal dollar string.
func FormatCent(cents int64) string {
	return strconv.FormatFloat(float64(cents)/100.0, 'f', 2, 64)
}
