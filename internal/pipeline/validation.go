package pipeline

import (
	"fmt"
	"strings"
	"time"
	"unicode"
)

// validateAmount checks the whole-unit amount range.
func validateAmount(amount int64) error {
	if amount <= 0 {
		return fmt.Errorf("amount %d must be positive", amount)
	}
	if amount > MaxAmount {
		return fmt.Errorf("amount %d exceeds %d", amount, int64(MaxAmount))
	}
	return nil
}

// validateDate accepts only real calendar dates in DateLayout.
func validateDate(date string) error {
	if len(date) != len(DateLayout) {
		return fmt.Errorf("date %q is not in YYYY-MM-DD format", date)
	}
	if _, err := time.Parse(DateLayout, date); err != nil {
		return fmt.Errorf("date %q: %w", date, err)
	}
	return nil
}

// normalizeLabel trims surrounding whitespace and collapses inner runs of
// whitespace (including full-width spaces) to a single space.
func normalizeLabel(s string) string {
	return strings.Join(strings.FieldsFunc(s, unicode.IsSpace), " ")
}
