package model

import (
	"fmt"
	"unicode/utf8"
)

// Column widths of the schema, in characters.
const (
	MaxUsernameLength       = 50
	MaxEmailLength          = 255
	MaxRecipeTitleLength    = 255
	MaxCategoryNameLength   = 100
	MaxCollectionNameLength = 100
)

// CheckLength fails with ErrFieldTooLong when value holds more than max
// characters.
func CheckLength(field, value string, max int) error {
	if utf8.RuneCountInString(value) > max {
		return fmt.Errorf("%w: %s must be at most %d characters", ErrFieldTooLong, field, max)
	}
	return nil
}
