package utils

import (
	"errors"
	"strings"
	"time"
	"unicode"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

var (
	ErrInvalidTaxID      = errors.New("РНОКПП має складатися з 10 цифр")
	ErrInvalidDateFormat = errors.New("invalid date, use YYYY-MM-DD or DD.MM.YYYY")
)

// IsNumeric reports whether s is non-empty and made of digits only.
func IsNumeric(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}

// ValidateTaxID checks the 10-digit taxpayer number (РНОКПП).
func ValidateTaxID(taxID string) error {
	trimmed := strings.TrimSpace(taxID)
	if len(trimmed) != 10 || !IsNumeric(trimmed) {
		return ErrInvalidTaxID
	}
	return nil
}

// ParseDate parses a calendar date into midnight UTC. It accepts ISO dates
// with either separator and unpadded parts, and the DD.MM.YYYY form.
func ParseDate(dateStr string) (time.Time, error) {
	trimmed := strings.TrimSpace(dateStr)
	if trimmed == "" {
		return time.Time{}, ErrInvalidDateFormat
	}

	if strings.Contains(trimmed, ".") {
		for _, layout := range []string{"02.01.2006", "2.1.2006"} {
			if t, err := time.Parse(layout, trimmed); err == nil {
				return t, nil
			}
		}
		return time.Time{}, ErrInvalidDateFormat
	}

	normalized := strings.ReplaceAll(trimmed, "/", "-")
	layouts := []string{
		"2006-01-02",
		"2006-1-2",
		"2006-01-2",
		"2006-1-02",
	}
	for _, layout := range layouts {
		if t, err := time.Parse(layout, normalized); err == nil {
			return t, nil
		}
	}
	return time.Time{}, ErrInvalidDateFormat
}

// ParseOptionalDate parses a nil-able date field.
func ParseOptionalDate(dateStr *string) (*time.Time, error) {
	if dateStr == nil || strings.TrimSpace(*dateStr) == "" {
		return nil, nil
	}
	t, err := ParseDate(*dateStr)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// RegisterValidators adds the custom binding rules to gin's validator.
func RegisterValidators() error {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return errors.New("gin binding engine is not go-playground/validator")
	}
	return v.RegisterValidation("taxid", func(fl validator.FieldLevel) bool {
		return ValidateTaxID(fl.Field().String()) == nil
	})
}

// SafePathSegment replaces characters that cannot appear in a single path
// segment, such as the slashes of registration numbers like "123/45".
func SafePathSegment(s string) string {
	s = strings.TrimSpace(s)
	replacer := strings.NewReplacer("/", "-", "\\", "-", "..", "_", ":", "-")
	s = replacer.Replace(s)
	if s == "" {
		return "_"
	}
	return s
}
