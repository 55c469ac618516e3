// backend/src/security/validation/field_validator.go
package validation

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"
)

var ErrValidationFailed = fmt.Errorf("validation failed")

const (
	DefaultMaxStringLength = 255
	MaxFilenameLength      = 255
	MaxCredentialLength    = 128
)

var (
	// Kite API keys and access tokens are short alphanumeric strings.
	credentialPattern = regexp.MustCompile(`^[A-Za-z0-9_\-]+$`)
)

// --- String Validators ---

// ValidateStringNotEmpty checks if a string is not empty after trimming.
func ValidateStringNotEmpty(s, fieldName string) error {
	if strings.TrimSpace(s) == "" {
		return fmt.Errorf("%w: %s cannot be empty", ErrValidationFailed, fieldName)
	}
	return nil
}

// ValidateStringMaxLength checks if a string's UTF-8 character count is within max bounds.
func ValidateStringMaxLength(s string, maxLength int, fieldName string) error {
	if utf8.RuneCountInString(s) > maxLength {
		return fmt.Errorf("%w: %s exceeds maximum length of %d characters", ErrValidationFailed, fieldName, maxLength)
	}
	return nil
}

// ValidateStringRegex checks if a string matches a given regex pattern.
func ValidateStringRegex(s string, pattern *regexp.Regexp, fieldName, formatDescription string) error {
	if !pattern.MatchString(s) {
		return fmt.Errorf("%w: %s is not in the expected format (%s)", ErrValidationFailed, fieldName, formatDescription)
	}
	return nil
}

// ValidateCredential checks one broker credential part (API key or access token).
func ValidateCredential(s, fieldName string) error {
	if err := ValidateStringNotEmpty(s, fieldName); err != nil {
		return err
	}
	if err := ValidateStringMaxLength(s, MaxCredentialLength, fieldName); err != nil {
		return err
	}
	return ValidateStringRegex(s, credentialPattern, fieldName, "letters, digits, '-' or '_'")
}

// ValidateFilename checks an uploaded file's client-side name.
func ValidateFilename(name, contextID string) error {
	if err := ValidateStringMaxLength(name, MaxFilenameLength, "filename"); err != nil {
		return err
	}
	return CheckXSSPatterns(name, "filename", contextID)
}

// ValidateRowCount rejects empty batches and batches over limit. limit <= 0 disables the upper bound.
func ValidateRowCount(n, limit int) error {
	if n == 0 {
		return fmt.Errorf("%w: rows cannot be empty", ErrValidationFailed)
	}
	if limit > 0 && n > limit {
		return fmt.Errorf("%w: %d rows exceeds the limit of %d", ErrValidationFailed, n, limit)
	}
	return nil
}
