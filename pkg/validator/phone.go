package validator

import (
	"errors"
	"regexp"
	"strings"
)

var (
	// ErrEmptyPhone indicates phone number is empty
	ErrEmptyPhone = errors.New("phone number cannot be empty")

	// ErrInvalidFormat indicates phone number contains invalid characters
	ErrInvalidFormat = errors.New("phone number can only contain digits and an optional leading +")

	// ErrInvalidLength indicates the number has too few or too many digits
	ErrInvalidLength = errors.New("phone number must have between 8 and 15 digits")
)

// phoneRegex matches an optional + followed by digits only
var phoneRegex = regexp.MustCompile(`^\+?\d+$`)

const (
	minPhoneDigits = 8
	maxPhoneDigits = 15
)

// PhoneValidator handles customer phone number validation. Numbers are
// accepted in local or international form with common separators.
type PhoneValidator struct{}

// NewPhoneValidator creates a new phone validator instance
func NewPhoneValidator() *PhoneValidator {
	return &PhoneValidator{}
}

// Validate validates a phone number.
// Accepts formats such as +1 (555) 123-4567, 0771234567 or 44.20.7946.0958
// Returns the sanitized number and an error if invalid
func (v *PhoneValidator) Validate(phone string) (string, error) {
	if strings.TrimSpace(phone) == "" {
		return "", ErrEmptyPhone
	}

	sanitized := v.Sanitize(phone)

	if !phoneRegex.MatchString(sanitized) {
		return "", ErrInvalidFormat
	}

	digits := strings.TrimPrefix(sanitized, "+")
	if len(digits) < minPhoneDigits || len(digits) > maxPhoneDigits {
		return "", ErrInvalidLength
	}

	return sanitized, nil
}

// Sanitize removes separators, keeping digits and a leading +
func (v *PhoneValidator) Sanitize(phone string) string {
	phone = strings.TrimSpace(phone)
	phone = strings.ReplaceAll(phone, " ", "")
	phone = strings.ReplaceAll(phone, "-", "")
	phone = strings.ReplaceAll(phone, "(", "")
	phone = strings.ReplaceAll(phone, ")", "")
	phone = strings.ReplaceAll(phone, ".", "")

	// 00 international prefix
	if strings.HasPrefix(phone, "00") && len(phone) > 2 {
		phone = "+" + phone[2:]
	}

	return phone
}

// IsValid is a convenience method that returns true if phone is valid
func (v *PhoneValidator) IsValid(phone string) bool {
	_, err := v.Validate(phone)
	return err == nil
}

var defaultPhoneValidator = NewPhoneValidator()

// Phone is the pure predicate used for soft validation in forms
func Phone(phone string) bool {
	return defaultPhoneValidator.IsValid(phone)
}
