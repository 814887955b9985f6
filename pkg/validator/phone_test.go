package validator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewPhoneValidator(t *testing.T) {
	validator := NewPhoneValidator()
	assert.NotNil(t, validator)
}

func TestValidate_ValidNumbers(t *testing.T) {
	validator := NewPhoneValidator()

	validNumbers := []struct {
		input    string
		expected string
		name     string
	}{
		{"0771234567", "0771234567", "Local format"},
		{"077 123 4567", "0771234567", "With spaces"},
		{"077-123-4567", "0771234567", "With dashes"},
		{"+1 (555) 123-4567", "+15551234567", "North American with parentheses"},
		{"44.20.7946.0958", "442079460958", "With dots"},
		{"0044 20 7946 0958", "+442079460958", "00 international prefix"},
		{"+94771234567", "+94771234567", "E.164"},
		{"12345678", "12345678", "Minimum length"},
		{"+123456789012345", "+123456789012345", "Maximum length"},
	}

	for _, tc := range validNumbers {
		t.Run(tc.name, func(t *testing.T) {
			sanitized, err := validator.Validate(tc.input)
			require.NoError(t, err)
			assert.Equal(t, tc.expected, sanitized)
		})
	}
}

func TestValidate_InvalidNumbers(t *testing.T) {
	validator := NewPhoneValidator()

	invalidNumbers := []struct {
		input       string
		expectedErr error
		name        string
	}{
		{"", ErrEmptyPhone, "Empty string"},
		{"     ", ErrEmptyPhone, "Only spaces"},
		{"123", ErrInvalidLength, "Too short"},
		{"1234567890123456", ErrInvalidLength, "Too long"},
		{"077123456a", ErrInvalidFormat, "Contains letters"},
		{"077 123 456!", ErrInvalidFormat, "Contains special characters"},
		{"+1+5551234567", ErrInvalidFormat, "Plus in the middle"},
	}

	for _, tc := range invalidNumbers {
		t.Run(tc.name, func(t *testing.T) {
			_, err := validator.Validate(tc.input)
			assert.Error(t, err)
			assert.Equal(t, tc.expectedErr, err)
		})
	}
}

func TestSanitize(t *testing.T) {
	validator := NewPhoneValidator()

	tests := []struct {
		input    string
		expected string
		name     string
	}{
		{"0771234567", "0771234567", "Already clean"},
		{"(077) 123 4567", "0771234567", "With parentheses"},
		{"077-123-4567  ", "0771234567", "With trailing spaces"},
		{"  077-123-4567", "0771234567", "With leading spaces"},
		{"077 - 123 - 4567", "0771234567", "Multiple separators"},
		{"0094771234567", "+94771234567", "00 prefix rewritten"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, validator.Sanitize(tc.input))
		})
	}
}

func TestPhonePredicate(t *testing.T) {
	inputs := map[string]bool{
		"+1 (555) 123-4567": true,
		"0771234567":        true,
		"":                  false,
		"call me":           false,
		"555-12":            false,
	}

	for input, expected := range inputs {
		t.Run(input, func(t *testing.T) {
			// Repeated calls must agree
			for i := 0; i < 3; i++ {
				assert.Equal(t, expected, Phone(input))
			}
		})
	}
}

func TestEmailPredicate(t *testing.T) {
	tests := []struct {
		input    string
		expected bool
		name     string
	}{
		{"agent@example.com", true, "Simple address"},
		{"first.last+tag@sub.example.co.uk", true, "Subdomain with tag"},
		{"  agent@example.com  ", true, "Surrounding whitespace"},
		{"", false, "Empty"},
		{"invalid", false, "No at sign"},
		{"@example.com", false, "Missing local part"},
		{"user@", false, "Missing domain"},
		{"two@@example.com", false, "Double at sign"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			for i := 0; i < 3; i++ {
				assert.Equal(t, tc.expected, Email(tc.input))
			}
		})
	}
}

func TestConcurrentValidation(t *testing.T) {
	validator := NewPhoneValidator()

	done := make(chan bool)
	errors := make(chan error, 100)

	phones := []string{
		"0771234567",
		"+15551234567",
		"442079460958",
	}

	for i := 0; i < 100; i++ {
		go func(phone string) {
			_, err := validator.Validate(phone)
			if err != nil {
				errors <- err
			}
			done <- true
		}(phones[i%len(phones)])
	}

	for i := 0; i < 100; i++ {
		<-done
	}

	close(errors)
	assert.Empty(t, errors)
}

func BenchmarkValidate(b *testing.B) {
	validator := NewPhoneValidator()
	phone := "+1 (555) 123-4567"

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = validator.Validate(phone)
	}
}

func BenchmarkEmail(b *testing.B) {
	for i := 0; i < b.N; i++ {
		_ = Email("agent@example.com")
	}
}
