package validator

import (
	"strings"

	playground "github.com/go-playground/validator/v10"
)

// fieldValidator is safe for concurrent use and caches its rule parsing
var fieldValidator = playground.New()

// maxEmailLength follows the SMTP path limit
const maxEmailLength = 254

// Email is the pure predicate used for soft validation in forms
func Email(email string) bool {
	email = strings.TrimSpace(email)
	if email == "" || len(email) > maxEmailLength {
		return false
	}
	return fieldValidator.Var(email, "email") == nil
}
