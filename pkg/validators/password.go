package validators

import (
	"errors"
	"strings"
	"unicode"
)

var (
	ErrPasswordEmpty     = errors.New("no password provided")
	ErrPasswordTooShort  = errors.New("password must be at least 8 characters long")
	ErrPasswordTooLong   = errors.New("password must be at most 72 characters long")
	ErrPasswordNoUpper   = errors.New("password must contain at least one uppercase letter")
	ErrPasswordNoLower   = errors.New("password must contain at least one lowercase letter")
	ErrPasswordNoDigit   = errors.New("password must contain at least one digit")
	ErrPasswordNoSpecial = errors.New("password must contain at least one special character")
)

const specialChars = `!@#$%^&*(),.?":{}|<>`

// PasswordValidator returns every rule the password fails, not just
// the first, so the client can show the full list at once
func PasswordValidator(p string) []error {
	if p == "" {
		return []error{ErrPasswordEmpty}
	}

	var errs []error

	if len(p) < 8 {
		errs = append(errs, ErrPasswordTooShort)
	}

	// bcrypt refuses inputs over 72 bytes
	if len(p) > 72 {
		errs = append(errs, ErrPasswordTooLong)
	}

	var hasUpper, hasLower, hasDigit bool
	for _, r := range p {
		switch {
		case unicode.IsUpper(r):
			hasUpper = true
		case unicode.IsLower(r):
			hasLower = true
		case unicode.IsDigit(r):
			hasDigit = true
		}
	}

	if !hasUpper {
		errs = append(errs, ErrPasswordNoUpper)
	}

	if !hasLower {
		errs = append(errs, ErrPasswordNoLower)
	}

	if !hasDigit {
		errs = append(errs, ErrPasswordNoDigit)
	}

	if !strings.ContainsAny(p, specialChars) {
		errs = append(errs, ErrPasswordNoSpecial)
	}

	return errs
}

// ErrorStrings converts a validator error list into plain messages
// for a JSON response
func ErrorStrings(errs []error) []string {
	out := make([]string, len(errs))
	for i, err := range errs {
		out[i] = err.Error()
	}

	return out
}
