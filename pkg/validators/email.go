// Package validators contains validators found throughout the application
// that have been abstracted away from the main code. All of them are
// pure functions so they can be tested on their own.
package validators

import (
	"errors"
	"net/mail"
	"strings"
)

var (
	ErrEmailEmpty   = errors.New("no email address provided")
	ErrEmailInvalid = errors.New("invalid email address provided")
)

func EmailValidator(e string) error {
	if e == "" {
		return ErrEmailEmpty
	}

	if _, err := mail.ParseAddress(e); err != nil {
		return ErrEmailInvalid
	}

	return nil
}

// NormalizeEmail case folds and trims an address the same way it is
// stored, so lookups and uniqueness checks agree
func NormalizeEmail(e string) string {
	return strings.ToLower(strings.TrimSpace(e))
}
