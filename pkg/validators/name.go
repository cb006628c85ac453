package validators

import (
	"errors"
	"strings"
)

var (
	ErrNameTooShort = errors.New("name must be at least 2 characters long")
	ErrNameTooLong  = errors.New("name must be at most 100 characters long")
)

func NameValidator(n string) error {
	n = strings.TrimSpace(n)

	if len(n) < 2 {
		return ErrNameTooShort
	}

	if len(n) > 100 {
		return ErrNameTooLong
	}

	return nil
}
