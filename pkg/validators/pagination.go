package validators

import (
	"errors"
	"strconv"
)

const (
	defaultPageLimit = 50
	maxPageLimit     = 100
)

var (
	ErrPageInvalid  = errors.New("invalid page provided")
	ErrLimitInvalid = errors.New("invalid limit provided")
)

// PageOpts are the validated pagination parameters of a list request
type PageOpts struct {
	Page  int
	Limit int
}

func (p PageOpts) Offset() int {
	return (p.Page - 1) * p.Limit
}

// PaginationValidator parses page/limit query values, applying the
// defaults for empty ones. Pages start at 1, the limit is capped.
func PaginationValidator(pageStr, limitStr string) (PageOpts, error) {
	opts := PageOpts{
		Page:  1,
		Limit: defaultPageLimit,
	}

	if pageStr != "" {
		page, err := strconv.Atoi(pageStr)
		if err != nil || page < 1 {
			return PageOpts{}, ErrPageInvalid
		}

		opts.Page = page
	}

	if limitStr != "" {
		limit, err := strconv.Atoi(limitStr)
		if err != nil || limit < 1 || limit > maxPageLimit {
			return PageOpts{}, ErrLimitInvalid
		}

		opts.Limit = limit
	}

	return opts, nil
}
