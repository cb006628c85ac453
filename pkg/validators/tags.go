package validators

import (
	"errors"
	"strings"
)

const maxTagLen = 50

var ErrTagTooLong = errors.New("tags must be at most 50 characters long")

// TagsValidator splits a comma separated query into clean tags. Empty
// entries are dropped, overlong ones reject the whole query.
func TagsValidator(q string) ([]string, error) {
	var tags []string

	for _, raw := range strings.Split(q, ",") {
		tag := strings.ToLower(strings.TrimSpace(raw))
		if tag == "" {
			continue
		}

		if len(tag) > maxTagLen {
			return nil, ErrTagTooLong
		}

		tags = append(tags, tag)
	}

	return tags, nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// EscapeLike escapes user input before it is embedded in a LIKE
// pattern so wildcards in the input match literally
func EscapeLike(s string) string {
	return likeEscaper.Replace(s)
}
