package model

import (
	"database/sql/driver"
	"fmt"
	"strings"
)

const sliceSep = ","

// StringSlice stores a []string in a single text column as a comma
// joined list, so sqlite and postgres share the same schema without
// a join table. DeriveTags already strips separators from tag input.
type StringSlice []string

// Value implements driver.Valuer. An element containing the
// separator would corrupt the column on the way back out, so it is
// rejected instead of silently stored.
func (s StringSlice) Value() (driver.Value, error) {
	if len(s) == 0 {
		return "", nil
	}

	for _, v := range s {
		if strings.Contains(v, sliceSep) {
			return "", fmt.Errorf("element %q contains the separator", v)
		}
	}

	return strings.Join(s, sliceSep), nil
}

// Scan implements sql.Scanner. NULL and the empty string both come
// back as an empty slice, never nil.
func (s *StringSlice) Scan(value any) error {
	var str string

	switch v := value.(type) {
	case nil:
	case string:
		str = v
	case []byte:
		str = string(v)
	default:
		return fmt.Errorf("cannot scan %T into StringSlice", value)
	}

	if str == "" {
		*s = StringSlice{}
		return nil
	}

	*s = strings.Split(str, sliceSep)
	return nil
}
