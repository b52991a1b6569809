package db

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// StringList is a text column holding a JSON array. An empty list is written
// as NULL so a coalescing update never replaces known values with nothing.
type StringList []string

func (l StringList) Value() (driver.Value, error) {
	if len(l) == 0 {
		return nil, nil
	}
	encoded, err := json.Marshal([]string(l))
	if err != nil {
		return nil, fmt.Errorf("encode string list: %w", err)
	}
	return string(encoded), nil
}

func (l *StringList) Scan(src any) error {
	if l == nil {
		return fmt.Errorf("scan into nil string list")
	}
	var raw []byte
	switch v := src.(type) {
	case nil:
		*l = nil
		return nil
	case string:
		raw = []byte(v)
	case []byte:
		raw = v
	default:
		return fmt.Errorf("unsupported string list source %T", src)
	}
	if len(raw) == 0 {
		*l = nil
		return nil
	}

	var values []string
	if err := json.Unmarshal(raw, &values); err != nil {
		return fmt.Errorf("decode string list: %w", err)
	}
	*l = values
	return nil
}

// Contains reports whether value is present, compared case-sensitively.
func (l StringList) Contains(value string) bool {
	for _, item := range l {
		if item == value {
			return true
		}
	}
	return false
}
