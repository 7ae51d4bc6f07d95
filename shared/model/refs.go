package model

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"maps"
	"strings"
)

// Refs is an additive map of external identifiers stored as JSONB.
type Refs map[string]string

// Merge copies every non-blank value of incoming into r and reports whether anything changed.
// Existing keys are only overwritten by a different non-blank value.
func (r *Refs) Merge(incoming map[string]string) bool {
	if *r == nil {
		*r = Refs{}
	}

	changed := false

	for key, value := range incoming {
		value = strings.TrimSpace(value)
		if key == "" || value == "" || (*r)[key] == value {
			continue
		}

		(*r)[key] = value
		changed = true
	}

	return changed
}

func (r Refs) Get(key string) string {
	return r[key]
}

func (r Refs) Clone() Refs {
	if r == nil {
		return Refs{}
	}

	return maps.Clone(r)
}

// Value implements driver.Valuer.
func (r Refs) Value() (driver.Value, error) {
	if r == nil {
		return []byte("{}"), nil
	}

	return json.Marshal(map[string]string(r)) //nolint:wrapcheck
}

// Scan implements sql.Scanner.
func (r *Refs) Scan(src any) error {
	var raw []byte

	switch value := src.(type) {
	case nil:
		*r = Refs{}

		return nil
	case []byte:
		raw = value
	case string:
		raw = []byte(value)
	default:
		return fmt.Errorf("unsupported refs source %T", src)
	}

	decoded := map[string]string{}
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return fmt.Errorf("failed to decode refs: %w", err)
	}

	*r = decoded

	return nil
}
