package db

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// JSONList is an ordered list of strings stored as a JSON array in a TEXT
// column. Element order is preserved exactly across a write/read round-trip.
// A nil JSONList is stored as '[]' so list columns are never NULL.
type JSONList []string

// Value implements driver.Valuer. Called by GORM before writing to the
// database.
func (l JSONList) Value() (driver.Value, error) {
	if l == nil {
		return "[]", nil
	}
	b, err := json.Marshal([]string(l))
	if err != nil {
		return nil, fmt.Errorf("db: JSONList.Value: %w", err)
	}
	return string(b), nil
}

// Scan implements sql.Scanner. Called by GORM after reading from the
// database. NULL and empty values scan to an empty list.
func (l *JSONList) Scan(value interface{}) error {
	if value == nil {
		*l = JSONList{}
		return nil
	}

	var raw []byte
	switch v := value.(type) {
	case string:
		raw = []byte(v)
	case []byte:
		raw = v
	default:
		return fmt.Errorf("db: JSONList.Scan: expected string or []byte, got %T", value)
	}

	if len(raw) == 0 {
		*l = JSONList{}
		return nil
	}

	var out []string
	if err := json.Unmarshal(raw, &out); err != nil {
		return fmt.Errorf("db: JSONList.Scan: %w", err)
	}
	if out == nil {
		out = []string{}
	}
	*l = out
	return nil
}

// First returns the first element or "" when the list is empty. Removal
// handlers collapse list fields to their first element.
func (l JSONList) First() string {
	if len(l) == 0 {
		return ""
	}
	return l[0]
}
