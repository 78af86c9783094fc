package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// JSON stores a value as a JSON document (jsonb on PostgreSQL, text on SQLite).
// Nested document content such as sections and payments never needs to be
// queried on its own, so it lives inside the owning row.
type JSON[T any] struct {
	Data T
}

// NewJSON wraps a value for storage
func NewJSON[T any](v T) JSON[T] {
	return JSON[T]{Data: v}
}

// Value implements driver.Valuer
func (j JSON[T]) Value() (driver.Value, error) {
	b, err := json.Marshal(j.Data)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan implements sql.Scanner
func (j *JSON[T]) Scan(value any) error {
	var zero T
	var data []byte
	switch v := value.(type) {
	case nil:
		j.Data = zero
		return nil
	case string:
		data = []byte(v)
	case []byte:
		data = v
	default:
		return fmt.Errorf("cannot scan %T into JSON column", value)
	}
	if len(data) == 0 {
		j.Data = zero
		return nil
	}
	return json.Unmarshal(data, &j.Data)
}
