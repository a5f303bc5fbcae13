package sqlite

import (
	"database/sql"
	"encoding/json"
	"fmt"
)

// ToJSONText marshals v for storage in a TEXT column. Nil values are stored
// as NULL.
func ToJSONText(v any) (sql.NullString, error) {
	if v == nil {
		return sql.NullString{}, nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return sql.NullString{}, fmt.Errorf("sqlite: marshal json: %w", err)
	}
	if string(b) == "null" {
		return sql.NullString{}, nil
	}
	return sql.NullString{String: string(b), Valid: true}, nil
}

// FromJSONText unmarshals a TEXT column into dst. NULL and empty values leave
// dst untouched.
func FromJSONText(src sql.NullString, dst any) error {
	if !src.Valid || src.String == "" {
		return nil
	}
	if err := json.Unmarshal([]byte(src.String), dst); err != nil {
		return fmt.Errorf("sqlite: unmarshal json: %w", err)
	}
	return nil
}
