// Package marshal decodes the opaque row maps returned by the restbase
// client into caller-defined structs via a JSON round trip.
package marshal

import (
	"encoding/json"
	"fmt"

	restbase "github.com/restbase/restbase.go"
)

// Unmarshal loads rows (or any value built from decoded JSON, such as a
// single restbase.Record) into v.
func Unmarshal(rows, v any) error {
	data, err := json.Marshal(rows)
	if err != nil {
		return fmt.Errorf("marshal: re-encoding rows: %w", err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("marshal: decoding into %T: %w", v, err)
	}
	return nil
}

// Records decodes a row sequence into a slice of T.
func Records[T any](rows []restbase.Record) ([]T, error) {
	out := make([]T, 0, len(rows))
	if err := Unmarshal(rows, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// First decodes the first row into T, reporting absence the way
// Client.GetByID does.
func First[T any](rows []restbase.Record) (T, bool, error) {
	var zero T
	if len(rows) == 0 {
		return zero, false, nil
	}
	if err := Unmarshal(rows[0], &zero); err != nil {
		return zero, false, err
	}
	return zero, true, nil
}
