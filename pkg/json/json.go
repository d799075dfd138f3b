// Package json holds small generic helpers over encoding/json.
package json

import (
	"encoding/json"
	"errors"
	"io"
)

var (
	ErrDecodeJSON = errors.New("failed to decode JSON")
	ErrEncodeJSON = errors.New("failed to encode JSON")
)

// Decode is a generic version of the stdlib json decoder.
func Decode[T any](reader io.Reader) (T, error) {
	var value T
	if err := json.NewDecoder(reader).Decode(&value); err != nil {
		return value, errors.Join(err, ErrDecodeJSON)
	}

	return value, nil
}

// Encode writes value as indented JSON followed by a newline.
func Encode(writer io.Writer, value any) error {
	enc := json.NewEncoder(writer)
	enc.SetIndent("", "  ")

	if err := enc.Encode(value); err != nil {
		return errors.Join(err, ErrEncodeJSON)
	}

	return nil
}
