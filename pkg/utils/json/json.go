// Package json wraps the sonic codec behind the familiar encoding/json surface.
// Stream decoding hot paths (NDJSON lines, store round-trips) all funnel through
// here so the codec can be swapped in one place.
package json

import (
	"io"

	"github.com/bytedance/sonic"
)

// Marshal serializes v into JSON bytes.
func Marshal(v interface{}) ([]byte, error) {
	return sonic.Marshal(v)
}

// MarshalIndent serializes v into pretty-printed JSON bytes.
func MarshalIndent(v interface{}, prefix, indent string) ([]byte, error) {
	return sonic.MarshalIndent(v, prefix, indent)
}

// MarshalString serializes v into a JSON string.
func MarshalString(v interface{}) (string, error) {
	return sonic.MarshalString(v)
}

// Unmarshal parses JSON bytes into v.
func Unmarshal(data []byte, v interface{}) error {
	return sonic.Unmarshal(data, v)
}

// UnmarshalString parses a JSON string into v.
func UnmarshalString(data string, v interface{}) error {
	return sonic.UnmarshalString(data, v)
}

// NewEncoder returns a streaming encoder writing to w.
func NewEncoder(w io.Writer) sonic.Encoder {
	return sonic.ConfigDefault.NewEncoder(w)
}

// NewDecoder returns a streaming decoder reading from r.
func NewDecoder(r io.Reader) sonic.Decoder {
	return sonic.ConfigDefault.NewDecoder(r)
}

// Valid reports whether data is a syntactically valid JSON document.
func Valid(data []byte) bool {
	return sonic.Valid(data)
}
