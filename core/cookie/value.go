package cookie

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Value is a request cookie value with typed accessors.
type Value struct {
	raw string
}

// NewValue wraps a raw cookie value.
func NewValue(raw string) Value {
	return Value{raw: raw}
}

// String returns the raw decoded value.
func (v Value) String() string {
	return v.raw
}

// JSON decodes the value into dst. Malformed JSON is reported as ErrParseJSON.
func (v Value) JSON(dst any) error {
	if err := json.Unmarshal([]byte(v.raw), dst); err != nil {
		return fmt.Errorf("%w: %v", ErrParseJSON, err)
	}
	return nil
}

// Number parses the value as a float64.
// Non-numeric input fails with ErrNotNumber rather than producing NaN.
func (v Value) Number() (float64, error) {
	s := strings.TrimSpace(v.raw)
	if s == "" {
		return 0, ErrNotNumber
	}
	n, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrNotNumber, v.raw)
	}
	return n, nil
}
