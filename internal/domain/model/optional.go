package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Optional is a float64 that may be undefined. The zero value is undefined.
type Optional struct {
	Value float64
	Valid bool
}

// Some returns a defined value. Non-finite inputs yield an undefined value.
func Some(v float64) Optional {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return Optional{}
	}
	return Optional{Value: v, Valid: true}
}

// None returns an undefined value.
func None() Optional { return Optional{} }

// Get returns the value and whether it is defined.
func (o Optional) Get() (float64, bool) { return o.Value, o.Valid }

// OrElse returns the value when defined and def otherwise.
func (o Optional) OrElse(def float64) float64 {
	if !o.Valid {
		return def
	}
	return o.Value
}

// Equal reports whether two optionals hold the same state and value.
func (o Optional) Equal(other Optional) bool {
	if o.Valid != other.Valid {
		return false
	}
	return !o.Valid || o.Value == other.Value
}

// String renders the value for tabular output; undefined renders as NaN.
func (o Optional) String() string {
	if !o.Valid {
		return "NaN"
	}
	return strconv.FormatFloat(o.Value, 'g', -1, 64)
}

// ParseOptional parses a tabular cell. Empty cells and NaN spellings are undefined.
func ParseOptional(s string) (Optional, error) {
	s = strings.TrimSpace(s)
	switch strings.ToLower(s) {
	case "", "nan", "null", "none", "na":
		return None(), nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return None(), fmt.Errorf("parse %q: %w", s, err)
	}
	return Some(v), nil
}

// MarshalJSON encodes undefined values as null.
func (o Optional) MarshalJSON() ([]byte, error) {
	if !o.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(o.Value)
}

// UnmarshalJSON accepts numbers and null.
func (o *Optional) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		*o = None()
		return nil
	}
	var v float64
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*o = Some(v)
	return nil
}

// MarshalYAML encodes undefined values as null.
func (o Optional) MarshalYAML() (any, error) {
	if !o.Valid {
		return nil, nil
	}
	return o.Value, nil
}
