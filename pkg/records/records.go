// Package records defines the row model shared by every pipeline stage.
//
// A Record is a loosely typed key/value row, mirroring one line of a CSV
// file, one parsed JSON payload, or one database row. Stages communicate in
// []Record batches; transformers mutate records in place.
//
// Null discipline: a key that is absent and a key whose value is nil are
// treated identically by every accessor. Callers must not rely on the
// distinction, and the bronze alias resolution depends on this equivalence.
package records

import (
	"strconv"
	"time"
)

// Record is a single row keyed by canonical (or not yet normalized) field names.
type Record map[string]any

// Clone returns a shallow copy of the record.
func (r Record) Clone() Record {
	out := make(Record, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// IsNull reports whether key is absent or holds nil.
func (r Record) IsNull(key string) bool {
	v, ok := r[key]
	return !ok || v == nil
}

// String returns the string value for key. ok is false when the key is
// absent, nil, or not a string.
func (r Record) String(key string) (string, bool) {
	if v, ok := r[key]; ok {
		if s, ok := v.(string); ok {
			return s, true
		}
	}
	return "", false
}

// Float returns the value for key as float64 when it holds any numeric Go
// type or a numeric string (see AsFloat).
func (r Record) Float(key string) (float64, bool) {
	v, ok := r[key]
	if !ok || v == nil {
		return 0, false
	}
	return AsFloat(v)
}

// Int returns the value for key as int when it holds an integral value.
func (r Record) Int(key string) (int, bool) {
	switch n := r[key].(type) {
	case int:
		return n, true
	case int32:
		return int(n), true
	case int64:
		return int(n), true
	case float64:
		return int(n), true
	}
	return 0, false
}

// Time returns the value for key when it holds a time.Time.
func (r Record) Time(key string) (time.Time, bool) {
	if t, ok := r[key].(time.Time); ok {
		return t, true
	}
	return time.Time{}, false
}

// FirstOf returns the value of the first listed key that is present and
// non-nil. The bool result is false when none match.
func (r Record) FirstOf(keys ...string) (any, bool) {
	for _, k := range keys {
		if v, ok := r[k]; ok && v != nil {
			return v, true
		}
	}
	return nil, false
}

// AsFloat coerces v to float64. Numeric Go types convert directly; strings
// are parsed with strconv. ok is false when v is nil or not coercible.
func AsFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case string:
		f, err := strconv.ParseFloat(n, 64)
		if err != nil {
			return 0, false
		}
		return f, true
	}
	return 0, false
}

// AsInt coerces v to int the same way AsFloat coerces to float64. Fractional
// floats truncate toward zero, matching integer column semantics.
func AsInt(v any) (int, bool) {
	if f, ok := AsFloat(v); ok {
		return int(f), true
	}
	return 0, false
}
