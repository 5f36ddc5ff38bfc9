// Package record defines the untyped row representation shared by the field
// system and its accessor helpers. Rows arrive from storage as string-keyed
// maps; every internal consumer reads them through these helpers so that
// nil, missing, and empty-string values are normalized the same way
// everywhere.
package record

import (
	"encoding/json"
	"strconv"
	"strings"
	"time"
)

// Row is a single storage row as received from the tabular fetch layer.
type Row map[string]interface{}

// Clone returns a shallow copy of the row.
func (r Row) Clone() Row {
	out := make(Row, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// Merge copies every key from patch into the row, overwriting existing keys.
func (r Row) Merge(patch Row) {
	for k, v := range patch {
		r[k] = v
	}
}

// Get returns the normalized value for key. Missing keys, nil values, and
// empty/whitespace-only strings all report (nil, false).
func (r Row) Get(key string) (interface{}, bool) {
	v, ok := r[key]
	if !ok || v == nil {
		return nil, false
	}
	if s, isStr := v.(string); isStr && strings.TrimSpace(s) == "" {
		return nil, false
	}
	return v, true
}

// Has reports whether the key holds a non-empty value.
func (r Row) Has(key string) bool {
	_, ok := r.Get(key)
	return ok
}

// String returns the value for key coerced to a string.
func (r Row) String(key string) (string, bool) {
	v, ok := r.Get(key)
	if !ok {
		return "", false
	}
	return CoerceString(v)
}

// Int64 returns the value for key coerced to an int64.
func (r Row) Int64(key string) (int64, bool) {
	v, ok := r.Get(key)
	if !ok {
		return 0, false
	}
	return CoerceInt64(v)
}

// Float64 returns the value for key coerced to a float64.
func (r Row) Float64(key string) (float64, bool) {
	v, ok := r.Get(key)
	if !ok {
		return 0, false
	}
	return CoerceFloat64(v)
}

// Bool returns the value for key coerced to a bool.
func (r Row) Bool(key string) (bool, bool) {
	v, ok := r.Get(key)
	if !ok {
		return false, false
	}
	return CoerceBool(v)
}

// Time returns the value for key coerced to a time.Time.
func (r Row) Time(key string) (time.Time, bool) {
	v, ok := r.Get(key)
	if !ok {
		return time.Time{}, false
	}
	return CoerceTime(v)
}

// Strings returns the value for key coerced to a string slice.
func (r Row) Strings(key string) ([]string, bool) {
	v, ok := r.Get(key)
	if !ok {
		return nil, false
	}
	return CoerceStrings(v)
}

// CoerceString converts a scalar value to its string form.
func CoerceString(v interface{}) (string, bool) {
	switch s := v.(type) {
	case string:
		return s, true
	case []byte:
		return string(s), true
	case int:
		return strconv.Itoa(s), true
	case int32:
		return strconv.FormatInt(int64(s), 10), true
	case int64:
		return strconv.FormatInt(s, 10), true
	case float32:
		return strconv.FormatFloat(float64(s), 'f', -1, 32), true
	case float64:
		return strconv.FormatFloat(s, 'f', -1, 64), true
	case bool:
		return strconv.FormatBool(s), true
	case json.Number:
		return s.String(), true
	case time.Time:
		return s.Format(time.RFC3339), true
	default:
		return "", false
	}
}

// CoerceInt64 converts a value to int64, accepting numeric types and
// numeric strings. Fractional floats truncate toward zero.
func CoerceInt64(v interface{}) (int64, bool) {
	switch n := v.(type) {
	case int:
		return int64(n), true
	case int32:
		return int64(n), true
	case int64:
		return n, true
	case uint:
		return int64(n), true
	case uint64:
		return int64(n), true
	case float32:
		return int64(n), true
	case float64:
		return int64(n), true
	case json.Number:
		if i, err := n.Int64(); err == nil {
			return i, true
		}
		if f, err := n.Float64(); err == nil {
			return int64(f), true
		}
		return 0, false
	case string:
		if i, err := strconv.ParseInt(strings.TrimSpace(n), 10, 64); err == nil {
			return i, true
		}
		if f, err := strconv.ParseFloat(strings.TrimSpace(n), 64); err == nil {
			return int64(f), true
		}
		return 0, false
	case []byte:
		return CoerceInt64(string(n))
	default:
		return 0, false
	}
}

// CoerceFloat64 converts a value to float64, accepting numeric types and
// numeric strings.
func CoerceFloat64(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		return f, err == nil
	case []byte:
		return CoerceFloat64(string(n))
	default:
		return 0, false
	}
}

// CoerceBool converts a value to bool. Strings accept true/false, t/f,
// yes/no, on/off, and 1/0, case-insensitively. Numbers are true when
// non-zero.
func CoerceBool(v interface{}) (bool, bool) {
	switch b := v.(type) {
	case bool:
		return b, true
	case string:
		switch strings.ToLower(strings.TrimSpace(b)) {
		case "true", "t", "yes", "y", "on", "1":
			return true, true
		case "false", "f", "no", "n", "off", "0":
			return false, true
		}
		return false, false
	case []byte:
		return CoerceBool(string(b))
	default:
		if f, ok := CoerceFloat64(v); ok {
			return f != 0, true
		}
		return false, false
	}
}

// timeLayouts are tried in order when parsing time values from strings.
var timeLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// CoerceTime converts a value to time.Time, accepting time.Time and the
// common storage layouts (RFC 3339, "2006-01-02 15:04:05", bare dates).
func CoerceTime(v interface{}) (time.Time, bool) {
	switch t := v.(type) {
	case time.Time:
		return t, true
	case *time.Time:
		if t == nil {
			return time.Time{}, false
		}
		return *t, true
	case string:
		s := strings.TrimSpace(t)
		for _, layout := range timeLayouts {
			if parsed, err := time.Parse(layout, s); err == nil {
				return parsed, true
			}
		}
		return time.Time{}, false
	case []byte:
		return CoerceTime(string(t))
	default:
		return time.Time{}, false
	}
}

// CoerceStrings converts a value to a string slice. Accepts string slices,
// interface slices, and comma-separated strings. Empty elements are dropped.
func CoerceStrings(v interface{}) ([]string, bool) {
	appendNonEmpty := func(out []string, s string) []string {
		if trimmed := strings.TrimSpace(s); trimmed != "" {
			out = append(out, trimmed)
		}
		return out
	}

	switch s := v.(type) {
	case []string:
		out := make([]string, 0, len(s))
		for _, el := range s {
			out = appendNonEmpty(out, el)
		}
		return out, true
	case []interface{}:
		out := make([]string, 0, len(s))
		for _, el := range s {
			if el == nil {
				continue
			}
			if str, ok := CoerceString(el); ok {
				out = appendNonEmpty(out, str)
			}
		}
		return out, true
	case string:
		parts := strings.Split(s, ",")
		out := make([]string, 0, len(parts))
		for _, el := range parts {
			out = appendNonEmpty(out, el)
		}
		return out, true
	case []byte:
		return CoerceStrings(string(s))
	default:
		return nil, false
	}
}

// Midnight truncates a time to 00:00:00 in its own location.
func Midnight(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// CalendarDay rebuilds t's calendar date at midnight UTC. Calendar
// comparisons must go through this rather than Midnight: a bare date
// string parses as UTC while the host clock carries a local zone, and
// truncating each operand in its own location leaves a fractional-day
// offset between them.
func CalendarDay(t time.Time) time.Time {
	year, month, day := t.Date()
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}
