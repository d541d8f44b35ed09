package models

import (
	"fmt"
	"strconv"
	"time"
)

// idKeys lists the identifier fields used across domains, in lookup order.
var idKeys = []string{"id", "_id", "doc_id", "testcase_id", "run_index", "run_id", "report_id"}

// ID returns the record identifier, whichever field name the domain uses.
func (r Record) ID() string {
	for _, k := range idKeys {
		if v, ok := r[k]; ok && v != nil {
			return fmt.Sprint(v)
		}
	}
	return ""
}

// String returns the field as a string, or "" when absent.
func (r Record) String(key string) string {
	v, ok := r[key]
	if !ok || v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}

// Int returns the field as an int. JSON numbers decode as float64, and some
// backends send counts as strings; both are accepted.
func (r Record) Int(key string) int {
	return int(r.Float(key))
}

// Float returns the field as a float64, or 0 when absent or not numeric.
func (r Record) Float(key string) float64 {
	switch v := r[key].(type) {
	case float64:
		return v
	case float32:
		return float64(v)
	case int:
		return float64(v)
	case int64:
		return float64(v)
	case string:
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return 0
		}
		return f
	default:
		return 0
	}
}

// Records returns a nested list of objects (e.g. the test cases of a run).
func (r Record) Records(key string) []Record {
	raw, ok := r[key].([]any)
	if !ok {
		return nil
	}
	out := make([]Record, 0, len(raw))
	for _, item := range raw {
		if m, ok := item.(map[string]any); ok {
			out = append(out, Record(m))
		}
	}
	return out
}

// timestampKeys are tried in order when looking for a record's creation time.
var timestampKeys = []string{"created_at", "timestamp", "createdAt", "run_at", "started_at"}

// Timestamp returns the raw creation timestamp of the record, or "".
func (r Record) Timestamp() string {
	for _, k := range timestampKeys {
		if s := r.String(k); s != "" {
			return s
		}
	}
	return ""
}

// CreatedAt parses Timestamp. The second return value is false when the
// record has no timestamp or it cannot be parsed.
func (r Record) CreatedAt() (time.Time, bool) {
	return ParseTimestamp(r.Timestamp())
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05.999999",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// ParseTimestamp accepts the timestamp formats the backend is known to emit,
// including naive ISO timestamps without a zone.
func ParseTimestamp(s string) (time.Time, bool) {
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
