// Package normalize cleans row mappings before they reach the trusted zone.
package normalize

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
	"time"
)

// timestampFields is the fixed set of field names whose values are rewritten
// into canonical UTC ISO-8601 form when present.
var timestampFields = map[string]struct{}{
	"timestamp":        {},
	"source_timestamp": {},
	"event_time":       {},
	"created_at":       {},
	"updated_at":       {},
	"deleted_at":       {},
}

// offsetSuffix matches an explicit UTC offset at the end of a timestamp
// string, e.g. "+02:00" or "-0500".
var offsetSuffix = regexp.MustCompile(`[+-]\d{2}:?\d{2}$`)

// layouts accepted for offset-less timestamp strings.
var naiveLayouts = []string{
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02 15:04:05",
}

// Warning describes a recoverable normalization problem. The affected field
// keeps its original value; the record is never dropped for it.
type Warning struct {
	Field string
	Err   error
}

// Record strips null and empty-string fields from a row and canonicalizes
// recognized timestamp fields. It returns nil when nothing survives: a row
// with no remaining fields carries no value to trusted storage.
func Record(row map[string]any) (map[string]any, []Warning) {
	out := make(map[string]any, len(row))
	for k, v := range row {
		if v == nil {
			continue
		}
		if s, ok := v.(string); ok && s == "" {
			continue
		}
		out[k] = v
	}

	if len(out) == 0 {
		return nil, nil
	}

	var warnings []Warning
	for k := range timestampFields {
		v, ok := out[k]
		if !ok {
			continue
		}
		canonical, err := Timestamp(v)
		if err != nil {
			warnings = append(warnings, Warning{Field: k, Err: err})
			continue
		}
		out[k] = canonical
	}

	return out, warnings
}

// Timestamp rewrites a timestamp value into canonical UTC ISO-8601 form.
//
// Strings that already carry a UTC marker or explicit offset pass through
// unchanged. Offset-less date/time strings are treated as UTC and get the
// "Z" marker appended; replication timestamps are produced in UTC, so no
// local-time guess is involved. Numeric values are interpreted as Unix
// epoch seconds and rendered in the "Z" suffix form, never "+00:00".
func Timestamp(v any) (any, error) {
	switch t := v.(type) {
	case string:
		return canonicalString(t)
	case json.Number:
		if sec, err := t.Int64(); err == nil {
			return time.Unix(sec, 0).UTC().Format(time.RFC3339), nil
		}
		f, err := t.Float64()
		if err != nil {
			return nil, fmt.Errorf("unparseable numeric timestamp %q: %w", t.String(), err)
		}
		return epochFloat(f), nil
	case float64:
		return epochFloat(t), nil
	case int64:
		return time.Unix(t, 0).UTC().Format(time.RFC3339), nil
	case int:
		return time.Unix(int64(t), 0).UTC().Format(time.RFC3339), nil
	default:
		return nil, fmt.Errorf("unsupported timestamp type %T", v)
	}
}

func epochFloat(f float64) string {
	sec := int64(f)
	nsec := int64((f - float64(sec)) * 1e9)
	return time.Unix(sec, nsec).UTC().Format(time.RFC3339Nano)
}

func canonicalString(s string) (any, error) {
	if !strings.ContainsAny(s, "T ") && !strings.Contains(s, "-") {
		return nil, fmt.Errorf("unrecognized timestamp string %q", s)
	}

	// Replication sources emit both "Z" and "z" UTC markers.
	if strings.HasSuffix(s, "Z") || strings.HasSuffix(s, "z") || offsetSuffix.MatchString(s) {
		// Already anchored to UTC or an explicit offset.
		return s, nil
	}

	for _, layout := range naiveLayouts {
		if _, err := time.Parse(layout, s); err == nil {
			return s + "Z", nil
		}
	}

	return nil, fmt.Errorf("unrecognized timestamp string %q", s)
}
