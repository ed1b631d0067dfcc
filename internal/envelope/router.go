// Package envelope interprets decoded JSON values as CDC envelopes and
// assigns each row to a trusted-zone route.
package envelope

import "strings"

const (
	// controlTablePrefix marks replication-internal bookkeeping tables
	// (heartbeats, status). Rows from these tables are never persisted.
	controlTablePrefix = "awsdms_"

	// significantRecordType is the record-type carried by actual row
	// changes, as opposed to control events.
	significantRecordType = "data"
)

// Route identifies a trusted-zone destination.
type Route struct {
	Domain string
	Table  string
}

func (r Route) String() string {
	return r.Domain + "/" + r.Table
}

// Routed is a row that has been assigned to a route. Meta holds the envelope
// metadata when the row arrived wrapped; it is nil for bare legacy rows.
type Routed struct {
	Route Route
	Row   map[string]any
	Meta  map[string]any
}

// Skip reasons reported by Table.Route.
const (
	SkipNotMapping   = "not_a_mapping"
	SkipBadShape     = "bad_envelope_shape"
	SkipControlTable = "control_table"
	SkipRecordType   = "record_type"
	SkipUnlisted     = "unlisted_table"
)

// Skip explains why a value was not routed. None of these are errors; they
// are expected steady-state outcomes for out-of-scope input.
type Skip struct {
	Reason string
	Detail string
}

// Route decides the destination for one decoded JSON value. Exactly one of
// the returned pointers is non-nil.
//
// Values carrying both "data" and "metadata" keys are treated as CDC
// envelopes: control tables and non-data record types are skipped, and the
// (schema, table) pair is matched against the allow-list. A bare mapping
// without the envelope shape is accepted under the legacy route so producers
// that bypass the replication layer keep working. Anything that is not a
// mapping is skipped.
func (t *Table) Route(v any) (*Routed, *Skip) {
	row, ok := v.(map[string]any)
	if !ok {
		return nil, &Skip{Reason: SkipNotMapping}
	}

	dataRaw, hasData := row["data"]
	metaRaw, hasMeta := row["metadata"]
	if !hasData || !hasMeta {
		// Bare row without an envelope: legacy fallback route.
		// Bypasses the schema/table filter entirely.
		return &Routed{Route: t.legacy, Row: row}, nil
	}

	meta, ok := metaRaw.(map[string]any)
	if !ok {
		return nil, &Skip{Reason: SkipBadShape, Detail: "metadata is not a mapping"}
	}

	table := strings.ToLower(stringField(meta, "table-name"))
	schema := strings.ToLower(stringField(meta, "schema-name"))

	if strings.HasPrefix(table, controlTablePrefix) {
		return nil, &Skip{Reason: SkipControlTable, Detail: table}
	}

	if rt, ok := meta["record-type"]; ok {
		if s, _ := rt.(string); s != significantRecordType {
			return nil, &Skip{Reason: SkipRecordType, Detail: stringField(meta, "record-type")}
		}
	}

	route, ok := t.Lookup(schema, table)
	if !ok {
		return nil, &Skip{Reason: SkipUnlisted, Detail: schema + "." + table}
	}

	data, ok := dataRaw.(map[string]any)
	if !ok {
		return nil, &Skip{Reason: SkipBadShape, Detail: "data is not a mapping"}
	}

	return &Routed{Route: route, Row: data, Meta: meta}, nil
}

func stringField(m map[string]any, key string) string {
	s, _ := m[key].(string)
	return s
}
