package envelope

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testTable() *Table {
	t := NewTable(Route{Domain: "legacy", Table: "records"})
	t.Add("finance", "transactions", "finance")
	t.Add("finance", "accounts", "finance")
	t.Add("public", "employees", "hr")
	return t
}

func envelopeValue(schema, table string, data map[string]any) map[string]any {
	return map[string]any{
		"data": data,
		"metadata": map[string]any{
			"schema-name": schema,
			"table-name":  table,
			"record-type": "data",
		},
	}
}

func TestRoute_ControlTableAlwaysDropped(t *testing.T) {
	table := testTable()

	for _, schema := range []string{"finance", "public", "whatever"} {
		routed, skip := table.Route(envelopeValue(schema, "awsdms_status", map[string]any{"x": 1}))

		assert.Nil(t, routed, "schema %s", schema)
		require.NotNil(t, skip)
		assert.Equal(t, SkipControlTable, skip.Reason)
	}
}

func TestRoute_AllowListedTable(t *testing.T) {
	table := testTable()

	routed, skip := table.Route(envelopeValue("finance", "transactions", map[string]any{"id": 1}))

	require.Nil(t, skip)
	require.NotNil(t, routed)
	assert.Equal(t, Route{Domain: "finance", Table: "transactions"}, routed.Route)
	assert.Equal(t, map[string]any{"id": 1}, routed.Row)
	assert.NotNil(t, routed.Meta)
}

func TestRoute_UnlistedTableDropped(t *testing.T) {
	table := testTable()

	routed, skip := table.Route(envelopeValue("finance", "unknown_table", map[string]any{"id": 1}))

	assert.Nil(t, routed)
	require.NotNil(t, skip)
	assert.Equal(t, SkipUnlisted, skip.Reason)
}

func TestRoute_CaseInsensitiveLookup(t *testing.T) {
	table := testTable()

	routed, skip := table.Route(envelopeValue("Finance", "TRANSACTIONS", map[string]any{"id": 1}))

	require.Nil(t, skip)
	require.NotNil(t, routed)
	assert.Equal(t, Route{Domain: "finance", Table: "transactions"}, routed.Route)
}

func TestRoute_NonDataRecordTypeDropped(t *testing.T) {
	table := testTable()

	v := envelopeValue("finance", "transactions", map[string]any{"id": 1})
	v["metadata"].(map[string]any)["record-type"] = "control"

	routed, skip := table.Route(v)

	assert.Nil(t, routed)
	require.NotNil(t, skip)
	assert.Equal(t, SkipRecordType, skip.Reason)
}

func TestRoute_BareMappingFallsBackToLegacy(t *testing.T) {
	table := testTable()

	routed, skip := table.Route(map[string]any{"id": 7, "name": "Ann"})

	require.Nil(t, skip)
	require.NotNil(t, routed)
	assert.Equal(t, Route{Domain: "legacy", Table: "records"}, routed.Route)
	assert.Nil(t, routed.Meta)
}

func TestRoute_NonMappingDropped(t *testing.T) {
	table := testTable()

	for _, v := range []any{"a string", float64(3), []any{1, 2}, true, nil} {
		routed, skip := table.Route(v)

		assert.Nil(t, routed)
		require.NotNil(t, skip)
		assert.Equal(t, SkipNotMapping, skip.Reason)
	}
}

func TestRoute_BadEnvelopeShapes(t *testing.T) {
	table := testTable()

	// metadata is not a mapping
	routed, skip := table.Route(map[string]any{"data": map[string]any{}, "metadata": "oops"})
	assert.Nil(t, routed)
	require.NotNil(t, skip)
	assert.Equal(t, SkipBadShape, skip.Reason)

	// data is not a mapping
	v := envelopeValue("finance", "transactions", nil)
	v["data"] = []any{1, 2}
	routed, skip = table.Route(v)
	assert.Nil(t, routed)
	require.NotNil(t, skip)
	assert.Equal(t, SkipBadShape, skip.Reason)
}

func TestTable_LoadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "routes.yaml")
	content := `routes:
  - schema: public
    table: employees
    domain: hr
  - schema: sales
    table: orders
    domain: sales
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	table := NewTable(Route{Domain: "legacy", Table: "records"})
	require.NoError(t, table.LoadFile(path))

	route, ok := table.Lookup("sales", "orders")
	require.True(t, ok)
	assert.Equal(t, Route{Domain: "sales", Table: "orders"}, route)
	assert.Equal(t, 2, table.Len())
}

func TestTable_LoadFileRejectsIncompleteEntries(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "routes.yaml")
	require.NoError(t, os.WriteFile(path, []byte("routes:\n  - schema: public\n"), 0o644))

	table := NewTable(Route{})
	assert.Error(t, table.LoadFile(path))
}
