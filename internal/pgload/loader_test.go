package pgload

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeNDJSON(t *testing.T) {
	body := []byte(`{"id":1,"name":"Ann"}` + "\n" + `{"id":2,"name":"Bo"}` + "\n")

	rows, err := DecodeNDJSON("hr/employees", "data/trusted/hr/employees/a.json", body)

	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "hr/employees", rows[0].Route)
	assert.Equal(t, "data/trusted/hr/employees/a.json", rows[0].SourceKey)
	assert.JSONEq(t, `{"id":1,"name":"Ann"}`, string(rows[0].Record))
	assert.JSONEq(t, `{"id":2,"name":"Bo"}`, string(rows[1].Record))
}

func TestDecodeNDJSON_SkipsBlankLines(t *testing.T) {
	body := []byte("\n" + `{"id":1}` + "\n\n")

	rows, err := DecodeNDJSON("r", "k", body)

	require.NoError(t, err)
	assert.Len(t, rows, 1)
}

func TestDecodeNDJSON_RejectsInvalidLine(t *testing.T) {
	body := []byte(`{"id":1}` + "\n" + `{"id":`)

	_, err := DecodeNDJSON("r", "k", body)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "line 2")
}

func TestDecodeNDJSON_EmptyBody(t *testing.T) {
	rows, err := DecodeNDJSON("r", "k", nil)

	require.NoError(t, err)
	assert.Empty(t, rows)
}
