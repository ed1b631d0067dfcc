package blob

import (
	"bytes"
	"testing"

	"github.com/klauspost/compress/gzip"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecode_PlainPassthrough(t *testing.T) {
	text, err := Decode("data/raw/x.json", []byte(`{"a": 1}`))

	require.NoError(t, err)
	assert.Equal(t, `{"a": 1}`, text)
}

func TestDecode_Gzip(t *testing.T) {
	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	_, err := zw.Write([]byte(`{"a": 1}`))
	require.NoError(t, err)
	require.NoError(t, zw.Close())

	text, err := Decode("data/raw/x.json.gz", buf.Bytes())

	require.NoError(t, err)
	assert.Equal(t, `{"a": 1}`, text)
}

func TestDecode_CorruptGzip(t *testing.T) {
	_, err := Decode("data/raw/x.json.gz", []byte("definitely not gzip"))

	assert.Error(t, err)
}

func TestIsCompressed(t *testing.T) {
	assert.True(t, IsCompressed("a/b.json.gz"))
	assert.True(t, IsCompressed("a/b.gzip"))
	assert.False(t, IsCompressed("a/b.json"))
}
