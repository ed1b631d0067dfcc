// Package blob decodes raw object bytes into a text payload.
package blob

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/klauspost/compress/gzip"
)

// IsCompressed reports whether the object key carries a gzip suffix.
func IsCompressed(key string) bool {
	return strings.HasSuffix(key, ".gz") || strings.HasSuffix(key, ".gzip")
}

// Decode converts a raw object's bytes into UTF-8 text, gunzipping first
// when the key marks the object as compressed.
func Decode(key string, data []byte) (string, error) {
	if !IsCompressed(key) {
		return string(data), nil
	}

	zr, err := gzip.NewReader(bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("open gzip stream: %w", err)
	}
	defer zr.Close()

	text, err := io.ReadAll(zr)
	if err != nil {
		return "", fmt.Errorf("decompress payload: %w", err)
	}
	return string(text), nil
}
