// Package jsonstream splits ambiguous raw payload blobs into discrete JSON
// values. Replication systems concatenate values with newlines, arbitrary
// whitespace, or nothing at all, and sometimes wrap them in a single array,
// so a plain one-document parse of this input class either fails or silently
// drops data.
package jsonstream

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
)

// TailError reports a malformed region near the end of a payload. Values
// decoded before Offset are still valid; callers should log and keep them.
type TailError struct {
	Offset int64
	Err    error
}

func (e *TailError) Error() string {
	return fmt.Sprintf("malformed JSON near byte %d: %v", e.Offset, e.Err)
}

func (e *TailError) Unwrap() error {
	return e.Err
}

// Decode scans body left to right and returns every top-level JSON value it
// contains, in input order. A top-level array is flattened one level so that
// each element routes independently. Numbers are decoded as json.Number so
// integer row values survive a round trip unchanged.
//
// Empty or whitespace-only input yields an empty, non-error result. A decode
// failure at a non-whitespace position stops the scan and returns everything
// decoded so far together with a TailError; it never discards valid values.
func Decode(body string) ([]any, *TailError) {
	values := []any{}

	dec := json.NewDecoder(strings.NewReader(body))
	dec.UseNumber()

	for {
		var v any
		err := dec.Decode(&v)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return values, &TailError{Offset: dec.InputOffset(), Err: err}
		}

		if arr, ok := v.([]any); ok {
			values = append(values, arr...)
			continue
		}
		values = append(values, v)
	}

	return values, nil
}
