// Package dedup removes exact-content duplicate records within one
// processing batch. Suppression is only guaranteed within a single processed
// object; duplicates spanning two source objects are not caught here.
package dedup

import (
	"encoding/json"

	"github.com/cespare/xxhash/v2"
)

// Hash computes a stable content hash for a record. encoding/json marshals
// map keys in sorted order, so field insertion order never affects the hash.
// Fields named in ignore are excluded from the hash.
func Hash(rec map[string]any, ignore ...string) (uint64, error) {
	if len(ignore) > 0 {
		trimmed := make(map[string]any, len(rec))
		for k, v := range rec {
			trimmed[k] = v
		}
		for _, k := range ignore {
			delete(trimmed, k)
		}
		rec = trimmed
	}

	b, err := json.Marshal(rec)
	if err != nil {
		return 0, err
	}
	return xxhash.Sum64(b), nil
}

// Records retains the first record observed for each distinct content hash,
// preserving relative input order among retained records. A record whose
// hash cannot be computed is kept rather than risk dropping live data.
func Records(recs []map[string]any, ignore ...string) []map[string]any {
	if len(recs) < 2 {
		return recs
	}

	seen := make(map[uint64]struct{}, len(recs))
	out := make([]map[string]any, 0, len(recs))
	for _, rec := range recs {
		h, err := Hash(rec, ignore...)
		if err != nil {
			out = append(out, rec)
			continue
		}
		if _, dup := seen[h]; dup {
			continue
		}
		seen[h] = struct{}{}
		out = append(out, rec)
	}
	return out
}
