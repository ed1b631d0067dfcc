// Package keygen derives deterministic trusted-zone object keys.
package keygen

import (
	"path"
	"strings"

	"github.com/smartstream-data/refinery/internal/envelope"
)

var compressionSuffixes = []string{".gz", ".gzip"}

// Generate derives the output key for a route from the source key:
//
//	<trustedRoot>/<domain>/<table>/<source key with rawRoot stripped and
//	compression suffix removed>.json
//
// It is a pure function: the same (source key, route) always yields the same
// key, so retries overwrite instead of accumulating, and route segments keep
// outputs for different routes from colliding.
func Generate(trustedRoot, rawRoot, sourceKey string, route envelope.Route) string {
	rel := strings.TrimPrefix(sourceKey, rawRoot)
	rel = strings.TrimPrefix(rel, "/")

	for _, suffix := range compressionSuffixes {
		if strings.HasSuffix(rel, suffix) {
			rel = strings.TrimSuffix(rel, suffix)
			break
		}
	}

	if !strings.HasSuffix(rel, ".json") {
		rel += ".json"
	}

	return path.Join(trustedRoot, route.Domain, route.Table, rel)
}
