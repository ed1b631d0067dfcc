// Package pgload bulk-loads trusted-zone NDJSON objects into Postgres for
// downstream relational analytics.
package pgload

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"path"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/smartstream-data/refinery/internal/envelope"
	"github.com/smartstream-data/refinery/internal/logging"
	"github.com/smartstream-data/refinery/internal/objectstore"
)

// Row is one trusted record staged for loading.
type Row struct {
	Route     string
	SourceKey string
	Record    []byte
}

// DecodeNDJSON splits one trusted object into rows. Every non-empty line
// must be a valid JSON document; trusted objects are produced by the
// pipeline, so an invalid line means the object is not a trusted file.
func DecodeNDJSON(route, sourceKey string, body []byte) ([]Row, error) {
	lines := strings.Split(string(body), "\n")
	rows := make([]Row, 0, len(lines))
	for i, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if !json.Valid([]byte(line)) {
			return nil, fmt.Errorf("%s: line %d is not valid JSON", sourceKey, i+1)
		}
		rows = append(rows, Row{
			Route:     route,
			SourceKey: sourceKey,
			Record:    []byte(line),
		})
	}
	return rows, nil
}

// Loader copies trusted NDJSON objects into a Postgres table.
type Loader struct {
	store  objectstore.Store
	pool   *pgxpool.Pool
	logger *logging.Logger
}

// New creates a Loader.
func New(store objectstore.Store, pool *pgxpool.Pool, logger *logging.Logger) *Loader {
	if logger == nil {
		logger = logging.Default()
	}
	return &Loader{store: store, pool: pool, logger: logger}
}

// LoadRoute reads every trusted object under a route's prefix and copies the
// records into targetTable (columns: route, source_key, record). Returns the
// number of rows copied.
func (l *Loader) LoadRoute(ctx context.Context, bucket, trustedPrefix string, route envelope.Route, targetTable string) (int64, error) {
	prefix := path.Join(trustedPrefix, route.Domain, route.Table) + "/"

	keys, err := l.store.List(ctx, bucket, prefix)
	if err != nil {
		return 0, fmt.Errorf("list trusted objects: %w", err)
	}
	if len(keys) == 0 {
		l.logger.Info("No trusted objects under prefix", slog.String("prefix", prefix))
		return 0, nil
	}

	var staged [][]any
	for _, key := range keys {
		body, err := l.store.Get(ctx, bucket, key)
		if err != nil {
			return 0, fmt.Errorf("read trusted object %s: %w", key, err)
		}
		rows, err := DecodeNDJSON(route.String(), key, body)
		if err != nil {
			return 0, err
		}
		for _, r := range rows {
			staged = append(staged, []any{r.Route, r.SourceKey, r.Record})
		}
	}

	if len(staged) == 0 {
		return 0, nil
	}

	copied, err := l.pool.CopyFrom(ctx,
		pgx.Identifier{targetTable},
		[]string{"route", "source_key", "record"},
		pgx.CopyFromRows(staged),
	)
	if err != nil {
		return 0, fmt.Errorf("copy into %s: %w", targetTable, err)
	}

	l.logger.Info("Loaded trusted records into Postgres",
		slog.String("route", route.String()),
		slog.String("table", targetTable),
		slog.Int64("rows", copied),
	)
	return copied, nil
}
