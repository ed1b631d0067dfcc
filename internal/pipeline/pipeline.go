// Package pipeline runs the raw-to-trusted transform for each notified
// object: decode, parse, route, normalize, deduplicate, write.
package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/smartstream-data/refinery/internal/blob"
	"github.com/smartstream-data/refinery/internal/dedup"
	"github.com/smartstream-data/refinery/internal/envelope"
	"github.com/smartstream-data/refinery/internal/jsonstream"
	"github.com/smartstream-data/refinery/internal/keygen"
	"github.com/smartstream-data/refinery/internal/logging"
	"github.com/smartstream-data/refinery/internal/metrics"
	"github.com/smartstream-data/refinery/internal/normalize"
	"github.com/smartstream-data/refinery/internal/notify"
	"github.com/smartstream-data/refinery/internal/objectstore"
	"github.com/smartstream-data/refinery/internal/routestats"
)

// ingestTimestampField is excluded from dedup hashing when enrichment is on,
// because it differs on every run even for otherwise identical records.
const ingestTimestampField = "ingest_timestamp"

// Config holds the pipeline's zone layout and processing options.
type Config struct {
	// Bucket is the data-lake bucket holding both zones.
	Bucket string

	// RawPrefix is the raw zone root; only keys under it are processed.
	RawPrefix string

	// TrustedPrefix is the trusted zone root for generated output keys.
	TrustedPrefix string

	// Workers bounds concurrent per-object runs within one batch.
	Workers int

	// EnrichMetadata promotes envelope metadata (operation, timestamps,
	// schema/table names, transaction id) onto routed records.
	EnrichMetadata bool
}

// Pipeline transforms raw objects into trusted route files. Each run is
// self-contained: no state survives across invocations except the writes.
type Pipeline struct {
	cfg    Config
	store  objectstore.Store
	routes *envelope.Table
	logger *logging.Logger
	stats  *routestats.Collector
}

// New assembles a pipeline. stats may be nil when route stats are disabled.
func New(cfg Config, store objectstore.Store, routes *envelope.Table, logger *logging.Logger, stats *routestats.Collector) *Pipeline {
	if cfg.Workers <= 0 {
		cfg.Workers = 4
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Pipeline{
		cfg:    cfg,
		store:  store,
		routes: routes,
		logger: logger,
		stats:  stats,
	}
}

// Result is the structured completion status for one notification batch.
type Result struct {
	InvocationID string `json:"invocation_id"`
	Objects      int    `json:"objects"`
	Written      int    `json:"written_routes"`
	Skipped      int    `json:"skipped_objects"`
	Failed       int    `json:"failed_objects"`
	Message      string `json:"message"`
}

// ProcessBatch runs the pipeline for every notification in the batch.
// Distinct objects are processed concurrently; they share no mutable state.
// Keys outside the raw root are skipped silently, and a failing object is
// logged and counted rather than aborting the batch.
func (p *Pipeline) ProcessBatch(ctx context.Context, notifs []notify.Notification) Result {
	invocationID := uuid.New().String()
	logger := p.logger.With(slog.String("invocation_id", invocationID))

	var written, skipped, failed atomic.Int64

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.cfg.Workers)

	for _, n := range notifs {
		if !strings.HasPrefix(n.Key, p.cfg.RawPrefix) {
			logger.Debug("Skipping key outside raw zone", slog.String("key", n.Key))
			skipped.Add(1)
			continue
		}

		g.Go(func() error {
			octx := logging.WithObjectKey(gctx, n.Key)
			routesWritten, err := p.ProcessObject(octx, n.Bucket, n.Key)
			written.Add(int64(routesWritten))
			if err != nil {
				failed.Add(1)
				metrics.ObjectsTotal.WithLabelValues("failed").Inc()
				logger.ErrorContext(octx, "Object processing failed", slog.String("error", err.Error()))
				return nil
			}
			metrics.ObjectsTotal.WithLabelValues("ok").Inc()
			return nil
		})
	}

	_ = g.Wait()

	res := Result{
		InvocationID: invocationID,
		Objects:      len(notifs),
		Written:      int(written.Load()),
		Skipped:      int(skipped.Load()),
		Failed:       int(failed.Load()),
	}
	res.Message = fmt.Sprintf("processed %d notifications: %d route files written, %d objects skipped, %d failed",
		res.Objects, res.Written, res.Skipped, res.Failed)

	logger.Info("Batch complete",
		slog.Int("objects", res.Objects),
		slog.Int("written_routes", res.Written),
		slog.Int("skipped_objects", res.Skipped),
		slog.Int("failed_objects", res.Failed),
	)
	return res
}

// ProcessObject runs the full transform for one raw object and returns how
// many route files were written. Routing and dedup complete for every route
// before any write starts; a failed route write does not stop the others,
// but is reported so the invoking platform can redeliver.
func (p *Pipeline) ProcessObject(ctx context.Context, bucket, key string) (int, error) {
	start := time.Now()
	defer func() {
		metrics.ObjectDuration.Observe(time.Since(start).Seconds())
	}()

	raw, err := p.store.Get(ctx, bucket, key)
	if err != nil {
		return 0, fmt.Errorf("read raw object: %w", err)
	}

	body, err := blob.Decode(key, raw)
	if err != nil {
		return 0, fmt.Errorf("decode raw object: %w", err)
	}

	values, tailErr := jsonstream.Decode(body)
	if tailErr != nil {
		metrics.TruncatedPayloadsTotal.Inc()
		p.logger.WarnContext(ctx, "Malformed payload tail truncated",
			slog.Int64("offset", tailErr.Offset),
			slog.Int("values_kept", len(values)),
			slog.String("error", tailErr.Err.Error()),
		)
	}
	metrics.ValuesParsedTotal.Add(float64(len(values)))

	batches, order := p.routeValues(ctx, values)

	if len(order) == 0 {
		p.logger.InfoContext(ctx, "No trusted records produced; skipping write")
		return 0, nil
	}

	written := 0
	var writeErrs []error

	// With enrichment off, records carry source data only and dedup compares
	// exact content. A source column that happens to be named like the
	// enrichment field must still distinguish records.
	var ignore []string
	if p.cfg.EnrichMetadata {
		ignore = append(ignore, ingestTimestampField)
	}

	for _, route := range order {
		records := dedup.Records(batches[route], ignore...)
		if removed := len(batches[route]) - len(records); removed > 0 {
			metrics.DuplicatesRemovedTotal.Add(float64(removed))
		}

		outKey := keygen.Generate(p.cfg.TrustedPrefix, p.cfg.RawPrefix, key, route)
		body, err := encodeNDJSON(records)
		if err != nil {
			writeErrs = append(writeErrs, fmt.Errorf("encode route %s: %w", route, err))
			continue
		}

		if err := p.store.Put(ctx, bucket, outKey, body); err != nil {
			metrics.WriteErrorsTotal.Inc()
			p.logger.ErrorContext(ctx, "Route write failed",
				slog.String("route", route.String()),
				slog.String("out_key", outKey),
				slog.String("error", err.Error()),
			)
			writeErrs = append(writeErrs, fmt.Errorf("write route %s: %w", route, err))
			continue
		}

		written++
		metrics.RoutesWrittenTotal.Inc()
		if p.stats != nil {
			p.stats.Record(route.String(), len(records))
		}
		p.logger.InfoContext(ctx, "Wrote trusted route file",
			slog.String("route", route.String()),
			slog.String("out_key", outKey),
			slog.Int("records", len(records)),
		)
	}

	return written, errors.Join(writeErrs...)
}

// routeValues assigns each decoded value to a route batch. It returns the
// batches and the routes in first-seen order.
func (p *Pipeline) routeValues(ctx context.Context, values []any) (map[envelope.Route][]map[string]any, []envelope.Route) {
	batches := make(map[envelope.Route][]map[string]any)
	var order []envelope.Route
	ingestTime := time.Now().UTC()

	for _, v := range values {
		routed, skip := p.routes.Route(v)
		if skip != nil {
			metrics.RecordsDroppedTotal.WithLabelValues(skip.Reason).Inc()
			if skip.Reason == envelope.SkipNotMapping || skip.Reason == envelope.SkipBadShape {
				p.logger.WarnContext(ctx, "Dropping malformed value",
					slog.String("reason", skip.Reason),
					slog.String("detail", skip.Detail),
				)
			}
			continue
		}

		record, warnings := normalize.Record(routed.Row)
		for _, w := range warnings {
			p.logger.WarnContext(ctx, "Timestamp left unnormalized",
				slog.String("field", w.Field),
				slog.String("error", w.Err.Error()),
			)
		}
		if record == nil {
			metrics.RecordsDroppedTotal.WithLabelValues("empty_record").Inc()
			continue
		}

		if p.cfg.EnrichMetadata && routed.Meta != nil {
			enrichRecord(record, routed.Meta, ingestTime)
		}

		if _, seen := batches[routed.Route]; !seen {
			order = append(order, routed.Route)
		}
		batches[routed.Route] = append(batches[routed.Route], record)
		metrics.RecordsRoutedTotal.WithLabelValues(routed.Route.String()).Inc()
	}

	return batches, order
}

// enrichRecord promotes envelope metadata onto a routed record.
func enrichRecord(record, meta map[string]any, ingestTime time.Time) {
	promote := map[string]string{
		"operation":      "op_type",
		"timestamp":      "source_timestamp",
		"schema-name":    "schema_name",
		"table-name":     "table_name",
		"transaction-id": "transaction_id",
	}
	for src, dst := range promote {
		if v, ok := meta[src]; ok && v != nil {
			record[dst] = v
		}
	}
	record[ingestTimestampField] = ingestTime.Format(time.RFC3339)
}

// encodeNDJSON serializes records as newline-delimited JSON, one compact
// object per line, preserving record order.
func encodeNDJSON(records []map[string]any) ([]byte, error) {
	var buf []byte
	for i, rec := range records {
		line, err := json.Marshal(rec)
		if err != nil {
			return nil, err
		}
		if i > 0 {
			buf = append(buf, '\n')
		}
		buf = append(buf, line...)
	}
	return buf, nil
}
