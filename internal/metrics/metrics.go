package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Object-level metrics
	ObjectsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "refinery_objects_total",
			Help: "Total number of raw objects handled",
		},
		[]string{"status"},
	)

	ObjectDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "refinery_object_duration_seconds",
			Help:    "Duration of one raw object's pipeline run in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	// Parser metrics
	ValuesParsedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "refinery_json_values_parsed_total",
			Help: "Total number of JSON values decoded from raw payloads",
		},
	)

	TruncatedPayloadsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "refinery_truncated_payloads_total",
			Help: "Total number of payloads with a malformed tail",
		},
	)

	// Routing metrics
	RecordsRoutedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "refinery_records_routed_total",
			Help: "Total number of records assigned to a route",
		},
		[]string{"route"},
	)

	RecordsDroppedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "refinery_records_dropped_total",
			Help: "Total number of records dropped before writing",
		},
		[]string{"reason"},
	)

	DuplicatesRemovedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "refinery_duplicates_removed_total",
			Help: "Total number of in-batch duplicate records removed",
		},
	)

	// Writer metrics
	RoutesWrittenTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "refinery_routes_written_total",
			Help: "Total number of trusted route files written",
		},
	)

	WriteErrorsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "refinery_write_errors_total",
			Help: "Total number of trusted zone write failures",
		},
	)
)
