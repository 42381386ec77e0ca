// Package metrics registers the Prometheus instruments shared by the API
// server and the backfill commands.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RowsUpserted counts metric/order rows written, by entity.
	RowsUpserted = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "analytics_rows_upserted_total",
		Help: "Rows upserted into the analytics schema",
	}, []string{"entity"})

	// ReportPolls counts report status checks, by provider.
	ReportPolls = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "analytics_report_polls_total",
		Help: "Async report status checks issued",
	}, []string{"provider"})

	// RateLimited counts 429 responses, by provider.
	RateLimited = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "analytics_rate_limited_total",
		Help: "HTTP 429 responses received from providers",
	}, []string{"provider"})

	// IngestErrors counts per-item ingestion failures, by pipeline.
	IngestErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "analytics_ingest_errors_total",
		Help: "Per-item ingestion failures",
	}, []string{"pipeline"})
)
