package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var TotalRequests = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "datahub_http_requests_total",
		Help: "Number of http requests.",
	},
	[]string{"path", "code", "method"},
)

var HttpDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Name: "datahub_http_request_duration_seconds_histogram",
		Buckets: []float64{
			0.1, // 100 ms
			0.2,
			0.25,
			0.5,
			1,
			1.5,
			3,
			5,
			10,
		},
	},
	[]string{"path", "code", "method"},
)

var ImportJobsFinished = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "datahub_import_jobs_finished_total",
		Help: "Import jobs by entity type and final status.",
	},
	[]string{"entity_type", "status"},
)

var ImportedRows = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "datahub_imported_rows_total",
		Help: "Import rows by entity type and outcome (created, updated, error).",
	},
	[]string{"entity_type", "outcome"},
)

var ExportJobsFinished = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "datahub_export_jobs_finished_total",
		Help: "Export jobs by entity type, format and final status.",
	},
	[]string{"entity_type", "format", "status"},
)

var DuplicateDetectionDuration = prometheus.NewHistogramVec(
	prometheus.HistogramOpts{
		Name:    "datahub_duplicate_detection_duration_seconds",
		Help:    "Duration of duplicate detection runs.",
		Buckets: []float64{1, 5, 15, 30, 60, 120, 300, 600},
	},
	[]string{"entity_type"},
)

var DuplicatePairsFound = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "datahub_duplicate_pairs_found_total",
		Help: "Duplicate pairs stored by detection runs.",
	},
	[]string{"entity_type"},
)

var RecordsMerged = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "datahub_records_merged_total",
		Help: "Number of merged duplicate pairs.",
	},
	[]string{"entity_type"},
)

var ArchiveOperations = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "datahub_archive_operations_total",
		Help: "Archive operations by entity type and operation (archive, restore, delete, purge).",
	},
	[]string{"entity_type", "operation"},
)

var GdprRequestsProcessed = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "datahub_gdpr_actions_total",
		Help: "GDPR request actions by request type and action.",
	},
	[]string{"request_type", "action"},
)

func RegisterAllPrometheusApplicationMetrics() {
	prometheus.Register(TotalRequests)
	prometheus.Register(ImportJobsFinished)
	prometheus.Register(ImportedRows)
	prometheus.Register(ExportJobsFinished)
	prometheus.Register(DuplicateDetectionDuration)
	prometheus.Register(DuplicatePairsFound)
	prometheus.Register(RecordsMerged)
	prometheus.Register(ArchiveOperations)
	prometheus.Register(GdprRequestsProcessed)
}
