package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	namespace = "assetscan"
)

var (
	scanDurationBuckets = []float64{0.1, 0.25, 0.5, 1, 2, 5, 10, 30, 60, 120, 300, 600}

	// Scan metrics
	ScanDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "scan_duration_seconds",
		Help:      "Time taken for a full resource scan to complete.",
		Buckets:   scanDurationBuckets,
	})

	ScansTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "scans_total",
		Help:      "Count of scan executions.",
	}, []string{"status"})

	ScanLastSuccessTimestamp = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "scan_last_success_timestamp_seconds",
		Help:      "Unix timestamp of the last successful scan commit.",
	})

	// Evaluator metrics
	RuleEvaluationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "rule_evaluations_total",
		Help:      "Number of individual (resource, rule) evaluations performed.",
	}, []string{"status"})

	CurrentFindings = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "current_findings",
		Help:      "Findings in the current scan generation, by severity.",
	}, []string{"severity"})

	// Discovery metrics
	DiscoveredResources = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "discovered_resources",
		Help:      "Resources written by the last discovery run, by connector.",
	}, []string{"connector_kind", "connector_name"})
)

// Evaluation statuses recorded on RuleEvaluationsTotal.
const (
	EvalMatched = "matched"
	EvalNoMatch = "no_match"
	EvalSkipped = "skipped"
)
