package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"FinAudit/internal/domain/models"
)

// Recorder implements domain.repository.Metrics using Prometheus.
type Recorder struct {
	evaluations *prometheus.CounterVec
	findings    *prometheus.CounterVec
	riskScore   *prometheus.GaugeVec
	riskHist    prometheus.Histogram
	errorsTotal *prometheus.CounterVec
	latency     *prometheus.HistogramVec
}

// New registers the recorder's collectors on reg. A nil reg uses the default registerer.
func New(reg prometheus.Registerer) *Recorder {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	f := promauto.With(reg)
	return &Recorder{
		evaluations: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "finaudit_evaluations_total",
				Help: "Total number of evaluation runs",
			},
			[]string{"source", "ok"},
		),
		findings: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "finaudit_findings_total",
				Help: "Total number of anomaly findings emitted",
			},
			[]string{"severity", "category"},
		),
		riskScore: f.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "finaudit_last_risk_score",
				Help: "Risk score of the last evaluation per source",
			},
			[]string{"source"},
		),
		riskHist: f.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "finaudit_risk_score",
				Help:    "Distribution of evaluation risk scores",
				Buckets: []float64{2, 10, 20, 30, 40, 50, 60, 70, 80, 90, 100},
			},
		),
		errorsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "finaudit_errors_total",
				Help: "Total number of errors encountered",
			},
			[]string{"type"},
		),
		latency: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "finaudit_operation_duration_seconds",
				Help:    "Duration of operations in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
	}
}

// RecordEvaluation counts an evaluation run.
func (r *Recorder) RecordEvaluation(source string, ok bool) {
	r.evaluations.WithLabelValues(source, strconv.FormatBool(ok)).Inc()
}

// RecordFinding counts one finding.
func (r *Recorder) RecordFinding(severity models.Severity, category string) {
	r.findings.WithLabelValues(string(severity), category).Inc()
}

// RecordRiskScore records the latest score for a source.
func (r *Recorder) RecordRiskScore(source string, score int) {
	r.riskScore.WithLabelValues(source).Set(float64(score))
	r.riskHist.Observe(float64(score))
}

// RecordError records an error occurrence.
func (r *Recorder) RecordError(kind string) {
	r.errorsTotal.WithLabelValues(kind).Inc()
}

// RecordLatency records operation latency in seconds.
func (r *Recorder) RecordLatency(op string, seconds float64) {
	r.latency.WithLabelValues(op).Observe(seconds)
}
