package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"

	"FinAudit/internal/domain/models"
)

func TestRecorder(t *testing.T) {
	r := New(prometheus.NewRegistry())

	r.RecordEvaluation("api", true)
	r.RecordEvaluation("api", true)
	r.RecordEvaluation("kafka", false)
	r.RecordFinding(models.SeverityCritical, "AR")
	r.RecordRiskScore("api", 50)
	r.RecordError("store")

	assert.Equal(t, 2.0, testutil.ToFloat64(r.evaluations.WithLabelValues("api", "true")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.evaluations.WithLabelValues("kafka", "false")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.findings.WithLabelValues("critical", "AR")))
	assert.Equal(t, 50.0, testutil.ToFloat64(r.riskScore.WithLabelValues("api")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.errorsTotal.WithLabelValues("store")))
}
