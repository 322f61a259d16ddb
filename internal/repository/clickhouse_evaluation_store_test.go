package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"FinAudit/internal/domain/models"
	applogger "FinAudit/pkg/logger"
)

type execCall struct {
	query string
	args  []interface{}
}

type fakeExec struct {
	calls  []execCall
	failAt int
}

func (f *fakeExec) ExecContext(_ context.Context, query string, args ...interface{}) (sql.Result, error) {
	f.calls = append(f.calls, execCall{query: query, args: args})
	if f.failAt > 0 && len(f.calls) == f.failAt {
		return nil, errors.New("code: 241, memory limit exceeded")
	}
	return nil, nil
}

func sampleEvaluation() *models.Evaluation {
	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	return &models.Evaluation{
		ID:          "ev-1",
		Source:      models.SourceAPI,
		EvaluatedAt: at,
		Anomaly: models.AnomalyReport{
			Findings: []models.Finding{
				{ID: 0, Type: "High Expense Ratio", Severity: models.SeverityHigh, Category: "Expenses", Amount: decimal.RequireFromString("900"), Description: "a", DetectedAt: at},
				{ID: 4, Type: "Duplicate Payment Risk", Severity: models.SeverityLow, Category: "Payables", Amount: decimal.RequireFromString("600.5"), Description: "b", DetectedAt: at},
			},
			RiskScore:    22,
			RiskLevel:    models.RiskLevelLow,
			ExpenseRatio: decimal.RequireFromString("0.9"),
			Distribution: models.SeverityDistribution{High: 1, Low: 1},
		},
		Tax: models.TaxComplianceReport{
			VatCollected:   decimal.RequireFromString("150000"),
			VatInputCredit: decimal.RequireFromString("18000"),
			VatNetPayable:  decimal.RequireFromString("132000"),
			TotalTds:       decimal.RequireFromString("14500"),
		},
	}
}

func newTestStore(ex execer) *CHEvaluationStore {
	return &CHEvaluationStore{
		exec:        ex,
		database:    "finaudit",
		evaluations: "finaudit.evaluations",
		findings:    "finaudit.evaluation_findings",
		l:           applogger.NewNop(),
	}
}

func TestEvaluationSchema(t *testing.T) {
	stmts := EvaluationSchema("audit")
	require.Len(t, stmts, 3)
	assert.Equal(t, "CREATE DATABASE IF NOT EXISTS audit", stmts[0])
	assert.Contains(t, stmts[1], "audit.evaluations")
	assert.Contains(t, stmts[2], "audit.evaluation_findings")
}

func TestCHEvaluationStore_Save(t *testing.T) {
	ex := &fakeExec{}
	s := newTestStore(ex)

	require.NoError(t, s.Save(context.Background(), sampleEvaluation()))
	require.Len(t, ex.calls, 2)

	row := ex.calls[0]
	assert.Contains(t, row.query, "INSERT INTO finaudit.evaluations")
	require.Len(t, row.args, 12)
	assert.Equal(t, "ev-1", row.args[0])
	assert.Equal(t, uint8(22), row.args[3])
	assert.Equal(t, "Low Risk", row.args[4])
	assert.Equal(t, uint16(2), row.args[5])
	assert.Equal(t, "0.9000", row.args[7])
	assert.Equal(t, "132000.0000", row.args[10])

	findings := ex.calls[1]
	assert.Contains(t, findings.query, "INSERT INTO finaudit.evaluation_findings")
	assert.Equal(t, 2, strings.Count(findings.query, "(?, ?, ?, ?, ?, ?, ?, ?)"))
	require.Len(t, findings.args, 16)
	assert.Equal(t, uint16(4), findings.args[10])
	assert.Equal(t, "600.5000", findings.args[14])
}

func TestCHEvaluationStore_SaveWithoutFindings(t *testing.T) {
	ex := &fakeExec{}
	s := newTestStore(ex)

	e := sampleEvaluation()
	e.Anomaly.Findings = nil
	require.NoError(t, s.Save(context.Background(), e))
	assert.Len(t, ex.calls, 1)
}

func TestCHEvaluationStore_SaveErrors(t *testing.T) {
	ex := &fakeExec{failAt: 2}
	s := newTestStore(ex)

	err := s.Save(context.Background(), sampleEvaluation())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "insert findings")
}

type fakePublisher struct {
	topic string
	key   []byte
	value interface{}
}

func (f *fakePublisher) Publish(_ context.Context, topic string, key []byte, value interface{}) error {
	f.topic, f.key, f.value = topic, key, value
	return nil
}

func (f *fakePublisher) Close() error { return nil }

func TestKafkaEvaluationPublisher_KeysByID(t *testing.T) {
	fp := &fakePublisher{}
	p := &KafkaEvaluationPublisher{producer: fp, topic: "finaudit.evaluations"}

	e := sampleEvaluation()
	require.NoError(t, p.Publish(context.Background(), e))
	assert.Equal(t, "finaudit.evaluations", fp.topic)
	assert.Equal(t, []byte("ev-1"), fp.key)
	assert.Same(t, e, fp.value)
}
