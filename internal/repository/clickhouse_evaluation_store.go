package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"FinAudit/internal/domain/models"
	domrepo "FinAudit/internal/domain/repository"
	pkgch "FinAudit/pkg/clickhouse"
	applogger "FinAudit/pkg/logger"
)

// EvaluationSchema returns the DDL for the evaluation store in database.
func EvaluationSchema(database string) []string {
	return []string{
		fmt.Sprintf("CREATE DATABASE IF NOT EXISTS %s", database),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s.evaluations (
			id               String,
			source           LowCardinality(String),
			evaluated_at     DateTime64(3, 'UTC'),
			risk_score       UInt8,
			risk_level       LowCardinality(String),
			findings_count   UInt16,
			critical_count   UInt16,
			expense_ratio    Decimal(18, 4),
			vat_collected    Decimal(18, 4),
			vat_input_credit Decimal(18, 4),
			vat_net_payable  Decimal(18, 4),
			total_tds        Decimal(18, 4)
		) ENGINE = MergeTree
		ORDER BY (evaluated_at, id)`, database),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s.evaluation_findings (
			evaluation_id String,
			evaluated_at  DateTime64(3, 'UTC'),
			finding_id    UInt16,
			type          LowCardinality(String),
			severity      LowCardinality(String),
			category      LowCardinality(String),
			amount        Decimal(18, 4),
			description   String
		) ENGINE = MergeTree
		ORDER BY (evaluated_at, evaluation_id, finding_id)`, database),
	}
}

// execer is the write side of *sql.DB.
type execer interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
}

// CHEvaluationStore implements EvaluationStore backed by ClickHouse.
type CHEvaluationStore struct {
	client      *pkgch.Client
	db          *sql.DB
	exec        execer
	database    string
	evaluations string
	findings    string
	l           *applogger.Logger
}

// NewCHEvaluationStore stores into database.evaluations and database.evaluation_findings.
func NewCHEvaluationStore(ch *pkgch.Client, database string, l *applogger.Logger) *CHEvaluationStore {
	if l == nil {
		l = applogger.NewNop()
	}
	return &CHEvaluationStore{
		client:      ch,
		db:          ch.DB(),
		exec:        ch.DB(),
		database:    database,
		evaluations: database + ".evaluations",
		findings:    database + ".evaluation_findings",
		l:           l,
	}
}

func (s *CHEvaluationStore) Init(ctx context.Context) error {
	return s.client.InitSchema(ctx, EvaluationSchema(s.database))
}

// decimalArg renders an amount at the column scale. ClickHouse parses the
// string into Decimal(18,4) without going through float.
func decimalArg(d decimal.Decimal) string {
	return d.StringFixed(4)
}

// Save inserts the evaluation row and its findings.
func (s *CHEvaluationStore) Save(ctx context.Context, e *models.Evaluation) error {
	start := time.Now()
	sum := e.Summary()
	q := fmt.Sprintf(`INSERT INTO %s (id, source, evaluated_at, risk_score, risk_level, findings_count, critical_count,
		expense_ratio, vat_collected, vat_input_credit, vat_net_payable, total_tds) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`, s.evaluations)
	if _, err := s.exec.ExecContext(ctx, q,
		e.ID,
		e.Source,
		e.EvaluatedAt.UTC(),
		uint8(sum.RiskScore),
		string(sum.RiskLevel),
		uint16(sum.FindingsCount),
		uint16(sum.Critical),
		decimalArg(e.Anomaly.ExpenseRatio),
		decimalArg(e.Tax.VatCollected),
		decimalArg(e.Tax.VatInputCredit),
		decimalArg(e.Tax.VatNetPayable),
		decimalArg(e.Tax.TotalTds),
	); err != nil {
		s.l.Error("clickhouse save evaluation error", applogger.String("id", e.ID), applogger.Error(err))
		return fmt.Errorf("insert evaluation: %w", err)
	}

	if q, args := findingsInsert(s.findings, e); q != "" {
		if _, err := s.exec.ExecContext(ctx, q, args...); err != nil {
			s.l.Error("clickhouse save findings error", applogger.String("id", e.ID), applogger.Error(err))
			return fmt.Errorf("insert findings: %w", err)
		}
	}

	s.l.Debug("evaluation stored",
		applogger.String("id", e.ID),
		applogger.Int("findings", len(e.Anomaly.Findings)),
		applogger.Duration("duration_ms", time.Since(start)),
	)
	return nil
}

// findingsInsert builds one multi-row insert for all findings.
func findingsInsert(table string, e *models.Evaluation) (string, []interface{}) {
	if len(e.Anomaly.Findings) == 0 {
		return "", nil
	}
	values := make([]string, 0, len(e.Anomaly.Findings))
	args := make([]interface{}, 0, len(e.Anomaly.Findings)*8)
	for _, f := range e.Anomaly.Findings {
		values = append(values, "(?, ?, ?, ?, ?, ?, ?, ?)")
		args = append(args,
			e.ID,
			e.EvaluatedAt.UTC(),
			uint16(f.ID),
			f.Type,
			string(f.Severity),
			f.Category,
			decimalArg(f.Amount),
			f.Description,
		)
	}
	q := fmt.Sprintf("INSERT INTO %s (evaluation_id, evaluated_at, finding_id, type, severity, category, amount, description) VALUES %s",
		table, strings.Join(values, ","))
	return q, args
}

// Latest returns the most recent evaluation summaries, newest first.
func (s *CHEvaluationStore) Latest(ctx context.Context, limit int) ([]models.EvaluationSummary, error) {
	q := fmt.Sprintf(`SELECT id, source, evaluated_at, risk_score, risk_level, findings_count, critical_count,
		toString(vat_net_payable), toString(total_tds)
		FROM %s ORDER BY evaluated_at DESC LIMIT ?`, s.evaluations)
	rows, err := s.db.QueryContext(ctx, q, limit)
	if err != nil {
		s.l.Error("clickhouse latest query error", applogger.Error(err))
		return nil, fmt.Errorf("latest evaluations: %w", err)
	}
	defer rows.Close()

	out := make([]models.EvaluationSummary, 0, limit)
	for rows.Next() {
		var (
			sum              models.EvaluationSummary
			riskScore        uint8
			riskLevel        string
			findings, crit   uint16
			vatNet, totalTds string
		)
		if err := rows.Scan(&sum.ID, &sum.Source, &sum.EvaluatedAt, &riskScore, &riskLevel, &findings, &crit, &vatNet, &totalTds); err != nil {
			return nil, fmt.Errorf("scan evaluation: %w", err)
		}
		sum.RiskScore = int(riskScore)
		sum.RiskLevel = models.RiskLevel(riskLevel)
		sum.FindingsCount = int(findings)
		sum.Critical = int(crit)
		if sum.VatNetPayable, err = decimal.NewFromString(vatNet); err != nil {
			return nil, fmt.Errorf("parse vat_net_payable: %w", err)
		}
		if sum.TotalTds, err = decimal.NewFromString(totalTds); err != nil {
			return nil, fmt.Errorf("parse total_tds: %w", err)
		}
		out = append(out, sum)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}
	return out, nil
}

func (s *CHEvaluationStore) Health(ctx context.Context) error {
	return s.client.Health(ctx)
}

// Close is a no-op; the pool is owned by the clickhouse client.
func (s *CHEvaluationStore) Close() error {
	return nil
}

var _ domrepo.EvaluationStore = (*CHEvaluationStore)(nil)
