package repository

import (
	"context"

	"FinAudit/internal/domain/models"
)

// EvaluationStore persists evaluation runs for later listing and analysis.
type EvaluationStore interface {
	Init(ctx context.Context) error
	Save(ctx context.Context, e *models.Evaluation) error
	Latest(ctx context.Context, limit int) ([]models.EvaluationSummary, error)
	Health(ctx context.Context) error
	Close() error
}

// EvaluationPublisher fans evaluation runs out to downstream consumers.
type EvaluationPublisher interface {
	Publish(ctx context.Context, e *models.Evaluation) error
	Close() error
}

// Broadcaster pushes evaluations to live subscribers.
type Broadcaster interface {
	Broadcast(e *models.Evaluation)
}

type Metrics interface {
	RecordEvaluation(source string, ok bool)
	RecordFinding(severity models.Severity, category string)
	RecordRiskScore(source string, score int)
	RecordError(kind string)
	RecordLatency(op string, seconds float64)
}
