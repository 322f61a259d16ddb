package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"FinAudit/internal/domain/models"
	domrepo "FinAudit/internal/domain/repository"
	pkgkafka "FinAudit/pkg/kafka"
	applogger "FinAudit/pkg/logger"
)

// SnapshotHandler consumes EvaluationInput messages and evaluates them.
type SnapshotHandler struct {
	topic   string
	svc     *EvaluationService
	metrics domrepo.Metrics
	l       *applogger.Logger
}

func NewSnapshotHandler(topic string, svc *EvaluationService, metrics domrepo.Metrics, l *applogger.Logger) *SnapshotHandler {
	if l == nil {
		l = applogger.NewNop()
	}
	return &SnapshotHandler{topic: topic, svc: svc, metrics: metrics, l: l}
}

func (h *SnapshotHandler) Topic() string { return h.topic }

// Handle evaluates one message. Undecodable or invalid input is permanent
// and goes straight to the DLQ; anything else is retried by the consumer.
func (h *SnapshotHandler) Handle(ctx context.Context, b []byte) error {
	var in models.EvaluationInput
	if err := json.Unmarshal(b, &in); err != nil {
		h.metrics.RecordError("consumer_unmarshal")
		return fmt.Errorf("decode snapshot: %v: %w", err, pkgkafka.ErrPermanent)
	}

	ev, err := h.svc.Evaluate(ctx, &in, models.SourceKafka)
	if err != nil {
		if errors.Is(err, models.ErrInvalidInput) {
			return fmt.Errorf("%w: %w", pkgkafka.ErrPermanent, err)
		}
		return err
	}

	h.l.Debug("snapshot evaluated",
		applogger.String("id", ev.ID),
		applogger.String("trace_id", pkgkafka.TraceIDFrom(ctx)),
	)
	return nil
}

var _ pkgkafka.MessageHandler = (*SnapshotHandler)(nil)
