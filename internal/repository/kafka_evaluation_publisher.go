package repository

import (
	"context"

	"FinAudit/internal/domain/models"
	domrepo "FinAudit/internal/domain/repository"
	pkgkafka "FinAudit/pkg/kafka"
)

// publisher is the part of *kafka.Producer used here.
type publisher interface {
	Publish(ctx context.Context, topic string, key []byte, value interface{}) error
	Close() error
}

// KafkaEvaluationPublisher publishes full evaluations keyed by evaluation id.
type KafkaEvaluationPublisher struct {
	producer publisher
	topic    string
}

func NewKafkaEvaluationPublisher(producer *pkgkafka.Producer, topic string) *KafkaEvaluationPublisher {
	return &KafkaEvaluationPublisher{producer: producer, topic: topic}
}

func (p *KafkaEvaluationPublisher) Publish(ctx context.Context, e *models.Evaluation) error {
	return p.producer.Publish(ctx, p.topic, []byte(e.ID), e)
}

// Close is a no-op; the producer is shared and closed by its owner.
func (p *KafkaEvaluationPublisher) Close() error {
	return nil
}

// NopStore is used when ClickHouse is disabled.
type NopStore struct{}

func (NopStore) Init(context.Context) error                      { return nil }
func (NopStore) Save(context.Context, *models.Evaluation) error { return nil }
func (NopStore) Latest(context.Context, int) ([]models.EvaluationSummary, error) {
	return []models.EvaluationSummary{}, nil
}
func (NopStore) Health(context.Context) error { return nil }
func (NopStore) Close() error                 { return nil }

// NopPublisher is used when Kafka is disabled.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, *models.Evaluation) error { return nil }
func (NopPublisher) Close() error                                      { return nil }

var (
	_ domrepo.EvaluationPublisher = (*KafkaEvaluationPublisher)(nil)
	_ domrepo.EvaluationStore     = NopStore{}
	_ domrepo.EvaluationPublisher = NopPublisher{}
)
