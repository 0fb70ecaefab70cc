package repository

import (
	"context"

	"SentimentDesk/internal/domain/models"
	"SentimentDesk/internal/domain/repository"
)

type keyedPublisher interface {
	Publish(ctx context.Context, topic string, key []byte, value interface{}) error
}

// KafkaEventPublisher implements EventPublisher. Events are keyed by week id so all
// events of a report land on one partition in order.
type KafkaEventPublisher struct {
	producer keyedPublisher
	topic    string
}

func NewKafkaEventPublisher(producer keyedPublisher, topic string) *KafkaEventPublisher {
	return &KafkaEventPublisher{producer: producer, topic: topic}
}

func (p *KafkaEventPublisher) PublishReportEvent(ctx context.Context, ev models.ReportEvent) error {
	return p.producer.Publish(ctx, p.topic, []byte(ev.WeekID), ev)
}

// NoopEventPublisher is used when Kafka is disabled.
type NoopEventPublisher struct{}

func (NoopEventPublisher) PublishReportEvent(context.Context, models.ReportEvent) error {
	return repository.ErrEventsDisabled
}
