package livefeed

import (
	"context"
	"encoding/json"
	"fmt"

	"SentimentDesk/internal/domain/models"
)

// EventForwarder is a Kafka message handler that relays report events to the hub.
type EventForwarder struct {
	topic string
	hub   *Hub
}

func NewEventForwarder(topic string, hub *Hub) *EventForwarder {
	return &EventForwarder{topic: topic, hub: hub}
}

func (f *EventForwarder) Topic() string { return f.topic }

func (f *EventForwarder) Handle(ctx context.Context, data []byte) error {
	var ev models.ReportEvent
	if err := json.Unmarshal(data, &ev); err != nil {
		return fmt.Errorf("decode report event: %w", err)
	}
	if ev.Type == "" || ev.WeekID == "" {
		return fmt.Errorf("report event missing type or week id")
	}
	f.hub.Broadcast(ctx, data)
	return nil
}
