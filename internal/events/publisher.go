package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"product-dashboard/internal/domain"

	"github.com/segmentio/kafka-go"
)

const EventCatalogSynced = "catalog.synced"

// SyncedEvent is published after every successful synchronization run
type SyncedEvent struct {
	Type       string    `json:"type"`
	RunID      string    `json:"run_id"`
	Saved      int       `json:"saved"`
	Skipped    int       `json:"skipped"`
	DurationMS int64     `json:"duration_ms"`
	OccurredAt time.Time `json:"occurred_at"`
}

// Publisher announces completed sync runs to downstream consumers
type Publisher interface {
	PublishSynced(ctx context.Context, result *domain.SyncResult) error
	Close() error
}

// NewSyncedEvent builds the event payload for a sync result
func NewSyncedEvent(result *domain.SyncResult) SyncedEvent {
	return SyncedEvent{
		Type:       EventCatalogSynced,
		RunID:      result.RunID.String(),
		Saved:      result.Saved,
		Skipped:    result.Skipped,
		DurationMS: result.Duration.Milliseconds(),
		OccurredAt: result.StartedAt.Add(result.Duration).UTC(),
	}
}

// messageWriter is the subset of *kafka.Writer the publisher needs
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type kafkaPublisher struct {
	writer messageWriter
}

// NewKafkaPublisher creates a publisher writing to topic on the given brokers
func NewKafkaPublisher(brokers []string, topic string) Publisher {
	return &kafkaPublisher{
		writer: &kafka.Writer{
			Addr:                   kafka.TCP(brokers...),
			Topic:                  topic,
			Balancer:               &kafka.LeastBytes{},
			AllowAutoTopicCreation: true,
			BatchTimeout:           50 * time.Millisecond,
		},
	}
}

func (p *kafkaPublisher) PublishSynced(ctx context.Context, result *domain.SyncResult) error {
	msg, err := buildMessage(NewSyncedEvent(result))
	if err != nil {
		return err
	}

	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("failed to publish sync event: %w", err)
	}
	return nil
}

func (p *kafkaPublisher) Close() error {
	return p.writer.Close()
}

func buildMessage(event SyncedEvent) (kafka.Message, error) {
	payload, err := json.Marshal(event)
	if err != nil {
		return kafka.Message{}, fmt.Errorf("failed to encode sync event: %w", err)
	}

	return kafka.Message{
		Key:   []byte(event.RunID),
		Value: payload,
		Headers: []kafka.Header{
			{Key: "event-type", Value: []byte(event.Type)},
		},
	}, nil
}

type nopPublisher struct{}

// NewNopPublisher returns a publisher that drops every event
func NewNopPublisher() Publisher {
	return nopPublisher{}
}

func (nopPublisher) PublishSynced(context.Context, *domain.SyncResult) error { return nil }

func (nopPublisher) Close() error { return nil }
