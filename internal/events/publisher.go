package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill-kafka/v2/pkg/kafka"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/google/uuid"

	"github.com/radcert-prep/exam-service/internal/models"
)

// Publisher emits exam session lifecycle events. Implementations must not
// block session processing on broker failures.
type Publisher interface {
	PublishSessionStarted(ctx context.Context, session *models.ExamSession) error
	PublishSessionCompleted(ctx context.Context, session *models.ExamSession, score, percentage int) error
	Close() error
}

// KafkaPublisher implements Publisher using Watermill with Kafka
type KafkaPublisher struct {
	publisher message.Publisher
	logger    *slog.Logger
	topicName string
}

// PublisherConfig holds configuration for the event publisher
type PublisherConfig struct {
	KafkaBrokers []string
	TopicName    string
	Logger       *slog.Logger
}

// NewKafkaPublisher creates a new Kafka-based event publisher using Watermill
func NewKafkaPublisher(config PublisherConfig) (*KafkaPublisher, error) {
	logger := watermill.NewSlogLogger(config.Logger)

	publisherConfig := kafka.PublisherConfig{
		Brokers:   config.KafkaBrokers,
		Marshaler: kafka.DefaultMarshaler{},
	}

	publisher, err := kafka.NewPublisher(publisherConfig, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create Kafka publisher: %w", err)
	}

	return &KafkaPublisher{
		publisher: publisher,
		logger:    config.Logger,
		topicName: config.TopicName,
	}, nil
}

func (p *KafkaPublisher) PublishSessionStarted(ctx context.Context, session *models.ExamSession) error {
	return p.publish(EventSessionStarted, newSessionStartedEvent(session))
}

func (p *KafkaPublisher) PublishSessionCompleted(ctx context.Context, session *models.ExamSession, score, percentage int) error {
	return p.publish(EventSessionCompleted, newSessionCompletedEvent(session, score, percentage))
}

func (p *KafkaPublisher) publish(eventType EventType, data interface{}) error {
	event := &SessionEvent{
		ID:        uuid.New().String(),
		Type:      eventType,
		Timestamp: time.Now().UTC(),
		Source:    "exam-service",
		Version:   "1.0",
		Data:      data,
	}

	eventBytes, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal session event: %w", err)
	}

	msg := message.NewMessage(event.ID, eventBytes)
	msg.Metadata.Set("event_type", string(event.Type))
	msg.Metadata.Set("source", event.Source)
	msg.Metadata.Set("version", event.Version)
	msg.Metadata.Set("timestamp", event.Timestamp.Format(time.RFC3339))

	if err := p.publisher.Publish(p.topicName, msg); err != nil {
		p.logger.Error("Failed to publish session event",
			"event_id", event.ID,
			"event_type", event.Type,
			"error", err)
		return fmt.Errorf("failed to publish session event: %w", err)
	}

	p.logger.Info("Published session event",
		"event_id", event.ID,
		"event_type", event.Type,
		"topic", p.topicName)

	return nil
}

// Close closes the publisher and releases resources
func (p *KafkaPublisher) Close() error {
	return p.publisher.Close()
}

// NoopPublisher discards all events. Used when no broker is configured.
type NoopPublisher struct{}

func (NoopPublisher) PublishSessionStarted(ctx context.Context, session *models.ExamSession) error {
	return nil
}

func (NoopPublisher) PublishSessionCompleted(ctx context.Context, session *models.ExamSession, score, percentage int) error {
	return nil
}

func (NoopPublisher) Close() error { return nil }

// MockPublisher records events in memory for testing
type MockPublisher struct {
	Started   []SessionStartedEvent
	Completed []SessionCompletedEvent
}

func NewMockPublisher() *MockPublisher {
	return &MockPublisher{}
}

func (m *MockPublisher) PublishSessionStarted(ctx context.Context, session *models.ExamSession) error {
	m.Started = append(m.Started, *newSessionStartedEvent(session))
	return nil
}

func (m *MockPublisher) PublishSessionCompleted(ctx context.Context, session *models.ExamSession, score, percentage int) error {
	m.Completed = append(m.Completed, *newSessionCompletedEvent(session, score, percentage))
	return nil
}

func (m *MockPublisher) Close() error { return nil }
