package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/jonboulle/clockwork"
	kafkago "github.com/segmentio/kafka-go"

	"github.com/couchcryptid/sightings/internal/config"
	"github.com/couchcryptid/sightings/internal/domain"
)

// EventReportCreated is the event_type header of new-report events.
const EventReportCreated = "report.created"

// Publisher produces report events to a Kafka topic.
// It implements submission.Publisher.
type Publisher struct {
	writer *kafkago.Writer
	clock  clockwork.Clock
	logger *slog.Logger
}

// NewPublisher creates a Kafka producer for the configured topic. The clock
// stamps the created_at header.
func NewPublisher(cfg *config.Config, clock clockwork.Clock, logger *slog.Logger) *Publisher {
	w := &kafkago.Writer{
		Addr:                   kafkago.TCP(cfg.KafkaBrokers...),
		Topic:                  cfg.KafkaTopic,
		Balancer:               &kafkago.Hash{},
		RequiredAcks:           kafkago.RequireAll,
		AllowAutoTopicCreation: true,
	}
	return &Publisher{writer: w, clock: clock, logger: logger}
}

// PublishReportCreated writes one report.created event keyed by report id.
func (p *Publisher) PublishReportCreated(ctx context.Context, r domain.Report) error {
	msg, err := p.newMessage(r)
	if err != nil {
		return err
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("publish %s: %w", EventReportCreated, err)
	}
	p.logger.Debug("report event published", "id", r.ID, "topic", p.writer.Topic)
	return nil
}

func (p *Publisher) newMessage(r domain.Report) (kafkago.Message, error) {
	return serializeToMessage(r, p.clock.Now())
}

func (p *Publisher) Close() error {
	return p.writer.Close()
}

// serializeToMessage marshals a Report into a Kafka message.
func serializeToMessage(r domain.Report, createdAt time.Time) (kafkago.Message, error) {
	data, err := json.Marshal(r)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize report: %w", err)
	}
	return kafkago.Message{
		Key:   []byte(r.ID),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "event_type", Value: []byte(EventReportCreated)},
			{Key: "created_at", Value: []byte(createdAt.UTC().Format(time.RFC3339))},
		},
	}, nil
}
