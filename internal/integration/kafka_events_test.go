//go:build integration

package integration_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/sightings/internal/adapter/kafka"
	"github.com/couchcryptid/sightings/internal/config"
	"github.com/couchcryptid/sightings/internal/domain"
	"github.com/couchcryptid/sightings/internal/observability"
)

const testEventsTopic = "test-report-events"

func TestPublisherWritesReportCreated(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	broker := startKafka(ctx, t)
	createTopic(t, broker, testEventsTopic)

	cfg := &config.Config{KafkaBrokers: []string{broker}, KafkaTopic: testEventsTopic}
	clock := clockwork.NewFakeClockAt(time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC))
	publisher := kafka.NewPublisher(cfg, clock, observability.DiscardLogger())
	t.Cleanup(func() { _ = publisher.Close() })

	report := domain.Report{
		ID:          "665b1c2f9d1e8a0001a1b2c3",
		Location:    "Union Station",
		Latitude:    34.056,
		Longitude:   -118.2368,
		Description: "Vehicles in the garage",
		Timestamp:   "2024-06-01T10:00:00.000Z",
		Images:      []string{},
	}
	require.NoError(t, publisher.PublishReportCreated(ctx, report))

	consumer := kafkago.NewReader(kafkago.ReaderConfig{
		Brokers:     []string{broker},
		Topic:       testEventsTopic,
		Partition:   0,
		StartOffset: kafkago.FirstOffset,
		MaxWait:     time.Second,
	})
	t.Cleanup(func() { _ = consumer.Close() })

	readCtx, readCancel := context.WithTimeout(ctx, 30*time.Second)
	defer readCancel()
	msg, err := consumer.ReadMessage(readCtx)
	require.NoError(t, err, "read report event")

	headers := make(map[string]string, len(msg.Headers))
	for _, h := range msg.Headers {
		headers[h.Key] = string(h.Value)
	}
	assert.Equal(t, report.ID, string(msg.Key))
	assert.Equal(t, kafka.EventReportCreated, headers["event_type"])
	assert.Equal(t, "2024-06-01T12:00:00Z", headers["created_at"])

	var got domain.Report
	require.NoError(t, json.Unmarshal(msg.Value, &got))
	assert.Equal(t, report, got)
}
