package notify

import (
	"context"
	"fmt"
	"time"

	json "github.com/goccy/go-json"
	"github.com/segmentio/kafka-go"

	"policy-assistant/internal/metrics"
)

// publishBatchTimeout bounds how long a single event waits for batch-mates;
// Publish runs on the request path.
const publishBatchTimeout = 10 * time.Millisecond

// KafkaPublisher writes events keyed by policy id so one policy's events stay ordered.
type KafkaPublisher struct {
	writer  *kafka.Writer
	metrics *metrics.Metrics
}

func NewKafkaPublisher(brokers []string, topic string, m *metrics.Metrics) *KafkaPublisher {
	return &KafkaPublisher{
		writer: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Topic:        topic,
			Balancer:     &kafka.Hash{},
			BatchTimeout: publishBatchTimeout,
			RequiredAcks: kafka.RequireOne,
		},
		metrics: m,
	}
}

func (p *KafkaPublisher) Publish(ctx context.Context, event Event) error {
	value, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	err = p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(event.PolicyID),
		Value: value,
	})
	if err != nil {
		p.metrics.RecordEvent(event.Type, "failure")
		return fmt.Errorf("publish %s: %w", event.Type, err)
	}
	p.metrics.RecordEvent(event.Type, "success")
	return nil
}

func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}
