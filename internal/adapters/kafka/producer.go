package kafka

import (
	"context"
	"encoding/json"

	"github.com/segmentio/kafka-go"

	"tradecraft/pkg/logger"
)

// Producer publishes lifecycle events to a single topic.
type Producer struct {
	writer *kafka.Writer
	log    *logger.Logger
}

// NewProducer creates a new Kafka producer
func NewProducer(brokers []string, topic string) *Producer {
	return &Producer{
		writer: &kafka.Writer{
			Addr:     kafka.TCP(brokers...),
			Topic:    topic,
			Balancer: &kafka.LeastBytes{},
			// Synchronous for reliability; event volume is a handful per cycle
			Async: false,
		},
		log: logger.Get().With("component", "kafka_producer"),
	}
}

// Publish sends a JSON-encoded event keyed by the given key
func (p *Producer) Publish(ctx context.Context, key string, event interface{}) error {
	data, err := json.Marshal(event)
	if err != nil {
		return err
	}

	msg := kafka.Message{
		Key:   []byte(key),
		Value: data,
	}

	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		p.log.Errorf("Failed to publish %s: %v", key, err)
		return err
	}

	p.log.Debugf("Published event %s", key)
	return nil
}

// Close closes the writer
func (p *Producer) Close() error {
	return p.writer.Close()
}
