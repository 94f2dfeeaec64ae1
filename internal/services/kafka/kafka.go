package kafka

import (
	"context"

	"github.com/twmiller/dl-44/internal/config"
	"github.com/twmiller/dl-44/internal/interfaces"

	"github.com/segmentio/kafka-go"
)

// KafkaProducer publishes polled snapshots to a Kafka topic. Without a
// configured broker it degrades to a no-op so the service runs
// standalone.
type KafkaProducer struct {
	writer *kafka.Writer
}

// NewKafkaProducer creates the snapshot producer.
func NewKafkaProducer(cfg *config.AppConfig) (interfaces.TelemetryService, error) {
	if cfg.KafkaBroker == "" {
		return &KafkaProducer{}, nil
	}
	writer := &kafka.Writer{
		Addr:     kafka.TCP(cfg.KafkaBroker),
		Topic:    cfg.KafkaTopic,
		Balancer: &kafka.LeastBytes{},
	}
	return &KafkaProducer{writer: writer}, nil
}

// Enabled reports whether a broker is configured.
func (p *KafkaProducer) Enabled() bool {
	return p.writer != nil
}

// Produce sends one message to Kafka.
func (p *KafkaProducer) Produce(ctx context.Context, key, value []byte) error {
	if p.writer == nil {
		return nil
	}
	return p.writer.WriteMessages(ctx,
		kafka.Message{
			Key:   key,
			Value: value,
		},
	)
}

// Close shuts the Kafka connection down.
func (p *KafkaProducer) Close() error {
	if p.writer == nil {
		return nil
	}
	return p.writer.Close()
}
