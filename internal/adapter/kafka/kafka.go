package kafka

import (
	"context"
	"encoding/json"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/michaelwybraniec/bankly/internal/domain"
)

// ReaderConfig holds broker subscription settings.
type ReaderConfig struct {
	Brokers       []string
	Topic         string
	GroupID       string
	FromBeginning bool
}

// NewReader creates a consumer-group reader for the transfer topic.
// Partition assignment and rebalancing are handled by the broker.
func NewReader(cfg ReaderConfig) *kafka.Reader {
	startOffset := kafka.LastOffset
	if cfg.FromBeginning {
		startOffset = kafka.FirstOffset
	}

	return kafka.NewReader(kafka.ReaderConfig{
		Brokers:     cfg.Brokers,
		Topic:       cfg.Topic,
		GroupID:     cfg.GroupID,
		StartOffset: startOffset,
		MinBytes:    1,
		MaxBytes:    10e6,
		MaxWait:     500 * time.Millisecond,
	})
}

// Publisher emits money-transferred events, keyed by transaction ID so
// redeliveries of one transaction stay within one partition.
type Publisher struct {
	writer *kafka.Writer
}

// NewPublisher creates a Publisher for the given brokers and topic.
func NewPublisher(brokers []string, topic string) *Publisher {
	return &Publisher{
		writer: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Topic:        topic,
			Balancer:     &kafka.Hash{},
			RequiredAcks: kafka.RequireAll,
		},
	}
}

// Publish sends one transfer event.
func (p *Publisher) Publish(ctx context.Context, event *domain.TransferEvent) error {
	value, err := json.Marshal(event)
	if err != nil {
		return err
	}

	return p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(event.TransactionID),
		Value: value,
	})
}

// Close releases the underlying writer.
func (p *Publisher) Close() error {
	return p.writer.Close()
}
