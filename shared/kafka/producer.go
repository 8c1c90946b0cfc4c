package kafka

import (
	"context"
	"fmt"
	"time"

	"github.com/IBM/sarama"
	"github.com/google/uuid"

	"twitterpipe/shared/queue"
)

// Publisher sends message bodies to Kafka topics through a synchronous producer.
type Publisher struct {
	producer sarama.SyncProducer
}

var _ queue.Publisher = (*Publisher)(nil)

// NewPublisher connects a SyncProducer that waits for all in-sync replicas.
func NewPublisher(brokers []string) (*Publisher, error) {
	cfg := sarama.NewConfig()
	cfg.Version = sarama.V3_6_0_0
	cfg.Producer.RequiredAcks = sarama.WaitForAll
	cfg.Producer.Return.Successes = true
	cfg.Producer.Retry.Max = 3
	cfg.Producer.Timeout = 10 * time.Second

	p, err := sarama.NewSyncProducer(brokers, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create kafka producer: %w", err)
	}
	return NewPublisherFromProducer(p), nil
}

// NewPublisherFromProducer wraps an existing producer.
func NewPublisherFromProducer(p sarama.SyncProducer) *Publisher {
	return &Publisher{producer: p}
}

// Publish sends body to topic with a fresh message id as key. The sarama SyncProducer
// does not take a context; ctx is only checked before sending.
func (p *Publisher) Publish(ctx context.Context, topic string, body []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	id := uuid.New().String()
	_, _, err := p.producer.SendMessage(&sarama.ProducerMessage{
		Topic: topic,
		Key:   sarama.StringEncoder(id),
		Value: sarama.ByteEncoder(body),
		Headers: []sarama.RecordHeader{
			{Key: []byte("message-id"), Value: []byte(id)},
		},
	})
	if err != nil {
		return fmt.Errorf("failed to send message to %s: %w", topic, err)
	}
	return nil
}

func (p *Publisher) Close() error {
	return p.producer.Close()
}
