package kafka

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/IBM/sarama"
	"github.com/sirupsen/logrus"

	"twitterpipe/logger"
	"twitterpipe/shared/queue"
	"twitterpipe/types"
)

// errRedeliver ends a session so the group resumes from the last marked offset.
var errRedeliver = errors.New("batch has unacknowledged messages")

// Consumer feeds batches from one topic to a queue.Handler.
type Consumer struct {
	group     sarama.ConsumerGroup
	handler   queue.Handler
	topic     string
	groupID   string
	batchSize int
	batchWait time.Duration
	log       *logrus.Entry
}

var _ queue.Runner = (*Consumer)(nil)

// ConsumerConfig holds Kafka consumer configuration
type ConsumerConfig struct {
	Brokers   []string
	Topic     string
	GroupID   string
	BatchSize int
	BatchWait time.Duration
	Handler   queue.Handler
	Logger    *logrus.Entry
}

// NewConsumer creates a new Kafka consumer
func NewConsumer(config ConsumerConfig) (*Consumer, error) {
	saramaConfig := sarama.NewConfig()
	saramaConfig.Version = sarama.V3_6_0_0
	saramaConfig.Consumer.Group.Rebalance.GroupStrategies = []sarama.BalanceStrategy{sarama.NewBalanceStrategyRoundRobin()}
	saramaConfig.Consumer.Offsets.Initial = sarama.OffsetOldest
	saramaConfig.Consumer.Return.Errors = true

	group, err := sarama.NewConsumerGroup(config.Brokers, config.GroupID, saramaConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create consumer group: %w", err)
	}

	if config.Logger == nil {
		config.Logger = logger.WithField("component", "kafka")
	}
	if config.BatchSize <= 0 {
		config.BatchSize = 1
	}

	return &Consumer{
		group:     group,
		handler:   config.Handler,
		topic:     config.Topic,
		groupID:   config.GroupID,
		batchSize: config.BatchSize,
		batchWait: config.BatchWait,
		log:       config.Logger.WithFields(logrus.Fields{"topic": config.Topic, "group": config.GroupID}),
	}, nil
}

// Run consumes until ctx is done, re-joining the group after every session.
func (c *Consumer) Run(ctx context.Context) error {
	go func() {
		for err := range c.group.Errors() {
			c.log.WithError(err).Error("kafka consumer error")
		}
	}()

	h := &groupHandler{c: c}
	c.log.Info("kafka consumer started")
	for {
		err := c.group.Consume(ctx, []string{c.topic}, h)
		if ctx.Err() != nil {
			c.log.Info("kafka consumer context canceled")
			return nil
		}
		if errors.Is(err, sarama.ErrClosedConsumerGroup) {
			return nil
		}
		if err != nil && !errors.Is(err, errRedeliver) {
			c.log.WithError(err).Error("error from kafka consumer")
		}
		select {
		case <-ctx.Done():
			return nil
		case <-time.After(time.Second):
		}
	}
}

// Close gracefully shuts down the consumer
func (c *Consumer) Close() error {
	c.log.Info("closing kafka consumer")
	return c.group.Close()
}

// groupHandler implements sarama.ConsumerGroupHandler
type groupHandler struct {
	c *Consumer
}

func (h *groupHandler) Setup(sarama.ConsumerGroupSession) error   { return nil }
func (h *groupHandler) Cleanup(sarama.ConsumerGroupSession) error { return nil }

// ConsumeClaim collects up to batchSize messages, or whatever arrived within batchWait,
// and hands them over as one batch.
func (h *groupHandler) ConsumeClaim(session sarama.ConsumerGroupSession, claim sarama.ConsumerGroupClaim) error {
	batch := make([]*sarama.ConsumerMessage, 0, h.c.batchSize)
	var timer <-chan time.Time

	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		err := h.deliver(session, batch)
		batch = batch[:0]
		timer = nil
		return err
	}

	for {
		select {
		case message, ok := <-claim.Messages():
			if !ok {
				return flush()
			}
			batch = append(batch, message)
			if len(batch) >= h.c.batchSize {
				if err := flush(); err != nil {
					return err
				}
			} else if timer == nil && h.c.batchWait > 0 {
				timer = time.After(h.c.batchWait)
			} else if h.c.batchWait <= 0 {
				if err := flush(); err != nil {
					return err
				}
			}

		case <-timer:
			if err := flush(); err != nil {
				return err
			}

		case <-session.Context().Done():
			return nil
		}
	}
}

func (h *groupHandler) deliver(session sarama.ConsumerGroupSession, batch []*sarama.ConsumerMessage) error {
	msgs := make([]types.Message, len(batch))
	for i, m := range batch {
		msgs[i] = toMessage(m)
	}

	retry := h.c.handler(session.Context(), msgs)
	acked := ackedPrefix(msgs, retry)
	for _, m := range batch[:acked] {
		session.MarkMessage(m, "")
	}
	if acked < len(batch) {
		h.c.log.WithField("message_id", msgs[acked].ID).Warn("message not acknowledged, rewinding to it")
		return errRedeliver
	}
	return nil
}

// ackedPrefix is how many leading messages may be marked. Offsets are committed in
// order, so nothing past the first unacknowledged message can be.
func ackedPrefix(msgs []types.Message, retry map[string]bool) int {
	for i, m := range msgs {
		if retry[m.ID] {
			return i
		}
	}
	return len(msgs)
}

func toMessage(m *sarama.ConsumerMessage) types.Message {
	attrs := make(map[string]string, len(m.Headers))
	for _, hdr := range m.Headers {
		if hdr != nil {
			attrs[string(hdr.Key)] = string(hdr.Value)
		}
	}
	return types.Message{
		ID:         fmt.Sprintf("%s/%d/%d", m.Topic, m.Partition, m.Offset),
		Body:       m.Value,
		Attributes: attrs,
	}
}
