package queue

import (
	"context"

	"twitterpipe/types"
)

// Publisher sends one message body to a queue (SQS queue URL or Kafka topic).
type Publisher interface {
	Publish(ctx context.Context, queue string, body []byte) error
	Close() error
}

// Handler processes one delivered batch and returns the ids of the messages that must be
// redelivered. A nil or empty result acknowledges the whole batch.
type Handler func(ctx context.Context, msgs []types.Message) (retry map[string]bool)

// Runner pulls batches from one queue and feeds them to a Handler until ctx ends.
type Runner interface {
	Run(ctx context.Context) error
	Close() error
}
