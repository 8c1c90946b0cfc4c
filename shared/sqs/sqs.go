package sqs

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	sqstypes "github.com/aws/aws-sdk-go-v2/service/sqs/types"
	"github.com/sirupsen/logrus"

	"twitterpipe/config"
	"twitterpipe/logger"
	"twitterpipe/shared/queue"
	"twitterpipe/types"
)

// maxBatch is the most messages SQS returns or deletes in one call.
const maxBatch = 10

type sqsAPI interface {
	SendMessage(ctx context.Context, in *sqs.SendMessageInput, optFns ...func(*sqs.Options)) (*sqs.SendMessageOutput, error)
	ReceiveMessage(ctx context.Context, in *sqs.ReceiveMessageInput, optFns ...func(*sqs.Options)) (*sqs.ReceiveMessageOutput, error)
	DeleteMessageBatch(ctx context.Context, in *sqs.DeleteMessageBatchInput, optFns ...func(*sqs.Options)) (*sqs.DeleteMessageBatchOutput, error)
}

// Publisher sends message bodies to SQS queue URLs.
type Publisher struct {
	client sqsAPI
}

var _ queue.Publisher = (*Publisher)(nil)

func NewPublisher(cfg aws.Config) *Publisher {
	return &Publisher{client: sqs.NewFromConfig(cfg)}
}

func (p *Publisher) Publish(ctx context.Context, queueURL string, body []byte) error {
	_, err := p.client.SendMessage(ctx, &sqs.SendMessageInput{
		QueueUrl:    aws.String(queueURL),
		MessageBody: aws.String(string(body)),
	})
	if err != nil {
		return fmt.Errorf("failed to send message to %s: %w", queueURL, err)
	}
	return nil
}

func (p *Publisher) Close() error { return nil }

// RunnerConfig configures a long-polling Runner.
type RunnerConfig struct {
	QueueURL  string
	BatchSize int
	Handler   queue.Handler
	Logger    *logrus.Entry
}

// Runner long-polls one queue. Messages the handler acknowledges are deleted; the rest
// stay in flight and come back once their visibility timeout lapses.
type Runner struct {
	client    sqsAPI
	queueURL  string
	batchSize int32
	handler   queue.Handler
	log       *logrus.Entry
	backoff   time.Duration
}

var _ queue.Runner = (*Runner)(nil)

func NewRunner(cfg aws.Config, rc RunnerConfig) *Runner {
	return newRunner(sqs.NewFromConfig(cfg), rc)
}

func newRunner(client sqsAPI, rc RunnerConfig) *Runner {
	size := rc.BatchSize
	if size <= 0 || size > maxBatch {
		size = maxBatch
	}
	if rc.Logger == nil {
		rc.Logger = logger.WithField("component", "sqs")
	}
	return &Runner{
		client:    client,
		queueURL:  rc.QueueURL,
		batchSize: int32(size),
		handler:   rc.Handler,
		log:       rc.Logger.WithField("queue", rc.QueueURL),
		backoff:   time.Second,
	}
}

// Run polls until ctx is done. Receive errors are logged and retried after a pause.
func (r *Runner) Run(ctx context.Context) error {
	r.log.Info("sqs runner started")
	for ctx.Err() == nil {
		if _, err := r.RunOnce(ctx); err != nil {
			if ctx.Err() != nil {
				break
			}
			r.log.WithError(err).Error("poll failed")
			select {
			case <-ctx.Done():
			case <-time.After(r.backoff):
			}
		}
	}
	r.log.Info("sqs runner stopped")
	return nil
}

// RunOnce receives one batch, hands it over and deletes what was acknowledged. It returns
// the number of messages received.
func (r *Runner) RunOnce(ctx context.Context) (int, error) {
	out, err := r.client.ReceiveMessage(ctx, &sqs.ReceiveMessageInput{
		QueueUrl:            aws.String(r.queueURL),
		MaxNumberOfMessages: r.batchSize,
		WaitTimeSeconds:     config.SQSWaitTimeSeconds,
	})
	if err != nil {
		return 0, fmt.Errorf("failed to receive from %s: %w", r.queueURL, err)
	}
	if len(out.Messages) == 0 {
		return 0, nil
	}

	msgs := make([]types.Message, 0, len(out.Messages))
	for _, m := range out.Messages {
		msgs = append(msgs, types.Message{
			ID:         aws.ToString(m.MessageId),
			Body:       []byte(aws.ToString(m.Body)),
			Attributes: m.Attributes,
		})
	}

	retry := r.handler(ctx, msgs)
	return len(msgs), r.deleteAcked(ctx, out.Messages, retry)
}

func (r *Runner) deleteAcked(ctx context.Context, received []sqstypes.Message, retry map[string]bool) error {
	entries := make([]sqstypes.DeleteMessageBatchRequestEntry, 0, len(received))
	for i, m := range received {
		if retry[aws.ToString(m.MessageId)] {
			continue
		}
		entries = append(entries, sqstypes.DeleteMessageBatchRequestEntry{
			Id:            aws.String(strconv.Itoa(i)),
			ReceiptHandle: m.ReceiptHandle,
		})
	}
	if len(entries) == 0 {
		return nil
	}

	out, err := r.client.DeleteMessageBatch(ctx, &sqs.DeleteMessageBatchInput{
		QueueUrl: aws.String(r.queueURL),
		Entries:  entries,
	})
	if err != nil {
		return fmt.Errorf("failed to delete messages from %s: %w", r.queueURL, err)
	}
	for _, f := range out.Failed {
		r.log.WithFields(logrus.Fields{
			"entry": aws.ToString(f.Id),
			"code":  aws.ToString(f.Code),
		}).Warn("message not deleted, it will be redelivered")
	}
	return nil
}

func (r *Runner) Close() error { return nil }
