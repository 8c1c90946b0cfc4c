// Package pipeline wires configuration to concrete queue and store backends.
package pipeline

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/sirupsen/logrus"

	"twitterpipe/common"
	"twitterpipe/config"
	"twitterpipe/consumer"
	"twitterpipe/logger"
	"twitterpipe/producer"
	"twitterpipe/shared/kafka"
	"twitterpipe/shared/queue"
	"twitterpipe/shared/sqs"
	"twitterpipe/storage"
	"twitterpipe/twitter"
	"twitterpipe/types"
)

func loadAWS(ctx context.Context, b config.Backends) (aws.Config, error) {
	cfg, err := common.LoadAWS(ctx, common.AWSConfig{Region: b.AWSRegion})
	if err != nil {
		return aws.Config{}, fmt.Errorf("unable to load SDK config: %w", err)
	}
	return cfg, nil
}

// NewPublisher opens the configured queue backend for sending.
func NewPublisher(ctx context.Context, b config.Backends) (queue.Publisher, error) {
	switch b.Queue {
	case config.QueueBackendSQS, "":
		awsCfg, err := loadAWS(ctx, b)
		if err != nil {
			return nil, err
		}
		return sqs.NewPublisher(awsCfg), nil
	case config.QueueBackendKafka:
		return kafka.NewPublisher(b.KafkaBrokers)
	}
	return nil, fmt.Errorf("unknown queue backend %q", b.Queue)
}

// NewProducer builds a Producer and the publisher behind it. The caller closes the publisher.
func NewProducer(ctx context.Context, cfg *config.Producer) (*producer.Producer, queue.Publisher, error) {
	pub, err := NewPublisher(ctx, cfg.Backends)
	if err != nil {
		return nil, nil, err
	}

	client := twitter.NewClient(twitter.Options{
		BaseURL:     cfg.APIBaseURL,
		BearerToken: cfg.BearerToken,
		UserID:      cfg.UserID,
		MaxResults:  cfg.MaxResults,
	})
	p, err := producer.New(client, pub, cfg.Queues, producer.Options{
		MaxPages: cfg.MaxPages,
		Logger:   logger.WithFields(logrus.Fields{"component": "producer", "user_id": cfg.UserID}),
	})
	if err != nil {
		_ = pub.Close()
		return nil, nil, err
	}
	return p, pub, nil
}

// NewConsumer builds the consumer for cfg.Kind over its store.
// The returned close func releases the store.
func NewConsumer(ctx context.Context, cfg *config.Consumer) (*consumer.Consumer, func() error, error) {
	awsCfg, err := loadAWS(ctx, cfg.Backends)
	if err != nil {
		return nil, nil, err
	}

	opts := consumer.Options{
		FailFast:     cfg.FailFast,
		Logger:       logger.WithField("component", "consumer"),
		WriteTimeout: config.StoreTimeout,
	}

	switch cfg.Kind {
	case types.KindMedia:
		store := storage.NewObjectStore(awsCfg, cfg.Bucket, cfg.S3UsePathStyle)
		return consumer.NewMedia(store, opts), func() error { return nil }, nil

	case types.KindPosts, types.KindMeta:
		table, closeTable, err := storage.OpenTable(ctx, cfg.Backends, awsCfg, cfg.Table)
		if err != nil {
			return nil, nil, err
		}
		if cfg.Kind == types.KindPosts {
			return consumer.NewPosts(table, opts), closeTable, nil
		}
		return consumer.NewMeta(table, opts), closeTable, nil
	}
	return nil, nil, fmt.Errorf("unknown consumer kind %q", cfg.Kind)
}

// Handler adapts a Consumer to the queue runners: failed messages are left for redelivery.
func Handler(c *consumer.Consumer) queue.Handler {
	return func(ctx context.Context, msgs []types.Message) map[string]bool {
		return c.HandleBatch(ctx, msgs).FailedIDs()
	}
}

// NewRunner opens the configured queue backend for receiving into h.
func NewRunner(ctx context.Context, cfg *config.Consumer, h queue.Handler) (queue.Runner, error) {
	log := logger.WithField("kind", cfg.Kind)
	switch cfg.Backends.Queue {
	case config.QueueBackendSQS, "":
		awsCfg, err := loadAWS(ctx, cfg.Backends)
		if err != nil {
			return nil, err
		}
		return sqs.NewRunner(awsCfg, sqs.RunnerConfig{
			QueueURL:  cfg.Queue,
			BatchSize: cfg.BatchSize,
			Handler:   h,
			Logger:    log,
		}), nil
	case config.QueueBackendKafka:
		return kafka.NewConsumer(kafka.ConsumerConfig{
			Brokers:   cfg.KafkaBrokers,
			Topic:     cfg.Queue,
			GroupID:   cfg.KafkaGroupID + "-" + string(cfg.Kind),
			BatchSize: cfg.BatchSize,
			BatchWait: cfg.BatchWait,
			Handler:   h,
			Logger:    log,
		})
	}
	return nil, fmt.Errorf("unknown queue backend %q", cfg.Backends.Queue)
}
