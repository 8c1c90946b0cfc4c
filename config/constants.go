package config

import "time"

// Timeline API Constants
const (
	// DefaultAPIBaseURL is the v2 API root the producer talks to
	DefaultAPIBaseURL = "https://api.twitter.com/2"

	// TweetFields selects the post fields requested on every page
	TweetFields = "author_id,conversation_id,created_at,source,referenced_tweets,text"

	// MediaFields selects the media fields returned under includes.media
	MediaFields = "type,url"

	// Expansions pulls attached media into the includes section
	Expansions = "attachments.media_keys"

	// UserAgent is sent with every upstream request
	UserAgent = "v2TweetLookupGo"

	// UpstreamTimeout bounds a single page fetch
	UpstreamTimeout = 10 * time.Second

	// MaxResponseBytes caps how much of one page response is read
	MaxResponseBytes = 8 << 20
)

// Producer Constants
const (
	// DefaultProducerTimeout bounds a whole pagination run
	DefaultProducerTimeout = 5 * time.Minute

	// DefaultPort is the producer service HTTP port
	DefaultPort = "8080"
)

// Consumer Constants
const (
	// DefaultBatchSize matches the largest SQS receive batch
	DefaultBatchSize = 10

	// DefaultBatchWait is how long a Kafka runner waits to fill a batch
	DefaultBatchWait = 2 * time.Second

	// SQSWaitTimeSeconds enables long polling
	SQSWaitTimeSeconds = 20

	// StoreTimeout bounds a single table or object write
	StoreTimeout = 30 * time.Second
)

// Format Constants
const (
	// MetaTimestampLayout is the created_at format written to the meta table (UTC)
	MetaTimestampLayout = "01/02/2006 15:04:05"

	// MediaContentType is set on every media object
	MediaContentType = "application/json"
)

// Backend names
const (
	QueueBackendSQS   = "sqs"
	QueueBackendKafka = "kafka"

	TableBackendDynamo   = "dynamodb"
	TableBackendRedis    = "redis"
	TableBackendPostgres = "postgres"
)
