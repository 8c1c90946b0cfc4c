package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"twitterpipe/types"
)

// Environment variable names
const (
	EnvBearerToken = "TWITTER_BEARER_TOKEN"
	EnvUserID      = "TWITTER_USER_ID"
	EnvAPIBaseURL  = "TWITTER_API_BASE_URL"
	EnvMaxResults  = "TWITTER_MAX_RESULTS"

	EnvTweetQueue = "TWEET_QUEUE_URL"
	EnvMediaQueue = "MEDIA_QUEUE_URL"
	EnvMetaQueue  = "META_QUEUE_URL"

	EnvTweetTable = "DYNAMODB_TWEET_TABLE_NAME"
	EnvMetaTable  = "DYNAMODB_META_TABLE_NAME"
	EnvBucket     = "S3_BUCKET_NAME"
)

// QueueEnv maps each fragment kind to the variable holding its queue address.
var QueueEnv = map[types.Kind]string{
	types.KindPosts: EnvTweetQueue,
	types.KindMedia: EnvMediaQueue,
	types.KindMeta:  EnvMetaQueue,
}

// MissingError reports every required variable that was absent.
type MissingError struct {
	Vars []string
}

func (e *MissingError) Error() string {
	return fmt.Sprintf("missing required configuration: %s", strings.Join(e.Vars, ", "))
}

// Backends selects and configures the queue and table implementations.
type Backends struct {
	Queue        string
	KafkaBrokers []string
	KafkaGroupID string

	Table         string
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	PostgresDSN   string

	AWSRegion      string
	S3UsePathStyle bool
}

// Producer is the configuration of one producer invocation.
type Producer struct {
	BearerToken string
	UserID      string
	APIBaseURL  string
	MaxResults  int

	// MaxPages caps a run; 0 means follow the upstream until it is exhausted.
	MaxPages int
	Timeout  time.Duration
	Schedule string
	Port     string

	Queues map[types.Kind]string
	Backends
}

// Consumer is the configuration of one consumer kind.
type Consumer struct {
	Kind   types.Kind
	Queue  string
	Table  string
	Bucket string

	FailFast  bool
	BatchSize int
	BatchWait time.Duration
	Backends
}

// LoadProducer reads the producer configuration from the environment.
func LoadProducer() (*Producer, error) {
	r := &reader{}
	cfg := &Producer{
		BearerToken: r.required(EnvBearerToken),
		UserID:      r.required(EnvUserID),
		APIBaseURL:  strings.TrimRight(getEnv(EnvAPIBaseURL, DefaultAPIBaseURL), "/"),
		MaxResults:  getIntEnv(EnvMaxResults, 0),
		MaxPages:    getIntEnv("PRODUCER_MAX_PAGES", 0),
		Timeout:     getDuration("PRODUCER_TIMEOUT", DefaultProducerTimeout),
		Schedule:    strings.TrimSpace(os.Getenv("PRODUCER_SCHEDULE")),
		Port:        getEnv("PORT", DefaultPort),
		Queues:      make(map[types.Kind]string, len(QueueEnv)),
		Backends:    loadBackends(),
	}
	for _, kind := range types.Kinds {
		cfg.Queues[kind] = r.required(QueueEnv[kind])
	}
	if err := r.err(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadConsumer reads the configuration of the consumer for kind.
func LoadConsumer(kind types.Kind) (*Consumer, error) {
	if !kind.Valid() {
		return nil, fmt.Errorf("unknown consumer kind %q", kind)
	}

	r := &reader{}
	cfg := &Consumer{
		Kind:      kind,
		Queue:     r.required(QueueEnv[kind]),
		FailFast:  getBoolEnv("CONSUMER_FAIL_FAST"),
		BatchSize: getIntEnv("CONSUMER_BATCH_SIZE", DefaultBatchSize),
		BatchWait: getDuration("CONSUMER_BATCH_WAIT", DefaultBatchWait),
		Backends:  loadBackends(),
	}
	switch kind {
	case types.KindPosts:
		cfg.Table = r.required(EnvTweetTable)
	case types.KindMeta:
		cfg.Table = r.required(EnvMetaTable)
	case types.KindMedia:
		cfg.Bucket = r.required(EnvBucket)
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = DefaultBatchSize
	}
	if err := r.err(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func loadBackends() Backends {
	return Backends{
		Queue:          strings.ToLower(getEnv("QUEUE_BACKEND", QueueBackendSQS)),
		KafkaBrokers:   getStringSliceEnv("KAFKA_BROKERS", []string{"localhost:9092"}),
		KafkaGroupID:   getEnv("KAFKA_GROUP_ID", "twitterpipe"),
		Table:          strings.ToLower(getEnv("TABLE_BACKEND", TableBackendDynamo)),
		RedisAddr:      getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword:  os.Getenv("REDIS_PASSWORD"),
		RedisDB:        getIntEnv("REDIS_DB", 0),
		PostgresDSN:    os.Getenv("POSTGRES_DSN"),
		AWSRegion:      strings.TrimSpace(os.Getenv("AWS_REGION")),
		S3UsePathStyle: getBoolEnv("S3_USE_PATH_STYLE"),
	}
}

// reader collects the names of absent required variables so they are reported together.
type reader struct {
	missing []string
}

func (r *reader) required(key string) string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		r.missing = append(r.missing, key)
	}
	return v
}

func (r *reader) err() error {
	if len(r.missing) == 0 {
		return nil
	}
	return &MissingError{Vars: r.missing}
}

func getEnv(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getBoolEnv(key string) bool {
	return strings.EqualFold(strings.TrimSpace(os.Getenv(key)), "true")
}

func getStringSliceEnv(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}

func getDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
