package config

import (
	"errors"
	"testing"
	"time"

	"twitterpipe/types"
)

func setProducerEnv(t *testing.T) {
	t.Helper()
	t.Setenv(EnvBearerToken, "token")
	t.Setenv(EnvUserID, "42")
	t.Setenv(EnvTweetQueue, "https://sqs.local/tweet")
	t.Setenv(EnvMediaQueue, "https://sqs.local/media")
	t.Setenv(EnvMetaQueue, "https://sqs.local/meta")
}

func TestLoadProducer(t *testing.T) {
	setProducerEnv(t)
	t.Setenv(EnvAPIBaseURL, "http://localhost:9000/2/")
	t.Setenv("PRODUCER_MAX_PAGES", "3")
	t.Setenv("PRODUCER_TIMEOUT", "30s")

	cfg, err := LoadProducer()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.BearerToken != "token" || cfg.UserID != "42" {
		t.Fatalf("unexpected credentials: %+v", cfg)
	}
	if cfg.APIBaseURL != "http://localhost:9000/2" {
		t.Errorf("expected trailing slash trimmed, got %q", cfg.APIBaseURL)
	}
	if cfg.MaxPages != 3 || cfg.Timeout != 30*time.Second {
		t.Errorf("unexpected limits: pages=%d timeout=%s", cfg.MaxPages, cfg.Timeout)
	}
	if cfg.Queues[types.KindMedia] != "https://sqs.local/media" {
		t.Errorf("media queue not mapped: %v", cfg.Queues)
	}
	if cfg.Queue != QueueBackendSQS || cfg.Table != TableBackendDynamo {
		t.Errorf("unexpected default backends: queue=%s table=%s", cfg.Queue, cfg.Table)
	}
}

func TestLoadProducer_ReportsEveryMissingVariable(t *testing.T) {
	t.Setenv(EnvBearerToken, "")
	t.Setenv(EnvUserID, "42")
	t.Setenv(EnvTweetQueue, "")
	t.Setenv(EnvMediaQueue, "q")
	t.Setenv(EnvMetaQueue, "q")

	_, err := LoadProducer()
	var missing *MissingError
	if !errors.As(err, &missing) {
		t.Fatalf("expected MissingError, got %v", err)
	}
	if len(missing.Vars) != 2 || missing.Vars[0] != EnvBearerToken || missing.Vars[1] != EnvTweetQueue {
		t.Fatalf("unexpected missing vars: %v", missing.Vars)
	}
}

func TestLoadConsumer(t *testing.T) {
	t.Setenv(EnvMediaQueue, "media-topic")
	t.Setenv(EnvBucket, "media-bucket")
	t.Setenv("QUEUE_BACKEND", "KAFKA")
	t.Setenv("KAFKA_BROKERS", "a:9092, b:9092")
	t.Setenv("CONSUMER_FAIL_FAST", "true")
	t.Setenv("CONSUMER_BATCH_SIZE", "0")

	cfg, err := LoadConsumer(types.KindMedia)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Bucket != "media-bucket" || cfg.Queue != "media-topic" {
		t.Errorf("unexpected addresses: %+v", cfg)
	}
	if cfg.Backends.Queue != QueueBackendKafka {
		t.Errorf("expected kafka backend, got %q", cfg.Backends.Queue)
	}
	if len(cfg.KafkaBrokers) != 2 || cfg.KafkaBrokers[1] != "b:9092" {
		t.Errorf("unexpected brokers: %v", cfg.KafkaBrokers)
	}
	if !cfg.FailFast {
		t.Error("expected fail fast")
	}
	if cfg.BatchSize != DefaultBatchSize {
		t.Errorf("expected default batch size, got %d", cfg.BatchSize)
	}
}

func TestLoadConsumer_TableRequiredPerKind(t *testing.T) {
	t.Setenv(EnvMetaQueue, "q")
	t.Setenv(EnvMetaTable, "")
	t.Setenv(EnvTweetTable, "posts")

	_, err := LoadConsumer(types.KindMeta)
	var missing *MissingError
	if !errors.As(err, &missing) || missing.Vars[0] != EnvMetaTable {
		t.Fatalf("expected %s missing, got %v", EnvMetaTable, err)
	}
}

func TestLoadConsumer_UnknownKind(t *testing.T) {
	if _, err := LoadConsumer(types.Kind("likes")); err == nil {
		t.Fatal("expected error for unknown kind")
	}
}
