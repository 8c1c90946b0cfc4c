package pipeline

import (
	"context"
	"errors"
	"testing"

	"twitterpipe/config"
	"twitterpipe/consumer"
	"twitterpipe/logger"
	"twitterpipe/types"
)

type failingTable struct{ fail map[string]bool }

func (f failingTable) PutItem(ctx context.Context, item types.Keyed) error {
	pk, sk := item.Key()
	if f.fail[pk+"/"+sk] {
		return errors.New("boom")
	}
	return nil
}

func TestHandler_ReturnsFailedIDs(t *testing.T) {
	c := consumer.NewPosts(failingTable{fail: map[string]bool{"1/2": true}}, consumer.Options{Logger: logger.Discard()})
	h := Handler(c)

	retry := h(context.Background(), []types.Message{
		{ID: "a", Body: []byte(`[{"author_id":"1","conversation_id":"1","text":"x"}]`)},
		{ID: "b", Body: []byte(`[{"author_id":"1","conversation_id":"2","text":"y"}]`)},
	})
	if len(retry) != 1 || !retry["b"] {
		t.Fatalf("expected only b to be retried, got %v", retry)
	}
}

func TestNewPublisher_UnknownBackend(t *testing.T) {
	if _, err := NewPublisher(context.Background(), config.Backends{Queue: "rabbitmq"}); err == nil {
		t.Fatal("expected error for unknown queue backend")
	}
}

func TestHandler_AcknowledgesUnparseableMessages(t *testing.T) {
	c := consumer.NewPosts(failingTable{}, consumer.Options{Logger: logger.Discard()})
	h := Handler(c)

	retry := h(context.Background(), []types.Message{
		{ID: "a", Body: []byte(`not json`)},
		{ID: "b", Body: []byte(`[{"author_id":"1","text":"no conversation"}]`)},
		{ID: "c", Body: []byte(`[{"author_id":"1","conversation_id":"1","text":"x"}]`)},
	})
	if len(retry) != 0 {
		t.Fatalf("malformed messages must not be redelivered, got %v", retry)
	}
}
