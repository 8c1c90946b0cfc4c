package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"twitterpipe/logger"
	"twitterpipe/producer"
)

type stubRunner struct {
	sum     producer.RunSummary
	err     error
	block   chan struct{}
	started chan struct{}
}

func (s *stubRunner) Run(ctx context.Context) (producer.RunSummary, error) {
	if s.started != nil {
		close(s.started)
	}
	if s.block != nil {
		<-s.block
	}
	return s.sum, s.err
}

func newTestServer(r Runner) *Server {
	gin.SetMode(gin.TestMode)
	s := NewServer(r, time.Second)
	s.log = logger.Discard()
	return s
}

func TestHealth(t *testing.T) {
	router := newTestServer(&stubRunner{}).NewRouter()
	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/health", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
}

func TestRun_ReturnsSummary(t *testing.T) {
	s := newTestServer(&stubRunner{sum: producer.RunSummary{RunID: "r1", Pages: 2, Published: 6, StopReason: producer.StopExhausted}})
	router := s.NewRouter()

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/producer/run", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var sum producer.RunSummary
	if err := json.Unmarshal(w.Body.Bytes(), &sum); err != nil || sum.Published != 6 {
		t.Fatalf("unexpected body %s (%v)", w.Body.String(), err)
	}

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/producer/status", nil))
	var status struct {
		Running bool                 `json:"running"`
		LastRun *producer.RunSummary `json:"last_run"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &status); err != nil || status.Running || status.LastRun == nil || status.LastRun.RunID != "r1" {
		t.Fatalf("unexpected status %s (%v)", w.Body.String(), err)
	}
}

func TestRun_UpstreamFailure(t *testing.T) {
	s := newTestServer(&stubRunner{sum: producer.RunSummary{StopReason: producer.StopFailed}, err: errors.New("503")})
	w := httptest.NewRecorder()
	s.NewRouter().ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/producer/run", nil))

	if w.Code != http.StatusBadGateway {
		t.Fatalf("expected 502, got %d", w.Code)
	}
}

func TestRunOnce_RejectsConcurrentRuns(t *testing.T) {
	r := &stubRunner{block: make(chan struct{}), started: make(chan struct{})}
	s := newTestServer(r)

	done := make(chan error, 1)
	go func() {
		_, err := s.RunOnce(context.Background())
		done <- err
	}()
	<-r.started

	if _, err := s.RunOnce(context.Background()); !errors.Is(err, ErrBusy) {
		t.Fatalf("expected ErrBusy, got %v", err)
	}
	if running, _ := s.Status(); !running {
		t.Fatal("expected a run in progress")
	}

	close(r.block)
	if err := <-done; err != nil {
		t.Fatalf("first run failed: %v", err)
	}
}

func TestStartCron_InvalidSchedule(t *testing.T) {
	s := newTestServer(&stubRunner{})
	if err := s.StartCron("not a schedule"); err == nil {
		t.Fatal("expected error for an invalid schedule")
	}
}
