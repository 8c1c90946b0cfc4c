package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"twitterpipe/logger"
	"twitterpipe/producer"
)

// ErrBusy is returned when a run is requested while another is in progress.
var ErrBusy = errors.New("a producer run is already in progress")

// Runner runs one pagination pass.
type Runner interface {
	Run(ctx context.Context) (producer.RunSummary, error)
}

// Server exposes the producer over HTTP and, optionally, on a cron schedule.
// At most one run is in flight at a time.
type Server struct {
	runner  Runner
	timeout time.Duration
	log     *logrus.Entry

	mu      sync.Mutex
	running bool
	last    *producer.RunSummary

	cron       *cron.Cron
	httpServer *http.Server
}

// NewServer creates a producer server. timeout bounds every run.
func NewServer(runner Runner, timeout time.Duration) *Server {
	return &Server{
		runner:  runner,
		timeout: timeout,
		log:     logger.WithField("component", "api"),
		cron:    cron.New(),
	}
}

// NewRouter constructs a Gin engine with registered routes.
func (s *Server) NewRouter() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())

	RegisterHealthRoutes(r)
	s.RegisterProducerRoutes(r)
	return r
}

// Start serves HTTP on addr in the background.
func (s *Server) Start(addr string) {
	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           s.NewRouter(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		s.log.WithField("addr", addr).Info("starting producer server")
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.log.WithError(err).Fatal("HTTP server error")
		}
	}()
}

// StartCron schedules runs. A tick that finds a run in progress is skipped.
func (s *Server) StartCron(schedule string) error {
	_, err := s.cron.AddFunc(schedule, func() {
		s.log.Info("cron triggered: starting producer run")
		if _, err := s.RunOnce(context.Background()); err != nil {
			if errors.Is(err, ErrBusy) {
				s.log.Info("cron skipped: producer is busy")
				return
			}
			s.log.WithError(err).Error("cron producer run failed")
		}
	})
	if err != nil {
		return fmt.Errorf("failed to add cron job: %w", err)
	}

	s.cron.Start()
	s.log.WithField("schedule", schedule).Info("cron job started")
	return nil
}

// RunOnce runs the producer unless a run is already in flight.
func (s *Server) RunOnce(ctx context.Context) (producer.RunSummary, error) {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return producer.RunSummary{}, ErrBusy
	}
	s.running = true
	s.mu.Unlock()

	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}
	sum, err := s.runner.Run(ctx)

	s.mu.Lock()
	s.running = false
	s.last = &sum
	s.mu.Unlock()
	return sum, err
}

// Status reports whether a run is in flight and the last finished run, if any.
func (s *Server) Status() (bool, *producer.RunSummary) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.last == nil {
		return s.running, nil
	}
	last := *s.last
	return s.running, &last
}

// Shutdown stops the cron scheduler, waits for a scheduled run to finish and stops HTTP.
func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Info("shutting down producer server")

	done := s.cron.Stop()
	select {
	case <-done.Done():
	case <-ctx.Done():
	}

	if s.httpServer == nil {
		return nil
	}
	return s.httpServer.Shutdown(ctx)
}
