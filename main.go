package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"twitterpipe/api"
	"twitterpipe/config"
	"twitterpipe/logger"
	"twitterpipe/pipeline"
)

func main() {
	// Load environment variables from .env if present (non-fatal if missing)
	_ = godotenv.Load()
	logger.Init()
	log := logger.WithField("service", "producer")

	cfg, err := config.LoadProducer()
	if err != nil {
		log.WithError(err).Fatal("invalid configuration")
	}

	p, pub, err := pipeline.NewProducer(context.Background(), cfg)
	if err != nil {
		log.WithError(err).Fatal("failed to build producer")
	}
	defer pub.Close()

	srv := api.NewServer(p, cfg.Timeout)
	srv.Start(":" + cfg.Port)

	if cfg.Schedule != "" {
		if err := srv.StartCron(cfg.Schedule); err != nil {
			log.WithError(err).Fatal("failed to start cron")
		}
	}

	log.WithField("port", cfg.Port).Info("API endpoints: GET /api/health, POST /api/producer/run, GET /api/producer/status")

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.WithError(err).Error("shutdown error")
	}
	log.Info("server stopped")
}
