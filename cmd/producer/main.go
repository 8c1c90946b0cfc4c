// Command producer performs one timeline pagination run and exits.
package main

import (
	"context"
	"encoding/json"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"twitterpipe/config"
	"twitterpipe/logger"
	"twitterpipe/pipeline"
)

func main() {
	_ = godotenv.Load()
	// stdout carries the run summary only
	logger.InitTo(os.Stderr)
	log := logger.WithField("service", "producer")

	cfg, err := config.LoadProducer()
	if err != nil {
		log.WithError(err).Fatal("invalid configuration")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, cfg.Timeout)
	defer cancel()

	p, pub, err := pipeline.NewProducer(ctx, cfg)
	if err != nil {
		log.WithError(err).Fatal("failed to build producer")
	}
	defer pub.Close()

	sum, runErr := p.Run(ctx)

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	_ = enc.Encode(sum)

	if runErr != nil {
		log.WithError(runErr).Error("producer run failed")
		pub.Close()
		os.Exit(1)
	}
}
