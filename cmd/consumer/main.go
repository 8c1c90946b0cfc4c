// Command consumer drains one queue (posts, media or meta) into its store.
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"twitterpipe/config"
	"twitterpipe/logger"
	"twitterpipe/pipeline"
	"twitterpipe/types"
)

func main() {
	_ = godotenv.Load()
	logger.Init()

	kind := flag.String("kind", "", "queue to consume: posts, media or meta")
	flag.Parse()
	log := logger.WithFields(map[string]interface{}{"service": "consumer", "kind": *kind})

	cfg, err := config.LoadConsumer(types.Kind(*kind))
	if err != nil {
		log.WithError(err).Fatal("invalid configuration")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	c, closeStore, err := pipeline.NewConsumer(ctx, cfg)
	if err != nil {
		log.WithError(err).Fatal("failed to build consumer")
	}
	defer closeStore()

	runner, err := pipeline.NewRunner(ctx, cfg, pipeline.Handler(c))
	if err != nil {
		log.WithError(err).Fatal("failed to open queue")
	}
	defer runner.Close()

	log.WithField("queue", cfg.Queue).Info("consumer started")
	if err := runner.Run(ctx); err != nil && ctx.Err() == nil {
		log.WithError(err).Error("consumer stopped")
		return
	}
	log.Info("consumer stopped")
}
