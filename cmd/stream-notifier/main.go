package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/srhoton/step-alb-poc/internal/logger"
	"github.com/srhoton/step-alb-poc/internal/notifier"
	"github.com/srhoton/step-alb-poc/internal/store"
	"github.com/srhoton/step-alb-poc/internal/temporalx"
	"github.com/srhoton/step-alb-poc/internal/utils"
)

func main() {
	logMode := os.Getenv("LOG_MODE")
	if logMode == "" {
		logMode = "development"
	}
	log, err := logger.New(logMode)
	if err != nil {
		fmt.Printf("Failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	table, err := utils.RequireEnv("WIDGET_TABLE")
	if err != nil {
		log.Fatal("Missing configuration", "error", err)
	}

	rdb, err := store.NewRedisClient(log)
	if err != nil {
		log.Fatal("Could not init Redis client", "error", err)
	}
	defer rdb.Close()

	tc, err := temporalx.NewClient(log)
	if err != nil {
		log.Fatal("Could not init Temporal client", "error", err)
	}
	defer tc.Close()

	starter, err := notifier.NewTemporalStarter(log, tc)
	if err != nil {
		log.Fatal("Missing configuration", "error", err)
	}
	processor, err := notifier.NewProcessor(log, starter)
	if err != nil {
		log.Fatal("Could not init processor", "error", err)
	}
	consumer, err := notifier.NewConsumer(log, rdb, table, processor)
	if err != nil {
		log.Fatal("Could not init consumer", "error", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := consumer.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		log.Fatal("Stream notifier exited", "error", err)
	}
	log.Info("Stream notifier stopped")
}
