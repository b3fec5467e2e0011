package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/srhoton/step-alb-poc/internal/logger"
	"github.com/srhoton/step-alb-poc/internal/services"
	"github.com/srhoton/step-alb-poc/internal/temporalx"
	"github.com/srhoton/step-alb-poc/internal/temporalx/transition"
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

	endpoint, err := utils.RequireEnv("WIDGET_API_ENDPOINT")
	if err != nil {
		log.Fatal("Missing configuration", "error", err)
	}

	callback, err := services.NewCallbackService(log, endpoint, nil)
	if err != nil {
		log.Fatal("Could not init callback service", "error", err)
	}

	tc, err := temporalx.NewClient(log)
	if err != nil {
		log.Fatal("Could not init Temporal client", "error", err)
	}
	defer tc.Close()

	runner, err := temporalx.NewRunner(log, tc, &transition.Activities{
		Log:      log,
		Callback: callback,
	})
	if err != nil {
		log.Fatal("Could not init worker", "error", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := runner.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		log.Fatal("Transition worker exited", "error", err)
	}
	log.Info("Transition worker stopped")
}
