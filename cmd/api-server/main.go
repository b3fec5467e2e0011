package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/srhoton/step-alb-poc/internal/handlers"
	"github.com/srhoton/step-alb-poc/internal/logger"
	"github.com/srhoton/step-alb-poc/internal/server"
	"github.com/srhoton/step-alb-poc/internal/services"
	"github.com/srhoton/step-alb-poc/internal/store"
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

	widgetStore, err := store.NewRedisStore(log, rdb, table)
	if err != nil {
		log.Fatal("Could not init widget store", "error", err)
	}

	delay := time.Duration(utils.GetEnvAsInt("TRANSITION_DELAY_SECONDS", 3600, log)) * time.Second
	widgetService := services.NewWidgetService(log, widgetStore, delay)
	widgetHandler := handlers.NewWidgetHandler(log, widgetService)

	router := server.NewRouter(server.RouterConfig{
		Log:           log,
		WidgetHandler: widgetHandler,
	})

	addr := ":" + utils.GetEnv("PORT", "8080", log)
	srv := &http.Server{Addr: addr, Handler: router}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("Widget API listening", "addr", addr, "table", table)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		log.Fatal("Widget API exited", "error", err)
	}
	log.Info("Widget API stopped")
}
