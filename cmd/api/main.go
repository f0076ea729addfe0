package main

import (
	"context"
	"fmt"
	stdlog "log"
	"os/signal"
	"syscall"
	"time"

	"watchpost/config"
	"watchpost/internals/app"
	"watchpost/internals/server"
	"watchpost/pkg/db"
	"watchpost/pkg/logger"
)

func main() {
	cfg, err := config.LoadConfig("env.yaml")
	if err != nil {
		stdlog.Fatalf("failed to load config: %v", err)
	}

	// signal-aware root context; every background loop hangs off it
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	log := logger.Init(cfg)
	log.Info().Msg("logger initialized")

	dbPool, err := db.ConnectToDB(ctx, cfg.DB, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize db pool")
	}
	log.Info().Msg("database pool initialized")

	container, err := app.NewContainer(ctx, dbPool, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize dependencies")
	}
	log.Info().Msg("dependencies initialized")

	// background pipeline: reclaimer, scheduler, check workers,
	// notification consumer
	go container.Reclaimer.Run()
	go container.Scheduler.Run()
	container.Executor.StartWorkers()
	app.StartConsumer(ctx, container)
	log.Info().Msg("check pipeline started")

	router := app.RegisterRoutes(container)
	srv := server.New(fmt.Sprintf(":%d", cfg.Port), router, log)
	srv.Start()

	<-ctx.Done()
	log.Info().Msg("shutdown signal received")

	// stop accepting requests first, then drain workers and infra
	if err := srv.Shutdown(context.Background()); err != nil {
		log.Error().Err(err).Msg("server shutdown failed")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	container.Executor.Wait()
	if err := container.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("dependencies shutdown failed")
	}

	log.Info().Msg("graceful shutdown complete")
}
