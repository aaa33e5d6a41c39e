package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	gormlogger "gorm.io/gorm/logger"

	"github.com/milescrape/milescrape/config"
	"github.com/milescrape/milescrape/internal/app"
	"github.com/milescrape/milescrape/internal/db"
	"github.com/milescrape/milescrape/internal/db/repos"
	"github.com/milescrape/milescrape/internal/events"
	"github.com/milescrape/milescrape/internal/logger"
	"github.com/milescrape/milescrape/internal/scoring"
	"github.com/milescrape/milescrape/internal/services"
	"github.com/milescrape/milescrape/internal/sources"
)

const (
	serverShutdownTimeout = 10 * time.Second
	workerShutdownTimeout = 30 * time.Second
)

func main() {
	// A missing .env file is fine, the environment may already be set
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		fmt.Fprintf(os.Stderr, "Error loading .env file: %v\n", err)
	}

	logger.InitializeAndConfigure()
	cfg := config.Load()

	if err := run(cfg); err != nil {
		logger.Fatalf("milescrape: %v", err)
	}
}

func run(cfg config.Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	gormLevel := gormlogger.Warn
	if logger.Level() >= logrus.DebugLevel {
		gormLevel = gormlogger.Info
	}
	gdb, closeDB, err := db.Open(cfg.Database, gormLevel)
	if err != nil {
		return err
	}
	defer func() {
		if err := closeDB(); err != nil {
			logger.Errorf("Failed to close database: %v", err)
		}
	}()
	store := repos.NewStore(gdb)

	scoringCfg, err := scoring.LoadConfig(cfg.Scans.ScoringConfigPath)
	if err != nil {
		return err
	}

	src, err := sources.Build(cfg.Sources)
	if err != nil {
		return err
	}
	defer func() {
		if err := src.Close(); err != nil {
			logger.Errorf("Failed to close candidate sources: %v", err)
		}
	}()

	// Stopped after the workers, the bus flushes their final events to the sinks
	busCtx, stopBus := context.WithCancel(context.Background())
	bus := events.NewBus(events.EventChannelSize)
	if len(cfg.Sources.KafkaBrokers) > 0 {
		sink := events.NewKafkaSink(cfg.Sources.KafkaBrokers, cfg.Sources.KafkaTopic)
		sink.Attach(bus)
		defer func() {
			if err := sink.Close(); err != nil {
				logger.Errorf("Failed to close kafka writer: %v", err)
			}
		}()
		logger.InfoWithFields("Publishing scan events to kafka", map[string]interface{}{
			"brokers": cfg.Sources.KafkaBrokers,
			"topic":   cfg.Sources.KafkaTopic,
		})
	}
	bus.Start(busCtx)
	defer func() {
		stopBus()
		<-bus.Done()
	}()

	orchestrator := services.NewOrchestrator(store, src, scoring.NewEngine(scoringCfg), bus, services.Options{
		MaxConcurrentScans:     cfg.Scans.MaxConcurrent,
		QueueLimit:             cfg.Scans.QueueLimit,
		CallTimeout:            cfg.Scans.CallTimeout,
		MaxConsecutiveFailures: cfg.Scans.MaxConsecutiveFailures,
	})

	report, err := orchestrator.Recover(ctx)
	if err != nil {
		return fmt.Errorf("failed to recover scans: %w", err)
	}
	if report.Requeued > 0 || report.Interrupted > 0 {
		logger.InfoWithFields("Recovered scans from a previous run", map[string]interface{}{
			"requeued":    report.Requeued,
			"interrupted": report.Interrupted,
		})
	}

	server := app.New(orchestrator, services.NewLeads(store))

	serverErr := make(chan error, 1)
	go func() {
		logger.Infof("API server listening on :%s", cfg.ServerPort)
		serverErr <- server.Listen(":" + cfg.ServerPort)
	}()

	select {
	case err := <-serverErr:
		if err != nil {
			return fmt.Errorf("server stopped: %w", err)
		}
	case <-ctx.Done():
		logger.Info("Shutting down")
	}

	if err := server.ShutdownWithTimeout(serverShutdownTimeout); err != nil {
		logger.Errorf("Failed to stop API server: %v", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), workerShutdownTimeout)
	defer cancel()
	return orchestrator.Shutdown(shutdownCtx)
}
