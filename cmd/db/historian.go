// cmd/db/historian.go is the historian service: it pops contract events from a
// Redis list and persists them to the contract_events table in PostgreSQL.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jason-s-yu/trustless-rewards/internal/config"
	"github.com/jason-s-yu/trustless-rewards/internal/database"
	"github.com/jason-s-yu/trustless-rewards/internal/events"
	"github.com/jason-s-yu/trustless-rewards/internal/historian"
	"github.com/jason-s-yu/trustless-rewards/internal/models"
	"github.com/sirupsen/logrus"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logrus.Fatalf("failed to load config: %v", err)
	}
	logger := cfg.Logger()
	if cfg.DatabaseURL == "" || cfg.RedisAddr == "" {
		logger.Fatal("historian needs both DATABASE_URL and REDIS_ADDR")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := database.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Fatalf("failed to connect to database: %v", err)
	}
	defer pool.Close()
	if err := database.EnsureSchema(ctx, pool); err != nil {
		logger.Fatalf("%v", err)
	}

	rdb, err := events.ConnectRedis(cfg.RedisAddr, cfg.RedisDB)
	if err != nil {
		logger.Fatalf("%v", err)
	}
	defer rdb.Close()

	write := func(ctx context.Context, evs []models.Event) error {
		err := database.InsertEvents(ctx, pool, evs)
		if database.IsPermanent(err) {
			return historian.Permanent(err)
		}
		return err
	}
	hs := historian.New(rdb, cfg.EventQueueName, write,
		cfg.HistorianBatchSize, time.Duration(cfg.HistorianFlushMs)*time.Millisecond, logger)

	if err := hs.Run(ctx); err != nil {
		logger.WithError(err).Error("historian exited with unflushed events")
		os.Exit(1)
	}
	logger.Info("Historian shutdown complete.")
}
