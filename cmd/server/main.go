// cmd/server/main.go
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jason-s-yu/trustless-rewards/internal/auth"
	"github.com/jason-s-yu/trustless-rewards/internal/config"
	"github.com/jason-s-yu/trustless-rewards/internal/database"
	"github.com/jason-s-yu/trustless-rewards/internal/events"
	"github.com/jason-s-yu/trustless-rewards/internal/handlers"
	"github.com/jason-s-yu/trustless-rewards/internal/ledger"
	"github.com/jason-s-yu/trustless-rewards/internal/models"
	"github.com/jason-s-yu/trustless-rewards/internal/rewards"
	"github.com/jason-s-yu/trustless-rewards/internal/store"
	"github.com/sirupsen/logrus"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logrus.Fatalf("failed to load config: %v", err)
	}
	logger := cfg.Logger()
	if cfg.Deployer == "" {
		logger.Fatal("DEPLOYER must be set")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.AuthPrivateKeyPath != "" {
		err = auth.InitFromPath(cfg.AuthPrivateKeyPath, cfg.AuthPublicKeyPath, cfg.TokenExpireTime)
	} else {
		logger.Warn("no auth key files configured, using ephemeral keys")
		err = auth.Init(cfg.TokenExpireTime)
	}
	if err != nil {
		logger.Fatalf("failed to init auth: %v", err)
	}

	var st store.Store = store.NewMemory()
	if cfg.DatabaseURL != "" {
		pool, err := database.Connect(ctx, cfg.DatabaseURL)
		if err != nil {
			logger.Fatalf("failed to connect to database: %v", err)
		}
		defer pool.Close()
		if err := database.EnsureSchema(ctx, pool); err != nil {
			logger.Fatalf("%v", err)
		}
		st = database.NewStore(pool)
		logger.Info("using postgres store")
	} else {
		logger.Warn("DATABASE_URL not set, contract state is in memory only")
	}

	gw := ledger.NewMemory()
	if err := gw.ParseGenesis(cfg.GenesisBalances); err != nil {
		logger.Fatalf("invalid GENESIS_BALANCES: %v", err)
	}

	hub := events.NewHub(logger)
	defer hub.Close()
	sinks := events.Multi{hub}

	if cfg.RedisAddr != "" {
		rdb, err := events.ConnectRedis(cfg.RedisAddr, cfg.RedisDB)
		if err != nil {
			logger.Fatalf("%v", err)
		}
		defer rdb.Close()
		sinks = append(sinks, events.NewRedisQueue(rdb, cfg.EventQueueName))
		logger.WithField("queue", cfg.EventQueueName).Info("publishing events to redis")
	}
	if cfg.AMQPURL != "" {
		pub, err := events.NewAMQPPublisher(cfg.AMQPURL, cfg.AMQPExchange)
		if err != nil {
			logger.Fatalf("failed to connect to amqp: %v", err)
		}
		defer pub.Close()
		sinks = append(sinks, pub)
		logger.WithField("exchange", cfg.AMQPExchange).Info("publishing events to amqp")
	}

	k, err := rewards.New(ctx, rewards.Config{
		Pool:     models.Principal(cfg.Pool()),
		Deployer: models.Principal(cfg.Deployer),
	}, st, gw, sinks, logger)
	if err != nil {
		logger.Fatalf("failed to start contract: %v", err)
	}

	api := handlers.NewAPIServer(k, hub, logger)
	api.DevSessions = cfg.DevSessions
	api.Origins = cfg.Origins()
	if cfg.DevSessions {
		logger.Warn("DEV_SESSIONS enabled, anyone can mint a session for any principal")
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           api.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		hub.Close()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.WithError(err).Warn("server shutdown")
		}
	}()

	logger.WithFields(logrus.Fields{
		"addr": srv.Addr,
		"pool": k.Pool(),
	}).Info("trustless-rewards running")
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Fatalf("server exited: %v", err)
	}
}
