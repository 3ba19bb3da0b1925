package main

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/carson-networks/ledger-server/api"
	"github.com/carson-networks/ledger-server/internal/config"
	"github.com/carson-networks/ledger-server/internal/handlers/v1/status"
	"github.com/carson-networks/ledger-server/internal/idempotency"
	"github.com/carson-networks/ledger-server/internal/logging"
	"github.com/carson-networks/ledger-server/internal/operator"
	"github.com/carson-networks/ledger-server/internal/service"
	"github.com/carson-networks/ledger-server/internal/storage"
	"github.com/carson-networks/ledger-server/internal/storage/memory"
)

func main() {
	envConfig, err := config.ProcessEnvironmentVariables()
	if err != nil {
		logrus.WithError(err).Fatal("config.ProcessEnvironmentVariables")
		return
	}

	logger := logging.SetupLogging(envConfig.LogLevel)
	logger.Info("ledger-server starting")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var store interface {
		storage.IStorage
		status.Pinger
	}
	if envConfig.UseMemoryStore {
		logger.Warn("ledger-server using in-memory store")
		store = memory.NewStore(memory.WithLockTimeout(envConfig.LockTimeout))
	} else {
		dbStorage, err := storage.NewStorage(envConfig)
		if err != nil {
			logger.WithError(err).Fatal("storage.NewStorage")
			return
		}
		defer dbStorage.Close()
		store = dbStorage
	}

	delegator, err := operator.NewOperatorDelegator(store, envConfig.PostgresMaxOpenConns, envConfig.PoolAcquireTimeout, logger)
	if err != nil {
		logger.WithError(err).Fatal("operator.NewOperatorDelegator")
		return
	}
	delegator.Start()
	defer delegator.Stop()

	httpRest := api.Rest{
		Logger:         logger,
		Port:           envConfig.HTTPPort,
		Service:        service.NewService(delegator, store),
		Store:          store,
		IdempotencyTTL: envConfig.IdempotencyTTL,
	}

	if envConfig.RedisAddress != "" {
		client := redis.NewClient(&redis.Options{Addr: envConfig.RedisAddress})
		defer client.Close()
		httpRest.Idempotency = idempotency.NewRedisStore(client)
	}

	if err := httpRest.Serve(ctx); err != nil {
		logger.WithError(err).Error("ledger-server stopped with error")
	}
}
