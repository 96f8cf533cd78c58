package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"restaurant-orders/internal/config"
	"restaurant-orders/internal/connections/database"
	"restaurant-orders/internal/kitchen"
	"restaurant-orders/internal/logging"
	"restaurant-orders/internal/repository"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	log, err := logging.New("kitchen-worker")
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	pool, err := database.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatal("postgres connect failed", zap.Error(err))
	}
	defer pool.Close()
	log.Info("postgres connected")

	store := repository.NewPostgresStore(pool)

	workers := kitchen.NewPool(cfg.WorkerCount, func(id int) *kitchen.Worker {
		sessions := kitchen.NewSessionFactory(cfg.RabbitURL, cfg.OrderQueue, id)
		return kitchen.NewWorker(id, store, sessions, log)
	}, log)

	if err := workers.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		log.Fatal("worker pool failed", zap.Error(err))
	}
	log.Info("kitchen worker stopped")
}
