package main

import (
	"context"
	"errors"
	"time"

	"habits/internal/amqp"
	"habits/internal/backend"
	"habits/internal/cli"
	"habits/internal/worker"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger()
	cfg := cli.LoadAndValidateConfig(logger)

	ctx := context.Background()

	backendCfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		logger.Error("Invalid backend configuration", "error", err)
		return
	}
	result, err := backend.NewFactory(logger).CreateStore(ctx, backendCfg)
	if err != nil {
		logger.Error("Failed to initialize data backend", "error", err, "backend", cfg.DataBackend)
		return
	}
	defer result.Cleanup()

	client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		logger.Error("Failed to connect to AMQP broker", "error", err, "url", cfg.AMQPURL)
		return
	}
	defer client.Close()

	syncWorker := worker.NewSyncWorker(result.Store)

	shutdownCtx, done := cli.GracefulShutdown(logger, 15*time.Second, nil)

	logger.Info("Starting habits sync worker",
		"backend", cfg.DataBackend,
		"queue", cfg.AMQPQueue)

	err = client.ConsumeSync(shutdownCtx, func(msg *amqp.SyncMessage) error {
		return syncWorker.HandleSyncMessage(shutdownCtx, msg)
	})
	if err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Consumer stopped", "error", err)
		return
	}

	cli.WaitForShutdown(shutdownCtx, done)
	logger.Info("Worker stopped gracefully")
}
