package main

import (
	"context"
	"net/http"
	"time"

	"habits/internal/amqp"
	"habits/internal/backend"
	"habits/internal/cli"
	apphttp "habits/internal/http"
	"habits/internal/services"
	"habits/internal/session"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger()
	cfg := cli.LoadAndValidateConfig(logger)

	ctx := context.Background()

	repo := cli.InitSQLite(logger, cfg.SQLiteDBPath)
	defer repo.Close()

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

	// The sync queue is optional: without a broker, mutations still land
	// locally and in the primary store.
	var publisher services.SyncPublisher
	amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		logger.Warn("AMQP unavailable, habit sync messages will not be published", "error", err)
	} else {
		publisher = amqpClient
		defer amqpClient.Close()
	}

	sess := session.Session{UserID: cfg.DefaultUserID}
	svc := services.NewHabitService(result.Store, repo, publisher)
	if err := svc.Load(ctx, sess); err != nil {
		logger.Error("Failed to load habit data", "error", err)
		return
	}
	if ran, err := svc.RunWeeklyResetIfNeeded(ctx, sess); err != nil {
		logger.Warn("Weekly reset check failed", "error", err)
	} else if ran {
		logger.Info("Weekly completions cleared for the new week")
	}

	// Clear completions every Sunday at midnight even on long uptimes.
	scheduler := services.NewSchedulerService(time.Local)
	if _, err := scheduler.ScheduleWeekStart(func() {
		if _, err := svc.RunWeeklyResetIfNeeded(context.Background(), sess); err != nil {
			logger.Warn("Scheduled weekly reset failed", "error", err)
		}
	}); err != nil {
		logger.Warn("Failed to schedule weekly reset", "error", err)
	}
	scheduler.Start()

	srv, err := apphttp.NewServer(":"+cfg.Port, svc, sess, cfg.CalendarWindowDays)
	if err != nil {
		logger.Error("Failed to initialize HTTP server", "error", err)
		return
	}
	srv.ReadTimeout = 10 * time.Second
	srv.WriteTimeout = 10 * time.Second
	srv.IdleTimeout = 60 * time.Second
	srv.MaxHeaderBytes = 1 << 16

	shutdownCtx, done := cli.GracefulShutdown(logger, 30*time.Second, func() {
		stopCtx, cancel := context.WithTimeout(context.Background(), 25*time.Second)
		defer cancel()
		if err := srv.Shutdown(stopCtx); err != nil {
			logger.Error("Server shutdown error", "error", err)
		}
		scheduler.Stop()
	})

	logger.Info("Starting habits server",
		"port", cfg.Port,
		"backend", cfg.DataBackend,
		"window_days", cfg.CalendarWindowDays)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("Server error", "error", err, "port", cfg.Port)
		return
	}

	cli.WaitForShutdown(shutdownCtx, done)
	logger.Info("Server stopped gracefully")
}
