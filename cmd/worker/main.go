package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/contracthub/engine/pkg/config"
	"github.com/contracthub/engine/pkg/database"
	"github.com/contracthub/engine/pkg/logger"

	"github.com/contracthub/engine/internal/events"
	"github.com/contracthub/engine/internal/queue/tasks"
	"github.com/contracthub/engine/internal/repository"
	"github.com/contracthub/engine/internal/services"
)

func main() {
	cfg := config.MustLoad()
	log, err := logger.Init(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       0,
	})

	if err := rdb.Ping(context.Background()).Err(); err != nil {
		log.Fatal("redis connection failed", zap.Error(err))
	}

	srv := asynq.NewServer(
		asynq.RedisClientOpt{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       0,
		},
		asynq.Config{
			Concurrency: cfg.AsynqConcurrency,
		},
	)

	mux := asynq.NewServeMux()
	// Initialize DB and repositories for task handlers
	ctx := context.Background()
	db, err := database.OpenPostgres(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.L().Fatal("failed to open database", zap.Error(err))
	}

	programmeRepo := repository.NewProgrammeRepository(db)
	activityRepo := repository.NewActivityRepository(db)

	// import service (worker runs imports inline, no re-enqueue client)
	importSvc := services.NewImportService(programmeRepo, activityRepo, nil, cfg.MaxImportBytes, cfg.ParseTimeout)

	importHandler := tasks.NewImportTaskHandler(importSvc)
	notifyHandler := tasks.NewNotifyTaskHandler()
	mux.HandleFunc(services.TaskProgrammeImport, importHandler.HandleImport)
	mux.HandleFunc(events.SubjectNotificationSend, notifyHandler.HandleNotificationSend)
	mux.HandleFunc(events.SubjectApprovalCompleted, notifyHandler.HandleApprovalCompleted)

	errCh := make(chan error, 1)
	go func() {
		logger.L().Info("asynq worker starting", zap.Int("concurrency", cfg.AsynqConcurrency))
		if err := srv.Run(mux); err != nil {
			errCh <- err
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		logger.L().Info("shutdown signal received", zap.String("signal", sig.String()))
	case err := <-errCh:
		logger.L().Error("worker stopped with error", zap.Error(err))
	}

	// Allow in-flight tasks to finish gracefully
	srv.Shutdown()
}
