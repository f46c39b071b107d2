package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"

	"github.com/contracthub/engine/internal/api"
	"github.com/contracthub/engine/internal/api/handlers"
	"github.com/contracthub/engine/internal/events"
	"github.com/contracthub/engine/internal/repository"
	"github.com/contracthub/engine/internal/services"
	"github.com/contracthub/engine/pkg/config"
	"github.com/contracthub/engine/pkg/database"
	"github.com/contracthub/engine/pkg/logger"
)

func main() {
	// Load configuration
	cfg := config.MustLoad()

	// Initialize logger
	log, err := logger.Init(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	log.Info("Starting ContractHub Engine",
		zap.String("env", cfg.AppEnv),
		zap.String("addr", cfg.HTTPAddr),
	)

	// Connect to database
	ctx := context.Background()
	db, err := database.OpenPostgres(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	log.Info("Database connected successfully")

	// Queue client for async imports and event publishing
	asynqClient := asynq.NewClient(asynq.RedisClientOpt{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       0,
	})
	defer asynqClient.Close()

	// Repositories
	programmeRepo := repository.NewProgrammeRepository(db)
	activityRepo := repository.NewActivityRepository(db)
	milestoneRepo := repository.NewMilestoneRepository(db)
	approvalRepo := repository.NewApprovalRepository(db)
	auditRepo := repository.NewAuditRepository(db)
	hierarchyRepo := repository.NewHierarchyRepository(db)
	policyRepo := repository.NewPolicyRepository(db)

	// Services
	publisher := events.NewAsynqPublisher(asynqClient)
	importSvc := services.NewImportService(programmeRepo, activityRepo, asynqClient, cfg.MaxImportBytes, cfg.ParseTimeout)
	milestoneSvc := services.NewMilestoneService(milestoneRepo)
	approvalSvc := services.NewApprovalService(
		approvalRepo, auditRepo, hierarchyRepo, policyRepo,
		services.NewImpactAnalyzer(nil), publisher,
		services.Thresholds{
			Auto:  cfg.AutoApproveMaxCost,
			Minor: cfg.MinorChangeMaxCost,
			PM:    cfg.PMApprovalMaxCost,
		},
	)
	hierarchySvc := services.NewHierarchyService(hierarchyRepo)
	policySvc := services.NewPolicyService(policyRepo)

	// Create router with dependencies
	router := api.NewRouter(api.Dependencies{
		HMACSecret:        []byte(cfg.JWTSecret),
		ProgrammesHandler: handlers.NewProgrammesHandler(importSvc, cfg.MaxImportBytes),
		MilestonesHandler: handlers.NewMilestonesHandler(milestoneSvc),
		ApprovalsHandler:  handlers.NewApprovalsHandler(approvalSvc),
		HierarchyHandler:  handlers.NewHierarchyHandler(hierarchySvc),
		PoliciesHandler:   handlers.NewPoliciesHandler(policySvc),
	})

	// Create HTTP server
	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       90 * time.Second,
	}

	// Start server in goroutine
	errCh := make(chan error, 1)
	go func() {
		log.Info("HTTP server starting", zap.String("addr", cfg.HTTPAddr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	// Graceful shutdown
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		log.Info("shutdown signal received", zap.String("signal", sig.String()))
	case err := <-errCh:
		log.Error("server error", zap.Error(err))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("server shutdown error", zap.Error(err))
	} else {
		log.Info("server exited gracefully")
	}
}
