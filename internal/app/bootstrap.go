// Package app is the composition root. Bootstrap stays orchestration-only;
// behavior lives in the packages it wires together.
package app

import (
	"context"
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/riverqueue/river"

	"approvalhub.io/approvalhub/internal/api/handlers"
	"approvalhub.io/approvalhub/internal/api/middleware"
	"approvalhub.io/approvalhub/internal/config"
	"approvalhub.io/approvalhub/internal/infrastructure"
	"approvalhub.io/approvalhub/internal/jobs"
	"approvalhub.io/approvalhub/internal/notification"
	"approvalhub.io/approvalhub/internal/pkg/worker"
	"approvalhub.io/approvalhub/internal/repository"
	"approvalhub.io/approvalhub/internal/service"
	"approvalhub.io/approvalhub/internal/usecase"
)

// Application holds composed application dependencies.
type Application struct {
	Config *config.Config
	Router *gin.Engine
	DB     *infrastructure.DatabaseClients
	Pools  *worker.Pools
}

// Bootstrap initializes all dependencies with manual DI.
func Bootstrap(ctx context.Context, cfg *config.Config) (*Application, error) {
	db, err := infrastructure.NewDatabaseClients(ctx, cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("init database: %w", err)
	}

	pools, err := worker.NewPools(ctx, worker.PoolConfig{
		GeneralPoolSize: cfg.Worker.GeneralPoolSize,
		NotifyPoolSize:  cfg.Worker.NotifyPoolSize,
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("init worker pools: %w", err)
	}

	approvalRepo := repository.NewApprovalRepository(db.Pool)
	historyRepo := repository.NewHistoryRepository(db.Pool)
	userRepo := repository.NewUserRepository(db.Pool)
	sender := notification.NewLogSender(pools)

	workers := river.NewWorkers()
	river.AddWorker(workers, jobs.NewDecisionNotifyWorker(approvalRepo, sender))
	river.AddWorker(workers, jobs.NewPendingReminderWorker(approvalRepo, sender, cfg.Approval.PendingReminderAge))

	queues := map[string]river.QueueConfig{
		river.QueueDefault:      {MaxWorkers: cfg.River.MaxWorkers},
		jobs.QueueNotifications: {MaxWorkers: cfg.River.MaxWorkers},
	}
	if err := db.InitRiver(workers, queues); err != nil {
		pools.Shutdown()
		db.Close()
		return nil, fmt.Errorf("init river workers: %w", err)
	}

	if cfg.Database.AutoMigrate {
		if err := db.AutoMigrate(ctx); err != nil {
			pools.Shutdown()
			db.Close()
			return nil, fmt.Errorf("auto-migrate: %w", err)
		}
	}

	// Stale-approval reminders run on a fixed period; RunOnStart would spam
	// approvers on every deploy.
	db.RiverClient.PeriodicJobs().Add(
		river.NewPeriodicJob(
			river.PeriodicInterval(cfg.Approval.PendingReminderInterval),
			func() (river.JobArgs, *river.InsertOpts) {
				return jobs.PendingReminderArgs{}, nil
			},
			nil,
		),
	)

	writer := usecase.NewDecisionWriter(db.Pool, db.RiverClient, approvalRepo, historyRepo)
	approvalService := service.NewApprovalService(writer, approvalRepo, historyRepo, cfg.Approval.MaxLevels)

	jwtCfg := middleware.JWTConfig{
		SigningKey: []byte(cfg.Security.JWTSecret),
		Issuer:     cfg.Security.JWTIssuer,
		ExpiresIn:  cfg.Security.JWTExpiresIn,
	}

	server := handlers.NewServer(handlers.ServerDeps{
		Approvals: approvalService,
		Users:     userRepo,
		Pool:      db.Pool,
		JWTCfg:    jwtCfg,
	})

	return &Application{
		Config: cfg,
		Router: newRouter(cfg, server, jwtCfg.SigningKey),
		DB:     db,
		Pools:  pools,
	}, nil
}
