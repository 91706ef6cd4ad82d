package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq"

	"github.com/api-sage/core-banking-ledger/src/internal/adapter/http/controller"
	"github.com/api-sage/core-banking-ledger/src/internal/adapter/http/middleware"
	"github.com/api-sage/core-banking-ledger/src/internal/adapter/http/router"
	"github.com/api-sage/core-banking-ledger/src/internal/adapter/repository/implementations"
	"github.com/api-sage/core-banking-ledger/src/internal/config"
	"github.com/api-sage/core-banking-ledger/src/internal/usecase/services"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	startupCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := implementations.RunMigrations(startupCtx, cfg.DatabaseDSN, cfg.MigrationsDir); err != nil {
		log.Fatalf("run migrations: %v", err)
	}

	db, err := implementations.Open(startupCtx, cfg.DatabaseDSN)
	if err != nil {
		log.Fatalf("open database: %v", err)
	}
	defer db.Close()

	accountRepo := implementations.NewAccountRepository(db)
	transactionRepo := implementations.NewTransactionRepository(db)
	fraudEventRepo := implementations.NewFraudEventRepository(db)
	auditLogRepo := implementations.NewAuditLogRepository(db)

	auditService := services.NewAuditService(auditLogRepo)
	auditService.Start()

	fraudService := services.NewFraudService(
		fraudEventRepo,
		transactionRepo,
		cfg.DailyTransferLimit,
		cfg.RapidTransferThreshold,
		cfg.RapidTransferWindowMinutes,
	)
	accountService := services.NewAccountService(accountRepo, auditService)
	transferService := services.NewTransferService(accountRepo, transactionRepo, fraudService, auditService)

	channelAuth := middleware.ChannelAuth(cfg.ChannelID, cfg.ChannelKeyHash)
	authMiddleware := func(next http.Handler) http.Handler {
		return channelAuth(middleware.ActorContext(next))
	}

	mux := router.New(
		controller.NewAccountController(accountService),
		controller.NewTransferController(transferService),
		controller.NewAdminController(transferService, fraudService, auditService),
		authMiddleware,
	)

	server := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		log.Printf("listening on %s", cfg.HTTPAddr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("serve: %v", err)
		}
	}()

	<-ctx.Done()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("http shutdown: %v", err)
	}

	// Drain queued audit entries before the process exits; accepted entries
	// must not be lost to shutdown.
	auditService.Stop()
}
