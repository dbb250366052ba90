package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	httpadp "fanders-backend/internal/adapter/http"
	appmw "fanders-backend/internal/adapter/middleware"
	"fanders-backend/internal/adapter/repository/gormrepo"
	"fanders-backend/internal/config"
	"fanders-backend/internal/domain/loan/calculator"
	"fanders-backend/internal/infrastructure/cache"
	"fanders-backend/internal/infrastructure/db"
	"fanders-backend/internal/infrastructure/logger"
	"fanders-backend/internal/infrastructure/metrics"
	"fanders-backend/internal/infrastructure/scheduler"
	"fanders-backend/internal/infrastructure/storage"
	"fanders-backend/internal/usecase/approval"
	"fanders-backend/internal/usecase/audit"
	"fanders-backend/internal/usecase/auth"
	"fanders-backend/internal/usecase/blotter"
	"fanders-backend/internal/usecase/client"
	"fanders-backend/internal/usecase/collection"
	"fanders-backend/internal/usecase/loan"
	"fanders-backend/internal/usecase/payment"
	"fanders-backend/internal/usecase/report"
	"fanders-backend/internal/usecase/slr"
)

func main() {
	cfg := config.Load()
	log := logger.New(cfg.LogLevel, cfg.LogFormat)
	if err := cfg.Validate(); err != nil {
		log.WithError(err).Fatal("invalid configuration")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	gdb, err := db.OpenGorm(ctx, cfg.DBOptions(), log)
	if err != nil {
		log.WithError(err).Fatal("database unavailable")
	}
	if err := gormrepo.AutoMigrate(gdb); err != nil {
		log.WithError(err).Fatal("migrate")
	}
	if err := gormrepo.SeedRules(ctx, gdb); err != nil {
		log.WithError(err).Fatal("seed SLR rules")
	}
	sqlDB, err := gdb.DB()
	if err != nil {
		log.WithError(err).Fatal("sql handle")
	}
	defer sqlDB.Close()

	rdb, err := cache.OpenRedis(ctx, cache.RedisOptions{
		Addr: cfg.RedisAddr, Password: cfg.RedisPassword, DB: cfg.RedisDB,
	})
	if err != nil {
		log.WithError(err).Fatal("redis unavailable")
	}
	defer rdb.Close()

	store, err := storage.NewFileStore(cfg.StorageDir)
	if err != nil {
		log.WithError(err).Fatal("document storage")
	}

	users := gormrepo.NewUserRepository(gdb)
	clients := gormrepo.NewClientRepository(gdb)
	loans := gormrepo.NewLoanRepository(gdb)
	approvals := gormrepo.NewApprovalRepository(gdb)
	payments := gormrepo.NewPaymentRepository(gdb)
	tx := gormrepo.NewGormUoW(gdb)
	rec := audit.NewRecorder(gormrepo.NewAuditRepository(gdb), log)

	blotterUC := blotter.NewUsecase(gormrepo.NewBlotterRepository(gdb), tx, cfg.AlertThreshold, rec, log)
	slrUC := slr.NewUsecase(gormrepo.NewSLRRepository(gdb), loans, clients, store, rec, log)
	loanUC := loan.NewUsecase(loan.Deps{
		Loans:      loans,
		Clients:    clients,
		Payments:   payments,
		UoW:        tx,
		Calculator: calculator.New(cfg.LoanLimits()),
		SLR:        slrUC,
		Blotter:    blotterUC,
		Audit:      rec,
		Log:        log,
	})
	paymentUC := payment.NewUsecase(loans, payments, tx, blotterUC, rec, log)
	clientUC := client.NewUsecase(clients, loans, cache.NewJSON(rdb, "fanders:"), rec, log)
	authUC := auth.NewUsecase(users, cfg.JWTSecret, cfg.JWTTTL, rec, log)

	if cfg.AdminPassword != "" {
		if _, err := authUC.EnsureDefaultAdmin(ctx, cfg.AdminUsername, cfg.AdminPassword); err != nil {
			log.WithError(err).Fatal("seed default admin")
		}
	}

	jobs := scheduler.New(log, time.Minute)
	if err := jobs.Add("blotter_refresh", cfg.BlotterCron, blotterUC.RefreshToday); err != nil {
		log.WithError(err).Fatal("schedule blotter refresh")
	}
	jobs.Start()

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(middleware.Recover(), middleware.RequestID(), appmw.RequestLogger(log), metrics.Middleware())
	e.GET("/metrics", echo.WrapHandler(metrics.Handler()))

	httpadp.Register(e, httpadp.Deps{
		Auth:        authUC,
		Clients:     clientUC,
		Loans:       loanUC,
		Approvals:   approval.NewUsecase(loans, approvals, tx, slrUC, rec, log),
		Payments:    paymentUC,
		Collections: collection.NewUsecase(gormrepo.NewCollectionRepository(gdb), tx, paymentUC, rec, log),
		Blotter:     blotterUC,
		SLR:         slrUC,
		Reports: report.NewUsecase(report.Deps{
			Loans:       loans,
			Clients:     clients,
			Payments:    payments,
			LoanStats:   loanUC,
			ClientStats: clientUC,
			Cash:        blotterUC,
			Decisions:   approvals,
			Log:         log,
		}),
		Audit: rec,
		Checks: map[string]httpadp.Check{
			"db":    sqlDB.PingContext,
			"redis": cache.Probe(rdb),
		},
		Redis:          rdb,
		IdempotencyTTL: cfg.IdempotencyTTL(),
		Log:            log,
	})

	addr := ":" + cfg.AppPort
	go func() {
		log.WithField("addr", addr).Info("listening")
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Fatal("server stopped")
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Warn("http shutdown")
	}
	jobs.Stop(shutdownCtx)
}
