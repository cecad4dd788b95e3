package app

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"

	"github.com/meterwise/creditledger/internal/config"
	"github.com/meterwise/creditledger/internal/db"
	internalhttp "github.com/meterwise/creditledger/internal/http"
	"github.com/meterwise/creditledger/internal/http/api"
	"github.com/meterwise/creditledger/internal/identity"
	"github.com/meterwise/creditledger/internal/ledger"
	"github.com/meterwise/creditledger/internal/logging"
	"github.com/meterwise/creditledger/internal/plan"
)

const shutdownGrace = 10 * time.Second

// Migrate opens the database and runs migrations.
func Migrate(ctx context.Context, configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	logging.Setup(cfg.Log)
	conn, err := db.Open(cfg.Database.DSN)
	if err != nil {
		return err
	}
	return db.Migrate(conn)
}

// RunServer boots the ledger API server with database-backed components
// and blocks until the context is cancelled.
func RunServer(ctx context.Context, configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	logging.Setup(cfg.Log)

	conn, err := db.Open(cfg.Database.DSN)
	if err != nil {
		return err
	}
	if errMigrate := db.Migrate(conn); errMigrate != nil {
		return errMigrate
	}

	engine := ledger.NewEngine(conn, identity.NewGormDirectory(conn), plan.NewGormEntitlements(conn), engineConfig(cfg.Ledger))

	sweepInterval := time.Duration(cfg.Ledger.SweepIntervalMinutes) * time.Minute
	if sweeper := ledger.NewSweeper(conn, engine, sweepInterval); sweeper != nil {
		sweeper.Start(ctx)
	}

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery(), internalhttp.RequestIDMiddleware())
	api.RegisterLedgerRoutes(router, conn, engine)

	server := &http.Server{
		Addr:              cfg.Server.Listen,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Infof("listening on %s", cfg.Server.Listen)
		errCh <- server.ListenAndServe()
	}()

	select {
	case errServe := <-errCh:
		if errServe != nil && !errors.Is(errServe, http.ErrServerClosed) {
			return errServe
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
	defer cancel()
	if errShutdown := server.Shutdown(shutdownCtx); errShutdown != nil {
		log.WithError(errShutdown).Warn("server shutdown")
		return errShutdown
	}
	log.Info("server stopped")
	return nil
}

// engineConfig maps config tuning onto engine options, leaving zero values
// for the engine defaults to fill.
func engineConfig(cfg config.LedgerConfig) ledger.Config {
	return ledger.Config{
		MaxAttempts:  cfg.RetryAttempts,
		RetryBackoff: time.Duration(cfg.RetryBackoffMS) * time.Millisecond,
		OpTimeout:    time.Duration(cfg.OpTimeoutMS) * time.Millisecond,
	}
}
