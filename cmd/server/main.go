// Package main is the entry point for the asset platform: a project finance
// engine for a renewable energy portfolio. It sizes non-recourse debt, builds
// consolidated statements, runs the cash flow waterfall and reconstructs
// balance sheets, serving the results over HTTP.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/woodid012/renew-asset-platform-sub004/internal/config"
	"github.com/woodid012/renew-asset-platform-sub004/internal/database"
	"github.com/woodid012/renew-asset-platform-sub004/internal/events"
	"github.com/woodid012/renew-asset-platform-sub004/internal/modules/portfolio"
	"github.com/woodid012/renew-asset-platform-sub004/internal/modules/pricing"
	"github.com/woodid012/renew-asset-platform-sub004/internal/modules/projections"
	"github.com/woodid012/renew-asset-platform-sub004/internal/modules/snapshots"
	"github.com/woodid012/renew-asset-platform-sub004/internal/reliability"
	"github.com/woodid012/renew-asset-platform-sub004/internal/scheduler"
	"github.com/woodid012/renew-asset-platform-sub004/internal/server"
	"github.com/woodid012/renew-asset-platform-sub004/pkg/logger"
)

// snapshotRetainCount bounds how many run snapshots the cache database keeps.
const snapshotRetainCount = 30

func main() {
	cfg, err := config.Load()
	if err != nil {
		fallbackLog := logger.New(logger.Config{Level: "info", Pretty: true})
		fallbackLog.Fatal().Err(err).Msg("Failed to load configuration")
	}

	log := logger.New(logger.Config{
		Level:  cfg.LogLevel,
		Pretty: cfg.DevMode,
	})
	log.Info().Str("data_dir", cfg.DataDir).Int("port", cfg.Port).Msg("Starting platform")

	// Three-database layout: durable model inputs in portfolio and prices,
	// regenerable run snapshots in cache.
	portfolioDB := mustOpenDB(log, cfg.DataDir, "portfolio", database.ProfileStandard)
	defer portfolioDB.Close()
	pricesDB := mustOpenDB(log, cfg.DataDir, "prices", database.ProfileStandard)
	defer pricesDB.Close()
	cacheDB := mustOpenDB(log, cfg.DataDir, "cache", database.ProfileCache)
	defer cacheDB.Close()

	// Services
	hub := events.NewHub()
	portfolioSvc := portfolio.NewService(
		portfolio.NewAssetRepository(portfolioDB.Conn(), log),
		portfolio.NewProfileRepository(portfolioDB.Conn(), log),
		log,
	)
	pricingRepo := pricing.NewRepository(pricesDB.Conn(), log)
	snapshotStore := snapshots.NewStore(cacheDB.Conn(), log)
	projectionsSvc := projections.NewService(portfolioSvc, pricingRepo, snapshotStore, hub, log)

	// HTTP server
	srv := server.New(server.Config{
		Log:                log,
		Config:             cfg,
		PortfolioDB:        portfolioDB,
		PricesDB:           pricesDB,
		CacheDB:            cacheDB,
		PortfolioService:   portfolioSvc,
		PricingRepo:        pricingRepo,
		ProjectionsService: projectionsSvc,
		Hub:                hub,
	})

	// Background jobs
	allDBs := []*database.DB{portfolioDB, pricesDB, cacheDB}
	sched := scheduler.New(log)

	dailyJob := reliability.NewDailyMaintenanceJob(allDBs, snapshotStore, snapshotRetainCount, cfg.DataDir, log)
	if err := sched.AddJob("0 3 * * *", dailyJob); err != nil {
		log.Fatal().Err(err).Msg("Failed to register daily maintenance job")
	}

	weeklyJob := reliability.NewWeeklyMaintenanceJob(cacheDB, log)
	if err := sched.AddJob("0 4 * * 0", weeklyJob); err != nil {
		log.Fatal().Err(err).Msg("Failed to register weekly maintenance job")
	}

	if cfg.Backup.Enabled {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		s3Client, err := reliability.NewS3Client(
			ctx,
			cfg.Backup.Endpoint,
			cfg.Backup.Region,
			cfg.Backup.AccessKeyID,
			cfg.Backup.SecretAccessKey,
			cfg.Backup.Bucket,
			log,
		)
		cancel()
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to initialize backup client")
		}

		backupSvc := reliability.NewBackupService(s3Client, allDBs, cfg.DataDir, log)
		backupJob := reliability.NewBackupJob(backupSvc, cfg.Backup.RetainCount, hub, log)
		if err := sched.AddJob("30 2 * * *", backupJob); err != nil {
			log.Fatal().Err(err).Msg("Failed to register backup job")
		}
		log.Info().Str("bucket", cfg.Backup.Bucket).Msg("Cloud backups enabled")
	} else {
		log.Info().Msg("Cloud backups disabled")
	}

	sched.Start()
	defer sched.Stop()

	// Run the server until interrupted
	serverErr := make(chan error, 1)
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErr:
		log.Error().Err(err).Msg("HTTP server failed")
	case sig := <-quit:
		log.Info().Str("signal", sig.String()).Msg("Shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Graceful shutdown failed")
	}

	log.Info().Msg("Platform stopped")
}

// mustOpenDB opens and migrates one of the platform databases, exiting on
// failure. A platform without its databases has nothing to serve.
func mustOpenDB(log zerolog.Logger, dataDir, name string, profile database.DatabaseProfile) *database.DB {
	db, err := database.New(database.Config{
		Path:    filepath.Join(dataDir, name+".db"),
		Profile: profile,
		Name:    name,
	})
	if err != nil {
		log.Fatal().Err(err).Str("database", name).Msg("Failed to open database")
	}
	if err := db.Migrate(); err != nil {
		log.Fatal().Err(err).Str("database", name).Msg("Failed to migrate database")
	}
	return db
}
