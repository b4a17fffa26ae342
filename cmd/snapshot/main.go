package main

import (
	"context"
	"database/sql"
	"os"
	"os/signal"
	"syscall"

	_ "github.com/go-sql-driver/mysql"
	"github.com/rs/zerolog/log"

	"listings_portal/internal/adapters/bitrix"
	"listings_portal/internal/adapters/observability"
	"listings_portal/internal/app"
	"listings_portal/internal/shared"
	mysqlrepo "listings_portal/internal/storage/mysql"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := shared.Load()
	// 1) initialize global logger (console in dev, JSON otherwise)
	log.Logger = observability.NewLogger(cfg.AppEnv)
	if err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}
	if cfg.MySQLDSN == "" {
		log.Fatal().Str("key", "MYSQL_DSN").Msg("snapshot needs an archive database")
	}

	log.Info().
		Int("entity_type_id", cfg.Layout.EntityTypeID).
		Int("workers", cfg.SnapshotWorkers).
		Msg("snapshot starting")

	db, err := sql.Open("mysql", cfg.MySQLDSN)
	if err != nil {
		log.Fatal().Err(err).Msg("sql.Open failed")
	}
	defer db.Close()
	if err := db.PingContext(ctx); err != nil {
		log.Fatal().Err(err).Msg("db.Ping failed")
	}
	log.Info().Msg("db ping ok")

	client, err := bitrix.New(cfg.WebhookURL, cfg.BitrixRPS, cfg.CRMTimeout)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize Bitrix client")
	}
	repo := app.NewListingRepository(client, cfg.Layout, cfg.CRMTimeout)

	svc := app.NewSnapshotService(repo, mysqlrepo.New(db), cfg.SnapshotWorkers)
	res, err := svc.Run(ctx)
	ev := log.Info()
	if err != nil {
		ev = log.Error().Err(err)
	}
	ev.Str("run", res.RunID).
		Int("stored", res.Stored).
		Int("skipped", res.Skipped).
		Int("failed", res.Failed).
		Msg("snapshot completed")
	if err != nil {
		os.Exit(1)
	}
}
