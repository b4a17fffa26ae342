package main

import (
	"context"
	"database/sql"
	"net/http"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/rs/zerolog/log"

	"listings_portal/internal/adapters/bitrix"
	server "listings_portal/internal/adapters/http_server"
	"listings_portal/internal/adapters/observability"
	redisad "listings_portal/internal/adapters/redis"
	"listings_portal/internal/app"
	"listings_portal/internal/domain"
	"listings_portal/internal/shared"
	mysqlrepo "listings_portal/internal/storage/mysql"
)

func main() {
	cfg, err := shared.Load()
	// set global logger (console in dev, JSON otherwise)
	log.Logger = observability.NewLogger(cfg.AppEnv)
	if err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}

	reg := observability.InitRegistry()
	observability.Serve(cfg.MetricsAddr, reg)

	client, err := bitrix.New(cfg.WebhookURL, cfg.BitrixRPS, cfg.CRMTimeout)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize Bitrix client")
	}
	repo := app.NewListingRepository(client, cfg.Layout, cfg.CRMTimeout)

	var cache domain.Cache
	if cfg.RedisAddr != "" {
		rc := redisad.New(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)
		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		if err := rc.Ping(ctx); err != nil {
			log.Warn().Err(err).Str("addr", cfg.RedisAddr).Msg("redis unreachable; serving without cache")
		} else {
			cache = rc
			log.Info().Str("addr", cfg.RedisAddr).Dur("ttl", cfg.CacheTTL).Msg("redis cache enabled")
		}
		cancel()
	}
	q := app.NewQueryService(repo, cache, cfg.CacheTTL)

	h := &server.Handlers{Q: q}
	if cfg.MySQLDSN != "" {
		db, err := sql.Open("mysql", cfg.MySQLDSN)
		if err != nil {
			log.Fatal().Err(err).Msg("sql.Open failed")
		}
		if err := db.Ping(); err != nil {
			log.Fatal().Err(err).Msg("db.Ping failed")
		}
		log.Info().Msg("database connection ok; archive routes enabled")
		h.Archive = mysqlrepo.New(db)
	}

	// http
	srv := server.New(server.Options{
		RequestTimeout: cfg.CRMTimeout + 10*time.Second,
		RatePerMinute:  cfg.HTTPRatePerMin,
	})
	srv.Mount("/metrics", observability.MetricsHandler(reg))
	srv.MountHandlers(h)

	log.Info().
		Str("addr", cfg.HTTPAddr).
		Int("entity_type_id", cfg.Layout.EntityTypeID).
		Msg("API listening")
	httpSrv := &http.Server{Addr: cfg.HTTPAddr, Handler: srv.Mux(), ReadHeaderTimeout: 5 * time.Second}

	if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatal().Err(err).Msg("http server failed")
	}
}
