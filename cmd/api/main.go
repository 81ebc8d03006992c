package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/rs/zerolog/log"

	"review_enrichment/internal/adapters/cognitive"
	server "review_enrichment/internal/adapters/http_server"
	"review_enrichment/internal/adapters/observability"
	redisad "review_enrichment/internal/adapters/redis"
	"review_enrichment/internal/adapters/yelp"
	"review_enrichment/internal/app"
	"review_enrichment/internal/shared"
	mysqlrepo "review_enrichment/internal/storage/mysql"
)

func main() {
	cfg := shared.Load()

	// set global logger (console in dev, JSON otherwise)
	log.Logger = observability.NewLogger(cfg.AppEnv, "api", cfg.LogLevel)

	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("config")
	}

	reg := observability.InitRegistry()
	metricsSrv := observability.Serve(cfg.MetricsAddr, reg)

	// db
	db, err := sql.Open("mysql", cfg.MySQLDSN)
	if err != nil {
		log.Fatal().Err(err).Msg("sql.Open failed")
	}
	if err := db.Ping(); err != nil {
		log.Fatal().Err(err).Msg("db.Ping failed")
	}
	log.Info().Msg("database connection ok")

	// deps
	repo := mysqlrepo.New(db)
	rdb := redisad.NewClient(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)
	defer rdb.Close()
	cache := redisad.NewCache(rdb)

	dir, err := yelp.New(cfg.YelpBase, cfg.YelpClientID, cfg.YelpClientSecret, cfg.YelpRPS, cfg.DirectoryTimeout)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize directory client")
	}
	vision, err := cognitive.NewVisionClient(cfg.VisionURL, cfg.VisionKey, cfg.ClassifierTimeout)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize vision client")
	}
	pipe := app.NewEnrichmentPipeline(repo, vision,
		cognitive.NewEmotionClient(cfg.EmotionURL, cfg.EmotionKey, cfg.ClassifierTimeout),
		cognitive.NewSentimentClient(cfg.SentimentURL, cfg.SentimentKey, cfg.ClassifierTimeout),
		app.WithWorkers(cfg.EnrichWorkers),
		app.WithLocker(redisad.NewLocker(rdb), cfg.EnrichLockTTL),
	)
	q := app.NewQueryService(repo, cache, cfg.CacheTTL)
	lookup := app.NewLookupService(dir, repo, cache, pipe)

	// http
	srv := server.New(cfg.HTTPTimeout)
	srv.Mount("/metrics", observability.MetricsHandler(reg))
	srv.MountHandlers(&server.Handlers{Q: q, L: lookup})

	httpSrv := &http.Server{Addr: cfg.HTTPAddr, Handler: srv.Mux(), ReadHeaderTimeout: 5 * time.Second}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = httpSrv.Shutdown(shutdownCtx)
		if metricsSrv != nil {
			_ = metricsSrv.Shutdown(shutdownCtx)
		}
	}()

	log.Info().Str("addr", cfg.HTTPAddr).Msg("API listening")
	if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatal().Err(err).Msg("http server failed")
	}
	log.Info().Msg("API stopped")
}
