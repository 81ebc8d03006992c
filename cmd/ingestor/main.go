package main

import (
	"context"
	"database/sql"
	"os/signal"
	"sync"
	"sync/atomic"
	"syscall"

	_ "github.com/go-sql-driver/mysql"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/semaphore"

	"review_enrichment/internal/adapters/cognitive"
	"review_enrichment/internal/adapters/observability"
	redisad "review_enrichment/internal/adapters/redis"
	"review_enrichment/internal/adapters/yelp"
	"review_enrichment/internal/app"
	"review_enrichment/internal/shared"
	mysqlrepo "review_enrichment/internal/storage/mysql"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	cfg := shared.Load()

	// 1) initialize global logger (console in dev, JSON otherwise)
	log.Logger = observability.NewLogger(cfg.AppEnv, "ingestor", cfg.LogLevel)

	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("config")
	}
	if srv := observability.Serve(cfg.MetricsAddr, observability.InitRegistry()); srv != nil {
		defer srv.Close()
	}

	log.Info().
		Str("base", cfg.YelpBase).
		Int("workers", cfg.IngestWorkers).
		Strs("seed_ids", cfg.BusinessIDs).
		Msg("ingestor starting")

	db, err := sql.Open("mysql", cfg.MySQLDSN)
	if err != nil {
		log.Fatal().Err(err).Msg("sql.Open failed")
	}
	if err := db.Ping(); err != nil {
		log.Fatal().Err(err).Msg("db.Ping failed")
	}
	log.Info().Msg("db ping ok")

	repo := mysqlrepo.New(db)
	rdb := redisad.NewClient(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)
	defer rdb.Close()

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
	ls := app.NewLookupService(dir, repo, redisad.NewCache(rdb), pipe)

	ids := targets(ctx, ls, cfg)
	sem := semaphore.NewWeighted(int64(cfg.IngestWorkers))
	var (
		wg     sync.WaitGroup
		failed atomic.Int32
	)

	for _, id := range ids {
		// acquire before launching the goroutine; release inside it
		if err := sem.Acquire(ctx, 1); err != nil {
			log.Warn().Err(err).Msg("ingestion interrupted")
			break
		}

		wg.Add(1)
		go func(yelpID string) {
			defer wg.Done()
			defer sem.Release(1)

			res, err := ls.Lookup(ctx, yelpID)
			if err != nil {
				failed.Add(1)
				log.Warn().Str("yelp_id", yelpID).Err(err).Msg("lookup failed")
				return
			}
			log.Info().
				Str("yelp_id", yelpID).
				Str("business", string(res.BusinessOutcome)).
				Int("reviews_inserted", res.Reviews.Inserted).
				Int("reviews_failed", res.Reviews.Failed).
				Int("enriched", res.Enrichment.Complete+res.Enrichment.Partial).
				Int("enrich_failed", res.Enrichment.Failed).
				Msg("lookup ok")
		}(id)
	}

	wg.Wait()
	log.Info().Int("businesses", len(ids)).Int32("failed", failed.Load()).Msg("ingestion completed")
}

// targets merges the seed ids with the ids found by the configured search.
func targets(ctx context.Context, ls *app.LookupService, cfg shared.Config) []string {
	seen := map[string]bool{}
	var out []string
	add := func(id string) {
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	for _, id := range cfg.BusinessIDs {
		add(id)
	}
	if cfg.SearchLimit > 0 && cfg.SearchTerm != "" {
		found, err := ls.Discover(ctx, cfg.SearchTerm, cfg.SearchLocation, cfg.SearchLimit)
		if err != nil {
			log.Warn().Err(err).Str("term", cfg.SearchTerm).Msg("search failed; using seed ids only")
		}
		for _, id := range found {
			add(id)
		}
	}
	return out
}
