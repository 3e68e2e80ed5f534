package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"dealcheck/internal/analysis"
	"dealcheck/internal/config"
	"dealcheck/internal/llm"
	"dealcheck/internal/serp"
	"dealcheck/internal/server"
	"dealcheck/internal/storage"
)

const (
	cachePruneInterval = 1 * time.Hour
	cacheMaxAge        = 30 * 24 * time.Hour
)

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	cfg := config.Load()

	if cfg.Gemini.APIKey == "" {
		log.Fatal().Msg("GEMINI_API_KEY is not set")
	}
	if cfg.Serp.APIKey == "" {
		log.Warn().Msg("SERP_API_KEY is not set, price search disabled")
	}

	// Cancel on SIGINT or SIGTERM.
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	var store storage.Store
	if cfg.DBPath != "" {
		sqliteStore, err := storage.NewSQLiteStore(cfg.DBPath)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to initialize store")
		}
		defer sqliteStore.Close()
		store = sqliteStore
		log.Info().Str("dbPath", cfg.DBPath).Msg("store initialized")
	}

	gemini, err := llm.NewGemini(ctx, cfg.Gemini.APIKey)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize gemini client")
	}

	var identifier analysis.ProductIdentifier = gemini
	if store != nil {
		identifier = llm.NewCachedIdentifier(gemini, store)
		log.Info().Msg("product identification caching enabled")
	}

	searcher := serp.NewClient(serp.ClientOpts{
		APIKey:  cfg.Serp.APIKey,
		Country: cfg.Serp.Country,
		Lang:    cfg.Serp.Lang,
	})

	analyzer := analysis.New(identifier, searcher, gemini, cfg.Gemini.StageTimeout)
	srv := server.New(cfg.Server, analyzer, store)

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Info().Str("host", cfg.Server.Host).Int("port", cfg.Server.Port).Msg("listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if store != nil {
		g.Go(func() error {
			runCachePruner(ctx, store)
			return nil
		})
	}

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		log.Error().Err(err).Msg("shutdown with error")
	} else {
		log.Info().Msg("shutdown complete")
	}
}

// runCachePruner periodically drops stale product identifications so the
// cache doesn't grow without bound.
func runCachePruner(ctx context.Context, store storage.Store) {
	ticker := time.NewTicker(cachePruneInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			pruned, err := store.PruneProductCache(cacheMaxAge)
			if err != nil {
				log.Warn().Err(err).Msg("failed to prune product cache")
			} else if pruned > 0 {
				log.Info().Int64("pruned", pruned).Msg("pruned product cache")
			}
		}
	}
}
