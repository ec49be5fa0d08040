package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/viper"

	"github.com/veridian-labs/veridian/internal/audit"
	"github.com/veridian-labs/veridian/internal/canonical"
	"github.com/veridian-labs/veridian/internal/config"
	"github.com/veridian-labs/veridian/internal/match"
	"github.com/veridian-labs/veridian/internal/metrics"
	"github.com/veridian-labs/veridian/internal/resolve"
	"github.com/veridian-labs/veridian/internal/screen"
	"github.com/veridian-labs/veridian/internal/service"
	"github.com/veridian-labs/veridian/internal/storage"
	"github.com/veridian-labs/veridian/internal/verify"
	"github.com/veridian-labs/veridian/internal/watchlist"
)

// loadConfig reads and validates the application configuration.
func loadConfig() (config.Config, error) {
	return config.Load(viper.GetViper())
}

// initStorage opens the SQLite database and applies pending migrations.
func initStorage(ctx context.Context, cfg config.Config) (service.Storage, error) {
	store, err := storage.NewSQLiteStorage(cfg.DatabasePath)
	if err != nil {
		return nil, err
	}

	if err := store.Migrate(ctx); err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return store, nil
}

// initWatchlist builds a snapshot provider for the configured source,
// preferring a remote URL over a local file and falling back to the cached
// snapshot when the source is unreachable.
func initWatchlist(ctx context.Context, cfg config.Config, store service.Storage) (service.WatchlistProvider, error) {
	var source service.WatchlistSource
	switch {
	case cfg.WatchlistURL != "":
		source = watchlist.NewHTTPSource(cfg.WatchlistURL, nil)
	case cfg.WatchlistPath != "":
		source = watchlist.NewFileSource(cfg.WatchlistPath)
	default:
		return nil, fmt.Errorf("no watchlist configured: set watchlist_path or watchlist_url")
	}

	provider := watchlist.NewProvider(source, store)
	if err := provider.Refresh(ctx); err != nil {
		if restoreErr := provider.RestoreFromCache(ctx); restoreErr != nil || provider.Current() == nil {
			return nil, fmt.Errorf("failed to load watchlist: %w", err)
		}
	}
	return provider, nil
}

// buildVerifier wires the full pipeline: canonicalizer, resolver seeded from
// storage, screening engine, audit log and watchlist provider.
func buildVerifier(ctx context.Context, cfg config.Config, store service.Storage, provider service.WatchlistProvider) (*verify.Verifier, error) {
	scorer := match.NameScorer{}
	hasher, err := canonical.HasherFor(cfg.DigestAlgorithm)
	if err != nil {
		return nil, err
	}
	canon := canonical.New(hasher)

	resolver := resolve.New(scorer, resolve.Config{
		MergeThreshold: cfg.Thresholds.Merge,
		Weights: resolve.Weights{
			Name:        cfg.Weights.Name,
			DateOfBirth: cfg.Weights.DateOfBirth,
			Nationality: cfg.Weights.Nationality,
			Document:    cfg.Weights.Document,
		},
	})
	entities, err := store.GetAllEntities(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load entities: %w", err)
	}
	resolver.Seed(entities)

	screener := screen.New(scorer, screen.Config{
		MatchThreshold:   cfg.Thresholds.Match,
		FloorThreshold:   cfg.Thresholds.Floor,
		NationalityBoost: screen.DefaultConfig().NationalityBoost,
	})

	auditLog, err := audit.NewLog(ctx, store, canon.Hasher())
	if err != nil {
		return nil, err
	}

	if cfg.MetricsAddr != "" {
		go serveMetrics(ctx, cfg.MetricsAddr)
	}

	return verify.New(canon, resolver, screener, auditLog, provider, verify.Options{
		Storage: store,
		Metrics: metrics.New(),
	}), nil
}

// serveMetrics exposes the default Prometheus registry over HTTP until the
// command context is cancelled.
func serveMetrics(ctx context.Context, addr string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	server := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()

	slog.Info("Serving metrics", "addr", addr)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Warn("Metrics server stopped", "error", err)
	}
}
