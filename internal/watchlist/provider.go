package watchlist

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/veridian-labs/veridian/internal/common"
	"github.com/veridian-labs/veridian/internal/model"
	"github.com/veridian-labs/veridian/internal/service"
)

// Provider hands out internally-consistent watchlist snapshots. A refresh
// builds a complete new snapshot and swaps it atomically, so in-flight
// screening calls keep reading the snapshot they started with.
type Provider struct {
	source service.WatchlistSource
	store  service.Storage
	snap   atomic.Pointer[model.WatchlistSnapshot]
	retry  service.RetryOptions
}

// NewProvider creates a provider over a source. A non-nil store caches each
// refreshed snapshot so the service can start offline.
func NewProvider(source service.WatchlistSource, store service.Storage) *Provider {
	return &Provider{
		source: source,
		store:  store,
		retry: service.RetryOptions{
			MaxAttempts:  3,
			InitialDelay: 500 * time.Millisecond,
		},
	}
}

// Current returns the latest snapshot. It may be nil before the first
// successful refresh; screening treats a nil snapshot as an empty watchlist.
func (p *Provider) Current() *model.WatchlistSnapshot {
	return p.snap.Load()
}

// Refresh loads entries from the source and swaps in a new snapshot.
// Transient source failures are retried with backoff.
func (p *Provider) Refresh(ctx context.Context) error {
	var entries []model.WatchlistEntry
	err := common.WithRetry(ctx, func() error {
		var loadErr error
		entries, loadErr = p.source.Load(ctx)
		return loadErr
	}, p.retry)
	if err != nil {
		return err
	}

	snapshot := &model.WatchlistSnapshot{
		Entries:  entries,
		Source:   p.source.Name(),
		LoadedAt: time.Now().UTC(),
	}
	p.snap.Store(snapshot)

	if p.store != nil {
		if err := p.store.ReplaceWatchlist(ctx, p.source.Name(), entries); err != nil {
			slog.Warn("Failed to cache watchlist snapshot", "source", p.source.Name(), "error", err)
		}
	}

	slog.Info("Watchlist refreshed", "source", p.source.Name(), "entries", len(entries))
	return nil
}

// RestoreFromCache loads the last cached snapshot from storage, for starting
// up when the source is unreachable.
func (p *Provider) RestoreFromCache(ctx context.Context) error {
	if p.store == nil {
		return nil
	}
	entries, err := p.store.GetWatchlistEntries(ctx)
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		return nil
	}
	p.snap.Store(&model.WatchlistSnapshot{
		Entries:  entries,
		Source:   "cache",
		LoadedAt: time.Now().UTC(),
	})
	return nil
}
