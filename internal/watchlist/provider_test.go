package watchlist

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/veridian-labs/veridian/internal/common"
	"github.com/veridian-labs/veridian/internal/model"
	"github.com/veridian-labs/veridian/internal/storage"
)

// stubSource scripts Load results for provider tests.
type stubSource struct {
	entries []model.WatchlistEntry
	errs    []error
	calls   int
}

func (s *stubSource) Load(context.Context) ([]model.WatchlistEntry, error) {
	s.calls++
	if len(s.errs) > 0 {
		err := s.errs[0]
		s.errs = s.errs[1:]
		if err != nil {
			return nil, err
		}
	}
	return s.entries, nil
}

func (s *stubSource) Name() string { return "stub" }

func testEntries() []model.WatchlistEntry {
	return []model.WatchlistEntry{
		{ID: "E-1", Name: "jane smith", Source: "stub"},
		{ID: "E-2", Name: "viktor bout", Source: "stub"},
	}
}

func TestProviderRefreshSwapsSnapshot(t *testing.T) {
	source := &stubSource{entries: testEntries()}
	provider := NewProvider(source, nil)

	assert.Nil(t, provider.Current(), "no snapshot before the first refresh")

	require.NoError(t, provider.Refresh(context.Background()))

	snapshot := provider.Current()
	require.NotNil(t, snapshot)
	assert.Equal(t, 2, snapshot.Len())
	assert.Equal(t, "stub", snapshot.Source)
	assert.False(t, snapshot.LoadedAt.IsZero())
}

func TestProviderInFlightSnapshotSurvivesRefresh(t *testing.T) {
	source := &stubSource{entries: testEntries()}
	provider := NewProvider(source, nil)
	require.NoError(t, provider.Refresh(context.Background()))

	held := provider.Current()

	source.entries = testEntries()[:1]
	require.NoError(t, provider.Refresh(context.Background()))

	// The snapshot taken before the refresh is unchanged; only new readers
	// see the replacement.
	assert.Equal(t, 2, held.Len())
	assert.Equal(t, 1, provider.Current().Len())
}

func TestProviderRetriesTransientFailures(t *testing.T) {
	source := &stubSource{
		entries: testEntries(),
		errs: []error{
			&common.RetryableError{Err: errors.New("connection reset"), Retryable: true},
			nil,
		},
	}
	provider := NewProvider(source, nil)

	require.NoError(t, provider.Refresh(context.Background()))
	assert.Equal(t, 2, source.calls)
	assert.Equal(t, 2, provider.Current().Len())
}

func TestProviderDoesNotRetryPermanentFailures(t *testing.T) {
	source := &stubSource{
		errs: []error{errors.New("malformed payload")},
	}
	provider := NewProvider(source, nil)

	err := provider.Refresh(context.Background())
	require.Error(t, err)
	assert.Equal(t, 1, source.calls)
	assert.Nil(t, provider.Current(), "failed refresh must not install a snapshot")
}

func TestProviderCachesToStorage(t *testing.T) {
	store := storage.NewMemoryStorage()
	provider := NewProvider(&stubSource{entries: testEntries()}, store)
	ctx := context.Background()

	require.NoError(t, provider.Refresh(ctx))

	cached, err := store.GetWatchlistEntries(ctx)
	require.NoError(t, err)
	assert.Len(t, cached, 2)
}

func TestProviderRestoreFromCache(t *testing.T) {
	store := storage.NewMemoryStorage()
	ctx := context.Background()
	require.NoError(t, store.ReplaceWatchlist(ctx, "stub", testEntries()))

	provider := NewProvider(&stubSource{}, store)
	require.NoError(t, provider.RestoreFromCache(ctx))

	snapshot := provider.Current()
	require.NotNil(t, snapshot)
	assert.Equal(t, 2, snapshot.Len())
	assert.Equal(t, "cache", snapshot.Source)
}

func TestProviderRestoreFromEmptyCache(t *testing.T) {
	provider := NewProvider(&stubSource{}, storage.NewMemoryStorage())

	require.NoError(t, provider.RestoreFromCache(context.Background()))
	assert.Nil(t, provider.Current())
}
