package watchlist

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"

	"github.com/veridian-labs/veridian/internal/common"
	"github.com/veridian-labs/veridian/internal/model"
)

// HTTPSource fetches a JSON watchlist from a remote screening data provider.
// Calls run through a circuit breaker so a flapping provider fails fast, and
// a rate limiter so refresh loops cannot hammer it.
type HTTPSource struct {
	url     string
	client  *http.Client
	breaker *gobreaker.CircuitBreaker
	limiter *rate.Limiter
}

// NewHTTPSource creates a source for the given URL. A nil client uses a
// 30-second-timeout default.
func NewHTTPSource(url string, client *http.Client) *HTTPSource {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	return &HTTPSource{
		url:    url,
		client: client,
		breaker: gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:    "watchlist-source",
			Timeout: 60 * time.Second,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= 3
			},
		}),
		limiter: rate.NewLimiter(rate.Every(10*time.Second), 1),
	}
}

// Name identifies the source in logs and the storage cache.
func (s *HTTPSource) Name() string {
	return "http:" + s.url
}

// Load fetches and parses the remote watchlist.
func (s *HTTPSource) Load(ctx context.Context) ([]model.WatchlistEntry, error) {
	if err := s.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	result, err := s.breaker.Execute(func() (any, error) {
		return s.fetch(ctx)
	})
	if err != nil {
		if err == gobreaker.ErrOpenState || err == gobreaker.ErrTooManyRequests {
			return nil, fmt.Errorf("%w: circuit open", common.ErrWatchlistUnavailable)
		}
		return nil, err
	}

	entries, ok := result.([]model.WatchlistEntry)
	if !ok {
		return nil, fmt.Errorf("unexpected watchlist payload type %T", result)
	}
	return entries, nil
}

func (s *HTTPSource) fetch(ctx context.Context) ([]model.WatchlistEntry, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build watchlist request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, &common.RetryableError{
			Err:       fmt.Errorf("%w: %w", common.ErrWatchlistUnavailable, err),
			Retryable: true,
		}
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		retryable := resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests
		return nil, &common.RetryableError{
			Err:       fmt.Errorf("%w: status %d", common.ErrWatchlistUnavailable, resp.StatusCode),
			Retryable: retryable,
		}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read watchlist response: %w", err)
	}

	var entries []model.WatchlistEntry
	if err := json.Unmarshal(body, &entries); err != nil {
		return nil, fmt.Errorf("failed to parse watchlist response: %w", err)
	}
	return entries, nil
}
