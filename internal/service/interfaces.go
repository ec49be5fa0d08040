// Package service defines the interfaces for all application services.
package service

import (
	"context"
	"time"

	"github.com/veridian-labs/veridian/internal/model"
)

// Storage defines the contract for our persistence layer.
type Storage interface {
	// Audit chain operations. The chain is append-only; records are never
	// rewritten.
	AppendAuditRecord(ctx context.Context, record *model.AuditRecord) error
	GetAuditRecord(ctx context.Context, seq int64) (*model.AuditRecord, error)
	GetAuditRecords(ctx context.Context, from, to int64) ([]model.AuditRecord, error)
	GetAuditTail(ctx context.Context) (*model.AuditRecord, error)
	CountAuditRecords(ctx context.Context) (int64, error)

	// Resolved entity operations.
	SaveEntity(ctx context.Context, entity *model.ResolvedEntity) error
	GetEntity(ctx context.Context, clusterID string) (*model.ResolvedEntity, error)
	GetAllEntities(ctx context.Context) ([]model.ResolvedEntity, error)

	// Watchlist cache operations.
	ReplaceWatchlist(ctx context.Context, source string, entries []model.WatchlistEntry) error
	GetWatchlistEntries(ctx context.Context) ([]model.WatchlistEntry, error)

	// Database management.
	Migrate(ctx context.Context) error
	Close() error
}

// Hasher computes the versioned content digest used for canonical forms and
// the audit chain. Implementations must be pure and embed their algorithm
// identifier in every digest so future algorithm changes stay distinguishable.
type Hasher interface {
	Hash(data []byte) string
	Algorithm() string
}

// Scorer computes a similarity score in [0,1] between two normalized strings.
// Implementations must be pure so screening and resolution stay deterministic.
type Scorer interface {
	Score(a, b string) float64
}

// WatchlistSource supplies a read-only sequence of watchlist entries. The
// core only enumerates, never writes.
type WatchlistSource interface {
	Load(ctx context.Context) ([]model.WatchlistEntry, error)
	Name() string
}

// WatchlistProvider hands out internally-consistent watchlist snapshots.
// Current never blocks; Refresh swaps in a new snapshot atomically.
type WatchlistProvider interface {
	Current() *model.WatchlistSnapshot
	Refresh(ctx context.Context) error
}

// RiskScorer is an external risk-model collaborator. Errors it returns are
// propagated unchanged and prevent a verdict from being audited.
type RiskScorer interface {
	Score(ctx context.Context, entity model.ResolvedEntity, result model.ScreeningResult) (float64, error)
}

// Reviewer presents possible-match verdicts to a human for disposition.
type Reviewer interface {
	Review(ctx context.Context, verdict model.Verdict, result model.ScreeningResult) (ReviewDecision, error)
}

// ReviewDecision is a human analyst's disposition of a possible match.
type ReviewDecision string

// Review decision constants.
const (
	ReviewConfirm ReviewDecision = "CONFIRM"
	ReviewDismiss ReviewDecision = "DISMISS"
	ReviewSkip    ReviewDecision = "SKIP"
)

// RetryOptions configures retry behavior for transient failures.
type RetryOptions struct {
	MaxAttempts  int
	InitialDelay time.Duration
	MaxDelay     time.Duration
	Multiplier   float64
}
