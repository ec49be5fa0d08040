package verify

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	promtestutil "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/veridian-labs/veridian/internal/audit"
	"github.com/veridian-labs/veridian/internal/canonical"
	"github.com/veridian-labs/veridian/internal/common"
	"github.com/veridian-labs/veridian/internal/match"
	"github.com/veridian-labs/veridian/internal/metrics"
	"github.com/veridian-labs/veridian/internal/model"
	"github.com/veridian-labs/veridian/internal/resolve"
	"github.com/veridian-labs/veridian/internal/screen"
	"github.com/veridian-labs/veridian/internal/storage"
	"github.com/veridian-labs/veridian/internal/testutil"
)

// staticProvider serves a fixed snapshot, standing in for a live watchlist.
type staticProvider struct {
	snapshot *model.WatchlistSnapshot
}

func (p *staticProvider) Current() *model.WatchlistSnapshot { return p.snapshot }
func (p *staticProvider) Refresh(context.Context) error     { return nil }

// riskScorerFunc adapts a function to the RiskScorer interface.
type riskScorerFunc func(context.Context, model.ResolvedEntity, model.ScreeningResult) (float64, error)

func (f riskScorerFunc) Score(ctx context.Context, e model.ResolvedEntity, r model.ScreeningResult) (float64, error) {
	return f(ctx, e, r)
}

type fixture struct {
	verifier *Verifier
	store    *storage.MemoryStorage
}

func newFixture(t *testing.T, snapshot *model.WatchlistSnapshot, opts Options) *fixture {
	t.Helper()

	store := storage.NewMemoryStorage()
	if opts.Storage == nil {
		opts.Storage = store
	}
	if opts.Now == nil {
		opts.Now = func() time.Time { return time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC) }
	}

	scorer := match.NameScorer{}
	canon := canonical.New(nil)
	auditLog, err := audit.NewLog(context.Background(), store, canon.Hasher())
	require.NoError(t, err)

	verifier := New(
		canon,
		resolve.New(scorer, resolve.DefaultConfig()),
		screen.New(scorer, screen.DefaultConfig()),
		auditLog,
		&staticProvider{snapshot: snapshot},
		opts,
	)
	return &fixture{verifier: verifier, store: store}
}

func TestVerifyIdentityRecordsMetrics(t *testing.T) {
	reg := prometheus.NewPedanticRegistry()
	f := newFixture(t, testutil.NewWatchlistBuilder().WithSanctionsFixtures().Build(), Options{
		Metrics: metrics.NewWith(reg),
	})

	_, err := f.verifier.VerifyIdentity(context.Background(), testutil.Record())
	require.NoError(t, err)

	count := promtestutil.ToFloat64(f.verifier.opts.Metrics.Verdicts.WithLabelValues(string(model.OutcomeClear)))
	assert.Equal(t, 1.0, count)
	assert.Equal(t, 1.0, promtestutil.ToFloat64(f.verifier.opts.Metrics.ChainLength))
}

func TestVerifyIdentityClear(t *testing.T) {
	f := newFixture(t, testutil.NewWatchlistBuilder().WithSanctionsFixtures().Build(), Options{})
	ctx := context.Background()

	verdict, err := f.verifier.VerifyIdentity(ctx, testutil.Record())
	require.NoError(t, err)

	assert.Equal(t, model.OutcomeClear, verdict.Outcome)
	assert.NotEmpty(t, verdict.ClusterID)
	assert.NotEmpty(t, verdict.CanonicalHash)
	assert.Equal(t, 0.0, verdict.TopScore)
	assert.Empty(t, verdict.MatchedEntryID)

	count, err := f.store.CountAuditRecords(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count, "a clear verdict is still audited")

	entity, err := f.store.GetEntity(ctx, verdict.ClusterID)
	require.NoError(t, err)
	require.NotNil(t, entity, "resolved entity snapshot is persisted")
}

func TestVerifyIdentityMatch(t *testing.T) {
	f := newFixture(t, testutil.NewWatchlistBuilder().WithSanctionsFixtures().Build(), Options{})
	ctx := context.Background()

	verdict, err := f.verifier.VerifyIdentity(ctx, testutil.Record(
		testutil.WithName("Osama Bin Laden"),
	))
	require.NoError(t, err)

	assert.Equal(t, model.OutcomeMatch, verdict.Outcome)
	assert.Equal(t, "OFAC-001", verdict.MatchedEntryID)
	assert.GreaterOrEqual(t, verdict.TopScore, 0.90)
}

func TestVerifyIdentityNilSnapshotClears(t *testing.T) {
	f := newFixture(t, nil, Options{})

	verdict, err := f.verifier.VerifyIdentity(context.Background(), testutil.Record())
	require.NoError(t, err)
	assert.Equal(t, model.OutcomeClear, verdict.Outcome)
}

func TestVerifyIdentityValidationFailure(t *testing.T) {
	f := newFixture(t, nil, Options{})
	ctx := context.Background()

	_, err := f.verifier.VerifyIdentity(ctx, testutil.Record(testutil.WithName("  ")))

	var stageErr *StageError
	require.ErrorAs(t, err, &stageErr)
	assert.Equal(t, StageCanonicalized, stageErr.Stage)
	assert.Equal(t, "validation", stageErr.Kind)
	assert.ErrorIs(t, err, common.ErrNameRequired)

	count, err := f.store.CountAuditRecords(ctx)
	require.NoError(t, err)
	assert.Zero(t, count, "failed runs must never reach the audit log")
}

func TestVerifyIdentitySecurityFailure(t *testing.T) {
	f := newFixture(t, nil, Options{})
	ctx := context.Background()

	_, err := f.verifier.VerifyIdentity(ctx, testutil.Record(
		testutil.WithAttributes(map[string]string{"ssn": "123-45-6789"}),
	))

	var stageErr *StageError
	require.ErrorAs(t, err, &stageErr)
	assert.Equal(t, "security", stageErr.Kind)

	count, err := f.store.CountAuditRecords(ctx)
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestVerifyIdentityRiskScorerFailure(t *testing.T) {
	scorerErr := errors.New("model endpoint timed out")
	f := newFixture(t, nil, Options{
		RiskScorer: riskScorerFunc(func(context.Context, model.ResolvedEntity, model.ScreeningResult) (float64, error) {
			return 0, scorerErr
		}),
	})
	ctx := context.Background()

	_, err := f.verifier.VerifyIdentity(ctx, testutil.Record())

	var stageErr *StageError
	require.ErrorAs(t, err, &stageErr)
	assert.Equal(t, StageVerdictIssued, stageErr.Stage)
	assert.Equal(t, "model", stageErr.Kind)
	assert.ErrorIs(t, err, scorerErr, "collaborator error must surface unwrapped")

	count, err := f.store.CountAuditRecords(ctx)
	require.NoError(t, err)
	assert.Zero(t, count, "no verdict is audited when risk scoring fails")
}

func TestVerifyIdentityRiskScorerSuccess(t *testing.T) {
	f := newFixture(t, nil, Options{
		RiskScorer: riskScorerFunc(func(context.Context, model.ResolvedEntity, model.ScreeningResult) (float64, error) {
			return 0.42, nil
		}),
	})

	verdict, err := f.verifier.VerifyIdentity(context.Background(), testutil.Record())
	require.NoError(t, err)
	assert.Equal(t, model.OutcomeClear, verdict.Outcome)
}

func TestVerifyIdentityCancelledContext(t *testing.T) {
	f := newFixture(t, nil, Options{})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := f.verifier.VerifyIdentity(ctx, testutil.Record())
	var stageErr *StageError
	require.ErrorAs(t, err, &stageErr)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestVerifyIdentityReprocessingIsStable(t *testing.T) {
	f := newFixture(t, testutil.NewWatchlistBuilder().WithSanctionsFixtures().Build(), Options{})
	ctx := context.Background()

	record := testutil.Record()
	first, err := f.verifier.VerifyIdentity(ctx, record)
	require.NoError(t, err)
	second, err := f.verifier.VerifyIdentity(ctx, record)
	require.NoError(t, err)

	assert.Equal(t, first.ClusterID, second.ClusterID)
	assert.Equal(t, first.CanonicalHash, second.CanonicalHash)
	assert.Equal(t, first.Outcome, second.Outcome)

	// Both runs are audited; reprocessing extends the chain, never rewrites.
	count, err := f.store.CountAuditRecords(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)
}

func TestScreenCluster(t *testing.T) {
	f := newFixture(t, testutil.NewWatchlistBuilder().WithSanctionsFixtures().Build(), Options{})

	verdict, err := f.verifier.VerifyIdentity(context.Background(), testutil.Record(
		testutil.WithName("Osama Bin Laden"),
	))
	require.NoError(t, err)

	result, ok := f.verifier.ScreenCluster(verdict.ClusterID)
	require.True(t, ok)
	assert.Equal(t, model.OutcomeMatch, result.Outcome)
	assert.NotEmpty(t, result.Matches, "review surfaces need the full ranked evidence")

	_, ok = f.verifier.ScreenCluster("no-such-cluster")
	assert.False(t, ok)
}

func TestStageErrorUnwrap(t *testing.T) {
	inner := common.NewValidationError("name", common.ErrNameRequired)
	err := &StageError{Stage: StageCanonicalized, Kind: "validation", Err: inner}

	assert.ErrorIs(t, err, common.ErrNameRequired)
	assert.Contains(t, err.Error(), "CANONICALIZED")
	assert.Contains(t, err.Error(), "validation")
}
