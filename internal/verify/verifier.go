// Package verify implements the identity verification orchestrator, the
// single public entry point of the compliance pipeline.
package verify

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/veridian-labs/veridian/internal/audit"
	"github.com/veridian-labs/veridian/internal/canonical"
	"github.com/veridian-labs/veridian/internal/common"
	"github.com/veridian-labs/veridian/internal/metrics"
	"github.com/veridian-labs/veridian/internal/model"
	"github.com/veridian-labs/veridian/internal/resolve"
	"github.com/veridian-labs/veridian/internal/screen"
	"github.com/veridian-labs/veridian/internal/service"
)

// Stage names the states a record moves through during verification.
type Stage string

// Pipeline stages, in order. A record either reaches StageAudited or lands in
// StageFailed; there is no partial success.
const (
	StageReceived      Stage = "RECEIVED"
	StageCanonicalized Stage = "CANONICALIZED"
	StageResolved      Stage = "RESOLVED"
	StageScreened      Stage = "SCREENED"
	StageVerdictIssued Stage = "VERDICT_ISSUED"
	StageAudited       Stage = "AUDITED"
	StageFailed        Stage = "FAILED"
)

// StageError reports a pipeline failure with the stage that was being entered
// and the originating error kind.
type StageError struct {
	Err   error
	Stage Stage
	Kind  string
}

func (e *StageError) Error() string {
	return fmt.Sprintf("verification failed entering %s (%s): %v", e.Stage, e.Kind, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}

// Options holds the verifier's optional collaborators.
type Options struct {
	// Storage persists resolved entity snapshots when set.
	Storage service.Storage
	// RiskScorer is consulted after screening when set; its errors abort
	// the run before anything is audited.
	RiskScorer service.RiskScorer
	// Metrics records pipeline observability when set.
	Metrics *metrics.Metrics
	// Now overrides the verdict clock, for deterministic tests.
	Now func() time.Time
}

// Verifier drives a record through canonicalize → resolve → screen → verdict
// → audit. It is safe for many concurrent callers.
type Verifier struct {
	canon     *canonical.Canonicalizer
	resolver  *resolve.Resolver
	screener  *screen.Engine
	auditLog  *audit.Log
	watchlist service.WatchlistProvider
	opts      Options
}

// New creates a verifier over the given pipeline components.
func New(canon *canonical.Canonicalizer, resolver *resolve.Resolver, screener *screen.Engine, auditLog *audit.Log, watchlist service.WatchlistProvider, opts Options) *Verifier {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Verifier{
		canon:     canon,
		resolver:  resolver,
		screener:  screener,
		auditLog:  auditLog,
		watchlist: watchlist,
		opts:      opts,
	}
}

// VerifyIdentity runs the full pipeline for one record. Either a complete
// verdict reaches the audit log or the call fails with the originating error
// kind; no partial verdict is ever audited. Reprocessing the same record is
// safe: canonicalization is deterministic and resolution is idempotent.
func (v *Verifier) VerifyIdentity(ctx context.Context, record model.IdentityRecord) (model.Verdict, error) {
	start := time.Now()
	record.EnsureID()
	slog.Debug("Record received", "record_id", record.ID, "stage", StageReceived)

	if err := ctx.Err(); err != nil {
		return model.Verdict{}, v.fail(StageCanonicalized, err)
	}

	form, err := v.canon.Canonicalize(record)
	if err != nil {
		return model.Verdict{}, v.fail(StageCanonicalized, err)
	}
	slog.Debug("Record canonicalized", "record_id", record.ID, "hash", form.Hash, "stage", StageCanonicalized)

	entity := v.resolver.Resolve(form)
	if v.opts.Storage != nil {
		if err := v.opts.Storage.SaveEntity(ctx, &entity); err != nil {
			return model.Verdict{}, v.fail(StageResolved, err)
		}
	}
	slog.Debug("Record resolved",
		"record_id", record.ID,
		"cluster_id", entity.ClusterID,
		"members", len(entity.MemberHashes),
		"stage", StageResolved)

	snapshot := v.watchlist.Current()
	result := v.screener.Screen(entity, snapshot)
	slog.Debug("Record screened",
		"record_id", record.ID,
		"outcome", result.Outcome,
		"candidates", len(result.Matches),
		"stage", StageScreened)

	if v.opts.RiskScorer != nil {
		riskScore, err := v.opts.RiskScorer.Score(ctx, entity, result)
		if err != nil {
			var modelErr *common.ModelError
			if !errors.As(err, &modelErr) {
				err = common.NewModelError(err)
			}
			return model.Verdict{}, v.fail(StageVerdictIssued, err)
		}
		slog.Debug("Risk score computed", "record_id", record.ID, "risk_score", riskScore)
	}

	verdict := model.Verdict{
		ClusterID:      entity.ClusterID,
		CanonicalHash:  form.Hash,
		Outcome:        result.Outcome,
		TopScore:       result.TopScore(),
		MatchedEntryID: result.TopEntryID(),
		Timestamp:      v.opts.Now().UTC(),
	}
	slog.Debug("Verdict issued", "record_id", record.ID, "outcome", verdict.Outcome, "stage", StageVerdictIssued)

	auditRecord, err := v.auditLog.Append(ctx, verdict)
	if err != nil {
		return model.Verdict{}, v.fail(StageAudited, err)
	}

	v.opts.Metrics.IncrementVerdict(string(verdict.Outcome))
	v.opts.Metrics.ObserveVerifyLatency(time.Since(start))
	v.opts.Metrics.SetChainLength(auditRecord.Seq + 1)

	slog.Info("Identity verified",
		"record_id", record.ID,
		"cluster_id", verdict.ClusterID,
		"outcome", verdict.Outcome,
		"top_score", verdict.TopScore,
		"audit_seq", auditRecord.Seq,
		"stage", StageAudited)

	return verdict, nil
}

// ScreenCluster re-screens a resolved cluster against the current watchlist
// snapshot, for review surfaces that need full match evidence after a
// verdict. Returns false when the cluster is unknown.
func (v *Verifier) ScreenCluster(clusterID string) (model.ScreeningResult, bool) {
	entity, ok := v.resolver.Entity(clusterID)
	if !ok {
		return model.ScreeningResult{}, false
	}
	return v.screener.Screen(entity, v.watchlist.Current()), true
}

func (v *Verifier) fail(stage Stage, err error) error {
	kind := common.ErrorKind(err)
	v.opts.Metrics.IncrementFailure(string(stage), kind)
	slog.Debug("Verification failed", "stage", StageFailed, "entering", stage, "kind", kind, "error", err)
	return &StageError{Stage: stage, Kind: kind, Err: err}
}
