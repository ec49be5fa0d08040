// Package audit implements the append-only, hash-chained verdict ledger.
package audit

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/veridian-labs/veridian/internal/canonical"
	"github.com/veridian-labs/veridian/internal/common"
	"github.com/veridian-labs/veridian/internal/model"
	"github.com/veridian-labs/veridian/internal/service"
)

// Log is the sole owner and sole mutator of the audit chain's tail. Appends
// are totally ordered: one mutex region covers reading the tail, computing
// the next record, persisting it and advancing the tail, so two records can
// never reference the same previous hash.
type Log struct {
	store  service.Storage
	hasher service.Hasher
	mu     sync.Mutex
	tail   *model.AuditRecord
	next   int64
}

// NewLog opens the audit chain backed by store, loading the current tail.
func NewLog(ctx context.Context, store service.Storage, hasher service.Hasher) (*Log, error) {
	if hasher == nil {
		hasher = canonical.SHA256Hasher{}
	}

	tail, err := store.GetAuditTail(ctx)
	if err != nil {
		return nil, common.NewIntegrityError(-1, fmt.Errorf("%w: %w", common.ErrTailUnstable, err))
	}

	log := &Log{store: store, hasher: hasher, tail: tail}
	if tail != nil {
		log.next = tail.Seq + 1
	}
	return log, nil
}

// Append chains a verdict onto the log and returns the stored record.
func (l *Log) Append(ctx context.Context, verdict model.Verdict) (*model.AuditRecord, error) {
	payload, err := verdictPayload(verdict)
	if err != nil {
		return nil, fmt.Errorf("failed to serialize verdict: %w", err)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	prevHash := ""
	if l.tail != nil {
		prevHash = l.tail.Hash
	}

	record := &model.AuditRecord{
		Seq:      l.next,
		PrevHash: prevHash,
		Hash:     l.hasher.Hash(append([]byte(prevHash), payload...)),
		Verdict:  verdict,
	}

	if err := l.store.AppendAuditRecord(ctx, record); err != nil {
		return nil, common.NewIntegrityError(record.Seq, fmt.Errorf("failed to append audit record: %w", err))
	}

	l.tail = record
	l.next = record.Seq + 1
	return record, nil
}

// Verify checks the whole chain. See VerifyRange.
func (l *Log) Verify(ctx context.Context) error {
	count, err := l.store.CountAuditRecords(ctx)
	if err != nil {
		return common.NewIntegrityError(-1, err)
	}
	if count == 0 {
		return nil
	}
	return l.VerifyRange(ctx, 0, count-1)
}

// VerifyRange recomputes every record hash in [from, to] and confirms each
// stored previous-hash matches the actual hash of its predecessor. On
// tampering it returns an IntegrityError localized to the first broken
// sequence number.
func (l *Log) VerifyRange(ctx context.Context, from, to int64) error {
	if from < 0 || to < from {
		return common.NewIntegrityError(-1, fmt.Errorf("invalid range [%d, %d]", from, to))
	}

	records, err := l.store.GetAuditRecords(ctx, from, to)
	if err != nil {
		return common.NewIntegrityError(-1, err)
	}

	prevHash := ""
	if from > 0 {
		prev, err := l.store.GetAuditRecord(ctx, from-1)
		if err != nil {
			return common.NewIntegrityError(from-1, err)
		}
		if prev == nil {
			return common.NewIntegrityError(from-1, fmt.Errorf("%w: missing record", common.ErrChainBroken))
		}
		prevHash = prev.Hash
	}

	expected := from
	for i := range records {
		record := &records[i]
		if record.Seq != expected {
			return common.NewIntegrityError(expected, fmt.Errorf("%w: gap in sequence", common.ErrChainBroken))
		}
		if record.PrevHash != prevHash {
			return common.NewIntegrityError(record.Seq, fmt.Errorf("%w: previous hash mismatch", common.ErrChainBroken))
		}

		payload, err := verdictPayload(record.Verdict)
		if err != nil {
			return common.NewIntegrityError(record.Seq, err)
		}
		if recomputed := l.hasher.Hash(append([]byte(record.PrevHash), payload...)); recomputed != record.Hash {
			return common.NewIntegrityError(record.Seq, fmt.Errorf("%w: record hash mismatch", common.ErrChainBroken))
		}

		prevHash = record.Hash
		expected++
	}

	if expected != to+1 {
		return common.NewIntegrityError(expected, fmt.Errorf("%w: gap in sequence", common.ErrChainBroken))
	}
	return nil
}

// Len returns the number of chained records.
func (l *Log) Len(ctx context.Context) (int64, error) {
	return l.store.CountAuditRecords(ctx)
}

// verdictPayload serializes a verdict to canonical JSON for chain hashing.
// The timestamp is pinned to UTC RFC 3339 so the payload is byte-stable.
func verdictPayload(v model.Verdict) ([]byte, error) {
	return canonical.JSON(map[string]any{
		"cluster_id":       v.ClusterID,
		"canonical_hash":   v.CanonicalHash,
		"outcome":          string(v.Outcome),
		"top_score":        v.TopScore,
		"matched_entry_id": v.MatchedEntryID,
		"timestamp":        v.Timestamp.UTC().Format(time.RFC3339Nano),
	})
}
