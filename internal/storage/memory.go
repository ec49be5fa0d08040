package storage

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/veridian-labs/veridian/internal/model"
)

// MemoryStorage is an in-memory Storage implementation for tests and
// embedding. It mirrors the SQLite implementation's semantics, including the
// unique-seq append constraint.
type MemoryStorage struct {
	mu        sync.RWMutex
	audit     []model.AuditRecord
	entities  map[string]model.ResolvedEntity
	watchlist map[string][]model.WatchlistEntry
}

// NewMemoryStorage creates an empty in-memory store.
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{
		entities:  make(map[string]model.ResolvedEntity),
		watchlist: make(map[string][]model.WatchlistEntry),
	}
}

// AppendAuditRecord appends a chain record, rejecting out-of-order sequences.
func (m *MemoryStorage) AppendAuditRecord(_ context.Context, record *model.AuditRecord) error {
	if err := validateAuditRecord(record); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if record.Seq != int64(len(m.audit)) {
		return fmt.Errorf("sequence %d out of order, expected %d", record.Seq, len(m.audit))
	}
	m.audit = append(m.audit, *record)
	return nil
}

// GetAuditRecord returns the record at seq, or nil when absent.
func (m *MemoryStorage) GetAuditRecord(_ context.Context, seq int64) (*model.AuditRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if seq < 0 || seq >= int64(len(m.audit)) {
		return nil, nil
	}
	record := m.audit[seq]
	return &record, nil
}

// GetAuditRecords returns records in [from, to] ordered by sequence number.
func (m *MemoryStorage) GetAuditRecords(_ context.Context, from, to int64) ([]model.AuditRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []model.AuditRecord
	for _, record := range m.audit {
		if record.Seq >= from && record.Seq <= to {
			out = append(out, record)
		}
	}
	return out, nil
}

// GetAuditTail returns the last record, or nil for an empty chain.
func (m *MemoryStorage) GetAuditTail(_ context.Context) (*model.AuditRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if len(m.audit) == 0 {
		return nil, nil
	}
	record := m.audit[len(m.audit)-1]
	return &record, nil
}

// CountAuditRecords returns the chain length.
func (m *MemoryStorage) CountAuditRecords(_ context.Context) (int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return int64(len(m.audit)), nil
}

// Tamper overwrites a stored record in place. Test hook for chain
// verification; the SQLite store has no counterpart on purpose.
func (m *MemoryStorage) Tamper(seq int64, mutate func(*model.AuditRecord)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if seq >= 0 && seq < int64(len(m.audit)) {
		mutate(&m.audit[seq])
	}
}

// SaveEntity upserts a resolved entity snapshot.
func (m *MemoryStorage) SaveEntity(_ context.Context, entity *model.ResolvedEntity) error {
	if err := validateEntity(entity); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.entities[entity.ClusterID] = entity.Clone()
	return nil
}

// GetEntity returns the entity with the given cluster id, or nil when absent.
func (m *MemoryStorage) GetEntity(_ context.Context, clusterID string) (*model.ResolvedEntity, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	entity, ok := m.entities[clusterID]
	if !ok {
		return nil, nil
	}
	out := entity.Clone()
	return &out, nil
}

// GetAllEntities returns all entities ordered by cluster id.
func (m *MemoryStorage) GetAllEntities(_ context.Context) ([]model.ResolvedEntity, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]model.ResolvedEntity, 0, len(m.entities))
	for _, entity := range m.entities {
		out = append(out, entity.Clone())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ClusterID < out[j].ClusterID })
	return out, nil
}

// ReplaceWatchlist replaces the cached entries for a source.
func (m *MemoryStorage) ReplaceWatchlist(_ context.Context, source string, entries []model.WatchlistEntry) error {
	if err := validateString(source, "source"); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.watchlist[source] = append([]model.WatchlistEntry(nil), entries...)
	return nil
}

// GetWatchlistEntries returns all cached entries ordered by id.
func (m *MemoryStorage) GetWatchlistEntries(_ context.Context) ([]model.WatchlistEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []model.WatchlistEntry
	for _, entries := range m.watchlist {
		out = append(out, entries...)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// Migrate is a no-op for the in-memory store.
func (m *MemoryStorage) Migrate(_ context.Context) error {
	return nil
}

// Close is a no-op for the in-memory store.
func (m *MemoryStorage) Close() error {
	return nil
}
