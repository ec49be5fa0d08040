package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/veridian-labs/veridian/internal/model"
)

// AppendAuditRecord inserts a new chain record. The seq primary key makes a
// duplicate append fail rather than fork the chain.
func (s *SQLiteStorage) AppendAuditRecord(ctx context.Context, record *model.AuditRecord) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateAuditRecord(record); err != nil {
		return err
	}

	verdict, err := json.Marshal(record.Verdict)
	if err != nil {
		return fmt.Errorf("failed to marshal verdict: %w", err)
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO audit_records (seq, prev_hash, hash, verdict) VALUES (?, ?, ?, ?)`,
		record.Seq, record.PrevHash, record.Hash, string(verdict))
	if err != nil {
		return fmt.Errorf("failed to insert audit record %d: %w", record.Seq, err)
	}
	return nil
}

// GetAuditRecord returns the record at seq, or nil when absent.
func (s *SQLiteStorage) GetAuditRecord(ctx context.Context, seq int64) (*model.AuditRecord, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	row := s.db.QueryRowContext(ctx,
		`SELECT seq, prev_hash, hash, verdict FROM audit_records WHERE seq = ?`, seq)
	record, err := scanAuditRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return record, err
}

// GetAuditRecords returns records in [from, to] ordered by sequence number.
func (s *SQLiteStorage) GetAuditRecords(ctx context.Context, from, to int64) ([]model.AuditRecord, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT seq, prev_hash, hash, verdict FROM audit_records
		 WHERE seq >= ? AND seq <= ? ORDER BY seq`, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to query audit records: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var records []model.AuditRecord
	for rows.Next() {
		record, err := scanAuditRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, *record)
	}
	return records, rows.Err()
}

// GetAuditTail returns the highest-sequence record, or nil for an empty chain.
func (s *SQLiteStorage) GetAuditTail(ctx context.Context) (*model.AuditRecord, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	row := s.db.QueryRowContext(ctx,
		`SELECT seq, prev_hash, hash, verdict FROM audit_records ORDER BY seq DESC LIMIT 1`)
	record, err := scanAuditRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return record, err
}

// CountAuditRecords returns the chain length.
func (s *SQLiteStorage) CountAuditRecords(ctx context.Context) (int64, error) {
	if err := validateContext(ctx); err != nil {
		return 0, err
	}

	var count int64
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM audit_records`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count audit records: %w", err)
	}
	return count, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAuditRecord(row rowScanner) (*model.AuditRecord, error) {
	var record model.AuditRecord
	var verdict string
	if err := row.Scan(&record.Seq, &record.PrevHash, &record.Hash, &verdict); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan audit record: %w", err)
	}
	if err := json.Unmarshal([]byte(verdict), &record.Verdict); err != nil {
		return nil, fmt.Errorf("failed to unmarshal verdict for seq %d: %w", record.Seq, err)
	}
	return &record, nil
}
