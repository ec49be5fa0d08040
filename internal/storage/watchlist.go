package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/veridian-labs/veridian/internal/model"
)

// ReplaceWatchlist replaces the cached entries for a source in one
// transaction, so readers never observe a half-refreshed list.
func (s *SQLiteStorage) ReplaceWatchlist(ctx context.Context, source string, entries []model.WatchlistEntry) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateString(source, "source"); err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM watchlist_entries WHERE source = ?`, source); err != nil {
		return fmt.Errorf("failed to clear watchlist source: %w", err)
	}

	for _, entry := range entries {
		aliases, err := json.Marshal(entry.Aliases)
		if err != nil {
			return fmt.Errorf("failed to marshal aliases: %w", err)
		}

		var effective any
		if !entry.EffectiveDate.IsZero() {
			effective = entry.EffectiveDate.UTC().Format(time.RFC3339)
		}

		if _, err := tx.ExecContext(ctx,
			`INSERT INTO watchlist_entries
			 (id, name, aliases, nationality, category, source, source_priority, effective_date)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			entry.ID, entry.Name, string(aliases), entry.Nationality, entry.Category,
			source, entry.SourcePriority, effective); err != nil {
			return fmt.Errorf("failed to insert watchlist entry %q: %w", entry.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit watchlist: %w", err)
	}
	return nil
}

// GetWatchlistEntries returns all cached entries ordered by id.
func (s *SQLiteStorage) GetWatchlistEntries(ctx context.Context) ([]model.WatchlistEntry, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, aliases, nationality, category, source, source_priority, effective_date
		 FROM watchlist_entries ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query watchlist entries: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var entries []model.WatchlistEntry
	for rows.Next() {
		var entry model.WatchlistEntry
		var aliases string
		var effective sql.NullString
		if err := rows.Scan(&entry.ID, &entry.Name, &aliases, &entry.Nationality,
			&entry.Category, &entry.Source, &entry.SourcePriority, &effective); err != nil {
			return nil, fmt.Errorf("failed to scan watchlist entry: %w", err)
		}
		if aliases != "" {
			if err := json.Unmarshal([]byte(aliases), &entry.Aliases); err != nil {
				return nil, fmt.Errorf("failed to unmarshal aliases for %q: %w", entry.ID, err)
			}
		}
		if effective.Valid && effective.String != "" {
			t, err := time.Parse(time.RFC3339, effective.String)
			if err != nil {
				return nil, fmt.Errorf("failed to parse effective date for %q: %w", entry.ID, err)
			}
			entry.EffectiveDate = t
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}
