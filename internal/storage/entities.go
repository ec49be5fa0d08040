package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/veridian-labs/veridian/internal/model"
)

// SaveEntity upserts a resolved entity snapshot and replaces its member list.
func (s *SQLiteStorage) SaveEntity(ctx context.Context, entity *model.ResolvedEntity) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateEntity(entity); err != nil {
		return err
	}

	attrs, err := json.Marshal(entity.Attributes)
	if err != nil {
		return fmt.Errorf("failed to marshal attributes: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO entities (cluster_id, attributes, updated_at) VALUES (?, ?, CURRENT_TIMESTAMP)
		 ON CONFLICT(cluster_id) DO UPDATE SET attributes = excluded.attributes, updated_at = CURRENT_TIMESTAMP`,
		entity.ClusterID, string(attrs)); err != nil {
		return fmt.Errorf("failed to upsert entity: %w", err)
	}

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM entity_members WHERE cluster_id = ?`, entity.ClusterID); err != nil {
		return fmt.Errorf("failed to clear entity members: %w", err)
	}

	for i, hash := range entity.MemberHashes {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO entity_members (cluster_id, member_hash, position) VALUES (?, ?, ?)`,
			entity.ClusterID, hash, i); err != nil {
			return fmt.Errorf("failed to insert entity member: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit entity: %w", err)
	}
	return nil
}

// GetEntity returns the entity with the given cluster id, or nil when absent.
func (s *SQLiteStorage) GetEntity(ctx context.Context, clusterID string) (*model.ResolvedEntity, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(clusterID, "clusterID"); err != nil {
		return nil, err
	}

	var attrs string
	err := s.db.QueryRowContext(ctx,
		`SELECT attributes FROM entities WHERE cluster_id = ?`, clusterID).Scan(&attrs)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query entity: %w", err)
	}

	entity := &model.ResolvedEntity{ClusterID: clusterID}
	if err := json.Unmarshal([]byte(attrs), &entity.Attributes); err != nil {
		return nil, fmt.Errorf("failed to unmarshal attributes: %w", err)
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT member_hash FROM entity_members WHERE cluster_id = ? ORDER BY position`, clusterID)
	if err != nil {
		return nil, fmt.Errorf("failed to query entity members: %w", err)
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		var hash string
		if err := rows.Scan(&hash); err != nil {
			return nil, fmt.Errorf("failed to scan entity member: %w", err)
		}
		entity.MemberHashes = append(entity.MemberHashes, hash)
	}
	return entity, rows.Err()
}

// GetAllEntities returns all persisted entities ordered by cluster id.
func (s *SQLiteStorage) GetAllEntities(ctx context.Context) ([]model.ResolvedEntity, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `SELECT cluster_id FROM entities ORDER BY cluster_id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query entities: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan cluster id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	entities := make([]model.ResolvedEntity, 0, len(ids))
	for _, id := range ids {
		entity, err := s.GetEntity(ctx, id)
		if err != nil {
			return nil, err
		}
		if entity != nil {
			entities = append(entities, *entity)
		}
	}
	return entities, nil
}
