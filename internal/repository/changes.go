package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/finmax/ledger/internal/db"
	"github.com/finmax/ledger/internal/domain"
)

const changeColumns = `id, at, by, entity, entity_id, version, type, data_before, data_after, is_revert, revert_of, notes, metadata`

type changesRepository struct {
	conn *db.Connection
}

// NewChanges creates the read-side ledger repository.
func NewChanges(conn *db.Connection) ChangesRepository {
	return &changesRepository{conn: conn}
}

func (r *changesRepository) GetByID(ctx context.Context, changeID string) (domain.Change, error) {
	sql := fmt.Sprintf(`SELECT %s FROM finmax_changes WHERE id = $1`, changeColumns)

	rows, err := r.conn.Pool.Query(ctx, sql, changeID)
	if err != nil {
		return domain.Change{}, fmt.Errorf("failed to get change: %w", err)
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return domain.Change{}, fmt.Errorf("failed to get change: %w", err)
		}
		return domain.Change{}, &domain.NotFoundError{Entity: domain.EntityChanges, EntityID: changeID}
	}

	return scanChange(rows)
}

// ListByEntity returns one entity's full history in version order. The
// version sequence is gapless from 1, so the result is directly replayable.
func (r *changesRepository) ListByEntity(ctx context.Context, entity domain.EntityType, entityID string) ([]domain.Change, error) {
	sql := fmt.Sprintf(
		`SELECT %s FROM finmax_changes WHERE entity = $1 AND entity_id = $2 ORDER BY version`,
		changeColumns,
	)

	rows, err := r.conn.Pool.Query(ctx, sql, string(entity), entityID)
	if err != nil {
		return nil, fmt.Errorf("failed to list changes for %s/%s: %w", entity, entityID, err)
	}
	defer rows.Close()

	var history []domain.Change
	for rows.Next() {
		change, err := scanChange(rows)
		if err != nil {
			return nil, err
		}
		history = append(history, change)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list changes for %s/%s: %w", entity, entityID, err)
	}

	return history, nil
}

// StateAt reconstructs the entity's field state as of the given version by
// replaying its history. A nil row means the entity was deleted at that
// version.
func (r *changesRepository) StateAt(ctx context.Context, entity domain.EntityType, entityID string, version int64) (domain.Row, error) {
	history, err := r.ListByEntity(ctx, entity, entityID)
	if err != nil {
		return nil, err
	}
	if len(history) == 0 {
		return nil, &domain.NotFoundError{Entity: entity, EntityID: entityID}
	}

	return domain.StateAt(history, version)
}

// RenderDiff renders one change as a unified diff of its before/after
// snapshots.
func (r *changesRepository) RenderDiff(ctx context.Context, changeID string) (string, error) {
	change, err := r.GetByID(ctx, changeID)
	if err != nil {
		return "", err
	}
	return domain.RenderChangeDiff(change)
}

func scanChange(rows pgx.Rows) (domain.Change, error) {
	var c domain.Change
	var entity, changeType string
	var dataBefore, dataAfter, metadata map[string]any
	var isRevert *bool
	if err := rows.Scan(&c.ID, &c.At, &c.By, &entity, &c.EntityID, &c.Version, &changeType,
		&dataBefore, &dataAfter, &isRevert, &c.RevertOf, &c.Notes, &metadata); err != nil {
		return domain.Change{}, fmt.Errorf("failed to scan change: %w", err)
	}
	c.Entity = domain.EntityType(entity)
	c.Type = domain.ChangeType(changeType)
	c.DataBefore = domain.Row(dataBefore)
	c.DataAfter = domain.Row(dataAfter)
	c.Metadata = domain.Row(metadata)
	if isRevert != nil {
		c.IsRevert = *isRevert
	}
	return c, nil
}
