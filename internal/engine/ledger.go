package engine

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/finmax/ledger/internal/domain"
	"github.com/finmax/ledger/internal/ident"
)

// ledgerEntry is the input to one change-ledger append.
type ledgerEntry struct {
	by           string
	entity       domain.EntityType
	entityID     string
	firstVersion bool // insert: version is 1 by definition
	changeType   domain.ChangeType
	dataBefore   domain.Row
	dataAfter    domain.Row
	revertOf     *string
}

// appendChange writes one ledger record inside the caller's transaction.
// The version is computed by the statement itself, as a server-side
// MAX(version)+1 scoped to the (entity, entity_id) pair; the unique
// constraint on that pair plus version turns a write race into a constraint
// violation rather than a duplicate version.
func (e *Engine) appendChange(ctx context.Context, tx pgx.Tx, entry ledgerEntry) (domain.Change, error) {
	changeID := ident.New()

	var dataBefore, dataAfter []byte
	var err error
	if entry.dataBefore != nil {
		if dataBefore, err = json.Marshal(entry.dataBefore); err != nil {
			return domain.Change{}, fmt.Errorf("failed to marshal before snapshot: %w", err)
		}
	}
	if entry.dataAfter != nil {
		if dataAfter, err = json.Marshal(entry.dataAfter); err != nil {
			return domain.Change{}, fmt.Errorf("failed to marshal after snapshot: %w", err)
		}
	}

	isRevert := entry.revertOf != nil

	var versionExpr string
	if entry.firstVersion {
		versionExpr = "1"
	} else {
		versionExpr = `(SELECT COALESCE(MAX(version), 0) + 1 FROM finmax_changes WHERE entity = $3 AND entity_id = $4)`
	}

	insertSQL := fmt.Sprintf(
		`INSERT INTO finmax_changes (id, by, entity, entity_id, version, type, data_before, data_after, is_revert, revert_of)
		 VALUES ($1, $2, $3, $4, %s, $5, $6, $7, $8, $9)
		 RETURNING version, at`,
		versionExpr,
	)

	change := domain.Change{
		ID:         changeID,
		By:         entry.by,
		Entity:     entry.entity,
		EntityID:   entry.entityID,
		Type:       entry.changeType,
		DataBefore: entry.dataBefore,
		DataAfter:  entry.dataAfter,
		IsRevert:   isRevert,
		RevertOf:   entry.revertOf,
	}

	err = tx.QueryRow(ctx, insertSQL,
		changeID,
		entry.by,
		string(entry.entity),
		entry.entityID,
		string(entry.changeType),
		dataBefore,
		dataAfter,
		isRevert,
		entry.revertOf,
	).Scan(&change.Version, &change.At)
	if err != nil {
		return domain.Change{}, fmt.Errorf("failed to append change for %s/%s: %w", entry.entity, entry.entityID, err)
	}

	return change, nil
}
