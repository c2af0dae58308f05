// Package engine implements the versioned write engine: generic insert,
// patch and delete primitives that apply exactly one entity mutation and
// append exactly one change-ledger record, inside a single transaction.
package engine

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/finmax/ledger/internal/db"
	"github.com/finmax/ledger/internal/domain"
	"github.com/finmax/ledger/internal/ident"
)

// Notifier receives every committed change. Notification happens after the
// transaction commits and never affects the outcome of the operation.
type Notifier interface {
	ChangeRecorded(ctx context.Context, change domain.Change)
}

// Engine executes versioned writes against a dependency-injected store
// handle. All mutation of entity tables goes through here; writing to an
// entity table from anywhere else breaks the ledger's invariants.
type Engine struct {
	conn        *db.Connection
	logger      *zap.Logger
	descriptors map[domain.EntityType]Descriptor
	notifier    Notifier
}

// New builds an engine over the given connection. The descriptors are used
// to resolve entity types when reverting a prior change.
func New(conn *db.Connection, logger *zap.Logger, descriptors ...Descriptor) (*Engine, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	byEntity := make(map[domain.EntityType]Descriptor, len(descriptors))
	for _, desc := range descriptors {
		if err := desc.Validate(); err != nil {
			return nil, fmt.Errorf("invalid descriptor: %w", err)
		}
		if _, dup := byEntity[desc.Entity]; dup {
			return nil, fmt.Errorf("duplicate descriptor for %s", desc.Entity)
		}
		byEntity[desc.Entity] = desc
	}

	return &Engine{conn: conn, logger: logger, descriptors: byEntity}, nil
}

// SetNotifier installs a post-commit change listener.
func (e *Engine) SetNotifier(n Notifier) {
	e.notifier = n
}

// Insert creates a new entity row with a fresh identifier and records a
// version-1 insert change attributed to actorID. It returns the created row
// including the generated identifier and server-computed defaults.
func (e *Engine) Insert(ctx context.Context, actorID string, desc Descriptor, fields domain.Row) (domain.Row, error) {
	return e.insert(ctx, actorID, desc, fields, false)
}

// InsertSelfAttributed is Insert with the ledger entry attributed to the
// created entity itself. Used for user creation, where the acting user is
// the row being inserted.
func (e *Engine) InsertSelfAttributed(ctx context.Context, desc Descriptor, fields domain.Row) (domain.Row, error) {
	return e.insert(ctx, "", desc, fields, true)
}

func (e *Engine) insert(ctx context.Context, actorID string, desc Descriptor, fields domain.Row, selfAttributed bool) (domain.Row, error) {
	if err := e.guard(desc); err != nil {
		return nil, err
	}
	if err := desc.checkFields(fields); err != nil {
		return nil, err
	}
	if !selfAttributed && actorID == "" {
		return nil, fmt.Errorf("insert into %s requires an acting user", desc.Entity)
	}

	entityID := ident.New()
	by := actorID
	if selfAttributed {
		by = entityID
	}

	fieldOrder := sortedFields(fields)
	columns := make([]string, 0, len(fieldOrder)+1)
	placeholders := make([]string, 0, len(fieldOrder)+1)
	args := make([]any, 0, len(fieldOrder)+1)

	columns = append(columns, "id")
	placeholders = append(placeholders, "$1")
	args = append(args, entityID)
	for i, field := range fieldOrder {
		col, _ := desc.Column(field)
		columns = append(columns, quoteIdent(col.Name))
		placeholders = append(placeholders, fmt.Sprintf("$%d", i+2))
		args = append(args, encodeValue(fields[field]))
	}

	insertSQL := fmt.Sprintf(
		"INSERT INTO %s (%s) VALUES (%s) RETURNING id, %s",
		desc.Table,
		strings.Join(columns, ", "),
		strings.Join(placeholders, ", "),
		allColumnList(desc),
	)

	var created domain.Row
	var recorded domain.Change
	err := e.conn.WithTx(ctx, func(tx pgx.Tx) error {
		row, err := queryRow(ctx, tx, insertSQL, args, append([]string{"id"}, desc.Fields()...))
		if err != nil {
			return fmt.Errorf("failed to insert %s: %w", desc.Entity, err)
		}
		created = row

		recorded, err = e.appendChange(ctx, tx, ledgerEntry{
			by:           by,
			entity:       desc.Entity,
			entityID:     entityID,
			firstVersion: true,
			changeType:   domain.ChangeInsert,
			dataAfter:    snapshotRow(fields),
		})
		return err
	})
	if err != nil {
		return nil, err
	}

	e.notify(ctx, recorded)
	return created, nil
}

// Patch applies a partial field update to one entity row and records an
// update change carrying before/after snapshots of only the fields that
// actually changed. Fields whose proposed value equals the stored value are
// elided; if nothing remains the operation fails with ErrEmptyPatch.
// It returns the updated row projected to the applied fields.
func (e *Engine) Patch(ctx context.Context, actorID string, desc Descriptor, entityID string, patch domain.Row) (domain.Row, error) {
	return e.applyPatch(ctx, actorID, desc, entityID, patch, nil)
}

func (e *Engine) applyPatch(ctx context.Context, actorID string, desc Descriptor, entityID string, patch domain.Row, revertOf *string) (domain.Row, error) {
	if err := e.guard(desc); err != nil {
		return nil, err
	}
	if len(patch) == 0 {
		return nil, domain.ErrEmptyPatch
	}
	if err := desc.checkFields(patch); err != nil {
		return nil, err
	}

	patch = patch.Clone()

	var updated domain.Row
	var recorded domain.Change
	err := e.conn.WithTx(ctx, func(tx pgx.Tx) error {
		fieldOrder := sortedFields(patch)

		// FOR UPDATE serializes writers on the row, so the before snapshot
		// and the elision comparison always see the latest committed state.
		selectSQL := fmt.Sprintf(
			"SELECT %s FROM %s WHERE id = $1 FOR UPDATE",
			columnList(desc, fieldOrder),
			desc.Table,
		)
		before, err := queryRow(ctx, tx, selectSQL, []any{entityID}, fieldOrder)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return &domain.NotFoundError{Entity: desc.Entity, EntityID: entityID}
			}
			return fmt.Errorf("failed to read %s before patch: %w", desc.Entity, err)
		}

		e.elideUnchanged(desc, entityID, before, patch, fieldOrder)
		if len(patch) == 0 {
			return domain.ErrEmptyPatch
		}
		fieldOrder = sortedFields(patch)

		sets := make([]string, 0, len(fieldOrder))
		args := make([]any, 0, len(fieldOrder)+1)
		for i, field := range fieldOrder {
			col, _ := desc.Column(field)
			sets = append(sets, fmt.Sprintf("%s = $%d", quoteIdent(col.Name), i+1))
			args = append(args, encodeValue(patch[field]))
		}
		args = append(args, entityID)

		updateSQL := fmt.Sprintf(
			"UPDATE %s SET %s WHERE id = $%d RETURNING %s",
			desc.Table,
			strings.Join(sets, ", "),
			len(fieldOrder)+1,
			columnList(desc, fieldOrder),
		)
		updated, err = queryRow(ctx, tx, updateSQL, args, fieldOrder)
		if err != nil {
			return fmt.Errorf("failed to patch %s: %w", desc.Entity, err)
		}

		recorded, err = e.appendChange(ctx, tx, ledgerEntry{
			by:         actorID,
			entity:     desc.Entity,
			entityID:   entityID,
			changeType: domain.ChangeUpdate,
			dataBefore: snapshotRow(before),
			dataAfter:  snapshotRow(patch),
			revertOf:   revertOf,
		})
		return err
	})
	if err != nil {
		return nil, err
	}

	e.notify(ctx, recorded)
	return updated, nil
}

// Delete removes one entity row and records a delete change whose before
// snapshot is the full deleted row minus its identifier. The delete is the
// terminal change for the entity: the row is gone, the history persists.
// It returns the deleted row.
func (e *Engine) Delete(ctx context.Context, actorID string, desc Descriptor, entityID string) (domain.Row, error) {
	if err := e.guard(desc); err != nil {
		return nil, err
	}

	deleteSQL := fmt.Sprintf(
		"DELETE FROM %s WHERE id = $1 RETURNING id, %s",
		desc.Table,
		allColumnList(desc),
	)

	var deleted domain.Row
	var recorded domain.Change
	err := e.conn.WithTx(ctx, func(tx pgx.Tx) error {
		row, err := queryRow(ctx, tx, deleteSQL, []any{entityID}, append([]string{"id"}, desc.Fields()...))
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return &domain.NotFoundError{Entity: desc.Entity, EntityID: entityID}
			}
			return fmt.Errorf("failed to delete %s: %w", desc.Entity, err)
		}
		deleted = row

		recorded, err = e.appendChange(ctx, tx, ledgerEntry{
			by:         actorID,
			entity:     desc.Entity,
			entityID:   entityID,
			changeType: domain.ChangeDelete,
			dataBefore: snapshotRow(row.Without("id")),
		})
		return err
	})
	if err != nil {
		return nil, err
	}

	e.notify(ctx, recorded)
	return deleted, nil
}

// Revert undoes a prior update-type change by re-applying its before
// snapshot as a new patch. The resulting ledger entry is marked as a revert
// pointing back at the undone change. Reverting a change whose before state
// already matches the current row fails with ErrEmptyPatch.
func (e *Engine) Revert(ctx context.Context, actorID string, changeID string) (domain.Row, error) {
	change, err := e.loadChange(ctx, changeID)
	if err != nil {
		return nil, err
	}
	if change.Type != domain.ChangeUpdate {
		return nil, fmt.Errorf("cannot revert a %s change", change.Type)
	}

	desc, ok := e.descriptors[change.Entity]
	if !ok {
		return nil, fmt.Errorf("no descriptor registered for %s", change.Entity)
	}

	return e.applyPatch(ctx, actorID, desc, change.EntityID, change.DataBefore.Clone(), &change.ID)
}

func (e *Engine) loadChange(ctx context.Context, changeID string) (domain.Change, error) {
	const sql = `SELECT id, at, by, entity, entity_id, version, type, data_before, data_after, is_revert, revert_of
		 FROM finmax_changes WHERE id = $1`

	rows, err := e.conn.Pool.Query(ctx, sql, changeID)
	if err != nil {
		return domain.Change{}, fmt.Errorf("failed to load change: %w", err)
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return domain.Change{}, fmt.Errorf("failed to load change: %w", err)
		}
		return domain.Change{}, &domain.NotFoundError{Entity: domain.EntityChanges, EntityID: changeID}
	}

	var c domain.Change
	var entity, changeType string
	var dataBefore, dataAfter map[string]any
	var isRevert *bool
	if err := rows.Scan(&c.ID, &c.At, &c.By, &entity, &c.EntityID, &c.Version, &changeType, &dataBefore, &dataAfter, &isRevert, &c.RevertOf); err != nil {
		return domain.Change{}, fmt.Errorf("failed to scan change: %w", err)
	}
	c.Entity = domain.EntityType(entity)
	c.Type = domain.ChangeType(changeType)
	c.DataBefore = domain.Row(dataBefore)
	c.DataAfter = domain.Row(dataAfter)
	if isRevert != nil {
		c.IsRevert = *isRevert
	}
	return c, nil
}

// elideUnchanged drops no-op fields from both the patch and the before
// snapshot. Elided fields are logged once as a set.
func (e *Engine) elideUnchanged(desc Descriptor, entityID string, before, patch domain.Row, fieldOrder []string) {
	var elided []string
	for _, field := range fieldOrder {
		if valuesEqual(before[field], patch[field]) {
			elided = append(elided, field)
			delete(patch, field)
			delete(before, field)
		}
	}
	if len(elided) > 0 {
		e.logger.Warn("no change in fields",
			zap.String("entity", string(desc.Entity)),
			zap.String("entityId", entityID),
			zap.Strings("fields", elided),
		)
	}
}

// guard rejects mutation of the ledger itself and unknown descriptors.
func (e *Engine) guard(desc Descriptor) error {
	if desc.Entity == domain.EntityChanges {
		return fmt.Errorf("cannot mutate the change ledger through the engine")
	}
	return desc.Validate()
}

func (e *Engine) notify(ctx context.Context, change domain.Change) {
	if e.notifier == nil {
		return
	}
	e.notifier.ChangeRecorded(ctx, change)
}

func sortedFields(row domain.Row) []string {
	fields := make([]string, 0, len(row))
	for field := range row {
		fields = append(fields, field)
	}
	sort.Strings(fields)
	return fields
}

func columnList(desc Descriptor, fields []string) string {
	cols := make([]string, len(fields))
	for i, field := range fields {
		col, _ := desc.Column(field)
		cols[i] = quoteIdent(col.Name)
	}
	return strings.Join(cols, ", ")
}

func allColumnList(desc Descriptor) string {
	return columnList(desc, desc.Fields())
}

// quoteIdent quotes a SQL identifier; some columns ("start", "end",
// "primary") collide with keywords.
func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

// queryRow runs a statement expected to produce exactly one row and decodes
// it into a Row keyed by the given logical field names.
func queryRow(ctx context.Context, tx pgx.Tx, sql string, args []any, fields []string) (domain.Row, error) {
	rows, err := tx.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, err
		}
		return nil, pgx.ErrNoRows
	}

	values, err := rows.Values()
	if err != nil {
		return nil, err
	}
	if len(values) != len(fields) {
		return nil, fmt.Errorf("expected %d columns, got %d", len(fields), len(values))
	}

	row := make(domain.Row, len(fields))
	for i, field := range fields {
		row[field] = decodeValue(values[i])
	}
	return row, rows.Err()
}
