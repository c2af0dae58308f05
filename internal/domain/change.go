package domain

import (
	"time"
)

// EntityType is the logical table name a mutation targets.
type EntityType string

const (
	EntityUsers         EntityType = "users"
	EntityChanges       EntityType = "changes"
	EntityTransactions  EntityType = "transactions"
	EntityAccounts      EntityType = "accounts"
	EntityMethods       EntityType = "methods"
	EntityCategories    EntityType = "categories"
	EntityPayees        EntityType = "payees"
	EntitySubscriptions EntityType = "subscriptions"
	EntityIcons         EntityType = "icons"
)

// ChangeType classifies a ledger entry.
type ChangeType string

const (
	ChangeInsert ChangeType = "insert"
	ChangeUpdate ChangeType = "update"
	ChangeDelete ChangeType = "delete"
)

// Row is a field-name keyed value set: a subset of an entity's columns as
// read or written by the engine, and the payload of ledger snapshots.
// Field names are the logical (camelCase) names, never SQL column names.
type Row map[string]any

// Clone returns a shallow copy of the row.
func (r Row) Clone() Row {
	if r == nil {
		return nil
	}
	out := make(Row, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// Without returns a copy of the row with the given fields removed.
func (r Row) Without(fields ...string) Row {
	out := r.Clone()
	for _, f := range fields {
		delete(out, f)
	}
	return out
}

// Change is one committed mutation of exactly one entity. Ledger rows are
// append-only: a Change is never mutated or deleted once written.
type Change struct {
	ID         string     `json:"id"`
	At         time.Time  `json:"at"`
	By         string     `json:"by"`
	Entity     EntityType `json:"entity"`
	EntityID   string     `json:"entityId"`
	Version    int64      `json:"version"`
	Type       ChangeType `json:"type"`
	DataBefore Row        `json:"dataBefore,omitempty"`
	DataAfter  Row        `json:"dataAfter,omitempty"`
	IsRevert   bool       `json:"isRevert"`
	RevertOf   *string    `json:"revertOf,omitempty"`
	Notes      *string    `json:"notes,omitempty"`
	Metadata   Row        `json:"metadata,omitempty"`
}
