package engine

import (
	"fmt"

	"github.com/finmax/ledger/internal/domain"
)

// Column maps one logical field to its SQL column. Field names are what the
// ledger snapshots and Row maps use; Name is the physical column.
type Column struct {
	Field string
	Name  string
}

// Descriptor binds an entity type to its table and mutable columns. The id
// column is implicit and never listed: snapshots must not contain it and the
// engine manages it directly.
type Descriptor struct {
	Entity  domain.EntityType
	Table   string
	Columns []Column
}

// Column returns the column for a logical field name.
func (d Descriptor) Column(field string) (Column, bool) {
	for _, c := range d.Columns {
		if c.Field == field {
			return c, true
		}
	}
	return Column{}, false
}

// Fields returns the logical field names in declaration order.
func (d Descriptor) Fields() []string {
	fields := make([]string, len(d.Columns))
	for i, c := range d.Columns {
		fields[i] = c.Field
	}
	return fields
}

// Validate checks the descriptor is usable by the engine.
func (d Descriptor) Validate() error {
	if d.Entity == "" {
		return fmt.Errorf("descriptor has no entity type")
	}
	if d.Table == "" {
		return fmt.Errorf("descriptor %s has no table", d.Entity)
	}
	if len(d.Columns) == 0 {
		return fmt.Errorf("descriptor %s has no columns", d.Entity)
	}

	seen := make(map[string]struct{}, len(d.Columns))
	for _, c := range d.Columns {
		if c.Field == "" || c.Name == "" {
			return fmt.Errorf("descriptor %s has an unnamed column", d.Entity)
		}
		if c.Field == "id" || c.Name == "id" {
			return fmt.Errorf("descriptor %s must not list the id column", d.Entity)
		}
		if _, dup := seen[c.Field]; dup {
			return fmt.Errorf("descriptor %s lists field %q twice", d.Entity, c.Field)
		}
		seen[c.Field] = struct{}{}
	}
	return nil
}

// checkFields verifies every key of the row is a known descriptor field.
func (d Descriptor) checkFields(row domain.Row) error {
	for field := range row {
		if _, ok := d.Column(field); !ok {
			return fmt.Errorf("unknown field %q for %s", field, d.Entity)
		}
	}
	return nil
}
