package repository

import (
	"context"

	"github.com/finmax/ledger/internal/domain"
	"github.com/finmax/ledger/internal/engine"
)

var payeesDescriptor = engine.Descriptor{
	Entity: domain.EntityPayees,
	Table:  "finmax_payees",
	Columns: []engine.Column{
		{Field: "userId", Name: "user_id"},
		{Field: "name", Name: "name"},
		{Field: "notes", Name: "notes"},
	},
}

// PayeeInsert is the payload for creating a payee.
type PayeeInsert struct {
	UserID string  `json:"userId"`
	Name   string  `json:"name"`
	Notes  *string `json:"notes,omitempty"`
}

// PayeePatch is a partial update; nil fields are left untouched.
type PayeePatch struct {
	UserID *string `json:"userId,omitempty"`
	Name   *string `json:"name,omitempty"`
	Notes  *string `json:"notes,omitempty"`
}

type payeesRepository struct {
	engine *engine.Engine
}

// NewPayees creates the payees facade.
func NewPayees(eng *engine.Engine) PayeesRepository {
	return &payeesRepository{engine: eng}
}

func (r *payeesRepository) Insert(ctx context.Context, actorID string, input PayeeInsert) (domain.Payee, error) {
	if err := requireID(domain.EntityPayees, "userId", input.UserID); err != nil {
		return domain.Payee{}, err
	}
	if err := requireLabel(domain.EntityPayees, "name", input.Name); err != nil {
		return domain.Payee{}, err
	}

	row := domain.Row{
		"userId": input.UserID,
		"name":   input.Name,
	}
	if input.Notes != nil {
		row["notes"] = *input.Notes
	}

	created, err := r.engine.Insert(ctx, actorID, payeesDescriptor, row)
	if err != nil {
		return domain.Payee{}, err
	}
	return payeeFromRow(created), nil
}

func (r *payeesRepository) Update(ctx context.Context, actorID, id string, patch PayeePatch) (domain.Row, error) {
	row := domain.Row{}
	if patch.UserID != nil {
		if err := requireID(domain.EntityPayees, "userId", *patch.UserID); err != nil {
			return nil, err
		}
		row["userId"] = *patch.UserID
	}
	if patch.Name != nil {
		if err := requireLabel(domain.EntityPayees, "name", *patch.Name); err != nil {
			return nil, err
		}
		row["name"] = *patch.Name
	}
	if patch.Notes != nil {
		row["notes"] = *patch.Notes
	}

	return r.engine.Patch(ctx, actorID, payeesDescriptor, id, row)
}

func (r *payeesRepository) Delete(ctx context.Context, actorID, id string) (domain.Payee, error) {
	deleted, err := r.engine.Delete(ctx, actorID, payeesDescriptor, id)
	if err != nil {
		return domain.Payee{}, err
	}
	return payeeFromRow(deleted), nil
}

func payeeFromRow(row domain.Row) domain.Payee {
	return domain.Payee{
		ID:     stringField(row, "id"),
		UserID: stringField(row, "userId"),
		Name:   stringField(row, "name"),
		Notes:  stringPtrField(row, "notes"),
	}
}
