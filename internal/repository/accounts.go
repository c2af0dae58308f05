package repository

import (
	"context"

	"github.com/finmax/ledger/internal/domain"
	"github.com/finmax/ledger/internal/engine"
)

var accountsDescriptor = engine.Descriptor{
	Entity: domain.EntityAccounts,
	Table:  "finmax_accounts",
	Columns: []engine.Column{
		{Field: "userId", Name: "user_id"},
		{Field: "label", Name: "label"},
		{Field: "currency", Name: "currency"},
		{Field: "iconId", Name: "icon_id"},
		{Field: "metadata", Name: "metadata"},
	},
}

// AccountInsert is the payload for creating an account. Currency defaults
// server-side when omitted.
type AccountInsert struct {
	UserID   string     `json:"userId"`
	Label    string     `json:"label"`
	Currency *string    `json:"currency,omitempty"`
	IconID   *string    `json:"iconId,omitempty"`
	Metadata domain.Row `json:"metadata,omitempty"`
}

// AccountPatch is a partial update; nil fields are left untouched.
type AccountPatch struct {
	UserID   *string    `json:"userId,omitempty"`
	Label    *string    `json:"label,omitempty"`
	Currency *string    `json:"currency,omitempty"`
	IconID   *string    `json:"iconId,omitempty"`
	Metadata domain.Row `json:"metadata,omitempty"`
}

type accountsRepository struct {
	engine *engine.Engine
}

// NewAccounts creates the accounts facade.
func NewAccounts(eng *engine.Engine) AccountsRepository {
	return &accountsRepository{engine: eng}
}

func (r *accountsRepository) Insert(ctx context.Context, actorID string, input AccountInsert) (domain.Account, error) {
	if err := requireID(domain.EntityAccounts, "userId", input.UserID); err != nil {
		return domain.Account{}, err
	}
	if err := requireLabel(domain.EntityAccounts, "label", input.Label); err != nil {
		return domain.Account{}, err
	}
	if input.Currency != nil {
		if err := requireCurrency(domain.EntityAccounts, "currency", *input.Currency); err != nil {
			return domain.Account{}, err
		}
	}
	if err := optionalID(domain.EntityAccounts, "iconId", input.IconID); err != nil {
		return domain.Account{}, err
	}

	row := domain.Row{
		"userId": input.UserID,
		"label":  input.Label,
	}
	if input.Currency != nil {
		row["currency"] = *input.Currency
	}
	if input.IconID != nil {
		row["iconId"] = *input.IconID
	}
	if input.Metadata != nil {
		row["metadata"] = input.Metadata
	}

	created, err := r.engine.Insert(ctx, actorID, accountsDescriptor, row)
	if err != nil {
		return domain.Account{}, err
	}
	return accountFromRow(created), nil
}

func (r *accountsRepository) Update(ctx context.Context, actorID, id string, patch AccountPatch) (domain.Row, error) {
	row := domain.Row{}
	if patch.UserID != nil {
		if err := requireID(domain.EntityAccounts, "userId", *patch.UserID); err != nil {
			return nil, err
		}
		row["userId"] = *patch.UserID
	}
	if patch.Label != nil {
		if err := requireLabel(domain.EntityAccounts, "label", *patch.Label); err != nil {
			return nil, err
		}
		row["label"] = *patch.Label
	}
	if patch.Currency != nil {
		if err := requireCurrency(domain.EntityAccounts, "currency", *patch.Currency); err != nil {
			return nil, err
		}
		row["currency"] = *patch.Currency
	}
	if patch.IconID != nil {
		if err := requireID(domain.EntityAccounts, "iconId", *patch.IconID); err != nil {
			return nil, err
		}
		row["iconId"] = *patch.IconID
	}
	if patch.Metadata != nil {
		row["metadata"] = patch.Metadata
	}

	return r.engine.Patch(ctx, actorID, accountsDescriptor, id, row)
}

func (r *accountsRepository) Delete(ctx context.Context, actorID, id string) (domain.Account, error) {
	deleted, err := r.engine.Delete(ctx, actorID, accountsDescriptor, id)
	if err != nil {
		return domain.Account{}, err
	}
	return accountFromRow(deleted), nil
}

func accountFromRow(row domain.Row) domain.Account {
	return domain.Account{
		ID:       stringField(row, "id"),
		UserID:   stringField(row, "userId"),
		Label:    stringField(row, "label"),
		Currency: stringField(row, "currency"),
		IconID:   stringPtrField(row, "iconId"),
		Metadata: rowField(row, "metadata"),
	}
}
