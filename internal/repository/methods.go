package repository

import (
	"context"

	"github.com/finmax/ledger/internal/domain"
	"github.com/finmax/ledger/internal/engine"
)

var methodsDescriptor = engine.Descriptor{
	Entity: domain.EntityMethods,
	Table:  "finmax_methods",
	Columns: []engine.Column{
		{Field: "userId", Name: "user_id"},
		{Field: "label", Name: "label"},
		{Field: "autoRegex", Name: "auto_regex"},
		{Field: "iconId", Name: "icon_id"},
		{Field: "isPublic", Name: "is_public"},
		{Field: "metadata", Name: "metadata"},
	},
}

// MethodInsert is the payload for creating a payment method.
type MethodInsert struct {
	UserID    string     `json:"userId"`
	Label     string     `json:"label"`
	AutoRegex *string    `json:"autoRegex,omitempty"`
	IconID    *string    `json:"iconId,omitempty"`
	IsPublic  *bool      `json:"isPublic,omitempty"`
	Metadata  domain.Row `json:"metadata,omitempty"`
}

// MethodPatch is a partial update; nil fields are left untouched.
type MethodPatch struct {
	UserID    *string    `json:"userId,omitempty"`
	Label     *string    `json:"label,omitempty"`
	AutoRegex *string    `json:"autoRegex,omitempty"`
	IconID    *string    `json:"iconId,omitempty"`
	IsPublic  *bool      `json:"isPublic,omitempty"`
	Metadata  domain.Row `json:"metadata,omitempty"`
}

type methodsRepository struct {
	engine *engine.Engine
}

// NewMethods creates the methods facade.
func NewMethods(eng *engine.Engine) MethodsRepository {
	return &methodsRepository{engine: eng}
}

func (r *methodsRepository) Insert(ctx context.Context, actorID string, input MethodInsert) (domain.Method, error) {
	if err := requireID(domain.EntityMethods, "userId", input.UserID); err != nil {
		return domain.Method{}, err
	}
	if err := requireLabel(domain.EntityMethods, "label", input.Label); err != nil {
		return domain.Method{}, err
	}
	if err := optionalID(domain.EntityMethods, "iconId", input.IconID); err != nil {
		return domain.Method{}, err
	}

	row := domain.Row{
		"userId": input.UserID,
		"label":  input.Label,
	}
	if input.AutoRegex != nil {
		row["autoRegex"] = *input.AutoRegex
	}
	if input.IconID != nil {
		row["iconId"] = *input.IconID
	}
	if input.IsPublic != nil {
		row["isPublic"] = *input.IsPublic
	}
	if input.Metadata != nil {
		row["metadata"] = input.Metadata
	}

	created, err := r.engine.Insert(ctx, actorID, methodsDescriptor, row)
	if err != nil {
		return domain.Method{}, err
	}
	return methodFromRow(created), nil
}

func (r *methodsRepository) Update(ctx context.Context, actorID, id string, patch MethodPatch) (domain.Row, error) {
	row := domain.Row{}
	if patch.UserID != nil {
		if err := requireID(domain.EntityMethods, "userId", *patch.UserID); err != nil {
			return nil, err
		}
		row["userId"] = *patch.UserID
	}
	if patch.Label != nil {
		if err := requireLabel(domain.EntityMethods, "label", *patch.Label); err != nil {
			return nil, err
		}
		row["label"] = *patch.Label
	}
	if patch.AutoRegex != nil {
		row["autoRegex"] = *patch.AutoRegex
	}
	if patch.IconID != nil {
		if err := requireID(domain.EntityMethods, "iconId", *patch.IconID); err != nil {
			return nil, err
		}
		row["iconId"] = *patch.IconID
	}
	if patch.IsPublic != nil {
		row["isPublic"] = *patch.IsPublic
	}
	if patch.Metadata != nil {
		row["metadata"] = patch.Metadata
	}

	return r.engine.Patch(ctx, actorID, methodsDescriptor, id, row)
}

func (r *methodsRepository) Delete(ctx context.Context, actorID, id string) (domain.Method, error) {
	deleted, err := r.engine.Delete(ctx, actorID, methodsDescriptor, id)
	if err != nil {
		return domain.Method{}, err
	}
	return methodFromRow(deleted), nil
}

func methodFromRow(row domain.Row) domain.Method {
	return domain.Method{
		ID:        stringField(row, "id"),
		UserID:    stringField(row, "userId"),
		Label:     stringField(row, "label"),
		AutoRegex: stringPtrField(row, "autoRegex"),
		IconID:    stringPtrField(row, "iconId"),
		IsPublic:  boolField(row, "isPublic"),
		Metadata:  rowField(row, "metadata"),
	}
}
