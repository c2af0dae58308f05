package repository

import (
	"context"

	"github.com/finmax/ledger/internal/domain"
	"github.com/finmax/ledger/internal/engine"
)

var categoriesDescriptor = engine.Descriptor{
	Entity: domain.EntityCategories,
	Table:  "finmax_categories",
	Columns: []engine.Column{
		{Field: "userId", Name: "user_id"},
		{Field: "label", Name: "label"},
		{Field: "iconId", Name: "icon_id"},
		{Field: "isPublic", Name: "is_public"},
		{Field: "metadata", Name: "metadata"},
	},
}

// CategoryInsert is the payload for creating a category.
type CategoryInsert struct {
	UserID   string     `json:"userId"`
	Label    string     `json:"label"`
	IconID   *string    `json:"iconId,omitempty"`
	IsPublic *bool      `json:"isPublic,omitempty"`
	Metadata domain.Row `json:"metadata,omitempty"`
}

// CategoryPatch is a partial update; nil fields are left untouched.
type CategoryPatch struct {
	UserID   *string    `json:"userId,omitempty"`
	Label    *string    `json:"label,omitempty"`
	IconID   *string    `json:"iconId,omitempty"`
	IsPublic *bool      `json:"isPublic,omitempty"`
	Metadata domain.Row `json:"metadata,omitempty"`
}

type categoriesRepository struct {
	engine *engine.Engine
}

// NewCategories creates the categories facade.
func NewCategories(eng *engine.Engine) CategoriesRepository {
	return &categoriesRepository{engine: eng}
}

func (r *categoriesRepository) Insert(ctx context.Context, actorID string, input CategoryInsert) (domain.Category, error) {
	if err := requireID(domain.EntityCategories, "userId", input.UserID); err != nil {
		return domain.Category{}, err
	}
	if err := requireLabel(domain.EntityCategories, "label", input.Label); err != nil {
		return domain.Category{}, err
	}
	if err := optionalID(domain.EntityCategories, "iconId", input.IconID); err != nil {
		return domain.Category{}, err
	}

	row := domain.Row{
		"userId": input.UserID,
		"label":  input.Label,
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

	created, err := r.engine.Insert(ctx, actorID, categoriesDescriptor, row)
	if err != nil {
		return domain.Category{}, err
	}
	return categoryFromRow(created), nil
}

func (r *categoriesRepository) Update(ctx context.Context, actorID, id string, patch CategoryPatch) (domain.Row, error) {
	row := domain.Row{}
	if patch.UserID != nil {
		if err := requireID(domain.EntityCategories, "userId", *patch.UserID); err != nil {
			return nil, err
		}
		row["userId"] = *patch.UserID
	}
	if patch.Label != nil {
		if err := requireLabel(domain.EntityCategories, "label", *patch.Label); err != nil {
			return nil, err
		}
		row["label"] = *patch.Label
	}
	if patch.IconID != nil {
		if err := requireID(domain.EntityCategories, "iconId", *patch.IconID); err != nil {
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

	return r.engine.Patch(ctx, actorID, categoriesDescriptor, id, row)
}

func (r *categoriesRepository) Delete(ctx context.Context, actorID, id string) (domain.Category, error) {
	deleted, err := r.engine.Delete(ctx, actorID, categoriesDescriptor, id)
	if err != nil {
		return domain.Category{}, err
	}
	return categoryFromRow(deleted), nil
}

func categoryFromRow(row domain.Row) domain.Category {
	return domain.Category{
		ID:       stringField(row, "id"),
		UserID:   stringField(row, "userId"),
		Label:    stringField(row, "label"),
		IconID:   stringPtrField(row, "iconId"),
		IsPublic: boolField(row, "isPublic"),
		Metadata: rowField(row, "metadata"),
	}
}
