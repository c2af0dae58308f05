package repository

import (
	"context"

	"github.com/finmax/ledger/internal/domain"
	"github.com/finmax/ledger/internal/engine"
)

var iconsDescriptor = engine.Descriptor{
	Entity: domain.EntityIcons,
	Table:  "finmax_icons",
	Columns: []engine.Column{
		{Field: "data", Name: "data"},
	},
}

// IconInsert is the payload for creating an icon.
type IconInsert struct {
	Data string `json:"data"`
}

// IconPatch is a partial update; nil fields are left untouched.
type IconPatch struct {
	Data *string `json:"data,omitempty"`
}

type iconsRepository struct {
	engine *engine.Engine
}

// NewIcons creates the icons facade.
func NewIcons(eng *engine.Engine) IconsRepository {
	return &iconsRepository{engine: eng}
}

func (r *iconsRepository) Insert(ctx context.Context, actorID string, input IconInsert) (domain.Icon, error) {
	if input.Data == "" {
		return domain.Icon{}, &domain.ValidationError{Entity: domain.EntityIcons, Field: "data", Reason: "must not be empty"}
	}

	created, err := r.engine.Insert(ctx, actorID, iconsDescriptor, domain.Row{"data": input.Data})
	if err != nil {
		return domain.Icon{}, err
	}
	return iconFromRow(created), nil
}

func (r *iconsRepository) Update(ctx context.Context, actorID, id string, patch IconPatch) (domain.Row, error) {
	row := domain.Row{}
	if patch.Data != nil {
		if *patch.Data == "" {
			return nil, &domain.ValidationError{Entity: domain.EntityIcons, Field: "data", Reason: "must not be empty"}
		}
		row["data"] = *patch.Data
	}

	return r.engine.Patch(ctx, actorID, iconsDescriptor, id, row)
}

func (r *iconsRepository) Delete(ctx context.Context, actorID, id string) (domain.Icon, error) {
	deleted, err := r.engine.Delete(ctx, actorID, iconsDescriptor, id)
	if err != nil {
		return domain.Icon{}, err
	}
	return iconFromRow(deleted), nil
}

func iconFromRow(row domain.Row) domain.Icon {
	return domain.Icon{
		ID:   stringField(row, "id"),
		Data: stringField(row, "data"),
	}
}
