package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/finmax/ledger/internal/db"
	"github.com/finmax/ledger/internal/domain"
	"github.com/finmax/ledger/internal/engine"
	"github.com/finmax/ledger/internal/ident"
)

var usersDescriptor = engine.Descriptor{
	Entity: domain.EntityUsers,
	Table:  "finmax_users",
	Columns: []engine.Column{
		{Field: "clerkId", Name: "clerk_id"},
		{Field: "pfp", Name: "pfp"},
		{Field: "inactive", Name: "inactive"},
		{Field: "settings", Name: "settings"},
		{Field: "defaultAccountId", Name: "default_account_id"},
		{Field: "defaultMethodId", Name: "default_method_id"},
	},
}

// UserInsert is the payload for registering a user.
type UserInsert struct {
	ClerkID          string     `json:"clerkId"`
	Pfp              *string    `json:"pfp,omitempty"`
	Inactive         *bool      `json:"inactive,omitempty"`
	Settings         domain.Row `json:"settings,omitempty"`
	DefaultAccountID *string    `json:"defaultAccountId,omitempty"`
	DefaultMethodID  *string    `json:"defaultMethodId,omitempty"`
}

// UserPatch is a partial update; nil fields are left untouched. The external
// identifier is immutable, so it is deliberately absent.
type UserPatch struct {
	Pfp              *string    `json:"pfp,omitempty"`
	Inactive         *bool      `json:"inactive,omitempty"`
	Settings         domain.Row `json:"settings,omitempty"`
	DefaultAccountID *string    `json:"defaultAccountId,omitempty"`
	DefaultMethodID  *string    `json:"defaultMethodId,omitempty"`
}

type usersRepository struct {
	engine *engine.Engine
	conn   *db.Connection
}

// NewUsers creates the users facade. It takes the connection directly because
// resolving a row by its external identifier is a read the engine does not
// provide.
func NewUsers(eng *engine.Engine, conn *db.Connection) UsersRepository {
	return &usersRepository{engine: eng, conn: conn}
}

// Register creates a user. The ledger entry is attributed to the freshly
// created user, since at registration time there is no other actor.
func (r *usersRepository) Register(ctx context.Context, input UserInsert) (domain.User, error) {
	if len(input.ClerkID) != ident.ExternalIDLength {
		return domain.User{}, &domain.ValidationError{
			Entity: domain.EntityUsers,
			Field:  "clerkId",
			Reason: fmt.Sprintf("must be a %d-character external identifier", ident.ExternalIDLength),
		}
	}
	if err := optionalID(domain.EntityUsers, "defaultAccountId", input.DefaultAccountID); err != nil {
		return domain.User{}, err
	}
	if err := optionalID(domain.EntityUsers, "defaultMethodId", input.DefaultMethodID); err != nil {
		return domain.User{}, err
	}

	row := domain.Row{"clerkId": input.ClerkID}
	if input.Pfp != nil {
		row["pfp"] = *input.Pfp
	}
	if input.Inactive != nil {
		row["inactive"] = *input.Inactive
	}
	if input.Settings != nil {
		row["settings"] = input.Settings
	}
	if input.DefaultAccountID != nil {
		row["defaultAccountId"] = *input.DefaultAccountID
	}
	if input.DefaultMethodID != nil {
		row["defaultMethodId"] = *input.DefaultMethodID
	}

	created, err := r.engine.InsertSelfAttributed(ctx, usersDescriptor, row)
	if err != nil {
		return domain.User{}, err
	}
	return userFromRow(created), nil
}

func (r *usersRepository) Get(ctx context.Context, idOrClerkID string) (domain.User, error) {
	id, err := r.resolveID(ctx, idOrClerkID)
	if err != nil {
		return domain.User{}, err
	}

	const sql = `SELECT id, clerk_id, pfp, inactive, settings, default_account_id, default_method_id
		 FROM finmax_users WHERE id = $1`

	rows, err := r.conn.Pool.Query(ctx, sql, id)
	if err != nil {
		return domain.User{}, fmt.Errorf("failed to get user: %w", err)
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return domain.User{}, fmt.Errorf("failed to get user: %w", err)
		}
		return domain.User{}, &domain.NotFoundError{Entity: domain.EntityUsers, EntityID: idOrClerkID}
	}

	var u domain.User
	var inactive *bool
	var settings map[string]any
	if err := rows.Scan(&u.ID, &u.ClerkID, &u.Pfp, &inactive, &settings, &u.DefaultAccountID, &u.DefaultMethodID); err != nil {
		return domain.User{}, fmt.Errorf("failed to scan user: %w", err)
	}
	if inactive != nil {
		u.Inactive = *inactive
	}
	u.Settings = domain.Row(settings)
	return u, nil
}

func (r *usersRepository) Update(ctx context.Context, actorID, idOrClerkID string, patch UserPatch) (domain.Row, error) {
	id, err := r.resolveID(ctx, idOrClerkID)
	if err != nil {
		return nil, err
	}

	row := domain.Row{}
	if patch.Pfp != nil {
		row["pfp"] = *patch.Pfp
	}
	if patch.Inactive != nil {
		row["inactive"] = *patch.Inactive
	}
	if patch.Settings != nil {
		row["settings"] = patch.Settings
	}
	if patch.DefaultAccountID != nil {
		if err := requireID(domain.EntityUsers, "defaultAccountId", *patch.DefaultAccountID); err != nil {
			return nil, err
		}
		row["defaultAccountId"] = *patch.DefaultAccountID
	}
	if patch.DefaultMethodID != nil {
		if err := requireID(domain.EntityUsers, "defaultMethodId", *patch.DefaultMethodID); err != nil {
			return nil, err
		}
		row["defaultMethodId"] = *patch.DefaultMethodID
	}

	return r.engine.Patch(ctx, actorID, usersDescriptor, id, row)
}

func (r *usersRepository) Delete(ctx context.Context, actorID, idOrClerkID string) (domain.User, error) {
	id, err := r.resolveID(ctx, idOrClerkID)
	if err != nil {
		return domain.User{}, err
	}

	deleted, err := r.engine.Delete(ctx, actorID, usersDescriptor, id)
	if err != nil {
		return domain.User{}, err
	}
	return userFromRow(deleted), nil
}

// resolveID maps an internal or external identifier to the row's internal id.
// The two id lengths never collide, so the length picks the lookup.
func (r *usersRepository) resolveID(ctx context.Context, idOrClerkID string) (string, error) {
	switch len(idOrClerkID) {
	case ident.EntityIDLength:
		return idOrClerkID, nil
	case ident.ExternalIDLength:
		var id string
		err := r.conn.Pool.QueryRow(ctx, `SELECT id FROM finmax_users WHERE clerk_id = $1`, idOrClerkID).Scan(&id)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return "", &domain.NotFoundError{Entity: domain.EntityUsers, EntityID: idOrClerkID}
			}
			return "", fmt.Errorf("failed to resolve user by external id: %w", err)
		}
		return id, nil
	default:
		return "", &domain.NotFoundError{Entity: domain.EntityUsers, EntityID: idOrClerkID}
	}
}

func userFromRow(row domain.Row) domain.User {
	return domain.User{
		ID:               stringField(row, "id"),
		ClerkID:          stringField(row, "clerkId"),
		Pfp:              stringPtrField(row, "pfp"),
		Inactive:         boolField(row, "inactive"),
		Settings:         rowField(row, "settings"),
		DefaultAccountID: stringPtrField(row, "defaultAccountId"),
		DefaultMethodID:  stringPtrField(row, "defaultMethodId"),
	}
}
