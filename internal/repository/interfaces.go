// Package repository provides typed mutation facades over the versioned
// write engine, one per entity. Each facade validates its input, maps it to
// the engine's field rows and projects engine results back into entity
// structs. All writes flow through the engine so every mutation lands in the
// change ledger.
package repository

import (
	"context"

	"github.com/finmax/ledger/internal/domain"
)

// AccountsRepository mutates money accounts.
type AccountsRepository interface {
	Insert(ctx context.Context, actorID string, input AccountInsert) (domain.Account, error)
	Update(ctx context.Context, actorID, id string, patch AccountPatch) (domain.Row, error)
	Delete(ctx context.Context, actorID, id string) (domain.Account, error)
}

// MethodsRepository mutates payment methods.
type MethodsRepository interface {
	Insert(ctx context.Context, actorID string, input MethodInsert) (domain.Method, error)
	Update(ctx context.Context, actorID, id string, patch MethodPatch) (domain.Row, error)
	Delete(ctx context.Context, actorID, id string) (domain.Method, error)
}

// CategoriesRepository mutates transaction categories.
type CategoriesRepository interface {
	Insert(ctx context.Context, actorID string, input CategoryInsert) (domain.Category, error)
	Update(ctx context.Context, actorID, id string, patch CategoryPatch) (domain.Row, error)
	Delete(ctx context.Context, actorID, id string) (domain.Category, error)
}

// PayeesRepository mutates payees.
type PayeesRepository interface {
	Insert(ctx context.Context, actorID string, input PayeeInsert) (domain.Payee, error)
	Update(ctx context.Context, actorID, id string, patch PayeePatch) (domain.Row, error)
	Delete(ctx context.Context, actorID, id string) (domain.Payee, error)
}

// SubscriptionsRepository mutates recurring payment templates.
type SubscriptionsRepository interface {
	Insert(ctx context.Context, actorID string, input SubscriptionInsert) (domain.Subscription, error)
	Update(ctx context.Context, actorID, id string, patch SubscriptionPatch) (domain.Row, error)
	Delete(ctx context.Context, actorID, id string) (domain.Subscription, error)
}

// TransactionsRepository mutates transactions. Inserted transactions always
// belong to the acting user; the facade does not accept a userId.
type TransactionsRepository interface {
	Insert(ctx context.Context, actorID string, input TransactionInsert) (domain.Transaction, error)
	Update(ctx context.Context, actorID, id string, patch TransactionPatch) (domain.Row, error)
	Delete(ctx context.Context, actorID, id string) (domain.Transaction, error)
}

// IconsRepository mutates shared icons.
type IconsRepository interface {
	Insert(ctx context.Context, actorID string, input IconInsert) (domain.Icon, error)
	Update(ctx context.Context, actorID, id string, patch IconPatch) (domain.Row, error)
	Delete(ctx context.Context, actorID, id string) (domain.Icon, error)
}

// UsersRepository mutates users. Rows are addressed by either the internal
// identifier or the external (Clerk) identifier; registration attributes the
// insert change to the created user itself.
type UsersRepository interface {
	Register(ctx context.Context, input UserInsert) (domain.User, error)
	Get(ctx context.Context, idOrClerkID string) (domain.User, error)
	Update(ctx context.Context, actorID, idOrClerkID string, patch UserPatch) (domain.Row, error)
	Delete(ctx context.Context, actorID, idOrClerkID string) (domain.User, error)
}

// ChangesRepository reads the change ledger. The ledger is append-only and
// written exclusively by the engine; this repository never mutates it.
type ChangesRepository interface {
	GetByID(ctx context.Context, changeID string) (domain.Change, error)
	ListByEntity(ctx context.Context, entity domain.EntityType, entityID string) ([]domain.Change, error)
	StateAt(ctx context.Context, entity domain.EntityType, entityID string, version int64) (domain.Row, error)
	RenderDiff(ctx context.Context, changeID string) (string, error)
}
