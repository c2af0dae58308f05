package repository

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/finmax/ledger/internal/domain"
	"github.com/finmax/ledger/internal/engine"
)

var transactionsDescriptor = engine.Descriptor{
	Entity: domain.EntityTransactions,
	Table:  "finmax_transactions",
	Columns: []engine.Column{
		{Field: "userId", Name: "user_id"},
		{Field: "date", Name: "date"},
		{Field: "amount", Name: "amount"},
		{Field: "payeeId", Name: "payee_id"},
		{Field: "description", Name: "description"},
		{Field: "accountId", Name: "account_id"},
		{Field: "methodId", Name: "method_id"},
		{Field: "categoryId", Name: "category_id"},
		{Field: "subscriptionId", Name: "subscription_id"},
		{Field: "parentId", Name: "parent_id"},
		{Field: "metadata", Name: "metadata"},
	},
}

// TransactionInsert is the payload for creating a transaction. The owning
// user is always the acting user, so the payload carries no userId.
type TransactionInsert struct {
	Date           time.Time       `json:"date"`
	Amount         decimal.Decimal `json:"amount"`
	PayeeID        string          `json:"payeeId"`
	Description    *string         `json:"description,omitempty"`
	AccountID      string          `json:"accountId"`
	MethodID       string          `json:"methodId"`
	CategoryID     string          `json:"categoryId"`
	SubscriptionID *string         `json:"subscriptionId,omitempty"`
	ParentID       *string         `json:"parentId,omitempty"`
	Metadata       domain.Row      `json:"metadata,omitempty"`
}

// TransactionPatch is a partial update; nil fields are left untouched.
// Ownership is not patchable.
type TransactionPatch struct {
	Date           *time.Time       `json:"date,omitempty"`
	Amount         *decimal.Decimal `json:"amount,omitempty"`
	PayeeID        *string          `json:"payeeId,omitempty"`
	Description    *string          `json:"description,omitempty"`
	AccountID      *string          `json:"accountId,omitempty"`
	MethodID       *string          `json:"methodId,omitempty"`
	CategoryID     *string          `json:"categoryId,omitempty"`
	SubscriptionID *string          `json:"subscriptionId,omitempty"`
	ParentID       *string          `json:"parentId,omitempty"`
	Metadata       domain.Row       `json:"metadata,omitempty"`
}

type transactionsRepository struct {
	engine *engine.Engine
}

// NewTransactions creates the transactions facade.
func NewTransactions(eng *engine.Engine) TransactionsRepository {
	return &transactionsRepository{engine: eng}
}

func (r *transactionsRepository) Insert(ctx context.Context, actorID string, input TransactionInsert) (domain.Transaction, error) {
	if err := requireID(domain.EntityTransactions, "userId", actorID); err != nil {
		return domain.Transaction{}, err
	}
	if input.Date.IsZero() {
		return domain.Transaction{}, &domain.ValidationError{Entity: domain.EntityTransactions, Field: "date", Reason: "must be set"}
	}
	for field, id := range map[string]string{
		"payeeId":    input.PayeeID,
		"accountId":  input.AccountID,
		"methodId":   input.MethodID,
		"categoryId": input.CategoryID,
	} {
		if err := requireID(domain.EntityTransactions, field, id); err != nil {
			return domain.Transaction{}, err
		}
	}
	if err := optionalID(domain.EntityTransactions, "subscriptionId", input.SubscriptionID); err != nil {
		return domain.Transaction{}, err
	}
	if err := optionalID(domain.EntityTransactions, "parentId", input.ParentID); err != nil {
		return domain.Transaction{}, err
	}

	row := domain.Row{
		"userId":     actorID,
		"date":       input.Date,
		"amount":     input.Amount,
		"payeeId":    input.PayeeID,
		"accountId":  input.AccountID,
		"methodId":   input.MethodID,
		"categoryId": input.CategoryID,
	}
	if input.Description != nil {
		row["description"] = *input.Description
	}
	if input.SubscriptionID != nil {
		row["subscriptionId"] = *input.SubscriptionID
	}
	if input.ParentID != nil {
		row["parentId"] = *input.ParentID
	}
	if input.Metadata != nil {
		row["metadata"] = input.Metadata
	}

	created, err := r.engine.Insert(ctx, actorID, transactionsDescriptor, row)
	if err != nil {
		return domain.Transaction{}, err
	}
	return transactionFromRow(created), nil
}

func (r *transactionsRepository) Update(ctx context.Context, actorID, id string, patch TransactionPatch) (domain.Row, error) {
	row := domain.Row{}
	if patch.Date != nil {
		row["date"] = *patch.Date
	}
	if patch.Amount != nil {
		row["amount"] = *patch.Amount
	}
	if patch.Description != nil {
		row["description"] = *patch.Description
	}
	for field, ref := range map[string]*string{
		"payeeId":        patch.PayeeID,
		"accountId":      patch.AccountID,
		"methodId":       patch.MethodID,
		"categoryId":     patch.CategoryID,
		"subscriptionId": patch.SubscriptionID,
		"parentId":       patch.ParentID,
	} {
		if ref == nil {
			continue
		}
		if err := requireID(domain.EntityTransactions, field, *ref); err != nil {
			return nil, err
		}
		row[field] = *ref
	}
	if patch.Metadata != nil {
		row["metadata"] = patch.Metadata
	}

	return r.engine.Patch(ctx, actorID, transactionsDescriptor, id, row)
}

func (r *transactionsRepository) Delete(ctx context.Context, actorID, id string) (domain.Transaction, error) {
	deleted, err := r.engine.Delete(ctx, actorID, transactionsDescriptor, id)
	if err != nil {
		return domain.Transaction{}, err
	}
	return transactionFromRow(deleted), nil
}

func transactionFromRow(row domain.Row) domain.Transaction {
	return domain.Transaction{
		ID:             stringField(row, "id"),
		UserID:         stringField(row, "userId"),
		Date:           timeField(row, "date"),
		Amount:         decimalField(row, "amount"),
		PayeeID:        stringField(row, "payeeId"),
		Description:    stringPtrField(row, "description"),
		AccountID:      stringField(row, "accountId"),
		MethodID:       stringField(row, "methodId"),
		CategoryID:     stringField(row, "categoryId"),
		SubscriptionID: stringPtrField(row, "subscriptionId"),
		ParentID:       stringPtrField(row, "parentId"),
		Metadata:       rowField(row, "metadata"),
	}
}
