package repository

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/finmax/ledger/internal/domain"
	"github.com/finmax/ledger/internal/engine"
)

var subscriptionsDescriptor = engine.Descriptor{
	Entity: domain.EntitySubscriptions,
	Table:  "finmax_subscriptions",
	Columns: []engine.Column{
		{Field: "userId", Name: "user_id"},
		{Field: "amount", Name: "amount"},
		{Field: "start", Name: "start"},
		{Field: "end", Name: "end"},
		{Field: "frequency", Name: "frequency"},
		{Field: "payeeId", Name: "payee_id"},
		{Field: "methodId", Name: "method_id"},
		{Field: "categoryId", Name: "category_id"},
		{Field: "accountId", Name: "account_id"},
		{Field: "metadata", Name: "metadata"},
	},
}

// SubscriptionInsert is the payload for creating a subscription.
type SubscriptionInsert struct {
	UserID     string                  `json:"userId"`
	Amount     decimal.Decimal         `json:"amount"`
	Start      time.Time               `json:"start"`
	End        *time.Time              `json:"end,omitempty"`
	Frequency  domain.PaymentFrequency `json:"frequency"`
	PayeeID    string                  `json:"payeeId"`
	MethodID   string                  `json:"methodId"`
	CategoryID string                  `json:"categoryId"`
	AccountID  string                  `json:"accountId"`
	Metadata   domain.Row              `json:"metadata,omitempty"`
}

// SubscriptionPatch is a partial update; nil fields are left untouched.
type SubscriptionPatch struct {
	UserID     *string                  `json:"userId,omitempty"`
	Amount     *decimal.Decimal         `json:"amount,omitempty"`
	Start      *time.Time               `json:"start,omitempty"`
	End        *time.Time               `json:"end,omitempty"`
	Frequency  *domain.PaymentFrequency `json:"frequency,omitempty"`
	PayeeID    *string                  `json:"payeeId,omitempty"`
	MethodID   *string                  `json:"methodId,omitempty"`
	CategoryID *string                  `json:"categoryId,omitempty"`
	AccountID  *string                  `json:"accountId,omitempty"`
	Metadata   domain.Row               `json:"metadata,omitempty"`
}

type subscriptionsRepository struct {
	engine *engine.Engine
}

// NewSubscriptions creates the subscriptions facade.
func NewSubscriptions(eng *engine.Engine) SubscriptionsRepository {
	return &subscriptionsRepository{engine: eng}
}

func (r *subscriptionsRepository) Insert(ctx context.Context, actorID string, input SubscriptionInsert) (domain.Subscription, error) {
	if err := requireID(domain.EntitySubscriptions, "userId", input.UserID); err != nil {
		return domain.Subscription{}, err
	}
	if input.Start.IsZero() {
		return domain.Subscription{}, &domain.ValidationError{Entity: domain.EntitySubscriptions, Field: "start", Reason: "must be set"}
	}
	if !input.Frequency.Valid() {
		return domain.Subscription{}, &domain.ValidationError{Entity: domain.EntitySubscriptions, Field: "frequency", Reason: "unknown payment frequency"}
	}
	for field, id := range map[string]string{
		"payeeId":    input.PayeeID,
		"methodId":   input.MethodID,
		"categoryId": input.CategoryID,
		"accountId":  input.AccountID,
	} {
		if err := requireID(domain.EntitySubscriptions, field, id); err != nil {
			return domain.Subscription{}, err
		}
	}

	row := domain.Row{
		"userId":     input.UserID,
		"amount":     input.Amount,
		"start":      input.Start,
		"frequency":  input.Frequency,
		"payeeId":    input.PayeeID,
		"methodId":   input.MethodID,
		"categoryId": input.CategoryID,
		"accountId":  input.AccountID,
	}
	if input.End != nil {
		row["end"] = *input.End
	}
	if input.Metadata != nil {
		row["metadata"] = input.Metadata
	}

	created, err := r.engine.Insert(ctx, actorID, subscriptionsDescriptor, row)
	if err != nil {
		return domain.Subscription{}, err
	}
	return subscriptionFromRow(created), nil
}

func (r *subscriptionsRepository) Update(ctx context.Context, actorID, id string, patch SubscriptionPatch) (domain.Row, error) {
	row := domain.Row{}
	if patch.UserID != nil {
		if err := requireID(domain.EntitySubscriptions, "userId", *patch.UserID); err != nil {
			return nil, err
		}
		row["userId"] = *patch.UserID
	}
	if patch.Amount != nil {
		row["amount"] = *patch.Amount
	}
	if patch.Start != nil {
		row["start"] = *patch.Start
	}
	if patch.End != nil {
		row["end"] = *patch.End
	}
	if patch.Frequency != nil {
		if !patch.Frequency.Valid() {
			return nil, &domain.ValidationError{Entity: domain.EntitySubscriptions, Field: "frequency", Reason: "unknown payment frequency"}
		}
		row["frequency"] = *patch.Frequency
	}
	for field, ref := range map[string]*string{
		"payeeId":    patch.PayeeID,
		"methodId":   patch.MethodID,
		"categoryId": patch.CategoryID,
		"accountId":  patch.AccountID,
	} {
		if ref == nil {
			continue
		}
		if err := requireID(domain.EntitySubscriptions, field, *ref); err != nil {
			return nil, err
		}
		row[field] = *ref
	}
	if patch.Metadata != nil {
		row["metadata"] = patch.Metadata
	}

	return r.engine.Patch(ctx, actorID, subscriptionsDescriptor, id, row)
}

func (r *subscriptionsRepository) Delete(ctx context.Context, actorID, id string) (domain.Subscription, error) {
	deleted, err := r.engine.Delete(ctx, actorID, subscriptionsDescriptor, id)
	if err != nil {
		return domain.Subscription{}, err
	}
	return subscriptionFromRow(deleted), nil
}

func subscriptionFromRow(row domain.Row) domain.Subscription {
	return domain.Subscription{
		ID:         stringField(row, "id"),
		UserID:     stringField(row, "userId"),
		Amount:     decimalField(row, "amount"),
		Start:      timeField(row, "start"),
		End:        timePtrField(row, "end"),
		Frequency:  domain.PaymentFrequency(stringField(row, "frequency")),
		PayeeID:    stringField(row, "payeeId"),
		MethodID:   stringField(row, "methodId"),
		CategoryID: stringField(row, "categoryId"),
		AccountID:  stringField(row, "accountId"),
		Metadata:   rowField(row, "metadata"),
	}
}
