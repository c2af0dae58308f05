package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// PaymentFrequency is the billing cadence of a subscription.
type PaymentFrequency string

const (
	FrequencyWeekly     PaymentFrequency = "weekly"
	FrequencyMonthly    PaymentFrequency = "monthly"
	FrequencyQuarterly  PaymentFrequency = "quarterly"
	FrequencyBiannually PaymentFrequency = "biannually"
	FrequencyAnnually   PaymentFrequency = "annually"
)

// Valid reports whether f is one of the known cadences.
func (f PaymentFrequency) Valid() bool {
	switch f {
	case FrequencyWeekly, FrequencyMonthly, FrequencyQuarterly, FrequencyBiannually, FrequencyAnnually:
		return true
	}
	return false
}

// User is an application user. ClerkID links the row to the external
// identity provider and is immutable after creation.
type User struct {
	ID               string  `json:"id"`
	ClerkID          string  `json:"clerkId"`
	Pfp              *string `json:"pfp,omitempty"`
	Inactive         bool    `json:"inactive"`
	Settings         Row     `json:"settings,omitempty"`
	DefaultAccountID *string `json:"defaultAccountId,omitempty"`
	DefaultMethodID  *string `json:"defaultMethodId,omitempty"`
}

// Account is a money container owned by one user.
type Account struct {
	ID       string  `json:"id"`
	UserID   string  `json:"userId"`
	Label    string  `json:"label"`
	Currency string  `json:"currency"`
	IconID   *string `json:"iconId,omitempty"`
	Metadata Row     `json:"metadata,omitempty"`
}

// Method is a payment method; public methods are shared system rows.
type Method struct {
	ID        string  `json:"id"`
	UserID    string  `json:"userId"`
	Label     string  `json:"label"`
	AutoRegex *string `json:"autoRegex,omitempty"`
	IconID    *string `json:"iconId,omitempty"`
	IsPublic  bool    `json:"isPublic"`
	Metadata  Row     `json:"metadata,omitempty"`
}

// Category labels transactions for reporting.
type Category struct {
	ID       string  `json:"id"`
	UserID   string  `json:"userId"`
	Label    string  `json:"label"`
	IconID   *string `json:"iconId,omitempty"`
	IsPublic bool    `json:"isPublic"`
	Metadata Row     `json:"metadata,omitempty"`
}

// Payee is a counterparty transactions are recorded against.
type Payee struct {
	ID     string  `json:"id"`
	UserID string  `json:"userId"`
	Name   string  `json:"name"`
	Notes  *string `json:"notes,omitempty"`
}

// Subscription is a recurring payment template.
type Subscription struct {
	ID         string           `json:"id"`
	UserID     string           `json:"userId"`
	Amount     decimal.Decimal  `json:"amount"`
	Start      time.Time        `json:"start"`
	End        *time.Time       `json:"end,omitempty"`
	Frequency  PaymentFrequency `json:"frequency"`
	PayeeID    string           `json:"payeeId"`
	MethodID   string           `json:"methodId"`
	CategoryID string           `json:"categoryId"`
	AccountID  string           `json:"accountId"`
	Metadata   Row              `json:"metadata,omitempty"`
}

// Transaction is a single recorded movement of money.
type Transaction struct {
	ID             string          `json:"id"`
	UserID         string          `json:"userId"`
	Date           time.Time       `json:"date"`
	Amount         decimal.Decimal `json:"amount"`
	PayeeID        string          `json:"payeeId"`
	Description    *string         `json:"description,omitempty"`
	AccountID      string          `json:"accountId"`
	MethodID       string          `json:"methodId"`
	CategoryID     string          `json:"categoryId"`
	SubscriptionID *string         `json:"subscriptionId,omitempty"`
	ParentID       *string         `json:"parentId,omitempty"`
	Metadata       Row             `json:"metadata,omitempty"`
}

// Icon is shared image data referenced by accounts, methods and categories.
type Icon struct {
	ID   string `json:"id"`
	Data string `json:"data"`
}
