package repository

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/finmax/ledger/internal/domain"
	"github.com/finmax/ledger/internal/ident"
)

// Row decode helpers. Engine rows carry values already normalized by the
// engine (numerics as decimal.Decimal, jsonb as decoded maps); these project
// them into the typed entity structs.

func stringField(row domain.Row, field string) string {
	if v, ok := row[field].(string); ok {
		return v
	}
	return ""
}

func stringPtrField(row domain.Row, field string) *string {
	if v, ok := row[field].(string); ok {
		return &v
	}
	return nil
}

func boolField(row domain.Row, field string) bool {
	if v, ok := row[field].(bool); ok {
		return v
	}
	return false
}

func timeField(row domain.Row, field string) time.Time {
	if v, ok := row[field].(time.Time); ok {
		return v
	}
	return time.Time{}
}

func timePtrField(row domain.Row, field string) *time.Time {
	if v, ok := row[field].(time.Time); ok {
		return &v
	}
	return nil
}

func decimalField(row domain.Row, field string) decimal.Decimal {
	switch v := row[field].(type) {
	case decimal.Decimal:
		return v
	case string:
		if d, err := decimal.NewFromString(v); err == nil {
			return d
		}
	}
	return decimal.Zero
}

func rowField(row domain.Row, field string) domain.Row {
	if v, ok := row[field].(map[string]any); ok {
		return domain.Row(v)
	}
	if v, ok := row[field].(domain.Row); ok {
		return v
	}
	return nil
}

// Validation helpers shared by the facades. Each reports a ValidationError
// naming the entity and field, so the engine is never reached with malformed
// input.

func requireID(entity domain.EntityType, field, value string) error {
	if !ident.Valid(value) {
		return &domain.ValidationError{Entity: entity, Field: field, Reason: fmt.Sprintf("must be a %d-character identifier", ident.EntityIDLength)}
	}
	return nil
}

func optionalID(entity domain.EntityType, field string, value *string) error {
	if value == nil {
		return nil
	}
	return requireID(entity, field, *value)
}

func requireLabel(entity domain.EntityType, field, value string) error {
	if value == "" {
		return &domain.ValidationError{Entity: entity, Field: field, Reason: "must not be empty"}
	}
	if len(value) > 64 {
		return &domain.ValidationError{Entity: entity, Field: field, Reason: "must be at most 64 characters"}
	}
	return nil
}

func requireCurrency(entity domain.EntityType, field, value string) error {
	if len(value) != 3 {
		return &domain.ValidationError{Entity: entity, Field: field, Reason: "must be a 3-letter currency code"}
	}
	return nil
}
