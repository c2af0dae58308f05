package engine

import (
	"encoding/json"
	"fmt"
	"math/big"
	"reflect"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"

	"github.com/finmax/ledger/internal/domain"
)

// decodeValue converts a value scanned by pgx into its domain representation.
// Numerics become decimal.Decimal; jsonb already arrives as decoded Go values.
func decodeValue(v any) any {
	switch typed := v.(type) {
	case pgtype.Numeric:
		if !typed.Valid {
			return nil
		}
		return numericToDecimal(typed)
	case *pgtype.Numeric:
		if typed == nil || !typed.Valid {
			return nil
		}
		return numericToDecimal(*typed)
	default:
		return v
	}
}

func numericToDecimal(n pgtype.Numeric) decimal.Decimal {
	if n.Int == nil {
		return decimal.Zero
	}
	return decimal.NewFromBigInt(new(big.Int).Set(n.Int), n.Exp)
}

// encodeValue converts a domain value into a form pgx encodes for any target
// column type. Decimals travel as their exact string form so numeric columns
// receive full precision.
func encodeValue(v any) any {
	switch typed := v.(type) {
	case decimal.Decimal:
		return typed.String()
	case *decimal.Decimal:
		if typed == nil {
			return nil
		}
		return typed.String()
	case domain.Row:
		if typed == nil {
			return nil
		}
		return map[string]any(typed)
	case domain.PaymentFrequency:
		return string(typed)
	case domain.EntityType:
		return string(typed)
	default:
		return v
	}
}

// valuesEqual reports whether a stored value and a proposed value represent
// the same field state, across the representations the two sides arrive in
// (decimal vs numeric vs string, time.Time vs RFC3339 text, decoded jsonb).
// Two plain strings compare as text; a string is parsed as a number or time
// only when the other side is a typed number or time, so distinct text values
// that happen to parse alike ("01" vs "1") are never treated as unchanged.
func valuesEqual(a, b any) bool {
	ca, okA := canonicalValue(a)
	cb, okB := canonicalValue(b)
	if !okA || !okB {
		return reflect.DeepEqual(a, b)
	}
	if ca == cb {
		return true
	}
	return crossTypedEqual(ca, cb) || crossTypedEqual(cb, ca)
}

// crossTypedEqual handles a typed value on one side and its textual form on
// the other, re-reading the string in the typed side's representation.
func crossTypedEqual(typed, other string) bool {
	s, ok := strings.CutPrefix(other, "str:")
	if !ok {
		return false
	}
	switch {
	case strings.HasPrefix(typed, "num:"):
		if d, err := decimal.NewFromString(s); err == nil {
			return typed == "num:"+d.String()
		}
	case strings.HasPrefix(typed, "time:"):
		if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
			return typed == "time:"+t.UTC().Format(time.RFC3339Nano)
		}
	}
	return false
}

// canonicalValue reduces a value to a comparable string form. ok is false
// when no canonical form exists and the caller should fall back to deep
// equality.
func canonicalValue(v any) (string, bool) {
	switch typed := v.(type) {
	case nil:
		return "null", true
	case string:
		return "str:" + typed, true
	case bool:
		return fmt.Sprintf("bool:%t", typed), true
	case int:
		return "num:" + decimal.NewFromInt(int64(typed)).String(), true
	case int32:
		return "num:" + decimal.NewFromInt(int64(typed)).String(), true
	case int64:
		return "num:" + decimal.NewFromInt(typed).String(), true
	case float64:
		return "num:" + decimal.NewFromFloat(typed).String(), true
	case decimal.Decimal:
		return "num:" + typed.String(), true
	case *decimal.Decimal:
		if typed == nil {
			return "null", true
		}
		return "num:" + typed.String(), true
	case pgtype.Numeric:
		if !typed.Valid {
			return "null", true
		}
		return "num:" + numericToDecimal(typed).String(), true
	case time.Time:
		return "time:" + typed.UTC().Format(time.RFC3339Nano), true
	case *time.Time:
		if typed == nil {
			return "null", true
		}
		return "time:" + typed.UTC().Format(time.RFC3339Nano), true
	case *string:
		if typed == nil {
			return "null", true
		}
		return canonicalValue(*typed)
	case domain.Row:
		return canonicalJSON(map[string]any(typed))
	case map[string]any:
		return canonicalJSON(typed)
	case []any:
		return canonicalJSON(typed)
	default:
		return "", false
	}
}

func canonicalJSON(v any) (string, bool) {
	encoded, err := json.Marshal(v)
	if err != nil {
		return "", false
	}
	return "json:" + string(encoded), true
}

// snapshotRow normalizes a row for storage in a ledger snapshot so that the
// JSON written to data_before/data_after is stable across value sources.
func snapshotRow(row domain.Row) domain.Row {
	if row == nil {
		return nil
	}
	out := make(domain.Row, len(row))
	for field, v := range row {
		out[field] = snapshotValue(v)
	}
	return out
}

func snapshotValue(v any) any {
	switch typed := v.(type) {
	case pgtype.Numeric:
		if !typed.Valid {
			return nil
		}
		return numericToDecimal(typed)
	case *decimal.Decimal:
		if typed == nil {
			return nil
		}
		return *typed
	case *string:
		if typed == nil {
			return nil
		}
		return *typed
	case *time.Time:
		if typed == nil {
			return nil
		}
		return *typed
	case domain.PaymentFrequency:
		return string(typed)
	default:
		return v
	}
}
