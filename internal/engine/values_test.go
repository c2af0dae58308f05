package engine

import (
	"encoding/json"
	"math/big"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/finmax/ledger/internal/domain"
)

func TestValuesEqualStrings(t *testing.T) {
	assert.True(t, valuesEqual("Cash", "Cash"))
	assert.False(t, valuesEqual("Cash", "Wallet"))
	assert.False(t, valuesEqual("Cash", nil))
}

func TestValuesEqualNumericRepresentations(t *testing.T) {
	stored := pgtype.Numeric{Int: big.NewInt(12500), Exp: -3, Valid: true} // 12.500
	assert.True(t, valuesEqual(stored, decimal.RequireFromString("12.5")))
	assert.True(t, valuesEqual(stored, "12.500"))
	assert.True(t, valuesEqual(decimal.RequireFromString("42"), float64(42)))
	assert.False(t, valuesEqual(stored, decimal.RequireFromString("12.501")))
}

func TestValuesEqualTimes(t *testing.T) {
	utc := time.Date(2025, 3, 9, 12, 30, 0, 0, time.UTC)
	offset := utc.In(time.FixedZone("SGT", 8*3600))
	assert.True(t, valuesEqual(utc, offset))
	assert.True(t, valuesEqual(utc, "2025-03-09T12:30:00Z"))
	assert.False(t, valuesEqual(utc, utc.Add(time.Second)))
}

func TestValuesEqualJSON(t *testing.T) {
	a := map[string]any{"theme": "dark", "order": float64(2)}
	b := domain.Row{"order": float64(2), "theme": "dark"}
	assert.True(t, valuesEqual(a, b))
	assert.False(t, valuesEqual(a, domain.Row{"theme": "light"}))
}

func TestValuesEqualKeepsDistinctText(t *testing.T) {
	// Two plain strings are text, even when they parse alike as numbers or
	// times; only a typed stored value invites re-reading the other side.
	assert.False(t, valuesEqual("01", "1"))
	assert.False(t, valuesEqual("1e2", "100"))
	assert.False(t, valuesEqual("2024-01-01T00:00:00Z", "2024-01-01T08:00:00+08:00"))

	assert.True(t, valuesEqual(decimal.RequireFromString("100"), "1e2"))
	assert.True(t, valuesEqual(
		time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		"2024-01-01T08:00:00+08:00",
	))
}

func TestValuesEqualNilPointers(t *testing.T) {
	var s *string
	assert.True(t, valuesEqual(s, nil))
	label := "Cash"
	assert.True(t, valuesEqual(&label, "Cash"))
}

func TestDecodeValueNumeric(t *testing.T) {
	n := pgtype.Numeric{Int: big.NewInt(-7050), Exp: -3, Valid: true}
	got := decodeValue(n)
	d, ok := got.(decimal.Decimal)
	require.True(t, ok, "expected decimal, got %T", got)
	assert.Equal(t, "-7.05", d.String())

	assert.Nil(t, decodeValue(pgtype.Numeric{}))
	assert.Equal(t, "plain", decodeValue("plain"))
}

func TestEncodeValue(t *testing.T) {
	assert.Equal(t, "12.5", encodeValue(decimal.RequireFromString("12.5")))
	assert.Equal(t, "monthly", encodeValue(domain.FrequencyMonthly))
	assert.Nil(t, encodeValue((*decimal.Decimal)(nil)))
	assert.Equal(t, map[string]any{"k": "v"}, encodeValue(domain.Row{"k": "v"}))
}

// snapshotJSONRoundTrip mimics storage: marshal a snapshot to jsonb and
// decode it the way a ledger read returns it.
func snapshotJSONRoundTrip(t *testing.T, row domain.Row) domain.Row {
	t.Helper()
	raw, err := json.Marshal(snapshotRow(row))
	require.NoError(t, err)
	var out map[string]any
	require.NoError(t, json.Unmarshal(raw, &out))
	return domain.Row(out)
}

func TestSnapshotsNormalizeNumericScale(t *testing.T) {
	// A caller-supplied amount at scale 2 and the same value read back from
	// a scale-3 numeric column must serialize identically, so a history of
	// insert-then-patch replays without a false inconsistency.
	callerSide := snapshotJSONRoundTrip(t, domain.Row{
		"amount": decimal.RequireFromString("-12.50"),
	})
	columnSide := snapshotJSONRoundTrip(t, domain.Row{
		"amount": decodeValue(pgtype.Numeric{Int: big.NewInt(-12500), Exp: -3, Valid: true}),
	})
	assert.Equal(t, "-12.5", callerSide["amount"])
	assert.Equal(t, callerSide["amount"], columnSide["amount"])

	history := []domain.Change{
		{
			Entity: domain.EntityTransactions, EntityID: "txn000000001",
			Version: 1, Type: domain.ChangeInsert,
			DataAfter: callerSide,
		},
		{
			Entity: domain.EntityTransactions, EntityID: "txn000000001",
			Version: 2, Type: domain.ChangeUpdate,
			DataBefore: columnSide,
			DataAfter:  snapshotJSONRoundTrip(t, domain.Row{"amount": decimal.RequireFromString("-13")}),
		},
	}
	states, err := domain.Replay(history)
	require.NoError(t, err)
	assert.Equal(t, "-13", states[1]["amount"])
}

func TestSnapshotRowNormalizesPointers(t *testing.T) {
	label := "Wallet"
	when := time.Date(2025, 1, 2, 0, 0, 0, 0, time.UTC)
	row := domain.Row{
		"label":     &label,
		"date":      &when,
		"frequency": domain.FrequencyWeekly,
		"amount":    pgtype.Numeric{Int: big.NewInt(100), Exp: 0, Valid: true},
		"missing":   (*string)(nil),
	}

	snap := snapshotRow(row)
	assert.Equal(t, "Wallet", snap["label"])
	assert.Equal(t, when, snap["date"])
	assert.Equal(t, "weekly", snap["frequency"])
	assert.Equal(t, decimal.NewFromInt(100), snap["amount"])
	assert.Nil(t, snap["missing"])
	assert.Nil(t, snapshotRow(nil))
}
