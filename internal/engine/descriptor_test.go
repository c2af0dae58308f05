package engine

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/finmax/ledger/internal/domain"
)

func testDescriptor() Descriptor {
	return Descriptor{
		Entity: domain.EntityAccounts,
		Table:  "finmax_accounts",
		Columns: []Column{
			{Field: "userId", Name: "user_id"},
			{Field: "label", Name: "label"},
			{Field: "currency", Name: "currency"},
		},
	}
}

func TestDescriptorValidate(t *testing.T) {
	require.NoError(t, testDescriptor().Validate())

	noTable := testDescriptor()
	noTable.Table = ""
	assert.Error(t, noTable.Validate())

	withID := testDescriptor()
	withID.Columns = append(withID.Columns, Column{Field: "id", Name: "id"})
	assert.Error(t, withID.Validate())

	dup := testDescriptor()
	dup.Columns = append(dup.Columns, Column{Field: "label", Name: "label_2"})
	assert.Error(t, dup.Validate())
}

func TestDescriptorCheckFields(t *testing.T) {
	desc := testDescriptor()
	require.NoError(t, desc.checkFields(domain.Row{"label": "Cash"}))

	err := desc.checkFields(domain.Row{"labell": "Cash"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown field")
}

func TestNewRejectsInvalidDescriptors(t *testing.T) {
	bad := testDescriptor()
	bad.Columns = nil
	_, err := New(nil, nil, bad)
	require.Error(t, err)

	_, err = New(nil, nil, testDescriptor(), testDescriptor())
	require.Error(t, err, "duplicate descriptors must be rejected")
}

// The guards below must fire before any store round trip, so a nil
// connection proves the ordering.

func TestPatchRejectsEmptyPatchBeforeStore(t *testing.T) {
	eng, err := New(nil, nil, testDescriptor())
	require.NoError(t, err)

	_, err = eng.Patch(context.Background(), "usr000000001", testDescriptor(), "acc000000001", domain.Row{})
	assert.ErrorIs(t, err, domain.ErrEmptyPatch)
}

func TestPatchRejectsUnknownFieldBeforeStore(t *testing.T) {
	eng, err := New(nil, nil, testDescriptor())
	require.NoError(t, err)

	_, err = eng.Patch(context.Background(), "usr000000001", testDescriptor(), "acc000000001", domain.Row{"nope": 1})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown field")
}

func TestEngineForbidsMutatingTheLedger(t *testing.T) {
	eng, err := New(nil, nil, testDescriptor())
	require.NoError(t, err)

	ledgerDesc := Descriptor{
		Entity:  domain.EntityChanges,
		Table:   "finmax_changes",
		Columns: []Column{{Field: "notes", Name: "notes"}},
	}

	_, err = eng.Patch(context.Background(), "usr000000001", ledgerDesc, "chg000000001", domain.Row{"notes": "x"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "change ledger")

	_, err = eng.Insert(context.Background(), "usr000000001", ledgerDesc, domain.Row{"notes": "x"})
	require.Error(t, err)

	_, err = eng.Delete(context.Background(), "usr000000001", ledgerDesc, "chg000000001")
	require.Error(t, err)
}

func TestElideUnchangedLogsOnce(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	eng, err := New(nil, zap.New(core), testDescriptor())
	require.NoError(t, err)

	before := domain.Row{"label": "Cash", "currency": "SGD", "userId": "usr000000001"}
	patch := domain.Row{"label": "Wallet", "currency": "SGD", "userId": "usr000000001"}

	eng.elideUnchanged(testDescriptor(), "acc000000001", before, patch, []string{"currency", "label", "userId"})

	assert.Equal(t, domain.Row{"label": "Wallet"}, patch)
	assert.Equal(t, domain.Row{"label": "Cash"}, before)

	// One entry for the whole patch, carrying the elided fields as a set.
	require.Equal(t, 1, logs.Len())
	entry := logs.All()[0]
	assert.Equal(t, "no change in fields", entry.Message)
	assert.ElementsMatch(t, []string{"currency", "userId"}, entry.ContextMap()["fields"])
}

func TestElideUnchangedTextFields(t *testing.T) {
	eng, err := New(nil, nil, testDescriptor())
	require.NoError(t, err)

	// Numeric-looking text is still text: "01" to "1" is a real change.
	before := domain.Row{"label": "01"}
	patch := domain.Row{"label": "1"}
	eng.elideUnchanged(testDescriptor(), "acc000000001", before, patch, []string{"label"})
	assert.Equal(t, domain.Row{"label": "1"}, patch)
}

func TestInsertRequiresActor(t *testing.T) {
	eng, err := New(nil, nil, testDescriptor())
	require.NoError(t, err)

	_, err = eng.Insert(context.Background(), "", testDescriptor(), domain.Row{"label": "Cash"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "acting user")
}
