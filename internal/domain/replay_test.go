package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func accountHistory() []Change {
	return []Change{
		{
			ID: "chg000000001", By: "usr000000001", Entity: EntityAccounts, EntityID: "acc000000001",
			Version: 1, Type: ChangeInsert,
			DataAfter: Row{"label": "Cash", "currency": "SGD", "userId": "usr000000001"},
		},
		{
			ID: "chg000000002", By: "usr000000001", Entity: EntityAccounts, EntityID: "acc000000001",
			Version: 2, Type: ChangeUpdate,
			DataBefore: Row{"label": "Cash"},
			DataAfter:  Row{"label": "Wallet"},
		},
		{
			ID: "chg000000003", By: "usr000000001", Entity: EntityAccounts, EntityID: "acc000000001",
			Version: 3, Type: ChangeDelete,
			DataBefore: Row{"label": "Wallet", "currency": "SGD", "userId": "usr000000001"},
		},
	}
}

func TestReplayReconstructsHistory(t *testing.T) {
	states, err := Replay(accountHistory())
	require.NoError(t, err)
	require.Len(t, states, 3)

	assert.Equal(t, Row{"label": "Cash", "currency": "SGD", "userId": "usr000000001"}, states[0])
	assert.Equal(t, Row{"label": "Wallet", "currency": "SGD", "userId": "usr000000001"}, states[1])
	assert.Nil(t, states[2], "delete is terminal")
}

func TestReplayAcceptsUnorderedInput(t *testing.T) {
	history := accountHistory()
	history[0], history[2] = history[2], history[0]

	states, err := Replay(history)
	require.NoError(t, err)
	assert.Equal(t, "Cash", states[0]["label"])
}

func TestReplayVersionGap(t *testing.T) {
	history := accountHistory()
	history[1].Version = 5

	_, err := Replay(history)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "version gap")
}

func TestReplayRejectsSecondInsert(t *testing.T) {
	history := accountHistory()[:2]
	history[1].Type = ChangeInsert
	history[1].DataBefore = nil

	_, err := Replay(history)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not the first change")
}

func TestReplayRejectsUpdateAfterDelete(t *testing.T) {
	history := append(accountHistory(), Change{
		Entity: EntityAccounts, EntityID: "acc000000001",
		Version: 4, Type: ChangeUpdate,
		DataBefore: Row{"label": "Wallet"},
		DataAfter:  Row{"label": "Ghost"},
	})

	_, err := Replay(history)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "follows a delete")
}

func TestReplayDetectsInconsistentBeforeSnapshot(t *testing.T) {
	history := accountHistory()[:2]
	history[1].DataBefore = Row{"label": "NotCash"}

	_, err := Replay(history)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "inconsistent history")
}

func TestReplayAdoptsServerDefaults(t *testing.T) {
	// currency was defaulted server-side and never appeared in the insert
	// snapshot; the first update that touches it back-fills the state.
	history := []Change{
		{Entity: EntityAccounts, EntityID: "acc000000002", Version: 1, Type: ChangeInsert,
			DataAfter: Row{"label": "Cash", "userId": "usr000000001"}},
		{Entity: EntityAccounts, EntityID: "acc000000002", Version: 2, Type: ChangeUpdate,
			DataBefore: Row{"currency": "SGD"}, DataAfter: Row{"currency": "EUR"}},
	}

	states, err := Replay(history)
	require.NoError(t, err)
	assert.Equal(t, "EUR", states[1]["currency"])
}

func TestStateAt(t *testing.T) {
	history := accountHistory()

	state, err := StateAt(history, 2)
	require.NoError(t, err)
	assert.Equal(t, "Wallet", state["label"])

	_, err = StateAt(history, 9)
	require.Error(t, err)
}

func TestReplayEmptyHistory(t *testing.T) {
	_, err := Replay(nil)
	require.Error(t, err)
}

func TestReplayMixedEntities(t *testing.T) {
	history := accountHistory()
	history[2].EntityID = "acc000000009"

	_, err := Replay(history)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "mixes entities")
}
