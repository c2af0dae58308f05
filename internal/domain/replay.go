package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
)

// Replay folds a single entity's ledger history, ordered by version, into the
// field state after each change. The returned slice is aligned with the
// history sorted by version; the entry for a delete change is nil.
//
// Replay also verifies the audit invariants: versions form a gapless sequence
// starting at 1, the first (and only) insert is version 1, nothing follows a
// delete, and each update's before-snapshot agrees with the replayed state.
func Replay(history []Change) ([]Row, error) {
	if len(history) == 0 {
		return nil, fmt.Errorf("empty change history")
	}

	ordered := make([]Change, len(history))
	copy(ordered, history)
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].Version < ordered[j].Version })

	first := ordered[0]
	for _, c := range ordered[1:] {
		if c.Entity != first.Entity || c.EntityID != first.EntityID {
			return nil, fmt.Errorf("history mixes entities: %s/%s and %s/%s",
				first.Entity, first.EntityID, c.Entity, c.EntityID)
		}
	}

	states := make([]Row, len(ordered))
	var state Row

	for i, c := range ordered {
		if want := int64(i + 1); c.Version != want {
			return nil, fmt.Errorf("%s/%s: version gap: expected %d, got %d",
				c.Entity, c.EntityID, want, c.Version)
		}

		switch c.Type {
		case ChangeInsert:
			if i != 0 {
				return nil, fmt.Errorf("%s/%s: insert at version %d is not the first change",
					c.Entity, c.EntityID, c.Version)
			}
			state = c.DataAfter.Clone()
			if state == nil {
				state = Row{}
			}

		case ChangeUpdate:
			if i == 0 {
				return nil, fmt.Errorf("%s/%s: history does not start with an insert",
					c.Entity, c.EntityID)
			}
			if state == nil {
				return nil, fmt.Errorf("%s/%s: update at version %d follows a delete",
					c.Entity, c.EntityID, c.Version)
			}
			state = state.Clone()
			for field, before := range c.DataBefore {
				current, ok := state[field]
				if ok && !jsonEqual(current, before) {
					return nil, fmt.Errorf("%s/%s: inconsistent history at version %d: field %q was %v, snapshot says %v",
						c.Entity, c.EntityID, c.Version, field, current, before)
				}
				if !ok {
					// Server-computed default first observed here; adopt it.
					state[field] = before
				}
			}
			for field, after := range c.DataAfter {
				state[field] = after
			}

		case ChangeDelete:
			if i == 0 {
				return nil, fmt.Errorf("%s/%s: history does not start with an insert",
					c.Entity, c.EntityID)
			}
			if state == nil {
				return nil, fmt.Errorf("%s/%s: delete at version %d follows a delete",
					c.Entity, c.EntityID, c.Version)
			}
			for field, before := range c.DataBefore {
				if current, ok := state[field]; ok && !jsonEqual(current, before) {
					return nil, fmt.Errorf("%s/%s: inconsistent delete snapshot at version %d: field %q was %v, snapshot says %v",
						c.Entity, c.EntityID, c.Version, field, current, before)
				}
			}
			state = nil

		default:
			return nil, fmt.Errorf("%s/%s: unknown change type %q at version %d",
				c.Entity, c.EntityID, c.Type, c.Version)
		}

		states[i] = state
	}

	return states, nil
}

// StateAt replays the history and returns the entity's field state as of the
// given version. A nil row with nil error means the entity was deleted at
// that version.
func StateAt(history []Change, version int64) (Row, error) {
	states, err := Replay(history)
	if err != nil {
		return nil, err
	}
	if version < 1 || version > int64(len(states)) {
		return nil, fmt.Errorf("no version %d in a history of %d changes", version, len(states))
	}
	return states[version-1], nil
}

// jsonEqual compares two snapshot values through their canonical JSON form,
// which normalizes map ordering and the number representations produced by
// jsonb decoding.
func jsonEqual(a, b any) bool {
	aj, errA := json.Marshal(a)
	bj, errB := json.Marshal(b)
	if errA != nil || errB != nil {
		return false
	}
	return bytes.Equal(aj, bj)
}
