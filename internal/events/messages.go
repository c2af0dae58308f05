package events

import (
	"encoding/json"
	"time"

	"github.com/finmax/ledger/internal/domain"
)

// ChangeEvent is the message published for every committed change. It is
// deliberately compact: consumers that need the snapshots fetch the full
// ledger row by id.
type ChangeEvent struct {
	ID       string            `json:"id"`
	Entity   domain.EntityType `json:"entity"`
	EntityID string            `json:"entityId"`
	Version  int64             `json:"version"`
	Type     domain.ChangeType `json:"type"`
	By       string            `json:"by"`
	At       time.Time         `json:"at"`
}

// NewChangeEvent projects a committed change into its event form.
func NewChangeEvent(c domain.Change) ChangeEvent {
	return ChangeEvent{
		ID:       c.ID,
		Entity:   c.Entity,
		EntityID: c.EntityID,
		Version:  c.Version,
		Type:     c.Type,
		By:       c.By,
		At:       c.At,
	}
}

// ToJSON converts the event to JSON bytes.
func (e ChangeEvent) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

// ChangeEventFromJSON decodes an event from JSON bytes.
func ChangeEventFromJSON(data []byte) (ChangeEvent, error) {
	var e ChangeEvent
	if err := json.Unmarshal(data, &e); err != nil {
		return ChangeEvent{}, err
	}
	return e, nil
}
