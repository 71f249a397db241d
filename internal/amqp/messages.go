package amqp

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Event types published on the account exchange.
const (
	EventOperationPlanned   = "operation.planned"
	EventOperationDeleted   = "operation.deleted"
	EventOperationUnmerged  = "operation.unmerged"
	EventAccountInitialized = "account.initialized"
	EventCategoryAssigned   = "category.assigned"
	EventCostsChanged       = "costs.changed"
)

// AccountEvent notifies workers that the account changed. It carries
// identifiers only; consumers reload what they need from storage.
type AccountEvent struct {
	ID          string    `json:"id"`
	Type        string    `json:"type"`
	OperationID int64     `json:"operation_id,omitempty"`
	Month       string    `json:"month,omitempty"`
	Timestamp   time.Time `json:"timestamp"`
}

// NewAccountEvent creates an event with a fresh id.
func NewAccountEvent(eventType string, operationID int64, month string) AccountEvent {
	return AccountEvent{
		ID:          uuid.NewString(),
		Type:        eventType,
		OperationID: operationID,
		Month:       month,
		Timestamp:   time.Now().UTC(),
	}
}

// ToJSON converts the event to JSON bytes
func (e AccountEvent) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

// AccountEventFromJSON decodes an event and checks its id and type.
func AccountEventFromJSON(data []byte) (AccountEvent, error) {
	var e AccountEvent
	if err := json.Unmarshal(data, &e); err != nil {
		return AccountEvent{}, err
	}
	if _, err := uuid.Parse(e.ID); err != nil {
		return AccountEvent{}, fmt.Errorf("invalid event id %q: %w", e.ID, err)
	}
	if e.Type == "" {
		return AccountEvent{}, fmt.Errorf("event %s has no type", e.ID)
	}
	return e, nil
}
