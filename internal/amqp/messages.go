package amqp

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Event types. Each type is also the routing key it is published with.
const (
	EventExpenseCreated = "expense.created"
	EventExpenseUpdated = "expense.updated"
	EventExpenseDeleted = "expense.deleted"
	EventGoalAchieved   = "goal.achieved"
	EventTaskReminder   = "task.reminder"
)

// EventTypes lists every routing key the queue is bound to.
func EventTypes() []string {
	return []string{
		EventExpenseCreated,
		EventExpenseUpdated,
		EventExpenseDeleted,
		EventGoalAchieved,
		EventTaskReminder,
	}
}

// Event is a domain event about one record. Payload holds the record as it
// was after the change; deletions carry the record as it was before.
type Event struct {
	ID        string          `json:"id"`
	Type      string          `json:"type"`
	RecordID  string          `json:"recordId"`
	User      string          `json:"user"`
	Payload   json.RawMessage `json:"payload,omitempty"`
	Timestamp time.Time       `json:"timestamp"`
}

// NewEvent creates an event with a fresh id, marshalling payload when not nil.
func NewEvent(eventType, recordID, user string, payload any) (*Event, error) {
	e := &Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		RecordID:  recordID,
		User:      user,
		Timestamp: time.Now().UTC(),
	}
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("marshal %s payload: %w", eventType, err)
		}
		e.Payload = raw
	}
	return e, nil
}

// ToJSON converts the event to JSON bytes
func (e *Event) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

// DecodePayload unmarshals the payload into v.
func (e *Event) DecodePayload(v any) error {
	if len(e.Payload) == 0 {
		return fmt.Errorf("event %s has no payload", e.ID)
	}
	return json.Unmarshal(e.Payload, v)
}

// EventFromJSON creates an event from JSON bytes
func EventFromJSON(data []byte) (*Event, error) {
	var e Event
	if err := json.Unmarshal(data, &e); err != nil {
		return nil, err
	}
	if e.ID == "" || e.Type == "" {
		return nil, fmt.Errorf("event is missing id or type")
	}
	return &e, nil
}
