package amqp

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
)

// RoutingKey is the routing key of version 1 activity events.
const RoutingKey = "activity.v1"

// Activity event types.
const (
	EventLogin          = "login"
	EventLogout         = "logout"
	EventCompanyCreated = "company.created"
	EventRecordCreated  = "record.created"
	EventRecordUpdated  = "record.updated"
	EventRecordDeleted  = "record.deleted"
)

var (
	ErrMissingEventID   = errors.New("activity event has no id")
	ErrMissingEventType = errors.New("activity event has no type")
)

// ActivityEvent records one successful user action. It carries identifiers
// only, never record contents.
type ActivityEvent struct {
	ID        string    `json:"id"`
	Type      string    `json:"type"`
	UserID    int64     `json:"user_id,omitempty"`
	Username  string    `json:"username,omitempty"`
	CompanyID int64     `json:"company_id,omitempty"`
	Resource  string    `json:"resource,omitempty"`
	RecordID  int64     `json:"record_id,omitempty"`
	At        time.Time `json:"at"`
}

// NewActivityEvent stamps a new event with a random id and the current time.
func NewActivityEvent(eventType string) *ActivityEvent {
	return &ActivityEvent{
		ID:   uuid.NewString(),
		Type: eventType,
		At:   time.Now().UTC(),
	}
}

func (e *ActivityEvent) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

// ActivityEventFromJSON decodes and checks an event body.
func ActivityEventFromJSON(data []byte) (*ActivityEvent, error) {
	var e ActivityEvent
	if err := json.Unmarshal(data, &e); err != nil {
		return nil, err
	}
	if e.ID == "" {
		return nil, ErrMissingEventID
	}
	if e.Type == "" {
		return nil, ErrMissingEventType
	}
	return &e, nil
}
