package domain

import "time"

// EventType classifies activity log entries.
type EventType string

const (
	EventItemCreated   EventType = "item_created"
	EventItemUpdated   EventType = "item_updated"
	EventStatusChanged EventType = "status_changed"
	EventCommentAdded  EventType = "comment_added"
	EventItemDeleted   EventType = "item_deleted"
)

// Event is an append-only activity log entry.
type Event struct {
	ID        string         `json:"id"`
	Type      EventType      `json:"type"`
	ActorID   string         `json:"actor_id"`
	Actor     Profile        `json:"actor"`
	ItemID    *string        `json:"item_id,omitempty"`
	Payload   map[string]any `json:"payload"`
	CreatedAt time.Time      `json:"created_at"`
}

// NewEvent builds an event with an empty payload map when none is given.
func NewEvent(t EventType, actorID string, itemID string, payload map[string]any) Event {
	if payload == nil {
		payload = map[string]any{}
	}
	ev := Event{Type: t, ActorID: actorID, Payload: payload}
	if itemID != "" {
		id := itemID
		ev.ItemID = &id
	}
	return ev
}

// PayloadString returns a payload value as a string, or "".
func (e Event) PayloadString(key string) string {
	if v, ok := e.Payload[key].(string); ok {
		return v
	}
	return ""
}
