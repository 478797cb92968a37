package event

import (
	"time"

	"github.com/google/uuid"
)

type Type string

const (
	TypeBookCreated         Type = "book.created"
	TypeBookUpdated         Type = "book.updated"
	TypeBookDeleted         Type = "book.deleted"
	TypeAuthorCreated       Type = "author.created"
	TypeAuthorUpdated       Type = "author.updated"
	TypeAuthorDeleted       Type = "author.deleted"
	TypePostCreated         Type = "post.created"
	TypeNotificationCreated Type = "notification.created"
)

// Event is a domain change fanned out to in-process listeners.
type Event struct {
	ID          string `json:"id"`
	Type        Type   `json:"type"`
	Payload     any    `json:"payload"`
	Timestamp   string `json:"timestamp"`
	ActorID     int64  `json:"actor_id,omitempty"`
	RecipientID int64  `json:"recipient_id,omitempty"`
}

// New stamps an event with an id and timestamp.
func New(eventType Type, actorID int64, payload any) Event {
	return Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		Payload:   payload,
		Timestamp: time.Now().UTC().Format(time.RFC3339Nano),
		ActorID:   actorID,
	}
}

// To addresses the event to one user. Unaddressed events are not pushed to
// sockets.
func (e Event) To(recipientID int64) Event {
	e.RecipientID = recipientID
	return e
}

type Bus interface {
	Publish(e Event)
	Subscribe() (<-chan Event, func())
}
