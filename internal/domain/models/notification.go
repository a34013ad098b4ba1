package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// NotificationType classifies an inbox entry.
type NotificationType string

const (
	NotifyTaskAssigned  NotificationType = "task_assigned"
	NotifyTaskUpdated   NotificationType = "task_updated"
	NotifyTaskCompleted NotificationType = "task_completed"
	NotifyTaskCancelled NotificationType = "task_cancelled"
	NotifyGeneral       NotificationType = "general"
)

// IsValid reports whether t is one of the known notification types.
func (t NotificationType) IsValid() bool {
	switch t {
	case NotifyTaskAssigned, NotifyTaskUpdated, NotifyTaskCompleted,
		NotifyTaskCancelled, NotifyGeneral:
		return true
	}
	return false
}

// Notification is an inbox entry informing a user of an assignment event.
// The inbox is the durable record; push delivery is a best-effort nudge on
// top of it. The read flag only ever transitions false → true.
type Notification struct {
	ID     primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID primitive.ObjectID `bson:"user_id" json:"user_id"`

	Type    NotificationType `bson:"type" json:"type"`
	Title   string           `bson:"title" json:"title"`
	Message string           `bson:"message,omitempty" json:"message,omitempty"`

	// ReferenceID points at the assignment the event is about, when there
	// is one, so a client can deep-link to it.
	ReferenceID *primitive.ObjectID `bson:"reference_id,omitempty" json:"reference_id,omitempty"`

	Read      bool      `bson:"read" json:"read"`
	CreatedAt time.Time `bson:"created_at" json:"created_at"`
}
