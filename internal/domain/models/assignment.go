package models

import (
	"time"

	"github.com/gcnet/fieldtasks/internal/app/system/status"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Assignment is one unit of field work delegated to exactly one technician.
//
// Lifecycle invariants enforced by the assignments store:
//   - StartedAt is set if and only if the assignment has ever entered
//     in_progress, and is never changed afterwards.
//   - CompletedAt is set if and only if the status is completed.
//   - There is no transition out of completed.
//
// Photos are embedded as an append-only ordered array; they are never
// edited, reordered, or deleted.
type Assignment struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Title       string             `bson:"title" json:"title"`
	Description string             `bson:"description,omitempty" json:"description,omitempty"`
	Address     string             `bson:"address,omitempty" json:"address,omitempty"`
	Latitude    *float64           `bson:"latitude,omitempty" json:"latitude,omitempty"`
	Longitude   *float64           `bson:"longitude,omitempty" json:"longitude,omitempty"`

	Status   status.Status   `bson:"status" json:"status"`
	Priority status.Priority `bson:"priority" json:"priority"`

	DueDate *time.Time `bson:"due_date,omitempty" json:"due_date,omitempty"`

	// Notes holds the technician's field observations. Later status updates
	// with a non-empty notes value overwrite this field.
	Notes string `bson:"notes,omitempty" json:"notes,omitempty"`

	AssignedBy primitive.ObjectID `bson:"assigned_by" json:"assigned_by"`
	AssignedTo primitive.ObjectID `bson:"assigned_to" json:"assigned_to"`

	// AssignedByName is joined from the users collection on reads; it is
	// never persisted on the assignment document.
	AssignedByName string `bson:"-" json:"assigned_by_name,omitempty"`

	StartedAt   *time.Time `bson:"started_at,omitempty" json:"started_at,omitempty"`
	CompletedAt *time.Time `bson:"completed_at,omitempty" json:"completed_at,omitempty"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`

	// Version stamps the document for optimistic concurrency control on
	// status updates.
	Version int64 `bson:"version" json:"version"`

	Photos []Photo `bson:"photos,omitempty" json:"photos"`
}
