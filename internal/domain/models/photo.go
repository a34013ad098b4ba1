package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Photo is evidence attached to an assignment during or after execution.
// Photos are append-only: created once on upload, never mutated or removed.
type Photo struct {
	ID primitive.ObjectID `bson:"_id" json:"id"`

	// StoragePath is the object key in the photo bucket. Paths are generated
	// to be unique across assignments and concurrent uploads.
	StoragePath string `bson:"storage_path" json:"storage_path"`

	// URL is the public URL resolved from StoragePath at upload time.
	URL string `bson:"url" json:"url"`

	OriginalName string `bson:"original_name" json:"original_name"`
	Description  string `bson:"description,omitempty" json:"description,omitempty"`

	UploadedAt time.Time `bson:"uploaded_at" json:"uploaded_at"`
}
