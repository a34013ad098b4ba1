// Package photos implements the batch photo-attach operation: store each
// blob in the object store, then record it on the assignment.
package photos

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/gcnet/fieldtasks/internal/domain/models"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// ObjectStore is the slice of the photo object store the uploader needs.
type ObjectStore interface {
	Put(ctx context.Context, path string, r io.Reader, size int64, contentType string) error
	PublicURL(path string) string
}

// Recorder appends photo records to an assignment.
type Recorder interface {
	AppendPhoto(ctx context.Context, id primitive.ObjectID, p models.Photo) error
}

// Upload is one photo blob submitted by the client.
type Upload struct {
	Content      io.Reader
	Size         int64
	ContentType  string
	OriginalName string
	Description  string
}

// Uploader runs photo batches with the documented partial-failure policy:
// a blob that fails to upload is skipped, the rest of the batch continues,
// and successes are never rolled back.
type Uploader struct {
	objects ObjectStore
	records Recorder
	log     *zap.Logger
}

func NewUploader(objects ObjectStore, records Recorder, logger *zap.Logger) *Uploader {
	return &Uploader{objects: objects, records: records, log: logger}
}

// Attach stores each blob and records it on the assignment. It returns the
// photos that made it through and the number that failed. The error return
// is reserved for context cancellation; individual blob failures are logged
// and counted, not raised.
func (u *Uploader) Attach(ctx context.Context, assignmentID primitive.ObjectID, uploads []Upload) ([]models.Photo, int, error) {
	var attached []models.Photo
	failed := 0

	for _, up := range uploads {
		if err := ctx.Err(); err != nil {
			return attached, len(uploads) - len(attached), err
		}

		path := storagePath(assignmentID)
		if err := u.objects.Put(ctx, path, up.Content, up.Size, up.ContentType); err != nil {
			u.log.Warn("photo upload failed, continuing with batch",
				zap.String("assignment_id", assignmentID.Hex()),
				zap.String("original_name", up.OriginalName),
				zap.Error(err))
			failed++
			continue
		}

		photo := models.Photo{
			ID:           primitive.NewObjectID(),
			StoragePath:  path,
			URL:          u.objects.PublicURL(path),
			OriginalName: up.OriginalName,
			Description:  up.Description,
			UploadedAt:   time.Now().UTC(),
		}
		if err := u.records.AppendPhoto(ctx, assignmentID, photo); err != nil {
			// The object is in the store but the record failed; surface it
			// the same way as an upload failure so the client can retry.
			u.log.Warn("photo record insert failed, continuing with batch",
				zap.String("assignment_id", assignmentID.Hex()),
				zap.String("storage_path", path),
				zap.Error(err))
			failed++
			continue
		}

		attached = append(attached, photo)
	}

	return attached, failed, nil
}

// storagePath generates an object key that cannot collide across
// assignments or concurrent uploads.
func storagePath(assignmentID primitive.ObjectID) string {
	return fmt.Sprintf("assignment-%s-%d-%s",
		assignmentID.Hex(), time.Now().UnixMilli(), uuid.NewString()[:8])
}
