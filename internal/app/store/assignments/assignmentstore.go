// Package assignmentstore owns the task_assignments collection and enforces
// the assignment lifecycle rules: timestamp side effects on transitions,
// append-only photos, and optimistic concurrency on status updates.
package assignmentstore

import (
	"context"
	"errors"
	"time"

	"github.com/gcnet/fieldtasks/internal/app/system/status"
	"github.com/gcnet/fieldtasks/internal/domain/models"
	"github.com/microcosm-cc/bluemonday"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var (
	// ErrNotFound is returned when no assignment matches the id.
	ErrNotFound = errors.New("assignment not found")
	// ErrConflict is returned when the record changed between read and
	// write; the caller should re-fetch and retry.
	ErrConflict = errors.New("assignment modified concurrently")
	// ErrCompleted is returned when a status update would move an
	// assignment out of the terminal completed state.
	ErrCompleted = errors.New("assignment is already completed")

	errBadStatus   = errors.New("invalid status")
	errBadPriority = errors.New(`priority must be "low"|"medium"|"high"|"urgent"`)
	errNoTitle     = errors.New("title is required")
	errNoAssignee  = errors.New("assigned_to is required")
)

// notesPolicy strips all HTML from technician-entered observations before
// they are persisted.
var notesPolicy = bluemonday.StrictPolicy()

type Store struct {
	c     *mongo.Collection
	users *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{
		c:     db.Collection("task_assignments"),
		users: db.Collection("users"),
	}
}

// Create inserts a new assignment in the pending state. Used by the admin
// dispatch flow; technicians never create assignments.
func (s *Store) Create(ctx context.Context, a models.Assignment) (models.Assignment, error) {
	if a.Title == "" {
		return models.Assignment{}, errNoTitle
	}
	if a.AssignedTo.IsZero() {
		return models.Assignment{}, errNoAssignee
	}
	if a.Priority == "" {
		a.Priority = status.Medium
	}
	if !a.Priority.IsValid() {
		return models.Assignment{}, errBadPriority
	}

	now := time.Now().UTC()
	a.ID = primitive.NewObjectID()
	a.Status = status.Pending
	a.StartedAt = nil
	a.CompletedAt = nil
	a.CreatedAt = now
	a.UpdatedAt = now
	a.Version = 1
	a.Notes = notesPolicy.Sanitize(a.Notes)
	a.Photos = nil

	if _, err := s.c.InsertOne(ctx, a); err != nil {
		return models.Assignment{}, err
	}
	return a, nil
}

// ListForUser returns every assignment whose assignee is userID, newest
// created first, with embedded photos and the assigner's full name joined
// from the users collection. Per-technician task volume is small enough
// that pagination is deliberately absent.
func (s *Store) ListForUser(ctx context.Context, userID primitive.ObjectID) ([]models.Assignment, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	cur, err := s.c.Find(ctx, bson.M{"assigned_to": userID}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var list []models.Assignment
	if err := cur.All(ctx, &list); err != nil {
		return nil, err
	}

	if err := s.joinAssignerNames(ctx, list); err != nil {
		return nil, err
	}
	return list, nil
}

// GetByID fetches one assignment with photos and the assigner's name.
func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Assignment, error) {
	var a models.Assignment
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&a); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	one := []models.Assignment{a}
	if err := s.joinAssignerNames(ctx, one); err != nil {
		return nil, err
	}
	return &one[0], nil
}

// StatusUpdate carries the mutable inputs of a status update. It is a
// params struct so a future append-style notes log can be added without
// breaking callers.
type StatusUpdate struct {
	Status status.Status
	// Notes overwrites the assignment's notes field when non-empty; an
	// empty value leaves existing notes untouched.
	Notes string
}

// UpdateStatus applies one lifecycle transition:
//
//   - status is set to upd.Status,
//   - started_at is set on the first entry into in_progress and never
//     touched again,
//   - completed_at is set on the first entry into completed,
//   - non-empty notes overwrite the notes field,
//   - updated_at always refreshes.
//
// The write is guarded by the version stamp read at the start; if another
// writer interleaves, ErrConflict is returned and nothing is modified.
// Re-applying the current status is allowed and only refreshes updated_at.
// Any transition out of completed fails with ErrCompleted.
func (s *Store) UpdateStatus(ctx context.Context, id primitive.ObjectID, upd StatusUpdate) (*models.Assignment, error) {
	if !upd.Status.IsValid() {
		return nil, errBadStatus
	}

	var cur models.Assignment
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&cur); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	if cur.Status == status.Completed && upd.Status != status.Completed {
		return nil, ErrCompleted
	}

	now := time.Now().UTC()
	set := bson.M{
		"status":     upd.Status,
		"updated_at": now,
	}
	if upd.Status == status.InProgress && cur.StartedAt == nil {
		set["started_at"] = now
	}
	if upd.Status == status.Completed && cur.CompletedAt == nil {
		set["completed_at"] = now
	}
	if notes := notesPolicy.Sanitize(upd.Notes); notes != "" {
		set["notes"] = notes
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var updated models.Assignment
	err := s.c.FindOneAndUpdate(ctx,
		bson.M{"_id": id, "version": cur.Version},
		bson.M{"$set": set, "$inc": bson.M{"version": 1}},
		opts,
	).Decode(&updated)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			// The document existed a moment ago; a concurrent writer
			// bumped the version between our read and write.
			return nil, ErrConflict
		}
		return nil, err
	}

	one := []models.Assignment{updated}
	if err := s.joinAssignerNames(ctx, one); err != nil {
		return nil, err
	}
	return &one[0], nil
}

// AppendPhoto pushes one photo record onto the assignment's embedded photo
// array. Photos are append-only; the version stamp is not bumped because
// photo appends never conflict with status updates.
func (s *Store) AppendPhoto(ctx context.Context, id primitive.ObjectID, p models.Photo) error {
	res, err := s.c.UpdateOne(ctx,
		bson.M{"_id": id},
		bson.M{"$push": bson.M{"photos": p}},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// joinAssignerNames fills AssignedByName on each assignment with the
// assigner's full name, resolved in a single users query.
func (s *Store) joinAssignerNames(ctx context.Context, list []models.Assignment) error {
	if len(list) == 0 {
		return nil
	}

	seen := make(map[primitive.ObjectID]struct{}, len(list))
	var ids []primitive.ObjectID
	for _, a := range list {
		if a.AssignedBy.IsZero() {
			continue
		}
		if _, ok := seen[a.AssignedBy]; !ok {
			seen[a.AssignedBy] = struct{}{}
			ids = append(ids, a.AssignedBy)
		}
	}
	if len(ids) == 0 {
		return nil
	}

	cur, err := s.users.Find(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return err
	}
	defer cur.Close(ctx)

	names := make(map[primitive.ObjectID]string, len(ids))
	for cur.Next(ctx) {
		var u struct {
			ID       primitive.ObjectID `bson:"_id"`
			FullName string             `bson:"full_name"`
		}
		if err := cur.Decode(&u); err != nil {
			return err
		}
		names[u.ID] = u.FullName
	}
	if err := cur.Err(); err != nil {
		return err
	}

	for i := range list {
		list[i].AssignedByName = names[list[i].AssignedBy]
	}
	return nil
}
