package notificationstore

import (
	"context"
	"errors"
	"time"

	"github.com/gcnet/fieldtasks/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var (
	// ErrNotFound is returned when no notification matches the id.
	ErrNotFound = errors.New("notification not found")

	errBadType = errors.New("invalid notification type")
	errNoUser  = errors.New("user_id is required")
	errNoTitle = errors.New("title is required")
)

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("notifications")}
}

// Create inserts a new unread notification. Notifications are append-only:
// after creation only the read flag ever changes, and only false → true.
func (s *Store) Create(ctx context.Context, n models.Notification) (models.Notification, error) {
	if !n.Type.IsValid() {
		return models.Notification{}, errBadType
	}
	if n.UserID.IsZero() {
		return models.Notification{}, errNoUser
	}
	if n.Title == "" {
		return models.Notification{}, errNoTitle
	}

	n.ID = primitive.NewObjectID()
	n.Read = false
	n.CreatedAt = time.Now().UTC()

	if _, err := s.c.InsertOne(ctx, n); err != nil {
		return models.Notification{}, err
	}
	return n, nil
}

// ListForUser returns all notifications owned by userID, newest first.
func (s *Store) ListForUser(ctx context.Context, userID primitive.ObjectID) ([]models.Notification, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	cur, err := s.c.Find(ctx, bson.M{"user_id": userID}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var list []models.Notification
	if err := cur.All(ctx, &list); err != nil {
		return nil, err
	}
	return list, nil
}

// UnreadCount returns how many notifications owned by userID are unread.
func (s *Store) UnreadCount(ctx context.Context, userID primitive.ObjectID) (int64, error) {
	return s.c.CountDocuments(ctx, bson.M{"user_id": userID, "read": false})
}

// MarkRead sets the read flag on one notification owned by userID.
// Idempotent: marking an already-read notification succeeds without
// modifying anything. A notification owned by someone else is ErrNotFound.
func (s *Store) MarkRead(ctx context.Context, id, userID primitive.ObjectID) error {
	res, err := s.c.UpdateOne(ctx,
		bson.M{"_id": id, "user_id": userID},
		bson.M{"$set": bson.M{"read": true}},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// MarkAllRead sets the read flag on every unread notification owned by
// userID. Idempotent; returns the number of notifications updated.
func (s *Store) MarkAllRead(ctx context.Context, userID primitive.ObjectID) (int64, error) {
	res, err := s.c.UpdateMany(ctx,
		bson.M{"user_id": userID, "read": false},
		bson.M{"$set": bson.M{"read": true}},
	)
	if err != nil {
		return 0, err
	}
	return res.ModifiedCount, nil
}
