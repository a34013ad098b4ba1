package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/dalemusser/waffle/pantry/text"
	"github.com/gcnet/fieldtasks/internal/app/system/status"
	"github.com/gcnet/fieldtasks/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"golang.org/x/crypto/bcrypt"
)

// Fixtures provides helper methods for creating test data.
type Fixtures struct {
	db *mongo.Database
	t  *testing.T
}

// NewFixtures creates a new Fixtures instance for the given test database.
func NewFixtures(t *testing.T, db *mongo.Database) *Fixtures {
	t.Helper()
	return &Fixtures{db: db, t: t}
}

// DB returns the underlying database for direct access in tests.
func (f *Fixtures) DB() *mongo.Database {
	return f.db
}

// HashPassword bcrypt-hashes a password at min cost for test speed.
func HashPassword(t *testing.T, password string) string {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("failed to hash password: %v", err)
	}
	return string(hash)
}

// CreateUser creates an active test user with the given credentials.
func (f *Fixtures) CreateUser(ctx context.Context, username, password, fullName, team, role string) models.User {
	f.t.Helper()
	return f.insertUser(ctx, username, password, fullName, team, role, true)
}

// CreateInactiveUser creates a test user with the active flag cleared.
func (f *Fixtures) CreateInactiveUser(ctx context.Context, username, password, fullName, team, role string) models.User {
	f.t.Helper()
	return f.insertUser(ctx, username, password, fullName, team, role, false)
}

func (f *Fixtures) insertUser(ctx context.Context, username, password, fullName, team, role string, active bool) models.User {
	f.t.Helper()

	now := time.Now().UTC()
	user := models.User{
		ID:           primitive.NewObjectID(),
		Username:     username,
		UsernameCI:   text.Fold(username),
		PasswordHash: HashPassword(f.t, password),
		FullName:     fullName,
		Team:         team,
		Role:         role,
		Active:       active,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if _, err := f.db.Collection("users").InsertOne(ctx, user); err != nil {
		f.t.Fatalf("failed to create test user: %v", err)
	}
	return user
}

// CreateAssignment creates a pending test assignment delegated from
// assignedBy to assignedTo.
func (f *Fixtures) CreateAssignment(ctx context.Context, title string, assignedBy, assignedTo primitive.ObjectID) models.Assignment {
	f.t.Helper()

	now := time.Now().UTC()
	a := models.Assignment{
		ID:         primitive.NewObjectID(),
		Title:      title,
		Address:    "Rua das Fibras, 42",
		Status:     status.Pending,
		Priority:   status.Medium,
		AssignedBy: assignedBy,
		AssignedTo: assignedTo,
		CreatedAt:  now,
		UpdatedAt:  now,
		Version:    1,
	}

	if _, err := f.db.Collection("task_assignments").InsertOne(ctx, a); err != nil {
		f.t.Fatalf("failed to create test assignment: %v", err)
	}
	return a
}

// CreateNotification creates an unread test notification for userID.
func (f *Fixtures) CreateNotification(ctx context.Context, userID primitive.ObjectID, typ models.NotificationType, title string) models.Notification {
	f.t.Helper()

	n := models.Notification{
		ID:        primitive.NewObjectID(),
		UserID:    userID,
		Type:      typ,
		Title:     title,
		Message:   "test message",
		Read:      false,
		CreatedAt: time.Now().UTC(),
	}

	if _, err := f.db.Collection("notifications").InsertOne(ctx, n); err != nil {
		f.t.Fatalf("failed to create test notification: %v", err)
	}
	return n
}
