package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// User represents a field technician or an administrator.
//
// Users are provisioned out of band by the dispatch backend; this service
// reads them for authentication and only writes the push token and profile
// timestamps. Inactive users cannot authenticate.
type User struct {
	ID         primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Username   string             `bson:"username" json:"username"`
	UsernameCI string             `bson:"username_ci" json:"-"` // lowercase, diacritics-stripped

	// PasswordHash is a bcrypt hash. Never serialized to clients.
	PasswordHash string `bson:"password_hash" json:"-"`

	FullName string `bson:"full_name" json:"full_name"`
	Team     string `bson:"team" json:"team"` // free-text group label, e.g. "Infraestrutura"
	Role     string `bson:"role" json:"role"` // admin | user
	Active   bool   `bson:"active" json:"active"`

	// PushToken is the opaque device token a push platform uses to route a
	// notification to this user's installed app. Empty when the user has
	// never registered a device.
	PushToken string `bson:"push_token,omitempty" json:"-"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}
