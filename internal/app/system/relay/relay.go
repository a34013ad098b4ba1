// Package relay fans assignment events out to users: a durable inbox
// record first, then a best-effort push event to the registered device.
package relay

import (
	"context"

	"github.com/gcnet/fieldtasks/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// Inbox is the slice of the notification store the relay writes to.
type Inbox interface {
	Create(ctx context.Context, n models.Notification) (models.Notification, error)
}

// TokenSource resolves the push token registered for a user.
type TokenSource interface {
	GetByID(ctx context.Context, id primitive.ObjectID) (*models.User, error)
}

// Pusher delivers a platform push event.
type Pusher interface {
	Send(ctx context.Context, token, title, body string, data map[string]string) error
}

// Relay turns assignment events into inbox entries and push events.
type Relay struct {
	inbox  Inbox
	tokens TokenSource
	pusher Pusher
	log    *zap.Logger
}

func New(inbox Inbox, tokens TokenSource, pusher Pusher, logger *zap.Logger) *Relay {
	return &Relay{inbox: inbox, tokens: tokens, pusher: pusher, log: logger}
}

// Notify creates the inbox record and then attempts push delivery.
//
// The inbox write is the operation's truth: if it fails, Notify fails. A
// missing push token, an unresolvable user, or an unreachable push
// transport degrade to inbox-only delivery and are only logged.
func (r *Relay) Notify(ctx context.Context, userID primitive.ObjectID, typ models.NotificationType, title, message string, assignmentID *primitive.ObjectID) (models.Notification, error) {
	n, err := r.inbox.Create(ctx, models.Notification{
		UserID:      userID,
		Type:        typ,
		Title:       title,
		Message:     message,
		ReferenceID: assignmentID,
	})
	if err != nil {
		return models.Notification{}, err
	}

	u, err := r.tokens.GetByID(ctx, userID)
	if err != nil {
		r.log.Warn("push skipped: could not resolve user",
			zap.String("user_id", userID.Hex()), zap.Error(err))
		return n, nil
	}
	if u.PushToken == "" {
		return n, nil
	}

	data := map[string]string{
		"type":            string(typ),
		"notification_id": n.ID.Hex(),
	}
	if assignmentID != nil {
		data["assignment_id"] = assignmentID.Hex()
	}

	if err := r.pusher.Send(ctx, u.PushToken, title, message, data); err != nil {
		r.log.Warn("push delivery failed, inbox record kept",
			zap.String("user_id", userID.Hex()),
			zap.String("type", string(typ)),
			zap.Error(err))
	}
	return n, nil
}
