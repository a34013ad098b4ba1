// Package notifications exposes the user's notification inbox.
package notifications

import (
	"context"
	"errors"
	"net/http"

	"github.com/gcnet/fieldtasks/internal/app/features/shared"
	notificationstore "github.com/gcnet/fieldtasks/internal/app/store/notifications"
	"github.com/gcnet/fieldtasks/internal/app/system/auth"
	"github.com/gcnet/fieldtasks/internal/app/system/timeouts"
	"github.com/gcnet/fieldtasks/internal/domain/models"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// Handler owns the inbox endpoints.
type Handler struct {
	Store *notificationstore.Store
	Log   *zap.Logger
}

// NewHandler constructs a notifications Handler.
func NewHandler(store *notificationstore.Store, logger *zap.Logger) *Handler {
	return &Handler{Store: store, Log: logger}
}

// List handles GET /notifications: the caller's inbox, newest first.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := sessionUserID(w, r)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	list, err := h.Store.ListForUser(ctx, userID)
	if err != nil {
		h.storeError(w, "notifications: list failed", err)
		return
	}
	if list == nil {
		list = []models.Notification{}
	}
	shared.JSON(w, http.StatusOK, list)
}

// UnreadCount handles GET /notifications/unread-count.
func (h *Handler) UnreadCount(w http.ResponseWriter, r *http.Request) {
	userID, ok := sessionUserID(w, r)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	count, err := h.Store.UnreadCount(ctx, userID)
	if err != nil {
		h.storeError(w, "notifications: unread count failed", err)
		return
	}
	shared.JSON(w, http.StatusOK, map[string]int64{"unread": count})
}

// MarkRead handles POST /notifications/{notificationID}/read. Marking a
// notification that is already read succeeds; marking someone else's is
// a 404.
func (h *Handler) MarkRead(w http.ResponseWriter, r *http.Request) {
	userID, ok := sessionUserID(w, r)
	if !ok {
		return
	}
	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "notificationID"))
	if err != nil {
		shared.Error(w, http.StatusBadRequest, "invalid notification id")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	if err := h.Store.MarkRead(ctx, id, userID); err != nil {
		h.storeError(w, "notifications: mark read failed", err)
		return
	}
	shared.JSON(w, http.StatusOK, map[string]string{"status": "read"})
}

// MarkAllRead handles POST /notifications/read-all.
func (h *Handler) MarkAllRead(w http.ResponseWriter, r *http.Request) {
	userID, ok := sessionUserID(w, r)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	updated, err := h.Store.MarkAllRead(ctx, userID)
	if err != nil {
		h.storeError(w, "notifications: mark all read failed", err)
		return
	}
	shared.JSON(w, http.StatusOK, map[string]int64{"updated": updated})
}

func (h *Handler) storeError(w http.ResponseWriter, msg string, err error) {
	switch {
	case errors.Is(err, notificationstore.ErrNotFound):
		shared.Error(w, http.StatusNotFound, "notification not found")
	case errors.Is(err, context.DeadlineExceeded):
		shared.Error(w, http.StatusGatewayTimeout, "storage timed out")
	default:
		h.Log.Error(msg, zap.Error(err))
		shared.Error(w, http.StatusInternalServerError, "internal error")
	}
}

func sessionUserID(w http.ResponseWriter, r *http.Request) (primitive.ObjectID, bool) {
	u, ok := auth.CurrentUser(r)
	if !ok {
		shared.Error(w, http.StatusUnauthorized, "unauthorized")
		return primitive.NilObjectID, false
	}
	id, err := primitive.ObjectIDFromHex(u.ID)
	if err != nil {
		shared.Error(w, http.StatusUnauthorized, "unauthorized")
		return primitive.NilObjectID, false
	}
	return id, true
}
