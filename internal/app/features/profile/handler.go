// Package profile exposes the signed-in user's account data and device
// token registration.
package profile

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gcnet/fieldtasks/internal/app/features/shared"
	userstore "github.com/gcnet/fieldtasks/internal/app/store/users"
	"github.com/gcnet/fieldtasks/internal/app/system/auth"
	"github.com/gcnet/fieldtasks/internal/app/system/timeouts"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// Handler owns the profile endpoints.
type Handler struct {
	Users *userstore.Store
	Log   *zap.Logger
}

// NewHandler constructs a profile Handler.
func NewHandler(users *userstore.Store, logger *zap.Logger) *Handler {
	return &Handler{Users: users, Log: logger}
}

type profileResponse struct {
	ID             string `json:"id"`
	Username       string `json:"username"`
	FullName       string `json:"full_name"`
	Team           string `json:"team"`
	Role           string `json:"role"`
	PushToken      string `json:"push_token,omitempty"`
	PushRegistered bool   `json:"push_registered"`
}

// Show handles GET /profile. The profile is read fresh from the store so
// it reflects changes from other devices, not the session snapshot.
func (h *Handler) Show(w http.ResponseWriter, r *http.Request) {
	userID, ok := sessionUserID(w, r)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	u, err := h.Users.GetByID(ctx, userID)
	if err != nil {
		h.storeError(w, "profile: lookup failed", err)
		return
	}

	shared.JSON(w, http.StatusOK, profileResponse{
		ID:             u.ID.Hex(),
		Username:       u.Username,
		FullName:       u.FullName,
		Team:           u.Team,
		Role:           u.Role,
		PushToken:      u.PushToken,
		PushRegistered: u.PushToken != "",
	})
}

type pushTokenRequest struct {
	PushToken string `json:"push_token"`
}

// UpdatePushToken handles PUT /profile/push-token. An empty token
// unregisters the device.
func (h *Handler) UpdatePushToken(w http.ResponseWriter, r *http.Request) {
	userID, ok := sessionUserID(w, r)
	if !ok {
		return
	}

	var req pushTokenRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	if err := h.Users.UpdatePushToken(ctx, userID, req.PushToken); err != nil {
		h.storeError(w, "profile: push token update failed", err)
		return
	}
	shared.JSON(w, http.StatusOK, map[string]bool{"push_registered": req.PushToken != ""})
}

func (h *Handler) storeError(w http.ResponseWriter, msg string, err error) {
	switch {
	case errors.Is(err, userstore.ErrNotFound):
		shared.Error(w, http.StatusNotFound, "user not found")
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
