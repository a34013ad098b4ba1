// Package login implements password sign-in for the mobile client.
package login

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/gcnet/fieldtasks/internal/app/features/shared"
	userstore "github.com/gcnet/fieldtasks/internal/app/store/users"
	"github.com/gcnet/fieldtasks/internal/app/system/auth"
	"github.com/gcnet/fieldtasks/internal/app/system/timeouts"
	"go.uber.org/zap"
)

// Handler owns the sign-in endpoint.
type Handler struct {
	Verifier *auth.Verifier
	Sessions *auth.SessionManager
	Users    *userstore.Store
	Log      *zap.Logger
}

// NewHandler constructs a login Handler.
func NewHandler(verifier *auth.Verifier, sessions *auth.SessionManager, users *userstore.Store, logger *zap.Logger) *Handler {
	return &Handler{
		Verifier: verifier,
		Sessions: sessions,
		Users:    users,
		Log:      logger,
	}
}

type loginRequest struct {
	Username  string `json:"username"`
	Password  string `json:"password"`
	PushToken string `json:"push_token,omitempty"`
}

type loginResponse struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	FullName string `json:"full_name"`
	Team     string `json:"team"`
	Role     string `json:"role"`
}

// SignIn handles POST /login.
//
// Every credential failure gets the same 401 body, so the endpoint never
// reveals whether a username exists.
func (h *Handler) SignIn(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(req.Username) == "" || req.Password == "" {
		shared.Error(w, http.StatusBadRequest, "username and password are required")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	u, err := h.Verifier.Authenticate(ctx, req.Username, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, auth.ErrInvalidCredentials):
			shared.Error(w, http.StatusUnauthorized, "invalid username or password")
		case errors.Is(err, context.DeadlineExceeded):
			shared.Error(w, http.StatusGatewayTimeout, "authentication timed out")
		default:
			h.Log.Error("login: credential check failed", zap.Error(err))
			shared.Error(w, http.StatusInternalServerError, "internal error")
		}
		return
	}

	sessionUser := &auth.SessionUser{
		ID:       u.ID.Hex(),
		Username: u.Username,
		Name:     u.FullName,
		Team:     u.Team,
		Role:     u.Role,
	}
	if err := h.Sessions.SignIn(w, r, sessionUser); err != nil {
		h.Log.Error("login: session write failed", zap.Error(err))
		shared.Error(w, http.StatusInternalServerError, "internal error")
		return
	}

	// Device token registration rides along with sign-in but never blocks
	// it: a failed registration means no push until the next login or an
	// explicit re-register, and the inbox still records everything.
	if req.PushToken != "" {
		if err := h.Users.UpdatePushToken(ctx, u.ID, req.PushToken); err != nil {
			h.Log.Warn("login: push token registration failed",
				zap.String("username", u.Username), zap.Error(err))
		}
	}

	shared.JSON(w, http.StatusOK, loginResponse{
		ID:       u.ID.Hex(),
		Username: u.Username,
		FullName: u.FullName,
		Team:     u.Team,
		Role:     u.Role,
	})
}
