// Package logout ends the caller's session.
package logout

import (
	"net/http"

	"github.com/gcnet/fieldtasks/internal/app/features/shared"
	"github.com/gcnet/fieldtasks/internal/app/system/auth"
	"go.uber.org/zap"
)

// Handler owns the sign-out endpoint.
type Handler struct {
	Sessions *auth.SessionManager
	Log      *zap.Logger
}

// NewHandler constructs a logout Handler.
func NewHandler(sessions *auth.SessionManager, logger *zap.Logger) *Handler {
	return &Handler{Sessions: sessions, Log: logger}
}

// SignOut handles POST /logout. Signing out without a session succeeds;
// the endpoint is idempotent.
func (h *Handler) SignOut(w http.ResponseWriter, r *http.Request) {
	if err := h.Sessions.SignOut(w, r); err != nil {
		h.Log.Error("logout: session clear failed", zap.Error(err))
		shared.Error(w, http.StatusInternalServerError, "internal error")
		return
	}
	shared.JSON(w, http.StatusOK, map[string]string{"status": "signed_out"})
}
