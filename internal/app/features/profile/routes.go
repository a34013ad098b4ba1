package profile

import (
	"github.com/gcnet/fieldtasks/internal/app/system/auth"
	"github.com/go-chi/chi/v5"
)

// Routes returns a subrouter that serves the profile endpoints.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Use(auth.RequireSignedIn)

	r.Get("/", h.Show)
	r.Put("/push-token", h.UpdatePushToken)

	return r
}
