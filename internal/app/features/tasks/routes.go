package tasks

import (
	"github.com/gcnet/fieldtasks/internal/app/system/auth"
	"github.com/go-chi/chi/v5"
)

// Routes returns a subrouter that serves the assignment endpoints. All
// routes require a signed-in session; dispatch is admin-only.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Use(auth.RequireSignedIn)

	r.Get("/", h.List)
	r.With(auth.RequireRole("admin")).Post("/", h.Create)
	r.Get("/{assignmentID}", h.Get)
	r.Put("/{assignmentID}/status", h.UpdateStatus)
	r.Post("/{assignmentID}/photos", h.AttachPhotos)

	return r
}
