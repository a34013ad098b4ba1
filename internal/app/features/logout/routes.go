package logout

import "github.com/go-chi/chi/v5"

// Routes returns a subrouter that serves the sign-out endpoint.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Post("/", h.SignOut) // mounted under /logout
	return r
}
