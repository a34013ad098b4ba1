package login

import "github.com/go-chi/chi/v5"

// Routes returns a subrouter that serves the sign-in endpoint.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Post("/", h.SignIn) // mounted under /login
	return r
}
