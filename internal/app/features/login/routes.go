// internal/app/features/login/routes.go
package login

import "github.com/go-chi/chi/v5"

// Routes mounts under /api/admin.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Post("/login", h.HandleLogin)
	r.Get("/capability", h.ServeCapability)
	return r
}
