// internal/app/features/preferences/routes.go
package preferences

import "github.com/go-chi/chi/v5"

// Routes mounts under /api/preferences.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Get("/theme", h.ServeTheme)
	r.Put("/theme", h.HandleSetTheme)
	return r
}
