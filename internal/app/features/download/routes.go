// internal/app/features/download/routes.go
package download

import "github.com/go-chi/chi/v5"

// Routes mounts under /download.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.ServeInstaller)
	r.Head("/", h.ServeInstaller)
	return r
}
