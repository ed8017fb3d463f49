// internal/app/features/suggestions/routes.go
package suggestions

import (
	"github.com/go-chi/chi/v5"
	"github.com/hakbangquest/hakbangweb/internal/app/system/auth"
)

// Routes mounts under /api/suggestions. Submitting is open to guests;
// reading is administrator only.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Post("/", h.HandleSubmit)

	r.Group(func(pr chi.Router) {
		pr.Use(auth.RequireAdmin)
		pr.Get("/", h.ServeList)
		pr.Get("/export.csv", h.ServeExport)
	})
	return r
}
