// internal/app/features/auditlog/routes.go
package auditlog

import (
	"github.com/go-chi/chi/v5"
	"github.com/hakbangquest/hakbangweb/internal/app/system/auth"
)

// Routes mounts under /api/admin/audit. Administrator only.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Use(auth.RequireAdmin)
	r.Get("/", h.ServeList)
	return r
}
