// internal/app/features/logout/handler.go
package logout

import (
	"context"
	"net/http"

	"github.com/hakbangquest/hakbangweb/internal/app/admingate"
	uierrors "github.com/hakbangquest/hakbangweb/internal/app/features/errors"
	"github.com/hakbangquest/hakbangweb/internal/app/system/auditlog"
	"github.com/hakbangquest/hakbangweb/internal/app/system/auth"
	"github.com/hakbangquest/hakbangweb/internal/app/system/timeouts"
	"go.uber.org/zap"
)

type Handler struct {
	Log      *zap.Logger
	ErrLog   *uierrors.ErrorLogger
	AuditLog *auditlog.Logger
}

func NewHandler(errLog *uierrors.ErrorLogger, audit *auditlog.Logger, logger *zap.Logger) *Handler {
	return &Handler{
		Log:      logger,
		ErrLog:   errLog,
		AuditLog: audit,
	}
}

type logoutResponse struct {
	Capability admingate.Capability `json:"capability"`
	SignedIn   bool                 `json:"signed_in"`
}

// HandleLogout handles POST /api/admin/logout.
//
// The caller always ends up a guest locally, even when the identity provider
// could not be told; that failure is logged. Logging out while signed out is
// a no-op that still answers 200.
func (h *Handler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	gate := auth.Gate(r)
	if gate == nil {
		h.ErrLog.LogServerError(w, r, "logout without admin gate", nil, "Logout is not available.")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	err := gate.Logout(ctx)
	if err != nil {
		h.Log.Warn("logout: provider sign-out failed", zap.Error(err))
	}
	h.AuditLog.Logout(ctx, r, err == nil)

	uierrors.WriteJSON(w, http.StatusOK, logoutResponse{Capability: gate.Current()})
}
