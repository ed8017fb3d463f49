// internal/app/features/login/handler.go
package login

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/hakbangquest/hakbangweb/internal/app/admingate"
	uierrors "github.com/hakbangquest/hakbangweb/internal/app/features/errors"
	"github.com/hakbangquest/hakbangweb/internal/app/system/auditlog"
	"github.com/hakbangquest/hakbangweb/internal/app/system/auth"
	"github.com/hakbangquest/hakbangweb/internal/app/system/metrics"
	"github.com/hakbangquest/hakbangweb/internal/app/system/ratelimit"
	"github.com/hakbangquest/hakbangweb/internal/app/system/timeouts"
	"go.uber.org/zap"
)

type Handler struct {
	Log      *zap.Logger
	ErrLog   *uierrors.ErrorLogger
	AuditLog *auditlog.Logger
	Limiter  *ratelimit.LoginLimiter // nil disables throttling
}

func NewHandler(errLog *uierrors.ErrorLogger, audit *auditlog.Logger, limiter *ratelimit.LoginLimiter, logger *zap.Logger) *Handler {
	return &Handler{
		Log:      logger,
		ErrLog:   errLog,
		AuditLog: audit,
		Limiter:  limiter,
	}
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// capabilityResponse is returned by login, logout and the capability check.
type capabilityResponse struct {
	Capability admingate.Capability `json:"capability"`
	SignedIn   bool                 `json:"signed_in"`
	Email      string               `json:"email,omitempty"`
}

func readCredentials(r *http.Request) (loginRequest, error) {
	var in loginRequest
	if strings.HasPrefix(r.Header.Get("Content-Type"), "application/json") {
		err := json.NewDecoder(r.Body).Decode(&in)
		return in, err
	}
	if err := r.ParseForm(); err != nil {
		return in, err
	}
	in.Email = r.FormValue("email")
	in.Password = r.FormValue("password")
	return in, nil
}

/*─────────────────────────────────────────────────────────────────────────────*
| POST /api/admin/login                                                       |
*─────────────────────────────────────────────────────────────────────────────*/

// HandleLogin signs in through the request's admin gate. Only the configured
// administrator gets 200; any other valid account gets 403.
func (h *Handler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	in, err := readCredentials(r)
	if err != nil {
		h.ErrLog.LogBadRequest(w, r, "read login credentials failed", err, "", "Request body must carry email and password.")
		return
	}
	// Surrounding whitespace is dropped; case is kept because the
	// administrator comparison is exact.
	email := strings.TrimSpace(in.Email)

	if h.Limiter != nil {
		if allowed, limitType := h.Limiter.Check(r, email); !allowed {
			metrics.AdminLogin(metrics.OutcomeThrottled)
			h.AuditLog.LoginRateLimited(r.Context(), r, email, limitType)
			h.ErrLog.LogTooManyRequests(w, r, "login rate limited", "Too many login attempts. Please wait a minute and try again.")
			return
		}
	}

	gate := auth.Gate(r)
	if gate == nil {
		h.ErrLog.LogServerError(w, r, "login without admin gate", nil, "Login is not available.")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	_, err = gate.Login(ctx, email, in.Password)
	switch {
	case err == nil:
		metrics.AdminLogin(metrics.OutcomeOK)
		if h.Limiter != nil {
			h.Limiter.ResetEmail(email)
		}
		userID := ""
		if id, ok := auth.CurrentIdentity(r); ok {
			userID = id.UserID
		}
		h.AuditLog.LoginSuccess(ctx, r, userID, email)
		uierrors.WriteJSON(w, http.StatusOK, capabilityResponse{Capability: admingate.Admin, SignedIn: true, Email: email})

	case errors.Is(err, admingate.ErrAuthentication):
		metrics.AdminLogin(metrics.OutcomeDenied)
		h.AuditLog.LoginFailed(ctx, r, email)
		h.ErrLog.LogUnauthorized(w, r, "admin login rejected", err, uierrors.CodeInvalidLogin, "Invalid email or password.")

	case errors.Is(err, admingate.ErrNotAuthorized):
		metrics.AdminLogin(metrics.OutcomeDenied)
		h.AuditLog.LoginNotAuthorized(ctx, r, email)
		h.ErrLog.LogForbidden(w, r, "non-admin login", err, "This account is not the administrator.")

	default:
		metrics.AdminLogin(metrics.OutcomeUnavailable)
		h.AuditLog.LoginUnavailable(ctx, r, email)
		h.ErrLog.LogUnavailable(w, r, "identity provider unavailable", err, "Sign-in is temporarily unavailable. Please try again.")
	}
}

/*─────────────────────────────────────────────────────────────────────────────*
| GET /api/admin/capability                                                   |
*─────────────────────────────────────────────────────────────────────────────*/

// ServeCapability reports the settled capability for the caller.
func (h *Handler) ServeCapability(w http.ResponseWriter, r *http.Request) {
	resp := capabilityResponse{Capability: auth.CurrentCapability(r)}
	if id, ok := auth.CurrentIdentity(r); ok {
		resp.SignedIn = true
		resp.Email = id.Email
	}
	uierrors.WriteJSON(w, http.StatusOK, resp)
}
