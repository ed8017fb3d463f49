// internal/app/features/preferences/handler.go
package preferences

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	uierrors "github.com/hakbangquest/hakbangweb/internal/app/features/errors"
	"github.com/hakbangquest/hakbangweb/internal/app/system/normalize"
	"go.uber.org/zap"
)

// ThemeCookie holds the visitor's colour scheme choice.
const ThemeCookie = "hakbang_theme"

// Theme values. System follows the device setting and is the default.
const (
	ThemeLight  = "light"
	ThemeDark   = "dark"
	ThemeSystem = "system"
)

const themeMaxAge = 365 * 24 * time.Hour

func validTheme(t string) bool {
	return t == ThemeLight || t == ThemeDark || t == ThemeSystem
}

type Handler struct {
	ErrLog *uierrors.ErrorLogger
	Secure bool
	Log    *zap.Logger
}

func NewHandler(errLog *uierrors.ErrorLogger, secure bool, logger *zap.Logger) *Handler {
	return &Handler{ErrLog: errLog, Secure: secure, Log: logger}
}

type themeBody struct {
	Theme string `json:"theme"`
}

// current reads the theme cookie; unknown or missing values are "system".
func current(r *http.Request) string {
	c, err := r.Cookie(ThemeCookie)
	if err != nil {
		return ThemeSystem
	}
	if t := normalize.Theme(c.Value); validTheme(t) {
		return t
	}
	return ThemeSystem
}

// ServeTheme handles GET /api/preferences/theme.
func (h *Handler) ServeTheme(w http.ResponseWriter, r *http.Request) {
	uierrors.WriteJSON(w, http.StatusOK, themeBody{Theme: current(r)})
}

// HandleSetTheme handles PUT /api/preferences/theme with a JSON or form body.
func (h *Handler) HandleSetTheme(w http.ResponseWriter, r *http.Request) {
	var in themeBody
	if strings.HasPrefix(r.Header.Get("Content-Type"), "application/json") {
		if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
			h.ErrLog.LogBadRequest(w, r, "decode theme body failed", err, "theme", "Request body must be a JSON object with a theme.")
			return
		}
	} else {
		if err := r.ParseForm(); err != nil {
			h.ErrLog.LogBadRequest(w, r, "parse form failed", err, "theme", "Invalid form data.")
			return
		}
		in.Theme = r.FormValue("theme")
	}

	theme := normalize.Theme(in.Theme)
	if !validTheme(theme) {
		h.ErrLog.LogBadRequest(w, r, "unknown theme", nil, "theme", "Theme must be light, dark or system.")
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     ThemeCookie,
		Value:    theme,
		Path:     "/",
		MaxAge:   int(themeMaxAge.Seconds()),
		Secure:   h.Secure,
		SameSite: http.SameSiteLaxMode,
	})
	uierrors.WriteJSON(w, http.StatusOK, themeBody{Theme: theme})
}
