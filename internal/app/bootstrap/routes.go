// internal/app/bootstrap/routes.go
package bootstrap

import (
	"net/http"
	"time"

	"github.com/dalemusser/waffle/config"
	"github.com/dalemusser/waffle/pantry/fileserver"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	auditfeature "github.com/hakbangquest/hakbangweb/internal/app/features/auditlog"
	downloadfeature "github.com/hakbangquest/hakbangweb/internal/app/features/download"
	errorsfeature "github.com/hakbangquest/hakbangweb/internal/app/features/errors"
	healthfeature "github.com/hakbangquest/hakbangweb/internal/app/features/health"
	loginfeature "github.com/hakbangquest/hakbangweb/internal/app/features/login"
	logoutfeature "github.com/hakbangquest/hakbangweb/internal/app/features/logout"
	preferencesfeature "github.com/hakbangquest/hakbangweb/internal/app/features/preferences"
	suggestionsfeature "github.com/hakbangquest/hakbangweb/internal/app/features/suggestions"
	auditstore "github.com/hakbangquest/hakbangweb/internal/app/store/audit"
	sessionstore "github.com/hakbangquest/hakbangweb/internal/app/store/sessions"
	suggestionstore "github.com/hakbangquest/hakbangweb/internal/app/store/suggestions"
	userstore "github.com/hakbangquest/hakbangweb/internal/app/store/users"
	"github.com/hakbangquest/hakbangweb/internal/app/suggestion"
	"github.com/hakbangquest/hakbangweb/internal/app/system/auditlog"
	"github.com/hakbangquest/hakbangweb/internal/app/system/auth"
	"github.com/hakbangquest/hakbangweb/internal/app/system/identity"
	"github.com/hakbangquest/hakbangweb/internal/app/system/metrics"
	"github.com/hakbangquest/hakbangweb/internal/app/system/ratelimit"
	"go.uber.org/zap"
)

// Version is reported by /health. Overridden at link time.
var Version = "dev"

// BuildHandler constructs the root HTTP handler (router) for this WAFFLE app.
//
// WAFFLE calls this after configuration, DB connections, schema setup, and
// any Startup hooks have completed. The router carries:
//  1. The admin gate middleware, so every handler can ask for the caller's
//     capability
//  2. The public API (suggestion submission, capability, preferences)
//  3. The admin API (login, logout, suggestion list and export, audit log)
//  4. The installer download, static assets, health and metrics
func BuildHandler(coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) (http.Handler, error) {
	// Secure cookies are enabled in production mode.
	secure := coreCfg.Env == "prod"
	sessionMgr, err := auth.NewSessionManager(appCfg.SessionKey, appCfg.SessionName, appCfg.SessionDomain, appCfg.SessionMaxAge, secure, logger)
	if err != nil {
		logger.Error("session manager init failed", zap.Error(err))
		return nil, err
	}

	db := deps.MongoDatabase
	idp := identity.NewService(userstore.New(db), sessionstore.New(db), appCfg.IdentitySessionTTL, logger)
	gatekeeper := auth.NewGatekeeper(sessionMgr, idp, appCfg.AdminEmail, []byte(appCfg.SessionKey), logger)

	errLog := errorsfeature.NewErrorLogger(logger)
	events := auditstore.New(db)
	audit := auditlog.New(events, logger, auditlog.Config{
		Auth:     appCfg.AuditLogAuth,
		Feedback: appCfg.AuditLogFeedback,
	})

	limiter := ratelimit.NewLoginLimiter(appCfg.LoginRatePerMinute)
	background.addStopper(limiter.Stop)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.NotFound(errorsfeature.NotFound)
	r.MethodNotAllowed(errorsfeature.MethodNotAllowed)

	// Health and metrics sit outside the admin gate.
	healthHandler := healthfeature.NewHandler(deps.MongoClient, Version, logger)
	r.Mount("/health", healthfeature.Routes(healthHandler))
	r.Handle("/metrics", metrics.Handler())

	// Static assets with pre-compressed file support (gzip/brotli)
	r.Handle("/static/*", fileserver.Handler("/static", appCfg.StaticDir))

	installer := downloadfeature.NewHandler(downloadfeature.Installer{
		Path:      appCfg.APKPath,
		FileName:  appCfg.APKFileName,
		Version:   appCfg.APKVersion,
		SizeLabel: appCfg.APKSizeLabel,
	}, errLog, logger)
	r.Mount("/download", downloadfeature.Routes(installer))
	r.Get("/"+installer.Installer.FileName, installer.ServeInstaller)
	r.Head("/"+installer.Installer.FileName, installer.ServeInstaller)

	r.Route("/api", func(api chi.Router) {
		api.Use(cors.Handler(cors.Options{
			AllowedOrigins:   appCfg.CORSAllowedOrigins,
			AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodOptions},
			AllowedHeaders:   []string{"Accept", "Content-Type", "X-Request-ID"},
			AllowCredentials: true,
			MaxAge:           int((10 * time.Minute).Seconds()),
		}))
		api.Use(gatekeeper.LoadCapability)

		api.Get("/app-info", installer.ServeAppInfo)

		prefs := preferencesfeature.NewHandler(errLog, secure, logger)
		api.Mount("/preferences", preferencesfeature.Routes(prefs))

		repo := suggestion.New(suggestionstore.New(db), logger)
		suggestions := suggestionsfeature.NewHandler(repo, errLog, audit, appCfg.SuggestionPageSize, appCfg.SuggestionMaxPageSize, logger)
		api.Mount("/suggestions", suggestionsfeature.Routes(suggestions))

		loginHandler := loginfeature.NewHandler(errLog, audit, limiter, logger)
		api.Mount("/admin", loginfeature.Routes(loginHandler))

		logoutHandler := logoutfeature.NewHandler(errLog, audit, logger)
		api.Mount("/admin/logout", logoutfeature.Routes(logoutHandler))

		auditHandler := auditfeature.NewHandler(events, errLog, logger)
		api.Mount("/admin/audit", auditfeature.Routes(auditHandler))
	})

	return r, nil
}
