// internal/app/bootstrap/config.go
package bootstrap

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dalemusser/waffle/config"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.uber.org/zap"
)

// appConfigKeys defines the configuration keys for the HakbangQuest backend.
// These are loaded via WAFFLE's config system with support for:
//   - Config files: mongo_uri, admin_email, etc.
//   - Environment variables: HAKBANG_MONGO_URI, HAKBANG_ADMIN_EMAIL, etc.
//   - Command-line flags: --mongo_uri, --admin_email, etc.
var appConfigKeys = []config.AppKey{
	{Name: "mongo_uri", Default: "mongodb://localhost:27017", Desc: "MongoDB connection URI"},
	{Name: "mongo_database", Default: "hakbangquest", Desc: "MongoDB database name"},
	{Name: "mongo_max_pool_size", Default: 50, Desc: "MongoDB max connection pool size"},
	{Name: "mongo_min_pool_size", Default: 2, Desc: "MongoDB min connection pool size"},
	{Name: "session_key", Default: "dev-only-change-me-please-0123456789ABCDEF", Desc: "Session signing key (must be strong in production)"},
	{Name: "session_name", Default: "hakbang-session", Desc: "Session cookie name"},
	{Name: "session_domain", Default: "", Desc: "Session cookie domain (blank means current host)"},
	{Name: "session_max_age", Default: "168h", Desc: "Session cookie lifetime"},

	// Admin gate
	{Name: "admin_email", Default: "admin@hakbang.com", Desc: "Email of the single administrator (exact match)"},
	{Name: "admin_password", Default: "", Desc: "Bootstrap password for the administrator account (blank: do not create)"},
	{Name: "identity_session_ttl", Default: "168h", Desc: "Lifetime of an identity session"},
	{Name: "session_cleanup_interval", Default: "10m", Desc: "How often expired identity sessions are purged"},
	{Name: "login_rate_per_minute", Default: 10, Desc: "Admin login attempts allowed per IP per minute"},

	// Suggestions
	{Name: "suggestion_page_size", Default: 10, Desc: "Default page size for the admin suggestion list"},
	{Name: "suggestion_max_page_size", Default: 50, Desc: "Largest page size a caller may request"},

	// Audit logging settings
	{Name: "audit_log_auth", Default: "all", Desc: "Auth event logging: 'all' (db+log), 'db', 'log', or 'off'"},
	{Name: "audit_log_feedback", Default: "log", Desc: "Feedback event logging: 'all' (db+log), 'db', 'log', or 'off'"},

	// Presentation layer
	{Name: "cors_allowed_origins", Default: "", Desc: "Comma-separated origins allowed to call /api"},
	{Name: "static_dir", Default: "public", Desc: "Directory served under /static"},

	// Installer
	{Name: "apk_path", Default: "", Desc: "Path to the Android installer (blank: not published)"},
	{Name: "apk_file_name", Default: "HakbangQuest.apk", Desc: "File name offered for the installer download"},
	{Name: "apk_version", Default: "1.0.0", Desc: "Installer version shown on the landing page"},
	{Name: "apk_size_label", Default: "", Desc: "Installer size label (blank: derived from the file)"},
}

// LoadConfig loads WAFFLE core config and app-specific config.
//
// WAFFLE's config.LoadWithAppConfig handles:
//   - Loading from .env files
//   - Loading from config.yaml/json/toml files
//   - Reading environment variables (WAFFLE_* for core, HAKBANG_* for app)
//   - Parsing command-line flags
//   - Merging with precedence: flags > env > files > defaults
func LoadConfig(logger *zap.Logger) (*config.CoreConfig, AppConfig, error) {
	coreCfg, appValues, err := config.LoadWithAppConfig(logger, "HAKBANG", appConfigKeys)
	if err != nil {
		return nil, AppConfig{}, err
	}

	appCfg := AppConfig{
		MongoURI:         appValues.String("mongo_uri"),
		MongoDatabase:    appValues.String("mongo_database"),
		MongoMaxPoolSize: uint64(appValues.Int("mongo_max_pool_size")),
		MongoMinPoolSize: uint64(appValues.Int("mongo_min_pool_size")),
		SessionKey:       appValues.String("session_key"),
		SessionName:      appValues.String("session_name"),
		SessionDomain:    appValues.String("session_domain"),
		SessionMaxAge:    appValues.Duration("session_max_age", 7*24*time.Hour),

		AdminEmail:             strings.TrimSpace(appValues.String("admin_email")),
		AdminPassword:          appValues.String("admin_password"),
		IdentitySessionTTL:     appValues.Duration("identity_session_ttl", 7*24*time.Hour),
		SessionCleanupInterval: appValues.Duration("session_cleanup_interval", 10*time.Minute),
		LoginRatePerMinute:     appValues.Int("login_rate_per_minute"),

		SuggestionPageSize:    appValues.Int("suggestion_page_size"),
		SuggestionMaxPageSize: appValues.Int("suggestion_max_page_size"),

		AuditLogAuth:     appValues.String("audit_log_auth"),
		AuditLogFeedback: appValues.String("audit_log_feedback"),

		CORSAllowedOrigins: splitList(appValues.String("cors_allowed_origins")),
		StaticDir:          appValues.String("static_dir"),

		APKPath:      appValues.String("apk_path"),
		APKFileName:  appValues.String("apk_file_name"),
		APKVersion:   appValues.String("apk_version"),
		APKSizeLabel: appValues.String("apk_size_label"),
	}

	return coreCfg, appCfg, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// ValidateConfig performs app-specific config validation.
//
// Return nil to accept the loaded config, or an error to abort startup.
// The MongoDB URI is checked before any connection attempt.
func ValidateConfig(coreCfg *config.CoreConfig, appCfg AppConfig, logger *zap.Logger) error {
	if err := wafflemongo.ValidateURI(appCfg.MongoURI); err != nil {
		logger.Error("invalid MongoDB URI", zap.Error(err))
		return fmt.Errorf("invalid MongoDB URI: %w", err)
	}

	if appCfg.AdminEmail == "" || !strings.Contains(appCfg.AdminEmail, "@") {
		return errors.New("admin_email must be an email address")
	}

	if appCfg.SuggestionPageSize < 1 {
		return fmt.Errorf("suggestion_page_size must be at least 1, got %d", appCfg.SuggestionPageSize)
	}
	if appCfg.SuggestionMaxPageSize < appCfg.SuggestionPageSize {
		return fmt.Errorf("suggestion_max_page_size (%d) must not be below suggestion_page_size (%d)",
			appCfg.SuggestionMaxPageSize, appCfg.SuggestionPageSize)
	}

	if coreCfg != nil && coreCfg.Env == "prod" && strings.HasPrefix(appCfg.SessionKey, "dev-only") {
		return errors.New("session_key must be set in production")
	}

	return nil
}
