// internal/app/bootstrap/appconfig.go
package bootstrap

import "time"

// AppConfig holds service-specific configuration for this WAFFLE app.
//
// These values come from environment variables, configuration files, or
// command-line flags (loaded in LoadConfig). They represent *app-level*
// configuration, not WAFFLE core configuration.
//
// WAFFLE's CoreConfig handles framework-level settings like:
//   - HTTP/HTTPS ports and TLS configuration
//   - Logging level and format
//   - Request body size limits
//
// AppConfig carries everything specific to the HakbangQuest site backend.
type AppConfig struct {
	// MongoDB connection configuration
	MongoURI         string // MongoDB connection string (e.g., mongodb://localhost:27017)
	MongoDatabase    string // Database name within MongoDB
	MongoMaxPoolSize uint64
	MongoMinPoolSize uint64

	// Cookie session holding the identity token
	SessionKey    string        // Secret key for signing session cookies (must be strong in production)
	SessionName   string        // Cookie name for sessions (default: hakbang-session)
	SessionDomain string        // Cookie domain (blank means current host)
	SessionMaxAge time.Duration // Cookie lifetime

	// Admin gate
	AdminEmail             string        // The single administrator; compared exactly
	AdminPassword          string        // Bootstrap password; blank means do not create the account
	IdentitySessionTTL     time.Duration // Lifetime of an identity session record
	SessionCleanupInterval time.Duration // How often expired identity sessions are purged
	LoginRatePerMinute     int           // Login attempts allowed per IP per minute

	// Suggestion listing
	SuggestionPageSize    int // Default page size for the admin list
	SuggestionMaxPageSize int // Upper clamp for page_size

	// Audit logging
	AuditLogAuth     string // 'all', 'db', 'log' or 'off'
	AuditLogFeedback string

	// Presentation layer
	CORSAllowedOrigins []string // Origins allowed to call /api from a browser
	StaticDir          string   // Directory served under /static

	// Installer
	APKPath      string
	APKFileName  string
	APKVersion   string
	APKSizeLabel string
}
