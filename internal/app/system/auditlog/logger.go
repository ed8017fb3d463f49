// internal/app/system/auditlog/logger.go
package auditlog

import (
	"context"
	"net/http"
	"strconv"

	"github.com/hakbangquest/hakbangweb/internal/app/store/audit"
	"github.com/hakbangquest/hakbangweb/internal/app/system/ratelimit"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// Destinations for a category of audit events.
const (
	DestAll = "all" // MongoDB + zap
	DestDB  = "db"  // MongoDB only
	DestLog = "log" // zap only
	DestOff = "off"
)

// Config holds audit logging configuration.
type Config struct {
	// Auth controls admin login and logout events.
	Auth string
	// Feedback controls suggestion submission and export events.
	Feedback string
}

// Logger records audit events to MongoDB (via audit.Store) and to zap.
type Logger struct {
	store  *audit.Store
	zapLog *zap.Logger
	config Config
}

// New creates a new audit Logger. store may be nil when no category is
// configured to write to the database.
func New(store *audit.Store, zapLog *zap.Logger, config Config) *Logger {
	if zapLog == nil {
		zapLog = zap.NewNop()
	}
	return &Logger{
		store:  store,
		zapLog: zapLog,
		config: config,
	}
}

// logToZap logs the event to zap with consistent structure.
func (l *Logger) logToZap(event audit.Event) {
	fields := []zap.Field{
		zap.Bool("audit", true),
		zap.String("category", event.Category),
		zap.String("event_type", event.EventType),
		zap.Bool("success", event.Success),
		zap.String("ip", event.IP),
	}

	if event.UserID != nil {
		fields = append(fields, zap.String("user_id", event.UserID.Hex()))
	}
	if event.Email != "" {
		fields = append(fields, zap.String("email", event.Email))
	}
	if event.FailureReason != "" {
		fields = append(fields, zap.String("failure_reason", event.FailureReason))
	}
	for k, v := range event.Details {
		fields = append(fields, zap.String("detail_"+k, v))
	}

	if event.Success {
		l.zapLog.Info("audit event", fields...)
	} else {
		l.zapLog.Warn("audit event", fields...)
	}
}

// Log records an audit event based on configuration.
// A nil Logger is a no-op.
func (l *Logger) Log(ctx context.Context, event audit.Event) {
	if l == nil {
		return
	}

	var setting string
	switch event.Category {
	case audit.CategoryAuth:
		setting = l.config.Auth
	case audit.CategoryFeedback:
		setting = l.config.Feedback
	default:
		setting = DestAll
	}
	if setting == "" {
		setting = DestAll
	}

	if setting == DestOff {
		return
	}
	if setting == DestAll || setting == DestLog {
		l.logToZap(event)
	}
	if (setting == DestAll || setting == DestDB) && l.store != nil {
		if err := l.store.Log(ctx, event); err != nil {
			l.zapLog.Error("failed to store audit event",
				zap.Error(err),
				zap.String("event_type", event.EventType),
			)
		}
	}
}

func fromRequest(r *http.Request, e audit.Event) audit.Event {
	e.IP = ratelimit.ClientIP(r)
	e.UserAgent = r.UserAgent()
	return e
}

// --- Authentication Events ---

// LoginSuccess logs a successful administrator login.
func (l *Logger) LoginSuccess(ctx context.Context, r *http.Request, userID, email string) {
	e := audit.Event{
		Category:  audit.CategoryAuth,
		EventType: audit.EventLoginSuccess,
		Email:     email,
		Success:   true,
	}
	if oid, err := primitive.ObjectIDFromHex(userID); err == nil {
		e.UserID = &oid
	}
	l.Log(ctx, fromRequest(r, e))
}

// LoginFailed logs rejected credentials.
func (l *Logger) LoginFailed(ctx context.Context, r *http.Request, email string) {
	l.Log(ctx, fromRequest(r, audit.Event{
		Category:      audit.CategoryAuth,
		EventType:     audit.EventLoginFailedCredentials,
		Email:         email,
		FailureReason: "invalid credentials",
	}))
}

// LoginNotAuthorized logs valid credentials for a non-administrator account.
func (l *Logger) LoginNotAuthorized(ctx context.Context, r *http.Request, email string) {
	l.Log(ctx, fromRequest(r, audit.Event{
		Category:      audit.CategoryAuth,
		EventType:     audit.EventLoginFailedNotAuthorized,
		Email:         email,
		FailureReason: "not the administrator",
	}))
}

// LoginRateLimited logs a throttled attempt. limitType is "ip" or "email".
func (l *Logger) LoginRateLimited(ctx context.Context, r *http.Request, email, limitType string) {
	l.Log(ctx, fromRequest(r, audit.Event{
		Category:      audit.CategoryAuth,
		EventType:     audit.EventLoginFailedRateLimit,
		Email:         email,
		FailureReason: "rate limited",
		Details:       map[string]string{"limit_type": limitType},
	}))
}

// LoginUnavailable logs an attempt that failed because the identity
// provider could not be reached.
func (l *Logger) LoginUnavailable(ctx context.Context, r *http.Request, email string) {
	l.Log(ctx, fromRequest(r, audit.Event{
		Category:      audit.CategoryAuth,
		EventType:     audit.EventLoginFailedUnavailable,
		Email:         email,
		FailureReason: "identity provider unavailable",
	}))
}

// Logout logs a sign-out. success is false when the provider-side sign-out
// failed and only local state was cleared.
func (l *Logger) Logout(ctx context.Context, r *http.Request, success bool) {
	e := audit.Event{
		Category:  audit.CategoryAuth,
		EventType: audit.EventLogout,
		Success:   success,
	}
	if !success {
		e.FailureReason = "provider sign-out failed"
	}
	l.Log(ctx, fromRequest(r, e))
}

// --- Feedback Events ---

// SuggestionSubmitted logs a stored guest suggestion.
func (l *Logger) SuggestionSubmitted(ctx context.Context, r *http.Request, suggestionID primitive.ObjectID) {
	l.Log(ctx, fromRequest(r, audit.Event{
		Category:  audit.CategoryFeedback,
		EventType: audit.EventSuggestionSubmitted,
		Success:   true,
		Details:   map[string]string{"suggestion_id": suggestionID.Hex()},
	}))
}

// SuggestionsExported logs a CSV export by the administrator.
func (l *Logger) SuggestionsExported(ctx context.Context, r *http.Request, rows int, complete bool) {
	l.Log(ctx, fromRequest(r, audit.Event{
		Category:  audit.CategoryFeedback,
		EventType: audit.EventSuggestionsExported,
		Success:   complete,
		Details: map[string]string{
			"rows":     strconv.Itoa(rows),
			"complete": strconv.FormatBool(complete),
		},
	}))
}
