// Package auth binds the admin gate to HTTP requests. The identity session
// token lives in a gorilla cookie session; the admin hint lives in its own
// signed cookie. Every request gets a fresh gate whose capability is settled
// before the handler runs.
package auth

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/sessions"
	"github.com/hakbangquest/hakbangweb/internal/app/system/identity"
	"go.uber.org/zap"
)

const (
	// DefaultSessionName is the cookie holding the identity session token.
	DefaultSessionName = "hakbang-session"

	tokenKey = "identity_token"
)

// SessionManager owns the cookie store for identity sessions.
type SessionManager struct {
	store  *sessions.CookieStore
	name   string
	secure bool
	log    *zap.Logger
}

// NewSessionManager builds a SessionManager. The key signs the cookie and
// should be at least 32 random characters. secure marks cookies Secure and
// is required in production (HTTPS).
func NewSessionManager(sessionKey, name, domain string, maxAge time.Duration, secure bool, logger *zap.Logger) (*SessionManager, error) {
	if sessionKey == "" {
		return nil, fmt.Errorf("session key is empty; provide ≥32 random chars")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if len(sessionKey) < 32 {
		logger.Warn("session key is short; 32+ chars recommended",
			zap.Int("length", len(sessionKey)))
	}
	if name == "" {
		name = DefaultSessionName
	}

	store := sessions.NewCookieStore([]byte(sessionKey))
	store.Options = &sessions.Options{
		Domain:   domain,
		Path:     "/",
		MaxAge:   int(maxAge.Seconds()),
		Secure:   secure,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}

	return &SessionManager{store: store, name: name, secure: secure, log: logger}, nil
}

// Store exposes the underlying cookie store.
func (sm *SessionManager) Store() *sessions.CookieStore { return sm.store }

// Name returns the session cookie name.
func (sm *SessionManager) Name() string { return sm.name }

// Secure reports whether cookies are issued with the Secure flag.
func (sm *SessionManager) Secure() bool { return sm.secure }

// GetSession returns the request's session. A cookie that fails to decode
// (rotated key, tampering) yields a fresh, empty session and an error the
// caller may log.
func (sm *SessionManager) GetSession(r *http.Request) (*sessions.Session, error) {
	return sm.store.Get(r, sm.name)
}

// Tokens returns a TokenHolder backed by this request's session cookie.
func (sm *SessionManager) Tokens(w http.ResponseWriter, r *http.Request) identity.TokenHolder {
	sess, err := sm.GetSession(r)
	if err != nil {
		sm.log.Debug("session cookie rejected; starting fresh", zap.Error(err))
	}
	return &sessionTokens{sess: sess, w: w, r: r}
}

type sessionTokens struct {
	sess *sessions.Session
	w    http.ResponseWriter
	r    *http.Request
}

func (t *sessionTokens) Token() string {
	v, _ := t.sess.Values[tokenKey].(string)
	return v
}

func (t *sessionTokens) SetToken(token string) error {
	if token == "" {
		delete(t.sess.Values, tokenKey)
		t.sess.Options.MaxAge = -1
	} else {
		t.sess.Values[tokenKey] = token
	}
	return t.sess.Save(t.r, t.w)
}

// errorBody is the JSON shape of every error response.
type errorBody struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(errorBody{Error: code, Message: message})
}
