package auth_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/hakbangquest/hakbangweb/internal/app/admingate"
	"github.com/hakbangquest/hakbangweb/internal/app/system/auth"
	"github.com/hakbangquest/hakbangweb/internal/app/system/identity"
	"github.com/hakbangquest/hakbangweb/internal/app/system/timeouts"
	"github.com/hakbangquest/hakbangweb/internal/domain/models"
	"github.com/hakbangquest/hakbangweb/internal/testutil"
	"go.uber.org/zap"
)

const testKey = "test-session-key-must-be-32-chars-long"

func newTestSessionManager(t *testing.T) *auth.SessionManager {
	t.Helper()
	sm, err := auth.NewSessionManager(testKey, "test-session", "", 24*time.Hour, false, zap.NewNop())
	if err != nil {
		t.Fatalf("failed to create session manager: %v", err)
	}
	return sm
}

type env struct {
	sm       *auth.SessionManager
	svc      *identity.Service
	gk       *auth.Gatekeeper
	sessions *testutil.MemSessions
	accounts *testutil.MemAccounts
}

func newEnv(t *testing.T) *env {
	t.Helper()
	e := &env{
		sm:       newTestSessionManager(t),
		sessions: testutil.NewMemSessions(),
		accounts: testutil.NewMemAccounts(
			testutil.NewAccount(t, "admin@hakbang.com", "s3cret"),
			testutil.NewAccount(t, "visitor@example.com", "pw"),
		),
	}
	e.svc = identity.NewService(e.accounts, e.sessions, time.Hour, nil)
	e.gk = auth.NewGatekeeper(e.sm, e.svc, "admin@hakbang.com", []byte(testKey), nil)
	return e
}

// signIn performs a login through the gate and returns the cookies set.
func (e *env) signIn(t *testing.T, email, password string) []*http.Cookie {
	t.Helper()
	h := e.gk.LoadCapability(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = auth.Gate(r).Login(r.Context(), email, password)
		w.WriteHeader(http.StatusNoContent)
	}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest("POST", "/api/admin/login", nil))
	return rec.Result().Cookies()
}

func protected(e *env) http.Handler {
	return e.gk.LoadCapability(auth.RequireAdmin(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})))
}

func withCookies(r *http.Request, cookies []*http.Cookie) *http.Request {
	for _, c := range cookies {
		if c.MaxAge >= 0 {
			r.AddCookie(c)
		}
	}
	return r
}

func TestNewSessionManager_EmptyKey(t *testing.T) {
	if _, err := auth.NewSessionManager("", "x", "", time.Hour, false, nil); err == nil {
		t.Error("expected error for empty session key")
	}
}

func TestRequireAdmin_NoSession_Returns401(t *testing.T) {
	e := newEnv(t)
	rec := httptest.NewRecorder()
	protected(e).ServeHTTP(rec, httptest.NewRequest("GET", "/api/suggestions", nil))

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("expected status %d, got %d", http.StatusUnauthorized, rec.Code)
	}
}

func TestRequireAdmin_AdminSession_Passes(t *testing.T) {
	e := newEnv(t)
	cookies := e.signIn(t, "admin@hakbang.com", "s3cret")

	rec := httptest.NewRecorder()
	protected(e).ServeHTTP(rec, withCookies(httptest.NewRequest("GET", "/api/suggestions", nil), cookies))

	if rec.Code != http.StatusOK {
		t.Errorf("expected status %d, got %d", http.StatusOK, rec.Code)
	}
}

func TestRequireAdmin_NonAdminSession_Returns403(t *testing.T) {
	e := newEnv(t)
	cookies := e.signIn(t, "visitor@example.com", "pw")

	rec := httptest.NewRecorder()
	protected(e).ServeHTTP(rec, withCookies(httptest.NewRequest("GET", "/api/suggestions", nil), cookies))

	if rec.Code != http.StatusForbidden {
		t.Errorf("expected status %d, got %d", http.StatusForbidden, rec.Code)
	}
}

func TestRequireAdmin_StaleHintWithoutSession_Returns401(t *testing.T) {
	e := newEnv(t)
	cookies := e.signIn(t, "admin@hakbang.com", "s3cret")

	// Keep only the hint cookie; the identity session is gone.
	var hintOnly []*http.Cookie
	for _, c := range cookies {
		if c.Name == admingate.HintKey {
			hintOnly = append(hintOnly, c)
		}
	}
	if len(hintOnly) != 1 {
		t.Fatalf("expected a hint cookie after admin login, got %v", cookies)
	}

	rec := httptest.NewRecorder()
	protected(e).ServeHTTP(rec, withCookies(httptest.NewRequest("GET", "/api/suggestions", nil), hintOnly))
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("expected status %d, got %d", http.StatusUnauthorized, rec.Code)
	}
}

func TestRequireAdmin_RevokedSession_Returns401(t *testing.T) {
	e := newEnv(t)
	cookies := e.signIn(t, "admin@hakbang.com", "s3cret")
	if e.sessions.Len() != 1 {
		t.Fatalf("sessions: got %d, want 1", e.sessions.Len())
	}
	if _, err := e.sessions.DeleteExpired(context.Background(), time.Now().Add(2*time.Hour)); err != nil {
		t.Fatalf("DeleteExpired: %v", err)
	}

	rec := httptest.NewRecorder()
	protected(e).ServeHTTP(rec, withCookies(httptest.NewRequest("GET", "/api/suggestions", nil), cookies))
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("expected status %d, got %d", http.StatusUnauthorized, rec.Code)
	}
}

func TestLogout_ClearsSessionCookie(t *testing.T) {
	e := newEnv(t)
	cookies := e.signIn(t, "admin@hakbang.com", "s3cret")

	h := e.gk.LoadCapability(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := auth.Gate(r).Logout(r.Context()); err != nil {
			t.Errorf("Logout: %v", err)
		}
		w.WriteHeader(http.StatusNoContent)
	}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, withCookies(httptest.NewRequest("POST", "/api/admin/logout", nil), cookies))

	if e.sessions.Len() != 0 {
		t.Errorf("identity session not revoked")
	}
	var cleared bool
	for _, c := range rec.Result().Cookies() {
		if c.Name == "test-session" && c.MaxAge < 0 {
			cleared = true
		}
	}
	if !cleared {
		t.Error("session cookie was not cleared")
	}
}

func TestCurrentCapability_WithoutMiddleware_IsGuest(t *testing.T) {
	r := httptest.NewRequest("GET", "/", nil)
	if got := auth.CurrentCapability(r); got != admingate.Guest {
		t.Errorf("got %q, want guest", got)
	}
	if auth.Gate(r) != nil {
		t.Error("expected no gate outside the middleware")
	}
}

func TestWithTestCapability(t *testing.T) {
	r := auth.WithTestCapability(httptest.NewRequest("GET", "/", nil), admingate.Admin)
	rec := httptest.NewRecorder()
	auth.RequireAdmin(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})).ServeHTTP(rec, r)
	if rec.Code != http.StatusOK {
		t.Errorf("expected status %d, got %d", http.StatusOK, rec.Code)
	}
}

// slowSessions stalls session lookups until the caller's context ends.
type slowSessions struct {
	*testutil.MemSessions
	stall       bool
	sawDeadline bool
}

func (s *slowSessions) GetByToken(ctx context.Context, token string) (models.IdentitySession, error) {
	_, s.sawDeadline = ctx.Deadline()
	if s.stall {
		<-ctx.Done()
		return models.IdentitySession{}, ctx.Err()
	}
	return s.MemSessions.GetByToken(ctx, token)
}

func TestLoadCapability_BoundsSessionLookup(t *testing.T) {
	t.Setenv(timeouts.EnvPrefix+"SHORT", "50ms")
	timeouts.ConfigureFromEnv()
	t.Cleanup(func() {
		os.Setenv(timeouts.EnvPrefix+"SHORT", "5s")
		timeouts.ConfigureFromEnv()
	})

	sessions := &slowSessions{MemSessions: testutil.NewMemSessions()}
	accounts := testutil.NewMemAccounts(testutil.NewAccount(t, "admin@hakbang.com", "s3cret"))
	e := &env{sm: newTestSessionManager(t), sessions: sessions.MemSessions, accounts: accounts}
	e.svc = identity.NewService(accounts, sessions, time.Hour, nil)
	e.gk = auth.NewGatekeeper(e.sm, e.svc, "admin@hakbang.com", []byte(testKey), nil)

	cookies := e.signIn(t, "admin@hakbang.com", "s3cret")

	rec := httptest.NewRecorder()
	protected(e).ServeHTTP(rec, withCookies(httptest.NewRequest("GET", "/api/suggestions", nil), cookies))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, rec.Code)
	}
	if !sessions.sawDeadline {
		t.Error("session lookup ran without a deadline")
	}

	sessions.stall = true
	start := time.Now()
	rec = httptest.NewRecorder()
	protected(e).ServeHTTP(rec, withCookies(httptest.NewRequest("GET", "/api/suggestions", nil), cookies))
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("stalled lookup: expected status %d, got %d", http.StatusUnauthorized, rec.Code)
	}
	if elapsed := time.Since(start); elapsed > 2*time.Second {
		t.Errorf("stalled lookup held the request for %v", elapsed)
	}
}
