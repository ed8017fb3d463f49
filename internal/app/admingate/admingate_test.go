package admingate_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/hakbangquest/hakbangweb/internal/app/admingate"
	"github.com/hakbangquest/hakbangweb/internal/testutil"
)

const (
	adminEmail = "admin@hakbang.com"
	adminPass  = "correct-horse"
)

func newGate(t *testing.T, idp admingate.IdentityProvider, hints admingate.HintStore) *admingate.Gate {
	t.Helper()
	g := admingate.New(idp, hints, adminEmail, nil)
	t.Cleanup(g.Close)
	return g
}

func hint(t *testing.T, h *testutil.MemHints) string {
	t.Helper()
	v, ok := h.Get(admingate.HintKey)
	if !ok {
		return "<unset>"
	}
	return v
}

func TestLogin_AdminCredentials_GrantsAdmin(t *testing.T) {
	idp := testutil.NewFakeIdentity(adminEmail, adminPass)
	hints := testutil.NewMemHints()
	g := newGate(t, idp, hints)
	g.Start(context.Background())

	c, err := g.Login(context.Background(), adminEmail, adminPass)
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if c != admingate.Admin {
		t.Errorf("capability: got %q, want admin", c)
	}
	if g.Current() != admingate.Admin {
		t.Errorf("Current: got %q, want admin", g.Current())
	}
	if got := hint(t, hints); got != "true" {
		t.Errorf("hint: got %q, want true", got)
	}
}

func TestLogin_NonAdminAccount_NotAuthorized(t *testing.T) {
	idp := testutil.NewFakeIdentity("visitor@example.com", "pw")
	hints := testutil.NewMemHints()
	g := newGate(t, idp, hints)
	g.Start(context.Background())

	c, err := g.Login(context.Background(), "visitor@example.com", "pw")
	if !errors.Is(err, admingate.ErrNotAuthorized) {
		t.Fatalf("expected ErrNotAuthorized, got %v", err)
	}
	if errors.Is(err, admingate.ErrAuthentication) {
		t.Error("not-authorized must be distinct from authentication failure")
	}
	if c != admingate.Guest || g.Current() != admingate.Guest {
		t.Errorf("capability: got %q / %q, want guest", c, g.Current())
	}
	if got := hint(t, hints); got != "false" {
		t.Errorf("hint: got %q, want false", got)
	}
}

func TestLogin_AdminEmailIsCaseSensitive(t *testing.T) {
	idp := testutil.NewFakeIdentity("Admin@Hakbang.com", adminPass)
	g := newGate(t, idp, testutil.NewMemHints())
	g.Start(context.Background())

	_, err := g.Login(context.Background(), "Admin@Hakbang.com", adminPass)
	if !errors.Is(err, admingate.ErrNotAuthorized) {
		t.Fatalf("expected ErrNotAuthorized for differently cased email, got %v", err)
	}
	if g.Current() != admingate.Guest {
		t.Errorf("Current: got %q, want guest", g.Current())
	}
}

func TestLogin_WrongPassword_AuthenticationError(t *testing.T) {
	idp := testutil.NewFakeIdentity(adminEmail, adminPass)
	hints := testutil.NewMemHints()
	g := newGate(t, idp, hints)
	g.Start(context.Background())

	c, err := g.Login(context.Background(), adminEmail, "nope")
	if !errors.Is(err, admingate.ErrAuthentication) {
		t.Fatalf("expected ErrAuthentication, got %v", err)
	}
	if c != admingate.Guest {
		t.Errorf("capability: got %q, want guest", c)
	}
}

func TestLogin_ProviderDown_WrapsError(t *testing.T) {
	idp := testutil.NewFakeIdentity(adminEmail, adminPass)
	idp.Down = true
	g := newGate(t, idp, testutil.NewMemHints())
	g.Start(context.Background())

	_, err := g.Login(context.Background(), adminEmail, adminPass)
	if !errors.Is(err, testutil.ErrProviderDown) {
		t.Fatalf("expected provider error, got %v", err)
	}
	if errors.Is(err, admingate.ErrAuthentication) || errors.Is(err, admingate.ErrNotAuthorized) {
		t.Errorf("provider outage misreported as %v", err)
	}
}

func TestLogout_ReturnsToGuestAndClearsHint(t *testing.T) {
	idp := testutil.NewFakeIdentity(adminEmail, adminPass)
	hints := testutil.NewMemHints()
	g := newGate(t, idp, hints)
	g.Start(context.Background())

	if _, err := g.Login(context.Background(), adminEmail, adminPass); err != nil {
		t.Fatalf("Login: %v", err)
	}
	if err := g.Logout(context.Background()); err != nil {
		t.Fatalf("Logout: %v", err)
	}
	if g.Current() != admingate.Guest {
		t.Errorf("Current after logout: got %q, want guest", g.Current())
	}
	if got := hint(t, hints); got == "true" {
		t.Errorf("hint still admin after logout")
	}
}

func TestLogout_WhenSignedOut_IsNoop(t *testing.T) {
	idp := testutil.NewFakeIdentity()
	g := newGate(t, idp, testutil.NewMemHints())
	g.Start(context.Background())

	if err := g.Logout(context.Background()); err != nil {
		t.Fatalf("Logout: %v", err)
	}
	if g.Current() != admingate.Guest {
		t.Errorf("Current: got %q, want guest", g.Current())
	}
}

func TestLogout_SignOutFails_StillGuest(t *testing.T) {
	idp := testutil.NewFakeIdentity(adminEmail, adminPass)
	hints := testutil.NewMemHints()
	g := newGate(t, idp, hints)
	g.Start(context.Background())
	if _, err := g.Login(context.Background(), adminEmail, adminPass); err != nil {
		t.Fatalf("Login: %v", err)
	}

	boom := errors.New("network down")
	idp.SignOutErr = boom
	err := g.Logout(context.Background())
	if !errors.Is(err, boom) {
		t.Fatalf("expected sign-out error to surface, got %v", err)
	}
	if g.Current() != admingate.Guest {
		t.Errorf("Current: got %q, want guest", g.Current())
	}
	if _, ok := hints.Get(admingate.HintKey); ok {
		t.Errorf("hint should be cleared")
	}
}

func TestStart_StaleAdminHint_ConvergesToGuest(t *testing.T) {
	idp := testutil.NewFakeIdentity()
	idp.Deferred = true
	hints := testutil.NewMemHints(admingate.HintKey, "true")
	g := newGate(t, idp, hints)
	g.Start(context.Background())

	if g.Current() != admingate.Admin {
		t.Fatalf("hint should apply before the provider answers, got %q", g.Current())
	}
	if g.Resolved() {
		t.Fatal("gate should not be resolved before the provider answers")
	}

	idp.Emit(nil)

	if g.Current() != admingate.Guest {
		t.Errorf("Current: got %q, want guest", g.Current())
	}
	if !g.Resolved() {
		t.Error("gate should be resolved")
	}
	if got := hint(t, hints); got != "false" {
		t.Errorf("hint: got %q, want false", got)
	}
}

func TestStart_NoHint_AdminSession_BecomesAdmin(t *testing.T) {
	idp := testutil.NewFakeIdentity()
	idp.Emit(&admingate.Identity{UserID: "u1", Email: adminEmail})
	hints := testutil.NewMemHints()
	g := newGate(t, idp, hints)

	var (
		mu   sync.Mutex
		seen []admingate.Capability
	)
	g.Watch(func(c admingate.Capability) {
		mu.Lock()
		seen = append(seen, c)
		mu.Unlock()
	})
	g.Start(context.Background())

	if g.Current() != admingate.Admin {
		t.Errorf("Current: got %q, want admin", g.Current())
	}
	mu.Lock()
	defer mu.Unlock()
	if len(seen) != 1 || seen[0] != admingate.Admin {
		t.Errorf("watch notifications: got %v, want [admin]", seen)
	}
}

func TestWatch_AtMostTwoUpdatesPerResolution(t *testing.T) {
	idp := testutil.NewFakeIdentity()
	idp.Emit(&admingate.Identity{UserID: "u2", Email: "someone@example.com"})
	hints := testutil.NewMemHints(admingate.HintKey, "true")
	g := newGate(t, idp, hints)

	var count int
	g.Watch(func(admingate.Capability) { count++ })
	g.Start(context.Background())

	if count > 2 {
		t.Errorf("got %d capability updates, want at most 2", count)
	}
	if g.Current() != admingate.Guest {
		t.Errorf("Current: got %q, want guest", g.Current())
	}
}

func TestSessionChange_FollowsProvider(t *testing.T) {
	idp := testutil.NewFakeIdentity()
	g := newGate(t, idp, testutil.NewMemHints())
	g.Start(context.Background())

	idp.Emit(&admingate.Identity{UserID: "u1", Email: adminEmail})
	if g.Current() != admingate.Admin {
		t.Fatalf("Current: got %q, want admin", g.Current())
	}
	idp.Emit(nil)
	if g.Current() != admingate.Guest {
		t.Fatalf("Current: got %q, want guest", g.Current())
	}
}

func TestClose_IgnoresLateCallbacks(t *testing.T) {
	idp := testutil.NewFakeIdentity()
	hints := testutil.NewMemHints()
	g := admingate.New(idp, hints, adminEmail, nil)
	g.Start(context.Background())

	if idp.Subscribers() != 1 {
		t.Fatalf("subscribers: got %d, want 1", idp.Subscribers())
	}
	g.Close()
	if idp.Subscribers() != 0 {
		t.Errorf("subscribers after Close: got %d, want 0", idp.Subscribers())
	}

	before := hint(t, hints)
	idp.Emit(&admingate.Identity{UserID: "u1", Email: adminEmail})
	if g.Current() != admingate.Guest {
		t.Errorf("closed gate changed capability to %q", g.Current())
	}
	if got := hint(t, hints); got != before {
		t.Errorf("closed gate wrote hint %q", got)
	}

	// Close is idempotent and Start after Close does nothing.
	g.Close()
	g.Start(context.Background())
	if idp.Subscribers() != 0 {
		t.Errorf("Start after Close subscribed")
	}
}

func TestHintWriteFailure_DoesNotBlockCapability(t *testing.T) {
	idp := testutil.NewFakeIdentity(adminEmail, adminPass)
	hints := testutil.NewMemHints()
	hints.SetErr = errors.New("storage full")
	g := newGate(t, idp, hints)
	g.Start(context.Background())

	c, err := g.Login(context.Background(), adminEmail, adminPass)
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if c != admingate.Admin {
		t.Errorf("capability: got %q, want admin", c)
	}
}
