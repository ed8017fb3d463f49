// Package admingate answers "is the current caller the administrator".
//
// Capability comes from two sources. A persisted hint, written after every
// resolution, is applied as soon as the gate starts so the admin view does not
// flash the guest view. The identity provider's session callback is the
// authority: once it fires it overwrites the hint, and it keeps doing so on
// every session change until the gate is closed.
//
// Authentication alone never grants admin. The signed-in identity's email must
// equal the configured administrator address exactly (case-sensitive).
package admingate

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"
)

// Capability is what the caller may do.
type Capability string

const (
	Guest Capability = "guest"
	Admin Capability = "admin"
)

// HintKey is the key under which the cached capability is persisted as
// "true" or "false".
const HintKey = "hakbang_is_admin"

var (
	// ErrAuthentication means the identity provider rejected the credentials.
	ErrAuthentication = errors.New("admingate: invalid credentials")
	// ErrNotAuthorized means the credentials were valid but the identity is
	// not the administrator. The provider-level session may still exist.
	ErrNotAuthorized = errors.New("admingate: not authorized")
)

// Identity is what the identity provider reports for a signed-in caller.
type Identity struct {
	UserID string
	Email  string
}

// IdentityProvider is the hosted authentication service as seen by the gate.
type IdentityProvider interface {
	// SignInWithPassword returns an error matching ErrAuthentication for
	// bad credentials. Other errors mean the provider could not be reached.
	SignInWithPassword(ctx context.Context, email, password string) (Identity, error)
	// SignOut ends the current session. Signing out with no session is a no-op.
	SignOut(ctx context.Context) error
	// OnSessionChange calls fn once with the current identity (nil when
	// signed out) and again on every change. The returned func unsubscribes.
	OnSessionChange(ctx context.Context, fn func(*Identity)) (unsubscribe func())
}

// HintStore is plain key-value persistence local to the caller.
type HintStore interface {
	Get(key string) (string, bool)
	Set(key, value string) error
	Delete(key string) error
}

// Gate merges the cached hint and the live session into one capability.
type Gate struct {
	idp        IdentityProvider
	hints      HintStore
	adminEmail string
	log        *zap.Logger

	mu          sync.Mutex
	capability  Capability
	resolved    bool
	started     bool
	closed      bool
	unsubscribe func()
	watchers    map[int]func(Capability)
	nextWatch   int
}

// New returns a gate that starts out as Guest.
func New(idp IdentityProvider, hints HintStore, adminEmail string, logger *zap.Logger) *Gate {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Gate{
		idp:        idp,
		hints:      hints,
		adminEmail: adminEmail,
		log:        logger,
		capability: Guest,
		watchers:   make(map[int]func(Capability)),
	}
}

// Start applies the cached hint and subscribes to the identity provider.
// Calling Start more than once has no further effect.
func (g *Gate) Start(ctx context.Context) {
	g.mu.Lock()
	if g.started || g.closed {
		g.mu.Unlock()
		return
	}
	g.started = true
	hinted := Guest
	if v, ok := g.hints.Get(HintKey); ok && v == "true" {
		hinted = Admin
	}
	notify := g.setLocked(hinted)
	g.mu.Unlock()
	notify()

	// The provider may call back synchronously; the lock must be free.
	unsub := g.idp.OnSessionChange(ctx, g.onSession)

	g.mu.Lock()
	if g.closed {
		g.mu.Unlock()
		unsub()
		return
	}
	g.unsubscribe = unsub
	g.mu.Unlock()
}

// Current returns the capability as currently known.
func (g *Gate) Current() Capability {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.capability
}

// Resolved reports whether the identity provider has answered at least once.
// Until then Current reflects only the cached hint.
func (g *Gate) Resolved() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.resolved
}

// Watch registers fn to be called whenever the capability changes.
func (g *Gate) Watch(fn func(Capability)) (cancel func()) {
	g.mu.Lock()
	id := g.nextWatch
	g.nextWatch++
	g.watchers[id] = fn
	g.mu.Unlock()
	return func() {
		g.mu.Lock()
		delete(g.watchers, id)
		g.mu.Unlock()
	}
}

// Login signs in through the identity provider and returns Admin only when
// the identity is the administrator.
func (g *Gate) Login(ctx context.Context, email, password string) (Capability, error) {
	id, err := g.idp.SignInWithPassword(ctx, email, password)
	if err != nil {
		if errors.Is(err, ErrAuthentication) {
			return g.Current(), err
		}
		return g.Current(), fmt.Errorf("admingate: sign in: %w", err)
	}

	g.onSession(&id)
	if id.Email != g.adminEmail {
		return Guest, fmt.Errorf("%w: %s", ErrNotAuthorized, id.Email)
	}
	return Admin, nil
}

// Logout signs out and clears the cached hint. It is safe to call when
// already signed out.
func (g *Gate) Logout(ctx context.Context) error {
	err := g.idp.SignOut(ctx)
	if derr := g.hints.Delete(HintKey); derr != nil {
		g.log.Warn("clear admin hint failed", zap.Error(derr))
	}

	g.mu.Lock()
	notify := func() {}
	if !g.closed {
		g.resolved = true
		notify = g.setLocked(Guest)
	}
	g.mu.Unlock()
	notify()

	if err != nil {
		return fmt.Errorf("admingate: sign out: %w", err)
	}
	return nil
}

// Close releases the session subscription. Session callbacks arriving after
// Close are ignored.
func (g *Gate) Close() {
	g.mu.Lock()
	if g.closed {
		g.mu.Unlock()
		return
	}
	g.closed = true
	unsub := g.unsubscribe
	g.unsubscribe = nil
	g.watchers = map[int]func(Capability){}
	g.mu.Unlock()

	if unsub != nil {
		unsub()
	}
}

func (g *Gate) onSession(id *Identity) {
	c := g.capabilityFor(id)

	g.mu.Lock()
	if g.closed {
		g.mu.Unlock()
		return
	}
	g.resolved = true
	notify := g.setLocked(c)
	g.mu.Unlock()

	value := "false"
	if c == Admin {
		value = "true"
	}
	if err := g.hints.Set(HintKey, value); err != nil {
		g.log.Warn("persist admin hint failed", zap.Error(err))
	}
	notify()
}

func (g *Gate) capabilityFor(id *Identity) Capability {
	if id != nil && id.Email == g.adminEmail {
		return Admin
	}
	return Guest
}

// setLocked updates the capability and returns a func that notifies
// watchers outside the lock. Callers must hold g.mu.
func (g *Gate) setLocked(c Capability) func() {
	if g.capability == c {
		return func() {}
	}
	g.capability = c
	fns := make([]func(Capability), 0, len(g.watchers))
	for _, fn := range g.watchers {
		fns = append(fns, fn)
	}
	return func() {
		for _, fn := range fns {
			fn(c)
		}
	}
}
