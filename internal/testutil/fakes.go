package testutil

import (
	"context"
	"errors"
	"sync"

	"github.com/hakbangquest/hakbangweb/internal/app/admingate"
)

// MemHints is a map-backed admingate.HintStore.
type MemHints struct {
	mu     sync.Mutex
	values map[string]string

	// SetErr, when set, is returned by Set.
	SetErr error
}

// NewMemHints returns a hint store holding the given key/value pairs.
func NewMemHints(kv ...string) *MemHints {
	h := &MemHints{values: make(map[string]string)}
	for i := 0; i+1 < len(kv); i += 2 {
		h.values[kv[i]] = kv[i+1]
	}
	return h
}

func (h *MemHints) Get(key string) (string, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	v, ok := h.values[key]
	return v, ok
}

func (h *MemHints) Set(key, value string) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.SetErr != nil {
		return h.SetErr
	}
	h.values[key] = value
	return nil
}

func (h *MemHints) Delete(key string) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.values, key)
	return nil
}

// MemTokens is an in-memory identity.TokenHolder.
type MemTokens struct {
	mu    sync.Mutex
	token string
}

func (m *MemTokens) Token() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.token
}

func (m *MemTokens) SetToken(token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.token = token
	return nil
}

// ErrProviderDown is returned by FakeIdentity when Down is set.
var ErrProviderDown = errors.New("identity provider unreachable")

// FakeIdentity is a scripted admingate.IdentityProvider. Accounts maps email
// to password. Session changes can be pushed with Emit.
type FakeIdentity struct {
	mu         sync.Mutex
	Accounts   map[string]string
	Down       bool
	SignOutErr error

	// Deferred makes OnSessionChange skip the initial callback so tests can
	// observe the hint-only state and resolve later with Emit.
	Deferred bool

	session  *admingate.Identity
	subs     map[int]func(*admingate.Identity)
	next     int
	SignOuts int
}

// NewFakeIdentity returns a provider with the given email/password pairs.
func NewFakeIdentity(kv ...string) *FakeIdentity {
	f := &FakeIdentity{Accounts: make(map[string]string), subs: make(map[int]func(*admingate.Identity))}
	for i := 0; i+1 < len(kv); i += 2 {
		f.Accounts[kv[i]] = kv[i+1]
	}
	return f
}

func (f *FakeIdentity) SignInWithPassword(ctx context.Context, email, password string) (admingate.Identity, error) {
	f.mu.Lock()
	if f.Down {
		f.mu.Unlock()
		return admingate.Identity{}, ErrProviderDown
	}
	pw, ok := f.Accounts[email]
	if !ok || pw != password {
		f.mu.Unlock()
		return admingate.Identity{}, admingate.ErrAuthentication
	}
	id := admingate.Identity{UserID: "uid-" + email, Email: email}
	f.mu.Unlock()

	f.Emit(&id)
	return id, nil
}

func (f *FakeIdentity) SignOut(ctx context.Context) error {
	f.mu.Lock()
	f.SignOuts++
	err := f.SignOutErr
	f.mu.Unlock()

	f.Emit(nil)
	return err
}

func (f *FakeIdentity) OnSessionChange(ctx context.Context, fn func(*admingate.Identity)) func() {
	f.mu.Lock()
	key := f.next
	f.next++
	f.subs[key] = fn
	current := f.session
	deferred := f.Deferred
	f.mu.Unlock()

	if !deferred {
		fn(current)
	}
	return func() {
		f.mu.Lock()
		delete(f.subs, key)
		f.mu.Unlock()
	}
}

// Emit sets the current session and notifies every subscriber.
func (f *FakeIdentity) Emit(id *admingate.Identity) {
	f.mu.Lock()
	f.session = id
	fns := make([]func(*admingate.Identity), 0, len(f.subs))
	for _, fn := range f.subs {
		fns = append(fns, fn)
	}
	f.mu.Unlock()

	for _, fn := range fns {
		fn(id)
	}
}

// Subscribers returns the number of live subscriptions.
func (f *FakeIdentity) Subscribers() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.subs)
}
