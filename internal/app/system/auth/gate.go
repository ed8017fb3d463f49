package auth

import (
	"context"
	"net/http"

	"github.com/gorilla/securecookie"
	"github.com/hakbangquest/hakbangweb/internal/app/admingate"
	"github.com/hakbangquest/hakbangweb/internal/app/system/identity"
	"github.com/hakbangquest/hakbangweb/internal/app/system/ratelimit"
	"github.com/hakbangquest/hakbangweb/internal/app/system/timeouts"
	"go.uber.org/zap"
)

// Gatekeeper builds one admin gate per request.
type Gatekeeper struct {
	sm         *SessionManager
	svc        *identity.Service
	adminEmail string
	hints      *securecookie.SecureCookie
	log        *zap.Logger
}

// NewGatekeeper wires the session manager and identity service together.
// hashKey signs the admin hint cookie.
func NewGatekeeper(sm *SessionManager, svc *identity.Service, adminEmail string, hashKey []byte, logger *zap.Logger) *Gatekeeper {
	if logger == nil {
		logger = zap.NewNop()
	}
	codec := securecookie.New(hashKey, nil)
	codec.MaxAge(int(hintMaxAge.Seconds()))
	return &Gatekeeper{sm: sm, svc: svc, adminEmail: adminEmail, hints: codec, log: logger}
}

// AdminEmail returns the configured administrator address.
func (gk *Gatekeeper) AdminEmail() string { return gk.adminEmail }

type ctxKey int

const stateKey ctxKey = iota

// requestState is what LoadCapability stores in the request context.
type requestState struct {
	gate   *admingate.Gate
	client *identity.Client
	// fixed is set by tests that inject a capability directly.
	fixed *admingate.Capability
}

// LoadCapability starts a gate for the request, lets it settle against the
// identity provider and closes it when the handler returns. Session
// resolution is bounded by timeouts.Short; a lookup that runs past it
// leaves the caller a guest.
func (gk *Gatekeeper) LoadCapability(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		client := identity.NewClient(gk.svc, gk.sm.Tokens(w, r), ratelimit.ClientIP(r))
		hints := newCookieHints(gk.hints, w, r, gk.sm.Secure(), gk.log)
		gate := admingate.New(client, hints, gk.adminEmail, gk.log)
		defer gate.Close()

		startCtx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), gk.log, "resolve admin session")
		gate.Start(startCtx)
		cancel()

		ctx := context.WithValue(r.Context(), stateKey, &requestState{gate: gate, client: client})
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func stateFrom(r *http.Request) *requestState {
	st, _ := r.Context().Value(stateKey).(*requestState)
	return st
}

// Gate returns the request's admin gate, or nil outside LoadCapability.
func Gate(r *http.Request) *admingate.Gate {
	if st := stateFrom(r); st != nil {
		return st.gate
	}
	return nil
}

// CurrentCapability returns the settled capability for the request.
// Requests that did not pass through LoadCapability are guests.
func CurrentCapability(r *http.Request) admingate.Capability {
	st := stateFrom(r)
	switch {
	case st == nil:
		return admingate.Guest
	case st.fixed != nil:
		return *st.fixed
	case st.gate != nil:
		return st.gate.Current()
	}
	return admingate.Guest
}

// CurrentIdentity returns the signed-in identity, if any.
func CurrentIdentity(r *http.Request) (*admingate.Identity, bool) {
	st := stateFrom(r)
	if st == nil {
		return nil, false
	}
	if st.fixed != nil {
		if *st.fixed == admingate.Admin {
			return &admingate.Identity{Email: "test-admin"}, true
		}
		return nil, false
	}
	if st.client == nil {
		return nil, false
	}
	id, _ := st.client.Current()
	return id, id != nil
}

// RequireAdmin lets only the administrator through. Callers with no session
// get 401; callers signed in as anyone else get 403.
func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if CurrentCapability(r) == admingate.Admin {
			next.ServeHTTP(w, r)
			return
		}
		if _, signedIn := CurrentIdentity(r); signedIn {
			writeError(w, http.StatusForbidden, "forbidden", "Administrator access is required.")
			return
		}
		writeError(w, http.StatusUnauthorized, "unauthorized", "Sign in as the administrator to continue.")
	})
}

// WithTestCapability injects a fixed capability, bypassing LoadCapability.
// For handler tests only.
func WithTestCapability(r *http.Request, c admingate.Capability) *http.Request {
	ctx := context.WithValue(r.Context(), stateKey, &requestState{fixed: &c})
	return r.WithContext(ctx)
}
