package identity

import (
	"context"
	"sync"

	"github.com/hakbangquest/hakbangweb/internal/app/admingate"
	"go.uber.org/zap"
)

// TokenHolder is where one caller's session token lives (a cookie session
// for HTTP callers).
type TokenHolder interface {
	Token() string
	SetToken(token string) error
}

// Client binds the Service to one caller and implements
// admingate.IdentityProvider for it.
type Client struct {
	svc    *Service
	tokens TokenHolder
	ip     string
	log    *zap.Logger

	mu       sync.Mutex
	current  *admingate.Identity
	subs     map[int]func(*admingate.Identity)
	nextSub  int
	resolved bool
}

// NewClient returns a Client whose session token is kept in tokens.
// ip is recorded on sessions it opens.
func NewClient(svc *Service, tokens TokenHolder, ip string) *Client {
	return &Client{
		svc:    svc,
		tokens: tokens,
		ip:     ip,
		log:    svc.log,
		subs:   make(map[int]func(*admingate.Identity)),
	}
}

// SignInWithPassword verifies credentials, replaces any existing session and
// notifies subscribers.
func (c *Client) SignInWithPassword(ctx context.Context, email, password string) (admingate.Identity, error) {
	u, err := c.svc.Authenticate(ctx, email, password)
	if err != nil {
		return admingate.Identity{}, err
	}
	sess, err := c.svc.OpenSession(ctx, u, c.ip)
	if err != nil {
		return admingate.Identity{}, err
	}

	if old := c.tokens.Token(); old != "" {
		if err := c.svc.Revoke(ctx, old); err != nil {
			c.log.Warn("revoke replaced session failed", zap.Error(err))
		}
	}
	if err := c.tokens.SetToken(sess.Token); err != nil {
		_ = c.svc.Revoke(ctx, sess.Token)
		return admingate.Identity{}, err
	}

	id := admingate.Identity{UserID: u.ID.Hex(), Email: u.Email}
	c.emit(&id)
	return id, nil
}

// SignOut revokes the held session. With no session it does nothing.
func (c *Client) SignOut(ctx context.Context) error {
	tok := c.tokens.Token()
	if tok == "" {
		c.emit(nil)
		return nil
	}
	err := c.svc.Revoke(ctx, tok)
	if serr := c.tokens.SetToken(""); serr != nil && err == nil {
		err = serr
	}
	c.emit(nil)
	return err
}

// OnSessionChange resolves the held token, calls fn with the result and
// keeps fn subscribed until the returned func is called. A store failure
// during resolution is reported as "no session".
func (c *Client) OnSessionChange(ctx context.Context, fn func(*admingate.Identity)) func() {
	id, err := c.svc.Resolve(ctx, c.tokens.Token())
	if err != nil {
		c.log.Warn("resolve session failed", zap.Error(err))
		id = nil
	}

	c.mu.Lock()
	key := c.nextSub
	c.nextSub++
	c.subs[key] = fn
	c.current = id
	c.resolved = true
	c.mu.Unlock()

	fn(id)

	return func() {
		c.mu.Lock()
		delete(c.subs, key)
		c.mu.Unlock()
	}
}

// Current returns the last identity seen and whether any resolution has
// happened yet.
func (c *Client) Current() (*admingate.Identity, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current, c.resolved
}

func (c *Client) emit(id *admingate.Identity) {
	c.mu.Lock()
	c.current = id
	c.resolved = true
	fns := make([]func(*admingate.Identity), 0, len(c.subs))
	for _, fn := range c.subs {
		fns = append(fns, fn)
	}
	c.mu.Unlock()

	for _, fn := range fns {
		fn(id)
	}
}
