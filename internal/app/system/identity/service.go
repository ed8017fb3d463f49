// Package identity is the email/password identity provider behind the admin
// gate. Accounts and sessions live in the document store; the session token
// is the only thing a client holds.
package identity

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/hakbangquest/hakbangweb/internal/app/admingate"
	"github.com/hakbangquest/hakbangweb/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// DefaultSessionTTL is how long a signed-in session lasts.
const DefaultSessionTTL = 7 * 24 * time.Hour

// Accounts looks up accounts. Missing accounts are reported as
// mongo.ErrNoDocuments.
type Accounts interface {
	GetByEmail(ctx context.Context, email string) (models.User, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (models.User, error)
}

// Sessions persists issued sessions. Missing sessions are reported as
// mongo.ErrNoDocuments.
type Sessions interface {
	Create(ctx context.Context, s models.IdentitySession) error
	GetByToken(ctx context.Context, token string) (models.IdentitySession, error)
	DeleteByToken(ctx context.Context, token string) error
	DeleteByUser(ctx context.Context, userID primitive.ObjectID) (int64, error)
}

// Service verifies credentials and manages sessions.
type Service struct {
	accounts Accounts
	sessions Sessions
	ttl      time.Duration
	log      *zap.Logger

	// now is swapped in tests.
	now func() time.Time
}

// NewService builds a Service. A non-positive ttl uses DefaultSessionTTL.
func NewService(accounts Accounts, sessions Sessions, ttl time.Duration, logger *zap.Logger) *Service {
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		accounts: accounts,
		sessions: sessions,
		ttl:      ttl,
		log:      logger,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// SetClock overrides the time source.
func (s *Service) SetClock(now func() time.Time) { s.now = now }

// HashPassword returns the bcrypt hash stored on an account.
func HashPassword(password string) (string, error) {
	h, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(h), nil
}

var (
	dummyOnce sync.Once
	dummyHash []byte
)

// burnCompare spends the same bcrypt work as a real check so a missing
// account is not distinguishable by timing.
func burnCompare(password string) {
	dummyOnce.Do(func() {
		dummyHash, _ = bcrypt.GenerateFromPassword([]byte("hakbang-placeholder"), bcrypt.DefaultCost)
	})
	_ = bcrypt.CompareHashAndPassword(dummyHash, []byte(password))
}

func invalidCredentials() error {
	return fmt.Errorf("identity: %w", admingate.ErrAuthentication)
}

// Authenticate verifies the email/password pair. Unknown accounts, wrong
// passwords and disabled accounts all fail with admingate.ErrAuthentication.
func (s *Service) Authenticate(ctx context.Context, email, password string) (models.User, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return models.User{}, invalidCredentials()
	}

	u, err := s.accounts.GetByEmail(ctx, email)
	switch {
	case errors.Is(err, mongo.ErrNoDocuments):
		burnCompare(password)
		return models.User{}, invalidCredentials()
	case err != nil:
		return models.User{}, fmt.Errorf("identity: lookup account: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return models.User{}, invalidCredentials()
	}
	if u.Status == models.UserStatusDisabled {
		return models.User{}, invalidCredentials()
	}
	return u, nil
}

// OpenSession issues a new session for u.
func (s *Service) OpenSession(ctx context.Context, u models.User, ip string) (models.IdentitySession, error) {
	now := s.now()
	sess := models.IdentitySession{
		ID:        primitive.NewObjectID(),
		Token:     uuid.NewString(),
		UserID:    u.ID,
		Email:     u.Email,
		IP:        ip,
		CreatedAt: now,
		ExpiresAt: now.Add(s.ttl),
	}
	if err := s.sessions.Create(ctx, sess); err != nil {
		return models.IdentitySession{}, fmt.Errorf("identity: create session: %w", err)
	}
	return sess, nil
}

// Resolve returns the identity behind token, or nil when the token is empty,
// unknown, expired, or its account is gone or disabled.
func (s *Service) Resolve(ctx context.Context, token string) (*admingate.Identity, error) {
	if token == "" {
		return nil, nil
	}
	sess, err := s.sessions.GetByToken(ctx, token)
	switch {
	case errors.Is(err, mongo.ErrNoDocuments):
		return nil, nil
	case err != nil:
		return nil, fmt.Errorf("identity: lookup session: %w", err)
	}
	if sess.Expired(s.now()) {
		if err := s.sessions.DeleteByToken(ctx, token); err != nil {
			s.log.Warn("delete expired session failed", zap.Error(err))
		}
		return nil, nil
	}

	u, err := s.accounts.GetByID(ctx, sess.UserID)
	switch {
	case errors.Is(err, mongo.ErrNoDocuments):
		return nil, nil
	case err != nil:
		return nil, fmt.Errorf("identity: lookup account: %w", err)
	}
	if u.Status == models.UserStatusDisabled {
		// A disabled account keeps no live sessions.
		n, err := s.sessions.DeleteByUser(ctx, u.ID)
		if err != nil {
			s.log.Warn("revoke sessions of disabled account failed", zap.String("user_id", u.ID.Hex()), zap.Error(err))
		} else {
			s.log.Info("revoked sessions of disabled account", zap.String("user_id", u.ID.Hex()), zap.Int64("count", n))
		}
		return nil, nil
	}
	return &admingate.Identity{UserID: u.ID.Hex(), Email: u.Email}, nil
}

// Revoke ends the session behind token. Unknown tokens are not an error.
func (s *Service) Revoke(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	if err := s.sessions.DeleteByToken(ctx, token); err != nil && !errors.Is(err, mongo.ErrNoDocuments) {
		return fmt.Errorf("identity: revoke session: %w", err)
	}
	return nil
}
