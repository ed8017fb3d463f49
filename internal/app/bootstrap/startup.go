// internal/app/bootstrap/startup.go
package bootstrap

import (
	"context"
	"errors"
	"sync"

	"github.com/dalemusser/waffle/config"
	sessionstore "github.com/hakbangquest/hakbangweb/internal/app/store/sessions"
	userstore "github.com/hakbangquest/hakbangweb/internal/app/store/users"
	"github.com/hakbangquest/hakbangweb/internal/app/system/identity"
	"github.com/hakbangquest/hakbangweb/internal/app/system/timeouts"
	"github.com/hakbangquest/hakbangweb/internal/app/system/workers"
	"go.uber.org/zap"
)

// stoppers collects the background pieces Shutdown must stop.
type stoppers struct {
	mu  sync.Mutex
	fns []func()
}

func (s *stoppers) addStopper(fn func()) {
	s.mu.Lock()
	s.fns = append(s.fns, fn)
	s.mu.Unlock()
}

func (s *stoppers) stopAll() {
	s.mu.Lock()
	fns := s.fns
	s.fns = nil
	s.mu.Unlock()
	for i := len(fns) - 1; i >= 0; i-- {
		fns[i]()
	}
}

var background stoppers

// Startup runs one-time application initialization after DB connections and
// schema setup are complete, but before the HTTP handler is built. It applies
// timeout overrides, makes sure the administrator account exists and starts
// the identity session cleanup worker.
func Startup(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	if n := timeouts.ConfigureFromEnv(); n > 0 {
		logger.Info("timeouts overridden from environment", zap.Int("count", n))
	}

	if err := ensureAdmin(ctx, userstore.New(deps.MongoDatabase), appCfg.AdminEmail, appCfg.AdminPassword, logger); err != nil {
		return err
	}

	if appCfg.SessionCleanupInterval > 0 {
		cleanup := workers.NewSessionCleanup(sessionstore.New(deps.MongoDatabase), logger, appCfg.SessionCleanupInterval)
		cleanup.Start()
		background.addStopper(cleanup.Stop)
	}
	return nil
}

// ensureAdmin creates the administrator account when a bootstrap password is
// configured and no account exists yet. An existing account is never
// modified.
func ensureAdmin(ctx context.Context, users *userstore.Store, email, password string, logger *zap.Logger) error {
	if password == "" {
		logger.Info("admin_password not set; skipping administrator bootstrap")
		return nil
	}
	if len(password) < 8 {
		return errors.New("admin_password must be at least 8 characters")
	}

	ctx, cancel := context.WithTimeout(ctx, timeouts.Medium())
	defer cancel()

	_, created, err := users.EnsureAdmin(ctx, email, func() (string, error) {
		return identity.HashPassword(password)
	})
	if err != nil {
		logger.Error("administrator bootstrap failed", zap.String("email", email), zap.Error(err))
		return err
	}
	if created {
		logger.Info("created administrator account", zap.String("email", email))
	} else {
		logger.Info("administrator account already present", zap.String("email", email))
	}
	return nil
}
