package identity_test

import (
	"testing"
	"time"

	sessionstore "github.com/hakbangquest/hakbangweb/internal/app/store/sessions"
	userstore "github.com/hakbangquest/hakbangweb/internal/app/store/users"
	"github.com/hakbangquest/hakbangweb/internal/app/system/identity"
	"github.com/hakbangquest/hakbangweb/internal/domain/models"
	"github.com/hakbangquest/hakbangweb/internal/testutil"
)

func TestService_Mongo_DisabledAccountLosesSessions(t *testing.T) {
	db := testutil.SetupTestDB(t)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	sessions := sessionstore.New(db)
	svc := identity.NewService(userstore.New(db), sessions, time.Hour, nil)

	u := fixtures.CreateDisabledUser(ctx, "ops@hakbang.com", "pw")
	if u.Status != models.UserStatusDisabled {
		t.Fatalf("fixture status: got %q", u.Status)
	}
	// Sessions issued before the account was disabled.
	s1, err := svc.OpenSession(ctx, u, "")
	if err != nil {
		t.Fatalf("OpenSession: %v", err)
	}
	if _, err := svc.OpenSession(ctx, u, ""); err != nil {
		t.Fatalf("OpenSession: %v", err)
	}

	id, err := svc.Resolve(ctx, s1.Token)
	if err != nil || id != nil {
		t.Fatalf("Resolve: got %v, %v; want no identity", id, err)
	}

	active, err := sessions.CountActive(ctx, time.Now())
	if err != nil {
		t.Fatalf("CountActive: %v", err)
	}
	if active != 0 {
		t.Errorf("active sessions after resolve: got %d, want 0", active)
	}
}

func TestService_Mongo_ActiveAccountResolves(t *testing.T) {
	db := testutil.SetupTestDB(t)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	svc := identity.NewService(userstore.New(db), sessionstore.New(db), time.Hour, nil)
	fixtures.CreateUser(ctx, "admin@hakbang.com", "s3cret")

	u, err := svc.Authenticate(ctx, "ADMIN@hakbang.com", "s3cret")
	if err != nil {
		t.Fatalf("Authenticate: %v", err)
	}
	sess, err := svc.OpenSession(ctx, u, "127.0.0.1")
	if err != nil {
		t.Fatalf("OpenSession: %v", err)
	}
	id, err := svc.Resolve(ctx, sess.Token)
	if err != nil || id == nil || id.Email != "admin@hakbang.com" {
		t.Errorf("Resolve: got %+v, %v", id, err)
	}
}
