package sessions_test

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/hakbangquest/hakbangweb/internal/app/store/sessions"
	"github.com/hakbangquest/hakbangweb/internal/domain/models"
	"github.com/hakbangquest/hakbangweb/internal/testutil"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

func newSession(userID primitive.ObjectID, expiresAt time.Time) models.IdentitySession {
	now := time.Now().UTC().Truncate(time.Millisecond)
	return models.IdentitySession{
		Token:     uuid.NewString(),
		UserID:    userID,
		Email:     "admin@hakbang.com",
		IP:        "192.168.1.1",
		CreatedAt: now,
		ExpiresAt: expiresAt.UTC().Truncate(time.Millisecond),
	}
}

func TestStore_CreateAndGetByToken(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := sessions.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if err := store.EnsureIndexes(ctx); err != nil {
		t.Fatalf("EnsureIndexes: %v", err)
	}

	userID := primitive.NewObjectID()
	want := newSession(userID, time.Now().Add(time.Hour))
	if err := store.Create(ctx, want); err != nil {
		t.Fatalf("Create: %v", err)
	}

	got, err := store.GetByToken(ctx, want.Token)
	if err != nil {
		t.Fatalf("GetByToken: %v", err)
	}
	if got.UserID != userID || got.Email != want.Email || got.IP != want.IP {
		t.Errorf("got %+v, want %+v", got, want)
	}
	if !got.ExpiresAt.Equal(want.ExpiresAt) {
		t.Errorf("ExpiresAt: got %v, want %v", got.ExpiresAt, want.ExpiresAt)
	}
}

func TestStore_GetByToken_NotFound(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := sessions.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	_, err := store.GetByToken(ctx, "missing")
	if !errors.Is(err, mongo.ErrNoDocuments) {
		t.Errorf("expected ErrNoDocuments, got %v", err)
	}
}

func TestStore_DeleteByToken(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := sessions.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	sess := newSession(primitive.NewObjectID(), time.Now().Add(time.Hour))
	if err := store.Create(ctx, sess); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := store.DeleteByToken(ctx, sess.Token); err != nil {
		t.Fatalf("DeleteByToken: %v", err)
	}
	if _, err := store.GetByToken(ctx, sess.Token); !errors.Is(err, mongo.ErrNoDocuments) {
		t.Errorf("session still present: %v", err)
	}
	if err := store.DeleteByToken(ctx, sess.Token); err != nil {
		t.Errorf("deleting twice: %v", err)
	}
}

func TestStore_DeleteExpired(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := sessions.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	now := time.Now().UTC()
	userID := primitive.NewObjectID()
	live := newSession(userID, now.Add(time.Hour))
	for _, s := range []models.IdentitySession{
		newSession(userID, now.Add(-time.Hour)),
		newSession(userID, now.Add(-time.Minute)),
		live,
	} {
		if err := store.Create(ctx, s); err != nil {
			t.Fatalf("Create: %v", err)
		}
	}

	n, err := store.DeleteExpired(ctx, now)
	if err != nil {
		t.Fatalf("DeleteExpired: %v", err)
	}
	if n != 2 {
		t.Errorf("deleted %d, want 2", n)
	}
	active, err := store.CountActive(ctx, now)
	if err != nil {
		t.Fatalf("CountActive: %v", err)
	}
	if active != 1 {
		t.Errorf("active: got %d, want 1", active)
	}
	if _, err := store.GetByToken(ctx, live.Token); err != nil {
		t.Errorf("live session removed: %v", err)
	}
}

func TestStore_DeleteByUser(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := sessions.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	userID := primitive.NewObjectID()
	other := newSession(primitive.NewObjectID(), time.Now().Add(time.Hour))
	for _, s := range []models.IdentitySession{
		newSession(userID, time.Now().Add(time.Hour)),
		newSession(userID, time.Now().Add(time.Hour)),
		other,
	} {
		if err := store.Create(ctx, s); err != nil {
			t.Fatalf("Create: %v", err)
		}
	}

	n, err := store.DeleteByUser(ctx, userID)
	if err != nil {
		t.Fatalf("DeleteByUser: %v", err)
	}
	if n != 2 {
		t.Errorf("deleted %d, want 2", n)
	}
	if _, err := store.GetByToken(ctx, other.Token); err != nil {
		t.Errorf("other user's session removed: %v", err)
	}
}
