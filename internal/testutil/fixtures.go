package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/dalemusser/waffle/pantry/text"
	"github.com/hakbangquest/hakbangweb/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"golang.org/x/crypto/bcrypt"
)

// Fixtures provides helper methods for creating test data.
type Fixtures struct {
	db *mongo.Database
	t  *testing.T
}

// NewFixtures creates a new Fixtures instance for the given test database.
func NewFixtures(t *testing.T, db *mongo.Database) *Fixtures {
	t.Helper()
	return &Fixtures{db: db, t: t}
}

// DB returns the underlying database for direct access in tests.
func (f *Fixtures) DB() *mongo.Database {
	return f.db
}

// NewAccount builds an active account with a bcrypt-hashed password.
// MinCost keeps tests fast.
func NewAccount(t *testing.T, email, password string) models.User {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	now := time.Now().UTC()
	return models.User{
		ID:           primitive.NewObjectID(),
		Email:        email,
		EmailCI:      text.Fold(email),
		PasswordHash: string(hash),
		Status:       models.UserStatusActive,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

// CreateUser inserts an active account into the users collection.
func (f *Fixtures) CreateUser(ctx context.Context, email, password string) models.User {
	f.t.Helper()

	u := NewAccount(f.t, email, password)
	if _, err := f.db.Collection("users").InsertOne(ctx, u); err != nil {
		f.t.Fatalf("failed to create test user: %v", err)
	}
	return u
}

// CreateDisabledUser inserts a disabled account.
func (f *Fixtures) CreateDisabledUser(ctx context.Context, email, password string) models.User {
	f.t.Helper()

	u := NewAccount(f.t, email, password)
	u.Status = models.UserStatusDisabled
	if _, err := f.db.Collection("users").InsertOne(ctx, u); err != nil {
		f.t.Fatalf("failed to create disabled test user: %v", err)
	}
	return u
}

// CreateSuggestion inserts a suggestion with an explicit timestamp.
func (f *Fixtures) CreateSuggestion(ctx context.Context, name, body string, createdAt time.Time) models.Suggestion {
	f.t.Helper()

	s := models.Suggestion{
		ID:        primitive.NewObjectID(),
		Name:      name,
		Text:      body,
		CreatedAt: createdAt.UTC().Truncate(time.Millisecond),
		Submitter: models.GuestSubmitter(),
	}
	if _, err := f.db.Collection("suggestions").InsertOne(ctx, s); err != nil {
		f.t.Fatalf("failed to create test suggestion: %v", err)
	}
	return s
}
