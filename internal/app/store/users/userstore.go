package userstore

import (
	"context"
	"errors"
	"time"

	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"github.com/dalemusser/waffle/pantry/text"
	"github.com/hakbangquest/hakbangweb/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// ErrDuplicateEmail is returned when attempting to create an account with an
// email that already exists (compared case-insensitively).
var ErrDuplicateEmail = errors.New("an account with this email already exists")

var errEmptyHash = errors.New("password hash is required")

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("users")}
}

// GetByID loads an account by ObjectID. Returns mongo.ErrNoDocuments if not found.
func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (models.User, error) {
	var u models.User
	err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&u)
	return u, err
}

// GetByEmail looks up an account by case-insensitive email. Returns
// mongo.ErrNoDocuments if not found.
func (s *Store) GetByEmail(ctx context.Context, email string) (models.User, error) {
	var u models.User
	err := s.c.FindOne(ctx, bson.M{"email_ci": text.Fold(email)}).Decode(&u)
	return u, err
}

// Create inserts a new active account. The email is stored as given; its
// folded form backs lookups and uniqueness.
func (s *Store) Create(ctx context.Context, email, passwordHash string) (models.User, error) {
	if passwordHash == "" {
		return models.User{}, errEmptyHash
	}
	now := time.Now().UTC()
	u := models.User{
		ID:           primitive.NewObjectID(),
		Email:        email,
		EmailCI:      text.Fold(email),
		PasswordHash: passwordHash,
		Status:       models.UserStatusActive,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if _, err := s.c.InsertOne(ctx, u); err != nil {
		if wafflemongo.IsDup(err) {
			return models.User{}, ErrDuplicateEmail
		}
		return models.User{}, err
	}
	return u, nil
}

// EnsureAdmin makes sure an account exists for email. A missing account is
// created with the hash produced by hash. An existing account is left
// untouched. created reports whether an insert happened.
func (s *Store) EnsureAdmin(ctx context.Context, email string, hash func() (string, error)) (u models.User, created bool, err error) {
	u, err = s.GetByEmail(ctx, email)
	if err == nil {
		return u, false, nil
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return models.User{}, false, err
	}

	h, err := hash()
	if err != nil {
		return models.User{}, false, err
	}
	u, err = s.Create(ctx, email, h)
	if errors.Is(err, ErrDuplicateEmail) {
		// Another instance created it between our read and insert.
		u, err = s.GetByEmail(ctx, email)
		return u, false, err
	}
	if err != nil {
		return models.User{}, false, err
	}
	return u, true, nil
}
