// Package sessions persists identity-provider sessions. A session is found
// by its opaque token; the token is what the caller's cookie carries.
package sessions

import (
	"context"
	"time"

	"github.com/hakbangquest/hakbangweb/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Collection holds identity sessions.
const Collection = "identity_sessions"

// Store manages identity sessions.
type Store struct {
	c *mongo.Collection
}

// New creates a new sessions Store.
func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection(Collection)}
}

// EnsureIndexes creates the token lookup index and a TTL index so MongoDB
// also reaps expired sessions on its own schedule.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "token", Value: 1}},
			Options: options.Index().SetName("uniq_identity_sessions_token").SetUnique(true),
		},
		{
			Keys:    bson.D{{Key: "user_id", Value: 1}},
			Options: options.Index().SetName("idx_identity_sessions_user"),
		},
		{
			Keys:    bson.D{{Key: "expires_at", Value: 1}},
			Options: options.Index().SetName("ttl_identity_sessions_expires").SetExpireAfterSeconds(0),
		},
	}
	_, err := s.c.Indexes().CreateMany(ctx, indexes)
	return err
}

// Create stores a new session.
func (s *Store) Create(ctx context.Context, sess models.IdentitySession) error {
	if sess.ID.IsZero() {
		sess.ID = primitive.NewObjectID()
	}
	_, err := s.c.InsertOne(ctx, sess)
	return err
}

// GetByToken loads a session. Returns mongo.ErrNoDocuments if not found.
func (s *Store) GetByToken(ctx context.Context, token string) (models.IdentitySession, error) {
	var sess models.IdentitySession
	err := s.c.FindOne(ctx, bson.M{"token": token}).Decode(&sess)
	return sess, err
}

// DeleteByToken removes one session. Deleting an unknown token is not an error.
func (s *Store) DeleteByToken(ctx context.Context, token string) error {
	_, err := s.c.DeleteOne(ctx, bson.M{"token": token})
	return err
}

// DeleteByUser removes every session belonging to a user.
func (s *Store) DeleteByUser(ctx context.Context, userID primitive.ObjectID) (int64, error) {
	res, err := s.c.DeleteMany(ctx, bson.M{"user_id": userID})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

// DeleteExpired removes sessions whose expiry is at or before now.
func (s *Store) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	res, err := s.c.DeleteMany(ctx, bson.M{"expires_at": bson.M{"$lte": now}})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

// CountActive counts sessions that have not yet expired.
func (s *Store) CountActive(ctx context.Context, now time.Time) (int64, error) {
	return s.c.CountDocuments(ctx, bson.M{"expires_at": bson.M{"$gt": now}})
}
