// internal/domain/models/identitysession.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// IdentitySession is a signed-in session issued by the identity provider.
// The Token is the only value handed to the client.
type IdentitySession struct {
	ID        primitive.ObjectID `bson:"_id,omitempty"`
	Token     string             `bson:"token"`
	UserID    primitive.ObjectID `bson:"user_id"`
	Email     string             `bson:"email"`
	IP        string             `bson:"ip,omitempty"`
	CreatedAt time.Time          `bson:"created_at"`
	ExpiresAt time.Time          `bson:"expires_at"`
}

// Expired reports whether the session is past its expiry at the given time.
func (s IdentitySession) Expired(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}
