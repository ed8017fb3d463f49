// internal/domain/models/user.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// User is an account known to the identity provider. Holding an account
// only authenticates a caller; admin capability is decided separately by
// comparing Email with the configured administrator address.
type User struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Email        string             `bson:"email" json:"email"`
	EmailCI      string             `bson:"email_ci" json:"-"` // folded for lookups
	PasswordHash string             `bson:"password_hash" json:"-"`
	Status       string             `bson:"status" json:"status"` // active | disabled

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}

// Account statuses.
const (
	UserStatusActive   = "active"
	UserStatusDisabled = "disabled"
)
