// internal/domain/models/suggestion.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Guest submitter descriptor stored on every suggestion. The site collects no
// per-user identity for feedback.
const (
	GuestSubmitterEmail = "guest"
	GuestSubmitterRole  = "user"
)

// Suggestion is a piece of feedback left through the landing site.
// Suggestions are never edited or deleted by the application.
type Suggestion struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name      string             `bson:"name" json:"name"`
	Text      string             `bson:"text" json:"text"`
	CreatedAt time.Time          `bson:"created_at" json:"created_at"` // assigned by the database server
	Submitter Submitter          `bson:"submitter" json:"submitter"`
}

// Submitter describes who left a suggestion.
type Submitter struct {
	Email string `bson:"email" json:"email"`
	Role  string `bson:"role" json:"role"`
}

// GuestSubmitter returns the fixed descriptor used for anonymous submissions.
func GuestSubmitter() Submitter {
	return Submitter{Email: GuestSubmitterEmail, Role: GuestSubmitterRole}
}
