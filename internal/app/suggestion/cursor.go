package suggestion

import (
	"strconv"
	"time"

	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Cursor is an opaque pagination token. The zero value means "first page".
// Callers must treat it as a string to hand back, never parse it.
type Cursor string

// Position is a location in the (created_at desc, _id desc) ordering.
// Stores page strictly after it.
type Position struct {
	CreatedAt time.Time
	ID        primitive.ObjectID
}

// IsZero reports whether the cursor marks the start of the list.
func (c Cursor) IsZero() bool { return c == "" }

// String returns the token form used on the wire.
func (c Cursor) String() string { return string(c) }

// CursorAt returns the cursor that resumes after the item with the given
// creation time and id.
func CursorAt(createdAt time.Time, id primitive.ObjectID) Cursor {
	key := strconv.FormatInt(createdAt.UTC().UnixMilli(), 10)
	return Cursor(wafflemongo.EncodeCursor(key, id))
}

// Position decodes the cursor. A zero cursor yields (nil, nil).
func (c Cursor) Position() (*Position, error) {
	if c.IsZero() {
		return nil, nil
	}
	dc, ok := wafflemongo.DecodeCursor(string(c))
	if !ok {
		return nil, &ValidationError{Field: "cursor", Reason: "is malformed"}
	}
	ms, err := strconv.ParseInt(dc.CI, 10, 64)
	if err != nil || dc.ID.IsZero() {
		return nil, &ValidationError{Field: "cursor", Reason: "is malformed"}
	}
	return &Position{CreatedAt: time.UnixMilli(ms).UTC(), ID: dc.ID}, nil
}
