// internal/app/system/validators/validators.go
package validators

import (
	"context"
	"errors"
	"strings"

	"github.com/hakbangquest/hakbangweb/internal/app/store/sessions"
	"github.com/hakbangquest/hakbangweb/internal/app/suggestion"
	"github.com/hakbangquest/hakbangweb/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// EnsureAll creates collections (if missing) and tries to attach JSON-Schema
// validators. On servers that don't support collMod/validators (e.g. some
// DocumentDB versions), we log and skip gracefully.
func EnsureAll(ctx context.Context, db *mongo.Database, log *zap.Logger) error {
	if log == nil {
		log = zap.NewNop()
	}
	var problems []string

	ensure := func(coll string, schema bson.M) {
		if _, err := ensureCollection(ctx, db, coll, log); err != nil {
			problems = append(problems, coll+": "+err.Error())
			return
		}
		if schema == nil {
			return
		}
		if err := setValidator(ctx, db, coll, schema, log); err != nil {
			if isNoSuchCommand(err) || isNotImplemented(err) {
				log.Info("validator skipped (unsupported)", zap.String("collection", coll))
				return
			}
			problems = append(problems, coll+": "+err.Error())
		}
	}

	ensure(suggestion.Collection, suggestionsSchema())
	ensure("users", usersSchema())
	ensure(sessions.Collection, identitySessionsSchema())
	ensure("audit_events", nil)

	if len(problems) > 0 {
		return errors.New(strings.Join(problems, "; "))
	}
	return nil
}

/* ---------------------- collection helpers & logging ---------------------- */

// collectionExists returns true when <name> already exists.
// Uses ListCollectionNames to avoid "created collection" log when it didn't.
func collectionExists(ctx context.Context, db *mongo.Database, name string) (bool, error) {
	names, err := db.ListCollectionNames(ctx, bson.M{})
	if err != nil {
		return false, err
	}
	for _, n := range names {
		if n == name {
			return true, nil
		}
	}
	return false, nil
}

// ensureCollection idempotently makes sure <name> exists.
// Returns created==true only if we actually created it.
func ensureCollection(ctx context.Context, db *mongo.Database, name string, log *zap.Logger) (created bool, err error) {
	exists, listErr := collectionExists(ctx, db, name)
	if listErr == nil && exists {
		log.Info("collection exists", zap.String("collection", name))
		return false, nil
	}
	// If listing failed, fall back to create-and-handle-race.
	if err := db.CreateCollection(ctx, name); err != nil {
		// NamespaceExists / already exists is fine (race or prior run).
		if isNamespaceExistsErr(err) {
			log.Info("collection exists", zap.String("collection", name))
			return false, nil
		}
		log.Warn("createCollection failed", zap.String("collection", name), zap.Error(err))
		return false, err
	}
	log.Info("created collection", zap.String("collection", name))
	return true, nil
}

/* ------------------------------ validators ------------------------------- */

func setValidator(ctx context.Context, db *mongo.Database, name string, validator bson.M, log *zap.Logger) error {
	cmd := bson.D{
		{Key: "collMod", Value: name},
		{Key: "validator", Value: validator},
		{Key: "validationLevel", Value: "moderate"},
		{Key: "validationAction", Value: "error"},
	}
	var out bson.M
	if err := db.RunCommand(ctx, cmd).Decode(&out); err != nil {
		return err
	}
	log.Info("validator ensured", zap.String("collection", name))
	return nil
}

/* ------------------------- error helpers ------------------------- */

func isNamespaceExistsErr(err error) bool {
	if err == nil {
		return false
	}
	var ce mongo.CommandError
	if errors.As(err, &ce) && (ce.Code == 48 || strings.Contains(strings.ToLower(ce.Message), "already exists")) {
		return true
	}
	s := strings.ToLower(err.Error())
	return strings.Contains(s, "already exists") || strings.Contains(s, "namespace exists")
}

func isNoSuchCommand(err error) bool {
	if err == nil {
		return false
	}
	var ce mongo.CommandError
	if errors.As(err, &ce) && (ce.Code == 59 || strings.Contains(strings.ToLower(ce.Message), "no such command")) {
		return true
	}
	return strings.Contains(strings.ToLower(err.Error()), "no such command")
}

func isNotImplemented(err error) bool {
	if err == nil {
		return false
	}
	var ce mongo.CommandError
	if errors.As(err, &ce) && (ce.Code == 115 ||
		strings.Contains(strings.ToLower(ce.Message), "not implemented") ||
		strings.Contains(strings.ToLower(ce.Message), "not supported")) {
		return true
	}
	s := strings.ToLower(err.Error())
	return strings.Contains(s, "not implemented") || strings.Contains(s, "not supported")
}

/* ------------------------- JSON-Schema docs ---------------------- */

// suggestionsSchema mirrors the write path: guest submitter, server-side
// created_at, and the same length limits Submit enforces. MongoDB counts
// string length in code points, matching the rune limits.
func suggestionsSchema() bson.M {
	return bson.M{
		"$jsonSchema": bson.M{
			"bsonType": "object",
			"required": bson.A{"name", "text", "created_at", "submitter"},
			"properties": bson.M{
				"name":       bson.M{"bsonType": "string", "minLength": 1, "maxLength": suggestion.MaxNameLen, "pattern": ".*\\S.*"},
				"text":       bson.M{"bsonType": "string", "minLength": 1, "maxLength": suggestion.MaxTextLen, "pattern": "[\\s\\S]*\\S[\\s\\S]*"},
				"created_at": bson.M{"bsonType": "date"},
				"submitter": bson.M{
					"bsonType": "object",
					"required": bson.A{"email", "role"},
					"properties": bson.M{
						"email": bson.M{"bsonType": "string"},
						"role":  bson.M{"bsonType": "string"},
					},
				},
			},
		},
	}
}

func usersSchema() bson.M {
	return bson.M{
		"$jsonSchema": bson.M{
			"bsonType": "object",
			"required": bson.A{"email", "email_ci", "password_hash", "status"},
			"properties": bson.M{
				"email":         bson.M{"bsonType": "string", "minLength": 3},
				"email_ci":      bson.M{"bsonType": "string", "minLength": 3},
				"password_hash": bson.M{"bsonType": "string", "minLength": 1},
				"status":        bson.M{"enum": bson.A{models.UserStatusActive, models.UserStatusDisabled}},
			},
		},
	}
}

func identitySessionsSchema() bson.M {
	return bson.M{
		"$jsonSchema": bson.M{
			"bsonType": "object",
			"required": bson.A{"token", "user_id", "expires_at"},
			"properties": bson.M{
				"token":      bson.M{"bsonType": "string", "minLength": 1},
				"user_id":    bson.M{"bsonType": "objectId"},
				"expires_at": bson.M{"bsonType": "date"},
			},
		},
	}
}
