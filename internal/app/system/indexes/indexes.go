// internal/app/system/indexes/indexes.go
package indexes

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	auditstore "github.com/hakbangquest/hakbangweb/internal/app/store/audit"
	"github.com/hakbangquest/hakbangweb/internal/app/store/sessions"
	"github.com/hakbangquest/hakbangweb/internal/app/suggestion"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

/*
EnsureAll is called at startup. Each step is idempotent.
Errors are aggregated so every problem is visible and startup can fail fast.

suggestions and users are reconciled: an existing index with the same key
pattern but a different name or uniqueness is dropped and recreated. The
session and audit collections own their index sets.
*/
func EnsureAll(ctx context.Context, db *mongo.Database, log *zap.Logger) error {
	if log == nil {
		log = zap.NewNop()
	}
	var problems []string

	if err := ensureIndexSet(ctx, db.Collection(suggestion.Collection), suggestionIndexes(), log); err != nil {
		problems = append(problems, suggestion.Collection+": "+err.Error())
	}
	if err := ensureIndexSet(ctx, db.Collection("users"), userIndexes(), log); err != nil {
		problems = append(problems, "users: "+err.Error())
	}
	if err := sessions.New(db).EnsureIndexes(ctx); err != nil {
		problems = append(problems, sessions.Collection+": "+err.Error())
	}
	if err := auditstore.New(db).EnsureIndexes(ctx); err != nil {
		problems = append(problems, "audit_events: "+err.Error())
	}

	if len(problems) > 0 {
		return errors.New(strings.Join(problems, "; "))
	}
	return nil
}

// suggestionIndexes backs newest-first keyset paging on (created_at, _id).
func suggestionIndexes() []mongo.IndexModel {
	return []mongo.IndexModel{
		{
			Keys: bson.D{
				{Key: "created_at", Value: -1},
				{Key: "_id", Value: -1},
			},
			Options: options.Index().SetName("idx_suggestions_created_desc"),
		},
	}
}

func userIndexes() []mongo.IndexModel {
	return []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "email_ci", Value: 1}},
			Options: options.Index().SetName("uniq_users_email_ci").SetUnique(true),
		},
		{
			Keys:    bson.D{{Key: "status", Value: 1}},
			Options: options.Index().SetName("idx_users_status"),
		},
	}
}

/* -------------------------------------------------------------------------- */
/* Reconcile a set of desired indexes for one collection                      */
/* -------------------------------------------------------------------------- */

type existingIndex struct {
	Name   string `bson:"name"`
	Key    bson.D `bson:"key"`
	Unique *bool  `bson:"unique,omitempty"`
}

func keySig(keys bson.D) string {
	parts := make([]string, 0, len(keys))
	for _, kv := range keys {
		parts = append(parts, fmt.Sprintf("%s:%v", kv.Key, kv.Value))
	}
	return strings.Join(parts, ", ")
}

func isUnique(p *bool) bool { return p != nil && *p }

// Best-effort duplicate-detector (works cross-vendors)
func isDuplicateKeyErr(err error) bool {
	if err == nil {
		return false
	}
	var we mongo.WriteException
	if errors.As(err, &we) {
		for _, e := range we.WriteErrors {
			if e.Code == 11000 {
				return true
			}
		}
	}
	var ce mongo.CommandError
	if errors.As(err, &ce) && ce.Code == 11000 {
		return true
	}
	s := err.Error()
	return strings.Contains(s, "E11000") || strings.Contains(strings.ToLower(s), "duplicate key")
}

func listIndexes(ctx context.Context, coll *mongo.Collection, log *zap.Logger) (map[string]existingIndex, error) {
	cur, err := coll.Indexes().List(ctx)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	out := map[string]existingIndex{}
	for cur.Next(ctx) {
		var idx existingIndex
		if err := cur.Decode(&idx); err != nil {
			log.Warn("failed to decode existing index",
				zap.String("collection", coll.Name()),
				zap.Error(err))
			continue
		}
		out[keySig(idx.Key)] = idx
	}
	return out, cur.Err()
}

func ensureIndexSet(ctx context.Context, coll *mongo.Collection, models []mongo.IndexModel, log *zap.Logger) error {
	existing, err := listIndexes(ctx, coll, log)
	if err != nil {
		// A missing collection lists as an error on some servers; CreateOne
		// below creates the collection anyway.
		existing = map[string]existingIndex{}
	}

	var errs []string
	for _, m := range models {
		if err := ensureIndex(ctx, coll, m, existing, log); err != nil {
			errs = append(errs, err.Error())
		}
	}
	if len(errs) > 0 {
		return errors.New(strings.Join(errs, "; "))
	}
	return nil
}

func ensureIndex(ctx context.Context, coll *mongo.Collection, m mongo.IndexModel, existing map[string]existingIndex, log *zap.Logger) error {
	var name string
	var unique *bool
	if m.Options != nil {
		if m.Options.Name != nil {
			name = *m.Options.Name
		}
		unique = m.Options.Unique
	}
	sig := keySig(m.Keys.(bson.D))
	start := time.Now()
	fields := []zap.Field{
		zap.String("collection", coll.Name()),
		zap.String("name", name),
		zap.String("keys", sig),
		zap.Bool("unique", isUnique(unique)),
	}

	if ex, ok := existing[sig]; ok {
		if isUnique(ex.Unique) == isUnique(unique) && (name == "" || ex.Name == name) {
			log.Debug("reusing existing index", append(fields, zap.Duration("took", time.Since(start)))...)
			return nil
		}
		log.Info("replacing index", append(fields, zap.String("existing_name", ex.Name))...)
		if _, err := coll.Indexes().DropOne(ctx, ex.Name); err != nil {
			return fmt.Errorf("%s(%s): drop failed: %w", coll.Name(), name, err)
		}
	}

	if _, err := coll.Indexes().CreateOne(ctx, m); err != nil {
		log.Warn("index ensure failed", append(fields, zap.Error(err))...)
		if isDuplicateKeyErr(err) && isUnique(unique) {
			return fmt.Errorf("%s(%s): cannot create unique index (duplicates present)", coll.Name(), name)
		}
		return fmt.Errorf("%s(%s): %w", coll.Name(), name, err)
	}
	log.Info("index ensured", append(fields, zap.Duration("took", time.Since(start)))...)
	return nil
}
