// internal/app/store/suggestions/suggestionstore.go
package suggestionstore

import (
	"context"

	"github.com/hakbangquest/hakbangweb/internal/app/suggestion"
	"github.com/hakbangquest/hakbangweb/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Store is the MongoDB-backed suggestion.DocumentStore.
type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection(suggestion.Collection)}
}

// Insert writes one suggestion. created_at is stamped by the database
// server via $currentDate, so client clocks never influence ordering.
func (s *Store) Insert(ctx context.Context, doc suggestion.NewDocument) (models.Suggestion, error) {
	id := primitive.NewObjectID()
	update := bson.M{
		"$setOnInsert": bson.M{
			"name":      doc.Name,
			"text":      doc.Text,
			"submitter": doc.Submitter,
		},
		"$currentDate": bson.M{
			"created_at": bson.M{"$type": "date"},
		},
	}
	opts := options.FindOneAndUpdate().
		SetUpsert(true).
		SetReturnDocument(options.After)

	var out models.Suggestion
	if err := s.c.FindOneAndUpdate(ctx, bson.M{"_id": id}, update, opts).Decode(&out); err != nil {
		return models.Suggestion{}, err
	}
	out.CreatedAt = out.CreatedAt.UTC()
	return out, nil
}

// Query returns up to limit suggestions ordered by (created_at, _id)
// descending, strictly after the given position.
func (s *Store) Query(ctx context.Context, after *suggestion.Position, limit int) ([]models.Suggestion, error) {
	filter := bson.M{}
	if after != nil {
		filter["$or"] = []bson.M{
			{"created_at": bson.M{"$lt": after.CreatedAt}},
			{"created_at": after.CreatedAt, "_id": bson.M{"$lt": after.ID}},
		}
	}

	find := options.Find().
		SetSort(bson.D{
			{Key: "created_at", Value: -1},
			{Key: "_id", Value: -1},
		}).
		SetLimit(int64(limit))

	cur, err := s.c.Find(ctx, filter, find)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	out := make([]models.Suggestion, 0, limit)
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	for i := range out {
		out[i].CreatedAt = out[i].CreatedAt.UTC()
	}
	return out, nil
}
