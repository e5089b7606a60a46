package mongo

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/habitkit/identity-service/internal/core/domain"
	"github.com/habitkit/identity-service/internal/core/ports"
)

// DocumentRepository is the generic Mongo implementation of
// ports.DocumentRepository. Each auxiliary document type gets its own
// collection; the document's _id is the owning user's id, which makes
// Create naturally collision-safe and Delete idempotent.
type DocumentRepository[T any] struct {
	coll  *mongo.Collection
	docID func(*T) string
}

func newDocumentRepository[T any](db *mongo.Database, collection string, docID func(*T) string) *DocumentRepository[T] {
	return &DocumentRepository[T]{coll: db.Collection(collection), docID: docID}
}

// Find reports absence as (nil, nil).
func (r *DocumentRepository[T]) Find(ctx context.Context, userID string) (*T, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var doc T
	if err := r.coll.FindOne(ctx, bson.M{"_id": userID}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, err
	}
	return &doc, nil
}

func (r *DocumentRepository[T]) Create(ctx context.Context, doc *T) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	// Upsert keyed by user id: a concurrent EnsureUserData cannot produce a
	// second document for the same user.
	_, err := r.coll.ReplaceOne(ctx, bson.M{"_id": r.docID(doc)}, doc,
		options.Replace().SetUpsert(true))
	return err
}

func (r *DocumentRepository[T]) Delete(ctx context.Context, userID string) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	_, err := r.coll.DeleteOne(ctx, bson.M{"_id": userID})
	return err
}

// NewUserDataRepositories wires one collection per auxiliary document type.
func NewUserDataRepositories(db *mongo.Database) ports.UserDataRepositories {
	return ports.UserDataRepositories{
		Settings: newDocumentRepository(db, "user_settings",
			func(d *domain.UserSettings) string { return d.UserID }),
		Preferences: newDocumentRepository(db, "content_preferences",
			func(d *domain.ContentPreferences) string { return d.UserID }),
		Context: newDocumentRepository(db, "user_contexts",
			func(d *domain.UserContext) string { return d.UserID }),
		Rewards: newDocumentRepository(db, "user_rewards",
			func(d *domain.UserRewards) string { return d.UserID }),
	}
}
