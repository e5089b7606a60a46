package mongo

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/habitkit/identity-service/internal/core/domain"
)

const mediaCollection = "media_assets"

type MediaAssetRepository struct {
	coll *mongo.Collection
}

func NewMediaAssetRepository(db *mongo.Database) *MediaAssetRepository {
	return &MediaAssetRepository{coll: db.Collection(mediaCollection)}
}

func (r *MediaAssetRepository) FindByUser(ctx context.Context, userID string) ([]*domain.MediaAsset, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	cur, err := r.coll.Find(ctx, bson.M{"user_id": userID})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var assets []*domain.MediaAsset
	if err := cur.All(ctx, &assets); err != nil {
		return nil, err
	}
	return assets, nil
}

func (r *MediaAssetRepository) Delete(ctx context.Context, id string) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	_, err := r.coll.DeleteOne(ctx, bson.M{"_id": id})
	return err
}
