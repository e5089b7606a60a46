package domain

import "time"

// MediaAsset is a user-uploaded object tracked in the database and stored in
// object storage under StoragePath. Account deletion removes both copies.
type MediaAsset struct {
	ID          string    `json:"id" bson:"_id"`
	UserID      string    `json:"user_id" bson:"user_id"`
	StoragePath string    `json:"storage_path" bson:"storage_path"`
	ContentType string    `json:"content_type" bson:"content_type"`
	CreatedAt   time.Time `json:"created_at" bson:"created_at"`
}
