package ports

import (
	"context"

	"github.com/habitkit/identity-service/internal/core/domain"
)

// DocumentRepository is the CRUD shape shared by all auxiliary per-user
// documents (settings, content preferences, context, rewards), parameterized
// by document type. Find reports absence as (nil, nil) so callers can create
// defaults without error-driven branching.
type DocumentRepository[T any] interface {
	Find(ctx context.Context, userID string) (*T, error)
	Create(ctx context.Context, doc *T) error
	Delete(ctx context.Context, userID string) error
}

// UserDataRepositories bundles the auxiliary document repositories the
// orchestrator touches on every login and during account deletion.
type UserDataRepositories struct {
	Settings    DocumentRepository[domain.UserSettings]
	Preferences DocumentRepository[domain.ContentPreferences]
	Context     DocumentRepository[domain.UserContext]
	Rewards     DocumentRepository[domain.UserRewards]
}

// DeviceRepository defines persistence for push device registrations.
type DeviceRepository interface {
	FindByUser(ctx context.Context, userID string) ([]*domain.DeviceRegistration, error)
	Create(ctx context.Context, device *domain.DeviceRegistration) error
	Update(ctx context.Context, device *domain.DeviceRegistration) error
	Delete(ctx context.Context, id string) error
}

// MediaAssetRepository defines persistence for media asset records. The
// stored object itself lives in ObjectStorage.
type MediaAssetRepository interface {
	FindByUser(ctx context.Context, userID string) ([]*domain.MediaAsset, error)
	Delete(ctx context.Context, id string) error
}
