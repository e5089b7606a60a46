package ports

import (
	"context"

	"github.com/habitkit/identity-service/internal/core/domain"
)

// UserRepository defines persistence for user accounts.
type UserRepository interface {
	// Read fetches a user by id, returning domain.ErrUserNotFound when absent.
	Read(ctx context.Context, id string) (*domain.User, error)
	// FindByEmail looks a user up by email. Absence is a normal outcome and
	// is reported as (nil, nil), not as an error.
	FindByEmail(ctx context.Context, email string) (*domain.User, error)
	Create(ctx context.Context, user *domain.User) (*domain.User, error)
	Update(ctx context.Context, user *domain.User) error
	Delete(ctx context.Context, id string) error
}
