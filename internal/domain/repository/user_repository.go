package repository

import (
	"context"

	"storefront/internal/domain/entity"
	"storefront/internal/errors"

	"github.com/google/uuid"
)

// ErrUserNotFound is returned when no profile row exists for the user.
var ErrUserNotFound = errors.New("user not found")

// UserRepository reads and updates profile rows.
type UserRepository interface {
	// FindByID retrieves a profile.
	FindByID(ctx context.Context, id uuid.UUID) (*entity.User, error)

	// FindByIDs retrieves the existing profiles among ids.
	FindByIDs(ctx context.Context, ids []uuid.UUID) ([]*entity.User, error)

	// FindAll returns every profile, newest first.
	FindAll(ctx context.Context) ([]*entity.User, error)

	// Update saves the editable profile fields (name, avatar).
	Update(ctx context.Context, user *entity.User) error

	// SetBanned flags or unflags an account.
	SetBanned(ctx context.Context, id uuid.UUID, banned bool) error

	Count(ctx context.Context) (int64, error)
}
