package repository

import (
	"context"

	"storefront/internal/domain/entity"
	"storefront/internal/errors"

	"github.com/google/uuid"
)

// ErrReviewNotFound is returned when a review does not exist.
var ErrReviewNotFound = errors.New("review not found")

// ReviewRepository defines review queries and mutations.
type ReviewRepository interface {
	// FindByReviewee returns the reviews about userID, newest first.
	FindByReviewee(ctx context.Context, userID uuid.UUID) ([]*entity.Review, error)

	// FindAll returns every review, newest first.
	FindAll(ctx context.Context) ([]*entity.Review, error)

	Create(ctx context.Context, review *entity.Review) error

	Delete(ctx context.Context, id uuid.UUID) error

	Count(ctx context.Context) (int64, error)
}
