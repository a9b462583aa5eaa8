package usecase

import (
	"context"

	"storefront/internal/domain/entity"

	"github.com/google/uuid"
)

// PreferenceUsecase persists display preferences.
type PreferenceUsecase interface {
	Load(ctx context.Context) (entity.Language, error)
	SetLanguage(ctx context.Context, lang entity.Language) error
}

// ReviewInput is a rating left on another user's profile.
type ReviewInput struct {
	RevieweeID uuid.UUID `json:"revieweeId" validate:"required"`
	Rating     int       `json:"rating"`
	Comment    string    `json:"comment" validate:"max=2000"`
}

// ReviewUsecase reads and writes user reviews.
type ReviewUsecase interface {
	FetchReviews(ctx context.Context, userID uuid.UUID) ([]*entity.Review, error)
	AddReview(ctx context.Context, input *ReviewInput) (*entity.Review, error)
}

// AdminUsecase is restricted to administrators.
type AdminUsecase interface {
	FetchDashboard(ctx context.Context) (*entity.AdminStats, error)
	BanUser(ctx context.Context, userID uuid.UUID, banned bool) error
	DeleteReview(ctx context.Context, reviewID uuid.UUID) error
}
