package impl

import (
	"context"
	"log/slog"
	"strings"

	deliverycontext "storefront/internal/delivery/context"
	"storefront/internal/domain/entity"
	domainerrors "storefront/internal/domain/errors"
	"storefront/internal/domain/repository"
	"storefront/internal/state"
	"storefront/internal/usecase"

	"github.com/google/uuid"
)

type reviewService struct {
	reviewRepo repository.ReviewRepository
	store      *state.Store
	logger     *slog.Logger
}

// NewReviewService creates the review service.
func NewReviewService(reviewRepo repository.ReviewRepository, store *state.Store, logger *slog.Logger) usecase.ReviewUsecase {
	return &reviewService{
		reviewRepo: reviewRepo,
		store:      store,
		logger:     logger,
	}
}

func (srv *reviewService) log(ctx context.Context) *slog.Logger {
	return deliverycontext.GetLoggerOrDefault(ctx, srv.logger)
}

// FetchReviews loads the reviews about userID and refreshes the viewed profile's rating.
func (srv *reviewService) FetchReviews(ctx context.Context, userID uuid.UUID) ([]*entity.Review, error) {
	reviews, err := srv.reviewRepo.FindByReviewee(ctx, userID)
	if err != nil {
		return nil, gatewayError(err, "fetch reviews")
	}

	rating, count := entity.AverageRating(reviews)
	srv.store.Update(func(next *state.Snapshot) {
		if next.Profile.User != nil && next.Profile.User.ID == userID {
			profile := next.Profile.User.Clone()
			profile.Rating, profile.ReviewsCount = rating, count
			next.Profile.User = profile
			next.Profile.Reviews = reviews
		}
		if next.Session.User != nil && next.Session.User.ID == userID {
			self := next.Session.User.Clone()
			self.Rating, self.ReviewsCount = rating, count
			next.Session.User = self
		}
	})

	return reviews, nil
}

func (srv *reviewService) AddReview(ctx context.Context, input *usecase.ReviewInput) (*entity.Review, error) {
	user, err := requireUser(srv.store)
	if err != nil {
		return nil, err
	}
	if input == nil || input.RevieweeID == uuid.Nil {
		return nil, domainerrors.ErrValidationFailed.WithDetails("revieweeid: required")
	}
	if input.RevieweeID == user.ID {
		return nil, domainerrors.ErrSelfReview
	}
	if input.Rating < entity.MinRating || input.Rating > entity.MaxRating {
		return nil, domainerrors.ErrInvalidRating
	}

	review := &entity.Review{
		ReviewerID: user.ID,
		RevieweeID: input.RevieweeID,
		Rating:     input.Rating,
		Comment:    strings.TrimSpace(input.Comment),
	}
	if err := srv.reviewRepo.Create(ctx, review); err != nil {
		return nil, gatewayError(err, "add review")
	}
	srv.log(ctx).Info("Review added", slog.Any("reviewee_id", review.RevieweeID), slog.Int("rating", review.Rating))

	if _, err := srv.FetchReviews(ctx, input.RevieweeID); err != nil {
		srv.log(ctx).Warn("Review refresh failed", slog.Any("error", err))
	}

	return review, nil
}
