package impl

import (
	"context"
	"log/slog"

	deliverycontext "storefront/internal/delivery/context"
	"storefront/internal/domain/entity"
	domainerrors "storefront/internal/domain/errors"
	"storefront/internal/domain/repository"
	"storefront/internal/state"
	"storefront/internal/usecase"

	"github.com/google/uuid"
	"go.uber.org/fx"
	"golang.org/x/sync/errgroup"
)

type adminService struct {
	userRepo    repository.UserRepository
	listingRepo repository.ListingRepository
	reviewRepo  repository.ReviewRepository
	store       *state.Store
	logger      *slog.Logger
}

// AdminServiceParams holds dependencies for AdminService, injected by Fx.
type AdminServiceParams struct {
	fx.In

	UserRepo    repository.UserRepository
	ListingRepo repository.ListingRepository
	ReviewRepo  repository.ReviewRepository
	Store       *state.Store
	Logger      *slog.Logger
}

// NewAdminService is the constructor for adminService.
func NewAdminService(params AdminServiceParams) usecase.AdminUsecase {
	return &adminService{
		userRepo:    params.UserRepo,
		listingRepo: params.ListingRepo,
		reviewRepo:  params.ReviewRepo,
		store:       params.Store,
		logger:      params.Logger,
	}
}

func (srv *adminService) log(ctx context.Context) *slog.Logger {
	return deliverycontext.GetLoggerOrDefault(ctx, srv.logger)
}

func (srv *adminService) requireAdmin() (*entity.User, error) {
	user, err := requireUser(srv.store)
	if err != nil {
		return nil, err
	}
	if !user.IsAdmin() {
		return nil, domainerrors.ErrAdminRequired
	}

	return user, nil
}

// FetchDashboard loads users, reviews and the counters concurrently.
func (srv *adminService) FetchDashboard(ctx context.Context) (*entity.AdminStats, error) {
	if _, err := srv.requireAdmin(); err != nil {
		return nil, err
	}

	var (
		users   []*entity.User
		reviews []*entity.Review
		stats   entity.AdminStats
	)
	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() (err error) {
		users, err = srv.userRepo.FindAll(groupCtx)

		return gatewayError(err, "list users")
	})
	group.Go(func() (err error) {
		reviews, err = srv.reviewRepo.FindAll(groupCtx)

		return gatewayError(err, "list reviews")
	})
	group.Go(func() (err error) {
		stats.Users, err = srv.userRepo.Count(groupCtx)

		return gatewayError(err, "count users")
	})
	group.Go(func() (err error) {
		stats.Listings, err = srv.listingRepo.Count(groupCtx)

		return gatewayError(err, "count listings")
	})
	group.Go(func() (err error) {
		stats.Reviews, err = srv.reviewRepo.Count(groupCtx)

		return gatewayError(err, "count reviews")
	})
	if err := group.Wait(); err != nil {
		return nil, err
	}

	srv.store.Update(func(next *state.Snapshot) {
		next.Admin = state.AdminState{Users: users, Reviews: reviews, Stats: stats}
	})

	return &stats, nil
}

func (srv *adminService) BanUser(ctx context.Context, userID uuid.UUID, banned bool) error {
	admin, err := srv.requireAdmin()
	if err != nil {
		return err
	}
	if admin.ID == userID {
		return domainerrors.ErrValidationFailed.WithDetails("administrators cannot ban themselves")
	}

	if err := srv.userRepo.SetBanned(ctx, userID, banned); err != nil {
		return gatewayError(err, "ban user")
	}
	srv.log(ctx).Info("Ban flag changed", slog.Any("user_id", userID), slog.Bool("banned", banned))

	srv.store.Update(func(next *state.Snapshot) {
		for i, user := range next.Admin.Users {
			if user.ID == userID {
				updated := user.Clone()
				updated.IsBanned = banned
				next.Admin.Users[i] = updated
			}
		}
	})

	return nil
}

func (srv *adminService) DeleteReview(ctx context.Context, reviewID uuid.UUID) error {
	if _, err := srv.requireAdmin(); err != nil {
		return err
	}

	if err := srv.reviewRepo.Delete(ctx, reviewID); err != nil {
		return gatewayError(err, "delete review")
	}
	srv.log(ctx).Info("Review deleted", slog.Any("review_id", reviewID))

	srv.store.Update(func(next *state.Snapshot) {
		before := len(next.Admin.Reviews)
		next.Admin.Reviews = removeReview(next.Admin.Reviews, reviewID)
		if len(next.Admin.Reviews) < before && next.Admin.Stats.Reviews > 0 {
			next.Admin.Stats.Reviews--
		}
		next.Profile.Reviews = removeReview(next.Profile.Reviews, reviewID)
	})

	return nil
}

func removeReview(reviews []*entity.Review, id uuid.UUID) []*entity.Review {
	out := make([]*entity.Review, 0, len(reviews))
	for _, review := range reviews {
		if review.ID != id {
			out = append(out, review)
		}
	}

	return out
}
