package impl

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"storefront/config"
	deliverycontext "storefront/internal/delivery/context"
	"storefront/internal/domain/entity"
	domainerrors "storefront/internal/domain/errors"
	"storefront/internal/domain/repository"
	"storefront/internal/domain/service"
	"storefront/internal/errors"
	"storefront/internal/state"
	"storefront/internal/usecase"
	"storefront/internal/util"
	"storefront/internal/util/validation"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/fx"
)

const provisionPollInterval = 50 * time.Millisecond

// sessionService implements the SessionUsecase interface.
type sessionService struct {
	auth          service.AuthService
	userRepo      repository.UserRepository
	listingRepo   repository.ListingRepository
	reviewRepo    repository.ReviewRepository
	storage       service.ObjectStorage
	directory     service.IdentityDirectory
	store         *state.Store
	listeners     []usecase.SessionListener
	validate      *validator.Validate
	provisionWait time.Duration
	pollInterval  time.Duration
	now           func() time.Time
	logger        *slog.Logger
}

// SessionServiceParams holds dependencies for SessionService, injected by Fx.
type SessionServiceParams struct {
	fx.In

	Auth        service.AuthService
	UserRepo    repository.UserRepository
	ListingRepo repository.ListingRepository
	ReviewRepo  repository.ReviewRepository
	Storage     service.ObjectStorage
	Directory   service.IdentityDirectory `optional:"true"`
	Store       *state.Store
	Listeners   []usecase.SessionListener `group:"session_listeners"`
	Config      *config.Config
	Logger      *slog.Logger
}

// NewSessionService is the constructor for sessionService.
func NewSessionService(params SessionServiceParams) usecase.SessionUsecase {
	provisionWait := time.Duration(0)
	if params.Config != nil && params.Config.Session != nil {
		provisionWait = params.Config.Session.ProvisionWait
	}

	return &sessionService{
		auth:          params.Auth,
		userRepo:      params.UserRepo,
		listingRepo:   params.ListingRepo,
		reviewRepo:    params.ReviewRepo,
		storage:       params.Storage,
		directory:     params.Directory,
		store:         params.Store,
		listeners:     params.Listeners,
		validate:      validation.New(),
		provisionWait: provisionWait,
		pollInterval:  provisionPollInterval,
		now:           time.Now,
		logger:        params.Logger,
	}
}

// log returns a request-scoped logger if available, otherwise falls back to the service's logger.
func (srv *sessionService) log(ctx context.Context) *slog.Logger {
	return deliverycontext.GetLoggerOrDefault(ctx, srv.logger)
}

func (srv *sessionService) ResolveSession(ctx context.Context) (*entity.User, error) {
	identity, err := srv.auth.CurrentIdentity(ctx)
	if err != nil {
		srv.store.Update(func(next *state.Snapshot) {
			next.Session.Resolved = true
		})

		return nil, gatewayError(err, "resolve session")
	}

	if identity == nil {
		previous := srv.store.Snapshot().Session.User
		srv.store.Update(func(next *state.Snapshot) {
			if previous != nil {
				next.ClearUserData()
			}
			next.Session.Resolved = true
		})
		if previous != nil {
			srv.notifyEnded(ctx)
		}

		return nil, nil
	}

	return srv.establish(ctx, identity, 0)
}

func (srv *sessionService) Login(ctx context.Context, credentials service.Credentials) (*entity.User, error) {
	credentials.Email = strings.TrimSpace(credentials.Email)
	if credentials.Email == "" || credentials.Password == "" {
		return nil, domainerrors.ErrMissingCredentials
	}

	srv.log(ctx).Info("Signing in", slog.String("email", credentials.Email))

	identity, err := srv.auth.SignIn(ctx, credentials)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			return nil, domainerrors.ErrInvalidCredentials
		}

		return nil, gatewayError(err, "sign in")
	}

	return srv.establish(ctx, identity, 0)
}

func (srv *sessionService) Register(ctx context.Context, registration *usecase.Registration) (*entity.User, error) {
	if registration == nil || strings.TrimSpace(registration.Email) == "" || registration.Password == "" {
		return nil, domainerrors.ErrMissingCredentials
	}
	registration.Email = strings.TrimSpace(registration.Email)
	registration.Name = strings.TrimSpace(registration.Name)
	if err := srv.validate.Struct(registration); err != nil {
		return nil, domainerrors.ErrValidationFailed.WithDetails(validation.Describe(err))
	}

	srv.log(ctx).Info("Registering account", slog.String("email", registration.Email))

	identity, err := srv.auth.SignUp(ctx, service.Credentials{
		Email:    registration.Email,
		Password: registration.Password,
	}, map[string]string{entity.MetadataName: registration.Name})
	if err != nil {
		if errors.Is(err, service.ErrEmailTaken) {
			return nil, domainerrors.ErrEmailTaken
		}

		return nil, gatewayError(err, "sign up")
	}

	return srv.establish(ctx, identity, srv.provisionWait)
}

func (srv *sessionService) Logout(ctx context.Context) error {
	signOutErr := srv.auth.SignOut(ctx)
	if signOutErr != nil {
		srv.log(ctx).Warn("Remote sign out failed", slog.Any("error", signOutErr))
	}

	srv.store.Update(func(next *state.Snapshot) {
		next.ClearUserData()
		next.Session.Resolved = true
		next.Session.AuthPromptOpen = false
	})
	srv.notifyEnded(ctx)

	return gatewayError(signOutErr, "sign out")
}

func (srv *sessionService) CurrentUser() *entity.User {
	return srv.store.Snapshot().Session.User
}

func (srv *sessionService) OpenAuthPrompt() {
	srv.store.Update(func(next *state.Snapshot) {
		next.Session.AuthPromptOpen = true
	})
}

func (srv *sessionService) CloseAuthPrompt() {
	srv.store.Update(func(next *state.Snapshot) {
		next.Session.AuthPromptOpen = false
	})
}

// UpdateProfile saves the name and uploads a new avatar.
func (srv *sessionService) UpdateProfile(ctx context.Context, update *entity.ProfileUpdate) (*entity.User, error) {
	user, err := requireUser(srv.store)
	if err != nil {
		return nil, err
	}
	if update == nil || (update.Name == nil && update.Avatar == nil) {
		return nil, domainerrors.ErrValidationFailed.WithDetails("nothing to update")
	}

	updated := user.Clone()
	if update.Name != nil {
		name := strings.TrimSpace(*update.Name)
		if name == "" {
			return nil, domainerrors.ErrValidationFailed.WithDetails("name: notblank")
		}
		updated.Name = name
	}

	if update.Avatar != nil {
		key := util.AvatarKey(user.ID, update.Avatar.Extension(), srv.now())
		url, err := srv.storage.Upload(ctx, key, update.Avatar.ContentType, update.Avatar.Data)
		if err != nil {
			return nil, errors.Wrap(domainerrors.ErrUploadFailed.WithDetails(err.Error()), "upload avatar")
		}
		updated.AvatarURL = url
	}

	if err := srv.userRepo.Update(ctx, updated); err != nil {
		return nil, gatewayError(err, "update profile")
	}

	srv.store.Update(func(next *state.Snapshot) {
		if next.UserID() != user.ID {
			return
		}
		next.Session.User = updated
		if next.Profile.User != nil && next.Profile.User.ID == user.ID {
			next.Profile.User = updated
		}
	})

	return updated, nil
}

// FetchUserProfile loads the profile, the listings visible to the viewer and the reviews.
func (srv *sessionService) FetchUserProfile(ctx context.Context, userID uuid.UUID) (*entity.User, error) {
	profile, err := srv.userRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, gatewayError(err, "find profile")
	}

	viewerID := srv.store.Snapshot().UserID()
	if viewerID != userID {
		profile.Email = ""
	}

	listings, err := srv.listingRepo.FindByOwner(ctx, userID)
	if err != nil {
		return nil, gatewayError(err, "find profile listings")
	}
	visible := make([]*entity.Listing, 0, len(listings))
	for _, listing := range listings {
		if listing.VisibleTo(viewerID) {
			visible = append(visible, listing)
		}
	}

	reviews, err := srv.reviewRepo.FindByReviewee(ctx, userID)
	if err != nil {
		return nil, gatewayError(err, "find profile reviews")
	}
	profile.Rating, profile.ReviewsCount = entity.AverageRating(reviews)

	srv.store.Update(func(next *state.Snapshot) {
		next.Profile = state.ProfileState{User: profile, Listings: visible, Reviews: reviews}
	})

	return profile, nil
}

// establish turns an identity into the session user and notifies the listeners.
func (srv *sessionService) establish(ctx context.Context, identity *service.Identity, wait time.Duration) (*entity.User, error) {
	user := srv.loadProfile(ctx, identity, wait)

	if user.IsBanned {
		srv.log(ctx).Warn("Banned account rejected", slog.Any("user_id", user.ID))
		if err := srv.auth.SignOut(ctx); err != nil {
			srv.log(ctx).Warn("Sign out of banned account failed", slog.Any("error", err))
		}
		previous := srv.store.Snapshot().Session.User
		srv.store.Update(func(next *state.Snapshot) {
			next.ClearUserData()
			next.Session.Resolved = true
		})
		if previous != nil {
			srv.notifyEnded(ctx)
		}

		return nil, domainerrors.ErrAccountBanned
	}

	srv.applyRating(ctx, user)

	previous := srv.store.Snapshot().Session.User
	switched := previous != nil && previous.ID != user.ID
	srv.store.Update(func(next *state.Snapshot) {
		if switched {
			next.ClearUserData()
		}
		next.Session.User = user
		next.Session.Resolved = true
		next.Session.AuthPromptOpen = false
	})

	if switched {
		srv.notifyEnded(ctx)
	}
	if previous == nil || switched {
		srv.log(ctx).Info("Session started", slog.Any("user_id", user.ID))
		for _, listener := range srv.listeners {
			listener.OnSessionStarted(ctx, user)
		}
	}

	return user, nil
}

// loadProfile reads the profile row, polling for up to wait while it is provisioned,
// then falls back to identity metadata and the identity directory.
func (srv *sessionService) loadProfile(ctx context.Context, identity *service.Identity, wait time.Duration) *entity.User {
	deadline := srv.now().Add(wait)
	for {
		user, err := srv.userRepo.FindByID(ctx, identity.UserID)
		if err == nil {
			if user.Email == "" {
				user.Email = identity.Email
			}

			return user
		}
		if !errors.Is(err, repository.ErrUserNotFound) {
			srv.log(ctx).Warn("Profile read failed, using identity metadata", slog.Any("error", err))

			break
		}
		if !srv.now().Before(deadline) {
			break
		}

		select {
		case <-ctx.Done():
			return srv.profileFromIdentity(ctx, identity)
		case <-time.After(srv.pollInterval):
		}
	}

	return srv.profileFromIdentity(ctx, identity)
}

func (srv *sessionService) profileFromIdentity(ctx context.Context, identity *service.Identity) *entity.User {
	user := &entity.User{
		ID:        identity.UserID,
		Email:     identity.Email,
		Name:      identity.Metadata[entity.MetadataName],
		AvatarURL: identity.Metadata[entity.MetadataAvatarURL],
		Role:      entity.RoleUser,
		TrustTier: entity.TrustTierNone,
	}

	if (user.Name == "" || user.AvatarURL == "") && srv.directory != nil {
		profile, err := srv.directory.LookupProfile(ctx, identity.UserID.String())
		if err != nil {
			srv.log(ctx).Debug("Identity directory lookup failed", slog.Any("error", err))
		} else if profile != nil {
			if user.Name == "" {
				user.Name = profile.DisplayName
			}
			if user.AvatarURL == "" {
				user.AvatarURL = profile.PhotoURL
			}
		}
	}

	if user.Name == "" {
		user.Name, _, _ = strings.Cut(identity.Email, "@")
	}

	return user
}

// applyRating derives the rating from the user's reviews. Failures are not fatal.
func (srv *sessionService) applyRating(ctx context.Context, user *entity.User) {
	reviews, err := srv.reviewRepo.FindByReviewee(ctx, user.ID)
	if err != nil {
		srv.log(ctx).Warn("Rating lookup failed", slog.Any("user_id", user.ID), slog.Any("error", err))

		return
	}
	user.Rating, user.ReviewsCount = entity.AverageRating(reviews)
}

func (srv *sessionService) notifyEnded(ctx context.Context) {
	srv.log(ctx).Info("Session ended")
	for _, listener := range srv.listeners {
		listener.OnSessionEnded(ctx)
	}
}
