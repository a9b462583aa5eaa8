package impl

import (
	"context"
	"log/slog"
	"strings"
	"sync/atomic"
	"time"

	"storefront/config"
	deliverycontext "storefront/internal/delivery/context"
	"storefront/internal/domain/constants"
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

type listingService struct {
	listingRepo  repository.ListingRepository
	categoryRepo repository.CategoryRepository
	storage      service.ObjectStorage
	qrCode       service.QRCodeService
	store        *state.Store
	validate     *validator.Validate
	debouncer    *util.Debouncer
	baseCtx      context.Context
	now          func() time.Time
	logger       *slog.Logger

	// publicSeq is the issuance sequence of public catalog queries.
	publicSeq atomic.Uint64
}

// ListingServiceParams holds dependencies for ListingService, injected by Fx.
type ListingServiceParams struct {
	fx.In

	Lc           fx.Lifecycle
	Ctx          context.Context
	ListingRepo  repository.ListingRepository
	CategoryRepo repository.CategoryRepository
	Storage      service.ObjectStorage
	QRCode       service.QRCodeService
	Store        *state.Store
	Config       *config.Config
	Logger       *slog.Logger
}

// NewListingService is the constructor for listingService.
func NewListingService(params ListingServiceParams) usecase.ListingUsecase {
	delay := time.Duration(0)
	if params.Config != nil && params.Config.Search != nil {
		delay = params.Config.Search.Debounce
	}

	srv := &listingService{
		listingRepo:  params.ListingRepo,
		categoryRepo: params.CategoryRepo,
		storage:      params.Storage,
		qrCode:       params.QRCode,
		store:        params.Store,
		validate:     validation.New(),
		debouncer:    util.NewDebouncer(delay),
		baseCtx:      params.Ctx,
		now:          time.Now,
		logger:       params.Logger,
	}

	params.Lc.Append(fx.Hook{
		OnStop: func(context.Context) error {
			srv.debouncer.Stop()

			return nil
		},
	})

	return srv
}

// log returns a request-scoped logger if available, otherwise falls back to the service's logger.
func (srv *listingService) log(ctx context.Context) *slog.Logger {
	return deliverycontext.GetLoggerOrDefault(ctx, srv.logger)
}

func (srv *listingService) ListPublic(ctx context.Context, filter entity.ListingFilter) ([]*entity.Listing, error) {
	filter = filter.Normalized()
	seq := srv.publicSeq.Add(1)

	srv.store.Update(func(next *state.Snapshot) {
		next.Catalog.Filter = filter
		next.Catalog.Loading = true
	})

	listings, err := srv.listingRepo.FindPublic(ctx, filter)

	_, applied := srv.store.UpdateIf(func(next *state.Snapshot) bool {
		if srv.publicSeq.Load() != seq {
			return false
		}
		next.Catalog.Loading = false
		if err != nil {
			next.Catalog.Err = readError(gatewayError(err, "list public"))

			return true
		}
		next.Catalog.Public = listings
		next.Catalog.Err = ""

		return true
	})
	if !applied {
		srv.log(ctx).Debug("Discarding superseded catalog result", slog.Uint64("seq", seq))
	}

	if err != nil {
		return nil, gatewayError(err, "list public")
	}

	return listings, nil
}

func (srv *listingService) Search(filter entity.ListingFilter) {
	filter = filter.Normalized()
	srv.store.Update(func(next *state.Snapshot) {
		next.Catalog.Filter = filter
	})

	srv.debouncer.Trigger(func() {
		ctx, cancel := background(srv.baseCtx, srv.baseCtx)
		defer cancel()

		if _, err := srv.ListPublic(ctx, filter); err != nil {
			srv.log(ctx).Warn("Debounced search failed", slog.Any("error", err))
		}
	})
}

func (srv *listingService) ListOwnedBy(ctx context.Context, userID uuid.UUID) ([]*entity.Listing, error) {
	listings, err := srv.listingRepo.FindByOwner(ctx, userID)
	if err != nil {
		srv.store.Update(func(next *state.Snapshot) {
			next.Catalog.OwnedErr = readError(gatewayError(err, "list owned"))
		})

		return nil, gatewayError(err, "list owned")
	}

	srv.store.UpdateIf(func(next *state.Snapshot) bool {
		if next.UserID() != userID {
			return false
		}
		next.Catalog.Owned = listings
		next.Catalog.OwnedErr = ""

		return true
	})

	return listings, nil
}

func (srv *listingService) FetchByID(ctx context.Context, id uuid.UUID) (*entity.Listing, error) {
	listing, err := srv.listingRepo.FindByID(ctx, id)
	if err != nil {
		srv.store.Update(func(next *state.Snapshot) {
			if next.Catalog.Current != nil && next.Catalog.Current.ID == id {
				next.Catalog.Current = nil
			}
		})

		return nil, gatewayError(err, "fetch listing")
	}

	srv.store.Update(func(next *state.Snapshot) {
		next.Catalog.Current = listing
	})

	return listing, nil
}

// Create validates the draft, uploads the images and inserts the listing.
func (srv *listingService) Create(ctx context.Context, draft *entity.ListingDraft, images []*entity.ImageUpload) (*entity.Listing, error) {
	user, err := requireUser(srv.store)
	if err != nil {
		return nil, err
	}
	if draft == nil {
		return nil, domainerrors.ErrValidationFailed.WithDetails("missing listing")
	}

	price, err := entity.ParsePrice(draft.Price)
	if err != nil {
		return nil, domainerrors.ErrInvalidPrice
	}
	if err := srv.validate.Struct(draft); err != nil {
		return nil, domainerrors.ErrValidationFailed.WithDetails(validation.Describe(err))
	}
	if strings.TrimSpace(draft.Title) == "" || strings.TrimSpace(draft.City) == "" {
		return nil, domainerrors.ErrValidationFailed.WithDetails("title and city must not be blank")
	}
	if len(images) < entity.MinImages || len(images) > entity.MaxImages {
		return nil, domainerrors.ErrInvalidImageCount
	}

	srv.log(ctx).Info("Creating listing", slog.Any("user_id", user.ID), slog.Int("images", len(images)))

	urls := make([]string, 0, len(images))
	for _, image := range images {
		key := util.ListingImageKey(user.ID, image.Extension(), srv.now())
		url, err := srv.storage.Upload(ctx, key, image.ContentType, image.Data)
		if err != nil {
			return nil, errors.Wrap(domainerrors.ErrUploadFailed.WithDetails(err.Error()), "upload listing image")
		}
		urls = append(urls, url)
	}

	listing := &entity.Listing{
		UserID:   user.ID,
		Title:    strings.TrimSpace(draft.Title),
		Price:    price,
		Currency: constants.DefaultCurrency,
		Location: entity.Location{
			City:   strings.TrimSpace(draft.City),
			Region: draft.Region,
		},
		Images:      urls,
		CategoryID:  draft.CategoryID,
		IsPremium:   draft.IsPremium,
		IsActive:    true,
		TrustTier:   user.TrustTier,
		SellerName:  user.Name,
		Description: strings.TrimSpace(draft.Description),
	}
	if err := srv.listingRepo.Create(ctx, listing); err != nil {
		return nil, gatewayError(err, "create listing")
	}

	srv.refresh(ctx, user.ID)

	return listing, nil
}

func (srv *listingService) Update(ctx context.Context, id uuid.UUID, patch *entity.ListingPatch) (*entity.Listing, error) {
	user, err := requireUser(srv.store)
	if err != nil {
		return nil, err
	}
	if patch.IsEmpty() {
		return nil, domainerrors.ErrValidationFailed.WithDetails("nothing to update")
	}
	if err := validatePatch(patch); err != nil {
		return nil, err
	}
	if _, err := srv.ownedListing(ctx, user.ID, id); err != nil {
		return nil, err
	}

	now := srv.now()
	patch.UpdatedAt = &now
	if err := srv.listingRepo.Update(ctx, id, patch); err != nil {
		return nil, gatewayError(err, "update listing")
	}

	listing, err := srv.FetchByID(ctx, id)
	if err != nil {
		return nil, err
	}
	srv.refresh(ctx, user.ID)

	return listing, nil
}

// Delete removes the listing from every cache before the remote delete.
func (srv *listingService) Delete(ctx context.Context, id uuid.UUID) (usecase.OptimisticOutcome, error) {
	user, err := requireUser(srv.store)
	if err != nil {
		return usecase.OutcomeNotApplied, err
	}
	if _, err := srv.ownedListing(ctx, user.ID, id); err != nil {
		return usecase.OutcomeNotApplied, err
	}

	srv.store.Update(func(next *state.Snapshot) {
		next.Catalog.Public = state.RemoveListing(next.Catalog.Public, id)
		next.Catalog.Owned = state.RemoveListing(next.Catalog.Owned, id)
		next.Favorites.Listings = state.RemoveListing(next.Favorites.Listings, id)
		if next.Catalog.Current != nil && next.Catalog.Current.ID == id {
			next.Catalog.Current = nil
		}
	})

	if err := srv.listingRepo.Delete(ctx, id); err != nil {
		srv.log(ctx).Error("Remote listing delete failed", slog.Any("listing_id", id), slog.Any("error", err))

		return usecase.OutcomeAppliedThenRemoteFailed, gatewayError(err, "delete listing")
	}

	return usecase.OutcomeApplied, nil
}

// SetActive toggles visibility; deactivated listings leave the public and favorites views.
func (srv *listingService) SetActive(ctx context.Context, id uuid.UUID, active bool) (usecase.OptimisticOutcome, error) {
	user, err := requireUser(srv.store)
	if err != nil {
		return usecase.OutcomeNotApplied, err
	}
	listing, err := srv.ownedListing(ctx, user.ID, id)
	if err != nil {
		return usecase.OutcomeNotApplied, err
	}

	updated := listing.Clone()
	updated.IsActive = active
	srv.store.Update(func(next *state.Snapshot) {
		next.Catalog.Owned = state.ReplaceListing(next.Catalog.Owned, updated)
		if next.Catalog.Current != nil && next.Catalog.Current.ID == id {
			next.Catalog.Current = updated
		}
		if active {
			next.Catalog.Public = state.ReplaceListing(next.Catalog.Public, updated)
			next.Favorites.Listings = state.ReplaceListing(next.Favorites.Listings, updated)
		} else {
			next.Catalog.Public = state.RemoveListing(next.Catalog.Public, id)
			next.Favorites.Listings = state.RemoveListing(next.Favorites.Listings, id)
		}
	})

	if err := srv.listingRepo.SetActive(ctx, id, active); err != nil {
		srv.log(ctx).Error("Remote visibility change failed", slog.Any("listing_id", id), slog.Any("error", err))

		return usecase.OutcomeAppliedThenRemoteFailed, gatewayError(err, "set listing active")
	}

	return usecase.OutcomeApplied, nil
}

func (srv *listingService) Reconcile(ctx context.Context) error {
	snap := srv.store.Snapshot()

	var errs []error
	if _, err := srv.ListPublic(ctx, snap.Catalog.Filter); err != nil {
		errs = append(errs, err)
	}
	if userID := snap.UserID(); userID != uuid.Nil {
		if _, err := srv.ListOwnedBy(ctx, userID); err != nil {
			errs = append(errs, err)
		}
	}

	return errors.Join(errs...)
}

func (srv *listingService) IncrementViewCount(ctx context.Context, id uuid.UUID) {
	go func() {
		bgCtx, cancel := background(srv.baseCtx, ctx)
		defer cancel()

		srv.incrementViews(bgCtx, id)
	}()
}

func (srv *listingService) incrementViews(ctx context.Context, id uuid.UUID) {
	err := srv.listingRepo.IncrementViews(ctx, id)
	if errors.Is(err, repository.ErrAtomicIncrementUnsupported) {
		var listing *entity.Listing
		listing, err = srv.listingRepo.FindByID(ctx, id)
		if err == nil {
			err = srv.listingRepo.SetViews(ctx, id, listing.ViewsCount+1)
		}
	}
	if err != nil {
		srv.log(ctx).Debug("View count not incremented", slog.Any("listing_id", id), slog.Any("error", err))

		return
	}

	srv.store.Update(func(next *state.Snapshot) {
		if current := next.Catalog.Current; current != nil && current.ID == id {
			bumped := current.Clone()
			bumped.ViewsCount++
			next.Catalog.Current = bumped
		}
	})
}

func (srv *listingService) FetchCategories(ctx context.Context) ([]*entity.Category, error) {
	if cached := srv.store.Snapshot().Categories; len(cached) > 0 {
		return cached, nil
	}

	categories, err := srv.categoryRepo.FindAll(ctx)
	if err != nil {
		return nil, gatewayError(err, "fetch categories")
	}

	srv.store.Update(func(next *state.Snapshot) {
		next.Categories = categories
	})

	return categories, nil
}

func (srv *listingService) ShareCode(ctx context.Context, id uuid.UUID) ([]byte, error) {
	listing, err := srv.listingRepo.FindByID(ctx, id)
	if err != nil {
		return nil, gatewayError(err, "find listing")
	}
	if !listing.VisibleTo(srv.store.Snapshot().UserID()) {
		return nil, domainerrors.ErrListingNotFound
	}

	png, err := srv.qrCode.GenerateListingQR(listing.ID)
	if err != nil {
		return nil, errors.Wrap(domainerrors.ErrInternalError.WithDetails(err.Error()), "generate share code")
	}

	return png, nil
}

// ownedListing resolves id through the local caches, falling back to the gateway,
// and checks that userID owns it.
func (srv *listingService) ownedListing(ctx context.Context, userID, id uuid.UUID) (*entity.Listing, error) {
	snap := srv.store.Snapshot()

	listing := findListing(snap.Catalog.Owned, id)
	if listing == nil && snap.Catalog.Current != nil && snap.Catalog.Current.ID == id {
		listing = snap.Catalog.Current
	}
	if listing == nil {
		listing = findListing(snap.Catalog.Public, id)
	}
	if listing == nil {
		fetched, err := srv.listingRepo.FindByID(ctx, id)
		if err != nil {
			return nil, gatewayError(err, "find listing")
		}
		listing = fetched
	}

	if listing.UserID != userID {
		return nil, domainerrors.ErrNotListingOwner
	}

	return listing, nil
}

// refresh re-reads both list caches after a successful write.
func (srv *listingService) refresh(ctx context.Context, userID uuid.UUID) {
	if _, err := srv.ListOwnedBy(ctx, userID); err != nil {
		srv.log(ctx).Warn("Owned listings refresh failed", slog.Any("error", err))
	}
	if _, err := srv.ListPublic(ctx, srv.store.Snapshot().Catalog.Filter); err != nil {
		srv.log(ctx).Warn("Public listings refresh failed", slog.Any("error", err))
	}
}

func validatePatch(patch *entity.ListingPatch) error {
	if patch.Title != nil && strings.TrimSpace(*patch.Title) == "" {
		return domainerrors.ErrValidationFailed.WithDetails("title: notblank")
	}
	if patch.Price != nil && *patch.Price <= 0 {
		return domainerrors.ErrInvalidPrice
	}
	if patch.City != nil && strings.TrimSpace(*patch.City) == "" {
		return domainerrors.ErrValidationFailed.WithDetails("city: notblank")
	}
	if patch.Region != nil && !entity.IsKnownRegion(*patch.Region) {
		return domainerrors.ErrValidationFailed.WithDetails("region: region")
	}
	if patch.Images != nil && (len(patch.Images) < entity.MinImages || len(patch.Images) > entity.MaxImages) {
		return domainerrors.ErrInvalidImageCount
	}

	return nil
}

func findListing(listings []*entity.Listing, id uuid.UUID) *entity.Listing {
	for _, listing := range listings {
		if listing.ID == id {
			return listing
		}
	}

	return nil
}
