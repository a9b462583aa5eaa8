package impl

import (
	"context"
	"encoding/json"
	"log/slog"

	deliverycontext "storefront/internal/delivery/context"
	"storefront/internal/domain/constants"
	"storefront/internal/domain/entity"
	"storefront/internal/domain/repository"
	"storefront/internal/domain/service"
	"storefront/internal/errors"
	"storefront/internal/state"
	"storefront/internal/usecase"

	"github.com/google/uuid"
	"go.uber.org/fx"
)

// persistedFavorites is the local store encoding of the favorite set.
type persistedFavorites struct {
	Owner uuid.UUID   `json:"owner"`
	IDs   []uuid.UUID `json:"ids"`
}

type favoriteService struct {
	favoriteRepo repository.FavoriteRepository
	listingRepo  repository.ListingRepository
	localStore   service.LocalStore
	store        *state.Store
	logger       *slog.Logger
}

// FavoriteServiceParams holds dependencies for FavoriteService, injected by Fx.
type FavoriteServiceParams struct {
	fx.In

	FavoriteRepo repository.FavoriteRepository
	ListingRepo  repository.ListingRepository
	LocalStore   service.LocalStore
	Store        *state.Store
	Logger       *slog.Logger
}

// NewFavoriteService is the constructor for favoriteService.
func NewFavoriteService(params FavoriteServiceParams) usecase.FavoriteUsecase {
	return &favoriteService{
		favoriteRepo: params.FavoriteRepo,
		listingRepo:  params.ListingRepo,
		localStore:   params.LocalStore,
		store:        params.Store,
		logger:       params.Logger,
	}
}

// log returns a request-scoped logger if available, otherwise falls back to the service's logger.
func (srv *favoriteService) log(ctx context.Context) *slog.Logger {
	return deliverycontext.GetLoggerOrDefault(ctx, srv.logger)
}

// Toggle flips the membership locally and persists it before touching the gateway.
// The local flip survives a failed remote call.
func (srv *favoriteService) Toggle(ctx context.Context, listingID uuid.UUID) (bool, error) {
	var member bool
	snap := srv.store.Update(func(next *state.Snapshot) {
		if next.Favorites.Has(listingID) {
			delete(next.Favorites.IDs, listingID)
			next.Favorites.Listings = state.RemoveListing(next.Favorites.Listings, listingID)
		} else {
			next.Favorites.IDs[listingID] = struct{}{}
			member = true
		}
		if next.Session.User == nil {
			next.Favorites.Owner = uuid.Nil
		}
	})
	srv.persist(ctx, snap.Favorites)

	userID := snap.UserID()
	if userID == uuid.Nil {
		return member, nil
	}

	var err error
	if member {
		err = srv.favoriteRepo.Add(ctx, userID, listingID)
	} else {
		err = srv.favoriteRepo.Remove(ctx, userID, listingID)
	}
	if err != nil {
		srv.log(ctx).Warn("Remote favorite change failed",
			slog.Any("listing_id", listingID), slog.Bool("favorite", member), slog.Any("error", err))

		return member, gatewayError(err, "toggle favorite")
	}

	return member, nil
}

// Load restores the set written by an earlier process. A plain id array is accepted
// as an anonymous set.
func (srv *favoriteService) Load(ctx context.Context) error {
	raw, ok, err := srv.localStore.Get(ctx, constants.LocalKeyFavorites)
	if err != nil {
		return errors.Wrap(err, "failed to read persisted favorites")
	}
	if !ok {
		return nil
	}

	var persisted persistedFavorites
	if err := json.Unmarshal([]byte(raw), &persisted); err != nil {
		var ids []uuid.UUID
		if legacyErr := json.Unmarshal([]byte(raw), &ids); legacyErr != nil {
			srv.log(ctx).Warn("Discarding unreadable persisted favorites", slog.Any("error", err))

			return nil
		}
		persisted = persistedFavorites{IDs: ids}
	}

	srv.store.Update(func(next *state.Snapshot) {
		next.Favorites.IDs = toSet(persisted.IDs)
		next.Favorites.Owner = persisted.Owner
	})

	return nil
}

// Fetch adopts the remote set.
func (srv *favoriteService) Fetch(ctx context.Context) error {
	snap := srv.store.Snapshot()
	userID := snap.UserID()
	if userID == uuid.Nil {
		return nil
	}

	ids, err := srv.favoriteRepo.FindListingIDs(ctx, userID)
	if err != nil {
		srv.store.Update(func(next *state.Snapshot) {
			next.Favorites.Err = readError(gatewayError(err, "fetch favorites"))
		})

		return gatewayError(err, "fetch favorites")
	}

	srv.adopt(ctx, userID, ids)

	return nil
}

// OnSessionStarted pushes an anonymously built set once, then adopts remote ∪ local.
// A set restored for another account is discarded, never merged.
func (srv *favoriteService) OnSessionStarted(ctx context.Context, user *entity.User) {
	local := srv.store.Snapshot().Favorites
	switch local.Owner {
	case uuid.Nil:
		srv.merge(ctx, user.ID, local)
	case user.ID:
		srv.fetchOnSessionStart(ctx)
	default:
		srv.log(ctx).Info("Discarding favorites of another account", slog.Any("owner", local.Owner))
		srv.discardLocal(ctx)
		srv.fetchOnSessionStart(ctx)
	}

	if _, err := srv.FetchListings(ctx); err != nil {
		srv.log(ctx).Warn("Favorite listings fetch failed", slog.Any("error", err))
	}
}

func (srv *favoriteService) fetchOnSessionStart(ctx context.Context) {
	if err := srv.Fetch(ctx); err != nil {
		srv.log(ctx).Warn("Favorites fetch failed", slog.Any("error", err))
	}
}

func (srv *favoriteService) discardLocal(ctx context.Context) {
	srv.store.Update(func(next *state.Snapshot) {
		next.Favorites.IDs = make(map[uuid.UUID]struct{})
		next.Favorites.Listings = nil
		next.Favorites.Owner = uuid.Nil
	})
	if err := srv.localStore.Delete(ctx, constants.LocalKeyFavorites); err != nil {
		srv.log(ctx).Warn("Failed to clear persisted favorites", slog.Any("error", err))
	}
}

func (srv *favoriteService) OnSessionEnded(ctx context.Context) {
	if err := srv.localStore.Delete(ctx, constants.LocalKeyFavorites); err != nil {
		srv.log(ctx).Warn("Failed to clear persisted favorites", slog.Any("error", err))
	}
}

func (srv *favoriteService) FetchListings(ctx context.Context) ([]*entity.Listing, error) {
	snap := srv.store.Snapshot()
	ids := snap.Favorites.FavoriteIDs()
	if len(ids) == 0 {
		srv.store.Update(func(next *state.Snapshot) {
			next.Favorites.Listings = nil
		})

		return nil, nil
	}

	listings, err := srv.listingRepo.FindByIDs(ctx, ids)
	if err != nil {
		srv.store.Update(func(next *state.Snapshot) {
			next.Favorites.Err = readError(gatewayError(err, "fetch favorite listings"))
		})

		return nil, gatewayError(err, "fetch favorite listings")
	}

	viewerID := snap.UserID()
	visible := make([]*entity.Listing, 0, len(listings))
	for _, listing := range listings {
		if listing.VisibleTo(viewerID) {
			visible = append(visible, listing)
		}
	}

	srv.store.Update(func(next *state.Snapshot) {
		kept := visible[:0:0]
		for _, listing := range visible {
			if next.Favorites.Has(listing.ID) {
				kept = append(kept, listing)
			}
		}
		next.Favorites.Listings = kept
		next.Favorites.Err = ""
	})

	return visible, nil
}

func (srv *favoriteService) IsFavorite(listingID uuid.UUID) bool {
	return srv.store.Snapshot().Favorites.Has(listingID)
}

// merge pushes every local-only id, then adopts the union. Ids whose listing is gone
// are dropped; other push failures keep the id locally.
func (srv *favoriteService) merge(ctx context.Context, userID uuid.UUID, local state.FavoriteState) {
	remote, err := srv.favoriteRepo.FindListingIDs(ctx, userID)
	if err != nil {
		srv.log(ctx).Warn("Favorites fetch failed, keeping local set", slog.Any("error", err))
		srv.store.Update(func(next *state.Snapshot) {
			next.Favorites.Err = readError(gatewayError(err, "fetch favorites"))
		})

		return
	}

	union := toSet(remote)
	for _, id := range local.FavoriteIDs() {
		if _, ok := union[id]; ok {
			continue
		}
		if err := srv.favoriteRepo.Add(ctx, userID, id); err != nil {
			if errors.Is(err, repository.ErrListingNotFound) {
				srv.log(ctx).Debug("Dropping favorite of a deleted listing", slog.Any("listing_id", id))

				continue
			}
			srv.log(ctx).Warn("Favorite push failed", slog.Any("listing_id", id), slog.Any("error", err))
		}
		union[id] = struct{}{}
	}

	srv.log(ctx).Info("Favorites merged", slog.Int("local", len(local.IDs)), slog.Int("remote", len(remote)), slog.Int("merged", len(union)))

	ids := make([]uuid.UUID, 0, len(union))
	for id := range union {
		ids = append(ids, id)
	}
	srv.adopt(ctx, userID, ids)
}

func (srv *favoriteService) adopt(ctx context.Context, userID uuid.UUID, ids []uuid.UUID) {
	snap, applied := srv.store.UpdateIf(func(next *state.Snapshot) bool {
		if next.UserID() != userID {
			return false
		}
		next.Favorites.IDs = toSet(ids)
		next.Favorites.Owner = userID
		next.Favorites.Err = ""

		return true
	})
	if applied {
		srv.persist(ctx, snap.Favorites)
	}
}

func (srv *favoriteService) persist(ctx context.Context, favorites state.FavoriteState) {
	raw, err := json.Marshal(persistedFavorites{Owner: favorites.Owner, IDs: favorites.FavoriteIDs()})
	if err != nil {
		srv.log(ctx).Error("Failed to encode favorites", slog.Any("error", err))

		return
	}
	if err := srv.localStore.Set(ctx, constants.LocalKeyFavorites, string(raw)); err != nil {
		srv.log(ctx).Warn("Failed to persist favorites", slog.Any("error", err))
	}
}

func toSet(ids []uuid.UUID) map[uuid.UUID]struct{} {
	set := make(map[uuid.UUID]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}

	return set
}
