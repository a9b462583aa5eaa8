package impl

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"storefront/internal/domain/entity"
	domainerrors "storefront/internal/domain/errors"
	"storefront/internal/domain/repository"
	"storefront/internal/infra/persistence/memory"
	"storefront/internal/state"
	"storefront/internal/usecase"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/fx/fxtest"
)

func listingIDs(listings []*entity.Listing) []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(listings))
	for _, listing := range listings {
		ids = append(ids, listing.ID)
	}

	return ids
}

func TestListingService_ListPublicReturnsOnlyActiveListings(t *testing.T) {
	ctx := context.Background()
	b := newBackend(t)
	seller := b.newClient(t)
	seller.signUp(t, "Jana", "jana@example.sk")

	visible := seller.createListing(t, "Bicykel")
	hidden := seller.createListing(t, "Lampa")
	outcome, err := seller.listings.SetActive(ctx, hidden.ID, false)
	require.NoError(t, err)
	assert.Equal(t, usecase.OutcomeApplied, outcome)

	for _, filter := range []entity.ListingFilter{
		{},
		{TextQuery: "a"},
		{CategoryID: "electro"},
		{RegionID: "ba"},
	} {
		listings, err := seller.listings.ListPublic(ctx, filter)
		require.NoError(t, err)
		for _, listing := range listings {
			assert.True(t, listing.IsActive, "filter %+v returned inactive listing", filter)
		}
		assert.NotContains(t, listingIDs(listings), hidden.ID)
	}

	listings, err := seller.listings.ListPublic(ctx, entity.ListingFilter{TextQuery: "  BICY "})
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{visible.ID}, listingIDs(listings))
	assert.Equal(t, "BICY", seller.store.Snapshot().Catalog.Filter.TextQuery)
}

func TestListingService_CreateThenListOwnedBy(t *testing.T) {
	ctx := context.Background()
	b := newBackend(t)
	seller := b.newClient(t)
	user := seller.signUp(t, "Jana", "jana@example.sk")

	created, err := seller.listings.Create(ctx, testDraft(" iPhone 13 "), testImages(3))
	require.NoError(t, err)

	owned, err := seller.listings.ListOwnedBy(ctx, user.ID)
	require.NoError(t, err)
	require.Len(t, owned, 1)

	got := owned[0]
	assert.Equal(t, created.ID, got.ID)
	assert.Equal(t, "iPhone 13", got.Title)
	assert.InDelta(t, 120.5, got.Price, 0.0001)
	assert.Equal(t, "€", got.Currency)
	assert.Equal(t, entity.Location{City: "Bratislava", Region: "ba"}, got.Location)
	assert.Equal(t, "Elektronika", got.CategoryName)
	assert.Equal(t, "Jana", got.SellerName)
	assert.True(t, got.IsActive)
	require.Len(t, got.Images, 3)
	for _, image := range got.Images {
		assert.Regexp(t, `^https://cdn\.storefront\.test/`+user.ID.String()+`/\d+_[0-9a-f]{8}\.png$`, image)
	}

	snap := seller.store.Snapshot()
	assert.Equal(t, []uuid.UUID{created.ID}, listingIDs(snap.Catalog.Owned))
	assert.Contains(t, listingIDs(snap.Catalog.Public), created.ID)
}

func TestListingService_CreateValidatesBeforeAnyNetworkCall(t *testing.T) {
	ctx := context.Background()
	b := newBackend(t)
	seller := b.newClient(t)
	seller.signUp(t, "Jana", "jana@example.sk")

	tests := []struct {
		name    string
		draft   func() *entity.ListingDraft
		images  int
		wantErr error
	}{
		{
			name:    "zero price",
			draft:   func() *entity.ListingDraft { d := testDraft("Stol"); d.Price = "0"; return d },
			images:  1,
			wantErr: domainerrors.ErrInvalidPrice,
		},
		{
			name:    "negative price",
			draft:   func() *entity.ListingDraft { d := testDraft("Stol"); d.Price = "-5"; return d },
			images:  1,
			wantErr: domainerrors.ErrInvalidPrice,
		},
		{
			name:    "unparsable price",
			draft:   func() *entity.ListingDraft { d := testDraft("Stol"); d.Price = "lacno"; return d },
			images:  1,
			wantErr: domainerrors.ErrInvalidPrice,
		},
		{
			name:    "unknown region",
			draft:   func() *entity.ListingDraft { d := testDraft("Stol"); d.Region = "xx"; return d },
			images:  1,
			wantErr: domainerrors.ErrValidationFailed,
		},
		{
			name:    "missing title",
			draft:   func() *entity.ListingDraft { return testDraft("") },
			images:  1,
			wantErr: domainerrors.ErrValidationFailed,
		},
		{
			name:    "no images",
			draft:   func() *entity.ListingDraft { return testDraft("Stol") },
			images:  0,
			wantErr: domainerrors.ErrInvalidImageCount,
		},
		{
			name:    "four images",
			draft:   func() *entity.ListingDraft { return testDraft("Stol") },
			images:  4,
			wantErr: domainerrors.ErrInvalidImageCount,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := seller.listings.Create(ctx, tt.draft(), testImages(tt.images))
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.Equal(t, domainerrors.KindValidation, domainerrors.KindOf(err))
		})
	}

	assert.Zero(t, b.gw.Calls("listings.Create"))

	_, err := seller.listings.Create(ctx, testDraft("Stol"), testImages(3))
	require.NoError(t, err)
	assert.Equal(t, 1, b.gw.Calls("listings.Create"))
}

func TestListingService_MutationsRequireSession(t *testing.T) {
	ctx := context.Background()
	b := newBackend(t)
	anonymous := b.newClient(t)

	_, err := anonymous.listings.Create(ctx, testDraft("Stol"), testImages(1))
	require.ErrorIs(t, err, domainerrors.ErrAuthRequired)
	assert.Equal(t, domainerrors.KindAuth, domainerrors.KindOf(err))
	assert.True(t, anonymous.store.Snapshot().Session.AuthPromptOpen)

	outcome, err := anonymous.listings.Delete(ctx, uuid.New())
	require.ErrorIs(t, err, domainerrors.ErrAuthRequired)
	assert.Equal(t, usecase.OutcomeNotApplied, outcome)
	assert.Zero(t, b.gw.Calls("listings.Delete"))
}

func TestListingService_OwnershipIsEnforced(t *testing.T) {
	ctx := context.Background()
	b := newBackend(t)
	seller := b.newClient(t)
	seller.signUp(t, "Jana", "jana@example.sk")
	listing := seller.createListing(t, "Bicykel")

	other := b.newClient(t)
	other.signUp(t, "Peter", "peter@example.sk")

	title := "Ukradnuty"
	_, err := other.listings.Update(ctx, listing.ID, &entity.ListingPatch{Title: &title})
	require.ErrorIs(t, err, domainerrors.ErrNotListingOwner)
	assert.Equal(t, domainerrors.KindPermission, domainerrors.KindOf(err))

	outcome, err := other.listings.SetActive(ctx, listing.ID, false)
	require.ErrorIs(t, err, domainerrors.ErrNotListingOwner)
	assert.Equal(t, usecase.OutcomeNotApplied, outcome)
	assert.Zero(t, b.gw.Calls("listings.Update"))
	assert.Zero(t, b.gw.Calls("listings.SetActive"))
}

func TestListingService_UpdateAppliesOnlySuppliedFields(t *testing.T) {
	ctx := context.Background()
	b := newBackend(t)
	seller := b.newClient(t)
	seller.signUp(t, "Jana", "jana@example.sk")
	listing := seller.createListing(t, "Bicykel")

	price := 99.0
	updated, err := seller.listings.Update(ctx, listing.ID, &entity.ListingPatch{Price: &price})
	require.NoError(t, err)
	assert.Equal(t, "Bicykel", updated.Title)
	assert.InDelta(t, 99.0, updated.Price, 0.0001)
	assert.True(t, updated.UpdatedAt.After(listing.UpdatedAt) || updated.UpdatedAt.Equal(listing.UpdatedAt))

	snap := seller.store.Snapshot()
	require.NotNil(t, snap.Catalog.Current)
	assert.InDelta(t, 99.0, snap.Catalog.Current.Price, 0.0001)
	assert.InDelta(t, 99.0, snap.Catalog.Owned[0].Price, 0.0001)

	zero := 0.0
	_, err = seller.listings.Update(ctx, listing.ID, &entity.ListingPatch{Price: &zero})
	require.ErrorIs(t, err, domainerrors.ErrInvalidPrice)

	_, err = seller.listings.Update(ctx, listing.ID, &entity.ListingPatch{})
	require.ErrorIs(t, err, domainerrors.ErrValidationFailed)
}

func TestListingService_SetActiveFalseHidesFromPublicAndFavorites(t *testing.T) {
	ctx := context.Background()
	b := newBackend(t)
	seller := b.newClient(t)
	seller.signUp(t, "Jana", "jana@example.sk")
	listing := seller.createListing(t, "Bicykel")

	buyer := b.newClient(t)
	buyer.signUp(t, "Peter", "peter@example.sk")
	_, err := buyer.favorites.Toggle(ctx, listing.ID)
	require.NoError(t, err)
	_, err = buyer.favorites.FetchListings(ctx)
	require.NoError(t, err)
	require.Len(t, buyer.store.Snapshot().Favorites.Listings, 1)

	_, err = seller.favorites.Toggle(ctx, listing.ID)
	require.NoError(t, err)
	_, err = seller.favorites.FetchListings(ctx)
	require.NoError(t, err)

	outcome, err := seller.listings.SetActive(ctx, listing.ID, false)
	require.NoError(t, err)
	assert.Equal(t, usecase.OutcomeApplied, outcome)

	snap := seller.store.Snapshot()
	assert.NotContains(t, listingIDs(snap.Catalog.Public), listing.ID)
	assert.NotContains(t, listingIDs(snap.Favorites.Listings), listing.ID)
	require.Len(t, snap.Catalog.Owned, 1)
	assert.False(t, snap.Catalog.Owned[0].IsActive)

	public, err := buyer.listings.ListPublic(ctx, entity.ListingFilter{})
	require.NoError(t, err)
	assert.NotContains(t, listingIDs(public), listing.ID)

	favorites, err := buyer.favorites.FetchListings(ctx)
	require.NoError(t, err)
	assert.Empty(t, favorites)
	assert.True(t, buyer.favorites.IsFavorite(listing.ID), "the favorite itself is kept")

	owned, err := seller.listings.ListOwnedBy(ctx, listing.UserID)
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{listing.ID}, listingIDs(owned))
}

func TestListingService_DeleteIsOptimistic(t *testing.T) {
	ctx := context.Background()
	b := newBackend(t)
	seller := b.newClient(t)
	seller.signUp(t, "Jana", "jana@example.sk")
	listing := seller.createListing(t, "Bicykel")
	_, err := seller.listings.FetchByID(ctx, listing.ID)
	require.NoError(t, err)

	b.gw.FailNext("listings.Delete", errors.New("connection reset"))

	outcome, err := seller.listings.Delete(ctx, listing.ID)
	require.Error(t, err)
	assert.Equal(t, usecase.OutcomeAppliedThenRemoteFailed, outcome)
	assert.Equal(t, domainerrors.KindTransientNetwork, domainerrors.KindOf(err))

	snap := seller.store.Snapshot()
	assert.NotContains(t, listingIDs(snap.Catalog.Public), listing.ID)
	assert.NotContains(t, listingIDs(snap.Catalog.Owned), listing.ID)
	assert.Nil(t, snap.Catalog.Current)

	require.NoError(t, seller.listings.Reconcile(ctx))
	assert.Contains(t, listingIDs(seller.store.Snapshot().Catalog.Owned), listing.ID)

	outcome, err = seller.listings.Delete(ctx, listing.ID)
	require.NoError(t, err)
	assert.Equal(t, usecase.OutcomeApplied, outcome)

	_, err = seller.listings.FetchByID(ctx, listing.ID)
	require.ErrorIs(t, err, domainerrors.ErrListingNotFound)
	assert.Equal(t, domainerrors.KindNotFound, domainerrors.KindOf(err))
}

func TestListingService_ReadFailureSetsCatalogError(t *testing.T) {
	ctx := context.Background()
	b := newBackend(t)
	c := b.newClient(t)

	b.gw.FailNext("listings.FindPublic", errors.New("timeout"))
	_, err := c.listings.ListPublic(ctx, entity.ListingFilter{})
	require.Error(t, err)

	snap := c.store.Snapshot()
	assert.NotEmpty(t, snap.Catalog.Err)
	assert.False(t, snap.Catalog.Loading)

	_, err = c.listings.ListPublic(ctx, entity.ListingFilter{})
	require.NoError(t, err)
	assert.Empty(t, c.store.Snapshot().Catalog.Err)
}

func TestListingService_OwnedReadFailureKeepsPublicCatalogHealthy(t *testing.T) {
	ctx := context.Background()
	b := newBackend(t)
	c := b.newClient(t)
	user := c.signUp(t, "Jana", "jana@example.sk")
	c.createListing(t, "Bicykel")

	_, err := c.listings.ListPublic(ctx, entity.ListingFilter{})
	require.NoError(t, err)

	b.gw.FailNext("listings.FindByOwner", errors.New("timeout"))
	_, err = c.listings.ListOwnedBy(ctx, user.ID)
	require.Error(t, err)

	snap := c.store.Snapshot()
	assert.NotEmpty(t, snap.Catalog.OwnedErr)
	assert.Empty(t, snap.Catalog.Err)
	assert.NotEmpty(t, snap.Catalog.Public)

	_, err = c.listings.ListOwnedBy(ctx, user.ID)
	require.NoError(t, err)
	snap = c.store.Snapshot()
	assert.Empty(t, snap.Catalog.OwnedErr)
	assert.Len(t, snap.Catalog.Owned, 1)
}

// gatedListingRepository blocks FindPublic for one text query until released.
type gatedListingRepository struct {
	repository.ListingRepository

	blockQuery string
	issued     chan struct{}
	release    chan struct{}
}

func (r *gatedListingRepository) FindPublic(ctx context.Context, filter entity.ListingFilter) ([]*entity.Listing, error) {
	if filter.TextQuery == r.blockQuery {
		close(r.issued)
		<-r.release
	}

	return r.ListingRepository.FindPublic(ctx, filter)
}

func TestListingService_SupersededQueryIsDiscarded(t *testing.T) {
	ctx := context.Background()
	b := newBackend(t)
	seller := b.newClient(t)
	seller.signUp(t, "Jana", "jana@example.sk")
	iphone := seller.createListing(t, "iPhone 13")
	rolex := seller.createListing(t, "Rolex Submariner")

	repo := &gatedListingRepository{
		ListingRepository: b.gw.Listings(),
		blockQuery:        "iphone",
		issued:            make(chan struct{}),
		release:           make(chan struct{}),
	}
	store := state.New()
	srv := NewListingService(ListingServiceParams{
		Lc:           fxtest.NewLifecycle(t),
		Ctx:          ctx,
		ListingRepo:  repo,
		CategoryRepo: b.gw.Categories(),
		Storage:      b.storage,
		Store:        store,
		Config:       b.cfg,
		Logger:       b.logger,
	})

	slow := make(chan []*entity.Listing)
	go func() {
		listings, err := srv.ListPublic(ctx, entity.ListingFilter{TextQuery: "iphone"})
		assert.NoError(t, err)
		slow <- listings
	}()
	<-repo.issued

	fast, err := srv.ListPublic(ctx, entity.ListingFilter{TextQuery: "rolex"})
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{rolex.ID}, listingIDs(fast))

	close(repo.release)
	assert.Equal(t, []uuid.UUID{iphone.ID}, listingIDs(<-slow))

	snap := store.Snapshot()
	assert.Equal(t, []uuid.UUID{rolex.ID}, listingIDs(snap.Catalog.Public))
	assert.Equal(t, "rolex", snap.Catalog.Filter.TextQuery)
	assert.False(t, snap.Catalog.Loading)
}

func TestListingService_SearchIsDebounced(t *testing.T) {
	b := newBackend(t)
	seller := b.newClient(t)
	seller.signUp(t, "Jana", "jana@example.sk")
	seller.createListing(t, "iPhone 13")
	rolex := seller.createListing(t, "Rolex Submariner")
	before := b.gw.Calls("listings.FindPublic")

	seller.listings.Search(entity.ListingFilter{TextQuery: "iph"})
	seller.listings.Search(entity.ListingFilter{TextQuery: "iphone"})
	seller.listings.Search(entity.ListingFilter{TextQuery: "rolex"})
	assert.Equal(t, "rolex", seller.store.Snapshot().Catalog.Filter.TextQuery)

	require.Eventually(t, func() bool {
		return b.gw.Calls("listings.FindPublic") > before
	}, time.Second, 5*time.Millisecond)
	time.Sleep(60 * time.Millisecond)

	assert.Equal(t, before+1, b.gw.Calls("listings.FindPublic"))
	assert.Equal(t, []uuid.UUID{rolex.ID}, listingIDs(seller.store.Snapshot().Catalog.Public))
}

func TestListingService_IncrementViewsFallsBackToReadThenWrite(t *testing.T) {
	ctx := context.Background()
	b := newBackend(t, memory.WithoutAtomicIncrement())
	seller := b.newClient(t)
	seller.signUp(t, "Jana", "jana@example.sk")
	listing := seller.createListing(t, "Bicykel")
	_, err := seller.listings.FetchByID(ctx, listing.ID)
	require.NoError(t, err)

	srv, ok := seller.listings.(*listingService)
	require.True(t, ok)
	srv.incrementViews(ctx, listing.ID)

	assert.Equal(t, 1, b.gw.Calls("listings.SetViews"))
	stored, err := b.gw.Listings().FindByID(ctx, listing.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, stored.ViewsCount)
	assert.Equal(t, 1, seller.store.Snapshot().Catalog.Current.ViewsCount)

	b.gw.FailNext("listings.FindByID", errors.New("offline"))
	assert.NotPanics(t, func() { srv.incrementViews(ctx, listing.ID) })
}

func TestListingService_IncrementViewCountRunsInBackground(t *testing.T) {
	ctx := context.Background()
	b := newBackend(t)
	seller := b.newClient(t)
	seller.signUp(t, "Jana", "jana@example.sk")
	listing := seller.createListing(t, "Bicykel")

	seller.listings.IncrementViewCount(ctx, listing.ID)

	require.Eventually(t, func() bool {
		stored, err := b.gw.Listings().FindByID(ctx, listing.ID)

		return err == nil && stored.ViewsCount == 1
	}, time.Second, 5*time.Millisecond)
	assert.Zero(t, b.gw.Calls("listings.SetViews"))
}

func TestListingService_CategoriesAreCached(t *testing.T) {
	ctx := context.Background()
	b := newBackend(t)
	c := b.newClient(t)

	first, err := c.listings.FetchCategories(ctx)
	require.NoError(t, err)
	second, err := c.listings.FetchCategories(ctx)
	require.NoError(t, err)

	assert.Len(t, first, len(second))
	assert.Equal(t, 1, b.gw.Calls("categories.FindAll"))
}

func TestListingService_ShareCode(t *testing.T) {
	ctx := context.Background()
	b := newBackend(t)
	seller := b.newClient(t)
	seller.signUp(t, "Jana", "jana@example.sk")
	listing := seller.createListing(t, "Bicykel")

	png, err := seller.listings.ShareCode(ctx, listing.ID)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(png, []byte("\x89PNG")))

	_, err = seller.listings.ShareCode(ctx, uuid.New())
	require.ErrorIs(t, err, domainerrors.ErrListingNotFound)
}
