package impl

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"storefront/internal/domain/constants"
	domainerrors "storefront/internal/domain/errors"
	"storefront/internal/infra/localstore"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFavoriteService_ToggleTwiceRestoresState(t *testing.T) {
	ctx := context.Background()
	b := newBackend(t)
	seller := b.newClient(t)
	seller.signUp(t, "Jana", "jana@example.sk")
	listing := seller.createListing(t, "Bicykel")

	buyer := b.newClient(t)
	user := buyer.signUp(t, "Peter", "peter@example.sk")

	member, err := buyer.favorites.Toggle(ctx, listing.ID)
	require.NoError(t, err)
	assert.True(t, member)
	assert.True(t, buyer.favorites.IsFavorite(listing.ID))

	member, err = buyer.favorites.Toggle(ctx, listing.ID)
	require.NoError(t, err)
	assert.False(t, member)

	assert.False(t, buyer.favorites.IsFavorite(listing.ID))
	remote, err := b.gw.Favorites().FindListingIDs(ctx, user.ID)
	require.NoError(t, err)
	assert.Empty(t, remote)

	raw, ok, err := buyer.local.Get(ctx, constants.LocalKeyFavorites)
	require.NoError(t, err)
	require.True(t, ok)
	var persisted persistedFavorites
	require.NoError(t, json.Unmarshal([]byte(raw), &persisted))
	assert.Empty(t, persisted.IDs)
	assert.Equal(t, user.ID, persisted.Owner)
}

func TestFavoriteService_AnonymousToggleIsPushedExactlyOnceAfterLogin(t *testing.T) {
	ctx := context.Background()
	b := newBackend(t)
	seller := b.newClient(t)
	seller.signUp(t, "Jana", "jana@example.sk")
	first := seller.createListing(t, "Bicykel")
	second := seller.createListing(t, "Lampa")

	buyer := b.newClient(t)
	user := buyer.signUp(t, "Peter", "peter@example.sk")
	_, err := buyer.favorites.Toggle(ctx, second.ID)
	require.NoError(t, err)
	require.NoError(t, buyer.session.Logout(ctx))
	addsBefore := b.gw.Calls("favorites.Add")

	member, err := buyer.favorites.Toggle(ctx, first.ID)
	require.NoError(t, err)
	assert.True(t, member)
	assert.Equal(t, addsBefore, b.gw.Calls("favorites.Add"), "anonymous toggle stays local")

	buyer.signIn(t, "peter@example.sk")

	assert.Equal(t, addsBefore+1, b.gw.Calls("favorites.Add"))
	remote, err := b.gw.Favorites().FindListingIDs(ctx, user.ID)
	require.NoError(t, err)
	assert.ElementsMatch(t, []uuid.UUID{first.ID, second.ID}, remote)

	snap := buyer.store.Snapshot()
	assert.ElementsMatch(t, []uuid.UUID{first.ID, second.ID}, snap.Favorites.FavoriteIDs())
	assert.Equal(t, user.ID, snap.Favorites.Owner)
	assert.Len(t, snap.Favorites.Listings, 2)

	require.NoError(t, buyer.session.Logout(ctx))
	buyer.signIn(t, "peter@example.sk")
	assert.Equal(t, addsBefore+1, b.gw.Calls("favorites.Add"))
}

func TestFavoriteService_MergeDropsDeletedListings(t *testing.T) {
	ctx := context.Background()
	b := newBackend(t)
	buyer := b.newClient(t)
	buyer.signUp(t, "Peter", "peter@example.sk")
	require.NoError(t, buyer.session.Logout(ctx))

	gone := uuid.New()
	_, err := buyer.favorites.Toggle(ctx, gone)
	require.NoError(t, err)

	buyer.signIn(t, "peter@example.sk")

	assert.False(t, buyer.favorites.IsFavorite(gone))
}

func TestFavoriteService_RemoteFailureKeepsLocalFlip(t *testing.T) {
	ctx := context.Background()
	b := newBackend(t)
	seller := b.newClient(t)
	seller.signUp(t, "Jana", "jana@example.sk")
	listing := seller.createListing(t, "Bicykel")

	buyer := b.newClient(t)
	buyer.signUp(t, "Peter", "peter@example.sk")

	b.gw.FailNext("favorites.Add", errors.New("network unreachable"))
	member, err := buyer.favorites.Toggle(ctx, listing.ID)
	require.Error(t, err)
	assert.True(t, member)
	assert.Equal(t, domainerrors.KindTransientNetwork, domainerrors.KindOf(err))
	assert.True(t, buyer.favorites.IsFavorite(listing.ID))
}

func TestFavoriteService_FetchAdoptsRemoteSet(t *testing.T) {
	ctx := context.Background()
	b := newBackend(t)
	seller := b.newClient(t)
	seller.signUp(t, "Jana", "jana@example.sk")
	kept := seller.createListing(t, "Bicykel")
	dropped := seller.createListing(t, "Lampa")

	buyer := b.newClient(t)
	user := buyer.signUp(t, "Peter", "peter@example.sk")
	_, err := buyer.favorites.Toggle(ctx, kept.ID)
	require.NoError(t, err)
	_, err = buyer.favorites.Toggle(ctx, dropped.ID)
	require.NoError(t, err)

	require.NoError(t, b.gw.Favorites().Remove(ctx, user.ID, dropped.ID))
	require.NoError(t, buyer.favorites.Fetch(ctx))

	assert.Equal(t, []uuid.UUID{kept.ID}, buyer.store.Snapshot().Favorites.FavoriteIDs())
}

func TestFavoriteService_LoadRestoresPersistedSet(t *testing.T) {
	ctx := context.Background()
	b := newBackend(t)

	local, err := localstore.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = local.Close() })

	id := uuid.New()
	first := b.newClientWithLocalStore(t, local)
	_, err = first.favorites.Toggle(ctx, id)
	require.NoError(t, err)

	restarted := b.newClientWithLocalStore(t, local)
	require.NoError(t, restarted.favorites.Load(ctx))
	assert.True(t, restarted.favorites.IsFavorite(id))
	assert.Equal(t, uuid.Nil, restarted.store.Snapshot().Favorites.Owner)

	legacy := uuid.New()
	require.NoError(t, local.Set(ctx, constants.LocalKeyFavorites, `["`+legacy.String()+`"]`))
	require.NoError(t, restarted.favorites.Load(ctx))
	assert.Equal(t, []uuid.UUID{legacy}, restarted.store.Snapshot().Favorites.FavoriteIDs())
}

func TestFavoriteService_LogoutClearsPersistedSet(t *testing.T) {
	ctx := context.Background()
	b := newBackend(t)
	buyer := b.newClient(t)
	buyer.signUp(t, "Peter", "peter@example.sk")
	require.NoError(t, buyer.session.Logout(ctx))

	_, ok, err := buyer.local.Get(ctx, constants.LocalKeyFavorites)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Empty(t, buyer.store.Snapshot().Favorites.IDs)
}

func TestFavoriteService_RestoredSetOfAnotherAccountIsNotMerged(t *testing.T) {
	ctx := context.Background()
	b := newBackend(t)
	seller := b.newClient(t)
	seller.signUp(t, "Jana", "jana@example.sk")
	listing := seller.createListing(t, "Bicykel")

	local, err := localstore.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = local.Close() })

	alice := b.newClientWithLocalStore(t, local)
	alice.signUp(t, "Alica", "alica@example.sk")
	_, err = alice.favorites.Toggle(ctx, listing.ID)
	require.NoError(t, err)

	restarted := b.newClientWithLocalStore(t, local)
	require.NoError(t, restarted.favorites.Load(ctx))
	require.True(t, restarted.favorites.IsFavorite(listing.ID))

	bob := restarted.signUp(t, "Bob", "bob@example.sk")

	remote, err := b.gw.Favorites().FindListingIDs(ctx, bob.ID)
	require.NoError(t, err)
	assert.Empty(t, remote)
	assert.False(t, restarted.favorites.IsFavorite(listing.ID))
	assert.Equal(t, bob.ID, restarted.store.Snapshot().Favorites.Owner)

	raw, ok, err := local.Get(ctx, constants.LocalKeyFavorites)
	require.NoError(t, err)
	require.True(t, ok)
	assert.NotContains(t, raw, listing.ID.String())
}
