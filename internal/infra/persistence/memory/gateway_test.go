package memory

import (
	"context"
	"testing"
	"time"

	"storefront/internal/domain/entity"
	"storefront/internal/domain/repository"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newListing(owner uuid.UUID, title, category, region string, active bool) *entity.Listing {
	return &entity.Listing{
		UserID:     owner,
		Title:      title,
		Price:      100,
		CategoryID: category,
		Location:   entity.Location{City: "Bratislava", Region: region},
		Images:     []string{"img"},
		IsActive:   active,
	}
}

func TestListingRepository_FindPublicFilters(t *testing.T) {
	ctx := context.Background()
	repo := NewGateway().Listings()
	owner := uuid.New()

	require.NoError(t, repo.Create(ctx, newListing(owner, "Golf GTI", "auto", "ba", true)))
	require.NoError(t, repo.Create(ctx, newListing(owner, "golf clubs", "services", "ke", true)))
	require.NoError(t, repo.Create(ctx, newListing(owner, "Hidden golf", "auto", "ba", false)))
	require.NoError(t, repo.Create(ctx, newListing(owner, "iPhone", "electro", "ba", true)))

	tests := []struct {
		name   string
		filter entity.ListingFilter
		want   []string
	}{
		{name: "No filter", filter: entity.ListingFilter{}, want: []string{"iPhone", "golf clubs", "Golf GTI"}},
		{name: "Case-insensitive text", filter: entity.ListingFilter{TextQuery: " GOLF "}, want: []string{"golf clubs", "Golf GTI"}},
		{name: "Category", filter: entity.ListingFilter{CategoryID: "auto"}, want: []string{"Golf GTI"}},
		{name: "Region and text", filter: entity.ListingFilter{TextQuery: "golf", RegionID: "ke"}, want: []string{"golf clubs"}},
		{name: "No match", filter: entity.ListingFilter{RegionID: "za"}, want: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			listings, err := repo.FindPublic(ctx, tt.filter)
			require.NoError(t, err)

			var titles []string
			for _, l := range listings {
				titles = append(titles, l.Title)
			}
			assert.Equal(t, tt.want, titles)
		})
	}
}

func TestListingRepository_JoinsCategoryNameAndDefaults(t *testing.T) {
	ctx := context.Background()
	repo := NewGateway().Listings()

	listing := newListing(uuid.New(), "Car", "auto", "ba", true)
	require.NoError(t, repo.Create(ctx, listing))
	assert.NotEqual(t, uuid.Nil, listing.ID)
	assert.Equal(t, "€", listing.Currency)

	found, err := repo.FindByID(ctx, listing.ID)
	require.NoError(t, err)
	assert.Equal(t, "Auto-Moto", found.CategoryName)

	_, err = repo.FindByID(ctx, uuid.New())
	assert.ErrorIs(t, err, repository.ErrListingNotFound)
}

func TestListingRepository_IncrementViews(t *testing.T) {
	ctx := context.Background()

	g := NewGateway()
	listing := newListing(uuid.New(), "Car", "auto", "ba", true)
	require.NoError(t, g.Listings().Create(ctx, listing))
	require.NoError(t, g.Listings().IncrementViews(ctx, listing.ID))

	found, err := g.Listings().FindByID(ctx, listing.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, found.ViewsCount)

	plain := NewGateway(WithoutAtomicIncrement())
	require.NoError(t, plain.Listings().Create(ctx, listing))
	assert.ErrorIs(t, plain.Listings().IncrementViews(ctx, listing.ID), repository.ErrAtomicIncrementUnsupported)
}

func TestConversationRepository_UniqueKey(t *testing.T) {
	ctx := context.Background()
	repo := NewGateway().Conversations()
	key := entity.ConversationKey{ListingID: uuid.New(), BuyerID: uuid.New(), SellerID: uuid.New()}

	first := &entity.Conversation{ListingID: key.ListingID, BuyerID: key.BuyerID, SellerID: key.SellerID}
	require.NoError(t, repo.Create(ctx, first))

	second := &entity.Conversation{ListingID: key.ListingID, BuyerID: key.BuyerID, SellerID: key.SellerID}
	assert.ErrorIs(t, repo.Create(ctx, second), repository.ErrDuplicateConversation)

	found, err := repo.FindByKey(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, first.ID, found.ID)
}

func TestMessageRepository_ReadTracking(t *testing.T) {
	ctx := context.Background()
	g := NewGateway()
	buyer, seller := uuid.New(), uuid.New()

	conversation := &entity.Conversation{ListingID: uuid.New(), BuyerID: buyer, SellerID: seller}
	require.NoError(t, g.Conversations().Create(ctx, conversation))

	for _, sender := range []uuid.UUID{buyer, seller, seller} {
		require.NoError(t, g.Messages().Create(ctx, &entity.Message{ConversationID: conversation.ID, SenderID: sender, Content: "x"}))
	}

	unread, err := g.Messages().CountUnread(ctx, buyer)
	require.NoError(t, err)
	assert.Equal(t, 2, unread)

	unread, err = g.Messages().CountUnread(ctx, seller)
	require.NoError(t, err)
	assert.Equal(t, 1, unread)

	marked, err := g.Messages().MarkConversationRead(ctx, conversation.ID, buyer)
	require.NoError(t, err)
	assert.Equal(t, int64(2), marked)

	unread, err = g.Messages().CountUnread(ctx, buyer)
	require.NoError(t, err)
	assert.Zero(t, unread)

	history, err := g.Messages().FindByConversation(ctx, conversation.ID)
	require.NoError(t, err)
	require.Len(t, history, 3)
	assert.False(t, history[0].IsRead, "own message stays unread")
	assert.True(t, history[0].CreatedAt.Before(history[1].CreatedAt))

	stored, err := g.Conversations().FindByID(ctx, conversation.ID)
	require.NoError(t, err)
	assert.Equal(t, history[2].CreatedAt, stored.UpdatedAt)
}

func TestMessageRepository_OutsiderCannotMarkRead(t *testing.T) {
	ctx := context.Background()
	g := NewGateway()
	buyer, seller, outsider := uuid.New(), uuid.New(), uuid.New()

	conversation := &entity.Conversation{ListingID: uuid.New(), BuyerID: buyer, SellerID: seller}
	require.NoError(t, g.Conversations().Create(ctx, conversation))
	message := &entity.Message{ConversationID: conversation.ID, SenderID: buyer, Content: "x"}
	require.NoError(t, g.Messages().Create(ctx, message))

	marked, err := g.Messages().MarkConversationRead(ctx, conversation.ID, outsider)
	require.NoError(t, err)
	assert.Zero(t, marked)
	require.NoError(t, g.Messages().MarkRead(ctx, message.ID, outsider))

	unread, err := g.Messages().CountUnread(ctx, seller)
	require.NoError(t, err)
	assert.Equal(t, 1, unread)
}

func TestCredentialRepository_ProvisionsProfileAsynchronously(t *testing.T) {
	ctx := context.Background()
	g := NewGateway(WithProvisionDelay(30 * time.Millisecond))
	userID := uuid.New()

	err := g.Credentials().Create(ctx, &entity.Credential{
		UserID:   userID,
		Email:    "Eva@Example.sk",
		Metadata: map[string]string{entity.MetadataName: "Eva"},
	})
	require.NoError(t, err)

	_, err = g.Users().FindByID(ctx, userID)
	assert.ErrorIs(t, err, repository.ErrUserNotFound)

	g.WaitProvisioning()

	user, err := g.Users().FindByID(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, "Eva", user.Name)
	assert.Equal(t, "eva@example.sk", user.Email)

	err = g.Credentials().Create(ctx, &entity.Credential{UserID: uuid.New(), Email: "eva@example.sk"})
	assert.ErrorIs(t, err, repository.ErrDuplicateEmail)
}

func TestGateway_FailNext(t *testing.T) {
	ctx := context.Background()
	g := NewGateway()
	g.FailNext("categories.FindAll", assert.AnError)

	_, err := g.Categories().FindAll(ctx)
	assert.ErrorIs(t, err, assert.AnError)

	categories, err := g.Categories().FindAll(ctx)
	require.NoError(t, err)
	assert.Len(t, categories, len(DefaultCategories))
	assert.Equal(t, 2, g.Calls("categories.FindAll"))
}

func TestFavoriteRepository_Idempotent(t *testing.T) {
	ctx := context.Background()
	g := NewGateway()
	user := uuid.New()
	listing := newListing(uuid.New(), "Car", "auto", "ba", true)
	require.NoError(t, g.Listings().Create(ctx, listing))

	require.NoError(t, g.Favorites().Add(ctx, user, listing.ID))
	require.NoError(t, g.Favorites().Add(ctx, user, listing.ID))

	ids, err := g.Favorites().FindListingIDs(ctx, user)
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{listing.ID}, ids)

	require.NoError(t, g.Favorites().Remove(ctx, user, listing.ID))
	require.NoError(t, g.Favorites().Remove(ctx, user, listing.ID))

	ids, err = g.Favorites().FindListingIDs(ctx, user)
	require.NoError(t, err)
	assert.Empty(t, ids)
}
