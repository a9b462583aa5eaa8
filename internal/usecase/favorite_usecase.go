package usecase

import (
	"context"

	"storefront/internal/domain/entity"

	"github.com/google/uuid"
)

// FavoriteUsecase keeps the favorite set in sync between the local store and the gateway.
type FavoriteUsecase interface {
	SessionListener

	// Toggle flips membership of listingID and returns the new membership.
	Toggle(ctx context.Context, listingID uuid.UUID) (bool, error)

	// Load restores the persisted set.
	Load(ctx context.Context) error

	// Fetch replaces the local set with the remote one.
	Fetch(ctx context.Context) error

	// FetchListings resolves the favorite ids into the favorites listing view.
	FetchListings(ctx context.Context) ([]*entity.Listing, error)

	IsFavorite(listingID uuid.UUID) bool
}
