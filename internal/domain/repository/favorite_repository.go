package repository

import (
	"context"

	"github.com/google/uuid"
)

// FavoriteRepository mirrors a user's favorite set in the gateway.
type FavoriteRepository interface {
	// FindListingIDs returns the listing ids favorited by userID.
	FindListingIDs(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error)

	// Add stores the (user, listing) pair. Adding an existing pair is not an error.
	Add(ctx context.Context, userID, listingID uuid.UUID) error

	// Remove deletes the pair. Removing a missing pair is not an error.
	Remove(ctx context.Context, userID, listingID uuid.UUID) error
}
