// Package repository defines the gateway contracts for relational queries and mutations.
// These interfaces act as a contract between the use cases and the remote data gateway.
package repository

import (
	"context"

	"storefront/internal/domain/entity"
	"storefront/internal/errors"

	"github.com/google/uuid"
)

// Domain-specific errors for listing persistence.
var (
	// ErrListingNotFound is returned when a listing does not exist.
	ErrListingNotFound = errors.New("listing not found")
	// ErrAtomicIncrementUnsupported is returned by gateways without an atomic view counter.
	ErrAtomicIncrementUnsupported = errors.New("atomic view increment unsupported")
)

// ListingRepository defines the listing queries and mutations of the gateway.
type ListingRepository interface {
	// FindPublic returns active listings matching filter, newest first.
	FindPublic(ctx context.Context, filter entity.ListingFilter) ([]*entity.Listing, error)

	// FindByOwner returns every listing of userID regardless of the active flag, newest first.
	FindByOwner(ctx context.Context, userID uuid.UUID) ([]*entity.Listing, error)

	// FindByID retrieves one listing regardless of the active flag.
	FindByID(ctx context.Context, id uuid.UUID) (*entity.Listing, error)

	// FindByIDs retrieves the listings that still exist among ids, newest first.
	FindByIDs(ctx context.Context, ids []uuid.UUID) ([]*entity.Listing, error)

	// Create inserts listing and fills its generated fields.
	Create(ctx context.Context, listing *entity.Listing) error

	// Update applies the supplied fields of patch.
	Update(ctx context.Context, id uuid.UUID, patch *entity.ListingPatch) error

	// Delete removes the listing permanently.
	Delete(ctx context.Context, id uuid.UUID) error

	// SetActive toggles public visibility.
	SetActive(ctx context.Context, id uuid.UUID, isActive bool) error

	// IncrementViews bumps the view counter atomically or returns ErrAtomicIncrementUnsupported.
	IncrementViews(ctx context.Context, id uuid.UUID) error

	// SetViews overwrites the view counter.
	SetViews(ctx context.Context, id uuid.UUID, views int) error

	// Count returns the number of listings, active or not.
	Count(ctx context.Context) (int64, error)
}
