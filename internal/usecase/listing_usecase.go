package usecase

import (
	"context"

	"storefront/internal/domain/entity"

	"github.com/google/uuid"
)

// OptimisticOutcome reports how far an optimistic mutation got.
type OptimisticOutcome int

const (
	// OutcomeNotApplied means validation, auth or permission checks rejected the mutation.
	OutcomeNotApplied OptimisticOutcome = iota
	// OutcomeApplied means the local caches and the gateway both changed.
	OutcomeApplied
	// OutcomeAppliedThenRemoteFailed means the caches changed but the gateway call failed.
	// Nothing is rolled back; callers reconcile.
	OutcomeAppliedThenRemoteFailed
)

func (o OptimisticOutcome) String() string {
	switch o {
	case OutcomeNotApplied:
		return "not_applied"
	case OutcomeApplied:
		return "applied"
	case OutcomeAppliedThenRemoteFailed:
		return "applied_then_remote_failed"
	default:
		return "unknown"
	}
}

// ListingUsecase keeps the public, owned and single-listing caches.
type ListingUsecase interface {
	// ListPublic replaces the public cache with the active listings matching filter.
	// A result superseded by a newer query is discarded.
	ListPublic(ctx context.Context, filter entity.ListingFilter) ([]*entity.Listing, error)

	// Search records filter and runs ListPublic once typing settles.
	Search(filter entity.ListingFilter)

	ListOwnedBy(ctx context.Context, userID uuid.UUID) ([]*entity.Listing, error)
	FetchByID(ctx context.Context, id uuid.UUID) (*entity.Listing, error)

	Create(ctx context.Context, draft *entity.ListingDraft, images []*entity.ImageUpload) (*entity.Listing, error)
	Update(ctx context.Context, id uuid.UUID, patch *entity.ListingPatch) (*entity.Listing, error)
	Delete(ctx context.Context, id uuid.UUID) (OptimisticOutcome, error)
	SetActive(ctx context.Context, id uuid.UUID, active bool) (OptimisticOutcome, error)

	// Reconcile re-fetches the public and owned caches.
	Reconcile(ctx context.Context) error

	// IncrementViewCount bumps the counter in the background. Failures are only logged.
	IncrementViewCount(ctx context.Context, id uuid.UUID)

	FetchCategories(ctx context.Context) ([]*entity.Category, error)

	// ShareCode renders a PNG QR code linking to the listing.
	ShareCode(ctx context.Context, id uuid.UUID) ([]byte, error)
}
