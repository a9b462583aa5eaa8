package memory

import (
	"context"
	"slices"
	"strings"
	"time"

	"storefront/internal/domain/constants"
	"storefront/internal/domain/entity"
	"storefront/internal/domain/repository"

	"github.com/google/uuid"
)

type listingRepository struct {
	g *Gateway
}

func (r *listingRepository) FindPublic(_ context.Context, filter entity.ListingFilter) ([]*entity.Listing, error) {
	r.g.mu.Lock()
	defer r.g.mu.Unlock()

	if err := r.g.begin("listings.FindPublic"); err != nil {
		return nil, err
	}

	filter = filter.Normalized()
	query := strings.ToLower(filter.TextQuery)

	var result []*entity.Listing
	for _, listing := range r.g.listings {
		if !listing.IsActive {
			continue
		}
		if query != "" && !strings.Contains(strings.ToLower(listing.Title), query) {
			continue
		}
		if filter.CategoryID != "" && listing.CategoryID != filter.CategoryID {
			continue
		}
		if filter.RegionID != "" && listing.Location.Region != filter.RegionID {
			continue
		}
		result = append(result, r.g.decorateListing(listing))
	}
	sortNewestFirst(result)

	return result, nil
}

func (r *listingRepository) FindByOwner(_ context.Context, userID uuid.UUID) ([]*entity.Listing, error) {
	r.g.mu.Lock()
	defer r.g.mu.Unlock()

	if err := r.g.begin("listings.FindByOwner"); err != nil {
		return nil, err
	}

	var result []*entity.Listing
	for _, listing := range r.g.listings {
		if listing.UserID == userID {
			result = append(result, r.g.decorateListing(listing))
		}
	}
	sortNewestFirst(result)

	return result, nil
}

func (r *listingRepository) FindByID(_ context.Context, id uuid.UUID) (*entity.Listing, error) {
	r.g.mu.Lock()
	defer r.g.mu.Unlock()

	if err := r.g.begin("listings.FindByID"); err != nil {
		return nil, err
	}

	listing, ok := r.g.listings[id]
	if !ok {
		return nil, repository.ErrListingNotFound
	}

	return r.g.decorateListing(listing), nil
}

func (r *listingRepository) FindByIDs(_ context.Context, ids []uuid.UUID) ([]*entity.Listing, error) {
	r.g.mu.Lock()
	defer r.g.mu.Unlock()

	if err := r.g.begin("listings.FindByIDs"); err != nil {
		return nil, err
	}

	var result []*entity.Listing
	for _, id := range ids {
		if listing, ok := r.g.listings[id]; ok {
			result = append(result, r.g.decorateListing(listing))
		}
	}
	sortNewestFirst(result)

	return result, nil
}

func (r *listingRepository) Create(_ context.Context, listing *entity.Listing) error {
	r.g.mu.Lock()
	defer r.g.mu.Unlock()

	if err := r.g.begin("listings.Create"); err != nil {
		return err
	}

	if listing.ID == uuid.Nil {
		listing.ID = uuid.New()
	}
	if listing.Currency == "" {
		listing.Currency = constants.DefaultCurrency
	}
	if listing.SellerName == "" {
		if owner, ok := r.g.users[listing.UserID]; ok {
			listing.SellerName = owner.Name
		}
	}
	now := r.g.tick()
	listing.CreatedAt = now
	listing.UpdatedAt = now

	r.g.listings[listing.ID] = listing.Clone()
	listing.CategoryName = r.g.categoryName(listing.CategoryID)

	return nil
}

func (r *listingRepository) Update(_ context.Context, id uuid.UUID, patch *entity.ListingPatch) error {
	r.g.mu.Lock()
	defer r.g.mu.Unlock()

	if err := r.g.begin("listings.Update"); err != nil {
		return err
	}

	listing, ok := r.g.listings[id]
	if !ok {
		return repository.ErrListingNotFound
	}
	patch.Apply(listing)
	if patch.UpdatedAt == nil {
		listing.UpdatedAt = r.g.tick()
	}

	return nil
}

func (r *listingRepository) Delete(_ context.Context, id uuid.UUID) error {
	r.g.mu.Lock()
	defer r.g.mu.Unlock()

	if err := r.g.begin("listings.Delete"); err != nil {
		return err
	}

	if _, ok := r.g.listings[id]; !ok {
		return repository.ErrListingNotFound
	}
	delete(r.g.listings, id)
	for _, set := range r.g.favorites {
		delete(set, id)
	}

	return nil
}

func (r *listingRepository) SetActive(_ context.Context, id uuid.UUID, isActive bool) error {
	r.g.mu.Lock()
	defer r.g.mu.Unlock()

	if err := r.g.begin("listings.SetActive"); err != nil {
		return err
	}

	listing, ok := r.g.listings[id]
	if !ok {
		return repository.ErrListingNotFound
	}
	listing.IsActive = isActive
	listing.UpdatedAt = r.g.tick()

	return nil
}

func (r *listingRepository) IncrementViews(_ context.Context, id uuid.UUID) error {
	r.g.mu.Lock()
	defer r.g.mu.Unlock()

	if err := r.g.begin("listings.IncrementViews"); err != nil {
		return err
	}
	if !r.g.atomicIncrement {
		return repository.ErrAtomicIncrementUnsupported
	}

	listing, ok := r.g.listings[id]
	if !ok {
		return repository.ErrListingNotFound
	}
	listing.ViewsCount++

	return nil
}

func (r *listingRepository) SetViews(_ context.Context, id uuid.UUID, views int) error {
	r.g.mu.Lock()
	defer r.g.mu.Unlock()

	if err := r.g.begin("listings.SetViews"); err != nil {
		return err
	}

	listing, ok := r.g.listings[id]
	if !ok {
		return repository.ErrListingNotFound
	}
	listing.ViewsCount = views

	return nil
}

func (r *listingRepository) Count(_ context.Context) (int64, error) {
	r.g.mu.Lock()
	defer r.g.mu.Unlock()

	if err := r.g.begin("listings.Count"); err != nil {
		return 0, err
	}

	return int64(len(r.g.listings)), nil
}

// decorateListing returns a copy joined with its category name. Callers must hold g.mu.
func (g *Gateway) decorateListing(listing *entity.Listing) *entity.Listing {
	cloned := listing.Clone()
	cloned.CategoryName = g.categoryName(listing.CategoryID)

	return cloned
}

func (g *Gateway) categoryName(id string) string {
	for _, c := range g.categories {
		if c.ID == id {
			return c.Name
		}
	}

	return ""
}

func sortNewestFirst(listings []*entity.Listing) {
	slices.SortStableFunc(listings, func(a, b *entity.Listing) int {
		return b.CreatedAt.Compare(a.CreatedAt)
	})
}

type categoryRepository struct {
	g *Gateway
}

func (r *categoryRepository) FindAll(_ context.Context) ([]*entity.Category, error) {
	r.g.mu.Lock()
	defer r.g.mu.Unlock()

	if err := r.g.begin("categories.FindAll"); err != nil {
		return nil, err
	}

	result := make([]*entity.Category, 0, len(r.g.categories))
	for _, c := range r.g.categories {
		cloned := *c
		result = append(result, &cloned)
	}
	slices.SortFunc(result, func(a, b *entity.Category) int {
		return strings.Compare(a.Name, b.Name)
	})

	return result, nil
}

type favoriteRepository struct {
	g *Gateway
}

func (r *favoriteRepository) FindListingIDs(_ context.Context, userID uuid.UUID) ([]uuid.UUID, error) {
	r.g.mu.Lock()
	defer r.g.mu.Unlock()

	if err := r.g.begin("favorites.FindListingIDs"); err != nil {
		return nil, err
	}

	ids := make([]uuid.UUID, 0, len(r.g.favorites[userID]))
	for id := range r.g.favorites[userID] {
		ids = append(ids, id)
	}
	slices.SortFunc(ids, func(a, b uuid.UUID) int {
		return strings.Compare(a.String(), b.String())
	})

	return ids, nil
}

func (r *favoriteRepository) Add(_ context.Context, userID, listingID uuid.UUID) error {
	r.g.mu.Lock()
	defer r.g.mu.Unlock()

	if err := r.g.begin("favorites.Add"); err != nil {
		return err
	}
	if _, ok := r.g.listings[listingID]; !ok {
		return repository.ErrListingNotFound
	}

	set := r.g.favorites[userID]
	if set == nil {
		set = make(map[uuid.UUID]time.Time)
		r.g.favorites[userID] = set
	}
	if _, ok := set[listingID]; !ok {
		set[listingID] = r.g.tick()
	}

	return nil
}

func (r *favoriteRepository) Remove(_ context.Context, userID, listingID uuid.UUID) error {
	r.g.mu.Lock()
	defer r.g.mu.Unlock()

	if err := r.g.begin("favorites.Remove"); err != nil {
		return err
	}
	delete(r.g.favorites[userID], listingID)

	return nil
}
