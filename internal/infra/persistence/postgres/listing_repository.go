// Package postgres contains the concrete implementation of the remote data gateway using GORM and PostgreSQL.
package postgres

import (
	"context"
	"strings"

	"storefront/internal/domain/constants"
	"storefront/internal/domain/entity"
	domainerrors "storefront/internal/domain/errors"
	"storefront/internal/domain/repository"
	"storefront/internal/infra/persistence/model"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"gorm.io/gorm"
)

// listingRepository implements the domain.ListingRepository interface using GORM.
type listingRepository struct {
	db *gorm.DB
}

// NewListingRepository is the constructor for listingRepository.
func NewListingRepository(db *gorm.DB) repository.ListingRepository {
	return &listingRepository{db: db}
}

func (repo *listingRepository) listings(ctx context.Context) *gorm.DB {
	return repo.db.WithContext(ctx).Model(&model.ListingModel{}).Preload("Category")
}

// FindPublic returns active listings matching the filter, newest first.
func (repo *listingRepository) FindPublic(ctx context.Context, filter entity.ListingFilter) ([]*entity.Listing, error) {
	filter = filter.Normalized()

	query := repo.listings(ctx).Where("is_active = ?", true)
	if filter.TextQuery != "" {
		query = query.Where("title ILIKE ?", "%"+escapeLike(filter.TextQuery)+"%")
	}
	if filter.CategoryID != "" {
		query = query.Where("category_id = ?", filter.CategoryID)
	}
	if filter.RegionID != "" {
		query = query.Where("region = ?", filter.RegionID)
	}

	var rows []*model.ListingModel
	if err := query.Order("created_at DESC").Find(&rows).Error; err != nil {
		return nil, domainerrors.NewDatabaseExecuteError(err, "failed to query public listings")
	}

	return toListingsDomain(rows), nil
}

func (repo *listingRepository) FindByOwner(ctx context.Context, userID uuid.UUID) ([]*entity.Listing, error) {
	var rows []*model.ListingModel
	if err := repo.listings(ctx).Where("user_id = ?", userID).Order("created_at DESC").Find(&rows).Error; err != nil {
		return nil, domainerrors.NewDatabaseExecuteError(err, "failed to query owned listings")
	}

	return toListingsDomain(rows), nil
}

func (repo *listingRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.Listing, error) {
	var row model.ListingModel
	if err := repo.listings(ctx).Where("id = ?", id).First(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repository.ErrListingNotFound
		}

		return nil, domainerrors.NewDatabaseExecuteError(err, "failed to find listing")
	}

	return toListingDomain(&row), nil
}

func (repo *listingRepository) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]*entity.Listing, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	var rows []*model.ListingModel
	if err := repo.listings(ctx).Where("id IN ?", ids).Order("created_at DESC").Find(&rows).Error; err != nil {
		return nil, domainerrors.NewDatabaseExecuteError(err, "failed to query listings by id")
	}

	return toListingsDomain(rows), nil
}

// Create persists a new listing and copies back the generated id and timestamps.
func (repo *listingRepository) Create(ctx context.Context, listing *entity.Listing) error {
	if listing.Currency == "" {
		listing.Currency = constants.DefaultCurrency
	}
	row := fromListingDomain(listing)

	if err := repo.db.WithContext(ctx).Create(row).Error; err != nil {
		return gatewayError(err, "failed to create listing", violations{
			violationForeignKey: domainerrors.ErrValidationFailed.WithDetails("unknown category or owner"),
		})
	}

	listing.ID = row.ID
	listing.CreatedAt = row.CreatedAt
	listing.UpdatedAt = row.UpdatedAt

	return nil
}

func (repo *listingRepository) Update(ctx context.Context, id uuid.UUID, patch *entity.ListingPatch) error {
	columns := listingPatchColumns(patch)
	if len(columns) == 0 {
		return nil
	}

	result := repo.db.WithContext(ctx).Model(&model.ListingModel{}).Where("id = ?", id).Updates(columns)

	return repo.affected(result, "failed to update listing")
}

func (repo *listingRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := repo.db.WithContext(ctx).Where("id = ?", id).Delete(&model.ListingModel{})

	return repo.affected(result, "failed to delete listing")
}

func (repo *listingRepository) SetActive(ctx context.Context, id uuid.UUID, isActive bool) error {
	result := repo.db.WithContext(ctx).Model(&model.ListingModel{}).Where("id = ?", id).Update("is_active", isActive)

	return repo.affected(result, "failed to update listing visibility")
}

// IncrementViews calls the increment_views database function.
func (repo *listingRepository) IncrementViews(ctx context.Context, id uuid.UUID) error {
	if err := repo.db.WithContext(ctx).Exec("SELECT increment_views(?)", id).Error; err != nil {
		return gatewayError(err, "failed to increment views", violations{
			violationUndefinedFunction: repository.ErrAtomicIncrementUnsupported,
		})
	}

	return nil
}

func (repo *listingRepository) SetViews(ctx context.Context, id uuid.UUID, views int) error {
	result := repo.db.WithContext(ctx).Model(&model.ListingModel{}).Where("id = ?", id).
		UpdateColumn("views_count", views)

	return repo.affected(result, "failed to set views")
}

func (repo *listingRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := repo.db.WithContext(ctx).Model(&model.ListingModel{}).Count(&count).Error; err != nil {
		return 0, domainerrors.NewDatabaseExecuteError(err, "failed to count listings")
	}

	return count, nil
}

func (repo *listingRepository) affected(result *gorm.DB, details string) error {
	if result.Error != nil {
		return domainerrors.NewDatabaseExecuteError(result.Error, details)
	}
	if result.RowsAffected == 0 {
		return repository.ErrListingNotFound
	}

	return nil
}

func toListingsDomain(rows []*model.ListingModel) []*entity.Listing {
	listings := make([]*entity.Listing, 0, len(rows))
	for _, row := range rows {
		listings = append(listings, toListingDomain(row))
	}

	return listings
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}

// categoryRepository implements the domain.CategoryRepository interface using GORM.
type categoryRepository struct {
	db *gorm.DB
}

// NewCategoryRepository is the constructor for categoryRepository.
func NewCategoryRepository(db *gorm.DB) repository.CategoryRepository {
	return &categoryRepository{db: db}
}

func (repo *categoryRepository) FindAll(ctx context.Context) ([]*entity.Category, error) {
	var rows []*model.CategoryModel
	if err := repo.db.WithContext(ctx).Order("name").Find(&rows).Error; err != nil {
		return nil, domainerrors.NewDatabaseExecuteError(err, "failed to query categories")
	}

	categories := make([]*entity.Category, 0, len(rows))
	for _, row := range rows {
		categories = append(categories, &entity.Category{ID: row.ID, Name: row.Name, Icon: row.Icon})
	}

	return categories, nil
}

// favoriteRepository implements the domain.FavoriteRepository interface using GORM.
type favoriteRepository struct {
	db *gorm.DB
}

// NewFavoriteRepository is the constructor for favoriteRepository.
func NewFavoriteRepository(db *gorm.DB) repository.FavoriteRepository {
	return &favoriteRepository{db: db}
}

func (repo *favoriteRepository) FindListingIDs(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := repo.db.WithContext(ctx).Model(&model.FavoriteModel{}).
		Where("user_id = ?", userID).
		Order("created_at").
		Pluck("listing_id", &ids).Error
	if err != nil {
		return nil, domainerrors.NewDatabaseExecuteError(err, "failed to query favorites")
	}

	return ids, nil
}

func (repo *favoriteRepository) Add(ctx context.Context, userID, listingID uuid.UUID) error {
	err := repo.db.WithContext(ctx).
		Where(model.FavoriteModel{UserID: userID, ListingID: listingID}).
		FirstOrCreate(&model.FavoriteModel{}).Error
	if err != nil {
		return gatewayError(err, "failed to add favorite", violations{
			violationForeignKey: repository.ErrListingNotFound,
			violationUnique:     nil,
		})
	}

	return nil
}

func (repo *favoriteRepository) Remove(ctx context.Context, userID, listingID uuid.UUID) error {
	err := repo.db.WithContext(ctx).
		Where("user_id = ? AND listing_id = ?", userID, listingID).
		Delete(&model.FavoriteModel{}).Error
	if err != nil {
		return domainerrors.NewDatabaseExecuteError(err, "failed to remove favorite")
	}

	return nil
}
