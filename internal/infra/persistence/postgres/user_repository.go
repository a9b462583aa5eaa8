package postgres

import (
	"context"

	"storefront/internal/domain/entity"
	domainerrors "storefront/internal/domain/errors"
	"storefront/internal/domain/repository"
	"storefront/internal/infra/persistence/model"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"gorm.io/gorm"
)

// userRepository implements the domain.UserRepository interface over the profiles table.
type userRepository struct {
	db *gorm.DB
}

// NewUserRepository is the constructor for userRepository.
func NewUserRepository(db *gorm.DB) repository.UserRepository {
	return &userRepository{db: db}
}

func (repo *userRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.User, error) {
	var row model.ProfileModel
	if err := repo.db.WithContext(ctx).Where("id = ?", id).First(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repository.ErrUserNotFound
		}

		return nil, domainerrors.NewDatabaseExecuteError(err, "failed to find profile")
	}

	return toProfileDomain(&row), nil
}

func (repo *userRepository) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]*entity.User, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	var rows []*model.ProfileModel
	if err := repo.db.WithContext(ctx).Where("id IN ?", ids).Find(&rows).Error; err != nil {
		return nil, domainerrors.NewDatabaseExecuteError(err, "failed to query profiles")
	}

	return toProfilesDomain(rows), nil
}

func (repo *userRepository) FindAll(ctx context.Context) ([]*entity.User, error) {
	var rows []*model.ProfileModel
	if err := repo.db.WithContext(ctx).Order("created_at DESC").Find(&rows).Error; err != nil {
		return nil, domainerrors.NewDatabaseExecuteError(err, "failed to query profiles")
	}

	return toProfilesDomain(rows), nil
}

// Update saves the editable profile fields.
func (repo *userRepository) Update(ctx context.Context, user *entity.User) error {
	result := repo.db.WithContext(ctx).Model(&model.ProfileModel{}).
		Where("id = ?", user.ID).
		Updates(map[string]any{"name": user.Name, "avatar_url": user.AvatarURL})
	if result.Error != nil {
		return domainerrors.NewDatabaseExecuteError(result.Error, "failed to update profile")
	}
	if result.RowsAffected == 0 {
		return repository.ErrUserNotFound
	}

	return nil
}

func (repo *userRepository) SetBanned(ctx context.Context, id uuid.UUID, banned bool) error {
	result := repo.db.WithContext(ctx).Model(&model.ProfileModel{}).Where("id = ?", id).Update("is_banned", banned)
	if result.Error != nil {
		return domainerrors.NewDatabaseExecuteError(result.Error, "failed to update ban flag")
	}
	if result.RowsAffected == 0 {
		return repository.ErrUserNotFound
	}

	return nil
}

func (repo *userRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := repo.db.WithContext(ctx).Model(&model.ProfileModel{}).Count(&count).Error; err != nil {
		return 0, domainerrors.NewDatabaseExecuteError(err, "failed to count profiles")
	}

	return count, nil
}

func toProfilesDomain(rows []*model.ProfileModel) []*entity.User {
	users := make([]*entity.User, 0, len(rows))
	for _, row := range rows {
		users = append(users, toProfileDomain(row))
	}

	return users
}

// credentialRepository implements the domain.CredentialRepository interface using GORM.
// The on_credential_created trigger provisions the profile row.
type credentialRepository struct {
	db *gorm.DB
}

// NewCredentialRepository is the constructor for credentialRepository.
func NewCredentialRepository(db *gorm.DB) repository.CredentialRepository {
	return &credentialRepository{db: db}
}

func (repo *credentialRepository) Create(ctx context.Context, credential *entity.Credential) error {
	row := &model.CredentialModel{
		UserID:       credential.UserID,
		Email:        credential.Email,
		PasswordHash: credential.PasswordHash,
		Metadata:     credential.Metadata,
		CreatedAt:    credential.CreatedAt,
	}

	if err := repo.db.WithContext(ctx).Create(row).Error; err != nil {
		return gatewayError(err, "failed to create credential", violations{
			violationUnique: repository.ErrDuplicateEmail,
		})
	}

	return nil
}

func (repo *credentialRepository) FindByEmail(ctx context.Context, email string) (*entity.Credential, error) {
	return repo.find(ctx, "email = ?", email)
}

func (repo *credentialRepository) FindByUserID(ctx context.Context, userID uuid.UUID) (*entity.Credential, error) {
	return repo.find(ctx, "user_id = ?", userID)
}

func (repo *credentialRepository) find(ctx context.Context, where string, arg any) (*entity.Credential, error) {
	var row model.CredentialModel
	if err := repo.db.WithContext(ctx).Where(where, arg).First(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repository.ErrCredentialNotFound
		}

		return nil, domainerrors.NewDatabaseExecuteError(err, "failed to find credential")
	}

	return toCredentialDomain(&row), nil
}

// reviewRepository implements the domain.ReviewRepository interface using GORM.
type reviewRepository struct {
	db *gorm.DB
}

// NewReviewRepository is the constructor for reviewRepository.
func NewReviewRepository(db *gorm.DB) repository.ReviewRepository {
	return &reviewRepository{db: db}
}

func (repo *reviewRepository) FindByReviewee(ctx context.Context, userID uuid.UUID) ([]*entity.Review, error) {
	return repo.find(repo.db.WithContext(ctx).Where("reviewee_id = ?", userID))
}

func (repo *reviewRepository) FindAll(ctx context.Context) ([]*entity.Review, error) {
	return repo.find(repo.db.WithContext(ctx))
}

func (repo *reviewRepository) find(query *gorm.DB) ([]*entity.Review, error) {
	var rows []*model.ReviewModel
	if err := query.Preload("Reviewer").Order("created_at DESC").Find(&rows).Error; err != nil {
		return nil, domainerrors.NewDatabaseExecuteError(err, "failed to query reviews")
	}

	reviews := make([]*entity.Review, 0, len(rows))
	for _, row := range rows {
		reviews = append(reviews, toReviewDomain(row))
	}

	return reviews, nil
}

func (repo *reviewRepository) Create(ctx context.Context, review *entity.Review) error {
	row := &model.ReviewModel{
		ID:         review.ID,
		ReviewerID: review.ReviewerID,
		RevieweeID: review.RevieweeID,
		Rating:     review.Rating,
		Comment:    review.Comment,
	}

	if err := repo.db.WithContext(ctx).Create(row).Error; err != nil {
		return gatewayError(err, "failed to create review", violations{
			violationForeignKey: repository.ErrUserNotFound,
		})
	}

	review.ID = row.ID
	review.CreatedAt = row.CreatedAt

	return nil
}

func (repo *reviewRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := repo.db.WithContext(ctx).Where("id = ?", id).Delete(&model.ReviewModel{})
	if result.Error != nil {
		return domainerrors.NewDatabaseExecuteError(result.Error, "failed to delete review")
	}
	if result.RowsAffected == 0 {
		return repository.ErrReviewNotFound
	}

	return nil
}

func (repo *reviewRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := repo.db.WithContext(ctx).Model(&model.ReviewModel{}).Count(&count).Error; err != nil {
		return 0, domainerrors.NewDatabaseExecuteError(err, "failed to count reviews")
	}

	return count, nil
}
