package memory

import (
	"context"
	"maps"
	"slices"
	"strings"
	"time"

	"storefront/internal/domain/entity"
	"storefront/internal/domain/repository"

	"github.com/google/uuid"
)

type userRepository struct {
	g *Gateway
}

func (r *userRepository) FindByID(_ context.Context, id uuid.UUID) (*entity.User, error) {
	r.g.mu.Lock()
	defer r.g.mu.Unlock()

	if err := r.g.begin("users.FindByID"); err != nil {
		return nil, err
	}

	user, ok := r.g.users[id]
	if !ok {
		return nil, repository.ErrUserNotFound
	}

	return user.Clone(), nil
}

func (r *userRepository) FindByIDs(_ context.Context, ids []uuid.UUID) ([]*entity.User, error) {
	r.g.mu.Lock()
	defer r.g.mu.Unlock()

	if err := r.g.begin("users.FindByIDs"); err != nil {
		return nil, err
	}

	var result []*entity.User
	for _, id := range ids {
		if user, ok := r.g.users[id]; ok {
			result = append(result, user.Clone())
		}
	}

	return result, nil
}

func (r *userRepository) FindAll(_ context.Context) ([]*entity.User, error) {
	r.g.mu.Lock()
	defer r.g.mu.Unlock()

	if err := r.g.begin("users.FindAll"); err != nil {
		return nil, err
	}

	result := make([]*entity.User, 0, len(r.g.users))
	for _, user := range r.g.users {
		result = append(result, user.Clone())
	}
	slices.SortStableFunc(result, func(a, b *entity.User) int {
		return b.CreatedAt.Compare(a.CreatedAt)
	})

	return result, nil
}

func (r *userRepository) Update(_ context.Context, user *entity.User) error {
	r.g.mu.Lock()
	defer r.g.mu.Unlock()

	if err := r.g.begin("users.Update"); err != nil {
		return err
	}

	stored, ok := r.g.users[user.ID]
	if !ok {
		return repository.ErrUserNotFound
	}
	stored.Name = user.Name
	stored.AvatarURL = user.AvatarURL
	stored.UpdatedAt = r.g.tick()
	user.UpdatedAt = stored.UpdatedAt

	return nil
}

func (r *userRepository) SetBanned(_ context.Context, id uuid.UUID, banned bool) error {
	r.g.mu.Lock()
	defer r.g.mu.Unlock()

	if err := r.g.begin("users.SetBanned"); err != nil {
		return err
	}

	user, ok := r.g.users[id]
	if !ok {
		return repository.ErrUserNotFound
	}
	user.IsBanned = banned

	return nil
}

func (r *userRepository) Count(_ context.Context) (int64, error) {
	r.g.mu.Lock()
	defer r.g.mu.Unlock()

	if err := r.g.begin("users.Count"); err != nil {
		return 0, err
	}

	return int64(len(r.g.users)), nil
}

type credentialRepository struct {
	g *Gateway
}

// Create stores the login and schedules provisioning of its profile row.
func (r *credentialRepository) Create(_ context.Context, credential *entity.Credential) error {
	r.g.mu.Lock()
	defer r.g.mu.Unlock()

	if err := r.g.begin("credentials.Create"); err != nil {
		return err
	}

	email := strings.ToLower(credential.Email)
	if _, taken := r.g.emails[email]; taken {
		return repository.ErrDuplicateEmail
	}

	stored := *credential
	stored.Email = email
	stored.Metadata = maps.Clone(credential.Metadata)
	if stored.CreatedAt.IsZero() {
		stored.CreatedAt = r.g.tick()
	}
	r.g.credentials[stored.UserID] = &stored
	r.g.emails[email] = stored.UserID

	if r.g.provisionDelay <= 0 {
		r.g.provisionLocked(&stored)

		return nil
	}

	r.g.pending.Add(1)
	time.AfterFunc(r.g.provisionDelay, func() {
		defer r.g.pending.Done()

		r.g.mu.Lock()
		defer r.g.mu.Unlock()
		r.g.provisionLocked(&stored)
	})

	return nil
}

func (r *credentialRepository) FindByEmail(_ context.Context, email string) (*entity.Credential, error) {
	r.g.mu.Lock()
	defer r.g.mu.Unlock()

	if err := r.g.begin("credentials.FindByEmail"); err != nil {
		return nil, err
	}

	id, ok := r.g.emails[strings.ToLower(email)]
	if !ok {
		return nil, repository.ErrCredentialNotFound
	}

	return cloneCredential(r.g.credentials[id]), nil
}

func (r *credentialRepository) FindByUserID(_ context.Context, userID uuid.UUID) (*entity.Credential, error) {
	r.g.mu.Lock()
	defer r.g.mu.Unlock()

	if err := r.g.begin("credentials.FindByUserID"); err != nil {
		return nil, err
	}

	credential, ok := r.g.credentials[userID]
	if !ok {
		return nil, repository.ErrCredentialNotFound
	}

	return cloneCredential(credential), nil
}

// provisionLocked creates the profile row of a new login unless it exists. Callers must hold g.mu.
func (g *Gateway) provisionLocked(credential *entity.Credential) {
	if _, exists := g.users[credential.UserID]; exists {
		return
	}

	name := credential.Metadata[entity.MetadataName]
	if name == "" {
		name, _, _ = strings.Cut(credential.Email, "@")
	}

	now := g.tick()
	g.users[credential.UserID] = &entity.User{
		ID:        credential.UserID,
		Email:     credential.Email,
		Name:      name,
		AvatarURL: credential.Metadata[entity.MetadataAvatarURL],
		TrustTier: entity.TrustTierNone,
		Role:      entity.RoleUser,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func cloneCredential(credential *entity.Credential) *entity.Credential {
	cloned := *credential
	cloned.Metadata = maps.Clone(credential.Metadata)

	return &cloned
}

type reviewRepository struct {
	g *Gateway
}

func (r *reviewRepository) FindByReviewee(_ context.Context, userID uuid.UUID) ([]*entity.Review, error) {
	r.g.mu.Lock()
	defer r.g.mu.Unlock()

	if err := r.g.begin("reviews.FindByReviewee"); err != nil {
		return nil, err
	}

	var result []*entity.Review
	for _, review := range r.g.reviews {
		if review.RevieweeID == userID {
			result = append(result, r.g.decorateReview(review))
		}
	}
	sortReviews(result)

	return result, nil
}

func (r *reviewRepository) FindAll(_ context.Context) ([]*entity.Review, error) {
	r.g.mu.Lock()
	defer r.g.mu.Unlock()

	if err := r.g.begin("reviews.FindAll"); err != nil {
		return nil, err
	}

	result := make([]*entity.Review, 0, len(r.g.reviews))
	for _, review := range r.g.reviews {
		result = append(result, r.g.decorateReview(review))
	}
	sortReviews(result)

	return result, nil
}

func (r *reviewRepository) Create(_ context.Context, review *entity.Review) error {
	r.g.mu.Lock()
	defer r.g.mu.Unlock()

	if err := r.g.begin("reviews.Create"); err != nil {
		return err
	}

	if review.ID == uuid.Nil {
		review.ID = uuid.New()
	}
	review.CreatedAt = r.g.tick()
	stored := *review
	r.g.reviews[review.ID] = &stored

	return nil
}

func (r *reviewRepository) Delete(_ context.Context, id uuid.UUID) error {
	r.g.mu.Lock()
	defer r.g.mu.Unlock()

	if err := r.g.begin("reviews.Delete"); err != nil {
		return err
	}

	if _, ok := r.g.reviews[id]; !ok {
		return repository.ErrReviewNotFound
	}
	delete(r.g.reviews, id)

	return nil
}

func (r *reviewRepository) Count(_ context.Context) (int64, error) {
	r.g.mu.Lock()
	defer r.g.mu.Unlock()

	if err := r.g.begin("reviews.Count"); err != nil {
		return 0, err
	}

	return int64(len(r.g.reviews)), nil
}

func (g *Gateway) decorateReview(review *entity.Review) *entity.Review {
	cloned := *review
	if reviewer, ok := g.users[review.ReviewerID]; ok {
		cloned.ReviewerName = reviewer.Name
	}

	return &cloned
}

func sortReviews(reviews []*entity.Review) {
	slices.SortStableFunc(reviews, func(a, b *entity.Review) int {
		return b.CreatedAt.Compare(a.CreatedAt)
	})
}
