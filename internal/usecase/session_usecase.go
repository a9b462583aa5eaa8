// Package usecase contains the application-specific business rules.
// It orchestrates the domain layer and publishes the results into the shared state store.
package usecase

import (
	"context"

	"storefront/internal/domain/entity"
	"storefront/internal/domain/service"

	"github.com/google/uuid"
)

// --- Input DTOs ---

// Registration defines the data required to create an account.
type Registration struct {
	Name     string `json:"name" validate:"required,notblank,max=80"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
}

// SessionListener is notified when a session starts or ends. Implementations
// own the per-user caches that follow the session.
type SessionListener interface {
	OnSessionStarted(ctx context.Context, user *entity.User)
	OnSessionEnded(ctx context.Context)
}

// SessionUsecase tracks the authenticated user.
type SessionUsecase interface {
	// ResolveSession restores the session held by the auth gateway, if any.
	ResolveSession(ctx context.Context) (*entity.User, error)

	Login(ctx context.Context, credentials service.Credentials) (*entity.User, error)
	Register(ctx context.Context, registration *Registration) (*entity.User, error)
	Logout(ctx context.Context) error

	// CurrentUser returns the signed-in user or nil.
	CurrentUser() *entity.User

	OpenAuthPrompt()
	CloseAuthPrompt()

	UpdateProfile(ctx context.Context, update *entity.ProfileUpdate) (*entity.User, error)

	// FetchUserProfile loads another user's public profile into the profile view.
	FetchUserProfile(ctx context.Context, userID uuid.UUID) (*entity.User, error)
}
