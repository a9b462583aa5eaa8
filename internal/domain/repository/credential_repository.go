package repository

import (
	"context"

	"storefront/internal/domain/entity"
	"storefront/internal/errors"

	"github.com/google/uuid"
)

// Domain-specific errors for credential persistence.
var (
	// ErrCredentialNotFound is returned when no login matches.
	ErrCredentialNotFound = errors.New("credential not found")
	// ErrDuplicateEmail is returned when the email is already registered.
	ErrDuplicateEmail = errors.New("email already registered")
)

// CredentialRepository stores email/password logins. Creating a credential provisions
// the matching profile row asynchronously.
type CredentialRepository interface {
	Create(ctx context.Context, credential *entity.Credential) error

	FindByEmail(ctx context.Context, email string) (*entity.Credential, error)

	FindByUserID(ctx context.Context, userID uuid.UUID) (*entity.Credential, error)
}
