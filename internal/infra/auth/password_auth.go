package auth

import (
	"context"
	"maps"
	"strings"
	"sync"
	"time"

	"storefront/internal/domain/entity"
	"storefront/internal/domain/repository"
	"storefront/internal/domain/service"
	"storefront/internal/errors"

	"github.com/google/uuid"
	"go.uber.org/fx"
)

// PasswordAuthParams holds dependencies for the password auth subsystem, injected by Fx.
type PasswordAuthParams struct {
	fx.In

	Credentials  repository.CredentialRepository
	Hasher       service.PasswordHasher
	TokenService service.TokenService
}

// passwordAuth holds the single client session of this process.
type passwordAuth struct {
	credentials repository.CredentialRepository
	hasher      service.PasswordHasher
	tokens      service.TokenService

	mu    sync.Mutex
	token string
}

// NewPasswordAuth creates the email/password auth subsystem.
func NewPasswordAuth(params PasswordAuthParams) service.AuthService {
	return &passwordAuth{
		credentials: params.Credentials,
		hasher:      params.Hasher,
		tokens:      params.TokenService,
	}
}

func (a *passwordAuth) SignUp(ctx context.Context, credentials service.Credentials, metadata map[string]string) (*service.Identity, error) {
	email := normalizeEmail(credentials.Email)

	hash, err := a.hasher.Hash(credentials.Password)
	if err != nil {
		return nil, errors.Wrap(err, "hash password")
	}

	credential := &entity.Credential{
		UserID:       uuid.New(),
		Email:        email,
		PasswordHash: hash,
		Metadata:     maps.Clone(metadata),
		CreatedAt:    time.Now().UTC(),
	}
	if err := a.credentials.Create(ctx, credential); err != nil {
		if errors.Is(err, repository.ErrDuplicateEmail) {
			return nil, service.ErrEmailTaken
		}

		return nil, errors.Wrap(err, "create credential")
	}

	return a.openSession(credential)
}

func (a *passwordAuth) SignIn(ctx context.Context, credentials service.Credentials) (*service.Identity, error) {
	credential, err := a.credentials.FindByEmail(ctx, normalizeEmail(credentials.Email))
	if err != nil {
		if errors.Is(err, repository.ErrCredentialNotFound) {
			return nil, service.ErrInvalidCredentials
		}

		return nil, errors.Wrap(err, "find credential")
	}

	if !a.hasher.Check(credentials.Password, credential.PasswordHash) {
		return nil, service.ErrInvalidCredentials
	}

	return a.openSession(credential)
}

func (a *passwordAuth) SignOut(_ context.Context) error {
	a.mu.Lock()
	a.token = ""
	a.mu.Unlock()

	return nil
}

func (a *passwordAuth) CurrentIdentity(ctx context.Context) (*service.Identity, error) {
	a.mu.Lock()
	token := a.token
	a.mu.Unlock()

	if token == "" {
		return nil, nil
	}

	claims, err := a.tokens.ValidateToken(token)
	if err != nil {
		// Expired or otherwise unusable sessions count as signed out.
		a.clearToken(token)

		return nil, nil
	}

	credential, err := a.credentials.FindByUserID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrCredentialNotFound) {
			a.clearToken(token)

			return nil, nil
		}

		return nil, errors.Wrap(err, "find credential")
	}

	identity := identityFrom(credential)
	identity.AccessToken = token
	if claims.ExpiresAt != nil {
		identity.ExpiresAt = claims.ExpiresAt.Time
	}

	return identity, nil
}

func (a *passwordAuth) openSession(credential *entity.Credential) (*service.Identity, error) {
	token, expiresAt, err := a.tokens.GenerateSessionToken(credential.UserID, credential.Email)
	if err != nil {
		return nil, errors.Wrap(err, "generate session token")
	}

	a.mu.Lock()
	a.token = token
	a.mu.Unlock()

	identity := identityFrom(credential)
	identity.AccessToken = token
	identity.ExpiresAt = expiresAt

	return identity, nil
}

func (a *passwordAuth) clearToken(token string) {
	a.mu.Lock()
	if a.token == token {
		a.token = ""
	}
	a.mu.Unlock()
}

func identityFrom(credential *entity.Credential) *service.Identity {
	return &service.Identity{
		UserID:   credential.UserID,
		Email:    credential.Email,
		Metadata: maps.Clone(credential.Metadata),
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
