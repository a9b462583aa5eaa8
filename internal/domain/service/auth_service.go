// Package service defines the gateway-facing domain services that are not relational
// repositories: authentication, object storage, the change feed, and local persistence.
package service

import (
	"context"
	"time"

	"storefront/internal/errors"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Auth gateway errors
var (
	// ErrInvalidCredentials is returned when sign-in is rejected.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrEmailTaken is returned when sign-up uses a registered email.
	ErrEmailTaken = errors.New("email already registered")
)

// Credentials are an email/password pair.
type Credentials struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
}

// Identity is an authenticated session as seen by the auth subsystem.
type Identity struct {
	UserID      uuid.UUID
	Email       string
	Metadata    map[string]string // Sign-up metadata, used when the profile row is not there yet.
	AccessToken string
	ExpiresAt   time.Time
}

// AuthService is the authentication subsystem of the gateway.
type AuthService interface {
	// SignUp registers the credentials. The profile row may be provisioned after it returns.
	SignUp(ctx context.Context, credentials Credentials, metadata map[string]string) (*Identity, error)

	// SignIn opens a session.
	SignIn(ctx context.Context, credentials Credentials) (*Identity, error)

	// SignOut invalidates the current session.
	SignOut(ctx context.Context) error

	// CurrentIdentity returns the current session or nil when there is none.
	CurrentIdentity(ctx context.Context) (*Identity, error)
}

// PasswordHasher stores and verifies the secrets behind Credentials.
type PasswordHasher interface {
	Hash(password string) (string, error)

	// Check reports whether password produced hash.
	Check(password, hash string) bool
}

// Claims are carried by the session token handed out as Identity.AccessToken.
type Claims struct {
	UserID uuid.UUID `json:"uid"`
	Email  string    `json:"email"`
	jwt.RegisteredClaims
}

// TokenService issues the session tokens of the password auth gateway.
type TokenService interface {
	// GenerateSessionToken signs a token for the account and returns its expiry.
	GenerateSessionToken(userID uuid.UUID, email string) (string, time.Time, error)

	ValidateToken(tokenString string) (*Claims, error)
}
