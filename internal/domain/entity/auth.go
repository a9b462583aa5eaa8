package entity

import (
	"time"

	"github.com/google/uuid"
)

// Credential is an email/password login held by the gateway's auth subsystem.
type Credential struct {
	UserID       uuid.UUID         // Identifier of the account, shared with the profile row.
	Email        string            // Unique, lower-cased login identifier.
	PasswordHash string            // bcrypt hash of the password.
	Metadata     map[string]string // Sign-up metadata; the profile row is provisioned from it.
	CreatedAt    time.Time
}

// Identity metadata keys written at sign-up.
const (
	MetadataName      = "name"
	MetadataAvatarURL = "avatar_url"
)
