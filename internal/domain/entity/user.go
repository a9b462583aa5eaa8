// Package entity contains the core business objects of the storefront,
// each representing a unique, identifiable concept within the domain.
package entity

import (
	"time"

	"github.com/google/uuid"
)

// User is a storefront account together with its public profile row.
type User struct {
	ID           uuid.UUID `json:"id"`           // Identifier shared with the auth subsystem.
	Email        string    `json:"email"`        // Login identifier; empty for other users' profiles.
	Name         string    `json:"name"`         // Display name.
	AvatarURL    string    `json:"avatarUrl"`    // Public reference to the avatar image.
	TrustTier    TrustTier `json:"trustTier"`    // Identity-verification strength asserted by the provider.
	Rating       float64   `json:"rating"`       // Average review rating, derived client-side.
	ReviewsCount int       `json:"reviewsCount"` // Number of reviews the rating was derived from.
	Role         Role      `json:"role"`         // Ordinary user or administrator.
	IsBanned     bool      `json:"isBanned"`     // Banned accounts cannot hold a session.
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// IsAdmin reports whether the user holds the administrator role.
func (u *User) IsAdmin() bool {
	if u == nil {
		return false
	}

	switch u.Role {
	case RoleAdmin:
		return true
	case RoleUser:
		return false
	default:
		return false
	}
}

// Clone returns a shallow copy, safe to mutate without touching published snapshots.
func (u *User) Clone() *User {
	if u == nil {
		return nil
	}
	cloned := *u

	return &cloned
}

// ProfileUpdate carries the editable profile fields. Nil fields are left unchanged.
type ProfileUpdate struct {
	Name   *string
	Avatar *ImageUpload
}
