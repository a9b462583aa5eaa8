package entity

import (
	"time"

	"github.com/google/uuid"
)

// Favorite associates a user with a listing, unique per pair.
type Favorite struct {
	UserID    uuid.UUID
	ListingID uuid.UUID
	CreatedAt time.Time
}
