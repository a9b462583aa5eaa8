package entity

import (
	"math"
	"time"

	"github.com/google/uuid"
)

// Review limits
const (
	MinRating = 1
	MaxRating = 5
)

// Review is an append-only rating of one user by another.
type Review struct {
	ID           uuid.UUID `json:"id"`
	ReviewerID   uuid.UUID `json:"reviewerId"`
	RevieweeID   uuid.UUID `json:"revieweeId"`
	Rating       int       `json:"rating"`
	Comment      string    `json:"comment"`
	CreatedAt    time.Time `json:"createdAt"`
	ReviewerName string    `json:"reviewerName,omitempty"` // Joined on reads.
}

// AverageRating derives the rating shown on a profile, rounded to one decimal.
func AverageRating(reviews []*Review) (float64, int) {
	if len(reviews) == 0 {
		return 0, 0
	}

	total := 0
	for _, review := range reviews {
		total += review.Rating
	}
	avg := float64(total) / float64(len(reviews))

	return math.Round(avg*10) / 10, len(reviews)
}
