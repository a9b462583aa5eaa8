package entity

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Conversation is a per-listing messaging thread between a buyer and a seller.
type Conversation struct {
	ID        uuid.UUID `json:"id"`
	ListingID uuid.UUID `json:"listingId"`
	BuyerID   uuid.UUID `json:"buyerId"`
	SellerID  uuid.UUID `json:"sellerId"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"` // Bumped on every message; drives list ordering.

	// Decorations resolved client-side, never persisted.
	Listing   *ListingSummary `json:"listing,omitempty"`
	OtherUser *User           `json:"otherUser,omitempty"`
}

// ListingSummary is the part of a listing shown in a conversation header.
type ListingSummary struct {
	ID       uuid.UUID `json:"id"`
	Title    string    `json:"title"`
	Price    float64   `json:"price"`
	Currency string    `json:"currency"`
	Image    string    `json:"image,omitempty"`
}

// Key returns the idempotency key of the conversation.
func (c *Conversation) Key() ConversationKey {
	return ConversationKey{ListingID: c.ListingID, BuyerID: c.BuyerID, SellerID: c.SellerID}
}

// CounterpartyID returns the participant that is not viewerID.
func (c *Conversation) CounterpartyID(viewerID uuid.UUID) uuid.UUID {
	if c.BuyerID == viewerID {
		return c.SellerID
	}

	return c.BuyerID
}

// HasParticipant reports whether userID is the buyer or the seller.
func (c *Conversation) HasParticipant(userID uuid.UUID) bool {
	return c.BuyerID == userID || c.SellerID == userID
}

// Clone returns a copy whose decorations may be replaced independently.
func (c *Conversation) Clone() *Conversation {
	if c == nil {
		return nil
	}
	cloned := *c

	return &cloned
}

// ConversationKey identifies at most one conversation.
type ConversationKey struct {
	ListingID uuid.UUID
	BuyerID   uuid.UUID
	SellerID  uuid.UUID
}

func (k ConversationKey) String() string {
	return fmt.Sprintf("%s:%s:%s", k.ListingID, k.BuyerID, k.SellerID)
}

// ConversationStatus is the client-side lifecycle state of a conversation.
type ConversationStatus string

const (
	ConversationAbsent       ConversationStatus = "absent"
	ConversationRequested    ConversationStatus = "requested"
	ConversationActive       ConversationStatus = "active"
	ConversationBackgrounded ConversationStatus = "backgrounded"
)
