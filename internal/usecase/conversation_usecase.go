package usecase

import (
	"context"

	"storefront/internal/domain/entity"
	"storefront/internal/errors"

	"github.com/google/uuid"
)

// ErrSubscriptionInvariant is returned when more than one message subscription is live.
var ErrSubscriptionInvariant = errors.New("more than one live message subscription")

// ConversationUsecase manages the conversation list and the active conversation.
type ConversationUsecase interface {
	SessionListener

	// StartConversation opens or creates the conversation about listingID with sellerID
	// and makes it active.
	StartConversation(ctx context.Context, listingID, sellerID uuid.UUID) (*entity.Conversation, error)

	FetchConversations(ctx context.Context) ([]*entity.Conversation, error)

	// SetActiveConversation switches the active conversation. A nil id deselects.
	SetActiveConversation(ctx context.Context, id *uuid.UUID) error

	ActiveConversationID() *uuid.UUID
	Status(id uuid.UUID) entity.ConversationStatus
}

// MessageUsecase streams the active conversation's messages.
type MessageUsecase interface {
	FetchHistory(ctx context.Context, conversationID uuid.UUID) ([]*entity.Message, error)

	// Attach replaces the live subscription with one for conversationID.
	Attach(ctx context.Context, conversationID uuid.UUID) error
	Detach()
	ActiveSubscriptions() int

	SendMessage(ctx context.Context, text string) error
}

// UnreadUsecase maintains the unread badge.
type UnreadUsecase interface {
	SessionListener

	Refresh(ctx context.Context) (int, error)
	MarkAllRead()
}
