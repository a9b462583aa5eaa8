package repository

import (
	"context"

	"storefront/internal/domain/entity"

	"github.com/google/uuid"
)

// MessageRepository defines message queries and mutations.
type MessageRepository interface {
	// FindByConversation returns the conversation's messages in creation order.
	FindByConversation(ctx context.Context, conversationID uuid.UUID) ([]*entity.Message, error)

	// Create inserts a message and fills its generated fields.
	Create(ctx context.Context, message *entity.Message) error

	// MarkConversationRead flags every unread message of the conversation not sent by viewerID.
	MarkConversationRead(ctx context.Context, conversationID, viewerID uuid.UUID) (int64, error)

	// MarkRead flags one message, unless viewerID sent it.
	MarkRead(ctx context.Context, messageID, viewerID uuid.UUID) error

	// CountUnread counts unread messages not sent by viewerID across viewerID's conversations.
	CountUnread(ctx context.Context, viewerID uuid.UUID) (int, error)
}
