package service

import (
	"context"

	"storefront/internal/domain/entity"

	"github.com/google/uuid"
)

// MessageEvent is the change-feed payload for an inserted message row.
type MessageEvent struct {
	RequestID string          `json:"request_id,omitempty"` // For distributed tracing
	Message   *entity.Message `json:"message"`
}

// MessageHandler receives inserted messages of one conversation, in creation order.
type MessageHandler func(ctx context.Context, message *entity.Message)

// Subscription is a live change-feed subscription.
type Subscription interface {
	ConversationID() uuid.UUID

	// Close stops delivery. After Close returns no new handler invocation starts.
	Close() error
}

// ChangeFeed is the gateway's subscribe-to-table-changes primitive for messages.
type ChangeFeed interface {
	// PublishMessageInserted announces a new message row to its conversation's subscribers.
	PublishMessageInserted(ctx context.Context, message *entity.Message) error

	// SubscribeMessages delivers messages inserted into conversationID to handler.
	SubscribeMessages(ctx context.Context, conversationID uuid.UUID, handler MessageHandler) (Subscription, error)

	// Close releases any resources held by the feed
	Close() error
}
