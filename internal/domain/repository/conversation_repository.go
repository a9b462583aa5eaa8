package repository

import (
	"context"
	"time"

	"storefront/internal/domain/entity"
	"storefront/internal/errors"

	"github.com/google/uuid"
)

// Domain-specific errors for conversation persistence.
var (
	// ErrConversationNotFound is returned when no conversation matches.
	ErrConversationNotFound = errors.New("conversation not found")
	// ErrDuplicateConversation is returned when the (listing, buyer, seller) key already exists.
	ErrDuplicateConversation = errors.New("conversation already exists")
)

// ConversationRepository defines conversation queries and mutations.
type ConversationRepository interface {
	// FindByKey retrieves the single conversation for key.
	FindByKey(ctx context.Context, key entity.ConversationKey) (*entity.Conversation, error)

	// FindByID retrieves a conversation by id.
	FindByID(ctx context.Context, id uuid.UUID) (*entity.Conversation, error)

	// FindByParticipant returns conversations where userID is buyer or seller, most recently updated first.
	FindByParticipant(ctx context.Context, userID uuid.UUID) ([]*entity.Conversation, error)

	// Create inserts a conversation or returns ErrDuplicateConversation.
	Create(ctx context.Context, conversation *entity.Conversation) error

	// Touch sets the updated timestamp.
	Touch(ctx context.Context, id uuid.UUID, at time.Time) error
}
