package memory

import (
	"context"
	"slices"
	"time"

	"storefront/internal/domain/entity"
	"storefront/internal/domain/repository"

	"github.com/google/uuid"
)

type conversationRepository struct {
	g *Gateway
}

func (r *conversationRepository) FindByKey(_ context.Context, key entity.ConversationKey) (*entity.Conversation, error) {
	r.g.mu.Lock()
	defer r.g.mu.Unlock()

	if err := r.g.begin("conversations.FindByKey"); err != nil {
		return nil, err
	}

	id, ok := r.g.convKeys[key]
	if !ok {
		return nil, repository.ErrConversationNotFound
	}

	return r.g.conversations[id].Clone(), nil
}

func (r *conversationRepository) FindByID(_ context.Context, id uuid.UUID) (*entity.Conversation, error) {
	r.g.mu.Lock()
	defer r.g.mu.Unlock()

	if err := r.g.begin("conversations.FindByID"); err != nil {
		return nil, err
	}

	conversation, ok := r.g.conversations[id]
	if !ok {
		return nil, repository.ErrConversationNotFound
	}

	return conversation.Clone(), nil
}

func (r *conversationRepository) FindByParticipant(_ context.Context, userID uuid.UUID) ([]*entity.Conversation, error) {
	r.g.mu.Lock()
	defer r.g.mu.Unlock()

	if err := r.g.begin("conversations.FindByParticipant"); err != nil {
		return nil, err
	}

	var result []*entity.Conversation
	for _, conversation := range r.g.conversations {
		if conversation.HasParticipant(userID) {
			result = append(result, conversation.Clone())
		}
	}
	slices.SortStableFunc(result, func(a, b *entity.Conversation) int {
		return b.UpdatedAt.Compare(a.UpdatedAt)
	})

	return result, nil
}

func (r *conversationRepository) Create(_ context.Context, conversation *entity.Conversation) error {
	r.g.mu.Lock()
	defer r.g.mu.Unlock()

	if err := r.g.begin("conversations.Create"); err != nil {
		return err
	}

	key := conversation.Key()
	if _, exists := r.g.convKeys[key]; exists {
		return repository.ErrDuplicateConversation
	}

	if conversation.ID == uuid.Nil {
		conversation.ID = uuid.New()
	}
	now := r.g.tick()
	conversation.CreatedAt = now
	conversation.UpdatedAt = now

	stored := conversation.Clone()
	stored.Listing, stored.OtherUser = nil, nil
	r.g.conversations[conversation.ID] = stored
	r.g.convKeys[key] = conversation.ID

	return nil
}

func (r *conversationRepository) Touch(_ context.Context, id uuid.UUID, at time.Time) error {
	r.g.mu.Lock()
	defer r.g.mu.Unlock()

	if err := r.g.begin("conversations.Touch"); err != nil {
		return err
	}

	conversation, ok := r.g.conversations[id]
	if !ok {
		return repository.ErrConversationNotFound
	}
	if at.After(conversation.UpdatedAt) {
		conversation.UpdatedAt = at
	}

	return nil
}

type messageRepository struct {
	g *Gateway
}

func (r *messageRepository) FindByConversation(_ context.Context, conversationID uuid.UUID) ([]*entity.Message, error) {
	r.g.mu.Lock()
	defer r.g.mu.Unlock()

	if err := r.g.begin("messages.FindByConversation"); err != nil {
		return nil, err
	}

	stored := r.g.messages[conversationID]
	result := make([]*entity.Message, 0, len(stored))
	for _, message := range stored {
		result = append(result, message.Clone())
	}

	return result, nil
}

func (r *messageRepository) Create(_ context.Context, message *entity.Message) error {
	r.g.mu.Lock()
	defer r.g.mu.Unlock()

	if err := r.g.begin("messages.Create"); err != nil {
		return err
	}

	conversation, ok := r.g.conversations[message.ConversationID]
	if !ok {
		return repository.ErrConversationNotFound
	}

	if message.ID == uuid.Nil {
		message.ID = uuid.New()
	}
	message.CreatedAt = r.g.tick()
	message.IsRead = false
	conversation.UpdatedAt = message.CreatedAt

	r.g.messages[message.ConversationID] = append(r.g.messages[message.ConversationID], message.Clone())

	return nil
}

func (r *messageRepository) MarkConversationRead(_ context.Context, conversationID, viewerID uuid.UUID) (int64, error) {
	r.g.mu.Lock()
	defer r.g.mu.Unlock()

	if err := r.g.begin("messages.MarkConversationRead"); err != nil {
		return 0, err
	}

	if conversation, ok := r.g.conversations[conversationID]; !ok || !conversation.HasParticipant(viewerID) {
		return 0, nil
	}

	var marked int64
	for _, message := range r.g.messages[conversationID] {
		if !message.IsRead && message.CanBeMarkedReadBy(viewerID) {
			message.IsRead = true
			marked++
		}
	}

	return marked, nil
}

func (r *messageRepository) MarkRead(_ context.Context, messageID, viewerID uuid.UUID) error {
	r.g.mu.Lock()
	defer r.g.mu.Unlock()

	if err := r.g.begin("messages.MarkRead"); err != nil {
		return err
	}

	for conversationID, messages := range r.g.messages {
		for _, message := range messages {
			if message.ID == messageID {
				conversation, ok := r.g.conversations[conversationID]
				if ok && conversation.HasParticipant(viewerID) && message.CanBeMarkedReadBy(viewerID) {
					message.IsRead = true
				}

				return nil
			}
		}
	}

	return nil
}

func (r *messageRepository) CountUnread(_ context.Context, viewerID uuid.UUID) (int, error) {
	r.g.mu.Lock()
	defer r.g.mu.Unlock()

	if err := r.g.begin("messages.CountUnread"); err != nil {
		return 0, err
	}

	count := 0
	for id, conversation := range r.g.conversations {
		if !conversation.HasParticipant(viewerID) {
			continue
		}
		for _, message := range r.g.messages[id] {
			if !message.IsRead && message.CanBeMarkedReadBy(viewerID) {
				count++
			}
		}
	}

	return count, nil
}
