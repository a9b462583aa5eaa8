package impl

import (
	"context"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"sync/atomic"

	deliverycontext "storefront/internal/delivery/context"
	"storefront/internal/domain/entity"
	domainerrors "storefront/internal/domain/errors"
	"storefront/internal/domain/repository"
	"storefront/internal/domain/service"
	"storefront/internal/errors"
	"storefront/internal/state"
	"storefront/internal/usecase"

	"github.com/google/uuid"
	"go.uber.org/fx"
)

// messageChannel owns the single live message subscription.
type messageChannel struct {
	messageRepo      repository.MessageRepository
	conversationRepo repository.ConversationRepository
	feed             service.ChangeFeed
	loader           *conversationLoader
	unread           usecase.UnreadUsecase
	store            *state.Store
	baseCtx          context.Context
	logger           *slog.Logger

	mu   sync.Mutex
	sub  service.Subscription
	live int

	// generation identifies the current subscription; events carrying an older one are stale.
	generation atomic.Uint64
}

// MessageChannelParams holds dependencies for MessageChannel, injected by Fx.
type MessageChannelParams struct {
	fx.In

	Lc               fx.Lifecycle
	Ctx              context.Context
	MessageRepo      repository.MessageRepository
	ConversationRepo repository.ConversationRepository
	Feed             service.ChangeFeed
	Loader           *conversationLoader
	Unread           usecase.UnreadUsecase
	Store            *state.Store
	Logger           *slog.Logger
}

// NewMessageChannel is the constructor for messageChannel.
func NewMessageChannel(params MessageChannelParams) usecase.MessageUsecase {
	channel := &messageChannel{
		messageRepo:      params.MessageRepo,
		conversationRepo: params.ConversationRepo,
		feed:             params.Feed,
		loader:           params.Loader,
		unread:           params.Unread,
		store:            params.Store,
		baseCtx:          params.Ctx,
		logger:           params.Logger,
	}

	params.Lc.Append(fx.Hook{
		OnStop: func(context.Context) error {
			channel.Detach()

			return nil
		},
	})

	return channel
}

// log returns a request-scoped logger if available, otherwise falls back to the service's logger.
func (ch *messageChannel) log(ctx context.Context) *slog.Logger {
	return deliverycontext.GetLoggerOrDefault(ctx, ch.logger)
}

// FetchHistory loads the conversation's messages and marks the counterparty's ones read.
// Only participants may read a conversation. The result is dropped when another
// conversation became active meanwhile.
func (ch *messageChannel) FetchHistory(ctx context.Context, conversationID uuid.UUID) ([]*entity.Message, error) {
	user, err := requireUser(ch.store)
	if err != nil {
		return nil, err
	}
	if err := checkParticipant(ctx, ch.store, ch.conversationRepo, user.ID, conversationID); err != nil {
		return nil, err
	}
	viewerID := user.ID

	ch.store.UpdateIf(func(next *state.Snapshot) bool {
		if !next.Chat.IsActive(conversationID) {
			return false
		}
		next.Chat.Loading = true

		return true
	})

	messages, err := ch.messageRepo.FindByConversation(ctx, conversationID)
	if err != nil {
		ch.store.UpdateIf(func(next *state.Snapshot) bool {
			if !next.Chat.IsActive(conversationID) {
				return false
			}
			next.Chat.Loading = false
			next.Chat.Err = readError(gatewayError(err, "fetch messages"))

			return true
		})

		return nil, gatewayError(err, "fetch messages")
	}

	if hasUnreadFrom(messages, viewerID) {
		if _, err := ch.messageRepo.MarkConversationRead(ctx, conversationID, viewerID); err != nil {
			ch.log(ctx).Warn("Marking conversation read failed", slog.Any("conversation_id", conversationID), slog.Any("error", err))
		} else {
			messages = markedRead(messages, viewerID)
		}
	}

	_, applied := ch.store.UpdateIf(func(next *state.Snapshot) bool {
		if !next.Chat.IsActive(conversationID) {
			return false
		}
		next.Chat.Messages = mergeMessages(messages, next.Chat.Messages)
		next.Chat.Loading = false
		next.Chat.Err = ""

		return true
	})
	if !applied {
		ch.log(ctx).Debug("Discarding history of an inactive conversation", slog.Any("conversation_id", conversationID))
	}

	if _, err := ch.unread.Refresh(ctx); err != nil {
		ch.log(ctx).Warn("Unread refresh failed", slog.Any("error", err))
	}

	return messages, nil
}

// Attach subscribes to conversationID and then tears down the previous subscription.
// On failure the previous subscription stays live.
func (ch *messageChannel) Attach(ctx context.Context, conversationID uuid.UUID) error {
	ch.mu.Lock()
	defer ch.mu.Unlock()

	generation := ch.generation.Load() + 1
	sub, err := ch.feed.SubscribeMessages(ch.baseCtx, conversationID, func(pushCtx context.Context, message *entity.Message) {
		ch.handlePush(pushCtx, generation, message)
	})
	if err != nil {
		return gatewayError(err, "subscribe messages")
	}

	ch.closeLocked(ctx)
	ch.generation.Store(generation)
	ch.sub = sub
	ch.live++

	if ch.live != 1 {
		ch.log(ctx).Error("Message subscription invariant violated", slog.Int("live", ch.live))

		return errors.WithStack(usecase.ErrSubscriptionInvariant)
	}
	ch.log(ctx).Debug("Message subscription attached", slog.Any("conversation_id", conversationID))

	return nil
}

func (ch *messageChannel) Detach() {
	ch.mu.Lock()
	defer ch.mu.Unlock()

	ch.closeLocked(ch.baseCtx)
	ch.generation.Add(1)
}

func (ch *messageChannel) ActiveSubscriptions() int {
	ch.mu.Lock()
	defer ch.mu.Unlock()

	return ch.live
}

// SendMessage inserts the message. It is not echoed locally; the push delivers it.
func (ch *messageChannel) SendMessage(ctx context.Context, text string) error {
	user, err := requireUser(ch.store)
	if err != nil {
		return err
	}
	content := strings.TrimSpace(text)
	if content == "" {
		return domainerrors.ErrEmptyMessage
	}
	active := ch.store.Snapshot().Chat.ActiveID
	if active == nil {
		return domainerrors.ErrNoActiveConversation
	}

	message := &entity.Message{
		ConversationID: *active,
		SenderID:       user.ID,
		Content:        content,
	}
	if err := ch.messageRepo.Create(ctx, message); err != nil {
		return gatewayError(err, "send message")
	}

	if err := ch.conversationRepo.Touch(ctx, message.ConversationID, message.CreatedAt); err != nil {
		ch.log(ctx).Warn("Conversation touch failed", slog.Any("conversation_id", message.ConversationID), slog.Any("error", err))
	}
	if _, err := ch.loader.load(ctx, user.ID); err != nil {
		ch.log(ctx).Warn("Conversation list refresh failed", slog.Any("error", err))
	}

	return nil
}

// handlePush applies one inserted message delivered by the feed.
func (ch *messageChannel) handlePush(pushCtx context.Context, generation uint64, message *entity.Message) {
	if generation != ch.generation.Load() {
		return
	}

	var viewerID uuid.UUID
	_, applied := ch.store.UpdateIf(func(next *state.Snapshot) bool {
		if !next.Chat.IsActive(message.ConversationID) {
			return false
		}
		viewerID = next.UserID()
		if !slices.ContainsFunc(next.Chat.Messages, func(m *entity.Message) bool { return m.ID == message.ID }) {
			next.Chat.Messages = insertByCreatedAt(next.Chat.Messages, message)
		}
		bumpConversation(next, message)

		return true
	})
	if !applied || !message.CanBeMarkedReadBy(viewerID) || message.IsRead {
		return
	}

	ctx, cancel := background(ch.baseCtx, pushCtx)
	defer cancel()

	if err := ch.messageRepo.MarkRead(ctx, message.ID, viewerID); err != nil {
		ch.log(ctx).Warn("Marking pushed message read failed", slog.Any("message_id", message.ID), slog.Any("error", err))

		return
	}
	ch.store.Update(func(next *state.Snapshot) {
		for i, m := range next.Chat.Messages {
			if m.ID == message.ID {
				read := m.Clone()
				read.IsRead = true
				next.Chat.Messages[i] = read
			}
		}
	})
	if _, err := ch.unread.Refresh(ctx); err != nil {
		ch.log(ctx).Warn("Unread refresh failed", slog.Any("error", err))
	}
}

func (ch *messageChannel) closeLocked(ctx context.Context) {
	if ch.sub == nil {
		return
	}
	if err := ch.sub.Close(); err != nil {
		ch.log(ctx).Warn("Closing message subscription failed", slog.Any("error", err))
	}
	ch.log(ctx).Debug("Message subscription detached", slog.Any("conversation_id", ch.sub.ConversationID()))
	ch.sub = nil
	ch.live--
}

// bumpConversation moves the conversation's UpdatedAt forward and re-sorts the list.
func bumpConversation(next *state.Snapshot, message *entity.Message) {
	for i, conversation := range next.Chat.Conversations {
		if conversation.ID != message.ConversationID || !message.CreatedAt.After(conversation.UpdatedAt) {
			continue
		}
		bumped := conversation.Clone()
		bumped.UpdatedAt = message.CreatedAt
		next.Chat.Conversations[i] = bumped
		state.SortConversations(next.Chat.Conversations)

		return
	}
}

// mergeMessages combines fetched history with already pushed messages, deduplicated by id,
// in creation order.
func mergeMessages(history, buffered []*entity.Message) []*entity.Message {
	merged := slices.Clone(history)
	seen := make(map[uuid.UUID]struct{}, len(history))
	for _, message := range history {
		seen[message.ID] = struct{}{}
	}
	for _, message := range buffered {
		if _, ok := seen[message.ID]; !ok {
			merged = append(merged, message)
		}
	}
	slices.SortStableFunc(merged, func(a, b *entity.Message) int {
		return a.CreatedAt.Compare(b.CreatedAt)
	})

	return merged
}

// insertByCreatedAt places message after every message created no later than it.
func insertByCreatedAt(messages []*entity.Message, message *entity.Message) []*entity.Message {
	at := len(messages)
	for at > 0 && messages[at-1].CreatedAt.After(message.CreatedAt) {
		at--
	}

	return slices.Insert(messages, at, message)
}

func hasUnreadFrom(messages []*entity.Message, viewerID uuid.UUID) bool {
	return slices.ContainsFunc(messages, func(m *entity.Message) bool {
		return !m.IsRead && m.CanBeMarkedReadBy(viewerID)
	})
}

func markedRead(messages []*entity.Message, viewerID uuid.UUID) []*entity.Message {
	out := make([]*entity.Message, len(messages))
	for i, message := range messages {
		if !message.IsRead && message.CanBeMarkedReadBy(viewerID) {
			message = message.Clone()
			message.IsRead = true
		}
		out[i] = message
	}

	return out
}
