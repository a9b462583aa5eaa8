package impl

import (
	"context"
	"log/slog"
	"sync"

	deliverycontext "storefront/internal/delivery/context"
	"storefront/internal/domain/constants"
	"storefront/internal/domain/entity"
	domainerrors "storefront/internal/domain/errors"
	"storefront/internal/domain/repository"
	"storefront/internal/domain/service"
	"storefront/internal/errors"
	"storefront/internal/state"
	"storefront/internal/usecase"

	"github.com/google/uuid"
	"go.uber.org/fx"
	"golang.org/x/sync/singleflight"
)

type conversationService struct {
	conversationRepo repository.ConversationRepository
	loader           *conversationLoader
	messages         usecase.MessageUsecase
	localStore       service.LocalStore
	store            *state.Store
	logger           *slog.Logger

	// starts collapses concurrent StartConversation calls for one key.
	starts singleflight.Group

	// switching serializes changes of the active conversation with its subscription.
	switching sync.Mutex
}

// ConversationServiceParams holds dependencies for ConversationService, injected by Fx.
type ConversationServiceParams struct {
	fx.In

	ConversationRepo repository.ConversationRepository
	Loader           *conversationLoader
	Messages         usecase.MessageUsecase
	LocalStore       service.LocalStore
	Store            *state.Store
	Logger           *slog.Logger
}

// NewConversationService is the constructor for conversationService.
func NewConversationService(params ConversationServiceParams) usecase.ConversationUsecase {
	return &conversationService{
		conversationRepo: params.ConversationRepo,
		loader:           params.Loader,
		messages:         params.Messages,
		localStore:       params.LocalStore,
		store:            params.Store,
		logger:           params.Logger,
	}
}

// log returns a request-scoped logger if available, otherwise falls back to the service's logger.
func (srv *conversationService) log(ctx context.Context) *slog.Logger {
	return deliverycontext.GetLoggerOrDefault(ctx, srv.logger)
}

// StartConversation finds or creates the single conversation for the key and activates it.
func (srv *conversationService) StartConversation(ctx context.Context, listingID, sellerID uuid.UUID) (*entity.Conversation, error) {
	user, err := requireUser(srv.store)
	if err != nil {
		return nil, err
	}
	if sellerID == user.ID {
		return nil, domainerrors.ErrSelfConversation
	}

	key := entity.ConversationKey{ListingID: listingID, BuyerID: user.ID, SellerID: sellerID}
	result, err, shared := srv.starts.Do(key.String(), func() (any, error) {
		return srv.resolve(ctx, key)
	})
	if err != nil {
		return nil, err
	}
	conversation, _ := result.(*entity.Conversation)
	if shared {
		srv.log(ctx).Debug("Conversation start collapsed", slog.String("key", key.String()))
	}

	if err := srv.SetActiveConversation(ctx, &conversation.ID); err != nil {
		return nil, err
	}

	return conversation, nil
}

// resolve looks the key up and inserts it when missing. A losing insert race re-reads the winner.
func (srv *conversationService) resolve(ctx context.Context, key entity.ConversationKey) (*entity.Conversation, error) {
	existing, err := srv.conversationRepo.FindByKey(ctx, key)
	if err == nil {
		srv.setStatus(existing.ID, entity.ConversationRequested)

		return existing, nil
	}
	if !errors.Is(err, repository.ErrConversationNotFound) {
		return nil, gatewayError(err, "find conversation")
	}

	conversation := &entity.Conversation{
		ID:        uuid.New(),
		ListingID: key.ListingID,
		BuyerID:   key.BuyerID,
		SellerID:  key.SellerID,
	}
	srv.setStatus(conversation.ID, entity.ConversationRequested)

	err = srv.conversationRepo.Create(ctx, conversation)
	if errors.Is(err, repository.ErrDuplicateConversation) {
		srv.clearStatus(conversation.ID)
		existing, err = srv.conversationRepo.FindByKey(ctx, key)
		if err != nil {
			return nil, gatewayError(err, "find conversation")
		}
		srv.setStatus(existing.ID, entity.ConversationRequested)
		conversation = existing
	} else if err != nil {
		srv.clearStatus(conversation.ID)

		return nil, gatewayError(err, "create conversation")
	} else {
		srv.log(ctx).Info("Conversation created", slog.Any("conversation_id", conversation.ID))
	}

	if _, err := srv.loader.load(ctx, key.BuyerID); err != nil {
		srv.log(ctx).Warn("Conversation list refresh failed", slog.Any("error", err))
	}

	return conversation, nil
}

func (srv *conversationService) FetchConversations(ctx context.Context) ([]*entity.Conversation, error) {
	user, err := requireUser(srv.store)
	if err != nil {
		return nil, err
	}

	srv.store.Update(func(next *state.Snapshot) {
		next.Chat.Loading = true
	})
	conversations, err := srv.loader.load(ctx, user.ID)
	srv.store.Update(func(next *state.Snapshot) {
		next.Chat.Loading = false
	})

	return conversations, err
}

// SetActiveConversation attaches the subscription to the target, then backgrounds the
// previous conversation and clears the message buffer in one swap, and fetches history.
// When the subscription cannot be opened the previous conversation stays active.
func (srv *conversationService) SetActiveConversation(ctx context.Context, id *uuid.UUID) error {
	if id == nil {
		srv.deactivate(ctx)

		return nil
	}

	user, err := requireUser(srv.store)
	if err != nil {
		return err
	}
	if err := checkParticipant(ctx, srv.store, srv.conversationRepo, user.ID, *id); err != nil {
		return err
	}

	target := *id
	if err := srv.activate(ctx, target); err != nil {
		return err
	}
	if _, err := srv.messages.FetchHistory(ctx, target); err != nil {
		return err
	}

	return nil
}

func (srv *conversationService) activate(ctx context.Context, target uuid.UUID) error {
	srv.switching.Lock()
	defer srv.switching.Unlock()

	if err := srv.messages.Attach(ctx, target); err != nil {
		return err
	}

	srv.store.Update(func(next *state.Snapshot) {
		if prev := next.Chat.ActiveID; prev != nil && *prev != target {
			next.Chat.Statuses[*prev] = entity.ConversationBackgrounded
		}
		next.Chat.ActiveID = &target
		next.Chat.Statuses[target] = entity.ConversationActive
		next.Chat.Messages = nil
		next.Chat.Err = ""
	})

	if err := srv.localStore.Set(ctx, constants.LocalKeyActiveConversation, target.String()); err != nil {
		srv.log(ctx).Warn("Failed to persist active conversation", slog.Any("error", err))
	}

	return nil
}

func (srv *conversationService) ActiveConversationID() *uuid.UUID {
	active := srv.store.Snapshot().Chat.ActiveID
	if active == nil {
		return nil
	}
	id := *active

	return &id
}

func (srv *conversationService) Status(id uuid.UUID) entity.ConversationStatus {
	return srv.store.Snapshot().Chat.Status(id)
}

// OnSessionStarted loads the list and restores the persisted active conversation.
func (srv *conversationService) OnSessionStarted(ctx context.Context, user *entity.User) {
	conversations, err := srv.loader.load(ctx, user.ID)
	if err != nil {
		srv.log(ctx).Warn("Conversation list load failed", slog.Any("error", err))

		return
	}

	raw, ok, err := srv.localStore.Get(ctx, constants.LocalKeyActiveConversation)
	if err != nil || !ok {
		return
	}
	id, err := uuid.Parse(raw)
	if err == nil && containsConversation(conversations, id) {
		if err := srv.SetActiveConversation(ctx, &id); err != nil {
			srv.log(ctx).Warn("Active conversation restore failed", slog.Any("error", err))
		}

		return
	}

	if err := srv.localStore.Delete(ctx, constants.LocalKeyActiveConversation); err != nil {
		srv.log(ctx).Warn("Failed to clear active conversation", slog.Any("error", err))
	}
}

func (srv *conversationService) OnSessionEnded(ctx context.Context) {
	srv.switching.Lock()
	srv.messages.Detach()
	srv.switching.Unlock()

	if err := srv.localStore.Delete(ctx, constants.LocalKeyActiveConversation); err != nil {
		srv.log(ctx).Warn("Failed to clear active conversation", slog.Any("error", err))
	}
}

func (srv *conversationService) deactivate(ctx context.Context) {
	srv.switching.Lock()
	defer srv.switching.Unlock()

	srv.messages.Detach()
	srv.store.Update(func(next *state.Snapshot) {
		if prev := next.Chat.ActiveID; prev != nil {
			next.Chat.Statuses[*prev] = entity.ConversationBackgrounded
		}
		next.Chat.ActiveID = nil
		next.Chat.Messages = nil
	})
	if err := srv.localStore.Delete(ctx, constants.LocalKeyActiveConversation); err != nil {
		srv.log(ctx).Warn("Failed to clear active conversation", slog.Any("error", err))
	}
}

// checkParticipant verifies userID takes part in the conversation, consulting the
// cached list before the gateway.
func checkParticipant(ctx context.Context, store *state.Store, conversationRepo repository.ConversationRepository, userID, id uuid.UUID) error {
	for _, conversation := range store.Snapshot().Chat.Conversations {
		if conversation.ID == id {
			if conversation.HasParticipant(userID) {
				return nil
			}

			return domainerrors.ErrNotParticipant
		}
	}

	conversation, err := conversationRepo.FindByID(ctx, id)
	if err != nil {
		return gatewayError(err, "find conversation")
	}
	if !conversation.HasParticipant(userID) {
		return domainerrors.ErrNotParticipant
	}

	return nil
}

func (srv *conversationService) setStatus(id uuid.UUID, status entity.ConversationStatus) {
	srv.store.Update(func(next *state.Snapshot) {
		if next.Chat.Status(id) == entity.ConversationActive {
			return
		}
		next.Chat.Statuses[id] = status
	})
}

func (srv *conversationService) clearStatus(id uuid.UUID) {
	srv.store.Update(func(next *state.Snapshot) {
		delete(next.Chat.Statuses, id)
	})
}

func containsConversation(conversations []*entity.Conversation, id uuid.UUID) bool {
	for _, conversation := range conversations {
		if conversation.ID == id {
			return true
		}
	}

	return false
}
