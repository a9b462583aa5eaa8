package impl

import (
	"context"
	"log/slog"

	deliverycontext "storefront/internal/delivery/context"
	"storefront/internal/domain/entity"
	"storefront/internal/domain/repository"
	"storefront/internal/state"

	"github.com/google/uuid"
	"go.uber.org/fx"
)

// conversationLoader reads and decorates the viewer's conversation list. It is shared by
// the conversation manager and the message channel.
type conversationLoader struct {
	conversationRepo repository.ConversationRepository
	listingRepo      repository.ListingRepository
	userRepo         repository.UserRepository
	store            *state.Store
	logger           *slog.Logger
}

type conversationLoaderParams struct {
	fx.In

	ConversationRepo repository.ConversationRepository
	ListingRepo      repository.ListingRepository
	UserRepo         repository.UserRepository
	Store            *state.Store
	Logger           *slog.Logger
}

func newConversationLoader(params conversationLoaderParams) *conversationLoader {
	return &conversationLoader{
		conversationRepo: params.ConversationRepo,
		listingRepo:      params.ListingRepo,
		userRepo:         params.UserRepo,
		store:            params.Store,
		logger:           params.Logger,
	}
}

func (l *conversationLoader) log(ctx context.Context) *slog.Logger {
	return deliverycontext.GetLoggerOrDefault(ctx, l.logger)
}

// load replaces the conversation list of viewerID, most recently updated first.
func (l *conversationLoader) load(ctx context.Context, viewerID uuid.UUID) ([]*entity.Conversation, error) {
	conversations, err := l.conversationRepo.FindByParticipant(ctx, viewerID)
	if err != nil {
		l.store.UpdateIf(func(next *state.Snapshot) bool {
			if next.UserID() != viewerID {
				return false
			}
			next.Chat.Err = readError(gatewayError(err, "fetch conversations"))

			return true
		})

		return nil, gatewayError(err, "fetch conversations")
	}

	l.decorate(ctx, viewerID, conversations)
	state.SortConversations(conversations)

	l.store.UpdateIf(func(next *state.Snapshot) bool {
		if next.UserID() != viewerID {
			return false
		}
		next.Chat.Conversations = conversations
		next.Chat.Err = ""

		return true
	})

	return conversations, nil
}

// decorate attaches the listing summary and the counterparty's public profile.
// Lookup failures leave the decorations empty.
func (l *conversationLoader) decorate(ctx context.Context, viewerID uuid.UUID, conversations []*entity.Conversation) {
	if len(conversations) == 0 {
		return
	}

	listingIDs := make([]uuid.UUID, 0, len(conversations))
	userIDs := make([]uuid.UUID, 0, len(conversations))
	for _, conversation := range conversations {
		listingIDs = append(listingIDs, conversation.ListingID)
		userIDs = append(userIDs, conversation.CounterpartyID(viewerID))
	}

	listings := make(map[uuid.UUID]*entity.Listing)
	if found, err := l.listingRepo.FindByIDs(ctx, listingIDs); err != nil {
		l.log(ctx).Warn("Conversation listings lookup failed", slog.Any("error", err))
	} else {
		for _, listing := range found {
			listings[listing.ID] = listing
		}
	}

	users := make(map[uuid.UUID]*entity.User)
	if found, err := l.userRepo.FindByIDs(ctx, userIDs); err != nil {
		l.log(ctx).Warn("Conversation counterparts lookup failed", slog.Any("error", err))
	} else {
		for _, user := range found {
			public := user.Clone()
			public.Email = ""
			users[user.ID] = public
		}
	}

	for _, conversation := range conversations {
		if listing, ok := listings[conversation.ListingID]; ok {
			summary := &entity.ListingSummary{
				ID:       listing.ID,
				Title:    listing.Title,
				Price:    listing.Price,
				Currency: listing.Currency,
			}
			if len(listing.Images) > 0 {
				summary.Image = listing.Images[0]
			}
			conversation.Listing = summary
		}
		conversation.OtherUser = users[conversation.CounterpartyID(viewerID)]
	}
}
