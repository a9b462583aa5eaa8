package impl

import (
	"storefront/internal/usecase"

	"go.uber.org/fx"
)

const sessionListenerGroup = `group:"session_listeners"`

// Module provides every use case. Favorites, unread and conversations follow the session.
var Module = fx.Options(
	fx.Provide(
		newConversationLoader,
		NewSessionService,
		NewListingService,
		NewFavoriteService,
		NewConversationService,
		NewMessageChannel,
		NewUnreadService,
		NewPreferenceService,
		NewReviewService,
		NewAdminService,
	),
	fx.Provide(
		fx.Annotate(favoriteListener, fx.ResultTags(sessionListenerGroup)),
		fx.Annotate(unreadListener, fx.ResultTags(sessionListenerGroup)),
		fx.Annotate(conversationListener, fx.ResultTags(sessionListenerGroup)),
	),
)

func favoriteListener(u usecase.FavoriteUsecase) usecase.SessionListener { return u }

func unreadListener(u usecase.UnreadUsecase) usecase.SessionListener { return u }

func conversationListener(u usecase.ConversationUsecase) usecase.SessionListener { return u }
