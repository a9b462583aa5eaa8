package postgres

import "go.uber.org/fx"

// Module provides the PostgreSQL connection and every repository built on it
//
//nolint:gochecknoglobals
var Module = fx.Options(
	fx.Provide(
		New,
		NewListingRepository,
		NewCategoryRepository,
		NewFavoriteRepository,
		NewConversationRepository,
		NewMessageRepository,
		NewReviewRepository,
		NewUserRepository,
		NewCredentialRepository,
	),
)
