package pubsub

import (
	"context"
	"log/slog"

	"storefront/config"
	"storefront/internal/domain/constants"
	"storefront/internal/domain/service"

	"github.com/pkg/errors"
	"go.uber.org/fx"
)

// FeedParams holds dependencies for ChangeFeed, injected by Fx
type FeedParams struct {
	fx.In

	Lc     fx.Lifecycle
	Ctx    context.Context
	Config *config.Config
	Logger *slog.Logger
}

// NewChangeFeed creates a ChangeFeed based on configuration
func NewChangeFeed(params FeedParams) (service.ChangeFeed, error) {
	cfg := params.Config.PubSub
	logger := params.Logger

	provider := constants.PubSubProviderLocal
	bufferSize := 0
	if cfg != nil {
		bufferSize = cfg.BufferSize
		if cfg.Provider != "" {
			provider = cfg.Provider
		}
	}

	var feed service.ChangeFeed
	var err error

	switch provider {
	case constants.PubSubProviderLocal:
		logger.Info("Using in-process change feed", slog.Int("buffer_size", bufferSize))

		feed = NewLocalBroker(bufferSize, logger)

	case constants.PubSubProviderGoogle:
		if cfg.ProjectID == "" {
			return nil, errors.New("project ID is required for google provider")
		}
		if cfg.TopicID == "" || cfg.SubscriptionID == "" {
			return nil, errors.New("topic and subscription IDs are required for google provider")
		}

		feed, err = NewGoogleFeed(params.Ctx, cfg.ProjectID, cfg.TopicID, cfg.SubscriptionID, bufferSize, logger)
		if err != nil {
			return nil, err
		}

	default:
		return nil, errors.Errorf("unknown pubsub provider: %s", provider)
	}

	params.Lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			logger.Info("Closing change feed")

			return feed.Close()
		},
	})

	return feed, nil
}

// Module provides the change feed FX module
//
//nolint:gochecknoglobals
var Module = fx.Options(
	fx.Provide(NewChangeFeed),
	fx.Decorate(DecorateMessageRepository),
)
