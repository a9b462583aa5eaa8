package pubsub

import (
	"context"
	"log/slog"

	"storefront/internal/domain/entity"
	"storefront/internal/domain/repository"
	"storefront/internal/domain/service"
)

// publishingMessageRepository announces every inserted message on the change feed, the
// way a database trigger feeds a realtime channel.
type publishingMessageRepository struct {
	repository.MessageRepository

	feed   service.ChangeFeed
	logger *slog.Logger
}

// DecorateMessageRepository wraps repo so Create publishes to feed.
func DecorateMessageRepository(repo repository.MessageRepository, feed service.ChangeFeed, logger *slog.Logger) repository.MessageRepository {
	return &publishingMessageRepository{
		MessageRepository: repo,
		feed:              feed,
		logger:            logger,
	}
}

func (r *publishingMessageRepository) Create(ctx context.Context, message *entity.Message) error {
	if err := r.MessageRepository.Create(ctx, message); err != nil {
		return err
	}

	// The row is stored; a lost announcement is recovered by the next history fetch.
	if err := r.feed.PublishMessageInserted(ctx, message); err != nil {
		r.logger.Warn("Failed to publish inserted message",
			slog.String("message_id", message.ID.String()),
			slog.Any("error", err),
		)
	}

	return nil
}
