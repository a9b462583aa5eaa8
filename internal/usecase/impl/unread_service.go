package impl

import (
	"context"
	"log/slog"
	"sync/atomic"

	deliverycontext "storefront/internal/delivery/context"
	"storefront/internal/domain/entity"
	"storefront/internal/domain/repository"
	"storefront/internal/state"
	"storefront/internal/usecase"

	"github.com/google/uuid"
	"go.uber.org/fx"
)

type unreadService struct {
	messageRepo repository.MessageRepository
	store       *state.Store
	logger      *slog.Logger

	seq atomic.Uint64
}

// UnreadServiceParams holds dependencies for UnreadService, injected by Fx.
type UnreadServiceParams struct {
	fx.In

	MessageRepo repository.MessageRepository
	Store       *state.Store
	Logger      *slog.Logger
}

// NewUnreadService is the constructor for unreadService.
func NewUnreadService(params UnreadServiceParams) usecase.UnreadUsecase {
	return &unreadService{
		messageRepo: params.MessageRepo,
		store:       params.Store,
		logger:      params.Logger,
	}
}

func (srv *unreadService) log(ctx context.Context) *slog.Logger {
	return deliverycontext.GetLoggerOrDefault(ctx, srv.logger)
}

// Refresh recounts the viewer's unread messages. Only the newest issued count is applied.
func (srv *unreadService) Refresh(ctx context.Context) (int, error) {
	viewerID := srv.store.Snapshot().UserID()
	seq := srv.seq.Add(1)
	if viewerID == uuid.Nil {
		srv.store.Update(func(next *state.Snapshot) {
			next.Unread = 0
		})

		return 0, nil
	}

	count, err := srv.messageRepo.CountUnread(ctx, viewerID)
	if err != nil {
		return 0, gatewayError(err, "count unread")
	}

	_, applied := srv.store.UpdateIf(func(next *state.Snapshot) bool {
		if srv.seq.Load() != seq || next.UserID() != viewerID {
			return false
		}
		next.Unread = count

		return true
	})
	if !applied {
		srv.log(ctx).Debug("Discarding superseded unread count", slog.Int("count", count))
	}

	return count, nil
}

func (srv *unreadService) MarkAllRead() {
	srv.store.Update(func(next *state.Snapshot) {
		next.Unread = 0
	})
}

func (srv *unreadService) OnSessionStarted(ctx context.Context, _ *entity.User) {
	if _, err := srv.Refresh(ctx); err != nil {
		srv.log(ctx).Warn("Unread refresh failed", slog.Any("error", err))
	}
}

func (srv *unreadService) OnSessionEnded(context.Context) {
	srv.seq.Add(1)
	srv.MarkAllRead()
}
