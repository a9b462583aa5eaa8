// Package impl contains the implementation of the application's business logic.
package impl

import (
	"context"

	deliverycontext "storefront/internal/delivery/context"
	"storefront/internal/domain/entity"
	domainerrors "storefront/internal/domain/errors"
	"storefront/internal/domain/lifecycle"
	"storefront/internal/domain/repository"
	"storefront/internal/errors"
	"storefront/internal/state"
)

// requireUser returns the signed-in user. Without one it opens the auth prompt and fails.
func requireUser(store *state.Store) (*entity.User, error) {
	if user := store.Snapshot().Session.User; user != nil {
		return user, nil
	}
	store.Update(func(next *state.Snapshot) {
		next.Session.AuthPromptOpen = true
	})

	return nil, domainerrors.ErrAuthRequired
}

// gatewayError maps a gateway failure onto the domain error taxonomy.
func gatewayError(err error, op string) error {
	if err == nil {
		return nil
	}

	var appErr domainerrors.AppError
	if errors.As(err, &appErr) {
		return errors.Wrap(err, op)
	}

	switch {
	case errors.Is(err, repository.ErrListingNotFound):
		return errors.Wrap(domainerrors.ErrListingNotFound, op)
	case errors.Is(err, repository.ErrConversationNotFound):
		return errors.Wrap(domainerrors.ErrConversationNotFound, op)
	case errors.Is(err, repository.ErrUserNotFound):
		return errors.Wrap(domainerrors.ErrUserNotFound, op)
	case errors.Is(err, repository.ErrReviewNotFound):
		return errors.Wrap(domainerrors.ErrReviewNotFound, op)
	default:
		return errors.Wrap(domainerrors.ErrGatewayUnavailable.WithDetails(err.Error()), op)
	}
}

// readError renders a read failure for a cache error field.
func readError(err error) string {
	var appErr domainerrors.AppError
	if errors.As(err, &appErr) {
		return appErr.Message()
	}

	return err.Error()
}

// background derives a bounded context for work that outlives the triggering request,
// keeping its request-scoped logger.
func background(base, origin context.Context) (context.Context, context.CancelFunc) {
	ctx := base
	if logger := deliverycontext.GetLogger(origin); logger != nil {
		ctx = deliverycontext.WithLogger(ctx, logger)
	}
	if requestID := deliverycontext.GetRequestIDFromContext(origin); requestID != "" {
		ctx = deliverycontext.WithRequestID(ctx, requestID)
	}

	return context.WithTimeout(ctx, lifecycle.BackgroundCallTimeout)
}
