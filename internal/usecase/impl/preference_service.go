package impl

import (
	"context"
	"log/slog"

	"storefront/internal/domain/constants"
	"storefront/internal/domain/entity"
	domainerrors "storefront/internal/domain/errors"
	"storefront/internal/domain/service"
	"storefront/internal/errors"
	"storefront/internal/state"
	"storefront/internal/usecase"
)

type preferenceService struct {
	localStore service.LocalStore
	store      *state.Store
	logger     *slog.Logger
}

// NewPreferenceService creates the language preference service.
func NewPreferenceService(localStore service.LocalStore, store *state.Store, logger *slog.Logger) usecase.PreferenceUsecase {
	return &preferenceService{
		localStore: localStore,
		store:      store,
		logger:     logger,
	}
}

func (srv *preferenceService) Load(ctx context.Context) (entity.Language, error) {
	raw, ok, err := srv.localStore.Get(ctx, constants.LocalKeyLanguage)
	if err != nil {
		return entity.DefaultLanguage, errors.Wrap(err, "failed to read language")
	}

	lang := entity.DefaultLanguage
	if ok {
		parsed, valid := entity.ParseLanguage(raw)
		if !valid {
			srv.logger.Warn("Ignoring unknown stored language", slog.String("language", raw))
		}
		lang = parsed
	}

	srv.store.Update(func(next *state.Snapshot) {
		next.Language = lang
	})

	return lang, nil
}

func (srv *preferenceService) SetLanguage(ctx context.Context, lang entity.Language) error {
	parsed, ok := entity.ParseLanguage(string(lang))
	if !ok {
		return domainerrors.ErrValidationFailed.WithDetails("language: oneof SK EN")
	}

	srv.store.Update(func(next *state.Snapshot) {
		next.Language = parsed
	})

	if err := srv.localStore.Set(ctx, constants.LocalKeyLanguage, string(parsed)); err != nil {
		return errors.Wrap(err, "failed to persist language")
	}

	return nil
}
