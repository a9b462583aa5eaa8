package main

import (
	"context"
	"log/slog"
	"os"

	"storefront/config"
	"storefront/internal/delivery"
	"storefront/internal/delivery/http"
	"storefront/internal/delivery/http/middleware"
	"storefront/internal/delivery/http/router/handler"
	"storefront/internal/domain/lifecycle"
	"storefront/internal/infra/auth"
	"storefront/internal/infra/identity"
	"storefront/internal/infra/localstore"
	logs "storefront/internal/infra/log"
	"storefront/internal/infra/persistence/memory"
	"storefront/internal/infra/persistence/postgres"
	"storefront/internal/infra/pubsub"
	"storefront/internal/infra/qrcode"
	"storefront/internal/infra/storage"
	"storefront/internal/state"
	"storefront/internal/usecase"
	"storefront/internal/usecase/impl"

	"go.uber.org/fx"
)

type startServerParams struct {
	fx.In
	fx.Lifecycle

	Deliveries []delivery.Delivery `group:"deliveries"`
}

type restoreParams struct {
	fx.In

	Lc          fx.Lifecycle
	Logger      *slog.Logger
	Preferences usecase.PreferenceUsecase
	Favorites   usecase.FavoriteUsecase
	Session     usecase.SessionUsecase
}

func main() {
	cfg, err := config.New()
	if err != nil {
		slog.Error("Failed to load config", slog.Any("error", err))
		os.Exit(1)
	}

	fx.New(
		fx.Supply(cfg),
		injectInfra(),
		injectRepo(cfg),
		injectService(),
		impl.Module,
		injectDelivery(),
		injectMiddleware(),
		injectHandler(),
		fx.Invoke(
			restoreClientState,
			startServer,
		),
	).Run()
}

func injectInfra() fx.Option {
	return fx.Provide(
		logs.New,
		context.Background,
		state.New,
	)
}

// injectRepo selects the remote data gateway. The change feed decorates the
// message repository so every insert is published.
func injectRepo(cfg *config.Config) fx.Option {
	gateway := memory.Module
	if cfg.Gateway.Driver == config.GatewayDriverPostgres {
		gateway = postgres.Module
	}

	return fx.Options(
		gateway,
		pubsub.Module,
	)
}

func injectService() fx.Option {
	return fx.Options(
		fx.Provide(
			auth.NewBcryptHasher,
			auth.NewJWTService,
			auth.NewPasswordAuth,
			identity.NewIdentityDirectory,
			localstore.NewLocalStore,
			storage.NewObjectStorage,
			qrcode.NewQRCodeService,
		),
	)
}

func injectMiddleware() fx.Option {
	return fx.Options(
		fx.Provide(
			middleware.NewSessionMiddleware,
		),
	)
}

func injectHandler() fx.Option {
	return fx.Options(
		fx.Provide(
			handler.NewStateHandler,
			handler.NewSessionHandler,
			handler.NewListingHandler,
			handler.NewFavoriteHandler,
			handler.NewChatHandler,
			handler.NewAccountHandler,
			handler.NewAdminHandler,
			handler.NewMediaHandler,
		),
	)
}

func injectDelivery() fx.Option {
	return fx.Options(
		fx.Provide(
			fx.Annotate(
				http.NewServer,
				fx.ResultTags(`group:"deliveries"`),
			),
		),
	)
}

// restoreClientState loads what the previous run persisted, then resolves the
// session so the per-user caches follow it.
func restoreClientState(params restoreParams) {
	params.Lc.Append(fx.Hook{
		OnStart: func(startCtx context.Context) error {
			ctx, cancel := context.WithTimeout(startCtx, lifecycle.DefaultTimeout)
			defer cancel()

			if _, err := params.Preferences.Load(ctx); err != nil {
				params.Logger.Warn("Failed to restore language", slog.Any("error", err))
			}
			if err := params.Favorites.Load(ctx); err != nil {
				params.Logger.Warn("Failed to restore favorites", slog.Any("error", err))
			}
			if _, err := params.Session.ResolveSession(ctx); err != nil {
				params.Logger.Warn("Failed to resolve session", slog.Any("error", err))
			}

			return nil
		},
	})
}

func startServer(ctx context.Context, params startServerParams) {
	for _, delivery := range params.Deliveries {
		go func() {
			if err := delivery.Serve(ctx); err != nil {
				slog.Error("Failed to start server", slog.Any("error", err))
				os.Exit(1)
			}
		}()
	}
}
