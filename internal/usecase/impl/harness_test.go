package impl

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"storefront/config"
	"storefront/internal/domain/entity"
	"storefront/internal/domain/repository"
	"storefront/internal/domain/service"
	"storefront/internal/infra/auth"
	"storefront/internal/infra/localstore"
	"storefront/internal/infra/persistence/memory"
	"storefront/internal/infra/pubsub"
	"storefront/internal/infra/qrcode"
	"storefront/internal/infra/storage"
	"storefront/internal/state"
	"storefront/internal/usecase"

	"github.com/stretchr/testify/require"
	"go.uber.org/fx/fxtest"
	"golang.org/x/crypto/bcrypt"
)

const testPassword = "secret123"

func newDiscardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestConfig() *config.Config {
	cfg := &config.Config{
		Auth: &config.AuthConfig{
			SecretKey:  "test_session_secret_key_long_enough",
			TokenTTL:   time.Hour,
			BcryptCost: bcrypt.MinCost,
		},
		Search:  &config.SearchConfig{Debounce: 30 * time.Millisecond},
		Session: &config.SessionConfig{ProvisionWait: 500 * time.Millisecond},
		QRCode:  &config.QRCodeConfig{Size: 128, ErrorCorrectionLevel: "M", BaseURL: "https://storefront.test"},
	}
	cfg.ApplyDefaults()

	return cfg
}

// backend is the remote side shared by every client of a test.
type backend struct {
	gw       *memory.Gateway
	feed     service.ChangeFeed
	messages repository.MessageRepository
	storage  service.ObjectStorage
	cfg      *config.Config
	logger   *slog.Logger
}

func newBackend(t *testing.T, opts ...memory.Option) *backend {
	t.Helper()

	logger := newDiscardLogger()
	gw := memory.NewGateway(opts...)
	feed := pubsub.NewLocalBroker(16, logger)
	objects, err := storage.NewBlobStorage(context.Background(), "mem://", "https://cdn.storefront.test", logger)
	require.NoError(t, err)

	t.Cleanup(func() {
		_ = feed.Close()
		_ = objects.Close()
	})

	return &backend{
		gw:       gw,
		feed:     feed,
		messages: pubsub.DecorateMessageRepository(gw.Messages(), feed, logger),
		storage:  objects,
		cfg:      newTestConfig(),
		logger:   logger,
	}
}

// client is one signed-in (or anonymous) storefront process.
type client struct {
	store         *state.Store
	local         service.LocalStore
	session       usecase.SessionUsecase
	listings      usecase.ListingUsecase
	favorites     usecase.FavoriteUsecase
	conversations usecase.ConversationUsecase
	messages      usecase.MessageUsecase
	unread        usecase.UnreadUsecase
	preferences   usecase.PreferenceUsecase
	reviews       usecase.ReviewUsecase
	admin         usecase.AdminUsecase
}

func (b *backend) newClient(t *testing.T) *client {
	t.Helper()

	local, err := localstore.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = local.Close() })

	return b.newClientWithLocalStore(t, local)
}

func (b *backend) newClientWithLocalStore(t *testing.T, local service.LocalStore) *client {
	t.Helper()

	lc := fxtest.NewLifecycle(t)
	ctx := context.Background()
	store := state.New()

	tokens, err := auth.NewJWTService(b.cfg)
	require.NoError(t, err)
	authService := auth.NewPasswordAuth(auth.PasswordAuthParams{
		Credentials:  b.gw.Credentials(),
		Hasher:       auth.NewBcryptHasher(b.cfg),
		TokenService: tokens,
	})

	loader := newConversationLoader(conversationLoaderParams{
		ConversationRepo: b.gw.Conversations(),
		ListingRepo:      b.gw.Listings(),
		UserRepo:         b.gw.Users(),
		Store:            store,
		Logger:           b.logger,
	})
	unread := NewUnreadService(UnreadServiceParams{
		MessageRepo: b.messages,
		Store:       store,
		Logger:      b.logger,
	})
	messages := NewMessageChannel(MessageChannelParams{
		Lc:               lc,
		Ctx:              ctx,
		MessageRepo:      b.messages,
		ConversationRepo: b.gw.Conversations(),
		Feed:             b.feed,
		Loader:           loader,
		Unread:           unread,
		Store:            store,
		Logger:           b.logger,
	})
	conversations := NewConversationService(ConversationServiceParams{
		ConversationRepo: b.gw.Conversations(),
		Loader:           loader,
		Messages:         messages,
		LocalStore:       local,
		Store:            store,
		Logger:           b.logger,
	})
	favorites := NewFavoriteService(FavoriteServiceParams{
		FavoriteRepo: b.gw.Favorites(),
		ListingRepo:  b.gw.Listings(),
		LocalStore:   local,
		Store:        store,
		Logger:       b.logger,
	})
	listings := NewListingService(ListingServiceParams{
		Lc:           lc,
		Ctx:          ctx,
		ListingRepo:  b.gw.Listings(),
		CategoryRepo: b.gw.Categories(),
		Storage:      b.storage,
		QRCode:       qrcode.NewQRCodeService(b.cfg),
		Store:        store,
		Config:       b.cfg,
		Logger:       b.logger,
	})
	session := NewSessionService(SessionServiceParams{
		Auth:        authService,
		UserRepo:    b.gw.Users(),
		ListingRepo: b.gw.Listings(),
		ReviewRepo:  b.gw.Reviews(),
		Storage:     b.storage,
		Store:       store,
		Listeners:   []usecase.SessionListener{favorites, unread, conversations},
		Config:      b.cfg,
		Logger:      b.logger,
	})

	lc.RequireStart()
	t.Cleanup(func() { lc.RequireStop() })

	return &client{
		store:         store,
		local:         local,
		session:       session,
		listings:      listings,
		favorites:     favorites,
		conversations: conversations,
		messages:      messages,
		unread:        unread,
		preferences:   NewPreferenceService(local, store, b.logger),
		reviews:       NewReviewService(b.gw.Reviews(), store, b.logger),
		admin: NewAdminService(AdminServiceParams{
			UserRepo:    b.gw.Users(),
			ListingRepo: b.gw.Listings(),
			ReviewRepo:  b.gw.Reviews(),
			Store:       store,
			Logger:      b.logger,
		}),
	}
}

// signUp registers and signs in a fresh account.
func (c *client) signUp(t *testing.T, name, email string) *entity.User {
	t.Helper()

	user, err := c.session.Register(context.Background(), &usecase.Registration{
		Name:     name,
		Email:    email,
		Password: testPassword,
	})
	require.NoError(t, err)

	return user
}

func credentialsFor(email string) service.Credentials {
	return service.Credentials{Email: email, Password: testPassword}
}

func (c *client) signIn(t *testing.T, email string) *entity.User {
	t.Helper()

	user, err := c.session.Login(context.Background(), credentialsFor(email))
	require.NoError(t, err)

	return user
}

func testImages(n int) []*entity.ImageUpload {
	images := make([]*entity.ImageUpload, n)
	for i := range images {
		images[i] = &entity.ImageUpload{Name: "photo.PNG", ContentType: "image/png", Data: []byte{0x89, 'P', 'N', 'G'}}
	}

	return images
}

func testDraft(title string) *entity.ListingDraft {
	return &entity.ListingDraft{
		Title:      title,
		Price:      "120,50",
		CategoryID: "electro",
		City:       "Bratislava",
		Region:     "ba",
	}
}

// createListing publishes a listing as the client's user.
func (c *client) createListing(t *testing.T, title string) *entity.Listing {
	t.Helper()

	listing, err := c.listings.Create(context.Background(), testDraft(title), testImages(1))
	require.NoError(t, err)

	return listing
}
