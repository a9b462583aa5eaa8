// Package memory is an in-process remote data gateway. It keeps every table in maps
// guarded by one lock and reproduces the gateway behaviors the client depends on:
// asynchronous profile provisioning, the unique conversation key, and joined reads.
package memory

import (
	"log/slog"
	"sync"
	"time"

	"storefront/config"
	"storefront/internal/domain/entity"
	"storefront/internal/domain/repository"

	"github.com/google/uuid"
	"go.uber.org/fx"
)

// DefaultCategories seeds the category table.
var DefaultCategories = []*entity.Category{
	{ID: "auto", Name: "Auto-Moto", Icon: "car"},
	{ID: "real", Name: "Nehnuteľnosti", Icon: "home"},
	{ID: "fashion", Name: "Móda & Luxury", Icon: "watch"},
	{ID: "electro", Name: "Elektronika", Icon: "smartphone"},
	{ID: "services", Name: "Služby", Icon: "briefcase"},
	{ID: "art", Name: "Umenie", Icon: "music"},
}

// Gateway holds the tables.
type Gateway struct {
	mu sync.RWMutex

	provisionDelay  time.Duration
	atomicIncrement bool
	lastTick        time.Time

	users         map[uuid.UUID]*entity.User
	credentials   map[uuid.UUID]*entity.Credential
	emails        map[string]uuid.UUID
	listings      map[uuid.UUID]*entity.Listing
	categories    []*entity.Category
	favorites     map[uuid.UUID]map[uuid.UUID]time.Time
	conversations map[uuid.UUID]*entity.Conversation
	convKeys      map[entity.ConversationKey]uuid.UUID
	messages      map[uuid.UUID][]*entity.Message
	reviews       map[uuid.UUID]*entity.Review

	failures map[string][]error
	calls    map[string]int
	pending  sync.WaitGroup
}

// Option configures a Gateway.
type Option func(*Gateway)

// WithProvisionDelay delays profile creation after sign-up. Zero provisions synchronously.
func WithProvisionDelay(d time.Duration) Option {
	return func(g *Gateway) {
		g.provisionDelay = d
	}
}

// WithoutAtomicIncrement makes IncrementViews report ErrAtomicIncrementUnsupported.
func WithoutAtomicIncrement() Option {
	return func(g *Gateway) {
		g.atomicIncrement = false
	}
}

// NewGateway creates an empty gateway seeded with DefaultCategories.
func NewGateway(opts ...Option) *Gateway {
	g := &Gateway{
		atomicIncrement: true,
		users:           make(map[uuid.UUID]*entity.User),
		credentials:     make(map[uuid.UUID]*entity.Credential),
		emails:          make(map[string]uuid.UUID),
		listings:        make(map[uuid.UUID]*entity.Listing),
		favorites:       make(map[uuid.UUID]map[uuid.UUID]time.Time),
		conversations:   make(map[uuid.UUID]*entity.Conversation),
		convKeys:        make(map[entity.ConversationKey]uuid.UUID),
		messages:        make(map[uuid.UUID][]*entity.Message),
		reviews:         make(map[uuid.UUID]*entity.Review),
		failures:        make(map[string][]error),
		calls:           make(map[string]int),
	}
	for _, c := range DefaultCategories {
		cloned := *c
		g.categories = append(g.categories, &cloned)
	}
	for _, opt := range opts {
		opt(g)
	}

	return g
}

// GatewayParams holds dependencies for the memory gateway, injected by Fx
type GatewayParams struct {
	fx.In

	Config *config.Config
	Logger *slog.Logger
}

// NewConfiguredGateway builds the gateway from configuration.
func NewConfiguredGateway(params GatewayParams) *Gateway {
	params.Logger.Info("Using in-memory gateway",
		slog.Duration("provision_delay", params.Config.Gateway.ProvisionDelay),
	)

	return NewGateway(WithProvisionDelay(params.Config.Gateway.ProvisionDelay))
}

// Module provides every repository from one shared in-memory gateway
//
//nolint:gochecknoglobals
var Module = fx.Options(
	fx.Provide(
		NewConfiguredGateway,
		func(g *Gateway) repository.ListingRepository { return g.Listings() },
		func(g *Gateway) repository.CategoryRepository { return g.Categories() },
		func(g *Gateway) repository.FavoriteRepository { return g.Favorites() },
		func(g *Gateway) repository.ConversationRepository { return g.Conversations() },
		func(g *Gateway) repository.MessageRepository { return g.Messages() },
		func(g *Gateway) repository.ReviewRepository { return g.Reviews() },
		func(g *Gateway) repository.UserRepository { return g.Users() },
		func(g *Gateway) repository.CredentialRepository { return g.Credentials() },
	),
)

// FailNext makes the next call of op return err. Ops are named "<table>.<Method>",
// e.g. "listings.Delete". Queued failures are consumed in order.
func (g *Gateway) FailNext(op string, err error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.failures[op] = append(g.failures[op], err)
}

// Calls reports how many times op was invoked.
func (g *Gateway) Calls(op string) int {
	g.mu.RLock()
	defer g.mu.RUnlock()

	return g.calls[op]
}

// WaitProvisioning blocks until every scheduled profile provisioning has run.
func (g *Gateway) WaitProvisioning() {
	g.pending.Wait()
}

// PutUser inserts or replaces a profile row.
func (g *Gateway) PutUser(user *entity.User) {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.users[user.ID] = user.Clone()
}

// SetRole changes the role of a profile.
func (g *Gateway) SetRole(id uuid.UUID, role entity.Role) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	user, ok := g.users[id]
	if !ok {
		return repository.ErrUserNotFound
	}
	user.Role = role

	return nil
}

// PutListing inserts or replaces a listing row.
func (g *Gateway) PutListing(listing *entity.Listing) {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.listings[listing.ID] = listing.Clone()
}

// begin records a call of op under the write lock and returns its injected failure.
// Callers must hold g.mu.
func (g *Gateway) begin(op string) error {
	g.calls[op]++

	queued := g.failures[op]
	if len(queued) == 0 {
		return nil
	}
	g.failures[op] = queued[1:]

	return queued[0]
}

// tick returns a strictly increasing timestamp. Callers must hold g.mu.
func (g *Gateway) tick() time.Time {
	now := time.Now().UTC()
	if !now.After(g.lastTick) {
		now = g.lastTick.Add(time.Microsecond)
	}
	g.lastTick = now

	return now
}

func (g *Gateway) Listings() repository.ListingRepository { return &listingRepository{g: g} }

func (g *Gateway) Categories() repository.CategoryRepository { return &categoryRepository{g: g} }

func (g *Gateway) Favorites() repository.FavoriteRepository { return &favoriteRepository{g: g} }

func (g *Gateway) Conversations() repository.ConversationRepository {
	return &conversationRepository{g: g}
}

func (g *Gateway) Messages() repository.MessageRepository { return &messageRepository{g: g} }

func (g *Gateway) Reviews() repository.ReviewRepository { return &reviewRepository{g: g} }

func (g *Gateway) Users() repository.UserRepository { return &userRepository{g: g} }

func (g *Gateway) Credentials() repository.CredentialRepository {
	return &credentialRepository{g: g}
}
