package pubsub

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"

	"storefront/internal/domain/entity"
	"storefront/internal/domain/service"

	"github.com/google/uuid"
	"github.com/pkg/errors"
)

const defaultBufferSize = 64

// ErrFeedClosed is returned when publishing to or subscribing on a closed feed.
var ErrFeedClosed = errors.New("change feed closed")

// localBroker is an in-process change feed. Each subscription owns a queue and a
// delivery goroutine, so a subscriber sees its conversation's messages in publish order.
type localBroker struct {
	bufferSize int
	logger     *slog.Logger

	mu     sync.RWMutex
	subs   map[uuid.UUID]map[uint64]*localSubscription
	nextID uint64
	closed bool
	wg     sync.WaitGroup
}

// NewLocalBroker creates an in-process change feed.
func NewLocalBroker(bufferSize int, logger *slog.Logger) service.ChangeFeed {
	return newLocalBroker(bufferSize, logger)
}

func newLocalBroker(bufferSize int, logger *slog.Logger) *localBroker {
	if bufferSize <= 0 {
		bufferSize = defaultBufferSize
	}

	return &localBroker{
		bufferSize: bufferSize,
		logger:     logger,
		subs:       make(map[uuid.UUID]map[uint64]*localSubscription),
	}
}

// PublishMessageInserted hands a copy of message to every subscriber of its conversation.
func (b *localBroker) PublishMessageInserted(ctx context.Context, message *entity.Message) error {
	b.mu.RLock()
	if b.closed {
		b.mu.RUnlock()

		return ErrFeedClosed
	}
	targets := make([]*localSubscription, 0, len(b.subs[message.ConversationID]))
	for _, sub := range b.subs[message.ConversationID] {
		targets = append(targets, sub)
	}
	b.mu.RUnlock()

	for _, sub := range targets {
		if err := sub.enqueue(ctx, message.Clone()); err != nil {
			return err
		}
	}

	b.logger.Debug("[LocalFeed] Message published",
		slog.String("conversation_id", message.ConversationID.String()),
		slog.Int("subscriber_count", len(targets)),
	)

	return nil
}

// SubscribeMessages registers handler for conversationID until the subscription is closed.
func (b *localBroker) SubscribeMessages(_ context.Context, conversationID uuid.UUID, handler service.MessageHandler) (service.Subscription, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return nil, ErrFeedClosed
	}

	id := b.nextID
	b.nextID++

	ctx, cancel := context.WithCancel(context.Background())
	sub := &localSubscription{
		id:             id,
		conversationID: conversationID,
		queue:          make(chan *entity.Message, b.bufferSize),
		ctx:            ctx,
		cancel:         cancel,
		broker:         b,
	}

	if b.subs[conversationID] == nil {
		b.subs[conversationID] = make(map[uint64]*localSubscription)
	}
	b.subs[conversationID][id] = sub

	b.wg.Add(1)
	go func() {
		defer b.wg.Done()
		sub.run(handler)
	}()

	return sub, nil
}

// Close ends every subscription and waits for their delivery goroutines.
func (b *localBroker) Close() error {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()

		return nil
	}
	b.closed = true
	var all []*localSubscription
	for _, byID := range b.subs {
		for _, sub := range byID {
			all = append(all, sub)
		}
	}
	b.subs = make(map[uuid.UUID]map[uint64]*localSubscription)
	b.mu.Unlock()

	for _, sub := range all {
		sub.stop()
	}
	b.wg.Wait()

	return nil
}

// SubscriberCount reports the live subscriptions of conversationID.
func (b *localBroker) SubscriberCount(conversationID uuid.UUID) int {
	b.mu.RLock()
	defer b.mu.RUnlock()

	return len(b.subs[conversationID])
}

func (b *localBroker) remove(sub *localSubscription) {
	b.mu.Lock()
	defer b.mu.Unlock()

	byID := b.subs[sub.conversationID]
	delete(byID, sub.id)
	if len(byID) == 0 {
		delete(b.subs, sub.conversationID)
	}
}

type localSubscription struct {
	id             uint64
	conversationID uuid.UUID
	queue          chan *entity.Message
	ctx            context.Context
	cancel         context.CancelFunc
	closed         atomic.Bool
	broker         *localBroker
}

func (s *localSubscription) ConversationID() uuid.UUID {
	return s.conversationID
}

func (s *localSubscription) Close() error {
	if s.stop() {
		s.broker.remove(s)
	}

	return nil
}

func (s *localSubscription) stop() bool {
	if !s.closed.CompareAndSwap(false, true) {
		return false
	}
	s.cancel()

	return true
}

func (s *localSubscription) enqueue(ctx context.Context, message *entity.Message) error {
	if s.closed.Load() {
		return nil
	}

	select {
	case s.queue <- message:
		return nil
	case <-s.ctx.Done():
		return nil
	case <-ctx.Done():
		return errors.WithStack(ctx.Err())
	}
}

func (s *localSubscription) run(handler service.MessageHandler) {
	for {
		select {
		case <-s.ctx.Done():
			return
		case message := <-s.queue:
			if s.closed.Load() {
				return
			}
			handler(s.ctx, message)
		}
	}
}
