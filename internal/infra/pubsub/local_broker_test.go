package pubsub

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"storefront/internal/domain/entity"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type collector struct {
	mu       sync.Mutex
	messages []*entity.Message
}

func (c *collector) handle(_ context.Context, message *entity.Message) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.messages = append(c.messages, message)
}

func (c *collector) contents() []string {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([]string, 0, len(c.messages))
	for _, m := range c.messages {
		out = append(out, m.Content)
	}

	return out
}

func TestLocalBroker_DeliversInOrderToMatchingConversation(t *testing.T) {
	ctx := context.Background()
	broker := newLocalBroker(4, discardLogger())
	defer broker.Close()

	convA, convB := uuid.New(), uuid.New()
	var gotA, gotB collector

	_, err := broker.SubscribeMessages(ctx, convA, gotA.handle)
	require.NoError(t, err)
	_, err = broker.SubscribeMessages(ctx, convB, gotB.handle)
	require.NoError(t, err)

	for _, content := range []string{"1", "2", "3", "4", "5", "6"} {
		require.NoError(t, broker.PublishMessageInserted(ctx, &entity.Message{ID: uuid.New(), ConversationID: convA, Content: content}))
	}

	assert.Eventually(t, func() bool { return len(gotA.contents()) == 6 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, []string{"1", "2", "3", "4", "5", "6"}, gotA.contents())
	assert.Empty(t, gotB.contents())
}

func TestLocalBroker_CloseStopsDelivery(t *testing.T) {
	ctx := context.Background()
	broker := newLocalBroker(4, discardLogger())
	defer broker.Close()

	conv := uuid.New()
	var got collector

	sub, err := broker.SubscribeMessages(ctx, conv, got.handle)
	require.NoError(t, err)
	assert.Equal(t, conv, sub.ConversationID())
	assert.Equal(t, 1, broker.SubscriberCount(conv))

	require.NoError(t, sub.Close())
	require.NoError(t, sub.Close())
	assert.Equal(t, 0, broker.SubscriberCount(conv))

	require.NoError(t, broker.PublishMessageInserted(ctx, &entity.Message{ID: uuid.New(), ConversationID: conv, Content: "late"}))
	time.Sleep(20 * time.Millisecond)
	assert.Empty(t, got.contents())
}

func TestLocalBroker_ClosedFeedRejectsCalls(t *testing.T) {
	ctx := context.Background()
	broker := newLocalBroker(0, discardLogger())
	require.NoError(t, broker.Close())

	_, err := broker.SubscribeMessages(ctx, uuid.New(), func(context.Context, *entity.Message) {})
	assert.ErrorIs(t, err, ErrFeedClosed)

	err = broker.PublishMessageInserted(ctx, &entity.Message{ConversationID: uuid.New()})
	assert.ErrorIs(t, err, ErrFeedClosed)
}

func TestLocalBroker_HandlerGetsCopies(t *testing.T) {
	ctx := context.Background()
	broker := newLocalBroker(4, discardLogger())
	defer broker.Close()

	conv := uuid.New()
	var got collector
	_, err := broker.SubscribeMessages(ctx, conv, got.handle)
	require.NoError(t, err)

	original := &entity.Message{ID: uuid.New(), ConversationID: conv, Content: "hello"}
	require.NoError(t, broker.PublishMessageInserted(ctx, original))
	original.Content = "mutated"

	assert.Eventually(t, func() bool { return len(got.contents()) == 1 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, []string{"hello"}, got.contents())
}
