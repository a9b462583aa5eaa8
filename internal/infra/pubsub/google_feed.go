package pubsub

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	deliverycontext "storefront/internal/delivery/context"
	"storefront/internal/domain/entity"
	"storefront/internal/domain/service"

	"cloud.google.com/go/pubsub/v2"
	"cloud.google.com/go/pubsub/v2/apiv1/pubsubpb"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"google.golang.org/api/option"
	"google.golang.org/protobuf/types/known/durationpb"
)

const (
	attrConversationID = "conversation_id"

	// Pub/Sub only accepts expiration policies of at least one day.
	subscriptionTTL = 24 * time.Hour
)

// googleFeed implements ChangeFeed on Google Cloud Pub/Sub. Inserts are published to one
// topic keyed by conversation, so events of a conversation keep their insert order. Every
// process receives through its own ordered subscription and fans the events out locally
// by conversation, so attaching to a conversation never creates cloud resources.
type googleFeed struct {
	client       *pubsub.Client
	publisher    *pubsub.Publisher
	subscription string
	fanout       *localBroker
	logger       *slog.Logger

	cancel context.CancelFunc
	done   chan struct{}
	once   sync.Once
}

// NewGoogleFeed connects to Pub/Sub, creates this process's subscription to topicID named
// after subscriptionPrefix and starts receiving from it.
func NewGoogleFeed(ctx context.Context, projectID, topicID, subscriptionPrefix string, bufferSize int, logger *slog.Logger, opts ...option.ClientOption) (service.ChangeFeed, error) {
	client, err := pubsub.NewClient(ctx, projectID, opts...)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	subscription := processSubscriptionName(projectID, subscriptionPrefix, uuid.New())
	_, err = client.SubscriptionAdminClient.CreateSubscription(ctx, &pubsubpb.Subscription{
		Name:                  subscription,
		Topic:                 topicName(projectID, topicID),
		EnableMessageOrdering: true,
		ExpirationPolicy:      &pubsubpb.ExpirationPolicy{Ttl: durationpb.New(subscriptionTTL)},
	})
	if err != nil {
		_ = client.Close()

		return nil, errors.Wrap(err, "failed to create change feed subscription")
	}

	publisher := client.Publisher(topicID)
	publisher.EnableMessageOrdering = true

	receiveCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	feed := &googleFeed{
		client:       client,
		publisher:    publisher,
		subscription: subscription,
		fanout:       newLocalBroker(bufferSize, logger),
		logger:       logger,
		cancel:       cancel,
		done:         make(chan struct{}),
	}

	go feed.receive(receiveCtx, client.Subscriber(subscription))

	logger.Info("Google Pub/Sub change feed initialized",
		slog.String("project_id", projectID),
		slog.String("topic_id", topicID),
		slog.String("subscription", subscription),
	)

	return feed, nil
}

// PublishMessageInserted publishes the inserted row to the topic, ordered by conversation
func (f *googleFeed) PublishMessageInserted(ctx context.Context, message *entity.Message) error {
	data, err := json.Marshal(&service.MessageEvent{
		RequestID: deliverycontext.GetRequestIDFromContext(ctx),
		Message:   message,
	})
	if err != nil {
		return errors.WithStack(err)
	}

	orderingKey := message.ConversationID.String()
	attributes := map[string]string{
		attrConversationID: orderingKey,
	}
	if requestID := deliverycontext.GetRequestIDFromContext(ctx); requestID != "" {
		attributes["request_id"] = requestID
	}

	result := f.publisher.Publish(ctx, &pubsub.Message{
		Data:        data,
		Attributes:  attributes,
		OrderingKey: orderingKey,
	})

	serverID, err := result.Get(ctx)
	if err != nil {
		// A failed ordered publish pauses the key until resumed.
		f.publisher.ResumePublish(orderingKey)

		return errors.WithStack(err)
	}

	f.logger.Debug("[GooglePubSub] Message published",
		slog.String("message_id", message.ID.String()),
		slog.String("server_id", serverID),
	)

	return nil
}

// SubscribeMessages registers handler with the local fan-out
func (f *googleFeed) SubscribeMessages(ctx context.Context, conversationID uuid.UUID, handler service.MessageHandler) (service.Subscription, error) {
	return f.fanout.SubscribeMessages(ctx, conversationID, handler)
}

// receive drains the process subscription. Events of conversations nobody here watches
// are acknowledged and dropped; the subscription belongs to this process alone.
func (f *googleFeed) receive(ctx context.Context, subscriber *pubsub.Subscriber) {
	defer close(f.done)

	err := subscriber.Receive(ctx, func(ctx context.Context, m *pubsub.Message) {
		defer m.Ack()

		conversationID, err := uuid.Parse(m.Attributes[attrConversationID])
		if err != nil || f.fanout.SubscriberCount(conversationID) == 0 {
			return
		}

		var event service.MessageEvent
		if err := json.Unmarshal(m.Data, &event); err != nil || event.Message == nil {
			f.logger.Warn("[GooglePubSub] Dropping malformed event", slog.String("id", m.ID))

			return
		}

		if err := f.fanout.PublishMessageInserted(ctx, event.Message); err != nil {
			f.logger.Warn("[GooglePubSub] Fan-out failed", slog.Any("error", err))
		}
	})
	if err != nil && !errors.Is(err, context.Canceled) {
		f.logger.Error("[GooglePubSub] Receive stopped", slog.Any("error", err))
	}
}

// Close stops receiving, deletes the process subscription and releases client resources
func (f *googleFeed) Close() error {
	var err error
	f.once.Do(func() {
		f.cancel()
		<-f.done
		f.publisher.Stop()
		_ = f.fanout.Close()

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		deleteErr := f.client.SubscriptionAdminClient.DeleteSubscription(ctx, &pubsubpb.DeleteSubscriptionRequest{
			Subscription: f.subscription,
		})
		if deleteErr != nil {
			f.logger.Warn("[GooglePubSub] Deleting subscription failed, it expires on its own",
				slog.String("subscription", f.subscription), slog.Any("error", deleteErr))
		}

		err = errors.WithStack(f.client.Close())
	})

	return err
}

func topicName(projectID, topicID string) string {
	if strings.HasPrefix(topicID, "projects/") {
		return topicID
	}

	return fmt.Sprintf("projects/%s/topics/%s", projectID, topicID)
}

// processSubscriptionName derives a subscription unique to one process from prefix.
func processSubscriptionName(projectID, prefix string, processID uuid.UUID) string {
	if name, ok := strings.CutPrefix(prefix, "projects/"); ok {
		if _, id, found := strings.Cut(name, "/subscriptions/"); found {
			prefix = id
		}
	}

	return fmt.Sprintf("projects/%s/subscriptions/%s-%s", projectID, prefix, processID.String()[:8])
}
