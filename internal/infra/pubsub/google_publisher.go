package pubsub

import (
	"context"
	"log/slog"
	"time"

	"storefront/internal/domain/service"

	"cloud.google.com/go/pubsub/v2"
	pubsubpb "cloud.google.com/go/pubsub/v2/apiv1/pubsubpb"
	"github.com/pkg/errors"
)

// Order events are rare and downstream consumers react to them, so batching
// is kept short.
const orderEventDelayThreshold = 20 * time.Millisecond

// googlePubSubPublisher implements EventPublisher using Google Cloud Pub/Sub
type googlePubSubPublisher struct {
	client    *pubsub.Client
	publisher *pubsub.Publisher
	logger    *slog.Logger
}

// NewGooglePubSubPublisher connects to projectID and checks that topicID exists.
func NewGooglePubSubPublisher(ctx context.Context, projectID, topicID string, logger *slog.Logger) (service.EventPublisher, error) {
	client, err := pubsub.NewClient(ctx, projectID)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	if _, err := client.TopicAdminClient.GetTopic(ctx, &pubsubpb.GetTopicRequest{
		Topic: "projects/" + projectID + "/topics/" + topicID,
	}); err != nil {
		_ = client.Close()

		return nil, errors.Wrapf(err, "failed to get topic %s", topicID)
	}

	publisher := client.Publisher(topicID)
	publisher.EnableMessageOrdering = true
	publisher.PublishSettings.DelayThreshold = orderEventDelayThreshold

	return &googlePubSubPublisher{
		client:    client,
		publisher: publisher,
		logger:    logger.With(slog.String("component", "order_events"), slog.String("topic_id", topicID)),
	}, nil
}

// PublishOrderEvent publishes the event and waits for the server to acknowledge it.
// Events of one order share an ordering key; a failed publish resumes the key so
// later events of the order are not blocked.
func (p *googlePubSubPublisher) PublishOrderEvent(ctx context.Context, event *service.OrderEvent) error {
	data, attributes, err := encodeOrderEvent(event)
	if err != nil {
		return err
	}

	key := orderingKey(event)
	serverID, err := p.publisher.Publish(ctx, &pubsub.Message{
		Data:        data,
		Attributes:  attributes,
		OrderingKey: key,
	}).Get(ctx)
	if err != nil {
		p.publisher.ResumePublish(key)

		return errors.Wrapf(err, "failed to publish order event %d", event.OrderID)
	}

	p.logger.Info("Order event published",
		slog.Int64("order_id", event.OrderID),
		slog.String("state", string(event.State)),
		slog.String("server_id", serverID),
	)

	return nil
}

// Close flushes pending messages and releases the client.
func (p *googlePubSubPublisher) Close() error {
	p.publisher.Stop()

	return errors.WithStack(p.client.Close())
}
