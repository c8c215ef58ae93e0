package pubsub

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"storefront/internal/domain/service"

	"github.com/google/uuid"
	"github.com/pkg/errors"
)

const localPushTimeout = 10 * time.Second

// localHTTPPublisher delivers order events to a local endpoint in the Pub/Sub push
// format, so push subscribers can be developed without a Google project.
type localHTTPPublisher struct {
	endpoint     string
	subscription string
	httpClient   *http.Client
	logger       *slog.Logger
	now          func() time.Time
}

// PubSubPushMessage is the body Google Pub/Sub posts to push endpoints.
type PubSubPushMessage struct {
	Message struct {
		Data        string            `json:"data"`
		Attributes  map[string]string `json:"attributes,omitempty"`
		MessageID   string            `json:"messageId"`
		PublishTime string            `json:"publishTime"`
		OrderingKey string            `json:"orderingKey,omitempty"`
	} `json:"message"`
	Subscription string `json:"subscription"`
}

// NewLocalHTTPPublisher creates a publisher pushing to endpoint as if it were
// subscribed to topicID.
func NewLocalHTTPPublisher(endpoint, topicID string, logger *slog.Logger) service.EventPublisher {
	if topicID == "" {
		topicID = "order-events"
	}

	return &localHTTPPublisher{
		endpoint:     endpoint,
		subscription: "projects/local/subscriptions/" + topicID + "-push",
		httpClient:   &http.Client{Timeout: localPushTimeout},
		logger:       logger.With(slog.String("component", "order_events"), slog.String("endpoint", endpoint)),
		now:          time.Now,
	}
}

// PublishOrderEvent posts the event and treats any non-2xx answer as a failure.
func (p *localHTTPPublisher) PublishOrderEvent(ctx context.Context, event *service.OrderEvent) error {
	body, err := p.pushBody(event)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.endpoint, bytes.NewReader(body))
	if err != nil {
		return errors.WithStack(err)
	}
	req.Header.Set("Content-Type", "application/json")
	if event.RequestID != "" {
		req.Header.Set("X-Request-Id", event.RequestID)
	}

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return errors.Wrap(err, "failed to push order event")
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return errors.Errorf("push endpoint returned non-success status: %d", resp.StatusCode)
	}

	p.logger.Info("Order event pushed",
		slog.Int64("order_id", event.OrderID),
		slog.String("state", string(event.State)),
	)

	return nil
}

func (p *localHTTPPublisher) pushBody(event *service.OrderEvent) ([]byte, error) {
	data, attributes, err := encodeOrderEvent(event)
	if err != nil {
		return nil, err
	}

	var msg PubSubPushMessage
	msg.Subscription = p.subscription
	msg.Message.Data = base64.StdEncoding.EncodeToString(data)
	msg.Message.Attributes = attributes
	msg.Message.MessageID = uuid.NewString()
	msg.Message.PublishTime = p.now().UTC().Format(time.RFC3339Nano)
	msg.Message.OrderingKey = orderingKey(event)

	body, err := json.Marshal(msg)

	return body, errors.WithStack(err)
}

func (p *localHTTPPublisher) Close() error {
	return nil
}
