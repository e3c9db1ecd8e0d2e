package rabbitmq

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

const DefaultPushRoutingKey = "push.requested"

// PushRequest is consumed by the notification gateway that talks to FCM/APNs.
type PushRequest struct {
	Tokens      []string          `json:"tokens"`
	Title       string            `json:"title"`
	Body        string            `json:"body"`
	Data        map[string]string `json:"data,omitempty"`
	RequestedAt time.Time         `json:"requested_at"`
}

type publisher interface {
	PublishEvent(ctx context.Context, routingKey, messageID string, body []byte) error
}

// PushDispatcher turns push sends into broker messages, throttled so a burst of
// timers firing at the same instant does not flood the gateway.
type PushDispatcher struct {
	pub        publisher
	routingKey string
	limiter    *rate.Limiter
	lg         zerolog.Logger
}

func NewPushDispatcher(pub publisher, routingKey string, perSecond float64, lg zerolog.Logger) *PushDispatcher {
	if routingKey == "" {
		routingKey = DefaultPushRoutingKey
	}
	limit := rate.Inf
	burst := 1
	if perSecond > 0 {
		limit = rate.Limit(perSecond)
		burst = int(perSecond)
		if burst < 1 {
			burst = 1
		}
	}
	return &PushDispatcher{
		pub:        pub,
		routingKey: routingKey,
		limiter:    rate.NewLimiter(limit, burst),
		lg:         lg.With().Str("component", "push_dispatcher").Logger(),
	}
}

// SendPush publishes one push request. Errors are returned for the caller to log;
// nothing is retried here.
func (d *PushDispatcher) SendPush(ctx context.Context, tokens []string, title, body string, data map[string]string) error {
	if len(tokens) == 0 {
		return nil
	}
	if err := d.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("push rate limit: %w", err)
	}

	id, err := uuid.NewV7()
	if err != nil {
		return err
	}
	payload, err := json.Marshal(PushRequest{
		Tokens:      tokens,
		Title:       title,
		Body:        body,
		Data:        data,
		RequestedAt: time.Now().UTC(),
	})
	if err != nil {
		return err
	}

	if err := d.pub.PublishEvent(ctx, d.routingKey, id.String(), payload); err != nil {
		return fmt.Errorf("publish push: %w", err)
	}
	d.lg.Debug().
		Str("message_id", id.String()).
		Int("tokens", len(tokens)).
		Msg("push requested")
	return nil
}
