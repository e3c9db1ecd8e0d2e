package rabbitmq

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/baechuer/real-time-ressys/services/discovery-service/internal/domain"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog"
)

const (
	RoutingKeyEventViewed = "event.viewed"

	viewQueueName  = "discovery-service.view-events"
	viewRetryQueue = "discovery-service.view-events.retry"
	viewDLQName    = "discovery-service.view-events.dlq"
	dlxName        = "events.dlx"

	maxRetries = 3
)

// ViewedMessage is published by services that render event details.
type ViewedMessage struct {
	EventID    string    `json:"event_id"`
	UserID     string    `json:"user_id,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
	TraceID    string    `json:"trace_id,omitempty"`
}

type ViewRecorder interface {
	RecordView(ctx context.Context, eventID string) error
}

// Consumer listens to event.viewed and bumps view counters.
type Consumer struct {
	conn     *amqp.Connection
	channel  *amqp.Channel
	queue    string
	exchange string
	views    ViewRecorder
	lg       zerolog.Logger

	// retry re-publishes a failed delivery onto the retry queue.
	retry func(ctx context.Context, msg amqp.Publishing) error
}

// NewConsumer declares the view queue topology and returns a consumer bound to it.
func NewConsumer(rabbitURL, exchange string, views ViewRecorder, lg zerolog.Logger) (*Consumer, error) {
	conn, err := amqp.Dial(rabbitURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}

	if err := declareViewTopology(ch, exchange); err != nil {
		ch.Close()
		conn.Close()
		return nil, err
	}

	c := &Consumer{
		conn:     conn,
		channel:  ch,
		queue:    viewQueueName,
		exchange: exchange,
		views:    views,
		lg:       lg.With().Str("component", "view_consumer").Logger(),
	}
	c.retry = func(ctx context.Context, msg amqp.Publishing) error {
		// Default Exchange, Routing Key = Retry Queue Name
		return ch.PublishWithContext(ctx, "", viewRetryQueue, false, false, msg)
	}
	return c, nil
}

func declareViewTopology(ch *amqp.Channel, exchange string) error {
	// 1. Main Exchange (Topic)
	if err := ch.ExchangeDeclare(exchange, "topic", true, false, false, false, nil); err != nil {
		return fmt.Errorf("failed to declare exchange: %w", err)
	}

	// 2. DLX (Fanout)
	if err := ch.ExchangeDeclare(dlxName, "fanout", true, false, false, false, nil); err != nil {
		return fmt.Errorf("failed to declare dlx: %w", err)
	}

	// 3. DLQ bound to DLX
	if _, err := ch.QueueDeclare(viewDLQName, true, false, false, false, nil); err != nil {
		return fmt.Errorf("failed to declare dlq: %w", err)
	}
	if err := ch.QueueBind(viewDLQName, "", dlxName, false, nil); err != nil {
		return fmt.Errorf("failed to bind dlq: %w", err)
	}

	// 4. Main Queue; rejected (Nack) messages go to DLX -> DLQ
	mainQArgs := amqp.Table{
		"x-dead-letter-exchange": dlxName,
	}
	if _, err := ch.QueueDeclare(viewQueueName, true, false, false, false, mainQArgs); err != nil {
		return fmt.Errorf("failed to declare main queue: %w", err)
	}

	// 5. Retry Queue expires back into the Main Queue
	retryQArgs := amqp.Table{
		"x-dead-letter-exchange":    "",
		"x-dead-letter-routing-key": viewQueueName,
		"x-message-ttl":             5000,
	}
	if _, err := ch.QueueDeclare(viewRetryQueue, true, false, false, false, retryQArgs); err != nil {
		return fmt.Errorf("failed to declare retry queue: %w", err)
	}

	if err := ch.QueueBind(viewQueueName, RoutingKeyEventViewed, exchange, false, nil); err != nil {
		return fmt.Errorf("failed to bind queue to %s: %w", RoutingKeyEventViewed, err)
	}
	return nil
}

// Start begins consuming messages
func (c *Consumer) Start(ctx context.Context) {
	go c.consume(ctx)
	c.lg.Info().
		Str("queue", c.queue).
		Str("exchange", c.exchange).
		Msg("view events consumer started")
}

func (c *Consumer) consume(ctx context.Context) {
	msgs, err := c.channel.Consume(
		c.queue, "", false, false, false, false, nil,
	)
	if err != nil {
		c.lg.Error().Err(err).Msg("failed to start consuming")
		return
	}

	for {
		select {
		case <-ctx.Done():
			c.lg.Info().Msg("consumer shutting down")
			return
		case msg, ok := <-msgs:
			if !ok {
				c.lg.Warn().Msg("consumer channel closed")
				return
			}
			c.handleMessage(ctx, msg)
		}
	}
}

func (c *Consumer) handleMessage(ctx context.Context, msg amqp.Delivery) {
	// Determine effective routing key (original or current)
	routingKey := msg.RoutingKey
	if val, ok := msg.Headers["x-original-routing-key"].(string); ok {
		routingKey = val
	}

	c.lg.Debug().
		Str("routing_key", routingKey).
		Str("message_id", msg.MessageId).
		Msg("received view event")

	if routingKey != RoutingKeyEventViewed {
		c.lg.Warn().Str("routing_key", routingKey).Msg("unknown routing key")
		_ = msg.Ack(false)
		return
	}

	var viewed ViewedMessage
	if err := json.Unmarshal(msg.Body, &viewed); err != nil || strings.TrimSpace(viewed.EventID) == "" {
		c.lg.Error().Err(err).Str("message_id", msg.MessageId).Msg("malformed view event")
		_ = msg.Nack(false, false) // Poison message -> DLQ
		return
	}

	opCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	err := c.views.RecordView(opCtx, viewed.EventID)
	if err == nil {
		_ = msg.Ack(false)
		return
	}

	// permanent failures are dropped, retrying cannot fix them
	if domain.IsCode(err, domain.CodeNotFound) || domain.IsCode(err, domain.CodeValidation) {
		c.lg.Warn().Err(err).Str("event_id", viewed.EventID).Msg("dropping view event")
		_ = msg.Ack(false)
		return
	}

	retryCount := 0
	if val, ok := msg.Headers["x-retry-count"].(int32); ok {
		retryCount = int(val)
	}

	if retryCount < maxRetries {
		c.lg.Warn().
			Err(err).
			Int("retry_count", retryCount).
			Str("event_id", viewed.EventID).
			Msg("processing failed, scheduling retry")

		headers := make(amqp.Table)
		for k, v := range msg.Headers {
			headers[k] = v
		}
		headers["x-retry-count"] = int32(retryCount + 1)
		headers["x-original-routing-key"] = routingKey

		pubErr := c.retry(opCtx, amqp.Publishing{
			ContentType: msg.ContentType,
			Body:        msg.Body,
			Headers:     headers,
			MessageId:   msg.MessageId,
		})
		if pubErr != nil {
			c.lg.Error().Err(pubErr).Msg("failed to publish to retry queue")
			_ = msg.Nack(false, false) // Failed to retry -> DLQ
		} else {
			_ = msg.Ack(false) // Handled via retry
		}
		return
	}

	c.lg.Error().
		Err(err).
		Str("event_id", viewed.EventID).
		Msg("max retries reached, sending to DLQ")
	_ = msg.Nack(false, false)
}

// Close closes the consumer connection
func (c *Consumer) Close() error {
	if c.channel != nil {
		c.channel.Close()
	}
	if c.conn != nil {
		return c.conn.Close()
	}
	return nil
}
