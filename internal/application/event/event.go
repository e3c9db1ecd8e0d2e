package event

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/baechuer/real-time-ressys/services/discovery-service/internal/domain"
	appCtx "github.com/baechuer/real-time-ressys/services/discovery-service/internal/pkg/context"
	"github.com/google/uuid"
)

const (
	EventVersion  = 1
	EventProducer = "discovery-service"

	RoutingKeyStatusChanged = "event.status_changed"
)

// DomainEventEnvelope is the stable contract for all domain events emitted by discovery-service.
// Consumers should rely on: version/producer/message_id/occurred_at + payload.
type DomainEventEnvelope[T any] struct {
	Version    int       `json:"version"`
	Producer   string    `json:"producer"`
	MessageID  string    `json:"message_id"`
	TraceID    string    `json:"trace_id,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
	Payload    T         `json:"payload"`
}

// EventStatusChangedPayload is the business payload for routing key: event.status_changed
type EventStatusChangedPayload struct {
	EventID     string    `json:"event_id"`
	HostID      string    `json:"host_id"`
	Title       string    `json:"title"`
	From        string    `json:"from"`
	To          string    `json:"to"`
	StatusGroup string    `json:"status_group"`
	StartAt     time.Time `json:"start_at"`
	Reason      string    `json:"reason"`
}

// TraceIDFromContext reads the request id set by the HTTP middleware, if any.
func TraceIDFromContext(ctx context.Context) string {
	return strings.TrimSpace(appCtx.GetRequestID(ctx))
}

const (
	ReasonSchedule = "schedule"
	ReasonApproval = "approval"
	ReasonRead     = "read"
)

func statusChangedMessage(ctx context.Context, e *domain.Event, from domain.EventStatus, reason string, now time.Time) (OutboxMessage, error) {
	msgID, err := uuid.NewV7()
	if err != nil {
		return OutboxMessage{}, err
	}
	env := DomainEventEnvelope[EventStatusChangedPayload]{
		Version:    EventVersion,
		Producer:   EventProducer,
		MessageID:  msgID.String(),
		TraceID:    TraceIDFromContext(ctx),
		OccurredAt: now.UTC(),
		Payload: EventStatusChangedPayload{
			EventID:     e.ID,
			HostID:      e.HostID,
			Title:       e.Title,
			From:        string(from),
			To:          string(e.Status),
			StatusGroup: string(e.StatusGroup),
			StartAt:     e.StartAt,
			Reason:      reason,
		},
	}
	body, err := json.Marshal(env)
	if err != nil {
		return OutboxMessage{}, fmt.Errorf("marshal status changed: %w", err)
	}
	return OutboxMessage{
		MessageID:  env.MessageID,
		RoutingKey: RoutingKeyStatusChanged,
		Body:       body,
		CreatedAt:  now.UTC(),
	}, nil
}
