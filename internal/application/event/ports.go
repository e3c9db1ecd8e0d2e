package event

import (
	"context"
	"time"

	"github.com/baechuer/real-time-ressys/services/discovery-service/internal/domain"
)

type Clock interface {
	Now() time.Time
}

type EventRepo interface {
	Create(ctx context.Context, e *domain.Event) error
	GetByID(ctx context.Context, id string) (*domain.Event, error)

	// ListPage returns at most q.Limit rows ordered as q describes, strictly after q.After.
	ListPage(ctx context.Context, q PageQuery) ([]*domain.Event, error)

	IncrementViewCount(ctx context.Context, eventID string) error
	AddBookmark(ctx context.Context, userID, eventID string) error
	RemoveBookmark(ctx context.Context, userID, eventID string) error

	WithTx(ctx context.Context, fn func(r TxEventRepo) error) error
}

// TxEventRepo is the row-locked view used for status writes.
type TxEventRepo interface {
	GetByIDForUpdate(ctx context.Context, id string) (*domain.Event, error)
	UpdateStatus(ctx context.Context, e *domain.Event) error
	InsertOutbox(ctx context.Context, msg OutboxMessage) error
}

type Cache interface {
	Get(ctx context.Context, key string, dest any) (bool, error)
	Set(ctx context.Context, key string, val any, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
}

// EventPublisher relays outbox rows to the broker.
type EventPublisher interface {
	PublishEvent(ctx context.Context, routingKey, messageID string, body []byte) error
}

type OutboxMessage struct {
	MessageID  string
	RoutingKey string
	Body       []byte
	CreatedAt  time.Time
}
