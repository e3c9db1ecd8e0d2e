package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"math/rand"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"

	"github.com/baechuer/real-time-ressys/services/discovery-service/internal/application/event"
)

const insertOutboxSQL = `
INSERT INTO event_outbox (
  message_id, routing_key, body, created_at, status, next_retry_at
) VALUES ($1, $2, $3::jsonb, $4, 'pending', $4)
`

// SKIP LOCKED lets several replicas relay side by side. A 'processing' row is
// due again once its reservation lapses.
const claimOutboxSQL = `
SELECT id, message_id, routing_key, body, attempts
FROM event_outbox
WHERE status IN ('pending', 'processing')
  AND (next_retry_at IS NULL OR next_retry_at <= NOW())
ORDER BY next_retry_at ASC, created_at ASC
LIMIT $1
FOR UPDATE SKIP LOCKED
`

const reserveOutboxSQL = `
UPDATE event_outbox
SET status = 'processing',
    next_retry_at = $2
WHERE id = $1
`

const markOutboxSentSQL = `
UPDATE event_outbox
SET status = 'sent',
    sent_at = $2,
    last_error = NULL
WHERE id = $1
`

const markOutboxRetrySQL = `
UPDATE event_outbox
SET status = 'pending',
    attempts = attempts + 1,
    next_retry_at = $2,
    last_error = $3
WHERE id = $1
`

const markOutboxDeadSQL = `
UPDATE event_outbox
SET status = 'dead',
    attempts = attempts + 1,
    last_error = $2
WHERE id = $1
`

var outboxRelayed = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "discovery_outbox_relayed_total",
		Help: "Outbox rows handled by the relay, by outcome",
	},
	[]string{"outcome"},
)

type OutboxRelayConfig struct {
	Interval    time.Duration
	BatchSize   int
	MaxAttempts int
	// Reservation hides a claimed row from other relays while it is published.
	// A relay that dies mid-batch leaves the row to be picked up again after it.
	Reservation    time.Duration
	PublishTimeout time.Duration
	WriteTimeout   time.Duration
	MaxBackoff     time.Duration
}

func (c OutboxRelayConfig) withDefaults() OutboxRelayConfig {
	if c.Interval <= 0 {
		c.Interval = 500 * time.Millisecond
	}
	if c.BatchSize <= 0 {
		c.BatchSize = 20
	}
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = 10
	}
	if c.Reservation <= 0 {
		c.Reservation = 30 * time.Second
	}
	if c.PublishTimeout <= 0 {
		c.PublishTimeout = 5 * time.Second
	}
	if c.WriteTimeout <= 0 {
		c.WriteTimeout = 3 * time.Second
	}
	if c.MaxBackoff <= 0 {
		c.MaxBackoff = 10 * time.Minute
	}
	return c
}

// OutboxRelay moves committed status-change messages to the broker. Rows are
// claimed in a short transaction, published without holding locks, then marked.
type OutboxRelay struct {
	db  *sql.DB
	pub event.EventPublisher
	cfg OutboxRelayConfig
	lg  zerolog.Logger

	now    func() time.Time
	jitter func(max time.Duration) time.Duration
}

func (r *Repo) NewOutboxRelay(pub event.EventPublisher, cfg OutboxRelayConfig, lg zerolog.Logger) *OutboxRelay {
	return &OutboxRelay{
		db:  r.db,
		pub: pub,
		cfg: cfg.withDefaults(),
		lg:  lg.With().Str("component", "outbox_relay").Logger(),
		now: func() time.Time { return time.Now().UTC() },
		jitter: func(max time.Duration) time.Duration {
			return time.Duration(rand.Int63n(int64(max)))
		},
	}
}

// Start polls until ctx is done.
func (o *OutboxRelay) Start(ctx context.Context) {
	go func() {
		// spread replicas that boot together
		select {
		case <-ctx.Done():
			return
		case <-time.After(o.jitter(time.Second)):
		}

		ticker := time.NewTicker(o.cfg.Interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if _, err := o.RunOnce(ctx); err != nil && ctx.Err() == nil {
					o.lg.Error().Err(err).Msg("outbox batch failed")
				}
			}
		}
	}()
}

type outboxRow struct {
	ID         int64
	MessageID  string
	RoutingKey string
	Body       []byte
	Attempts   int
}

// RunOnce relays one batch and reports how many rows it claimed.
func (o *OutboxRelay) RunOnce(ctx context.Context) (int, error) {
	batch, err := o.claim(ctx)
	if err != nil {
		return 0, err
	}
	for _, row := range batch {
		o.relay(ctx, row)
	}
	return len(batch), nil
}

func (o *OutboxRelay) claim(ctx context.Context) (_ []outboxRow, err error) {
	ctx, cancel := context.WithTimeout(ctx, o.cfg.WriteTimeout)
	defer cancel()

	tx, err := o.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
	if err != nil {
		return nil, fmt.Errorf("begin claim: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	batch, err := scanOutbox(tx.QueryContext(ctx, claimOutboxSQL, o.cfg.BatchSize))
	if err != nil {
		return nil, err
	}

	until := o.now().Add(o.cfg.Reservation)
	for _, row := range batch {
		if _, err = tx.ExecContext(ctx, reserveOutboxSQL, row.ID, until); err != nil {
			return nil, fmt.Errorf("reserve outbox %d: %w", row.ID, err)
		}
	}
	if err = tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit claim: %w", err)
	}
	return batch, nil
}

func scanOutbox(rows *sql.Rows, err error) ([]outboxRow, error) {
	if err != nil {
		return nil, fmt.Errorf("claim outbox: %w", err)
	}
	defer rows.Close()

	var out []outboxRow
	for rows.Next() {
		var row outboxRow
		if err := rows.Scan(&row.ID, &row.MessageID, &row.RoutingKey, &row.Body, &row.Attempts); err != nil {
			return nil, err
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

func (o *OutboxRelay) relay(ctx context.Context, row outboxRow) {
	pubCtx, cancel := context.WithTimeout(ctx, o.cfg.PublishTimeout)
	pubErr := o.pub.PublishEvent(pubCtx, row.RoutingKey, row.MessageID, row.Body)
	cancel()

	wctx, cancel := context.WithTimeout(ctx, o.cfg.WriteTimeout)
	defer cancel()

	lg := o.lg.With().
		Int64("outbox_id", row.ID).
		Str("message_id", row.MessageID).
		Str("routing_key", row.RoutingKey).
		Logger()

	var (
		outcome string
		err     error
	)
	switch {
	case pubErr == nil:
		outcome = "sent"
		_, err = o.db.ExecContext(wctx, markOutboxSentSQL, row.ID, o.now())
	case row.Attempts+1 >= o.cfg.MaxAttempts:
		outcome = "dead"
		lg.Error().Err(pubErr).Int("attempts", row.Attempts+1).Msg("outbox message dead")
		_, err = o.db.ExecContext(wctx, markOutboxDeadSQL, row.ID, pubErr.Error())
	default:
		outcome = "retry"
		next := o.now().Add(o.backoff(row.Attempts))
		lg.Warn().Err(pubErr).Time("next_retry_at", next).Msg("outbox publish failed")
		_, err = o.db.ExecContext(wctx, markOutboxRetrySQL, row.ID, next, pubErr.Error())
	}
	outboxRelayed.WithLabelValues(outcome).Inc()

	if err != nil {
		lg.Error().Err(err).Str("outcome", outcome).Msg("mark outbox row failed")
	}
}

// backoff doubles per attempt from one second, capped, plus up to a second of jitter.
func (o *OutboxRelay) backoff(attempts int) time.Duration {
	d := o.cfg.MaxBackoff
	if attempts < 30 {
		if exp := time.Second << attempts; exp < d {
			d = exp
		}
	}
	return d + o.jitter(time.Second)
}
