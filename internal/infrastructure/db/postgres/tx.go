package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/baechuer/real-time-ressys/services/discovery-service/internal/application/event"
	"github.com/baechuer/real-time-ressys/services/discovery-service/internal/domain"
)

// WithTx runs fn in a read-committed transaction. Status rows read through the
// TxEventRepo stay locked until fn returns, so concurrent timers and admin
// approvals on one event serialize here.
func (r *Repo) WithTx(ctx context.Context, fn func(tr event.TxEventRepo) error) (err error) {
	tx, err := r.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if err = fn(&txRepo{tx: tx}); err != nil {
		return err
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

type txRepo struct {
	tx *sql.Tx
}

func (r *txRepo) GetByIDForUpdate(ctx context.Context, id string) (*domain.Event, error) {
	e, err := scanEvent(r.tx.QueryRowContext(ctx, selectEventForUpdateSQL, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound("event not found")
	}
	if err != nil {
		return nil, err
	}
	return e, nil
}

func (r *txRepo) UpdateStatus(ctx context.Context, e *domain.Event) error {
	res, err := r.tx.ExecContext(ctx, updateStatusSQL,
		e.ID, string(e.Status), string(e.Status.Group()), e.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update status: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return domain.ErrNotFound("event not found")
	}
	return nil
}

// InsertOutbox stages msg in the caller's transaction. The row is due at once.
func (r *txRepo) InsertOutbox(ctx context.Context, msg event.OutboxMessage) error {
	_, err := r.tx.ExecContext(ctx, insertOutboxSQL,
		msg.MessageID,
		msg.RoutingKey,
		string(msg.Body), // lib/pq sends text; the statement casts to jsonb
		msg.CreatedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("insert outbox: %w", err)
	}
	return nil
}
