package infra

import (
	"context"
	"database/sql"
	"time"

	_ "github.com/lib/pq"
)

func OpenDB(dbURL string) (*sql.DB, error) {
	return sql.Open("postgres", dbURL)
}

// ResetEvents empties every table the service writes.
func ResetEvents(db *sql.DB) error {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	_, err := db.ExecContext(ctx, `TRUNCATE TABLE event_outbox, bookmarks, event_view_counts, user_devices, events`)
	return err
}

// CountOutbox returns how many outbox rows carry routingKey for eventID.
func CountOutbox(db *sql.DB, routingKey, eventID string) (int, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	var n int
	err := db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM event_outbox WHERE routing_key = $1 AND body->'payload'->>'event_id' = $2`,
		routingKey, eventID).Scan(&n)
	return n, err
}
