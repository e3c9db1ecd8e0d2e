package wait

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"time"
)

const pollInterval = 200 * time.Millisecond

// Until polls probe until it succeeds or timeout elapses, returning the last error.
func Until(timeout time.Duration, probe func(ctx context.Context) error) error {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	var last error
	for {
		if last = probe(ctx); last == nil {
			return nil
		}
		select {
		case <-ctx.Done():
			return fmt.Errorf("gave up after %s: %w", timeout, last)
		case <-time.After(pollInterval):
		}
	}
}

func HTTP200(url string, timeout time.Duration) error {
	client := &http.Client{Timeout: time.Second}
	return Until(timeout, func(ctx context.Context) error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return err
		}
		resp, err := client.Do(req)
		if err != nil {
			return err
		}
		_ = resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			return fmt.Errorf("%s: status %d", url, resp.StatusCode)
		}
		return nil
	})
}

// Postgres waits until the database accepts queries, not only connections.
func Postgres(db *sql.DB, timeout time.Duration) error {
	return Until(timeout, func(ctx context.Context) error {
		var one int
		return db.QueryRowContext(ctx, `SELECT 1`).Scan(&one)
	})
}
