package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/baechuer/real-time-ressys/services/discovery-service/internal/domain"
)

type Repo struct {
	db *sql.DB
}

func New(db *sql.DB) *Repo { return &Repo{db: db} }

func (r *Repo) Create(ctx context.Context, e *domain.Event) error {
	_, err := r.db.ExecContext(ctx, insertEventSQL,
		e.ID, e.HostID, e.Title, e.URI, string(e.Type), e.ThumbnailURL,
		e.StartAt, e.EndAt, e.RecruitmentStartAt, e.RecruitmentEndAt,
		string(e.Status), string(e.StatusGroup), e.CreatedAt, e.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert event: %w", err)
	}
	return nil
}

func (r *Repo) GetByID(ctx context.Context, id string) (*domain.Event, error) {
	e, err := scanEvent(r.db.QueryRowContext(ctx, getEventSQL, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound("event not found")
	}
	if err != nil {
		return nil, err
	}
	return e, nil
}

// IncrementViewCount is a single upsert so concurrent views never lose an update.
func (r *Repo) IncrementViewCount(ctx context.Context, eventID string) error {
	if _, err := r.db.ExecContext(ctx, incrementViewCountSQL, eventID); err != nil {
		return fmt.Errorf("increment view count: %w", err)
	}
	return nil
}

func (r *Repo) AddBookmark(ctx context.Context, userID, eventID string) error {
	if _, err := r.db.ExecContext(ctx, insertBookmarkSQL, userID, eventID); err != nil {
		return fmt.Errorf("insert bookmark: %w", err)
	}
	return nil
}

func (r *Repo) RemoveBookmark(ctx context.Context, userID, eventID string) error {
	if _, err := r.db.ExecContext(ctx, deleteBookmarkSQL, userID, eventID); err != nil {
		return fmt.Errorf("delete bookmark: %w", err)
	}
	return nil
}

// RecipientTokens returns the device tokens of bookmarkers who accept notifications.
func (r *Repo) RecipientTokens(ctx context.Context, eventID string) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, selectRecipientTokensSQL, eventID)
	if err != nil {
		return nil, fmt.Errorf("select recipient tokens: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var tok string
		if err := rows.Scan(&tok); err != nil {
			return nil, err
		}
		out = append(out, tok)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEvent(row rowScanner) (*domain.Event, error) {
	var e domain.Event
	var typ, status, group string
	err := row.Scan(
		&e.ID, &e.HostID, &e.Title, &e.URI, &typ, &e.ThumbnailURL,
		&e.StartAt, &e.EndAt, &e.RecruitmentStartAt, &e.RecruitmentEndAt,
		&status, &group, &e.ViewCount,
		&e.CreatedAt, &e.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	e.Type = domain.EventType(typ)
	e.Status = domain.EventStatus(status)
	e.StatusGroup = domain.StatusGroup(group)
	if !e.Status.Valid() || e.StatusGroup != e.Status.Group() {
		return nil, domain.ErrInvalidState("invalid status in db")
	}
	return &e, nil
}

func scanEvents(rows *sql.Rows) ([]*domain.Event, error) {
	var out []*domain.Event
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
