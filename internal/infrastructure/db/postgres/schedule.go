package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/baechuer/real-time-ressys/services/discovery-service/internal/domain"
)

// graceInterval mirrors domain.ExclusiveBoundaryGrace for "ends at" columns.
var graceInterval = fmt.Sprintf("interval '%d milliseconds'", domain.ExclusiveBoundaryGrace.Milliseconds())

// transitionExpr is the instant the transition out of a status fires, matching
// Event.NextTransition, so a batch window selects exactly the timers it can set.
func transitionExpr(s domain.EventStatus) (string, bool) {
	switch s {
	case domain.StatusRecruitmentWaiting:
		return "e.recruitment_start_at", true
	case domain.StatusRecruiting:
		return "COALESCE(e.recruitment_end_at + " + graceInterval + ", e.start_at)", true
	case domain.StatusEventWaiting:
		return "e.start_at", true
	case domain.StatusActive:
		return "(COALESCE(e.end_at, e.start_at) + " + graceInterval + ")", true
	}
	return "", false
}

func timestampColumn(f domain.TimestampField) (string, bool) {
	switch f {
	case domain.FieldRecruitmentStartAt:
		return "e.recruitment_start_at", true
	case domain.FieldRecruitmentEndAt:
		return "e.recruitment_end_at", true
	case domain.FieldStartAt:
		return "e.start_at", true
	}
	return "", false
}

// FindDueTransitions lists events in status whose next transition fires in [from, to).
func (r *Repo) FindDueTransitions(ctx context.Context, status domain.EventStatus, from, to time.Time) ([]*domain.Event, error) {
	expr, ok := transitionExpr(status)
	if !ok {
		return nil, domain.ErrValidation("status has no scheduled transition: " + string(status))
	}
	q := `SELECT` + eventColumns + eventFrom + `
WHERE e.status = $1
  AND ` + expr + ` >= $2
  AND ` + expr + ` < $3
ORDER BY ` + expr + ` ASC, e.id DESC`

	rows, err := r.db.QueryContext(ctx, q, string(status), from.UTC(), to.UTC())
	if err != nil {
		return nil, fmt.Errorf("find due transitions: %w", err)
	}
	defer rows.Close()
	return scanEvents(rows)
}

// FindWithTimestampInRange lists approved events whose field falls in [from, to).
func (r *Repo) FindWithTimestampInRange(ctx context.Context, field domain.TimestampField, from, to time.Time) ([]*domain.Event, error) {
	col, ok := timestampColumn(field)
	if !ok {
		return nil, domain.ErrValidation("unknown timestamp field: " + string(field))
	}
	q := `SELECT` + eventColumns + eventFrom + `
WHERE e.status <> 'PENDING'
  AND ` + col + ` >= $1
  AND ` + col + ` < $2
ORDER BY ` + col + ` ASC, e.id DESC`

	rows, err := r.db.QueryContext(ctx, q, from.UTC(), to.UTC())
	if err != nil {
		return nil, fmt.Errorf("find events in range: %w", err)
	}
	defer rows.Close()
	return scanEvents(rows)
}
