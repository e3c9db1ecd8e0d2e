package event

import (
	"context"
	"time"

	"github.com/baechuer/real-time-ressys/services/discovery-service/internal/domain"
	zlog "github.com/rs/zerolog/log"
)

type CreateCmd struct {
	ActorID   string
	ActorRole string

	Title              string
	URI                string
	Type               domain.EventType
	ThumbnailURL       string
	StartAt            time.Time
	EndAt              *time.Time
	RecruitmentStartAt *time.Time
	RecruitmentEndAt   *time.Time
}

// Create stores a new event. Host submissions wait for moderation; admin-authored
// events are live immediately.
func (s *Service) Create(ctx context.Context, cmd CreateCmd) (*domain.Event, error) {
	if !canCreate(cmd.ActorRole) {
		return nil, domain.ErrForbidden("only host/admin can create events")
	}
	now := s.clock.Now()
	in := domain.EventInput{
		HostID:             cmd.ActorID,
		Title:              cmd.Title,
		URI:                cmd.URI,
		Type:               cmd.Type,
		ThumbnailURL:       cmd.ThumbnailURL,
		StartAt:            cmd.StartAt,
		EndAt:              cmd.EndAt,
		RecruitmentStartAt: cmd.RecruitmentStartAt,
		RecruitmentEndAt:   cmd.RecruitmentEndAt,
	}

	var (
		e   *domain.Event
		err error
	)
	if isAdmin(cmd.ActorRole) {
		e, err = domain.NewApprovedEvent(in, now)
	} else {
		e, err = domain.NewEvent(in, now)
	}
	if err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, e); err != nil {
		return nil, err
	}

	zlog.Info().
		Str("event_id", e.ID).
		Str("host_id", e.HostID).
		Str("status", string(e.Status)).
		Msg("event created")
	return e, nil
}
