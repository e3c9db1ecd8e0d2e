package event

import (
	"context"

	"github.com/baechuer/real-time-ressys/services/discovery-service/internal/domain"
	zlog "github.com/rs/zerolog/log"
)

// AdvanceStatus recomputes the stored status of one event at the current instant
// and returns the event as stored afterwards. It is the callback target of scheduled
// transitions and is safe to call repeatedly: an event already in its derived
// status is left alone.
func (s *Service) AdvanceStatus(ctx context.Context, eventID string) (*domain.Event, bool, error) {
	return s.advance(ctx, eventID, ReasonSchedule)
}

func (s *Service) advance(ctx context.Context, eventID, reason string) (*domain.Event, bool, error) {
	var (
		out     *domain.Event
		changed bool
		from    domain.EventStatus
	)

	err := s.repo.WithTx(ctx, func(r TxEventRepo) error {
		ev, err := r.GetByIDForUpdate(ctx, eventID)
		if err != nil {
			return err
		}
		out = ev
		from = ev.Status

		now := s.clock.Now()
		if !ev.UpdateStatus(now) {
			return nil
		}
		changed = true

		if err := r.UpdateStatus(ctx, ev); err != nil {
			return err
		}
		msg, err := statusChangedMessage(ctx, ev, from, reason, now)
		if err != nil {
			return err
		}
		return r.InsertOutbox(ctx, msg)
	})
	if err != nil {
		return nil, false, err
	}

	if changed {
		s.invalidate(ctx, eventID)
		zlog.Info().
			Str("event_id", eventID).
			Str("from", string(from)).
			Str("to", string(out.Status)).
			Str("reason", reason).
			Msg("event status changed")
	}
	return out, changed, nil
}

func (s *Service) invalidate(ctx context.Context, eventID string) {
	if s.cache == nil {
		return
	}
	key := cacheKeyEventDetails(eventID)
	if err := s.cache.Delete(ctx, key); err != nil {
		zlog.Warn().Err(err).Str("key", key).Msg("cache invalidate failed")
	}
}
