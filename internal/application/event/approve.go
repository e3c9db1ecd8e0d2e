package event

import (
	"context"

	"github.com/baechuer/real-time-ressys/services/discovery-service/internal/domain"
	zlog "github.com/rs/zerolog/log"
)

// Approve moves a PENDING submission into its time-derived status.
func (s *Service) Approve(ctx context.Context, eventID, actorRole string) (*domain.Event, error) {
	if !isAdmin(actorRole) {
		return nil, domain.ErrForbidden("only admin can approve events")
	}

	var out *domain.Event
	err := s.repo.WithTx(ctx, func(r TxEventRepo) error {
		ev, err := r.GetByIDForUpdate(ctx, eventID)
		if err != nil {
			return err
		}
		now := s.clock.Now()
		if err := ev.Approve(now); err != nil {
			return err
		}
		if err := r.UpdateStatus(ctx, ev); err != nil {
			return err
		}
		msg, err := statusChangedMessage(ctx, ev, domain.StatusPending, ReasonApproval, now)
		if err != nil {
			return err
		}
		if err := r.InsertOutbox(ctx, msg); err != nil {
			return err
		}
		out = ev
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.invalidate(ctx, eventID)
	zlog.Info().Str("event_id", eventID).Str("status", string(out.Status)).Msg("event approved")
	return out, nil
}
