package event

import (
	"context"

	"github.com/baechuer/real-time-ressys/services/discovery-service/internal/domain"
	zlog "github.com/rs/zerolog/log"
)

// Get returns the event with its status recomputed at the current instant.
// A stale stored status is corrected in place so readers never see a lagging timer.
func (s *Service) Get(ctx context.Context, id, actorID, actorRole string) (*domain.Event, error) {
	now := s.clock.Now()

	// 1. Try Cache
	key := cacheKeyEventDetails(id)
	if s.cache != nil {
		var cached domain.Event
		found, err := s.cache.Get(ctx, key, &cached)
		if err != nil {
			zlog.Warn().Err(err).Str("key", key).Msg("cache get failed")
		} else if found {
			zlog.Debug().Str("key", key).Msg("cache hit")
			if cached.Status == domain.StatusPending && !canSeePending(actorID, actorRole, cached.HostID) {
				return nil, domain.ErrNotFound("event not found")
			}
			if cached.UpdateStatus(now) {
				// cached copy is stale; fall through to storage so the fix is persisted
				if err := s.cache.Delete(ctx, key); err != nil {
					zlog.Warn().Err(err).Str("key", key).Msg("cache delete failed")
				}
			} else {
				return &cached, nil
			}
		}
	}

	// 2. DB Query
	e, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if e.Status == domain.StatusPending && !canSeePending(actorID, actorRole, e.HostID) {
		return nil, domain.ErrNotFound("event not found")
	}

	if domain.DeriveStatus(now, e.StartAt, e.EndAt, e.RecruitmentStartAt, e.RecruitmentEndAt) != e.Status &&
		e.Status != domain.StatusPending {
		fresh, _, err := s.advance(ctx, id, ReasonRead)
		if err != nil {
			// serve the recomputed view even if the write failed; the scheduler will retry
			zlog.Warn().Err(err).Str("event_id", id).Msg("eager status refresh failed")
			e.UpdateStatus(now)
		} else {
			e = fresh
		}
	}

	// 3. Set Cache (Best Effort)
	if s.cache != nil && e.Status != domain.StatusPending {
		if err := s.cache.Set(ctx, key, e, s.ttlDetails); err != nil {
			zlog.Warn().Err(err).Str("key", key).Msg("cache set failed")
		}
	}

	return e, nil
}
