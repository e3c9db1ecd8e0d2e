package scheduler

import (
	"context"
	"time"

	"github.com/baechuer/real-time-ressys/services/discovery-service/internal/domain"
	"github.com/rs/zerolog"
)

type TransitionSource interface {
	// FindDueTransitions lists events in status whose next transition fires in [from, to).
	FindDueTransitions(ctx context.Context, status domain.EventStatus, from, to time.Time) ([]*domain.Event, error)
}

type StatusAdvancer interface {
	AdvanceStatus(ctx context.Context, eventID string) (*domain.Event, bool, error)
}

type TransitionConfig struct {
	// Lookback widens the startup recovery window into previous days so a process
	// that was down across midnight still catches up.
	Lookback time.Duration
	// CallTimeout bounds each storage call made from a timer callback.
	CallTimeout time.Duration
}

// TransitionScheduler registers one timer per event whose status is due to change
// today. Callbacks recompute the status instead of forcing the next one.
type TransitionScheduler struct {
	src   TransitionSource
	adv   StatusAdvancer
	timer TimerService
	cfg   TransitionConfig
	lg    zerolog.Logger
}

func NewTransitionScheduler(src TransitionSource, adv StatusAdvancer, timer TimerService, cfg TransitionConfig, lg zerolog.Logger) *TransitionScheduler {
	if cfg.CallTimeout <= 0 {
		cfg.CallTimeout = 5 * time.Second
	}
	return &TransitionScheduler{
		src:   src,
		adv:   adv,
		timer: timer,
		cfg:   cfg,
		lg:    lg.With().Str("component", "transition_scheduler").Logger(),
	}
}

// RunBatch is a Batch for Daily. It returns the number of timers registered.
func (s *TransitionScheduler) RunBatch(ctx context.Context, dayStart time.Time, recovery bool) int {
	from, to := dayStart, dayStart.AddDate(0, 0, 1)
	if recovery && s.cfg.Lookback > 0 {
		from = from.Add(-s.cfg.Lookback)
	}

	scheduled := 0
	for _, status := range domain.TransitionableStatuses {
		events, err := s.src.FindDueTransitions(ctx, status, from, to)
		if err != nil {
			// one failing status must not block the others
			transitionsFailed.Inc()
			s.lg.Error().Err(err).Str("status", string(status)).Msg("load due transitions failed")
			continue
		}
		for _, ev := range events {
			if s.schedule(ctx, ev, to) {
				scheduled++
			}
		}
	}

	s.lg.Info().
		Time("from", from).
		Time("to", to).
		Bool("recovery", recovery).
		Int("scheduled", scheduled).
		Msg("transition batch done")
	return scheduled
}

// schedule registers the timer for ev's next transition if it falls before until.
func (s *TransitionScheduler) schedule(ctx context.Context, ev *domain.Event, until time.Time) bool {
	next, at, ok := ev.NextTransition()
	if !ok || !at.Before(until) {
		return false
	}

	id, from := ev.ID, ev.Status
	s.timer.ScheduleOnce(at, func() {
		s.fire(ctx, id, until)
	})
	transitionsScheduled.WithLabelValues(string(from)).Inc()

	s.lg.Debug().
		Str("event_id", id).
		Str("from", string(from)).
		Str("next", string(next)).
		Time("at", at).
		Msg("transition scheduled")
	return true
}

func (s *TransitionScheduler) fire(ctx context.Context, eventID string, until time.Time) {
	if ctx.Err() != nil {
		return
	}
	callCtx, cancel := context.WithTimeout(ctx, s.cfg.CallTimeout)
	defer cancel()

	ev, changed, err := s.adv.AdvanceStatus(callCtx, eventID)
	if err != nil {
		transitionsFailed.Inc()
		s.lg.Error().Err(err).Str("event_id", eventID).Msg("advance status failed")
		return
	}
	if !changed {
		return
	}
	transitionsApplied.WithLabelValues(string(ev.Status)).Inc()

	// a later transition on the same day (start then end) chains off this one
	s.schedule(ctx, ev, until)
}
