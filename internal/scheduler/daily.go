package scheduler

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// DayWindow returns [start, end) of the local calendar day containing now.
func DayWindow(now time.Time, loc *time.Location) (time.Time, time.Time) {
	local := now.In(loc)
	start := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)
	return start, start.AddDate(0, 0, 1)
}

// Batch is one pass of a daily job for the day starting at dayStart.
type Batch func(ctx context.Context, dayStart time.Time, recovery bool)

// Daily runs a batch once immediately (startup recovery) and then at every
// local midnight until ctx is done.
type Daily struct {
	name  string
	loc   *time.Location
	clock Clock
	run   Batch
	lg    zerolog.Logger
}

func NewDaily(name string, loc *time.Location, clock Clock, run Batch, lg zerolog.Logger) *Daily {
	if loc == nil {
		loc = time.UTC
	}
	if clock == nil {
		clock = SystemClock{}
	}
	return &Daily{
		name:  name,
		loc:   loc,
		clock: clock,
		run:   run,
		lg:    lg.With().Str("component", name).Logger(),
	}
}

func (d *Daily) Start(ctx context.Context) {
	go func() {
		// Run once immediately on startup
		start, next := DayWindow(d.clock.Now(), d.loc)
		d.lg.Info().Time("day", start).Msg("startup recovery batch")
		d.run(ctx, start, true)

		for {
			wait := next.Sub(d.clock.Now())
			if wait < 0 {
				wait = 0
			}
			timer := time.NewTimer(wait)
			select {
			case <-ctx.Done():
				timer.Stop()
				d.lg.Info().Msg("stopped")
				return
			case <-timer.C:
			}

			start, next = DayWindow(d.clock.Now(), d.loc)
			d.lg.Info().Time("day", start).Msg("daily batch")
			d.run(ctx, start, false)
		}
	}()
}
