package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/baechuer/real-time-ressys/services/discovery-service/internal/domain"
	"github.com/rs/zerolog"
)

type AlarmSource interface {
	// FindWithTimestampInRange lists approved events whose field falls in [from, to).
	FindWithTimestampInRange(ctx context.Context, field domain.TimestampField, from, to time.Time) ([]*domain.Event, error)
	// RecipientTokens lists device tokens of bookmarkers with notifications on.
	RecipientTokens(ctx context.Context, eventID string) ([]string, error)
}

// DispatchMarker claims a (event, trigger) pair so it is sent at most once.
type DispatchMarker interface {
	MarkOnce(ctx context.Context, key string, ttl time.Duration) (bool, error)
	Unmark(ctx context.Context, key string) error
}

type Dispatcher interface {
	SendPush(ctx context.Context, tokens []string, title, body string, data map[string]string) error
}

type AlarmConfig struct {
	// ReminderHour is the local hour of the day-before reminder for EVENT_START.
	ReminderHour int
	// DedupTTL bounds how long a sent marker is remembered.
	DedupTTL    time.Duration
	CallTimeout time.Duration
}

type AlarmScheduler struct {
	src    AlarmSource
	marker DispatchMarker
	push   Dispatcher
	timer  TimerService
	loc    *time.Location
	cfg    AlarmConfig
	lg     zerolog.Logger
}

func NewAlarmScheduler(src AlarmSource, marker DispatchMarker, push Dispatcher, timer TimerService, loc *time.Location, cfg AlarmConfig, lg zerolog.Logger) *AlarmScheduler {
	if loc == nil {
		loc = time.UTC
	}
	if cfg.ReminderHour < 0 || cfg.ReminderHour > 23 {
		cfg.ReminderHour = 9
	}
	if cfg.DedupTTL <= 0 {
		cfg.DedupTTL = 7 * 24 * time.Hour
	}
	if cfg.CallTimeout <= 0 {
		cfg.CallTimeout = 5 * time.Second
	}
	return &AlarmScheduler{
		src:    src,
		marker: marker,
		push:   push,
		timer:  timer,
		loc:    loc,
		cfg:    cfg,
		lg:     lg.With().Str("component", "alarm_scheduler").Logger(),
	}
}

// Alarm is one pending notification.
type Alarm struct {
	EventID string
	Title   string
	Trigger domain.AlarmTrigger
	At      time.Time
}

// DedupKey identifies the (event, trigger) pair across batches and restarts.
func (a Alarm) DedupKey() string {
	return fmt.Sprintf("alarm:%s:%s", a.EventID, a.Trigger)
}

// selectionWindow is the range of the trigger's timestamp that belongs to dayStart.
// Reminders look one day ahead: tomorrow's events are announced today.
func (s *AlarmScheduler) selectionWindow(trigger domain.AlarmTrigger, dayStart time.Time) (time.Time, time.Time) {
	if trigger == domain.AlarmEventStart {
		return dayStart.AddDate(0, 0, 1), dayStart.AddDate(0, 0, 2)
	}
	return dayStart, dayStart.AddDate(0, 0, 1)
}

// alarmFor computes when trigger fires for ev, or false when ev lacks the timestamp.
func (s *AlarmScheduler) alarmFor(trigger domain.AlarmTrigger, ev *domain.Event) (Alarm, bool) {
	a := Alarm{EventID: ev.ID, Title: ev.Title, Trigger: trigger}
	switch trigger {
	case domain.AlarmRecruitmentStart:
		if ev.RecruitmentStartAt == nil {
			return a, false
		}
		a.At = *ev.RecruitmentStartAt
	case domain.AlarmRecruitmentEnd:
		if ev.RecruitmentEndAt == nil {
			return a, false
		}
		a.At = *ev.RecruitmentEndAt
	case domain.AlarmEventStart:
		local := ev.StartAt.In(s.loc)
		a.At = time.Date(local.Year(), local.Month(), local.Day()-1, s.cfg.ReminderHour, 0, 0, 0, s.loc)
	default:
		return a, false
	}
	return a, true
}

// RunBatch is a Batch for Daily. It registers exactly one timer per
// (event, trigger) and returns them.
func (s *AlarmScheduler) RunBatch(ctx context.Context, dayStart time.Time, recovery bool) []Alarm {
	dayStart = dayStart.In(s.loc)
	seen := map[string]bool{}
	var out []Alarm

	for _, trigger := range domain.AlarmTriggers {
		from, to := s.selectionWindow(trigger, dayStart)
		events, err := s.src.FindWithTimestampInRange(ctx, trigger.Field(), from, to)
		if err != nil {
			s.lg.Error().Err(err).Str("trigger", string(trigger)).Msg("load alarm candidates failed")
			continue
		}
		for _, ev := range events {
			a, ok := s.alarmFor(trigger, ev)
			if !ok || seen[a.DedupKey()] {
				continue
			}
			seen[a.DedupKey()] = true

			alarm := a
			s.timer.ScheduleOnce(alarm.At, func() {
				s.fire(ctx, alarm)
			})
			alarmsScheduled.WithLabelValues(string(trigger)).Inc()
			out = append(out, alarm)
		}
	}

	s.lg.Info().
		Time("day", dayStart).
		Bool("recovery", recovery).
		Int("scheduled", len(out)).
		Msg("alarm batch done")
	return out
}

func (s *AlarmScheduler) fire(ctx context.Context, a Alarm) {
	if ctx.Err() != nil {
		return
	}
	callCtx, cancel := context.WithTimeout(ctx, s.cfg.CallTimeout)
	defer cancel()

	lg := s.lg.With().Str("event_id", a.EventID).Str("trigger", string(a.Trigger)).Logger()
	key := a.DedupKey()
	trigger := string(a.Trigger)

	claimed, err := s.marker.MarkOnce(callCtx, key, s.cfg.DedupTTL)
	if err != nil {
		alarmsSkipped.WithLabelValues(trigger, "marker_error").Inc()
		lg.Error().Err(err).Msg("claim alarm failed")
		return
	}
	if !claimed {
		alarmsSkipped.WithLabelValues(trigger, "already_sent").Inc()
		lg.Debug().Msg("alarm already sent")
		return
	}

	tokens, err := s.src.RecipientTokens(callCtx, a.EventID)
	if err != nil {
		s.release(callCtx, key, lg)
		alarmsSkipped.WithLabelValues(trigger, "recipients_error").Inc()
		lg.Error().Err(err).Msg("load recipients failed")
		return
	}
	if len(tokens) == 0 {
		alarmsSkipped.WithLabelValues(trigger, "no_recipients").Inc()
		return
	}

	title, body := alarmText(a)
	data := map[string]string{
		"event_id": a.EventID,
		"trigger":  trigger,
	}
	if err := s.push.SendPush(callCtx, tokens, title, body, data); err != nil {
		// best-effort: a later batch may retry once the claim is released
		s.release(callCtx, key, lg)
		alarmsSkipped.WithLabelValues(trigger, "dispatch_error").Inc()
		lg.Error().Err(err).Msg("send push failed")
		return
	}

	alarmsDispatched.WithLabelValues(trigger).Inc()
	lg.Info().Int("recipients", len(tokens)).Msg("alarm dispatched")
}

func (s *AlarmScheduler) release(ctx context.Context, key string, lg zerolog.Logger) {
	if err := s.marker.Unmark(ctx, key); err != nil {
		lg.Warn().Err(err).Str("key", key).Msg("release alarm claim failed")
	}
}

func alarmText(a Alarm) (string, string) {
	switch a.Trigger {
	case domain.AlarmRecruitmentStart:
		return "Recruitment is open", fmt.Sprintf("%s is now accepting applications.", a.Title)
	case domain.AlarmRecruitmentEnd:
		return "Recruitment closing", fmt.Sprintf("Applications for %s close now.", a.Title)
	default:
		return "Starting tomorrow", fmt.Sprintf("%s starts tomorrow.", a.Title)
	}
}
