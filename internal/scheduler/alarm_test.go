package scheduler

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/baechuer/real-time-ressys/services/discovery-service/internal/domain"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeAlarmSource struct {
	byField map[domain.TimestampField][]*domain.Event
	tokens  map[string][]string
	ranges  map[domain.TimestampField][2]time.Time
}

func (s *fakeAlarmSource) FindWithTimestampInRange(ctx context.Context, field domain.TimestampField, from, to time.Time) ([]*domain.Event, error) {
	if s.ranges == nil {
		s.ranges = map[domain.TimestampField][2]time.Time{}
	}
	s.ranges[field] = [2]time.Time{from, to}
	return s.byField[field], nil
}

func (s *fakeAlarmSource) RecipientTokens(ctx context.Context, eventID string) ([]string, error) {
	return s.tokens[eventID], nil
}

type memMarker struct {
	keys map[string]bool
}

func (m *memMarker) MarkOnce(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	if m.keys[key] {
		return false, nil
	}
	m.keys[key] = true
	return true, nil
}

func (m *memMarker) Unmark(ctx context.Context, key string) error {
	delete(m.keys, key)
	return nil
}

type sentPush struct {
	tokens []string
	title  string
	data   map[string]string
}

type fakeDispatcher struct {
	sent []sentPush
	err  error
}

func (d *fakeDispatcher) SendPush(ctx context.Context, tokens []string, title, body string, data map[string]string) error {
	if d.err != nil {
		return d.err
	}
	d.sent = append(d.sent, sentPush{tokens: tokens, title: title, data: data})
	return nil
}

func alarmFixture(dayStart time.Time) (*fakeAlarmSource, *domain.Event) {
	ev := &domain.Event{
		ID:                 "evt-1",
		Title:              "Go Conf",
		StartAt:            dayStart.Add(24*time.Hour + 14*time.Hour), // tomorrow 14:00
		RecruitmentStartAt: ptr(dayStart.Add(9 * time.Hour)),
		RecruitmentEndAt:   ptr(dayStart.Add(18 * time.Hour)),
	}
	src := &fakeAlarmSource{
		byField: map[domain.TimestampField][]*domain.Event{
			domain.FieldRecruitmentStartAt: {ev, ev}, // duplicated row
			domain.FieldRecruitmentEndAt:   {ev},
			domain.FieldStartAt:            {ev},
		},
		tokens: map[string][]string{"evt-1": {"tok-a", "tok-b"}},
	}
	return src, ev
}

func TestAlarmScheduler_OneTimerPerEventAndTrigger(t *testing.T) {
	dayStart := time.Date(2026, 3, 10, 0, 0, 0, 0, seoul)
	src, ev := alarmFixture(dayStart)
	timer := &fakeTimer{}

	s := NewAlarmScheduler(src, &memMarker{keys: map[string]bool{}}, &fakeDispatcher{}, timer, seoul, AlarmConfig{ReminderHour: 9}, zerolog.Nop())
	alarms := s.RunBatch(context.Background(), dayStart, false)

	require.Len(t, alarms, 3)
	require.Len(t, timer.calls, 3)

	at := map[domain.AlarmTrigger]time.Time{}
	for _, a := range alarms {
		at[a.Trigger] = a.At
	}
	assert.Equal(t, *ev.RecruitmentStartAt, at[domain.AlarmRecruitmentStart])
	assert.Equal(t, *ev.RecruitmentEndAt, at[domain.AlarmRecruitmentEnd])
	assert.Equal(t, time.Date(2026, 3, 10, 9, 0, 0, 0, seoul), at[domain.AlarmEventStart])

	// reminders select tomorrow's events
	assert.Equal(t, dayStart.AddDate(0, 0, 1), src.ranges[domain.FieldStartAt][0])
	assert.Equal(t, dayStart, src.ranges[domain.FieldRecruitmentStartAt][0])
}

func TestAlarmScheduler_DispatchesOnceAcrossBatches(t *testing.T) {
	dayStart := time.Date(2026, 3, 10, 0, 0, 0, 0, seoul)
	clk := &fakeClock{t: dayStart}
	src, _ := alarmFixture(dayStart)
	marker := &memMarker{keys: map[string]bool{}}
	push := &fakeDispatcher{}
	timer := &fakeTimer{}

	s := NewAlarmScheduler(src, marker, push, timer, seoul, AlarmConfig{}, zerolog.Nop())

	// startup recovery and the midnight batch both cover the same day
	s.RunBatch(context.Background(), dayStart, true)
	s.RunBatch(context.Background(), dayStart, false)
	assert.Equal(t, 6, timer.RunAll(clk))

	require.Len(t, push.sent, 3)
	for _, p := range push.sent {
		assert.Equal(t, []string{"tok-a", "tok-b"}, p.tokens)
		assert.Equal(t, "evt-1", p.data["event_id"])
	}
	assert.True(t, marker.keys["alarm:evt-1:RECRUITMENT_START"])
	assert.True(t, marker.keys["alarm:evt-1:EVENT_START"])
}

func TestAlarmScheduler_DispatchFailureReleasesClaim(t *testing.T) {
	dayStart := time.Date(2026, 3, 10, 0, 0, 0, 0, seoul)
	clk := &fakeClock{t: dayStart}
	src, _ := alarmFixture(dayStart)
	marker := &memMarker{keys: map[string]bool{}}
	push := &fakeDispatcher{err: errors.New("NO_ROUTE: push.requested")}
	timer := &fakeTimer{}

	s := NewAlarmScheduler(src, marker, push, timer, seoul, AlarmConfig{}, zerolog.Nop())
	s.RunBatch(context.Background(), dayStart, false)
	timer.RunAll(clk)

	assert.Empty(t, marker.keys)

	// next pass succeeds
	push.err = nil
	s.RunBatch(context.Background(), dayStart, true)
	timer.RunAll(clk)
	assert.Len(t, push.sent, 3)
}

func TestAlarmScheduler_NoRecipients(t *testing.T) {
	dayStart := time.Date(2026, 3, 10, 0, 0, 0, 0, seoul)
	clk := &fakeClock{t: dayStart}
	src, _ := alarmFixture(dayStart)
	src.tokens = nil
	push := &fakeDispatcher{}
	timer := &fakeTimer{}

	s := NewAlarmScheduler(src, &memMarker{keys: map[string]bool{}}, push, timer, seoul, AlarmConfig{}, zerolog.Nop())
	s.RunBatch(context.Background(), dayStart, false)
	timer.RunAll(clk)

	assert.Empty(t, push.sent)
}

func TestAlarmScheduler_SkipsMissingTimestamps(t *testing.T) {
	dayStart := time.Date(2026, 3, 10, 0, 0, 0, 0, seoul)
	ev := &domain.Event{ID: "evt-2", StartAt: dayStart.Add(30 * time.Hour)}
	src := &fakeAlarmSource{byField: map[domain.TimestampField][]*domain.Event{
		domain.FieldRecruitmentStartAt: {ev},
		domain.FieldRecruitmentEndAt:   {ev},
	}}
	timer := &fakeTimer{}

	s := NewAlarmScheduler(src, &memMarker{keys: map[string]bool{}}, &fakeDispatcher{}, timer, seoul, AlarmConfig{}, zerolog.Nop())
	assert.Empty(t, s.RunBatch(context.Background(), dayStart, false))
	assert.Empty(t, timer.calls)
}
