package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

type EventType string

const (
	TypeConference EventType = "CONFERENCE"
	TypeHackathon  EventType = "HACKATHON"
	TypeContest    EventType = "CONTEST"
	TypeBootcamp   EventType = "BOOTCAMP"
	TypeNetworking EventType = "NETWORKING"
	TypeEtc        EventType = "ETC"
)

func (t EventType) Valid() bool {
	switch t {
	case TypeConference, TypeHackathon, TypeContest, TypeBootcamp, TypeNetworking, TypeEtc:
		return true
	}
	return false
}

// ExclusiveBoundaryGrace is added to "ends at" instants. A status that ends at T is
// still current at T itself, so a timer for its successor has to fire just after T.
const ExclusiveBoundaryGrace = time.Second

type Event struct {
	ID           string
	HostID       string
	Title        string
	URI          string
	Type         EventType
	ThumbnailURL string

	StartAt            time.Time
	EndAt              *time.Time
	RecruitmentStartAt *time.Time
	RecruitmentEndAt   *time.Time

	Status      EventStatus
	StatusGroup StatusGroup

	ViewCount int64

	CreatedAt time.Time
	UpdatedAt time.Time
}

type EventInput struct {
	HostID             string
	Title              string
	URI                string
	Type               EventType
	ThumbnailURL       string
	StartAt            time.Time
	EndAt              *time.Time
	RecruitmentStartAt *time.Time
	RecruitmentEndAt   *time.Time
}

// NewEvent creates a host submission awaiting moderation.
func NewEvent(in EventInput, now time.Time) (*Event, error) {
	e, err := build(in, now)
	if err != nil {
		return nil, err
	}
	e.setStatus(StatusPending)
	return e, nil
}

// NewApprovedEvent creates an admin-authored event that skips moderation.
func NewApprovedEvent(in EventInput, now time.Time) (*Event, error) {
	e, err := build(in, now)
	if err != nil {
		return nil, err
	}
	e.setStatus(DeriveStatus(now, e.StartAt, e.EndAt, e.RecruitmentStartAt, e.RecruitmentEndAt))
	return e, nil
}

func build(in EventInput, now time.Time) (*Event, error) {
	hostID := strings.TrimSpace(in.HostID)
	title := strings.TrimSpace(in.Title)
	uri := strings.TrimSpace(in.URI)

	if hostID == "" {
		return nil, ErrValidation("host_id is required")
	}
	if title == "" || len(title) > 120 {
		return nil, ErrValidation("title is required and must be <= 120 chars")
	}
	if uri == "" || len(uri) > 2048 {
		return nil, ErrValidation("uri is required and must be <= 2048 chars")
	}
	if !in.Type.Valid() {
		return nil, ErrValidationMeta("invalid field", map[string]string{"type": "unknown event type"})
	}
	if in.StartAt.IsZero() {
		return nil, ErrValidation("start_at is required")
	}
	if in.EndAt != nil && !in.EndAt.After(in.StartAt) {
		return nil, ErrValidation("end_at must be after start_at")
	}
	if in.RecruitmentStartAt != nil && in.RecruitmentEndAt != nil &&
		!in.RecruitmentEndAt.After(*in.RecruitmentStartAt) {
		return nil, ErrValidation("recruitment_end_at must be after recruitment_start_at")
	}
	if in.RecruitmentEndAt != nil && in.RecruitmentEndAt.After(in.StartAt) {
		return nil, ErrValidation("recruitment_end_at must not be after start_at")
	}

	id, err := uuid.NewV7()
	if err != nil {
		return nil, err
	}
	t := now.UTC()
	return &Event{
		ID:                 id.String(),
		HostID:             hostID,
		Title:              title,
		URI:                uri,
		Type:               in.Type,
		ThumbnailURL:       strings.TrimSpace(in.ThumbnailURL),
		StartAt:            in.StartAt.UTC(),
		EndAt:              utcPtr(in.EndAt),
		RecruitmentStartAt: utcPtr(in.RecruitmentStartAt),
		RecruitmentEndAt:   utcPtr(in.RecruitmentEndAt),
		CreatedAt:          t,
		UpdatedAt:          t,
	}, nil
}

// DeriveStatus computes the lifecycle stage at now. The first matching rule wins.
// It never returns PENDING.
//
// An event without endAt finishes as soon as now passes startAt, so it is ACTIVE only
// at the instant now == startAt. Whether that was intended upstream is unclear; it is
// kept as observed.
func DeriveStatus(now, startAt time.Time, endAt, recruitmentStartAt, recruitmentEndAt *time.Time) EventStatus {
	// FINISHED
	if endAt != nil && now.After(*endAt) {
		return StatusFinished
	}
	if endAt == nil && now.After(startAt) {
		return StatusFinished
	}

	// ACTIVE: startAt <= now <= (endAt or startAt)
	if !now.Before(startAt) {
		return StatusActive
	}

	// from here on startAt > now
	if recruitmentStartAt == nil || (recruitmentEndAt != nil && recruitmentEndAt.Before(now)) {
		return StatusEventWaiting
	}
	if !recruitmentStartAt.After(now) && (recruitmentEndAt == nil || !recruitmentEndAt.Before(now)) {
		return StatusRecruiting
	}
	if recruitmentStartAt.After(now) {
		return StatusRecruitmentWaiting
	}
	return StatusEventWaiting
}

// UpdateStatus recomputes status at now and reports whether it changed.
// PENDING events are left untouched until approved.
func (e *Event) UpdateStatus(now time.Time) bool {
	if e.Status == StatusPending {
		return false
	}
	next := DeriveStatus(now, e.StartAt, e.EndAt, e.RecruitmentStartAt, e.RecruitmentEndAt)
	if next == e.Status && e.StatusGroup == next.Group() {
		return false
	}
	e.setStatus(next)
	e.UpdatedAt = now.UTC()
	return true
}

func (e *Event) Approve(now time.Time) error {
	if e.Status != StatusPending {
		return ErrInvalidState("only pending events can be approved")
	}
	e.setStatus(DeriveStatus(now, e.StartAt, e.EndAt, e.RecruitmentStartAt, e.RecruitmentEndAt))
	e.UpdatedAt = now.UTC()
	return nil
}

// setStatus is the only writer of Status, keeping StatusGroup in lockstep.
func (e *Event) setStatus(s EventStatus) {
	e.Status = s
	e.StatusGroup = s.Group()
}

// NextTransition returns the status the event moves toward and the instant a timer
// should fire for it. ok is false for PENDING, FINISHED and events missing the
// defining timestamp.
func (e *Event) NextTransition() (next EventStatus, at time.Time, ok bool) {
	next, ok = e.Status.Next()
	if !ok {
		return "", time.Time{}, false
	}
	switch e.Status {
	case StatusRecruitmentWaiting:
		if e.RecruitmentStartAt == nil {
			return "", time.Time{}, false
		}
		return next, *e.RecruitmentStartAt, true
	case StatusRecruiting:
		if e.RecruitmentEndAt == nil {
			// open-ended recruiting runs until the event starts
			return StatusActive, e.StartAt, true
		}
		return next, e.RecruitmentEndAt.Add(ExclusiveBoundaryGrace), true
	case StatusEventWaiting:
		return next, e.StartAt, true
	case StatusActive:
		return next, e.EffectiveEndAt().Add(ExclusiveBoundaryGrace), true
	}
	return "", time.Time{}, false
}

// EffectiveEndAt is endAt, or startAt for events that end immediately.
func (e *Event) EffectiveEndAt() time.Time {
	if e.EndAt != nil {
		return *e.EndAt
	}
	return e.StartAt
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := t.UTC()
	return &v
}
