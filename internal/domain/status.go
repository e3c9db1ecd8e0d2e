package domain

type EventStatus string

const (
	StatusPending            EventStatus = "PENDING"
	StatusRecruitmentWaiting EventStatus = "RECRUITMENT_WAITING"
	StatusRecruiting         EventStatus = "RECRUITING"
	StatusEventWaiting       EventStatus = "EVENT_WAITING"
	StatusActive             EventStatus = "ACTIVE"
	StatusFinished           EventStatus = "FINISHED"
)

func (s EventStatus) Valid() bool {
	switch s {
	case StatusPending, StatusRecruitmentWaiting, StatusRecruiting,
		StatusEventWaiting, StatusActive, StatusFinished:
		return true
	}
	return false
}

// Group maps a fine-grained status onto its coarse bucket.
func (s EventStatus) Group() StatusGroup {
	switch s {
	case StatusPending:
		return GroupPending
	case StatusFinished:
		return GroupFinished
	default:
		return GroupActive
	}
}

// Next returns the status a scheduled transition moves toward.
// PENDING needs an explicit approval and FINISHED is terminal.
func (s EventStatus) Next() (EventStatus, bool) {
	switch s {
	case StatusRecruitmentWaiting:
		return StatusRecruiting, true
	case StatusRecruiting:
		return StatusEventWaiting, true
	case StatusEventWaiting:
		return StatusActive, true
	case StatusActive:
		return StatusFinished, true
	}
	return "", false
}

func (s EventStatus) Transitionable() bool {
	_, ok := s.Next()
	return ok
}

// TransitionableStatuses is the order the scheduler walks every day.
var TransitionableStatuses = []EventStatus{
	StatusRecruitmentWaiting,
	StatusRecruiting,
	StatusEventWaiting,
	StatusActive,
}

type StatusGroup string

const (
	GroupPending  StatusGroup = "PENDING"
	GroupActive   StatusGroup = "ACTIVE"
	GroupFinished StatusGroup = "FINISHED"
)

func (g StatusGroup) Valid() bool {
	return g == GroupPending || g == GroupActive || g == GroupFinished
}
