package domain

// AlarmTrigger is a notification milestone in an event's lifecycle.
type AlarmTrigger string

const (
	AlarmRecruitmentStart AlarmTrigger = "RECRUITMENT_START"
	AlarmRecruitmentEnd   AlarmTrigger = "RECRUITMENT_END"
	AlarmEventStart       AlarmTrigger = "EVENT_START"
)

var AlarmTriggers = []AlarmTrigger{AlarmRecruitmentStart, AlarmRecruitmentEnd, AlarmEventStart}

// TimestampField names one of the event's schedule columns.
type TimestampField string

const (
	FieldRecruitmentStartAt TimestampField = "recruitment_start_at"
	FieldRecruitmentEndAt   TimestampField = "recruitment_end_at"
	FieldStartAt            TimestampField = "start_at"
)

// Field is the timestamp whose calendar day selects the trigger's events.
func (t AlarmTrigger) Field() TimestampField {
	switch t {
	case AlarmRecruitmentStart:
		return FieldRecruitmentStartAt
	case AlarmRecruitmentEnd:
		return FieldRecruitmentEndAt
	default:
		return FieldStartAt
	}
}
