package domain

import "strings"

// SortField doubles as the cursor variant tag on the wire.
type SortField string

const (
	SortID                  SortField = "ID"
	SortCreatedAt           SortField = "CREATED_AT"
	SortStartDate           SortField = "START_DATE"
	SortRecruitmentDeadline SortField = "RECRUITMENT_DEADLINE"
	SortViewCount           SortField = "VIEW_COUNT"
)

var SortFields = []SortField{SortID, SortCreatedAt, SortStartDate, SortRecruitmentDeadline, SortViewCount}

func (f SortField) Valid() bool {
	for _, s := range SortFields {
		if s == f {
			return true
		}
	}
	return false
}

// ParseSortField accepts the wire tag case-insensitively; empty means SortID.
func ParseSortField(raw string) (SortField, error) {
	raw = strings.ToUpper(strings.TrimSpace(raw))
	if raw == "" {
		return SortID, nil
	}
	f := SortField(raw)
	if !f.Valid() {
		return "", ErrValidationMeta("invalid query param", map[string]string{
			"sort": "must be one of: ID, CREATED_AT, START_DATE, RECRUITMENT_DEADLINE, VIEW_COUNT",
		})
	}
	return f, nil
}

// Impending reports whether the field flips direction between finished and non-finished views.
func (f SortField) Impending() bool {
	return f == SortStartDate || f == SortRecruitmentDeadline
}
