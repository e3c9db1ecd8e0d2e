package event

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"strings"
	"time"

	"github.com/baechuer/real-time-ressys/services/discovery-service/internal/domain"
)

// Cursor marks "resume after this row" for one sort field. The variants below are the
// only implementations.
type Cursor interface {
	SortField() domain.SortField
	// Position returns the sort key (nil for ID) and the tie-break id.
	Position() (any, string)
	isCursor()
}

type IDCursor struct {
	ID string
}

type CreatedAtCursor struct {
	CreatedAt time.Time
	ID        string
}

type StartDateCursor struct {
	StartAt time.Time
	ID      string
}

type RecruitmentDeadlineCursor struct {
	RecruitmentEndAt time.Time
	ID               string
}

type ViewCountCursor struct {
	ViewCount int64
	ID        string
}

func (IDCursor) SortField() domain.SortField                  { return domain.SortID }
func (CreatedAtCursor) SortField() domain.SortField           { return domain.SortCreatedAt }
func (StartDateCursor) SortField() domain.SortField           { return domain.SortStartDate }
func (RecruitmentDeadlineCursor) SortField() domain.SortField { return domain.SortRecruitmentDeadline }
func (ViewCountCursor) SortField() domain.SortField           { return domain.SortViewCount }

func (c IDCursor) Position() (any, string)                  { return nil, c.ID }
func (c CreatedAtCursor) Position() (any, string)           { return c.CreatedAt, c.ID }
func (c StartDateCursor) Position() (any, string)           { return c.StartAt, c.ID }
func (c RecruitmentDeadlineCursor) Position() (any, string) { return c.RecruitmentEndAt, c.ID }
func (c ViewCountCursor) Position() (any, string)           { return c.ViewCount, c.ID }

func (IDCursor) isCursor()                  {}
func (CreatedAtCursor) isCursor()           {}
func (StartDateCursor) isCursor()           {}
func (RecruitmentDeadlineCursor) isCursor() {}
func (ViewCountCursor) isCursor()           {}

// cursorWire is the JSON shape behind the base64 token. Field names are part of the
// public cursor format; keep them stable.
type cursorWire struct {
	Type             domain.SortField `json:"type"`
	ID               string           `json:"id"`
	CreatedAt        *time.Time       `json:"createdAt,omitempty"`
	StartAt          *time.Time       `json:"startAt,omitempty"`
	RecruitmentEndAt *time.Time       `json:"recruitmentEndAt,omitempty"`
	ViewCount        *int64           `json:"viewCount,omitempty"`
}

// CursorFor builds the cursor pointing at e for the given sort field.
func CursorFor(field domain.SortField, e *domain.Event) (Cursor, error) {
	switch field {
	case domain.SortID:
		return IDCursor{ID: e.ID}, nil
	case domain.SortCreatedAt:
		return CreatedAtCursor{CreatedAt: e.CreatedAt.UTC(), ID: e.ID}, nil
	case domain.SortStartDate:
		return StartDateCursor{StartAt: e.StartAt.UTC(), ID: e.ID}, nil
	case domain.SortRecruitmentDeadline:
		if e.RecruitmentEndAt == nil {
			return nil, domain.ErrInvalidSortField(field, "event has no recruitment deadline")
		}
		return RecruitmentDeadlineCursor{RecruitmentEndAt: e.RecruitmentEndAt.UTC(), ID: e.ID}, nil
	case domain.SortViewCount:
		return ViewCountCursor{ViewCount: e.ViewCount, ID: e.ID}, nil
	}
	return nil, domain.ErrInvalidSortField(field, "unsupported sort field")
}

// EncodeCursor serializes c into an opaque, URL-safe token.
func EncodeCursor(c Cursor) (string, error) {
	w := cursorWire{Type: c.SortField()}
	switch v := c.(type) {
	case IDCursor:
		w.ID = v.ID
	case CreatedAtCursor:
		t := v.CreatedAt.UTC()
		w.ID, w.CreatedAt = v.ID, &t
	case StartDateCursor:
		t := v.StartAt.UTC()
		w.ID, w.StartAt = v.ID, &t
	case RecruitmentDeadlineCursor:
		t := v.RecruitmentEndAt.UTC()
		w.ID, w.RecruitmentEndAt = v.ID, &t
	case ViewCountCursor:
		n := v.ViewCount
		w.ID, w.ViewCount = v.ID, &n
	default:
		return "", domain.ErrInvalidSortField(c.SortField(), "unsupported cursor variant")
	}
	b, err := json.Marshal(w)
	if err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

// DecodeCursor parses raw and checks it was issued for field.
func DecodeCursor(raw string, field domain.SortField) (Cursor, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return nil, domain.ErrInvalidCursor(raw, "empty")
	}
	b, err := base64.RawURLEncoding.DecodeString(trimmed)
	if err != nil {
		return nil, domain.ErrInvalidCursor(raw, "malformed encoding")
	}

	var w cursorWire
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&w); err != nil {
		return nil, domain.ErrInvalidCursor(raw, "malformed payload")
	}
	if w.Type != field {
		return nil, domain.ErrInvalidCursor(raw, "cursor was issued for sort "+string(w.Type))
	}
	if strings.TrimSpace(w.ID) == "" {
		return nil, domain.ErrInvalidCursor(raw, "missing id")
	}

	missing := func(name string) error {
		return domain.ErrInvalidCursor(raw, "missing "+name)
	}
	switch field {
	case domain.SortID:
		return IDCursor{ID: w.ID}, nil
	case domain.SortCreatedAt:
		if w.CreatedAt == nil {
			return nil, missing("createdAt")
		}
		return CreatedAtCursor{CreatedAt: w.CreatedAt.UTC(), ID: w.ID}, nil
	case domain.SortStartDate:
		if w.StartAt == nil {
			return nil, missing("startAt")
		}
		return StartDateCursor{StartAt: w.StartAt.UTC(), ID: w.ID}, nil
	case domain.SortRecruitmentDeadline:
		if w.RecruitmentEndAt == nil {
			return nil, missing("recruitmentEndAt")
		}
		return RecruitmentDeadlineCursor{RecruitmentEndAt: w.RecruitmentEndAt.UTC(), ID: w.ID}, nil
	case domain.SortViewCount:
		if w.ViewCount == nil {
			return nil, missing("viewCount")
		}
		return ViewCountCursor{ViewCount: *w.ViewCount, ID: w.ID}, nil
	}
	return nil, domain.ErrInvalidCursor(raw, "unsupported sort "+string(field))
}
