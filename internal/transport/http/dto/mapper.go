package dto

import (
	"time"

	"github.com/baechuer/real-time-ressys/services/discovery-service/internal/domain"
)

func ToEventResp(e *domain.Event) EventResp {
	return EventResp{
		ID:           e.ID,
		HostID:       e.HostID,
		Title:        e.Title,
		URI:          e.URI,
		Type:         string(e.Type),
		ThumbnailURL: e.ThumbnailURL,

		StartAt:            e.StartAt.UTC(),
		EndAt:              utcPtr(e.EndAt),
		RecruitmentStartAt: utcPtr(e.RecruitmentStartAt),
		RecruitmentEndAt:   utcPtr(e.RecruitmentEndAt),

		Status:      string(e.Status),
		StatusGroup: string(e.StatusGroup),
		ViewCount:   e.ViewCount,

		CreatedAt: e.CreatedAt,
		UpdatedAt: e.UpdatedAt,
	}
}

func ToEventResps(items []*domain.Event) []EventResp {
	out := make([]EventResp, 0, len(items))
	for _, it := range items {
		out = append(out, ToEventResp(it))
	}
	return out
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	u := t.UTC()
	return &u
}
