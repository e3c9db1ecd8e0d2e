package dto

import "time"

type CreateEventReq struct {
	Title              string     `json:"title" validate:"required,max=120"`
	URI                string     `json:"uri" validate:"required,url,max=2048"`
	Type               string     `json:"type" validate:"required,event_type"`
	ThumbnailURL       string     `json:"thumbnail_url" validate:"omitempty,url,max=2048"`
	StartAt            time.Time  `json:"start_at" validate:"required"`
	EndAt              *time.Time `json:"end_at,omitempty" validate:"omitempty,gtfield=StartAt"`
	RecruitmentStartAt *time.Time `json:"recruitment_start_at,omitempty"`
	RecruitmentEndAt   *time.Time `json:"recruitment_end_at,omitempty"`
}
