package dto

import "time"

// EventResp is the stable API response model.
type EventResp struct {
	ID     string `json:"id"`
	HostID string `json:"host_id"`

	Title        string `json:"title"`
	URI          string `json:"uri"`
	Type         string `json:"type"`
	ThumbnailURL string `json:"thumbnail_url,omitempty"`

	StartAt            time.Time  `json:"start_at"`
	EndAt              *time.Time `json:"end_at,omitempty"`
	RecruitmentStartAt *time.Time `json:"recruitment_start_at,omitempty"`
	RecruitmentEndAt   *time.Time `json:"recruitment_end_at,omitempty"`

	Status      string `json:"status"`
	StatusGroup string `json:"status_group"`
	ViewCount   int64  `json:"view_count"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// CursorPageResp is one keyset page. NextCursor is opaque and only valid with
// the same sort.
type CursorPageResp[T any] struct {
	Items      []T    `json:"items"`
	PageSize   int    `json:"page_size"`
	Sort       string `json:"sort"`
	HasNext    bool   `json:"has_next"`
	NextCursor string `json:"next_cursor,omitempty"`
}
