package event

import (
	"context"
	"strings"

	"github.com/baechuer/real-time-ressys/services/discovery-service/internal/domain"
	zlog "github.com/rs/zerolog/log"
)

const (
	MinPageSize = 1
	MaxPageSize = 100
)

type SearchFilter struct {
	Status      domain.EventStatus // exclusive with StatusGroup
	StatusGroup domain.StatusGroup
	Types       []domain.EventType
	HostID      string
	Keyword     string

	BookmarkedOnly bool
	ViewerID       string
	ViewerRole     string
}

func (f *SearchFilter) Normalize() error {
	f.HostID = strings.TrimSpace(f.HostID)
	f.Keyword = strings.TrimSpace(f.Keyword)
	f.ViewerID = strings.TrimSpace(f.ViewerID)

	if f.Status != "" && f.StatusGroup != "" {
		return domain.ErrValidationMeta("invalid query param", map[string]string{
			"status": "status and status_group are mutually exclusive",
		})
	}
	if f.Status != "" && !f.Status.Valid() {
		return domain.ErrValidationMeta("invalid query param", map[string]string{"status": "unknown status"})
	}
	if f.StatusGroup != "" && !f.StatusGroup.Valid() {
		return domain.ErrValidationMeta("invalid query param", map[string]string{"status_group": "unknown status group"})
	}
	for _, t := range f.Types {
		if !t.Valid() {
			return domain.ErrValidationMeta("invalid query param", map[string]string{"type": "unknown event type " + string(t)})
		}
	}
	if f.BookmarkedOnly && f.ViewerID == "" {
		return domain.ErrValidationMeta("invalid query param", map[string]string{
			"bookmarked": "requires an authenticated viewer",
		})
	}
	if f.targetsPending() && !isAdmin(f.ViewerRole) {
		return domain.ErrForbidden("pending events are visible to admins only")
	}
	return nil
}

func (f SearchFilter) filtersStatus() bool {
	return f.Status != "" || f.StatusGroup != ""
}

func (f SearchFilter) targetsPending() bool {
	return f.Status == domain.StatusPending || f.StatusGroup == domain.GroupPending
}

// FinishedView is true when the filter selects only finished events.
func (f SearchFilter) FinishedView() bool {
	return f.Status == domain.StatusFinished || f.StatusGroup == domain.GroupFinished
}

// PageQuery is what the repository needs to run one keyset page.
type PageQuery struct {
	Filter SearchFilter
	Sort   domain.SortField
	// Descending applies to the sort field; the id tie-break is always descending.
	Descending bool
	After      Cursor
	Limit      int
}

type Page struct {
	Items      []*domain.Event
	HasNext    bool
	NextCursor string
}

// SortDescending resolves the direction of the sort field for a filter.
// ID, CREATED_AT and VIEW_COUNT are newest/most-viewed first regardless of status.
// START_DATE and RECRUITMENT_DEADLINE are soonest first, except in finished views
// where the most recent comes first.
func SortDescending(f SearchFilter, field domain.SortField) bool {
	if field.Impending() {
		return f.FinishedView()
	}
	return true
}

func validatePageSize(n int) error {
	if n < MinPageSize || n > MaxPageSize {
		return domain.ErrValidationMeta("invalid query param", map[string]string{
			"page_size": "must be between 1 and 100",
		})
	}
	return nil
}

// FindPage returns the page following cursor (empty for the first page).
// All argument validation happens before storage is touched.
func (s *Service) FindPage(ctx context.Context, f SearchFilter, cursor string, field domain.SortField, pageSize int) (Page, error) {
	if err := validatePageSize(pageSize); err != nil {
		return Page{}, err
	}
	if !field.Valid() {
		return Page{}, domain.ErrInvalidSortField(field, "unsupported sort field")
	}
	if err := f.Normalize(); err != nil {
		return Page{}, err
	}

	var after Cursor
	if strings.TrimSpace(cursor) != "" {
		c, err := DecodeCursor(cursor, field)
		if err != nil {
			return Page{}, err
		}
		after = c
	}

	// only the unfiltered-by-status first page is shared between viewers; status
	// filtered pages would keep showing an event in its old group after a transition
	cacheable := after == nil && !f.BookmarkedOnly && !f.filtersStatus() && s.cache != nil
	cacheKey := ""
	if cacheable {
		cacheKey = cacheKeyPage(f, field, pageSize)
		var cached Page
		found, err := s.cache.Get(ctx, cacheKey, &cached)
		if err != nil {
			zlog.Warn().Err(err).Str("key", cacheKey).Msg("cache list get failed")
		} else if found {
			zlog.Debug().Str("key", cacheKey).Msg("cache list hit")
			return cached, nil
		}
	}

	rows, err := s.repo.ListPage(ctx, PageQuery{
		Filter:     f,
		Sort:       field,
		Descending: SortDescending(f, field),
		After:      after,
		Limit:      pageSize + 1,
	})
	if err != nil {
		return Page{}, err
	}

	page := Page{Items: rows}
	if len(rows) > pageSize {
		page.Items = rows[:pageSize]
		page.HasNext = true

		c, err := CursorFor(field, rows[pageSize-1])
		if err != nil {
			return Page{}, err
		}
		next, err := EncodeCursor(c)
		if err != nil {
			return Page{}, err
		}
		page.NextCursor = next
	}
	if page.Items == nil {
		page.Items = []*domain.Event{}
	}

	if cacheable && len(page.Items) > 0 {
		if err := s.cache.Set(ctx, cacheKey, page, s.ttlList); err != nil {
			zlog.Warn().Err(err).Str("key", cacheKey).Msg("cache list set failed")
		}
	}
	return page, nil
}
