package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/baechuer/real-time-ressys/services/discovery-service/internal/application/event"
	"github.com/baechuer/real-time-ressys/services/discovery-service/internal/domain"
	"github.com/baechuer/real-time-ressys/services/discovery-service/internal/logger"
	"github.com/baechuer/real-time-ressys/services/discovery-service/internal/transport/http/dto"
	"github.com/baechuer/real-time-ressys/services/discovery-service/internal/transport/http/middleware"
	"github.com/baechuer/real-time-ressys/services/discovery-service/internal/transport/http/response"
	"github.com/baechuer/real-time-ressys/services/discovery-service/internal/transport/http/validate"
)

const defaultPageSize = 20

type EventsHandler struct {
	svc *event.Service
}

func NewEventsHandler(svc *event.Service) *EventsHandler {
	return &EventsHandler{svc: svc}
}

// List serves one keyset page. Paging arguments are passed through untouched:
// out-of-range sizes and foreign cursors are rejected, never clamped.
func (h *EventsHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	pageSize := defaultPageSize
	if v := strings.TrimSpace(q.Get("page_size")); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			response.Err(w, r, domain.ErrValidationMeta("invalid query param", map[string]string{
				"page_size": "must be an integer",
			}))
			return
		}
		pageSize = n
	}

	field, err := domain.ParseSortField(q.Get("sort"))
	if err != nil {
		response.Err(w, r, err)
		return
	}

	filter := event.SearchFilter{
		Status:      domain.EventStatus(strings.ToUpper(strings.TrimSpace(q.Get("status")))),
		StatusGroup: domain.StatusGroup(strings.ToUpper(strings.TrimSpace(q.Get("status_group")))),
		Types:       parseTypes(q["type"]),
		HostID:      q.Get("host_id"),
		Keyword:     q.Get("q"),
		ViewerID:    middleware.UserID(r),
		ViewerRole:  middleware.Role(r),
	}
	if v := strings.TrimSpace(q.Get("bookmarked")); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			response.Err(w, r, domain.ErrValidationMeta("invalid query param", map[string]string{
				"bookmarked": "must be a boolean",
			}))
			return
		}
		filter.BookmarkedOnly = b
	}

	page, err := h.svc.FindPage(r.Context(), filter, q.Get("cursor"), field, pageSize)
	if err != nil {
		response.Err(w, r, err)
		return
	}

	response.Data(w, http.StatusOK, dto.CursorPageResp[dto.EventResp]{
		Items:      dto.ToEventResps(page.Items),
		PageSize:   pageSize,
		Sort:       string(field),
		HasNext:    page.HasNext,
		NextCursor: page.NextCursor,
	})
}

// parseTypes accepts both ?type=A&type=B and ?type=A,B.
func parseTypes(raw []string) []domain.EventType {
	var out []domain.EventType
	for _, v := range raw {
		for _, part := range strings.Split(v, ",") {
			part = strings.ToUpper(strings.TrimSpace(part))
			if part != "" {
				out = append(out, domain.EventType(part))
			}
		}
	}
	return out
}

func (h *EventsHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := eventIDParam(w, r)
	if !ok {
		return
	}
	ev, err := h.svc.Get(r.Context(), id, middleware.UserID(r), middleware.Role(r))
	if err != nil {
		response.Err(w, r, err)
		return
	}

	// a lost view is cheaper than a failed read
	if err := h.svc.RecordView(r.Context(), id); err != nil {
		logger.Ctx(r.Context()).Warn().Err(err).Str("event_id", id).Msg("record view failed")
	}

	response.Data(w, http.StatusOK, dto.ToEventResp(ev))
}

func (h *EventsHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateEventReq
	if err := validate.DecodeJSON(r, &req); err != nil {
		response.Err(w, r, domain.ErrValidationMeta("invalid json body", map[string]string{
			"body": "malformed JSON or invalid fields",
		}))
		return
	}
	if err := validate.Struct(req); err != nil {
		response.Err(w, r, err)
		return
	}

	ev, err := h.svc.Create(r.Context(), event.CreateCmd{
		ActorID:            middleware.UserID(r),
		ActorRole:          middleware.Role(r),
		Title:              req.Title,
		URI:                req.URI,
		Type:               domain.EventType(req.Type),
		ThumbnailURL:       req.ThumbnailURL,
		StartAt:            req.StartAt,
		EndAt:              req.EndAt,
		RecruitmentStartAt: req.RecruitmentStartAt,
		RecruitmentEndAt:   req.RecruitmentEndAt,
	})
	if err != nil {
		response.Err(w, r, err)
		return
	}
	response.Data(w, http.StatusCreated, dto.ToEventResp(ev))
}

func (h *EventsHandler) Approve(w http.ResponseWriter, r *http.Request) {
	id, ok := eventIDParam(w, r)
	if !ok {
		return
	}
	ev, err := h.svc.Approve(r.Context(), id, middleware.Role(r))
	if err != nil {
		response.Err(w, r, err)
		return
	}
	response.Data(w, http.StatusOK, dto.ToEventResp(ev))
}

func (h *EventsHandler) Bookmark(w http.ResponseWriter, r *http.Request) {
	id, ok := eventIDParam(w, r)
	if !ok {
		return
	}
	if err := h.svc.Bookmark(r.Context(), id, middleware.UserID(r), middleware.Role(r)); err != nil {
		response.Err(w, r, err)
		return
	}
	response.NoContent(w)
}

func (h *EventsHandler) Unbookmark(w http.ResponseWriter, r *http.Request) {
	id, ok := eventIDParam(w, r)
	if !ok {
		return
	}
	if err := h.svc.Unbookmark(r.Context(), id, middleware.UserID(r)); err != nil {
		response.Err(w, r, err)
		return
	}
	response.NoContent(w)
}

func eventIDParam(w http.ResponseWriter, r *http.Request) (string, bool) {
	id := chi.URLParam(r, "event_id")
	if !validate.IsUUID(id) {
		response.Err(w, r, domain.ErrValidationMeta("invalid path param", map[string]string{
			"event_id": "must be uuid",
		}))
		return "", false
	}
	return id, true
}
