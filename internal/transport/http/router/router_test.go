package router

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"

	"github.com/baechuer/real-time-ressys/services/discovery-service/internal/application/event"
	"github.com/baechuer/real-time-ressys/services/discovery-service/internal/config"
	"github.com/baechuer/real-time-ressys/services/discovery-service/internal/domain"
	"github.com/baechuer/real-time-ressys/services/discovery-service/internal/transport/http/handlers"
	authmw "github.com/baechuer/real-time-ressys/services/discovery-service/internal/transport/http/middleware"
)

type stubClock struct{}

func (stubClock) Now() time.Time { return time.Date(2026, 4, 1, 12, 0, 0, 0, time.UTC) }

// stubRepo satisfies event.EventRepo with empty storage.
type stubRepo struct{}

func (s *stubRepo) Create(ctx context.Context, e *domain.Event) error { return nil }
func (s *stubRepo) GetByID(ctx context.Context, id string) (*domain.Event, error) {
	return nil, domain.ErrNotFound("event not found")
}
func (s *stubRepo) ListPage(ctx context.Context, q event.PageQuery) ([]*domain.Event, error) {
	return []*domain.Event{}, nil
}
func (s *stubRepo) IncrementViewCount(ctx context.Context, id string) error        { return nil }
func (s *stubRepo) AddBookmark(ctx context.Context, userID, eventID string) error    { return nil }
func (s *stubRepo) RemoveBookmark(ctx context.Context, userID, eventID string) error { return nil }
func (s *stubRepo) WithTx(ctx context.Context, fn func(r event.TxEventRepo) error) error {
	return domain.ErrNotFound("event not found")
}

const (
	secret = "secret"
	issuer = "issuer"
	evtID  = "0195f0c4-7b2a-7c3e-8a10-3f2b9d1e6a01"
)

func bearer(role string) string {
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, authmw.Claims{
		UserID: "user-1",
		Role:   role,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	})
	ss, _ := tok.SignedString([]byte(secret))
	return "Bearer " + ss
}

func TestRouter_Routing(t *testing.T) {
	auth := authmw.NewAuth(secret, issuer, nil)
	svc := event.New(&stubRepo{}, stubClock{}, nil, 0, 0)

	r := New(handlers.NewEventsHandler(svc), auth, handlers.NewHealthHandler(nil), &config.Config{RLEnabled: false})

	cases := []struct {
		name   string
		method string
		path   string
		auth   string
		body   string
		want   int
	}{
		{"healthz", "GET", "/healthz", "", "", http.StatusOK},
		{"metrics", "GET", "/metrics", "", "", http.StatusOK},
		{"public_list", "GET", "/discovery/v1/events", "", "", http.StatusOK},
		{"list_with_bad_token", "GET", "/discovery/v1/events", "Bearer nope", "", http.StatusUnauthorized},
		{"get_missing", "GET", "/discovery/v1/events/" + evtID, "", "", http.StatusNotFound},
		{"create_requires_token", "POST", "/discovery/v1/events", "", "{}", http.StatusUnauthorized},
		{"create_requires_host_or_admin", "POST", "/discovery/v1/events", bearer("user"), "{}", http.StatusForbidden},
		{"create_as_host_reaches_handler", "POST", "/discovery/v1/events", bearer("host"), "{}", http.StatusBadRequest},
		{"bookmark_requires_token", "PUT", "/discovery/v1/events/" + evtID + "/bookmark", "", "", http.StatusUnauthorized},
		{"unbookmark", "DELETE", "/discovery/v1/events/" + evtID + "/bookmark", bearer("user"), "", http.StatusNoContent},
		{"approve_requires_admin", "POST", "/discovery/v1/admin/events/" + evtID + "/approve", bearer("host"), "", http.StatusForbidden},
		{"approve_missing", "POST", "/discovery/v1/admin/events/" + evtID + "/approve", bearer("admin"), "", http.StatusNotFound},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(tc.method, tc.path, strings.NewReader(tc.body))
			if tc.auth != "" {
				req.Header.Set("Authorization", tc.auth)
			}
			rr := httptest.NewRecorder()

			r.ServeHTTP(rr, req)
			assert.Equal(t, tc.want, rr.Code, rr.Body.String())
			assert.NotEmpty(t, rr.Header().Get(authmw.HeaderXRequestID))
		})
	}
}

func TestRouter_RateLimit(t *testing.T) {
	auth := authmw.NewAuth(secret, issuer, nil)
	svc := event.New(&stubRepo{}, stubClock{}, nil, 0, 0)
	r := New(handlers.NewEventsHandler(svc), auth, handlers.NewHealthHandler(nil), &config.Config{
		RLEnabled: true,
		RLLimit:   2,
		RLWindow:  time.Minute,
	})

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		rr := httptest.NewRecorder()
		r.ServeHTTP(rr, httptest.NewRequest("GET", "/discovery/v1/events", nil))
		codes = append(codes, rr.Code)
	}
	assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)

	// health checks are outside the limiter
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest("GET", "/healthz", nil))
	assert.Equal(t, http.StatusOK, rr.Code)
}
