//go:build integration
// +build integration

package cases

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/url"
	"os"
	"testing"
	"time"

	"github.com/baechuer/real-time-ressys/services/discovery-service/test/integration/infra"
	"github.com/baechuer/real-time-ressys/services/discovery-service/test/integration/infra/wait"
)

type Env struct {
	BaseURL   string
	DBURL     string
	JWTSecret string
	JWTIssuer string

	UserToken  string
	HostToken  string
	AdminToken string
}

const (
	userID  = "11111111-1111-1111-1111-111111111111"
	hostID  = "22222222-2222-2222-2222-222222222222"
	adminID = "aaaaaaaa-aaaa-aaaa-aaaa-aaaaaaaaaaaa"
)

func mustEnv(t *testing.T, k string) string {
	t.Helper()
	v := os.Getenv(k)
	if v == "" {
		t.Fatalf("missing env %s", k)
	}
	return v
}

func setup(t *testing.T) Env {
	t.Helper()

	e := Env{
		BaseURL:   mustEnv(t, "DISCOVERY_BASE_URL"),
		DBURL:     mustEnv(t, "DATABASE_URL"),
		JWTSecret: mustEnv(t, "JWT_SECRET"),
		JWTIssuer: mustEnv(t, "JWT_ISSUER"),
	}

	if err := wait.HTTP200(e.BaseURL+"/healthz", 10*time.Second); err != nil {
		t.Fatalf("discovery-service not ready: %v", err)
	}

	// Reset DB
	db, err := infra.OpenDB(e.DBURL)
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	defer db.Close()

	if err := wait.Postgres(db, 10*time.Second); err != nil {
		t.Fatalf("postgres not ready: %v", err)
	}
	if err := infra.ResetEvents(db); err != nil {
		t.Fatalf("reset events: %v", err)
	}

	e.UserToken = mustToken(t, e, userID, "user")
	e.HostToken = mustToken(t, e, hostID, "host")
	e.AdminToken = mustToken(t, e, adminID, "admin")

	return e
}

func mustToken(t *testing.T, e Env, uid, role string) string {
	t.Helper()
	tok, err := infra.TokenIssuer{Secret: e.JWTSecret, Issuer: e.JWTIssuer}.Issue(uid, role)
	if err != nil {
		t.Fatalf("make %s token: %v", role, err)
	}
	return tok
}

type Envelope struct {
	Data  json.RawMessage `json:"data"`
	Error *struct {
		Code    string            `json:"code"`
		Message string            `json:"message"`
		Meta    map[string]string `json:"meta"`
	} `json:"error,omitempty"`
}

func doJSON(t *testing.T, method, url, token string, body any) (int, Envelope) {
	t.Helper()

	var b []byte
	if body != nil {
		var err error
		b, err = json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
	}

	req, err := http.NewRequest(method, url, bytes.NewReader(b))
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json; charset=utf-8")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("do request: %v", err)
	}
	defer resp.Body.Close()

	var env Envelope
	_ = json.NewDecoder(resp.Body).Decode(&env)
	return resp.StatusCode, env
}

// createEvent posts an event and returns its id and status.
func createEvent(t *testing.T, e Env, token string, body map[string]any) (string, string) {
	t.Helper()
	code, env := doJSON(t, "POST", e.BaseURL+"/discovery/v1/events", token, body)
	if code != http.StatusCreated {
		t.Fatalf("create want 201 got %d err=%+v", code, env.Error)
	}
	var created struct {
		ID     string `json:"id"`
		Status string `json:"status"`
	}
	if err := json.Unmarshal(env.Data, &created); err != nil || created.ID == "" {
		t.Fatalf("decode created event: %v", err)
	}
	return created.ID, created.Status
}

func eventBody(title string, startIn time.Duration) map[string]any {
	start := time.Now().UTC().Add(startIn)
	return map[string]any{
		"title":    title,
		"uri":      "https://example.com/" + url.PathEscape(title),
		"type":     "CONFERENCE",
		"start_at": start.Format(time.RFC3339),
		"end_at":   start.Add(2 * time.Hour).Format(time.RFC3339),
	}
}
