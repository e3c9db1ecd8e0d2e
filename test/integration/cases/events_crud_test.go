//go:build integration
// +build integration

package cases

import (
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/baechuer/real-time-ressys/services/discovery-service/test/integration/infra"
)

type EventResp struct {
	ID          string `json:"id"`
	Status      string `json:"status"`
	StatusGroup string `json:"status_group"`
}

func TestEvents_ModerationFlow(t *testing.T) {
	e := setup(t)

	id, status := createEvent(t, e, e.HostToken, eventBody("Host Submission", 48*time.Hour))
	if status != "PENDING" {
		t.Fatalf("want PENDING got %s", status)
	}

	// the moderation queue is hidden from the public
	code, _ := doJSON(t, "GET", e.BaseURL+"/discovery/v1/events/"+id, "", nil)
	if code != http.StatusNotFound {
		t.Fatalf("anonymous get pending want 404 got %d", code)
	}

	// but visible to its host
	code, env := doJSON(t, "GET", e.BaseURL+"/discovery/v1/events/"+id, e.HostToken, nil)
	if code != http.StatusOK {
		t.Fatalf("host get pending want 200 got %d err=%v", code, env.Error)
	}

	code, env = doJSON(t, "POST", e.BaseURL+"/discovery/v1/admin/events/"+id+"/approve", e.AdminToken, nil)
	if code != http.StatusOK {
		t.Fatalf("approve want 200 got %d err=%v", code, env.Error)
	}
	var approved EventResp
	_ = json.Unmarshal(env.Data, &approved)
	if approved.Status != "EVENT_WAITING" || approved.StatusGroup != "ACTIVE" {
		t.Fatalf("want EVENT_WAITING/ACTIVE got %s/%s", approved.Status, approved.StatusGroup)
	}

	code, env = doJSON(t, "POST", e.BaseURL+"/discovery/v1/admin/events/"+id+"/approve", e.AdminToken, nil)
	if code != http.StatusConflict {
		t.Fatalf("approve twice want 409 got %d err=%v", code, env.Error)
	}

	db, err := infra.OpenDB(e.DBURL)
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	defer db.Close()
	n, err := infra.CountOutbox(db, "event.status_changed", id)
	if err != nil {
		t.Fatalf("count outbox: %v", err)
	}
	if n != 1 {
		t.Fatalf("want 1 status_changed outbox row got %d", n)
	}
}

func TestEvents_CreateValidation(t *testing.T) {
	e := setup(t)

	body := eventBody("Bad Window", 2*time.Hour)
	body["end_at"] = time.Now().UTC().Format(time.RFC3339)

	code, env := doJSON(t, "POST", e.BaseURL+"/discovery/v1/events", e.HostToken, body)
	if code != http.StatusBadRequest {
		t.Fatalf("want 400 got %d err=%v", code, env.Error)
	}
}
