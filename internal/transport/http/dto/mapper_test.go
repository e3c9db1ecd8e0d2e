package dto

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/baechuer/real-time-ressys/services/discovery-service/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToEventResp(t *testing.T) {
	kst := time.FixedZone("KST", 9*3600)
	start := time.Date(2026, 5, 1, 10, 0, 0, 0, kst)
	recEnd := time.Date(2026, 4, 25, 18, 0, 0, 0, kst)
	now := time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)

	t.Run("successfully_maps_all_fields", func(t *testing.T) {
		e := &domain.Event{
			ID:               "evt_1",
			HostID:           "host_1",
			Title:            "Go Conf",
			URI:              "https://example.com/go",
			Type:             domain.TypeConference,
			StartAt:          start,
			RecruitmentEndAt: &recEnd,
			Status:           domain.StatusRecruiting,
			StatusGroup:      domain.GroupActive,
			ViewCount:        42,
			CreatedAt:        now,
			UpdatedAt:        now,
		}

		resp := ToEventResp(e)

		assert.Equal(t, e.ID, resp.ID)
		assert.Equal(t, "host_1", resp.HostID)
		assert.Equal(t, "CONFERENCE", resp.Type)
		assert.Equal(t, "RECRUITING", resp.Status)
		assert.Equal(t, "ACTIVE", resp.StatusGroup)
		assert.Equal(t, int64(42), resp.ViewCount)
		assert.Equal(t, time.UTC, resp.StartAt.Location())
		assert.True(t, resp.StartAt.Equal(start))
		require.NotNil(t, resp.RecruitmentEndAt)
		assert.True(t, resp.RecruitmentEndAt.Equal(recEnd))
		assert.Nil(t, resp.EndAt)
	})

	t.Run("omits_absent_optional_timestamps", func(t *testing.T) {
		b, err := json.Marshal(ToEventResp(&domain.Event{ID: "evt_2", StartAt: start}))
		require.NoError(t, err)

		var m map[string]any
		require.NoError(t, json.Unmarshal(b, &m))
		assert.NotContains(t, m, "end_at")
		assert.NotContains(t, m, "recruitment_start_at")
		assert.Contains(t, m, "start_at")
	})

	t.Run("list_is_never_null", func(t *testing.T) {
		assert.NotNil(t, ToEventResps(nil))
		assert.Len(t, ToEventResps([]*domain.Event{{ID: "a"}, {ID: "b"}}), 2)
	})
}
