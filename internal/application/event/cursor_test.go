package event

import (
	"encoding/base64"
	"errors"
	"testing"
	"time"

	"github.com/baechuer/real-time-ressys/services/discovery-service/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCursor_RoundTrip(t *testing.T) {
	at := time.Date(2026, 5, 1, 9, 30, 15, 123000000, time.UTC)
	cases := []Cursor{
		IDCursor{ID: "a"},
		CreatedAtCursor{CreatedAt: at, ID: "b"},
		StartDateCursor{StartAt: at, ID: "c"},
		RecruitmentDeadlineCursor{RecruitmentEndAt: at, ID: "d"},
		ViewCountCursor{ViewCount: 42, ID: "e"},
		ViewCountCursor{ViewCount: 0, ID: "f"},
	}
	for _, c := range cases {
		t.Run(string(c.SortField()), func(t *testing.T) {
			raw, err := EncodeCursor(c)
			require.NoError(t, err)
			assert.NotContains(t, raw, "=")

			got, err := DecodeCursor(raw, c.SortField())
			require.NoError(t, err)
			assert.Equal(t, c, got)
		})
	}
}

func TestDecodeCursor_SortMismatch(t *testing.T) {
	raw, err := EncodeCursor(IDCursor{ID: "a"})
	require.NoError(t, err)

	_, err = DecodeCursor(raw, domain.SortStartDate)
	require.Error(t, err)
	assert.True(t, domain.IsCode(err, domain.CodeInvalidCursor))

	var ae *domain.AppError
	require.True(t, errors.As(err, &ae))
	assert.Equal(t, raw, ae.Meta["cursor"])
}

func TestDecodeCursor_Malformed(t *testing.T) {
	enc := func(s string) string { return base64.RawURLEncoding.EncodeToString([]byte(s)) }

	cases := map[string]string{
		"empty":          "",
		"not base64":     "%%%***",
		"not json":       enc("hello"),
		"unknown field":  enc(`{"type":"ID","id":"a","extra":1}`),
		"missing id":     enc(`{"type":"ID"}`),
		"missing key":    enc(`{"type":"START_DATE","id":"a"}`),
		"wrong key type": enc(`{"type":"VIEW_COUNT","id":"a","viewCount":"x"}`),
	}
	for name, raw := range cases {
		t.Run(name, func(t *testing.T) {
			field := domain.SortID
			switch name {
			case "missing key":
				field = domain.SortStartDate
			case "wrong key type":
				field = domain.SortViewCount
			}
			_, err := DecodeCursor(raw, field)
			assert.True(t, domain.IsCode(err, domain.CodeInvalidCursor), "got %v", err)
		})
	}
}

func TestCursorFor(t *testing.T) {
	e := mkEvent("e1", domain.StatusRecruiting, t0)
	e.ViewCount = 7

	c, err := CursorFor(domain.SortViewCount, e)
	require.NoError(t, err)
	assert.Equal(t, ViewCountCursor{ViewCount: 7, ID: "e1"}, c)

	c, err = CursorFor(domain.SortStartDate, e)
	require.NoError(t, err)
	assert.Equal(t, StartDateCursor{StartAt: t0, ID: "e1"}, c)

	_, err = CursorFor(domain.SortRecruitmentDeadline, e)
	assert.True(t, domain.IsCode(err, domain.CodeInvalidSortField))

	_, err = CursorFor(domain.SortField("TITLE"), e)
	assert.True(t, domain.IsCode(err, domain.CodeInvalidSortField))
}
