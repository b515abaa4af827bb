package google

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/klokku/prayer-sync/pkg/calendar"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	gcal "google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"
)

func newTestCalendar(t *testing.T, handler http.HandlerFunc) *Calendar {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	service, err := NewService(context.Background(), srv.Client(), option.WithEndpoint(srv.URL+"/"))
	require.NoError(t, err)
	return NewCalendar(service, "primary", "Europe/London")
}

func TestCalendar_Create(t *testing.T) {
	loc, err := time.LoadLocation("Europe/London")
	require.NoError(t, err)
	event := calendar.Event{
		ID:        "abc123",
		Summary:   "'Ishā End",
		StartTime: time.Date(2025, time.March, 1, 23, 36, 30, 0, loc),
		EndTime:   time.Date(2025, time.March, 1, 23, 51, 30, 0, loc),
		ColorId:   "1",
	}

	t.Run("inserts the event", func(t *testing.T) {
		var gotPath string
		var got gcal.Event
		cal := newTestCalendar(t, func(w http.ResponseWriter, r *http.Request) {
			gotPath = r.URL.Path
			assert.Equal(t, http.MethodPost, r.Method)
			assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
			w.Header().Set("Content-Type", "application/json")
			_ = json.NewEncoder(w).Encode(gcal.Event{Id: "abc123"})
		})

		err := cal.Create(context.Background(), event)

		require.NoError(t, err)
		assert.Equal(t, "/calendars/primary/events", gotPath)
		assert.Equal(t, "abc123", got.Id)
		assert.Equal(t, "'Ishā End", got.Summary)
		assert.Equal(t, "1", got.ColorId)
		assert.Equal(t, "2025-03-01T23:36:30Z", got.Start.DateTime)
		assert.Equal(t, "2025-03-01T23:51:30Z", got.End.DateTime)
		assert.Equal(t, "Europe/London", got.Start.TimeZone)
		assert.Equal(t, "Europe/London", got.End.TimeZone)
	})

	t.Run("conflict is reported as an existing event", func(t *testing.T) {
		cal := newTestCalendar(t, func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusConflict)
			_, _ = w.Write([]byte(`{"error":{"code":409,"message":"The requested identifier already exists."}}`))
		})

		err := cal.Create(context.Background(), event)

		assert.ErrorIs(t, err, calendar.ErrAlreadyExists)
	})

	t.Run("other API errors are returned", func(t *testing.T) {
		cal := newTestCalendar(t, func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusForbidden)
			_, _ = w.Write([]byte(`{"error":{"code":403,"message":"Forbidden"}}`))
		})

		err := cal.Create(context.Background(), event)

		require.Error(t, err)
		assert.NotErrorIs(t, err, calendar.ErrAlreadyExists)
	})
}
