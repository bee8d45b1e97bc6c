package network

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/MRamiBalles/ColdFront/server/internal/engine"
	"github.com/MRamiBalles/ColdFront/server/internal/events"
	"github.com/MRamiBalles/ColdFront/server/internal/platform/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleLog() *events.EventLog {
	el := events.NewEventLog()
	el.Append(events.GameEvent{Type: events.EventTypeHourChanged, GameDay: 0, GameHour: 7})
	el.Append(events.GameEvent{Type: events.EventTypeDayChanged, GameDay: 1})
	el.Append(events.GameEvent{Type: events.EventTypeErrandStarted, ActorID: "husband", GameDay: 1, GameHour: 5})
	el.Append(events.GameEvent{Type: events.EventTypeErrandReturned, ActorID: "husband", GameDay: 1, GameHour: 15})
	return el
}

func getReplay(t *testing.T, h *ReplayHandler, query string) (int, ReplayResponse) {
	t.Helper()
	rec := httptest.NewRecorder()
	h.HandleReplay(rec, httptest.NewRequest(http.MethodGet, "/api/events"+query, nil))

	var resp ReplayResponse
	if rec.Code == http.StatusOK {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	}
	return rec.Code, resp
}

func TestReplayFilters(t *testing.T) {
	h := NewReplayHandler(sampleLog(), logger.Discard())

	tests := []struct {
		name  string
		query string
		want  []events.EventType
	}{
		{"all", "", []events.EventType{events.EventTypeHourChanged, events.EventTypeDayChanged, events.EventTypeErrandStarted, events.EventTypeErrandReturned}},
		{"day", "?day=1", []events.EventType{events.EventTypeDayChanged, events.EventTypeErrandStarted, events.EventTypeErrandReturned}},
		{"type", "?type=ERRAND_STARTED", []events.EventType{events.EventTypeErrandStarted}},
		{"actor", "?actor=husband", []events.EventType{events.EventTypeErrandStarted, events.EventTypeErrandReturned}},
		{"limit keeps newest", "?limit=1", []events.EventType{events.EventTypeErrandReturned}},
		{"nothing", "?day=9", []events.EventType{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, resp := getReplay(t, h, tt.query)
			require.Equal(t, http.StatusOK, code)

			got := make([]events.EventType, 0, len(resp.Events))
			for _, e := range resp.Events {
				got = append(got, e.Type)
			}
			assert.Equal(t, tt.want, got)
			assert.Equal(t, len(tt.want), resp.TotalEvents)
		})
	}
}

func TestReplayRejectsBadInput(t *testing.T) {
	h := NewReplayHandler(sampleLog(), logger.Discard())

	code, _ := getReplay(t, h, "?day=monday")
	assert.Equal(t, http.StatusBadRequest, code)
	code, _ = getReplay(t, h, "?limit=0")
	assert.Equal(t, http.StatusBadRequest, code)

	rec := httptest.NewRecorder()
	h.HandleReplay(rec, httptest.NewRequest(http.MethodPost, "/api/events", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestReplayStats(t *testing.T) {
	mux := http.NewServeMux()
	NewReplayHandler(sampleLog(), logger.Discard()).RegisterRoutes(mux)

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/events/stats", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Total  int            `json:"total_events"`
		ByType map[string]int `json:"by_type"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, 4, body.Total)
	assert.Equal(t, 1, body.ByType["ERRAND_RETURNED"])
}

func TestGameAPI(t *testing.T) {
	e := newTestEngine(t, engine.ModePaused)
	runEngine(t, e)
	mux := http.NewServeMux()
	NewGameAPI(e, logger.Discard()).RegisterRoutes(mux)

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/state", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var snap engine.Snapshot
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &snap))
	assert.Equal(t, engine.ModePaused, snap.Mode)
	assert.Len(t, snap.Members, 3)

	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/actions", strings.NewReader(`{"type":"EAT","member":"son"}`)))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 9, e.Ledger().Food())

	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/actions", strings.NewReader(`{"type":"DANCE"}`)))
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	var res ActionResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	assert.False(t, res.OK)

	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/actions", strings.NewReader(`nope`)))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
