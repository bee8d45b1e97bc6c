// Package network - replay.go
// Replay endpoint: JSON export of the current session's event history.
package network

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/MRamiBalles/ColdFront/server/internal/events"
	"github.com/MRamiBalles/ColdFront/server/internal/platform/logger"
)

// EventSource is the history being replayed. *events.EventLog satisfies it.
type EventSource interface {
	Replay() []events.GameEvent
}

// ReplayHandler provides the replay API.
type ReplayHandler struct {
	source EventSource
	logger *logger.Logger
}

// NewReplayHandler creates a new replay handler.
func NewReplayHandler(src EventSource, log *logger.Logger) *ReplayHandler {
	return &ReplayHandler{source: src, logger: log}
}

// ReplayResponse is the API response for a replay.
type ReplayResponse struct {
	TotalEvents int                `json:"total_events"`
	Filters     map[string]string  `json:"filters,omitempty"`
	GeneratedAt string             `json:"generated_at"`
	Events      []events.GameEvent `json:"events"`
}

// HandleReplay returns the filtered history, oldest first.
// GET /api/events?day=N&type=ERRAND_STARTED&actor=husband&limit=100
func (rh *ReplayHandler) HandleReplay(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		jsonError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	q := r.URL.Query()
	filters := map[string]string{}

	day := -1
	if s := q.Get("day"); s != "" {
		d, err := strconv.Atoi(s)
		if err != nil || d < 0 {
			jsonError(w, "Invalid day", http.StatusBadRequest)
			return
		}
		day = d
		filters["day"] = s
	}
	limit := 0
	if s := q.Get("limit"); s != "" {
		l, err := strconv.Atoi(s)
		if err != nil || l <= 0 {
			jsonError(w, "Invalid limit", http.StatusBadRequest)
			return
		}
		limit = l
		filters["limit"] = s
	}
	eventType := q.Get("type")
	if eventType != "" {
		filters["type"] = eventType
	}
	actor := q.Get("actor")
	if actor != "" {
		filters["actor"] = actor
	}

	out := []events.GameEvent{}
	for _, e := range rh.source.Replay() {
		if day >= 0 && e.GameDay != day {
			continue
		}
		if eventType != "" && string(e.Type) != eventType {
			continue
		}
		if actor != "" && e.ActorID != actor {
			continue
		}
		out = append(out, e)
	}
	// The most recent events are the interesting ones.
	if limit > 0 && len(out) > limit {
		out = out[len(out)-limit:]
	}

	rh.logger.Debug("replay served", "events", len(out), "filters", filters)
	writeJSON(w, http.StatusOK, ReplayResponse{
		TotalEvents: len(out),
		Filters:     filters,
		GeneratedAt: time.Now().Format(time.RFC3339),
		Events:      out,
	})
}

// HandleStats returns event counts by type.
// GET /api/events/stats
func (rh *ReplayHandler) HandleStats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		jsonError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	all := rh.source.Replay()
	byType := make(map[string]int)
	for _, e := range all {
		byType[string(e.Type)]++
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"generated_at": time.Now().Format(time.RFC3339),
		"total_events": len(all),
		"by_type":      byType,
	})
}

// RegisterRoutes sets up the replay API routes.
func (rh *ReplayHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/api/events", rh.HandleReplay)
	mux.HandleFunc("/api/events/stats", rh.HandleStats)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// jsonError sends an error response.
func jsonError(w http.ResponseWriter, message string, status int) {
	writeJSON(w, status, map[string]string{"error": message})
}
