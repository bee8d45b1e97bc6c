package network

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/MRamiBalles/ColdFront/server/internal/engine"
	"github.com/MRamiBalles/ColdFront/server/internal/platform/logger"
)

// GameAPI exposes the session over plain HTTP for clients without a websocket.
type GameAPI struct {
	engine Dispatcher
	logger *logger.Logger
}

func NewGameAPI(d Dispatcher, log *logger.Logger) *GameAPI {
	return &GameAPI{engine: d, logger: log}
}

// HandleState returns the current snapshot.
// GET /api/state
func (a *GameAPI) HandleState(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		jsonError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), actionTimeout)
	defer cancel()

	var snap engine.Snapshot
	err := a.engine.Do(ctx, func(e *engine.Engine) error {
		snap = e.Snapshot()
		return nil
	})
	if err != nil {
		jsonError(w, "Simulation unavailable", http.StatusServiceUnavailable)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

// HandleAction applies one PlayerAction.
// POST /api/actions
func (a *GameAPI) HandleAction(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		jsonError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var action PlayerAction
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxMessageSize)).Decode(&action); err != nil {
		jsonError(w, "Invalid payload", http.StatusBadRequest)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), actionTimeout)
	defer cancel()

	start := time.Now()
	result := Dispatch(ctx, a.engine, action)
	a.logger.Debug("http action", "type", action.Type, "ok", result.OK, "took", time.Since(start))

	status := http.StatusOK
	if !result.OK {
		status = http.StatusUnprocessableEntity
	}
	writeJSON(w, status, result)
}

// RegisterRoutes sets up the game API routes.
func (a *GameAPI) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/api/state", a.HandleState)
	mux.HandleFunc("/api/actions", a.HandleAction)
}
