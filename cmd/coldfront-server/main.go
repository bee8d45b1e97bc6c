// Package main is the entry point for the ColdFront game server.
// It only handles dependency injection and server initialization.
// NO business logic belongs here.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/MRamiBalles/ColdFront/server/internal/engine"
	"github.com/MRamiBalles/ColdFront/server/internal/events"
	"github.com/MRamiBalles/ColdFront/server/internal/infra/storage"
	"github.com/MRamiBalles/ColdFront/server/internal/network"
	"github.com/MRamiBalles/ColdFront/server/internal/platform/config"
	"github.com/MRamiBalles/ColdFront/server/internal/platform/logger"
	"github.com/MRamiBalles/ColdFront/server/internal/platform/metrics"
	"github.com/google/uuid"
)

func main() {
	if err := run(); err != nil {
		logger.NewLogger().Error("server failed", "error", err)
		os.Exit(1)
	}
}

func run() error {
	srvCfg, err := config.LoadServer()
	if err != nil {
		return err
	}
	appLogger := logger.New(os.Stdout, logger.Format(srvCfg.LogFormat), srvCfg.LogLevel)

	sim, err := config.Load(srvCfg.ConfigFile)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	appLogger.Info("initializing sqlite database", "path", srvCfg.DBPath)
	db, err := storage.InitSQLite(srvCfg.DBPath)
	if err != nil {
		return err
	}
	defer db.Close()

	eventRepo := storage.NewSQLiteEventRepository(db)
	sessionRepo := storage.NewSQLiteSessionRepository(db)

	sessionID := uuid.NewString()
	if err := sessionRepo.Create(ctx, storage.SessionRecord{SessionID: sessionID, Seed: sim.Seed}); err != nil {
		return err
	}

	collector := metrics.Get()
	eventLog := events.NewEventLog(
		events.WithPersister(storage.NewEventPersister(eventRepo, sessionID)),
		events.WithPersistObserver(func(latency time.Duration, err error) {
			collector.RecordEventWrite(latency, err)
			if err != nil {
				appLogger.Error("failed to persist event", "error", err)
			}
		}),
	)

	startMode := engine.ModeMenu
	if srvCfg.AutoStart {
		startMode = engine.ModePlaying
	}
	gameEngine, err := engine.New(sim,
		engine.WithSessionID(sessionID),
		engine.WithEventLog(eventLog),
		engine.WithLogger(appLogger.With("session", sessionID)),
		engine.WithMetrics(collector),
		engine.WithStartMode(startMode),
	)
	if err != nil {
		return err
	}
	defer gameEngine.Close()

	// Runs on the simulation goroutine; the write is small enough to do inline.
	ended := eventLog.Subscribe(func(ev events.GameEvent) {
		p, ok := ev.Payload.(engine.SessionEndedPayload)
		if !ok {
			return
		}
		if err := sessionRepo.Finish(context.Background(), sessionID, p.Summary.Won, p.Summary.DaysSurvived, p.Summary); err != nil {
			appLogger.Error("failed to record session outcome", "error", err)
		}
	}, events.EventTypeSessionEnded)
	defer ended.Unsubscribe()

	hub := network.NewHub(gameEngine, srvCfg.ActionInterval, collector, appLogger)
	go hub.Run(ctx)
	broadcast := hub.Subscribe(eventLog)
	defer broadcast.Unsubscribe()

	mux := http.NewServeMux()
	mux.HandleFunc("/ws", hub.ServeWS)
	network.NewGameAPI(gameEngine, appLogger).RegisterRoutes(mux)
	network.NewReplayHandler(eventLog, appLogger).RegisterRoutes(mux)
	registerSessionRoutes(mux, sessionRepo, storage.NewReconstructor(eventRepo))
	mux.HandleFunc("/metrics", collector.Handler())
	mux.HandleFunc("/metrics/prometheus", collector.PrometheusHandler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	server := &http.Server{
		Addr:              srvCfg.Addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	loopDone := make(chan error, 1)
	go func() { loopDone <- gameEngine.Run(ctx, srvCfg.TickInterval) }()

	serveErr := make(chan error, 1)
	go func() {
		appLogger.Info("http api and websocket server listening", "addr", srvCfg.Addr, "session", sessionID)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case <-ctx.Done():
	case err := <-serveErr:
		if err != nil {
			stop()
			<-loopDone
			return err
		}
	}

	appLogger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		appLogger.Warn("http shutdown incomplete", "error", err)
	}
	<-loopDone
	return nil
}

func registerSessionRoutes(mux *http.ServeMux, repo storage.SessionRepository, recon *storage.Reconstructor) {
	// GET /api/sessions?limit=N
	mux.HandleFunc("/api/sessions", func(w http.ResponseWriter, r *http.Request) {
		limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
		list, err := repo.List(r.Context(), limit)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		writeJSON(w, map[string]interface{}{"sessions": list})
	})

	// GET /api/sessions/recap?id=XXX&since_day=N
	mux.HandleFunc("/api/sessions/recap", func(w http.ResponseWriter, r *http.Request) {
		id := r.URL.Query().Get("id")
		if id == "" {
			http.Error(w, "missing id", http.StatusBadRequest)
			return
		}
		since, _ := strconv.Atoi(r.URL.Query().Get("since_day"))

		state, err := recon.Rebuild(r.Context(), id)
		if errors.Is(err, storage.ErrSessionNotFound) {
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		}
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		recap, err := recon.GenerateRecap(r.Context(), id, since)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		writeJSON(w, map[string]interface{}{"state": state, "recap": recap})
	})
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}
