// Package storage provides the persistence layer for the game server.
// This package implements the repository pattern so the simulation core never
// sees a database.
package storage

import (
	"context"
	"encoding/json"
	"errors"
	"time"
)

var ErrSessionNotFound = errors.New("session not found")

// GameEvent mirrors the domain event structure for persistence.
// The payload is kept as the JSON the simulation produced.
type GameEvent struct {
	ID        string          `json:"id" db:"id"`
	SessionID string          `json:"session_id" db:"session_id"`
	Timestamp time.Time       `json:"timestamp" db:"timestamp"`
	EventType string          `json:"event_type" db:"event_type"`
	ActorID   string          `json:"actor_id" db:"actor_id"`
	TargetID  string          `json:"target_id" db:"target_id"`
	Payload   json.RawMessage `json:"payload" db:"payload"`
	GameDay   int             `json:"game_day" db:"game_day"`
	GameHour  int             `json:"game_hour" db:"game_hour"`
}

// EventRepository defines the interface for event persistence.
// Every query returns events in the order they were appended.
type EventRepository interface {
	// Append adds a new event to the immutable history.
	Append(ctx context.Context, event GameEvent) error

	// GetBySessionID retrieves all events of a session (for replay).
	GetBySessionID(ctx context.Context, sessionID string) ([]GameEvent, error)

	// GetByActorID retrieves all events raised by an actor.
	GetByActorID(ctx context.Context, sessionID, actorID string) ([]GameEvent, error)

	// GetByGameDay retrieves all events from a specific in-game day.
	GetByGameDay(ctx context.Context, sessionID string, day int) ([]GameEvent, error)

	// GetByEventType retrieves all events of a specific type.
	GetByEventType(ctx context.Context, sessionID string, eventType string) ([]GameEvent, error)
}

// SessionRecord is one played session. Ended sessions carry their summary.
type SessionRecord struct {
	SessionID    string          `json:"session_id" db:"session_id"`
	Seed         int64           `json:"seed" db:"seed"`
	StartedAt    time.Time       `json:"started_at" db:"started_at"`
	EndedAt      *time.Time      `json:"ended_at,omitempty" db:"ended_at"`
	Won          bool            `json:"won" db:"won"`
	DaysSurvived int             `json:"days_survived" db:"days_survived"`
	Summary      json.RawMessage `json:"summary,omitempty" db:"summary"`
}

// Ended reports whether the session reached a win or a loss.
func (s SessionRecord) Ended() bool { return s.EndedAt != nil }

// SessionRepository keeps the list of sessions and their outcomes.
type SessionRepository interface {
	// Create registers a new session.
	Create(ctx context.Context, record SessionRecord) error

	// Finish stores the outcome of a session. summary is encoded as JSON.
	Finish(ctx context.Context, sessionID string, won bool, daysSurvived int, summary any) error

	// Get retrieves one session, or ErrSessionNotFound.
	Get(ctx context.Context, sessionID string) (*SessionRecord, error)

	// List returns the most recent sessions first, at most limit of them.
	List(ctx context.Context, limit int) ([]SessionRecord, error)
}
