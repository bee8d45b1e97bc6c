package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/MRamiBalles/ColdFront/server/internal/events"
)

// SQLiteEventRepository implements EventRepository for SQLite.
type SQLiteEventRepository struct {
	db *sql.DB
}

func NewSQLiteEventRepository(db *sql.DB) *SQLiteEventRepository {
	return &SQLiteEventRepository{db: db}
}

func (r *SQLiteEventRepository) Append(ctx context.Context, event GameEvent) error {
	payload := string(event.Payload)
	if payload == "" {
		payload = "null"
	}

	query := `
		INSERT INTO events (id, session_id, timestamp, event_type, actor_id, target_id, payload, game_day, game_hour)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err := r.db.ExecContext(ctx, query,
		event.ID, event.SessionID, event.Timestamp.UTC(), event.EventType, event.ActorID,
		event.TargetID, payload, event.GameDay, event.GameHour,
	)
	if err != nil {
		return fmt.Errorf("failed to append event: %w", err)
	}
	return nil
}

const selectEvents = `SELECT id, session_id, timestamp, event_type, actor_id, target_id, payload, game_day, game_hour FROM events`

func (r *SQLiteEventRepository) getMany(ctx context.Context, where string, args ...interface{}) ([]GameEvent, error) {
	rows, err := r.db.QueryContext(ctx, selectEvents+" WHERE "+where+" ORDER BY seq ASC", args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query events: %w", err)
	}
	defer rows.Close()

	var out []GameEvent
	for rows.Next() {
		var e GameEvent
		var payload string
		err := rows.Scan(
			&e.ID, &e.SessionID, &e.Timestamp, &e.EventType, &e.ActorID,
			&e.TargetID, &payload, &e.GameDay, &e.GameHour,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan event: %w", err)
		}
		e.Payload = json.RawMessage(payload)
		out = append(out, e)
	}
	return out, rows.Err()
}

func (r *SQLiteEventRepository) GetBySessionID(ctx context.Context, sessionID string) ([]GameEvent, error) {
	return r.getMany(ctx, "session_id = ?", sessionID)
}

func (r *SQLiteEventRepository) GetByActorID(ctx context.Context, sessionID, actorID string) ([]GameEvent, error) {
	return r.getMany(ctx, "session_id = ? AND actor_id = ?", sessionID, actorID)
}

func (r *SQLiteEventRepository) GetByGameDay(ctx context.Context, sessionID string, day int) ([]GameEvent, error) {
	return r.getMany(ctx, "session_id = ? AND game_day = ?", sessionID, day)
}

func (r *SQLiteEventRepository) GetByEventType(ctx context.Context, sessionID string, eventType string) ([]GameEvent, error) {
	return r.getMany(ctx, "session_id = ? AND event_type = ?", sessionID, eventType)
}

// ---------------------------------------------------------
// SQLiteSessionRepository
// ---------------------------------------------------------

type SQLiteSessionRepository struct {
	db *sql.DB
}

func NewSQLiteSessionRepository(db *sql.DB) *SQLiteSessionRepository {
	return &SQLiteSessionRepository{db: db}
}

func (r *SQLiteSessionRepository) Create(ctx context.Context, record SessionRecord) error {
	if record.StartedAt.IsZero() {
		record.StartedAt = time.Now()
	}
	query := `INSERT INTO sessions (session_id, seed, started_at) VALUES (?, ?, ?)`
	if _, err := r.db.ExecContext(ctx, query, record.SessionID, record.Seed, record.StartedAt.UTC()); err != nil {
		return fmt.Errorf("failed to create session: %w", err)
	}
	return nil
}

func (r *SQLiteSessionRepository) Finish(ctx context.Context, sessionID string, won bool, daysSurvived int, summary any) error {
	encoded, err := json.Marshal(summary)
	if err != nil {
		return fmt.Errorf("failed to marshal summary: %w", err)
	}

	query := `UPDATE sessions SET ended_at = ?, won = ?, days_survived = ?, summary = ? WHERE session_id = ?`
	res, err := r.db.ExecContext(ctx, query, time.Now().UTC(), won, daysSurvived, string(encoded), sessionID)
	if err != nil {
		return fmt.Errorf("failed to finish session: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrSessionNotFound
	}
	return nil
}

const selectSessions = `SELECT session_id, seed, started_at, ended_at, won, days_survived, summary FROM sessions`

func (r *SQLiteSessionRepository) Get(ctx context.Context, sessionID string) (*SessionRecord, error) {
	row := r.db.QueryRowContext(ctx, selectSessions+` WHERE session_id = ?`, sessionID)
	rec, err := scanSession(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get session: %w", err)
	}
	return &rec, nil
}

func (r *SQLiteSessionRepository) List(ctx context.Context, limit int) ([]SessionRecord, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := r.db.QueryContext(ctx, selectSessions+` ORDER BY started_at DESC, rowid DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}
	defer rows.Close()

	var out []SessionRecord
	for rows.Next() {
		rec, err := scanSession(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan session: %w", err)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanSession(s scanner) (SessionRecord, error) {
	var (
		rec     SessionRecord
		ended   sql.NullTime
		summary sql.NullString
	)
	if err := s.Scan(&rec.SessionID, &rec.Seed, &rec.StartedAt, &ended, &rec.Won, &rec.DaysSurvived, &summary); err != nil {
		return SessionRecord{}, err
	}
	if ended.Valid {
		t := ended.Time
		rec.EndedAt = &t
	}
	if summary.Valid {
		rec.Summary = json.RawMessage(summary.String)
	}
	return rec, nil
}

// ---------------------------------------------------------
// EventPersister
// ---------------------------------------------------------

// EventPersister writes the events of one session through an EventRepository.
// It satisfies events.EventPersister.
type EventPersister struct {
	repo      EventRepository
	sessionID string
	timeout   time.Duration
}

func NewEventPersister(repo EventRepository, sessionID string) *EventPersister {
	return &EventPersister{repo: repo, sessionID: sessionID, timeout: 5 * time.Second}
}

func (p *EventPersister) Append(e events.GameEvent) error {
	payload, err := json.Marshal(e.Payload)
	if err != nil {
		return fmt.Errorf("failed to marshal payload: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), p.timeout)
	defer cancel()

	return p.repo.Append(ctx, GameEvent{
		ID:        e.ID,
		SessionID: p.sessionID,
		Timestamp: e.Timestamp,
		EventType: string(e.Type),
		ActorID:   e.ActorID,
		TargetID:  e.TargetID,
		Payload:   payload,
		GameDay:   e.GameDay,
		GameHour:  e.GameHour,
	})
}
