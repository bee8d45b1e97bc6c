// Package storage - reconstructor.go
// Rebuilds what happened in a session from its stored events: state = f(events).
package storage

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/MRamiBalles/ColdFront/server/internal/domain/family"
	"github.com/MRamiBalles/ColdFront/server/internal/engine"
	"github.com/MRamiBalles/ColdFront/server/internal/events"
)

// Reconstructor rebuilds session state from the event history.
// This is used for:
// 1. The history command, to show how a past session went
// 2. The recap of a session after a server restart
type Reconstructor struct {
	eventRepo EventRepository
}

// NewReconstructor creates a new state reconstructor.
func NewReconstructor(eventRepo EventRepository) *Reconstructor {
	return &Reconstructor{eventRepo: eventRepo}
}

// RebuiltState holds the reconstructed state for a session.
type RebuiltState struct {
	SessionID     string                  `json:"session_id"`
	Day           int                     `json:"day"`
	Hour          int                     `json:"hour"`
	Mode          engine.Mode             `json:"mode,omitempty"`
	Resources     engine.ResourceSnapshot `json:"resources"`
	Errands       int                     `json:"errands"`
	FoodRetrieved int                     `json:"food_retrieved"`
	TimesSlept    int                     `json:"times_slept"`
	Unconscious   []family.MemberID       `json:"unconscious"`
	Ended         bool                    `json:"ended"`
	Won           bool                    `json:"won"`
	Events        int                     `json:"events"`
}

// RecapEvent is a simplified event for the session recap.
type RecapEvent struct {
	When      string `json:"when"`
	EventType string `json:"event_type"`
	Summary   string `json:"summary"` // Human-readable description
	Impact    string `json:"impact"`  // "POSITIVE", "NEGATIVE", "NEUTRAL"
}

// Rebuild replays every stored event of the session.
func (r *Reconstructor) Rebuild(ctx context.Context, sessionID string) (*RebuiltState, error) {
	stored, err := r.eventRepo.GetBySessionID(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to get events for session: %w", err)
	}
	if len(stored) == 0 {
		return nil, ErrSessionNotFound
	}

	state := &RebuiltState{SessionID: sessionID, Unconscious: []family.MemberID{}}
	for _, e := range stored {
		if err := r.applyEventToState(state, e); err != nil {
			return nil, fmt.Errorf("event %s: %w", e.ID, err)
		}
	}
	return state, nil
}

// GenerateRecap lists the notable events of a session from a given day onwards.
func (r *Reconstructor) GenerateRecap(ctx context.Context, sessionID string, sinceDay int) ([]RecapEvent, error) {
	stored, err := r.eventRepo.GetBySessionID(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	var recap []RecapEvent
	for _, e := range stored {
		if e.GameDay < sinceDay {
			continue
		}
		summary, ok := r.summarizeEvent(e)
		if !ok {
			continue
		}
		recap = append(recap, RecapEvent{
			When:      fmt.Sprintf("Day %d %02d:00", e.GameDay, e.GameHour),
			EventType: e.EventType,
			Summary:   summary,
			Impact:    r.determineImpact(e),
		})
	}
	return recap, nil
}

// applyEventToState folds one event into the state.
func (r *Reconstructor) applyEventToState(state *RebuiltState, e GameEvent) error {
	state.Events++
	state.Day = e.GameDay
	state.Hour = e.GameHour

	switch events.EventType(e.EventType) {
	case events.EventTypeResourceChanged:
		var p engine.ResourceChangedPayload
		if err := json.Unmarshal(e.Payload, &p); err != nil {
			return err
		}
		state.Resources = p.Snapshot
	case events.EventTypeModeChanged:
		var p engine.ModeChangedPayload
		if err := json.Unmarshal(e.Payload, &p); err != nil {
			return err
		}
		state.Mode = p.Next
	case events.EventTypeErrandStarted:
		state.Errands++
	case events.EventTypeErrandReturned:
		var p engine.ErrandPayload
		if err := json.Unmarshal(e.Payload, &p); err != nil {
			return err
		}
		state.FoodRetrieved += p.Food
	case events.EventTypeMemberUnconscious:
		var p engine.MemberUnconsciousPayload
		if err := json.Unmarshal(e.Payload, &p); err != nil {
			return err
		}
		state.Unconscious = append(state.Unconscious, p.Member)
	case events.EventTypePlayerSlept:
		state.TimesSlept++
	case events.EventTypeSessionEnded:
		var p engine.SessionEndedPayload
		if err := json.Unmarshal(e.Payload, &p); err != nil {
			return err
		}
		state.Ended = true
		state.Won = p.Summary.Won
	}
	return nil
}

// summarizeEvent creates a human-readable summary. Routine events are skipped
// and payloads that no longer decode are marked instead of read as zero.
func (r *Reconstructor) summarizeEvent(e GameEvent) (string, bool) {
	switch events.EventType(e.EventType) {
	case events.EventTypeDayChanged:
		return fmt.Sprintf("Day %d began.", e.GameDay), true
	case events.EventTypeErrandStarted:
		return fmt.Sprintf("%s went out for food.", displayName(e.ActorID)), true
	case events.EventTypeErrandReturned:
		var p engine.ErrandPayload
		if err := json.Unmarshal(e.Payload, &p); err != nil {
			return fmt.Sprintf("%s came home (haul unreadable).", displayName(e.ActorID)), true
		}
		return fmt.Sprintf("%s came home with %d food.", displayName(e.ActorID), p.Food), true
	case events.EventTypeMemberUnconscious:
		return fmt.Sprintf("%s collapsed from sickness.", displayName(e.ActorID)), true
	case events.EventTypePlayerSlept:
		return "You slept until morning.", true
	case events.EventTypeSessionEnded:
		var p engine.SessionEndedPayload
		if err := json.Unmarshal(e.Payload, &p); err != nil {
			return "The session ended (outcome unreadable).", true
		}
		if p.Summary.Won {
			return "The freeze ended.", true
		}
		return "The cold won.", true
	default:
		return "", false
	}
}

// determineImpact classifies the event impact.
func (r *Reconstructor) determineImpact(e GameEvent) string {
	switch events.EventType(e.EventType) {
	case events.EventTypeMemberUnconscious:
		return "NEGATIVE"
	case events.EventTypeErrandReturned:
		return "POSITIVE"
	case events.EventTypeSessionEnded:
		var p engine.SessionEndedPayload
		if err := json.Unmarshal(e.Payload, &p); err != nil {
			return "NEUTRAL"
		}
		if p.Summary.Won {
			return "POSITIVE"
		}
		return "NEGATIVE"
	default:
		return "NEUTRAL"
	}
}

func displayName(actor string) string {
	id, err := family.ParseMemberID(actor)
	if err != nil {
		return actor
	}
	return id.DisplayName()
}
