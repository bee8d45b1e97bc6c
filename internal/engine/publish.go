package engine

import (
	"github.com/MRamiBalles/ColdFront/server/internal/domain/family"
	"github.com/MRamiBalles/ColdFront/server/internal/events"
)

// HourChangedPayload is attached to HOUR_CHANGED.
type HourChangedPayload struct {
	Hour int `json:"hour"`
}

// TimeSkippedPayload carries the real-time equivalent of a skip.
type TimeSkippedPayload struct {
	Seconds float64 `json:"seconds"`
}

type ModeChangedPayload struct {
	Previous Mode `json:"previous"`
	Next     Mode `json:"next"`
}

type MinigameChangedPayload struct {
	Previous Minigame `json:"previous"`
	Next     Minigame `json:"next"`
}

type InteractableChangedPayload struct {
	Label string `json:"label"`
}

type DialoguePayload struct {
	Member family.MemberID `json:"member"`
	Text   string          `json:"text"`
}

// ResourceChangedPayload is emitted on every discrete ledger mutation.
type ResourceChangedPayload struct {
	Reason   string           `json:"reason"`
	Snapshot ResourceSnapshot `json:"snapshot"`
}

type ErrandPayload struct {
	Member family.MemberID `json:"member"`
	Food   int             `json:"food,omitempty"`
}

type MemberUnconsciousPayload struct {
	Member family.MemberID `json:"member"`
	Count  int             `json:"count"`
}

type PlayerSleptPayload struct {
	Seconds    float64 `json:"seconds"`
	TimesSlept int     `json:"times_slept"`
}

type SessionEndedPayload struct {
	Summary Summary `json:"summary"`
}

// publisher stamps events with the current game time before appending them.
// A zero publisher drops everything.
type publisher struct {
	log   *events.EventLog
	clock *Clock
}

func (p publisher) publish(t events.EventType, actor, target string, payload any) {
	if p.log == nil {
		return
	}
	e := events.GameEvent{
		Type:     t,
		ActorID:  actor,
		TargetID: target,
		Payload:  payload,
	}
	if p.clock != nil {
		e.GameDay = p.clock.Days()
		e.GameHour = p.clock.Hour()
	}
	p.log.Append(e)
}
