package engine

import (
	"errors"

	"github.com/MRamiBalles/ColdFront/server/internal/domain/family"
	"github.com/MRamiBalles/ColdFront/server/internal/events"
	"github.com/MRamiBalles/ColdFront/server/internal/platform/config"
	"github.com/MRamiBalles/ColdFront/server/internal/platform/logger"
	"github.com/google/uuid"
)

// Mode is the top-level state of a session.
type Mode string

const (
	ModeMenu     Mode = "MENU"
	ModePaused   Mode = "PAUSED"
	ModePlaying  Mode = "PLAYING"
	ModePhone    Mode = "PHONE"
	ModeMinigame Mode = "MINIGAME"
	ModeWon      Mode = "WON"
	ModeLost     Mode = "LOST"
)

// Terminal modes have no way out.
func (m Mode) Terminal() bool { return m == ModeWon || m == ModeLost }

// Minigame is the chore the player is currently busy with.
type Minigame string

const (
	MinigameNone              Minigame = ""
	MinigameSnowGathering     Minigame = "SNOW_GATHERING"
	MinigameSnowMelting       Minigame = "SNOW_MELTING"
	MinigameFurnitureBreaking Minigame = "FURNITURE_BREAKING"
	MinigameFireRefueling     Minigame = "FIRE_REFUELING"
)

var (
	ErrInvalidTransition = errors.New("invalid mode transition")
	ErrSessionOver       = errors.New("session is over")
	ErrUnknownMinigame   = errors.New("unknown minigame")
)

var transitions = map[Mode][]Mode{
	ModeMenu:     {ModePlaying, ModePaused},
	ModePaused:   {ModePlaying},
	ModePlaying:  {ModePaused, ModePhone, ModeMinigame},
	ModePhone:    {ModePlaying},
	ModeMinigame: {ModePlaying},
}

// MemberOutcome tells whether a member made it through.
type MemberOutcome struct {
	ID       family.MemberID `json:"id" toml:"id"`
	Survived bool            `json:"survived" toml:"survived"`
}

// Summary is the end-of-session report.
type Summary struct {
	SessionID          string          `json:"session_id" toml:"session_id"`
	Won                bool            `json:"won" toml:"won"`
	DaysSurvived       int             `json:"days_survived" toml:"days_survived"`
	Totals             Totals          `json:"totals" toml:"totals"`
	AverageTemperature float64         `json:"average_temperature" toml:"average_temperature"`
	LowestTemperature  float64         `json:"lowest_temperature" toml:"lowest_temperature"`
	HighestTemperature float64         `json:"highest_temperature" toml:"highest_temperature"`
	Members            []MemberOutcome `json:"members" toml:"members"`
}

// Session is the mode state machine and the judge of win and loss.
type Session struct {
	id        string
	cfg       config.Session
	pub       publisher
	logger    *logger.Logger
	summarize func(won bool) Summary

	mode         Mode
	minigame     Minigame
	interactable string
	unconscious  map[family.MemberID]bool
	summary      *Summary
}

// NewSession starts in the given mode, usually ModeMenu.
func NewSession(cfg config.Session, start Mode, log *logger.Logger) *Session {
	return &Session{
		id:          uuid.NewString(),
		cfg:         cfg,
		logger:      log,
		mode:        start,
		unconscious: make(map[family.MemberID]bool),
	}
}

func (s *Session) ID() string { return s.id }
func (s *Session) Mode() Mode { return s.mode }
func (s *Session) Minigame() Minigame { return s.minigame }
func (s *Session) Interactable() string { return s.interactable }
func (s *Session) Over() bool { return s.mode.Terminal() }
func (s *Session) UnconsciousCount() int { return len(s.unconscious) }

// IsActive reports whether simulated time flows.
func (s *Session) IsActive() bool {
	return s.mode == ModePlaying || s.mode == ModeMinigame
}

// Summary returns the end-of-session report once the session is over.
func (s *Session) Summary() (Summary, bool) {
	if s.summary == nil {
		return Summary{}, false
	}
	return *s.summary, true
}

// SetMode moves to next. Won and Lost are only reached through the session's
// own win and loss checks, never requested.
func (s *Session) SetMode(next Mode) error {
	if s.mode.Terminal() {
		return ErrSessionOver
	}

	for _, allowed := range transitions[s.mode] {
		if allowed == next {
			s.change(next)
			return nil
		}
	}
	return ErrInvalidTransition
}

// Back is the escape key: pause the game, or return to it from any overlay.
func (s *Session) Back() error {
	switch s.mode {
	case ModePlaying:
		return s.SetMode(ModePaused)
	case ModePaused, ModePhone, ModeMinigame:
		return s.SetMode(ModePlaying)
	case ModeMenu:
		return ErrInvalidTransition
	default:
		return ErrSessionOver
	}
}

// TogglePhone opens or closes the phone.
func (s *Session) TogglePhone() error {
	switch s.mode {
	case ModePlaying:
		return s.SetMode(ModePhone)
	case ModePhone:
		return s.SetMode(ModePlaying)
	default:
		if s.mode.Terminal() {
			return ErrSessionOver
		}
		return ErrInvalidTransition
	}
}

// StartMinigame enters the minigame mode for the given chore.
func (s *Session) StartMinigame(m Minigame) error {
	switch m {
	case MinigameSnowGathering, MinigameSnowMelting, MinigameFurnitureBreaking, MinigameFireRefueling:
	default:
		return ErrUnknownMinigame
	}
	if s.mode != ModeMinigame {
		if err := s.SetMode(ModeMinigame); err != nil {
			return err
		}
	}
	s.setMinigame(m)
	return nil
}

// SetInteractable records what the player is standing next to.
func (s *Session) SetInteractable(label string) {
	if label == s.interactable {
		return
	}
	s.interactable = label
	s.pub.publish(events.EventTypeInteractableChanged, events.ActorSystem, "", InteractableChangedPayload{Label: label})
}

// RecordUnconscious counts distinct collapsed members and ends the session
// in a loss when the limit is reached.
func (s *Session) RecordUnconscious(id family.MemberID) {
	if s.unconscious[id] {
		return
	}
	s.unconscious[id] = true
	count := len(s.unconscious)
	s.pub.publish(events.EventTypeMemberUnconscious, string(id), "", MemberUnconsciousPayload{Member: id, Count: count})

	if count >= s.cfg.UnconsciousToLose && !s.mode.Terminal() {
		s.EndSession(false)
	}
}

// OnNewDay wins the session once the family has lasted long enough.
func (s *Session) OnNewDay(days int) {
	if days >= s.cfg.DaysToWin && !s.mode.Terminal() {
		s.EndSession(true)
	}
}

// EndSession freezes the session and publishes the summary. Only the first call counts.
func (s *Session) EndSession(won bool) {
	if s.mode.Terminal() {
		return
	}

	var summary Summary
	if s.summarize != nil {
		summary = s.summarize(won)
	}
	summary.SessionID = s.id
	summary.Won = won
	s.summary = &summary

	if won {
		s.change(ModeWon)
		s.logger.Info("session won", "days", summary.DaysSurvived)
	} else {
		s.change(ModeLost)
		s.logger.Warn("session lost", "days", summary.DaysSurvived)
	}
	s.pub.publish(events.EventTypeSessionEnded, events.ActorSystem, "", SessionEndedPayload{Summary: summary})
}

func (s *Session) change(next Mode) {
	prev := s.mode
	s.mode = next
	if prev == ModeMinigame && next != ModeMinigame {
		s.setMinigame(MinigameNone)
	}
	s.logger.Debug("mode changed", "from", prev, "to", next)
	s.pub.publish(events.EventTypeModeChanged, events.ActorSystem, "", ModeChangedPayload{Previous: prev, Next: next})
}

func (s *Session) setMinigame(m Minigame) {
	if m == s.minigame {
		return
	}
	prev := s.minigame
	s.minigame = m
	s.pub.publish(events.EventTypeMinigameChanged, events.ActorSystem, "", MinigameChangedPayload{Previous: prev, Next: m})
}
