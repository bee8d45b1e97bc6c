package engine

import (
	"testing"

	"github.com/MRamiBalles/ColdFront/server/internal/domain/family"
	"github.com/MRamiBalles/ColdFront/server/internal/events"
	"github.com/MRamiBalles/ColdFront/server/internal/platform/config"
	"github.com/MRamiBalles/ColdFront/server/internal/platform/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSession(start Mode) (*Session, *events.EventLog) {
	el := events.NewEventLog()
	s := NewSession(config.Defaults().Session, start, logger.Discard())
	s.pub = publisher{log: el}
	return s, el
}

func TestSessionTransitions(t *testing.T) {
	s, el := newTestSession(ModeMenu)
	assert.False(t, s.IsActive())

	require.NoError(t, s.SetMode(ModePlaying))
	assert.True(t, s.IsActive())

	assert.ErrorIs(t, s.SetMode(ModeMenu), ErrInvalidTransition)
	assert.Equal(t, ModePlaying, s.Mode())

	require.NoError(t, s.TogglePhone())
	assert.Equal(t, ModePhone, s.Mode())
	assert.False(t, s.IsActive(), "time stops while the phone is open")
	require.NoError(t, s.TogglePhone())
	assert.Equal(t, ModePlaying, s.Mode())

	changes := el.GetByType(events.EventTypeModeChanged)
	require.Len(t, changes, 3)
	assert.Equal(t, ModeChangedPayload{Previous: ModeMenu, Next: ModePlaying}, changes[0].Payload)
}

func TestSessionBack(t *testing.T) {
	s, _ := newTestSession(ModeMenu)
	assert.ErrorIs(t, s.Back(), ErrInvalidTransition)

	require.NoError(t, s.SetMode(ModePlaying))
	require.NoError(t, s.Back())
	assert.Equal(t, ModePaused, s.Mode())
	require.NoError(t, s.Back())
	assert.Equal(t, ModePlaying, s.Mode())

	require.NoError(t, s.StartMinigame(MinigameSnowGathering))
	require.NoError(t, s.Back())
	assert.Equal(t, ModePlaying, s.Mode())
	assert.Equal(t, MinigameNone, s.Minigame(), "leaving the minigame clears it")
}

func TestStartMinigame(t *testing.T) {
	s, el := newTestSession(ModePlaying)

	assert.ErrorIs(t, s.StartMinigame("JUGGLING"), ErrUnknownMinigame)

	require.NoError(t, s.StartMinigame(MinigameFurnitureBreaking))
	assert.Equal(t, ModeMinigame, s.Mode())
	assert.True(t, s.IsActive(), "time flows during chores")

	// Switching chores stays in the minigame mode.
	require.NoError(t, s.StartMinigame(MinigameFireRefueling))
	assert.Equal(t, MinigameFireRefueling, s.Minigame())
	assert.Len(t, el.GetByType(events.EventTypeModeChanged), 1)
	assert.Len(t, el.GetByType(events.EventTypeMinigameChanged), 2)

	assert.ErrorIs(t, s.TogglePhone(), ErrInvalidTransition)
}

func TestSetInteractablePublishesChanges(t *testing.T) {
	s, el := newTestSession(ModePlaying)

	s.SetInteractable("Fireplace")
	s.SetInteractable("Fireplace")
	s.SetInteractable("")

	got := el.GetByType(events.EventTypeInteractableChanged)
	require.Len(t, got, 2)
	assert.Equal(t, InteractableChangedPayload{Label: "Fireplace"}, got[0].Payload)
	assert.Empty(t, s.Interactable())
}

func TestThreeDistinctCollapsesLoseOnce(t *testing.T) {
	s, el := newTestSession(ModePlaying)

	s.RecordUnconscious(family.Husband)
	s.RecordUnconscious(family.Husband)
	s.RecordUnconscious(family.Son)
	assert.Equal(t, 2, s.UnconsciousCount())
	assert.False(t, s.Over())

	s.RecordUnconscious(family.Daughter)
	assert.Equal(t, ModeLost, s.Mode())
	assert.False(t, s.IsActive())

	s.EndSession(true)
	assert.Equal(t, ModeLost, s.Mode(), "the first outcome sticks")

	ended := el.GetByType(events.EventTypeSessionEnded)
	require.Len(t, ended, 1)
	summary, ok := s.Summary()
	require.True(t, ok)
	assert.False(t, summary.Won)
	assert.Equal(t, s.ID(), summary.SessionID)
	assert.Len(t, el.GetByType(events.EventTypeMemberUnconscious), 3)
}

func TestWinOnDayLimit(t *testing.T) {
	s, _ := newTestSession(ModePlaying)

	s.OnNewDay(14)
	assert.False(t, s.Over())
	_, ok := s.Summary()
	assert.False(t, ok)

	s.OnNewDay(15)
	assert.Equal(t, ModeWon, s.Mode())
}

func TestOutcomeCannotBeRequested(t *testing.T) {
	for _, start := range []Mode{ModeMenu, ModePlaying, ModePaused} {
		s, el := newTestSession(start)

		assert.ErrorIs(t, s.SetMode(ModeWon), ErrInvalidTransition, start)
		assert.ErrorIs(t, s.SetMode(ModeLost), ErrInvalidTransition, start)
		assert.Equal(t, start, s.Mode())
		assert.False(t, s.Over())
		assert.Empty(t, el.GetByType(events.EventTypeSessionEnded))
	}
}

func TestTerminalModesRejectEverything(t *testing.T) {
	s, _ := newTestSession(ModePlaying)
	s.OnNewDay(15)
	require.Equal(t, ModeWon, s.Mode())

	assert.ErrorIs(t, s.SetMode(ModePlaying), ErrSessionOver)
	assert.ErrorIs(t, s.Back(), ErrSessionOver)
	assert.ErrorIs(t, s.TogglePhone(), ErrSessionOver)
	assert.ErrorIs(t, s.StartMinigame(MinigameSnowMelting), ErrSessionOver)
	assert.True(t, s.Over())
}
