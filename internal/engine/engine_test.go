package engine

import (
	"context"
	"testing"
	"time"

	"github.com/MRamiBalles/ColdFront/server/internal/events"
	"github.com/MRamiBalles/ColdFront/server/internal/platform/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRejectsInvalidConfig(t *testing.T) {
	cfg := config.Defaults()
	cfg.Session.DaysToWin = 0

	_, err := New(cfg)
	assert.Error(t, err)
}

func TestNewStartsInMenu(t *testing.T) {
	e, err := New(config.Defaults())
	require.NoError(t, err)
	defer e.Close()

	assert.Equal(t, ModeMenu, e.Session().Mode())
	e.Step(10 * time.Second)
	assert.Equal(t, 6, e.Clock().Hour(), "the menu does not advance time")

	_, err = e.Sleep()
	assert.ErrorIs(t, err, ErrNotActive)
}

func TestUnheatedHouseLosesOnDayTen(t *testing.T) {
	e := newTestEngine(t, func(cfg *config.Simulation) {
		cfg.Resources.StartTemperature = 25
		cfg.Resources.StartFuel = 0
	})

	for i := 0; i < 15*60 && !e.Session().Over(); i++ {
		e.Step(time.Second)
	}

	require.Equal(t, ModeLost, e.Session().Mode())
	assert.Equal(t, 10, e.Clock().Days())

	el := e.EventLog()
	assert.Len(t, el.GetByType(events.EventTypeMemberUnconscious), 3)
	ended := el.GetByType(events.EventTypeSessionEnded)
	require.Len(t, ended, 1)

	summary := ended[0].Payload.(SessionEndedPayload).Summary
	assert.False(t, summary.Won)
	assert.Equal(t, 10, summary.DaysSurvived)
	assert.Equal(t, 25.0, summary.LowestTemperature)
	for _, m := range summary.Members {
		assert.False(t, m.Survived)
	}

	// The day the session ended never reached its first hour.
	for _, ev := range el.GetByDay(10) {
		assert.NotEqual(t, events.EventTypeHourChanged, ev.Type)
	}

	// Time is frozen from here on.
	before := el.Len()
	e.Step(time.Minute)
	assert.Equal(t, before, el.Len())
	_, err := e.Sleep()
	assert.ErrorIs(t, err, ErrSessionOver)
	assert.Equal(t, int64(1), e.Metrics().SessionsLost)
}

func TestWarmHouseWins(t *testing.T) {
	e := newTestEngine(t, func(cfg *config.Simulation) {
		cfg.Session.DaysToWin = 2
		cfg.Resources.StartFuel = 500
	})

	stepFor(e, 3*time.Minute, time.Second)

	require.Equal(t, ModeWon, e.Session().Mode())
	summary, ok := e.Session().Summary()
	require.True(t, ok)
	assert.True(t, summary.Won)
	assert.Equal(t, 2, summary.DaysSurvived)
	assert.Equal(t, 70.0, summary.HighestTemperature)
	require.Len(t, summary.Members, 3)
	for _, m := range summary.Members {
		assert.True(t, m.Survived)
	}
	assert.Len(t, e.EventLog().GetByType(events.EventTypeSessionEnded), 1)
	assert.Equal(t, int64(1), e.Metrics().SessionsWon)
}

func TestSleepOvernight(t *testing.T) {
	e := newTestEngine(t, func(cfg *config.Simulation) { cfg.Clock.StartHour = 22 })

	seconds, err := e.Sleep()
	require.NoError(t, err)

	assert.InDelta(t, 20.0, seconds, 1e-9)
	assert.Equal(t, 1, e.Clock().Days())
	assert.Equal(t, 6, e.Clock().Hour())
	assert.InDelta(t, 4.6, e.Ledger().Fuel(), 1e-9)
	assert.Equal(t, 60.0, e.Ledger().Temperature())
	assert.Equal(t, 1, e.Stats().Totals().TimesSlept)

	var seq []events.EventType
	for _, typ := range eventTypes(e.EventLog().Replay()) {
		if typ != events.EventTypeResourceChanged {
			seq = append(seq, typ)
		}
	}
	assert.Equal(t, []events.EventType{
		events.EventTypeDayChanged,
		events.EventTypeTimeSkipped,
		events.EventTypeHourChanged,
		events.EventTypePlayerSlept,
	}, seq)

	slept := e.EventLog().GetByType(events.EventTypePlayerSlept)
	require.Len(t, slept, 1)
	assert.Equal(t, PlayerSleptPayload{Seconds: 20, TimesSlept: 1}, slept[0].Payload)
}

func TestSleepWithoutEnoughFuelCools(t *testing.T) {
	e := newTestEngine(t, func(cfg *config.Simulation) {
		cfg.Clock.StartHour = 22
		cfg.Resources.StartFuel = 0.2
	})

	_, err := e.Sleep()
	require.NoError(t, err)

	// 0.2 fuel covers 10 of the 20 s.
	assert.Zero(t, e.Ledger().Fuel())
	assert.False(t, e.Ledger().HasHeat())
	assert.InDelta(t, 56.0, e.Ledger().Temperature(), 1e-9)
}

func TestSleepIntoTheDayLimitFreezesAtMidnight(t *testing.T) {
	e := newTestEngine(t, func(cfg *config.Simulation) {
		cfg.Session.DaysToWin = 1
		cfg.Clock.StartHour = 22
	})
	fuel := e.Ledger().Fuel()

	seconds, err := e.Sleep()
	require.NoError(t, err)
	require.Equal(t, ModeWon, e.Session().Mode())

	// Only the two hours up to midnight were slept.
	assert.InDelta(t, 5.0, seconds, 1e-9)
	assert.Equal(t, "00:00", e.Clock().String())
	assert.Equal(t, fuel, e.Ledger().Fuel())

	summary, ok := e.Session().Summary()
	require.True(t, ok)
	assert.Equal(t, summary.Totals, e.Stats().Totals())

	assert.Empty(t, e.EventLog().GetByType(events.EventTypeTimeSkipped))
}

func TestSnapshot(t *testing.T) {
	e := newTestEngine(t)

	snap := e.Snapshot()
	assert.Equal(t, e.Session().ID(), snap.SessionID)
	assert.Equal(t, ModePlaying, snap.Mode)
	assert.Equal(t, "06:00", snap.Clock)
	assert.Equal(t, 0, snap.Day)
	assert.Len(t, snap.Members, 3)
	assert.Equal(t, 10, snap.Resources.Food)
	assert.Equal(t, BucketEmpty, snap.Chores.Bucket)
	assert.Len(t, snap.Chores.Furniture, 5)

	assert.Len(t, e.Headlines(), 1)
}

func TestStepRecordsMetrics(t *testing.T) {
	e := newTestEngine(t)

	stepFor(e, realPerGameHour, 500*time.Millisecond)

	assert.Equal(t, int64(5), e.Metrics().StepCount)
	assert.Equal(t, int64(1), e.Metrics().EventCounts()[string(events.EventTypeHourChanged)])
}

func TestCloseDetachesHousehold(t *testing.T) {
	e := newTestEngine(t, startAt(4, 10))
	e.Close()

	stepFor(e, realPerGameHour, 100*time.Millisecond)

	assert.Equal(t, 5, e.Clock().Hour())
	assert.Equal(t, 10, e.Ledger().Food(), "nobody reacted to the morning")
}

func TestRunExecutesCommands(t *testing.T) {
	e := newTestEngine(t)
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- e.Run(ctx, 10*time.Millisecond) }()

	var food int
	err := e.Do(ctx, func(e *Engine) error {
		e.Ledger().AddFood(2)
		food = e.Ledger().Food()
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 12, food)

	err = e.Do(ctx, func(e *Engine) error { return e.Session().SetMode(ModeMenu) })
	assert.ErrorIs(t, err, ErrInvalidTransition)

	cancel()
	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("Run did not stop")
	}

	err = e.Do(ctx, func(*Engine) error { return nil })
	assert.ErrorIs(t, err, context.Canceled)
}
