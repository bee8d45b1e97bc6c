package engine

import (
	"testing"
	"time"

	"github.com/MRamiBalles/ColdFront/server/internal/events"
	"github.com/MRamiBalles/ColdFront/server/internal/platform/config"
	"github.com/MRamiBalles/ColdFront/server/internal/platform/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLedger(gate Gate, mutate func(*config.Resources)) (*Ledger, *Stats) {
	cfg := config.Defaults().Resources
	if mutate != nil {
		mutate(&cfg)
	}
	stats := NewStats()
	return NewLedger(cfg, gate, stats, publisher{}, logger.Discard()), stats
}

func TestConsumeFood(t *testing.T) {
	l, stats := newTestLedger(staticGate(true), func(r *config.Resources) { r.StartFood = 2 })

	assert.False(t, l.ConsumeFood(3))
	assert.False(t, l.ConsumeFood(0))
	assert.Equal(t, 2, l.Food())

	assert.True(t, l.ConsumeFood(2))
	assert.False(t, l.ConsumeFood(1), "empty stores refuse")
	assert.Equal(t, 0, l.Food())
	assert.Equal(t, 2, stats.Totals().FoodConsumed)
}

func TestRemoveWater(t *testing.T) {
	l, stats := newTestLedger(staticGate(true), func(r *config.Resources) { r.StartWater = 1.5 })

	assert.False(t, l.RemoveWater(2))
	assert.True(t, l.RemoveWater(1))
	assert.InDelta(t, 0.5, l.Water(), 1e-9)
	assert.Equal(t, 1.0, stats.Totals().WaterConsumed)

	l.AddWater(-3)
	assert.InDelta(t, 0.5, l.Water(), 1e-9)
}

func TestAddFuelStartsHeatOnce(t *testing.T) {
	l, stats := newTestLedger(staticGate(true), func(r *config.Resources) { r.StartFuel = 0 })
	require.False(t, l.HasHeat())

	l.AddFuel(5)
	assert.True(t, l.HasHeat())
	l.AddFuel(5)
	assert.True(t, l.HasHeat())
	assert.Equal(t, 10.0, l.Fuel())
	assert.Equal(t, 10.0, stats.Totals().FuelCreated)

	// Burn it all, then relight.
	l.Step(time.Duration(10/0.02) * time.Second)
	assert.False(t, l.HasHeat())
	assert.Zero(t, l.Fuel())
	l.AddFuel(1)
	assert.True(t, l.HasHeat())
}

func TestStepHeatsWhileBurning(t *testing.T) {
	l, stats := newTestLedger(staticGate(true), nil)

	l.Step(time.Second)

	assert.InDelta(t, 60.8, l.Temperature(), 1e-9)
	assert.InDelta(t, 4.98, l.Fuel(), 1e-9)
	assert.InDelta(t, 0.02, stats.Totals().FuelBurned, 1e-9)
}

func TestStepFireRunsOutMidStep(t *testing.T) {
	l, _ := newTestLedger(staticGate(true), func(r *config.Resources) { r.StartFuel = 0.01 })

	l.Step(time.Second)

	// Half a second heated (+0.4), half unheated (-0.2).
	assert.InDelta(t, 60.2, l.Temperature(), 1e-9)
	assert.False(t, l.HasHeat())
	assert.Zero(t, l.Fuel())
}

func TestStepCoolsAndClamps(t *testing.T) {
	l, _ := newTestLedger(staticGate(true), func(r *config.Resources) { r.StartFuel = 0 })

	l.Step(10 * time.Second)
	assert.InDelta(t, 56.0, l.Temperature(), 1e-9)

	l.Step(time.Hour)
	assert.Equal(t, 25.0, l.Temperature())
}

func TestStepFrozenWhenInactive(t *testing.T) {
	l, _ := newTestLedger(staticGate(false), nil)
	l.Step(time.Minute)

	assert.Equal(t, 5.0, l.Fuel())
	assert.Equal(t, 60.0, l.Temperature())
}

func TestApplyTimeSkipIsDeterministic(t *testing.T) {
	run := func() (float64, float64, float64) {
		l, stats := newTestLedger(staticGate(true), func(r *config.Resources) { r.StartFuel = 1 })
		// 100 s needs 2 fuel: 1 burns, the other 50 s go uncovered.
		l.ApplyTimeSkip(100)
		return l.Temperature(), l.Fuel(), stats.Totals().FuelBurned
	}

	temp, fuel, burned := run()
	assert.InDelta(t, 40.0, temp, 1e-9)
	assert.Zero(t, fuel)
	assert.Equal(t, 1.0, burned)

	temp2, _, _ := run()
	assert.Equal(t, temp, temp2)
}

func TestApplyTimeSkipWithEnoughFuel(t *testing.T) {
	l, _ := newTestLedger(staticGate(true), nil)

	l.ApplyTimeSkip(100)

	assert.InDelta(t, 3.0, l.Fuel(), 1e-9)
	assert.Equal(t, 60.0, l.Temperature())
	assert.True(t, l.HasHeat())
}

func TestApplyTimeSkipClampsTemperature(t *testing.T) {
	l, _ := newTestLedger(staticGate(true), func(r *config.Resources) { r.StartFuel = 0 })

	l.ApplyTimeSkip(10_000)
	assert.Equal(t, 25.0, l.Temperature())
}

func TestDiscreteMutationsPublish(t *testing.T) {
	el := events.NewEventLog()
	l := NewLedger(config.Defaults().Resources, staticGate(true), NewStats(), publisher{log: el}, logger.Discard())

	l.AddFood(3)
	l.ConsumeFood(100)
	l.Warm(100)

	got := el.GetByType(events.EventTypeResourceChanged)
	require.Len(t, got, 2)
	p := got[0].Payload.(ResourceChangedPayload)
	assert.Equal(t, "food_added", p.Reason)
	assert.Equal(t, 13, p.Snapshot.Food)
	assert.Equal(t, 70.0, got[1].Payload.(ResourceChangedPayload).Snapshot.Temperature)
}
