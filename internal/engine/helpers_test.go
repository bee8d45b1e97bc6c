package engine

import (
	"testing"
	"time"

	"github.com/MRamiBalles/ColdFront/server/internal/events"
	"github.com/MRamiBalles/ColdFront/server/internal/platform/config"
	"github.com/stretchr/testify/require"
)

type staticGate bool

func (g staticGate) IsActive() bool { return bool(g) }

// fixedRand always draws the same offset, clamped to the range.
type fixedRand int

func (f fixedRand) IntN(n int) int { return int(f) % n }

func newTestEngine(t *testing.T, mutate ...func(*config.Simulation)) *Engine {
	t.Helper()

	cfg := config.Defaults()
	cfg.Seed = 42
	for _, m := range mutate {
		m(&cfg)
	}

	e, err := New(cfg, WithStartMode(ModePlaying), WithRand(fixedRand(1)))
	require.NoError(t, err)
	t.Cleanup(e.Close)
	return e
}

// realPerGameHour is one in-game hour at the default one-minute day.
const realPerGameHour = 2500 * time.Millisecond

func stepFor(e *Engine, total, dt time.Duration) {
	for elapsed := time.Duration(0); elapsed < total; elapsed += dt {
		e.Step(dt)
	}
}

func eventTypes(evs []events.GameEvent) []events.EventType {
	out := make([]events.EventType, 0, len(evs))
	for _, ev := range evs {
		out = append(out, ev.Type)
	}
	return out
}
