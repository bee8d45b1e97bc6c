package engine

import (
	"time"

	"github.com/MRamiBalles/ColdFront/server/internal/domain/rules"
	"github.com/MRamiBalles/ColdFront/server/internal/events"
	"github.com/MRamiBalles/ColdFront/server/internal/platform/config"
	"github.com/MRamiBalles/ColdFront/server/internal/platform/logger"
)

// ResourceSnapshot is a read-only view of the ledger.
type ResourceSnapshot struct {
	Food        int     `json:"food"`
	Water       float64 `json:"water"`
	Fuel        float64 `json:"fuel"`
	Temperature float64 `json:"temperature"`
	HasHeat     bool    `json:"has_heat"`
}

// Ledger is the single owner of the household's food, water, fuel and warmth.
// Food, water and fuel never go negative: consumption is refused, not clamped.
type Ledger struct {
	cfg    config.Resources
	gate   Gate
	stats  *Stats
	pub    publisher
	logger *logger.Logger

	food        int
	water       float64
	fuel        float64
	temperature float64
	hasHeat     bool
}

func NewLedger(cfg config.Resources, gate Gate, stats *Stats, pub publisher, log *logger.Logger) *Ledger {
	return &Ledger{
		cfg:         cfg,
		gate:        gate,
		stats:       stats,
		pub:         pub,
		logger:      log,
		food:        cfg.StartFood,
		water:       cfg.StartWater,
		fuel:        cfg.StartFuel,
		temperature: rules.Clamp(cfg.StartTemperature, cfg.MinTemperature, cfg.MaxTemperature),
		hasHeat:     cfg.StartFuel > 0,
	}
}

// ConsumeFood takes n units from the stores. It fails without side effects when short.
func (l *Ledger) ConsumeFood(n int) bool {
	if n <= 0 || l.food <= 0 || l.food < n {
		return false
	}
	l.food -= n
	l.stats.FoodConsumed(n)
	l.changed("food_consumed")
	return true
}

func (l *Ledger) AddFood(n int) {
	if n <= 0 {
		return
	}
	l.food += n
	l.stats.FoodRetrieved(n)
	l.changed("food_added")
}

// RemoveWater takes amount from the stores. It fails without side effects when short.
func (l *Ledger) RemoveWater(amount float64) bool {
	if amount <= 0 || l.water < amount {
		return false
	}
	l.water -= amount
	if l.water < 0 {
		l.water = 0
	}
	l.stats.WaterConsumed(amount)
	l.changed("water_consumed")
	return true
}

func (l *Ledger) AddWater(amount float64) {
	if amount <= 0 {
		return
	}
	l.water += amount
	l.stats.WaterCreated(amount)
	l.changed("water_added")
}

// AddFuel stokes the stores and relights the fire if it had gone out.
// Adding while already burning leaves the heat process as it is.
func (l *Ledger) AddFuel(amount float64) {
	if amount <= 0 {
		return
	}
	l.fuel += amount
	l.stats.FuelCreated(amount)
	if !l.hasHeat && l.fuel > 0 {
		l.hasHeat = true
		l.logger.Info("fire lit", "fuel", l.fuel)
	}
	l.changed("fuel_added")
}

// Warm nudges the temperature directly, within bounds.
func (l *Ledger) Warm(delta float64) {
	l.setTemperature(l.temperature + delta)
	l.changed("warmed")
}

// Step runs the heat and temperature processes for dt of real time.
func (l *Ledger) Step(dt time.Duration) {
	if dt <= 0 || !l.gate.IsActive() {
		return
	}
	seconds := dt.Seconds()

	heated := 0.0
	if l.hasHeat {
		_, unmet := l.burnFuel(seconds)
		heated = seconds - unmet
		if l.fuel <= 0 {
			l.hasHeat = false
			l.logger.Warn("fire went out", "temperature", l.temperature)
			l.changed("fire_out")
		}
	}

	r := l.cfg.TempChangeRate
	l.setTemperature(l.temperature + 2*r*heated - r*(seconds-heated))
	l.stats.RecordTemperature(l.temperature, seconds)
}

// ApplyTimeSkip catches up on a skip of the given real-time seconds. Fuel burns
// for as long as it lasts; the uncovered remainder cools the house.
func (l *Ledger) ApplyTimeSkip(seconds float64) {
	if seconds <= 0 {
		return
	}

	_, unmet := l.burnFuel(seconds)
	if l.fuel <= 0 {
		l.hasHeat = false
	}
	if unmet > 0 {
		l.setTemperature(l.temperature - l.cfg.TempChangeRate*unmet)
	}
	l.stats.RecordTemperature(l.temperature, seconds)
	l.changed("time_skip")
}

// burnFuel consumes fuel for the given seconds. It returns what was burned and
// the seconds the stores could not cover.
func (l *Ledger) burnFuel(seconds float64) (burned, unmet float64) {
	need := seconds * l.cfg.FuelBurnRate
	if need < l.fuel {
		l.fuel -= need
		l.stats.FuelBurned(need)
		return need, 0
	}

	burned = l.fuel
	l.fuel = 0
	l.stats.FuelBurned(burned)
	return burned, (need - burned) / l.cfg.FuelBurnRate
}

func (l *Ledger) setTemperature(t float64) {
	l.temperature = rules.Clamp(t, l.cfg.MinTemperature, l.cfg.MaxTemperature)
}

func (l *Ledger) changed(reason string) {
	l.pub.publish(events.EventTypeResourceChanged, events.ActorSystem, "", ResourceChangedPayload{
		Reason:   reason,
		Snapshot: l.Snapshot(),
	})
}

// Food is the whole meals left in the stores.
func (l *Ledger) Food() int { return l.food }

// Water is the drinkable water left.
func (l *Ledger) Water() float64 { return l.water }

// Fuel is what the fire has left to burn.
func (l *Ledger) Fuel() float64 { return l.fuel }

// Temperature is the indoor temperature, always within the configured bounds.
func (l *Ledger) Temperature() float64 { return l.temperature }

// HasHeat reports whether the fire is burning.
func (l *Ledger) HasHeat() bool { return l.hasHeat }

// Snapshot copies the resources for events and UI layers.
func (l *Ledger) Snapshot() ResourceSnapshot {
	return ResourceSnapshot{
		Food:        l.food,
		Water:       l.water,
		Fuel:        l.fuel,
		Temperature: l.temperature,
		HasHeat:     l.hasHeat,
	}
}
