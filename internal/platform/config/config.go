// Package config loads simulation balance and process settings.
//
// Balance knobs come from an optional TOML or YAML file layered over built-in
// defaults, with COLDFRONT_* environment overrides (clock.day_length is read
// from COLDFRONT_CLOCK_DAY_LENGTH). Process settings are plain env vars, see Server.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/MRamiBalles/ColdFront/server/internal/domain/family"
	toml "github.com/pelletier/go-toml/v2"
	"github.com/spf13/viper"
)

const envPrefix = "COLDFRONT"

// Simulation is the full balance sheet of one session.
type Simulation struct {
	// Seed drives every random draw. Zero picks a time-based seed.
	Seed      int64     `mapstructure:"seed"`
	Clock     Clock     `mapstructure:"clock"`
	Resources Resources `mapstructure:"resources"`
	Family    Family    `mapstructure:"family"`
	Household Household `mapstructure:"household"`
	Session   Session   `mapstructure:"session"`
	Chores    Chores    `mapstructure:"chores"`
}

type Clock struct {
	DayLength   time.Duration `mapstructure:"day_length"` // real time per in-game day
	StartHour   int           `mapstructure:"start_hour"`
	StartMinute int           `mapstructure:"start_minute"`
	WakeHour    int           `mapstructure:"wake_hour"`
}

type Resources struct {
	StartFood        int     `mapstructure:"start_food"`
	StartWater       float64 `mapstructure:"start_water"`
	StartFuel        float64 `mapstructure:"start_fuel"`
	StartTemperature float64 `mapstructure:"start_temperature"`
	MinTemperature   float64 `mapstructure:"min_temperature"`
	MaxTemperature   float64 `mapstructure:"max_temperature"`
	TempChangeRate   float64 `mapstructure:"temp_change_rate"` // degrees per real second
	FuelBurnRate     float64 `mapstructure:"fuel_burn_rate"`   // fuel per real second
}

type Family struct {
	HungerPerDay        float64 `mapstructure:"hunger_per_day"`
	ThirstPerDay        float64 `mapstructure:"thirst_per_day"`
	ExhaustionThreshold float64 `mapstructure:"exhaustion_threshold"`
	ColdDaysToSick      int     `mapstructure:"cold_days_to_sick"`
	SickDaysToCollapse  int     `mapstructure:"sick_days_to_collapse"`
	ErrandReturnHour    int     `mapstructure:"errand_return_hour"`
	ErrandYieldMin      int     `mapstructure:"errand_yield_min"`
	ErrandYieldMax      int     `mapstructure:"errand_yield_max"`
}

// Rates converts the family knobs into the per-member progression rates.
func (f Family) Rates() family.Rates {
	return family.Rates{
		HungerPerDay:        f.HungerPerDay,
		ThirstPerDay:        f.ThirstPerDay,
		ExhaustionThreshold: f.ExhaustionThreshold,
		ColdDaysToSick:      f.ColdDaysToSick,
		SickDaysToCollapse:  f.SickDaysToCollapse,
	}
}

type Household struct {
	DecisionHour     int     `mapstructure:"decision_hour"`
	LowFoodThreshold int     `mapstructure:"low_food_threshold"`
	ErrandRunner     string  `mapstructure:"errand_runner"`
	ColdTemperature  float64 `mapstructure:"cold_temperature"`
}

type Session struct {
	DaysToWin         int `mapstructure:"days_to_win"`
	UnconsciousToLose int `mapstructure:"unconscious_to_lose"`
}

type Chores struct {
	FuelPerPiece   float64       `mapstructure:"fuel_per_piece"`
	FireCapacity   float64       `mapstructure:"fire_capacity"`
	SnowPerBucket  int           `mapstructure:"snow_per_bucket"`
	WaterPerBucket float64       `mapstructure:"water_per_bucket"`
	MeltStage      time.Duration `mapstructure:"melt_stage"`
	StokeWarmth    float64       `mapstructure:"stoke_warmth"`
	StokeCooldown  time.Duration `mapstructure:"stoke_cooldown"`
}

var defaults = map[string]any{
	"seed": 0,

	"clock.day_length":   "1m",
	"clock.start_hour":   6,
	"clock.start_minute": 0,
	"clock.wake_hour":    6,

	"resources.start_food":        10,
	"resources.start_water":       10.0,
	"resources.start_fuel":        5.0,
	"resources.start_temperature": 60.0,
	"resources.min_temperature":   25.0,
	"resources.max_temperature":   70.0,
	"resources.temp_change_rate":  0.4,
	"resources.fuel_burn_rate":    0.02,

	"family.hunger_per_day":        0.2,
	"family.thirst_per_day":        0.3,
	"family.exhaustion_threshold":  0.7,
	"family.cold_days_to_sick":     3,
	"family.sick_days_to_collapse": 4,
	"family.errand_return_hour":    15,
	"family.errand_yield_min":      2,
	"family.errand_yield_max":      4,

	"household.decision_hour":      5,
	"household.low_food_threshold": 4,
	"household.errand_runner":      string(family.Husband),
	"household.cold_temperature":   50.0,

	"session.days_to_win":         15,
	"session.unconscious_to_lose": 3,

	"chores.fuel_per_piece":   5.0,
	"chores.fire_capacity":    25.0,
	"chores.snow_per_bucket":  6,
	"chores.water_per_bucket": 10.0,
	"chores.melt_stage":       "3s",
	"chores.stoke_warmth":     5.0,
	"chores.stoke_cooldown":   "30s",
}

func newViper(path string, withEnv bool) (*viper.Viper, error) {
	v := viper.New()
	for k, val := range defaults {
		v.SetDefault(k, val)
	}

	if withEnv {
		v.SetEnvPrefix(envPrefix)
		v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
		v.AutomaticEnv()
	}

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}
	return v, nil
}

func decode(v *viper.Viper) (Simulation, error) {
	var sim Simulation
	if err := v.Unmarshal(&sim); err != nil {
		return Simulation{}, fmt.Errorf("decode config: %w", err)
	}
	return sim, nil
}

// Defaults returns the built-in balance, ignoring files and environment.
func Defaults() Simulation {
	v, _ := newViper("", false)
	sim, err := decode(v)
	if err != nil {
		panic(err)
	}
	return sim
}

// Load reads the balance from path (optional) and the environment, then validates it.
func Load(path string) (Simulation, error) {
	v, err := newViper(path, true)
	if err != nil {
		return Simulation{}, err
	}
	sim, err := decode(v)
	if err != nil {
		return Simulation{}, err
	}
	if err := sim.Validate(); err != nil {
		return Simulation{}, err
	}
	return sim, nil
}

// EffectiveTOML renders the merged settings Load would see.
func EffectiveTOML(path string) ([]byte, error) {
	v, err := newViper(path, true)
	if err != nil {
		return nil, err
	}
	out, err := toml.Marshal(v.AllSettings())
	if err != nil {
		return nil, fmt.Errorf("encode config: %w", err)
	}
	return out, nil
}

// Validate rejects settings the simulation cannot run with.
func (s Simulation) Validate() error {
	var errs []error
	check := func(ok bool, format string, args ...any) {
		if !ok {
			errs = append(errs, fmt.Errorf(format, args...))
		}
	}

	check(s.Clock.DayLength > 0, "clock.day_length must be positive, got %s", s.Clock.DayLength)
	check(validHour(s.Clock.StartHour), "clock.start_hour out of range: %d", s.Clock.StartHour)
	check(s.Clock.StartMinute >= 0 && s.Clock.StartMinute < 60, "clock.start_minute out of range: %d", s.Clock.StartMinute)
	check(validHour(s.Clock.WakeHour), "clock.wake_hour out of range: %d", s.Clock.WakeHour)

	r := s.Resources
	check(r.StartFood >= 0, "resources.start_food must not be negative")
	check(r.StartWater >= 0, "resources.start_water must not be negative")
	check(r.StartFuel >= 0, "resources.start_fuel must not be negative")
	check(r.MinTemperature < r.MaxTemperature, "resources.min_temperature must be below max_temperature")
	check(r.StartTemperature >= r.MinTemperature && r.StartTemperature <= r.MaxTemperature,
		"resources.start_temperature %.1f outside [%.1f, %.1f]", r.StartTemperature, r.MinTemperature, r.MaxTemperature)
	check(r.TempChangeRate >= 0, "resources.temp_change_rate must not be negative")
	check(r.FuelBurnRate > 0, "resources.fuel_burn_rate must be positive")

	f := s.Family
	check(f.HungerPerDay >= 0 && f.ThirstPerDay >= 0, "family need rates must not be negative")
	check(f.ExhaustionThreshold > 0 && f.ExhaustionThreshold <= 1, "family.exhaustion_threshold must be in (0, 1]")
	check(f.ColdDaysToSick >= 0 && f.SickDaysToCollapse >= 0, "family day thresholds must not be negative")
	check(validHour(f.ErrandReturnHour), "family.errand_return_hour out of range: %d", f.ErrandReturnHour)
	check(f.ErrandYieldMin >= 0 && f.ErrandYieldMin <= f.ErrandYieldMax,
		"family errand yield range [%d, %d] is empty", f.ErrandYieldMin, f.ErrandYieldMax)

	h := s.Household
	check(validHour(h.DecisionHour), "household.decision_hour out of range: %d", h.DecisionHour)
	if _, err := family.ParseMemberID(h.ErrandRunner); err != nil {
		errs = append(errs, fmt.Errorf("household.errand_runner: %w", err))
	}

	check(s.Session.DaysToWin > 0, "session.days_to_win must be positive")
	check(s.Session.UnconsciousToLose > 0 && s.Session.UnconsciousToLose <= len(family.All()),
		"session.unconscious_to_lose must be between 1 and %d", len(family.All()))

	c := s.Chores
	check(c.FuelPerPiece > 0, "chores.fuel_per_piece must be positive")
	check(c.FireCapacity > 0, "chores.fire_capacity must be positive")
	check(c.SnowPerBucket > 0, "chores.snow_per_bucket must be positive")
	check(c.WaterPerBucket >= 0, "chores.water_per_bucket must not be negative")
	check(c.MeltStage > 0, "chores.melt_stage must be positive")
	check(c.StokeCooldown >= 0, "chores.stoke_cooldown must not be negative")

	return errors.Join(errs...)
}

func validHour(h int) bool { return h >= 0 && h < 24 }
