package engine

import "math"

// Totals are the running sums kept for the end-of-session report.
type Totals struct {
	FoodConsumed  int     `json:"food_consumed" toml:"food_consumed"`
	FoodRetrieved int     `json:"food_retrieved" toml:"food_retrieved"`
	WaterConsumed float64 `json:"water_consumed" toml:"water_consumed"`
	WaterCreated  float64 `json:"water_created" toml:"water_created"`
	FuelCreated   float64 `json:"fuel_created" toml:"fuel_created"`
	FuelBurned    float64 `json:"fuel_burned" toml:"fuel_burned"`
	TimesSlept    int     `json:"times_slept" toml:"times_slept"`
}

// Stats aggregates gameplay statistics for scoring.
type Stats struct {
	totals Totals

	// Temperature history, weighted by the seconds each sample covered.
	tempSum    float64
	tempWeight float64
	tempMin    float64
	tempMax    float64
}

func NewStats() *Stats {
	return &Stats{tempMin: math.Inf(1), tempMax: math.Inf(-1)}
}

func (s *Stats) FoodConsumed(n int) { s.totals.FoodConsumed += n }
func (s *Stats) FoodRetrieved(n int) { s.totals.FoodRetrieved += n }
func (s *Stats) WaterConsumed(a float64) { s.totals.WaterConsumed += a }
func (s *Stats) WaterCreated(a float64) { s.totals.WaterCreated += a }
func (s *Stats) FuelCreated(a float64) { s.totals.FuelCreated += a }
func (s *Stats) FuelBurned(a float64) { s.totals.FuelBurned += a }
func (s *Stats) Slept() { s.totals.TimesSlept++ }
func (s *Stats) Totals() Totals { return s.totals }

// RecordTemperature adds a sample that held for the given number of seconds.
func (s *Stats) RecordTemperature(temp, seconds float64) {
	if seconds <= 0 {
		return
	}
	s.tempSum += temp * seconds
	s.tempWeight += seconds
	s.tempMin = math.Min(s.tempMin, temp)
	s.tempMax = math.Max(s.tempMax, temp)
}

// AverageTemperature returns the time-weighted mean, or current when nothing was recorded.
func (s *Stats) AverageTemperature(current float64) float64 {
	if s.tempWeight == 0 {
		return current
	}
	return s.tempSum / s.tempWeight
}

// TemperatureRange returns the coldest and warmest recorded samples.
func (s *Stats) TemperatureRange() (lo, hi float64, ok bool) {
	if s.tempWeight == 0 {
		return 0, 0, false
	}
	return s.tempMin, s.tempMax, true
}
