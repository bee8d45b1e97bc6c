package engine

import (
	"fmt"
	"time"

	"github.com/MRamiBalles/ColdFront/server/internal/domain/family"
	"github.com/MRamiBalles/ColdFront/server/internal/events"
	"github.com/MRamiBalles/ColdFront/server/internal/platform/config"
	"github.com/MRamiBalles/ColdFront/server/internal/platform/logger"
)

const day = 24 * time.Hour

// Gate reports whether simulated time should flow.
type Gate interface {
	IsActive() bool
}

// Clock tracks the in-game time of day and the number of elapsed days.
// It does NOT know about the family or the resources - only time progression.
type Clock struct {
	pub    publisher
	gate   Gate
	logger *logger.Logger

	timeScale float64       // game seconds per real second
	timeOfDay time.Duration // [0, 24h)
	days      int
	wakeHour  int
}

// NewClock creates a clock at the configured start time of day 0.
func NewClock(cfg config.Clock, gate Gate, el *events.EventLog, log *logger.Logger) *Clock {
	c := &Clock{
		gate:      gate,
		logger:    log,
		timeScale: float64(day) / float64(cfg.DayLength),
		timeOfDay: time.Duration(cfg.StartHour)*time.Hour + time.Duration(cfg.StartMinute)*time.Minute,
		wakeHour:  cfg.WakeHour,
	}
	c.pub = publisher{log: el, clock: c}
	return c
}

// Advance moves time forward by dt of real time. Every hour boundary crossed is
// published in order; a midnight crossing rolls the day over first.
func (c *Clock) Advance(dt time.Duration) {
	if dt <= 0 || !c.gate.IsActive() {
		return
	}

	remaining := time.Duration(float64(dt) * c.timeScale)
	for remaining > 0 {
		next := (c.timeOfDay/time.Hour + 1) * time.Hour
		if c.timeOfDay+remaining < next {
			c.timeOfDay += remaining
			return
		}

		remaining -= next - c.timeOfDay
		if next == day {
			c.timeOfDay = 0
			c.rollover()
		} else {
			c.timeOfDay = next
		}

		// A rollover may have ended the session.
		if !c.gate.IsActive() {
			return
		}
		c.publishHour()
	}
}

// SetTime jumps to hour:minute and publishes how much real time the jump stood for.
// With forceNewDay the jump always goes through midnight. A jump backwards
// within the same day skips nothing. When the midnight rollover ends the
// session the jump stops there and nothing is published.
func (c *Clock) SetTime(hour, minute int, forceNewDay bool) float64 {
	target := time.Duration(hour)*time.Hour + time.Duration(minute)*time.Minute
	target = ((target % day) + day) % day
	prevHour := c.Hour()

	var skipped time.Duration
	if forceNewDay {
		skipped = day - c.timeOfDay + target
		toMidnight := day - c.timeOfDay
		c.timeOfDay = 0
		c.rollover()

		// A rollover may have ended the session; time stops at midnight.
		if !c.gate.IsActive() {
			return toMidnight.Seconds() / c.timeScale
		}
	} else if target > c.timeOfDay {
		skipped = target - c.timeOfDay
	}
	c.timeOfDay = target

	seconds := skipped.Seconds() / c.timeScale
	c.pub.publish(events.EventTypeTimeSkipped, events.ActorSystem, "", TimeSkippedPayload{Seconds: seconds})
	if c.Hour() != prevHour {
		c.publishHour()
	}
	return seconds
}

// Sleep skips to the wake hour, overnight when it is already past it.
func (c *Clock) Sleep() float64 {
	if c.Hour() > c.wakeHour {
		return c.SetTime(c.wakeHour, 0, true)
	}
	return c.SetTime(c.wakeHour, 0, false)
}

func (c *Clock) rollover() {
	c.days++
	c.logger.Info("new day", "day", c.days)
	c.pub.publish(events.EventTypeDayChanged, events.ActorSystem, "", nil)
}

func (c *Clock) publishHour() {
	c.logger.Debug("hour changed", "day", c.days, "hour", c.Hour())
	c.pub.publish(events.EventTypeHourChanged, events.ActorSystem, "", HourChangedPayload{Hour: c.Hour()})
}

// Hour is the current hour, 0 through 23.
func (c *Clock) Hour() int { return int(c.timeOfDay / time.Hour) }

// Minute is the current minute within the hour.
func (c *Clock) Minute() int { return int(c.timeOfDay % time.Hour / time.Minute) }

// Days is the number of completed day rollovers.
func (c *Clock) Days() int { return c.days }

// TimeOfDay is the elapsed game time since midnight.
func (c *Clock) TimeOfDay() time.Duration { return c.timeOfDay }

// Fraction is the elapsed share of the current day, in [0, 1).
func (c *Clock) Fraction() float64 { return float64(c.timeOfDay) / float64(day) }

// TimeScale is game seconds per real second.
func (c *Clock) TimeScale() float64 { return c.timeScale }

// Timestamp stamps member messages with the current day, hour and minute.
func (c *Clock) Timestamp() family.Timestamp {
	return family.Timestamp{Day: c.days, Hour: c.Hour(), Minute: c.Minute()}
}

// String formats the time of day as HH:MM.
func (c *Clock) String() string {
	return fmt.Sprintf("%02d:%02d", c.Hour(), c.Minute())
}
