// Package scenario plays whole sessions without a UI.
//
// A Strategy stands in for the player: before every simulation step it gets
// the engine and may perform any action a client could send.
package scenario

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/MRamiBalles/ColdFront/server/internal/domain/family"
	"github.com/MRamiBalles/ColdFront/server/internal/domain/supply"
	"github.com/MRamiBalles/ColdFront/server/internal/engine"
)

// Strategy decides the player's actions.
type Strategy interface {
	Name() string
	Act(e *engine.Engine) error
}

var registry = map[string]func() Strategy{
	"idle":      func() Strategy { return Idle{} },
	"caretaker": func() Strategy { return NewCaretaker() },
}

// Names lists the registered strategies.
func Names() []string {
	out := make([]string, 0, len(registry))
	for name := range registry {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// ByName returns a fresh strategy.
func ByName(name string) (Strategy, error) {
	build, ok := registry[strings.ToLower(name)]
	if !ok {
		return nil, fmt.Errorf("unknown strategy %q (want one of %s)", name, strings.Join(Names(), ", "))
	}
	return build(), nil
}

// Idle never touches anything. The household still eats and runs errands on its own.
type Idle struct{}

func (Idle) Name() string { return "idle" }

func (Idle) Act(*engine.Engine) error { return nil }

// Caretaker keeps the fire fed, nurses the sick, melts snow when water runs
// low and goes to bed at night.
type Caretaker struct {
	RefuelBelow float64 // feed the fire below this much fuel
	WaterBelow  float64 // start a bucket below this much water
	StokeBelow  float64 // stoke below this temperature
	BedHour     int

	lastMeal int
}

func NewCaretaker() *Caretaker {
	return &Caretaker{RefuelBelow: 3, WaterBelow: 6, StokeBelow: 55, BedHour: 22, lastMeal: -1}
}

func (c *Caretaker) Name() string { return "caretaker" }

func (c *Caretaker) Act(e *engine.Engine) error {
	if e.Session().Over() {
		return nil
	}

	for _, m := range e.Household().Members() {
		if m.View().Sick && !m.Unconscious() {
			m.GiveMedicine()
		}
	}

	// Going to bed skips the household's own early meal, so breakfast is served here.
	if day := e.Clock().Days(); day != c.lastMeal && e.Clock().Hour() >= e.Config().Clock.WakeHour {
		c.lastMeal = day
		if err := breakfast(e); err != nil {
			return err
		}
	}

	if err := c.tendFire(e); err != nil {
		return err
	}
	if err := c.tendBucket(e); err != nil {
		return err
	}

	if e.Clock().Hour() >= c.BedHour {
		if _, err := e.Sleep(); err != nil && !errors.Is(err, engine.ErrSessionOver) {
			return err
		}
	}
	return nil
}

func (c *Caretaker) tendFire(e *engine.Engine) error {
	if e.Ledger().Fuel() < c.RefuelBelow {
		err := e.Chores().RefuelFire()
		if errors.Is(err, engine.ErrNoWood) {
			if !breakSomething(e.Chores()) {
				return nil
			}
			err = e.Chores().RefuelFire()
		}
		if err != nil && !errors.Is(err, engine.ErrFireFull) {
			return err
		}
	}

	if e.Ledger().Temperature() < c.StokeBelow {
		err := e.Chores().StokeFire()
		if err != nil && !errors.Is(err, engine.ErrCooldown) && !errors.Is(err, engine.ErrNoFire) {
			return err
		}
	}
	return nil
}

func (c *Caretaker) tendBucket(e *engine.Engine) error {
	ch := e.Chores()
	if ch.View().BucketPlaced {
		// An empty bucket on the fire has boiled over.
		if b := ch.Bucket(); b != engine.BucketBoiled && b != engine.BucketEmpty {
			return nil
		}
		if _, err := ch.TakeBucket(); err != nil {
			return err
		}
	}

	if e.Ledger().Water() >= c.WaterBelow {
		return nil
	}
	for ch.Bucket() == engine.BucketEmpty {
		if err := ch.GatherSnow(); err != nil {
			return err
		}
	}
	return ch.PlaceBucket()
}

// breakfast feeds everyone at home, or sends the errand runner out when the
// larder is low.
func breakfast(e *engine.Engine) error {
	cfg := e.Config().Household
	if e.Ledger().Food() <= cfg.LowFoodThreshold {
		runner, err := e.Household().Member(family.MemberID(cfg.ErrandRunner))
		if err != nil {
			return err
		}
		if runner.Present() {
			if err := runner.SendForFood(); err != nil && !errors.Is(err, family.ErrAlreadyOut) {
				return err
			}
		}
		return nil
	}

	for _, m := range e.Household().Members() {
		if !m.Present() {
			continue
		}
		m.EatFood()
		m.DrinkWater()
	}
	return nil
}

// breakSomething smashes the smallest piece still standing.
func breakSomething(ch *engine.Chores) bool {
	standing := ch.View().Furniture
	kinds := supply.Kinds()
	sort.SliceStable(kinds, func(i, j int) bool {
		return supply.Registry[kinds[i]].Pieces < supply.Registry[kinds[j]].Pieces
	})
	for _, k := range kinds {
		if standing[k] > 0 {
			_, err := ch.BreakFurniture(k)
			return err == nil
		}
	}
	return false
}
