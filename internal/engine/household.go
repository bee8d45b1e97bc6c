package engine

import (
	"errors"

	"github.com/MRamiBalles/ColdFront/server/internal/domain/family"
	"github.com/MRamiBalles/ColdFront/server/internal/domain/rules"
	"github.com/MRamiBalles/ColdFront/server/internal/platform/config"
	"github.com/MRamiBalles/ColdFront/server/internal/platform/logger"
)

var ErrUnknownMember = family.ErrUnknownMember

// Household applies the family-wide rules: cold exposure every hour and the
// morning decision to eat or send someone out for food.
type Household struct {
	members []*Character
	cfg     config.Household
	ledger  *Ledger
	logger  *logger.Logger
}

// NewHousehold keeps members in the given order; every fan-out follows it.
func NewHousehold(cfg config.Household, ledger *Ledger, log *logger.Logger, members ...*Character) *Household {
	return &Household{members: members, cfg: cfg, ledger: ledger, logger: log}
}

func (h *Household) Members() []*Character { return h.members }

func (h *Household) Member(id family.MemberID) (*Character, error) {
	for _, c := range h.members {
		if c.ID() == id {
			return c, nil
		}
	}
	return nil, ErrUnknownMember
}

// OnNewDay advances every member by a day.
func (h *Household) OnNewDay() {
	for _, c := range h.members {
		c.OnNewDay()
	}
}

// OnHourChanged runs the hourly rules.
func (h *Household) OnHourChanged(hour int) {
	cold := rules.IsCold(h.ledger.Temperature(), h.cfg.ColdTemperature)
	for _, c := range h.members {
		c.setCold(cold)
		c.OnHourChanged(hour)
	}

	if hour == h.cfg.DecisionHour {
		h.morning()
	}
}

func (h *Household) morning() {
	if h.ledger.Food() <= h.cfg.LowFoodThreshold {
		runner, err := h.Member(family.MemberID(h.cfg.ErrandRunner))
		if err != nil {
			h.logger.Error("no errand runner", "runner", h.cfg.ErrandRunner)
			return
		}
		if err := runner.SendForFood(); err != nil && !errors.Is(err, family.ErrAlreadyOut) {
			h.logger.Warn("nobody could go out for food", "runner", runner.ID(), "error", err)
		}
		return
	}

	for _, c := range h.members {
		if !c.Present() {
			continue
		}
		c.EatFood()
		c.DrinkWater()
	}
}
