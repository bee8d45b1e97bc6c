package engine

import (
	"github.com/MRamiBalles/ColdFront/server/internal/domain/family"
	"github.com/MRamiBalles/ColdFront/server/internal/domain/rules"
	"github.com/MRamiBalles/ColdFront/server/internal/events"
	"github.com/MRamiBalles/ColdFront/server/internal/platform/config"
	"github.com/MRamiBalles/ColdFront/server/internal/platform/logger"
)

// UnconsciousReporter is told once about every member who collapses.
type UnconsciousReporter interface {
	RecordUnconscious(id family.MemberID)
}

// CharacterView is the read model of one member for UI layers.
type CharacterView struct {
	ID           family.MemberID  `json:"id"`
	Name         string           `json:"name"`
	Hunger       float64          `json:"hunger"`
	Thirst       float64          `json:"thirst"`
	Cold         bool             `json:"cold"`
	Sick         bool             `json:"sick"`
	Exhausted    bool             `json:"exhausted"`
	Unconscious  bool             `json:"unconscious"`
	DaysCold     int              `json:"days_cold"`
	DaysSick     int              `json:"days_sick"`
	OutForFood   bool             `json:"out_for_food"`
	Interactable bool             `json:"interactable"`
	Status       []string         `json:"status"`
	Messages     []family.Message `json:"messages"`
}

// Character binds a family member to the resources and clock of the session.
type Character struct {
	member   *family.Member
	cfg      config.Family
	ledger   *Ledger
	clock    *Clock
	dialogue *Dialogue
	rng      rules.Intn
	reporter UnconsciousReporter
	pub      publisher
	logger   *logger.Logger
}

func NewCharacter(id family.MemberID, cfg config.Family, ledger *Ledger, clock *Clock, dialogue *Dialogue,
	rng rules.Intn, reporter UnconsciousReporter, pub publisher, log *logger.Logger) *Character {
	return &Character{
		member:   family.NewMember(id, cfg.Rates()),
		cfg:      cfg,
		ledger:   ledger,
		clock:    clock,
		dialogue: dialogue,
		rng:      rng,
		reporter: reporter,
		pub:      pub,
		logger:   log.With("member", string(id)),
	}
}

func (c *Character) ID() family.MemberID { return c.member.ID }

// EatFood spends one food and clears hunger. It reports false when the stores are empty.
func (c *Character) EatFood() bool {
	if !c.ledger.ConsumeFood(1) {
		return false
	}
	c.member.Eat()
	return true
}

// DrinkWater spends one water and clears exhaustion.
func (c *Character) DrinkWater() bool {
	if !c.ledger.RemoveWater(1) {
		return false
	}
	c.member.Drink()
	return true
}

// GiveMedicine cures sickness.
func (c *Character) GiveMedicine() {
	c.member.Medicate()
}

// SendForFood starts an errand. The member is away until the return hour.
func (c *Character) SendForFood() error {
	if err := c.member.LeaveForFood(c.clock.Timestamp()); err != nil {
		return err
	}
	c.logger.Info("headed out for food")
	c.pub.publish(events.EventTypeErrandStarted, string(c.member.ID), "", ErrandPayload{Member: c.member.ID})
	return nil
}

// Talk picks a line for the member and publishes it.
func (c *Character) Talk() (string, bool) {
	if !c.member.Interactable() || c.member.Unconscious {
		return "", false
	}
	line, ok := c.dialogue.Line(c.member.ID)
	if !ok {
		return "", false
	}
	c.pub.publish(events.EventTypeNewDialogue, string(c.member.ID), "", DialoguePayload{Member: c.member.ID, Text: line})
	return line, true
}

// OnNewDay advances the member by one day and reports a collapse.
func (c *Character) OnNewDay() {
	if !c.member.NewDay() {
		return
	}
	c.logger.Warn("member collapsed", "days_sick", c.member.DaysSick)
	c.reporter.RecordUnconscious(c.member.ID)
}

// OnHourChanged brings the member home at the return hour.
func (c *Character) OnHourChanged(hour int) {
	if !c.member.OutForFood || hour != c.cfg.ErrandReturnHour {
		return
	}

	food := rules.ErrandYield(c.rng, c.cfg.ErrandYieldMin, c.cfg.ErrandYieldMax)
	c.member.ReturnWithFood(c.clock.Timestamp(), food)
	c.ledger.AddFood(food)
	c.logger.Info("returned with food", "food", food)
	c.pub.publish(events.EventTypeErrandReturned, string(c.member.ID), "", ErrandPayload{Member: c.member.ID, Food: food})
}

func (c *Character) setCold(cold bool) { c.member.SetCold(cold) }

func (c *Character) Unconscious() bool { return c.member.Unconscious }
func (c *Character) OutForFood() bool { return c.member.OutForFood }
func (c *Character) Status() []string { return c.member.Status() }

// Present reports whether the member is home and able to act.
func (c *Character) Present() bool {
	return !c.member.Unconscious && c.member.Interactable()
}

// View returns a copy of the member state.
func (c *Character) View() CharacterView {
	m := c.member
	return CharacterView{
		ID:           m.ID,
		Name:         m.ID.DisplayName(),
		Hunger:       m.Hunger,
		Thirst:       m.Thirst,
		Cold:         m.Cold,
		Sick:         m.Sick,
		Exhausted:    m.Exhausted,
		Unconscious:  m.Unconscious,
		DaysCold:     m.DaysCold,
		DaysSick:     m.DaysSick,
		OutForFood:   m.OutForFood,
		Interactable: m.Interactable(),
		Status:       m.Status(),
		Messages:     m.Log(),
	}
}
