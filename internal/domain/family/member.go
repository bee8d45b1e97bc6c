// Package family defines the core domain entities for the members of the household.
// This package is PURE and must NOT import any infrastructure packages (network, events, platform).
package family

import (
	"errors"
	"fmt"
	"strings"

	"github.com/MRamiBalles/ColdFront/server/internal/domain/rules"
)

// MemberID identifies one of the three fixed family members.
type MemberID string

const (
	Husband  MemberID = "husband"
	Son      MemberID = "son"
	Daughter MemberID = "daughter"
)

var (
	ErrAlreadyOut    = errors.New("member is already out for food")
	ErrUnconscious   = errors.New("member is unconscious")
	ErrUnknownMember = errors.New("unknown family member")
)

// All returns the members in household order.
func All() []MemberID {
	return []MemberID{Husband, Son, Daughter}
}

// ParseMemberID accepts the id in any case.
func ParseMemberID(raw string) (MemberID, error) {
	id := MemberID(strings.ToLower(strings.TrimSpace(raw)))
	switch id {
	case Husband, Son, Daughter:
		return id, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownMember, raw)
}

// DisplayName is the label shown on the phone's contact list.
func (id MemberID) DisplayName() string {
	switch id {
	case Husband:
		return "Husband"
	case Son:
		return "Son"
	case Daughter:
		return "Daughter"
	default:
		return "Unknown"
	}
}

// Timestamp is an in-game moment.
type Timestamp struct {
	Day    int `json:"day"`
	Hour   int `json:"hour"`
	Minute int `json:"minute"`
}

func (t Timestamp) String() string {
	return fmt.Sprintf("Day %d %02d:%02d", t.Day, t.Hour, t.Minute)
}

// Message is one entry of a member's text log.
type Message struct {
	Timestamp Timestamp `json:"timestamp"`
	Text      string    `json:"text"`
}

// Rates holds the per-member tuning for daily progression.
type Rates struct {
	HungerPerDay        float64
	ThirstPerDay        float64
	ExhaustionThreshold float64
	ColdDaysToSick      int // sick once DaysCold exceeds this
	SickDaysToCollapse  int // unconscious once DaysSick exceeds this
}

// DefaultRates returns the stock tuning.
func DefaultRates() Rates {
	return Rates{
		HungerPerDay:        0.2,
		ThirstPerDay:        0.3,
		ExhaustionThreshold: 0.7,
		ColdDaysToSick:      3,
		SickDaysToCollapse:  4,
	}
}

// Member represents the health state of a family member.
type Member struct {
	ID MemberID `json:"id"`

	// Needs: 0 = satisfied, 1 = starving / parched
	Hunger float64 `json:"hunger"`
	Thirst float64 `json:"thirst"`

	// Conditions
	Cold        bool `json:"cold"`
	Sick        bool `json:"sick"`
	Exhausted   bool `json:"exhausted"`
	Unconscious bool `json:"unconscious"`

	DaysCold int `json:"days_cold"`
	DaysSick int `json:"days_sick"`

	// Errand
	OutForFood bool `json:"out_for_food"`
	Visible    bool `json:"visible"`

	Messages []Message `json:"messages"`

	rates Rates
}

// NewMember creates a healthy member at home.
func NewMember(id MemberID, rates Rates) *Member {
	return &Member{
		ID:       id,
		Visible:  true,
		Messages: []Message{},
		rates:    rates,
	}
}

// NewDay applies one day of progression. It reports true only on the day the
// member collapses; an unconscious member is frozen and never progresses again.
func (m *Member) NewDay() (collapsed bool) {
	if m.Unconscious {
		return false
	}

	m.Hunger = rules.Clamp01(m.Hunger + m.rates.HungerPerDay)
	m.Thirst = rules.Clamp01(m.Thirst + m.rates.ThirstPerDay)

	if m.Sick {
		m.DaysSick++
	} else {
		m.DaysSick = 0
	}

	if m.DaysCold > m.rates.ColdDaysToSick {
		m.Sick = true
	}

	if m.Cold {
		m.DaysCold++
	} else {
		m.DaysCold = 0
	}

	// Everyone sleeps through the night, so exhaustion is re-evaluated daily.
	m.Exhausted = rules.IsExhausted(m.Hunger, m.Thirst, m.rates.ExhaustionThreshold)

	if m.DaysSick > m.rates.SickDaysToCollapse {
		m.Unconscious = true
		return true
	}
	return false
}

// Eat clears hunger. The caller is responsible for paying the food.
func (m *Member) Eat() {
	m.Hunger = 0
}

// Drink clears exhaustion. The caller is responsible for paying the water.
func (m *Member) Drink() {
	m.Exhausted = false
}

// Medicate cures sickness.
func (m *Member) Medicate() {
	m.Sick = false
}

// SetCold records whether the member is currently exposed to the cold.
func (m *Member) SetCold(cold bool) {
	if m.Unconscious {
		return
	}
	m.Cold = cold
}

// LeaveForFood sends the member out of the house.
func (m *Member) LeaveForFood(at Timestamp) error {
	if m.OutForFood {
		return ErrAlreadyOut
	}
	if m.Unconscious {
		return ErrUnconscious
	}

	m.OutForFood = true
	m.Visible = false
	m.addMessage(at, "I'm headed out to get food")
	return nil
}

// ReturnWithFood brings the member home. It is a no-op when they are not out.
func (m *Member) ReturnWithFood(at Timestamp, food int) bool {
	if !m.OutForFood {
		return false
	}

	m.OutForFood = false
	m.Visible = true
	m.addMessage(at, fmt.Sprintf("I got %02d food while I was out", food))
	return true
}

// Interactable reports whether the player can talk to or care for the member.
func (m *Member) Interactable() bool {
	return m.Visible && !m.OutForFood
}

// Status is the condition summary shown on the phone.
func (m *Member) Status() []string {
	var status []string
	if m.Cold {
		status = append(status, "Cold")
	}
	if m.Sick {
		status = append(status, "Sick")
	}
	if m.Exhausted {
		status = append(status, "Exhausted")
	}
	if len(status) == 0 {
		status = append(status, "Fine")
	}
	return status
}

// Log returns a copy of the member's messages, oldest first.
func (m *Member) Log() []Message {
	out := make([]Message, len(m.Messages))
	copy(out, m.Messages)
	return out
}

func (m *Member) addMessage(at Timestamp, text string) {
	m.Messages = append(m.Messages, Message{Timestamp: at, Text: text})
}
