// Package events provides the notification bus and append-only history of a session.
// Every notification the simulation core publishes goes through an EventLog:
// it is recorded, optionally persisted, and delivered synchronously to subscribers.
package events

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// EventType defines the category of a game event.
type EventType string

const (
	EventTypeHourChanged         EventType = "HOUR_CHANGED"
	EventTypeDayChanged          EventType = "DAY_CHANGED"
	EventTypeTimeSkipped         EventType = "TIME_SKIPPED"
	EventTypeModeChanged         EventType = "MODE_CHANGED"
	EventTypeMinigameChanged     EventType = "MINIGAME_CHANGED"
	EventTypeInteractableChanged EventType = "INTERACTABLE_CHANGED"
	EventTypeNewDialogue         EventType = "NEW_DIALOGUE"
	EventTypeResourceChanged     EventType = "RESOURCE_CHANGED"
	EventTypeErrandStarted       EventType = "ERRAND_STARTED"
	EventTypeErrandReturned      EventType = "ERRAND_RETURNED"
	EventTypeMemberUnconscious   EventType = "MEMBER_UNCONSCIOUS"
	EventTypePlayerSlept         EventType = "PLAYER_SLEPT"
	EventTypeSessionEnded        EventType = "SESSION_ENDED"
)

// ActorSystem is the actor recorded for events the simulation raises on its own.
const ActorSystem = "SYSTEM"

// GameEvent represents an immutable record of something that happened in the house.
type GameEvent struct {
	ID        string      `json:"id"`
	Timestamp time.Time   `json:"timestamp"`
	Type      EventType   `json:"type"`
	ActorID   string      `json:"actor_id"`  // Who caused it
	TargetID  string      `json:"target_id"` // Who was affected (optional)
	Payload   interface{} `json:"payload"`   // Event-specific data
	GameDay   int         `json:"game_day"`
	GameHour  int         `json:"game_hour"`
}

// EventPersister defines how an event is durably stored.
type EventPersister interface {
	Append(event GameEvent) error
}

// Handler receives events delivered by the log.
type Handler func(GameEvent)

// Subscription is a registered handler. Unsubscribe stops delivery.
type Subscription struct {
	log   *EventLog
	id    uint64
	types map[EventType]struct{}
	fn    Handler
}

// Unsubscribe removes the handler from its log. Safe to call more than once.
func (s *Subscription) Unsubscribe() {
	if s == nil || s.log == nil {
		return
	}
	s.log.remove(s.id)
}

func (s *Subscription) wants(t EventType) bool {
	if len(s.types) == 0 {
		return true
	}
	_, ok := s.types[t]
	return ok
}

// EventLog is the in-memory append-only log of game events.
// Delivery is synchronous and in subscription order, so the simulation stays
// deterministic; handlers may append further events.
type EventLog struct {
	mu          sync.RWMutex
	events      []GameEvent
	subscribers []*Subscription
	nextID      uint64
	persister   EventPersister
	onPersist   func(latency time.Duration, err error)
	now         func() time.Time
}

// Option configures an EventLog.
type Option func(*EventLog)

// WithPersister writes every appended event through to durable storage.
func WithPersister(p EventPersister) Option {
	return func(el *EventLog) { el.persister = p }
}

// WithPersistObserver is called after each persistence attempt.
func WithPersistObserver(fn func(latency time.Duration, err error)) Option {
	return func(el *EventLog) { el.onPersist = fn }
}

// WithClock overrides the wall clock used to stamp events.
func WithClock(now func() time.Time) Option {
	return func(el *EventLog) { el.now = now }
}

// NewEventLog creates a new event log.
func NewEventLog(opts ...Option) *EventLog {
	el := &EventLog{
		events: make([]GameEvent, 0),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(el)
	}
	return el
}

// Subscribe registers fn for the given event types, or for every type when none are given.
func (el *EventLog) Subscribe(fn Handler, types ...EventType) *Subscription {
	el.mu.Lock()
	defer el.mu.Unlock()

	el.nextID++
	sub := &Subscription{log: el, id: el.nextID, fn: fn}
	if len(types) > 0 {
		sub.types = make(map[EventType]struct{}, len(types))
		for _, t := range types {
			sub.types[t] = struct{}{}
		}
	}
	el.subscribers = append(el.subscribers, sub)
	return sub
}

func (el *EventLog) remove(id uint64) {
	el.mu.Lock()
	defer el.mu.Unlock()

	for i, s := range el.subscribers {
		if s.id == id {
			el.subscribers = append(el.subscribers[:i:i], el.subscribers[i+1:]...)
			return
		}
	}
}

// Append stamps, records, persists and delivers an event. Events are immutable once appended.
func (el *EventLog) Append(event GameEvent) GameEvent {
	if event.ID == "" {
		event.ID = GenerateEventID()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = el.now()
	}
	if event.ActorID == "" {
		event.ActorID = ActorSystem
	}

	el.mu.Lock()
	el.events = append(el.events, event)
	subs := make([]*Subscription, len(el.subscribers))
	copy(subs, el.subscribers)
	el.mu.Unlock()

	if el.persister != nil {
		start := time.Now()
		err := el.persister.Append(event)
		if el.onPersist != nil {
			el.onPersist(time.Since(start), err)
		}
	}

	for _, s := range subs {
		if s.wants(event.Type) {
			s.fn(event)
		}
	}
	return event
}

// GetByActor returns all events performed by a specific actor.
func (el *EventLog) GetByActor(actorID string) []GameEvent {
	return el.filter(func(e GameEvent) bool { return e.ActorID == actorID })
}

// GetByDay returns all events that occurred on a specific game day.
func (el *EventLog) GetByDay(day int) []GameEvent {
	return el.filter(func(e GameEvent) bool { return e.GameDay == day })
}

// GetByType returns all events of one type.
func (el *EventLog) GetByType(t EventType) []GameEvent {
	return el.filter(func(e GameEvent) bool { return e.Type == t })
}

func (el *EventLog) filter(keep func(GameEvent) bool) []GameEvent {
	el.mu.RLock()
	defer el.mu.RUnlock()

	var result []GameEvent
	for _, e := range el.events {
		if keep(e) {
			result = append(result, e)
		}
	}
	return result
}

// Replay returns a copy of the full history of events.
func (el *EventLog) Replay() []GameEvent {
	el.mu.RLock()
	defer el.mu.RUnlock()

	out := make([]GameEvent, len(el.events))
	copy(out, el.events)
	return out
}

// Len reports how many events have been appended.
func (el *EventLog) Len() int {
	el.mu.RLock()
	defer el.mu.RUnlock()
	return len(el.events)
}

// GenerateEventID creates a unique event identifier.
func GenerateEventID() string {
	return uuid.NewString()
}
