package engine

import (
	"context"
	"errors"
	"math/rand/v2"
	"time"

	"github.com/MRamiBalles/ColdFront/server/internal/content"
	"github.com/MRamiBalles/ColdFront/server/internal/domain/family"
	"github.com/MRamiBalles/ColdFront/server/internal/domain/rules"
	"github.com/MRamiBalles/ColdFront/server/internal/domain/supply"
	"github.com/MRamiBalles/ColdFront/server/internal/events"
	"github.com/MRamiBalles/ColdFront/server/internal/platform/config"
	"github.com/MRamiBalles/ColdFront/server/internal/platform/logger"
	"github.com/MRamiBalles/ColdFront/server/internal/platform/metrics"
)

// ErrNotActive is returned for in-game actions while time is frozen.
var ErrNotActive = errors.New("game is not running")

// Snapshot is the full read model of a session.
type Snapshot struct {
	SessionID    string           `json:"session_id"`
	Mode         Mode             `json:"mode"`
	Minigame     Minigame         `json:"minigame,omitempty"`
	Interactable string           `json:"interactable,omitempty"`
	Day          int              `json:"day"`
	Hour         int              `json:"hour"`
	Minute       int              `json:"minute"`
	Clock        string           `json:"clock"`
	Resources    ResourceSnapshot `json:"resources"`
	Members      []CharacterView  `json:"members"`
	Chores       ChoresView       `json:"chores"`
	Totals       Totals           `json:"totals"`
}

type options struct {
	logger    *logger.Logger
	eventLog  *events.EventLog
	catalog   *content.Catalog
	rng       rules.Intn
	metrics   *metrics.Collector
	startMode Mode
	sessionID string
}

// Option configures an Engine.
type Option func(*options)

func WithLogger(l *logger.Logger) Option { return func(o *options) { o.logger = l } }
func WithEventLog(el *events.EventLog) Option { return func(o *options) { o.eventLog = el } }
func WithCatalog(c *content.Catalog) Option { return func(o *options) { o.catalog = c } }
func WithRand(r rules.Intn) Option { return func(o *options) { o.rng = r } }
func WithMetrics(m *metrics.Collector) Option { return func(o *options) { o.metrics = m } }
func WithStartMode(m Mode) Option { return func(o *options) { o.startMode = m } }

// WithSessionID fixes the session id, so storage can be prepared before the engine exists.
func WithSessionID(id string) Option { return func(o *options) { o.sessionID = id } }

// Engine is the central orchestrator that wires one session's components
// together and drives them from a single goroutine.
type Engine struct {
	cfg      config.Simulation
	eventLog *events.EventLog
	logger   *logger.Logger
	metrics  *metrics.Collector

	pub       publisher
	clock     *Clock
	ledger    *Ledger
	stats     *Stats
	household *Household
	session   *Session
	chores    *Chores
	dialogue  *Dialogue

	subs     []*events.Subscription
	commands chan func()
}

// NewRand returns the random source for a seed. Zero picks a time-based seed.
func NewRand(seed int64) *rand.Rand {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return rand.New(rand.NewPCG(uint64(seed), uint64(seed)>>1|1))
}

// New initializes the session components and subscribes them to the event log.
func New(cfg config.Simulation, opts ...Option) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	o := options{startMode: ModeMenu}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = logger.Discard()
	}
	if o.eventLog == nil {
		o.eventLog = events.NewEventLog()
	}
	if o.metrics == nil {
		o.metrics = metrics.New()
	}
	if o.rng == nil {
		o.rng = NewRand(cfg.Seed)
	}
	if o.catalog == nil {
		c, err := content.Default()
		if err != nil {
			return nil, err
		}
		o.catalog = c
	}

	e := &Engine{
		cfg:      cfg,
		eventLog: o.eventLog,
		logger:   o.logger,
		metrics:  o.metrics,
		stats:    NewStats(),
		commands: make(chan func()),
	}

	e.session = NewSession(cfg.Session, o.startMode, o.logger)
	if o.sessionID != "" {
		e.session.id = o.sessionID
	}
	e.clock = NewClock(cfg.Clock, e.session, o.eventLog, o.logger)
	pub := publisher{log: o.eventLog, clock: e.clock}
	e.pub = pub
	e.session.pub = pub
	e.session.summarize = e.summarize

	e.ledger = NewLedger(cfg.Resources, e.session, e.stats, pub, o.logger)
	e.dialogue = NewDialogue(o.catalog, o.rng)

	members := make([]*Character, 0, len(family.All()))
	for _, id := range family.All() {
		members = append(members, NewCharacter(id, cfg.Family, e.ledger, e.clock, e.dialogue, o.rng, e.session, pub, o.logger))
	}
	e.household = NewHousehold(cfg.Household, e.ledger, o.logger, members...)
	e.chores = NewChores(cfg.Chores, e.session, e.ledger, supply.NewFurniture(), o.logger)

	e.subs = []*events.Subscription{
		o.eventLog.Subscribe(e.onDayChanged, events.EventTypeDayChanged),
		o.eventLog.Subscribe(e.onHourChanged, events.EventTypeHourChanged),
		o.eventLog.Subscribe(e.onTimeSkipped, events.EventTypeTimeSkipped),
		o.eventLog.Subscribe(e.observe),
	}

	e.logger.Info("session created", "session", e.session.ID(), "mode", e.session.Mode())
	return e, nil
}

// Close detaches the session from the event log.
func (e *Engine) Close() {
	for _, s := range e.subs {
		s.Unsubscribe()
	}
	e.subs = nil
}

func (e *Engine) onDayChanged(events.GameEvent) {
	e.household.OnNewDay()
	e.session.OnNewDay(e.clock.Days())
}

func (e *Engine) onHourChanged(ev events.GameEvent) {
	if p, ok := ev.Payload.(HourChangedPayload); ok {
		e.household.OnHourChanged(p.Hour)
	}
}

func (e *Engine) onTimeSkipped(ev events.GameEvent) {
	if p, ok := ev.Payload.(TimeSkippedPayload); ok {
		e.ledger.ApplyTimeSkip(p.Seconds)
	}
}

func (e *Engine) observe(ev events.GameEvent) {
	e.metrics.RecordEvent(string(ev.Type))

	switch ev.Type {
	case events.EventTypeErrandStarted, events.EventTypeErrandReturned,
		events.EventTypeMemberUnconscious, events.EventTypePlayerSlept:
		e.logger.Event(string(ev.Type), ev.ActorID, e.clock.Timestamp().String())
	case events.EventTypeSessionEnded:
		if p, ok := ev.Payload.(SessionEndedPayload); ok {
			e.metrics.RecordSessionEnd(p.Summary.Won)
		}
		e.logger.Event(string(ev.Type), ev.ActorID, e.clock.Timestamp().String())
	}
}

// Step advances the whole simulation by dt of real time.
func (e *Engine) Step(dt time.Duration) {
	start := time.Now()
	e.clock.Advance(dt)
	e.ledger.Step(dt)
	e.chores.Step(dt)
	e.metrics.RecordStep(time.Since(start))
}

// Run steps the simulation in real time until ctx is done. Commands submitted
// through Do run on this goroutine between steps.
func (e *Engine) Run(ctx context.Context, interval time.Duration) error {
	e.logger.Info("simulation loop started", "interval", interval)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	last := time.Now()
	for {
		select {
		case <-ctx.Done():
			e.logger.Info("simulation loop stopped")
			return ctx.Err()
		case cmd := <-e.commands:
			cmd()
		case now := <-ticker.C:
			e.Step(now.Sub(last))
			last = now
		}
	}
}

// Do runs fn on the simulation goroutine and waits for its result.
// It blocks until Run picks the command up or ctx is done.
func (e *Engine) Do(ctx context.Context, fn func(*Engine) error) error {
	done := make(chan error, 1)
	select {
	case e.commands <- func() { done <- fn(e) }:
	case <-ctx.Done():
		return ctx.Err()
	}

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Sleep skips to the next morning and records it.
func (e *Engine) Sleep() (float64, error) {
	if e.session.Over() {
		return 0, ErrSessionOver
	}
	if !e.session.IsActive() {
		return 0, ErrNotActive
	}

	e.stats.Slept()
	seconds := e.clock.Sleep()
	e.pub.publish(events.EventTypePlayerSlept, events.ActorSystem, "", PlayerSleptPayload{
		Seconds:    seconds,
		TimesSlept: e.stats.Totals().TimesSlept,
	})
	return seconds, nil
}

func (e *Engine) summarize(won bool) Summary {
	current := e.ledger.Temperature()
	lo, hi, ok := e.stats.TemperatureRange()
	if !ok {
		lo, hi = current, current
	}

	outcomes := make([]MemberOutcome, 0, len(e.household.Members()))
	for _, c := range e.household.Members() {
		outcomes = append(outcomes, MemberOutcome{ID: c.ID(), Survived: !c.Unconscious()})
	}

	return Summary{
		DaysSurvived:       e.clock.Days(),
		Totals:             e.stats.Totals(),
		AverageTemperature: e.stats.AverageTemperature(current),
		LowestTemperature:  lo,
		HighestTemperature: hi,
		Members:            outcomes,
	}
}

// Snapshot returns the current read model.
func (e *Engine) Snapshot() Snapshot {
	views := make([]CharacterView, 0, len(e.household.Members()))
	for _, c := range e.household.Members() {
		views = append(views, c.View())
	}
	return Snapshot{
		SessionID:    e.session.ID(),
		Mode:         e.session.Mode(),
		Minigame:     e.session.Minigame(),
		Interactable: e.session.Interactable(),
		Day:          e.clock.Days(),
		Hour:         e.clock.Hour(),
		Minute:       e.clock.Minute(),
		Clock:        e.clock.String(),
		Resources:    e.ledger.Snapshot(),
		Members:      views,
		Chores:       e.chores.View(),
		Totals:       e.stats.Totals(),
	}
}

// Headlines returns the phone news published so far.
func (e *Engine) Headlines() []content.NewsItem {
	return e.dialogue.Headlines(e.clock.Days())
}

func (e *Engine) Config() config.Simulation { return e.cfg }
func (e *Engine) EventLog() *events.EventLog { return e.eventLog }
func (e *Engine) Clock() *Clock { return e.clock }
func (e *Engine) Ledger() *Ledger { return e.ledger }
func (e *Engine) Stats() *Stats { return e.stats }
func (e *Engine) Household() *Household { return e.household }
func (e *Engine) Session() *Session { return e.session }
func (e *Engine) Chores() *Chores { return e.chores }
func (e *Engine) Metrics() *metrics.Collector { return e.metrics }
