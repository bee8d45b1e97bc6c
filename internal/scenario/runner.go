package scenario

import (
	"errors"
	"fmt"
	"time"

	"github.com/MRamiBalles/ColdFront/server/internal/engine"
	"github.com/MRamiBalles/ColdFront/server/internal/platform/logger"
)

// ErrUndecided is returned when the day limit passes before a win or a loss.
var ErrUndecided = errors.New("session did not end within the day limit")

// Runner drives an engine with fixed steps, like a frame loop without the frames.
type Runner struct {
	Step    time.Duration
	MaxDays int
	Logger  *logger.Logger
}

// Run plays the session to its end. A session still in the menu is started first.
func (r Runner) Run(e *engine.Engine, s Strategy) (engine.Summary, error) {
	if r.Step <= 0 {
		return engine.Summary{}, fmt.Errorf("step must be positive, got %s", r.Step)
	}
	log := r.Logger
	if log == nil {
		log = logger.Discard()
	}
	maxDays := r.MaxDays
	if maxDays <= 0 {
		maxDays = 2 * e.Config().Session.DaysToWin
	}

	if e.Session().Mode() == engine.ModeMenu {
		if err := e.Session().SetMode(engine.ModePlaying); err != nil {
			return engine.Summary{}, err
		}
	}

	log.Info("scenario started", "strategy", s.Name(), "step", r.Step, "max_days", maxDays)
	for !e.Session().Over() && e.Clock().Days() < maxDays {
		if err := s.Act(e); err != nil {
			return engine.Summary{}, fmt.Errorf("%s on day %d: %w", s.Name(), e.Clock().Days(), err)
		}
		e.Step(r.Step)
	}

	summary, ok := e.Session().Summary()
	if !ok {
		return engine.Summary{}, ErrUndecided
	}
	log.Info("scenario finished", "strategy", s.Name(), "won", summary.Won, "days", summary.DaysSurvived)
	return summary, nil
}
