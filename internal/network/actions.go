package network

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/MRamiBalles/ColdFront/server/internal/domain/family"
	"github.com/MRamiBalles/ColdFront/server/internal/domain/supply"
	"github.com/MRamiBalles/ColdFront/server/internal/engine"
)

// Action types a client may send.
const (
	ActionEat             = "EAT"
	ActionDrink           = "DRINK"
	ActionMedicate        = "MEDICATE"
	ActionSendForFood     = "SEND_FOR_FOOD"
	ActionTalk            = "TALK"
	ActionAddFuel         = "ADD_FUEL"
	ActionAddWater        = "ADD_WATER"
	ActionBreakFurniture  = "BREAK_FURNITURE"
	ActionRefuelFire      = "REFUEL_FIRE"
	ActionStokeFire       = "STOKE_FIRE"
	ActionGatherSnow      = "GATHER_SNOW"
	ActionPlaceBucket     = "PLACE_BUCKET"
	ActionTakeBucket      = "TAKE_BUCKET"
	ActionSleep           = "SLEEP"
	ActionSetMode         = "SET_MODE"
	ActionBack            = "BACK"
	ActionTogglePhone     = "TOGGLE_PHONE"
	ActionStartMinigame   = "START_MINIGAME"
	ActionSetInteractable = "SET_INTERACTABLE"
	ActionState           = "STATE"
	ActionHeadlines       = "HEADLINES"
)

// ActionTypes lists every action in a stable order.
func ActionTypes() []string {
	return []string{
		ActionEat, ActionDrink, ActionMedicate, ActionSendForFood, ActionTalk,
		ActionAddFuel, ActionAddWater, ActionBreakFurniture, ActionRefuelFire, ActionStokeFire,
		ActionGatherSnow, ActionPlaceBucket, ActionTakeBucket, ActionSleep,
		ActionSetMode, ActionBack, ActionTogglePhone, ActionStartMinigame, ActionSetInteractable,
		ActionState, ActionHeadlines,
	}
}

var (
	ErrUnknownAction = errors.New("unknown action")
	ErrBadPayload    = errors.New("malformed action payload")
	ErrRateLimited   = errors.New("too many actions")
	ErrNoFood        = errors.New("not enough food")
	ErrNoWater       = errors.New("not enough water")
	ErrNothingToSay  = errors.New("member has nothing to say")
)

// PlayerAction represents an incoming command from the frontend.
type PlayerAction struct {
	RequestID string          `json:"request_id,omitempty"` // Echoed back in the result
	Type      string          `json:"type"`
	Member    string          `json:"member,omitempty"`  // For the care actions
	Payload   json.RawMessage `json:"payload,omitempty"` // Action-specific data
}

// ActionResult answers one PlayerAction.
type ActionResult struct {
	RequestID string `json:"request_id,omitempty"`
	Type      string `json:"type"`
	OK        bool   `json:"ok"`
	Error     string `json:"error,omitempty"`
	Data      any    `json:"data,omitempty"`
}

func failed(action PlayerAction, err error) ActionResult {
	return ActionResult{RequestID: action.RequestID, Type: action.Type, Error: err.Error()}
}

// Dispatch runs the action on the simulation goroutine and wraps the outcome.
func Dispatch(ctx context.Context, d Dispatcher, action PlayerAction) ActionResult {
	var data any
	err := d.Do(ctx, func(e *engine.Engine) error {
		var err error
		data, err = Apply(e, action)
		return err
	})
	if err != nil {
		return failed(action, err)
	}
	return ActionResult{RequestID: action.RequestID, Type: action.Type, OK: true, Data: data}
}

// Apply performs one action against the engine. It must run on the
// simulation goroutine.
func Apply(e *engine.Engine, action PlayerAction) (any, error) {
	kind := strings.ToUpper(strings.TrimSpace(action.Type))

	switch kind {
	case ActionState:
		return e.Snapshot(), nil
	case ActionHeadlines:
		return e.Headlines(), nil
	}
	if e.Session().Over() {
		return nil, engine.ErrSessionOver
	}

	switch kind {
	case ActionEat, ActionDrink, ActionMedicate, ActionSendForFood, ActionTalk:
		return applyCare(e, kind, action.Member)

	case ActionAddFuel, ActionAddWater:
		p, err := decode[struct {
			Amount float64 `json:"amount"`
		}](action.Payload)
		if err != nil {
			return nil, err
		}
		if p.Amount <= 0 {
			return nil, fmt.Errorf("%w: amount must be positive", ErrBadPayload)
		}
		if kind == ActionAddFuel {
			e.Ledger().AddFuel(p.Amount)
		} else {
			e.Ledger().AddWater(p.Amount)
		}
		return e.Ledger().Snapshot(), nil

	case ActionBreakFurniture:
		p, err := decode[struct {
			Kind string `json:"kind"`
		}](action.Payload)
		if err != nil {
			return nil, err
		}
		k, err := supply.ParseFurnitureKind(p.Kind)
		if err != nil {
			return nil, err
		}
		pieces, err := e.Chores().BreakFurniture(k)
		if err != nil {
			return nil, err
		}
		return map[string]int{"pieces": pieces}, nil
	case ActionRefuelFire, ActionStokeFire:
		fire := e.Chores().RefuelFire
		if kind == ActionStokeFire {
			fire = e.Chores().StokeFire
		}
		if err := fire(); err != nil {
			return nil, err
		}
		return e.Ledger().Snapshot(), nil
	case ActionGatherSnow, ActionPlaceBucket:
		bucket := e.Chores().GatherSnow
		if kind == ActionPlaceBucket {
			bucket = e.Chores().PlaceBucket
		}
		if err := bucket(); err != nil {
			return nil, err
		}
		return e.Chores().View(), nil
	case ActionTakeBucket:
		water, err := e.Chores().TakeBucket()
		if err != nil {
			return nil, err
		}
		return map[string]float64{"water": water}, nil

	case ActionSleep:
		seconds, err := e.Sleep()
		if err != nil {
			return nil, err
		}
		return map[string]float64{"seconds": seconds}, nil

	case ActionSetMode:
		p, err := decode[struct {
			Mode engine.Mode `json:"mode"`
		}](action.Payload)
		if err != nil {
			return nil, err
		}
		return nil, e.Session().SetMode(engine.Mode(strings.ToUpper(string(p.Mode))))
	case ActionBack:
		return nil, e.Session().Back()
	case ActionTogglePhone:
		return nil, e.Session().TogglePhone()
	case ActionStartMinigame:
		p, err := decode[struct {
			Minigame engine.Minigame `json:"minigame"`
		}](action.Payload)
		if err != nil {
			return nil, err
		}
		return nil, e.Session().StartMinigame(engine.Minigame(strings.ToUpper(string(p.Minigame))))
	case ActionSetInteractable:
		p, err := decode[struct {
			Label string `json:"label"`
		}](action.Payload)
		if err != nil {
			return nil, err
		}
		e.Session().SetInteractable(p.Label)
		return nil, nil
	}

	return nil, fmt.Errorf("%w: %q", ErrUnknownAction, action.Type)
}

func applyCare(e *engine.Engine, kind, member string) (any, error) {
	id, err := family.ParseMemberID(member)
	if err != nil {
		return nil, err
	}
	c, err := e.Household().Member(id)
	if err != nil {
		return nil, err
	}

	switch kind {
	case ActionEat:
		if !c.EatFood() {
			return nil, ErrNoFood
		}
	case ActionDrink:
		if !c.DrinkWater() {
			return nil, ErrNoWater
		}
	case ActionMedicate:
		c.GiveMedicine()
	case ActionSendForFood:
		if err := c.SendForFood(); err != nil {
			return nil, err
		}
	case ActionTalk:
		line, ok := c.Talk()
		if !ok {
			return nil, ErrNothingToSay
		}
		return map[string]string{"text": line}, nil
	}
	return c.View(), nil
}

func decode[T any](raw json.RawMessage) (T, error) {
	var v T
	if len(raw) == 0 {
		return v, nil
	}
	if err := json.Unmarshal(raw, &v); err != nil {
		return v, fmt.Errorf("%w: %v", ErrBadPayload, err)
	}
	return v, nil
}
