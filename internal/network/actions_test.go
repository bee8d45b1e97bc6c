package network

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/MRamiBalles/ColdFront/server/internal/domain/family"
	"github.com/MRamiBalles/ColdFront/server/internal/domain/supply"
	"github.com/MRamiBalles/ColdFront/server/internal/engine"
	"github.com/MRamiBalles/ColdFront/server/internal/platform/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestEngine(t *testing.T, start engine.Mode) *engine.Engine {
	t.Helper()
	e, err := engine.New(config.Defaults(), engine.WithStartMode(start))
	require.NoError(t, err)
	t.Cleanup(e.Close)
	return e
}

// runEngine drives e on its own goroutine until the test ends.
func runEngine(t *testing.T, e *engine.Engine) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = e.Run(ctx, 10*time.Millisecond)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})
}

func act(typ, member string, payload any) PlayerAction {
	a := PlayerAction{Type: typ, Member: member}
	if payload != nil {
		raw, _ := json.Marshal(payload)
		a.Payload = raw
	}
	return a
}

func TestApplyCareActions(t *testing.T) {
	e := newTestEngine(t, engine.ModePlaying)

	data, err := Apply(e, act(ActionEat, "Husband", nil))
	require.NoError(t, err)
	view, ok := data.(engine.CharacterView)
	require.True(t, ok)
	assert.Equal(t, family.Husband, view.ID)
	assert.Equal(t, 9, e.Ledger().Food())

	_, err = Apply(e, act(ActionDrink, "son", nil))
	require.NoError(t, err)
	assert.InDelta(t, 9.0, e.Ledger().Water(), 1e-9)

	_, err = Apply(e, act(ActionEat, "grandma", nil))
	assert.ErrorIs(t, err, family.ErrUnknownMember)

	data, err = Apply(e, act(ActionTalk, "daughter", nil))
	require.NoError(t, err)
	assert.NotEmpty(t, data.(map[string]string)["text"])

	_, err = Apply(e, act(ActionSendForFood, "daughter", nil))
	require.NoError(t, err)
	_, err = Apply(e, act(ActionSendForFood, "daughter", nil))
	assert.ErrorIs(t, err, family.ErrAlreadyOut)
	_, err = Apply(e, act(ActionTalk, "daughter", nil))
	assert.ErrorIs(t, err, ErrNothingToSay)
}

func TestApplyEatWithoutFood(t *testing.T) {
	e := newTestEngine(t, engine.ModePlaying)
	require.True(t, e.Ledger().ConsumeFood(10))

	_, err := Apply(e, act(ActionEat, "son", nil))
	assert.ErrorIs(t, err, ErrNoFood)
}

func TestApplyFireChores(t *testing.T) {
	e := newTestEngine(t, engine.ModePlaying)

	_, err := Apply(e, act(ActionBreakFurniture, "", map[string]string{"kind": "throne"}))
	assert.Error(t, err)

	data, err := Apply(e, act(ActionBreakFurniture, "", map[string]string{"kind": "chair"}))
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"pieces": 1}, data)
	assert.Equal(t, 3, e.Chores().View().Furniture[supply.FurnitureChair])

	data, err = Apply(e, act(ActionRefuelFire, "", nil))
	require.NoError(t, err)
	assert.Equal(t, 10.0, data.(engine.ResourceSnapshot).Fuel)

	_, err = Apply(e, act(ActionRefuelFire, "", nil))
	assert.ErrorIs(t, err, engine.ErrNoWood)

	data, err = Apply(e, act(ActionStokeFire, "", nil))
	require.NoError(t, err)
	assert.Equal(t, 65.0, data.(engine.ResourceSnapshot).Temperature)
	_, err = Apply(e, act(ActionStokeFire, "", nil))
	assert.ErrorIs(t, err, engine.ErrCooldown)
}

func TestApplyLedgerActions(t *testing.T) {
	e := newTestEngine(t, engine.ModePlaying)

	_, err := Apply(e, act(ActionAddWater, "", map[string]float64{"amount": 2.5}))
	require.NoError(t, err)
	assert.InDelta(t, 12.5, e.Ledger().Water(), 1e-9)

	_, err = Apply(e, act(ActionAddFuel, "", map[string]float64{"amount": -1}))
	assert.ErrorIs(t, err, ErrBadPayload)

	_, err = Apply(e, PlayerAction{Type: ActionAddFuel, Payload: json.RawMessage(`{"amount":`)})
	assert.ErrorIs(t, err, ErrBadPayload)
}

func TestApplySnowActions(t *testing.T) {
	e := newTestEngine(t, engine.ModePlaying)

	for i := 0; i < 6; i++ {
		_, err := Apply(e, act(ActionGatherSnow, "", nil))
		require.NoError(t, err)
	}
	data, err := Apply(e, act(ActionPlaceBucket, "", nil))
	require.NoError(t, err)
	assert.True(t, data.(engine.ChoresView).BucketPlaced)

	e.Step(6 * time.Second)
	data, err = Apply(e, act(ActionTakeBucket, "", nil))
	require.NoError(t, err)
	assert.Equal(t, map[string]float64{"water": 10}, data)
}

func TestApplyModeActions(t *testing.T) {
	e := newTestEngine(t, engine.ModeMenu)

	_, err := Apply(e, act(ActionBack, "", nil))
	assert.ErrorIs(t, err, engine.ErrInvalidTransition)

	_, err = Apply(e, act(ActionSetMode, "", map[string]string{"mode": "playing"}))
	require.NoError(t, err)
	_, err = Apply(e, act(ActionStartMinigame, "", map[string]string{"minigame": "snow_melting"}))
	require.NoError(t, err)
	assert.Equal(t, engine.MinigameSnowMelting, e.Session().Minigame())

	_, err = Apply(e, act(ActionTogglePhone, "", nil))
	assert.ErrorIs(t, err, engine.ErrInvalidTransition)
	_, err = Apply(e, act(ActionBack, "", nil))
	require.NoError(t, err)
	_, err = Apply(e, act(ActionTogglePhone, "", nil))
	require.NoError(t, err)
	assert.Equal(t, engine.ModePhone, e.Session().Mode())

	_, err = Apply(e, act(ActionSetInteractable, "", map[string]string{"label": "Front door"}))
	require.NoError(t, err)
	assert.Equal(t, "Front door", e.Session().Interactable())
}

func TestApplySetModeCannotEndSession(t *testing.T) {
	e := newTestEngine(t, engine.ModeMenu)

	for _, mode := range []string{"won", "LOST"} {
		_, err := Apply(e, act(ActionSetMode, "", map[string]string{"mode": mode}))
		assert.ErrorIs(t, err, engine.ErrInvalidTransition, mode)
	}
	assert.Equal(t, engine.ModeMenu, e.Session().Mode())
	assert.False(t, e.Session().Over())
	_, ok := e.Session().Summary()
	assert.False(t, ok)
}

func TestApplySleep(t *testing.T) {
	e := newTestEngine(t, engine.ModePlaying)

	e.Step(5 * time.Second)
	require.Equal(t, 8, e.Clock().Hour())

	data, err := Apply(e, act(ActionSleep, "", nil))
	require.NoError(t, err)
	// 22 game hours until the next morning.
	assert.InDelta(t, 55.0, data.(map[string]float64)["seconds"], 1e-9)
}

func TestApplyAfterSessionEnd(t *testing.T) {
	e := newTestEngine(t, engine.ModePlaying)
	e.Session().EndSession(false)

	_, err := Apply(e, act(ActionEat, "son", nil))
	assert.ErrorIs(t, err, engine.ErrSessionOver)

	data, err := Apply(e, act(ActionState, "", nil))
	require.NoError(t, err)
	assert.Equal(t, engine.ModeLost, data.(engine.Snapshot).Mode)

	_, err = Apply(e, act("headlines", "", nil))
	assert.NoError(t, err)
}

func TestApplyUnknownAction(t *testing.T) {
	e := newTestEngine(t, engine.ModePlaying)

	_, err := Apply(e, act("DANCE", "", nil))
	assert.ErrorIs(t, err, ErrUnknownAction)
}

func TestDispatchRunsOnEngineGoroutine(t *testing.T) {
	e := newTestEngine(t, engine.ModePaused)
	runEngine(t, e)

	res := Dispatch(context.Background(), e, PlayerAction{RequestID: "r1", Type: ActionEat, Member: "son"})
	assert.True(t, res.OK)
	assert.Equal(t, "r1", res.RequestID)

	res = Dispatch(context.Background(), e, PlayerAction{RequestID: "r2", Type: ActionEat, Member: "nobody"})
	assert.False(t, res.OK)
	assert.Contains(t, res.Error, "unknown family member")
}
