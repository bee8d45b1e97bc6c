package engine

import (
	"errors"
	"time"

	"github.com/MRamiBalles/ColdFront/server/internal/domain/supply"
	"github.com/MRamiBalles/ColdFront/server/internal/platform/config"
	"github.com/MRamiBalles/ColdFront/server/internal/platform/logger"
)

// BucketState is the content of the snow bucket.
type BucketState string

const (
	BucketEmpty  BucketState = "EMPTY"
	BucketSnowy  BucketState = "SNOWY"
	BucketWater  BucketState = "WATER"
	BucketBoiled BucketState = "BOILED"
)

var (
	ErrNoWood          = errors.New("woodpile is empty")
	ErrFireFull        = errors.New("fire cannot take more fuel")
	ErrNoFire          = errors.New("fire is not lit")
	ErrCooldown        = errors.New("fire was stoked too recently")
	ErrBucketFull      = errors.New("bucket is already full of snow")
	ErrBucketEmpty     = errors.New("bucket has nothing to melt")
	ErrBucketBusy      = errors.New("bucket is on the fire")
	ErrBucketNotPlaced = errors.New("bucket is not on the fire")
)

// ChoresView is the read model of the chores for UI layers.
type ChoresView struct {
	Wood          int                          `json:"wood"`
	Furniture     map[supply.FurnitureKind]int `json:"furniture"`
	Snow          int                          `json:"snow"`
	Bucket        BucketState                  `json:"bucket"`
	BucketPlaced  bool                         `json:"bucket_placed"`
	StokeCooldown time.Duration                `json:"stoke_cooldown"`
}

// Chores turns the player's work around the house into resources: breaking
// furniture for firewood, feeding the fire and melting snow for water.
type Chores struct {
	cfg       config.Chores
	gate      Gate
	ledger    *Ledger
	furniture *supply.Furniture
	logger    *logger.Logger

	snow      int
	bucket    BucketState
	placed    bool
	meltTimer time.Duration
	cooldown  time.Duration
}

func NewChores(cfg config.Chores, gate Gate, ledger *Ledger, furniture *supply.Furniture, log *logger.Logger) *Chores {
	return &Chores{
		cfg:       cfg,
		gate:      gate,
		ledger:    ledger,
		furniture: furniture,
		logger:    log,
		bucket:    BucketEmpty,
	}
}

// BreakFurniture smashes one item into wood pieces.
func (c *Chores) BreakFurniture(kind supply.FurnitureKind) (int, error) {
	pieces, err := c.furniture.Break(kind)
	if err != nil {
		return 0, err
	}
	c.logger.Info("furniture broken", "kind", kind, "pieces", pieces, "wood", c.furniture.Wood)
	return pieces, nil
}

// RefuelFire feeds one wood piece to the fire.
func (c *Chores) RefuelFire() error {
	if c.ledger.Fuel() >= c.cfg.FireCapacity {
		return ErrFireFull
	}
	if !c.furniture.TakeWood() {
		return ErrNoWood
	}
	c.ledger.AddFuel(c.cfg.FuelPerPiece)
	return nil
}

// StokeFire gives the room a burst of warmth, then needs to cool down.
func (c *Chores) StokeFire() error {
	if c.ledger.Fuel() <= 0 {
		return ErrNoFire
	}
	if c.cooldown > 0 {
		return ErrCooldown
	}
	c.ledger.Warm(c.cfg.StokeWarmth)
	c.cooldown = c.cfg.StokeCooldown
	return nil
}

// GatherSnow drops one snowball in the bucket.
func (c *Chores) GatherSnow() error {
	if c.placed {
		return ErrBucketBusy
	}
	if c.bucket != BucketEmpty {
		return ErrBucketFull
	}
	c.snow++
	if c.snow >= c.cfg.SnowPerBucket {
		c.bucket = BucketSnowy
	}
	return nil
}

// PlaceBucket puts the bucket on the fire to melt.
func (c *Chores) PlaceBucket() error {
	if c.placed {
		return ErrBucketBusy
	}
	if c.bucket == BucketEmpty {
		return ErrBucketEmpty
	}
	c.placed = true
	c.meltTimer = 0
	return nil
}

// TakeBucket lifts the bucket off the fire. Boiled water goes to the stores.
func (c *Chores) TakeBucket() (float64, error) {
	if !c.placed {
		return 0, ErrBucketNotPlaced
	}
	c.placed = false
	c.meltTimer = 0

	if c.bucket != BucketBoiled {
		return 0, nil
	}
	c.ledger.AddWater(c.cfg.WaterPerBucket)
	c.empty()
	return c.cfg.WaterPerBucket, nil
}

// Step advances the fire cooldown and the melting bucket.
func (c *Chores) Step(dt time.Duration) {
	if dt <= 0 || !c.gate.IsActive() {
		return
	}

	c.cooldown = max(c.cooldown-dt, 0)

	if !c.placed || c.bucket == BucketEmpty {
		return
	}
	c.meltTimer += dt
	for c.meltTimer >= c.cfg.MeltStage && c.bucket != BucketEmpty {
		c.meltTimer -= c.cfg.MeltStage
		switch c.bucket {
		case BucketSnowy:
			c.bucket = BucketWater
		case BucketWater:
			c.bucket = BucketBoiled
		case BucketBoiled:
			c.logger.Warn("water boiled over")
			c.empty()
		}
	}
}

func (c *Chores) empty() {
	c.bucket = BucketEmpty
	c.snow = 0
}

func (c *Chores) Bucket() BucketState { return c.bucket }

func (c *Chores) View() ChoresView {
	standing := make(map[supply.FurnitureKind]int, len(c.furniture.Standing))
	for k, n := range c.furniture.Standing {
		standing[k] = n
	}
	return ChoresView{
		Wood:          c.furniture.Wood,
		Furniture:     standing,
		Snow:          c.snow,
		Bucket:        c.bucket,
		BucketPlaced:  c.placed,
		StokeCooldown: c.cooldown,
	}
}
