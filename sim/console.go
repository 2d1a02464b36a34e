package sim

import (
	"fmt"
	"math"

	"github.com/sirupsen/logrus"
	"github.com/zyedidia/generic/mapset"

	"github.com/arcade-sim/arcade-sim/sim/geom"
)

// ConsoleState is the lifecycle state of a console.
type ConsoleState string

const (
	Operational ConsoleState = "operational"
	InUse       ConsoleState = "in-use"
	Broken      ConsoleState = "broken"
	UnderRepair ConsoleState = "under-repair"
)

// ConsoleSize is the edge length in pixels of a console's floor footprint.
const ConsoleSize = 40.0

// MinRepairTime is the floor applied to every effective repair duration (ms).
const MinRepairTime int64 = 100

// Console is a shared station guests queue for and use. It admits a single
// occupant at a time; further guests wait in its bounded queue.
//
// Figures (Cost, Revenue, MaxDurability, RepairTime, Appeal) are the tier-1
// catalogue values rescaled by the current tier's multipliers.
type Console struct {
	ID       string
	Type     ConsoleType
	Position geom.Vec2
	Tier     int

	Cost          int
	Revenue       int
	MaxDurability int
	RepairTime    int64
	Appeal        float64

	Durability int
	State      ConsoleState
	TotalUses  int

	queue        GuestQueue
	currentUsers mapset.Set[*Guest]
	appealing    mapset.Set[GuestType]

	familyFriendly      bool
	repairStartedAt     int64
	effectiveRepairTime int64
}

// NewConsole creates a tier-1, fully durable, operational console.
// Returns an ErrInvalidType error if t is not in the catalogue.
func NewConsole(id string, t ConsoleType, pos geom.Vec2) (*Console, error) {
	if _, err := ParseConsoleType(string(t)); err != nil {
		return nil, err
	}
	stats := t.Stats()
	c := &Console{
		ID:             id,
		Type:           t,
		Position:       pos,
		Tier:           1,
		State:          Operational,
		currentUsers:   mapset.New[*Guest](),
		appealing:      mapset.New[GuestType](),
		familyFriendly: stats.FamilyFriendly,
	}
	for _, gt := range stats.AppealingTypes {
		c.appealing.Put(gt)
	}
	c.applyTier()
	c.Durability = c.MaxDurability
	return c, nil
}

func (c *Console) applyTier() {
	base := c.Type.Stats()
	m := TierMultipliersFor(c.Tier)
	c.Cost = int(math.Round(float64(base.Cost) * m.Cost))
	c.Revenue = int(math.Round(float64(base.Revenue) * m.Revenue))
	c.MaxDurability = int(math.Round(float64(base.Durability) * m.Durability))
	c.RepairTime = int64(math.Round(float64(base.RepairTime) * m.RepairTime))
	c.Appeal = base.Appeal * m.Appeal
}

// IsWorking reports whether the console can serve guests now or after the
// current occupant leaves (operational or in use).
func (c *Console) IsWorking() bool {
	return c.State == Operational || c.State == InUse
}

// IsIdle reports whether the console is operational with nobody on it.
func (c *Console) IsIdle() bool {
	return c.State == Operational && c.currentUsers.Size() == 0
}

// AcceptsDirect reports whether a guest may walk up and start playing without
// queueing: idle and nobody waiting.
func (c *Console) AcceptsDirect() bool {
	return c.IsIdle() && c.queue.Len() == 0
}

// AppealsTo reports whether t is one of the guest kinds this model targets.
func (c *Console) AppealsTo(t GuestType) bool {
	return c.appealing.Has(t)
}

// FamilyFriendly reports whether the model gets the family queue bonus.
func (c *Console) FamilyFriendly() bool {
	return c.familyFriendly
}

// CurrentUsers returns the number of occupants (0 or 1).
func (c *Console) CurrentUsers() int {
	return c.currentUsers.Size()
}

// HasUser reports whether g currently occupies the console.
func (c *Console) HasUser(g *Guest) bool {
	return c.currentUsers.Has(g)
}

// Footprint returns the floor rectangle the console blocks for pathfinding.
func (c *Console) Footprint() geom.Rect {
	return geom.RectAround(c.Position, ConsoleSize, ConsoleSize)
}

// Use admits g as the occupant and wears the console by one use.
// Returns broke=true when this use exhausted durability.
// Fails with ErrIllegalState unless the console is operational.
func (c *Console) Use(g *Guest) (broke bool, err error) {
	if c.State != Operational {
		return false, fmt.Errorf("console %s is %s: %w", c.ID, c.State, ErrIllegalState)
	}
	c.Durability--
	c.TotalUses++
	if g != nil {
		c.currentUsers.Put(g)
	}
	if c.Durability <= 0 {
		c.Durability = 0
		c.State = Broken
		logrus.Infof("console %s broke down after %d uses", c.ID, c.TotalUses)
		return true, nil
	}
	c.State = InUse
	return false, nil
}

// FinishUse releases g. An in-use console with durability left returns to
// operational; a broken console stays broken.
func (c *Console) FinishUse(g *Guest) {
	if g != nil {
		c.currentUsers.Remove(g)
	}
	if c.State == InUse && c.Durability > 0 && c.currentUsers.Size() == 0 {
		c.State = Operational
	}
}

// StartRepair puts a broken console under repair at clock now and returns the
// effective repair duration max(MinRepairTime, floor(RepairTime/multiplier)).
// The multiplier models both faster-repair upgrades and temporary boosts;
// non-positive values are treated as 1.
// Fails with ErrIllegalState unless the console is broken.
func (c *Console) StartRepair(now int64, multiplier float64) (int64, error) {
	if c.State != Broken {
		return 0, fmt.Errorf("console %s is %s, not broken: %w", c.ID, c.State, ErrIllegalState)
	}
	if multiplier <= 0 || math.IsNaN(multiplier) || math.IsInf(multiplier, 0) {
		logrus.Warnf("console %s: invalid repair multiplier %v, using 1.0", c.ID, multiplier)
		multiplier = 1.0
	}
	c.effectiveRepairTime = max(MinRepairTime, int64(math.Floor(float64(c.RepairTime)/multiplier)))
	c.repairStartedAt = now
	c.State = UnderRepair
	return c.effectiveRepairTime, nil
}

// EffectiveRepairTime returns the duration computed by the last StartRepair.
func (c *Console) EffectiveRepairTime() int64 {
	return c.effectiveRepairTime
}

// RepairProgress returns the completed fraction of an ongoing repair in [0,1].
// Returns 0 when the console is not under repair.
func (c *Console) RepairProgress(now int64) float64 {
	if c.State != UnderRepair || c.effectiveRepairTime <= 0 {
		return 0
	}
	return min(1, float64(now-c.repairStartedAt)/float64(c.effectiveRepairTime))
}

// UpdateRepair completes an ongoing repair once its duration has elapsed,
// restoring full durability. Returns true on the tick the repair completes.
func (c *Console) UpdateRepair(now int64) bool {
	if c.State != UnderRepair {
		return false
	}
	if now-c.repairStartedAt < c.effectiveRepairTime {
		return false
	}
	c.Durability = c.MaxDurability
	c.State = Operational
	logrus.Infof("console %s repaired at %d ms", c.ID, now)
	return true
}

// UpgradeCost returns the price of moving to the next tier, or 0 at MaxTier.
func (c *Console) UpgradeCost() int {
	if c.Tier >= MaxTier {
		return 0
	}
	next := TierMultipliersFor(c.Tier + 1)
	return int(math.Round(float64(c.Type.Stats().Cost)*next.Cost)) - c.Cost
}

// Upgrade raises the console one tier, rescaling its figures while keeping
// the current-to-max durability ratio.
// Fails with ErrIllegalState at MaxTier or while occupied or under repair.
func (c *Console) Upgrade() error {
	if c.Tier >= MaxTier {
		return fmt.Errorf("console %s already at tier %d: %w", c.ID, c.Tier, ErrIllegalState)
	}
	if c.State == InUse || c.State == UnderRepair {
		return fmt.Errorf("console %s is %s: %w", c.ID, c.State, ErrIllegalState)
	}
	ratio := float64(c.Durability) / float64(c.MaxDurability)
	c.Tier++
	c.applyTier()
	c.Durability = int(math.Round(ratio * float64(c.MaxDurability)))
	return nil
}

// AddToQueue puts g at the back of the console's queue. No-op returning
// false if g is already queued or the queue is full.
func (c *Console) AddToQueue(g *Guest) bool {
	return c.queue.Enqueue(g)
}

// RemoveFromQueue takes g out of the queue. No-op returning false if absent.
func (c *Console) RemoveFromQueue(g *Guest) bool {
	return c.queue.Remove(g)
}

// Queue returns the guests in line, head first. Callers MUST NOT modify it.
func (c *Console) Queue() []*Guest {
	return c.queue.Items()
}

// QueueLength returns the number of guests in line.
func (c *Console) QueueLength() int {
	return c.queue.Len()
}

// QueueFull reports whether the queue has reached MaxQueueLength.
func (c *Console) QueueFull() bool {
	return c.queue.Full()
}

// QueueSlot returns the floor position of the idx-th place in line, stacked
// below the console.
func (c *Console) QueueSlot(idx int) geom.Vec2 {
	return geom.Vec2{X: c.Position.X, Y: c.Position.Y + ConsoleSize/2 + QueueSpacing*float64(idx+1)}
}

// QueueSpacing is the distance in pixels between consecutive queue slots.
const QueueSpacing = 24.0

func (c *Console) String() string {
	return fmt.Sprintf("Console: (ID: %s, Type: %s, Tier: %d, State: %s, Durability: %d/%d, Queue: %d)",
		c.ID, c.Type, c.Tier, c.State, c.Durability, c.MaxDurability, c.queue.Len())
}
