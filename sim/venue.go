package sim

import (
	"fmt"
	"math"
	"math/rand"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/arcade-sim/arcade-sim/sim/geom"
	"github.com/arcade-sim/arcade-sim/sim/pathfinding"
	"github.com/arcade-sim/arcade-sim/sim/trace"
	"github.com/arcade-sim/arcade-sim/sim/workload"
)

// Venue owns every guest and console of a simulated arcade and advances them
// on a simulated millisecond clock.
//
// Guests removed during a tick are only marked; the arena is compacted once
// the tick has finished, so no subsystem sees a collection change while it
// iterates.
//
// Thread-safety: NOT thread-safe. Must be driven from a single goroutine.
type Venue struct {
	Clock int64

	cfg       VenueConfig
	rng       *PartitionedRNG
	bus       *EventBus
	metrics   *Metrics
	trace     *trace.DecisionTrace
	grid      *pathfinding.Grid
	placement *StrategicPlacement
	queues    *QueueManager

	guests   []*Guest
	consoles []*Console

	sampler     workload.ArrivalSampler
	mix         *workload.Mix
	nextArrival int64

	lastObstacleRefresh int64
	obstaclesDirty      bool
	footprints          map[*Guest]geom.Rect // guest obstacles of the last refresh
}

// moveSampleSpacing is the distance in pixels between the points checked
// against walls and consoles when a guest walks off its planned path.
const moveSampleSpacing = 4.0

// NewVenue builds a venue from cfg: validates it, places the configured
// consoles and schedules the first arrival. dt may be nil to disable decision
// tracing.
func NewVenue(cfg VenueConfig, seed int64, dt *trace.DecisionTrace) (*Venue, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid venue config: %w", err)
	}
	sampler, err := workload.NewArrivalSampler(cfg.Arrivals)
	if err != nil {
		return nil, err
	}
	mix, err := workload.NewMix(cfg.GuestMix)
	if err != nil {
		return nil, err
	}

	v := &Venue{
		cfg:            cfg,
		rng:            NewPartitionedRNG(seed),
		bus:            NewEventBus(),
		metrics:        NewMetrics(),
		trace:          dt,
		grid:           pathfinding.NewGrid(cfg.Width, cfg.Height, cfg.GridSize),
		sampler:        sampler,
		mix:            mix,
		obstaclesDirty: true,
		footprints:     make(map[*Guest]geom.Rect),
	}
	v.metrics.SetBalance(cfg.StartingMoney)
	v.metrics.Attach(v.bus)
	v.placement = NewStrategicPlacement(cfg.Placement, cfg.Zones, v)
	v.queues = NewQueueManager(cfg.Queue, v, v.placement, v.rng.For(SubsystemQueue), v.now, v.bus, dt)

	for i, spec := range cfg.Consoles {
		t, _ := ParseConsoleType(spec.Type)
		c, err := v.AddConsole(spec.consoleID(i), t, geom.V(spec.X, spec.Y))
		if err != nil {
			return nil, err
		}
		for c.Tier < spec.Tier {
			if err := c.Upgrade(); err != nil {
				return nil, err
			}
		}
	}
	v.nextArrival = v.sampler.SampleIAT(v.rng.For(SubsystemWorkload))
	return v, nil
}

func (v *Venue) now() int64 { return v.Clock }

// Guests returns the guest arena, including guests marked for removal this
// tick. Callers MUST NOT modify it.
func (v *Venue) Guests() []*Guest { return v.guests }

// Consoles returns the placed consoles in placement order. Callers MUST NOT modify it.
func (v *Venue) Consoles() []*Console { return v.consoles }

// Config returns the configuration the venue was built from.
func (v *Venue) Config() VenueConfig { return v.cfg }

// Bus returns the event bus the venue publishes on.
func (v *Venue) Bus() *EventBus { return v.bus }

// Metrics returns the run's ledger.
func (v *Venue) Metrics() *Metrics { return v.metrics }

// Trace returns the decision trace, or nil when tracing is off.
func (v *Venue) Trace() *trace.DecisionTrace { return v.trace }

// Placement returns the appeal scorer.
func (v *Venue) Placement() *StrategicPlacement { return v.placement }

// Grid returns the pathfinding grid.
func (v *Venue) Grid() *pathfinding.Grid { return v.grid }

// QueueManager returns the venue's queue manager.
func (v *Venue) QueueManager() *QueueManager { return v.queues }

// Console returns the console with the given id, or nil.
func (v *Venue) Console(id string) *Console {
	for _, c := range v.consoles {
		if c.ID == id {
			return c
		}
	}
	return nil
}

// AttachLedger forwards payments and angry guests to an external ledger.
func (v *Venue) AttachLedger(l Ledger) []Subscription {
	return []Subscription{
		On(v.bus, func(e GuestPaid) { l.AddMoney(e.Amount) }),
		On(v.bus, func(e GuestAngry) { l.RecordAngryGuest() }),
	}
}

// AddConsole places a tier-1 console of kind t at pos free of charge.
// Fails with ErrBlocked if its footprint leaves the floor or overlaps a wall
// or another console, and with ErrInvalidType for an unknown kind.
func (v *Venue) AddConsole(id string, t ConsoleType, pos geom.Vec2) (*Console, error) {
	if v.Console(id) != nil {
		return nil, fmt.Errorf("console id %q already in use: %w", id, ErrIllegalState)
	}
	c, err := NewConsole(id, t, pos)
	if err != nil {
		return nil, err
	}
	if err := v.checkFootprint(c.Footprint()); err != nil {
		return nil, fmt.Errorf("placing console %s at %s: %w", id, pos, err)
	}
	v.consoles = append(v.consoles, c)
	v.obstaclesDirty = true
	logrus.Infof("console %s (%s) placed at %s", c.ID, c.Type, c.Position)
	return c, nil
}

func (v *Venue) checkFootprint(r geom.Rect) error {
	if r.X < 0 || r.Y < 0 || r.X+r.Width > v.cfg.Width || r.Y+r.Height > v.cfg.Height {
		return ErrBlocked
	}
	for _, w := range v.cfg.Walls {
		if r.Intersects(w) {
			return ErrBlocked
		}
	}
	for _, c := range v.consoles {
		if r.Intersects(c.Footprint()) {
			return ErrBlocked
		}
	}
	return nil
}

// PurchaseConsole buys and places a console, charging its catalogue cost.
// Fails with ErrInsufficientFunds if the balance does not cover it.
func (v *Venue) PurchaseConsole(id string, t ConsoleType, pos geom.Vec2) (*Console, error) {
	if _, err := ParseConsoleType(string(t)); err != nil {
		return nil, err
	}
	cost := t.Stats().Cost
	if v.metrics.Money() < cost {
		return nil, fmt.Errorf("console %s costs %d, balance %d: %w", t, cost, v.metrics.Money(), ErrInsufficientFunds)
	}
	c, err := v.AddConsole(id, t, pos)
	if err != nil {
		return nil, err
	}
	v.metrics.AddMoney(-cost)
	return c, nil
}

// UpgradeConsole raises console id one tier, charging UpgradeCost.
func (v *Venue) UpgradeConsole(id string) error {
	c := v.Console(id)
	if c == nil {
		return fmt.Errorf("no console %q: %w", id, ErrIllegalState)
	}
	cost := c.UpgradeCost()
	if c.Tier < MaxTier && v.metrics.Money() < cost {
		return fmt.Errorf("upgrading %s costs %d, balance %d: %w", id, cost, v.metrics.Money(), ErrInsufficientFunds)
	}
	if err := c.Upgrade(); err != nil {
		return err
	}
	v.metrics.AddMoney(-cost)
	logrus.Infof("console %s upgraded to tier %d for %d", c.ID, c.Tier, cost)
	return nil
}

// SpawnGuest admits a guest of kind t at the entrance.
func (v *Venue) SpawnGuest(t GuestType) (*Guest, error) {
	id, err := uuid.NewRandomFromReader(v.rng.For(SubsystemIdentity))
	if err != nil {
		return nil, fmt.Errorf("generating guest id: %w", err)
	}
	g, err := NewGuest(id, t, v.cfg.Entrance, v.Clock)
	if err != nil {
		return nil, err
	}
	v.guests = append(v.guests, g)
	logrus.Debugf("[%07d] guest %s (%s) arrived", v.Clock, g.ID, g.Type)
	v.bus.Publish(GuestArrived{Time: v.Clock, Guest: g.ID, Type: g.Type})
	return g, nil
}

// ActiveGuests returns the number of guests not marked for removal.
func (v *Venue) ActiveGuests() int {
	n := 0
	for _, g := range v.guests {
		if !g.removed {
			n++
		}
	}
	return n
}

// Run steps the venue in increments of tick until duration ms have elapsed
// from the current clock.
func (v *Venue) Run(duration, tick int64) {
	if tick <= 0 {
		panic(fmt.Sprintf("Run: tick must be positive, got %d", tick))
	}
	end := v.Clock + duration
	logrus.Infof("[%07d] venue run started (until %d ms, tick %d ms)", v.Clock, end, tick)
	for v.Clock < end {
		v.Step(min(tick, end-v.Clock))
	}
	logrus.Infof("[%07d] venue run ended", v.Clock)
}

// Step advances the clock by delta ms and runs one tick, in order: arrivals,
// obstacle refresh, per-guest updates, queue management, console repairs,
// movement, exit detection and compaction.
func (v *Venue) Step(delta int64) {
	if delta < 0 {
		panic(fmt.Sprintf("Step: delta must be >= 0, got %d", delta))
	}
	v.Clock += delta

	v.processArrivals()
	v.refreshObstacles()
	for _, g := range v.guests {
		if !g.removed {
			v.updateGuest(g)
		}
	}
	v.queues.Update(delta)
	v.updateConsoles()
	for _, g := range v.guests {
		if !g.removed {
			v.moveGuest(g, delta)
		}
	}
	for _, g := range v.guests {
		if !g.removed && g.HasExited() {
			g.removed = true
			logrus.Debugf("[%07d] guest %s left (%s, satisfaction %d)", v.Clock, g.ID, g.State, g.Satisfaction)
			v.bus.Publish(GuestLeft{Time: v.Clock, Guest: g.ID, State: g.State})
		}
	}
	v.compact()

	v.metrics.SetActiveGuests(len(v.guests))
	for _, c := range v.consoles {
		v.metrics.SetQueueLength(c.ID, c.QueueLength())
	}
}

func (v *Venue) processArrivals() {
	rng := v.rng.For(SubsystemWorkload)
	for v.nextArrival <= v.Clock {
		// Kind and next gap are drawn even when the venue is full so the
		// arrival stream does not depend on occupancy.
		t := GuestType(v.mix.Sample(rng))
		if v.ActiveGuests() < v.cfg.MaxGuests {
			if _, err := v.SpawnGuest(t); err != nil {
				logrus.Warnf("spawning %s guest: %v", t, err)
			}
		} else {
			logrus.Debugf("[%07d] venue full, %s guest turned away", v.Clock, t)
		}
		v.nextArrival += v.sampler.SampleIAT(rng)
	}
}

func (v *Venue) refreshObstacles() {
	if !v.obstaclesDirty && v.Clock-v.lastObstacleRefresh < v.cfg.ObstacleRefresh {
		return
	}
	clear(v.footprints)
	for _, g := range v.guests {
		if r, ok := v.guestFootprint(g); ok {
			v.footprints[g] = r
		}
	}
	v.grid.UpdateObstacles(v.Obstacles())
	v.lastObstacleRefresh = v.Clock
	v.obstaclesDirty = false
}

// Obstacles returns the rectangles currently blocking movement: walls,
// console footprints and, when enabled, guests standing on the floor.
func (v *Venue) Obstacles() []geom.Rect {
	obstacles := make([]geom.Rect, 0, len(v.cfg.Walls)+len(v.consoles)+len(v.guests))
	obstacles = append(obstacles, v.cfg.Walls...)
	for _, c := range v.consoles {
		obstacles = append(obstacles, c.Footprint())
	}
	for _, g := range v.guests {
		if r, ok := v.guestFootprint(g); ok {
			obstacles = append(obstacles, r)
		}
	}
	return obstacles
}

// guestFootprint returns the obstacle g presents to other guests, if any.
func (v *Venue) guestFootprint(g *Guest) (geom.Rect, bool) {
	if !v.cfg.GuestsAsObstacles || g.removed || g.IsExiting() {
		return geom.Rect{}, false
	}
	size := v.cfg.GuestObstacleSize
	return geom.RectAround(g.Position, size, size), true
}

// pathFor plans a simplified route from g's position to dest around every
// obstacle except g's own footprint. The first waypoint is g's position.
// Returns nil when dest cannot be reached.
func (v *Venue) pathFor(g *Guest, dest geom.Vec2) []geom.Vec2 {
	if r, ok := v.footprints[g]; ok {
		defer v.grid.Without(r)()
	}
	path := v.grid.FindPath(g.Position.X, g.Position.Y, dest.X, dest.Y)
	if path == nil {
		return nil
	}
	path[0] = g.Position
	return v.grid.SimplifyPath(path)
}

func (v *Venue) updateGuest(g *Guest) {
	now := v.Clock
	if g.UpdatePatience(now) {
		logrus.Debugf("[%07d] guest %s ran out of patience", now, g.ID)
		v.bus.Publish(GuestAngry{Time: now, Guest: g.ID, Reason: "patience"})
		return
	}
	switch g.State {
	case Seeking:
		v.seek(g)
	case Using:
		c := g.currentConsole
		if payment, finished := g.UpdateUse(now); finished {
			logrus.Debugf("[%07d] guest %s finished on %s, paying %d", now, g.ID, c.ID, payment)
			v.bus.Publish(GuestPaid{Time: now, Guest: g.ID, Console: c.ID, Amount: payment, Satisfaction: g.Satisfaction})
			v.planExit(g)
		}
	case Leaving, Angry:
		if !g.pathPlanned {
			v.planExit(g)
		}
	case Waiting:
	}
}

// seek retargets a seeking guest, starts play when it stands next to an
// accepting console and otherwise keeps its path fresh.
func (v *Venue) seek(g *Guest) {
	now := v.Clock
	stale := !g.pathPlanned || now-g.lastPathAt >= v.cfg.RepathInterval
	if g.target == nil || !g.target.IsWorking() || stale {
		target := g.FindNearestOrOptimalConsole(v.consoles, v.placement)
		if target != g.target {
			g.target = target
			g.pathPlanned = false
		}
	}
	if g.target == nil {
		return
	}

	c := g.target
	if g.Position.DistanceTo(c.Position) <= v.cfg.InteractionDistance && c.AcceptsDirect() {
		broke, err := g.StartUsingConsole(c, now)
		if err != nil {
			logrus.Warnf("guest %s could not start console %s: %v", g.ID, c.ID, err)
			g.target = nil
			return
		}
		logrus.Debugf("[%07d] guest %s started %s directly", now, g.ID, c.ID)
		v.bus.Publish(GuestStartedUsing{Time: now, Guest: g.ID, Console: c.ID})
		if broke {
			v.bus.Publish(ConsoleBroken{Time: now, Console: c.ID})
		}
		return
	}

	if !g.pathPlanned || now-g.lastPathAt >= v.cfg.RepathInterval {
		path := v.pathFor(g, c.Position)
		if path == nil {
			logrus.Debugf("[%07d] guest %s has no path to %s, retrying next tick", now, g.ID, c.ID)
			g.clearPath()
			return
		}
		g.SetPath(path, now)
	}
}

// exitPoint lies just past the exit boundary, level with the entrance.
func (v *Venue) exitPoint() geom.Vec2 {
	return geom.V(-1, v.cfg.Entrance.Y)
}

// planExit routes an exiting guest to the entrance and out past the boundary.
// Without a route the guest waits in place and planning is retried next tick.
func (v *Venue) planExit(g *Guest) {
	path := v.pathFor(g, v.cfg.Entrance)
	if path == nil {
		logrus.Debugf("[%07d] guest %s has no path to the entrance, retrying next tick", v.Clock, g.ID)
		g.clearPath()
		return
	}
	g.SetPath(append(path, v.exitPoint()), v.Clock)
}

func (v *Venue) updateConsoles() {
	now := v.Clock
	for _, c := range v.consoles {
		switch c.State {
		case Broken:
			if !v.cfg.AutoRepair || c.CurrentUsers() > 0 {
				continue
			}
			d, err := c.StartRepair(now, v.cfg.RepairMultiplier)
			if err != nil {
				logrus.Warnf("starting repair of %s: %v", c.ID, err)
				continue
			}
			v.bus.Publish(RepairStarted{Time: now, Console: c.ID, Duration: d})
		case UnderRepair:
			if c.UpdateRepair(now) {
				v.bus.Publish(RepairCompleted{Time: now, Console: c.ID})
			}
		case Operational, InUse:
		}
	}
}

// RepairConsole starts a manual repair of a broken console with the given
// speed multiplier and returns the effective duration.
func (v *Venue) RepairConsole(id string, multiplier float64) (int64, error) {
	c := v.Console(id)
	if c == nil {
		return 0, fmt.Errorf("no console %q: %w", id, ErrIllegalState)
	}
	d, err := c.StartRepair(v.Clock, multiplier)
	if err != nil {
		return 0, err
	}
	v.bus.Publish(RepairStarted{Time: v.Clock, Console: c.ID, Duration: d})
	return d, nil
}

// moveGuest follows the planned path. Once it is used up the guest closes
// the remaining gap in a straight line; a guest without a plan stays put.
func (v *Venue) moveGuest(g *Guest, delta int64) {
	switch g.State {
	case Seeking:
		switch {
		case len(g.path) > 0:
			g.Advance(delta)
		case !g.pathPlanned || g.target == nil:
		case g.Position.DistanceTo(g.target.Position) > v.cfg.InteractionDistance:
			v.stepToward(g, g.target.Position, delta)
		}
	case Leaving, Angry:
		switch {
		case len(g.path) > 0:
			g.Advance(delta)
		case g.pathPlanned:
			v.stepToward(g, v.exitPoint(), delta)
		}
	case Waiting, Using:
	}
}

// stepToward walks g straight toward p for delta ms. The step is cancelled
// if it would enter a wall or a console footprint.
func (v *Venue) stepToward(g *Guest, p geom.Vec2, delta int64) {
	from := g.Position
	g.MoveToward(p, delta)
	if v.segmentBlocked(from, g.Position) {
		g.Position = from
	}
}

// segmentBlocked reports whether the segment from a to b passes through a
// wall or a console footprint.
func (v *Venue) segmentBlocked(a, b geom.Vec2) bool {
	n := int(math.Ceil(a.DistanceTo(b) / moveSampleSpacing))
	for i := 1; i <= n; i++ {
		p := a.Add(b.Sub(a).Scale(float64(i) / float64(n)))
		for _, w := range v.cfg.Walls {
			if w.Contains(p) {
				return true
			}
		}
		for _, c := range v.consoles {
			if c.Footprint().Contains(p) {
				return true
			}
		}
	}
	return false
}

func (v *Venue) compact() {
	kept := v.guests[:0]
	for _, g := range v.guests {
		if !g.removed {
			kept = append(kept, g)
		} else {
			delete(v.footprints, g)
		}
	}
	for i := len(kept); i < len(v.guests); i++ {
		v.guests[i] = nil
	}
	v.guests = kept
}

// Rand returns the deterministic stream of subsystem s, for callers that
// drive gates such as ShouldJoinQueue by hand.
func (v *Venue) Rand(s Subsystem) *rand.Rand {
	return v.rng.For(s)
}
