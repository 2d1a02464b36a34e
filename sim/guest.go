// Defines the Guest state machine: a visitor seeks a console, plays it directly
// or waits in its queue, then leaves (paying) or storms out angry.

package sim

import (
	"fmt"
	"math"

	"github.com/google/uuid"

	"github.com/arcade-sim/arcade-sim/sim/geom"
)

// GuestState is the behavioural state of a guest.
type GuestState string

const (
	Seeking GuestState = "seeking"
	Waiting GuestState = "waiting"
	Using   GuestState = "using"
	Leaving GuestState = "leaving"
	Angry   GuestState = "angry"
)

const (
	InitialSatisfaction = 5
	MaxSatisfaction     = 8
	AngrySatisfaction   = -5

	// Satisfaction ceilings applied while seeking, once remaining patience
	// drops below the matching ratio.
	mildImpatienceRatio        = 0.6
	mildImpatienceSatisfaction = 3
	highImpatienceRatio        = 0.3
	highImpatienceSatisfaction = 1

	// FullPaySatisfaction is the satisfaction from which a guest pays full price.
	FullPaySatisfaction = 5

	// AbandonPenalty is the satisfaction lost when leaving a queue.
	AbandonPenalty = 2
)

// Guest is one visitor. A guest references at most one console, either as its
// occupant (currentConsole) or as a queue member (queuedAt), never both.
type Guest struct {
	ID           uuid.UUID
	Type         GuestType
	Position     geom.Vec2
	State        GuestState
	Patience     int64 // budget in ms
	Satisfaction int
	ArrivalTime  int64

	stats GuestTypeStats

	currentConsole *Console
	lastConsole    *Console
	queuedAt       *Console
	queuePosition  int
	queueJoinedAt  int64
	useStartedAt   int64

	lastQueueAttempt int64
	queueAttempted   bool

	target      *Console
	path        []geom.Vec2
	lastPathAt  int64
	pathPlanned bool

	removed bool
}

// NewGuest creates a seeking guest of kind t standing at pos, arriving at now.
// Returns an ErrInvalidType error if t is not in the catalogue.
func NewGuest(id uuid.UUID, t GuestType, pos geom.Vec2, now int64) (*Guest, error) {
	if _, err := ParseGuestType(string(t)); err != nil {
		return nil, err
	}
	stats := t.Stats()
	return &Guest{
		ID:            id,
		Type:          t,
		Position:      pos,
		State:         Seeking,
		Patience:      stats.Patience,
		Satisfaction:  InitialSatisfaction,
		ArrivalTime:   now,
		stats:         stats,
		queuePosition: -1,
	}, nil
}

// Stats returns the behavioural constants of the guest's kind.
func (g *Guest) Stats() GuestTypeStats {
	return g.stats
}

// CurrentConsole returns the console the guest occupies, or nil.
func (g *Guest) CurrentConsole() *Console {
	return g.currentConsole
}

// QueuedAt returns the console whose queue the guest is in, or nil.
func (g *Guest) QueuedAt() *Console {
	return g.queuedAt
}

// QueuePosition returns the 0-based place in line; -1 unless waiting.
func (g *Guest) QueuePosition() int {
	return g.queuePosition
}

// WaitingTime returns how long the guest has been in its current queue.
func (g *Guest) WaitingTime(now int64) int64 {
	if g.State != Waiting {
		return 0
	}
	return now - g.queueJoinedAt
}

// RemainingPatience returns patience minus time since arrival, floored at 0.
func (g *Guest) RemainingPatience(now int64) int64 {
	return max(0, g.Patience-(now-g.ArrivalTime))
}

// IsExiting reports whether the guest is heading for the exit.
func (g *Guest) IsExiting() bool {
	return g.State == Leaving || g.State == Angry
}

// HasExited reports whether an exiting guest has crossed the exit boundary (x <= 0).
func (g *Guest) HasExited() bool {
	return g.IsExiting() && g.Position.X <= 0
}

// UpdatePatience applies the patience model to a seeking guest. Satisfaction
// is capped stepwise as remaining patience crosses 60% and 30%; at zero the
// guest turns angry with satisfaction fixed at AngrySatisfaction.
// Returns true on the call that turns the guest angry.
func (g *Guest) UpdatePatience(now int64) bool {
	if g.State != Seeking {
		return false
	}
	remaining := g.RemainingPatience(now)
	if remaining == 0 {
		g.becomeAngry()
		g.Satisfaction = AngrySatisfaction
		return true
	}
	ratio := float64(remaining) / float64(g.Patience)
	switch {
	case ratio < highImpatienceRatio:
		g.Satisfaction = min(g.Satisfaction, highImpatienceSatisfaction)
	case ratio < mildImpatienceRatio:
		g.Satisfaction = min(g.Satisfaction, mildImpatienceSatisfaction)
	}
	return false
}

func (g *Guest) becomeAngry() {
	g.State = Angry
	g.target = nil
	g.path = nil
	g.pathPlanned = false
}

// StartUsingConsole seats a seeking guest on c directly.
// Fails with ErrIllegalState if the guest is not seeking or c does not accept
// direct use (busy, broken, or guests already waiting).
func (g *Guest) StartUsingConsole(c *Console, now int64) (broke bool, err error) {
	if g.State != Seeking {
		return false, fmt.Errorf("guest %s is %s, not seeking: %w", g.ID, g.State, ErrIllegalState)
	}
	if !c.AcceptsDirect() {
		return false, fmt.Errorf("console %s not accepting guests: %w", c.ID, ErrIllegalState)
	}
	return g.beginUse(c, now)
}

// startFromQueue seats a waiting guest that was just taken off c's queue.
func (g *Guest) startFromQueue(c *Console, now int64) (bool, error) {
	if g.State != Waiting {
		return false, fmt.Errorf("guest %s is %s, not waiting: %w", g.ID, g.State, ErrIllegalState)
	}
	return g.beginUse(c, now)
}

func (g *Guest) beginUse(c *Console, now int64) (bool, error) {
	broke, err := c.Use(g)
	if err != nil {
		return false, err
	}
	g.State = Using
	g.currentConsole = c
	g.queuedAt = nil
	g.queuePosition = -1
	g.useStartedAt = now
	g.target = nil
	g.path = nil
	g.pathPlanned = false
	return broke, nil
}

// UpdateUse finishes a play session once the kind's use time has elapsed:
// the console is released, satisfaction rises (more for a console that
// appeals to the guest) and the guest starts leaving.
// Returns the payment due and true on the tick the session ends.
func (g *Guest) UpdateUse(now int64) (payment int, finished bool) {
	if g.State != Using || g.currentConsole == nil {
		return 0, false
	}
	if now-g.useStartedAt < g.stats.UseTime {
		return 0, false
	}
	c := g.currentConsole
	c.FinishUse(g)
	if c.AppealsTo(g.Type) {
		g.Satisfaction += 3
	} else {
		g.Satisfaction++
	}
	g.Satisfaction = min(g.Satisfaction, MaxSatisfaction)
	g.currentConsole = nil
	g.lastConsole = c
	g.State = Leaving
	return g.CalculatePayment(c), true
}

// LastConsole returns the console the guest most recently finished using.
func (g *Guest) LastConsole() *Console {
	return g.lastConsole
}

// CalculatePayment applies the payment policy for a session on c:
// negative satisfaction pays nothing, below FullPaySatisfaction pays half the
// kind's money (floored), otherwise full money plus c's revenue bonus when c
// appeals to the guest's kind.
func (g *Guest) CalculatePayment(c *Console) int {
	switch {
	case g.Satisfaction < 0:
		return 0
	case g.Satisfaction < FullPaySatisfaction:
		return int(math.Floor(float64(g.stats.Money) / 2))
	default:
		pay := g.stats.Money
		if c != nil && c.AppealsTo(g.Type) {
			pay += c.Revenue
		}
		return pay
	}
}

// JoinQueue enrols a seeking guest at the back of c's queue.
// Fails with ErrIllegalState if the guest is not seeking or the queue is full.
func (g *Guest) JoinQueue(c *Console, now int64) error {
	if g.State != Seeking {
		return fmt.Errorf("guest %s is %s, not seeking: %w", g.ID, g.State, ErrIllegalState)
	}
	if !c.AddToQueue(g) {
		return fmt.Errorf("queue of console %s is full: %w", c.ID, ErrIllegalState)
	}
	g.State = Waiting
	g.queuedAt = c
	g.queueJoinedAt = now
	g.target = nil
	g.path = nil
	g.pathPlanned = false
	return nil
}

// AbandonQueue takes a waiting guest out of line with a satisfaction penalty.
// The guest turns angry if satisfaction is then <= 0, else resumes seeking.
// Returns true if the guest turned angry.
func (g *Guest) AbandonQueue(now int64) bool {
	if g.State != Waiting {
		return false
	}
	if g.queuedAt != nil {
		g.queuedAt.RemoveFromQueue(g)
	}
	g.queuedAt = nil
	g.queuePosition = -1
	g.Satisfaction -= AbandonPenalty
	if g.Satisfaction <= 0 {
		g.becomeAngry()
		return true
	}
	g.State = Seeking
	g.lastQueueAttempt = now
	g.queueAttempted = true
	return false
}

// FindNearestOrOptimalConsole picks the console a seeking guest heads for.
// Working consoles whose effective appeal meets the guest's threshold are
// ranked by placement; if none qualifies (or placement is nil) the nearest
// working console is chosen. Returns nil if no console is working.
func (g *Guest) FindNearestOrOptimalConsole(consoles []*Console, placement *StrategicPlacement) *Console {
	var appealing []*Console
	var nearest *Console
	nearestDist := math.Inf(1)
	for _, c := range consoles {
		if !c.IsWorking() {
			continue
		}
		if d := g.Position.DistanceTo(c.Position); d < nearestDist {
			nearest, nearestDist = c, d
		}
		if placement != nil && placement.EffectiveAppeal(c) >= g.stats.AppealThreshold {
			appealing = append(appealing, c)
		}
	}
	if len(appealing) > 0 {
		if best := placement.FindOptimalConsole(g, appealing); best != nil {
			return best
		}
	}
	return nearest
}

// SetPath replaces the guest's waypoints.
func (g *Guest) SetPath(path []geom.Vec2, now int64) {
	g.path = path
	g.lastPathAt = now
	g.pathPlanned = true
}

// clearPath drops the route. The guest stands still until a new one is planned.
func (g *Guest) clearPath() {
	g.path = nil
	g.pathPlanned = false
}

// Path returns the remaining waypoints.
func (g *Guest) Path() []geom.Vec2 {
	return g.path
}

// Advance walks the guest along its waypoints for delta ms at its kind's speed.
func (g *Guest) Advance(delta int64) {
	budget := g.stats.Speed * float64(delta) / 1000
	for budget > 0 && len(g.path) > 0 {
		next := g.path[0]
		d := g.Position.DistanceTo(next)
		if d <= budget {
			g.Position = next
			g.path = g.path[1:]
			budget -= d
			continue
		}
		g.Position = g.Position.MoveToward(next, budget)
		budget = 0
	}
}

// MoveToward walks the guest straight toward p for delta ms.
func (g *Guest) MoveToward(p geom.Vec2, delta int64) {
	g.Position = g.Position.MoveToward(p, g.stats.Speed*float64(delta)/1000)
}

func (g *Guest) String() string {
	return fmt.Sprintf("Guest: (ID: %s, Type: %s, State: %s, Satisfaction: %d)", g.ID, g.Type, g.State, g.Satisfaction)
}
