package sim

import (
	"math"
	"math/rand"

	"github.com/sirupsen/logrus"

	"github.com/arcade-sim/arcade-sim/sim/trace"
)

// QueueConfig holds the tunables of queue joining.
type QueueConfig struct {
	JoinDistance float64 `yaml:"join_distance"`    // px within which a guest considers a queue
	JoinCooldown int64   `yaml:"join_cooldown_ms"` // ms between join rolls of the same guest
}

// DefaultQueueConfig returns the standard tunables.
func DefaultQueueConfig() QueueConfig {
	return QueueConfig{JoinDistance: 100, JoinCooldown: 1_000}
}

// Join scoring terms.
const (
	appealingTypeBonus        = 5.0
	distanceScoreDivisor      = 20.0
	queueLengthPenalty        = 2.0
	idleConsoleBonus          = 8.0
	enthusiastQueuePenalty    = 3.0
	familyQueuePenalty        = 1.0
	familyFriendlyBonus       = 2.0
	baseJoinProbability       = 0.6
	familyJoinProbability     = 0.8
	enthusiastJoinProbability = 0.3
)

// Abandonment roll terms (probabilities per tick).
const (
	baseAbandonProbability     = 0.0005
	positionAbandonProbability = 0.0002
	waitAbandonDivisor         = 200_000.0
	maxAbandonProbability      = 0.015
	enthusiastAbandonFactor    = 2.5
	familyAbandonFactor        = 0.6
)

// QueueManager enrols seeking guests into console queues, seats queue heads on
// idle consoles and lets waiting guests give up. Update runs its phases in a
// fixed order every tick: join, advance, abandon, reposition.
//
// Thread-safety: NOT thread-safe. Must be called from the simulation goroutine.
type QueueManager struct {
	cfg       QueueConfig
	roster    Roster
	placement *StrategicPlacement
	rng       *rand.Rand
	bus       *EventBus
	trace     *trace.DecisionTrace
	clock     func() int64
}

// NewQueueManager creates a QueueManager. clock returns the simulated time in
// ms; it is read, never advanced, by the manager. bus and dt may be nil.
func NewQueueManager(cfg QueueConfig, roster Roster, placement *StrategicPlacement,
	rng *rand.Rand, clock func() int64, bus *EventBus, dt *trace.DecisionTrace) *QueueManager {
	if rng == nil || clock == nil {
		panic("NewQueueManager: rng and clock must not be nil")
	}
	return &QueueManager{
		cfg:       cfg,
		roster:    roster,
		placement: placement,
		rng:       rng,
		bus:       bus,
		trace:     dt,
		clock:     clock,
	}
}

// Update runs one tick of queue management. delta (ms) paces the cosmetic
// movement of waiting guests toward their queue slots.
func (qm *QueueManager) Update(delta int64) {
	now := qm.clock()
	guests := qm.roster.Guests()
	consoles := qm.roster.Consoles()

	for _, g := range guests {
		if g.State == Seeking && !g.removed {
			qm.tryJoin(g, consoles, now)
		}
	}
	for _, c := range consoles {
		qm.advance(c, now)
	}
	for _, g := range guests {
		if g.State == Waiting && !g.removed {
			qm.checkAbandon(g, now)
		}
	}
	for _, g := range guests {
		if g.State == Waiting && g.queuedAt != nil {
			g.MoveToward(g.queuedAt.QueueSlot(g.queuePosition), delta)
		}
	}
}

// CalculateQueueScore rates c's queue for g:
//
//	appeal + 5 (appealing kind) - distance/20 - 2*queueLength + 8 (idle)
//
// plus kind adjustments: enthusiasts lose 3 more per queued guest, families
// lose 1 more per queued guest and gain 2 at family-friendly consoles.
func (qm *QueueManager) CalculateQueueScore(g *Guest, c *Console) float64 {
	appeal := c.Appeal
	if qm.placement != nil {
		appeal = float64(qm.placement.EffectiveAppeal(c))
	}
	queueLen := float64(c.QueueLength())

	score := appeal
	if c.AppealsTo(g.Type) {
		score += appealingTypeBonus
	}
	score -= g.Position.DistanceTo(c.Position) / distanceScoreDivisor
	score -= queueLengthPenalty * queueLen
	if c.IsIdle() {
		score += idleConsoleBonus
	}

	switch g.Type {
	case GuestEnthusiast:
		score -= enthusiastQueuePenalty * queueLen
	case GuestFamily:
		score -= familyQueuePenalty * queueLen
		if c.FamilyFriendly() {
			score += familyFriendlyBonus
		}
	case GuestCasual, GuestTourist:
	}
	return score
}

// ShouldJoinQueue rolls the join gate for g at c. A full queue or a console
// that is not working always rejects without consuming randomness. Otherwise
// the guest joins with probability 0.6, 0.8 for families, and 0.3 for
// enthusiasts facing more than one queued guest.
func ShouldJoinQueue(g *Guest, c *Console, rng *rand.Rand) bool {
	if c.QueueFull() || !c.IsWorking() {
		return false
	}
	return rng.Float64() < JoinProbability(g.Type, c.QueueLength())
}

// JoinProbability returns the chance a guest of kind t joins a queue holding
// queueLen guests.
func JoinProbability(t GuestType, queueLen int) float64 {
	switch t {
	case GuestFamily:
		return familyJoinProbability
	case GuestEnthusiast:
		if queueLen > 1 {
			return enthusiastJoinProbability
		}
		return baseJoinProbability
	case GuestCasual, GuestTourist:
		return baseJoinProbability
	default:
		return baseJoinProbability
	}
}

// FindBestQueue returns the highest-scoring working console within
// JoinDistance of g whose queue has room, with every eligible candidate in
// scan order. Ties go to the earliest console.
func (qm *QueueManager) FindBestQueue(g *Guest, consoles []*Console) (*Console, float64, []trace.CandidateScore) {
	var best *Console
	bestScore := math.Inf(-1)
	var candidates []trace.CandidateScore
	for _, c := range consoles {
		if !c.IsWorking() || c.QueueFull() {
			continue
		}
		d := g.Position.DistanceTo(c.Position)
		if d > qm.cfg.JoinDistance {
			continue
		}
		s := qm.CalculateQueueScore(g, c)
		if qm.trace != nil {
			candidates = append(candidates, trace.CandidateScore{
				ConsoleID: c.ID, Score: s, QueueLength: c.QueueLength(), Distance: d,
			})
		}
		if s > bestScore {
			best, bestScore = c, s
		}
	}
	return best, bestScore, candidates
}

func (qm *QueueManager) tryJoin(g *Guest, consoles []*Console, now int64) {
	if g.queueAttempted && now-g.lastQueueAttempt < qm.cfg.JoinCooldown {
		return
	}
	best, score, candidates := qm.FindBestQueue(g, consoles)
	if best == nil {
		return
	}
	g.lastQueueAttempt = now
	g.queueAttempted = true

	joined := ShouldJoinQueue(g, best, qm.rng)
	if joined {
		if err := g.JoinQueue(best, now); err != nil {
			logrus.Warnf("queue join for guest %s at console %s failed: %v", g.ID, best.ID, err)
			joined = false
		}
	}
	qm.trace.RecordJoin(trace.JoinRecord{
		GuestID:    g.ID.String(),
		GuestType:  string(g.Type),
		Clock:      now,
		ConsoleID:  best.ID,
		Score:      score,
		Joined:     joined,
		Candidates: candidates,
	})
	if !joined {
		logrus.Debugf("[%07d] guest %s declined queue at %s (score %.2f)", now, g.ID, best.ID, score)
		return
	}
	logrus.Debugf("[%07d] guest %s joined queue at %s position %d", now, g.ID, best.ID, g.queuePosition)
	qm.bus.Publish(QueueJoined{Time: now, Guest: g.ID, Console: best.ID, Position: g.queuePosition})
}

// advance seats the queue head of an idle console. Heads that are no longer
// waiting on this console are dropped from the line.
func (qm *QueueManager) advance(c *Console, now int64) {
	for c.QueueLength() > 0 && c.IsIdle() {
		head := c.queue.Dequeue()
		if head.State != Waiting || head.queuedAt != c || head.removed {
			logrus.Debugf("console %s dropped stale queue head %s (%s)", c.ID, head.ID, head.State)
			continue
		}
		waited := now - head.queueJoinedAt
		broke, err := head.startFromQueue(c, now)
		if err != nil {
			logrus.Warnf("console %s could not seat guest %s: %v", c.ID, head.ID, err)
			head.State = Seeking
			head.queuedAt = nil
			continue
		}
		logrus.Debugf("[%07d] guest %s left queue for console %s after %d ms", now, head.ID, c.ID, waited)
		qm.bus.Publish(GuestStartedUsing{Time: now, Guest: head.ID, Console: c.ID, FromQueue: true})
		if broke {
			qm.bus.Publish(ConsoleBroken{Time: now, Console: c.ID})
		}
		return
	}
}

// AbandonProbability returns the per-tick chance that a guest of kind t at
// queue position pos gives up after waiting ms:
//
//	(0.05% + 0.02%*pos + waited/200000 %) * kindFactor, capped at 1.5%
//
// where kindFactor is 2.5 for enthusiasts and 0.6 for families.
func AbandonProbability(t GuestType, pos int, waited int64) float64 {
	p := baseAbandonProbability +
		positionAbandonProbability*float64(pos) +
		float64(waited)/waitAbandonDivisor/100
	switch t {
	case GuestEnthusiast:
		p *= enthusiastAbandonFactor
	case GuestFamily:
		p *= familyAbandonFactor
	case GuestCasual, GuestTourist:
	}
	return math.Min(p, maxAbandonProbability)
}

func (qm *QueueManager) checkAbandon(g *Guest, now int64) {
	waited := now - g.queueJoinedAt
	forced := waited > g.stats.WaitTolerance
	if !forced && qm.rng.Float64() >= AbandonProbability(g.Type, g.queuePosition, waited) {
		return
	}
	c := g.queuedAt
	pos := g.queuePosition
	angry := g.AbandonQueue(now)

	consoleID := ""
	if c != nil {
		consoleID = c.ID
	}
	logrus.Debugf("[%07d] guest %s abandoned queue at %s after %d ms (forced=%v, angry=%v)",
		now, g.ID, consoleID, waited, forced, angry)
	qm.trace.RecordAbandon(trace.AbandonRecord{
		GuestID:     g.ID.String(),
		GuestType:   string(g.Type),
		ConsoleID:   consoleID,
		Clock:       now,
		Waited:      waited,
		Position:    pos,
		Forced:      forced,
		BecameAngry: angry,
	})
	qm.bus.Publish(QueueAbandoned{Time: now, Guest: g.ID, Console: consoleID, Waited: waited, Forced: forced})
	if angry {
		qm.bus.Publish(GuestAngry{Time: now, Guest: g.ID, Reason: "abandoned-queue"})
	}
}
