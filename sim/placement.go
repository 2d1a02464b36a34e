package sim

import (
	"math"

	"github.com/arcade-sim/arcade-sim/sim/geom"
)

// Zone is a static rectangular region of the floor with an appeal multiplier.
// Zones may overlap; the first declared zone containing a point wins.
type Zone struct {
	Name       string    `yaml:"name"`
	Bounds     geom.Rect `yaml:"bounds"`
	Multiplier float64   `yaml:"multiplier"`
}

// Standard zone multipliers.
const (
	EntranceZoneMultiplier = 1.3
	PremiumZoneMultiplier  = 1.2
	CenterZoneMultiplier   = 1.0
	CornerZoneMultiplier   = 0.8
)

// PlacementConfig holds the tunables of the appeal heuristic.
type PlacementConfig struct {
	ClusterRadius     float64 `yaml:"cluster_radius"`     // px within which other consoles count as a cluster
	MaxClusterSize    int     `yaml:"max_cluster_size"`   // neighbours at which the cluster bonus saturates
	ClusterBonusMax   float64 `yaml:"cluster_bonus_max"`  // cluster bonus at saturation
	AppealRadius      float64 `yaml:"appeal_radius"`      // px within which guests count toward congestion
	CongestionPenalty float64 `yaml:"congestion_penalty"` // appeal fraction lost per nearby guest
	DistanceFalloff   float64 `yaml:"distance_falloff"`   // px at which the distance factor bottoms out
	AppealNormalizer  float64 `yaml:"appeal_normalizer"`  // effective appeal mapped to 1.0
}

// DefaultPlacementConfig returns the standard tunables.
func DefaultPlacementConfig() PlacementConfig {
	return PlacementConfig{
		ClusterRadius:     150,
		MaxClusterSize:    4,
		ClusterBonusMax:   0.3,
		AppealRadius:      120,
		CongestionPenalty: 0.1,
		DistanceFalloff:   400,
		AppealNormalizer:  12,
	}
}

// Weights of the console ranking used by FindOptimalConsole.
const (
	appealWeight       = 0.6
	distanceWeight     = 0.4
	minDistanceFactor  = 0.1
	preferredTypeBoost = 1.5
)

// Roster gives read access to the live entities of a venue.
type Roster interface {
	Guests() []*Guest
	Consoles() []*Console
}

// StrategicPlacement scores consoles by position and context: the zone they
// sit in, how many consoles surround them and how crowded they are.
type StrategicPlacement struct {
	cfg    PlacementConfig
	zones  []Zone
	roster Roster
}

// NewStrategicPlacement creates a scorer over roster's entities.
func NewStrategicPlacement(cfg PlacementConfig, zones []Zone, roster Roster) *StrategicPlacement {
	return &StrategicPlacement{cfg: cfg, zones: zones, roster: roster}
}

// Zones returns the declared zones in priority order.
func (sp *StrategicPlacement) Zones() []Zone {
	return sp.zones
}

// ZoneAt returns the first zone containing pos, or false if none does.
func (sp *StrategicPlacement) ZoneAt(pos geom.Vec2) (Zone, bool) {
	for _, z := range sp.zones {
		if z.Bounds.Contains(pos) {
			return z, true
		}
	}
	return Zone{}, false
}

// ZoneMultiplier returns the multiplier of the first zone containing pos,
// or CenterZoneMultiplier outside every zone.
func (sp *StrategicPlacement) ZoneMultiplier(pos geom.Vec2) float64 {
	if z, ok := sp.ZoneAt(pos); ok {
		return z.Multiplier
	}
	return CenterZoneMultiplier
}

// ClusterBonus returns the bonus earned by consoles within ClusterRadius of
// pos, excluding self. It grows linearly to ClusterBonusMax at MaxClusterSize
// neighbours.
func (sp *StrategicPlacement) ClusterBonus(pos geom.Vec2, self *Console) float64 {
	if sp.cfg.MaxClusterSize <= 0 {
		return 0
	}
	neighbours := 0
	for _, c := range sp.roster.Consoles() {
		if c == self {
			continue
		}
		if pos.DistanceTo(c.Position) <= sp.cfg.ClusterRadius {
			neighbours++
		}
	}
	neighbours = min(neighbours, sp.cfg.MaxClusterSize)
	return sp.cfg.ClusterBonusMax * float64(neighbours) / float64(sp.cfg.MaxClusterSize)
}

// CongestionLevel returns the number of guests within AppealRadius of pos.
func (sp *StrategicPlacement) CongestionLevel(pos geom.Vec2) int {
	n := 0
	for _, g := range sp.roster.Guests() {
		if g.removed {
			continue
		}
		if pos.DistanceTo(g.Position) <= sp.cfg.AppealRadius {
			n++
		}
	}
	return n
}

// EffectiveAppeal returns c's appeal in its current context:
//
//	e  = base*zone + base*cluster
//	e *= 1 - congestion*penalty
//	max(1, floor(e))
//
// The floor is applied once, after every multiplicative term.
func (sp *StrategicPlacement) EffectiveAppeal(c *Console) int {
	return effectiveAppeal(
		c.Appeal,
		sp.ZoneMultiplier(c.Position),
		sp.ClusterBonus(c.Position, c),
		sp.CongestionLevel(c.Position),
		sp.cfg.CongestionPenalty,
	)
}

func effectiveAppeal(base, zone, cluster float64, congestion int, penalty float64) int {
	e := base*zone + base*cluster
	e *= 1 - float64(congestion)*penalty
	return max(1, int(math.Floor(e)))
}

// Recommendation grades a floor position for a new console.
type Recommendation string

const (
	RecommendExcellent Recommendation = "excellent"
	RecommendGood      Recommendation = "good"
	RecommendFair      Recommendation = "fair"
	RecommendPoor      Recommendation = "poor"
)

// PositionAnalysis describes how a console placed at a point would fare.
type PositionAnalysis struct {
	Zone            string
	ZoneMultiplier  float64
	ClusterBonus    float64
	CongestionLevel int
	OverallScore    float64
	Recommendation  Recommendation
}

// AnalyzePosition evaluates (x, y) as a placement site. OverallScore is the
// appeal multiplier a console there would get:
// (zone + cluster) * (1 - congestion*penalty).
func (sp *StrategicPlacement) AnalyzePosition(x, y float64) PositionAnalysis {
	pos := geom.V(x, y)
	a := PositionAnalysis{
		Zone:            "center",
		ZoneMultiplier:  sp.ZoneMultiplier(pos),
		ClusterBonus:    sp.ClusterBonus(pos, nil),
		CongestionLevel: sp.CongestionLevel(pos),
	}
	if z, ok := sp.ZoneAt(pos); ok {
		a.Zone = z.Name
	}
	a.OverallScore = (a.ZoneMultiplier + a.ClusterBonus) * (1 - float64(a.CongestionLevel)*sp.cfg.CongestionPenalty)
	switch {
	case a.OverallScore >= 1.4:
		a.Recommendation = RecommendExcellent
	case a.OverallScore >= 1.15:
		a.Recommendation = RecommendGood
	case a.OverallScore >= 0.95:
		a.Recommendation = RecommendFair
	default:
		a.Recommendation = RecommendPoor
	}
	return a
}

// ConsoleScore returns the ranking score of c for g:
// 0.6*appeal/normalizer + 0.4*max(0.1, 1 - distance/falloff), boosted x1.5
// when c appeals to g's kind.
func (sp *StrategicPlacement) ConsoleScore(g *Guest, c *Console) float64 {
	normalizedAppeal := float64(sp.EffectiveAppeal(c)) / sp.cfg.AppealNormalizer
	distanceFactor := math.Max(minDistanceFactor, 1-g.Position.DistanceTo(c.Position)/sp.cfg.DistanceFalloff)
	score := appealWeight*normalizedAppeal + distanceWeight*distanceFactor
	if c.AppealsTo(g.Type) {
		score *= preferredTypeBoost
	}
	return score
}

// FindOptimalConsole returns the working candidate with the highest
// ConsoleScore for g; ties go to the earliest candidate. Returns nil if no
// candidate is working.
func (sp *StrategicPlacement) FindOptimalConsole(g *Guest, candidates []*Console) *Console {
	var best *Console
	bestScore := math.Inf(-1)
	for _, c := range candidates {
		if !c.IsWorking() {
			continue
		}
		if s := sp.ConsoleScore(g, c); s > bestScore {
			best, bestScore = c, s
		}
	}
	return best
}
