package sim

import (
	"bytes"
	"fmt"
	"math"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/arcade-sim/arcade-sim/sim/geom"
	"github.com/arcade-sim/arcade-sim/sim/pathfinding"
	"github.com/arcade-sim/arcade-sim/sim/workload"
)

// ConsoleSpec places one console of the initial layout.
type ConsoleSpec struct {
	ID   string  `yaml:"id,omitempty"` // defaults to "<type>-<index>"
	Type string  `yaml:"type"`
	X    float64 `yaml:"x"`
	Y    float64 `yaml:"y"`
	Tier int     `yaml:"tier,omitempty"` // 0 or 1 means base tier
}

// VenueConfig describes a venue layout and the tunables of its simulation.
// Distances are pixels, durations simulated milliseconds.
type VenueConfig struct {
	Width    float64   `yaml:"width"`
	Height   float64   `yaml:"height"`
	GridSize float64   `yaml:"grid_size"`
	Entrance geom.Vec2 `yaml:"entrance"` // spawn point; guests exit past x <= 0 level with it

	MaxGuests           int     `yaml:"max_guests"`           // arrivals are skipped while this many guests are inside
	InteractionDistance float64 `yaml:"interaction_distance"` // px within which a guest can start a console directly
	ObstacleRefresh     int64   `yaml:"obstacle_refresh_ms"`
	RepathInterval      int64   `yaml:"repath_interval_ms"`
	GuestsAsObstacles   bool    `yaml:"guests_as_obstacles"`
	GuestObstacleSize   float64 `yaml:"guest_obstacle_size"`
	AutoRepair          bool    `yaml:"auto_repair"`
	RepairMultiplier    float64 `yaml:"repair_multiplier"`
	StartingMoney       int     `yaml:"starting_money"`

	Queue     QueueConfig     `yaml:"queue"`
	Placement PlacementConfig `yaml:"placement"`
	Zones     []Zone          `yaml:"zones"`
	Walls     []geom.Rect     `yaml:"walls"`
	Consoles  []ConsoleSpec   `yaml:"consoles"`

	Arrivals workload.ArrivalSpec `yaml:"arrivals"`
	GuestMix map[string]float64   `yaml:"guest_mix"`
}

// DefaultZones returns the standard 800x600 floor zoning: the entrance strip
// on the left, a premium block on the right and four dim corners.
func DefaultZones() []Zone {
	return []Zone{
		{Name: "entrance", Bounds: geom.Rect{X: 0, Y: 200, Width: 160, Height: 200}, Multiplier: EntranceZoneMultiplier},
		{Name: "premium", Bounds: geom.Rect{X: 560, Y: 200, Width: 200, Height: 200}, Multiplier: PremiumZoneMultiplier},
		{Name: "corner-nw", Bounds: geom.Rect{X: 0, Y: 0, Width: 120, Height: 120}, Multiplier: CornerZoneMultiplier},
		{Name: "corner-ne", Bounds: geom.Rect{X: 680, Y: 0, Width: 120, Height: 120}, Multiplier: CornerZoneMultiplier},
		{Name: "corner-sw", Bounds: geom.Rect{X: 0, Y: 480, Width: 120, Height: 120}, Multiplier: CornerZoneMultiplier},
		{Name: "corner-se", Bounds: geom.Rect{X: 680, Y: 480, Width: 120, Height: 120}, Multiplier: CornerZoneMultiplier},
	}
}

// DefaultVenueConfig returns the built-in layout: five consoles on cell
// centres, one partition wall and a steady Poisson stream of mixed guests.
func DefaultVenueConfig() VenueConfig {
	return VenueConfig{
		Width:               800,
		Height:              600,
		GridSize:            pathfinding.DefaultGridSize,
		Entrance:            geom.V(20, 300),
		MaxGuests:           30,
		InteractionDistance: 60,
		ObstacleRefresh:     500,
		RepathInterval:      1_000,
		GuestsAsObstacles:   true,
		GuestObstacleSize:   16,
		AutoRepair:          true,
		RepairMultiplier:    1.0,
		StartingMoney:       0,
		Queue:               DefaultQueueConfig(),
		Placement:           DefaultPlacementConfig(),
		Zones:               DefaultZones(),
		Walls:               []geom.Rect{{X: 440, Y: 0, Width: 40, Height: 160}},
		Consoles: []ConsoleSpec{
			{ID: "retro-1", Type: string(ConsoleRetroArcade), X: 140, Y: 260},
			{ID: "pinball-1", Type: string(ConsolePinball), X: 300, Y: 180},
			{ID: "racing-1", Type: string(ConsoleRacingSim), X: 380, Y: 300},
			{ID: "dance-1", Type: string(ConsoleDanceMachine), X: 300, Y: 460},
			{ID: "vr-1", Type: string(ConsoleVRPod), X: 620, Y: 300},
		},
		Arrivals: workload.ArrivalSpec{Process: "poisson", RatePerMinute: 20},
		GuestMix: map[string]float64{
			string(GuestCasual):     0.4,
			string(GuestEnthusiast): 0.2,
			string(GuestFamily):     0.2,
			string(GuestTourist):    0.2,
		},
	}
}

// LoadVenueConfig reads a YAML venue file over DefaultVenueConfig.
// Uses strict parsing: unrecognized keys (typos) are rejected. Lists and the
// guest mix given in the file replace the defaults wholesale.
func LoadVenueConfig(path string) (*VenueConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading venue config: %w", err)
	}
	return ParseVenueConfig(data)
}

// ParseVenueConfig decodes a YAML venue document over DefaultVenueConfig.
func ParseVenueConfig(data []byte) (*VenueConfig, error) {
	cfg := DefaultVenueConfig()
	// A map is merged key by key on decode; clear it so the file's mix stands alone.
	cfg.GuestMix = nil
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("parsing venue config: %w", err)
	}
	if cfg.GuestMix == nil {
		cfg.GuestMix = DefaultVenueConfig().GuestMix
	}
	return &cfg, nil
}

// Validate checks kinds, dimensions and tunables. Unknown guest or console
// kind names wrap ErrInvalidType.
func (c *VenueConfig) Validate() error {
	if c.Width <= 0 || c.Height <= 0 {
		return fmt.Errorf("venue dimensions must be positive, got %vx%v", c.Width, c.Height)
	}
	if c.GridSize <= 0 || math.IsNaN(c.GridSize) {
		return fmt.Errorf("grid_size must be positive, got %v", c.GridSize)
	}
	if !c.contains(c.Entrance) {
		return fmt.Errorf("entrance %s lies outside the %vx%v floor", c.Entrance, c.Width, c.Height)
	}
	if c.MaxGuests <= 0 {
		return fmt.Errorf("max_guests must be positive, got %d", c.MaxGuests)
	}
	if c.InteractionDistance <= 0 {
		return fmt.Errorf("interaction_distance must be positive, got %v", c.InteractionDistance)
	}
	if c.ObstacleRefresh < 0 || c.RepathInterval < 0 {
		return fmt.Errorf("obstacle_refresh_ms and repath_interval_ms must be >= 0")
	}
	if c.GuestsAsObstacles && c.GuestObstacleSize <= 0 {
		return fmt.Errorf("guest_obstacle_size must be positive when guests_as_obstacles is set")
	}
	if c.RepairMultiplier <= 0 || math.IsNaN(c.RepairMultiplier) || math.IsInf(c.RepairMultiplier, 0) {
		return fmt.Errorf("repair_multiplier must be a finite positive number, got %v", c.RepairMultiplier)
	}
	if c.Queue.JoinDistance <= 0 {
		return fmt.Errorf("queue.join_distance must be positive, got %v", c.Queue.JoinDistance)
	}
	if c.Queue.JoinCooldown < 0 {
		return fmt.Errorf("queue.join_cooldown_ms must be >= 0, got %d", c.Queue.JoinCooldown)
	}
	if err := c.Placement.Validate(); err != nil {
		return err
	}
	for i, z := range c.Zones {
		if z.Bounds.Width <= 0 || z.Bounds.Height <= 0 {
			return fmt.Errorf("zone[%d] %q: bounds must have positive size", i, z.Name)
		}
		if z.Multiplier <= 0 {
			return fmt.Errorf("zone[%d] %q: multiplier must be positive, got %v", i, z.Name, z.Multiplier)
		}
	}
	seen := make(map[string]bool, len(c.Consoles))
	for i, cs := range c.Consoles {
		if _, err := ParseConsoleType(cs.Type); err != nil {
			return fmt.Errorf("consoles[%d]: %w", i, err)
		}
		if cs.Tier < 0 || cs.Tier > MaxTier {
			return fmt.Errorf("consoles[%d]: tier must be in [0, %d], got %d", i, MaxTier, cs.Tier)
		}
		if !c.contains(geom.V(cs.X, cs.Y)) {
			return fmt.Errorf("consoles[%d]: position (%v, %v) lies outside the floor", i, cs.X, cs.Y)
		}
		id := cs.consoleID(i)
		if seen[id] {
			return fmt.Errorf("consoles[%d]: duplicate id %q", i, id)
		}
		seen[id] = true
	}
	if err := c.Arrivals.Validate(); err != nil {
		return fmt.Errorf("arrivals: %w", err)
	}
	if len(c.GuestMix) == 0 {
		return fmt.Errorf("guest_mix must name at least one guest type")
	}
	for name := range c.GuestMix {
		if _, err := ParseGuestType(name); err != nil {
			return fmt.Errorf("guest_mix: %w", err)
		}
	}
	return nil
}

// Validate checks that the placement tunables are usable.
func (p PlacementConfig) Validate() error {
	if p.ClusterRadius < 0 || p.AppealRadius < 0 {
		return fmt.Errorf("placement radii must be >= 0")
	}
	if p.MaxClusterSize < 0 || p.ClusterBonusMax < 0 || p.CongestionPenalty < 0 {
		return fmt.Errorf("placement cluster and congestion tunables must be >= 0")
	}
	if p.DistanceFalloff <= 0 || p.AppealNormalizer <= 0 {
		return fmt.Errorf("placement distance_falloff and appeal_normalizer must be positive")
	}
	return nil
}

func (c *VenueConfig) contains(p geom.Vec2) bool {
	return geom.Rect{Width: c.Width, Height: c.Height}.Contains(p)
}

func (cs ConsoleSpec) consoleID(index int) string {
	if cs.ID != "" {
		return cs.ID
	}
	return fmt.Sprintf("%s-%d", cs.Type, index+1)
}
