// Guest and console kind catalogues.
// Kinds are closed sets: every switch over them is exhaustive and unknown
// names are rejected with ErrInvalidType.

package sim

import (
	"fmt"
	"sort"
)

// GuestType is the category of a visitor. It drives patience, speed, spend,
// appeal threshold, use time and queue tolerance.
type GuestType string

const (
	GuestCasual     GuestType = "casual"
	GuestEnthusiast GuestType = "enthusiast"
	GuestFamily     GuestType = "family"
	GuestTourist    GuestType = "tourist"
)

// GuestTypeStats holds the per-kind behavioural constants. Durations are in
// simulated milliseconds, speed in pixels per second.
type GuestTypeStats struct {
	Patience        int64
	Speed           float64
	Money           int
	AppealThreshold int
	UseTime         int64
	WaitTolerance   int64
}

// DefaultWaitTolerance applies to guest kinds without a specific queue tolerance.
const DefaultWaitTolerance int64 = 30_000

var guestTypeStats = map[GuestType]GuestTypeStats{
	GuestCasual:     {Patience: 30_000, Speed: 60, Money: 10, AppealThreshold: 2, UseTime: 5_000, WaitTolerance: DefaultWaitTolerance},
	GuestEnthusiast: {Patience: 20_000, Speed: 80, Money: 20, AppealThreshold: 4, UseTime: 8_000, WaitTolerance: 15_000},
	GuestFamily:     {Patience: 40_000, Speed: 45, Money: 25, AppealThreshold: 2, UseTime: 6_000, WaitTolerance: 45_000},
	GuestTourist:    {Patience: 35_000, Speed: 55, Money: 15, AppealThreshold: 3, UseTime: 4_000, WaitTolerance: 25_000},
}

// ParseGuestType converts a kind name into a GuestType.
func ParseGuestType(name string) (GuestType, error) {
	t := GuestType(name)
	if _, ok := guestTypeStats[t]; !ok {
		return "", fmt.Errorf("unknown guest type %q: %w", name, ErrInvalidType)
	}
	return t, nil
}

// Stats returns the behavioural constants of t.
// Panics on a GuestType that did not come from the catalogue.
func (t GuestType) Stats() GuestTypeStats {
	s, ok := guestTypeStats[t]
	if !ok {
		panic(fmt.Sprintf("unhandled guest type %q", string(t)))
	}
	return s
}

// ValidGuestTypes returns the sorted catalogue of guest kind names.
func ValidGuestTypes() []string {
	names := make([]string, 0, len(guestTypeStats))
	for t := range guestTypeStats {
		names = append(names, string(t))
	}
	sort.Strings(names)
	return names
}

// ConsoleType is the model of an interactive station.
type ConsoleType string

const (
	ConsoleRetroArcade  ConsoleType = "retro-arcade"
	ConsolePinball      ConsoleType = "pinball"
	ConsoleRacingSim    ConsoleType = "racing-sim"
	ConsoleDanceMachine ConsoleType = "dance-machine"
	ConsoleVRPod        ConsoleType = "vr-pod"
)

// ConsoleTypeStats holds the tier-1 figures of a console model.
// Revenue is the bonus paid by a fully satisfied guest the console appeals to.
type ConsoleTypeStats struct {
	Cost           int
	Revenue        int
	Durability     int
	RepairTime     int64
	Appeal         float64
	AppealingTypes []GuestType
	FamilyFriendly bool
}

var consoleTypeStats = map[ConsoleType]ConsoleTypeStats{
	ConsoleRetroArcade: {
		Cost: 500, Revenue: 2, Durability: 20, RepairTime: 3_000, Appeal: 3,
		AppealingTypes: []GuestType{GuestCasual, GuestTourist},
	},
	ConsolePinball: {
		Cost: 800, Revenue: 3, Durability: 25, RepairTime: 4_000, Appeal: 4,
		AppealingTypes: []GuestType{GuestCasual, GuestFamily}, FamilyFriendly: true,
	},
	ConsoleRacingSim: {
		Cost: 1_500, Revenue: 5, Durability: 15, RepairTime: 5_000, Appeal: 6,
		AppealingTypes: []GuestType{GuestEnthusiast, GuestTourist},
	},
	ConsoleDanceMachine: {
		Cost: 1_200, Revenue: 4, Durability: 18, RepairTime: 4_500, Appeal: 5,
		AppealingTypes: []GuestType{GuestFamily, GuestCasual}, FamilyFriendly: true,
	},
	ConsoleVRPod: {
		Cost: 3_000, Revenue: 8, Durability: 12, RepairTime: 6_000, Appeal: 8,
		AppealingTypes: []GuestType{GuestEnthusiast},
	},
}

// ParseConsoleType converts a model name into a ConsoleType.
func ParseConsoleType(name string) (ConsoleType, error) {
	t := ConsoleType(name)
	if _, ok := consoleTypeStats[t]; !ok {
		return "", fmt.Errorf("unknown console type %q: %w", name, ErrInvalidType)
	}
	return t, nil
}

// Stats returns the tier-1 figures of t.
// Panics on a ConsoleType that did not come from the catalogue.
func (t ConsoleType) Stats() ConsoleTypeStats {
	s, ok := consoleTypeStats[t]
	if !ok {
		panic(fmt.Sprintf("unhandled console type %q", string(t)))
	}
	return s
}

// ValidConsoleTypes returns the sorted catalogue of console model names.
func ValidConsoleTypes() []string {
	names := make([]string, 0, len(consoleTypeStats))
	for t := range consoleTypeStats {
		names = append(names, string(t))
	}
	sort.Strings(names)
	return names
}

// MaxTier is the highest upgrade level of a console.
const MaxTier = 3

// TierMultipliers rescales tier-1 console figures. RepairTime below 1 means
// higher tiers repair faster.
type TierMultipliers struct {
	Cost       float64
	Revenue    float64
	Durability float64
	RepairTime float64
	Appeal     float64
}

var tierMultipliers = [MaxTier + 1]TierMultipliers{
	1: {Cost: 1.0, Revenue: 1.0, Durability: 1.0, RepairTime: 1.0, Appeal: 1.0},
	2: {Cost: 1.5, Revenue: 1.4, Durability: 1.3, RepairTime: 0.8, Appeal: 1.25},
	3: {Cost: 2.2, Revenue: 1.9, Durability: 1.6, RepairTime: 0.6, Appeal: 1.5},
}

// TierMultipliersFor returns the multiplier row for tier (1..MaxTier).
func TierMultipliersFor(tier int) TierMultipliers {
	if tier < 1 || tier > MaxTier {
		panic(fmt.Sprintf("tier %d out of range [1,%d]", tier, MaxTier))
	}
	return tierMultipliers[tier]
}
