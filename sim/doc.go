// Package sim provides the core step-driven simulation of an arcade venue.
//
// # Reading Guide
//
// Start with these three files to understand the simulation kernel:
//   - guest.go: Guest lifecycle (seeking → waiting/using → leaving/angry) and the patience model
//   - console.go: Console resource (single occupant, durability, repair, tiers) and its bounded queue
//   - venue.go: The tick loop that drives arrivals, guests, queues, repairs and movement
//
// # Architecture
//
// The sim package owns entities and policies; leaf helpers live in sub-packages:
//   - sim/geom/: 2-D positions and rectangles
//   - sim/pathfinding/: grid A* used for guest movement
//   - sim/workload/: guest arrival process and kind mix
//   - sim/trace/: decision trace recording for queue joins and abandonments
//
// Time is a simulated millisecond clock advanced only by Venue.Step. Every
// random draw comes from a PartitionedRNG stream, so a seed and a VenueConfig
// fully determine a run.
//
// # Key Types
//
//   - QueueManager: per-tick joining, advancement and abandonment of console queues
//   - StrategicPlacement: effective appeal of consoles from zone, cluster and crowding
//   - EventBus: typed publish/subscribe of venue events (On[E] for typed listeners)
//   - Ledger: write-only sink for payments and angry guests; Metrics implements it
package sim
