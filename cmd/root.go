package cmd

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	sim "github.com/arcade-sim/arcade-sim/sim"
	"github.com/arcade-sim/arcade-sim/sim/trace"
)

var (
	// CLI flags shared by subcommands
	venuePath string // YAML venue layout; empty uses the built-in one
	logLevel  string // Log verbosity level

	// CLI flags for run
	seed         int64   // Seed for every random stream of the run
	duration     int64   // Simulated run length (ms)
	tick         int64   // Simulated time per step (ms)
	rate         float64 // Guest arrivals per minute; 0 keeps the venue's rate
	metricsOut   string  // Prometheus textfile destination
	snapshotOut  string  // YAML snapshot destination
	traceEnabled bool    // Record queue decisions and print their summary
	maxCands     int     // Candidates kept per traced join decision
)

// rootCmd is the base command for the CLI
var rootCmd = &cobra.Command{
	Use:   "arcade-sim",
	Short: "Headless simulator for arcade venue layouts",
}

// runOptions carries the run flags into runVenue.
type runOptions struct {
	Seed          int64
	Duration      int64
	Tick          int64
	Rate          float64
	MetricsOut    string
	SnapshotOut   string
	Trace         bool
	MaxCandidates int
}

// runCmd executes the simulation using parameters from CLI flags
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the venue simulation",
	Run: func(cmd *cobra.Command, args []string) {
		setLogLevel()

		cfg, err := loadVenue(venuePath)
		if err != nil {
			logrus.Fatalf("%v", err)
		}
		opts := runOptions{
			Seed:          seed,
			Duration:      duration,
			Tick:          tick,
			Rate:          rate,
			MetricsOut:    metricsOut,
			SnapshotOut:   snapshotOut,
			Trace:         traceEnabled,
			MaxCandidates: maxCands,
		}
		if err := runVenue(cfg, opts, os.Stdout); err != nil {
			logrus.Fatalf("%v", err)
		}
		logrus.Info("Simulation complete.")
	},
}

func setLogLevel() {
	level, err := logrus.ParseLevel(logLevel)
	if err != nil {
		logrus.Fatalf("Invalid log level: %s", logLevel)
	}
	logrus.SetLevel(level)
}

// loadVenue returns the venue at path, or the built-in layout when path is empty.
func loadVenue(path string) (*sim.VenueConfig, error) {
	if path == "" {
		cfg := sim.DefaultVenueConfig()
		return &cfg, nil
	}
	cfg, err := sim.LoadVenueConfig(path)
	if err != nil {
		return nil, err
	}
	logrus.Infof("Loaded venue %s (%d consoles, %d zones)", path, len(cfg.Consoles), len(cfg.Zones))
	return cfg, nil
}

// runVenue builds a venue from cfg, runs it and writes the summary to w.
func runVenue(cfg *sim.VenueConfig, opts runOptions, w io.Writer) error {
	if opts.Duration <= 0 {
		return fmt.Errorf("--duration must be positive, got %d", opts.Duration)
	}
	if opts.Tick <= 0 {
		return fmt.Errorf("--tick must be positive, got %d", opts.Tick)
	}
	if opts.Rate < 0 {
		return fmt.Errorf("--rate must be >= 0, got %v", opts.Rate)
	}
	if opts.Rate > 0 {
		cfg.Arrivals.RatePerMinute = opts.Rate
	}

	var dt *trace.DecisionTrace
	if opts.Trace {
		dt = trace.NewDecisionTrace(trace.TraceConfig{Level: trace.TraceLevelDecisions, MaxCandidates: opts.MaxCandidates})
	}
	v, err := sim.NewVenue(*cfg, opts.Seed, dt)
	if err != nil {
		return err
	}

	logrus.Infof("Starting simulation: seed=%d, duration=%dms, tick=%dms, arrivals=%s@%.1f/min",
		opts.Seed, opts.Duration, opts.Tick, cfg.Arrivals.Process, cfg.Arrivals.RatePerMinute)
	startTime := time.Now()
	v.Run(opts.Duration, opts.Tick)
	logrus.Infof("Simulated %d ms in %s", v.Clock, time.Since(startTime))

	v.Metrics().Print(w, v.Clock)
	if dt != nil {
		printTraceSummary(w, trace.Summarize(dt))
	}
	if opts.MetricsOut != "" {
		if err := v.Metrics().WriteTextfile(opts.MetricsOut); err != nil {
			return err
		}
		logrus.Infof("Metrics written to %s", opts.MetricsOut)
	}
	if opts.SnapshotOut != "" {
		if err := writeSnapshot(opts.SnapshotOut, v.Snapshot()); err != nil {
			return err
		}
		logrus.Infof("Snapshot written to %s", opts.SnapshotOut)
	}
	return nil
}

func printTraceSummary(w io.Writer, s *trace.TraceSummary) {
	fmt.Fprintln(w, "=== Queue Decisions ===")
	fmt.Fprintf(w, "Join Decisions   : %d (joined %d, declined %d)\n", s.TotalJoinDecisions, s.JoinedCount, s.DeclinedCount)
	fmt.Fprintf(w, "Abandonments     : %d (forced %d, angry %d)\n", s.AbandonCount, s.ForcedAbandons, s.AngryAbandons)
	fmt.Fprintf(w, "Consoles Joined  : %d\n", s.UniqueConsoles)
	if s.AbandonCount > 0 {
		fmt.Fprintf(w, "Mean Wait (quit) : %.1f s\n", s.MeanWaitBeforeQuit/1000)
	}
}

func writeSnapshot(path string, s sim.Snapshot) error {
	data, err := yaml.Marshal(s)
	if err != nil {
		return fmt.Errorf("encoding snapshot: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing snapshot: %w", err)
	}
	return nil
}

// Execute runs the CLI root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// init sets up CLI flags and subcommands
func init() {
	rootCmd.PersistentFlags().StringVar(&venuePath, "venue", "", "YAML venue layout (default: built-in layout)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log", "error", "Log level (trace, debug, info, warn, error, fatal, panic)")

	runCmd.Flags().Int64Var(&seed, "seed", 42, "Seed for arrivals, queue decisions and guest ids")
	runCmd.Flags().Int64Var(&duration, "duration", 600_000, "Simulated run length (ms)")
	runCmd.Flags().Int64Var(&tick, "tick", 50, "Simulated time per step (ms)")
	runCmd.Flags().Float64Var(&rate, "rate", 0, "Guest arrivals per minute (0 keeps the venue's rate)")
	runCmd.Flags().StringVar(&metricsOut, "metrics-out", "", "Write Prometheus metrics to this textfile")
	runCmd.Flags().StringVar(&snapshotOut, "snapshot-out", "", "Write the final venue snapshot to this YAML file")
	runCmd.Flags().BoolVar(&traceEnabled, "trace", false, "Record queue decisions and print their summary")
	runCmd.Flags().IntVar(&maxCands, "trace-candidates", 0, "Candidates kept per traced join decision (0 keeps all)")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(analyzeCmd)
}
