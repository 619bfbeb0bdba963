package cmd

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/taegyunkim/denarii/sim"
	"github.com/taegyunkim/denarii/sim/alloc"
	"github.com/taegyunkim/denarii/sim/trace"
	"github.com/taegyunkim/denarii/sim/workload"
)

var (
	// CLI flags shared by run and compare
	numResources   int       // Number of resource dimensions on the device
	ticks          int       // Number of ticks to simulate
	seed           int64     // Seed for trace generation
	runs           int       // Number of independent runs
	distribution   string    // Arrival process
	rate           float64   // Poisson lambda, or Bernoulli p
	algorithm      string    // Allocation policy
	capacity       []float64 // Per-resource capacity
	traceLevel     string    // Decision trace verbosity
	traceCache     string    // Trace cache kind
	traceCachePath string    // Trace cache directory or database file
	configPath     string    // Optional YAML run config
	logLevel       string    // Log verbosity level
)

// rootCmd is the base command for the CLI
var rootCmd = &cobra.Command{
	Use:   "denarii",
	Short: "Discrete-time simulator for multi-resource allocation in packet processing devices",
}

// runCmd simulates one policy over each requested run
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the allocation simulation",
	Run: func(cmd *cobra.Command, args []string) {
		cfg := mustResolve(cmd)

		cache, err := workload.NewTraceCache(cfg.TraceCache, cfg.TraceCachePath)
		if err != nil {
			logrus.Fatalf("Unable to open trace cache: %v", err)
		}
		defer cache.Close()

		for run := 0; run < cfg.Runs; run++ {
			tr, err := workload.LoadTrace(cache, cfg.TraceKey(), cfg.Workload, run, cfg.Ticks)
			if err != nil {
				logrus.Fatalf("Unable to load trace for run %d: %v", run, err)
			}
			logrus.Infof("Run %d: %d arrivals in %d ticks", run, tr.NumArrivals(), len(tr))

			s, err := simulate(cfg, cfg.Algorithm, tr)
			if err != nil {
				logrus.Fatalf("Run %d failed: %v", run, err)
			}
			report(run, s)
		}
		logrus.Info("Simulation complete.")
	},
}

// mustResolve sets up logging and returns the validated config, exiting on any error.
func mustResolve(cmd *cobra.Command) RunConfig {
	level, err := logrus.ParseLevel(logLevel)
	if err != nil {
		logrus.Fatalf("Invalid log level: %s", logLevel)
	}
	logrus.SetLevel(level)

	cfg, err := resolveConfig(cmd)
	if err != nil {
		logrus.Fatalf("Unable to read run config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		logrus.Fatalf("Invalid configuration: %v", err)
	}
	logrus.Infof("Starting %s with %d resources, capacity=%v, ticks=%d, runs=%d, trace=%s",
		cmd.Name(), cfg.NumResources, cfg.Capacities(), cfg.Ticks, cfg.Runs, cfg.TraceKey())
	return cfg
}

// simulate runs one policy over a trace and returns the finished simulator.
func simulate(cfg RunConfig, policy string, source sim.ArrivalSource) (*sim.Simulator, error) {
	s, err := sim.NewSimulator(sim.SimConfig{
		Ticks:      int64(cfg.Ticks),
		Capacity:   cfg.Capacities(),
		TraceLevel: trace.TraceLevel(cfg.TraceLevel),
	}, alloc.NewAllocator(policy, cfg.Allocator), source)
	if err != nil {
		return nil, err
	}
	if err := s.Run(); err != nil {
		return s, err
	}
	return s, nil
}

// report prints a finished run: completed flows at debug level, then metrics and the
// decision trace summary if one was recorded.
func report(run int, s *sim.Simulator) {
	for _, f := range s.Completed {
		logrus.Debugf("%v completes", f)
	}
	fmt.Printf("=== Run %d ===\n", run)
	s.Metrics.Print()
	if s.Trace != nil {
		printTraceSummary(trace.Summarize(s.Trace))
	}
}

func printTraceSummary(ts *trace.TraceSummary) {
	fmt.Println("=== Decision Trace Summary ===")
	fmt.Printf("Admissions: %d (admitted %d, rejected %d)\n", ts.TotalAdmissions, ts.AdmittedCount, ts.RejectedCount)
	fmt.Printf("Allocations: %d (largest active set %d)\n", ts.Allocations, ts.MaxFlows)
	fmt.Printf("Completions: %d\n", ts.Completions)
	fmt.Printf("Jain fairness of dominant shares: mean %.4f, min %.4f\n", ts.MeanFairness, ts.MinFairness)
}

// Execute runs the CLI root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// registerSimFlags binds the simulation flags to cmd.
func registerSimFlags(cmd *cobra.Command) {
	def := DefaultRunConfig()
	cmd.Flags().IntVar(&numResources, "num-resources", def.NumResources, "Number of resources on the device")
	cmd.Flags().IntVar(&ticks, "ticks", def.Ticks, fmt.Sprintf("Number of ticks to simulate (at most %d)", workload.MaxTraceTicks))
	cmd.Flags().Int64Var(&seed, "seed", def.Seed, "Seed for trace generation")
	cmd.Flags().IntVar(&runs, "runs", def.Runs, fmt.Sprintf("Number of runs, each on its own trace (at most %d)", workload.MaxRuns))
	cmd.Flags().StringVar(&distribution, "distribution", def.Distribution, "Arrival process (poisson, bernoulli)")
	cmd.Flags().Float64Var(&rate, "lambda", def.Rate, "Poisson mean arrivals per tick, or Bernoulli arrival probability")
	cmd.Flags().StringVar(&algorithm, "algorithm", def.Algorithm, "Allocation policy (drf, ceei, asset-fairness)")
	cmd.Flags().Float64SliceVar(&capacity, "capacity", nil, "Comma-separated per-resource capacity (default (k+1)*10)")
	cmd.Flags().StringVar(&traceLevel, "trace-level", def.TraceLevel, "Decision trace level (none, decisions)")
	cmd.Flags().StringVar(&traceCache, "trace-cache", def.TraceCache, "Trace cache (none, memory, file, sqlite)")
	cmd.Flags().StringVar(&traceCachePath, "trace-cache-path", "", "Trace cache directory (file) or database path (sqlite)")
	cmd.Flags().StringVar(&configPath, "config", "", "Path to a YAML run config; explicit flags override it")
	cmd.Flags().StringVar(&logLevel, "log", "error", "Log level (trace, debug, info, warn, error, fatal, panic)")
}

// init sets up CLI flags and subcommands
func init() {
	registerSimFlags(runCmd)
	registerSimFlags(compareCmd)

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(compareCmd)
}
