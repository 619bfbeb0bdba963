package cmd

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/taegyunkim/denarii/sim"
	"github.com/taegyunkim/denarii/sim/alloc"
	"github.com/taegyunkim/denarii/sim/trace"
	"github.com/taegyunkim/denarii/sim/workload"
)

// compareCmd replays each run's trace under every allocation policy
var compareCmd = &cobra.Command{
	Use:   "compare",
	Short: "Compare all allocation policies on the same traces",
	Run: func(cmd *cobra.Command, args []string) {
		cfg := mustResolve(cmd)
		// Fairness columns need allocation records.
		cfg.TraceLevel = string(trace.TraceLevelDecisions)

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
			results, err := comparePolicies(cfg, alloc.ValidAllocatorNames(), tr)
			if err != nil {
				logrus.Fatalf("Run %d failed: %v", run, err)
			}
			fmt.Printf("=== Run %d: %d arrivals in %d ticks ===\n", run, tr.NumArrivals(), len(tr))
			printComparison(results)
		}
	},
}

// comparePolicies simulates every policy on the same trace concurrently. Each policy
// gets its own Simulator; the trace is only read. Results follow the order of policies.
func comparePolicies(cfg RunConfig, policies []string, tr workload.Trace) ([]*sim.Simulator, error) {
	results := make([]*sim.Simulator, len(policies))
	var g errgroup.Group
	for i, policy := range policies {
		g.Go(func() error {
			s, err := simulate(cfg, policy, tr)
			if err != nil {
				return fmt.Errorf("%s: %w", policy, err)
			}
			results[i] = s
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

func printComparison(results []*sim.Simulator) {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "policy\tcompleted\tactive\tlatency_mean\tlatency_p99\tutilization\tjain_mean\tjain_min")
	for _, s := range results {
		m := s.Metrics.Summary()
		ts := trace.Summarize(s.Trace)
		fmt.Fprintf(w, "%s\t%d\t%d\t%.2f\t%.2f\t%.3f\t%.4f\t%.4f\n",
			m.Policy, m.CompletedFlows, m.ActiveAtEnd, m.LatencyMean, m.LatencyP99,
			m.MeanUtilization, ts.MeanFairness, ts.MinFairness)
	}
	w.Flush()
}
