package workload

import (
	"fmt"

	"github.com/sirupsen/logrus"
)

// LoadTrace returns the first ticks ticks of the given run for key. Cached traces are
// reused; on a miss all MaxRuns traces are generated and stored before truncation.
func LoadTrace(cache TraceCache, key TraceKey, cfg GenConfig, run, ticks int) (Trace, error) {
	if run < 0 || run >= MaxRuns {
		return nil, fmt.Errorf("run must be in [0, %d), got %d", MaxRuns, run)
	}
	if ticks < 0 || ticks > MaxTraceTicks {
		return nil, fmt.Errorf("ticks must be in [0, %d], got %d", MaxTraceTicks, ticks)
	}

	traces, ok, err := cache.Load(key)
	if err != nil {
		return nil, fmt.Errorf("loading trace %s: %w", key, err)
	}
	if ok && (run >= len(traces) || len(traces[run]) < ticks) {
		logrus.Warnf("Cached trace %s is incomplete; regenerating", key)
		ok = false
	}
	if ok {
		logrus.Infof("Found existing trace for key %s", key)
		return traces[run].Truncate(ticks), nil
	}

	traces, err = Generate(key, cfg)
	if err != nil {
		return nil, err
	}
	if err := cache.Store(key, traces); err != nil {
		return nil, fmt.Errorf("storing trace %s: %w", key, err)
	}
	return traces[run].Truncate(ticks), nil
}
