//go:build linux

package cmd

import (
	"log/slog"

	perf "github.com/hodgesds/perf-utils"
)

func countInstructions(name string, logger *slog.Logger, fn func() error) (err error) {
	var (
		pv     *perf.ProfileValue
		ran    bool
		runErr error
	)
	pv, err = perf.CPUInstructions(func() error {
		ran = true
		runErr = fn()
		return nil
	})
	if err != nil {
		// Counters are unavailable without perf_event permissions
		logger.Warn("instruction counter unavailable", "check", name, "error", err)
		if !ran {
			return fn()
		}
		return runErr
	}
	logger.Info("instructions", "check", name, "count", pv.Value,
		"enabled", pv.TimeEnabled, "running", pv.TimeRunning)
	return runErr
}
