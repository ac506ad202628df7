package preflight

import (
	"context"

	"liner/internal/config"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
}

// RunAll executes every environment check for the given config. Failures are
// reported, never fatal: the daemon comes up regardless and logs what is
// broken, and the status command renders the same list.
func RunAll(ctx context.Context, cfg *config.Config) []Result {
	if cfg == nil {
		return nil
	}

	return []Result{
		CheckDataDir(cfg.Storage.DataDir),
		CheckPlayerBinary(cfg.Player.Command),
		CheckMPD(ctx, cfg),
		CheckAPIKey("Commentary API key", cfg.Commentary.APIKey),
		CheckAPIKey("Speech API key", cfg.Speech.APIKey),
	}
}

// Failures filters results down to the checks that did not pass.
func Failures(results []Result) []Result {
	var failed []Result
	for _, result := range results {
		if !result.Passed {
			failed = append(failed, result)
		}
	}
	return failed
}
