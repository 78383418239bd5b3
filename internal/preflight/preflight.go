package preflight

import (
	"context"

	"shortreel/internal/config"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
}

// RunAll executes the filesystem and provider checks for the given config.
// Provider checks are skipped when network is false.
func RunAll(ctx context.Context, cfg *config.Config, network bool) []Result {
	if cfg == nil {
		return nil
	}

	results := []Result{
		CheckDirectoryAccess("Staging directory", cfg.Paths.StagingDir),
		CheckReadableDirectory("Music directory", cfg.Paths.MusicDir),
	}
	if cfg.Storage.Backend == config.StorageLocal {
		results = append(results, CheckDirectoryAccess("Videos directory", cfg.Paths.VideosDir))
	}

	if network {
		results = append(results,
			CheckPexels(ctx, cfg.Pexels.BaseURL, cfg.Pexels.APIKey),
			CheckTTS(ctx, cfg),
		)
	}
	return results
}

// Failed returns the results that did not pass.
func Failed(results []Result) []Result {
	var out []Result
	for _, r := range results {
		if !r.Passed {
			out = append(out, r)
		}
	}
	return out
}
