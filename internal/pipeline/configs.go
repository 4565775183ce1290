package pipeline

import (
	"context"

	"bundlepull/internal/fileutil"
	"bundlepull/internal/logging"
	"bundlepull/internal/services"
	"bundlepull/internal/settings"
)

// MirrorConfigs copies every target bundle manifest into the config
// directory. Bundles whose mirror already holds a non-empty file are left
// alone.
func (r *Runner) MirrorConfigs(ctx context.Context, s *settings.Settings, names []string) (Summary, error) {
	ctx, summary := r.begin(ctx, StageConfigs)
	targets, unknown := r.Targets(s, names)
	for i := range unknown {
		_ = r.skipBundle(services.WithBundle(ctx, unknown[i].Bundle), &unknown[i], unknown[i].Err)
	}

	results := make([]BundleResult, len(targets))
	progress := newTracker(StageConfigs, "", len(targets), r.progress, logging.WithContext(ctx, r.logger))
	err := forEach(ctx, r.cfg.Fetch.Workers, targets, func(ctx context.Context, i int, bundle string) {
		defer progress.step()
		version, _ := s.Version(bundle)
		results[i] = r.mirrorConfig(services.WithBundle(ctx, bundle), bundle, version)
	})

	summary.Bundles = append(unknown, completed(results)...)
	summary.Finished = r.now()
	r.logStage(ctx, summary)
	return summary, err
}

func (r *Runner) mirrorConfig(ctx context.Context, bundle, version string) BundleResult {
	result := BundleResult{Bundle: bundle, Version: version}
	local := r.manifestMirrorPath(bundle, version)
	if fileutil.NonEmptyFile(local) {
		result.Present = 1
		return result
	}
	raw, err := r.fetchManifest(ctx, bundle, version)
	if err != nil {
		result.Unresolved = 1
		_ = r.skipBundle(ctx, &result, err)
		return result
	}
	if err := fileutil.WriteFileAtomic(local, raw, 0o644); err != nil {
		result.Unresolved = 1
		_ = r.skipBundle(ctx, &result, err)
		return result
	}
	result.Downloaded = 1
	result.Bytes = int64(len(raw))
	return result
}

// completed drops the zero rows left by tasks that never ran because the
// stage was cancelled.
func completed(results []BundleResult) []BundleResult {
	out := results[:0]
	for _, result := range results {
		if result.Bundle != "" {
			out = append(out, result)
		}
	}
	return out
}

func (r *Runner) logStage(ctx context.Context, summary Summary) {
	totals := summary.Totals()
	logging.WithContext(ctx, r.logger).Info("stage finished",
		logging.String(logging.FieldEventType, "stage_complete"),
		logging.Int("bundles", len(summary.Bundles)),
		logging.Int("downloaded", totals.Downloaded),
		logging.Int("present", totals.Present),
		logging.Int("unresolved", totals.Unresolved),
		logging.Int("skipped_bundles", totals.SkippedBundles),
		logging.Bytes(totals.Bytes),
		logging.Duration("elapsed", summary.Duration()),
	)
}
