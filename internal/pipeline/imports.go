package pipeline

import (
	"context"

	"bundlepull/internal/ccuuid"
	"bundlepull/internal/existence"
	"bundlepull/internal/importrec"
	"bundlepull/internal/logging"
	"bundlepull/internal/manifest"
	"bundlepull/internal/services"
	"bundlepull/internal/settings"
)

type importTask struct {
	compact string
	hash    string
}

// PrefetchImports downloads the import records of every target bundle into
// the import directory. Records already on disk, under either identifier
// form, are not requested.
func (r *Runner) PrefetchImports(ctx context.Context, s *settings.Settings, names []string) (Summary, error) {
	ctx, summary := r.begin(ctx, StageImports)
	targets, unknown := r.Targets(s, names)
	for i := range unknown {
		_ = r.skipBundle(services.WithBundle(ctx, unknown[i].Bundle), &unknown[i], unknown[i].Err)
	}
	summary.Bundles = unknown

	index, err := existence.Build(r.cfg.Paths.ImportDir, []string{".json"})
	if err != nil {
		return summary, err
	}

	for _, bundle := range targets {
		version, _ := s.Version(bundle)
		result, err := r.prefetchBundle(services.WithBundle(ctx, bundle), index, bundle, version)
		summary.Bundles = append(summary.Bundles, result)
		if err != nil {
			summary.Finished = r.now()
			return summary, err
		}
	}
	summary.Finished = r.now()
	r.logStage(ctx, summary)
	return summary, nil
}

func (r *Runner) prefetchBundle(ctx context.Context, index *existence.Index, bundle, version string) (BundleResult, error) {
	result := BundleResult{Bundle: bundle, Version: version}
	m, err := r.Manifest(ctx, bundle, version)
	if err != nil {
		return result, r.skipBundle(ctx, &result, err)
	}

	tasks, present := pendingImports(m, bundle, index)
	result.Present = present
	statuses := make([]importrec.Status, len(tasks))
	failures := make([]error, len(tasks))
	ran := make([]bool, len(tasks))
	progress := newTracker(StageImports, bundle, len(tasks), r.progress, logging.WithContext(ctx, r.logger))
	poolErr := forEach(ctx, r.cfg.Fetch.Workers, tasks, func(ctx context.Context, i int, task importTask) {
		defer progress.step()
		statuses[i], failures[i] = r.resolver.Fetch(ctx, bundle, task.compact, task.hash)
		ran[i] = true
	})

	logger := logging.WithContext(ctx, r.logger)
	for i, status := range statuses {
		if !ran[i] {
			continue
		}
		switch {
		case failures[i] != nil:
			result.Unresolved++
			logger.Debug("import record not fetched",
				logging.String(logging.FieldAsset, tasks[i].compact),
				logging.Error(failures[i]),
			)
		case status == importrec.StatusFetched:
			result.Downloaded++
		case status == importrec.StatusCached:
			result.Present++
		default:
			result.Unresolved++
		}
	}
	return result, poolErr
}

// pendingImports lists the import entries of m with no record on disk and
// counts the ones already present. Paths in the index are relative to the
// import directory.
func pendingImports(m *manifest.Manifest, bundle string, index *existence.Index) ([]importTask, int) {
	tasks := make([]importTask, 0, len(m.Import))
	seen := make(map[string]struct{}, len(m.Import))
	present := 0
	for _, compact := range m.UUIDs {
		hash, ok := m.Import[compact]
		if !ok {
			continue
		}
		if _, dup := seen[compact]; dup {
			continue
		}
		seen[compact] = struct{}{}
		if importPresent(index, bundle, compact, hash) {
			present++
			continue
		}
		tasks = append(tasks, importTask{compact: compact, hash: hash})
	}
	return tasks, present
}

// importPresent treats a record as present when any file stem under the
// import directory names the asset, whatever hash it carries, before falling
// back to the exact current paths.
func importPresent(index *existence.Index, bundle, compact, hash string) bool {
	canonical := ccuuid.Decode(compact)
	if index.HasAny(canonical, compact) {
		return true
	}
	return index.HasPath(importrec.RelPath(bundle, compact, canonical, hash)) ||
		index.HasPath(importrec.RelPath(bundle, compact, compact, hash))
}
