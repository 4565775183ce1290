package pipeline

import (
	"context"
	"path/filepath"

	"bundlepull/internal/existence"
	"bundlepull/internal/logging"
	"bundlepull/internal/manifest"
	"bundlepull/internal/probe"
	"bundlepull/internal/services"
	"bundlepull/internal/settings"
	"bundlepull/internal/textutil"
)

// AssetResult is the outcome of one native asset.
type AssetResult struct {
	Asset   manifest.ResolvedAsset
	Name    string
	Outcome probe.Outcome
}

// FetchAssets resolves the native payload of every asset in the target
// bundles into {output_dir}/{bundle}. Bundles are processed one after
// another; assets within a bundle run on the worker pool.
func (r *Runner) FetchAssets(ctx context.Context, s *settings.Settings, names []string) (Summary, error) {
	ctx, summary := r.begin(ctx, StageAssets)
	targets, unknown := r.Targets(s, names)
	for i := range unknown {
		_ = r.skipBundle(services.WithBundle(ctx, unknown[i].Bundle), &unknown[i], unknown[i].Err)
	}
	summary.Bundles = unknown

	for _, bundle := range targets {
		version, _ := s.Version(bundle)
		result, err := r.fetchBundle(services.WithBundle(ctx, bundle), bundle, version)
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

func (r *Runner) fetchBundle(ctx context.Context, bundle, version string) (BundleResult, error) {
	result := BundleResult{Bundle: bundle, Version: version}
	logger := logging.WithContext(ctx, r.logger)

	m, err := r.Manifest(ctx, bundle, version)
	if err != nil {
		return result, r.skipBundle(ctx, &result, err)
	}

	destDir := filepath.Join(r.cfg.Paths.OutputDir, bundle)
	index, err := existence.Build(destDir, nil)
	if err != nil {
		return result, r.skipBundle(ctx, &result, err)
	}
	fetcher := probe.NewFetcher(r.client, probe.Options{
		Attempts:  r.cfg.Fetch.RetryAttempts,
		Backoff:   r.cfg.RetryBackoff(),
		Overwrite: r.cfg.Fetch.Overwrite,
		Index:     index,
		Logger:    r.logger,
	})

	assets := m.Assets(bundle)
	logger.Info("bundle started",
		logging.String(logging.FieldEventType, "bundle_start"),
		logging.String("version", version),
		logging.Int("assets", len(assets)),
		logging.Int("indexed_files", index.Files()),
	)

	outcomes := make([]AssetResult, len(assets))
	ran := make([]bool, len(assets))
	progress := newTracker(StageAssets, bundle, len(assets), r.progress, logger)
	poolErr := forEach(ctx, r.cfg.Fetch.Workers, assets, func(ctx context.Context, i int, asset manifest.ResolvedAsset) {
		defer progress.step()
		outcomes[i] = r.fetchAsset(ctx, fetcher, destDir, asset)
		ran[i] = true
	})

	for i, out := range outcomes {
		if !ran[i] {
			continue
		}
		switch out.Outcome.Status {
		case probe.Downloaded:
			result.Downloaded++
			result.Bytes += out.Outcome.Bytes
		case probe.AlreadyPresent:
			result.Present++
		default:
			result.Unresolved++
			logger.Debug("asset unresolved",
				logging.String(logging.FieldAsset, out.Asset.CanonicalUUID),
				logging.String("name", out.Name),
				logging.Int("requests", out.Outcome.Requests),
				logging.Error(out.Outcome.Err),
			)
		}
	}
	if poolErr != nil {
		return result, poolErr
	}

	r.extractBundle(ctx, m, &result)
	logger.Info("bundle finished",
		logging.String(logging.FieldEventType, "bundle_complete"),
		logging.Int("downloaded", result.Downloaded),
		logging.Int("present", result.Present),
		logging.Int("unresolved", result.Unresolved),
		logging.Bytes(result.Bytes),
	)
	return result, nil
}

func (r *Runner) fetchAsset(ctx context.Context, fetcher *probe.Fetcher, destDir string, asset manifest.ResolvedAsset) AssetResult {
	result := AssetResult{Asset: asset, Name: r.assetName(asset)}
	configHint, _ := probe.ExtensionForType(asset.ResourceTypeName)

	// Files already on disk under the type-derived list settle the asset
	// before the import record is consulted, keeping reruns offline.
	if out, ok := fetcher.Present(probe.BuildCandidates(configHint, ""), destDir, result.Name); ok {
		result.Outcome = out
		return result
	}

	importHint := ""
	if configHint == "" {
		importHint = r.importHint(ctx, asset)
	}
	candidates := probe.BuildCandidates(configHint, importHint)
	base := probe.NativeBase(asset.Bundle, asset.CanonicalUUID, asset.NativeHash)
	result.Outcome = fetcher.FetchFirstSuccess(ctx, base, candidates, destDir, result.Name)
	return result
}

// importHint reads the native extension from the asset's import record,
// falling back to the extension implied by the record's type.
func (r *Runner) importHint(ctx context.Context, asset manifest.ResolvedAsset) string {
	rec, err := r.resolver.Resolve(ctx, asset.Bundle, asset.CompactUUID, asset.ImportHash)
	if err != nil || rec == nil {
		return ""
	}
	if hint := rec.NativeHint(); hint != "" {
		return hint
	}
	if typeName, _, ok := rec.TypeAndNative(); ok {
		if ext, ok := probe.ExtensionForType(typeName); ok {
			return ext
		}
	}
	return ""
}

// assetName maps an asset to its slash-separated destination stem. Names
// that would leave the bundle directory fall back to the canonical id.
func (r *Runner) assetName(asset manifest.ResolvedAsset) string {
	if name, ok := textutil.AssetRelPath(asset.Name(), r.cfg.Fetch.FlattenNames); ok {
		return name
	}
	return asset.CanonicalUUID
}

// extractBundle runs the structural passes enabled in the config. Failures
// are logged and never affect the bundle's fetch tally.
func (r *Runner) extractBundle(ctx context.Context, m *manifest.Manifest, result *BundleResult) {
	if !r.cfg.Extract.Skeletons && !r.cfg.Extract.Animations {
		return
	}
	logger := logging.WithContext(ctx, r.logger)
	ex := r.Extractor()

	if r.cfg.Extract.Skeletons {
		skeletons, err := ex.Skeletons(ctx, result.Bundle, m)
		result.Skeletons = len(skeletons)
		if err != nil {
			logging.WarnWithContext(logger, "skeleton extraction failed", "extract_failed",
				logging.Error(err),
				logging.String(logging.FieldImpact, "downloaded assets are unaffected"),
			)
		}
	}

	if r.cfg.Extract.Animations {
		anim, err := ex.FindAnimation(ctx, result.Bundle, m)
		if err != nil {
			logger.Debug("no animation table", logging.Error(err))
			return
		}
		lists, err := ex.Timelines(ctx, result.Bundle, anim, filepath.Join(r.cfg.Paths.OutputDir, result.Bundle))
		for _, list := range lists {
			if list.Path != "" {
				result.Clips++
			}
		}
		if err != nil {
			logging.WarnWithContext(logger, "animation timeline failed", "extract_failed",
				logging.Error(err),
				logging.String(logging.FieldImpact, "downloaded assets are unaffected"),
			)
		}
	}
}
