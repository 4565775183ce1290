package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"bundlepull/internal/config"
	"bundlepull/internal/extract"
	"bundlepull/internal/fileutil"
	"bundlepull/internal/importrec"
	"bundlepull/internal/logging"
	"bundlepull/internal/manifest"
	"bundlepull/internal/services"
	"bundlepull/internal/settings"
	"bundlepull/internal/transport"
)

// Runner executes fetch stages against one deployment.
type Runner struct {
	cfg      *config.Config
	client   transport.Getter
	logger   *slog.Logger
	progress ProgressFunc
	now      func() time.Time
	resolver *importrec.Resolver
}

// Option configures optional Runner behavior.
type Option func(*Runner)

// WithProgress registers a callback invoked after every finished task.
func WithProgress(fn ProgressFunc) Option {
	return func(r *Runner) {
		r.progress = fn
	}
}

// New constructs a Runner. client may be nil for purely local operations.
func New(cfg *config.Config, client transport.Getter, logger *slog.Logger, opts ...Option) *Runner {
	logger = logging.NewComponentLogger(logger, "pipeline")
	r := &Runner{
		cfg:      cfg,
		client:   client,
		logger:   logger,
		now:      time.Now,
		resolver: importrec.NewResolver(client, cfg.Paths.ImportDir, logger),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolver exposes the import resolver shared by all stages.
func (r *Runner) Resolver() *importrec.Resolver {
	return r.resolver
}

// Extractor returns an extractor writing below the configured extract
// directory.
func (r *Runner) Extractor() *extract.Extractor {
	return extract.New(r.resolver, r.cfg.Extract.OutputDir, r.logger)
}

// LoadSettings returns the deployment settings, cached unless refresh is set.
func (r *Runner) LoadSettings(ctx context.Context, refresh bool) (*settings.Settings, error) {
	return settings.Load(ctx, r.client, settings.Options{
		RemotePath: r.cfg.Source.SettingsPath,
		CachePath:  r.cfg.SettingsCachePath(),
		Refresh:    refresh,
		Logger:     r.logger,
	})
}

// Targets picks the bundles to process. Explicit names win over the
// configured filter; names the settings do not list are reported as skipped
// results so the caller can surface them.
func (r *Runner) Targets(s *settings.Settings, names []string) ([]string, []BundleResult) {
	if len(names) == 0 {
		return s.SortedBundles(r.cfg.WantsBundle), nil
	}
	var (
		targets []string
		unknown []BundleResult
		seen    = make(map[string]struct{}, len(names))
	)
	for _, name := range names {
		if _, dup := seen[name]; dup {
			continue
		}
		seen[name] = struct{}{}
		if _, ok := s.Version(name); !ok {
			unknown = append(unknown, BundleResult{
				Bundle:  name,
				Skipped: true,
				Err:     services.Wrap(services.ErrNotFound, "pipeline", "targets", fmt.Sprintf("bundle %q not in settings", name), nil),
			})
			continue
		}
		targets = append(targets, name)
	}
	return targets, unknown
}

// ManifestRelPath is the manifest location relative to the deployment root
// and, without the assets/ prefix, relative to the config directory.
func ManifestRelPath(bundle, version string) string {
	return fmt.Sprintf("assets/%s/config.%s.json", bundle, version)
}

func (r *Runner) manifestMirrorPath(bundle, version string) string {
	return filepath.Join(r.cfg.Paths.ConfigDir, bundle, fmt.Sprintf("config.%s.json", version))
}

// Manifest returns a bundle's parsed manifest, reading the local mirror when
// it holds a valid copy and fetching (and mirroring) it otherwise.
func (r *Runner) Manifest(ctx context.Context, bundle, version string) (*manifest.Manifest, error) {
	local := r.manifestMirrorPath(bundle, version)
	if raw, err := os.ReadFile(local); err == nil && len(raw) > 0 {
		m, perr := manifest.Parse(raw)
		if perr == nil {
			return m, nil
		}
		logging.WithContext(ctx, r.logger).Debug("mirrored manifest unreadable, refetching",
			logging.String(logging.FieldPath, local),
			logging.Error(perr),
		)
	}
	raw, err := r.fetchManifest(ctx, bundle, version)
	if err != nil {
		return nil, err
	}
	m, err := manifest.Parse(raw)
	if err != nil {
		return nil, err
	}
	if err := fileutil.WriteFileAtomic(local, raw, 0o644); err != nil {
		return nil, fmt.Errorf("mirror manifest: %w", err)
	}
	return m, nil
}

// fetchManifest downloads a manifest, retrying transient failures with the
// native retry policy.
func (r *Runner) fetchManifest(ctx context.Context, bundle, version string) ([]byte, error) {
	if r.client == nil {
		return nil, services.Wrap(services.ErrConfiguration, StageConfigs, "fetch manifest", "no transport configured", nil)
	}
	rel := ManifestRelPath(bundle, version)
	attempts := r.cfg.Fetch.RetryAttempts
	if attempts <= 0 {
		attempts = 1
	}
	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		resp, err := r.client.Get(ctx, rel)
		switch {
		case err != nil:
			lastErr = services.Wrap(services.ErrTransient, StageConfigs, "fetch manifest", rel, err)
		case resp.NotFound():
			return nil, services.Wrap(services.ErrNotFound, StageConfigs, "fetch manifest", resp.URL, nil)
		case !resp.OK():
			lastErr = services.Wrap(services.ErrTransient, StageConfigs, "fetch manifest", fmt.Sprintf("%s: status %d", resp.URL, resp.StatusCode), nil)
		case len(resp.Body) == 0:
			return nil, services.Wrap(services.ErrMalformedManifest, StageConfigs, "fetch manifest", resp.URL+": empty body", nil)
		default:
			return resp.Body, nil
		}
		if attempt < attempts {
			if err := sleep(ctx, r.cfg.RetryBackoff()); err != nil {
				return nil, err
			}
		}
	}
	return nil, lastErr
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func (r *Runner) begin(ctx context.Context, stage string) (context.Context, Summary) {
	ctx = services.WithStage(ctx, stage)
	runID, _ := services.RunIDFromContext(ctx)
	return ctx, Summary{RunID: runID, Stage: stage, Started: r.now()}
}

// skipBundle records a bundle-level failure. It returns the context error
// when the failure was a cancellation so the stage can stop.
func (r *Runner) skipBundle(ctx context.Context, result *BundleResult, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	result.Skipped = true
	result.Err = err
	logging.WarnWithContext(logging.WithContext(ctx, r.logger), "bundle skipped", "bundle_skipped",
		logging.Error(err),
		logging.String(logging.FieldErrorHint, bundleHint(err)),
		logging.String(logging.FieldImpact, "run continued with the next bundle"),
	)
	return nil
}

func bundleHint(err error) string {
	switch {
	case services.SkipsBundle(err):
		return "the deployment may have rotated this bundle; refresh settings and retry"
	default:
		return "check disk space and permissions under the configured directories"
	}
}
