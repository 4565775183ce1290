// Package settings loads the deployment settings document that lists every
// bundle and its current version.
package settings

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"sort"

	"bundlepull/internal/fileutil"
	"bundlepull/internal/logging"
	"bundlepull/internal/services"
	"bundlepull/internal/transport"
)

// Source reports where a settings document was read from.
type Source string

const (
	FromCache   Source = "cache"
	FromNetwork Source = "network"
)

// Settings is the decoded settings document.
type Settings struct {
	bundleVers map[string]string
	source     Source
}

type rawSettings struct {
	Assets *struct {
		BundleVers map[string]any `json:"bundleVers"`
	} `json:"assets"`
}

// Parse decodes a settings document. assets.bundleVers must be present;
// numeric versions are accepted and rendered as strings.
func Parse(raw []byte) (*Settings, error) {
	var doc rawSettings
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, services.Wrap(services.ErrDecodeFailure, "settings", "parse", "invalid JSON", err)
	}
	if doc.Assets == nil || doc.Assets.BundleVers == nil {
		return nil, services.Wrap(services.ErrDecodeFailure, "settings", "parse", "missing assets.bundleVers", nil)
	}
	vers := make(map[string]string, len(doc.Assets.BundleVers))
	for name, value := range doc.Assets.BundleVers {
		switch v := value.(type) {
		case string:
			if v != "" {
				vers[name] = v
			}
		case float64:
			vers[name] = fmt.Sprintf("%v", v)
		}
	}
	return &Settings{bundleVers: vers}, nil
}

// Options controls Load.
type Options struct {
	// RemotePath is the settings location relative to the deployment root.
	RemotePath string
	// CachePath is the local copy; empty disables caching.
	CachePath string
	// Refresh ignores the cached copy.
	Refresh bool
	Logger  *slog.Logger
}

// Load returns the cached settings when present and parseable, otherwise
// fetches them and refreshes the cache.
func Load(ctx context.Context, getter transport.Getter, opts Options) (*Settings, error) {
	logger := logging.NewComponentLogger(opts.Logger, "settings")

	if opts.CachePath != "" && !opts.Refresh {
		if raw, err := os.ReadFile(opts.CachePath); err == nil {
			s, perr := Parse(raw)
			if perr == nil {
				s.source = FromCache
				return s, nil
			}
			logger.Warn("cached settings unreadable, refetching",
				logging.String(logging.FieldPath, opts.CachePath),
				logging.Error(perr),
				logging.String(logging.FieldEventType, "settings_cache_invalid"),
			)
		}
	}

	if getter == nil {
		return nil, services.Wrap(services.ErrConfiguration, "settings", "load", "no cached settings and no transport", nil)
	}
	resp, err := getter.Get(ctx, opts.RemotePath)
	if err != nil {
		return nil, services.Wrap(services.ErrTransient, "settings", "fetch", opts.RemotePath, err)
	}
	if resp.NotFound() {
		return nil, services.Wrap(services.ErrNotFound, "settings", "fetch", resp.URL, nil)
	}
	if !resp.OK() {
		return nil, services.Wrap(services.ErrTransient, "settings", "fetch", fmt.Sprintf("%s: status %d", resp.URL, resp.StatusCode), nil)
	}
	s, err := Parse(resp.Body)
	if err != nil {
		return nil, err
	}
	s.source = FromNetwork

	if opts.CachePath != "" {
		if err := fileutil.WriteFileAtomic(opts.CachePath, resp.Body, 0o644); err != nil {
			return nil, fmt.Errorf("cache settings: %w", err)
		}
		logger.Info("settings cached",
			logging.String(logging.FieldPath, opts.CachePath),
			logging.Int("bundles", len(s.bundleVers)),
		)
	}
	return s, nil
}

// Source reports whether the document came from the cache or the network.
func (s *Settings) Source() Source { return s.source }

// BundleVersions returns a copy of the bundle name to version map.
func (s *Settings) BundleVersions() map[string]string {
	out := make(map[string]string, len(s.bundleVers))
	for k, v := range s.bundleVers {
		out[k] = v
	}
	return out
}

// Version returns the version of a single bundle.
func (s *Settings) Version(bundle string) (string, bool) {
	v, ok := s.bundleVers[bundle]
	return v, ok
}

// SortedBundles returns bundle names accepted by keep, sorted. A nil keep
// accepts every bundle.
func (s *Settings) SortedBundles(keep func(string) bool) []string {
	names := make([]string, 0, len(s.bundleVers))
	for name := range s.bundleVers {
		if keep == nil || keep(name) {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}
