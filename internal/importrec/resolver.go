package importrec

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path"
	"path/filepath"

	"bundlepull/internal/ccuuid"
	"bundlepull/internal/fileutil"
	"bundlepull/internal/logging"
	"bundlepull/internal/services"
	"bundlepull/internal/transport"
)

// Status describes where a located record came from.
type Status int

const (
	StatusMissing Status = iota
	StatusCached
	StatusFetched
)

func (s Status) String() string {
	switch s {
	case StatusCached:
		return "cached"
	case StatusFetched:
		return "fetched"
	default:
		return "missing"
	}
}

// RelPath returns the slash-separated location of an import record relative
// to both the remote assets/ root and the local mirror. The shard directory
// always comes from the compact identifier; id is the file stem (canonical
// or compact).
func RelPath(bundle, compact, id, importHash string) string {
	return path.Join(bundle, "import", ccuuid.Prefix(compact), id+"."+importHash+".json")
}

// Resolver locates import records locally or remotely.
type Resolver struct {
	getter transport.Getter
	root   string
	logger *slog.Logger
}

// NewResolver builds a Resolver. root is the local mirror directory and may
// be empty to disable caching; getter may be nil to resolve offline.
func NewResolver(getter transport.Getter, root string, logger *slog.Logger) *Resolver {
	return &Resolver{
		getter: getter,
		root:   root,
		logger: logging.NewComponentLogger(logger, "importrec"),
	}
}

// Resolve returns the parsed record for an asset, or nil when none can be
// found. Transport failures are logged and reported as absent; only context
// cancellation and undecodable documents surface as errors.
func (r *Resolver) Resolve(ctx context.Context, bundle, compact, importHash string) (*Record, error) {
	if importHash == "" {
		return nil, nil
	}
	raw, _, err := r.locate(ctx, bundle, compact, importHash)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		logging.WithContext(ctx, r.logger).Debug("import record unavailable",
			logging.String(logging.FieldAsset, compact),
			logging.Error(err),
		)
		return nil, nil
	}
	if raw == nil {
		return nil, nil
	}
	return Parse(raw)
}

// Fetch makes sure the record is present in the local mirror, downloading it
// when needed, and reports where it came from.
func (r *Resolver) Fetch(ctx context.Context, bundle, compact, importHash string) (Status, error) {
	if importHash == "" {
		return StatusMissing, nil
	}
	_, status, err := r.locate(ctx, bundle, compact, importHash)
	return status, err
}

func (r *Resolver) locate(ctx context.Context, bundle, compact, importHash string) ([]byte, Status, error) {
	canonical := ccuuid.Decode(compact)
	ids := []string{canonical}
	if compact != canonical {
		ids = append(ids, compact)
	}

	if r.root != "" {
		for _, id := range ids {
			local := filepath.Join(r.root, filepath.FromSlash(RelPath(bundle, compact, id, importHash)))
			if data, err := os.ReadFile(local); err == nil && len(data) > 0 {
				return data, StatusCached, nil
			}
		}
	}
	if r.getter == nil {
		return nil, StatusMissing, nil
	}

	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			return nil, StatusMissing, err
		}
		rel := RelPath(bundle, compact, id, importHash)
		resp, err := r.getter.Get(ctx, "assets/"+rel)
		if err != nil {
			return nil, StatusMissing, services.Wrap(services.ErrTransient, "imports", "fetch", rel, err)
		}
		if resp.NotFound() || (resp.OK() && len(resp.Body) == 0) {
			continue
		}
		if !resp.OK() {
			return nil, StatusMissing, services.Wrap(services.ErrTransient, "imports", "fetch", fmt.Sprintf("%s: status %d", rel, resp.StatusCode), nil)
		}
		if r.root != "" {
			local := filepath.Join(r.root, filepath.FromSlash(rel))
			if err := fileutil.WriteFileAtomic(local, resp.Body, 0o644); err != nil {
				logging.WarnWithContext(logging.WithContext(ctx, r.logger), "import record not cached", "import_cache_write_failed",
					logging.String(logging.FieldPath, local),
					logging.Error(err),
					logging.String(logging.FieldImpact, "record will be downloaded again next run"),
				)
			}
		}
		return resp.Body, StatusFetched, nil
	}
	return nil, StatusMissing, nil
}
