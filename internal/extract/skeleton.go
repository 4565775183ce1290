package extract

import (
	"context"
	"log/slog"
	"path/filepath"
	"strings"

	"bundlepull/internal/fileutil"
	"bundlepull/internal/importrec"
	"bundlepull/internal/logging"
	"bundlepull/internal/manifest"
	"bundlepull/internal/structural"
)

const skeletonType = "sp.SkeletonData"

// Skeleton describes one written skeleton file.
type Skeleton struct {
	Asset string
	Name  string
	Path  string
}

// Extractor reads import records through a resolver and writes extracted
// payloads below an output directory.
type Extractor struct {
	resolver *importrec.Resolver
	outDir   string
	logger   *slog.Logger
}

// New builds an Extractor.
func New(resolver *importrec.Resolver, outDir string, logger *slog.Logger) *Extractor {
	return &Extractor{
		resolver: resolver,
		outDir:   outDir,
		logger:   logging.NewComponentLogger(logger, "extract"),
	}
}

// FlatName turns a display name into a single file name.
func FlatName(name string) string {
	return strings.ReplaceAll(name, "/", "_")
}

// Skeletons writes {outDir}/{bundle}/{name}.json for every skeleton record
// in m that contains a skeleton subtree. Records that are missing or carry
// no such subtree are skipped.
func (e *Extractor) Skeletons(ctx context.Context, bundle string, m *manifest.Manifest) ([]Skeleton, error) {
	logger := logging.WithContext(ctx, e.logger)
	var written []Skeleton
	for _, entry := range m.EntriesOfType(skeletonType) {
		if err := ctx.Err(); err != nil {
			return written, err
		}
		rec, err := e.resolver.Resolve(ctx, bundle, entry.CompactUUID, entry.ImportHash)
		if err != nil {
			if ctx.Err() != nil {
				return written, ctx.Err()
			}
			logger.Debug("skeleton record unreadable",
				logging.String(logging.FieldAsset, entry.CanonicalUUID),
				logging.Error(err),
			)
			continue
		}
		if rec == nil {
			continue
		}
		node, ok := structural.Find(rec.Document(), structural.SkeletonSignature)
		if !ok {
			logger.Debug("no skeleton subtree in record", logging.String(logging.FieldAsset, entry.CanonicalUUID))
			continue
		}
		data, err := structural.MarshalIndent(node, "  ")
		if err != nil {
			return written, err
		}

		name := entry.DisplayName
		if name == "" {
			name = entry.CanonicalUUID
		}
		target := filepath.Join(e.outDir, bundle, FlatName(name)+".json")
		if err := fileutil.WriteFileAtomic(target, data, 0o644); err != nil {
			return written, err
		}
		written = append(written, Skeleton{Asset: entry.CanonicalUUID, Name: name, Path: target})
	}
	if len(written) > 0 {
		logger.Info("skeletons extracted", logging.Int("count", len(written)))
	}
	return written, nil
}
