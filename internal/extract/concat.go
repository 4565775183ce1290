package extract

import (
	"bytes"
	"context"
	"path/filepath"

	"bundlepull/internal/fileutil"
	"bundlepull/internal/logging"
	"bundlepull/internal/textutil"
)

// ClipList describes one written frame list.
type ClipList struct {
	Clip     string
	Path     string
	Frames   int
	Missing  int
	Duration float64
}

// ConcatPath returns where the frame list for clip is written.
func (e *Extractor) ConcatPath(bundle, clip string) string {
	name := textutil.SanitizeFileName(clip)
	if name == "" {
		name = "clip"
	}
	return filepath.Join(e.outDir, bundle, name+".ffconcat")
}

// SaveConcat writes t as an ffconcat list at path.
func SaveConcat(path string, t Timeline) error {
	var buf bytes.Buffer
	if err := WriteConcat(&buf, t); err != nil {
		return err
	}
	return fileutil.WriteFileAtomic(path, buf.Bytes(), 0o644)
}

// Timelines writes a frame list for each requested clip, or every clip when
// clips is empty, using stills found under imageDir. Clips without a single
// located frame are reported with Path left empty.
func (e *Extractor) Timelines(ctx context.Context, bundle string, anim *Animation, imageDir string, clips ...string) ([]ClipList, error) {
	logger := logging.WithContext(ctx, e.logger)
	if len(clips) == 0 {
		clips = anim.Clips()
	}
	lists := make([]ClipList, 0, len(clips))
	for _, clip := range clips {
		timeline, err := anim.Timeline(clip)
		if err != nil {
			return lists, err
		}
		located, missing := timeline.Locate(imageDir)
		list := ClipList{Clip: clip, Frames: len(located.Frames), Missing: len(missing), Duration: located.TotalDuration()}
		if len(missing) > 0 {
			logger.Debug("stills missing for clip",
				logging.String("clip", clip),
				logging.Int("missing", len(missing)),
				logging.String("first_missing", missing[0]),
			)
		}
		if list.Frames > 0 {
			list.Path = e.ConcatPath(bundle, clip)
			if err := SaveConcat(list.Path, located); err != nil {
				return lists, err
			}
		}
		lists = append(lists, list)
	}
	return lists, nil
}
