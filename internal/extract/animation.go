package extract

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"bundlepull/internal/logging"
	"bundlepull/internal/manifest"
	"bundlepull/internal/services"
	"bundlepull/internal/structural"
)

const animationType = "cc.JsonAsset"

// DefaultFrameDuration applies to the last keyframe and to keyframes whose
// successor does not advance the clock.
const DefaultFrameDuration = 0.033

// minFrameDelta is the smallest gap between keyframes treated as a real
// duration.
const minFrameDelta = 0.001

// imageExtensions are tried in order when locating a still on disk.
var imageExtensions = []string{".jpg", ".png"}

// Animation is a still-image keyframe table found inside a JSON asset.
type Animation struct {
	Asset      string
	Name       string
	StillPaths []string
	clips      *structural.Object
}

// Frame is one timed still.
type Frame struct {
	Still    string
	Image    string
	Duration float64
}

// Timeline is the frame sequence of one clip.
type Timeline struct {
	Clip   string
	Frames []Frame
}

// FindAnimation returns the first JSON asset in m, by path-table order, that
// carries an animation table.
func (e *Extractor) FindAnimation(ctx context.Context, bundle string, m *manifest.Manifest) (*Animation, error) {
	logger := logging.WithContext(ctx, e.logger)
	for _, entry := range m.EntriesOfType(animationType) {
		rec, err := e.resolver.Resolve(ctx, bundle, entry.CompactUUID, entry.ImportHash)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			logger.Debug("json asset unreadable",
				logging.String(logging.FieldAsset, entry.CanonicalUUID),
				logging.Error(err),
			)
			continue
		}
		if rec == nil {
			continue
		}
		node, ok := structural.Find(rec.Document(), structural.AnimationSignature)
		if !ok {
			continue
		}
		anim, err := newAnimation(node)
		if err != nil {
			logger.Debug("animation table unusable",
				logging.String(logging.FieldAsset, entry.CanonicalUUID),
				logging.Error(err),
			)
			continue
		}
		anim.Asset = entry.CanonicalUUID
		anim.Name = entry.DisplayName
		return anim, nil
	}
	return nil, services.Wrap(services.ErrStructuralMismatch, "extract", "find animation",
		fmt.Sprintf("no animation table in bundle %q", bundle), nil)
}

func newAnimation(node structural.Node) (*Animation, error) {
	obj, _ := structural.AsObject(node)
	list, _ := obj.Get("stillPathList")
	stills, _ := structural.AsArray(list)
	paths := make([]string, 0, len(stills))
	for i, item := range stills {
		s, ok := structural.AsString(item)
		if !ok {
			return nil, fmt.Errorf("still %d is not a string", i)
		}
		paths = append(paths, s)
	}
	clipsNode, _ := obj.Get("animation")
	clips, _ := structural.AsObject(clipsNode)
	return &Animation{StillPaths: paths, clips: clips}, nil
}

// Clips lists clip names in document order.
func (a *Animation) Clips() []string {
	return a.clips.Keys()
}

// Timeline converts a clip's keyframes into timed frames. A frame lasts until
// the next keyframe; the last frame, and any frame whose successor is not
// later by at least a millisecond, gets DefaultFrameDuration.
func (a *Animation) Timeline(clip string) (Timeline, error) {
	node, ok := a.clips.Get(clip)
	if !ok {
		return Timeline{}, services.Wrap(services.ErrNotFound, "extract", "timeline",
			fmt.Sprintf("clip %q not present", clip), nil)
	}
	keys, err := clipKeys(node)
	if err != nil {
		return Timeline{}, services.Wrap(services.ErrStructuralMismatch, "extract", "timeline",
			fmt.Sprintf("clip %q", clip), err)
	}

	timeline := Timeline{Clip: clip, Frames: make([]Frame, 0, len(keys))}
	for i, key := range keys {
		if key.idx < 0 || key.idx >= len(a.StillPaths) {
			return Timeline{}, services.Wrap(services.ErrStructuralMismatch, "extract", "timeline",
				fmt.Sprintf("clip %q keyframe %d references still %d of %d", clip, i, key.idx, len(a.StillPaths)), nil)
		}
		duration := DefaultFrameDuration
		if i+1 < len(keys) {
			if delta := keys[i+1].time - key.time; delta > minFrameDelta {
				duration = delta
			}
		}
		timeline.Frames = append(timeline.Frames, Frame{Still: a.StillPaths[key.idx], Duration: duration})
	}
	return timeline, nil
}

type keyframe struct {
	idx  int
	time float64
}

func clipKeys(node structural.Node) ([]keyframe, error) {
	var list structural.Node = node
	if obj, ok := structural.AsObject(node); ok {
		inner, found := obj.Get("keys")
		if !found {
			return nil, fmt.Errorf("missing keys")
		}
		list = inner
	}
	items, ok := structural.AsArray(list)
	if !ok {
		return nil, fmt.Errorf("keys is not an array")
	}
	out := make([]keyframe, 0, len(items))
	for i, item := range items {
		obj, ok := structural.AsObject(item)
		if !ok {
			return nil, fmt.Errorf("keyframe %d is not an object", i)
		}
		var key keyframe
		if v, found := obj.Get("idx"); found {
			if key.idx, ok = structural.AsInt(v); !ok {
				return nil, fmt.Errorf("keyframe %d idx is not an integer", i)
			}
		}
		if v, found := obj.Get("time"); found {
			if key.time, ok = structural.AsFloat(v); !ok {
				return nil, fmt.Errorf("keyframe %d time is not a number", i)
			}
		}
		out = append(out, key)
	}
	return out, nil
}

// Locate fills in Image for each frame whose still exists under dir as .jpg
// or .png and drops the rest. It returns the kept timeline and the stills
// that could not be found.
func (t Timeline) Locate(dir string) (Timeline, []string) {
	kept := Timeline{Clip: t.Clip, Frames: make([]Frame, 0, len(t.Frames))}
	var missing []string
	for _, frame := range t.Frames {
		image, ok := findImage(dir, frame.Still)
		if !ok {
			missing = append(missing, frame.Still)
			continue
		}
		frame.Image = image
		kept.Frames = append(kept.Frames, frame)
	}
	return kept, missing
}

func findImage(dir, still string) (string, bool) {
	base := filepath.Join(dir, filepath.FromSlash(still))
	for _, ext := range imageExtensions {
		candidate := base + ext
		if info, err := os.Stat(candidate); err == nil && info.Mode().IsRegular() {
			return candidate, true
		}
	}
	return "", false
}

// TotalDuration sums the frame durations in seconds.
func (t Timeline) TotalDuration() float64 {
	var total float64
	for _, f := range t.Frames {
		total += f.Duration
	}
	return total
}

// WriteConcat renders located frames as an ffconcat list. The last file is
// repeated without a duration so the final frame is held for its full time.
func WriteConcat(w io.Writer, t Timeline) error {
	bw := bufio.NewWriter(w)
	fmt.Fprintln(bw, "ffconcat version 1.0")
	var last string
	for _, frame := range t.Frames {
		if frame.Image == "" {
			continue
		}
		fmt.Fprintf(bw, "file %s\n", quoteConcat(frame.Image))
		fmt.Fprintf(bw, "duration %s\n", strconv.FormatFloat(frame.Duration, 'f', -1, 64))
		last = frame.Image
	}
	if last != "" {
		fmt.Fprintf(bw, "file %s\n", quoteConcat(last))
	}
	return bw.Flush()
}

func quoteConcat(path string) string {
	return "'" + strings.ReplaceAll(filepath.ToSlash(path), "'", `'\''`) + "'"
}
