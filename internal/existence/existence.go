// Package existence builds a one-shot membership index of files already
// present under a destination tree so resumed runs can skip network work.
package existence

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// Index is a read-only set of file stems. It is built once before workers
// start and shared by reference afterwards.
type Index struct {
	keys  map[string]struct{}
	paths map[string]struct{}
	files int
}

// Build walks root once. For every regular, non-empty file whose name ends
// in one of suffixes it registers the stem (name without the suffix) and,
// when the stem itself contains a '.', the part before the last '.', so both
// "uuid" and "uuid.hash" naming conventions hit. An empty suffix list tracks
// every file. A missing root yields an empty index.
func Build(root string, suffixes []string) (*Index, error) {
	idx := &Index{keys: make(map[string]struct{}), paths: make(map[string]struct{})}
	if strings.TrimSpace(root) == "" {
		return idx, nil
	}
	if _, err := os.Stat(root); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return idx, nil
		}
		return nil, fmt.Errorf("stat index root: %w", err)
	}

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !d.Type().IsRegular() {
			return nil
		}
		stem, ok := trackedStem(d.Name(), suffixes)
		if !ok {
			return nil
		}
		info, err := d.Info()
		if err != nil || info.Size() == 0 {
			return nil
		}
		idx.add(stem)
		if rel, err := filepath.Rel(root, path); err == nil {
			idx.paths[filepath.ToSlash(rel)] = struct{}{}
		}
		idx.files++
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk %s: %w", root, err)
	}
	return idx, nil
}

func trackedStem(name string, suffixes []string) (string, bool) {
	if len(suffixes) == 0 {
		if ext := filepath.Ext(name); ext != "" {
			return strings.TrimSuffix(name, ext), true
		}
		return name, true
	}
	for _, suffix := range suffixes {
		if suffix != "" && strings.HasSuffix(name, suffix) && len(name) > len(suffix) {
			return strings.TrimSuffix(name, suffix), true
		}
	}
	return "", false
}

func (idx *Index) add(stem string) {
	idx.keys[stem] = struct{}{}
	if dot := strings.LastIndexByte(stem, '.'); dot > 0 {
		idx.keys[stem[:dot]] = struct{}{}
	}
}

// Has reports whether key was registered. A miss does not prove the file is
// absent; callers still check the concrete path before fetching.
func (idx *Index) Has(key string) bool {
	if idx == nil || key == "" {
		return false
	}
	_, ok := idx.keys[key]
	return ok
}

// HasPath reports whether the slash-separated path relative to the root,
// extension included, was seen as a tracked non-empty file.
func (idx *Index) HasPath(rel string) bool {
	if idx == nil || rel == "" {
		return false
	}
	_, ok := idx.paths[filepath.ToSlash(rel)]
	return ok
}

// HasAny reports whether any of keys was registered.
func (idx *Index) HasAny(keys ...string) bool {
	for _, key := range keys {
		if idx.Has(key) {
			return true
		}
	}
	return false
}

// Files returns how many files contributed to the index.
func (idx *Index) Files() int {
	if idx == nil {
		return 0
	}
	return idx.files
}

// Len returns the number of distinct keys.
func (idx *Index) Len() int {
	if idx == nil {
		return 0
	}
	return len(idx.keys)
}
