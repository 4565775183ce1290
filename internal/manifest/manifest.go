package manifest

import (
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strconv"

	"bundlepull/internal/ccuuid"
	"bundlepull/internal/services"
)

// PathEntry is one row of the path table.
type PathEntry struct {
	Index       int
	DisplayName string
	TypeIndex   int
	HasType     bool
}

// Manifest is the decoded form of a bundle's config document.
type Manifest struct {
	UUIDs  []string
	Paths  map[string]PathEntry
	Types  []string
	Import map[string]string
	Native map[string]string

	nativeFlat []any
}

// ResolvedAsset describes one native payload to recover.
type ResolvedAsset struct {
	Bundle           string
	CompactUUID      string
	CanonicalUUID    string
	NativeHash       string
	ImportHash       string
	DisplayName      string
	ResourceTypeName string
}

// Name returns the destination file stem: the display name when known,
// otherwise the canonical identifier.
func (a ResolvedAsset) Name() string {
	if a.DisplayName != "" {
		return a.DisplayName
	}
	return a.CanonicalUUID
}

type rawManifest struct {
	UUIDs    *[]string                   `json:"uuids"`
	Paths    *map[string]json.RawMessage `json:"paths"`
	Types    *[]string                   `json:"types"`
	Versions *struct {
		Import []any `json:"import"`
		Native []any `json:"native"`
	} `json:"versions"`
}

// Parse decodes raw manifest JSON. It fails with services.ErrMalformedManifest
// when the document is not an object or lacks uuids, paths, types, or
// versions.
func Parse(raw []byte) (*Manifest, error) {
	var doc rawManifest
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, services.Wrap(services.ErrMalformedManifest, "manifest", "decode", "invalid json", err)
	}
	missing := ""
	switch {
	case doc.UUIDs == nil:
		missing = "uuids"
	case doc.Paths == nil:
		missing = "paths"
	case doc.Types == nil:
		missing = "types"
	case doc.Versions == nil:
		missing = "versions"
	}
	if missing != "" {
		return nil, services.Wrap(services.ErrMalformedManifest, "manifest", "decode", fmt.Sprintf("missing %q", missing), nil)
	}

	m := &Manifest{
		UUIDs:      *doc.UUIDs,
		Types:      *doc.Types,
		Paths:      make(map[string]PathEntry, len(*doc.Paths)),
		nativeFlat: doc.Versions.Native,
	}
	for key, value := range *doc.Paths {
		if entry, ok := decodePathEntry(key, value); ok {
			m.Paths[key] = entry
		}
	}
	m.Import = DecodeVersionPairs(m.UUIDs, doc.Versions.Import)
	m.Native = DecodeVersionPairs(m.UUIDs, doc.Versions.Native)
	return m, nil
}

func decodePathEntry(key string, raw json.RawMessage) (PathEntry, bool) {
	index, err := strconv.Atoi(key)
	if err != nil || index < 0 {
		return PathEntry{}, false
	}
	var fields []any
	if err := json.Unmarshal(raw, &fields); err != nil || len(fields) == 0 {
		return PathEntry{}, false
	}
	name, ok := fields[0].(string)
	if !ok {
		return PathEntry{}, false
	}
	entry := PathEntry{Index: index, DisplayName: name}
	if len(fields) > 1 {
		if typeIndex, ok := asIndex(fields[1]); ok {
			entry.TypeIndex = typeIndex
			entry.HasType = true
		}
	}
	return entry, true
}

// DecodeVersionPairs consumes flat two elements at a time and maps the compact
// identifier at each index to its hash token. Indices outside uuids, values
// that are not integral, and a dangling final element are ignored.
func DecodeVersionPairs(uuids []string, flat []any) map[string]string {
	out := make(map[string]string, len(flat)/2)
	for i := 0; i+1 < len(flat); i += 2 {
		index, ok := asIndex(flat[i])
		if !ok || index >= len(uuids) {
			continue
		}
		token, ok := asToken(flat[i+1])
		if !ok {
			continue
		}
		out[uuids[index]] = token
	}
	return out
}

// TypeName returns the resource type name for entry, if its type index is
// within the type table.
func (m *Manifest) TypeName(entry PathEntry) (string, bool) {
	if !entry.HasType || entry.TypeIndex >= len(m.Types) {
		return "", false
	}
	return m.Types[entry.TypeIndex], true
}

// Assets returns one record per native-version entry whose index addresses
// the uuid list, in manifest order.
func (m *Manifest) Assets(bundle string) []ResolvedAsset {
	assets := make([]ResolvedAsset, 0, len(m.nativeFlat)/2)
	seen := make(map[int]struct{}, len(m.nativeFlat)/2)
	for i := 0; i+1 < len(m.nativeFlat); i += 2 {
		index, ok := asIndex(m.nativeFlat[i])
		if !ok || index >= len(m.UUIDs) {
			continue
		}
		hash, ok := asToken(m.nativeFlat[i+1])
		if !ok {
			continue
		}
		if _, dup := seen[index]; dup {
			continue
		}
		seen[index] = struct{}{}
		compact := m.UUIDs[index]
		asset := ResolvedAsset{
			Bundle:        bundle,
			CompactUUID:   compact,
			CanonicalUUID: ccuuid.Decode(compact),
			NativeHash:    hash,
			ImportHash:    m.Import[compact],
		}
		if entry, ok := m.Paths[strconv.Itoa(index)]; ok {
			asset.DisplayName = entry.DisplayName
			asset.ResourceTypeName, _ = m.TypeName(entry)
		}
		assets = append(assets, asset)
	}
	return assets
}

// Entry pairs a path-table row with its identifiers.
type Entry struct {
	PathEntry
	CompactUUID   string
	CanonicalUUID string
	ImportHash    string
}

// EntriesOfType returns path-table entries whose type is typeName, ordered by
// index.
func (m *Manifest) EntriesOfType(typeName string) []Entry {
	var out []Entry
	for _, entry := range m.Paths {
		name, ok := m.TypeName(entry)
		if !ok || name != typeName || entry.Index >= len(m.UUIDs) {
			continue
		}
		compact := m.UUIDs[entry.Index]
		out = append(out, Entry{
			PathEntry:     entry,
			CompactUUID:   compact,
			CanonicalUUID: ccuuid.Decode(compact),
			ImportHash:    m.Import[compact],
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Index < out[j].Index })
	return out
}

func asIndex(v any) (int, bool) {
	f, ok := v.(float64)
	if !ok || f < 0 || f != math.Trunc(f) || f > math.MaxInt32 {
		return 0, false
	}
	return int(f), true
}

func asToken(v any) (string, bool) {
	switch t := v.(type) {
	case string:
		return t, t != ""
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64), true
	default:
		return "", false
	}
}
