package probe

import "strings"

var typeExtensions = map[string]string{
	"cc.ImageAsset":               ".png",
	"cc.Texture2D":                ".png",
	"cc.SpriteFrame":              ".png",
	"cc.SpriteAtlas":              ".png",
	"cc.LabelAtlas":               ".png",
	"sp.SkeletonData":             ".bin",
	"dragonBones.DragonBonesData": ".bin",
	"cc.BufferAsset":              ".bin",
	"cc.AudioClip":                ".mp3",
	"cc.TTFFont":                  ".ttf",
	"cc.ParticleAsset":            ".plist",
	"cc.JsonAsset":                ".json",
	"cc.TextAsset":                ".text",
}

// Alternates commonly served in place of the primary extension.
var siblingExtensions = map[string][]string{
	".png": {".jpg", ".webp", ".jpeg"},
	".mp3": {".ogg", ".wav"},
}

var fallbackExtensions = []string{".png", ".jpg", ".bin", ".atlas", ".txt", ".mp3", ".json", ".plist", ".ttf"}

// ExtensionForType maps an engine resource type name to its usual native
// extension.
func ExtensionForType(typeName string) (string, bool) {
	ext, ok := typeExtensions[typeName]
	return ext, ok
}

// NormalizeHint trims a native hint and gives it a leading dot.
func NormalizeHint(hint string) string {
	hint = strings.TrimSpace(hint)
	if hint == "" || strings.HasPrefix(hint, ".") {
		return hint
	}
	return "." + hint
}

// BuildCandidates returns the ordered, duplicate-free extension list for an
// asset: the config hint and its siblings, then the import hint, then the
// fallback list. Either hint may be empty.
func BuildCandidates(configHint, importHint string) []string {
	out := make([]string, 0, 16)
	seen := make(map[string]struct{}, 16)
	add := func(ext string) {
		if ext == "" {
			return
		}
		if _, ok := seen[ext]; ok {
			return
		}
		seen[ext] = struct{}{}
		out = append(out, ext)
	}

	configHint = NormalizeHint(configHint)
	add(configHint)
	for _, sibling := range siblingExtensions[configHint] {
		add(sibling)
	}
	add(NormalizeHint(importHint))
	for _, ext := range fallbackExtensions {
		add(ext)
	}
	return out
}
