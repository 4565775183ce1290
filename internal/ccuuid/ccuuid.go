package ccuuid

import (
	"encoding/base64"
	"encoding/hex"
	"strings"
)

const (
	compactLen      = 22
	compactLenAlt   = 23
	canonicalLen    = 36
	prefixLen       = 2
	decodedHexChars = 30
)

// Decode converts a compact asset identifier to canonical form. Inputs that
// are not 22 or 23 characters long (ignoring one leading underscore and any
// "@suffix") are returned unchanged, as are inputs that fail to decode.
func Decode(compact string) string {
	base, suffix := SplitSuffix(compact)
	if len(base) == canonicalLen {
		return compact
	}
	if len(base) != compactLen && len(base) != compactLenAlt {
		return compact
	}
	body := strings.TrimPrefix(base, "_")
	if len(body) <= prefixLen {
		return compact
	}
	hexed, ok := expand(body[prefixLen:])
	if !ok {
		return compact
	}
	var b strings.Builder
	b.Grow(canonicalLen + len(suffix))
	b.WriteString(body[:prefixLen])
	b.WriteString(hexed[0:6])
	b.WriteByte('-')
	b.WriteString(hexed[6:10])
	b.WriteByte('-')
	b.WriteString(hexed[10:14])
	b.WriteByte('-')
	b.WriteString(hexed[14:18])
	b.WriteByte('-')
	b.WriteString(hexed[18:])
	b.WriteString(suffix)
	return b.String()
}

// SplitSuffix separates a trailing "@..." selector from the identifier.
// The returned suffix keeps its leading '@'.
func SplitSuffix(id string) (string, string) {
	if idx := strings.IndexByte(id, '@'); idx >= 0 {
		return id[:idx], id[idx:]
	}
	return id, ""
}

// Prefix returns the two-character directory shard for an identifier, or the
// whole identifier when it is shorter than two characters.
func Prefix(id string) string {
	if len(id) < prefixLen {
		return id
	}
	return id[:prefixLen]
}

func expand(packed string) (string, bool) {
	std := strings.NewReplacer("-", "+", "_", "/").Replace(packed)
	if pad := len(std) % 4; pad > 0 {
		std += strings.Repeat("=", 4-pad)
	}
	raw, err := base64.StdEncoding.DecodeString(std)
	if err != nil {
		return "", false
	}
	hexed := hex.EncodeToString(raw)
	if len(hexed) < decodedHexChars {
		return "", false
	}
	return hexed, true
}
