package textutil

import (
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// fileNameReplacer replaces filesystem-unsafe characters with safe alternatives.
var fileNameReplacer = strings.NewReplacer(
	"/", "-",
	"\\", "-",
	":", "-",
	"*", "-",
	"?", "",
	"\"", "",
	"<", "",
	">", "",
	"|", "",
)

// SanitizeFileName replaces filesystem-unsafe characters in a single file
// name. Slashes, backslashes, colons, and asterisks become dashes; other
// unsafe characters are removed. The result is NFC-normalized and trimmed.
func SanitizeFileName(name string) string {
	name = strings.TrimSpace(norm.NFC.String(name))
	if name == "" {
		return ""
	}
	return strings.TrimSpace(fileNameReplacer.Replace(stripControl(name)))
}

// AssetRelPath converts a display name into a slash-separated relative path
// below an output root. Forward and back slashes separate directories unless
// flatten is set, in which case they become underscores. It reports false
// when the name is empty or contains a ".." segment.
func AssetRelPath(name string, flatten bool) (string, bool) {
	name = stripControl(norm.NFC.String(name))
	name = strings.ReplaceAll(name, "\\", "/")

	segments := make([]string, 0, strings.Count(name, "/")+1)
	for _, segment := range strings.Split(name, "/") {
		switch segment {
		case "", ".":
			continue
		case "..":
			return "", false
		}
		segments = append(segments, segment)
	}
	if len(segments) == 0 {
		return "", false
	}
	if flatten {
		return strings.Join(segments, "_"), true
	}
	return strings.Join(segments, "/"), true
}

func stripControl(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsControl(r) {
			return -1
		}
		return r
	}, s)
}
