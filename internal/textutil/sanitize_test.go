package textutil

import "testing"

func TestAssetRelPath(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		flatten bool
		want    string
		ok      bool
	}{
		{"plain", "hero", false, "hero", true},
		{"nested", "ui/buttons/ok", false, "ui/buttons/ok", true},
		{"flattened", "ui/buttons/ok", true, "ui_buttons_ok", true},
		{"backslash", `ui\ok`, false, "ui/ok", true},
		{"redundant separators", "/ui//./ok/", false, "ui/ok", true},
		{"nfc", "cafe\u0301", false, "caf\u00e9", true},
		{"control stripped", "bad\x00name", false, "badname", true},
		{"dotted stem kept", "voice/line.01", false, "voice/line.01", true},
		{"traversal", "../etc/passwd", false, "", false},
		{"inner traversal", "a/../b", true, "", false},
		{"empty", "", false, "", false},
		{"only separators", "//", false, "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := AssetRelPath(tt.in, tt.flatten)
			if got != tt.want || ok != tt.ok {
				t.Fatalf("AssetRelPath(%q, %v) = (%q, %v), want (%q, %v)", tt.in, tt.flatten, got, ok, tt.want, tt.ok)
			}
		})
	}
}

func TestSanitizeFileName(t *testing.T) {
	tests := map[string]string{
		"  idle  ":     "idle",
		"walk/run":     "walk-run",
		"a:b*c":        "a-b-c",
		`what?"<>|`:    "what",
		"":             "",
		"e\u0301clair": "\u00e9clair",
	}
	for in, want := range tests {
		if got := SanitizeFileName(in); got != want {
			t.Fatalf("SanitizeFileName(%q) = %q, want %q", in, got, want)
		}
	}
}
