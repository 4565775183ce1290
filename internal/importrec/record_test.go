package importrec

import (
	"errors"
	"testing"

	"bundlepull/internal/services"
	"bundlepull/internal/structural"
)

func TestParsePositional(t *testing.T) {
	raw := []byte(`[1, 0, 0, [["cc.ImageAsset", ["_name", "_native"], 0]], 0, [[0, "hero", ".png"]], 0, [], [], []]`)
	rec, err := Parse(raw)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if rec.Encoding() != Positional {
		t.Fatalf("encoding = %s, want positional", rec.Encoding())
	}
	typeName, native, ok := rec.TypeAndNative()
	if !ok || typeName != "cc.ImageAsset" || native != ".png" {
		t.Fatalf("TypeAndNative = (%q, %q, %v)", typeName, native, ok)
	}
	if rec.NativeHint() != ".png" {
		t.Fatalf("NativeHint = %q", rec.NativeHint())
	}
}

func TestParseKeyed(t *testing.T) {
	rec, err := Parse([]byte(`{"__type__": "cc.AudioClip", "_name": "bgm", "_native": "mp3"}`))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if rec.Encoding() != Keyed {
		t.Fatalf("encoding = %s, want keyed", rec.Encoding())
	}
	typeName, native, ok := rec.TypeAndNative()
	if !ok || typeName != "cc.AudioClip" || native != "mp3" {
		t.Fatalf("TypeAndNative = (%q, %q, %v)", typeName, native, ok)
	}
	if rec.NativeHint() != ".mp3" {
		t.Fatalf("expected dot-prefixed hint, got %q", rec.NativeHint())
	}
}

func TestTypeAndNativeShapeMismatch(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		typ  string
	}{
		{"short array", `[1, 2, 3]`, ""},
		{"type defs not a list", `[1, 0, 0, "x", 0, [[0, ".png"]]]`, ""},
		{"empty type defs", `[1, 0, 0, [], 0, [[0, ".png"]]]`, ""},
		{"no native field", `[1, 0, 0, [["cc.Prefab", ["_name"]]], 0, [[0, "root"]]]`, "cc.Prefab"},
		{"instance too short", `[1, 0, 0, [["cc.ImageAsset", ["_native"]]], 0, [[0]]]`, "cc.ImageAsset"},
		{"no instances", `[1, 0, 0, [["cc.ImageAsset", ["_native"]]], 0, []]`, "cc.ImageAsset"},
		{"native not a string", `[1, 0, 0, [["cc.ImageAsset", ["_native"]]], 0, [[0, 7]]]`, "cc.ImageAsset"},
		{"object without keys", `{"name": "x"}`, ""},
		{"object with numeric type", `{"__type__": 3}`, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, err := Parse([]byte(tt.raw))
			if err != nil {
				t.Fatalf("Parse: %v", err)
			}
			typeName, native, ok := rec.TypeAndNative()
			if typeName != tt.typ || native != "" {
				t.Fatalf("TypeAndNative = (%q, %q, %v)", typeName, native, ok)
			}
			if ok != (tt.typ != "") {
				t.Fatalf("ok = %v for type %q", ok, tt.typ)
			}
			if rec.NativeHint() != "" {
				t.Fatalf("unexpected hint %q", rec.NativeHint())
			}
		})
	}
}

func TestParseRejectsScalarsAndInvalidJSON(t *testing.T) {
	for _, raw := range []string{`"text"`, `42`, `{"a":`, ``} {
		if _, err := Parse([]byte(raw)); !errors.Is(err, services.ErrDecodeFailure) {
			t.Fatalf("Parse(%q) error = %v, want ErrDecodeFailure", raw, err)
		}
	}
}

func TestDocumentIsSearchable(t *testing.T) {
	rec, err := Parse([]byte(`{"__type__": "sp.SkeletonData", "_skeletonJson": {"skeleton": {"spine": "3.8"}, "bones": []}}`))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	found, ok := structural.Find(rec.Document(), structural.SkeletonSignature)
	if !ok {
		t.Fatal("expected skeleton subtree")
	}
	obj, _ := structural.AsObject(found)
	if obj.Len() != 2 {
		t.Fatalf("unexpected subtree: %v", obj.Keys())
	}
}

func TestNilRecord(t *testing.T) {
	var rec *Record
	if _, _, ok := rec.TypeAndNative(); ok {
		t.Fatal("nil record should report no type")
	}
	if rec.Document() != nil || rec.NativeHint() != "" {
		t.Fatal("nil record should be empty")
	}
}
