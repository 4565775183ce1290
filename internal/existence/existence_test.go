package existence

import (
	"os"
	"path/filepath"
	"testing"

	"bundlepull/internal/testsupport"
)

func TestBuildRegistersStemAndHashlessPrefix(t *testing.T) {
	root := t.TempDir()
	testsupport.WriteFile(t, filepath.Join(root, "Main", "import", "ab", "ab000000-0000-0000-0000-000000000000.1f2e3.json"), 16)
	testsupport.WriteFile(t, filepath.Join(root, "Main", "import", "cd", "cdAAAAAAAAAAAAAAAAAAAA.json"), 16)
	testsupport.WriteFile(t, filepath.Join(root, "Main", "native", "ignored.png"), 16)

	idx, err := Build(root, []string{".json"})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	for _, key := range []string{
		"ab000000-0000-0000-0000-000000000000.1f2e3",
		"ab000000-0000-0000-0000-000000000000",
		"cdAAAAAAAAAAAAAAAAAAAA",
	} {
		if !idx.Has(key) {
			t.Fatalf("expected %q to be indexed", key)
		}
	}
	if idx.Has("ignored") {
		t.Fatal("untracked suffix must not be indexed")
	}
	if idx.Files() != 2 {
		t.Fatalf("expected 2 indexed files, got %d", idx.Files())
	}
}

func TestBuildSkipsEmptyFiles(t *testing.T) {
	root := t.TempDir()
	if err := os.WriteFile(filepath.Join(root, "empty.json"), nil, 0o644); err != nil {
		t.Fatal(err)
	}
	idx, err := Build(root, []string{".json"})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if idx.Has("empty") {
		t.Fatal("empty files must not count as materialised")
	}
}

func TestBuildMissingRootIsEmpty(t *testing.T) {
	idx, err := Build(filepath.Join(t.TempDir(), "absent"), []string{".json"})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if idx.Len() != 0 {
		t.Fatalf("expected empty index, got %d keys", idx.Len())
	}
}

func TestBuildWithoutSuffixesTracksEverything(t *testing.T) {
	root := t.TempDir()
	testsupport.WriteFile(t, filepath.Join(root, "hero.png"), 4)
	testsupport.WriteFile(t, filepath.Join(root, "voice", "line.01.mp3"), 4)

	idx, err := Build(root, nil)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if !idx.HasAny("missing", "hero") {
		t.Fatal("expected hero to be indexed")
	}
	if !idx.Has("line.01") || !idx.Has("line") {
		t.Fatal("expected both stem forms for dotted names")
	}
	if !idx.HasPath("voice/line.01.mp3") || !idx.HasPath("hero.png") {
		t.Fatal("expected relative paths to be indexed")
	}
	if idx.HasPath("voice/line.01.ogg") || idx.HasPath("line.01.mp3") {
		t.Fatal("path lookups must match extension and directory exactly")
	}
}

func TestNilIndexIsSafe(t *testing.T) {
	var idx *Index
	if idx.Has("x") || idx.HasPath("x.png") || idx.Len() != 0 || idx.Files() != 0 {
		t.Fatal("nil index must behave as empty")
	}
}
