package settings

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"bundlepull/internal/services"
	"bundlepull/internal/testsupport"
	"bundlepull/internal/transport"
)

const settingsDoc = `{"platform":"web-mobile","assets":{"bundleVers":{"resources":"a1b2c","main":"0f9e8","internal":"77aa1","legacy":3}}}`

func newGetter(t *testing.T) (*transport.Client, *testsupport.AssetServer) {
	t.Helper()
	srv := testsupport.NewAssetServer(t)
	client, err := transport.New(transport.Config{BaseURL: srv.BaseURL()})
	if err != nil {
		t.Fatalf("transport.New: %v", err)
	}
	return client, srv
}

func TestParse(t *testing.T) {
	s, err := Parse([]byte(settingsDoc))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	want := map[string]string{"resources": "a1b2c", "main": "0f9e8", "internal": "77aa1", "legacy": "3"}
	if !reflect.DeepEqual(s.BundleVersions(), want) {
		t.Fatalf("BundleVersions = %v", s.BundleVersions())
	}
	if v, ok := s.Version("main"); !ok || v != "0f9e8" {
		t.Fatalf("Version(main) = %q, %v", v, ok)
	}
}

func TestParseRequiresBundleVers(t *testing.T) {
	for _, raw := range []string{`{}`, `{"assets":{}}`, `not json`} {
		if _, err := Parse([]byte(raw)); !errors.Is(err, services.ErrDecodeFailure) {
			t.Fatalf("Parse(%q) = %v, want ErrDecodeFailure", raw, err)
		}
	}
}

func TestSortedBundles(t *testing.T) {
	s, _ := Parse([]byte(settingsDoc))
	if got := s.SortedBundles(nil); !reflect.DeepEqual(got, []string{"internal", "legacy", "main", "resources"}) {
		t.Fatalf("SortedBundles(nil) = %v", got)
	}
	got := s.SortedBundles(func(name string) bool { return name != "internal" })
	if !reflect.DeepEqual(got, []string{"legacy", "main", "resources"}) {
		t.Fatalf("filtered = %v", got)
	}
}

func TestLoadFetchesAndCaches(t *testing.T) {
	client, srv := newGetter(t)
	srv.Put("src/settings.4229e.json", []byte(settingsDoc))
	cache := filepath.Join(t.TempDir(), "configs", "settings.json")
	opts := Options{RemotePath: "src/settings.4229e.json", CachePath: cache}

	s, err := Load(context.Background(), client, opts)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if s.Source() != FromNetwork {
		t.Fatalf("source = %s", s.Source())
	}
	if _, err := os.Stat(cache); err != nil {
		t.Fatalf("cache not written: %v", err)
	}

	srv.ResetRequests()
	s, err = Load(context.Background(), client, opts)
	if err != nil || s.Source() != FromCache || srv.RequestCount() != 0 {
		t.Fatalf("second load should use cache: %v %v %v", s, err, srv.Requests())
	}

	opts.Refresh = true
	if s, err = Load(context.Background(), client, opts); err != nil || s.Source() != FromNetwork {
		t.Fatalf("refresh should refetch: %v %v", s, err)
	}
}

func TestLoadReplacesCorruptCache(t *testing.T) {
	client, srv := newGetter(t)
	srv.Put("src/settings.json", []byte(settingsDoc))
	cache := filepath.Join(t.TempDir(), "settings.json")
	testsupport.WriteBytes(t, cache, []byte("{broken"))

	s, err := Load(context.Background(), client, Options{RemotePath: "src/settings.json", CachePath: cache})
	if err != nil || s.Source() != FromNetwork {
		t.Fatalf("Load = %v, %v", s, err)
	}
	data, _ := os.ReadFile(cache)
	if string(data) != settingsDoc {
		t.Fatalf("cache not repaired: %q", data)
	}
}

func TestLoadErrors(t *testing.T) {
	client, srv := newGetter(t)
	ctx := context.Background()

	if _, err := Load(ctx, client, Options{RemotePath: "src/missing.json"}); !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("404 error = %v", err)
	}

	srv.Put("src/settings.json", []byte(settingsDoc))
	srv.FailNext("src/settings.json", 503)
	if _, err := Load(ctx, client, Options{RemotePath: "src/settings.json"}); !errors.Is(err, services.ErrTransient) {
		t.Fatalf("503 error = %v", err)
	}

	if _, err := Load(ctx, nil, Options{}); !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("nil getter error = %v", err)
	}
}
