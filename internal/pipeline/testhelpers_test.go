package pipeline

import (
	"context"
	"path"
	"strings"
	"testing"

	"bundlepull/internal/ccuuid"
	"bundlepull/internal/config"
	"bundlepull/internal/importrec"
	"bundlepull/internal/probe"
	"bundlepull/internal/settings"
	"bundlepull/internal/testsupport"
	"bundlepull/internal/transport"
)

var (
	heroID  = "ab" + strings.Repeat("A", 20)
	voiceID = "cd" + strings.Repeat("B", 20)
	spineID = "ef" + strings.Repeat("C", 20)
	blobID  = "gh" + strings.Repeat("D", 20)
)

// deployment serves a settings document, a healthy "main" bundle, and a
// "broken" bundle whose manifest lacks required sections.
type deployment struct {
	srv *testsupport.AssetServer
	cfg *config.Config
}

func nativePath(bundle, compact, hash, ext string) string {
	return probe.NativeBase(bundle, ccuuid.Decode(compact), hash) + ext
}

func importPath(bundle, compact, hash string) string {
	return path.Join("assets", importrec.RelPath(bundle, compact, ccuuid.Decode(compact), hash))
}

func newDeployment(t *testing.T, opts ...testsupport.ConfigOption) *deployment {
	t.Helper()
	srv := testsupport.NewAssetServer(t)
	cfg := testsupport.NewConfig(t, append([]testsupport.ConfigOption{testsupport.WithBaseURL(srv.BaseURL())}, opts...)...)

	srv.PutJSON(t, cfg.Source.SettingsPath, map[string]any{
		"assets": map[string]any{"bundleVers": map[string]any{"main": "v1", "broken": "b1"}},
	})
	srv.PutJSON(t, "assets/main/config.v1.json", map[string]any{
		"uuids": []string{heroID, voiceID, spineID, blobID},
		"paths": map[string]any{
			"0": []any{"hero", 0},
			"1": []any{"voice/line.01", 1},
			"2": []any{"spine/boss", 2},
			"3": []any{"misc/blob", 3},
		},
		"types": []string{"cc.ImageAsset", "cc.AudioClip", "sp.SkeletonData", "cc.Asset"},
		"versions": map[string]any{
			"import": []any{0, "i0", 2, "i2", 3, "i3"},
			"native": []any{0, "n0", 1, "n1", 2, "n2", 3, "n3"},
		},
	})
	srv.PutJSON(t, "assets/broken/config.b1.json", map[string]any{"uuids": []string{}})

	srv.Put(nativePath("main", heroID, "n0", ".png"), []byte("png-bytes"))
	srv.Put(nativePath("main", voiceID, "n1", ".ogg"), []byte("ogg-bytes"))
	srv.Put(nativePath("main", spineID, "n2", ".bin"), []byte("skel-bytes"))
	srv.Put(nativePath("main", blobID, "n3", ".atlas"), []byte("atlas-bytes"))

	srv.PutJSON(t, importPath("main", spineID, "i2"), map[string]any{
		"__type__": "sp.SkeletonData",
		"_skeletonJson": map[string]any{
			"skeleton": map[string]any{"spine": "3.8"},
			"bones":    []any{map[string]any{"name": "root"}},
		},
	})
	srv.PutJSON(t, importPath("main", blobID, "i3"), map[string]any{
		"__type__": "cc.Asset",
		"_native":  "atlas",
	})
	return &deployment{srv: srv, cfg: cfg}
}

func (d *deployment) runner(t *testing.T, opts ...Option) *Runner {
	t.Helper()
	client, err := transport.New(transport.Config{BaseURL: d.cfg.Source.BaseURL})
	if err != nil {
		t.Fatalf("transport.New: %v", err)
	}
	return New(d.cfg, client, nil, opts...)
}

func (d *deployment) settings(t *testing.T, r *Runner) *settings.Settings {
	t.Helper()
	s, err := r.LoadSettings(context.Background(), false)
	if err != nil {
		t.Fatalf("LoadSettings: %v", err)
	}
	return s
}

func bundleResult(t *testing.T, summary Summary, bundle string) BundleResult {
	t.Helper()
	for _, b := range summary.Bundles {
		if b.Bundle == bundle {
			return b
		}
	}
	t.Fatalf("bundle %q missing from summary %+v", bundle, summary.Bundles)
	return BundleResult{}
}
