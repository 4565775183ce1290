package main

import (
	"bytes"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"
	"testing"

	"bundlepull/internal/ccuuid"
	"bundlepull/internal/config"
	"bundlepull/internal/importrec"
	"bundlepull/internal/probe"
	"bundlepull/internal/testsupport"
)

var (
	heroID  = "ab" + strings.Repeat("A", 20)
	spineID = "ef" + strings.Repeat("C", 20)
)

type cliTestEnv struct {
	cfg        *config.Config
	srv        *testsupport.AssetServer
	configPath string
	baseDir    string
}

func setupCLITestEnv(t *testing.T) *cliTestEnv {
	t.Helper()

	base := t.TempDir()
	homeDir := filepath.Join(base, "home")
	if err := os.MkdirAll(homeDir, 0o755); err != nil {
		t.Fatalf("mkdir home: %v", err)
	}
	t.Setenv("HOME", homeDir)
	t.Setenv("BUNDLEPULL_WORKERS", "")

	srv := testsupport.NewAssetServer(t)
	cfg := testsupport.NewConfig(t, testsupport.WithBaseURL(srv.BaseURL()), testsupport.WithWorkers(2))
	seedDeployment(t, srv, cfg)

	configPath := filepath.Join(homeDir, ".config", "bundlepull", "config.toml")
	if err := os.MkdirAll(filepath.Dir(configPath), 0o755); err != nil {
		t.Fatalf("mkdir config dir: %v", err)
	}
	writeTestConfig(t, configPath, cfg)

	return &cliTestEnv{
		cfg:        cfg,
		srv:        srv,
		configPath: configPath,
		baseDir:    base,
	}
}

// seedDeployment publishes a single "main" bundle holding one image and
// one skeleton.
func seedDeployment(t *testing.T, srv *testsupport.AssetServer, cfg *config.Config) {
	t.Helper()
	srv.PutJSON(t, cfg.Source.SettingsPath, map[string]any{
		"assets": map[string]any{"bundleVers": map[string]any{"main": "v1"}},
	})
	srv.PutJSON(t, "assets/main/config.v1.json", map[string]any{
		"uuids": []string{heroID, spineID},
		"paths": map[string]any{
			"0": []any{"hero", 0},
			"1": []any{"spine/boss", 1},
		},
		"types": []string{"cc.ImageAsset", "sp.SkeletonData"},
		"versions": map[string]any{
			"import": []any{1, "i1"},
			"native": []any{0, "n0", 1, "n1"},
		},
	})
	srv.Put(probe.NativeBase("main", ccuuid.Decode(heroID), "n0")+".png", []byte("png-bytes"))
	srv.Put(probe.NativeBase("main", ccuuid.Decode(spineID), "n1")+".bin", []byte("skel-bytes"))
	srv.PutJSON(t, path.Join("assets", importrec.RelPath("main", spineID, ccuuid.Decode(spineID), "i1")), map[string]any{
		"__type__": "sp.SkeletonData",
		"_skeletonJson": map[string]any{
			"bones": []any{map[string]any{"name": "root"}},
		},
	})
}

func runCLI(t *testing.T, args []string, configPath string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	var flags []string
	if configPath != "" {
		flags = append(flags, "--config", configPath)
	}
	cmd.SetArgs(append(flags, args...))
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func writeTestConfig(t *testing.T, path string, cfg *config.Config) {
	t.Helper()
	content := fmt.Sprintf(
		"[source]\nbase_url = %q\nsettings_path = %q\n\n"+
			"[paths]\noutput_dir = %q\nconfig_dir = %q\nimport_dir = %q\nstate_dir = %q\nlog_dir = %q\n\n"+
			"[fetch]\nworkers = %d\nretry_backoff_ms = 0\n\n"+
			"[extract]\noutput_dir = %q\n\n"+
			"[logging]\nlevel = \"error\"\n",
		cfg.Source.BaseURL,
		cfg.Source.SettingsPath,
		cfg.Paths.OutputDir,
		cfg.Paths.ConfigDir,
		cfg.Paths.ImportDir,
		cfg.Paths.StateDir,
		cfg.Paths.LogDir,
		cfg.Fetch.Workers,
		cfg.Extract.OutputDir,
	)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
}

func requireContains(t *testing.T, output, substr string) {
	t.Helper()
	if !strings.Contains(output, substr) {
		t.Fatalf("expected output to contain %q, got:\n%s", substr, output)
	}
}
