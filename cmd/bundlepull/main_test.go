package main

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gofrs/flock"

	"bundlepull/internal/ccuuid"
	"bundlepull/internal/testsupport"
)

func TestCLIUUIDCommand(t *testing.T) {
	out, _, err := runCLI(t, []string{"uuid", heroID}, "")
	if err != nil {
		t.Fatalf("uuid: %v", err)
	}
	canonical := ccuuid.Decode(heroID)
	requireContains(t, out, heroID)
	requireContains(t, out, canonical)
	requireContains(t, out, ccuuid.Prefix(canonical))
}

func TestCLIUUIDRequiresArgument(t *testing.T) {
	if _, _, err := runCLI(t, []string{"uuid"}, ""); err == nil {
		t.Fatal("expected uuid without arguments to fail")
	}
}

func TestCLIConfigInitAndValidate(t *testing.T) {
	base := t.TempDir()
	t.Setenv("HOME", base)
	target := filepath.Join(base, "bundlepull.toml")

	out, _, err := runCLI(t, []string{"config", "init", "--path", target}, "")
	if err != nil {
		t.Fatalf("config init: %v", err)
	}
	requireContains(t, out, "Wrote sample configuration to "+target)
	if _, err := os.Stat(target); err != nil {
		t.Fatalf("sample config missing: %v", err)
	}

	if _, _, err := runCLI(t, []string{"config", "init", "--path", target}, ""); err == nil || !strings.Contains(err.Error(), "already exists") {
		t.Fatalf("expected existing config error, got %v", err)
	}
	if _, _, err := runCLI(t, []string{"config", "init", "--path", target, "--overwrite"}, ""); err != nil {
		t.Fatalf("config init --overwrite: %v", err)
	}

	out, _, err = runCLI(t, []string{"config", "validate"}, target)
	if err != nil {
		t.Fatalf("config validate: %v", err)
	}
	requireContains(t, out, "Config path: "+target)
	requireContains(t, out, "Configuration valid")
}

func TestCLIConfigValidateReportsMissingBaseURL(t *testing.T) {
	base := t.TempDir()
	t.Setenv("HOME", base)
	t.Setenv("BUNDLEPULL_BASE_URL", "")
	target := filepath.Join(base, "empty.toml")
	if err := os.WriteFile(target, []byte("[fetch]\nworkers = 2\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	_, _, err := runCLI(t, []string{"config", "validate"}, target)
	if err == nil || !strings.Contains(err.Error(), "source.base_url") {
		t.Fatalf("expected base_url error, got %v", err)
	}
}

func TestCLISettingsListsBundles(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"settings"}, env.configPath)
	if err != nil {
		t.Fatalf("settings: %v", err)
	}
	requireContains(t, out, "main")
	requireContains(t, out, "v1")
	requireContains(t, out, "1 bundles")
}

func TestCLIAssetsThenHistory(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"assets", "--skeletons"}, env.configPath)
	if err != nil {
		t.Fatalf("assets: %v", err)
	}
	requireContains(t, out, "assets: 2 resolved (2 downloaded")
	requireContains(t, out, "1 skeletons")

	hero := filepath.Join(env.cfg.Paths.OutputDir, "main", "hero.png")
	if data, err := os.ReadFile(hero); err != nil || string(data) != "png-bytes" {
		t.Fatalf("hero.png = %q, %v", data, err)
	}
	skeleton := filepath.Join(env.cfg.Extract.OutputDir, "main", "spine_boss.json")
	if _, err := os.Stat(skeleton); err != nil {
		t.Fatalf("skeleton json missing: %v", err)
	}

	env.srv.ResetRequests()
	out, _, err = runCLI(t, []string{"assets"}, env.configPath)
	if err != nil {
		t.Fatalf("assets rerun: %v", err)
	}
	requireContains(t, out, "assets: 2 resolved (0 downloaded")
	if n := env.srv.RequestCount(); n != 0 {
		t.Fatalf("rerun issued %d requests: %v", n, env.srv.Requests())
	}

	out, _, err = runCLI(t, []string{"history"}, env.configPath)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if got := strings.Count(out, "assets"); got < 2 {
		t.Fatalf("expected two assets runs in history, got:\n%s", out)
	}

	store := testsupport.MustOpenLedger(t, env.cfg)
	runs, err := store.Recent(context.Background(), 1)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(runs) != 1 {
		t.Fatalf("expected one recent run, got %d", len(runs))
	}
	out, _, err = runCLI(t, []string{"history", runs[0].ID}, env.configPath)
	if err != nil {
		t.Fatalf("history detail: %v", err)
	}
	requireContains(t, out, "Run "+runs[0].ID+" (assets)")
	requireContains(t, out, "completed")
}

func TestCLIHistoryEmpty(t *testing.T) {
	env := setupCLITestEnv(t)
	out, _, err := runCLI(t, []string{"history"}, env.configPath)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	requireContains(t, out, "No runs recorded")
}

func TestCLIExtractSkeletons(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"extract", "skeletons", "main"}, env.configPath)
	if err != nil {
		t.Fatalf("extract skeletons: %v", err)
	}
	requireContains(t, out, "spine/boss")
	requireContains(t, out, "1 skeletons written")

	data, err := os.ReadFile(filepath.Join(env.cfg.Extract.OutputDir, "main", "spine_boss.json"))
	if err != nil {
		t.Fatalf("read skeleton: %v", err)
	}
	if !strings.Contains(string(data), `"bones"`) {
		t.Fatalf("skeleton json missing bones: %s", data)
	}
}

func TestCLIExtractUnknownBundle(t *testing.T) {
	env := setupCLITestEnv(t)
	_, _, err := runCLI(t, []string{"extract", "skeletons", "ghost"}, env.configPath)
	if err == nil || !strings.Contains(err.Error(), "not listed") {
		t.Fatalf("expected unknown bundle error, got %v", err)
	}
}

func TestCLIRejectsConcurrentRun(t *testing.T) {
	env := setupCLITestEnv(t)
	if err := env.cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories: %v", err)
	}
	lock := flock.New(env.cfg.LockPath())
	ok, err := lock.TryLock()
	if err != nil || !ok {
		t.Fatalf("TryLock: ok=%v err=%v", ok, err)
	}
	t.Cleanup(func() { _ = lock.Unlock() })

	_, _, err = runCLI(t, []string{"assets"}, env.configPath)
	if err == nil || !strings.Contains(err.Error(), "another bundlepull run") {
		t.Fatalf("expected lock error, got %v", err)
	}
}

func TestCLIWorkersFlagBounds(t *testing.T) {
	env := setupCLITestEnv(t)
	_, _, err := runCLI(t, []string{"--workers", "99", "configs"}, env.configPath)
	if err == nil || !strings.Contains(err.Error(), "--workers") {
		t.Fatalf("expected workers bound error, got %v", err)
	}
}

func TestCLIConfigValidateListsResolvedPaths(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"config", "validate"}, env.configPath)
	if err != nil {
		t.Fatalf("config validate: %v", err)
	}
	requireContains(t, out, env.cfg.Source.BaseURL)
	requireContains(t, out, "all bundles")
	requireContains(t, out, env.cfg.Paths.ImportDir)
	requireContains(t, out, env.cfg.Extract.OutputDir)
	requireContains(t, out, env.cfg.LockPath())
	requireContains(t, out, env.cfg.LedgerPath())
	requireContains(t, out, "Configuration valid")
}
