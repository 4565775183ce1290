package ledger_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"bundlepull/internal/ledger"
	"bundlepull/internal/testsupport"
)

func TestRecordRunRoundTrip(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenLedger(t, cfg)
	ctx := context.Background()

	started := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	run := ledger.Run{
		ID:             "run-1",
		Command:        "assets",
		BaseURL:        "https://cdn.example.com/game/",
		StartedAt:      started,
		FinishedAt:     started.Add(90 * time.Second),
		Resolved:       12,
		Unresolved:     1,
		SkippedBundles: 1,
		Bytes:          4096,
		Bundles: []ledger.BundleResult{
			{Bundle: "main", Status: ledger.BundlePartial, Resolved: 12, Unresolved: 1, Bytes: 4096},
			{Bundle: "broken", Status: ledger.BundleSkipped, ErrorMessage: "malformed manifest"},
		},
	}
	if err := store.RecordRun(ctx, run); err != nil {
		t.Fatalf("RecordRun: %v", err)
	}

	got, err := store.Get(ctx, "run-1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got == nil {
		t.Fatal("expected run to be found")
	}
	if got.Resolved != 12 || got.Bytes != 4096 || got.BaseURL != run.BaseURL {
		t.Fatalf("unexpected run %#v", got)
	}
	if got.Duration() != 90*time.Second {
		t.Fatalf("Duration = %s", got.Duration())
	}
	if len(got.Bundles) != 2 || got.Bundles[0].Bundle != "broken" || got.Bundles[0].ErrorMessage != "malformed manifest" {
		t.Fatalf("unexpected bundles %#v", got.Bundles)
	}

	missing, err := store.Get(ctx, "nope")
	if err != nil || missing != nil {
		t.Fatalf("Get unknown = (%v, %v)", missing, err)
	}
}

func TestRecordRunReplacesExisting(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenLedger(t, cfg)
	ctx := context.Background()

	run := ledger.Run{ID: "dup", Command: "assets", Bundles: []ledger.BundleResult{{Bundle: "a", Status: ledger.BundleCompleted}}}
	if err := store.RecordRun(ctx, run); err != nil {
		t.Fatalf("first RecordRun: %v", err)
	}
	run.Resolved = 3
	run.Bundles = []ledger.BundleResult{{Bundle: "b", Status: ledger.BundleCompleted}}
	if err := store.RecordRun(ctx, run); err != nil {
		t.Fatalf("second RecordRun: %v", err)
	}
	got, err := store.Get(ctx, "dup")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Resolved != 3 || len(got.Bundles) != 1 || got.Bundles[0].Bundle != "b" {
		t.Fatalf("expected replacement, got %#v", got)
	}
}

func TestRecordRunRequiresID(t *testing.T) {
	store := testsupport.MustOpenLedger(t, testsupport.NewConfig(t))
	if err := store.RecordRun(context.Background(), ledger.Run{Command: "assets"}); err == nil {
		t.Fatal("expected error for missing id")
	}
}

func TestRecentAndPrune(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenLedger(t, cfg)
	ctx := context.Background()

	base := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		start := base.Add(time.Duration(i) * time.Hour)
		if i == 4 {
			start = start.Add(500 * time.Millisecond)
		}
		run := ledger.Run{ID: fmt.Sprintf("run-%d", i), Command: "assets", StartedAt: start, FinishedAt: start.Add(time.Minute)}
		if err := store.RecordRun(ctx, run); err != nil {
			t.Fatalf("RecordRun %d: %v", i, err)
		}
	}

	recent, err := store.Recent(ctx, 3)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(recent) != 3 || recent[0].ID != "run-4" || recent[2].ID != "run-2" {
		t.Fatalf("unexpected order %v", recent)
	}

	removed, err := store.Prune(ctx, 2)
	if err != nil {
		t.Fatalf("Prune: %v", err)
	}
	if removed != 3 {
		t.Fatalf("Prune removed %d, want 3", removed)
	}
	all, _ := store.Recent(ctx, 10)
	if len(all) != 2 {
		t.Fatalf("expected 2 runs after prune, got %d", len(all))
	}
}

func TestReopenKeepsHistory(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store, err := ledger.Open(cfg)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if err := store.RecordRun(context.Background(), ledger.Run{ID: "keep", Command: "imports"}); err != nil {
		t.Fatalf("RecordRun: %v", err)
	}
	store.Close()

	reopened := testsupport.MustOpenLedger(t, cfg)
	got, err := reopened.Get(context.Background(), "keep")
	if err != nil || got == nil {
		t.Fatalf("expected run after reopen, got (%v, %v)", got, err)
	}
}
