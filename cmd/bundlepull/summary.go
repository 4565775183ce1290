package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"bundlepull/internal/config"
	"bundlepull/internal/ledger"
	"bundlepull/internal/pipeline"
)

var summaryColumns = []column{
	textCol("Bundle"),
	textCol("Version"),
	countCol("Downloaded"),
	countCol("Present"),
	countCol("Unresolved"),
	sizeCol("Size"),
	textCol("Notes"),
}

func renderSummary(summary pipeline.Summary) string {
	rows := make([][]any, 0, len(summary.Bundles))
	for _, b := range summary.Bundles {
		rows = append(rows, []any{b.Bundle, b.Version, b.Downloaded, b.Present, b.Unresolved, b.Bytes, bundleNotes(b)})
	}
	var footer []any
	if len(summary.Bundles) > 1 {
		totals := summary.Totals()
		note := ""
		if totals.SkippedBundles > 0 {
			note = fmt.Sprintf("%d skipped", totals.SkippedBundles)
		}
		footer = []any{"Total", "", totals.Downloaded, totals.Present, totals.Unresolved, totals.Bytes, note}
	}
	return renderTable(summaryColumns, rows, footer)
}

func bundleNotes(b pipeline.BundleResult) string {
	if b.Skipped {
		if b.Err != nil {
			return "skipped: " + b.Err.Error()
		}
		return "skipped"
	}
	var notes []string
	if b.Skeletons > 0 {
		notes = append(notes, fmt.Sprintf("%d skeletons", b.Skeletons))
	}
	if b.Clips > 0 {
		notes = append(notes, fmt.Sprintf("%d clips", b.Clips))
	}
	return strings.Join(notes, ", ")
}

func summaryLine(summary pipeline.Summary) string {
	totals := summary.Totals()
	line := fmt.Sprintf("%s: %d resolved (%d downloaded, %s), %d unresolved",
		summary.Stage,
		totals.Resolved(),
		totals.Downloaded,
		humanize.Bytes(uint64(totals.Bytes)),
		totals.Unresolved,
	)
	if totals.SkippedBundles > 0 {
		line += fmt.Sprintf(", %d bundles skipped", totals.SkippedBundles)
	}
	return line + fmt.Sprintf(" in %s [run %s]", summary.Duration().Round(time.Millisecond), shortID(summary.RunID))
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func ledgerRun(command, baseURL string, summary pipeline.Summary, stageErr error) ledger.Run {
	totals := summary.Totals()
	run := ledger.Run{
		ID:             summary.RunID,
		Command:        command,
		BaseURL:        baseURL,
		StartedAt:      summary.Started,
		FinishedAt:     summary.Finished,
		Resolved:       totals.Resolved(),
		Unresolved:     totals.Unresolved,
		SkippedBundles: totals.SkippedBundles,
		Bytes:          totals.Bytes,
		Bundles:        make([]ledger.BundleResult, 0, len(summary.Bundles)),
	}
	if stageErr != nil {
		run.ErrorMessage = stageErr.Error()
	}
	for _, b := range summary.Bundles {
		row := ledger.BundleResult{
			Bundle:     b.Bundle,
			Status:     ledger.BundleCompleted,
			Resolved:   b.Resolved(),
			Unresolved: b.Unresolved,
			Bytes:      b.Bytes,
		}
		switch {
		case b.Skipped:
			row.Status = ledger.BundleSkipped
		case b.Unresolved > 0:
			row.Status = ledger.BundlePartial
		}
		if b.Err != nil {
			row.ErrorMessage = b.Err.Error()
		}
		run.Bundles = append(run.Bundles, row)
	}
	return run
}

// recordRun stores the stage in the ledger. The write survives an
// interrupted run so cancelled pulls still show up in history.
func recordRun(ctx context.Context, cfg *config.Config, command string, summary pipeline.Summary, stageErr error) error {
	if summary.RunID == "" {
		return nil
	}
	store, err := ledger.Open(cfg)
	if err != nil {
		return err
	}
	defer store.Close()
	return store.RecordRun(context.WithoutCancel(ctx), ledgerRun(command, cfg.Source.BaseURL, summary, stageErr))
}
