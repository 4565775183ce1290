package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"bundlepull/internal/ledger"
)

func newHistoryCommand(ctx *commandContext) *cobra.Command {
	var (
		limit int
		keep  int
	)

	cmd := &cobra.Command{
		Use:   "history [run-id]",
		Short: "Show recorded runs, or the bundles of one run",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			store, err := ledger.Open(cfg)
			if err != nil {
				return fmt.Errorf("open ledger: %w", err)
			}
			defer store.Close()
			out := cmd.OutOrStdout()

			if keep > 0 {
				removed, err := store.Prune(cmd.Context(), keep)
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "Pruned %d runs\n", removed)
			}

			if len(args) == 1 {
				run, err := store.Get(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				if run == nil {
					return fmt.Errorf("run %q not found", args[0])
				}
				fmt.Fprintln(out, renderRunDetail(*run))
				return nil
			}

			runs, err := store.Recent(cmd.Context(), limit)
			if err != nil {
				return err
			}
			if len(runs) == 0 {
				fmt.Fprintln(out, "No runs recorded")
				return nil
			}
			fmt.Fprintln(out, renderRuns(runs))
			return nil
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Number of runs to show")
	cmd.Flags().IntVar(&keep, "prune", 0, "Delete all but the newest N runs first")
	return cmd
}

var runColumns = []column{
	textCol("Run"),
	textCol("Command"),
	ageCol("Started"),
	durationCol("Took"),
	countCol("Resolved"),
	countCol("Unresolved"),
	countCol("Skipped"),
	sizeCol("Size"),
}

var runBundleColumns = []column{
	textCol("Bundle"),
	textCol("Status"),
	countCol("Resolved"),
	countCol("Unresolved"),
	sizeCol("Size"),
	textCol("Error"),
}

func renderRuns(runs []ledger.Run) string {
	rows := make([][]any, 0, len(runs))
	for _, run := range runs {
		rows = append(rows, []any{
			run.ID,
			run.Command,
			run.StartedAt,
			run.Duration(),
			run.Resolved,
			run.Unresolved,
			run.SkippedBundles,
			run.Bytes,
		})
	}
	return renderTable(runColumns, rows, nil)
}

func renderRunDetail(run ledger.Run) string {
	rows := make([][]any, 0, len(run.Bundles))
	for _, b := range run.Bundles {
		rows = append(rows, []any{b.Bundle, string(b.Status), b.Resolved, b.Unresolved, b.Bytes, b.ErrorMessage})
	}
	header := fmt.Sprintf("Run %s (%s) started %s", run.ID, run.Command, run.StartedAt.Local().Format("2006-01-02 15:04:05"))
	if run.ErrorMessage != "" {
		header += "\nError: " + run.ErrorMessage
	}
	footer := []any{"Total", "", run.Resolved, run.Unresolved, run.Bytes, ""}
	return header + "\n" + renderTable(runBundleColumns, rows, footer)
}
