package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"bundlepull/internal/logging"
	"bundlepull/internal/pipeline"
	"bundlepull/internal/services"
	"bundlepull/internal/settings"
)

// stageFunc matches the method expressions of the Runner stages.
type stageFunc func(r *pipeline.Runner, ctx context.Context, s *settings.Settings, names []string) (pipeline.Summary, error)

// runStage loads settings and runs one pipeline stage under the run lock,
// then prints the summary and records it in the ledger.
func (c *commandContext) runStage(cmd *cobra.Command, command string, names []string, refresh bool, stage stageFunc) error {
	cfg, err := c.ensureConfig()
	if err != nil {
		return err
	}
	logger, err := c.ensureLogger()
	if err != nil {
		return err
	}

	return c.withLock(cfg, func() error {
		runCtx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		runCtx = services.WithRunID(runCtx, uuid.NewString())

		client, err := c.newClient(cfg)
		if err != nil {
			return err
		}
		view := newProgressView(cmd.ErrOrStderr())
		runner := pipeline.New(cfg, client, logger, pipeline.WithProgress(view.callback()))

		s, err := runner.LoadSettings(runCtx, refresh)
		if err != nil {
			return fmt.Errorf("load settings: %w", err)
		}
		summary, stageErr := stage(runner, runCtx, s, names)
		view.finish()

		out := cmd.OutOrStdout()
		if len(summary.Bundles) > 0 {
			fmt.Fprintln(out, renderSummary(summary))
		}
		fmt.Fprintln(out, summaryLine(summary))

		if err := recordRun(runCtx, cfg, command, summary, stageErr); err != nil {
			logging.WarnWithContext(logging.WithContext(runCtx, logger), "run not recorded", "ledger_write_failed",
				logging.Error(err),
				logging.String(logging.FieldImpact, "history will not list this run"),
			)
		}
		return stageErr
	})
}

func newSettingsCommand(ctx *commandContext) *cobra.Command {
	var refresh bool

	cmd := &cobra.Command{
		Use:   "settings",
		Short: "Fetch the deployment settings and list bundle versions",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.ensureLogger()
			if err != nil {
				return err
			}
			return ctx.withLock(cfg, func() error {
				client, err := ctx.newClient(cfg)
				if err != nil {
					return err
				}
				s, err := pipeline.New(cfg, client, logger).LoadSettings(cmd.Context(), refresh)
				if err != nil {
					return fmt.Errorf("load settings: %w", err)
				}
				names := s.SortedBundles(nil)
				rows := make([][]any, 0, len(names))
				for _, name := range names {
					version, _ := s.Version(name)
					rows = append(rows, []any{name, version, yesNo(cfg.WantsBundle(name))})
				}
				out := cmd.OutOrStdout()
				fmt.Fprintln(out, renderTable([]column{textCol("Bundle"), textCol("Version"), textCol("Selected")}, rows, nil))
				fmt.Fprintf(out, "%d bundles (%s)\n", len(names), s.Source())
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&refresh, "refresh", false, "Ignore the cached settings document")
	return cmd
}

func newConfigsCommand(ctx *commandContext) *cobra.Command {
	var refresh bool

	cmd := &cobra.Command{
		Use:   "configs [bundle...]",
		Short: "Mirror bundle manifests into the config directory",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.runStage(cmd, pipeline.StageConfigs, args, refresh, (*pipeline.Runner).MirrorConfigs)
		},
	}
	cmd.Flags().BoolVar(&refresh, "refresh", false, "Ignore the cached settings document")
	return cmd
}

func newImportsCommand(ctx *commandContext) *cobra.Command {
	var refresh bool

	cmd := &cobra.Command{
		Use:   "imports [bundle...]",
		Short: "Prefetch import records into the import directory",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.runStage(cmd, pipeline.StageImports, args, refresh, (*pipeline.Runner).PrefetchImports)
		},
	}
	cmd.Flags().BoolVar(&refresh, "refresh", false, "Ignore the cached settings document")
	return cmd
}

func newAssetsCommand(ctx *commandContext) *cobra.Command {
	var (
		refresh    bool
		overwrite  bool
		flatten    bool
		skeletons  bool
		animations bool
	)

	cmd := &cobra.Command{
		Use:   "assets [bundle...]",
		Short: "Download native assets for each bundle",
		Long: "Download native assets for each bundle into output_dir/<bundle>.\n\n" +
			"Files already present are not requested again, so an interrupted run\n" +
			"can simply be restarted.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			flags := cmd.Flags()
			if flags.Changed("overwrite") {
				cfg.Fetch.Overwrite = overwrite
			}
			if flags.Changed("flatten") {
				cfg.Fetch.FlattenNames = flatten
			}
			if flags.Changed("skeletons") {
				cfg.Extract.Skeletons = skeletons
			}
			if flags.Changed("animations") {
				cfg.Extract.Animations = animations
			}
			return ctx.runStage(cmd, pipeline.StageAssets, args, refresh, (*pipeline.Runner).FetchAssets)
		},
	}
	cmd.Flags().BoolVar(&refresh, "refresh", false, "Ignore the cached settings document")
	cmd.Flags().BoolVar(&overwrite, "overwrite", false, "Download even when the file already exists")
	cmd.Flags().BoolVar(&flatten, "flatten", false, "Replace '/' in asset names with '_'")
	cmd.Flags().BoolVar(&skeletons, "skeletons", false, "Extract skeleton JSON after each bundle")
	cmd.Flags().BoolVar(&animations, "animations", false, "Write frame lists for animation clips after each bundle")
	return cmd
}

func yesNo(value bool) string {
	if value {
		return "yes"
	}
	return "no"
}
