package main

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"bundlepull/internal/config"
	"bundlepull/internal/manifest"
	"bundlepull/internal/pipeline"
	"bundlepull/internal/services"
)

func newExtractCommand(ctx *commandContext) *cobra.Command {
	extractCmd := &cobra.Command{
		Use:   "extract",
		Short: "Pull embedded payloads out of a bundle's import records",
	}
	extractCmd.AddCommand(newExtractSkeletonsCommand(ctx))
	extractCmd.AddCommand(newExtractAnimationCommand(ctx))
	return extractCmd
}

// withBundleManifest loads one bundle's manifest under the run lock and
// hands it to fn together with a runner sharing the command's logger.
func (c *commandContext) withBundleManifest(cmd *cobra.Command, bundle string, fn func(context.Context, *pipeline.Runner, *manifest.Manifest) error) error {
	cfg, err := c.ensureConfig()
	if err != nil {
		return err
	}
	logger, err := c.ensureLogger()
	if err != nil {
		return err
	}
	return c.withLock(cfg, func() error {
		client, err := c.newClient(cfg)
		if err != nil {
			return err
		}
		runner := pipeline.New(cfg, client, logger)
		ctx := services.WithBundle(cmd.Context(), bundle)
		s, err := runner.LoadSettings(ctx, false)
		if err != nil {
			return fmt.Errorf("load settings: %w", err)
		}
		version, ok := s.Version(bundle)
		if !ok {
			return fmt.Errorf("bundle %q is not listed in the deployment settings", bundle)
		}
		m, err := runner.Manifest(ctx, bundle, version)
		if err != nil {
			return fmt.Errorf("load manifest: %w", err)
		}
		return fn(ctx, runner, m)
	})
}

func newExtractSkeletonsCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "skeletons <bundle>",
		Short: "Write skeleton JSON for every skeleton asset in a bundle",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			bundle := args[0]
			return ctx.withBundleManifest(cmd, bundle, func(runCtx context.Context, runner *pipeline.Runner, m *manifest.Manifest) error {
				skeletons, err := runner.Extractor().Skeletons(runCtx, bundle, m)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				if len(skeletons) == 0 {
					fmt.Fprintf(out, "No skeletons found in %s\n", bundle)
					return nil
				}
				rows := make([][]any, 0, len(skeletons))
				for _, s := range skeletons {
					rows = append(rows, []any{s.Name, s.Path})
				}
				fmt.Fprintln(out, renderTable([]column{textCol("Skeleton"), textCol("File")}, rows, nil))
				fmt.Fprintf(out, "%d skeletons written\n", len(skeletons))
				return nil
			})
		},
	}
}

func newExtractAnimationCommand(ctx *commandContext) *cobra.Command {
	var (
		clips     []string
		imagesDir string
		listOnly  bool
	)

	cmd := &cobra.Command{
		Use:   "animation <bundle>",
		Short: "Build ffconcat frame lists from a bundle's still-image animation table",
		Long: "Find the animation table in a bundle's JSON assets and write one\n" +
			"ffconcat list per clip. Stills are looked up as .jpg then .png under\n" +
			"--images (default: the bundle's asset directory).",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			bundle := args[0]
			return ctx.withBundleManifest(cmd, bundle, func(runCtx context.Context, runner *pipeline.Runner, m *manifest.Manifest) error {
				ex := runner.Extractor()
				anim, err := ex.FindAnimation(runCtx, bundle, m)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				if listOnly {
					fmt.Fprintf(out, "Clips in %s: %s\n", displayName(anim.Name, anim.Asset), strings.Join(anim.Clips(), ", "))
					return nil
				}

				cfg, _ := ctx.ensureConfig()
				dir, err := imageDir(cfg, bundle, imagesDir)
				if err != nil {
					return err
				}
				lists, err := ex.Timelines(runCtx, bundle, anim, dir, clips...)
				if err != nil {
					return err
				}
				rows := make([][]any, 0, len(lists))
				for _, list := range lists {
					path := list.Path
					if path == "" {
						path = "(no stills found)"
					}
					rows = append(rows, []any{list.Clip, list.Frames, list.Missing, list.Duration, path})
				}
				fmt.Fprintln(out, renderTable(clipColumns, rows, nil))
				return nil
			})
		},
	}
	cmd.Flags().StringSliceVar(&clips, "clip", nil, "Clip to render (repeatable; default all clips)")
	cmd.Flags().StringVar(&imagesDir, "images", "", "Directory holding the still images")
	cmd.Flags().BoolVar(&listOnly, "list", false, "Only list clip names")
	return cmd
}

var clipColumns = []column{
	textCol("Clip"),
	countCol("Frames"),
	countCol("Missing"),
	secondsCol("Duration"),
	textCol("List"),
}

func imageDir(cfg *config.Config, bundle, flagValue string) (string, error) {
	if strings.TrimSpace(flagValue) == "" {
		return filepath.Join(cfg.Paths.OutputDir, bundle), nil
	}
	return config.ExpandPath(flagValue)
}

func displayName(name, fallback string) string {
	if name != "" {
		return name
	}
	return fallback
}
