package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"bundlepull/internal/config"
)

func newConfigCommand(ctx *commandContext) *cobra.Command {
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Create or check the configuration file",
	}
	configCmd.AddCommand(newConfigInitCommand())
	configCmd.AddCommand(newConfigValidateCommand(ctx))
	return configCmd
}

func newConfigInitCommand() *cobra.Command {
	var (
		targetPath string
		overwrite  bool
	)

	cmd := &cobra.Command{
		Use:         "init",
		Short:       "Write the sample configuration",
		Annotations: map[string]string{"skipConfigLoad": "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			target, err := initTarget(targetPath)
			if err != nil {
				return err
			}
			if err := writeSample(target, overwrite); err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Wrote sample configuration to %s\n", target)
			fmt.Fprintln(out, "Set source.base_url (or export BUNDLEPULL_BASE_URL), then run 'bundlepull settings' to list bundles.")
			return nil
		},
	}
	cmd.Flags().StringVarP(&targetPath, "path", "p", "", "Destination for the configuration file")
	cmd.Flags().BoolVar(&overwrite, "overwrite", false, "Replace an existing file")
	return cmd
}

func initTarget(flagValue string) (string, error) {
	if strings.TrimSpace(flagValue) == "" {
		path, err := config.DefaultConfigPath()
		if err != nil {
			return "", fmt.Errorf("determine default config path: %w", err)
		}
		return path, nil
	}
	path, err := config.ExpandPath(flagValue)
	if err != nil {
		return "", fmt.Errorf("resolve config path: %w", err)
	}
	return path, nil
}

func writeSample(target string, overwrite bool) error {
	if !overwrite {
		_, err := os.Stat(target)
		switch {
		case err == nil:
			return fmt.Errorf("config file already exists at %s (use --overwrite to replace it)", target)
		case !errors.Is(err, fs.ErrNotExist):
			return fmt.Errorf("check config path: %w", err)
		}
	}
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	if err := config.CreateSample(target); err != nil {
		return fmt.Errorf("create sample config: %w", err)
	}
	return nil
}

func newConfigValidateCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:         "validate",
		Short:       "Load the configuration, create its directories and print the resolved values",
		Annotations: map[string]string{"skipConfigLoad": "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, path, exists, err := config.Load(ctx.configPath())
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			if err := cfg.EnsureDirectories(); err != nil {
				return fmt.Errorf("ensure directories: %w", err)
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Config path: %s\n", path)
			if !exists {
				fmt.Fprintln(out, "Config file did not exist; defaults were used")
			}
			fmt.Fprintln(out, renderTable([]column{textCol("Setting"), textCol("Value")}, resolvedSettings(cfg), nil))
			fmt.Fprintln(out, "Configuration valid")
			return nil
		},
	}
}

// resolvedSettings lists the values a run will actually use, after env
// fallbacks and path expansion.
func resolvedSettings(cfg *config.Config) [][]any {
	filter := "all bundles"
	if len(cfg.Fetch.Bundles) > 0 {
		filter = strings.Join(cfg.Fetch.Bundles, ", ")
	}
	var passes []string
	if cfg.Extract.Skeletons {
		passes = append(passes, "skeletons")
	}
	if cfg.Extract.Animations {
		passes = append(passes, "animations")
	}
	extract := "off"
	if len(passes) > 0 {
		extract = strings.Join(passes, ", ")
	}
	return [][]any{
		{"Deployment", cfg.Source.BaseURL},
		{"Settings document", cfg.Source.SettingsPath},
		{"Bundles", filter},
		{"Workers", strconv.Itoa(cfg.Fetch.Workers)},
		{"Retries", fmt.Sprintf("%d every %s", cfg.Fetch.RetryAttempts, cfg.RetryBackoff())},
		{"Overwrite", yesNo(cfg.Fetch.Overwrite)},
		{"Flatten names", yesNo(cfg.Fetch.FlattenNames)},
		{"Extract passes", extract},
		{"Assets", cfg.Paths.OutputDir},
		{"Manifests", cfg.Paths.ConfigDir},
		{"Import records", cfg.Paths.ImportDir},
		{"Extracted", cfg.Extract.OutputDir},
		{"Logs", cfg.Paths.LogDir},
		{"Lock file", cfg.LockPath()},
		{"Ledger", cfg.LedgerPath()},
	}
}
