package main

import (
	"github.com/spf13/cobra"
)

func newRootCommand() *cobra.Command {
	var configFlag string
	var workersFlag int

	ctx := newCommandContext(&configFlag, &workersFlag)

	rootCmd := &cobra.Command{
		Use:           "bundlepull",
		Short:         "Mirror and unpack asset bundles from a web game deployment",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if shouldSkipConfig(cmd) {
				return nil
			}
			_, err := ctx.ensureConfig()
			return err
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	rootCmd.PersistentFlags().StringVarP(&configFlag, "config", "c", "", "Configuration file path")
	rootCmd.PersistentFlags().IntVarP(&workersFlag, "workers", "w", 0, "Override fetch.workers for this run")

	rootCmd.AddCommand(newSettingsCommand(ctx))
	rootCmd.AddCommand(newConfigsCommand(ctx))
	rootCmd.AddCommand(newImportsCommand(ctx))
	rootCmd.AddCommand(newAssetsCommand(ctx))
	rootCmd.AddCommand(newExtractCommand(ctx))
	rootCmd.AddCommand(newUUIDCommand())
	rootCmd.AddCommand(newHistoryCommand(ctx))
	rootCmd.AddCommand(newConfigCommand(ctx))

	return rootCmd
}
