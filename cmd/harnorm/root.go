package main

import (
	"github.com/spf13/cobra"
)

func newRootCommand() *cobra.Command {
	var configFlag string
	var logLevel string
	var logFormat string

	ctx := newCommandContext(&configFlag, &logLevel, &logFormat)

	rootCmd := &cobra.Command{
		Use:           "harnorm",
		Short:         "Normalize HAR datasets into one accelerometer/gyroscope record layout",
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
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level override (debug|info|warn|error)")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "", "Log format override (console|json)")

	rootCmd.AddCommand(newReadCommand(ctx))
	rootCmd.AddCommand(newSourcesCommand())
	rootCmd.AddCommand(newActivitiesCommand())
	rootCmd.AddCommand(newConfigCommand(ctx))
	rootCmd.AddCommand(newRunsCommand(ctx))

	return rootCmd
}
