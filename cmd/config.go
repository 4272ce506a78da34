package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/passage-org/passage-complete/internal/config"
	"github.com/passage-org/passage-complete/internal/formatter"
)

func newConfigCmd(opts *globalOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect the configuration",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "get",
			Short: "Show the merged configuration",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				cfg, err := loadConfig(opts)
				if err != nil {
					return err
				}
				format := formatter.FormatYAML
				if changed(cmd.Flags(), "output") {
					if format, err = formatter.ParseFormat(opts.output); err != nil {
						return err
					}
				}
				return formatter.Render(cmd.OutOrStdout(), cfg, formatter.Options{Format: format, NoColor: opts.noColor})
			},
		},
		&cobra.Command{
			Use:   "default",
			Short: "Print the built-in configuration with its comments",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				_, err := cmd.OutOrStdout().Write(config.DefaultYAML())
				return err
			},
		},
		&cobra.Command{
			Use:   "path",
			Short: "Print the default configuration file path",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				_, err := fmt.Fprintln(cmd.OutOrStdout(), config.DefaultPath())
				return err
			},
		},
	)
	return cmd
}
