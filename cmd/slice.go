package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/passage-org/passage-complete/pkg/core"
	"github.com/passage-org/passage-complete/pkg/errors"
)

func newSliceCmd(opts *globalOptions) *cobra.Command {
	var (
		cursor cursorFlags
		eng    engineFlags
	)
	cmd := &cobra.Command{
		Use:   "slice [file]",
		Short: "Print the autocompletion query for the triple at the cursor",
		Long: "Run the analysis stages without contacting the endpoint and print the\n" +
			"query that would be sent. With -o json, yaml or toml the whole analysis\n" +
			"is printed: slot, typed prefix, reconstructed query and kept variables.",
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			text, err := readQuery(args, opts.in)
			if err != nil {
				if errors.Is(err, errShowHelp) {
					_ = cmd.Help()
				}
				return err
			}
			line, col, err := cursor.resolve(text)
			if err != nil {
				return err
			}
			engine, err := eng.newEngine(cmd, opts)
			if err != nil {
				return err
			}

			analysis, err := engine.Analyze(core.Request{Text: text, Line: line, Column: col})
			if err != nil {
				if hint := errors.FlattenHints(err); hint != "" {
					return errors.Wrap(err, hint)
				}
				return err
			}
			if !changed(cmd.Flags(), "output") {
				_, err = fmt.Fprintln(cmd.OutOrStdout(), analysis.Query)
				return err
			}
			return opts.render(cmd.OutOrStdout(), analysis)
		},
	}
	cmd.Flags().IntVar(&cursor.line, "line", -1, "zero based cursor line (default last line)")
	cmd.Flags().IntVar(&cursor.column, "col", -1, "zero based cursor byte column (default end of line)")
	eng.register(cmd)
	return cmd
}
