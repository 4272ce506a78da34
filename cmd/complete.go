package cmd

import (
	"github.com/spf13/cobra"

	"github.com/passage-org/passage-complete/internal/config"
	"github.com/passage-org/passage-complete/internal/formatter"
	"github.com/passage-org/passage-complete/internal/limiter"
	"github.com/passage-org/passage-complete/pkg/core"
	"github.com/passage-org/passage-complete/pkg/errors"
	"github.com/passage-org/passage-complete/pkg/logger"
)

// engineFlags override the configuration for one invocation.
type engineFlags struct {
	endpoint   string
	language   string
	filter     string
	namespaces map[string]string
	window     limiter.Config
}

func (f *engineFlags) register(cmd *cobra.Command) {
	fs := cmd.Flags()
	fs.StringVar(&f.endpoint, "endpoint", "", "SPARQL endpoint URL; its raw counterpart is queried")
	fs.StringVar(&f.language, "language", "", "UI language for labels, e.g. en")
	fs.StringVar(&f.filter, "filter", "", "CEL expression over s (a suggestion) that must hold, e.g. 's.score > 0.1'")
	fs.StringToStringVar(&f.namespaces, "prefix", nil, "extra namespace alias, e.g. --prefix ex=http://example.org/")
	fs.IntVar(&f.window.Limit, "limit", 0, "keep at most N suggestions (default from config)")
	fs.IntVar(&f.window.Offset, "offset", 0, "skip the first N suggestions")
	fs.IntVar(&f.window.Tail, "tail", 0, "keep only the last N suggestions (mutually exclusive with --limit; ignores --offset)")
}

// newEngine loads the configuration, applies the flags and builds the engine.
func (f *engineFlags) newEngine(cmd *cobra.Command, opts *globalOptions) (*core.Engine, error) {
	if err := f.window.Validate(); err != nil {
		return nil, err
	}
	cfg, err := loadConfig(opts, func(c *config.Config) {
		if f.endpoint != "" {
			c.Endpoint.URL = f.endpoint
		}
		if f.language != "" {
			c.Ranking.Language = f.language
		}
		if f.filter != "" {
			c.Ranking.Filter = f.filter
		}
		if c.Namespaces == nil && len(f.namespaces) > 0 {
			c.Namespaces = map[string]string{}
		}
		for k, v := range f.namespaces {
			c.Namespaces[k] = v
		}
	})
	if err != nil {
		return nil, err
	}

	window := f.window
	if !changed(cmd.Flags(), "limit") && window.Tail == 0 {
		window.Limit = cfg.Ranking.Limit
	}
	logger.FromContext(opts.ctx).V(1).Info("engine configured",
		logger.EndpointKey, cfg.Endpoint.URL, "language", cfg.Ranking.Language, "filter", cfg.Ranking.Filter)
	return core.NewFromConfig(cfg, core.WithWindow(window))
}

func newCompleteCmd(opts *globalOptions) *cobra.Command {
	var (
		cursor cursorFlags
		eng    engineFlags
	)
	cmd := &cobra.Command{
		Use:   "complete [file]",
		Short: "Suggest terms for the triple at the cursor",
		Long: "Read a query from a file or stdin and print ranked suggestions for the\n" +
			"incomplete triple pattern at the cursor. Without --line and --col the\n" +
			"cursor is at the end of the query.",
		Example: "  passage-complete complete query.rq --line 3 --col 12\n" +
			"  echo 'SELECT * WHERE { ?s a ' | passage-complete complete -o json\n" +
			"  passage-complete complete query.rq --filter 's.kind == \"iri\"' --limit 5",
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

			list, cerr := engine.CompleteErr(opts.ctx, core.Request{Text: text, Line: line, Column: col})
			out := formatter.Suggestions(list)
			if cerr != nil || out == nil {
				// An empty list is still printed for callers that only read stdout.
				out = formatter.Suggestions{}
			}
			if err := opts.render(cmd.OutOrStdout(), out); err != nil {
				return err
			}
			return cerr
		},
	}
	cmd.Flags().IntVar(&cursor.line, "line", -1, "zero based cursor line (default last line)")
	cmd.Flags().IntVar(&cursor.column, "col", -1, "zero based cursor byte column (default end of line)")
	eng.register(cmd)
	return cmd
}
