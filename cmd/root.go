package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"runtime"
	rdebug "runtime/debug"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/passage-org/passage-complete/internal/config"
	"github.com/passage-org/passage-complete/internal/formatter"
	"github.com/passage-org/passage-complete/pkg/errors"
	"github.com/passage-org/passage-complete/pkg/logger"
	"github.com/passage-org/passage-complete/pkg/settings"
)

// errShowHelp is returned when no input is provided and help should be shown.
var errShowHelp = errors.New("no input provided")

// globalOptions are the persistent flags shared by every command.
type globalOptions struct {
	configFile string
	verbose    bool
	noColor    bool
	output     string
	timeout    time.Duration

	ctx context.Context
	in  io.Reader
}

// newRootCmd builds the command tree. in is read when a command takes a
// query and no file is given.
func newRootCmd(in io.Reader) *cobra.Command {
	opts := &globalOptions{in: in, ctx: context.Background()}

	root := &cobra.Command{
		Use:   settings.CliBinaryName,
		Short: "Autocomplete SPARQL queries by sampling a raw endpoint",
		Long: "passage-complete suggests the next term of a SPARQL triple pattern.\n\n" +
			"The cursor's incomplete triple is turned into an autocompletion query that\n" +
			"a raw endpoint answers with random walks; the walks are ranked into\n" +
			"suggestions. Run it once from the command line, as a language server, or\n" +
			"as an HTTP API.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			run := settings.NewCliParams()
			run.ConfigFile = opts.configFile
			run.NoColor = opts.noColor
			run.RequestTimeout = opts.timeout
			if opts.verbose {
				run.MinLogLevel = -1
			}
			if opts.output != "" {
				run.OutputFormat = opts.output
			}
			if _, err := formatter.ParseFormat(run.OutputFormat); err != nil {
				return err
			}

			lgr := logger.Get(run.MinLogLevel)
			lgr = logger.WithValues(lgr, logger.RootCommandKey, settings.CliBinaryName, logger.SubCommandKey, cmd.Name())
			ctx := logger.WithLogger(cmd.Context(), lgr)
			opts.ctx = settings.IntoContext(ctx, run)
			return nil
		},
	}

	fs := root.PersistentFlags()
	fs.StringVar(&opts.configFile, "config-file", "", "path to a YAML config file (default "+configPathHint()+")")
	fs.BoolVarP(&opts.verbose, "verbose", "v", false, "log debug details to stderr")
	fs.BoolVar(&opts.noColor, "no-color", false, "disable color output")
	fs.StringVarP(&opts.output, "output", "o", "", "output format: table|list|json|yaml|toml")
	fs.DurationVar(&opts.timeout, "timeout", 0, "abort a completion after this long (0 = no limit)")

	root.Version = cliVersionString()
	root.SetVersionTemplate("{{.Version}}\n")
	root.AddCommand(
		newCompleteCmd(opts),
		newSliceCmd(opts),
		newLSPCmd(opts),
		newServeCmd(opts),
		newConfigCmd(opts),
		newVersionCmd(),
	)
	return root
}

// Execute runs the CLI.
func Execute() error {
	err := newRootCmd(os.Stdin).Execute()
	if errors.Is(err, errShowHelp) {
		return nil
	}
	return err
}

func configPathHint() string {
	if p := config.DefaultPath(); p != "" {
		return p
	}
	return "none"
}

// loadConfig loads the configuration selected by --config-file and applies
// flag overrides on top of it.
func loadConfig(opts *globalOptions, overrides ...func(*config.Config)) (*config.Config, error) {
	cfg, err := config.Load(opts.configFile)
	if err != nil {
		return nil, err
	}
	if len(overrides) == 0 {
		return cfg, nil
	}
	for _, o := range overrides {
		o(cfg)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// run returns the settings attached by PersistentPreRunE.
func (o *globalOptions) run() *settings.Run {
	return settings.FromContextOrDefault(o.ctx)
}

// serverContext swaps the CLI settings of ctx for those of a long-running
// front, keeping the log level and request timeout from the flags.
func (o *globalOptions) serverContext(ctx context.Context, front settings.Front) context.Context {
	cli := o.run()
	run := settings.NewServerParams(front)
	run.MinLogLevel = cli.MinLogLevel
	run.RequestTimeout = cli.RequestTimeout
	run.ConfigFile = cli.ConfigFile
	lgr := logger.WithValues(logger.FromContext(ctx), logger.FrontKey, front)
	return settings.IntoContext(logger.WithLogger(ctx, lgr), run)
}

func (o *globalOptions) render(w io.Writer, v any) error {
	r := o.run()
	format, err := formatter.ParseFormat(r.OutputFormat)
	if err != nil {
		return err
	}
	return formatter.Render(w, v, formatter.Options{Format: format, NoColor: r.NoColor})
}

// changed reports whether the flag was set on the command line.
func changed(fs *pflag.FlagSet, name string) bool {
	f := fs.Lookup(name)
	return f != nil && f.Changed
}

// cliVersionString builds a human-readable version string for CLI output and
// cobra's --version flag.
func cliVersionString() string {
	v := settings.VersionInformation
	version := v.BuildVersion
	goVersion := runtime.Version()
	if info, ok := rdebug.ReadBuildInfo(); ok {
		if strings.HasPrefix(version, "v0.0.0") && info.Main.Version != "" && info.Main.Version != "(devel)" {
			version = info.Main.Version
		}
		if info.GoVersion != "" {
			goVersion = info.GoVersion
		}
	}
	return fmt.Sprintf("%s %s (commit %s, built %s, %s)", settings.CliBinaryName, version, v.Commit, v.BuildTime, goVersion)
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, err := fmt.Fprintln(cmd.OutOrStdout(), cliVersionString())
			return err
		},
	}
}
