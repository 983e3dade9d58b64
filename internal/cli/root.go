package cli

import (
	"fmt"
	"log/slog"
	"os"
	"slices"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/roach88/linecont/internal/config"
	"github.com/roach88/linecont/internal/pipeline"
)

// EnvLogLevel overrides the log level ("debug", "info", "warn", "error").
const EnvLogLevel = "LINECONT_LOG_LEVEL"

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose bool
	Format  string // "json" | "text"

	// Deps overrides pipeline collaborators (for testing).
	Deps pipeline.Deps
	// Getenv reads the environment. Defaults to os.LookupEnv.
	Getenv func(string) (string, bool)
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// RunFlags are the flags shared by the filtering commands.
type RunFlags struct {
	ConfigFile  string
	EnvFile     string
	Input       string
	Output      string
	Tolerance   float64
	Epsilon     float64
	Database    string
	Preview     string
	Unsupported string
	MaxGap      float64
}

// NewRootCommand creates the root command, which runs the filter.
func NewRootCommand() *cobra.Command {
	return NewRootCommandWithOptions(&RootOptions{})
}

// NewRootCommandWithOptions creates the root command around opts.
func NewRootCommandWithOptions(opts *RootOptions) *cobra.Command {
	flags := &RunFlags{}

	cmd := &cobra.Command{
		Use:   "linecont",
		Short: "Keep line features that continue each other in a straight line",
		Long: `Read a line dataset (shapefile or GeoJSON), find pairs of lines that
meet at a shared endpoint and continue in nearly the same direction, and
write every line that takes part in such a pair to the output dataset.

Two lines continue each other when the angle between their outward
directions at the shared endpoint is within the tolerance of 180 degrees.

Examples:
  linecont --PATH roads.shp --DEGREE 10 --OUTPUT straight.shp
  linecont -p roads.geojson -o out/straight.geojson --preview out/roads.png
  linecont --config linecont.yaml --db history.db --format json`,
		Args:          commandArgs(cobra.NoArgs),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !isValidFormat(opts.Format) {
				return NewExitError(ExitCommandError, fmt.Sprintf("invalid format %q: must be one of %v", opts.Format, ValidFormats))
			}
			setupLogging(opts, cmd)
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFilter(opts, flags, cmd)
		},
	}

	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")
	addRunFlags(cmd, flags)
	cmd.SetGlobalNormalizationFunc(normalizeFlagName)
	cmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return WrapExitError(ExitCommandError, "invalid flags", err)
	})

	cmd.AddCommand(NewInspectCommand(opts))
	cmd.AddCommand(NewHistoryCommand(opts))

	return cmd
}

func addRunFlags(cmd *cobra.Command, f *RunFlags) {
	def := config.Default()
	fs := cmd.Flags()
	fs.StringVarP(&f.Input, "path", "p", def.Input, "input dataset (.shp, .geojson)")
	fs.Float64VarP(&f.Tolerance, "degree", "d", def.Tolerance, "continuation tolerance in degrees [0, 180]")
	fs.StringVarP(&f.Output, "output", "o", def.Output, "output dataset, same format as the input")
	fs.Float64Var(&f.Epsilon, "epsilon", def.Epsilon, "endpoint matching distance in dataset units")
	fs.StringVar(&f.ConfigFile, "config", "", "YAML configuration file")
	fs.StringVar(&f.EnvFile, "env-file", ".env", "dotenv file with LINECONT_* variables")
	fs.StringVar(&f.Database, "db", "", "record the run in this SQLite history database")
	fs.StringVar(&f.Preview, "preview", "", "render a PNG preview to this path")
	fs.StringVar(&f.Unsupported, "unsupported", def.Unsupported, "unsupported geometry policy (skip|abort)")
}

// normalizeFlagName accepts the historical spellings --p/--PATH,
// --d/--DEGREE and --o/--OUTPUT.
func normalizeFlagName(_ *pflag.FlagSet, name string) pflag.NormalizedName {
	switch strings.ToLower(name) {
	case "p", "path":
		name = "path"
	case "d", "degree":
		name = "degree"
	case "o", "output":
		name = "output"
	}
	return pflag.NormalizedName(name)
}

// setupLogging installs a text slog handler on stderr. --verbose selects
// debug; LINECONT_LOG_LEVEL overrides both.
func setupLogging(opts *RootOptions, cmd *cobra.Command) {
	level := slog.LevelInfo
	if opts.Verbose {
		level = slog.LevelDebug
	}
	if v, ok := opts.lookupEnv(EnvLogLevel); ok && v != "" {
		var l slog.Level
		if err := l.UnmarshalText([]byte(v)); err == nil {
			level = l
		}
	}
	handler := slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level})
	slog.SetDefault(slog.New(handler))
}

func (o *RootOptions) lookupEnv(key string) (string, bool) {
	if o.Getenv != nil {
		return o.Getenv(key)
	}
	return os.LookupEnv(key)
}

// resolveConfig layers defaults, the config file, .env and environment, and
// finally any flags set on the command line.
func resolveConfig(opts *RootOptions, f *RunFlags, fs *pflag.FlagSet) (config.Config, error) {
	cfg, err := config.Load(f.ConfigFile)
	if err != nil {
		return cfg, err
	}
	if opts.Getenv == nil {
		if err := config.LoadDotEnv(f.EnvFile); err != nil {
			return cfg, err
		}
	}
	if err := cfg.ApplyEnv(opts.lookupEnv); err != nil {
		return cfg, &config.ValidationError{Err: err}
	}

	if fs.Changed("path") {
		cfg.Input = f.Input
	}
	if fs.Changed("output") {
		cfg.Output = f.Output
	}
	if fs.Changed("degree") {
		cfg.Tolerance = f.Tolerance
	}
	if fs.Changed("epsilon") {
		cfg.Epsilon = f.Epsilon
	}
	if fs.Changed("db") {
		cfg.Database = f.Database
	}
	if fs.Changed("preview") {
		cfg.Preview = f.Preview
	}
	if fs.Changed("unsupported") {
		cfg.Unsupported = f.Unsupported
	}
	if fs.Changed("max-gap") {
		cfg.MaxGap = f.MaxGap
	}
	return cfg, nil
}

func runFilter(opts *RootOptions, flags *RunFlags, cmd *cobra.Command) error {
	cfg, err := resolveConfig(opts, flags, cmd.Flags())
	if err != nil {
		return classify(err)
	}

	out := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}
	if opts.Format == "text" {
		printOptions(cmd, cfg)
	}

	rep, err := pipeline.Run(cmd.Context(), cfg, opts.Deps)
	if err != nil {
		exitErr := classify(err)
		if rep != nil {
			if opts.Format == "json" {
				_ = out.Error(exitErr.Code, exitErr.Error(), rep)
			} else {
				printReport(cmd, rep, opts.Verbose, false)
			}
		}
		return exitErr
	}

	if opts.Format == "json" {
		return out.Success(rep)
	}
	printReport(cmd, rep, opts.Verbose, false)
	return nil
}

// printOptions echoes the effective options before processing starts.
func printOptions(cmd *cobra.Command, cfg config.Config) {
	w := cmd.OutOrStdout()
	fmt.Fprintln(w, "Running with the following options:")
	fmt.Fprintf(w, " - File path: %s\n", cfg.Input)
	fmt.Fprintf(w, " - Acceptable angle: %g\n", cfg.Tolerance)
	fmt.Fprintf(w, " - Output path: %s\n", cfg.Output)
	if cfg.Epsilon != config.Default().Epsilon {
		fmt.Fprintf(w, " - Endpoint epsilon: %g\n", cfg.Epsilon)
	}
	fmt.Fprintln(w)
}

// commandArgs turns positional argument errors into command errors.
func commandArgs(validate cobra.PositionalArgs) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if err := validate(cmd, args); err != nil {
			return WrapExitError(ExitCommandError, "invalid arguments", err)
		}
		return nil
	}
}

// isValidFormat checks if the format is one of the allowed values.
func isValidFormat(format string) bool {
	return slices.Contains(ValidFormats, format)
}
