package cli

import (
	"github.com/spf13/cobra"

	"github.com/roach88/linecont/internal/pipeline"
)

// NewInspectCommand creates the inspect command.
func NewInspectCommand(rootOpts *RootOptions) *cobra.Command {
	flags := &RunFlags{}

	cmd := &cobra.Command{
		Use:   "inspect",
		Short: "Analyse a dataset without writing output",
		Long: `Run the continuation analysis and report the qualifying pairs and the
dangling ends (line ends that meet no other line). Nothing is written
except an optional preview and history record.

Dangling ends are also checked for gap bridges: the end of one line is
matched to a nearby dangling start of another line when both line headings
and the bridge between them stay within the tolerance.

Examples:
  linecont inspect --PATH roads.shp --DEGREE 10
  linecont inspect -p roads.geojson --max-gap 2.5
  linecont inspect -p roads.geojson --format json`,
		Args:          commandArgs(cobra.NoArgs),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInspect(rootOpts, flags, cmd)
		},
	}

	addRunFlags(cmd, flags)
	cmd.Flags().Float64Var(&flags.MaxGap, "max-gap", 0, "longest gap bridge to propose, in dataset units (0 = unlimited)")
	return cmd
}

func runInspect(opts *RootOptions, flags *RunFlags, cmd *cobra.Command) error {
	cfg, err := resolveConfig(opts, flags, cmd.Flags())
	if err != nil {
		return classify(err)
	}

	rep, err := pipeline.Inspect(cmd.Context(), cfg, opts.Deps)
	if err != nil {
		exitErr := classify(err)
		if rep == nil {
			return exitErr
		}
		// Analysis finished; only preview or history failed.
		if opts.Format == "text" {
			printReport(cmd, rep, opts.Verbose, true)
		}
		return exitErr
	}

	if opts.Format == "json" {
		out := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout()}
		return out.Success(rep)
	}
	printReport(cmd, rep, opts.Verbose, true)
	return nil
}
