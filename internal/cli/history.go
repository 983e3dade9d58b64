package cli

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/roach88/linecont/internal/config"
	"github.com/roach88/linecont/internal/store"
)

// HistoryOptions holds flags for the history commands.
type HistoryOptions struct {
	*RootOptions
	Database string
	Limit    int
}

// RunDetail is a recorded run with its pairs and the other runs that
// produced the same result.
type RunDetail struct {
	Run        store.Run    `json:"run"`
	Pairs      []store.Pair `json:"pairs"`
	SameResult []string     `json:"same_result"`
}

// NewHistoryCommand creates the history command and its show subcommand.
func NewHistoryCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &HistoryOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recorded runs",
		Long: `List runs recorded in a history database, newest first.

The database is taken from --db or LINECONT_DB.

Examples:
  linecont history --db history.db
  linecont history --db history.db --limit 5 --format json
  linecont history show --db history.db <run-id>`,
		Args:          commandArgs(cobra.NoArgs),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHistoryList(opts, cmd)
		},
	}

	cmd.PersistentFlags().StringVar(&opts.Database, "db", "", "path to SQLite history database")
	cmd.Flags().IntVar(&opts.Limit, "limit", 20, "maximum number of runs to list (0 = all)")

	show := &cobra.Command{
		Use:           "show <run-id>",
		Short:         "Show a recorded run and its qualifying pairs",
		Args:          commandArgs(cobra.ExactArgs(1)),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHistoryShow(opts, args[0], cmd)
		},
	}
	cmd.AddCommand(show)

	return cmd
}

func openHistory(opts *HistoryOptions) (*store.Store, error) {
	path := opts.Database
	if path == "" {
		path, _ = opts.lookupEnv(config.EnvDatabase)
	}
	if path == "" {
		return nil, NewExitError(ExitCommandError, "no history database: set --db or "+config.EnvDatabase)
	}
	// Reading history must not create an empty database.
	if _, err := os.Stat(path); err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to open database", err)
	}
	st, err := store.Open(path)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to open database", err)
	}
	return st, nil
}

func closeHistory(st *store.Store) {
	if err := st.Close(); err != nil {
		slog.Error("error closing database", "error", err)
	}
}

func runHistoryList(opts *HistoryOptions, cmd *cobra.Command) error {
	st, err := openHistory(opts)
	if err != nil {
		return err
	}
	defer closeHistory(st)

	runs, err := st.ListRuns(cmd.Context(), opts.Limit)
	if err != nil {
		return WrapExitError(ExitFailure, "failed to list runs", err)
	}

	if opts.Format == "json" {
		out := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout()}
		return out.Success(runs)
	}

	w := cmd.OutOrStdout()
	if len(runs) == 0 {
		fmt.Fprintln(w, "No runs recorded.")
		return nil
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "SEQ\tRUN\tSTATUS\tTOL\tINPUT\tPAIRS\tSELECTED\tHASH")
	for _, r := range runs {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%g\t%s\t%d\t%d\t%s\n",
			r.Seq, r.ID, r.Status, r.Tolerance, r.Input, r.PairCount, r.OutputCount, truncateHash(r.ResultHash))
	}
	return tw.Flush()
}

func runHistoryShow(opts *HistoryOptions, id string, cmd *cobra.Command) error {
	st, err := openHistory(opts)
	if err != nil {
		return err
	}
	defer closeHistory(st)

	ctx := cmd.Context()
	run, err := st.GetRun(ctx, id)
	if errors.Is(err, store.ErrRunNotFound) {
		return WrapExitError(ExitCommandError, "unknown run", err)
	}
	if err != nil {
		return WrapExitError(ExitFailure, "failed to load run", err)
	}
	pairs, err := st.RunPairs(ctx, id)
	if err != nil {
		return WrapExitError(ExitFailure, "failed to load pairs", err)
	}
	same, err := st.RunsWithHash(ctx, run.ResultHash)
	if err != nil {
		return WrapExitError(ExitFailure, "failed to load matching runs", err)
	}
	detail := RunDetail{Run: run, Pairs: pairs, SameResult: without(same, id)}

	if opts.Format == "json" {
		out := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout()}
		return out.Success(detail)
	}

	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "Run: %s (seq %d)\n", run.ID, run.Seq)
	fmt.Fprintf(w, "Status: %s\n", run.Status)
	fmt.Fprintf(w, "Started: %s\n", run.StartedAt)
	fmt.Fprintf(w, "Input: %s\n", run.Input)
	if run.Output != "" {
		fmt.Fprintf(w, "Output: %s\n", run.Output)
	}
	fmt.Fprintf(w, "Tolerance: %g  Epsilon: %g\n", run.Tolerance, run.Epsilon)
	fmt.Fprintf(w, "Result hash: %s\n", run.ResultHash)
	fmt.Fprintln(w)

	fmt.Fprintln(w, "=== Qualifying Pairs ===")
	if len(pairs) == 0 {
		fmt.Fprintln(w, "  (none)")
	} else {
		tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, "  A\tB\tAT\tANGLE\tDEVIATION")
		for _, p := range pairs {
			fmt.Fprintf(tw, "  %d\t%d\t%g %g\t%.3f\t%.3f\n", p.A, p.B, p.X, p.Y, p.Angle, p.Deviation)
		}
		tw.Flush()
	}

	if len(detail.SameResult) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintf(w, "Same result as: %v\n", detail.SameResult)
	}
	return nil
}

func without(ids []string, id string) []string {
	out := []string{}
	for _, v := range ids {
		if v != id {
			out = append(out, v)
		}
	}
	return out
}
