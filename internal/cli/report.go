package cli

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/roach88/linecont/internal/pipeline"
	"github.com/roach88/linecont/internal/store"
)

// printReport writes a run report as text. Pairs are listed in verbose
// mode or when all is set; dangling ends only when all is set.
func printReport(cmd *cobra.Command, rep *pipeline.Report, verbose, all bool) {
	w := cmd.OutOrStdout()

	fmt.Fprintf(w, "Run: %s\n", rep.RunID)
	fmt.Fprintf(w, "Status: %s\n", rep.Status)
	fmt.Fprintln(w)

	fmt.Fprintln(w, "=== Stats ===")
	fmt.Fprintf(w, "  Input features:  %d\n", rep.Stats.Input)
	if rep.Skipped > 0 {
		fmt.Fprintf(w, "  Skipped:         %d\n", rep.Skipped)
	}
	if rep.Stats.Degenerate > 0 {
		fmt.Fprintf(w, "  Degenerate:      %d\n", rep.Stats.Degenerate)
	}
	fmt.Fprintf(w, "  Junctions:       %d\n", rep.Stats.Junctions)
	fmt.Fprintf(w, "  Pairs:           %d\n", rep.Stats.Pairs)
	fmt.Fprintf(w, "  Selected:        %d\n", rep.Stats.Output)
	fmt.Fprintf(w, "  Input length:    %.3f\n", rep.InputLength)
	fmt.Fprintf(w, "  Selected length: %.3f\n", rep.SelectedLength)
	fmt.Fprintf(w, "  Result hash:     %s\n", truncateHash(rep.ResultHash))

	if all || verbose {
		fmt.Fprintln(w)
		printPairs(w, rep.Pairs)
	}
	if all {
		fmt.Fprintln(w)
		printDangling(w, rep.Dangling)
		fmt.Fprintln(w)
		printGaps(w, rep.Gaps)
	}

	fmt.Fprintln(w)
	if rep.Output != "" && rep.Status == store.StatusWritten {
		fmt.Fprintf(w, "Wrote %d features to %s\n", rep.Stats.Output, rep.Output)
	}
	if rep.Preview != "" {
		fmt.Fprintf(w, "Preview: %s\n", rep.Preview)
	}
	if rep.Recorded {
		fmt.Fprintln(w, "Run recorded in history.")
	}
	fmt.Fprintf(w, "Total time elapsed: %.3f seconds.\n", rep.Elapsed.Seconds())
}

func printPairs(w io.Writer, pairs []pipeline.PairReport) {
	fmt.Fprintln(w, "=== Qualifying Pairs ===")
	if len(pairs) == 0 {
		fmt.Fprintln(w, "  (none)")
		return
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "  A\tB\tAT\tANGLE\tDEVIATION")
	for _, p := range pairs {
		fmt.Fprintf(tw, "  %d\t%d\t%g %g\t%.3f\t%.3f\n", p.A, p.B, p.At[0], p.At[1], p.Angle, p.Deviation)
	}
	tw.Flush()
}

func printDangling(w io.Writer, ends []pipeline.DanglingReport) {
	fmt.Fprintln(w, "=== Dangling Ends ===")
	if len(ends) == 0 {
		fmt.Fprintln(w, "  (none)")
		return
	}
	for _, d := range ends {
		fmt.Fprintf(w, "  feature %d %s at %g %g\n", d.Feature, d.End, d.At[0], d.At[1])
	}
}

func printGaps(w io.Writer, gaps []pipeline.GapReport) {
	fmt.Fprintln(w, "=== Gap Candidates ===")
	if len(gaps) == 0 {
		fmt.Fprintln(w, "  (none)")
		return
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "  FROM\tTO\tGAP\tDEVIATION\tBRIDGE")
	for _, g := range gaps {
		fmt.Fprintf(tw, "  %d\t%d\t%.3f\t%.3f\t%.3f\n", g.From, g.To, g.Distance, g.Deviation, g.BridgeDeviation)
	}
	tw.Flush()
}

// truncateHash shortens a digest for display.
func truncateHash(h string) string {
	if len(h) > 16 {
		return h[:16]
	}
	return h
}
