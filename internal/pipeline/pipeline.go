// Package pipeline runs one filtering job end to end: load the source,
// find qualifying pairs, write the selection, and optionally render a
// preview and record the run in the history database.
//
// Analysis always completes before anything is written. When the output
// cannot be written the Report is still returned with the error, so the
// caller can say what was computed but not saved.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/roach88/linecont/internal/config"
	"github.com/roach88/linecont/internal/dataset"
	"github.com/roach88/linecont/internal/digest"
	"github.com/roach88/linecont/internal/filter"
	"github.com/roach88/linecont/internal/gap"
	"github.com/roach88/linecont/internal/geom"
	"github.com/roach88/linecont/internal/preview"
	"github.com/roach88/linecont/internal/store"
)

// Deps are the injectable collaborators of a run.
type Deps struct {
	// IDs generates run ids. Defaults to UUIDv7.
	IDs store.RunIDGenerator
	// Now is the clock. Defaults to time.Now.
	Now func() time.Time
	// Preview configures the preview canvas. Zero value means defaults.
	Preview preview.Options
}

func (d Deps) withDefaults() Deps {
	if d.IDs == nil {
		d.IDs = store.UUIDv7Generator{}
	}
	if d.Now == nil {
		d.Now = time.Now
	}
	if d.Preview.Width == 0 {
		d.Preview = preview.DefaultOptions()
	}
	return d
}

// PairReport is a qualifying pair identified by feature ids.
type PairReport struct {
	A         int64      `json:"a"`
	B         int64      `json:"b"`
	At        [2]float64 `json:"at"`
	Angle     float64    `json:"angle"`
	Deviation float64    `json:"deviation"`
}

// DanglingReport is a feature end that meets no other feature.
type DanglingReport struct {
	Feature int64      `json:"feature"`
	End     string     `json:"end"`
	At      [2]float64 `json:"at"`
}

// GapReport is a proposed bridge from the end of one feature to the start
// of another. Bridges are reported, never written.
type GapReport struct {
	From            int64      `json:"from"`
	To              int64      `json:"to"`
	FromAt          [2]float64 `json:"from_at"`
	ToAt            [2]float64 `json:"to_at"`
	Distance        float64    `json:"distance"`
	Deviation       float64    `json:"deviation"`
	BridgeDeviation float64    `json:"bridge_deviation"`
}

// Report describes a completed (or partially completed) run.
type Report struct {
	RunID     string           `json:"run_id"`
	Input     string           `json:"input"`
	Output    string           `json:"output,omitempty"`
	Format    dataset.Format   `json:"format"`
	Tolerance float64          `json:"tolerance"`
	Epsilon   float64          `json:"epsilon"`
	Skipped   int              `json:"skipped"`
	Stats     filter.Stats     `json:"stats"`
	Selected  []int64          `json:"selected"`
	Pairs     []PairReport     `json:"pairs"`
	Dangling  []DanglingReport `json:"dangling,omitempty"`
	Gaps      []GapReport      `json:"gaps,omitempty"`
	// InputLength and SelectedLength are planar lengths in dataset units.
	InputLength    float64       `json:"input_length"`
	SelectedLength float64       `json:"selected_length"`
	ResultHash     string        `json:"result_hash"`
	Status         string        `json:"status"`
	Preview        string        `json:"preview,omitempty"`
	Recorded       bool          `json:"recorded"`
	Elapsed        time.Duration `json:"elapsed_ns"`
}

// Run filters cfg.Input into cfg.Output.
func Run(ctx context.Context, cfg config.Config, deps Deps) (*Report, error) {
	return execute(ctx, cfg, deps, false)
}

// Inspect analyses cfg.Input without writing any output dataset. The report
// also proposes gap bridges between dangling ends.
func Inspect(ctx context.Context, cfg config.Config, deps Deps) (*Report, error) {
	return execute(ctx, cfg, deps, true)
}

func execute(ctx context.Context, cfg config.Config, deps Deps, inspect bool) (*Report, error) {
	deps = deps.withDefaults()
	started := deps.Now()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	policy, err := cfg.Policy()
	if err != nil {
		return nil, err
	}
	opts := cfg.FilterOptions()

	ds, err := dataset.Load(cfg.Input, policy)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	res, err := filter.Filter(ds.Features, opts)
	if err != nil {
		return nil, err
	}
	hash, err := digest.ResultHash(res, opts)
	if err != nil {
		return nil, err
	}

	rep := newReport(deps.IDs.Generate(), cfg, ds, res, hash)
	slog.Info("analysis complete",
		"run", rep.RunID,
		"input", rep.Stats.Input,
		"junctions", rep.Stats.Junctions,
		"pairs", rep.Stats.Pairs,
		"selected", rep.Stats.Output,
	)

	var runErr error
	if inspect {
		rep.Status = store.StatusInspected
		rep.Output = ""
		rep.Gaps = gapReports(ds.Features, res, cfg)
		slog.Debug("gap search complete", "run", rep.RunID, "candidates", len(rep.Gaps))
	} else {
		if err := ctx.Err(); err != nil {
			return rep, err
		}
		if err := dataset.Write(cfg.Output, ds, res.Features); err != nil {
			slog.Error("output not written", "path", cfg.Output, "error", err)
			rep.Status = store.StatusWriteFailed
			runErr = err
		} else {
			rep.Status = store.StatusWritten
			slog.Info("output written", "path", cfg.Output, "features", len(res.Features))
		}
	}

	if cfg.Preview != "" {
		if err := renderPreview(cfg.Preview, ds.Features, res, deps.Preview); err != nil {
			runErr = errors.Join(runErr, err)
		} else {
			rep.Preview = cfg.Preview
		}
	}

	if cfg.Database != "" {
		if err := record(ctx, cfg.Database, rep, started); err != nil {
			runErr = errors.Join(runErr, err)
		} else {
			rep.Recorded = true
		}
	}

	rep.Elapsed = deps.Now().Sub(started)
	return rep, runErr
}

func newReport(id string, cfg config.Config, ds *dataset.Dataset, res *filter.Result, hash string) *Report {
	rep := &Report{
		RunID:      id,
		Input:      cfg.Input,
		Output:     cfg.Output,
		Format:     ds.Format,
		Tolerance:  cfg.Tolerance,
		Epsilon:    cfg.Epsilon,
		Skipped:    ds.Skipped,
		Stats:      res.Stats,
		Selected:   make([]int64, len(res.Features)),
		Pairs:      make([]PairReport, len(res.Pairs)),
		ResultHash: hash,
	}
	for _, f := range ds.Features {
		rep.InputLength += geom.Length(f)
	}
	for i, f := range res.Features {
		rep.Selected[i] = f.ID
		rep.SelectedLength += geom.Length(f)
	}
	for i, p := range res.Pairs {
		rep.Pairs[i] = PairReport{
			A:         ds.Features[p.A].ID,
			B:         ds.Features[p.B].ID,
			At:        [2]float64{p.At[0], p.At[1]},
			Angle:     p.Angle,
			Deviation: p.Deviation,
		}
	}
	for _, d := range res.Dangling {
		rep.Dangling = append(rep.Dangling, DanglingReport{
			Feature: ds.Features[d.Feature].ID,
			End:     d.End.String(),
			At:      [2]float64{d.At[0], d.At[1]},
		})
	}
	return rep
}

func gapReports(features []geom.Feature, res *filter.Result, cfg config.Config) []GapReport {
	cands := gap.Find(features, res.Dangling, gap.Options{
		ToleranceDegrees: cfg.Tolerance,
		MaxDistance:      cfg.MaxGap,
	})
	out := make([]GapReport, len(cands))
	for i, c := range cands {
		out[i] = GapReport{
			From:            features[c.From].ID,
			To:              features[c.To].ID,
			FromAt:          [2]float64{c.FromAt[0], c.FromAt[1]},
			ToAt:            [2]float64{c.ToAt[0], c.ToAt[1]},
			Distance:        c.Distance,
			Deviation:       c.Deviation,
			BridgeDeviation: c.BridgeDeviation,
		}
	}
	return out
}

func renderPreview(path string, features []geom.Feature, res *filter.Result, opts preview.Options) error {
	img, err := preview.Render(features, res, opts)
	if err != nil {
		return fmt.Errorf("render preview: %w", err)
	}
	if err := preview.Save(path, img); err != nil {
		return err
	}
	slog.Info("preview saved", "path", path)
	return nil
}

func record(ctx context.Context, dbPath string, rep *Report, started time.Time) error {
	st, err := store.Open(dbPath)
	if err != nil {
		return fmt.Errorf("open history: %w", err)
	}
	defer func() {
		if closeErr := st.Close(); closeErr != nil {
			slog.Error("error closing database", "error", closeErr)
		}
	}()

	run := store.Run{
		ID:          rep.RunID,
		Input:       rep.Input,
		Output:      rep.Output,
		Tolerance:   rep.Tolerance,
		Epsilon:     rep.Epsilon,
		InputCount:  rep.Stats.Input,
		Skipped:     rep.Skipped,
		Degenerate:  rep.Stats.Degenerate,
		Junctions:   rep.Stats.Junctions,
		PairCount:   rep.Stats.Pairs,
		OutputCount: rep.Stats.Output,
		ResultHash:  rep.ResultHash,
		Status:      rep.Status,
		StartedAt:   started.UTC().Format(time.RFC3339Nano),
	}
	pairs := make([]store.Pair, len(rep.Pairs))
	for i, p := range rep.Pairs {
		pairs[i] = store.Pair{A: p.A, B: p.B, X: p.At[0], Y: p.At[1], Angle: p.Angle, Deviation: p.Deviation}
	}

	if _, err := st.RecordRun(ctx, run, pairs); err != nil {
		return err
	}
	slog.Debug("run recorded", "run", rep.RunID, "db", dbPath)
	return nil
}
