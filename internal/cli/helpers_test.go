package cli

import (
	"bytes"
	"testing"
	"time"

	"github.com/roach88/linecont/internal/pipeline"
	"github.com/roach88/linecont/internal/store"
	"github.com/roach88/linecont/internal/testutil"
)

// writeInput writes the junction fixture and returns its path.
func writeInput(t *testing.T) string {
	t.Helper()
	return testutil.WriteGeoJSON(t, t.TempDir(), "lines.geojson", testutil.Junction())
}

// testOptions returns root options with a fixed clock, fixed run ids and
// an empty environment.
func testOptions(env map[string]string, ids ...string) *RootOptions {
	clock := testutil.NewStepClock(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC), time.Millisecond)
	return &RootOptions{
		Deps: pipeline.Deps{
			IDs: store.NewFixedGenerator(ids...),
			Now: clock.Now,
		},
		Getenv: func(k string) (string, bool) {
			v, ok := env[k]
			return v, ok
		},
	}
}

// execute runs the root command with args and returns stdout and stderr.
func execute(t *testing.T, opts *RootOptions, args ...string) (string, string, error) {
	t.Helper()
	buf := &bytes.Buffer{}
	errBuf := &bytes.Buffer{}
	cmd := NewRootCommandWithOptions(opts)
	cmd.SetOut(buf)
	cmd.SetErr(errBuf)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return buf.String(), errBuf.String(), err
}
