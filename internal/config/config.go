// Package config assembles the explicit run configuration.
//
// Values are layered, later layers winning:
//
//	defaults < YAML file < .env / environment < command-line flags
//
// The CLI applies flags itself; everything else lives here. The merged value
// is checked against an embedded CUE schema before it reaches the pipeline.
package config

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/roach88/linecont/internal/dataset"
	"github.com/roach88/linecont/internal/filter"
	"github.com/roach88/linecont/internal/index"
)

//go:embed schema.cue
var schemaCUE string

// Defaults inherited from the original command-line tool.
const (
	DefaultInput  = "Meetvak/Meetvakken_WGS84.shp"
	DefaultOutput = "filtered_lines.shp"
)

// Environment variable names.
const (
	EnvInput       = "LINECONT_PATH"
	EnvTolerance   = "LINECONT_DEGREE"
	EnvOutput      = "LINECONT_OUTPUT"
	EnvEpsilon     = "LINECONT_EPSILON"
	EnvDatabase    = "LINECONT_DB"
	EnvPreview     = "LINECONT_PREVIEW"
	EnvUnsupported = "LINECONT_UNSUPPORTED"
	EnvMaxGap      = "LINECONT_MAX_GAP"
)

// Config is everything a filtering run needs.
type Config struct {
	Input       string  `yaml:"input" json:"input"`
	Output      string  `yaml:"output" json:"output"`
	Tolerance   float64 `yaml:"tolerance" json:"tolerance"`
	Epsilon     float64 `yaml:"epsilon" json:"epsilon"`
	Database    string  `yaml:"database,omitempty" json:"database,omitempty"`
	Preview     string  `yaml:"preview,omitempty" json:"preview,omitempty"`
	Unsupported string  `yaml:"unsupported" json:"unsupported"`
	// MaxGap bounds proposed gap bridges in inspect. Zero is unlimited.
	MaxGap float64 `yaml:"max_gap,omitempty" json:"max_gap"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Input:       DefaultInput,
		Output:      DefaultOutput,
		Tolerance:   filter.DefaultTolerance,
		Epsilon:     index.DefaultEpsilon,
		Unsupported: string(dataset.PolicySkip),
	}
}

// Load reads a YAML config on top of the defaults. A missing file is not an
// error; the defaults are returned.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("read config: %w", err)
	}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return Default(), fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}

// LoadDotEnv loads KEY=VALUE pairs from envFile into the process
// environment without overriding variables that are already set.
// A missing file is ignored.
func LoadDotEnv(envFile string) error {
	if _, err := os.Stat(envFile); errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err := godotenv.Load(envFile); err != nil {
		return fmt.Errorf("load %s: %w", envFile, err)
	}
	return nil
}

// ApplyEnv overlays LINECONT_* variables from lookup onto cfg.
// Pass os.LookupEnv in production.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	if v, ok := lookup(EnvInput); ok && v != "" {
		c.Input = v
	}
	if v, ok := lookup(EnvOutput); ok && v != "" {
		c.Output = v
	}
	if v, ok := lookup(EnvDatabase); ok {
		c.Database = v
	}
	if v, ok := lookup(EnvPreview); ok {
		c.Preview = v
	}
	if v, ok := lookup(EnvUnsupported); ok && v != "" {
		c.Unsupported = v
	}
	if v, ok := lookup(EnvTolerance); ok && v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("%s: %q is not a number", EnvTolerance, v)
		}
		c.Tolerance = f
	}
	if v, ok := lookup(EnvEpsilon); ok && v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("%s: %q is not a number", EnvEpsilon, v)
		}
		c.Epsilon = f
	}
	if v, ok := lookup(EnvMaxGap); ok && v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("%s: %q is not a number", EnvMaxGap, v)
		}
		c.MaxGap = f
	}
	return nil
}

// ValidationError reports a configuration that fails the schema.
type ValidationError struct {
	Err error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid configuration: %v", e.Err)
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

// Validate checks c against the embedded CUE schema.
func (c Config) Validate() error {
	ctx := cuecontext.New()

	schema := ctx.CompileString(schemaCUE, cue.Filename("schema.cue"))
	if err := schema.Err(); err != nil {
		return fmt.Errorf("compile config schema: %w", err)
	}
	def := schema.LookupPath(cue.ParsePath("#Config"))

	val := ctx.Encode(c)
	if err := val.Err(); err != nil {
		return &ValidationError{Err: err}
	}

	if err := def.Unify(val).Validate(cue.Concrete(true)); err != nil {
		return &ValidationError{Err: err}
	}
	return nil
}

// FilterOptions returns the analysis options.
func (c Config) FilterOptions() filter.Options {
	return filter.Options{ToleranceDegrees: c.Tolerance, Epsilon: c.Epsilon}
}

// Policy returns the unsupported-geometry policy.
func (c Config) Policy() (dataset.UnsupportedPolicy, error) {
	return dataset.ParsePolicy(c.Unsupported)
}
