// Package config loads the YAML configuration file.
package config

import (
	"errors"
	"fmt"
	"math"
	"os"
	"slices"

	"github.com/GeoffreyPlitt/debuggo"
	pkgerrors "github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/danielkinahan/dualie/internal/dsp"
	"github.com/danielkinahan/dualie/internal/synth"
)

var debug = debuggo.Debug("dualie:config")

// ErrInvalid wraps every validation failure.
var ErrInvalid = errors.New("invalid config")

// Backends accepted for realtime output.
const (
	BackendOto  = "oto"
	BackendJack = "jack"
)

// Config mirrors the YAML file. Zero values are replaced by Default.
type Config struct {
	SampleRate  int     `yaml:"sample_rate"`
	BlockSize   int     `yaml:"block_size"`
	Voices      int     `yaml:"voices"`
	QueueSize   int     `yaml:"queue_size"`
	MasterGain  float64 `yaml:"master_gain"`
	Filter      string  `yaml:"filter"`
	CutoffCurve string  `yaml:"cutoff_curve"`
	Backend     string  `yaml:"backend"`
	BufferMS    int     `yaml:"buffer_ms"`
	// CCMap routes controller numbers to parameter names. When present it
	// replaces the built-in map.
	CCMap map[int]string `yaml:"cc_map"`
	// Params sets initial raw values by parameter name.
	Params map[string]int `yaml:"params"`
}

// Default is the configuration used when no file is given.
func Default() *Config {
	opts := synth.DefaultOptions()
	return &Config{
		SampleRate:  opts.SampleRate,
		BlockSize:   opts.BlockSize,
		Voices:      opts.Voices,
		QueueSize:   opts.QueueSize,
		MasterGain:  0.2,
		Filter:      opts.Filter.String(),
		CutoffCurve: opts.CutoffCurve.String(),
		Backend:     BackendOto,
		BufferMS:    20,
	}
}

// Load reads path over the defaults. An empty path returns Default.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, pkgerrors.Wrap(err, "read config")
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, pkgerrors.Wrapf(err, "parse config %s", path)
	}
	if err := cfg.Validate(); err != nil {
		return nil, pkgerrors.WithMessage(err, path)
	}
	debug("loaded %s: %d Hz, %d voices, filter %s, backend %s", path, cfg.SampleRate, cfg.Voices, cfg.Filter, cfg.Backend)
	return cfg, nil
}

// Validate reports every problem at once.
func (c *Config) Validate() error {
	var errs []error
	bad := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf(format, args...))
	}
	if c.SampleRate < 8000 || c.SampleRate > 192000 {
		bad("sample_rate %d out of range 8000..192000", c.SampleRate)
	}
	if c.BlockSize < 1 || c.BlockSize > synth.MaxBlockSize {
		bad("block_size %d out of range 1..%d", c.BlockSize, synth.MaxBlockSize)
	}
	if c.Voices < 1 || c.Voices > 128 {
		bad("voices %d out of range 1..128", c.Voices)
	}
	if c.QueueSize < 1 {
		bad("queue_size %d must be positive", c.QueueSize)
	}
	if c.MasterGain < 0 || c.MasterGain > 1 {
		bad("master_gain %v out of range 0..1", c.MasterGain)
	}
	if _, ok := dsp.ParseFilterKind(c.Filter); !ok {
		bad("unknown filter %q", c.Filter)
	}
	if _, ok := synth.ParseCutoffCurve(c.CutoffCurve); !ok {
		bad("unknown cutoff_curve %q", c.CutoffCurve)
	}
	if !slices.Contains([]string{BackendOto, BackendJack}, c.Backend) {
		bad("unknown backend %q", c.Backend)
	}
	if c.BufferMS < 0 {
		bad("buffer_ms %d must not be negative", c.BufferMS)
	}
	for cc, name := range c.CCMap {
		if cc < 0 || cc > 127 {
			bad("cc_map controller %d out of range", cc)
		}
		if cc == 120 || cc == 123 {
			bad("cc_map controller %d is reserved", cc)
		}
		if _, ok := synth.ParamByName(name); !ok {
			bad("cc_map %d: unknown parameter %q", cc, name)
		}
	}
	for name, raw := range c.Params {
		if _, ok := synth.ParamByName(name); !ok {
			bad("params: unknown parameter %q", name)
		}
		if raw < 0 || raw > 127 {
			bad("params %s: value %d out of range 0..127", name, raw)
		}
	}
	if len(errs) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %w", ErrInvalid, errors.Join(errs...))
}

// EngineOptions converts a validated config. master_gain becomes the
// initial raw value of the master parameter unless params sets it.
func (c *Config) EngineOptions() (synth.Options, error) {
	if err := c.Validate(); err != nil {
		return synth.Options{}, err
	}
	kind, _ := dsp.ParseFilterKind(c.Filter)
	curve, _ := synth.ParseCutoffCurve(c.CutoffCurve)
	opts := synth.Options{
		SampleRate:  c.SampleRate,
		BlockSize:   c.BlockSize,
		Voices:      c.Voices,
		QueueSize:   c.QueueSize,
		Filter:      kind,
		CutoffCurve: curve,
		Params: map[synth.ParamID]uint8{
			synth.ParamMaster: uint8(math.Round(c.MasterGain * 127)),
		},
	}
	if len(c.CCMap) > 0 {
		opts.CCMap = make(map[uint8]synth.ParamID, len(c.CCMap))
		for cc, name := range c.CCMap {
			id, _ := synth.ParamByName(name)
			opts.CCMap[uint8(cc)] = id
		}
	}
	for name, raw := range c.Params {
		id, _ := synth.ParamByName(name)
		opts.Params[id] = uint8(raw)
	}
	return opts, nil
}
