// Package config loads the mkpbt run configuration described in spec.md
// §6.3, generalizing the teacher's viper+yaml two-pass decode
// (reinforcement.FromYaml) to the heterogeneous inits/scales/selection
// shapes this config needs, and to either YAML or JSON source documents.
package config

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Config is the run configuration of spec.md §6.3.
type Config struct {
	// TimeLimit is the run length in minutes.
	TimeLimit float64 `yaml:"time_limit" json:"time_limit"`
	// NWorkers is the population size N.
	NWorkers int `yaml:"n_workers" json:"n_workers"`
	// Baseline, when true, runs independent SA with no coordinator.
	Baseline bool `yaml:"baseline" json:"baseline"`
	// Filename is the instance path.
	Filename string `yaml:"filename" json:"filename"`
	// Inits maps hyperparameter name to its initializing distribution.
	Inits map[string]Distribution `yaml:"inits" json:"inits"`
	// Scales maps hyperparameter name to its explore jitter scale.
	Scales map[string]float64 `yaml:"scales" json:"scales"`
	// Selection configures the coordinator's policy.
	Selection Selection `yaml:"selection" json:"selection"`
	// Horizon is the per-worker value-history length H.
	Horizon int `yaml:"horizon" json:"horizon"`
}

// Selection configures the coordinator's selection policy, spec.md §6.3.
type Selection struct {
	// Subr names the policy: "welch", "velo", or "trunc".
	Subr string `yaml:"subr" json:"subr"`
	// P is the test's significance level (welch/velo) or unused (trunc).
	P float64 `yaml:"p" json:"p"`
	// Trunc is the truncation fraction for the trunc policy.
	Trunc float64 `yaml:"trunc" json:"trunc"`
	// Inactiv is the inactivity-rescue threshold for welch/velo.
	Inactiv int `yaml:"inactiv" json:"inactiv"`
	// NProtected is the protected-age threshold, n_protected.
	NProtected int `yaml:"n_protected" json:"n_protected"`
}

const (
	SubrWelch = "welch"
	SubrVelo  = "velo"
	SubrTrunc = "trunc"
)

// HyperparamNames are the three tunable SA hyperparameters, used to key
// both Inits and Scales.
var HyperparamNames = []string{"temperature", "cooling rate", "p mutations"}

// Default returns the reference defaults, matching the Python original's
// main.default_cfg() (spec.md §4 supplement).
func Default() *Config {
	return &Config{
		TimeLimit: 10,
		NWorkers:  50,
		Baseline:  false,
		Filename:  "./data/sac94/weing/weing8.dat",
		Inits: map[string]Distribution{
			"temperature":  {Kind: DistUnilog, A: 3, B: 6},
			"cooling rate": {Kind: DistUnilog, A: -4, B: -2},
			"p mutations":  {Kind: DistExpit, A: 0.01, B: 0.99},
		},
		Scales: map[string]float64{
			"temperature":  0.05,
			"cooling rate": 0.05,
			"p mutations":  0.05,
		},
		Selection: Selection{
			Subr:       SubrVelo,
			P:          0.01,
			Trunc:      0.05,
			Inactiv:    50,
			NProtected: 50,
		},
		Horizon: 50,
	}
}

// Load reads a config document from path. Format (YAML or JSON) is chosen
// by file extension; spec.md §6.3 only specifies "a key-value document",
// not a serialization, so both are supported the same way the teacher's
// FromYaml round-trips through viper into a typed struct.
func Load(path string) (*Config, error) {
	vp := viper.New()
	vp.SetConfigFile(path)
	vp.SetConfigType(configType(path))
	vp.AddConfigPath(filepath.Dir(path))
	if err := vp.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	// Round-trip through yaml.v3 so the heterogeneous Distribution tuples
	// (which mapstructure cannot decode directly) go through
	// Distribution.UnmarshalYAML instead.
	raw, err := yaml.Marshal(vp.AllSettings())
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	cfg := &Config{}
	if err := yaml.Unmarshal(raw, cfg); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func configType(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return "json"
	default:
		return "yaml"
	}
}

// Validate performs the configuration-error checks of spec.md §7: unknown
// distribution tag, unknown selection policy, negative scales. These are
// fatal at startup, before anything is spawned.
func (c *Config) Validate() error {
	if c.NWorkers <= 0 {
		return fmt.Errorf("config: n_workers must be positive, got %d", c.NWorkers)
	}
	if c.Horizon <= 0 {
		return fmt.Errorf("config: horizon must be positive, got %d", c.Horizon)
	}
	for _, name := range HyperparamNames {
		dist, ok := c.Inits[name]
		if !ok {
			return fmt.Errorf("config: missing inits entry for %q", name)
		}
		if err := dist.Validate(); err != nil {
			return err
		}
		scale, ok := c.Scales[name]
		if !ok {
			return fmt.Errorf("config: missing scales entry for %q", name)
		}
		if scale < 0 {
			return fmt.Errorf("config: scales[%q] = %v must not be negative", name, scale)
		}
	}
	switch c.Selection.Subr {
	case SubrWelch, SubrVelo, SubrTrunc:
	default:
		return fmt.Errorf("config: unknown selection.subr %q", c.Selection.Subr)
	}
	if c.Selection.P <= 0 || c.Selection.P >= 1 {
		return fmt.Errorf("config: selection.p = %v must be in (0,1)", c.Selection.P)
	}
	if c.Selection.Trunc <= 0 || c.Selection.Trunc > 1 {
		return fmt.Errorf("config: selection.trunc = %v must be in (0,1]", c.Selection.Trunc)
	}
	if c.Selection.Inactiv < 0 {
		return fmt.Errorf("config: selection.inactiv must not be negative")
	}
	if c.Selection.NProtected < 0 {
		return fmt.Errorf("config: selection.n_protected must not be negative")
	}
	return nil
}
