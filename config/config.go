// Package config loads run configuration from YAML via the double-marshal
// viper pattern: an outer envelope is unmarshalled loosely, then its def
// section is re-marshalled and decoded into the strongly-typed Config.
package config

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"pinocchio/reinforcement"
)

// outerConfig is the loosely-typed envelope every config file wraps its
// actual definition in, keyed by a run kind and its parameter block.
type outerConfig struct {
	Kind string      `mapstructure:"kind"`
	Def  interface{} `mapstructure:"def"`
}

// Config holds every run-time tunable: the Q-learner's hyperparameters
// and selection strategy, and the environment driver's episode shape.
type Config struct {
	Alpha               float64  `yaml:"alpha"`
	Gamma               float64  `yaml:"gamma"`
	Epsilon             float64  `yaml:"epsilon"`
	EpsilonMin          float64  `yaml:"epsilonMin"`
	DecayMethod         string   `yaml:"decayMethod"`
	Selection           string   `yaml:"selection"`
	Tolerance           float64  `yaml:"tolerance"`
	ToleranceIsAbsolute bool     `yaml:"toleranceIsAbsolute"`
	Threshold           float64  `yaml:"threshold"`
	Preferences         []string `yaml:"preferences"`
	NonOrdered          []string `yaml:"nonOrdered"`
	Actions             []string `yaml:"actions"`

	Steps         int     `yaml:"steps"`
	Timeout       int     `yaml:"timeout"`
	Stochasticity float64 `yaml:"stochasticity"`
	Window        int     `yaml:"window"`

	// RunDeadline is a duration string ("10m"), bounding the whole run
	// independent of Steps.
	RunDeadline string `yaml:"runDeadline"`
}

// FromYAML reads path (kind/def envelope), then decodes def into a
// Config.
func FromYAML(path string) (*Config, error) {
	vp := viper.New()
	vp.SetConfigFile(filepath.Base(path))
	vp.SetConfigType("yaml")
	vp.AddConfigPath(filepath.Dir(path))
	if err := vp.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("config: reading %q: %w", path, err)
	}

	outer := &outerConfig{}
	if err := vp.Unmarshal(outer); err != nil {
		return nil, fmt.Errorf("config: decoding envelope of %q: %w", path, err)
	}

	spec, err := yaml.Marshal(outer.Def)
	if err != nil {
		return nil, fmt.Errorf("config: re-marshaling def section of %q: %w", path, err)
	}

	cfg := &Config{}
	if err := yaml.Unmarshal(spec, cfg); err != nil {
		return nil, fmt.Errorf("config: decoding def section of %q: %w", path, err)
	}
	return cfg, nil
}

// WithRunDeadline returns a context bounded by RunDeadline, if set;
// otherwise a plain cancelable context.
func (c *Config) WithRunDeadline(ctx context.Context) (context.Context, context.CancelFunc, error) {
	if c.RunDeadline == "" {
		inner, cancel := context.WithCancel(ctx)
		return inner, cancel, nil
	}
	d, err := time.ParseDuration(c.RunDeadline)
	if err != nil {
		return nil, nil, fmt.Errorf("config: parsing runDeadline %q: %w", c.RunDeadline, err)
	}
	inner, cancel := context.WithTimeout(ctx, d)
	return inner, cancel, nil
}

// Decay maps the config's string decay method onto the reinforcement
// package's Decay type, defaulting to linear.
func (c *Config) Decay() reinforcement.Decay {
	if c.DecayMethod == string(reinforcement.ExponentialDecay) {
		return reinforcement.ExponentialDecay
	}
	return reinforcement.LinearDecay
}

// SelectionStrategy maps the config's string selection method onto the
// reinforcement package's Selection type, defaulting to strict lex.
func (c *Config) SelectionStrategy() reinforcement.Selection {
	switch reinforcement.Selection(c.Selection) {
	case reinforcement.DeltaLex, reinforcement.ThresholdLex:
		return reinforcement.Selection(c.Selection)
	default:
		return reinforcement.Lex
	}
}

// ApplyHyperparameters applies only c's numeric tunables and selection
// strategy to an already-configured QAgent: Alpha/Gamma/Epsilon/
// EpsilonMin/DecayMethod/Selection/Tolerance/Threshold, plus InitDecay
// when Steps is set. It does not touch Actions or declare Q-functions,
// so it is safe to call on a QAgent an agent recipe (e.g.
// agent.LoadNormativeAgent) already built, where those are spoken for.
func (c *Config) ApplyHyperparameters(q *reinforcement.QAgent) {
	if c.Alpha > 0 {
		q.Alpha = c.Alpha
	}
	if c.Gamma > 0 {
		q.Gamma = c.Gamma
	}
	if c.Epsilon > 0 {
		q.Epsilon = c.Epsilon
	}
	if c.EpsilonMin > 0 {
		q.EpsilonMin = c.EpsilonMin
	}
	q.DecayMethod = c.Decay()
	q.Selection = c.SelectionStrategy()
	if c.Tolerance > 0 {
		q.Tolerance = c.Tolerance
	}
	q.ToleranceIsAbsolute = c.ToleranceIsAbsolute
	q.Threshold = c.Threshold
	if c.Steps > 0 {
		q.InitDecay(c.Steps)
	}
}

// Apply configures a fresh QAgent end to end from c: its fixed action
// universe, its hyperparameters and selection strategy (via
// ApplyHyperparameters), and its declared Preferences/NonOrdered
// Q-functions in order.
func (c *Config) Apply(q *reinforcement.QAgent) error {
	q.SetActions(c.Actions)
	c.ApplyHyperparameters(q)

	for _, signal := range c.Preferences {
		if err := q.AddQFunction(signal, true); err != nil {
			return err
		}
	}
	for _, signal := range c.NonOrdered {
		if err := q.AddQFunction(signal, false); err != nil {
			return err
		}
	}
	return nil
}
