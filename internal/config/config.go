// Package config defines the data structures related to configuration and
// includes functions for loading and parsing the config.
package config

import (
	"fmt"
	"io"
	"strings"

	"github.com/iwvelando/initiative-sim/pkg/constants"
	"github.com/spf13/viper"
)

// Configuration holds all configuration for initiative-sim.
type Configuration struct {
	Scenarios []Scenario    `yaml:"scenarios" mapstructure:"scenarios"`
	Logging   LoggingConfig `yaml:"logging,omitempty" mapstructure:"logging"`
	Output    OutputConfig  `yaml:"output,omitempty" mapstructure:"output"`
}

// LoggingConfig holds logging configuration options
type LoggingConfig struct {
	Level      string `yaml:"level,omitempty" mapstructure:"level"`           // debug, info, warn, error
	Format     string `yaml:"format,omitempty" mapstructure:"format"`         // json, console
	OutputFile string `yaml:"outputFile,omitempty" mapstructure:"outputFile"` // optional file output
}

// OutputConfig holds output format configuration options
type OutputConfig struct {
	Format string `yaml:"format,omitempty" mapstructure:"format"` // pretty, csv, json
}

// Scenario is one playable game: a catalog, a budget, a target and an
// optional scripted plan.
type Scenario struct {
	Name            string        `yaml:"name" mapstructure:"name"`
	Active          bool          `yaml:"active" mapstructure:"active"`
	Preset          string        `yaml:"preset,omitempty" mapstructure:"preset"`
	Years           int           `yaml:"years,omitempty" mapstructure:"years"`
	InitialBudget   float64       `yaml:"initialBudget,omitempty" mapstructure:"initialBudget"`
	MaxPerTurn      int           `yaml:"maxPerTurn,omitempty" mapstructure:"maxPerTurn"`
	SelectionPolicy string        `yaml:"selectionPolicy,omitempty" mapstructure:"selectionPolicy"`
	EffectTiming    string        `yaml:"effectTiming,omitempty" mapstructure:"effectTiming"`
	Seed            *int64        `yaml:"seed,omitempty" mapstructure:"seed"`
	RandomEvents    bool          `yaml:"randomEvents,omitempty" mapstructure:"randomEvents"`
	Events          []EventConfig `yaml:"events,omitempty" mapstructure:"events"`
	Initiatives     []Initiative  `yaml:"initiatives,omitempty" mapstructure:"initiatives"`
	Target          TargetConfig  `yaml:"target" mapstructure:"target"`
	Plan            []PlanStep    `yaml:"plan,omitempty" mapstructure:"plan"`
}

// Initiative is a catalog entry as written in a config file.
type Initiative struct {
	Name      string   `yaml:"name" mapstructure:"name"`
	Cost      float64  `yaml:"cost" mapstructure:"cost"`
	LeadYears int      `yaml:"leadYears,omitempty" mapstructure:"leadYears"`
	Effects   []Effect `yaml:"effects" mapstructure:"effects"`
}

// Effect is one metric delta of an initiative. Effects are a list rather than
// a map so metric names keep their case.
type Effect struct {
	Metric string  `yaml:"metric" mapstructure:"metric"`
	Amount float64 `yaml:"amount" mapstructure:"amount"`
}

// TargetConfig describes how a scenario is judged.
type TargetConfig struct {
	Metric            string         `yaml:"metric" mapstructure:"metric"`
	Baseline          float64        `yaml:"baseline,omitempty" mapstructure:"baseline"`
	Threshold         float64        `yaml:"threshold,omitempty" mapstructure:"threshold"`
	ThresholdFraction float64        `yaml:"thresholdFraction,omitempty" mapstructure:"thresholdFraction"`
	Mode              string         `yaml:"mode,omitempty" mapstructure:"mode"`
	BudgetFloor       float64        `yaml:"budgetFloor,omitempty" mapstructure:"budgetFloor"`
	MetricWeight      *float64       `yaml:"metricWeight,omitempty" mapstructure:"metricWeight"`
	BudgetWeight      *float64       `yaml:"budgetWeight,omitempty" mapstructure:"budgetWeight"`
	Flags             []FlagConfig   `yaml:"flags,omitempty" mapstructure:"flags"`
	Buckets           []BucketConfig `yaml:"buckets,omitempty" mapstructure:"buckets"`
}

// FlagConfig rewards choosing a particular initiative at least once.
type FlagConfig struct {
	Initiative string   `yaml:"initiative" mapstructure:"initiative"`
	Bonus      *float64 `yaml:"bonus,omitempty" mapstructure:"bonus"`
	Baseline   *float64 `yaml:"baseline,omitempty" mapstructure:"baseline"`
}

// BucketConfig maps a minimum score to a verdict.
type BucketConfig struct {
	MinScore float64 `yaml:"minScore" mapstructure:"minScore"`
	Verdict  string  `yaml:"verdict" mapstructure:"verdict"`
}

// EventConfig is one entry of a custom random-event table.
type EventConfig struct {
	Name         string   `yaml:"name" mapstructure:"name"`
	Description  string   `yaml:"description,omitempty" mapstructure:"description"`
	Weight       *float64 `yaml:"weight,omitempty" mapstructure:"weight"`
	CostFactor   *float64 `yaml:"costFactor,omitempty" mapstructure:"costFactor"`
	EffectFactor *float64 `yaml:"effectFactor,omitempty" mapstructure:"effectFactor"`
}

// PlanStep is the scripted selection for one year.
type PlanStep struct {
	Year   int      `yaml:"year" mapstructure:"year"`
	Select []string `yaml:"select" mapstructure:"select"`
}

// LoadConfiguration takes a file path as input and loads the YAML-formatted
// configuration there.
func LoadConfiguration(configPath string) (*Configuration, error) {
	v := newViper()
	v.SetConfigFile(configPath)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("error reading config file, %s", err)
	}

	return decode(v)
}

// LoadConfigurationFromReader parses a YAML configuration from r.
func LoadConfigurationFromReader(r io.Reader) (*Configuration, error) {
	v := newViper()
	if err := v.ReadConfig(r); err != nil {
		return nil, fmt.Errorf("error reading config data, %s", err)
	}

	return decode(v)
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix("SIM")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

func decode(v *viper.Viper) (*Configuration, error) {
	var configuration Configuration
	if err := v.Unmarshal(&configuration); err != nil {
		return nil, fmt.Errorf("unable to decode into struct, %s", err)
	}

	if err := configuration.ApplyPresets(); err != nil {
		return nil, err
	}
	configuration.ApplyDefaults()

	return &configuration, nil
}

// ApplyDefaults fills unset scenario fields with the stock values.
func (c *Configuration) ApplyDefaults() {
	for i := range c.Scenarios {
		c.Scenarios[i].applyDefaults()
	}
}

func (s *Scenario) applyDefaults() {
	if s.Years == 0 {
		s.Years = constants.DefaultYears
	}
	if s.MaxPerTurn == 0 {
		s.MaxPerTurn = constants.DefaultMaxPerTurn
	}
	s.SelectionPolicy = strings.ToLower(strings.TrimSpace(s.SelectionPolicy))
	if s.SelectionPolicy == "" {
		s.SelectionPolicy = constants.SelectionPolicySet
	}
	s.EffectTiming = strings.ToLower(strings.TrimSpace(s.EffectTiming))
	if s.EffectTiming == "" {
		s.EffectTiming = constants.EffectTimingImmediate
	}
	for i := range s.Initiatives {
		if s.Initiatives[i].LeadYears == 0 {
			s.Initiatives[i].LeadYears = 1
		}
	}
	if s.Target.Baseline == 0 {
		s.Target.Baseline = constants.DefaultBaseline
	}
}

// ActiveScenarios returns the scenarios flagged active, in file order.
func (c *Configuration) ActiveScenarios() []Scenario {
	var active []Scenario
	for _, scenario := range c.Scenarios {
		if scenario.Active {
			active = append(active, scenario)
		}
	}
	return active
}

// FindScenario returns the scenario named name, case-insensitively.
func (c *Configuration) FindScenario(name string) (*Scenario, bool) {
	for i := range c.Scenarios {
		if strings.EqualFold(c.Scenarios[i].Name, name) {
			return &c.Scenarios[i], true
		}
	}
	return nil, false
}
