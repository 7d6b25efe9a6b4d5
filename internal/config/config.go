package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/pelletier/go-toml"
	"gopkg.in/yaml.v3"

	"github.com/eminamitani/MD-edamame/internal/units"
)

const (
	DefaultDt          = 0.005
	DefaultCutoff      = 2.0
	DefaultMargin      = 0.3
	DefaultTau         = 1.0
	DefaultChainLength = 1
	DefaultThermostat  = "Bussi"
	DefaultPerDecade   = 9
	DefaultBurstSize   = 5
	DefaultInterval    = 2
	DefaultAtoms       = 1000
	DefaultDensity     = 1.2
	DefaultTrajectory  = "./trajectory.xyz"
)

var ErrInvalid = errors.New("config: invalid value")

type Config struct {
	Units          string           `yaml:"units" toml:"units"`
	ForceField     string           `yaml:"force_field" toml:"force_field"`
	Device         string           `yaml:"device" toml:"device"`
	Dt             float64          `yaml:"dt" toml:"dt"`
	Cutoff         float64          `yaml:"cutoff" toml:"cutoff"`
	Margin         float64          `yaml:"margin" toml:"margin"`
	Seed           int64            `yaml:"seed" toml:"seed"`
	TrajectoryPath string           `yaml:"trajectory_path" toml:"trajectory_path"`
	OutputDir      string           `yaml:"output_dir" toml:"output_dir"`
	LogLevel       string           `yaml:"log_level" toml:"log_level"`
	Thermostat     ThermostatConfig `yaml:"thermostat" toml:"thermostat"`
	Sampler        SamplerConfig    `yaml:"sampler" toml:"sampler"`
	Structure      StructureConfig  `yaml:"structure" toml:"structure"`
	Script         string           `yaml:"script,omitempty" toml:"script,omitempty"`
}

type ThermostatConfig struct {
	Type        string  `yaml:"type" toml:"type"`
	Tau         float64 `yaml:"tau" toml:"tau"`
	ChainLength int     `yaml:"chain_length" toml:"chain_length"`
}

// SamplerConfig holds the parameters of the "log" output method.
type SamplerConfig struct {
	PerDecade int   `yaml:"per_decade" toml:"per_decade"`
	BurstSize int   `yaml:"burst_size" toml:"burst_size"`
	Interval  int64 `yaml:"burst_interval" toml:"burst_interval"`
}

// StructureConfig selects the starting configuration: a structure file when
// InitialPath is set, a simple-cubic Kob-Andersen lattice otherwise.
type StructureConfig struct {
	InitialPath  string  `yaml:"initial_path" toml:"initial_path"`
	LatticeAtoms int     `yaml:"lattice_atoms" toml:"lattice_atoms"`
	Density      float64 `yaml:"density" toml:"density"`
	Temperature  float64 `yaml:"initial_temp" toml:"initial_temp"`
}

func DefaultConfig() *Config {
	return &Config{
		Units:          units.Reduced.Name,
		ForceField:     "kob-andersen",
		Device:         "auto",
		Dt:             DefaultDt,
		Cutoff:         DefaultCutoff,
		Margin:         DefaultMargin,
		TrajectoryPath: DefaultTrajectory,
		OutputDir:      "./runs",
		LogLevel:       "info",
		Thermostat: ThermostatConfig{
			Type:        DefaultThermostat,
			Tau:         DefaultTau,
			ChainLength: DefaultChainLength,
		},
		Sampler: SamplerConfig{
			PerDecade: DefaultPerDecade,
			BurstSize: DefaultBurstSize,
			Interval:  DefaultInterval,
		},
		Structure: StructureConfig{
			LatticeAtoms: DefaultAtoms,
			Density:      DefaultDensity,
		},
	}
}

func isTOML(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".toml")
}

// Load reads a YAML or TOML file (by extension) over the defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if isTOML(path) {
		err = toml.Unmarshal(data, cfg)
	} else {
		err = yaml.Unmarshal(data, cfg)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	var (
		data []byte
		err  error
	)
	if isTOML(path) {
		data, err = toml.Marshal(*cfg)
	} else {
		data, err = yaml.Marshal(cfg)
	}
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

func (c *Config) Validate() error {
	if _, err := units.Lookup(c.Units); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	checks := []struct {
		ok   bool
		what string
	}{
		{c.Dt > 0, "dt must be positive"},
		{c.Cutoff > 0, "cutoff must be positive"},
		{c.Margin > 0, "margin must be positive"},
		{c.Thermostat.Tau > 0, "thermostat tau must be positive"},
		{c.Thermostat.ChainLength >= 1, "chain length must be >= 1"},
		{c.Thermostat.Type == "Bussi" || c.Thermostat.Type == "NoseHoover", "thermostat type must be Bussi or NoseHoover"},
		{c.Sampler.PerDecade >= 1, "sampler per_decade must be >= 1"},
		{c.Sampler.BurstSize >= 1, "sampler burst_size must be >= 1"},
		{c.Sampler.Interval >= 1, "sampler burst_interval must be >= 1"},
		{c.Structure.InitialPath != "" || c.Structure.LatticeAtoms > 0, "lattice_atoms must be positive without initial_path"},
		{c.Structure.InitialPath != "" || c.Structure.Density > 0, "density must be positive without initial_path"},
		{c.Structure.Temperature >= 0, "initial_temp must be non-negative"},
	}
	for _, ch := range checks {
		if !ch.ok {
			return fmt.Errorf("%w: %s", ErrInvalid, ch.what)
		}
	}
	return nil
}

// ApplyVariables overrides fields from job-script SET variables. Variables
// that name no setting are ignored.
func (c *Config) ApplyVariables(vars map[string]string) error {
	for key, val := range vars {
		var err error
		switch key {
		case "dt":
			c.Dt, err = strconv.ParseFloat(val, 64)
		case "cutoff":
			c.Cutoff, err = strconv.ParseFloat(val, 64)
		case "margin":
			c.Margin, err = strconv.ParseFloat(val, 64)
		case "tau":
			c.Thermostat.Tau, err = strconv.ParseFloat(val, 64)
		case "chain_length":
			c.Thermostat.ChainLength, err = strconv.Atoi(val)
		case "thermostat_type":
			c.Thermostat.Type = val
		case "per_decade":
			c.Sampler.PerDecade, err = strconv.Atoi(val)
		case "burst_size":
			c.Sampler.BurstSize, err = strconv.Atoi(val)
		case "burst_interval":
			c.Sampler.Interval, err = strconv.ParseInt(val, 10, 64)
		case "initial_path":
			c.Structure.InitialPath = val
		case "lattice_atoms":
			c.Structure.LatticeAtoms, err = strconv.Atoi(val)
		case "density":
			c.Structure.Density, err = strconv.ParseFloat(val, 64)
		case "initial_temp":
			c.Structure.Temperature, err = strconv.ParseFloat(val, 64)
		case "trajectory_path":
			c.TrajectoryPath = val
		case "output_dir":
			c.OutputDir = val
		case "units":
			c.Units = val
		case "force_field", "model_path":
			c.ForceField = val
		case "device":
			c.Device = val
		case "seed":
			c.Seed, err = strconv.ParseInt(val, 10, 64)
		case "log_level":
			c.LogLevel = val
		}
		if err != nil {
			return fmt.Errorf("%w: SET %s = %s", ErrInvalid, key, val)
		}
	}
	return nil
}
