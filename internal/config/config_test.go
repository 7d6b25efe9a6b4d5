package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.ForceField != "kob-andersen" {
		t.Errorf("expected force field kob-andersen, got %s", cfg.ForceField)
	}
	if cfg.Dt <= 0 {
		t.Error("dt should be positive")
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should validate: %v", err)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *Config)
	}{
		{"dt", func(c *Config) { c.Dt = 0 }},
		{"cutoff", func(c *Config) { c.Cutoff = -1 }},
		{"margin", func(c *Config) { c.Margin = 0 }},
		{"tau", func(c *Config) { c.Thermostat.Tau = 0 }},
		{"chain", func(c *Config) { c.Thermostat.ChainLength = 0 }},
		{"thermostat", func(c *Config) { c.Thermostat.Type = "Berendsen" }},
		{"sampler", func(c *Config) { c.Sampler.BurstSize = 0 }},
		{"units", func(c *Config) { c.Units = "imperial" }},
		{"lattice", func(c *Config) { c.Structure.LatticeAtoms = 0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			if err := cfg.Validate(); !errors.Is(err, ErrInvalid) {
				t.Errorf("expected ErrInvalid, got %v", err)
			}
		})
	}
}

func TestApplyVariables(t *testing.T) {
	cfg := DefaultConfig()
	err := cfg.ApplyVariables(map[string]string{
		"dt":              "0.5",
		"cutoff":          "5.0",
		"thermostat_type": "NoseHoover",
		"chain_length":    "3",
		"initial_path":    "start.xyz",
		"units":           "metal",
		"T":               "300",
	})
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Dt != 0.5 || cfg.Cutoff != 5.0 {
		t.Errorf("numeric variables not applied: dt=%f cutoff=%f", cfg.Dt, cfg.Cutoff)
	}
	if cfg.Thermostat.Type != "NoseHoover" || cfg.Thermostat.ChainLength != 3 {
		t.Errorf("thermostat variables not applied: %+v", cfg.Thermostat)
	}
	if cfg.Structure.InitialPath != "start.xyz" || cfg.Units != "metal" {
		t.Errorf("string variables not applied")
	}

	if err := cfg.ApplyVariables(map[string]string{"dt": "fast"}); !errors.Is(err, ErrInvalid) {
		t.Errorf("expected ErrInvalid, got %v", err)
	}
}

func TestLoadSaveRoundTrip(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"run.yaml", "run.toml"} {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(dir, name)
			cfg := GetPreset("kob-andersen", "nvt")
			cfg.Seed = 42
			if err := Save(path, cfg); err != nil {
				t.Fatal(err)
			}
			got, err := Load(path)
			if err != nil {
				t.Fatal(err)
			}
			if got.Seed != 42 || got.Thermostat.ChainLength != 3 || got.Dt != 0.005 {
				t.Errorf("round trip lost values: %+v", got)
			}
			if got.Script != cfg.Script {
				t.Errorf("script not preserved")
			}
		})
	}
}

func TestLoadPartialTOML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "partial.toml")
	data := "dt = 0.001\n\n[thermostat]\ntype = \"NoseHoover\"\n"
	if err := os.WriteFile(path, []byte(data), 0644); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Dt != 0.001 || cfg.Thermostat.Type != "NoseHoover" {
		t.Errorf("values not loaded: %+v", cfg)
	}
	if cfg.Cutoff != DefaultCutoff {
		t.Errorf("expected default cutoff to survive, got %f", cfg.Cutoff)
	}
}

func TestGetPreset(t *testing.T) {
	cfg := GetPreset("kob-andersen", "nvt")
	if cfg == nil {
		t.Fatal("expected preset, got nil")
	}
	if cfg.Thermostat.Type != "NoseHoover" {
		t.Errorf("expected NoseHoover, got %s", cfg.Thermostat.Type)
	}
	cfg.Dt = 1
	if Presets["kob-andersen"]["nvt"].Dt == 1 {
		t.Error("GetPreset should return a copy")
	}
}

func TestGetPreset_NotFound(t *testing.T) {
	if GetPreset("kob-andersen", "nonexistent") != nil {
		t.Error("expected nil for nonexistent preset")
	}
	if GetPreset("nonexistent", "nvt") != nil {
		t.Error("expected nil for nonexistent system")
	}
}

func TestListPresets(t *testing.T) {
	if len(ListPresets("kob-andersen")) != 2 {
		t.Error("expected two kob-andersen presets")
	}
	if ListPresets("nonexistent") != nil {
		t.Error("expected nil for nonexistent system")
	}
	for system := range Presets {
		for _, name := range ListPresets(system) {
			if err := GetPreset(system, name).Validate(); err != nil {
				t.Errorf("preset %s/%s invalid: %v", system, name, err)
			}
		}
	}
}
