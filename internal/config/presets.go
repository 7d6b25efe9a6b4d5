package config

const kobAndersenNVT = `SET T = 0.8
INIT_VELOCITY --temp=${T}
NVT --duration=20 --temp=${T} --output_method=100
RESET_STEP
NVT --duration=100 --temp=${T} --output_method=log --trajectory=true
SAVE >> final.xyz
`

const kobAndersenNVE = `SET T = 1.0
INIT_VELOCITY --temp=${T}
NVE --duration=50 --output_method=log --trajectory=true
SAVE_UNWRAPPED >> final.xyz
`

const ljQuench = `INIT_VELOCITY --temp=2.0
NVT --duration=10 --temp=2.0 --output_method=100
ANNEAL --cooling_rate=0.05 --initial_temp=2.0 --target_temp=0.4 --output_method=200
NVT --duration=20 --temp=0.4 --output_method=log
SAVE >> quenched.xyz
`

var Presets = map[string]map[string]*Config{
	"kob-andersen": {
		"nvt": {
			Units: "reduced", ForceField: "kob-andersen", Device: "auto", Dt: 0.005, Cutoff: 2.0, Margin: 0.3,
			TrajectoryPath: "./trajectory.xyz", OutputDir: "./runs", LogLevel: "info",
			Thermostat: ThermostatConfig{Type: "NoseHoover", Tau: 0.5, ChainLength: 3},
			Sampler:    SamplerConfig{PerDecade: 9, BurstSize: 5, Interval: 2},
			Structure:  StructureConfig{LatticeAtoms: 1000, Density: 1.2},
			Script:     kobAndersenNVT,
		},
		"nve": {
			Units: "reduced", ForceField: "kob-andersen", Device: "auto", Dt: 0.002, Cutoff: 2.0, Margin: 0.3,
			TrajectoryPath: "./trajectory.xyz", OutputDir: "./runs", LogLevel: "info",
			Thermostat: ThermostatConfig{Type: "Bussi", Tau: 1.0, ChainLength: 1},
			Sampler:    SamplerConfig{PerDecade: 10, BurstSize: 3, Interval: 5},
			Structure:  StructureConfig{LatticeAtoms: 512, Density: 1.2},
			Script:     kobAndersenNVE,
		},
	},
	"lj": {
		"quench": {
			Units: "reduced", ForceField: "lj", Device: "auto", Dt: 0.005, Cutoff: 2.5, Margin: 0.3,
			TrajectoryPath: "./trajectory.xyz", OutputDir: "./runs", LogLevel: "info",
			Thermostat: ThermostatConfig{Type: "Bussi", Tau: 0.5, ChainLength: 1},
			Sampler:    SamplerConfig{PerDecade: 9, BurstSize: 5, Interval: 2},
			Structure:  StructureConfig{LatticeAtoms: 864, Density: 0.85},
			Script:     ljQuench,
		},
	},
}

// GetPreset returns a copy of the named preset, or nil.
func GetPreset(system, preset string) *Config {
	systemPresets, ok := Presets[system]
	if !ok {
		return nil
	}
	cfg, ok := systemPresets[preset]
	if !ok {
		return nil
	}
	c := *cfg
	return &c
}

func ListPresets(system string) []string {
	systemPresets, ok := Presets[system]
	if !ok {
		return nil
	}
	names := make([]string, 0, len(systemPresets))
	for name := range systemPresets {
		names = append(names, name)
	}
	return names
}
