package main

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"math/rand/v2"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"slices"
	"strings"
	"syscall"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/eminamitani/MD-edamame/internal/atoms"
	"github.com/eminamitani/MD-edamame/internal/config"
	"github.com/eminamitani/MD-edamame/internal/experiment"
	"github.com/eminamitani/MD-edamame/internal/jobscript"
	"github.com/eminamitani/MD-edamame/internal/logging"
	"github.com/eminamitani/MD-edamame/internal/metrics"
	"github.com/eminamitani/MD-edamame/internal/storage"
	"github.com/eminamitani/MD-edamame/internal/trajectory"
	"github.com/eminamitani/MD-edamame/internal/tui"
	"github.com/eminamitani/MD-edamame/internal/units"
)

// lookupPreset resolves "system/name".
func lookupPreset(name string) *config.Config {
	system, p, ok := strings.Cut(name, "/")
	if !ok {
		return nil
	}
	return config.GetPreset(system, p)
}

func loadConfig() (*config.Config, error) {
	cfg := config.DefaultConfig()
	if preset != "" {
		if cfg = lookupPreset(preset); cfg == nil {
			return nil, fmt.Errorf("unknown preset: %s (see `edamame presets`)", preset)
		}
	}
	// A config file overrides the preset.
	if configFile != "" {
		var err error
		if cfg, err = config.Load(configFile); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}

func loadScript(cfg *config.Config, args []string) (*jobscript.Script, string, error) {
	if len(args) == 1 {
		script, err := jobscript.ParseFile(args[0])
		return script, strings.TrimSuffix(filepath.Base(args[0]), filepath.Ext(args[0])), err
	}
	if cfg.Script != "" {
		script, err := jobscript.Parse(strings.NewReader(cfg.Script))
		return script, preset, err
	}
	return nil, "", errors.New("no job script: pass a script path or a preset")
}

func runScript(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	script, name, err := loadScript(cfg, args)
	if err != nil {
		return err
	}
	if err := cfg.ApplyVariables(script.Variables); err != nil {
		return err
	}

	// Flags override config unless left at their defaults.
	flags := cmd.Flags()
	if flags.Changed("seed") {
		cfg.Seed = seed
	}
	if flags.Changed("dt") {
		cfg.Dt = dt
	}
	if flags.Changed("device") {
		cfg.Device = device
	}
	if flags.Changed("log-level") {
		cfg.LogLevel = logLevel
	}
	if dataDir != "" {
		cfg.OutputDir = dataDir
	}
	if runName != "" {
		name = runName
	}

	level, err := logging.ParseLevel(cfg.LogLevel)
	if err != nil {
		return err
	}
	st := storage.New(cfg.OutputDir)
	if err := st.Init(); err != nil {
		return fmt.Errorf("failed to init storage: %w", err)
	}

	logger := logging.New(os.Stderr, level)
	if live {
		// The monitor owns the terminal; logs go to a file.
		f, err := os.OpenFile(filepath.Join(cfg.OutputDir, "edamame.log"), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return err
		}
		defer f.Close()
		logger = logging.Plain(f, level)
	}

	collector := metrics.NewCollector()
	if metricsAddr != "" {
		srv := &http.Server{Addr: metricsAddr, Handler: collector.Handler()}
		go func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("metrics server stopped", "addr", metricsAddr, "err", err)
			}
		}()
		defer srv.Shutdown(context.Background())
		logger.Info("serving metrics", "addr", metricsAddr)
	}

	opts := []experiment.Option{
		experiment.WithLogger(logger),
		experiment.WithCollector(collector),
		experiment.WithStore(st, name),
		experiment.WithProgress(progress),
	}
	var records chan storage.ThermoRecord
	if live {
		records = make(chan storage.ThermoRecord, 256)
		opts = append(opts, experiment.WithLive(records))
	}

	exp, err := experiment.New(cfg, opts...)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if live {
		err = runLive(ctx, exp, script, name, records)
	} else {
		err = exp.Run(ctx, script)
	}
	if errors.Is(err, context.Canceled) {
		logger.Warn("run interrupted", "id", exp.RunID(), "step", exp.Integrator().StepCount())
		err = nil
	}
	if err != nil {
		return err
	}

	printSummary(exp)
	return nil
}

func runLive(ctx context.Context, exp *experiment.Experiment, script *jobscript.Script, name string, records chan storage.ThermoRecord) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	errc := make(chan error, 1)
	go func() {
		errc <- exp.Run(ctx, script)
		close(records)
	}()

	title := "edamame"
	if name != "" {
		title += " · " + name
	}
	if err := tui.Run(tui.NewMonitor(title, records)); err != nil {
		cancel()
		<-errc
		return err
	}
	cancel()
	return <-errc
}

func printSummary(exp *experiment.Experiment) {
	fmt.Printf("run:   %s\n", exp.RunID())
	fmt.Printf("steps: %d\n\n", exp.Integrator().StepCount())

	values := exp.Metrics().Values()
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "METRIC\tVALUE")
	for _, k := range slices.Sorted(maps.Keys(values)) {
		fmt.Fprintf(w, "%s\t%.6g\n", k, values[k])
	}
	w.Flush()
}

func generateStructure(cmd *cobra.Command, args []string) error {
	rng := rand.New(rand.NewPCG(uint64(genSeed), uint64(genSeed)^0x9e3779b97f4a7c15))
	mix := experiment.NewRegistry().Mix(genFF)

	sys, err := atoms.SimpleCubic(genAtoms, genDensity, mix, units.Reduced, rng)
	if err != nil {
		return err
	}
	if err := trajectory.WriteFile(genOut, trajectory.FromSystem(sys, nil, false)); err != nil {
		return err
	}
	fmt.Printf("wrote %s: %d atoms, box %.6g\n", genOut, sys.Len(), sys.Box())
	return nil
}
