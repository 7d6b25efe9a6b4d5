package main

import (
	"encoding/json"
	"fmt"
	"maps"
	"os"
	"slices"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/eminamitani/MD-edamame/internal/config"
	"github.com/eminamitani/MD-edamame/internal/experiment"
	"github.com/eminamitani/MD-edamame/internal/sampler"
	"github.com/eminamitani/MD-edamame/internal/storage"
	"github.com/eminamitani/MD-edamame/internal/store"
)

var (
	dataDir string
	// run
	configFile  string
	preset      string
	runName     string
	seed        int64
	dt          float64
	device      string
	logLevel    string
	live        bool
	metricsAddr string
	progress    int64
	// plot / analyze
	plotColumn    string
	analyzeColumn string
	segmentNo     int
	xColumn       string
	yColumn       string
	jsonOut       string
	// msd
	species string
	frameDt float64
	maxLag  int
	// tsafe
	perDecade int
	burstSize int
	interval  int64
	maxStep   int64
	// generate
	genAtoms   int
	genDensity float64
	genFF      string
	genSeed    int64
	genOut     string
)

func main() {
	rootCmd := &cobra.Command{
		Use:           "edamame",
		Short:         "molecular dynamics with log-spaced sampling",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVar(&dataDir, "data", "", "run storage directory (default: output_dir from config)")

	runCmd := &cobra.Command{
		Use:   "run [script]",
		Short: "execute a job script",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runScript,
	}
	runCmd.Flags().StringVar(&configFile, "config", "", "config file path (yaml or toml)")
	runCmd.Flags().StringVar(&preset, "preset", "", "preset as system/name, e.g. kob-andersen/nvt")
	runCmd.Flags().StringVar(&runName, "name", "", "run name recorded in metadata")
	runCmd.Flags().Int64Var(&seed, "seed", 0, "random seed")
	runCmd.Flags().Float64Var(&dt, "dt", 0, "timestep")
	runCmd.Flags().StringVar(&device, "device", "", "compute device (auto, cpu, cuda)")
	runCmd.Flags().StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error)")
	runCmd.Flags().BoolVar(&live, "live", false, "show a live monitor")
	runCmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address")
	runCmd.Flags().Int64Var(&progress, "progress", 0, "log state every n steps at debug level (0 disables)")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list runs",
		RunE:  listRuns,
	}

	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot thermo columns of a run",
		Args:  cobra.ExactArgs(1),
		RunE:  plotRun,
	}
	plotCmd.Flags().StringVar(&plotColumn, "column", "", "single column to plot (default: temperature, potential, total)")
	plotCmd.Flags().IntVar(&segmentNo, "segment", -1, "restrict to one segment")

	phaseCmd := &cobra.Command{
		Use:   "phase [run_id]",
		Short: "scatter one thermo column against another",
		Args:  cobra.ExactArgs(1),
		RunE:  phasePlot,
	}
	phaseCmd.Flags().StringVar(&xColumn, "x", "temperature", "x-axis column")
	phaseCmd.Flags().StringVar(&yColumn, "y", "potential", "y-axis column")
	phaseCmd.Flags().IntVar(&segmentNo, "segment", -1, "restrict to one segment")

	analyzeCmd := &cobra.Command{
		Use:   "analyze [run_id]",
		Short: "power spectrum of a strided thermo column",
		Args:  cobra.ExactArgs(1),
		RunE:  analyzeRun,
	}
	analyzeCmd.Flags().StringVar(&analyzeColumn, "column", "temperature", "column to analyze")
	analyzeCmd.Flags().IntVar(&segmentNo, "segment", -1, "restrict to one segment")

	msdCmd := &cobra.Command{
		Use:   "msd [trajectory]",
		Short: "mean squared displacement and diffusion coefficient",
		Args:  cobra.ExactArgs(1),
		RunE:  msdTrajectory,
	}
	msdCmd.Flags().StringVar(&species, "species", "", "restrict to one species")
	msdCmd.Flags().Float64Var(&frameDt, "windowed", 0, "average over time origins; value is the time between frames")
	msdCmd.Flags().IntVar(&maxLag, "max-lag", 0, "largest lag in frames for --windowed")

	exportCmd := &cobra.Command{
		Use:   "export [run_id]",
		Short: "export run metadata",
		Args:  cobra.ExactArgs(1),
		RunE:  exportRun,
	}

	exportJSONCmd := &cobra.Command{
		Use:   "export-json [run_id]",
		Short: "export run data to JSON",
		Args:  cobra.ExactArgs(1),
		RunE:  exportJSON,
	}
	exportJSONCmd.Flags().StringVarP(&jsonOut, "output", "o", "", "output file (default: stdout)")

	presetsCmd := &cobra.Command{
		Use:   "presets",
		Short: "list presets and registered components",
		RunE:  listPresets,
	}

	tsafeCmd := &cobra.Command{
		Use:   "tsafe",
		Short: "compute the dense-prefix length of the log sampler",
		RunE:  computeTSafe,
	}
	tsafeCmd.Flags().IntVar(&perDecade, "per-decade", 9, "anchors per decade")
	tsafeCmd.Flags().IntVar(&burstSize, "burst", 5, "samples per burst")
	tsafeCmd.Flags().Int64Var(&interval, "interval", 2, "steps between burst samples")
	tsafeCmd.Flags().Int64Var(&maxStep, "max-step", 100000, "segment length in steps")

	generateCmd := &cobra.Command{
		Use:   "generate",
		Short: "write a simple-cubic starting structure",
		RunE:  generateStructure,
	}
	generateCmd.Flags().IntVar(&genAtoms, "atoms", 1000, "number of atoms")
	generateCmd.Flags().Float64Var(&genDensity, "density", 1.2, "number density")
	generateCmd.Flags().StringVar(&genFF, "ff", "kob-andersen", "force field whose species mix to use")
	generateCmd.Flags().Int64Var(&genSeed, "seed", 1, "random seed")
	generateCmd.Flags().StringVarP(&genOut, "output", "o", "initial.xyz", "output file")

	initConfigCmd := &cobra.Command{
		Use:   "init-config [path]",
		Short: "write the default config",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.DefaultConfig()
			if preset != "" {
				if cfg = lookupPreset(preset); cfg == nil {
					return fmt.Errorf("unknown preset: %s", preset)
				}
			}
			if err := config.Save(args[0], cfg); err != nil {
				return err
			}
			fmt.Printf("wrote %s\n", args[0])
			return nil
		},
	}
	initConfigCmd.Flags().StringVar(&preset, "preset", "", "start from a preset")

	rootCmd.AddCommand(runCmd, listCmd, plotCmd, phaseCmd, analyzeCmd, msdCmd, exportCmd, exportJSONCmd, presetsCmd, tsafeCmd, generateCmd, initConfigCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func openStore() *storage.Store {
	dir := dataDir
	if dir == "" {
		dir = config.DefaultConfig().OutputDir
	}
	return storage.New(dir)
}

func listRuns(cmd *cobra.Command, args []string) error {
	st := openStore()
	runs, err := st.List()
	if err != nil {
		return err
	}

	if len(runs) == 0 {
		fmt.Println("no runs found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tTIME\tATOMS\tSTEPS\tDT\tFF\tTHERMOSTAT")

	for _, run := range runs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%d\t%g\t%s\t%s\n",
			run.ID,
			run.Name,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			run.Atoms,
			run.Steps,
			run.Dt,
			run.ForceField,
			run.Thermostat,
		)
	}

	return w.Flush()
}

func exportRun(cmd *cobra.Command, args []string) error {
	meta, err := openStore().Load(args[0])
	if err != nil {
		return err
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(meta)
}

func exportJSON(cmd *cobra.Command, args []string) error {
	st := openStore()
	meta, err := st.Load(args[0])
	if err != nil {
		return err
	}
	records, err := st.LoadThermo(args[0])
	if err != nil {
		return err
	}
	if jsonOut == "" {
		return store.ExportJSONStdout(meta, records)
	}
	return store.ExportJSON(jsonOut, meta, records)
}

func listPresets(cmd *cobra.Command, args []string) error {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "PRESET\tFF\tTHERMOSTAT\tATOMS\tDT")
	for _, system := range slices.Sorted(maps.Keys(config.Presets)) {
		names := config.ListPresets(system)
		slices.Sort(names)
		for _, name := range names {
			cfg := config.GetPreset(system, name)
			fmt.Fprintf(w, "%s/%s\t%s\t%s\t%d\t%g\n",
				system, name, cfg.ForceField, cfg.Thermostat.Type, cfg.Structure.LatticeAtoms, cfg.Dt)
		}
	}
	if err := w.Flush(); err != nil {
		return err
	}

	reg := experiment.NewRegistry()
	fmt.Printf("\nforce fields: %v\n", reg.ListForceFields())
	fmt.Printf("thermostats:  %v\n", reg.ListThermostats())
	return nil
}

func computeTSafe(cmd *cobra.Command, args []string) error {
	p := sampler.Params{PerDecade: perDecade, BurstSize: burstSize, Interval: interval, MaxStep: maxStep}
	t, err := sampler.FindTSafe(p)
	if err != nil {
		return err
	}

	fmt.Printf("ratio:   %.6f\n", p.Ratio())
	fmt.Printf("window:  %d steps\n", p.Window())
	fmt.Printf("t_safe:  %d\n", t)

	fmt.Print("anchors:")
	a := t
	for i := 0; i < 10 && a <= maxStep; i++ {
		fmt.Printf(" %d", a)
		next, ok := sampler.NextAnchor(a, p.Ratio())
		if !ok {
			break
		}
		a = next
	}
	fmt.Println()
	return nil
}
