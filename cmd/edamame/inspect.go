package main

import (
	"errors"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/guptarohit/asciigraph"
	"github.com/spf13/cobra"

	"github.com/eminamitani/MD-edamame/internal/analysis"
	"github.com/eminamitani/MD-edamame/internal/sampler"
	"github.com/eminamitani/MD-edamame/internal/storage"
	"github.com/eminamitani/MD-edamame/internal/trajectory"
)

func loadRecords(runID string) (*storage.RunMetadata, []storage.ThermoRecord, error) {
	st := openStore()
	meta, err := st.Load(runID)
	if err != nil {
		return nil, nil, err
	}
	records, err := st.LoadThermo(runID)
	if err != nil {
		return nil, nil, err
	}
	if segmentNo >= 0 {
		kept := records[:0]
		for _, r := range records {
			if r.Segment == segmentNo {
				kept = append(kept, r)
			}
		}
		records = kept
	}
	if len(records) == 0 {
		return nil, nil, fmt.Errorf("no data to plot")
	}
	return meta, records, nil
}

func plotRun(cmd *cobra.Command, args []string) error {
	meta, records, err := loadRecords(args[0])
	if err != nil {
		return err
	}

	fmt.Printf("run: %s\n", meta.ID)
	fmt.Printf("force field: %s, thermostat: %s\n", meta.ForceField, meta.Thermostat)
	fmt.Printf("samples: %d\n\n", len(records))

	columns := []string{"temperature", "potential", "total"}
	if plotColumn != "" {
		columns = []string{plotColumn}
	}
	for _, c := range columns {
		data, err := storage.Series(records, c)
		if err != nil {
			return err
		}
		graph := asciigraph.Plot(data,
			asciigraph.Height(10),
			asciigraph.Width(80),
			asciigraph.Caption(c+" vs sample"),
		)
		fmt.Println(graph)
		fmt.Println()
	}
	return nil
}

func phasePlot(cmd *cobra.Command, args []string) error {
	meta, records, err := loadRecords(args[0])
	if err != nil {
		return err
	}
	xs, err := storage.Series(records, xColumn)
	if err != nil {
		return err
	}
	ys, err := storage.Series(records, yColumn)
	if err != nil {
		return err
	}

	fmt.Printf("run: %s\n", meta.ID)
	fmt.Printf("%s (y) vs %s (x)\n\n", yColumn, xColumn)
	fmt.Print(analysis.NewScatter(xs, ys).ASCII(70, 20))
	return nil
}

func analyzeRun(cmd *cobra.Command, args []string) error {
	meta, records, err := loadRecords(args[0])
	if err != nil {
		return err
	}

	// Only strided samples are evenly spaced.
	strided := make([]storage.ThermoRecord, 0, len(records))
	for _, r := range records {
		if r.Kind == sampler.KindStride.String() && (len(strided) == 0 || r.Segment == strided[0].Segment) {
			strided = append(strided, r)
		}
	}
	if len(strided) < 4 {
		return errors.New("analyze needs a segment recorded with an integer output_method")
	}
	data, err := storage.Series(strided, analyzeColumn)
	if err != nil {
		return err
	}
	spacing := strided[1].Time - strided[0].Time

	fmt.Printf("frequency analysis: %s (segment %d)\n", meta.ID, strided[0].Segment)
	fmt.Printf("samples: %d, spacing: %.4g\n\n", len(data), spacing)

	ps := analysis.PowerSpectrum(data)
	graph := asciigraph.Plot(ps[1:],
		asciigraph.Height(15),
		asciigraph.Width(80),
		asciigraph.Caption("power spectrum ("+analyzeColumn+")"),
	)
	fmt.Println(graph)
	fmt.Println()

	freq := analysis.DominantFrequency(data, spacing)
	fmt.Printf("dominant frequency: %.4g\n", freq)
	if freq > 0 {
		fmt.Printf("period: %.4g\n", 1.0/freq)
	}
	return nil
}

func msdTrajectory(cmd *cobra.Command, args []string) error {
	frames, err := trajectory.ReadAll(args[0])
	if err != nil {
		return err
	}

	var curve analysis.Curve
	if frameDt > 0 {
		curve, err = analysis.WindowedMSD(frames, species, frameDt, maxLag)
	} else {
		curve, err = analysis.MSD(frames, species)
	}
	if err != nil {
		return err
	}

	fmt.Printf("frames: %d, lags: %d\n\n", len(frames), curve.Len())
	if curve.Len() > 1 {
		fmt.Println(asciigraph.Plot(curve.Value,
			asciigraph.Height(12),
			asciigraph.Width(80),
			asciigraph.Caption("MSD vs lag index"),
		))
		fmt.Println()
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "LAG\tMSD")
	for i := range curve.Lag {
		fmt.Fprintf(w, "%.6g\t%.6g\n", curve.Lag[i], curve.Value[i])
	}
	if err := w.Flush(); err != nil {
		return err
	}

	fmt.Printf("\ndiffusion coefficient: %.6g\n", analysis.Diffusion(curve))
	return nil
}
