package store

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/eminamitani/MD-edamame/internal/storage"
)

func TestExportJSON(t *testing.T) {
	tmpDir := t.TempDir()
	st := storage.New(tmpDir)

	run, err := st.Create(storage.RunMetadata{Name: "quench", ForceField: "lj", Dt: 0.005, Atoms: 64})
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	run.Record(storage.ThermoRecord{Step: 5, Time: 0.025, Temperature: 1.1, Kind: "dense"})
	run.Record(storage.ThermoRecord{Step: 28, Time: 0.14, Temperature: 1.0, Kind: "anchor", BurstID: 3})
	if err := run.Finish(28, map[string]float64{"energy": -6.5}); err != nil {
		t.Fatalf("finish failed: %v", err)
	}

	meta, err := st.Load(run.ID())
	if err != nil {
		t.Fatal(err)
	}
	records, err := st.LoadThermo(run.ID())
	if err != nil {
		t.Fatal(err)
	}

	path := filepath.Join(tmpDir, "export.json")
	if err := ExportJSON(path, meta, records); err != nil {
		t.Fatalf("export failed: %v", err)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	var data ExportData
	if err := json.Unmarshal(raw, &data); err != nil {
		t.Fatalf("invalid json: %v", err)
	}

	if data.Name != "quench" || data.Steps != 28 || data.Atoms != 64 {
		t.Errorf("unexpected export header %+v", data)
	}
	if len(data.Samples) != 2 {
		t.Fatalf("expected 2 samples, got %d", len(data.Samples))
	}
	if data.Samples[0].BurstID != nil {
		t.Error("dense sample should not carry a burst id")
	}
	if data.Samples[1].BurstID == nil || *data.Samples[1].BurstID != 3 {
		t.Error("anchor sample lost its burst id")
	}
	if data.Metrics["energy"] != -6.5 {
		t.Errorf("expected energy metric -6.5, got %f", data.Metrics["energy"])
	}
}
