package store

import (
	"encoding/json"
	"io"
	"os"

	"github.com/eminamitani/MD-edamame/internal/storage"
)

type Sample struct {
	Segment     int     `json:"segment"`
	Step        int64   `json:"step"`
	Time        float64 `json:"time"`
	Kinetic     float64 `json:"kinetic"`
	Potential   float64 `json:"potential"`
	Total       float64 `json:"total"`
	Temperature float64 `json:"temperature"`
	Target      float64 `json:"target"`
	Kind        string  `json:"kind"`
	BurstID     *int    `json:"burst_id,omitempty"`
	BurstIndex  *int    `json:"burst_index,omitempty"`
}

type ExportData struct {
	ID         string             `json:"id"`
	Name       string             `json:"name"`
	ForceField string             `json:"force_field"`
	Thermostat string             `json:"thermostat"`
	Atoms      int                `json:"atoms"`
	Dt         float64            `json:"dt"`
	Steps      int64              `json:"steps"`
	Samples    []Sample           `json:"samples"`
	Metrics    map[string]float64 `json:"metrics"`
}

func newExportData(meta *storage.RunMetadata, records []storage.ThermoRecord) ExportData {
	data := ExportData{
		ID:         meta.ID,
		Name:       meta.Name,
		ForceField: meta.ForceField,
		Thermostat: meta.Thermostat,
		Atoms:      meta.Atoms,
		Dt:         meta.Dt,
		Steps:      meta.Steps,
		Samples:    make([]Sample, len(records)),
		Metrics:    meta.Metrics,
	}
	for i, r := range records {
		s := Sample{
			Segment:     r.Segment,
			Step:        r.Step,
			Time:        r.Time,
			Kinetic:     r.Kinetic,
			Potential:   r.Potential,
			Total:       r.Total,
			Temperature: r.Temperature,
			Target:      r.Target,
			Kind:        r.Kind,
		}
		if r.Kind == "anchor" || r.Kind == "burst" {
			id, idx := r.BurstID, r.BurstIndex
			s.BurstID, s.BurstIndex = &id, &idx
		}
		data.Samples[i] = s
	}
	return data
}

func encode(w io.Writer, data ExportData) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(data)
}

func ExportJSON(path string, meta *storage.RunMetadata, records []storage.ThermoRecord) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	return encode(file, newExportData(meta, records))
}

func ExportJSONStdout(meta *storage.RunMetadata, records []storage.ThermoRecord) error {
	return encode(os.Stdout, newExportData(meta, records))
}
