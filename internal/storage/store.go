package storage

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"github.com/google/uuid"
)

const (
	metadataFile = "metadata.json"
	thermoFile   = "thermo.csv"
)

type Store struct {
	baseDir string
}

func New(baseDir string) *Store {
	return &Store{baseDir: baseDir}
}

func (s *Store) Init() error {
	return os.MkdirAll(s.baseDir, 0755)
}

func (s *Store) BaseDir() string { return s.baseDir }

type RunMetadata struct {
	ID         string             `json:"id"`
	Name       string             `json:"name"`
	Timestamp  time.Time          `json:"timestamp"`
	Seed       int64              `json:"seed"`
	Units      string             `json:"units"`
	ForceField string             `json:"force_field"`
	Thermostat string             `json:"thermostat"`
	Atoms      int                `json:"atoms"`
	Dt         float64            `json:"dt"`
	Cutoff     float64            `json:"cutoff"`
	Margin     float64            `json:"margin"`
	Commands   []string           `json:"commands"`
	Steps      int64              `json:"steps"`
	Trajectory string             `json:"trajectory,omitempty"`
	Metrics    map[string]float64 `json:"metrics"`
}

// ThermoRecord is one emitted sample.
type ThermoRecord struct {
	Segment     int
	Step        int64
	Time        float64
	Kinetic     float64
	Potential   float64
	Total       float64
	Temperature float64
	Target      float64
	Kind        string
	BurstID     int
	BurstIndex  int
}

var thermoHeader = []string{"segment", "step", "time", "kinetic", "potential", "total", "temperature", "target", "kind", "burst_id", "burst_index"}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', 10, 64)
}

func (r ThermoRecord) row() []string {
	return []string{
		strconv.Itoa(r.Segment),
		strconv.FormatInt(r.Step, 10),
		formatFloat(r.Time),
		formatFloat(r.Kinetic),
		formatFloat(r.Potential),
		formatFloat(r.Total),
		formatFloat(r.Temperature),
		formatFloat(r.Target),
		r.Kind,
		strconv.Itoa(r.BurstID),
		strconv.Itoa(r.BurstIndex),
	}
}

// Run streams thermo records of one run to disk.
type Run struct {
	dir  string
	meta RunMetadata
	file *os.File
	csv  *csv.Writer
	rows int
}

// Create assigns a run ID, writes the initial metadata and opens the thermo
// log.
func (s *Store) Create(meta RunMetadata) (*Run, error) {
	meta.ID = uuid.NewString()
	if meta.Timestamp.IsZero() {
		meta.Timestamp = time.Now()
	}
	dir := filepath.Join(s.baseDir, meta.ID)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}
	if err := writeMetadata(dir, meta); err != nil {
		return nil, err
	}

	file, err := os.Create(filepath.Join(dir, thermoFile))
	if err != nil {
		return nil, err
	}
	w := csv.NewWriter(file)
	if err := w.Write(thermoHeader); err != nil {
		file.Close()
		return nil, err
	}
	return &Run{dir: dir, meta: meta, file: file, csv: w}, nil
}

func writeMetadata(dir string, meta RunMetadata) error {
	f, err := os.Create(filepath.Join(dir, metadataFile))
	if err != nil {
		return err
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	return enc.Encode(meta)
}

func (r *Run) ID() string  { return r.meta.ID }
func (r *Run) Dir() string { return r.dir }
func (r *Run) Rows() int   { return r.rows }

func (r *Run) Record(rec ThermoRecord) error {
	if err := r.csv.Write(rec.row()); err != nil {
		return err
	}
	r.rows++
	return nil
}

// Finish flushes the thermo log and rewrites the metadata with the final
// step count and metric values.
func (r *Run) Finish(steps int64, metrics map[string]float64) error {
	r.csv.Flush()
	if err := r.csv.Error(); err != nil {
		r.file.Close()
		return err
	}
	if err := r.file.Close(); err != nil {
		return err
	}
	r.meta.Steps = steps
	r.meta.Metrics = metrics
	return writeMetadata(r.dir, r.meta)
}

// List returns stored runs, newest first.
func (s *Store) List() ([]RunMetadata, error) {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []RunMetadata{}, nil
		}
		return nil, err
	}

	runs := make([]RunMetadata, 0)
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		meta, err := s.Load(entry.Name())
		if err != nil {
			continue
		}
		runs = append(runs, *meta)
	}
	sort.Slice(runs, func(i, j int) bool { return runs[i].Timestamp.After(runs[j].Timestamp) })
	return runs, nil
}

func (s *Store) Load(runID string) (*RunMetadata, error) {
	data, err := os.ReadFile(filepath.Join(s.baseDir, runID, metadataFile))
	if err != nil {
		return nil, err
	}

	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, fmt.Errorf("run %s: %w", runID, err)
	}
	return &meta, nil
}

func (s *Store) LoadThermo(runID string) ([]ThermoRecord, error) {
	file, err := os.Open(filepath.Join(s.baseDir, runID, thermoFile))
	if err != nil {
		return nil, err
	}
	defer file.Close()

	r := csv.NewReader(file)
	r.FieldsPerRecord = len(thermoHeader)

	rows, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("run %s: %w", runID, err)
	}
	if len(rows) < 2 {
		return []ThermoRecord{}, nil
	}

	records := make([]ThermoRecord, 0, len(rows)-1)
	for i, row := range rows[1:] {
		rec, err := parseRow(row)
		if err != nil {
			return nil, fmt.Errorf("run %s: row %d: %w", runID, i+2, err)
		}
		records = append(records, rec)
	}
	return records, nil
}

func parseRow(row []string) (ThermoRecord, error) {
	var (
		rec  ThermoRecord
		errs []error
	)
	atoi := func(s string) int {
		n, err := strconv.Atoi(s)
		errs = append(errs, err)
		return n
	}
	atof := func(s string) float64 {
		v, err := strconv.ParseFloat(s, 64)
		errs = append(errs, err)
		return v
	}

	rec.Segment = atoi(row[0])
	step, err := strconv.ParseInt(row[1], 10, 64)
	errs = append(errs, err)
	rec.Step = step
	rec.Time = atof(row[2])
	rec.Kinetic = atof(row[3])
	rec.Potential = atof(row[4])
	rec.Total = atof(row[5])
	rec.Temperature = atof(row[6])
	rec.Target = atof(row[7])
	rec.Kind = row[8]
	rec.BurstID = atoi(row[9])
	rec.BurstIndex = atoi(row[10])

	for _, err := range errs {
		if err != nil {
			return rec, err
		}
	}
	return rec, nil
}

// Series extracts one column of a thermo log by name.
func Series(records []ThermoRecord, column string) ([]float64, error) {
	get := map[string]func(ThermoRecord) float64{
		"time":        func(r ThermoRecord) float64 { return r.Time },
		"kinetic":     func(r ThermoRecord) float64 { return r.Kinetic },
		"potential":   func(r ThermoRecord) float64 { return r.Potential },
		"total":       func(r ThermoRecord) float64 { return r.Total },
		"temperature": func(r ThermoRecord) float64 { return r.Temperature },
		"target":      func(r ThermoRecord) float64 { return r.Target },
	}[column]
	if get == nil {
		return nil, fmt.Errorf("unknown column: %s", column)
	}
	out := make([]float64, len(records))
	for i, r := range records {
		out[i] = get(r)
	}
	return out, nil
}
