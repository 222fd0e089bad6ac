package storage

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/san-kum/nbodysim/internal/catalog"
	"github.com/san-kum/nbodysim/internal/dynamo"
	"github.com/san-kum/nbodysim/internal/sim"
)

const (
	metadataFile = "metadata.json"
	energiesFile = "energies.csv"
	majorFile    = "major.bin"
	minorFile    = "minor.bin"
)

// Store keeps one directory per run under baseDir.
type Store struct {
	baseDir string
}

func New(baseDir string) *Store {
	return &Store{baseDir: baseDir}
}

func (s *Store) Init() error {
	return os.MkdirAll(s.baseDir, 0755)
}

type RunMetadata struct {
	ID          string             `json:"id"`
	Name        string             `json:"name"`
	Timestamp   time.Time          `json:"timestamp"`
	Dt          float64            `json:"dt"`
	Ticks       int                `json:"ticks"`
	Theta       float64            `json:"theta"`
	SofteningAU float64            `json:"softening_au"`
	Integrator  string             `json:"integrator"`
	Backend     string             `json:"backend"`
	Major       int                `json:"major"`
	Minor       int                `json:"minor"`
	Consumed    int                `json:"consumed"`
	EnergyDrift float64            `json:"energy_drift"`
	Elapsed     float64            `json:"elapsed_seconds"`
	Metrics     map[string]float64 `json:"metrics"`
}

// Save writes the run's metadata, its energy history and the final bodies
// in catalog format. It fills in ID, Timestamp and the result fields of meta.
func (s *Store) Save(meta RunMetadata, result *sim.Result, major, minor []dynamo.Body) (string, error) {
	now := time.Now()
	runID := fmt.Sprintf("%s_%d", meta.Name, now.UnixNano())
	runDir := filepath.Join(s.baseDir, runID)

	if err := os.MkdirAll(runDir, 0755); err != nil {
		return "", err
	}

	meta.ID = runID
	meta.Timestamp = now
	meta.Ticks = result.Ticks
	meta.Major = len(major)
	meta.Minor = len(minor)
	meta.Consumed = result.Consumed
	meta.EnergyDrift = result.EnergyDrift
	meta.Elapsed = result.Elapsed.Seconds()
	meta.Metrics = result.Metrics

	if err := writeJSON(filepath.Join(runDir, metadataFile), meta); err != nil {
		return "", err
	}
	if err := writeEnergies(filepath.Join(runDir, energiesFile), meta.Dt, result.Energies); err != nil {
		return "", err
	}
	if err := catalog.SaveFile(filepath.Join(runDir, majorFile), major); err != nil {
		return "", err
	}
	if err := catalog.SaveFile(filepath.Join(runDir, minorFile), minor); err != nil {
		return "", err
	}
	return runID, nil
}

func writeJSON(path string, v any) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func writeEnergies(path string, dt float64, energies []float64) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write([]string{"tick", "time", "energy"}); err != nil {
		return err
	}
	for i, e := range energies {
		row := []string{
			strconv.Itoa(i),
			strconv.FormatFloat(float64(i)*dt, 'f', 1, 64),
			strconv.FormatFloat(e, 'g', -1, 64),
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

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
	return runs, nil
}

func (s *Store) Load(runID string) (*RunMetadata, error) {
	data, err := os.ReadFile(filepath.Join(s.baseDir, runID, metadataFile))
	if err != nil {
		return nil, err
	}

	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, fmt.Errorf("%s: %w", runID, err)
	}
	return &meta, nil
}

// LoadEnergies returns the simulated times and major-body energies of a run.
func (s *Store) LoadEnergies(runID string) ([]float64, []float64, error) {
	file, err := os.Open(filepath.Join(s.baseDir, runID, energiesFile))
	if err != nil {
		return nil, nil, err
	}
	defer file.Close()

	records, err := csv.NewReader(file).ReadAll()
	if err != nil {
		return nil, nil, err
	}
	if len(records) < 2 {
		return []float64{}, []float64{}, nil
	}

	times := make([]float64, 0, len(records)-1)
	energies := make([]float64, 0, len(records)-1)
	for _, record := range records[1:] {
		t, err := strconv.ParseFloat(record[1], 64)
		if err != nil {
			return nil, nil, fmt.Errorf("%s: time %q: %w", runID, record[1], err)
		}
		e, err := strconv.ParseFloat(record[2], 64)
		if err != nil {
			return nil, nil, fmt.Errorf("%s: energy %q: %w", runID, record[2], err)
		}
		times = append(times, t)
		energies = append(energies, e)
	}
	return times, energies, nil
}

// LoadBodies reads the final major and minor bodies of a run.
func (s *Store) LoadBodies(runID string) (major, minor []dynamo.Body, err error) {
	dir := filepath.Join(s.baseDir, runID)
	if major, _, err = catalog.LoadFile(filepath.Join(dir, majorFile)); err != nil {
		return nil, nil, err
	}
	if minor, _, err = catalog.LoadFile(filepath.Join(dir, minorFile)); err != nil {
		return nil, nil, err
	}
	return major, minor, nil
}

// ExportData is the JSON form of a finished run.
type ExportData struct {
	RunMetadata
	Times    []float64 `json:"times"`
	Energies []float64 `json:"energies"`
}

// ExportJSON writes meta and the energy history of result as indented JSON.
func ExportJSON(w io.Writer, meta RunMetadata, result *sim.Result) error {
	data := ExportData{
		RunMetadata: meta,
		Times:       make([]float64, len(result.Energies)),
		Energies:    result.Energies,
	}
	data.Ticks = result.Ticks
	data.Consumed = result.Consumed
	data.EnergyDrift = result.EnergyDrift
	data.Elapsed = result.Elapsed.Seconds()
	data.Metrics = result.Metrics
	for i := range data.Times {
		data.Times[i] = float64(i) * meta.Dt
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(data)
}
