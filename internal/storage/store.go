package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/san-kum/pollinet/internal/dynamo"
	"github.com/san-kum/pollinet/internal/experiment"
	"github.com/san-kum/pollinet/internal/sim"
)

const (
	metadataFile   = "metadata.json"
	resultsFile    = "results.txt"
	sweepFile      = "sweep.txt"
	plantTrajFile  = "evolution_p.txt"
	insectTrajFile = "evolution_v.txt"
	dirPerm        = 0755
)

// Run kinds.
const (
	KindEquilibrium = "equilibrium"
	KindExtinction  = "extinction"
	KindSweep       = "sweep"
)

type Store struct {
	baseDir string
}

func New(baseDir string) *Store {
	return &Store{baseDir: baseDir}
}

func (s *Store) Init() error {
	return os.MkdirAll(s.baseDir, dirPerm)
}

type RunMetadata struct {
	ID         string             `json:"id"`
	Kind       string             `json:"kind"`
	Network    string             `json:"network"`
	Timestamp  time.Time          `json:"timestamp"`
	Seed       int64              `json:"seed"`
	Order      string             `json:"order,omitempty"`
	Dt         float64            `json:"dt"`
	Integrator string             `json:"integrator"`
	Params     dynamo.Params      `json:"params"`
	Plants     int                `json:"plants"`
	Insects    int                `json:"insects"`
	Patches    int                `json:"patches"`
	Baseline   *sim.Result        `json:"baseline,omitempty"`
	Area       float64            `json:"area"`
	Metrics    map[string]float64 `json:"metrics,omitempty"`
}

// Run is an open run directory.
type Run struct {
	Meta RunMetadata
	dir  string
}

// Create allocates a new run directory and fills in its id and timestamp.
func (s *Store) Create(meta RunMetadata) (*Run, error) {
	meta.ID = fmt.Sprintf("%s-%s", meta.Kind, uuid.NewString()[:8])
	meta.Timestamp = time.Now()

	dir := filepath.Join(s.baseDir, meta.ID)
	if err := os.MkdirAll(dir, dirPerm); err != nil {
		return nil, err
	}
	return &Run{Meta: meta, dir: dir}, nil
}

func (r *Run) Dir() string { return r.dir }

// Trajectory opens the plant and insect trajectory files. The returned
// function flushes and closes both.
func (r *Run) Trajectory() (sim.Trajectory, func() error, error) {
	pf, err := os.Create(filepath.Join(r.dir, plantTrajFile))
	if err != nil {
		return sim.Trajectory{}, nil, err
	}
	vf, err := os.Create(filepath.Join(r.dir, insectTrajFile))
	if err != nil {
		pf.Close()
		return sim.Trajectory{}, nil, err
	}

	ps, vs := sim.NewLineSink(pf), sim.NewLineSink(vf)
	closeAll := func() error {
		var firstErr error
		for _, step := range []func() error{ps.Flush, vs.Flush, pf.Close, vf.Close} {
			if err := step(); err != nil && firstErr == nil {
				firstErr = err
			}
		}
		return firstErr
	}
	return sim.Trajectory{Plants: ps, Insects: vs}, closeAll, nil
}

func (r *Run) SaveResults(rows []experiment.Row) error {
	f, err := os.Create(filepath.Join(r.dir, resultsFile))
	if err != nil {
		return err
	}
	defer f.Close()

	if err := WriteResults(f, rows); err != nil {
		return err
	}
	return f.Close()
}

func (r *Run) SaveSweep(points []experiment.Point) error {
	f, err := os.Create(filepath.Join(r.dir, sweepFile))
	if err != nil {
		return err
	}
	defer f.Close()

	if err := WriteSweep(f, points); err != nil {
		return err
	}
	return f.Close()
}

// Finish writes metadata.json.
func (r *Run) Finish() error {
	f, err := os.Create(filepath.Join(r.dir, metadataFile))
	if err != nil {
		return err
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	if err := enc.Encode(r.Meta); err != nil {
		return err
	}
	return f.Close()
}

// List returns every readable run, oldest first.
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

	sort.Slice(runs, func(i, j int) bool { return runs[i].Timestamp.Before(runs[j].Timestamp) })
	return runs, nil
}

func (s *Store) Load(runID string) (*RunMetadata, error) {
	data, err := os.ReadFile(filepath.Join(s.baseDir, runID, metadataFile))
	if err != nil {
		return nil, err
	}

	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, err
	}

	return &meta, nil
}

func (s *Store) LoadResults(runID string) ([]experiment.Row, error) {
	f, err := os.Open(filepath.Join(s.baseDir, runID, resultsFile))
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ReadResults(f)
}

func (s *Store) LoadSweep(runID string) ([]SweepPoint, error) {
	f, err := os.Open(filepath.Join(s.baseDir, runID, sweepFile))
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ReadSweep(f)
}

// LoadTrajectory reads the plant and insect trajectory files of a run.
func (s *Store) LoadTrajectory(runID string) (plants, insects *sim.Memory, err error) {
	plants, insects = &sim.Memory{}, &sim.Memory{}
	for _, part := range []struct {
		name string
		m    *sim.Memory
	}{{plantTrajFile, plants}, {insectTrajFile, insects}} {
		f, err := os.Open(filepath.Join(s.baseDir, runID, part.name))
		if err != nil {
			return nil, nil, err
		}
		err = ReadTrajectory(f, part.m)
		f.Close()
		if err != nil {
			return nil, nil, fmt.Errorf("%s: %w", part.name, err)
		}
	}
	return plants, insects, nil
}
