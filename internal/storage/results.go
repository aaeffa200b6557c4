package storage

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/san-kum/pollinet/internal/experiment"
	"github.com/san-kum/pollinet/internal/sim"
)

// ResultsHeader names the seven columns of a results table.
const ResultsHeader = "# Num_Extinctions Robustness_Ratio Surv_Plants Surv_Insects Pollination_Service Gini_Plants Gini_Insects"

const sweepHeader = "# Dispersal Robustness_Area"

// WriteResults writes the header and one line per knockout count.
func WriteResults(w io.Writer, rows []experiment.Row) error {
	bw := bufio.NewWriter(w)
	fmt.Fprintln(bw, ResultsHeader)
	for _, r := range rows {
		fmt.Fprintf(bw, "%d %.6f %d %d %.6f %.6f %.6f\n",
			r.Removed, r.Robustness, r.SurvivingPlants, r.SurvivingInsects,
			r.PollinationService, r.PlantDiversity, r.InsectDiversity)
	}
	return bw.Flush()
}

// ReadResults parses a table written by WriteResults. Only the seven
// written columns are restored.
func ReadResults(r io.Reader) ([]experiment.Row, error) {
	rows := make([]experiment.Row, 0)
	sc := bufio.NewScanner(r)
	line := 0
	for sc.Scan() {
		line++
		text := strings.TrimSpace(sc.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}
		f := strings.Fields(text)
		if len(f) != 7 {
			return nil, fmt.Errorf("results line %d: want 7 fields, got %d", line, len(f))
		}

		var row experiment.Row
		var err error
		ints := []*int{&row.Removed, &row.SurvivingPlants, &row.SurvivingInsects}
		for i, idx := range []int{0, 2, 3} {
			if *ints[i], err = strconv.Atoi(f[idx]); err != nil {
				return nil, fmt.Errorf("results line %d: %w", line, err)
			}
		}
		floats := []*float64{&row.Robustness, &row.PollinationService, &row.PlantDiversity, &row.InsectDiversity}
		for i, idx := range []int{1, 4, 5, 6} {
			if *floats[i], err = strconv.ParseFloat(f[idx], 64); err != nil {
				return nil, fmt.Errorf("results line %d: %w", line, err)
			}
		}
		row.Species = -1
		row.InsectBiomass = row.PollinationService
		rows = append(rows, row)
	}
	return rows, sc.Err()
}

// SweepPoint is one line of a stored dispersal sweep.
type SweepPoint struct {
	Dispersal float64
	Area      float64
}

func WriteSweep(w io.Writer, points []experiment.Point) error {
	bw := bufio.NewWriter(w)
	fmt.Fprintln(bw, sweepHeader)
	for _, p := range points {
		fmt.Fprintf(bw, "%g %.6f\n", p.Dispersal, p.Area)
	}
	return bw.Flush()
}

func ReadSweep(r io.Reader) ([]SweepPoint, error) {
	points := make([]SweepPoint, 0)
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		text := strings.TrimSpace(sc.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}
		f := strings.Fields(text)
		if len(f) != 2 {
			return nil, fmt.Errorf("sweep line %q: want 2 fields", text)
		}
		d, err := strconv.ParseFloat(f[0], 64)
		if err != nil {
			return nil, err
		}
		a, err := strconv.ParseFloat(f[1], 64)
		if err != nil {
			return nil, err
		}
		points = append(points, SweepPoint{Dispersal: d, Area: a})
	}
	return points, sc.Err()
}

// ReadTrajectory parses lines written by sim.LineSink into m.
func ReadTrajectory(r io.Reader, m *sim.Memory) error {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	line := 0
	for sc.Scan() {
		line++
		f := strings.Fields(sc.Text())
		if len(f) == 0 {
			continue
		}
		vals := make([]float64, len(f))
		for i, s := range f {
			v, err := strconv.ParseFloat(s, 64)
			if err != nil {
				return fmt.Errorf("trajectory line %d: %w", line, err)
			}
			vals[i] = v
		}
		if err := m.Append(vals[0], vals[1:]); err != nil {
			return err
		}
	}
	return sc.Err()
}
