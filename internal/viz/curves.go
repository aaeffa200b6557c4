package viz

import (
	"fmt"
	"strings"

	"github.com/guptarohit/asciigraph"
	"github.com/san-kum/pollinet/internal/experiment"
	"github.com/san-kum/pollinet/internal/sim"
)

// Curve selects a column of an extinction table to plot.
type Curve int

const (
	CurveRobustness Curve = iota
	CurveService
	CurveSurvivors
	CurveDiversity
	numCurves
)

func (c Curve) String() string {
	switch c {
	case CurveRobustness:
		return "robustness"
	case CurveService:
		return "pollination service"
	case CurveSurvivors:
		return "surviving species (plants, insects)"
	case CurveDiversity:
		return "diversity (plants, insects)"
	}
	return fmt.Sprintf("curve(%d)", int(c))
}

// Next cycles through the curves.
func (c Curve) Next() Curve { return (c + 1) % numCurves }

// Series extracts the plotted series of c, one value per row.
func Series(rows []experiment.Row, c Curve) [][]float64 {
	switch c {
	case CurveService:
		s := make([]float64, len(rows))
		for i, r := range rows {
			s[i] = r.PollinationService
		}
		return [][]float64{s}
	case CurveSurvivors:
		p, v := make([]float64, len(rows)), make([]float64, len(rows))
		for i, r := range rows {
			p[i], v[i] = float64(r.SurvivingPlants), float64(r.SurvivingInsects)
		}
		return [][]float64{p, v}
	case CurveDiversity:
		p, v := make([]float64, len(rows)), make([]float64, len(rows))
		for i, r := range rows {
			p[i], v[i] = r.PlantDiversity, r.InsectDiversity
		}
		return [][]float64{p, v}
	}
	s := make([]float64, len(rows))
	for i, r := range rows {
		s[i] = r.Robustness
	}
	return [][]float64{s}
}

// RenderCurve plots one curve against the number of plants removed. Fewer
// than two rows give a placeholder line instead of a graph.
func RenderCurve(rows []experiment.Row, c Curve, width, height int) string {
	if len(rows) < 2 {
		return Subtle.Render(fmt.Sprintf("%s: not enough rows to plot", c))
	}

	opts := []asciigraph.Option{
		asciigraph.Height(height),
		asciigraph.Width(width),
		asciigraph.Caption(fmt.Sprintf("%s vs plants removed", c)),
	}
	if c == CurveRobustness {
		opts = append(opts, asciigraph.LowerBound(0), asciigraph.UpperBound(1))
	}

	series := Series(rows, c)
	if len(series) == 1 {
		return asciigraph.Plot(series[0], opts...)
	}
	return asciigraph.PlotMany(series, opts...)
}

// RenderCurves plots every curve of an extinction table.
func RenderCurves(rows []experiment.Row, width, height int) string {
	parts := make([]string, 0, numCurves)
	for c := CurveRobustness; c < numCurves; c++ {
		parts = append(parts, RenderCurve(rows, c, width, height))
	}
	return strings.Join(parts, "\n\n")
}

// RenderSweep plots robustness area against dispersal. The x axis is the
// position in the sweep, so the dispersal values are listed in the caption.
func RenderSweep(dispersal, area []float64, width, height int) string {
	if len(area) < 2 {
		return Subtle.Render("sweep: not enough points to plot")
	}

	labels := make([]string, len(dispersal))
	for i, d := range dispersal {
		labels[i] = fmt.Sprintf("%g", d)
	}
	return asciigraph.Plot(area,
		asciigraph.Height(height),
		asciigraph.Width(width),
		asciigraph.Caption("robustness area, D = "+strings.Join(labels, " ")),
	)
}

// RenderTotals plots the summed abundance of every record of a trajectory.
func RenderTotals(traj *sim.Memory, caption string, width, height int) string {
	if traj.Len() < 2 {
		return Subtle.Render(caption + ": not enough records to plot")
	}
	totals := make([]float64, traj.Len())
	for i, rec := range traj.Records {
		for _, v := range rec {
			totals[i] += v
		}
	}
	return asciigraph.Plot(totals,
		asciigraph.Height(height),
		asciigraph.Width(width),
		asciigraph.Caption(fmt.Sprintf("%s, t = %g..%g", caption, traj.Times[0], traj.Times[traj.Len()-1])),
	)
}
