package dynamo

import (
	"fmt"
	"math"
)

// Matrix is a row-major rows×cols block of float64 values stored in a flat
// slice. Zero-sized matrices are valid and describe an empty network.
type Matrix struct {
	rows, cols int
	data       []float64
}

// NewMatrix allocates a zeroed rows×cols matrix.
func NewMatrix(rows, cols int) (*Matrix, error) {
	if rows < 0 || cols < 0 {
		return nil, fmt.Errorf("matrix %dx%d: %w", rows, cols, ErrInvalidDimensions)
	}
	return &Matrix{rows: rows, cols: cols, data: make([]float64, rows*cols)}, nil
}

func (m *Matrix) Rows() int { return m.rows }
func (m *Matrix) Cols() int { return m.cols }

func (m *Matrix) index(row, col int) int {
	if row < 0 || row >= m.rows || col < 0 || col >= m.cols {
		panic(fmt.Sprintf("dynamo: matrix index (%d,%d) out of range %dx%d", row, col, m.rows, m.cols))
	}
	return row*m.cols + col
}

// At returns the value at (row, col). It panics when the index is out of
// range, like slice indexing.
func (m *Matrix) At(row, col int) float64 {
	return m.data[m.index(row, col)]
}

// Set assigns v at (row, col), panicking on an out-of-range index.
func (m *Matrix) Set(row, col int, v float64) {
	m.data[m.index(row, col)] = v
}

// Row returns the backing slice of one row; writes go through to the matrix.
func (m *Matrix) Row(row int) []float64 {
	if row < 0 || row >= m.rows {
		panic(fmt.Sprintf("dynamo: matrix row %d out of range %d", row, m.rows))
	}
	return m.data[row*m.cols : (row+1)*m.cols]
}

// RowSum adds up one row, i.e. a species total across patches.
func (m *Matrix) RowSum(row int) float64 {
	sum := 0.0
	for _, v := range m.Row(row) {
		sum += v
	}
	return sum
}

// Data exposes the flat row-major storage.
func (m *Matrix) Data() []float64 { return m.data }

func (m *Matrix) Clone() *Matrix {
	c := &Matrix{rows: m.rows, cols: m.cols, data: make([]float64, len(m.data))}
	copy(c.data, m.data)
	return c
}

// CopyFrom overwrites m with src. Both must have the same shape.
func (m *Matrix) CopyFrom(src *Matrix) error {
	if m.rows != src.rows || m.cols != src.cols {
		return fmt.Errorf("copy %dx%d into %dx%d: %w", src.rows, src.cols, m.rows, m.cols, ErrDimensionMismatch)
	}
	copy(m.data, src.data)
	return nil
}

// MaxAbsDiff returns the largest per-cell |m - other|.
func (m *Matrix) MaxAbsDiff(other *Matrix) float64 {
	maxDelta := 0.0
	for i, v := range m.data {
		if d := math.Abs(v - other.data[i]); d > maxDelta {
			maxDelta = d
		}
	}
	return maxDelta
}

// IsValid reports whether every cell is finite.
func (m *Matrix) IsValid() bool {
	for _, v := range m.data {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

// ClampNegative sets negative cells to zero and returns how many were changed.
func (m *Matrix) ClampNegative() int {
	n := 0
	for i, v := range m.data {
		if v < 0 {
			m.data[i] = 0
			n++
		}
	}
	return n
}

// Tensor holds the interaction strengths gamma[patch][plant][insect].
// Weights are never negative; zero means no interaction at that patch.
type Tensor struct {
	patches, plants, insects int
	data                     []float64
}

// NewTensor allocates an all-zero interaction tensor.
func NewTensor(patches, plants, insects int) (*Tensor, error) {
	if patches < 0 || plants < 0 || insects < 0 {
		return nil, fmt.Errorf("tensor %dx%dx%d: %w", patches, plants, insects, ErrInvalidDimensions)
	}
	return &Tensor{
		patches: patches,
		plants:  plants,
		insects: insects,
		data:    make([]float64, patches*plants*insects),
	}, nil
}

func (g *Tensor) Patches() int { return g.patches }
func (g *Tensor) Plants() int  { return g.plants }
func (g *Tensor) Insects() int { return g.insects }

func (g *Tensor) index(patch, plant, insect int) int {
	if patch < 0 || patch >= g.patches || plant < 0 || plant >= g.plants || insect < 0 || insect >= g.insects {
		panic(fmt.Sprintf("dynamo: tensor index (%d,%d,%d) out of range %dx%dx%d",
			patch, plant, insect, g.patches, g.plants, g.insects))
	}
	return (patch*g.plants+plant)*g.insects + insect
}

func (g *Tensor) At(patch, plant, insect int) float64 {
	return g.data[g.index(patch, plant, insect)]
}

// Set stores a weight. Negative and non-finite weights are rejected.
func (g *Tensor) Set(patch, plant, insect int, w float64) error {
	if w < 0 || math.IsNaN(w) || math.IsInf(w, 0) {
		return fmt.Errorf("gamma[%d][%d][%d]=%g: %w", patch, plant, insect, w, ErrNegativeWeight)
	}
	g.data[g.index(patch, plant, insect)] = w
	return nil
}
