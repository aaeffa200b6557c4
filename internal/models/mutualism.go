package models

import (
	"errors"
	"fmt"

	"github.com/san-kum/pollinet/internal/dynamo"
)

// rowsPerWorker keeps small networks on a single goroutine.
const rowsPerWorker = 16

// Mutualism is the plant/pollinator metapopulation model. Plants grow
// logistically and gain a saturating benefit from visiting insects; insects
// die off with a crowding term, feed on plants with a Holling type-II
// response and diffuse between every pair of patches.
type Mutualism struct {
	Gamma   *dynamo.Tensor
	Params  dynamo.Params
	Workers int
}

func NewMutualism(gamma *dynamo.Tensor, params dynamo.Params) (*Mutualism, error) {
	if gamma == nil {
		return nil, errors.New("models: nil interaction tensor")
	}
	if err := params.Validate(); err != nil {
		return nil, err
	}
	return &Mutualism{Gamma: gamma, Params: params, Workers: 1}, nil
}

// Check reports whether x can be integrated against this network.
func (m *Mutualism) Check(x dynamo.State) error {
	if !x.Fits(m.Gamma) {
		return fmt.Errorf("state %dx%d/%dx%d vs gamma %dx%dx%d: %w",
			x.Plants(), x.Patches(), x.Insects(), x.Patches(),
			m.Gamma.Patches(), m.Gamma.Plants(), m.Gamma.Insects(), dynamo.ErrDimensionMismatch)
	}
	return nil
}

// PlantRate is dp/dt for one plant at one patch, where p is that plant's
// abundance there and v holds every insect abundance.
func (m *Mutualism) PlantRate(p float64, v *dynamo.Matrix, plant, patch int) float64 {
	prm := m.Params
	sum := 0.0
	for j := 0; j < m.Gamma.Insects(); j++ {
		g := m.Gamma.At(patch, plant, j)
		if g == 0 {
			continue
		}
		vj := v.At(j, patch)
		sum += g * vj / (1 + prm.HandlingTime*g*vj)
	}
	return prm.GrowthRate*p*(1-p/prm.PlantCapacity) + p*sum
}

// InsectRate is dv/dt for one insect at one patch.
func (m *Mutualism) InsectRate(p, v *dynamo.Matrix, insect, patch int) float64 {
	prm := m.Params
	vi := v.At(insect, patch)

	uptake := 0.0
	for i := 0; i < m.Gamma.Plants(); i++ {
		g := m.Gamma.At(patch, i, insect)
		if g == 0 {
			continue
		}
		pi := p.At(i, patch)
		uptake += g * pi * vi / (1 + prm.HandlingTime*g*pi)
	}

	// every other patch is a neighbour
	flow := 0.0
	for s := 0; s < v.Cols(); s++ {
		if s != patch {
			flow += v.At(insect, s) - vi
		}
	}

	return -prm.Mortality*vi*(1+vi/prm.InsectCapacity) + uptake + prm.Dispersal*flow
}

// Derive fills dx with the rate of every cell evaluated at x. Rows are
// independent, so they may be spread over Workers goroutines.
func (m *Mutualism) Derive(x, dx dynamo.State) {
	plants := x.Plants()
	patches := x.Patches()

	dynamo.ParallelFor(plants+x.Insects(), m.Workers, rowsPerWorker, func(start, end int) {
		for row := start; row < end; row++ {
			if row < plants {
				out := dx.P.Row(row)
				for s := 0; s < patches; s++ {
					out[s] = m.PlantRate(x.P.At(row, s), x.V, row, s)
				}
				continue
			}
			insect := row - plants
			out := dx.V.Row(insect)
			for s := 0; s < patches; s++ {
				out[s] = m.InsectRate(x.P, x.V, insect, s)
			}
		}
	})
}
