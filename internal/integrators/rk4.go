package integrators

import "github.com/san-kum/pollinet/internal/dynamo"

// RK4 is the classical fourth-order Runge-Kutta scheme. Each stage is
// evaluated for every cell before the next stage starts, so coupled cells
// always see a consistent trial state.
type RK4 struct {
	shape          [3]int
	k1, k2, k3, k4 dynamo.State
	scratch        dynamo.State
}

func NewRK4() *RK4 {
	return &RK4{shape: [3]int{-1, -1, -1}}
}

func (r *RK4) ensureScratch(x dynamo.State) {
	shape := [3]int{x.Plants(), x.Insects(), x.Patches()}
	if r.shape == shape {
		return
	}
	r.shape = shape
	r.k1 = x.Clone()
	r.k2 = x.Clone()
	r.k3 = x.Clone()
	r.k4 = x.Clone()
	r.scratch = x.Clone()
}

// Step advances x in place by h.
func (r *RK4) Step(sys dynamo.System, x dynamo.State, h float64) {
	r.ensureScratch(x)

	xs := x.Vec()
	k1, k2, k3, k4 := r.k1.Vec(), r.k2.Vec(), r.k3.Vec(), r.k4.Vec()
	trial := r.scratch.Vec()

	sys.Derive(x, r.k1)
	for i := range xs {
		k1[i] *= h
		trial[i] = xs[i] + 0.5*k1[i]
	}

	sys.Derive(r.scratch, r.k2)
	for i := range xs {
		k2[i] *= h
		trial[i] = xs[i] + 0.5*k2[i]
	}

	sys.Derive(r.scratch, r.k3)
	for i := range xs {
		k3[i] *= h
		trial[i] = xs[i] + k3[i]
	}

	sys.Derive(r.scratch, r.k4)
	for i := range xs {
		k4[i] *= h
		xs[i] += (k1[i] + 2*k2[i] + 2*k3[i] + k4[i]) / 6.0
	}
}
