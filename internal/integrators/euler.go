package integrators

import "github.com/san-kum/pollinet/internal/dynamo"

// Euler is the explicit first-order scheme, kept for comparing against RK4.
type Euler struct {
	shape [3]int
	dx    dynamo.State
}

func NewEuler() *Euler {
	return &Euler{shape: [3]int{-1, -1, -1}}
}

func (e *Euler) Step(sys dynamo.System, x dynamo.State, h float64) {
	shape := [3]int{x.Plants(), x.Insects(), x.Patches()}
	if e.shape != shape {
		e.shape = shape
		e.dx = x.Clone()
	}

	sys.Derive(x, e.dx)
	xs, dx := x.Vec(), e.dx.Vec()
	for i := range xs {
		xs[i] += h * dx[i]
	}
}
