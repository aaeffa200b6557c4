// Package dynamo provides the core data model of the metapopulation engine.
//
// The package defines the fundamental types shared by the derivative model,
// the integrators and the experiment driver:
//
//   - [Matrix]: bounds-checked, row-major abundance matrix (species × patch)
//   - [Tensor]: interaction strengths indexed by (patch, plant, insect)
//   - [State]: plant and insect matrices backed by one flat vector
//   - [Params]: immutable biological constants (r, Kp, Kv, ha, d, D)
//   - [System]: anything that can fill in dX/dt for a whole state
//   - [Integrator]: fixed-step scheme advancing a state in place
//
// # Example
//
//	gamma, _ := dynamo.NewTensor(1, 1, 1)
//	_ = gamma.Set(0, 0, 0, 1.0)
//	sys, _ := models.NewMutualism(gamma, dynamo.DefaultParams())
//	x := models.InitialState(gamma, 100, 500)
//	integrators.NewRK4().Step(sys, x, 0.01)
//
// # Thread Safety
//
// Tensors are read-only after loading and may be shared freely. A State is
// owned by whichever component is stepping it and must not be mutated from
// two goroutines at once.
package dynamo
