package metrics

// Overshoot watches a trajectory for cells that dip below zero. It satisfies
// sim.Sink so it can sit next to the file sinks of a run.
type Overshoot struct {
	violations int
	samples    int
	minimum    float64
}

func NewOvershoot() *Overshoot {
	return &Overshoot{}
}

func (o *Overshoot) Append(t float64, values []float64) error {
	o.samples++
	hit := false
	for _, v := range values {
		if v < 0 {
			hit = true
		}
		if v < o.minimum {
			o.minimum = v
		}
	}
	if hit {
		o.violations++
	}
	return nil
}

// Value is the fraction of records without a negative cell.
func (o *Overshoot) Value() float64 {
	if o.samples == 0 {
		return 1.0
	}
	return 1.0 - float64(o.violations)/float64(o.samples)
}

// Minimum is the most negative value seen, or 0.
func (o *Overshoot) Minimum() float64 { return o.minimum }

func (o *Overshoot) Violations() int { return o.violations }

func (o *Overshoot) Reset() {
	o.violations = 0
	o.samples = 0
	o.minimum = 0
}
