package sim

import (
	"bufio"
	"io"
	"strconv"
)

// Sink receives one trajectory record per call: a time and the cell values
// of one guild in (species, patch) row-major order. values is only valid
// for the duration of the call.
type Sink interface {
	Append(t float64, values []float64) error
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(t float64, values []float64) error

func (f SinkFunc) Append(t float64, values []float64) error { return f(t, values) }

type discard struct{}

func (discard) Append(float64, []float64) error { return nil }

// Discard drops every record.
var Discard Sink = discard{}

// Trajectory routes plant and insect snapshots to separate sinks. Nil
// sinks discard.
type Trajectory struct {
	Plants  Sink
	Insects Sink
}

func (tr Trajectory) sinks() (Sink, Sink) {
	p, v := tr.Plants, tr.Insects
	if p == nil {
		p = Discard
	}
	if v == nil {
		v = Discard
	}
	return p, v
}

// Memory keeps every record in memory.
type Memory struct {
	Times   []float64
	Records [][]float64
}

func (m *Memory) Append(t float64, values []float64) error {
	rec := make([]float64, len(values))
	copy(rec, values)
	m.Times = append(m.Times, t)
	m.Records = append(m.Records, rec)
	return nil
}

func (m *Memory) Len() int { return len(m.Times) }

// Last returns the most recent record, or nil when empty.
func (m *Memory) Last() []float64 {
	if len(m.Records) == 0 {
		return nil
	}
	return m.Records[len(m.Records)-1]
}

// LineSink writes "<time> v0 v1 ..." lines. Call Flush when done.
type LineSink struct {
	w   *bufio.Writer
	buf []byte
}

func NewLineSink(w io.Writer) *LineSink {
	return &LineSink{w: bufio.NewWriter(w)}
}

func (l *LineSink) Append(t float64, values []float64) error {
	l.buf = strconv.AppendFloat(l.buf[:0], t, 'g', -1, 64)
	for _, v := range values {
		l.buf = append(l.buf, ' ')
		l.buf = strconv.AppendFloat(l.buf, v, 'g', -1, 64)
	}
	l.buf = append(l.buf, '\n')
	_, err := l.w.Write(l.buf)
	return err
}

func (l *LineSink) Flush() error { return l.w.Flush() }
