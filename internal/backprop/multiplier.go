package backprop

import (
	"gonum.org/v1/gonum/floats"

	"github.com/born-ml/convnet/internal/tensor"
)

// Multiplier holds, for one layer, the derivative of every network output
// unit with respect to every element of that layer's output.
//
// It is a 4-D array indexed by (i, j, k, r) with r varying fastest, so the
// values for one location form a contiguous row of Units() entries.
type Multiplier struct {
	shape tensor.Shape
	units int
	data  []float64
}

// NewMultiplier allocates a zero multiplier over shape for units output units.
func NewMultiplier(shape tensor.Shape, units int) *Multiplier {
	return &Multiplier{
		shape: shape,
		units: units,
		data:  make([]float64, shape.NumElements()*units),
	}
}

// Seed returns the multiplier of the last layer: a diagonal where location r
// holds predicted[r]-target[r] for unit r and zero for every other unit.
func Seed(shape tensor.Shape, target, predicted []float64) *Multiplier {
	m := NewMultiplier(shape, len(target))
	for r := range target {
		m.RowAt(r)[r] = predicted[r] - target[r]
	}
	return m
}

// Shape returns the spatial extent.
func (m *Multiplier) Shape() tensor.Shape {
	return m.shape
}

// Units returns the number of output units.
func (m *Multiplier) Units() int {
	return m.units
}

// Row returns the per-unit values at (i, j, k). The slice aliases m.
func (m *Multiplier) Row(i, j, k int) []float64 {
	return m.RowAt(m.shape.Index(i, j, k))
}

// RowAt returns the per-unit values at flat location idx.
func (m *Multiplier) RowAt(idx int) []float64 {
	return m.data[idx*m.units : (idx+1)*m.units]
}

// RowIsZero reports whether every unit is zero at flat location idx.
func (m *Multiplier) RowIsZero(idx int) bool {
	return isZero(m.RowAt(idx))
}

// Add performs m += other. The multipliers must have the same extent.
func (m *Multiplier) Add(other *Multiplier) {
	floats.Add(m.data, other.data)
}

// NonZeroRows returns how many locations have at least one nonzero unit.
func (m *Multiplier) NonZeroRows() int {
	n := 0
	for idx := 0; idx < m.shape.NumElements(); idx++ {
		if !m.RowIsZero(idx) {
			n++
		}
	}
	return n
}

func isZero(row []float64) bool {
	for _, v := range row {
		if v != 0 {
			return false
		}
	}
	return true
}
