// Package tensor provides the 3-D volume type that flows between convnet layers,
// together with the footprint bookkeeping used by the backward pass and a few
// vector utilities.
package tensor

import (
	"fmt"
)

// Volume is a dense width × height × depth array of float64.
//
// A volume is owned by whichever layer produced it. Layers that keep an input
// for their backward pass hold on to the pointer they were given, so callers
// must not mutate a volume after handing it to a layer.
type Volume struct {
	shape Shape
	data  []float64
}

// NewVolume allocates a zero-valued volume.
//
// Panics if the shape has a non-positive extent.
func NewVolume(shape Shape) *Volume {
	if err := shape.Validate(); err != nil {
		panic(fmt.Sprintf("tensor: NewVolume: %v", err))
	}
	return &Volume{
		shape: shape,
		data:  make([]float64, shape.NumElements()),
	}
}

// FromSlice creates a volume from a flat slice in Index order.
// The slice is copied.
func FromSlice(data []float64, shape Shape) (*Volume, error) {
	if err := shape.Validate(); err != nil {
		return nil, err
	}
	if shape.NumElements() != len(data) {
		return nil, fmt.Errorf("shape %v requires %d elements, but got %d", shape, shape.NumElements(), len(data))
	}
	v := &Volume{shape: shape, data: make([]float64, len(data))}
	copy(v.data, data)
	return v, nil
}

// Wrap creates a volume that shares data. len(data) must match the shape.
func Wrap(data []float64, shape Shape) *Volume {
	if shape.NumElements() != len(data) {
		panic(fmt.Sprintf("tensor: Wrap: shape %v requires %d elements, but got %d", shape, shape.NumElements(), len(data)))
	}
	return &Volume{shape: shape, data: data}
}

// Shape returns the volume's extent.
func (v *Volume) Shape() Shape {
	return v.shape
}

// Data returns the backing slice in Index order.
func (v *Volume) Data() []float64 {
	return v.data
}

// Len returns the number of elements.
func (v *Volume) Len() int {
	return len(v.data)
}

// At returns the element at (i, j, k). Coordinates must be in range.
func (v *Volume) At(i, j, k int) float64 {
	return v.data[v.shape.Index(i, j, k)]
}

// Set stores x at (i, j, k). Coordinates must be in range.
func (v *Volume) Set(i, j, k int, x float64) {
	v.data[v.shape.Index(i, j, k)] = x
}

// Add adds x to the element at (i, j, k).
func (v *Volume) Add(i, j, k int, x float64) {
	v.data[v.shape.Index(i, j, k)] += x
}

// AtOrZero returns the element at (i, j, k), or 0 when the coordinate lies
// outside the volume. Convolution and pooling rely on this for implicit zero
// padding.
func (v *Volume) AtOrZero(i, j, k int) float64 {
	if !v.shape.Contains(i, j, k) {
		return 0
	}
	return v.data[v.shape.Index(i, j, k)]
}

// AtOr returns the element at (i, j, k), or def when out of range.
func (v *Volume) AtOr(i, j, k int, def float64) float64 {
	if !v.shape.Contains(i, j, k) {
		return def
	}
	return v.data[v.shape.Index(i, j, k)]
}

// Contains reports whether (i, j, k) is inside the volume.
func (v *Volume) Contains(i, j, k int) bool {
	return v.shape.Contains(i, j, k)
}

// Clone returns a deep copy.
func (v *Volume) Clone() *Volume {
	data := make([]float64, len(v.data))
	copy(data, v.data)
	return &Volume{shape: v.shape, data: data}
}

// Flatten returns a copy of the elements as a vector in Index order.
func (v *Volume) Flatten() []float64 {
	out := make([]float64, len(v.data))
	copy(out, v.data)
	return out
}

// Reshape returns a volume sharing the same data with a new shape of equal size.
func (v *Volume) Reshape(shape Shape) *Volume {
	return Wrap(v.data, shape)
}

// Zero sets every element to 0.
func (v *Volume) Zero() {
	clear(v.data)
}

// String returns a short description of the volume.
func (v *Volume) String() string {
	return fmt.Sprintf("Volume(%v)", v.shape)
}
