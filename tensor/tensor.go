// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package tensor provides the public API for the volumes that flow between layers.
//
// The package defines the core value types:
//   - Shape: width × height × depth extent of a volume
//   - Volume: dense float64 storage indexed by (i, j, k)
//   - Footprint, Patch: sparse input-gradient regions
//
// Example:
//
//	v := tensor.NewVolume(tensor.NewShape(28, 28, 1))
//	v.Set(3, 4, 0, 0.5)
//	flat := v.Flatten()
package tensor

import (
	"github.com/born-ml/convnet/internal/tensor"
)

// Type aliases for public API

// Shape represents the dimensions of a volume.
// Example: Shape{28, 28, 1} is a single-channel 28×28 image.
type Shape = tensor.Shape

// Volume is a dense three-dimensional array of float64 values.
type Volume = tensor.Volume

// Range is an inclusive interval [Lo, Hi] of coordinates along one axis.
type Range = tensor.Range

// Footprint is the box of input coordinates an output element depends on.
type Footprint = tensor.Footprint

// Patch holds values over a Footprint. Reads outside it return zero.
type Patch = tensor.Patch

// Shape constructors

// NewShape creates a shape with the given extents.
//
// Example:
//
//	s := tensor.NewShape(28, 28, 1)
//	fmt.Println(s.NumElements()) // 784
func NewShape(width, height, depth int) Shape {
	return tensor.NewShape(width, height, depth)
}

// Flat creates the shape of a vector of n elements: {n, 1, 1}.
func Flat(n int) Shape {
	return tensor.Flat(n)
}

// Volume constructors

// NewVolume creates a zero-filled volume.
func NewVolume(shape Shape) *Volume {
	return tensor.NewVolume(shape)
}

// FromSlice copies data into a new volume. It fails when len(data) does not
// match the shape.
//
// Example:
//
//	v, err := tensor.FromSlice([]float64{1, 2, 3, 4}, tensor.NewShape(2, 2, 1))
func FromSlice(data []float64, shape Shape) (*Volume, error) {
	return tensor.FromSlice(data, shape)
}

// Wrap creates a volume backed by data without copying.
func Wrap(data []float64, shape Shape) *Volume {
	return tensor.Wrap(data, shape)
}

// Vector operations

// Dot returns the inner product of a and x.
func Dot(a, x []float64) float64 {
	return tensor.Dot(a, x)
}

// ArgMax returns the index of the largest element of x.
func ArgMax(x []float64) int {
	return tensor.ArgMax(x)
}

// MSE returns the mean squared error between guess and target.
func MSE(guess, target []float64) float64 {
	return tensor.MSE(guess, target)
}

// MSEIndex returns the mean squared error between guess and the one-hot
// vector with a 1 at correct.
func MSEIndex(guess []float64, correct int) float64 {
	return tensor.MSEIndex(guess, correct)
}

// OneHot returns a vector of n zeros with a 1 at i.
func OneHot(n, i int) []float64 {
	return tensor.OneHot(n, i)
}
