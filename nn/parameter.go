// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package nn

import (
	"math/rand"

	"github.com/born-ml/convnet/internal/nn"
)

// Parameter is a named view of one trainable array of a layer.
//
// Parameters share storage with their layer, so writing to Data changes the
// layer. Dense layers expose "weight" and "bias"; Conv layers expose
// "kernels". Pool layers have none.
//
// Example:
//
//	for _, p := range net.Layer(0).Parameters() {
//	    fmt.Println(p.Name, p.Shape, len(p.Data))
//	}
//
// Fields:
//
//	Name string
//	    Parameter name within its layer (e.g., "weight", "kernels").
//
//	Data []float64
//	    Parameter values, shared with the layer.
//
//	Shape []int
//	    Logical dimensions of Data.
type Parameter = nn.Parameter

// NewParameter wraps data as a named parameter. data is not copied.
func NewParameter(name string, data []float64, shape ...int) *Parameter {
	return nn.NewParameter(name, data, shape...)
}

// Initialization

// Xavier fills data with Xavier/Glorot uniform values for a layer with the
// given fan-in and fan-out.
//
// Example:
//
//	w := make([]float64, 784*128)
//	nn.Xavier(rand.New(rand.NewSource(1)), 784, 128, w)
func Xavier(rng *rand.Rand, fanIn, fanOut int, data []float64) {
	nn.Xavier(rng, fanIn, fanOut, data)
}

// Zeros clears data.
func Zeros(data []float64) {
	nn.Zeros(data)
}
