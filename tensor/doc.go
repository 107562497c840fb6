// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package tensor provides the volumes exchanged between network layers.
//
// # Overview
//
// A Volume is a dense width × height × depth array of float64 values stored
// width-fastest: element (i, j, k) lives at i + j*width + k*width*height. Dense
// layers work on flat volumes of shape {n, 1, 1}; convolution and pooling
// layers keep the spatial axes.
//
// # Basic Usage
//
//	import "github.com/born-ml/convnet/tensor"
//
//	func main() {
//	    img := tensor.NewVolume(tensor.NewShape(28, 28, 1))
//	    img.Set(14, 14, 0, 1.0)
//
//	    // Out-of-range reads are zero, which is how padding is expressed
//	    _ = img.AtOrZero(-1, 0, 0)
//	}
//
// # Footprints
//
// The derivative of one layer output with respect to the layer input is
// non-zero only inside a small box: the kernel window of a convolution, the
// pooling window, or the whole input for a dense layer. Footprint describes
// that box and Patch stores values over it, so the backward pass touches only
// the elements that matter.
//
// # Errors
//
// Scalar helpers such as MSE expect equal-length inputs and panic otherwise.
// FromSlice returns an error for a length mismatch.
package tensor
