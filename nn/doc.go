// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package nn provides the layers and the layer stack of the convnet engine.
//
// # Overview
//
// This package contains:
//   - Layers: Dense, Conv, Pool
//   - Activations: Sigmoid, ReLU, Identity
//   - Utilities: Network, LayerConfig, Layer interface, Parameter
//   - Initialization: Xavier, Zeros
//
// # Basic Usage
//
//	import (
//	    "github.com/born-ml/convnet/nn"
//	    "github.com/born-ml/convnet/tensor"
//	)
//
//	func main() {
//	    // Build a small LeNet-style model
//	    net, err := nn.NewNetwork(tensor.NewShape(28, 28, 1), []nn.LayerConfig{
//	        nn.ConvConfig(3, 4, 0, nn.ReLU),
//	        nn.PoolConfig(2, 2, nn.MaxPool),
//	        nn.DenseConfig(10, nn.Sigmoid),
//	    })
//	    if err != nil {
//	        log.Fatal(err)
//	    }
//
//	    // Forward pass
//	    output := net.Predict(pixels)
//	}
//
// # Layers
//
// Dense: Fully connected layer with Xavier initialization
//
//	cfg := nn.DenseConfig(units, nn.Sigmoid)
//
// Conv: Convolution with (2*radius-1)² kernels applied to every input channel
//
//	cfg := nn.ConvConfig(radius, kernels, pad, nn.ReLU)
//
// Pool: Max or average pooling
//
//	cfg := nn.PoolConfig(size, stride, nn.MaxPool)
//
// # Training
//
// Layers do not compute their own backward pass. They expose the derivative
// of each output element with respect to their input and parameters, and the
// trainer in package train combines those through the whole stack.
//
// # Parameter Management
//
// Access parameters for inspection or serialization:
//
//	for i, layer := range net.Layers() {
//	    for _, p := range layer.Parameters() {
//	        fmt.Println(i, p.Name, p.Shape)
//	    }
//	}
//
//	state := net.StateDict() // "0.weight", "0.bias", "1.kernels", ...
package nn
