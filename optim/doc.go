// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package optim provides optimization algorithms for training convnet models.
//
// # Overview
//
// This package contains:
//   - SGD: Gradient descent with momentum
//   - Optimizer interface for custom optimizers
//
// # Basic Usage
//
//	import (
//	    "github.com/born-ml/convnet/nn"
//	    "github.com/born-ml/convnet/optim"
//	)
//
//	func main() {
//	    net, _ := nn.NewNetwork(tensor.Flat(2), []nn.LayerConfig{
//	        nn.DenseConfig(3, nn.Sigmoid),
//	        nn.DenseConfig(1, nn.Sigmoid),
//	    })
//
//	    optimizer := optim.NewSGD(net, optim.SGDConfig{
//	        LR:       0.5,
//	        Momentum: 0.9,
//	    })
//
//	    // One update per layer per cycle, with that layer's summed gradient
//	    for l := range net.Layers() {
//	        optimizer.Step(l, grads[l])
//	    }
//	}
//
// # SGD with Momentum
//
// Velocity accumulates the gradient across cycles:
//
//	v = grad + momentum*v
//	param = param - lr*v
//
// With Momentum 0 this reduces to plain gradient descent.
//
// # Learning Rate
//
// SetLR changes the rate between steps. The trainer uses it for the adaptive
// rate, which scales the base rate by the running error:
//
//	optimizer.SetLR(base * factor)
//
// # Checkpoints
//
// StateDict and LoadStateDict export and restore the velocity buffers, keyed
// "velocity.<layer>.<param>", so training can resume from a saved model.
package optim
