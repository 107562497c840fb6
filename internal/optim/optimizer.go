// Package optim implements the parameter update applied at the end of every
// training cycle.
//
// This package provides:
//   - Optimizer interface: Base interface for layer-wise optimizers
//   - SGD: Gradient descent with optional momentum
//
// Gradients arrive as layer values shaped like the layer they belong to (see
// nn.Layer.ZeroCopy), already summed over output units and scaled by the
// derivative of the loss.
//
// Example usage:
//
//	optimizer := optim.NewSGD(net, optim.SGDConfig{LR: 0.5, Momentum: 0.9})
//
//	for cycle := range cycles {
//	    // ... forward and backward passes ...
//	    for l := range net.Layers() {
//	        optimizer.Step(l, driver.Sum(l, scale))
//	    }
//	}
package optim

import "github.com/born-ml/convnet/internal/nn"

// Optimizer is the base interface for all optimization algorithms.
//
// All optimizers must implement:
//   - Step: Apply the gradient of one layer to that layer
//   - GetLR: Get current learning rate (for monitoring/scheduling)
type Optimizer interface {
	// Step updates layer l of the network from grad. grad must be a value
	// returned by ZeroCopy on that layer (or accumulated into one).
	//
	// Step also clears the layer's forward caches.
	Step(l int, grad nn.Layer)

	// GetLR returns the current learning rate.
	GetLR() float64
}

// Config is the base configuration for all optimizers.
type Config struct {
	LR float64 // Learning rate
}
