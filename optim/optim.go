// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package optim

import (
	"github.com/born-ml/convnet/internal/nn"
	"github.com/born-ml/convnet/internal/optim"
)

// Optimizer interface defines the common interface for all optimizers.
type Optimizer = optim.Optimizer

// Config represents the base configuration for optimizers.
type Config = optim.Config

// SGD (Stochastic Gradient Descent)

// SGD represents the SGD optimizer with optional momentum.
type SGD = optim.SGD

// SGDConfig contains configuration for SGD optimizer.
type SGDConfig = optim.SGDConfig

// NewSGD creates a new SGD optimizer for every layer of net.
//
// Example:
//
//	optimizer := optim.NewSGD(net, optim.SGDConfig{
//	    LR:       0.5,
//	    Momentum: 0.9,
//	})
func NewSGD(net *nn.Network, config SGDConfig) *SGD {
	return optim.NewSGD(net, config)
}
