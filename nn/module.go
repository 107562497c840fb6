// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package nn

import (
	"math/rand"

	"github.com/born-ml/convnet/internal/nn"
	"github.com/born-ml/convnet/internal/serialization"
)

// Layer is the base interface for all network layers.
//
// Every layer variant implements:
//   - Evaluate: Compute the output volume and cache what backprop needs
//   - InputGradient: Derivative of one output element with respect to the input
//   - AccumulateGradientAt: Derivative of one output element with respect to the parameters
//   - CombineScale, ZeroCopy, Train: Gradient accumulator arithmetic
//
// A Layer returned by ZeroCopy has the parameter shapes of its source, starts at
// zero and holds no caches; the backprop driver uses such copies as gradient
// accumulators.
//
// Note: Layer is a type alias so that layers built through this package and
// layers returned by Network.Layers are interchangeable.
type Layer = nn.Layer

// NoCache is the batch slot used for inference. Evaluating with NoCache leaves
// every forward cache untouched.
const NoCache = nn.NoCache

// Dense is a fully connected layer: out = act(W·x + b).
type Dense = nn.Dense

// Conv is a convolutional layer applying every kernel to every input channel.
type Conv = nn.Conv

// Pool is a max or average pooling layer without parameters.
type Pool = nn.Pool

// NewLayer creates the layer variant described by cfg, which must be resolved.
//
// Parameters:
//   - cfg: Resolved layer configuration (see LayerConfig.Resolve)
//   - slots: Number of forward caches, one per example of a batch
//   - rng: Source for Xavier initialization of weights and kernels
//
// Returns the new layer. Panics if cfg is not resolved.
func NewLayer(cfg LayerConfig, slots int, rng *rand.Rand) Layer {
	return nn.NewLayer(cfg, slots, rng)
}

// Save writes the network's topology and parameters to a .born file.
//
// Parameters:
//   - net: Network to save
//   - path: File path (conventionally ending in .born)
//   - metadata: Optional annotations stored in the header (can be nil)
//
// Example:
//
//	err := nn.Save(net, "xor.born", map[string]string{"dataset": "xor"})
func Save(net *Network, path string, metadata map[string]string) error {
	return serialization.Save(path, &serialization.Model{
		Network:  net.Snapshot(),
		Metadata: metadata,
	})
}

// Load rebuilds a network from a .born file written by Save.
//
// The file's checksum and tensor table are verified before any parameter is
// read. Returns the network and the header metadata.
//
// Example:
//
//	net, meta, err := nn.Load("xor.born")
func Load(path string) (*Network, map[string]string, error) {
	m, err := serialization.Load(path)
	if err != nil {
		return nil, nil, err
	}
	net, err := m.Build()
	if err != nil {
		return nil, nil, err
	}
	return net, m.Metadata, nil
}
