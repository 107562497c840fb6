// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package nn

import (
	"math/rand"

	"github.com/born-ml/convnet/internal/activation"
	"github.com/born-ml/convnet/internal/nn"
	"github.com/born-ml/convnet/tensor"
)

// Activations

// Activation identifies the nonlinearity applied by a Dense or Conv layer.
type Activation = activation.Kind

// Supported activations.
const (
	Sigmoid  Activation = activation.Sigmoid
	ReLU     Activation = activation.ReLU
	Identity Activation = activation.Identity
)

// ParseActivation converts "sigmoid", "relu" or "identity" into an Activation.
func ParseActivation(s string) (Activation, error) {
	return activation.ParseKind(s)
}

// Layer configuration

// LayerType identifies a layer variant.
type LayerType = nn.LayerType

// Layer variants.
const (
	DenseLayer LayerType = nn.DenseLayer
	ConvLayer  LayerType = nn.ConvLayer
	PoolLayer  LayerType = nn.PoolLayer
)

// PoolKind selects the pooling reduction.
type PoolKind = nn.PoolKind

// Pooling reductions.
const (
	MaxPool PoolKind = nn.MaxPool
	AvgPool PoolKind = nn.AvgPool
)

// LayerConfig is the immutable description of one layer.
//
// Input and Output shapes are filled in when the configuration is resolved
// against the previous layer, which NewNetwork does for every layer.
type LayerConfig = nn.LayerConfig

// DenseConfig describes a fully connected layer.
//
// Example:
//
//	cfg := nn.DenseConfig(10, nn.Sigmoid) // 10 sigmoid units
func DenseConfig(units int, act Activation) LayerConfig {
	return nn.DenseConfig(units, act)
}

// ConvConfig describes a convolutional layer.
//
// Each kernel is a (2*radius-1)² window. With pad >= radius-1 the output keeps
// the input's width and height; otherwise it shrinks by 2*(radius-1-pad) per
// axis. The output depth is the input depth times kernels.
//
// Example:
//
//	cfg := nn.ConvConfig(3, 4, 0, nn.ReLU) // 5x5 kernels, 4 of them, no padding
func ConvConfig(radius, kernels, pad int, act Activation) LayerConfig {
	return nn.ConvConfig(radius, kernels, pad, act)
}

// PoolConfig describes a pooling layer.
//
// Example:
//
//	cfg := nn.PoolConfig(2, 2, nn.MaxPool) // 2x2 windows, stride 2
func PoolConfig(size, stride int, kind PoolKind) LayerConfig {
	return nn.PoolConfig(size, stride, kind)
}

// Errors

// ConfigError describes why a layer configuration was rejected.
type ConfigError = nn.ConfigError

// Sentinel errors wrapped by configuration and state dict failures.
var (
	ErrInvalidConfig = nn.ErrInvalidConfig
	ErrShapeMismatch = nn.ErrShapeMismatch
	ErrNotFlat       = nn.ErrNotFlat
	ErrEmptyNetwork  = nn.ErrEmptyNetwork
	ErrStateDict     = nn.ErrStateDict
)

// Network

// Network is an ordered, shape-checked stack of layers.
type Network = nn.Network

// Option configures NewNetwork.
type Option = nn.Option

// WithBatchSlots sets how many examples can be evaluated before a backward
// pass. Defaults to 1.
func WithBatchSlots(n int) Option {
	return nn.WithBatchSlots(n)
}

// WithRand sets the source used for parameter initialization.
func WithRand(rng *rand.Rand) Option {
	return nn.WithRand(rng)
}

// NewNetwork builds a network for inputs of the given shape.
//
// Every configuration is resolved against the output of the layer before it.
// The first mismatch is returned as a *ConfigError carrying the layer index.
//
// Parameters:
//   - input: Shape of one example
//   - configs: Layer configurations, first to last
//   - opts: Batch slots and random source
//
// Returns the network or a configuration error.
//
// Example:
//
//	net, err := nn.NewNetwork(tensor.NewShape(28, 28, 1), []nn.LayerConfig{
//	    nn.ConvConfig(3, 4, 0, nn.ReLU),
//	    nn.PoolConfig(2, 2, nn.MaxPool),
//	    nn.DenseConfig(10, nn.Sigmoid),
//	}, nn.WithBatchSlots(16))
func NewNetwork(input tensor.Shape, configs []LayerConfig, opts ...Option) (*Network, error) {
	return nn.NewNetwork(input, configs, opts...)
}

// Stack builds a network from existing layers, checking that each layer's
// input matches the previous layer's output.
func Stack(slots int, layers ...Layer) (*Network, error) {
	return nn.Stack(slots, layers...)
}

// Snapshot is the serializable form of a network.
type Snapshot = nn.Snapshot

// FromSnapshot rebuilds a network from a snapshot.
func FromSnapshot(s Snapshot) (*Network, error) {
	return nn.FromSnapshot(s)
}
