package nn

import (
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/born-ml/convnet/internal/tensor"
)

// Network is an ordered stack of layers forming a single pipeline.
//
// The output shape of layer n equals the input shape of layer n+1. This is
// checked once at construction; a Network value that exists is consistent.
//
// Example:
//
//	net, err := nn.NewNetwork(tensor.Flat(2), []nn.LayerConfig{
//	    nn.DenseConfig(3, activation.Sigmoid),
//	    nn.DenseConfig(1, activation.Sigmoid),
//	}, nn.WithRand(rand.New(rand.NewSource(1))))
//	if err != nil {
//	    log.Fatal(err)
//	}
//	y := net.Predict([]float64{0, 1})
type Network struct {
	input  tensor.Shape
	layers []Layer
	slots  int
}

type options struct {
	slots int
	rng   *rand.Rand
}

// Option configures NewNetwork.
type Option func(*options)

// WithBatchSlots sets how many forward passes each layer can cache at once.
// The default is 1.
func WithBatchSlots(n int) Option {
	return func(o *options) {
		o.slots = n
	}
}

// WithRand sets the random source used to initialize parameters.
func WithRand(rng *rand.Rand) Option {
	return func(o *options) {
		o.rng = rng
	}
}

// NewNetwork resolves every configuration against the output of the layer
// before it and builds the layers.
//
// The first invalid configuration aborts construction. The returned error is
// a *ConfigError carrying the index of the offending layer.
func NewNetwork(input tensor.Shape, configs []LayerConfig, opts ...Option) (*Network, error) {
	o := options{slots: 1}
	for _, opt := range opts {
		opt(&o)
	}
	if o.slots <= 0 {
		return nil, fmt.Errorf("nn: batch slots must be positive, got %d: %w", o.slots, ErrInvalidConfig)
	}
	if len(configs) == 0 {
		return nil, ErrEmptyNetwork
	}
	if err := input.Validate(); err != nil {
		return nil, fmt.Errorf("nn: network input %v: %w", input, ErrInvalidConfig)
	}
	if o.rng == nil {
		//nolint:gosec // Parameter initialization is not security-critical.
		o.rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}

	resolved := make([]LayerConfig, len(configs))
	shape := input
	for i, cfg := range configs {
		r, err := cfg.Resolve(shape)
		if err != nil {
			return nil, atLayer(err, i)
		}
		resolved[i] = r
		shape = r.Output
	}

	layers := make([]Layer, len(resolved))
	for i, cfg := range resolved {
		layers[i] = NewLayer(cfg, o.slots, o.rng)
	}
	return &Network{input: input, layers: layers, slots: o.slots}, nil
}

// NewLayer builds the layer variant cfg describes. cfg must be resolved.
func NewLayer(cfg LayerConfig, slots int, rng *rand.Rand) Layer {
	switch cfg.Type {
	case DenseLayer:
		return NewDense(cfg, slots, rng)
	case ConvLayer:
		return NewConv(cfg, slots, rng)
	case PoolLayer:
		return NewPool(cfg, slots)
	default:
		panic(fmt.Sprintf("nn: unsupported layer type %v", cfg.Type))
	}
}

// Stack assembles already built layers into a Network after checking that
// their shapes chain. All layers must have been built with the same number of
// batch slots, given here.
func Stack(slots int, layers ...Layer) (*Network, error) {
	if slots <= 0 {
		return nil, fmt.Errorf("nn: batch slots must be positive, got %d: %w", slots, ErrInvalidConfig)
	}
	if len(layers) == 0 {
		return nil, ErrEmptyNetwork
	}
	for i, l := range layers {
		if c, ok := l.(slotted); ok && c.batchSlots() != slots {
			return nil, &ConfigError{
				Layer:   i,
				Type:    l.Config().Type,
				Err:     ErrInvalidConfig,
				Details: fmt.Sprintf("built with %d batch slots, network uses %d", c.batchSlots(), slots),
			}
		}
	}
	for i := 1; i < len(layers); i++ {
		prev, cur := layers[i-1].Config(), layers[i].Config()
		if prev.Output != cur.Input {
			return nil, &ConfigError{
				Layer:   i,
				Type:    cur.Type,
				Err:     ErrShapeMismatch,
				Details: fmt.Sprintf("input %v, previous layer produces %v", cur.Input, prev.Output),
			}
		}
	}
	return &Network{input: layers[0].Config().Input, layers: layers, slots: slots}, nil
}

// Evaluate runs x through every layer, caching the forward pass at slot, and
// returns the flattened output.
//
// Panics if len(x) differs from NumInputs.
func (n *Network) Evaluate(x []float64, slot int) []float64 {
	if len(x) != n.NumInputs() {
		panic(fmt.Sprintf("nn: network expects %d inputs, got %d", n.NumInputs(), len(x)))
	}
	v, err := tensor.FromSlice(x, n.input)
	if err != nil {
		panic(fmt.Sprintf("nn: %v", err))
	}
	for _, l := range n.layers {
		v = l.Evaluate(v, slot)
	}
	return v.Flatten()
}

// Predict evaluates x without touching any cache.
func (n *Network) Predict(x []float64) []float64 {
	return n.Evaluate(x, NoCache)
}

// ClearCaches drops the cached forward passes of every layer.
func (n *Network) ClearCaches() {
	for _, l := range n.layers {
		l.ClearCache()
	}
}

// Layers returns the layers in evaluation order. The slice is shared.
func (n *Network) Layers() []Layer {
	return n.layers
}

// Layer returns layer i.
func (n *Network) Layer(i int) Layer {
	return n.layers[i]
}

// Len returns the number of layers.
func (n *Network) Len() int {
	return len(n.layers)
}

// BatchSlots returns the number of forward passes each layer can cache.
func (n *Network) BatchSlots() int {
	return n.slots
}

// InputShape returns the shape the first layer expects.
func (n *Network) InputShape() tensor.Shape {
	return n.input
}

// OutputShape returns the shape the last layer produces.
func (n *Network) OutputShape() tensor.Shape {
	return n.layers[len(n.layers)-1].Config().Output
}

// NumInputs returns the length of the vectors Evaluate accepts.
func (n *Network) NumInputs() int {
	return n.input.NumElements()
}

// NumOutputs returns the length of the vectors Evaluate returns.
func (n *Network) NumOutputs() int {
	return n.OutputShape().NumElements()
}

// NumParams returns the number of trainable scalars across all layers.
func (n *Network) NumParams() int {
	total := 0
	for _, l := range n.layers {
		total += l.NumParams()
	}
	return total
}

// Configs returns the resolved configuration of every layer.
func (n *Network) Configs() []LayerConfig {
	cfgs := make([]LayerConfig, len(n.layers))
	for i, l := range n.layers {
		cfgs[i] = l.Config()
	}
	return cfgs
}

// String returns one line per layer with its shapes.
func (n *Network) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Network(input=%v, params=%d)\n", n.input, n.NumParams())
	for i, l := range n.layers {
		cfg := l.Config()
		fmt.Fprintf(&b, "  %d: %v %v -> %v\n", i, cfg, cfg.Input, cfg.Output)
	}
	return b.String()
}
