package nn

import (
	"fmt"
	"math/rand"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/born-ml/convnet/internal/activation"
	"github.com/born-ml/convnet/internal/tensor"
)

// Dense implements a fully connected layer.
//
// Performs the transformation: y = act(A·x + b)
// where:
//   - x is the input volume read as a flat vector of n elements
//   - A is the weight matrix with shape [units, n]
//   - b is the bias vector with shape [units]
//   - y is a flat volume {units, 1, 1}
//
// Weights are initialized using Xavier/Glorot initialization.
// Biases are initialized to zeros.
//
// Example:
//
//	cfg, _ := nn.DenseConfig(3, activation.Sigmoid).Resolve(tensor.Flat(2))
//	layer := nn.NewDense(cfg, 1, rand.New(rand.NewSource(1)))
//	y := layer.Evaluate(x, 0) // shape: 3x1x1
type Dense struct {
	cfg     LayerConfig
	weights *mat.Dense // [units, inputs]
	bias    []float64  // [units]
	cache   slotCache
}

// NewDense creates a Dense layer from a resolved configuration.
//
// Parameters:
//   - cfg: Resolved configuration (see LayerConfig.Resolve)
//   - slots: Number of batch slots to cache forward passes for
//   - rng: Random source for weight initialization
//
// Returns a new Dense layer. Panics if cfg is not a valid dense configuration.
func NewDense(cfg LayerConfig, slots int, rng *rand.Rand) *Dense {
	if cfg.Type != DenseLayer {
		panic(fmt.Sprintf("nn: NewDense called with %v configuration", cfg.Type))
	}
	if err := cfg.Validate(); err != nil {
		panic(err)
	}

	d := newDense(cfg, slots)
	Xavier(rng, d.inputs(), cfg.Units, d.weights.RawMatrix().Data)
	Zeros(d.bias)
	return d
}

func newDense(cfg LayerConfig, slots int) *Dense {
	return &Dense{
		cfg:     cfg,
		weights: mat.NewDense(cfg.Units, cfg.Input.NumElements(), nil),
		bias:    make([]float64, cfg.Units),
		cache:   newSlotCache(slots),
	}
}

func (d *Dense) inputs() int {
	return d.cfg.Input.NumElements()
}

// Config returns the layer configuration.
func (d *Dense) Config() LayerConfig {
	return d.cfg
}

func (d *Dense) batchSlots() int {
	return d.cache.slots()
}

// Weights returns the weight matrix. Changes to it change the layer.
func (d *Dense) Weights() *mat.Dense {
	return d.weights
}

// Bias returns the bias vector. Changes to it change the layer.
func (d *Dense) Bias() []float64 {
	return d.bias
}

// Evaluate computes act(A·x + b).
func (d *Dense) Evaluate(x *tensor.Volume, slot int) *tensor.Volume {
	checkInput(d.cfg, x)

	pre := tensor.Affine(d.weights, d.bias, x.Data())
	out := make([]float64, d.cfg.Units)
	prime := make([]float64, d.cfg.Units)
	activation.Apply(d.cfg.Activation, pre, out, prime)

	d.cache.store(slot, x, tensor.Wrap(prime, d.cfg.Output))
	return tensor.Wrap(out, d.cfg.Output)
}

// InputGradient returns prime[i] * A[i, :] over the whole input.
//
// Dense layers have no spatial locality, so the footprint is the full input.
func (d *Dense) InputGradient(i, j, k, slot int) *tensor.Patch {
	_, prime := d.cache.load(slot)
	unit := d.cfg.Output.Index(i, j, k)

	p := tensor.NewPatch(tensor.FullFootprint(d.cfg.Input))
	floats.ScaleTo(p.Values.Data(), prime.Data()[unit], d.weights.RawRowView(unit))
	return p
}

// AccumulateGradientAt adds scale * prime[i] * x to row i of recv's weights
// and scale * prime[i] to its bias i.
func (d *Dense) AccumulateGradientAt(recv Layer, i, j, k, slot int, scale float64) {
	r := sameVariant(d, recv)
	x, prime := d.cache.load(slot)
	unit := d.cfg.Output.Index(i, j, k)

	s := scale * prime.Data()[unit]
	if s == 0 {
		return
	}
	floats.AddScaled(r.weights.RawRowView(unit), s, x.Data())
	r.bias[unit] += s
}

// CombineScale performs d += other * scale.
func (d *Dense) CombineScale(other Layer, scale float64) {
	o := sameVariant(d, other)
	floats.AddScaled(d.weights.RawMatrix().Data, scale, o.weights.RawMatrix().Data)
	floats.AddScaled(d.bias, scale, o.bias)
}

// ZeroCopy returns a zero-valued Dense layer with the same shapes and no caches.
func (d *Dense) ZeroCopy() Layer {
	return newDense(d.cfg, 0)
}

// Train applies every gradient scaled by rate and clears the caches.
func (d *Dense) Train(grads []Layer, rate float64) {
	for _, g := range grads {
		d.CombineScale(g, rate)
	}
	d.cache.clear()
}

// ClearCache drops every cached forward pass.
func (d *Dense) ClearCache() {
	d.cache.clear()
}

// NumParams returns units*inputs + units.
func (d *Dense) NumParams() int {
	return countParams(d.Parameters())
}

// Parameters returns [weight, bias].
func (d *Dense) Parameters() []*Parameter {
	return []*Parameter{
		NewParameter("weight", d.weights.RawMatrix().Data, d.cfg.Units, d.inputs()),
		NewParameter("bias", d.bias, d.cfg.Units),
	}
}
