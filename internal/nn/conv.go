package nn

import (
	"fmt"
	"math/rand"

	"gonum.org/v1/gonum/floats"

	"github.com/born-ml/convnet/internal/activation"
	"github.com/born-ml/convnet/internal/tensor"
)

// Conv is a convolutional layer with a bank of square kernels and no bias.
//
// Every kernel is cross-correlated with every input channel separately:
// output channel n + k*Kernels is kernel n applied to input channel k, so the
// output depth is the input depth times the number of kernels.
//
// Kernels have side 2*Radius-1. Output position (i, j) reads the window
// centred at input position (i-ConvMod, j-ConvMod); reads outside the input
// are zero.
//
// Example:
//
//	// 3x3 kernels, 4 of them, keeping the spatial extent
//	cfg, _ := nn.ConvConfig(2, 4, 1, activation.ReLU).Resolve(tensor.NewShape(28, 28, 1))
//	conv := nn.NewConv(cfg, 1, rng) // output: 28x28x4
type Conv struct {
	cfg     LayerConfig
	side    int
	kernels []float64 // [Kernels][side][side], ci fastest
	cache   slotCache
}

// NewConv creates a Conv layer from a resolved configuration.
//
// Parameters:
//   - cfg: Resolved configuration (see LayerConfig.Resolve)
//   - slots: Number of batch slots to cache forward passes for
//   - rng: Random source for kernel initialization
//
// Returns a new Conv layer. Panics if cfg is not a valid conv configuration.
func NewConv(cfg LayerConfig, slots int, rng *rand.Rand) *Conv {
	if cfg.Type != ConvLayer {
		panic(fmt.Sprintf("nn: NewConv called with %v configuration", cfg.Type))
	}
	if err := cfg.Validate(); err != nil {
		panic(err)
	}

	c := newConv(cfg, slots)
	area := c.side * c.side
	Xavier(rng, area, area*cfg.Kernels, c.kernels)
	return c
}

func newConv(cfg LayerConfig, slots int) *Conv {
	side := cfg.Window()
	return &Conv{
		cfg:     cfg,
		side:    side,
		kernels: make([]float64, side*side*cfg.Kernels),
		cache:   newSlotCache(slots),
	}
}

// Config returns the layer configuration.
func (c *Conv) Config() LayerConfig {
	return c.cfg
}

func (c *Conv) batchSlots() int {
	return c.cache.slots()
}

// Kernel returns the weight of kernel n at window offset (ci, cj), both in
// [0, 2*Radius-1).
func (c *Conv) Kernel(ci, cj, n int) float64 {
	return c.kernels[c.kidx(ci, cj, n)]
}

// SetKernel sets the weight of kernel n at window offset (ci, cj).
func (c *Conv) SetKernel(ci, cj, n int, w float64) {
	c.kernels[c.kidx(ci, cj, n)] = w
}

func (c *Conv) kidx(ci, cj, n int) int {
	return ci + cj*c.side + n*c.side*c.side
}

// origin returns the input coordinate under kernel offset (0, 0) for output
// position (i, j).
func (c *Conv) origin(i, j int) (int, int) {
	r := c.cfg.Radius - 1
	m := c.cfg.ConvMod()
	return i - m - r, j - m - r
}

// window returns the input footprint read by output element (i, j, k),
// clipped to the input extent.
func (c *Conv) window(i, j, k int) tensor.Footprint {
	oi, oj := c.origin(i, j)
	xk := k / c.cfg.Kernels
	return tensor.Footprint{
		I: tensor.Range{Lo: oi, Hi: oi + c.side - 1},
		J: tensor.Range{Lo: oj, Hi: oj + c.side - 1},
		K: tensor.Range{Lo: xk, Hi: xk},
	}.Clip(c.cfg.Input)
}

// Evaluate cross-correlates every kernel with every input channel.
func (c *Conv) Evaluate(x *tensor.Volume, slot int) *tensor.Volume {
	checkInput(c.cfg, x)

	out := tensor.NewVolume(c.cfg.Output)
	pre := out.Data()
	nk := c.cfg.Kernels
	for k := 0; k < c.cfg.Input.Depth(); k++ {
		for n := 0; n < nk; n++ {
			ok := n + k*nk
			for j := 0; j < c.cfg.Output.Height(); j++ {
				for i := 0; i < c.cfg.Output.Width(); i++ {
					pre[c.cfg.Output.Index(i, j, ok)] = c.correlate(x, i, j, k, n)
				}
			}
		}
	}

	prime := tensor.NewVolume(c.cfg.Output)
	activation.Apply(c.cfg.Activation, pre, pre, prime.Data())

	c.cache.store(slot, x, prime)
	return out
}

func (c *Conv) correlate(x *tensor.Volume, i, j, k, n int) float64 {
	oi, oj := c.origin(i, j)
	var sum float64
	for cj := 0; cj < c.side; cj++ {
		for ci := 0; ci < c.side; ci++ {
			sum += x.AtOrZero(oi+ci, oj+cj, k) * c.kernels[c.kidx(ci, cj, n)]
		}
	}
	return sum
}

// InputGradient returns prime * kernel over the window of output (i, j, k),
// in the single input channel that output channel reads.
func (c *Conv) InputGradient(i, j, k, slot int) *tensor.Patch {
	_, prime := c.cache.load(slot)
	p := tensor.NewPatch(c.window(i, j, k))
	if p.Values == nil {
		return p
	}

	g := prime.At(i, j, k)
	n := k % c.cfg.Kernels
	oi, oj := c.origin(i, j)
	f := p.Footprint
	for xj := f.J.Lo; xj <= f.J.Hi; xj++ {
		for xi := f.I.Lo; xi <= f.I.Hi; xi++ {
			p.Set(xi, xj, f.K.Lo, g*c.kernels[c.kidx(xi-oi, xj-oj, n)])
		}
	}
	return p
}

// AccumulateGradientAt adds scale * prime * x over the window into kernel
// k % Kernels of recv.
func (c *Conv) AccumulateGradientAt(recv Layer, i, j, k, slot int, scale float64) {
	r := sameVariant(c, recv)
	x, prime := c.cache.load(slot)

	s := scale * prime.At(i, j, k)
	if s == 0 {
		return
	}
	n := k % c.cfg.Kernels
	xk := k / c.cfg.Kernels
	oi, oj := c.origin(i, j)
	for cj := 0; cj < c.side; cj++ {
		for ci := 0; ci < c.side; ci++ {
			r.kernels[c.kidx(ci, cj, n)] += s * x.AtOrZero(oi+ci, oj+cj, xk)
		}
	}
}

// CombineScale performs c += other * scale.
func (c *Conv) CombineScale(other Layer, scale float64) {
	o := sameVariant(c, other)
	floats.AddScaled(c.kernels, scale, o.kernels)
}

// ZeroCopy returns a zero-valued Conv layer with the same shapes and no caches.
func (c *Conv) ZeroCopy() Layer {
	return newConv(c.cfg, 0)
}

// Train applies every gradient scaled by rate and clears the caches.
func (c *Conv) Train(grads []Layer, rate float64) {
	for _, g := range grads {
		c.CombineScale(g, rate)
	}
	c.cache.clear()
}

// ClearCache drops every cached forward pass.
func (c *Conv) ClearCache() {
	c.cache.clear()
}

// NumParams returns side*side*Kernels.
func (c *Conv) NumParams() int {
	return len(c.kernels)
}

// Parameters returns [kernels].
func (c *Conv) Parameters() []*Parameter {
	return []*Parameter{
		NewParameter("kernels", c.kernels, c.cfg.Kernels, c.side, c.side),
	}
}
