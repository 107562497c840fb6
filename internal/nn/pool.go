package nn

import (
	"fmt"
	"math"

	"github.com/born-ml/convnet/internal/tensor"
)

// Pool is a max or average pooling layer.
//
// Output element (i, j, k) reduces the Size×Size window of input channel k
// whose corner is (i*Stride, j*Stride). Pool has no learnable parameters.
//
// Input shape:  W×H×D
// Output shape: (W/Stride)×(H/Stride)×D
//
// Example:
//
//	// 2x2 max pooling with stride 2
//	cfg, _ := nn.PoolConfig(2, 2, nn.MaxPool).Resolve(tensor.NewShape(28, 28, 4))
//	pool := nn.NewPool(cfg, 1) // output: 14x14x4
type Pool struct {
	cfg   LayerConfig
	cache slotCache
}

// NewPool creates a Pool layer from a resolved configuration.
//
// Parameters:
//   - cfg: Resolved configuration (see LayerConfig.Resolve)
//   - slots: Number of batch slots to cache forward passes for
//
// Returns a new Pool layer. Panics if cfg is not a valid pool configuration.
func NewPool(cfg LayerConfig, slots int) *Pool {
	if cfg.Type != PoolLayer {
		panic(fmt.Sprintf("nn: NewPool called with %v configuration", cfg.Type))
	}
	if err := cfg.Validate(); err != nil {
		panic(err)
	}
	return &Pool{cfg: cfg, cache: newSlotCache(slots)}
}

// Config returns the layer configuration.
func (p *Pool) Config() LayerConfig {
	return p.cfg
}

func (p *Pool) batchSlots() int {
	return p.cache.slots()
}

// window returns the input footprint of output element (i, j, k), clipped to
// the input extent.
func (p *Pool) window(i, j, k int) tensor.Footprint {
	s, n := p.cfg.Stride, p.cfg.Size
	return tensor.Footprint{
		I: tensor.Range{Lo: i * s, Hi: i*s + n - 1},
		J: tensor.Range{Lo: j * s, Hi: j*s + n - 1},
		K: tensor.Range{Lo: k, Hi: k},
	}.Clip(p.cfg.Input)
}

// argMax returns the input coordinate of the largest element of the window.
// Ties keep the first one in scan order (i outer, j inner).
func (p *Pool) argMax(x *tensor.Volume, i, j, k int) (int, int) {
	w := p.window(i, j, k)
	bi, bj := w.I.Lo, w.J.Lo
	best := math.Inf(-1)
	for xi := w.I.Lo; xi <= w.I.Hi; xi++ {
		for xj := w.J.Lo; xj <= w.J.Hi; xj++ {
			if v := x.At(xi, xj, k); v > best {
				best, bi, bj = v, xi, xj
			}
		}
	}
	return bi, bj
}

func (p *Pool) average(x *tensor.Volume, i, j, k int) float64 {
	w := p.window(i, j, k)
	var sum float64
	for xj := w.J.Lo; xj <= w.J.Hi; xj++ {
		for xi := w.I.Lo; xi <= w.I.Hi; xi++ {
			sum += x.At(xi, xj, k)
		}
	}
	return sum / float64(p.cfg.Size*p.cfg.Size)
}

// Evaluate reduces every window. Reads outside the input count as zero for
// averages and are ignored for maxima.
func (p *Pool) Evaluate(x *tensor.Volume, slot int) *tensor.Volume {
	checkInput(p.cfg, x)

	out := tensor.NewVolume(p.cfg.Output)
	for k := 0; k < p.cfg.Output.Depth(); k++ {
		for j := 0; j < p.cfg.Output.Height(); j++ {
			for i := 0; i < p.cfg.Output.Width(); i++ {
				switch p.cfg.Pool {
				case MaxPool:
					bi, bj := p.argMax(x, i, j, k)
					out.Set(i, j, k, x.At(bi, bj, k))
				case AvgPool:
					out.Set(i, j, k, p.average(x, i, j, k))
				}
			}
		}
	}

	p.cache.store(slot, x, nil)
	return out
}

// InputGradient returns 1 at the winning coordinate for max pooling, and
// 1/Size² over the window for average pooling.
func (p *Pool) InputGradient(i, j, k, slot int) *tensor.Patch {
	x, _ := p.cache.load(slot)

	if p.cfg.Pool == MaxPool {
		bi, bj := p.argMax(x, i, j, k)
		patch := tensor.NewPatch(tensor.Point(bi, bj, k))
		patch.Set(bi, bj, k, 1)
		return patch
	}

	patch := tensor.NewPatch(p.window(i, j, k))
	if patch.Values != nil {
		g := 1 / float64(p.cfg.Size*p.cfg.Size)
		data := patch.Values.Data()
		for n := range data {
			data[n] = g
		}
	}
	return patch
}

// AccumulateGradientAt is a no-op: pooling has no parameters.
func (p *Pool) AccumulateGradientAt(Layer, int, int, int, int, float64) {}

// CombineScale is a no-op: pooling has no parameters.
func (p *Pool) CombineScale(Layer, float64) {}

// ZeroCopy returns the layer itself. Accumulating into it does nothing.
func (p *Pool) ZeroCopy() Layer {
	return p
}

// Train only clears the caches.
func (p *Pool) Train([]Layer, float64) {
	p.cache.clear()
}

// ClearCache drops every cached forward pass.
func (p *Pool) ClearCache() {
	p.cache.clear()
}

// NumParams returns 0.
func (p *Pool) NumParams() int {
	return 0
}

// Parameters returns nil.
func (p *Pool) Parameters() []*Parameter {
	return nil
}
