// Package backprop threads per-output-unit gradients backward through a
// network's layer stack.
//
// For every layer the driver keeps one gradient accumulator per network output
// unit. Summing them over units and scaling by the derivative of the loss
// gives the parameter gradient the optimizer applies.
package backprop

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/floats"

	"github.com/born-ml/convnet/internal/nn"
	"github.com/born-ml/convnet/internal/parallel"
	"github.com/born-ml/convnet/internal/tensor"
)

// ErrOutputMismatch is returned when the target or the prediction does not
// have one value per network output.
var ErrOutputMismatch = errors.New("backprop: output length mismatch")

// Option configures a Driver.
type Option func(*Driver)

// WithParallel sets how the locations of one layer are split across
// goroutines. The default is parallel.DefaultConfig().
func WithParallel(cfg parallel.Config) Option {
	return func(d *Driver) {
		d.par = cfg
	}
}

// WithoutFootprint propagates every input gradient over the whole input of a
// layer instead of its nonzero footprint. Results are identical; only the
// amount of work changes.
func WithoutFootprint() Option {
	return func(d *Driver) {
		d.footprint = false
	}
}

// Driver runs backward passes over one network.
//
// A Driver is used by a single training loop. Backward calls for one cycle
// accumulate into the same per-unit accumulators until Reset.
type Driver struct {
	net       *nn.Network
	par       parallel.Config
	footprint bool
	acc       [][]nn.Layer // [layer][unit]
}

// NewDriver creates a driver for net.
func NewDriver(net *nn.Network, opts ...Option) *Driver {
	d := &Driver{
		net:       net,
		par:       parallel.DefaultConfig(),
		footprint: true,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Reset drops the accumulators. The next Backward starts from zero.
func (d *Driver) Reset() {
	d.acc = nil
}

// Gradients returns, per layer, one accumulator per network output unit.
// It is nil until the first Backward after a Reset.
func (d *Driver) Gradients() [][]nn.Layer {
	return d.acc
}

// Sum returns scale times the sum over output units of the accumulators of
// layer l, as a fresh layer value. Layers without parameters return
// themselves.
func (d *Driver) Sum(l int, scale float64) nn.Layer {
	layer := d.net.Layer(l)
	sum := layer.ZeroCopy()
	if d.acc == nil {
		return sum
	}
	for _, a := range d.acc[l] {
		sum.CombineScale(a, scale)
	}
	return sum
}

// Backward attributes the error of one example to every layer's parameters.
//
// The forward pass of the example must have been run with net.Evaluate at
// the same slot.
//
// Algorithm:
//  1. Seed the last layer's multiplier with predicted[r]-target[r] at
//     output location r for unit r.
//  2. Walk the layers from last to first. For every output location with a
//     nonzero multiplier row, add row[r] times the layer's parameter gradient
//     into unit r's accumulator, and add row times the layer's input gradient
//     into the previous layer's multiplier over the reported footprint.
//  3. The previous layer's multiplier is complete before it is read.
//
// Locations of one layer are independent until they meet in the previous
// layer's multiplier. Each shard therefore owns a multiplier buffer and an
// accumulator set; they are merged in shard order once the layer is done.
func (d *Driver) Backward(target, predicted []float64, slot int) error {
	units := d.net.NumOutputs()
	if len(target) != units || len(predicted) != units {
		return fmt.Errorf("%w: network has %d outputs, target %d, prediction %d",
			ErrOutputMismatch, units, len(target), len(predicted))
	}

	if d.acc == nil {
		d.acc = make([][]nn.Layer, d.net.Len())
		for l, layer := range d.net.Layers() {
			d.acc[l] = zeroCopies(layer, units)
		}
	}

	m := Seed(d.net.OutputShape(), target, predicted)
	for l := d.net.Len() - 1; l >= 0; l-- {
		m = d.backwardLayer(l, m, slot)
	}
	return nil
}

// backwardLayer processes layer l given its multiplier and returns the
// multiplier of layer l-1, or nil for the first layer.
func (d *Driver) backwardLayer(l int, m *Multiplier, slot int) *Multiplier {
	layer := d.net.Layer(l)
	cfg := layer.Config()
	units := m.Units()
	locations := cfg.Output.NumElements()
	propagate := l > 0

	shards := parallel.NumShards(locations, d.par)
	prevs := make([]*Multiplier, shards)
	accs := make([][]nn.Layer, shards)

	parallel.ForShards(locations, d.par, func(s, start, end int) {
		acc := d.acc[l]
		if s > 0 {
			acc = zeroCopies(layer, units)
		}
		var prev *Multiplier
		if propagate {
			prev = NewMultiplier(cfg.Input, units)
		}

		for idx := start; idx < end; idx++ {
			row := m.RowAt(idx)
			if isZero(row) {
				continue
			}
			i, j, k := cfg.Output.Coords(idx)
			for r, v := range row {
				if v != 0 {
					layer.AccumulateGradientAt(acc[r], i, j, k, slot, v)
				}
			}
			if propagate {
				d.propagate(prev, layer.InputGradient(i, j, k, slot), row)
			}
		}

		accs[s] = acc
		prevs[s] = prev
	})

	for s := 1; s < shards; s++ {
		if accs[s] == nil {
			continue
		}
		for r, a := range accs[s] {
			d.acc[l][r].CombineScale(a, 1)
		}
		if propagate {
			prevs[0].Add(prevs[s])
		}
	}
	return prevs[0]
}

// propagate adds row scaled by each input gradient into prev.
func (d *Driver) propagate(prev *Multiplier, g *tensor.Patch, row []float64) {
	f := g.Footprint
	if !d.footprint {
		f = tensor.FullFootprint(prev.Shape())
	}
	for k := f.K.Lo; k <= f.K.Hi; k++ {
		for j := f.J.Lo; j <= f.J.Hi; j++ {
			for i := f.I.Lo; i <= f.I.Hi; i++ {
				if v := g.At(i, j, k); v != 0 || !d.footprint {
					floats.AddScaled(prev.Row(i, j, k), v, row)
				}
			}
		}
	}
}

func zeroCopies(layer nn.Layer, units int) []nn.Layer {
	acc := make([]nn.Layer, units)
	for r := range acc {
		acc[r] = layer.ZeroCopy()
	}
	return acc
}
