// Package nn implements the layers and the layer stack of the training engine.
//
// This package provides:
//   - LayerConfig: immutable description of a Dense, Conv or Pool layer
//   - Layer: the forward/backward capability contract every variant satisfies
//   - Dense, Conv, Pool: the three layer variants
//   - Network: an ordered, shape-checked stack of layers
//
// Layers do not run a backward pass on their own. They expose point-wise
// gradients (with respect to their input and to their parameters) that the
// backprop driver threads through the stack.
package nn

import (
	"fmt"

	"github.com/born-ml/convnet/internal/tensor"
)

// NoCache is the batch slot used for inference. Evaluate with NoCache leaves
// every cache untouched, so it is safe to call between forward and backward
// passes of a training step.
const NoCache = -1

// Layer is the capability set shared by all layer variants.
//
// A layer value plays two roles. The layers of a Network hold the trained
// parameters and the per-slot forward caches. Values returned by ZeroCopy have
// the same parameter shapes, start at zero and are used as gradient
// accumulators; they carry no caches.
type Layer interface {
	// Config returns the resolved configuration the layer was built from.
	Config() LayerConfig

	// Evaluate computes the layer output for x and caches x together with the
	// activation derivative at slot. The returned volume is freshly allocated.
	// x is retained by the cache and must not be modified afterwards.
	Evaluate(x *tensor.Volume, slot int) *tensor.Volume

	// InputGradient returns the derivative of output element (i, j, k) with
	// respect to every input element, restricted to the footprint outside of
	// which it is zero. It reads the forward cache at slot.
	InputGradient(i, j, k, slot int) *tensor.Patch

	// AccumulateGradientAt adds scale times the derivative of output element
	// (i, j, k) with respect to the parameters into recv, which must be a
	// value returned by ZeroCopy on a layer of the same variant.
	AccumulateGradientAt(recv Layer, i, j, k, slot int, scale float64)

	// CombineScale performs self += other * scale on the parameters.
	CombineScale(other Layer, scale float64)

	// ZeroCopy returns a zero-valued layer with the same parameter shapes.
	ZeroCopy() Layer

	// Train applies CombineScale(g, rate) for every g in grads and then
	// clears the forward caches.
	Train(grads []Layer, rate float64)

	// ClearCache drops every cached forward pass.
	ClearCache()

	// NumParams returns the number of trainable scalars.
	NumParams() int

	// Parameters returns views onto the trainable arrays. Writes through the
	// returned slices change the layer.
	Parameters() []*Parameter
}

// slotCache keeps the last input and activation derivative per batch slot.
type slotCache struct {
	x     []*tensor.Volume
	prime []*tensor.Volume
}

func newSlotCache(slots int) slotCache {
	return slotCache{
		x:     make([]*tensor.Volume, slots),
		prime: make([]*tensor.Volume, slots),
	}
}

func (c *slotCache) check(slot int) {
	if slot < 0 || slot >= len(c.x) {
		panic(fmt.Sprintf("nn: batch slot %d out of range [0, %d)", slot, len(c.x)))
	}
}

// store records a forward pass. NoCache is ignored.
func (c *slotCache) store(slot int, x, prime *tensor.Volume) {
	if slot == NoCache {
		return
	}
	c.check(slot)
	c.x[slot] = x
	c.prime[slot] = prime
}

// load returns the forward pass recorded at slot.
func (c *slotCache) load(slot int) (x, prime *tensor.Volume) {
	c.check(slot)
	if c.x[slot] == nil {
		panic(fmt.Sprintf("nn: batch slot %d has no cached forward pass", slot))
	}
	return c.x[slot], c.prime[slot]
}

func (c *slotCache) clear() {
	clear(c.x)
	clear(c.prime)
}

func (c *slotCache) slots() int {
	return len(c.x)
}

// slotted is implemented by layers that cache forward passes per slot.
type slotted interface {
	batchSlots() int
}

// checkInput panics when x does not have the layer's input shape.
func checkInput(cfg LayerConfig, x *tensor.Volume) {
	if x.Shape() != cfg.Input {
		panic(fmt.Sprintf("nn: %v layer expects input %v, got %v", cfg.Type, cfg.Input, x.Shape()))
	}
}

// sameVariant converts other to T or panics with a message naming both sides.
func sameVariant[T Layer](self T, other Layer) T {
	o, ok := other.(T)
	if !ok {
		panic(fmt.Sprintf("nn: cannot combine %T with %T", self, other))
	}
	return o
}
