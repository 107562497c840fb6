package nn

import (
	"fmt"
	"strings"

	"github.com/born-ml/convnet/internal/activation"
	"github.com/born-ml/convnet/internal/tensor"
)

// LayerType identifies a layer variant.
type LayerType int

// Layer variants.
const (
	DenseLayer LayerType = iota
	ConvLayer
	PoolLayer
)

// String returns the lower-case name of the layer type.
func (t LayerType) String() string {
	switch t {
	case DenseLayer:
		return "dense"
	case ConvLayer:
		return "conv"
	case PoolLayer:
		return "pool"
	default:
		return fmt.Sprintf("LayerType(%d)", int(t))
	}
}

// ParseLayerType converts "dense", "conv" or "pool" into a LayerType.
func ParseLayerType(s string) (LayerType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "dense", "full":
		return DenseLayer, nil
	case "conv", "convolutional":
		return ConvLayer, nil
	case "pool", "pooling":
		return PoolLayer, nil
	default:
		return 0, fmt.Errorf("nn: unknown layer type %q", s)
	}
}

// MarshalText implements encoding.TextMarshaler.
func (t LayerType) MarshalText() ([]byte, error) {
	if t < DenseLayer || t > PoolLayer {
		return nil, fmt.Errorf("nn: cannot marshal %v", t)
	}
	return []byte(t.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (t *LayerType) UnmarshalText(text []byte) error {
	parsed, err := ParseLayerType(string(text))
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// PoolKind selects the pooling reduction.
type PoolKind int

// Pooling reductions.
const (
	MaxPool PoolKind = iota
	AvgPool
)

// String returns "max" or "avg".
func (k PoolKind) String() string {
	switch k {
	case MaxPool:
		return "max"
	case AvgPool:
		return "avg"
	default:
		return fmt.Sprintf("PoolKind(%d)", int(k))
	}
}

// ParsePoolKind converts "max" or "avg" into a PoolKind.
func ParsePoolKind(s string) (PoolKind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "max":
		return MaxPool, nil
	case "avg", "average", "mean":
		return AvgPool, nil
	default:
		return 0, fmt.Errorf("nn: unknown pool kind %q", s)
	}
}

// MarshalText implements encoding.TextMarshaler.
func (k PoolKind) MarshalText() ([]byte, error) {
	if k != MaxPool && k != AvgPool {
		return nil, fmt.Errorf("nn: cannot marshal %v", k)
	}
	return []byte(k.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (k *PoolKind) UnmarshalText(text []byte) error {
	parsed, err := ParsePoolKind(string(text))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}

// LayerConfig is the immutable description of one layer.
//
// Only the fields of the layer's Type are meaningful:
//   - Dense: Units, Activation
//   - Conv: Radius, Kernels, Pad, Activation
//   - Pool: Size, Stride, Pool
//
// Input and Output may be left zero and are filled in by Resolve (the network
// does this for every layer from the previous layer's output). When they are
// set, they are treated as declarations and checked.
type LayerConfig struct {
	Type       LayerType       `json:"type"`
	Input      tensor.Shape    `json:"input"`
	Output     tensor.Shape    `json:"output"`
	Activation activation.Kind `json:"activation"`

	Units int `json:"units,omitempty"`

	Radius  int `json:"radius,omitempty"`
	Kernels int `json:"kernels,omitempty"`
	Pad     int `json:"pad,omitempty"`

	Size   int      `json:"size,omitempty"`
	Stride int      `json:"stride,omitempty"`
	Pool   PoolKind `json:"pool,omitempty"`
}

// DenseConfig describes a fully connected layer with the given number of units.
func DenseConfig(units int, act activation.Kind) LayerConfig {
	return LayerConfig{Type: DenseLayer, Units: units, Activation: act}
}

// ConvConfig describes a convolutional layer.
//
// Each of the kernels is a (2*radius-1)² window applied to every input channel
// separately, so the layer multiplies the depth by kernels. pad controls how
// much the spatial extent shrinks: with pad >= radius-1 the output keeps the
// input's width and height, otherwise it loses 2*(radius-1-pad) per axis.
func ConvConfig(radius, kernels, pad int, act activation.Kind) LayerConfig {
	return LayerConfig{Type: ConvLayer, Radius: radius, Kernels: kernels, Pad: pad, Activation: act}
}

// PoolConfig describes a pooling layer with square windows of size, placed
// every stride elements.
func PoolConfig(size, stride int, kind PoolKind) LayerConfig {
	return LayerConfig{Type: PoolLayer, Size: size, Stride: stride, Pool: kind, Activation: activation.Identity}
}

// ConvMod returns the coordinate shift between output and input positions of
// a convolutional layer: min(0, 1 + Pad - Radius).
func (c LayerConfig) ConvMod() int {
	return min(0, 1+c.Pad-c.Radius)
}

// Window returns the side of a conv kernel (2*Radius-1) or a pool window (Size).
func (c LayerConfig) Window() int {
	switch c.Type {
	case ConvLayer:
		return 2*c.Radius - 1
	case PoolLayer:
		return c.Size
	default:
		return 0
	}
}

// OutputFor returns the output shape this configuration produces for input.
func (c LayerConfig) OutputFor(input tensor.Shape) tensor.Shape {
	switch c.Type {
	case DenseLayer:
		return tensor.Flat(c.Units)
	case ConvLayer:
		m := c.ConvMod()
		return tensor.Shape{input[0] + 2*m, input[1] + 2*m, input[2] * c.Kernels}
	case PoolLayer:
		if c.Stride <= 0 {
			return tensor.Shape{}
		}
		return tensor.Shape{input[0] / c.Stride, input[1] / c.Stride, input[2]}
	default:
		return tensor.Shape{}
	}
}

// Resolve returns a copy of c bound to input.
//
// A declared Input must equal input and a declared Output must equal the shape
// the parameters produce; otherwise ErrShapeMismatch. The result is validated.
func (c LayerConfig) Resolve(input tensor.Shape) (LayerConfig, error) {
	if c.Input != (tensor.Shape{}) && c.Input != input {
		return c, configErr(c.Type, ErrShapeMismatch, "declared input %v, previous layer produces %v", c.Input, input)
	}
	r := c
	r.Input = input
	computed := c.OutputFor(input)
	if c.Output != (tensor.Shape{}) && c.Output != computed {
		if c.Type == DenseLayer && !c.Output.IsFlat() {
			return c, configErr(c.Type, ErrNotFlat, "declared output %v", c.Output)
		}
		return c, configErr(c.Type, ErrShapeMismatch, "declared output %v, parameters produce %v", c.Output, computed)
	}
	r.Output = computed
	if err := r.Validate(); err != nil {
		return c, err
	}
	return r, nil
}

// Validate checks that the configuration describes a buildable layer.
func (c LayerConfig) Validate() error {
	if err := c.Input.Validate(); err != nil {
		return configErr(c.Type, ErrInvalidConfig, "input shape %v: %v", c.Input, err)
	}

	switch c.Type {
	case DenseLayer:
		if c.Units <= 0 {
			return configErr(c.Type, ErrInvalidConfig, "units must be positive, got %d", c.Units)
		}
		if !c.Output.IsFlat() {
			return configErr(c.Type, ErrNotFlat, "output %v", c.Output)
		}
	case ConvLayer:
		if c.Radius <= 0 {
			return configErr(c.Type, ErrInvalidConfig, "kernel radius must be positive, got %d", c.Radius)
		}
		if c.Kernels <= 0 {
			return configErr(c.Type, ErrInvalidConfig, "kernel count must be positive, got %d", c.Kernels)
		}
		if c.Pad < 0 {
			return configErr(c.Type, ErrInvalidConfig, "padding must be non-negative, got %d", c.Pad)
		}
	case PoolLayer:
		if c.Size <= 0 {
			return configErr(c.Type, ErrInvalidConfig, "pool size must be positive, got %d", c.Size)
		}
		if c.Stride <= 0 {
			return configErr(c.Type, ErrInvalidConfig, "stride must be positive, got %d", c.Stride)
		}
		if c.Pool != MaxPool && c.Pool != AvgPool {
			return configErr(c.Type, ErrInvalidConfig, "unknown pool kind %v", c.Pool)
		}
	default:
		return configErr(c.Type, ErrInvalidConfig, "unknown layer type")
	}

	if c.Type != PoolLayer && !c.Activation.Valid() {
		return configErr(c.Type, ErrInvalidConfig, "unsupported activation %v", c.Activation)
	}

	if err := c.Output.Validate(); err != nil {
		return configErr(c.Type, ErrInvalidConfig, "output shape %v for input %v: %v", c.Output, c.Input, err)
	}
	if expected := c.OutputFor(c.Input); c.Output != expected {
		return configErr(c.Type, ErrShapeMismatch, "output %v, parameters produce %v", c.Output, expected)
	}
	return nil
}

// String returns a short description of the configuration.
func (c LayerConfig) String() string {
	switch c.Type {
	case DenseLayer:
		return fmt.Sprintf("Dense(units=%d, activation=%v)", c.Units, c.Activation)
	case ConvLayer:
		return fmt.Sprintf("Conv(radius=%d, kernels=%d, pad=%d, activation=%v)", c.Radius, c.Kernels, c.Pad, c.Activation)
	case PoolLayer:
		return fmt.Sprintf("Pool(size=%d, stride=%d, kind=%v)", c.Size, c.Stride, c.Pool)
	default:
		return c.Type.String()
	}
}
