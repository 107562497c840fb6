package nn_test

import (
	"errors"
	"math/rand"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/born-ml/convnet/internal/activation"
	"github.com/born-ml/convnet/internal/nn"
	"github.com/born-ml/convnet/internal/tensor"
)

func lenet(t *testing.T, opts ...nn.Option) *nn.Network {
	t.Helper()
	opts = append([]nn.Option{nn.WithRand(rand.New(rand.NewSource(42)))}, opts...)
	net, err := nn.NewNetwork(tensor.NewShape(12, 12, 1), []nn.LayerConfig{
		nn.ConvConfig(3, 2, 0, activation.ReLU),
		nn.PoolConfig(2, 2, nn.MaxPool),
		nn.DenseConfig(10, activation.Sigmoid),
	}, opts...)
	require.NoError(t, err)
	return net
}

func TestNewNetwork_ShapeChain(t *testing.T) {
	net := lenet(t)

	require.Equal(t, 3, net.Len())
	layers := net.Layers()
	for i := 1; i < len(layers); i++ {
		assert.Equal(t, layers[i-1].Config().Output, layers[i].Config().Input, "layer %d", i)
	}
	assert.Equal(t, tensor.NewShape(8, 8, 2), layers[0].Config().Output)
	assert.Equal(t, tensor.NewShape(4, 4, 2), layers[1].Config().Output)
	assert.Equal(t, 144, net.NumInputs())
	assert.Equal(t, 10, net.NumOutputs())
	assert.Equal(t, 25*2+32*10+10, net.NumParams())
	assert.True(t, strings.HasPrefix(net.String(), "Network(input=12x12x1"))
}

func TestNewNetwork_RejectsMismatch(t *testing.T) {
	_, err := nn.NewNetwork(tensor.Flat(4), []nn.LayerConfig{
		nn.DenseConfig(3, activation.Sigmoid),
		{Type: nn.DenseLayer, Units: 2, Activation: activation.Sigmoid, Input: tensor.Flat(4)},
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, nn.ErrShapeMismatch)

	var ce *nn.ConfigError
	require.True(t, errors.As(err, &ce))
	assert.Equal(t, 1, ce.Layer)
}

func TestNewNetwork_Errors(t *testing.T) {
	_, err := nn.NewNetwork(tensor.Flat(2), nil)
	assert.ErrorIs(t, err, nn.ErrEmptyNetwork)

	_, err = nn.NewNetwork(tensor.Flat(0), []nn.LayerConfig{nn.DenseConfig(1, activation.Sigmoid)})
	assert.ErrorIs(t, err, nn.ErrInvalidConfig)

	_, err = nn.NewNetwork(tensor.Flat(2), []nn.LayerConfig{nn.DenseConfig(1, activation.Sigmoid)}, nn.WithBatchSlots(0))
	assert.ErrorIs(t, err, nn.ErrInvalidConfig)

	_, err = nn.NewNetwork(tensor.NewShape(3, 3, 1), []nn.LayerConfig{
		nn.PoolConfig(2, 2, nn.AvgPool),
		nn.ConvConfig(0, 1, 0, activation.ReLU),
	})
	var ce *nn.ConfigError
	require.True(t, errors.As(err, &ce))
	assert.Equal(t, 1, ce.Layer)
	assert.Equal(t, nn.ConvLayer, ce.Type)
}

func TestNetwork_Evaluate(t *testing.T) {
	net := lenet(t, nn.WithBatchSlots(2))
	x := make([]float64, net.NumInputs())
	for i := range x {
		x[i] = float64(i%7) / 7
	}

	y := net.Predict(x)
	require.Len(t, y, 10)
	for _, v := range y {
		assert.True(t, v > 0 && v < 1, "sigmoid output %v", v)
	}

	assert.Equal(t, y, net.Evaluate(x, 1), "caching does not change the result")
	assert.Panics(t, func() { net.Evaluate(x[:5], 0) })
	assert.Panics(t, func() { net.Evaluate(x, 2) })
}

func TestNetwork_Deterministic(t *testing.T) {
	a, b := lenet(t), lenet(t)
	assert.Equal(t, a.StateDict(), b.StateDict())
}

func TestStack(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	in := tensor.Flat(4)
	first, err := nn.DenseConfig(3, activation.ReLU).Resolve(in)
	require.NoError(t, err)
	second, err := nn.DenseConfig(2, activation.Identity).Resolve(first.Output)
	require.NoError(t, err)
	wrong, err := nn.DenseConfig(2, activation.Identity).Resolve(tensor.Flat(5))
	require.NoError(t, err)

	net, err := nn.Stack(1, nn.NewLayer(first, 1, rng), nn.NewLayer(second, 1, rng))
	require.NoError(t, err)
	assert.Equal(t, 2, net.NumOutputs())

	_, err = nn.Stack(1, nn.NewLayer(first, 1, rng), nn.NewLayer(wrong, 1, rng))
	assert.ErrorIs(t, err, nn.ErrShapeMismatch)

	_, err = nn.Stack(1)
	assert.ErrorIs(t, err, nn.ErrEmptyNetwork)
}

func TestStack_BatchSlots(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	first, err := nn.DenseConfig(3, activation.ReLU).Resolve(tensor.Flat(4))
	require.NoError(t, err)
	second, err := nn.DenseConfig(2, activation.Identity).Resolve(first.Output)
	require.NoError(t, err)

	for _, slots := range []int{0, -1} {
		_, err = nn.Stack(slots, nn.NewLayer(first, 1, rng), nn.NewLayer(second, 1, rng))
		assert.ErrorIs(t, err, nn.ErrInvalidConfig, "slots=%d", slots)
	}

	_, err = nn.Stack(2, nn.NewLayer(first, 2, rng), nn.NewLayer(second, 1, rng))
	require.ErrorIs(t, err, nn.ErrInvalidConfig)
	var cfgErr *nn.ConfigError
	require.ErrorAs(t, err, &cfgErr)
	assert.Equal(t, 1, cfgErr.Layer)

	net, err := nn.Stack(2, nn.NewLayer(first, 2, rng), nn.NewLayer(second, 2, rng))
	require.NoError(t, err)
	assert.Equal(t, 2, net.BatchSlots())
}
