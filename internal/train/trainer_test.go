package train

import (
	"context"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/born-ml/convnet/internal/activation"
	"github.com/born-ml/convnet/internal/nn"
	"github.com/born-ml/convnet/internal/parallel"
	"github.com/born-ml/convnet/internal/tensor"
)

func xorNet(t *testing.T, seed int64, opts ...nn.Option) *nn.Network {
	t.Helper()
	opts = append([]nn.Option{nn.WithRand(rand.New(rand.NewSource(seed)))}, opts...)
	net, err := nn.NewNetwork(tensor.Flat(2), []nn.LayerConfig{
		nn.DenseConfig(3, activation.Sigmoid),
		nn.DenseConfig(1, activation.Sigmoid),
	}, opts...)
	require.NoError(t, err)
	return net
}

func xorConfig(seed int64) Config {
	cfg := DefaultConfig()
	cfg.Seed = seed
	return cfg
}

// TestTrainer_LearnsXOR runs 1000 stochastic cycles at rate 0.5 and expects
// every seed to solve XOR. Convergence relies on the default batch size of 16
// and momentum of 0.9.
func TestTrainer_LearnsXOR(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping convergence run in short mode")
	}

	for seed := int64(1); seed <= 5; seed++ {
		net := xorNet(t, seed)
		cfg := xorConfig(seed)
		require.Equal(t, Stochastic, cfg.Mode)
		require.Equal(t, 0.5, cfg.LearningRate)
		trainer, err := New(net, XOR(), cfg, WithParallel(parallel.Sequential()))
		require.NoError(t, err)
		require.NoError(t, trainer.Train(context.Background(), 1000))

		mse := XOR().MeanSquaredError(net)
		t.Logf("seed %d: MSE %.5f, running %.5f", seed, mse, trainer.RunningError())
		assert.Less(t, mse, 0.05, "seed %d", seed)
		assert.Equal(t, 100.0, XOR().PercentCorrect(net), "seed %d", seed)
	}
}

func TestTrainer_FullBatchMetrics(t *testing.T) {
	net := xorNet(t, 2, nn.WithBatchSlots(4))
	cfg := xorConfig(2)
	cfg.Mode = FullBatch

	var reports []Metrics
	trainer, err := New(net, XOR(), cfg, WithReporter(ReporterFunc(func(m Metrics) {
		reports = append(reports, m)
	})))
	require.NoError(t, err)
	require.NoError(t, trainer.Train(context.Background(), 3))

	require.Len(t, reports, 3)
	for c, m := range reports {
		assert.Equal(t, c, m.Cycle)
		assert.Equal(t, 3, m.Cycles)
		assert.Equal(t, 4, m.Examples)
		assert.True(t, m.FullBatch)
		assert.GreaterOrEqual(t, m.Accuracy, 0.0)
		assert.LessOrEqual(t, m.Accuracy, 100.0)
		assert.Equal(t, cfg.LearningRate, m.Rate)
	}
	assert.InDelta(t, XOR().MeanSquaredError(net), reports[2].Error, 1e-12, "last report scores the final parameters")
	assert.Equal(t, 3, trainer.Cycle())
}

func TestTrainer_FullBatchFraction(t *testing.T) {
	net := xorNet(t, 2)
	cfg := xorConfig(2)
	cfg.Mode = FullBatch
	cfg.Fraction = 0.5

	trainer, err := New(net, XOR(), cfg)
	require.NoError(t, err)
	m, err := trainer.Step()
	require.NoError(t, err)
	assert.Equal(t, 2, m.Examples)

	cfg.Fraction = 0.1
	_, err = New(net, XOR(), cfg)
	assert.ErrorIs(t, err, ErrInvalidConfig, "fraction selecting no example")
}

func TestTrainer_StochasticBatch(t *testing.T) {
	net := xorNet(t, 3)
	cfg := xorConfig(3)
	cfg.BatchSize = 7

	trainer, err := New(net, XOR(), cfg)
	require.NoError(t, err)
	m, err := trainer.Step()
	require.NoError(t, err)
	assert.Equal(t, 7, m.Examples)
	assert.False(t, m.FullBatch)
	assert.Zero(t, m.Error)
	assert.Greater(t, m.RunningError, 0.0)
}

func TestTrainer_Deterministic(t *testing.T) {
	run := func() map[string][]float64 {
		net := xorNet(t, 11)
		trainer, err := New(net, XOR(), xorConfig(5), WithParallel(parallel.Sequential()))
		require.NoError(t, err)
		require.NoError(t, trainer.Train(context.Background(), 20))
		return net.StateDict()
	}
	assert.Equal(t, run(), run())
}

func TestTrainer_UpdatesParameters(t *testing.T) {
	net := xorNet(t, 4)
	before := net.StateDict()

	trainer, err := New(net, XOR(), xorConfig(4))
	require.NoError(t, err)
	_, err = trainer.Step()
	require.NoError(t, err)
	assert.NotEqual(t, before, net.StateDict())
}

func TestNew_RejectsBeforeMutation(t *testing.T) {
	tests := []struct {
		name   string
		net    func(t *testing.T) *nn.Network
		data   func(t *testing.T) Fitness
		cfg    func() Config
		target error
	}{
		{
			name: "input length",
			net: func(t *testing.T) *nn.Network {
				net, err := nn.NewNetwork(tensor.Flat(3), []nn.LayerConfig{nn.DenseConfig(1, activation.Sigmoid)})
				require.NoError(t, err)
				return net
			},
			data:   func(*testing.T) Fitness { return XOR() },
			cfg:    DefaultConfig,
			target: ErrDatasetMismatch,
		},
		{
			name: "target length",
			net:  func(t *testing.T) *nn.Network { return xorNet(t, 1) },
			data: func(t *testing.T) Fitness {
				d, err := NewDataset([][]float64{{0, 1}}, [][]float64{{1, 0}})
				require.NoError(t, err)
				return d
			},
			cfg:    DefaultConfig,
			target: ErrDatasetMismatch,
		},
		{
			name: "learning rate",
			net:  func(t *testing.T) *nn.Network { return xorNet(t, 1) },
			data: func(*testing.T) Fitness { return XOR() },
			cfg: func() Config {
				c := DefaultConfig()
				c.LearningRate = 0
				return c
			},
			target: ErrInvalidConfig,
		},
		{
			name: "momentum",
			net:  func(t *testing.T) *nn.Network { return xorNet(t, 1) },
			data: func(*testing.T) Fitness { return XOR() },
			cfg: func() Config {
				c := DefaultConfig()
				c.Momentum = 1
				return c
			},
			target: ErrInvalidConfig,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			net := tt.net(t)
			before := net.StateDict()

			trainer, err := New(net, tt.data(t), tt.cfg())
			assert.Nil(t, trainer)
			assert.ErrorIs(t, err, tt.target)
			assert.Equal(t, before, net.StateDict())
		})
	}
}

func TestTrainer_ContextCancelled(t *testing.T) {
	net := xorNet(t, 1)
	before := net.StateDict()
	trainer, err := New(net, XOR(), xorConfig(1))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err = trainer.Train(ctx, 10)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, trainer.Cycle())
	assert.Equal(t, before, net.StateDict())

	assert.ErrorIs(t, trainer.Train(context.Background(), -1), ErrInvalidConfig)
}

func TestTrainer_Record(t *testing.T) {
	trainer, err := New(xorNet(t, 1), XOR(), xorConfig(1))
	require.NoError(t, err)

	trainer.record(0.4)
	assert.InDelta(t, 0.2, trainer.LifetimeError(), 1e-15)
	trainer.record(0.1)
	assert.InDelta(t, 0.2*2.0/3.0+0.1/3.0, trainer.LifetimeError(), 1e-15)
	assert.InDelta(t, 0.25, trainer.RunningError(), 1e-15)
}

func TestTrainer_AdaptiveRate(t *testing.T) {
	cfg := xorConfig(1)
	cfg.AdaptiveRate = true
	cfg.TargetError = 0.1
	cfg.LearningRate = 1

	trainer, err := New(xorNet(t, 1), XOR(), cfg)
	require.NoError(t, err)
	assert.Equal(t, 1.0, trainer.rate(), "no history yet")

	trainer.record(0.05)
	assert.InDelta(t, 0.5, trainer.rate(), 1e-12)

	trainer.ring = NewRing(1)
	trainer.record(0.001)
	assert.InDelta(t, MinRateFactor, trainer.rate(), 1e-12)

	trainer.record(5)
	assert.InDelta(t, MaxRateFactor, trainer.rate(), 1e-12)
}
