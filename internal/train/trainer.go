// Package train drives gradient descent over a network.
//
// Each cycle samples examples, runs the forward and backward pass for every
// one of them, scales the accumulated gradient by the derivative of the mean
// squared error and hands it to the optimizer. Training runs for a fixed
// number of cycles; there is no early stopping.
//
// Example:
//
//	trainer, err := train.New(net, train.XOR(), train.DefaultConfig(),
//	    train.WithReporter(train.LogReporter{Every: 100}))
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if err := trainer.Train(ctx, 1000); err != nil {
//	    log.Fatal(err)
//	}
package train

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/born-ml/convnet/internal/backprop"
	"github.com/born-ml/convnet/internal/nn"
	"github.com/born-ml/convnet/internal/optim"
	"github.com/born-ml/convnet/internal/parallel"
	"github.com/born-ml/convnet/internal/tensor"
)

// Option configures a Trainer.
type Option func(*Trainer)

// WithReporter sets the progress observer. The default is Discard.
func WithReporter(r Reporter) Option {
	return func(t *Trainer) {
		t.reporter = r
	}
}

// WithParallel sets how the backward pass spreads one layer over goroutines.
func WithParallel(cfg parallel.Config) Option {
	return func(t *Trainer) {
		t.driverOpts = append(t.driverOpts, backprop.WithParallel(cfg))
	}
}

// Trainer owns the mutable state of one training run.
type Trainer struct {
	net      *nn.Network
	data     Fitness
	cfg      Config
	reporter Reporter

	driverOpts []backprop.Option
	driver     *backprop.Driver
	optimizer  *optim.SGD
	rng        *rand.Rand

	ring     *Ring
	lifetime float64
	seen     int
	cycle    int
}

// New checks cfg and the dataset against net and prepares a trainer.
//
// Errors wrap ErrInvalidConfig or ErrDatasetMismatch. Nothing in net is
// modified when New fails.
func New(net *nn.Network, data Fitness, cfg Config, opts ...Option) (*Trainer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if err := checkDataset(net, data); err != nil {
		return nil, err
	}
	if cfg.Mode == FullBatch && batchLen(len(data.Inputs()), cfg.Fraction) == 0 {
		return nil, fmt.Errorf("%w: fraction %g of %d examples selects none", ErrInvalidConfig, cfg.Fraction, len(data.Inputs()))
	}

	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	t := &Trainer{
		net:      net,
		data:     data,
		cfg:      cfg,
		reporter: Discard,
		//nolint:gosec // Example sampling is not security-critical.
		rng:  rand.New(rand.NewSource(seed)),
		ring: NewRing(cfg.RingSize),
	}
	for _, opt := range opts {
		opt(t)
	}
	t.driver = backprop.NewDriver(net, t.driverOpts...)
	t.optimizer = optim.NewSGD(net, optim.SGDConfig{LR: cfg.LearningRate, Momentum: cfg.Momentum})
	return t, nil
}

func checkDataset(net *nn.Network, data Fitness) error {
	inputs, targets := data.Inputs(), data.Targets()
	if len(inputs) == 0 {
		return fmt.Errorf("%w: no examples", ErrDatasetMismatch)
	}
	if len(inputs) != len(targets) {
		return fmt.Errorf("%w: %d inputs but %d targets", ErrDatasetMismatch, len(inputs), len(targets))
	}
	for i := range inputs {
		if len(inputs[i]) != net.NumInputs() {
			return fmt.Errorf("%w: input %d has %d values, network takes %d",
				ErrDatasetMismatch, i, len(inputs[i]), net.NumInputs())
		}
		if len(targets[i]) != net.NumOutputs() {
			return fmt.Errorf("%w: target %d has %d values, network produces %d",
				ErrDatasetMismatch, i, len(targets[i]), net.NumOutputs())
		}
	}
	return nil
}

func batchLen(n int, fraction float64) int {
	return int(float64(n) * fraction)
}

// Train runs cycles training cycles.
//
// The context is checked between cycles; a cancelled context stops training
// after the current cycle and returns the context's error.
func (t *Trainer) Train(ctx context.Context, cycles int) error {
	if cycles < 0 {
		return fmt.Errorf("%w: negative cycle count %d", ErrInvalidConfig, cycles)
	}
	for c := 0; c < cycles; c++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		m, err := t.Step()
		if err != nil {
			return err
		}
		m.Cycle, m.Cycles = c, cycles
		t.reporter.Report(m)
	}
	return nil
}

// Step runs one training cycle and returns its metrics. Cycle and Cycles are
// filled with the trainer's own cycle counter.
func (t *Trainer) Step() (Metrics, error) {
	start := time.Now()
	inputs, targets := t.data.Inputs(), t.data.Targets()
	batch := t.sample(len(inputs))
	slots := t.net.BatchSlots()

	t.driver.Reset()
	for k, n := range batch {
		slot := k % slots
		pred := t.net.Evaluate(inputs[n], slot)
		t.record(tensor.MSE(pred, targets[n]))
		if err := t.driver.Backward(targets[n], pred, slot); err != nil {
			t.net.ClearCaches()
			return Metrics{}, fmt.Errorf("train: cycle %d: %w", t.cycle, err)
		}
	}

	rate := t.rate()
	t.optimizer.SetLR(rate)
	scale := 2 / float64(len(batch)*t.net.NumOutputs())
	for l := range t.net.Layers() {
		t.optimizer.Step(l, t.driver.Sum(l, scale))
	}
	t.driver.Reset()

	m := Metrics{
		Cycle:         t.cycle,
		Cycles:        t.cycle + 1,
		Examples:      len(batch),
		RunningError:  t.ring.Average(),
		LifetimeError: t.lifetime,
		Rate:          rate,
	}
	if t.cfg.Mode == FullBatch {
		m.FullBatch = true
		m.Error = t.data.MeanSquaredError(t.net)
		m.Accuracy = t.data.PercentCorrect(t.net)
	}
	m.Elapsed = time.Since(start)
	t.cycle++
	return m, nil
}

// sample returns the example indices of one cycle.
func (t *Trainer) sample(n int) []int {
	if t.cfg.Mode == FullBatch {
		idx := make([]int, batchLen(n, t.cfg.Fraction))
		for i := range idx {
			idx[i] = i
		}
		return idx
	}
	idx := make([]int, t.cfg.BatchSize)
	for i := range idx {
		idx[i] = t.rng.Intn(n)
	}
	return idx
}

// record adds one example error to the ring and to the lifetime average.
func (t *Trainer) record(mse float64) {
	t.ring.Add(mse)
	n := float64(t.seen)
	t.lifetime = t.lifetime*(n+1)/(n+2) + mse/(n+2)
	t.seen++
}

// rate returns the learning rate for the current cycle.
func (t *Trainer) rate() float64 {
	if !t.cfg.AdaptiveRate || t.ring.Len() == 0 {
		return t.cfg.LearningRate
	}
	factor := t.ring.Average() / t.cfg.TargetError
	return t.cfg.LearningRate * min(max(factor, MinRateFactor), MaxRateFactor)
}

// Network returns the network being trained.
func (t *Trainer) Network() *nn.Network {
	return t.net
}

// Optimizer returns the optimizer, for saving or restoring its state.
func (t *Trainer) Optimizer() *optim.SGD {
	return t.optimizer
}

// Cycle returns how many cycles have completed.
func (t *Trainer) Cycle() int {
	return t.cycle
}

// RunningError returns the mean MSE over the ring buffer.
func (t *Trainer) RunningError() float64 {
	return t.ring.Average()
}

// LifetimeError returns the running average MSE over every example seen.
func (t *Trainer) LifetimeError() float64 {
	return t.lifetime
}
