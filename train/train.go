// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package train

import (
	"github.com/born-ml/convnet/internal/nn"
	"github.com/born-ml/convnet/internal/parallel"
	"github.com/born-ml/convnet/internal/train"
)

// Configuration

// Mode selects how examples are sampled each cycle.
type Mode = train.Mode

// Sampling modes.
const (
	FullBatch  Mode = train.FullBatch
	Stochastic Mode = train.Stochastic
)

// ParseMode converts "full" or "stochastic" into a Mode.
func ParseMode(s string) (Mode, error) {
	return train.ParseMode(s)
}

// Config holds the trainer settings.
type Config = train.Config

// DefaultConfig returns stochastic training with rate 0.5, batch size 16 and
// momentum 0.9.
func DefaultConfig() Config {
	return train.DefaultConfig()
}

// ParallelConfig controls how the backward pass spreads one layer over
// goroutines.
type ParallelConfig = parallel.Config

// DefaultParallel uses one goroutine per CPU.
func DefaultParallel() ParallelConfig {
	return parallel.DefaultConfig()
}

// Sequential never spawns goroutines.
func Sequential() ParallelConfig {
	return parallel.Sequential()
}

// Errors returned by New before any parameter is touched.
var (
	ErrInvalidConfig   = train.ErrInvalidConfig
	ErrDatasetMismatch = train.ErrDatasetMismatch
)

// Datasets

// Evaluator maps an input vector to an output vector.
type Evaluator = train.Evaluator

// Fitness is a labelled dataset the trainer samples from.
type Fitness = train.Fitness

// Dataset is an in-memory Fitness.
type Dataset = train.Dataset

// NewDataset pairs inputs with targets. Both must have the same length and
// consistent vector sizes.
func NewDataset(inputs, targets [][]float64) (*Dataset, error) {
	return train.NewDataset(inputs, targets)
}

// XOR returns the four examples of exclusive or.
func XOR() *Dataset {
	return train.XOR()
}

// Progress

// Metrics describes one finished training cycle.
type Metrics = train.Metrics

// Reporter observes training progress.
type Reporter = train.Reporter

// ReporterFunc adapts a function to Reporter.
type ReporterFunc = train.ReporterFunc

// LogReporter prints every Every-th cycle to a logger.
type LogReporter = train.LogReporter

// Trainer

// Trainer owns the mutable state of one training run.
type Trainer = train.Trainer

// Option configures a Trainer.
type Option = train.Option

// WithReporter sets the progress observer.
func WithReporter(r Reporter) Option {
	return train.WithReporter(r)
}

// WithParallel sets the backward pass parallelism.
func WithParallel(cfg ParallelConfig) Option {
	return train.WithParallel(cfg)
}

// New checks cfg and the dataset against net and prepares a trainer.
//
// Parameters:
//   - net: Network to train; its parameters are updated in place
//   - data: Examples to sample from
//   - cfg: Trainer settings (see DefaultConfig)
//   - opts: Reporter and parallelism
//
// Returns the trainer, or an error wrapping ErrInvalidConfig or
// ErrDatasetMismatch.
//
// Example:
//
//	trainer, err := train.New(net, train.XOR(), train.DefaultConfig(),
//	    train.WithReporter(train.LogReporter{Every: 100}))
//	if err != nil {
//	    log.Fatal(err)
//	}
//	err = trainer.Train(ctx, 1000)
func New(net *nn.Network, data Fitness, cfg Config, opts ...Option) (*Trainer, error) {
	return train.New(net, data, cfg, opts...)
}
