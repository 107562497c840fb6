// Package config loads training run descriptions from YAML files.
//
// A run file names the network topology, the trainer settings and the
// dataset:
//
//	input: [28, 28, 1]
//	batch_slots: 16
//	seed: 42
//	layers:
//	  - {type: conv, radius: 3, kernels: 4, activation: relu}
//	  - {type: pool, size: 2, stride: 2, pool: max}
//	  - {type: dense, units: 10, activation: sigmoid}
//	train:
//	  mode: stochastic
//	  learning_rate: 0.5
//	  batch_size: 16
//	  momentum: 0.9
//	  cycles: 1000
//	data:
//	  kind: mnist
//	  dir: ./data
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/born-ml/convnet/internal/activation"
	"github.com/born-ml/convnet/internal/mnist"
	"github.com/born-ml/convnet/internal/nn"
	"github.com/born-ml/convnet/internal/parallel"
	"github.com/born-ml/convnet/internal/tensor"
	"github.com/born-ml/convnet/internal/train"
)

// ErrInvalid is wrapped by every validation error of this package.
var ErrInvalid = errors.New("config: invalid run configuration")

// Dataset kinds.
const (
	DataXOR   = "xor"
	DataMNIST = "mnist"
)

// Run is one training run.
type Run struct {
	Input      []int      `yaml:"input"`       // [width, height, depth] or [n] for flat input
	BatchSlots int        `yaml:"batch_slots"` // Forward caches per layer; defaults to the batch size
	Seed       int64      `yaml:"seed"`        // Parameter initialization seed; 0 uses the clock
	Layers     []Layer    `yaml:"layers"`
	Train      Train      `yaml:"train"`
	Data       Data       `yaml:"data"`
	Parallel   Parallel   `yaml:"parallel"`
	Output     OutputSpec `yaml:"output"`
}

// Layer describes one layer. Only the fields of its type are read.
type Layer struct {
	Type       string `yaml:"type"` // dense, conv or pool
	Activation string `yaml:"activation"`
	Units      int    `yaml:"units"`
	Radius     int    `yaml:"radius"`
	Kernels    int    `yaml:"kernels"`
	Pad        int    `yaml:"pad"`
	Size       int    `yaml:"size"`
	Stride     int    `yaml:"stride"`
	Pool       string `yaml:"pool"` // max or avg
}

// Train holds the trainer settings.
type Train struct {
	Mode         string  `yaml:"mode"`
	LearningRate float64 `yaml:"learning_rate"`
	Fraction     float64 `yaml:"fraction"`
	BatchSize    int     `yaml:"batch_size"`
	Momentum     float64 `yaml:"momentum"`
	RingSize     int     `yaml:"ring_size"`
	AdaptiveRate bool    `yaml:"adaptive_rate"`
	TargetError  float64 `yaml:"target_error"`
	Seed         int64   `yaml:"seed"`
	Cycles       int     `yaml:"cycles"`
	ReportEvery  int     `yaml:"report_every"`
}

// Data selects the dataset.
type Data struct {
	Kind     string  `yaml:"kind"`     // xor or mnist
	Dir      string  `yaml:"dir"`      // MNIST directory
	Test     bool    `yaml:"test"`     // Load the MNIST test set instead of the training set
	Fraction float64 `yaml:"fraction"` // Share of the MNIST file to load; 0 loads everything
	Binary   bool    `yaml:"binary"`   // On/off pixels
}

// Parallel controls the backward pass goroutines.
type Parallel struct {
	Enabled      *bool `yaml:"enabled"` // Defaults to true on multi-core machines
	Workers      int   `yaml:"workers"` // 0 uses one per CPU
	MinChunkSize int   `yaml:"min_chunk_size"`
}

// OutputSpec says where the trained model goes.
type OutputSpec struct {
	Model string `yaml:"model"` // .born path; empty skips saving
}

// Default returns a run that trains the XOR network.
func Default() *Run {
	d := train.DefaultConfig()
	return &Run{
		Input: []int{2},
		Layers: []Layer{
			{Type: "dense", Units: 3, Activation: "sigmoid"},
			{Type: "dense", Units: 1, Activation: "sigmoid"},
		},
		Train: Train{
			Mode:         d.Mode.String(),
			LearningRate: d.LearningRate,
			Fraction:     d.Fraction,
			BatchSize:    d.BatchSize,
			Momentum:     d.Momentum,
			RingSize:     d.RingSize,
			TargetError:  d.TargetError,
			Cycles:       1000,
			ReportEvery:  100,
		},
		Data: Data{Kind: DataXOR},
	}
}

// Load reads and validates the run file at path. Fields missing from the
// file keep the values of Default.
func Load(path string) (*Run, error) {
	//nolint:gosec // G304: Config path comes from user input
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	r, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return r, nil
}

// Parse decodes and validates a run description. Unknown keys are errors.
func Parse(data []byte) (*Run, error) {
	r := Default()
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(r); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	if err := r.Validate(); err != nil {
		return nil, err
	}
	return r, nil
}

// Marshal encodes r as YAML.
func (r *Run) Marshal() ([]byte, error) {
	return yaml.Marshal(r)
}

// Validate checks every section. Layer shapes are checked against each other.
func (r *Run) Validate() error {
	if _, err := r.InputShape(); err != nil {
		return err
	}
	if r.BatchSlots < 0 {
		return fmt.Errorf("%w: batch_slots must be non-negative, got %d", ErrInvalid, r.BatchSlots)
	}
	if _, err := r.LayerConfigs(); err != nil {
		return err
	}
	if _, err := r.TrainConfig(); err != nil {
		return err
	}
	if r.Train.Cycles < 0 {
		return fmt.Errorf("%w: cycles must be non-negative, got %d", ErrInvalid, r.Train.Cycles)
	}
	switch r.Data.Kind {
	case DataXOR:
	case DataMNIST:
		if r.Data.Fraction < 0 || r.Data.Fraction > 1 {
			return fmt.Errorf("%w: data fraction must be in [0, 1], got %g", ErrInvalid, r.Data.Fraction)
		}
	default:
		return fmt.Errorf("%w: unknown data kind %q", ErrInvalid, r.Data.Kind)
	}
	if r.Parallel.Workers < 0 || r.Parallel.MinChunkSize < 0 {
		return fmt.Errorf("%w: parallel workers and min_chunk_size must be non-negative", ErrInvalid)
	}
	return nil
}

// InputShape converts the input list into a shape.
func (r *Run) InputShape() (tensor.Shape, error) {
	var s tensor.Shape
	switch len(r.Input) {
	case 1:
		s = tensor.Flat(r.Input[0])
	case 3:
		s = tensor.NewShape(r.Input[0], r.Input[1], r.Input[2])
	default:
		return s, fmt.Errorf("%w: input needs 1 or 3 dimensions, got %v", ErrInvalid, r.Input)
	}
	if err := s.Validate(); err != nil {
		return s, fmt.Errorf("%w: input %v: %v", ErrInvalid, r.Input, err)
	}
	return s, nil
}

// LayerConfigs converts the layer list and resolves it against the input.
func (r *Run) LayerConfigs() ([]nn.LayerConfig, error) {
	if len(r.Layers) == 0 {
		return nil, fmt.Errorf("%w: no layers", ErrInvalid)
	}
	shape, err := r.InputShape()
	if err != nil {
		return nil, err
	}

	configs := make([]nn.LayerConfig, len(r.Layers))
	for i, l := range r.Layers {
		cfg, err := l.config()
		if err != nil {
			return nil, fmt.Errorf("%w: layer %d: %v", ErrInvalid, i, err)
		}
		resolved, err := cfg.Resolve(shape)
		if err != nil {
			return nil, fmt.Errorf("%w: layer %d: %w", ErrInvalid, i, err)
		}
		configs[i] = cfg
		shape = resolved.Output
	}
	return configs, nil
}

func (l Layer) config() (nn.LayerConfig, error) {
	t, err := nn.ParseLayerType(l.Type)
	if err != nil {
		return nn.LayerConfig{}, err
	}
	if t == nn.PoolLayer {
		kind := nn.MaxPool
		if l.Pool != "" {
			if kind, err = nn.ParsePoolKind(l.Pool); err != nil {
				return nn.LayerConfig{}, err
			}
		}
		return nn.PoolConfig(l.Size, l.Stride, kind), nil
	}

	act := activation.Sigmoid
	if l.Activation != "" {
		if act, err = activation.ParseKind(l.Activation); err != nil {
			return nn.LayerConfig{}, err
		}
	}
	if t == nn.ConvLayer {
		return nn.ConvConfig(l.Radius, l.Kernels, l.Pad, act), nil
	}
	return nn.DenseConfig(l.Units, act), nil
}

// TrainConfig converts the train section.
func (r *Run) TrainConfig() (train.Config, error) {
	mode, err := train.ParseMode(r.Train.Mode)
	if err != nil {
		return train.Config{}, fmt.Errorf("%w: %w", ErrInvalid, err)
	}
	cfg := train.Config{
		Mode:         mode,
		LearningRate: r.Train.LearningRate,
		Fraction:     r.Train.Fraction,
		BatchSize:    r.Train.BatchSize,
		Momentum:     r.Train.Momentum,
		RingSize:     r.Train.RingSize,
		AdaptiveRate: r.Train.AdaptiveRate,
		TargetError:  r.Train.TargetError,
		Seed:         r.Train.Seed,
	}
	if err := cfg.Validate(); err != nil {
		return train.Config{}, fmt.Errorf("%w: %w", ErrInvalid, err)
	}
	return cfg, nil
}

// ParallelConfig converts the parallel section.
func (r *Run) ParallelConfig() parallel.Config {
	cfg := parallel.DefaultConfig()
	if r.Parallel.Enabled != nil {
		cfg.Enabled = *r.Parallel.Enabled
	}
	if r.Parallel.Workers > 0 {
		cfg.NumWorkers = r.Parallel.Workers
	}
	if r.Parallel.MinChunkSize > 0 {
		cfg.MinChunkSize = r.Parallel.MinChunkSize
	}
	return cfg
}

// Network builds a freshly initialized network.
func (r *Run) Network() (*nn.Network, error) {
	shape, err := r.InputShape()
	if err != nil {
		return nil, err
	}
	configs, err := r.LayerConfigs()
	if err != nil {
		return nil, err
	}
	slots := r.BatchSlots
	if slots == 0 {
		slots = max(r.Train.BatchSize, 1)
	}
	seed := r.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	//nolint:gosec // Parameter initialization is not security-critical.
	return nn.NewNetwork(shape, configs, nn.WithBatchSlots(slots), nn.WithRand(rand.New(rand.NewSource(seed))))
}

// Dataset loads the dataset the run names.
func (r *Run) Dataset() (*train.Dataset, error) {
	switch r.Data.Kind {
	case DataXOR:
		return train.XOR(), nil
	case DataMNIST:
		return mnist.Load(r.Data.Dir, mnist.Options{
			Train:    !r.Data.Test,
			Fraction: r.Data.Fraction,
			Binary:   r.Data.Binary,
		})
	default:
		return nil, fmt.Errorf("%w: unknown data kind %q", ErrInvalid, r.Data.Kind)
	}
}
