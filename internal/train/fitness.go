package train

import (
	"fmt"
	"math"

	"github.com/born-ml/convnet/internal/tensor"
)

// Evaluator produces a prediction for one input vector. *nn.Network
// satisfies it through Predict.
type Evaluator interface {
	Predict(x []float64) []float64
}

// Fitness supplies training examples and scores a network on them.
type Fitness interface {
	Inputs() [][]float64
	Targets() [][]float64

	// PercentCorrect returns the share of examples classified correctly, in
	// percent.
	PercentCorrect(e Evaluator) float64

	// MeanSquaredError returns the mean over examples of the per-example MSE.
	MeanSquaredError(e Evaluator) float64
}

// Dataset is an in-memory Fitness.
//
// An example counts as correct when the arg-max of the prediction matches
// the arg-max of the target. Single-output datasets compare the prediction
// to the target with a 0.5 threshold instead.
type Dataset struct {
	inputs  [][]float64
	targets [][]float64
}

// NewDataset pairs inputs with targets. Every input must have the same
// length, and so must every target.
func NewDataset(inputs, targets [][]float64) (*Dataset, error) {
	if len(inputs) != len(targets) {
		return nil, fmt.Errorf("train: %d inputs but %d targets", len(inputs), len(targets))
	}
	if len(inputs) == 0 {
		return nil, fmt.Errorf("train: empty dataset")
	}
	for i := range inputs {
		if len(inputs[i]) != len(inputs[0]) || len(inputs[i]) == 0 {
			return nil, fmt.Errorf("train: input %d has %d values, expected %d", i, len(inputs[i]), len(inputs[0]))
		}
		if len(targets[i]) != len(targets[0]) || len(targets[i]) == 0 {
			return nil, fmt.Errorf("train: target %d has %d values, expected %d", i, len(targets[i]), len(targets[0]))
		}
	}
	return &Dataset{inputs: inputs, targets: targets}, nil
}

// XOR returns the four examples of the exclusive-or truth table.
func XOR() *Dataset {
	return &Dataset{
		inputs:  [][]float64{{0, 0}, {0, 1}, {1, 0}, {1, 1}},
		targets: [][]float64{{0}, {1}, {1}, {0}},
	}
}

// Inputs returns the input vectors. The slices are shared.
func (d *Dataset) Inputs() [][]float64 {
	return d.inputs
}

// Targets returns the target vectors. The slices are shared.
func (d *Dataset) Targets() [][]float64 {
	return d.targets
}

// Len returns the number of examples.
func (d *Dataset) Len() int {
	return len(d.inputs)
}

// Slice returns the examples [from, to) as a dataset sharing storage with d.
func (d *Dataset) Slice(from, to int) *Dataset {
	return &Dataset{inputs: d.inputs[from:to], targets: d.targets[from:to]}
}

// Correct reports whether prediction matches target.
func Correct(prediction, target []float64) bool {
	if len(target) == 1 {
		return math.Abs(prediction[0]-target[0]) < 0.5
	}
	return tensor.ArgMax(prediction) == tensor.ArgMax(target)
}

// PercentCorrect returns the share of examples e classifies correctly, in percent.
func (d *Dataset) PercentCorrect(e Evaluator) float64 {
	correct := 0
	for i, x := range d.inputs {
		if Correct(e.Predict(x), d.targets[i]) {
			correct++
		}
	}
	return 100 * float64(correct) / float64(len(d.inputs))
}

// MeanSquaredError returns the average per-example MSE of e over the dataset.
func (d *Dataset) MeanSquaredError(e Evaluator) float64 {
	var sum float64
	for i, x := range d.inputs {
		sum += tensor.MSE(e.Predict(x), d.targets[i])
	}
	return sum / float64(len(d.inputs))
}
