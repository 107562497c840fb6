package optim

import (
	"fmt"

	"github.com/born-ml/convnet/internal/nn"
)

// DefaultLR is the learning rate used when SGDConfig.LR is zero.
const DefaultLR = 0.01

// SGD implements gradient descent with optional momentum.
//
// Update rule without momentum:
//
//	param = param - lr * gradient
//
// Update rule with momentum:
//
//	velocity = momentum * velocity + gradient
//	param = param - lr * velocity
//
// Momentum helps accelerate descent in relevant directions and dampens
// oscillations. Velocities are kept per layer and live as long as the
// optimizer.
//
// Example:
//
//	optimizer := optim.NewSGD(net, optim.SGDConfig{
//	    LR:       0.5,
//	    Momentum: 0.9,
//	})
//	optimizer.Step(0, grad0)
type SGD struct {
	net        *nn.Network
	lr         float64
	momentum   float64
	velocities map[int]nn.Layer
}

// SGDConfig holds configuration for SGD optimizer.
type SGDConfig struct {
	LR       float64 // Learning rate (default: 0.01)
	Momentum float64 // Momentum factor (default: 0.0, range: [0, 1))
}

// Validate checks that the configuration is usable.
func (c SGDConfig) Validate() error {
	if c.LR < 0 {
		return fmt.Errorf("optim: learning rate must be non-negative, got %g", c.LR)
	}
	if c.Momentum < 0 || c.Momentum >= 1 {
		return fmt.Errorf("optim: momentum must be in [0, 1), got %g", c.Momentum)
	}
	return nil
}

// NewSGD creates a new SGD optimizer for the layers of net.
//
// Parameters:
//   - net: Network whose layers are updated
//   - config: SGD configuration (LR, Momentum)
//
// Returns a new SGD optimizer.
//
// Example:
//
//	sgd := optim.NewSGD(net, optim.SGDConfig{
//	    LR:       0.01,
//	    Momentum: 0.9,
//	})
func NewSGD(net *nn.Network, config SGDConfig) *SGD {
	// Set defaults
	if config.LR == 0 {
		config.LR = DefaultLR
	}

	return &SGD{
		net:        net,
		lr:         config.LR,
		momentum:   config.Momentum,
		velocities: make(map[int]nn.Layer),
	}
}

// Step applies grad to layer l.
//
//   - Without momentum: param -= lr * grad
//   - With momentum: velocity = momentum * velocity + grad, param -= lr * velocity
func (s *SGD) Step(l int, grad nn.Layer) {
	layer := s.net.Layer(l)
	if s.momentum == 0 {
		layer.Train([]nn.Layer{grad}, -s.lr)
		return
	}

	velocity := grad.ZeroCopy()
	velocity.CombineScale(grad, 1)
	if prev, ok := s.velocities[l]; ok {
		velocity.CombineScale(prev, s.momentum)
	}
	s.velocities[l] = velocity

	layer.Train([]nn.Layer{velocity}, -s.lr)
}

// Reset forgets every velocity.
func (s *SGD) Reset() {
	s.velocities = make(map[int]nn.Layer)
}

// GetLR returns the current learning rate.
func (s *SGD) GetLR() float64 {
	return s.lr
}

// SetLR updates the learning rate.
//
// Useful for learning rate scheduling during training.
func (s *SGD) SetLR(lr float64) {
	s.lr = lr
}

// Momentum returns the momentum factor.
func (s *SGD) Momentum() float64 {
	return s.momentum
}

// StateDict returns the optimizer state for serialization.
//
// For SGD with momentum, this exports a copy of the velocity buffers.
// Without momentum, returns an empty map.
//
// State keys: "velocity.{layer}.{param}" -> velocity values.
func (s *SGD) StateDict() map[string][]float64 {
	state := make(map[string][]float64)

	// Only save velocities if momentum is enabled
	if s.momentum == 0 {
		return state
	}

	for l, velocity := range s.velocities {
		for _, p := range velocity.Parameters() {
			state[velocityKey(l, p.Name)] = append([]float64(nil), p.Data...)
		}
	}
	return state
}

// LoadStateDict loads optimizer state from serialization.
//
// Restores velocity buffers for SGD with momentum. If momentum is 0,
// ignores the provided state (no velocities needed). Layers without an
// entry start from zero velocity.
//
// Returns an error if a velocity's length doesn't match its parameter.
func (s *SGD) LoadStateDict(state map[string][]float64) error {
	// If no momentum, nothing to load
	if s.momentum == 0 {
		return nil
	}

	velocities := make(map[int]nn.Layer)
	for l, layer := range s.net.Layers() {
		velocity := layer.ZeroCopy()
		found := false
		for _, p := range velocity.Parameters() {
			values, ok := state[velocityKey(l, p.Name)]
			if !ok {
				continue
			}
			if len(values) != p.Len() {
				return fmt.Errorf("optim: velocity length mismatch for %s of layer %d: expected %d, got %d",
					p.Name, l, p.Len(), len(values))
			}
			copy(p.Data, values)
			found = true
		}
		if found {
			velocities[l] = velocity
		}
	}

	s.velocities = velocities
	return nil
}

func velocityKey(layer int, name string) string {
	return fmt.Sprintf("velocity.%d.%s", layer, name)
}
