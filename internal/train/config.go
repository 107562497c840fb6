package train

import (
	"errors"
	"fmt"
	"strings"
)

// Errors returned before any parameter is touched.
var (
	ErrInvalidConfig   = errors.New("train: invalid configuration")
	ErrDatasetMismatch = errors.New("train: dataset does not match network")
)

// Mode selects how examples are sampled each cycle.
type Mode int

// Sampling modes.
const (
	// FullBatch walks the first Fraction of the dataset in order every cycle
	// and reports dataset-wide error and accuracy.
	FullBatch Mode = iota

	// Stochastic draws BatchSize examples uniformly with replacement and only
	// reports the running error.
	Stochastic
)

// String returns "full" or "stochastic".
func (m Mode) String() string {
	switch m {
	case FullBatch:
		return "full"
	case Stochastic:
		return "stochastic"
	default:
		return fmt.Sprintf("Mode(%d)", int(m))
	}
}

// ParseMode converts "full" or "stochastic" into a Mode.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "full", "full-batch", "batch":
		return FullBatch, nil
	case "stochastic", "sgd", "mini-batch":
		return Stochastic, nil
	default:
		return 0, fmt.Errorf("%w: unknown mode %q", ErrInvalidConfig, s)
	}
}

// MarshalText implements encoding.TextMarshaler.
func (m Mode) MarshalText() ([]byte, error) {
	if m != FullBatch && m != Stochastic {
		return nil, fmt.Errorf("train: cannot marshal %v", m)
	}
	return []byte(m.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (m *Mode) UnmarshalText(text []byte) error {
	parsed, err := ParseMode(string(text))
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}

// Adaptive rate clamp.
const (
	MinRateFactor = 0.1
	MaxRateFactor = 2.0
)

// Config holds the trainer settings.
type Config struct {
	Mode         Mode    // Sampling mode
	LearningRate float64 // Step size, > 0
	Fraction     float64 // Share of the dataset used per full-batch cycle, in (0, 1]
	BatchSize    int     // Examples per stochastic cycle, > 0
	Momentum     float64 // Momentum factor, in [0, 1)
	RingSize     int     // Number of recent example errors averaged into RunningError, >= 0
	AdaptiveRate bool    // Scale the rate by the running error relative to TargetError
	TargetError  float64 // Reference error for AdaptiveRate, > 0 when enabled
	Seed         int64   // Sampling seed; 0 picks one from the clock
}

// DefaultConfig returns the settings used by the command line tools.
func DefaultConfig() Config {
	return Config{
		Mode:         Stochastic,
		LearningRate: 0.5,
		Fraction:     1.0,
		BatchSize:    16,
		Momentum:     0.9,
		RingSize:     100,
		TargetError:  0.01,
	}
}

// Validate checks every field. The returned error wraps ErrInvalidConfig.
func (c Config) Validate() error {
	switch {
	case c.Mode != FullBatch && c.Mode != Stochastic:
		return fmt.Errorf("%w: unknown mode %v", ErrInvalidConfig, c.Mode)
	case c.LearningRate <= 0:
		return fmt.Errorf("%w: learning rate must be positive, got %g", ErrInvalidConfig, c.LearningRate)
	case c.Fraction <= 0 || c.Fraction > 1:
		return fmt.Errorf("%w: fraction must be in (0, 1], got %g", ErrInvalidConfig, c.Fraction)
	case c.Mode == Stochastic && c.BatchSize <= 0:
		return fmt.Errorf("%w: batch size must be positive, got %d", ErrInvalidConfig, c.BatchSize)
	case c.Momentum < 0 || c.Momentum >= 1:
		return fmt.Errorf("%w: momentum must be in [0, 1), got %g", ErrInvalidConfig, c.Momentum)
	case c.RingSize < 0:
		return fmt.Errorf("%w: ring size must be non-negative, got %d", ErrInvalidConfig, c.RingSize)
	case c.AdaptiveRate && c.TargetError <= 0:
		return fmt.Errorf("%w: adaptive rate needs a positive target error, got %g", ErrInvalidConfig, c.TargetError)
	}
	return nil
}
