package nn

import (
	"errors"
	"fmt"
)

// Configuration errors. Every error returned while building a layer or a
// network wraps one of these.
var (
	ErrInvalidConfig = errors.New("invalid layer configuration")
	ErrShapeMismatch = errors.New("layer shape mismatch")
	ErrNotFlat       = errors.New("dense layer output must be a flat vector")
	ErrEmptyNetwork  = errors.New("network has no layers")
	ErrStateDict     = errors.New("state dict does not match network")
)

// ConfigError describes why a layer configuration was rejected.
type ConfigError struct {
	Layer   int       // Index of the offending layer, -1 when not part of a network
	Type    LayerType // Layer variant
	Err     error     // One of the sentinel errors above
	Details string    // Human readable specifics
}

// Error implements the error interface.
func (e *ConfigError) Error() string {
	if e.Layer >= 0 {
		return fmt.Sprintf("nn: layer %d (%v): %v: %s", e.Layer, e.Type, e.Err, e.Details)
	}
	return fmt.Sprintf("nn: %v layer: %v: %s", e.Type, e.Err, e.Details)
}

// Unwrap returns the sentinel error.
func (e *ConfigError) Unwrap() error {
	return e.Err
}

func configErr(t LayerType, sentinel error, format string, args ...any) *ConfigError {
	return &ConfigError{
		Layer:   -1,
		Type:    t,
		Err:     sentinel,
		Details: fmt.Sprintf(format, args...),
	}
}

// atLayer tags err with the index of the layer it came from.
func atLayer(err error, index int) error {
	var ce *ConfigError
	if errors.As(err, &ce) {
		tagged := *ce
		tagged.Layer = index
		return &tagged
	}
	return fmt.Errorf("nn: layer %d: %w", index, err)
}
