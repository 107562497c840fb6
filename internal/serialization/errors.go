package serialization

import (
	"errors"
	"fmt"
)

// Common errors.
var (
	ErrChecksumMismatch   = errors.New("checksum mismatch: file may be corrupted")
	ErrHeaderTooLarge     = errors.New("header exceeds maximum size")
	ErrInvalidMagic       = errors.New("invalid magic bytes")
	ErrUnsupportedVersion = errors.New("unsupported format version")
	ErrTruncated          = errors.New("file is truncated")
	ErrModelType          = errors.New("unexpected model type")
)

// ValidationError describes a malformed tensor table.
type ValidationError struct {
	Type    string // Kind of failure (e.g., "offset_overlap", "out_of_bounds")
	Tensor  string // Tensor involved, if any
	Tensor2 string // Second tensor of an overlap
	Details string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	switch {
	case e.Tensor2 != "":
		return fmt.Sprintf("%s: tensors %q and %q: %s", e.Type, e.Tensor, e.Tensor2, e.Details)
	case e.Tensor != "":
		return fmt.Sprintf("%s: tensor %q: %s", e.Type, e.Tensor, e.Details)
	default:
		return fmt.Sprintf("%s: %s", e.Type, e.Details)
	}
}
