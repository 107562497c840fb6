package serialization

import (
	"fmt"
	"sort"
	"strings"
)

// Validation limits for resource protection.
const (
	MaxHeaderSize    = 100 * 1024 * 1024 // 100MB
	MaxTensorCount   = 100_000
	MaxTensorNameLen = 4096
)

// ValidationLevel controls how much of the tensor table is checked.
type ValidationLevel int

const (
	// ValidationStrict checks names, sizes, bounds and overlaps (default).
	ValidationStrict ValidationLevel = iota
	// ValidationNormal checks names and sizes only.
	ValidationNormal
	// ValidationNone skips the tensor table checks. Use only with trusted input.
	ValidationNone
)

// ValidateTensorOffsets rejects negative, out-of-bounds and overlapping
// tensor regions.
func ValidateTensorOffsets(tensors []TensorMeta, dataSize int64) error {
	if len(tensors) > MaxTensorCount {
		return &ValidationError{
			Type:    "too_many_tensors",
			Details: fmt.Sprintf("got %d, max %d", len(tensors), MaxTensorCount),
		}
	}

	byOffset := append([]TensorMeta(nil), tensors...)
	sort.Slice(byOffset, func(i, j int) bool {
		return byOffset[i].Offset < byOffset[j].Offset
	})

	var end int64
	var prev string
	for _, t := range byOffset {
		if t.Offset < 0 || t.Size < 0 {
			return &ValidationError{
				Type:    "negative_offset",
				Tensor:  t.Name,
				Details: fmt.Sprintf("offset=%d, size=%d", t.Offset, t.Size),
			}
		}
		if t.Offset+t.Size > dataSize {
			return &ValidationError{
				Type:    "out_of_bounds",
				Tensor:  t.Name,
				Details: fmt.Sprintf("offset %d + size %d > data size %d", t.Offset, t.Size, dataSize),
			}
		}
		if prev != "" && t.Offset < end {
			return &ValidationError{
				Type:    "offset_overlap",
				Tensor:  prev,
				Tensor2: t.Name,
				Details: fmt.Sprintf("region ending at %d overlaps region starting at %d", end, t.Offset),
			}
		}
		end, prev = t.Offset+t.Size, t.Name
	}
	return nil
}

// ValidateTensorName rejects empty, oversized and path-like names.
func ValidateTensorName(name string) error {
	invalid := func(details string) error {
		return &ValidationError{Type: "invalid_name", Tensor: name, Details: details}
	}
	switch {
	case name == "":
		return invalid("empty name")
	case len(name) > MaxTensorNameLen:
		return invalid(fmt.Sprintf("length %d > max %d", len(name), MaxTensorNameLen))
	case strings.Contains(name, ".."):
		return invalid("contains '..'")
	case strings.ContainsAny(name, "/\\"):
		return invalid("contains path separator")
	case strings.ContainsRune(name, 0):
		return invalid("contains null byte")
	}
	return nil
}

// ValidateTensorMeta checks the data type and that the byte size matches
// the shape.
func ValidateTensorMeta(t TensorMeta) error {
	if t.DType != DTypeFloat64 {
		return &ValidationError{Type: "unsupported_dtype", Tensor: t.Name, Details: t.DType}
	}
	n := 1
	for _, d := range t.Shape {
		if d < 0 {
			return &ValidationError{Type: "invalid_shape", Tensor: t.Name, Details: fmt.Sprintf("%v", t.Shape)}
		}
		n *= d
	}
	if want := int64(n) * 8; t.Size != want {
		return &ValidationError{
			Type:    "size_mismatch",
			Tensor:  t.Name,
			Details: fmt.Sprintf("shape %v needs %d bytes, header says %d", t.Shape, want, t.Size),
		}
	}
	return nil
}

// ValidateHeader checks the tensor table of h against a data section of
// dataSize bytes.
func ValidateHeader(h *Header, dataSize int64, level ValidationLevel) error {
	if level == ValidationNone {
		return nil
	}
	if len(h.Tensors) > MaxTensorCount {
		return &ValidationError{
			Type:    "too_many_tensors",
			Details: fmt.Sprintf("got %d, max %d", len(h.Tensors), MaxTensorCount),
		}
	}

	seen := make(map[string]bool, len(h.Tensors))
	for _, t := range h.Tensors {
		if err := ValidateTensorName(t.Name); err != nil {
			return err
		}
		if seen[t.Name] {
			return &ValidationError{Type: "duplicate_name", Tensor: t.Name, Details: "listed twice"}
		}
		seen[t.Name] = true
		if err := ValidateTensorMeta(t); err != nil {
			return err
		}
	}

	if level == ValidationStrict {
		return ValidateTensorOffsets(h.Tensors, dataSize)
	}
	return nil
}
