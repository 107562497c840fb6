package serialization

import (
	"errors"
	"strings"
	"testing"
)

func float64Meta(name string, offset int64, n int) TensorMeta {
	return TensorMeta{Name: name, DType: DTypeFloat64, Shape: []int{n}, Offset: offset, Size: int64(8 * n)}
}

func validationType(t *testing.T, err error) string {
	t.Helper()
	var validationErr *ValidationError
	if !errors.As(err, &validationErr) {
		t.Fatalf("Expected ValidationError, got %T (%v)", err, err)
	}
	return validationErr.Type
}

// TestValidateTensorOffsets covers bounds, overlaps and negative regions.
func TestValidateTensorOffsets(t *testing.T) {
	tests := []struct {
		name     string
		tensors  []TensorMeta
		dataSize int64
		wantType string
	}{
		{
			name:     "adjacent regions",
			tensors:  []TensorMeta{{Name: "a", Offset: 0, Size: 100}, {Name: "b", Offset: 100, Size: 100}},
			dataSize: 200,
		},
		{
			name:     "unsorted adjacent regions",
			tensors:  []TensorMeta{{Name: "b", Offset: 100, Size: 100}, {Name: "a", Offset: 0, Size: 100}},
			dataSize: 200,
		},
		{
			name:     "overlap by one byte",
			tensors:  []TensorMeta{{Name: "a", Offset: 0, Size: 100}, {Name: "b", Offset: 99, Size: 100}},
			dataSize: 200,
			wantType: "offset_overlap",
		},
		{
			name:     "beyond data section",
			tensors:  []TensorMeta{{Name: "a", Offset: 100, Size: 200}},
			dataSize: 250,
			wantType: "out_of_bounds",
		},
		{
			name:     "negative offset",
			tensors:  []TensorMeta{{Name: "a", Offset: -8, Size: 8}},
			dataSize: 100,
			wantType: "negative_offset",
		},
		{
			name:     "negative size",
			tensors:  []TensorMeta{{Name: "a", Offset: 0, Size: -8}},
			dataSize: 100,
			wantType: "negative_offset",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateTensorOffsets(tt.tensors, tt.dataSize)
			if tt.wantType == "" {
				if err != nil {
					t.Errorf("Expected no error, got: %v", err)
				}
				return
			}
			if got := validationType(t, err); got != tt.wantType {
				t.Errorf("Expected %s error, got %s", tt.wantType, got)
			}
		})
	}
}

// TestValidateTensorName rejects path-like names and accepts state dict keys.
func TestValidateTensorName(t *testing.T) {
	bad := []string{
		"",
		"../../../etc/passwd",
		"layer/0/weight",
		"model\\layer",
		"tensor\x00hidden",
		strings.Repeat("a", MaxTensorNameLen+1),
	}
	for _, name := range bad {
		if err := ValidateTensorName(name); err == nil {
			t.Errorf("Expected error for name %q", name)
		}
	}

	good := []string{"0.kernels", "2.weight", "2.bias", OptimizerPrefix + "velocity.2.weight"}
	for _, name := range good {
		if err := ValidateTensorName(name); err != nil {
			t.Errorf("Expected no error for %q, got: %v", name, err)
		}
	}
}

// TestValidateTensorMeta checks data type and size consistency.
func TestValidateTensorMeta(t *testing.T) {
	if err := ValidateTensorMeta(float64Meta("0.weight", 0, 6)); err != nil {
		t.Fatalf("Expected valid meta, got: %v", err)
	}

	wrongType := float64Meta("0.weight", 0, 6)
	wrongType.DType = "float32"
	if got := validationType(t, ValidateTensorMeta(wrongType)); got != "unsupported_dtype" {
		t.Errorf("Expected unsupported_dtype, got %s", got)
	}

	wrongSize := float64Meta("0.weight", 0, 6)
	wrongSize.Size = 40
	if got := validationType(t, ValidateTensorMeta(wrongSize)); got != "size_mismatch" {
		t.Errorf("Expected size_mismatch, got %s", got)
	}
}

// TestValidateHeader_Levels checks which checks run at each level.
func TestValidateHeader_Levels(t *testing.T) {
	overlapping := Header{Tensors: []TensorMeta{float64Meta("a", 0, 4), float64Meta("b", 16, 4)}}

	if err := ValidateHeader(&overlapping, 64, ValidationNormal); err != nil {
		t.Errorf("Normal validation should skip offsets, got: %v", err)
	}
	if err := ValidateHeader(&overlapping, 64, ValidationStrict); err == nil {
		t.Error("Strict validation should fail on overlap")
	}

	duplicate := Header{Tensors: []TensorMeta{float64Meta("a", 0, 1), float64Meta("a", 8, 1)}}
	if got := validationType(t, ValidateHeader(&duplicate, 16, ValidationNormal)); got != "duplicate_name" {
		t.Errorf("Expected duplicate_name, got %s", got)
	}

	hostile := Header{Tensors: []TensorMeta{{Name: "../x", Offset: -1, Size: -1}}}
	if err := ValidateHeader(&hostile, 0, ValidationNone); err != nil {
		t.Errorf("ValidationNone should skip all checks, got: %v", err)
	}
}

// TestValidationError_ErrorMessages verifies error message formatting.
func TestValidationError_ErrorMessages(t *testing.T) {
	tests := []struct {
		err      *ValidationError
		expected string
	}{
		{
			err:      &ValidationError{Type: "out_of_bounds", Tensor: "2.bias", Details: "too far"},
			expected: `out_of_bounds: tensor "2.bias": too far`,
		},
		{
			err:      &ValidationError{Type: "offset_overlap", Tensor: "a", Tensor2: "b", Details: "overlap"},
			expected: `offset_overlap: tensors "a" and "b": overlap`,
		},
		{
			err:      &ValidationError{Type: "too_many_tensors", Details: "got 100001, max 100000"},
			expected: "too_many_tensors: got 100001, max 100000",
		},
	}

	for _, tt := range tests {
		if actual := tt.err.Error(); actual != tt.expected {
			t.Errorf("Error message mismatch\nExpected: %s\nGot:      %s", tt.expected, actual)
		}
	}
}

// FuzzValidateTensorName ensures name validation never panics on random input.
func FuzzValidateTensorName(f *testing.F) {
	f.Add("0.weight")
	f.Add("../malicious")
	f.Add("\x00null_byte")

	f.Fuzz(func(_ *testing.T, name string) {
		_ = ValidateTensorName(name)
	})
}
