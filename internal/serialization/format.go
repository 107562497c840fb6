package serialization

import (
	"time"

	"github.com/born-ml/convnet/internal/nn"
)

// Format constants.
const (
	MagicBytes      = "BORN"
	FormatVersion   = 2    // Fixed header with SHA-256 checksum
	HeaderAlignment = 64   // Tensor data starts on a 64-byte boundary
	FixedHeaderSize = 64   // 0x40 bytes
	ChecksumSize    = 32   // SHA-256
	ChecksumOffset  = 0x20 // Checksum position in the fixed header

	// ModelType identifies files holding a layered network.
	ModelType = "convnet.Network"

	// DTypeFloat64 is the only tensor data type written.
	DTypeFloat64 = "float64"

	// OptimizerPrefix marks tensors holding optimizer state.
	OptimizerPrefix = "optim."
)

// Flags for the .born format.
const (
	FlagHasOptimizer uint32 = 1 << 1 // Optimizer state included
	FlagHasMetadata  uint32 = 1 << 2 // Custom metadata included
)

// Header is the JSON header of a .born file.
type Header struct {
	FormatVersion int               `json:"format_version"`
	Version       string            `json:"convnet_version"` // Version of the writer
	ModelType     string            `json:"model_type"`
	CreatedAt     time.Time         `json:"created_at"`
	Topology      nn.Snapshot       `json:"topology"` // Parameters live in the data section
	Tensors       []TensorMeta      `json:"tensors"`
	Metadata      map[string]string `json:"metadata,omitempty"`
}

// TensorMeta locates one tensor in the data section.
type TensorMeta struct {
	Name   string `json:"name"`   // State dict key, e.g. "2.weight"
	DType  string `json:"dtype"`  // Always "float64"
	Shape  []int  `json:"shape"`  // Flat length
	Offset int64  `json:"offset"` // Bytes from the start of the data section
	Size   int64  `json:"size"`   // Size in bytes
}

// Model is everything a .born file carries.
type Model struct {
	Network   nn.Snapshot          // Topology and parameters
	Optimizer map[string][]float64 // Optimizer state dict; nil when absent
	Metadata  map[string]string    // Free-form annotations
	CreatedAt time.Time            // Set by Write when zero
}

// Build rebuilds the network described by m.
func (m *Model) Build() (*nn.Network, error) {
	return nn.FromSnapshot(m.Network)
}

func alignedOffset(headerSize int64) int64 {
	pos := int64(FixedHeaderSize) + headerSize
	return pos + (HeaderAlignment-pos%HeaderAlignment)%HeaderAlignment
}
