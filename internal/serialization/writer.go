package serialization

import (
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"sort"
	"time"
)

// Version is recorded in the header of every file written.
const Version = "0.1.0"

// Save writes m to a new file at path. A partially written file is removed.
func Save(path string, m *Model) (err error) {
	//nolint:gosec // G304: File path comes from user input, which is expected for model saving
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer func() {
		if closeErr := file.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("failed to close file: %w", closeErr)
		}
		if err != nil {
			_ = os.Remove(path)
		}
	}()
	return Write(file, m)
}

// Write encodes m in .born format.
func Write(w io.Writer, m *Model) error {
	if m == nil {
		return errors.New("serialization: nil model")
	}

	names, tensors := collect(m)
	header := Header{
		FormatVersion: FormatVersion,
		Version:       Version,
		ModelType:     ModelType,
		CreatedAt:     m.CreatedAt,
		Topology:      m.Network,
		Tensors:       make([]TensorMeta, 0, len(names)),
		Metadata:      m.Metadata,
	}
	if header.CreatedAt.IsZero() {
		header.CreatedAt = time.Now().UTC()
	}

	var offset int64
	for _, name := range names {
		size := int64(len(tensors[name]) * 8)
		header.Tensors = append(header.Tensors, TensorMeta{
			Name:   name,
			DType:  DTypeFloat64,
			Shape:  []int{len(tensors[name])},
			Offset: offset,
			Size:   size,
		})
		offset += size
	}
	if err := ValidateHeader(&header, offset, ValidationStrict); err != nil {
		return fmt.Errorf("invalid tensor table: %w", err)
	}

	data := make([]byte, 0, offset)
	for _, name := range names {
		data = appendFloats(data, tensors[name])
	}

	headerJSON, err := json.Marshal(header)
	if err != nil {
		return fmt.Errorf("failed to marshal header: %w", err)
	}
	if len(headerJSON) > MaxHeaderSize {
		return ErrHeaderTooLarge
	}

	flags := uint32(0)
	if len(m.Optimizer) > 0 {
		flags |= FlagHasOptimizer
	}
	if len(m.Metadata) > 0 {
		flags |= FlagHasMetadata
	}

	fixed := make([]byte, FixedHeaderSize)
	copy(fixed[0:4], MagicBytes)
	binary.LittleEndian.PutUint32(fixed[4:8], FormatVersion)
	binary.LittleEndian.PutUint32(fixed[8:12], flags)
	binary.LittleEndian.PutUint64(fixed[16:24], uint64(len(headerJSON)))
	binary.LittleEndian.PutUint64(fixed[24:32], uint64(len(data)))
	checksum := ComputeChecksum(data)
	copy(fixed[ChecksumOffset:ChecksumOffset+ChecksumSize], checksum[:])

	padding := alignedOffset(int64(len(headerJSON))) - int64(FixedHeaderSize+len(headerJSON))
	for _, chunk := range [][]byte{fixed, headerJSON, make([]byte, padding), data} {
		if _, err := w.Write(chunk); err != nil {
			return fmt.Errorf("failed to write model: %w", err)
		}
	}
	return nil
}

// collect merges network and optimizer state under their tensor names, in
// a stable order.
func collect(m *Model) ([]string, map[string][]float64) {
	tensors := make(map[string][]float64, len(m.Network.State)+len(m.Optimizer))
	for k, v := range m.Network.State {
		tensors[k] = v
	}
	for k, v := range m.Optimizer {
		tensors[OptimizerPrefix+k] = v
	}
	names := make([]string, 0, len(tensors))
	for k := range tensors {
		names = append(names, k)
	}
	sort.Strings(names)
	return names, tensors
}

func appendFloats(dst []byte, values []float64) []byte {
	for _, v := range values {
		dst = binary.LittleEndian.AppendUint64(dst, math.Float64bits(v))
	}
	return dst
}
