package serialization

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"strings"
)

// ReaderOptions configures decoding.
type ReaderOptions struct {
	SkipChecksumValidation bool            // Skip checksum validation (faster but less safe)
	ValidationLevel        ValidationLevel // Tensor table strictness
}

// Load reads the model stored at path with strict validation.
//
// The file is memory-mapped while it is decoded; the returned model owns
// its data and stays valid after Load returns.
func Load(path string) (*Model, error) {
	return LoadWithOptions(path, ReaderOptions{ValidationLevel: ValidationStrict})
}

// LoadWithOptions is Load with custom options.
func LoadWithOptions(path string, opts ReaderOptions) (*Model, error) {
	f, err := openMapped(path)
	if err != nil {
		return nil, err
	}
	m, err := Decode(f.data, opts)
	if closeErr := f.Close(); closeErr != nil && err == nil {
		err = closeErr
	}
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", path, err)
	}
	return m, nil
}

// Read decodes a model from r with strict validation.
func Read(r io.Reader) (*Model, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read model: %w", err)
	}
	return Decode(data, ReaderOptions{ValidationLevel: ValidationStrict})
}

// Decode parses a complete .born file held in data. The returned model does
// not reference data.
func Decode(data []byte, opts ReaderOptions) (*Model, error) {
	header, section, err := parse(data, opts)
	if err != nil {
		return nil, err
	}

	m := &Model{
		Network:   header.Topology,
		Metadata:  header.Metadata,
		CreatedAt: header.CreatedAt,
	}
	m.Network.State = make(map[string][]float64)
	for _, t := range header.Tensors {
		values := readFloats(section[t.Offset : t.Offset+t.Size])
		if name, ok := strings.CutPrefix(t.Name, OptimizerPrefix); ok {
			if m.Optimizer == nil {
				m.Optimizer = make(map[string][]float64)
			}
			m.Optimizer[name] = values
			continue
		}
		m.Network.State[t.Name] = values
	}
	return m, nil
}

// parse checks the fixed header, the checksum and the tensor table, and
// returns the JSON header with the data section.
func parse(data []byte, opts ReaderOptions) (*Header, []byte, error) {
	if len(data) < FixedHeaderSize {
		return nil, nil, fmt.Errorf("%w: %d bytes, fixed header needs %d", ErrTruncated, len(data), FixedHeaderSize)
	}
	if string(data[0:4]) != MagicBytes {
		return nil, nil, ErrInvalidMagic
	}
	if version := binary.LittleEndian.Uint32(data[4:8]); version != FormatVersion {
		return nil, nil, fmt.Errorf("%w: got %d, expected %d", ErrUnsupportedVersion, version, FormatVersion)
	}

	headerSize := binary.LittleEndian.Uint64(data[16:24])
	dataSize := binary.LittleEndian.Uint64(data[24:32])
	var checksum [ChecksumSize]byte
	copy(checksum[:], data[ChecksumOffset:ChecksumOffset+ChecksumSize])

	if headerSize > MaxHeaderSize {
		return nil, nil, ErrHeaderTooLarge
	}
	//nolint:gosec // G115: headerSize is bounded by MaxHeaderSize
	start := alignedOffset(int64(headerSize))
	if uint64(len(data)) < uint64(start) || uint64(len(data))-uint64(start) < dataSize {
		return nil, nil, fmt.Errorf("%w: header declares %d data bytes after offset %d, file has %d bytes",
			ErrTruncated, dataSize, start, len(data))
	}
	section := data[start : uint64(start)+dataSize]

	if !opts.SkipChecksumValidation {
		if err := ValidateChecksum(section, checksum); err != nil {
			return nil, nil, err
		}
	}

	var h Header
	if err := json.Unmarshal(data[FixedHeaderSize:FixedHeaderSize+headerSize], &h); err != nil {
		return nil, nil, fmt.Errorf("failed to parse header JSON: %w", err)
	}
	if h.ModelType != ModelType {
		return nil, nil, fmt.Errorf("%w: %q", ErrModelType, h.ModelType)
	}

	if err := ValidateHeader(&h, int64(len(section)), opts.ValidationLevel); err != nil {
		return nil, nil, fmt.Errorf("validation failed: %w", err)
	}
	// Decoding needs every region inside the data section at any level.
	if err := checkBounds(h.Tensors, int64(len(section))); err != nil {
		return nil, nil, err
	}
	return &h, section, nil
}

func checkBounds(tensors []TensorMeta, dataSize int64) error {
	for _, t := range tensors {
		if t.Offset < 0 || t.Size < 0 || t.Offset+t.Size > dataSize || t.Size%8 != 0 {
			return &ValidationError{
				Type:    "out_of_bounds",
				Tensor:  t.Name,
				Details: fmt.Sprintf("offset %d + size %d outside data size %d", t.Offset, t.Size, dataSize),
			}
		}
	}
	return nil
}

func readFloats(b []byte) []float64 {
	values := make([]float64, len(b)/8)
	for i := range values {
		values[i] = math.Float64frombits(binary.LittleEndian.Uint64(b[8*i:]))
	}
	return values
}
