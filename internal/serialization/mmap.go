package serialization

import (
	"fmt"
	"math"
	"os"
)

// mappedFile is a read-only memory mapping of a whole file.
type mappedFile struct {
	file *os.File
	data []byte
}

// openMapped maps the file at path into memory.
//
// Important: Always call Close() when done to unmap the file (use defer).
func openMapped(path string) (*mappedFile, error) {
	//nolint:gosec // G304: File path comes from user input, which is expected for model loading
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}

	stat, err := file.Stat()
	if err != nil {
		_ = file.Close()
		return nil, fmt.Errorf("failed to stat file: %w", err)
	}
	if stat.Size() < FixedHeaderSize {
		_ = file.Close()
		return nil, fmt.Errorf("%s: %w: %d bytes", path, ErrTruncated, stat.Size())
	}

	if stat.Size() > math.MaxInt {
		_ = file.Close()
		return nil, fmt.Errorf("%s: %d bytes cannot be mapped", path, stat.Size())
	}
	data, err := mapReadOnly(file, int(stat.Size()))
	if err != nil {
		_ = file.Close()
		return nil, fmt.Errorf("mmap failed: %w", err)
	}
	return &mappedFile{file: file, data: data}, nil
}

// Close unmaps the file and closes it. Calling Close twice is a no-op.
func (f *mappedFile) Close() error {
	if f.file == nil {
		return nil
	}
	var err error
	if f.data != nil {
		err = unmap(f.data)
		f.data = nil
	}
	if closeErr := f.file.Close(); closeErr != nil && err == nil {
		err = closeErr
	}
	f.file = nil
	return err
}
