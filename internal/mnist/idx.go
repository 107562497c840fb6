// Package mnist decodes the MNIST handwritten digit set from IDX files.
package mnist

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

// IDX magic numbers.
const (
	ImagesMagic = 0x00000803 // 2051
	LabelsMagic = 0x00000801 // 2049
)

// Errors returned by the decoders.
var (
	ErrBadMagic      = errors.New("mnist: invalid magic number")
	ErrCountMismatch = errors.New("mnist: image and label counts differ")
)

// maxPrealloc bounds allocations driven by untrusted header counts.
const maxPrealloc = 1 << 16

// ReadImages decodes an IDX image file.
//
// IDX file format for images:
//
//	magic number: 0x00000803 (2051)
//	number of images: 4 bytes
//	number of rows: 4 bytes (28)
//	number of cols: 4 bytes (28)
//	pixel data: unsigned bytes (0-255), row-major
func ReadImages(r io.Reader) (images [][]byte, rows, cols int, err error) {
	var hdr struct {
		Magic, Count, Rows, Cols uint32
	}
	if err := binary.Read(r, binary.BigEndian, &hdr); err != nil {
		return nil, 0, 0, fmt.Errorf("mnist: failed to read image header: %w", err)
	}
	if hdr.Magic != ImagesMagic {
		return nil, 0, 0, fmt.Errorf("%w: got %d, want %d", ErrBadMagic, hdr.Magic, ImagesMagic)
	}

	rows, cols = int(hdr.Rows), int(hdr.Cols)
	size := rows * cols
	if size == 0 {
		return nil, 0, 0, fmt.Errorf("mnist: empty image size %dx%d", rows, cols)
	}
	images = make([][]byte, 0, min(int(hdr.Count), maxPrealloc))
	for i := 0; i < int(hdr.Count); i++ {
		img := make([]byte, size)
		if _, err := io.ReadFull(r, img); err != nil {
			return nil, 0, 0, fmt.Errorf("mnist: failed to read image %d: %w", i, err)
		}
		images = append(images, img)
	}
	return images, rows, cols, nil
}

// ReadLabels decodes an IDX label file.
//
// IDX file format for labels:
//
//	magic number: 0x00000801 (2049)
//	number of labels: 4 bytes
//	label data: unsigned bytes (0-9)
func ReadLabels(r io.Reader) ([]byte, error) {
	var hdr struct {
		Magic, Count uint32
	}
	if err := binary.Read(r, binary.BigEndian, &hdr); err != nil {
		return nil, fmt.Errorf("mnist: failed to read label header: %w", err)
	}
	if hdr.Magic != LabelsMagic {
		return nil, fmt.Errorf("%w: got %d, want %d", ErrBadMagic, hdr.Magic, LabelsMagic)
	}

	labels, err := io.ReadAll(io.LimitReader(r, int64(hdr.Count)))
	if err != nil {
		return nil, fmt.Errorf("mnist: failed to read labels: %w", err)
	}
	if len(labels) != int(hdr.Count) {
		return nil, fmt.Errorf("mnist: failed to read labels: got %d of %d: %w", len(labels), hdr.Count, io.ErrUnexpectedEOF)
	}
	return labels, nil
}
