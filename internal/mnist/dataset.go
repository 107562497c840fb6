package mnist

import (
	"compress/gzip"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/born-ml/convnet/internal/tensor"
	"github.com/born-ml/convnet/internal/train"
)

// NumClasses is the number of digit classes.
const NumClasses = 10

// Options selects which part of the set to load and how pixels are scaled.
type Options struct {
	Train    bool    // Training set (60,000 images) instead of the test set (10,000)
	Fraction float64 // Share of the file to keep, in (0, 1]; 0 keeps everything
	Binary   bool    // Map every nonzero pixel to 1 instead of b/256
}

// Files lists the candidate names of the image and label files, in lookup
// order. Both the distributed names and the dotted variants are accepted,
// optionally gzip-compressed.
func Files(trainSet bool) (images, labels []string) {
	prefix := "t10k"
	if trainSet {
		prefix = "train"
	}
	for _, sep := range []string{"-", "."} {
		for _, ext := range []string{"", ".gz"} {
			images = append(images, prefix+"-images"+sep+"idx3-ubyte"+ext)
			labels = append(labels, prefix+"-labels"+sep+"idx1-ubyte"+ext)
		}
	}
	return images, labels
}

// Load reads the images and labels in dir into a dataset with one-hot
// targets.
//
// Download MNIST from: http://yann.lecun.com/exdb/mnist/
func Load(dir string, opts Options) (*train.Dataset, error) {
	imageNames, labelNames := Files(opts.Train)

	var images [][]byte
	var rows, cols int
	err := withFile(dir, imageNames, func(r io.Reader) error {
		var err error
		images, rows, cols, err = ReadImages(r)
		return err
	})
	if err != nil {
		return nil, err
	}

	var labels []byte
	err = withFile(dir, labelNames, func(r io.Reader) error {
		var err error
		labels, err = ReadLabels(r)
		return err
	})
	if err != nil {
		return nil, err
	}

	return NewDataset(images, labels, rows*cols, opts)
}

// NewDataset converts decoded images and labels into a training dataset.
func NewDataset(images [][]byte, labels []byte, pixels int, opts Options) (*train.Dataset, error) {
	if len(images) != len(labels) {
		return nil, fmt.Errorf("%w: %d images, %d labels", ErrCountMismatch, len(images), len(labels))
	}
	if opts.Fraction < 0 || opts.Fraction > 1 {
		return nil, fmt.Errorf("mnist: fraction must be in [0, 1], got %g", opts.Fraction)
	}

	n := len(images)
	if opts.Fraction > 0 {
		n = int(float64(n) * opts.Fraction)
	}

	inputs := make([][]float64, n)
	targets := make([][]float64, n)
	for i := 0; i < n; i++ {
		if len(images[i]) != pixels {
			return nil, fmt.Errorf("mnist: image %d has %d pixels, want %d", i, len(images[i]), pixels)
		}
		if labels[i] >= NumClasses {
			return nil, fmt.Errorf("mnist: label %d out of range at index %d", labels[i], i)
		}
		inputs[i] = make([]float64, pixels)
		for j, b := range images[i] {
			inputs[i][j] = Pixel(b, opts.Binary)
		}
		targets[i] = tensor.OneHot(NumClasses, int(labels[i]))
	}
	return train.NewDataset(inputs, targets)
}

// Pixel scales one byte to [0, 1).
func Pixel(b byte, binary bool) float64 {
	if binary {
		if b == 0 {
			return 0
		}
		return 1
	}
	return float64(b) / 256
}

// withFile opens the first of names found in dir and calls f with its
// (decompressed) content.
func withFile(dir string, names []string, f func(io.Reader) error) error {
	for _, name := range names {
		path := filepath.Join(dir, name)
		//nolint:gosec // G304: Data directory comes from user input
		file, err := os.Open(path)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return fmt.Errorf("mnist: %w", err)
		}
		defer file.Close()

		var r io.Reader = file
		if filepath.Ext(name) == ".gz" {
			gz, err := gzip.NewReader(file)
			if err != nil {
				return fmt.Errorf("mnist: %s: %w", path, err)
			}
			defer gz.Close()
			r = gz
		}
		if err := f(r); err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
		return nil
	}
	return fmt.Errorf("mnist: none of %v found in %s: %w", names, dir, fs.ErrNotExist)
}
