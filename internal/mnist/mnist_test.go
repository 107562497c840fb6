package mnist

import (
	"bytes"
	"compress/gzip"
	"encoding/binary"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func idxImages(t *testing.T, rows, cols int, images ...[]byte) []byte {
	t.Helper()
	var buf bytes.Buffer
	hdr := []uint32{ImagesMagic, uint32(len(images)), uint32(rows), uint32(cols)}
	require.NoError(t, binary.Write(&buf, binary.BigEndian, hdr))
	for _, img := range images {
		buf.Write(img)
	}
	return buf.Bytes()
}

func idxLabels(t *testing.T, labels ...byte) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, binary.Write(&buf, binary.BigEndian, []uint32{LabelsMagic, uint32(len(labels))}))
	buf.Write(labels)
	return buf.Bytes()
}

func TestReadImages(t *testing.T) {
	data := idxImages(t, 2, 3, []byte{0, 1, 2, 3, 4, 5}, []byte{255, 0, 0, 0, 0, 128})

	images, rows, cols, err := ReadImages(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, 2, rows)
	assert.Equal(t, 3, cols)
	require.Len(t, images, 2)
	assert.Equal(t, []byte{255, 0, 0, 0, 0, 128}, images[1])

	_, _, _, err = ReadImages(bytes.NewReader(data[:len(data)-1]))
	assert.ErrorIs(t, err, io.ErrUnexpectedEOF)

	binary.BigEndian.PutUint32(data, LabelsMagic)
	_, _, _, err = ReadImages(bytes.NewReader(data))
	assert.ErrorIs(t, err, ErrBadMagic)
}

func TestReadLabels(t *testing.T) {
	data := idxLabels(t, 7, 0, 9)

	labels, err := ReadLabels(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, []byte{7, 0, 9}, labels)

	_, err = ReadLabels(bytes.NewReader(data[:len(data)-1]))
	assert.ErrorIs(t, err, io.ErrUnexpectedEOF)

	_, err = ReadLabels(bytes.NewReader(idxImages(t, 1, 1)))
	assert.ErrorIs(t, err, ErrBadMagic)
}

func TestPixel(t *testing.T) {
	assert.Equal(t, 0.0, Pixel(0, false))
	assert.Equal(t, 0.5, Pixel(128, false))
	assert.Equal(t, 255.0/256, Pixel(255, false))
	assert.Equal(t, 1.0, Pixel(3, true))
	assert.Equal(t, 0.0, Pixel(0, true))
}

func TestNewDataset(t *testing.T) {
	images := [][]byte{{0, 128}, {255, 0}, {1, 1}, {0, 0}}
	labels := []byte{3, 1, 9, 0}

	d, err := NewDataset(images, labels, 2, Options{Fraction: 0.5})
	require.NoError(t, err)
	require.Equal(t, 2, d.Len())
	assert.Equal(t, []float64{0, 0.5}, d.Inputs()[0])
	assert.Equal(t, []float64{0, 0, 0, 1, 0, 0, 0, 0, 0, 0}, d.Targets()[0])
	assert.Equal(t, []float64{0, 1, 0, 0, 0, 0, 0, 0, 0, 0}, d.Targets()[1])

	all, err := NewDataset(images, labels, 2, Options{Binary: true})
	require.NoError(t, err)
	assert.Equal(t, 4, all.Len())
	assert.Equal(t, []float64{1, 1}, all.Inputs()[2])

	_, err = NewDataset(images, labels[:3], 2, Options{})
	assert.ErrorIs(t, err, ErrCountMismatch)
	_, err = NewDataset(images, []byte{3, 1, 10, 0}, 2, Options{})
	assert.Error(t, err)
	_, err = NewDataset(images, labels, 2, Options{Fraction: 2})
	assert.Error(t, err)
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	img := idxImages(t, 2, 2, []byte{0, 64, 128, 255}, []byte{10, 0, 0, 0})
	require.NoError(t, os.WriteFile(filepath.Join(dir, "t10k-images-idx3-ubyte"), img, 0o600))

	var gz bytes.Buffer
	w := gzip.NewWriter(&gz)
	_, err := w.Write(idxLabels(t, 4, 2))
	require.NoError(t, err)
	require.NoError(t, w.Close())
	require.NoError(t, os.WriteFile(filepath.Join(dir, "t10k-labels.idx1-ubyte.gz"), gz.Bytes(), 0o600))

	d, err := Load(dir, Options{})
	require.NoError(t, err)
	require.Equal(t, 2, d.Len())
	assert.Equal(t, []float64{0, 0.25, 0.5, 255.0 / 256}, d.Inputs()[0])
	assert.Equal(t, 1.0, d.Targets()[1][2])

	_, err = Load(dir, Options{Train: true})
	assert.ErrorIs(t, err, fs.ErrNotExist)
}

func TestLoad_CountMismatch(t *testing.T) {
	dir := t.TempDir()
	img := idxImages(t, 1, 1, []byte{1}, []byte{2})
	require.NoError(t, os.WriteFile(filepath.Join(dir, "train-images-idx3-ubyte"), img, 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "train-labels-idx1-ubyte"), idxLabels(t, 1), 0o600))

	_, err := Load(dir, Options{Train: true})
	assert.ErrorIs(t, err, ErrCountMismatch)
}
