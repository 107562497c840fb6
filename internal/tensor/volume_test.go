package tensor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestShape_Basics(t *testing.T) {
	s := NewShape(4, 3, 2)

	assert.Equal(t, 24, s.NumElements())
	assert.Equal(t, 4, s.Width())
	assert.Equal(t, 3, s.Height())
	assert.Equal(t, 2, s.Depth())
	assert.NoError(t, s.Validate())
	assert.False(t, s.IsFlat())
	assert.True(t, Flat(7).IsFlat())
	assert.True(t, s.Equal(Shape{4, 3, 2}))
	assert.Equal(t, "4x3x2", s.String())

	assert.Error(t, Shape{0, 1, 1}.Validate())
	assert.Error(t, Shape{1, -2, 1}.Validate())
}

// TestShape_IndexRoundTrip checks that Coords inverts Index and that the first
// axis varies fastest.
func TestShape_IndexRoundTrip(t *testing.T) {
	s := NewShape(3, 4, 5)
	assert.Equal(t, 1, s.Index(1, 0, 0))
	assert.Equal(t, 3, s.Index(0, 1, 0))
	assert.Equal(t, 12, s.Index(0, 0, 1))

	for idx := 0; idx < s.NumElements(); idx++ {
		i, j, k := s.Coords(idx)
		assert.Equal(t, idx, s.Index(i, j, k))
	}
}

func TestFromSlice(t *testing.T) {
	data := []float64{1, 2, 3, 4, 5, 6}
	v, err := FromSlice(data, NewShape(3, 2, 1))
	require.NoError(t, err)

	assert.Equal(t, 1.0, v.At(0, 0, 0))
	assert.Equal(t, 3.0, v.At(2, 0, 0))
	assert.Equal(t, 4.0, v.At(0, 1, 0))

	// The input slice is copied.
	data[0] = 100
	assert.Equal(t, 1.0, v.At(0, 0, 0))

	_, err = FromSlice(data, NewShape(2, 2, 1))
	assert.Error(t, err)
	_, err = FromSlice(nil, NewShape(0, 2, 1))
	assert.Error(t, err)
}

// TestVolume_AtOrZero checks the implicit zero padding outside the extent.
func TestVolume_AtOrZero(t *testing.T) {
	v := NewVolume(NewShape(2, 2, 1))
	v.Set(1, 1, 0, 5)

	assert.Equal(t, 5.0, v.AtOrZero(1, 1, 0))
	assert.Equal(t, 0.0, v.AtOrZero(-1, 0, 0))
	assert.Equal(t, 0.0, v.AtOrZero(2, 0, 0))
	assert.Equal(t, 0.0, v.AtOrZero(0, 0, 1))
	assert.Equal(t, -3.0, v.AtOr(0, 5, 0, -3))
}

func TestVolume_CloneIsDeep(t *testing.T) {
	v := NewVolume(NewShape(2, 1, 1))
	v.Set(0, 0, 0, 1)
	c := v.Clone()
	c.Set(0, 0, 0, 9)

	assert.Equal(t, 1.0, v.At(0, 0, 0))
	assert.Equal(t, 9.0, c.At(0, 0, 0))
}

func TestVolume_FlattenReshape(t *testing.T) {
	v, err := FromSlice([]float64{1, 2, 3, 4}, NewShape(2, 2, 1))
	require.NoError(t, err)

	flat := v.Flatten()
	assert.Equal(t, []float64{1, 2, 3, 4}, flat)

	r := v.Reshape(Flat(4))
	assert.Equal(t, 3.0, r.At(2, 0, 0))
	assert.Panics(t, func() { v.Reshape(Flat(3)) })

	v.Add(0, 0, 0, 1)
	assert.Equal(t, 2.0, r.At(0, 0, 0), "reshape shares data")

	v.Zero()
	assert.Equal(t, []float64{0, 0, 0, 0}, v.Data())
}

func TestNewVolume_InvalidShapePanics(t *testing.T) {
	assert.Panics(t, func() { NewVolume(Shape{1, 0, 1}) })
}
