package tensor

import "fmt"

// Shape represents the extent of a volume: width × height × depth.
//
// Element (i, j, k) lives at flat index i + j*W + k*W*H, so the first axis
// varies fastest. The same order is used when a volume is flattened into a
// vector and when a vector is reshaped into a volume.
type Shape [3]int

// NewShape creates a Shape from its three extents.
func NewShape(width, height, depth int) Shape {
	return Shape{width, height, depth}
}

// Flat returns the shape of a column vector of n elements: {n, 1, 1}.
func Flat(n int) Shape {
	return Shape{n, 1, 1}
}

// Width returns the extent of the first axis.
func (s Shape) Width() int { return s[0] }

// Height returns the extent of the second axis.
func (s Shape) Height() int { return s[1] }

// Depth returns the extent of the third axis.
func (s Shape) Depth() int { return s[2] }

// NumElements returns the total number of elements.
func (s Shape) NumElements() int {
	return s[0] * s[1] * s[2]
}

// Validate checks that every extent is positive.
func (s Shape) Validate() error {
	for i, dim := range s {
		if dim <= 0 {
			return fmt.Errorf("invalid dimension at index %d: %d (must be > 0)", i, dim)
		}
	}
	return nil
}

// Equal checks if two shapes are equal.
func (s Shape) Equal(other Shape) bool {
	return s == other
}

// IsFlat reports whether the shape is a column vector ({n, 1, 1}).
func (s Shape) IsFlat() bool {
	return s[1] == 1 && s[2] == 1
}

// Index returns the flat offset of (i, j, k).
func (s Shape) Index(i, j, k int) int {
	return i + j*s[0] + k*s[0]*s[1]
}

// Coords is the inverse of Index.
func (s Shape) Coords(idx int) (i, j, k int) {
	i = idx % s[0]
	j = (idx / s[0]) % s[1]
	k = idx / (s[0] * s[1])
	return i, j, k
}

// Contains reports whether (i, j, k) lies inside the shape.
func (s Shape) Contains(i, j, k int) bool {
	return i >= 0 && i < s[0] && j >= 0 && j < s[1] && k >= 0 && k < s[2]
}

// String returns the shape formatted as WxHxD.
func (s Shape) String() string {
	return fmt.Sprintf("%dx%dx%d", s[0], s[1], s[2])
}
