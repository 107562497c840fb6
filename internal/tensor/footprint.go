package tensor

import "fmt"

// Range is an inclusive interval [Lo, Hi] along one axis. Lo > Hi is empty.
type Range struct {
	Lo, Hi int
}

// Len returns the number of integers in the range.
func (r Range) Len() int {
	if r.Hi < r.Lo {
		return 0
	}
	return r.Hi - r.Lo + 1
}

// Contains reports whether x lies in the range.
func (r Range) Contains(x int) bool {
	return x >= r.Lo && x <= r.Hi
}

// Clip intersects the range with [0, n-1].
func (r Range) Clip(n int) Range {
	return Range{Lo: max(r.Lo, 0), Hi: min(r.Hi, n-1)}
}

// Footprint is an axis-aligned box of volume coordinates outside of which a
// backward contribution is known to be zero.
type Footprint struct {
	I, J, K Range
}

// FullFootprint covers every coordinate of shape.
func FullFootprint(shape Shape) Footprint {
	return Footprint{
		I: Range{Lo: 0, Hi: shape[0] - 1},
		J: Range{Lo: 0, Hi: shape[1] - 1},
		K: Range{Lo: 0, Hi: shape[2] - 1},
	}
}

// Point is the footprint of a single coordinate.
func Point(i, j, k int) Footprint {
	return Footprint{I: Range{Lo: i, Hi: i}, J: Range{Lo: j, Hi: j}, K: Range{Lo: k, Hi: k}}
}

// Clip intersects the footprint with the extent of shape.
func (f Footprint) Clip(shape Shape) Footprint {
	return Footprint{
		I: f.I.Clip(shape[0]),
		J: f.J.Clip(shape[1]),
		K: f.K.Clip(shape[2]),
	}
}

// Shape returns the extent of the box. Only meaningful when the footprint is not empty.
func (f Footprint) Shape() Shape {
	return Shape{f.I.Len(), f.J.Len(), f.K.Len()}
}

// Empty reports whether the box contains no coordinate.
func (f Footprint) Empty() bool {
	return f.I.Len() == 0 || f.J.Len() == 0 || f.K.Len() == 0
}

// NumElements returns the number of coordinates inside the box.
func (f Footprint) NumElements() int {
	return f.I.Len() * f.J.Len() * f.K.Len()
}

// Contains reports whether (i, j, k) is inside the box.
func (f Footprint) Contains(i, j, k int) bool {
	return f.I.Contains(i) && f.J.Contains(j) && f.K.Contains(k)
}

// String formats the footprint as [i0..i1]x[j0..j1]x[k0..k1].
func (f Footprint) String() string {
	return fmt.Sprintf("[%d..%d]x[%d..%d]x[%d..%d]", f.I.Lo, f.I.Hi, f.J.Lo, f.J.Hi, f.K.Lo, f.K.Hi)
}

// Patch holds gradient values for the coordinates of a Footprint.
//
// Values is laid out with the footprint's own Shape, so element (i, j, k) of
// the enclosing volume is Values.At(i-I.Lo, j-J.Lo, k-K.Lo). An empty patch
// has a nil Values.
type Patch struct {
	Footprint Footprint
	Values    *Volume
}

// NewPatch allocates a zero patch covering f.
func NewPatch(f Footprint) *Patch {
	p := &Patch{Footprint: f}
	if !f.Empty() {
		p.Values = NewVolume(f.Shape())
	}
	return p
}

// At returns the gradient at (i, j, k) in enclosing-volume coordinates; zero
// outside the footprint.
func (p *Patch) At(i, j, k int) float64 {
	if p.Values == nil || !p.Footprint.Contains(i, j, k) {
		return 0
	}
	f := p.Footprint
	return p.Values.At(i-f.I.Lo, j-f.J.Lo, k-f.K.Lo)
}

// Set stores x at (i, j, k) in enclosing-volume coordinates. The coordinate
// must be inside the footprint.
func (p *Patch) Set(i, j, k int, x float64) {
	f := p.Footprint
	p.Values.Set(i-f.I.Lo, j-f.J.Lo, k-f.K.Lo, x)
}

// Dense expands the patch into a full volume of the given shape.
func (p *Patch) Dense(shape Shape) *Volume {
	out := NewVolume(shape)
	if p.Values == nil {
		return out
	}
	f := p.Footprint
	for k := f.K.Lo; k <= f.K.Hi; k++ {
		for j := f.J.Lo; j <= f.J.Hi; j++ {
			for i := f.I.Lo; i <= f.I.Hi; i++ {
				out.Set(i, j, k, p.At(i, j, k))
			}
		}
	}
	return out
}
