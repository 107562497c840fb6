package train

// Ring keeps the last Cap() values added to it.
type Ring struct {
	values []float64
	next   int
	count  int
}

// NewRing creates a ring holding up to size values. A zero size ring
// discards everything.
func NewRing(size int) *Ring {
	return &Ring{values: make([]float64, size)}
}

// Add records v, overwriting the oldest value once the ring is full.
func (r *Ring) Add(v float64) {
	if len(r.values) == 0 {
		return
	}
	r.values[r.next] = v
	r.next = (r.next + 1) % len(r.values)
	r.count = min(r.count+1, len(r.values))
}

// Average returns the mean of the recorded values, 0 when empty.
func (r *Ring) Average() float64 {
	if r.count == 0 {
		return 0
	}
	var sum float64
	for _, v := range r.values[:r.count] {
		sum += v
	}
	return sum / float64(r.count)
}

// Len returns how many values are recorded.
func (r *Ring) Len() int {
	return r.count
}

// Cap returns the ring size.
func (r *Ring) Cap() int {
	return len(r.values)
}
