package nn

// Parameter is a named view onto one trainable array of a layer.
//
// Data aliases the layer's storage: optimizers and state dicts read and write
// parameters through it without copying.
//
// Example:
//
//	for _, p := range layer.Parameters() {
//	    fmt.Println(p.Name, p.Shape, len(p.Data))
//	}
type Parameter struct {
	Name  string    // Parameter name ("weight", "bias" or "kernels")
	Shape []int     // Logical extent, outermost first
	Data  []float64 // Flat storage
}

// NewParameter creates a parameter view.
//
// Parameters:
//   - name: Descriptive name for this parameter (e.g., "weight")
//   - data: Storage of the parameter, not copied
//   - shape: Logical extent; its product must equal len(data)
//
// Returns a new Parameter.
func NewParameter(name string, data []float64, shape ...int) *Parameter {
	n := 1
	for _, d := range shape {
		n *= d
	}
	if n != len(data) {
		panic("nn: parameter shape does not match its storage")
	}
	return &Parameter{Name: name, Shape: shape, Data: data}
}

// Len returns the number of scalars in the parameter.
func (p *Parameter) Len() int {
	return len(p.Data)
}

// Zero sets every scalar to zero.
func (p *Parameter) Zero() {
	clear(p.Data)
}

func countParams(params []*Parameter) int {
	n := 0
	for _, p := range params {
		n += p.Len()
	}
	return n
}
