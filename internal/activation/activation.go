// Package activation implements the activation functions used by convnet layers.
//
// Three kinds are supported:
//   - Sigmoid: logistic function with a fixed slope, served from lookup tables
//   - ReLU: rectified linear unit
//   - Identity: pass-through
//
// The sigmoid is expensive to evaluate millions of times per training cycle, so
// its value and derivative are sampled once per process into two tables of
// TableSize entries spanning [-TableRange, TableRange]. Lookups are O(1) and
// saturate to the edge samples outside that domain.
package activation

import (
	"fmt"
	"math"
	"strings"
	"sync"
)

// Table parameters for the sigmoid approximation.
const (
	TableSize    = 1_000_001 // Odd, so the centre sample is exactly 0
	TableRange   = 150.0     // Tables cover [-TableRange, TableRange]
	SigmoidSlope = 1.0       // s(x) = 1 / (1 + exp(-SigmoidSlope*x))
)

// Kind identifies an activation function.
type Kind int

// Supported activation kinds.
const (
	Sigmoid Kind = iota
	ReLU
	Identity
)

// String returns the lower-case name of the activation kind.
func (k Kind) String() string {
	switch k {
	case Sigmoid:
		return "sigmoid"
	case ReLU:
		return "relu"
	case Identity:
		return "identity"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Valid reports whether k is one of the supported kinds.
func (k Kind) Valid() bool {
	return k == Sigmoid || k == ReLU || k == Identity
}

// ParseKind converts a name ("sigmoid", "relu", "identity") into a Kind.
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "sigmoid":
		return Sigmoid, nil
	case "relu":
		return ReLU, nil
	case "identity", "linear":
		return Identity, nil
	default:
		return 0, fmt.Errorf("activation: unknown kind %q", s)
	}
}

// MarshalText implements encoding.TextMarshaler.
func (k Kind) MarshalText() ([]byte, error) {
	if !k.Valid() {
		return nil, fmt.Errorf("activation: cannot marshal %v", k)
	}
	return []byte(k.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (k *Kind) UnmarshalText(text []byte) error {
	parsed, err := ParseKind(string(text))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}

// tables holds the sampled sigmoid and its analytic derivative.
type tables struct {
	value []float64
	prime []float64
}

var (
	sigmoidOnce   sync.Once
	sigmoidTables *tables
)

// lookup returns the process-wide sigmoid tables, building them on first use.
func lookup() *tables {
	sigmoidOnce.Do(func() {
		t := &tables{
			value: make([]float64, TableSize),
			prime: make([]float64, TableSize),
		}
		for i := 0; i < TableSize; i++ {
			x := samplePoint(i)
			s := exactSigmoid(x)
			t.value[i] = s
			t.prime[i] = SigmoidSlope * s * (1 - s)
		}
		sigmoidTables = t
	})
	return sigmoidTables
}

// samplePoint returns the x coordinate of table entry i.
func samplePoint(i int) float64 {
	return -TableRange + float64(i)*(2*TableRange)/float64(TableSize-1)
}

// index maps x onto the nearest table entry, saturating outside the domain.
func index(x float64) int {
	if x <= -TableRange || math.IsNaN(x) {
		return 0
	}
	if x >= TableRange {
		return TableSize - 1
	}
	return int(math.Round((x + TableRange) * float64(TableSize-1) / (2 * TableRange)))
}

func exactSigmoid(x float64) float64 {
	return 1 / (1 + math.Exp(-SigmoidSlope*x))
}

// Warm builds the lookup tables eagerly.
//
// Calling it is optional; the first sigmoid evaluation does the same work.
func Warm() {
	lookup()
}

// Value returns the activation of x.
//
// Panics if kind is not a supported Kind. Layer constructors validate the
// kind up front, so a panic here means a layer bypassed validation.
func Value(kind Kind, x float64) float64 {
	switch kind {
	case Sigmoid:
		return lookup().value[index(x)]
	case ReLU:
		if x > 0 {
			return x
		}
		return 0
	case Identity:
		return x
	default:
		panic(fmt.Sprintf("activation: unsupported kind %v", kind))
	}
}

// Derivative returns the derivative of the activation at x.
//
// ReLU's derivative at exactly zero is 0.
func Derivative(kind Kind, x float64) float64 {
	switch kind {
	case Sigmoid:
		return lookup().prime[index(x)]
	case ReLU:
		if x > 0 {
			return 1
		}
		return 0
	case Identity:
		return 1
	default:
		panic(fmt.Sprintf("activation: unsupported kind %v", kind))
	}
}

// Apply writes the activation of every element of in into out and, when prime
// is non-nil, the derivative into prime. Either output may alias in.
func Apply(kind Kind, in, out, prime []float64) {
	if len(out) != len(in) || (prime != nil && len(prime) != len(in)) {
		panic(fmt.Sprintf("activation: length mismatch in=%d out=%d prime=%d", len(in), len(out), len(prime)))
	}
	if kind == Sigmoid {
		t := lookup()
		for i, x := range in {
			idx := index(x)
			if prime != nil {
				prime[i] = t.prime[idx]
			}
			out[i] = t.value[idx]
		}
		return
	}
	for i, x := range in {
		if prime != nil {
			prime[i] = Derivative(kind, x)
		}
		out[i] = Value(kind, x)
	}
}

// Exact returns the activation of x computed analytically, bypassing the tables.
func Exact(kind Kind, x float64) float64 {
	if kind == Sigmoid {
		return exactSigmoid(x)
	}
	return Value(kind, x)
}

// ExactDerivative returns the analytic derivative of the activation at x.
func ExactDerivative(kind Kind, x float64) float64 {
	if kind == Sigmoid {
		s := exactSigmoid(x)
		return SigmoidSlope * s * (1 - s)
	}
	return Derivative(kind, x)
}
