package tensor

import (
	"fmt"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// Dot returns the inner product of a and x.
//
// Panics if the lengths differ.
func Dot(a, x []float64) float64 {
	return floats.Dot(a, x)
}

// Affine computes y = A·x + b.
//
// A must be len(b) × len(x).
func Affine(a *mat.Dense, b, x []float64) []float64 {
	rows, cols := a.Dims()
	if rows != len(b) || cols != len(x) {
		panic(fmt.Sprintf("tensor: Affine: A is %dx%d, b has %d, x has %d", rows, cols, len(b), len(x)))
	}
	y := make([]float64, rows)
	yv := mat.NewVecDense(rows, y)
	yv.MulVec(a, mat.NewVecDense(cols, x))
	floats.Add(y, b)
	return y
}

// ArgMax returns the index of the largest element; the first one on ties.
//
// Panics on an empty slice.
func ArgMax(x []float64) int {
	return floats.MaxIdx(x)
}

// MSE returns the mean squared error between guess and target.
func MSE(guess, target []float64) float64 {
	if len(guess) != len(target) {
		panic(fmt.Sprintf("tensor: MSE: length mismatch %d vs %d", len(guess), len(target)))
	}
	if len(guess) == 0 {
		return 0
	}
	d := floats.Distance(guess, target, 2)
	return d * d / float64(len(guess))
}

// MSEIndex returns the mean squared error of guess against the one-hot vector
// with a 1 at correct.
func MSEIndex(guess []float64, correct int) float64 {
	if len(guess) == 0 {
		return 0
	}
	var e float64
	for i, g := range guess {
		if i == correct {
			g = 1 - g
		}
		e += g * g
	}
	return e / float64(len(guess))
}

// OneHot returns a vector of n zeros with a 1 at index i.
func OneHot(n, i int) []float64 {
	v := make([]float64, n)
	if i >= 0 && i < n {
		v[i] = 1
	}
	return v
}
