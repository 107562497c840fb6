package nn

import (
	"math"
	"math/rand"
)

// Xavier fills data with Xavier/Glorot uniform values.
//
// Values are drawn from U(-sqrt(6/(fanIn+fanOut)), sqrt(6/(fanIn+fanOut))),
// which keeps the variance of activations roughly constant across layers.
//
// Parameters:
//   - rng: Source of randomness; pass a seeded generator for reproducible runs
//   - fanIn: Number of inputs feeding one output
//   - fanOut: Number of outputs fed by one input
//   - data: Storage to fill
func Xavier(rng *rand.Rand, fanIn, fanOut int, data []float64) {
	bound := math.Sqrt(6.0 / float64(fanIn+fanOut))
	for i := range data {
		data[i] = (rng.Float64()*2.0 - 1.0) * bound
	}
}

// Zeros clears data. Biases start at zero.
func Zeros(data []float64) {
	clear(data)
}
