// Package parallel provides the data-parallel loops used by the backward pass.
package parallel

import (
	"runtime"
	"sync"
)

// Config controls parallel execution behavior.
type Config struct {
	Enabled      bool // Whether parallel execution is enabled.
	NumWorkers   int  // Number of worker goroutines to use.
	MinChunkSize int  // Minimum items per goroutine to avoid overhead.
}

// DefaultConfig returns sensible defaults based on CPU count.
func DefaultConfig() Config {
	n := runtime.NumCPU()
	return Config{
		Enabled:      n > 1,
		NumWorkers:   n,
		MinChunkSize: 64,
	}
}

// Sequential returns a configuration that never spawns goroutines.
func Sequential() Config {
	return Config{Enabled: false, NumWorkers: 1, MinChunkSize: 1}
}

// For executes f(i) for i in [0, n) with optional parallelism.
// Falls back to sequential execution if parallelism is disabled or n is too small.
func For(n int, f func(i int), cfg Config) {
	ForShards(n, cfg, func(_, start, end int) {
		for i := start; i < end; i++ {
			f(i)
		}
	})
}

// NumShards returns how many shards ForShards will use for n items.
//
// The result is at least 1 and never exceeds cfg.NumWorkers. Callers size
// per-shard buffers with it before the loop starts.
func NumShards(n int, cfg Config) int {
	if !cfg.Enabled || cfg.NumWorkers <= 1 || n < 2*max(cfg.MinChunkSize, 1) {
		return 1
	}
	chunk := max(cfg.MinChunkSize, 1)
	return max(1, min(cfg.NumWorkers, n/chunk))
}

// ForShards splits [0, n) into NumShards(n, cfg) contiguous chunks and calls
// f(shard, start, end) for each, one goroutine per chunk.
//
// Shard s always receives the s-th chunk in index order, so a caller that owns
// one buffer per shard and merges them in shard order gets the same result on
// every run.
func ForShards(n int, cfg Config, f func(shard, start, end int)) {
	if n <= 0 {
		return
	}
	shards := NumShards(n, cfg)
	if shards == 1 {
		f(0, 0, n)
		return
	}

	var wg sync.WaitGroup
	chunk := (n + shards - 1) / shards
	for s := 0; s < shards; s++ {
		start := s * chunk
		end := min(start+chunk, n)
		if start >= end {
			continue
		}
		wg.Add(1)
		go func(s, start, end int) {
			defer wg.Done()
			f(s, start, end)
		}(s, start, end)
	}
	wg.Wait()
}
