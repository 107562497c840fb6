package parallel

import (
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFor(t *testing.T) {
	tests := []struct {
		name string
		n    int
		cfg  Config
	}{
		{"default", 1000, DefaultConfig()},
		{"disabled", 100, Config{Enabled: false}},
		{"below min chunk", DefaultConfig().MinChunkSize - 1, DefaultConfig()},
		{"one worker", 500, Config{Enabled: true, NumWorkers: 1, MinChunkSize: 1}},
		{"empty", 0, DefaultConfig()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hits := make([]int32, tt.n)
			For(tt.n, func(i int) {
				atomic.AddInt32(&hits[i], 1)
			}, tt.cfg)

			for i, h := range hits {
				assert.Equal(t, int32(1), h, "index %d", i)
			}
		})
	}
}

// TestForShards_Coverage checks that shards partition [0, n) exactly once and
// that shard ids stay below NumShards.
func TestForShards_Coverage(t *testing.T) {
	cfg := Config{Enabled: true, NumWorkers: 4, MinChunkSize: 2}

	for _, n := range []int{0, 1, 3, 9, 10, 17, 1000} {
		seen := make([]int32, n)
		shards := NumShards(n, cfg)
		var mu sync.Mutex
		used := map[int]bool{}

		ForShards(n, cfg, func(shard, start, end int) {
			mu.Lock()
			used[shard] = true
			mu.Unlock()
			for i := start; i < end; i++ {
				atomic.AddInt32(&seen[i], 1)
			}
		})

		for i, c := range seen {
			assert.Equal(t, int32(1), c, "n=%d index %d", n, i)
		}
		for s := range used {
			assert.Less(t, s, shards, "n=%d", n)
		}
	}
}

// TestForShards_Ordered checks that shard s receives the s-th chunk.
func TestForShards_Ordered(t *testing.T) {
	cfg := Config{Enabled: true, NumWorkers: 3, MinChunkSize: 1}
	n := 30
	starts := make([]int, NumShards(n, cfg))

	ForShards(n, cfg, func(shard, start, _ int) {
		starts[shard] = start
	})

	for s := 1; s < len(starts); s++ {
		assert.Greater(t, starts[s], starts[s-1])
	}
}

func TestNumShards(t *testing.T) {
	cfg := Config{Enabled: true, NumWorkers: 8, MinChunkSize: 10}

	assert.Equal(t, 1, NumShards(15, cfg))
	assert.Equal(t, 2, NumShards(25, cfg))
	assert.Equal(t, 8, NumShards(10_000, cfg))
	assert.Equal(t, 1, NumShards(10_000, Sequential()))
}

// BenchmarkForShards sums with one accumulator per shard, the way the
// backward pass merges gradients.
func BenchmarkForShards(b *testing.B) {
	const n = 10_000
	for _, bc := range []struct {
		name string
		cfg  Config
	}{
		{"parallel", DefaultConfig()},
		{"sequential", Sequential()},
	} {
		b.Run(bc.name, func(b *testing.B) {
			sums := make([]float64, NumShards(n, bc.cfg))
			for i := 0; i < b.N; i++ {
				clear(sums)
				ForShards(n, bc.cfg, func(shard, start, end int) {
					for j := start; j < end; j++ {
						sums[shard] += float64(j)
					}
				})
			}
		})
	}
}
