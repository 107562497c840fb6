package train

import (
	"bytes"
	"log"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfig_Validate(t *testing.T) {
	require.NoError(t, DefaultConfig().Validate())

	tests := []struct {
		name   string
		modify func(*Config)
	}{
		{"mode", func(c *Config) { c.Mode = Mode(7) }},
		{"zero rate", func(c *Config) { c.LearningRate = 0 }},
		{"negative rate", func(c *Config) { c.LearningRate = -0.1 }},
		{"zero fraction", func(c *Config) { c.Fraction = 0 }},
		{"fraction above one", func(c *Config) { c.Fraction = 1.5 }},
		{"batch size", func(c *Config) { c.BatchSize = 0 }},
		{"negative momentum", func(c *Config) { c.Momentum = -0.5 }},
		{"momentum one", func(c *Config) { c.Momentum = 1 }},
		{"ring size", func(c *Config) { c.RingSize = -1 }},
		{"adaptive target", func(c *Config) { c.AdaptiveRate, c.TargetError = true, 0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.modify(&cfg)
			assert.ErrorIs(t, cfg.Validate(), ErrInvalidConfig)
		})
	}

	full := DefaultConfig()
	full.Mode, full.BatchSize = FullBatch, 0
	assert.NoError(t, full.Validate(), "batch size only matters for stochastic cycles")
}

func TestMode_Text(t *testing.T) {
	for _, m := range []Mode{FullBatch, Stochastic} {
		text, err := m.MarshalText()
		require.NoError(t, err)
		var back Mode
		require.NoError(t, back.UnmarshalText(text))
		assert.Equal(t, m, back)
	}

	m, err := ParseMode(" SGD ")
	require.NoError(t, err)
	assert.Equal(t, Stochastic, m)

	_, err = ParseMode("annealing")
	assert.ErrorIs(t, err, ErrInvalidConfig)
	_, err = Mode(3).MarshalText()
	assert.Error(t, err)
}

func TestRing(t *testing.T) {
	r := NewRing(3)
	assert.Zero(t, r.Average())

	r.Add(1)
	r.Add(2)
	assert.Equal(t, 2, r.Len())
	assert.InDelta(t, 1.5, r.Average(), 1e-15)

	r.Add(3)
	r.Add(7)
	assert.Equal(t, 3, r.Len())
	assert.Equal(t, 3, r.Cap())
	assert.InDelta(t, 4, r.Average(), 1e-15, "oldest value dropped")

	empty := NewRing(0)
	empty.Add(5)
	assert.Zero(t, empty.Len())
	assert.Zero(t, empty.Average())
}

type constant []float64

func (c constant) Predict([]float64) []float64 { return c }

func TestDataset(t *testing.T) {
	d, err := NewDataset(
		[][]float64{{0}, {1}, {2}},
		[][]float64{{1, 0}, {0, 1}, {0, 1}},
	)
	require.NoError(t, err)
	assert.Equal(t, 3, d.Len())

	pred := constant{0.2, 0.9}
	assert.InDelta(t, 200.0/3, d.PercentCorrect(pred), 1e-12)
	want := ((0.64+0.81)/2 + 2*(0.04+0.01)/2) / 3
	assert.InDelta(t, want, d.MeanSquaredError(pred), 1e-12)

	sub := d.Slice(1, 3)
	assert.Equal(t, 2, sub.Len())
	assert.Equal(t, 100.0, sub.PercentCorrect(pred))

	_, err = NewDataset([][]float64{{0}}, nil)
	assert.Error(t, err)
	_, err = NewDataset(nil, nil)
	assert.Error(t, err)
	_, err = NewDataset([][]float64{{0}, {0, 1}}, [][]float64{{1}, {1}})
	assert.Error(t, err)
}

func TestCorrect_SingleOutput(t *testing.T) {
	assert.True(t, Correct([]float64{0.7}, []float64{1}))
	assert.False(t, Correct([]float64{0.3}, []float64{1}))
	assert.True(t, Correct([]float64{0.3}, []float64{0}))
	assert.Equal(t, 50.0, XOR().PercentCorrect(constant{0.9}))
}

func TestLogReporter(t *testing.T) {
	var buf bytes.Buffer
	r := LogReporter{Logger: log.New(&buf, "", 0), Every: 2}

	for c := 0; c < 5; c++ {
		r.Report(Metrics{Cycle: c, Cycles: 5, RunningError: 0.25, Elapsed: time.Millisecond})
	}
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 3)
	assert.True(t, strings.HasPrefix(lines[0], "Cycle 2/5: running MSE=0.250000"))
	assert.True(t, strings.HasPrefix(lines[2], "Cycle 5/5:"), "last cycle always reported")

	full := Metrics{Cycle: 0, Cycles: 1, FullBatch: true, Accuracy: 75}.String()
	assert.Contains(t, full, "correct=75.00%")
}
