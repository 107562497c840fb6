package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/born-ml/convnet/internal/config"
	"github.com/born-ml/convnet/internal/serialization"
)

func TestRun_Version(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, run(context.Background(), []string{"version"}, &out))
	assert.Equal(t, "convnet "+version+"\n", out.String())
}

func TestRun_Usage(t *testing.T) {
	var out bytes.Buffer
	assert.ErrorIs(t, run(context.Background(), nil, &out), errUsage)
	assert.ErrorIs(t, run(context.Background(), []string{"serve"}, &out), errUsage)
	assert.ErrorIs(t, run(context.Background(), []string{"eval"}, &out), errUsage)
	assert.ErrorIs(t, run(context.Background(), []string{"train", "-bogus"}, &out), errUsage)
	assert.Contains(t, out.String(), "Commands:")
}

func TestRun_Config(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, run(context.Background(), []string{"config"}, &out))

	r, err := config.Parse(out.Bytes())
	require.NoError(t, err)
	assert.Equal(t, config.Default().Layers, r.Layers)
}

func TestRun_TrainEval(t *testing.T) {
	model := filepath.Join(t.TempDir(), "xor.born")

	var out bytes.Buffer
	require.NoError(t, run(context.Background(), []string{"train", "-cycles", "5", "-out", model}, &out))
	assert.Contains(t, out.String(), "saved "+model)

	m, err := serialization.Load(model)
	require.NoError(t, err)
	assert.Equal(t, "xor", m.Metadata["dataset"])
	assert.Equal(t, "5", m.Metadata["cycles"])
	assert.NotEmpty(t, m.Optimizer, "momentum state is saved")

	out.Reset()
	require.NoError(t, run(context.Background(), []string{"train", "-cycles", "3", "-resume", model, "-out", model}, &out))
	m, err = serialization.Load(model)
	require.NoError(t, err)
	assert.Equal(t, "3", m.Metadata["cycles"])

	out.Reset()
	require.NoError(t, run(context.Background(), []string{"eval", "-model", model}, &out))
	assert.Contains(t, out.String(), "dataset: xor, 4 examples")
	assert.Contains(t, out.String(), "correct:")
}

func TestRun_ResumeMismatch(t *testing.T) {
	dir := t.TempDir()
	model := filepath.Join(dir, "xor.born")
	var out bytes.Buffer
	require.NoError(t, run(context.Background(), []string{"train", "-cycles", "1", "-out", model}, &out))

	runFile := filepath.Join(dir, "wide.yaml")
	require.NoError(t, os.WriteFile(runFile, []byte("input: [3]\nlayers:\n  - type: dense\n    units: 1\n"), 0o600))

	out.Reset()
	err := run(context.Background(), []string{"train", "-config", runFile, "-cycles", "1", "-resume", model}, &out)
	assert.ErrorIs(t, err, errResumeMismatch)
}

func TestRun_TrainCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	model := filepath.Join(t.TempDir(), "xor.born")
	var out bytes.Buffer
	err := run(ctx, []string{"train", "-out", model}, &out)
	assert.ErrorIs(t, err, context.Canceled)

	m, err := serialization.Load(model)
	require.NoError(t, err, "the model is saved on interruption")
	assert.Equal(t, "0", m.Metadata["cycles"])
}
