// Package main provides the convnet command line tool.
//
// Usage:
//
//	convnet train [-config run.yaml] [-data dir] [-cycles n] [-out model.born] [-resume model.born]
//	convnet eval -model model.born [-config run.yaml] [-data dir] [-test]
//	convnet config
//	convnet version
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"time"

	"github.com/born-ml/convnet/internal/config"
	"github.com/born-ml/convnet/internal/nn"
	"github.com/born-ml/convnet/internal/serialization"
	"github.com/born-ml/convnet/internal/train"
)

const version = "v0.1.0"

var (
	errUsage          = errors.New("usage")
	errResumeMismatch = errors.New("saved model does not fit the run file")
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdout); err != nil {
		if errors.Is(err, errUsage) {
			os.Exit(2)
		}
		log.Fatal(err)
	}
}

func run(ctx context.Context, args []string, out io.Writer) error {
	if len(args) == 0 {
		usage(out)
		return errUsage
	}
	switch args[0] {
	case "train":
		return trainCmd(ctx, args[1:], out)
	case "eval":
		return evalCmd(args[1:], out)
	case "config":
		data, err := config.Default().Marshal()
		if err != nil {
			return err
		}
		_, err = out.Write(data)
		return err
	case "version":
		fmt.Fprintf(out, "convnet %s\n", version)
		return nil
	case "help", "-h", "-help", "--help":
		usage(out)
		return nil
	default:
		usage(out)
		return fmt.Errorf("%w: unknown command %q", errUsage, args[0])
	}
}

func usage(out io.Writer) {
	fmt.Fprintln(out, "convnet - convolutional network trainer")
	fmt.Fprintf(out, "Version: %s\n\n", version)
	fmt.Fprintln(out, "Commands:")
	fmt.Fprintln(out, "  train      Train a network described by a run file")
	fmt.Fprintln(out, "  eval       Measure a saved model on a dataset")
	fmt.Fprintln(out, "  config     Print the default run file")
	fmt.Fprintln(out, "  version    Show version")
}

// loadRun reads the run file, or the default run when path is empty, and
// applies the dataset directory override.
func loadRun(path, dataDir string) (*config.Run, error) {
	r := config.Default()
	if path != "" {
		var err error
		if r, err = config.Load(path); err != nil {
			return nil, err
		}
	}
	if dataDir != "" {
		r.Data.Kind = config.DataMNIST
		r.Data.Dir = dataDir
	}
	return r, nil
}

func trainCmd(ctx context.Context, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("train", flag.ContinueOnError)
	fs.SetOutput(out)
	configPath := fs.String("config", "", "Run file (YAML); empty trains XOR")
	dataDir := fs.String("data", "", "MNIST directory; overrides the run file")
	cycles := fs.Int("cycles", -1, "Training cycles; overrides the run file")
	outPath := fs.String("out", "", "Where to save the trained model; overrides the run file")
	resume := fs.String("resume", "", "Continue training from a saved model")
	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("%w: %w", errUsage, err)
	}

	r, err := loadRun(*configPath, *dataDir)
	if err != nil {
		return err
	}
	if *cycles >= 0 {
		r.Train.Cycles = *cycles
	}
	if *outPath != "" {
		r.Output.Model = *outPath
	}

	cfg, err := r.TrainConfig()
	if err != nil {
		return err
	}
	data, err := r.Dataset()
	if err != nil {
		return fmt.Errorf("load dataset: %w", err)
	}

	net, err := r.Network()
	if err != nil {
		return err
	}
	var saved *serialization.Model
	if *resume != "" {
		if saved, err = serialization.Load(*resume); err != nil {
			return err
		}
		if net, err = resumeNetwork(saved, net); err != nil {
			return fmt.Errorf("resume %s: %w", *resume, err)
		}
	}

	logger := log.New(out, "", log.LstdFlags)
	logger.Printf("network: %v", net)
	logger.Printf("dataset: %s, %d examples", r.Data.Kind, data.Len())

	trainer, err := train.New(net, data, cfg,
		train.WithParallel(r.ParallelConfig()),
		train.WithReporter(train.LogReporter{Logger: logger, Every: r.Train.ReportEvery}))
	if err != nil {
		return err
	}
	if saved != nil && saved.Optimizer != nil {
		if err := trainer.Optimizer().LoadStateDict(saved.Optimizer); err != nil {
			return err
		}
	}

	start := time.Now()
	trainErr := trainer.Train(ctx, r.Train.Cycles)
	if trainErr != nil && !errors.Is(trainErr, context.Canceled) {
		return trainErr
	}
	logger.Printf("trained %d cycles in %v: lifetime MSE=%.6f, dataset MSE=%.6f, correct=%.2f%%",
		trainer.Cycle(), time.Since(start).Round(time.Millisecond), trainer.LifetimeError(),
		data.MeanSquaredError(net), data.PercentCorrect(net))

	if r.Output.Model != "" {
		m := &serialization.Model{
			Network:   net.Snapshot(),
			Optimizer: trainer.Optimizer().StateDict(),
			Metadata: map[string]string{
				"dataset": r.Data.Kind,
				"cycles":  fmt.Sprint(trainer.Cycle()),
			},
		}
		if err := serialization.Save(r.Output.Model, m); err != nil {
			return err
		}
		logger.Printf("saved %s", r.Output.Model)
	}
	return trainErr
}

// resumeNetwork rebuilds the saved network. Its input and output shapes must
// match the network the run file describes.
func resumeNetwork(saved *serialization.Model, fromRun *nn.Network) (*nn.Network, error) {
	net, err := saved.Build()
	if err != nil {
		return nil, err
	}
	if net.InputShape() != fromRun.InputShape() || net.OutputShape() != fromRun.OutputShape() {
		return nil, fmt.Errorf("%w: saved network maps %v to %v, run file maps %v to %v",
			errResumeMismatch, net.InputShape(), net.OutputShape(), fromRun.InputShape(), fromRun.OutputShape())
	}
	return net, nil
}

func evalCmd(args []string, out io.Writer) error {
	fs := flag.NewFlagSet("eval", flag.ContinueOnError)
	fs.SetOutput(out)
	modelPath := fs.String("model", "", "Saved model (.born)")
	configPath := fs.String("config", "", "Run file naming the dataset; empty uses XOR")
	dataDir := fs.String("data", "", "MNIST directory; overrides the run file")
	test := fs.Bool("test", false, "Use the MNIST test set")
	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("%w: %w", errUsage, err)
	}
	if *modelPath == "" {
		return fmt.Errorf("%w: eval needs -model", errUsage)
	}

	r, err := loadRun(*configPath, *dataDir)
	if err != nil {
		return err
	}
	if *test {
		r.Data.Test = true
	}

	m, err := serialization.Load(*modelPath)
	if err != nil {
		return err
	}
	net, err := m.Build()
	if err != nil {
		return err
	}
	data, err := r.Dataset()
	if err != nil {
		return fmt.Errorf("load dataset: %w", err)
	}
	if data.Len() == 0 || len(data.Inputs()[0]) != net.NumInputs() || len(data.Targets()[0]) != net.NumOutputs() {
		return fmt.Errorf("%w: model %v does not fit dataset %s", train.ErrDatasetMismatch, net.InputShape(), r.Data.Kind)
	}

	fmt.Fprintf(out, "model:   %s (%d parameters)\n", *modelPath, net.NumParams())
	fmt.Fprintf(out, "dataset: %s, %d examples\n", r.Data.Kind, data.Len())
	fmt.Fprintf(out, "MSE:     %.6f\n", data.MeanSquaredError(net))
	fmt.Fprintf(out, "correct: %.2f%%\n", data.PercentCorrect(net))
	return nil
}
