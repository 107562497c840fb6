// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package train provides gradient descent training for convnet models.
//
// # Overview
//
// A Trainer runs cycles. Each cycle:
//   - samples examples (the leading Fraction of the dataset in full-batch
//     mode, BatchSize random draws in stochastic mode)
//   - evaluates and backpropagates every example
//   - scales the summed gradient by the mean squared error derivative
//   - applies one SGD step per layer
//
// # Basic Usage
//
//	import (
//	    "github.com/born-ml/convnet/nn"
//	    "github.com/born-ml/convnet/tensor"
//	    "github.com/born-ml/convnet/train"
//	)
//
//	func main() {
//	    net, _ := nn.NewNetwork(tensor.Flat(2), []nn.LayerConfig{
//	        nn.DenseConfig(3, nn.Sigmoid),
//	        nn.DenseConfig(1, nn.Sigmoid),
//	    }, nn.WithBatchSlots(4))
//
//	    cfg := train.DefaultConfig()
//	    cfg.Mode = train.FullBatch
//
//	    trainer, err := train.New(net, train.XOR(), cfg)
//	    if err != nil {
//	        log.Fatal(err)
//	    }
//	    if err := trainer.Train(context.Background(), 2000); err != nil {
//	        log.Fatal(err)
//	    }
//	}
//
// # Progress
//
// Metrics carry the running error (mean over the last RingSize examples), the
// lifetime error and, in full-batch mode, dataset error and accuracy after the
// update. Reporters only observe; they cannot stop training early.
//
// # Adaptive Rate
//
// With AdaptiveRate set, each cycle's rate is the base rate times
// running/TargetError, clamped to [0.1, 2.0].
package train
