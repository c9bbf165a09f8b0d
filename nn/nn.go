// Copyright 2026 Ember ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package nn provides feed-forward networks built on the scalar autodiff
// engine.
//
// Example:
//
//	import (
//	    "github.com/ember-ml/ember/autodiff"
//	    "github.com/ember-ml/ember/nn"
//	)
//
//	func main() {
//	    tape := autodiff.New()
//	    model := nn.NewMLP(tape, 2, []int{4, 1}, nn.Config{Seed: 42})
//
//	    x0, _ := tape.Leaf(1.0)
//	    x1, _ := tape.Leaf(0.0)
//	    out, _ := model.Forward([]autodiff.Handle{x0, x1})
//	    _ = out
//	}
package nn

import (
	"github.com/ember-ml/ember/internal/autodiff"
	"github.com/ember-ml/ember/internal/nn"
)

// Activation selects a neuron's output nonlinearity.
type Activation = nn.Activation

// Supported activations.
const (
	Identity = nn.Identity
	Tanh     = nn.Tanh
)

// Neuron is a single unit: weights, a bias and an activation selector.
type Neuron = nn.Neuron

// Layer is an ordered collection of neurons sharing the same inputs.
type Layer = nn.Layer

// MLP is a feed-forward network: tanh hidden layers, identity output layer.
type MLP = nn.MLP

// Config holds MLP construction options.
type Config = nn.Config

// NewMLP builds a network with the given input dimension and layer widths.
func NewMLP(tape *autodiff.Tape, inputDim int, layerDims []int, cfg Config) *MLP {
	return nn.NewMLP(tape, inputDim, layerDims, cfg)
}

// MSE builds the squared error (pred - target)² on the tape.
func MSE(tape *autodiff.Tape, pred, target autodiff.Handle) (autodiff.Handle, error) {
	return nn.MSE(tape, pred, target)
}

// SumSquaredError accumulates Σᵢ (predᵢ - targetᵢ)² over a batch.
func SumSquaredError(tape *autodiff.Tape, preds, targets []autodiff.Handle) (autodiff.Handle, error) {
	return nn.SumSquaredError(tape, preds, targets)
}
