// Copyright 2026 Ember ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package optim provides parameter-update algorithms for training.
//
// The update rule is plain gradient descent over the tape's parameter
// registry; there is no momentum or weight decay.
package optim

import (
	"github.com/ember-ml/ember/internal/autodiff"
	"github.com/ember-ml/ember/internal/optim"
)

// Optimizer is the common interface for parameter-update algorithms.
type Optimizer = optim.Optimizer

// SGD implements plain gradient descent: param -= lr * grad.
type SGD = optim.SGD

// SGDConfig contains configuration for the SGD optimizer.
type SGDConfig = optim.SGDConfig

// NewSGD creates a new SGD optimizer bound to the tape's registry.
//
// Example:
//
//	tape := autodiff.New()
//	model := nn.NewMLP(tape, 2, []int{4, 1}, nn.Config{Seed: 42})
//	optimizer := optim.NewSGD(tape, optim.SGDConfig{LR: 0.05})
func NewSGD(tape *autodiff.Tape, config SGDConfig) *SGD {
	return optim.NewSGD(tape, config)
}
