// Copyright 2026 Ember ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package autodiff provides reverse-mode automatic differentiation over
// scalar computation graphs.
//
// Nodes are allocated on an append-only tape and addressed through handles;
// trainable parameters live in a registry with an independent lifetime. The
// backward pass supports two selectable traversal strategies (Linear and
// DFS) with identical results and different performance profiles.
//
// Example:
//
//	import "github.com/ember-ml/ember/autodiff"
//
//	func main() {
//	    t := autodiff.New()
//
//	    a, _ := t.Leaf(3.0)
//	    b, _ := t.Leaf(2.0)
//
//	    // f = a² + 3b - 5
//	    a2, _ := t.Pow(a, 2)
//	    three, _ := t.Leaf(3.0)
//	    tb, _ := t.Mul(three, b)
//	    sum, _ := t.Add(a2, tb)
//	    c, _ := t.Leaf(-5.0)
//	    f, _ := t.Add(sum, c)
//
//	    _ = t.Backward(f, autodiff.BackwardConfig{RetainGraph: true})
//	    da, _ := t.Grad(a) // 6.0
//	    db, _ := t.Grad(b) // 3.0
//	    _, _ = da, db
//	}
package autodiff

import (
	"github.com/ember-ml/ember/internal/autodiff"
)

// Tape is the scalar computation-graph arena plus parameter registry.
type Tape = autodiff.Tape

// Handle identifies a node owned by a Tape.
type Handle = autodiff.Handle

// Op tags a node with its operation.
type Op = autodiff.Op

// The closed operation set.
const (
	OpLeaf = autodiff.OpLeaf
	OpAdd  = autodiff.OpAdd
	OpSub  = autodiff.OpSub
	OpMul  = autodiff.OpMul
	OpDiv  = autodiff.OpDiv
	OpPow  = autodiff.OpPow
	OpExp  = autodiff.OpExp
	OpTanh = autodiff.OpTanh
	OpRelu = autodiff.OpRelu
)

// Strategy selects the backward-pass traversal algorithm.
type Strategy = autodiff.Strategy

// Available backward strategies.
const (
	// Linear sweeps every tape index from the root down to zero;
	// cache-sequential, best on dense tapes.
	Linear = autodiff.Linear
	// DFS walks only the subgraph reachable from the root; best on tapes
	// with many nodes unrelated to the root.
	DFS = autodiff.DFS
)

// BackwardConfig controls a backward pass.
type BackwardConfig = autodiff.BackwardConfig

// DefaultCapacity is the maximum node count for tapes created with New().
const DefaultCapacity = autodiff.DefaultCapacity

// Sentinel errors returned by tape operations.
var (
	ErrCapacityExceeded = autodiff.ErrCapacityExceeded
	ErrStaleHandle      = autodiff.ErrStaleHandle
)

// New creates a tape with DefaultCapacity.
func New() *Tape {
	return autodiff.New()
}

// NewWithCapacity creates a tape that holds at most capacity nodes.
func NewWithCapacity(capacity int) *Tape {
	return autodiff.NewWithCapacity(capacity)
}
