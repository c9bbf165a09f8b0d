// Package nn builds feed-forward networks on top of the scalar autodiff
// engine.
//
// A Neuron computes activation(Σᵢ wᵢ·xᵢ + b) entirely through core Mul/Add
// calls; a Layer is an ordered slice of neurons and an MLP an ordered slice
// of layers. Weights and biases are registry-resident parameters, so they
// survive tape resets; every Forward call builds a brand-new subgraph on the
// arena, and the caller must Reset() the tape between independent
// forward/backward cycles to bound memory growth.
package nn

import (
	"fmt"
	"math/rand"

	"github.com/ember-ml/ember/internal/autodiff"
)

// Activation selects a neuron's output nonlinearity.
type Activation int

// Supported activations. Hidden layers use Tanh, the last layer Identity;
// this is a fixed convention of the MLP constructor, not per-layer
// configurable.
const (
	Identity Activation = iota
	Tanh
)

// Neuron is a single unit: a weight parameter per input, one bias parameter
// and an activation selector.
type Neuron struct {
	weights    []autodiff.Handle
	bias       autodiff.Handle
	activation Activation
}

// newNeuron registers nin weights drawn from U(-0.5, 0.5) plus a zero bias.
func newNeuron(tape *autodiff.Tape, nin int, activation Activation, rng *rand.Rand) *Neuron {
	weights := make([]autodiff.Handle, nin)
	for i := range weights {
		weights[i] = tape.Parameter(uniform(rng, -0.5, 0.5))
	}
	return &Neuron{
		weights:    weights,
		bias:       tape.Parameter(0),
		activation: activation,
	}
}

// Forward computes activation(Σᵢ wᵢ·xᵢ + bias) as a fresh subgraph.
//
// The running sum starts from a zero leaf so the whole expression lives on
// the tape.
func (n *Neuron) Forward(tape *autodiff.Tape, x []autodiff.Handle) (autodiff.Handle, error) {
	if len(x) != len(n.weights) {
		panic(fmt.Sprintf("nn: neuron expects %d inputs, got %d", len(n.weights), len(x)))
	}

	sum, err := tape.Leaf(0)
	if err != nil {
		return autodiff.Handle{}, err
	}
	for i, w := range n.weights {
		wx, err := tape.Mul(w, x[i])
		if err != nil {
			return autodiff.Handle{}, err
		}
		sum, err = tape.Add(sum, wx)
		if err != nil {
			return autodiff.Handle{}, err
		}
	}

	out, err := tape.Add(sum, n.bias)
	if err != nil {
		return autodiff.Handle{}, err
	}
	if n.activation == Tanh {
		return tape.Tanh(out)
	}
	return out, nil
}

// Layer is an ordered collection of neurons sharing the same inputs.
type Layer struct {
	neurons []*Neuron
}

// newLayer creates nout neurons of nin inputs each.
func newLayer(tape *autodiff.Tape, nin, nout int, activation Activation, rng *rand.Rand) *Layer {
	neurons := make([]*Neuron, nout)
	for i := range neurons {
		neurons[i] = newNeuron(tape, nin, activation, rng)
	}
	return &Layer{neurons: neurons}
}

// Forward evaluates every neuron against the same inputs.
func (l *Layer) Forward(tape *autodiff.Tape, x []autodiff.Handle) ([]autodiff.Handle, error) {
	out := make([]autodiff.Handle, len(l.neurons))
	for i, n := range l.neurons {
		h, err := n.Forward(tape, x)
		if err != nil {
			return nil, err
		}
		out[i] = h
	}
	return out, nil
}

// Config holds MLP construction options.
type Config struct {
	// Seed for deterministic weight initialization. The same seed always
	// produces the same weights.
	Seed int64
}

// MLP is a feed-forward network: tanh on every hidden layer, identity on the
// last.
//
// The MLP owns no values itself; its parameters live in the tape's registry
// and its activations on the tape. One model per tape registry: Free()
// releases every registered parameter.
//
// Example:
//
//	tape := autodiff.New()
//	model := nn.NewMLP(tape, 2, []int{4, 1}, nn.Config{Seed: 42})
//	out, err := model.Forward(inputs) // inputs: 2 tape handles
type MLP struct {
	tape     *autodiff.Tape
	layers   []*Layer
	inputDim int
}

// NewMLP builds a network with the given input dimension and layer widths.
//
// All layers but the last use Tanh activation; the last is identity.
func NewMLP(tape *autodiff.Tape, inputDim int, layerDims []int, cfg Config) *MLP {
	if inputDim <= 0 || len(layerDims) == 0 {
		panic("nn: MLP needs a positive input dimension and at least one layer")
	}
	rng := rand.New(rand.NewSource(cfg.Seed))

	layers := make([]*Layer, len(layerDims))
	for i, nout := range layerDims {
		nin := inputDim
		if i > 0 {
			nin = layerDims[i-1]
		}
		activation := Tanh
		if i == len(layerDims)-1 {
			activation = Identity
		}
		layers[i] = newLayer(tape, nin, nout, activation, rng)
	}
	return &MLP{tape: tape, layers: layers, inputDim: inputDim}
}

// Forward runs the network, building a fresh subgraph on the arena.
//
// The caller owns the reset discipline: without a tape.Reset() between
// independent cycles the arena grows without bound.
func (m *MLP) Forward(inputs []autodiff.Handle) ([]autodiff.Handle, error) {
	if m.layers == nil {
		panic("nn: Forward called on a freed model")
	}
	if len(inputs) != m.inputDim {
		panic(fmt.Sprintf("nn: MLP expects %d inputs, got %d", m.inputDim, len(inputs)))
	}
	x := inputs
	var err error
	for _, l := range m.layers {
		x, err = l.Forward(m.tape, x)
		if err != nil {
			return nil, fmt.Errorf("nn: forward: %w", err)
		}
	}
	return x, nil
}

// NumParameters returns the number of registered weights and biases.
func (m *MLP) NumParameters() int {
	count := 0
	for _, l := range m.layers {
		for _, n := range l.neurons {
			count += len(n.weights) + 1
		}
	}
	return count
}

// Tape returns the tape the model builds its graphs on.
func (m *MLP) Tape() *autodiff.Tape {
	return m.tape
}

// Free releases the model's parameters from the registry.
//
// Independent of any tape reset; parameter handles held by the model go
// stale afterwards.
func (m *MLP) Free() {
	m.tape.ReleaseParameters()
	m.layers = nil
}
