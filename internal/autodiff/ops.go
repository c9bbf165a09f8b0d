// Package autodiff implements reverse-mode automatic differentiation over
// scalar computation graphs.
//
// Nodes live on an append-only tape (arena) and are addressed by handles;
// trainable parameters live in a separate registry with an independent
// lifetime. The backward pass walks the graph in reverse-topological order
// using one of two selectable strategies (see Backward).
//
// The operation set is closed: Leaf, Add, Sub, Mul, Div, Pow, Exp, Tanh,
// Relu. Each operation pairs a forward rule (applied at allocation) with a
// local-derivative rule (applied during the backward pass). There is no
// open extensibility; dispatch is a switch over the Op tag.
package autodiff

import (
	"fmt"
	"math"
)

// Op tags a node with its operation.
type Op uint8

// The closed operation set.
const (
	OpLeaf Op = iota
	OpAdd
	OpSub
	OpMul
	OpDiv
	OpPow
	OpExp
	OpTanh
	OpRelu
)

// String returns a human-readable operation name.
func (op Op) String() string {
	switch op {
	case OpLeaf:
		return "Leaf"
	case OpAdd:
		return "Add"
	case OpSub:
		return "Sub"
	case OpMul:
		return "Mul"
	case OpDiv:
		return "Div"
	case OpPow:
		return "Pow"
	case OpExp:
		return "Exp"
	case OpTanh:
		return "Tanh"
	case OpRelu:
		return "Relu"
	default:
		return "Unknown"
	}
}

// arity returns the number of operands the operation consumes.
func (op Op) arity() int {
	switch op {
	case OpAdd, OpSub, OpMul, OpDiv:
		return 2
	case OpPow, OpExp, OpTanh, OpRelu:
		return 1
	default:
		return 0
	}
}

// Add allocates a + b.
func (t *Tape) Add(a, b Handle) (Handle, error) {
	x, y, err := t.lookup2(a, b)
	if err != nil {
		return Handle{}, fmt.Errorf("add: %w", err)
	}
	return t.alloc(x.data+y.data, OpAdd, a, b, 0)
}

// Sub allocates a - b.
func (t *Tape) Sub(a, b Handle) (Handle, error) {
	x, y, err := t.lookup2(a, b)
	if err != nil {
		return Handle{}, fmt.Errorf("sub: %w", err)
	}
	return t.alloc(x.data-y.data, OpSub, a, b, 0)
}

// Mul allocates a * b.
func (t *Tape) Mul(a, b Handle) (Handle, error) {
	x, y, err := t.lookup2(a, b)
	if err != nil {
		return Handle{}, fmt.Errorf("mul: %w", err)
	}
	return t.alloc(x.data*y.data, OpMul, a, b, 0)
}

// Div allocates a / b.
//
// Division by zero follows IEEE 754: the result is ±Inf or NaN and
// propagates through subsequent operations; no error is raised.
func (t *Tape) Div(a, b Handle) (Handle, error) {
	x, y, err := t.lookup2(a, b)
	if err != nil {
		return Handle{}, fmt.Errorf("div: %w", err)
	}
	return t.alloc(x.data/y.data, OpDiv, a, b, 0)
}

// Pow allocates a^n for a scalar constant exponent n.
//
// The exponent is stored as plain numeric data on the node, not as a graph
// operand, and never receives a gradient contribution. A negative base with
// a fractional exponent yields NaN per math.Pow semantics.
func (t *Tape) Pow(a Handle, n float64) (Handle, error) {
	x, err := t.lookup(a)
	if err != nil {
		return Handle{}, fmt.Errorf("pow: %w", err)
	}
	return t.alloc(math.Pow(x.data, n), OpPow, a, Handle{}, n)
}

// Exp allocates e^a.
func (t *Tape) Exp(a Handle) (Handle, error) {
	x, err := t.lookup(a)
	if err != nil {
		return Handle{}, fmt.Errorf("exp: %w", err)
	}
	return t.alloc(math.Exp(x.data), OpExp, a, Handle{}, 0)
}

// Tanh allocates tanh(a), computed as (e^2x - 1) / (e^2x + 1).
func (t *Tape) Tanh(a Handle) (Handle, error) {
	x, err := t.lookup(a)
	if err != nil {
		return Handle{}, fmt.Errorf("tanh: %w", err)
	}
	e2x := math.Exp(2 * x.data)
	return t.alloc((e2x-1)/(e2x+1), OpTanh, a, Handle{}, 0)
}

// Relu allocates max(a, 0).
func (t *Tape) Relu(a Handle) (Handle, error) {
	x, err := t.lookup(a)
	if err != nil {
		return Handle{}, fmt.Errorf("relu: %w", err)
	}
	y := x.data
	if y < 0 {
		y = 0
	}
	return t.alloc(y, OpRelu, a, Handle{}, 0)
}

// lookup2 resolves both operands of a binary operation.
func (t *Tape) lookup2(a, b Handle) (*node, *node, error) {
	x, err := t.lookup(a)
	if err != nil {
		return nil, nil, err
	}
	y, err := t.lookup(b)
	if err != nil {
		return nil, nil, err
	}
	return x, y, nil
}
