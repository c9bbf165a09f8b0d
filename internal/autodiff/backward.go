package autodiff

import (
	"fmt"
	"math"
)

// Strategy selects the backward-pass traversal algorithm.
//
// Both strategies produce identical gradients; they differ in how they find
// a valid reverse-topological order and in what they cost:
//
//   - Linear sweeps every tape index from the root down to zero. It touches
//     nodes unreachable from the root (their gradient is zero, so their
//     contribution is zero), but the sweep is cache-sequential. Best on
//     dense tapes where most nodes feed the root.
//   - DFS walks child links from the root, collecting an explicit post-order
//     and applying rules in reverse. It visits only reachable nodes at the
//     cost of pointer-chasing and auxiliary visited/order storage. Best on
//     tapes with many nodes unrelated to the root.
//
// The trade-off is real and measurable; see the package benchmarks.
type Strategy int

// Available backward strategies.
const (
	Linear Strategy = iota
	DFS
)

// String returns the strategy name.
func (s Strategy) String() string {
	switch s {
	case Linear:
		return "Linear"
	case DFS:
		return "DFS"
	default:
		return "Unknown"
	}
}

// BackwardConfig controls a backward pass.
type BackwardConfig struct {
	// RetainGraph keeps the tape alive after the pass so gradients can be
	// inspected or the pass repeated. When false, the tape is Reset()
	// afterwards and every tape handle from this graph goes stale.
	// Callers reusing a retained graph must ZeroGradAll() between passes.
	RetainGraph bool

	// Strategy selects the traversal algorithm. The zero value is Linear.
	Strategy Strategy
}

// Backward accumulates d(root)/d(x) into the grad field of every node x
// reachable from root, walking the graph in reverse-topological order.
//
// The root's gradient is seeded to 1.0 and each visited node's local
// derivative rule is applied exactly once, multiplied by the node's own
// accumulated gradient (chain rule) and added into each operand's gradient.
// A node consumed by several operations receives the sum of all
// contributions.
//
// Gradient computation itself never fails: IEEE NaN/Inf values propagate
// through the rules normally. The error conditions are a stale root handle
// and a graph recorded against a since-released parameter registry.
func (t *Tape) Backward(root Handle, cfg BackwardConfig) error {
	r, err := t.lookup(root)
	if err != nil {
		return fmt.Errorf("backward: %w", err)
	}

	if !root.param {
		if err := t.checkParamChildren(int(root.index)); err != nil {
			return fmt.Errorf("backward: %w", err)
		}
	}

	r.grad = 1.0 // d(root)/d(root)

	if !root.param { // a bare parameter root has no operands to visit
		switch cfg.Strategy {
		case Linear:
			t.backwardLinear(int(root.index))
		case DFS:
			t.backwardDFS(root)
		default:
			return fmt.Errorf("backward: unknown strategy %d", cfg.Strategy)
		}
	}

	if !cfg.RetainGraph {
		t.Reset()
	}
	return nil
}

// checkParamChildren verifies every parameter operand recorded at or below
// rootIdx against the current registry generation.
//
// A graph recorded before ReleaseParameters() still carries handles into the
// old registry; propagating through it would read freed slots or alias
// freshly registered parameters. Both strategies reject such graphs with
// ErrStaleHandle before touching any gradient.
func (t *Tape) checkParamChildren(rootIdx int) error {
	for i := 0; i <= rootIdx; i++ {
		n := &t.nodes[i]
		if n.op.arity() >= 1 && n.c0.param && n.c0.gen != t.paramGen {
			return fmt.Errorf("node %d parameter operand (gen %d): %w", i, n.c0.gen, ErrStaleHandle)
		}
		if n.op.arity() == 2 && n.c1.param && n.c1.gen != t.paramGen {
			return fmt.Errorf("node %d parameter operand (gen %d): %w", i, n.c1.gen, ErrStaleHandle)
		}
	}
	return nil
}

// backwardLinear sweeps tape creation indices from the root down to zero,
// applying every node's rule unconditionally.
//
// Correct because each child's creation index is strictly smaller than its
// parent's, so creation order is already a valid topological order. Nodes
// unreachable from the root carry a zero gradient and contribute nothing.
func (t *Tape) backwardLinear(rootIdx int) {
	for i := rootIdx; i >= 0; i-- {
		t.propagate(&t.nodes[i])
	}
}

// backwardDFS collects an explicit post-order over the subgraph reachable
// from root, then applies rules in reverse of that order.
//
// Shared sub-expressions are visited once via the marked index sets, so each
// node's rule still fires exactly once.
func (t *Tape) backwardDFS(root Handle) {
	visited := make([]bool, int(root.index)+1)
	visitedParams := make([]bool, len(t.params))
	order := make([]Handle, 0, int(root.index)+1)

	var visit func(h Handle)
	visit = func(h Handle) {
		if h.param {
			if visitedParams[h.index] {
				return
			}
			visitedParams[h.index] = true
		} else {
			if visited[h.index] {
				return
			}
			visited[h.index] = true
		}
		n := t.operand(h)
		switch n.op.arity() {
		case 2:
			visit(n.c0)
			visit(n.c1)
		case 1:
			visit(n.c0)
		}
		order = append(order, h)
	}
	visit(root)

	for i := len(order) - 1; i >= 0; i-- {
		t.propagate(t.operand(order[i]))
	}
}

// propagate applies a node's local-derivative rule, adding each operand's
// contribution (scaled by the node's accumulated gradient) into the
// operand's grad. Contributions always accumulate, never overwrite: an
// operand may have multiple consumers.
func (t *Tape) propagate(n *node) {
	switch n.op {
	case OpLeaf:
		// no operands

	case OpAdd:
		t.operand(n.c0).grad += n.grad
		t.operand(n.c1).grad += n.grad

	case OpSub:
		t.operand(n.c0).grad += n.grad
		t.operand(n.c1).grad -= n.grad

	case OpMul:
		a, b := t.operand(n.c0), t.operand(n.c1)
		a.grad += b.data * n.grad
		b.grad += a.data * n.grad

	case OpDiv:
		// z = x/y: dz/dx = 1/y, dz/dy = -x/y²
		a, b := t.operand(n.c0), t.operand(n.c1)
		a.grad += (1 / b.data) * n.grad
		b.grad += (-a.data / (b.data * b.data)) * n.grad

	case OpPow:
		// d(x^n)/dx = n·x^(n-1); the exponent is a constant and gets nothing
		a := t.operand(n.c0)
		a.grad += n.aux * math.Pow(a.data, n.aux-1) * n.grad

	case OpExp:
		// d(e^x)/dx = e^x, already computed as the node's own output
		t.operand(n.c0).grad += n.data * n.grad

	case OpTanh:
		t.operand(n.c0).grad += (1 - n.data*n.data) * n.grad

	case OpRelu:
		a := t.operand(n.c0)
		if a.data > 0 {
			a.grad += n.grad
		}
	}
}
