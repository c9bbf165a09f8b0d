package autodiff

import (
	"fmt"
)

// DefaultCapacity is the maximum node count for tapes created with New().
const DefaultCapacity = 1 << 20

// Handle identifies a scalar node owned by a Tape.
//
// A handle embeds the tape generation that was current when the node was
// allocated. Reset() bumps the tape generation, so every handle issued
// before the reset fails with ErrStaleHandle on its next use instead of
// silently aliasing a node of the new graph. Parameter handles carry the
// registry generation instead and survive tape resets; they go stale only
// after ReleaseParameters().
//
// The zero Handle is always stale.
type Handle struct {
	index int32
	gen   uint32
	param bool
}

// IsParam reports whether the handle refers to a registry-resident parameter
// rather than a tape-resident node.
func (h Handle) IsParam() bool {
	return h.param
}

// node is a single scalar in the computation graph.
//
// Children always have a strictly smaller creation index than their parent
// (the arena never allows back-references), so creation order is already a
// valid reverse-topological order for the backward pass.
type node struct {
	data float64
	grad float64
	op   Op
	c0   Handle  // first operand, valid when op.arity() >= 1
	c1   Handle  // second operand, valid when op.arity() == 2
	aux  float64 // Pow exponent; plain data, never differentiated
}

// Tape is an append-only arena of scalar computation-graph nodes plus the
// parameter registry.
//
// All non-parameter values live on the tape and are reclaimed in bulk by
// Reset(). Parameters live in the registry with an indefinite lifetime
// spanning many resets; the two lifetimes are never conflated.
//
// A Tape is single-threaded: forward construction and backward propagation
// must run on one goroutine.
//
// Example:
//
//	t := autodiff.New()
//	a, _ := t.Leaf(3.0)
//	b, _ := t.Leaf(2.0)
//	sum, _ := t.Add(a, b)
//	_ = t.Backward(sum, autodiff.BackwardConfig{RetainGraph: true})
//	grad, _ := t.Grad(a) // 1.0
type Tape struct {
	nodes    []node
	capacity int
	gen      uint32

	params   []node
	paramGen uint32
}

// New creates a tape with DefaultCapacity.
func New() *Tape {
	return NewWithCapacity(DefaultCapacity)
}

// NewWithCapacity creates a tape that holds at most capacity nodes.
//
// Allocation past the capacity returns ErrCapacityExceeded; the caller may
// Reset() and retry or abort the batch.
func NewWithCapacity(capacity int) *Tape {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Tape{
		nodes:    make([]node, 0, min(capacity, 1024)),
		capacity: capacity,
		gen:      1,
		paramGen: 1,
	}
}

// Leaf allocates a free-standing input node on the tape.
func (t *Tape) Leaf(data float64) (Handle, error) {
	return t.alloc(data, OpLeaf, Handle{}, Handle{}, 0)
}

// Parameter registers a long-lived trainable leaf in the parameter registry.
//
// Parameters are not tape-resident: they survive Reset() and are updated by
// UpdateParams(). They are released only by ReleaseParameters().
func (t *Tape) Parameter(data float64) Handle {
	t.params = append(t.params, node{data: data, op: OpLeaf})
	return Handle{index: int32(len(t.params) - 1), gen: t.paramGen, param: true}
}

// Value returns the node's data.
func (t *Tape) Value(h Handle) (float64, error) {
	n, err := t.lookup(h)
	if err != nil {
		return 0, err
	}
	return n.data, nil
}

// Grad returns the node's accumulated gradient.
//
// Gradients are accumulated by Backward() and remain zero before the first
// pass (or after ZeroGrad/ZeroGradAll).
func (t *Tape) Grad(h Handle) (float64, error) {
	n, err := t.lookup(h)
	if err != nil {
		return 0, err
	}
	return n.grad, nil
}

// Reset reclaims every tape-resident node in bulk.
//
// This is O(1): the allocation cursor returns to zero and the tape
// generation is bumped, so all previously issued tape handles become stale.
// The parameter registry is untouched.
func (t *Tape) Reset() {
	t.nodes = t.nodes[:0]
	t.gen++
}

// ZeroGrad sets every registered parameter's gradient to zero.
//
// Tape-resident node gradients are left untouched (see ZeroGradAll).
// Gradients are never zeroed implicitly; call this before each training
// step.
func (t *Tape) ZeroGrad() {
	for i := range t.params {
		t.params[i].grad = 0
	}
}

// ZeroGradAll zeroes parameter gradients and every live tape-node gradient.
//
// This is required between repeated Backward calls on a retained graph,
// where the tape still holds the accumulated gradients of the previous pass.
func (t *Tape) ZeroGradAll() {
	t.ZeroGrad()
	for i := range t.nodes {
		t.nodes[i].grad = 0
	}
}

// UpdateParams applies one plain gradient-descent step to every parameter:
//
//	data -= lr * grad
//
// Only registry-resident parameters are mutated; tape nodes are never
// touched.
func (t *Tape) UpdateParams(lr float64) {
	for i := range t.params {
		t.params[i].data -= lr * t.params[i].grad
	}
}

// ReleaseParameters tears down the parameter registry.
//
// The registry generation is bumped, so previously issued parameter handles
// fail with ErrStaleHandle afterwards. Independent of Reset().
func (t *Tape) ReleaseParameters() {
	t.params = t.params[:0]
	t.paramGen++
}

// Len returns the number of live nodes on the tape.
func (t *Tape) Len() int {
	return len(t.nodes)
}

// NumParams returns the number of registered parameters.
func (t *Tape) NumParams() int {
	return len(t.params)
}

// Capacity returns the maximum node count.
func (t *Tape) Capacity() int {
	return t.capacity
}

// Describe formats a node for debugging, e.g. "Value(data=3.0000, grad=6.0000, op=Mul)".
func (t *Tape) Describe(h Handle) (string, error) {
	n, err := t.lookup(h)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("Value(data=%.4f, grad=%.4f, op=%s)", n.data, n.grad, n.op), nil
}

// alloc appends a node to the tape and returns its handle.
func (t *Tape) alloc(data float64, op Op, c0, c1 Handle, aux float64) (Handle, error) {
	if len(t.nodes) >= t.capacity {
		return Handle{}, fmt.Errorf("allocating node %d: %w", len(t.nodes), ErrCapacityExceeded)
	}
	t.nodes = append(t.nodes, node{data: data, op: op, c0: c0, c1: c1, aux: aux})
	return Handle{index: int32(len(t.nodes) - 1), gen: t.gen}, nil
}

// lookup resolves a handle with a generation check.
func (t *Tape) lookup(h Handle) (*node, error) {
	if h.param {
		if h.gen != t.paramGen || int(h.index) >= len(t.params) {
			return nil, fmt.Errorf("parameter handle %d (gen %d): %w", h.index, h.gen, ErrStaleHandle)
		}
		return &t.params[h.index], nil
	}
	if h.gen != t.gen || int(h.index) >= len(t.nodes) {
		return nil, fmt.Errorf("tape handle %d (gen %d): %w", h.index, h.gen, ErrStaleHandle)
	}
	return &t.nodes[h.index], nil
}

// operand resolves a child handle without a generation check.
//
// Tape children are recorded at allocation time in the current generation,
// so they are valid for as long as their parent is; parameter children are
// generation-checked once per backward pass (checkParamChildren). The
// backward pass relies on this to avoid per-dereference check overhead.
func (t *Tape) operand(h Handle) *node {
	if h.param {
		return &t.params[h.index]
	}
	return &t.nodes[h.index]
}
