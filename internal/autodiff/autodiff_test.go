package autodiff_test

import (
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/ember-ml/ember/internal/autodiff"
)

const tolerance = 1e-9

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < tolerance
}

// mustValue reads a node's data, failing the test on a stale handle.
func mustValue(t *testing.T, tape *autodiff.Tape, h autodiff.Handle) float64 {
	t.Helper()
	v, err := tape.Value(h)
	if err != nil {
		t.Fatalf("Value() error: %v", err)
	}
	return v
}

// mustGrad reads a node's gradient, failing the test on a stale handle.
func mustGrad(t *testing.T, tape *autodiff.Tape, h autodiff.Handle) float64 {
	t.Helper()
	g, err := tape.Grad(h)
	if err != nil {
		t.Fatalf("Grad() error: %v", err)
	}
	return g
}

// TestWorkedExample checks f(a, b) = a² + 3b - 5 at a=3, b=2:
// f = 10, df/da = 2a = 6, df/db = 3.
func TestWorkedExample(t *testing.T) {
	for _, strategy := range []autodiff.Strategy{autodiff.Linear, autodiff.DFS} {
		t.Run(strategy.String(), func(t *testing.T) {
			tape := autodiff.New()

			a, _ := tape.Leaf(3.0)
			b, _ := tape.Leaf(2.0)

			aSquared, _ := tape.Pow(a, 2)
			three, _ := tape.Leaf(3.0)
			threeB, _ := tape.Mul(three, b)
			sum, _ := tape.Add(aSquared, threeB)
			minusFive, _ := tape.Leaf(-5.0)
			f, _ := tape.Add(sum, minusFive)

			if got := mustValue(t, tape, f); !almostEqual(got, 10.0) {
				t.Errorf("f = %v, want 10", got)
			}

			err := tape.Backward(f, autodiff.BackwardConfig{RetainGraph: true, Strategy: strategy})
			if err != nil {
				t.Fatalf("Backward() error: %v", err)
			}

			if got := mustGrad(t, tape, a); !almostEqual(got, 6.0) {
				t.Errorf("df/da = %v, want 6", got)
			}
			if got := mustGrad(t, tape, b); !almostEqual(got, 3.0) {
				t.Errorf("df/db = %v, want 3", got)
			}
		})
	}
}

// TestBasicMath checks z = a*b + c at a=2, b=3, c=1:
// z = 7, dz/da = 3, dz/db = 2, dz/dc = 1.
func TestBasicMath(t *testing.T) {
	tape := autodiff.New()

	a, _ := tape.Leaf(2.0)
	b, _ := tape.Leaf(3.0)
	c, _ := tape.Leaf(1.0)
	ab, _ := tape.Mul(a, b)
	z, _ := tape.Add(ab, c)

	if got := mustValue(t, tape, z); !almostEqual(got, 7.0) {
		t.Errorf("z = %v, want 7", got)
	}

	if err := tape.Backward(z, autodiff.BackwardConfig{RetainGraph: true}); err != nil {
		t.Fatalf("Backward() error: %v", err)
	}

	if got := mustGrad(t, tape, a); !almostEqual(got, 3.0) {
		t.Errorf("dz/da = %v, want 3", got)
	}
	if got := mustGrad(t, tape, b); !almostEqual(got, 2.0) {
		t.Errorf("dz/db = %v, want 2", got)
	}
	if got := mustGrad(t, tape, c); !almostEqual(got, 1.0) {
		t.Errorf("dz/dc = %v, want 1", got)
	}
}

// TestFanOut checks gradient accumulation under shared sub-expressions:
// z = x * x with x=3 must give dz/dx = 6, not 3.
func TestFanOut(t *testing.T) {
	for _, strategy := range []autodiff.Strategy{autodiff.Linear, autodiff.DFS} {
		t.Run(strategy.String(), func(t *testing.T) {
			tape := autodiff.New()

			x, _ := tape.Leaf(3.0)
			z, _ := tape.Mul(x, x)

			err := tape.Backward(z, autodiff.BackwardConfig{RetainGraph: true, Strategy: strategy})
			if err != nil {
				t.Fatalf("Backward() error: %v", err)
			}

			if got := mustGrad(t, tape, x); !almostEqual(got, 6.0) {
				t.Errorf("dz/dx = %v, want 6 (both consumers must contribute)", got)
			}
		})
	}
}

// TestActivationBoundaries checks relu and tanh at their characteristic points.
func TestActivationBoundaries(t *testing.T) {
	tape := autodiff.New()

	// relu(-2) = 0 with gradient 0
	x1, _ := tape.Leaf(-2.0)
	r1, _ := tape.Relu(x1)
	if got := mustValue(t, tape, r1); got != 0.0 {
		t.Errorf("relu(-2) = %v, want 0", got)
	}
	if err := tape.Backward(r1, autodiff.BackwardConfig{RetainGraph: true}); err != nil {
		t.Fatalf("Backward() error: %v", err)
	}
	if got := mustGrad(t, tape, x1); got != 0.0 {
		t.Errorf("d(relu(-2))/dx = %v, want 0", got)
	}
	tape.Reset()

	// relu(5) = 5 with gradient 1
	x2, _ := tape.Leaf(5.0)
	r2, _ := tape.Relu(x2)
	if got := mustValue(t, tape, r2); got != 5.0 {
		t.Errorf("relu(5) = %v, want 5", got)
	}
	if err := tape.Backward(r2, autodiff.BackwardConfig{RetainGraph: true}); err != nil {
		t.Fatalf("Backward() error: %v", err)
	}
	if got := mustGrad(t, tape, x2); got != 1.0 {
		t.Errorf("d(relu(5))/dx = %v, want 1", got)
	}
	tape.Reset()

	// tanh(0) = 0 with gradient 1
	x3, _ := tape.Leaf(0.0)
	t3, _ := tape.Tanh(x3)
	if got := mustValue(t, tape, t3); !almostEqual(got, 0.0) {
		t.Errorf("tanh(0) = %v, want 0", got)
	}
	if err := tape.Backward(t3, autodiff.BackwardConfig{RetainGraph: true}); err != nil {
		t.Fatalf("Backward() error: %v", err)
	}
	if got := mustGrad(t, tape, x3); !almostEqual(got, 1.0) {
		t.Errorf("d(tanh(0))/dx = %v, want 1", got)
	}
}

// TestStrategyEquivalence builds one graph exercising the full op set and
// verifies that the linear sweep and the DFS sweep assign identical
// gradients to every leaf and parameter.
func TestStrategyEquivalence(t *testing.T) {
	tape := autodiff.New()

	// Chained relu/tanh/div/pow with fan-out on both a leaf and a
	// parameter, so every backward rule fires at least once.
	f, _ := tape.Leaf(6.71)
	w := tape.Parameter(0.37)

	a, _ := tape.Relu(f)
	b, _ := tape.Tanh(a)
	c, _ := tape.Leaf(3.0)
	d, _ := tape.Add(c, b)
	e, _ := tape.Div(f, c) // fan-out: f feeds both relu and div
	x, _ := tape.Mul(d, e)
	wx, _ := tape.Mul(w, x)
	ex, _ := tape.Exp(w) // fan-out on the parameter
	s, _ := tape.Sub(wx, ex)
	y, _ := tape.Pow(s, 2)

	leaves := []autodiff.Handle{f, w, c}

	if err := tape.Backward(y, autodiff.BackwardConfig{RetainGraph: true, Strategy: autodiff.Linear}); err != nil {
		t.Fatalf("linear Backward() error: %v", err)
	}
	linear := make([]float64, len(leaves))
	for i, h := range leaves {
		linear[i] = mustGrad(t, tape, h)
	}

	tape.ZeroGradAll()

	if err := tape.Backward(y, autodiff.BackwardConfig{RetainGraph: true, Strategy: autodiff.DFS}); err != nil {
		t.Fatalf("DFS Backward() error: %v", err)
	}
	for i, h := range leaves {
		dfs := mustGrad(t, tape, h)
		if !almostEqual(linear[i], dfs) {
			t.Errorf("leaf %d: linear grad %v != DFS grad %v", i, linear[i], dfs)
		}
	}
}

// TestDFSSkipsUnreachable verifies the DFS sweep leaves nodes that do not
// feed the root untouched, while the linear sweep's unconditional visits
// still contribute nothing to them.
func TestDFSSkipsUnreachable(t *testing.T) {
	tape := autodiff.New()

	// Noise: disconnected from the root.
	na, _ := tape.Leaf(1.0)
	nb, _ := tape.Leaf(2.0)
	noise, _ := tape.Mul(na, nb)

	x, _ := tape.Leaf(4.0)
	root, _ := tape.Pow(x, 3)

	if err := tape.Backward(root, autodiff.BackwardConfig{RetainGraph: true, Strategy: autodiff.DFS}); err != nil {
		t.Fatalf("Backward() error: %v", err)
	}

	if got := mustGrad(t, tape, x); !almostEqual(got, 48.0) {
		t.Errorf("d(x³)/dx = %v, want 48", got)
	}
	for _, h := range []autodiff.Handle{na, nb, noise} {
		if got := mustGrad(t, tape, h); got != 0.0 {
			t.Errorf("unreachable node grad = %v, want 0", got)
		}
	}
}

// TestResetInvalidatesHandles checks the stale-handle protocol: after
// Reset(), every handle from the previous graph must fail with
// ErrStaleHandle rather than alias new nodes.
func TestResetInvalidatesHandles(t *testing.T) {
	tape := autodiff.New()

	old, _ := tape.Leaf(1.0)
	tape.Reset()

	if _, err := tape.Value(old); !errors.Is(err, autodiff.ErrStaleHandle) {
		t.Errorf("Value(stale) error = %v, want ErrStaleHandle", err)
	}
	if _, err := tape.Grad(old); !errors.Is(err, autodiff.ErrStaleHandle) {
		t.Errorf("Grad(stale) error = %v, want ErrStaleHandle", err)
	}
	if _, err := tape.Add(old, old); !errors.Is(err, autodiff.ErrStaleHandle) {
		t.Errorf("Add(stale, stale) error = %v, want ErrStaleHandle", err)
	}
	if err := tape.Backward(old, autodiff.BackwardConfig{}); !errors.Is(err, autodiff.ErrStaleHandle) {
		t.Errorf("Backward(stale) error = %v, want ErrStaleHandle", err)
	}

	// A fresh node after reset reuses index 0 and must be fully usable.
	fresh, err := tape.Leaf(2.0)
	if err != nil {
		t.Fatalf("Leaf() after Reset() error: %v", err)
	}
	if got := mustValue(t, tape, fresh); got != 2.0 {
		t.Errorf("fresh leaf = %v, want 2", got)
	}
	if tape.Len() != 1 {
		t.Errorf("Len() after Reset()+Leaf() = %d, want 1", tape.Len())
	}
}

// TestResetIdempotence verifies no gradient state leaks from a previous
// graph into one built after a reset.
func TestResetIdempotence(t *testing.T) {
	tape := autodiff.New()

	x, _ := tape.Leaf(2.0)
	y, _ := tape.Mul(x, x)
	if err := tape.Backward(y, autodiff.BackwardConfig{}); err != nil { // RetainGraph=false resets
		t.Fatalf("Backward() error: %v", err)
	}

	// Same shape of graph, fresh nodes: gradients must start from zero.
	x2, _ := tape.Leaf(5.0)
	y2, _ := tape.Mul(x2, x2)
	if err := tape.Backward(y2, autodiff.BackwardConfig{RetainGraph: true}); err != nil {
		t.Fatalf("Backward() error: %v", err)
	}
	if got := mustGrad(t, tape, x2); !almostEqual(got, 10.0) {
		t.Errorf("dy/dx = %v, want 10 (no leakage from previous graph)", got)
	}
}

// TestCapacityExceeded checks that allocation past the configured maximum is
// a recoverable error and that the tape works again after Reset().
func TestCapacityExceeded(t *testing.T) {
	tape := autodiff.NewWithCapacity(2)

	a, err := tape.Leaf(1.0)
	if err != nil {
		t.Fatalf("Leaf() error: %v", err)
	}
	b, err := tape.Leaf(2.0)
	if err != nil {
		t.Fatalf("Leaf() error: %v", err)
	}
	if _, err := tape.Add(a, b); !errors.Is(err, autodiff.ErrCapacityExceeded) {
		t.Errorf("Add() at capacity error = %v, want ErrCapacityExceeded", err)
	}

	tape.Reset()
	if _, err := tape.Leaf(3.0); err != nil {
		t.Errorf("Leaf() after Reset() error: %v, want nil", err)
	}
}

// TestParameterLifetime checks that parameters survive tape resets and go
// stale only after ReleaseParameters().
func TestParameterLifetime(t *testing.T) {
	tape := autodiff.New()

	w := tape.Parameter(0.5)
	x, _ := tape.Leaf(2.0)
	y, _ := tape.Mul(w, x)

	if err := tape.Backward(y, autodiff.BackwardConfig{}); err != nil { // resets the tape
		t.Fatalf("Backward() error: %v", err)
	}

	// Parameter handle is still valid after the reset, with its gradient.
	if got, err := tape.Grad(w); err != nil || !almostEqual(got, 2.0) {
		t.Errorf("Grad(w) = %v, %v; want 2, nil", got, err)
	}

	tape.ReleaseParameters()
	if _, err := tape.Value(w); !errors.Is(err, autodiff.ErrStaleHandle) {
		t.Errorf("Value(released param) error = %v, want ErrStaleHandle", err)
	}
	if tape.NumParams() != 0 {
		t.Errorf("NumParams() after release = %d, want 0", tape.NumParams())
	}
}

// TestBackwardAfterRelease checks that a backward pass over a graph recorded
// against a since-released registry fails with ErrStaleHandle instead of
// reading freed slots, and that parameters registered after the release
// never receive gradient from the dead graph.
func TestBackwardAfterRelease(t *testing.T) {
	for _, strategy := range []autodiff.Strategy{autodiff.Linear, autodiff.DFS} {
		tape := autodiff.New()

		w := tape.Parameter(0.5)
		x, _ := tape.Leaf(2.0)
		y, _ := tape.Mul(w, x)

		tape.ReleaseParameters()
		fresh := tape.Parameter(1.5)

		err := tape.Backward(y, autodiff.BackwardConfig{RetainGraph: true, Strategy: strategy})
		if !errors.Is(err, autodiff.ErrStaleHandle) {
			t.Fatalf("%s: Backward after release error = %v, want ErrStaleHandle", strategy, err)
		}
		if got := mustGrad(t, tape, fresh); got != 0 {
			t.Errorf("%s: fresh parameter grad = %v, want 0", strategy, got)
		}
		if got := mustValue(t, tape, x); !almostEqual(got, 2.0) {
			t.Errorf("%s: leaf value = %v, want 2 (graph untouched)", strategy, got)
		}
	}
}

// TestUpdateIsolation checks that UpdateParams mutates only parameter data
// and ZeroGrad only parameter gradients.
func TestUpdateIsolation(t *testing.T) {
	tape := autodiff.New()

	w := tape.Parameter(1.0)
	x, _ := tape.Leaf(3.0)
	y, _ := tape.Mul(w, x)

	if err := tape.Backward(y, autodiff.BackwardConfig{RetainGraph: true}); err != nil {
		t.Fatalf("Backward() error: %v", err)
	}

	// dy/dw = 3, dy/dx = 1
	tape.UpdateParams(0.1)
	if got := mustValue(t, tape, w); !almostEqual(got, 0.7) {
		t.Errorf("w after update = %v, want 0.7", got)
	}
	if got := mustValue(t, tape, x); got != 3.0 {
		t.Errorf("tape leaf data after update = %v, want 3 (must be untouched)", got)
	}
	if got := mustValue(t, tape, y); got != 3.0 {
		t.Errorf("tape node data after update = %v, want 3 (must be untouched)", got)
	}

	tape.ZeroGrad()
	if got := mustGrad(t, tape, w); got != 0.0 {
		t.Errorf("param grad after ZeroGrad() = %v, want 0", got)
	}
	if got := mustGrad(t, tape, x); !almostEqual(got, 1.0) {
		t.Errorf("tape grad after ZeroGrad() = %v, want 1 (must be retained)", got)
	}

	tape.ZeroGradAll()
	if got := mustGrad(t, tape, x); got != 0.0 {
		t.Errorf("tape grad after ZeroGradAll() = %v, want 0", got)
	}
}

// TestFloatingPointPropagation checks the documented policy for IEEE special
// values: division by zero and fractional powers of negative bases produce
// Inf/NaN that propagate, never errors and never masking.
func TestFloatingPointPropagation(t *testing.T) {
	tape := autodiff.New()

	one, _ := tape.Leaf(1.0)
	zero, _ := tape.Leaf(0.0)
	q, err := tape.Div(one, zero)
	if err != nil {
		t.Fatalf("Div() error: %v, want nil (IEEE semantics)", err)
	}
	if got := mustValue(t, tape, q); !math.IsInf(got, 1) {
		t.Errorf("1/0 = %v, want +Inf", got)
	}

	// The infinity keeps flowing through downstream ops.
	sum, _ := tape.Add(q, one)
	if got := mustValue(t, tape, sum); !math.IsInf(got, 1) {
		t.Errorf("1/0 + 1 = %v, want +Inf", got)
	}

	neg, _ := tape.Leaf(-2.0)
	p, err := tape.Pow(neg, 0.5)
	if err != nil {
		t.Fatalf("Pow() error: %v, want nil (IEEE semantics)", err)
	}
	if got := mustValue(t, tape, p); !math.IsNaN(got) {
		t.Errorf("(-2)^0.5 = %v, want NaN", got)
	}

	// Backward through the division by zero yields NaN/Inf gradients that
	// must be observable on the operands.
	if err := tape.Backward(q, autodiff.BackwardConfig{RetainGraph: true}); err != nil {
		t.Fatalf("Backward() error: %v", err)
	}
	if got := mustGrad(t, tape, zero); !math.IsNaN(got) && !math.IsInf(got, 0) {
		t.Errorf("d(1/0)/d(0) = %v, want NaN or Inf", got)
	}
}

// TestRetainGraphReuse runs two backward passes over the same retained graph
// with an explicit ZeroGradAll() in between.
func TestRetainGraphReuse(t *testing.T) {
	tape := autodiff.New()

	x, _ := tape.Leaf(2.0)
	y, _ := tape.Pow(x, 2)

	for i := 0; i < 2; i++ {
		if err := tape.Backward(y, autodiff.BackwardConfig{RetainGraph: true}); err != nil {
			t.Fatalf("Backward() pass %d error: %v", i, err)
		}
		if got := mustGrad(t, tape, x); !almostEqual(got, 4.0) {
			t.Errorf("pass %d: dy/dx = %v, want 4", i, got)
		}
		tape.ZeroGradAll()
	}
}

// TestZeroHandleIsStale verifies the zero Handle never resolves.
func TestZeroHandleIsStale(t *testing.T) {
	tape := autodiff.New()
	var h autodiff.Handle
	if _, err := tape.Value(h); !errors.Is(err, autodiff.ErrStaleHandle) {
		t.Errorf("Value(zero handle) error = %v, want ErrStaleHandle", err)
	}
}

// TestDescribe checks the debug formatting.
func TestDescribe(t *testing.T) {
	tape := autodiff.New()
	a, _ := tape.Leaf(2.0)
	b, _ := tape.Leaf(3.0)
	p, _ := tape.Mul(a, b)

	s, err := tape.Describe(p)
	if err != nil {
		t.Fatalf("Describe() error: %v", err)
	}
	if !strings.Contains(s, "Mul") || !strings.Contains(s, "6.0000") {
		t.Errorf("Describe() = %q, want op and data in output", s)
	}
}
