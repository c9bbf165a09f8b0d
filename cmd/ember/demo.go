package main

import (
	"fmt"
	"log"

	"github.com/ember-ml/ember/autodiff"
)

// must unwraps a tape operation in demo code, where an allocation failure
// means the demo cannot continue at all.
func must[T any](v T, err error) T {
	if err != nil {
		log.Fatalf("tape operation failed: %v", err)
	}
	return v
}

func runDemos() {
	demoCalculus()
	demoNeuron()
}

// demoCalculus walks the multivariable calculus example f(a, b) = a² + 3b - 5.
func demoCalculus() {
	fmt.Println("\n--- 1. Intuitive Demo: Multivariable Calculus ---")
	fmt.Println("Equation: f(a, b) = a^2 + 3b - 5")
	fmt.Println("We want to find how 'f' changes as we tweak 'a' and 'b'.")
	fmt.Println()

	t := autodiff.New()

	a := must(t.Leaf(3.0))
	b := must(t.Leaf(2.0))

	aSquared := must(t.Pow(a, 2))             // a² = 9
	threeB := must(t.Mul(must(t.Leaf(3)), b)) // 3b = 6
	sum := must(t.Add(aSquared, threeB))      // 9 + 6 = 15
	f := must(t.Add(sum, must(t.Leaf(-5))))   // 15 - 5 = 10

	fmt.Println("Forward Pass Results:")
	fmt.Printf("   a = %.2f\n", must(t.Value(a)))
	fmt.Printf("   b = %.2f\n", must(t.Value(b)))
	fmt.Printf("   f = %.2f (Expected: 3^2 + 3*2 - 5 = 10)\n", must(t.Value(f)))

	if err := t.Backward(f, autodiff.BackwardConfig{RetainGraph: true}); err != nil {
		log.Fatalf("backward: %v", err)
	}

	fmt.Println("\nBackward Pass (Gradients):")
	fmt.Printf("   df/da: %.2f (Expected: 2*a = 6.0)\n", must(t.Grad(a)))
	fmt.Printf("   df/db: %.2f (Expected: Constant slope 3.0)\n", must(t.Grad(b)))

	fmt.Println("\n[Intuition]: If we nudge 'a' up by 0.01, 'f' will grow by ~0.06.")
	fmt.Println("-------------------------------------------------")
	t.Reset()
}

// demoNeuron walks a single neuron: output = tanh(w*x + bias).
func demoNeuron() {
	fmt.Println("\n--- 2. Intuitive Demo: A Single Neuron ---")
	fmt.Println("Equation: output = tanh(w * x + bias)")
	fmt.Println("This is the fundamental atom of Deep Learning.")
	fmt.Println()

	t := autodiff.New()

	x := must(t.Leaf(1.0)) // input
	w := must(t.Leaf(0.5)) // weight
	b := must(t.Leaf(0.2)) // bias

	wx := must(t.Mul(w, x)) // 0.5
	z := must(t.Add(wx, b)) // 0.7
	out := must(t.Tanh(z))  // tanh(0.7) ≈ 0.604

	fmt.Println("Forward Pass:")
	fmt.Printf("   Input (x):  %.2f\n", must(t.Value(x)))
	fmt.Printf("   Weight (w): %.2f\n", must(t.Value(w)))
	fmt.Printf("   Bias (b):   %.2f\n", must(t.Value(b)))
	fmt.Printf("   Result:     %.4f\n", must(t.Value(out)))

	if err := t.Backward(out, autodiff.BackwardConfig{RetainGraph: true}); err != nil {
		log.Fatalf("backward: %v", err)
	}

	fmt.Println("\nBackward Pass (Sensitivity):")
	fmt.Printf("   d(out)/d(w): %.4f (How much the weight matters)\n", must(t.Grad(w)))
	fmt.Printf("   d(out)/d(x): %.4f (How much the input matters)\n", must(t.Grad(x)))

	fmt.Println("-------------------------------------------------")
	t.Reset()
}
