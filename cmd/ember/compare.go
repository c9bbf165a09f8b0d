package main

import (
	"flag"
	"fmt"
	"log"
	"time"

	"github.com/ember-ml/ember/autodiff"
)

// runCompare times the two backward strategies on the two tape shapes where
// each is expected to win: a noisy tape full of disconnected nodes (DFS
// skips them) and a dense chain where every node feeds the loss (the linear
// sweep's sequential walk pays off).
func runCompare(args []string) {
	fs := flag.NewFlagSet("compare", flag.ExitOnError)
	passes := fs.Int("passes", 1000, "Backward passes per measurement")
	noise := fs.Int("noise", 10000, "Disconnected node pairs in the noisy case")
	signal := fs.Int("signal", 500, "Connected chain length in the noisy case")
	dense := fs.Int("dense", 5000, "Chain length in the dense case")
	if err := fs.Parse(args); err != nil {
		log.Fatalf("parsing flags: %v", err)
	}

	fmt.Println("\n=== ALGORITHM COMPARISON: Linear Sweep vs DFS ===")

	// Case 1: the tape is mostly garbage nodes that contribute nothing to
	// the loss. Prediction: DFS wins by skipping them.
	fmt.Printf("\n[CASE 1] Disjoint Graph (%d noise pairs, %d signal nodes)\n", *noise, *signal)
	tape := autodiff.New()
	for i := 0; i < *noise; i++ {
		a := must(tape.Leaf(float64(i)))
		b := must(tape.Leaf(float64(i)))
		must(tape.Mul(a, b))
	}
	loss := buildChain(tape, *signal)
	reportCase(tape, loss, *passes, autodiff.DFS)

	tape.Reset()

	// Case 2: every node on the tape is part of the computation.
	// Prediction: the linear sweep wins on cache locality.
	fmt.Printf("\n[CASE 2] Fully Connected Graph (%d nodes)\n", *dense)
	loss = buildChain(tape, *dense)
	reportCase(tape, loss, *passes, autodiff.Linear)

	fmt.Println("\n=============================================")
}

// buildChain builds head = head + leaf repeated n times; every node on the
// chain is reachable from the returned root.
func buildChain(tape *autodiff.Tape, n int) autodiff.Handle {
	head := must(tape.Leaf(1.0))
	for i := 0; i < n; i++ {
		head = must(tape.Add(head, must(tape.Leaf(0.5))))
	}
	return head
}

// reportCase times both strategies over the retained graph and prints the
// winner.
func reportCase(tape *autodiff.Tape, loss autodiff.Handle, passes int, expected autodiff.Strategy) {
	timeLinear := timeBackward(tape, loss, passes, autodiff.Linear)
	timeDFS := timeBackward(tape, loss, passes, autodiff.DFS)

	fmt.Printf("   Linear Time: %v\n", timeLinear)
	fmt.Printf("   DFS Time:    %v\n", timeDFS)
	switch {
	case timeDFS < timeLinear:
		fmt.Printf("   >> WINNER: DFS (%.2fx faster)\n", float64(timeLinear)/float64(timeDFS))
	default:
		fmt.Printf("   >> WINNER: Linear (%.2fx faster)\n", float64(timeDFS)/float64(timeLinear))
	}
	if (expected == autodiff.DFS) != (timeDFS < timeLinear) {
		fmt.Printf("   (expected %s to win on this shape)\n", expected)
	}
}

func timeBackward(tape *autodiff.Tape, loss autodiff.Handle, passes int, strategy autodiff.Strategy) time.Duration {
	cfg := autodiff.BackwardConfig{RetainGraph: true, Strategy: strategy}
	start := time.Now()
	for i := 0; i < passes; i++ {
		tape.ZeroGradAll()
		if err := tape.Backward(loss, cfg); err != nil {
			log.Fatalf("backward (%s): %v", strategy, err)
		}
	}
	return time.Since(start)
}
