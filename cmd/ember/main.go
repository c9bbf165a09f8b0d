// Package main provides the Ember ML Framework CLI.
package main

import (
	"fmt"
	"os"
)

const version = "v0.1.0"

func main() {
	if len(os.Args) < 2 {
		usage()
		return
	}

	switch os.Args[1] {
	case "version":
		fmt.Printf("Ember ML Framework %s\n", version)
	case "demo":
		runDemos()
	case "xor":
		runXOR(os.Args[2:])
	case "compare":
		runCompare(os.Args[2:])
	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n\n", os.Args[1])
		usage()
		os.Exit(1)
	}
}

func usage() {
	fmt.Println("Ember ML Framework - Scalar Autodiff for Go")
	fmt.Printf("Version: %s\n\n", version)
	fmt.Println("Commands:")
	fmt.Println("  version    Show version")
	fmt.Println("  demo       Run the worked calculus and single-neuron demos")
	fmt.Println("  xor        Train an MLP on the XOR dataset")
	fmt.Println("  compare    Compare Linear vs DFS backward strategies")
}
