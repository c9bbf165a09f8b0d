package nn

import (
	"fmt"

	"github.com/ember-ml/ember/internal/autodiff"
)

// MSE builds the squared error (pred - target)² on the tape.
func MSE(tape *autodiff.Tape, pred, target autodiff.Handle) (autodiff.Handle, error) {
	diff, err := tape.Sub(pred, target)
	if err != nil {
		return autodiff.Handle{}, err
	}
	return tape.Pow(diff, 2)
}

// SumSquaredError accumulates Σᵢ (predᵢ - targetᵢ)² over a batch, returning
// a single loss node suitable as a backward root.
func SumSquaredError(tape *autodiff.Tape, preds, targets []autodiff.Handle) (autodiff.Handle, error) {
	if len(preds) != len(targets) {
		panic(fmt.Sprintf("nn: %d predictions vs %d targets", len(preds), len(targets)))
	}
	total, err := tape.Leaf(0)
	if err != nil {
		return autodiff.Handle{}, err
	}
	for i := range preds {
		se, err := MSE(tape, preds[i], targets[i])
		if err != nil {
			return autodiff.Handle{}, err
		}
		total, err = tape.Add(total, se)
		if err != nil {
			return autodiff.Handle{}, err
		}
	}
	return total, nil
}
