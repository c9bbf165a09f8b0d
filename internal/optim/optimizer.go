// Package optim implements parameter updates for training.
//
// The update rule is plain gradient descent over the tape's parameter
// registry; there is no momentum or weight decay.
//
// Example usage:
//
//	optimizer := optim.NewSGD(tape, optim.SGDConfig{LR: 0.05})
//
//	for step := 0; step < steps; step++ {
//	    loss := buildLoss(model, batch)
//	    optimizer.ZeroGrad()
//	    _ = tape.Backward(loss, autodiff.BackwardConfig{})
//	    optimizer.Step()
//	}
package optim

// Optimizer is the base interface for parameter-update algorithms.
type Optimizer interface {
	// Step applies one update to every registered parameter using the
	// gradients accumulated by the last backward pass.
	Step()

	// ZeroGrad clears all parameter gradients.
	//
	// Call before each backward pass to prevent accumulation across
	// training steps. Tape-resident node gradients are not touched.
	ZeroGrad()

	// GetLR returns the current learning rate.
	GetLR() float64
}
