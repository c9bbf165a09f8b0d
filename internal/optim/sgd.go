package optim

import (
	"github.com/ember-ml/ember/internal/autodiff"
)

// SGD implements plain gradient descent over the tape's parameter registry:
//
//	param = param - lr * gradient
//
// Example:
//
//	optimizer := optim.NewSGD(tape, optim.SGDConfig{LR: 0.05})
//	optimizer.Step()
type SGD struct {
	tape *autodiff.Tape
	lr   float64
}

// SGDConfig holds configuration for the SGD optimizer.
type SGDConfig struct {
	LR float64 // Learning rate (default: 0.01)
}

// NewSGD creates a new SGD optimizer bound to the tape's registry.
func NewSGD(tape *autodiff.Tape, config SGDConfig) *SGD {
	if config.LR == 0 {
		config.LR = 0.01
	}
	return &SGD{tape: tape, lr: config.LR}
}

// Step applies param -= lr * grad to every registered parameter.
//
// Only parameter data is mutated; tape-resident nodes are never touched.
func (s *SGD) Step() {
	s.tape.UpdateParams(s.lr)
}

// ZeroGrad clears every registered parameter's gradient.
func (s *SGD) ZeroGrad() {
	s.tape.ZeroGrad()
}

// GetLR returns the current learning rate.
func (s *SGD) GetLR() float64 {
	return s.lr
}

// SetLR updates the learning rate, e.g. for scheduling.
func (s *SGD) SetLR(lr float64) {
	s.lr = lr
}
