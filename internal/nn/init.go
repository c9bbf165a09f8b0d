package nn

import "math/rand"

// uniform draws a sample from U(min, max).
//
// Weight initialization uses U(-0.5, 0.5) with zero biases; the narrow range
// keeps tanh pre-activations away from saturation at the start of training.
func uniform(rng *rand.Rand, min, max float64) float64 {
	return min + rng.Float64()*(max-min)
}
