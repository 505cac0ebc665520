package pacmap

import "math"

const (
	// defaultInitialAccumulator seeds every squared-gradient accumulator so the
	// first steps are bounded.
	defaultInitialAccumulator = 0.1

	// adagradEpsilon guards the square root against a zero accumulator.
	adagradEpsilon = 1e-7
)

// Adagrad is a per-coordinate adaptive gradient descent optimizer. Each
// coordinate's step is the learning rate scaled by the inverse square root of
// its accumulated squared gradients.
type Adagrad struct {
	LearningRate float64
	accum        []float64
}

// NewAdagrad returns an optimizer for size coordinates.
func NewAdagrad(learningRate float64, size int) *Adagrad {
	accum := make([]float64, size)
	for i := range accum {
		accum[i] = defaultInitialAccumulator
	}
	return &Adagrad{LearningRate: learningRate, accum: accum}
}

// Step updates params in place along -grad. params and grad must have the
// size given to NewAdagrad.
func (a *Adagrad) Step(params, grad []float64) {
	for i, g := range grad {
		a.accum[i] += g * g
		params[i] -= a.LearningRate * g / math.Sqrt(a.accum[i]+adagradEpsilon)
	}
}
