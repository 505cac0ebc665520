package pacmap

import (
	"fmt"
	"math/rand/v2"

	"gonum.org/v1/gonum/stat/distuv"
)

// Init selects how the embedding is initialised before optimisation.
type Init string

const (
	// InitRandom draws every coordinate independently from N(0, 1).
	InitRandom Init = "random"
)

// validateInit rejects initialisation modes other than InitRandom.
func validateInit(init Init) error {
	switch init {
	case InitRandom:
		return nil
	default:
		return fmt.Errorf("%w: %q (only %q is supported)", ErrUnsupportedInit, init, InitRandom)
	}
}

// Random stream identifiers. Each stage draws from its own PCG stream so that
// adding draws to one stage never shifts another.
const (
	streamInit uint64 = iota + 1
	streamMidNear
	streamFurther
)

// newSource returns the PCG source for one stage and one point. Seeding per
// point keeps parallel sampling independent of goroutine scheduling.
func newSource(seed, stream uint64, point int) *rand.PCG {
	return rand.NewPCG(seed, stream<<32|uint64(point))
}

// randomEmbedding returns a flat n*dims embedding drawn from the standard
// normal distribution.
func randomEmbedding(n, dims int, seed uint64) []float64 {
	normal := distuv.Normal{Mu: 0, Sigma: 1, Src: newSource(seed, streamInit, 0)}
	y := make([]float64, n*dims)
	for i := range y {
		y[i] = normal.Rand()
	}
	return y
}
