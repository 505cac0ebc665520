package pacmap

import "errors"

// Callers branch on these with errors.Is; every returned error wraps one of
// them with context.
var (
	// ErrInvalidConfig reports a hyperparameter outside its allowed range,
	// including derived pair counts below 1.
	ErrInvalidConfig = errors.New("pacmap: invalid configuration")

	// ErrUnsupportedInput reports a point set the algorithm cannot handle:
	// fewer than 7 points, fewer points than neighbour pairs require,
	// ragged rows, or too few candidates for further-pair sampling.
	ErrUnsupportedInput = errors.New("pacmap: unsupported input")

	// ErrDegenerateDensity reports a zero local density estimate (sigma),
	// typically caused by duplicate points dominating a neighbourhood.
	ErrDegenerateDensity = errors.New("pacmap: degenerate local density")

	// ErrUnsupportedInit reports an initialisation mode other than InitRandom.
	ErrUnsupportedInit = errors.New("pacmap: unsupported initialisation")
)
