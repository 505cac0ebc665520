package pacmap

import (
	"context"
	"fmt"
	"math"
	"runtime"

	"github.com/rs/zerolog"
	"gonum.org/v1/gonum/mat"
)

// Config controls PaCMAP embedding behavior.
// Start with [DefaultConfig] and override the fields you need.
type Config struct {
	// NDimensions is the dimensionality of the embedding. Must be >= 2.
	// Default: 2.
	NDimensions int

	// NumNeighbourPairs is the number of nearest-neighbour pairs sampled per
	// point. Set to 0 to derive it from the number of points: 10 for up to
	// 10000 points, growing logarithmically beyond that. Must be >= 0.
	// Default: 10.
	NumNeighbourPairs int

	// RatioMidNearPairs scales NumNeighbourPairs to obtain the mid-near pair
	// count, which must round to at least 1. Sampling always draws five
	// mid-near partners per point, so the ratio only gates validation.
	// Must be > 0 and finite. Default: 0.5.
	RatioMidNearPairs float64

	// RatioFurtherPairs scales NumNeighbourPairs to obtain the further pair
	// count. Larger values push unrelated points apart more aggressively.
	// Must be > 0 and finite. Default: 2.0.
	RatioFurtherPairs float64

	// LearningRate is the Adagrad step size. Must be > 0. Default: 1.0.
	LearningRate float64

	// NumIterations is the number of optimizer steps. The loss weights follow
	// a three-phase schedule (see [WeightsAt]), so runs shorter than 201
	// iterations never reach the repulsion-only phase. Must be >= 0.
	// Default: 450.
	NumIterations int

	// Seed makes a fit reproducible. 0 draws a fresh seed for every fit; the
	// seed actually used is reported in Result.Seed. Default: 0.
	Seed uint64

	// Workers controls the number of goroutines for parallelizable stages
	// (pairwise distances, density normalization, pair sampling, gradients).
	// 0 means use runtime.NumCPU(). Results depend on Seed and the input only,
	// except for floating-point summation order in the gradient, which is
	// fixed for a given Workers value. Default: 0 (auto).
	Workers int

	// Logger receives stage-level debug output and a summary line per fit.
	// nil disables logging.
	Logger *zerolog.Logger

	// Observer receives one Tick per completed iteration. nil disables
	// progress reporting.
	Observer Observer
}

// Result contains the output of a PaCMAP fit.
type Result struct {
	// Embedding holds the final low-dimensional coordinates, one row of
	// length NDimensions per input point.
	Embedding [][]float64

	// NeighbourPairs[i] lists the nearest neighbours of point i under the
	// density-normalized distance, closest first.
	NeighbourPairs [][]int

	// MidNearPairs[i] lists the mid-near partners sampled for point i.
	MidNearPairs [][]int

	// FurtherPairs[i] lists the further partners sampled for point i. Entries
	// may repeat.
	FurtherPairs [][]int

	// Loss is the weighted total loss evaluated at the start of each
	// iteration, before the optimizer step.
	Loss []float64

	// Seed is the seed that drove every random draw of the fit.
	Seed uint64
}

// Dense returns the embedding as an n×NDimensions gonum matrix.
func (r *Result) Dense() *mat.Dense {
	if len(r.Embedding) == 0 {
		return &mat.Dense{}
	}
	n, dims := len(r.Embedding), len(r.Embedding[0])
	flat := make([]float64, 0, n*dims)
	for _, row := range r.Embedding {
		flat = append(flat, row...)
	}
	return mat.NewDense(n, dims, flat)
}

// DefaultConfig returns a Config with the reference defaults.
func DefaultConfig() Config {
	return Config{
		NDimensions:       2,
		NumNeighbourPairs: 10,
		RatioMidNearPairs: 0.5,
		RatioFurtherPairs: 2.0,
		LearningRate:      1.0,
		NumIterations:     450,
	}
}

// validateConfig checks that cfg fields are valid and returns a descriptive error if not.
func validateConfig(cfg *Config) error {
	if cfg.NDimensions < 2 {
		return fmt.Errorf("%w: NDimensions must be >= 2, got %d", ErrInvalidConfig, cfg.NDimensions)
	}
	if !(cfg.LearningRate > 0) || math.IsInf(cfg.LearningRate, 1) {
		return fmt.Errorf("%w: LearningRate must be > 0 and finite, got %v", ErrInvalidConfig, cfg.LearningRate)
	}
	if cfg.NumNeighbourPairs < 0 {
		return fmt.Errorf("%w: NumNeighbourPairs must be >= 0 (0 means derive from n), got %d", ErrInvalidConfig, cfg.NumNeighbourPairs)
	}
	if !(cfg.RatioMidNearPairs > 0) || math.IsInf(cfg.RatioMidNearPairs, 1) {
		return fmt.Errorf("%w: RatioMidNearPairs must be > 0 and finite, got %v", ErrInvalidConfig, cfg.RatioMidNearPairs)
	}
	if !(cfg.RatioFurtherPairs > 0) || math.IsInf(cfg.RatioFurtherPairs, 1) {
		return fmt.Errorf("%w: RatioFurtherPairs must be > 0 and finite, got %v", ErrInvalidConfig, cfg.RatioFurtherPairs)
	}
	if cfg.NumIterations < 0 {
		return fmt.Errorf("%w: NumIterations must be >= 0, got %d", ErrInvalidConfig, cfg.NumIterations)
	}
	if cfg.Workers < 0 {
		return fmt.Errorf("%w: Workers must be >= 0, got %d", ErrInvalidConfig, cfg.Workers)
	}
	return nil
}

// applyDefaults fills in zero-valued config fields with their defaults.
func applyDefaults(cfg *Config) {
	if cfg.Workers == 0 {
		cfg.Workers = runtime.NumCPU()
	}
	if cfg.Logger == nil {
		nop := zerolog.Nop()
		cfg.Logger = &nop
	}
	if cfg.Observer == nil {
		cfg.Observer = nopObserver{}
	}
}

// maxPairsPerPoint bounds every per-point pair count.
const maxPairsPerPoint = 1 << 16

// pairCounts holds the per-point pair counts resolved for one fit.
type pairCounts struct {
	neighbours int
	midNear    int
	further    int
}

// resolvePairCounts derives the three pair counts for n points and checks
// that each lies in [1, maxPairsPerPoint].
func resolvePairCounts(cfg Config, n int) (pairCounts, error) {
	nn := float64(cfg.NumNeighbourPairs)
	if nn == 0 {
		if n <= 10000 {
			nn = 10
		} else {
			nn = math.Round(10 + 15*(math.Log10(float64(n))-4))
		}
	}

	var pc pairCounts
	for _, c := range []struct {
		name  string
		count float64
		dst   *int
	}{
		{"neighbour", nn, &pc.neighbours},
		{"mid-near", math.Round(nn * cfg.RatioMidNearPairs), &pc.midNear},
		{"further", math.Round(nn * cfg.RatioFurtherPairs), &pc.further},
	} {
		if !(c.count >= 1) {
			return pc, fmt.Errorf("%w: number of %s pairs must be >= 1, got %v", ErrInvalidConfig, c.name, c.count)
		}
		if c.count > maxPairsPerPoint {
			return pc, fmt.Errorf("%w: number of %s pairs must be <= %d, got %v", ErrInvalidConfig, c.name, maxPairsPerPoint, c.count)
		}
		*c.dst = int(c.count)
	}
	return pc, nil
}

// Reducer fits PaCMAP embeddings with a fixed configuration. It holds no
// per-fit state, so one Reducer may run several fits concurrently.
type Reducer struct {
	cfg Config
}

// New validates cfg and returns a Reducer. Configuration errors wrap
// ErrInvalidConfig.
func New(cfg Config) (*Reducer, error) {
	if err := validateConfig(&cfg); err != nil {
		return nil, err
	}
	if cfg.NumNeighbourPairs > 0 {
		// Pair counts that do not depend on n can be checked up front.
		if _, err := resolvePairCounts(cfg, 0); err != nil {
			return nil, err
		}
	}
	applyDefaults(&cfg)
	return &Reducer{cfg: cfg}, nil
}

// Config returns the resolved configuration.
func (r *Reducer) Config() Config {
	return r.cfg
}

// Fit embeds data, one row per point, all rows of equal length.
// init selects the initial embedding; only InitRandom is supported.
func (r *Reducer) Fit(data [][]float64, init Init) (*Result, error) {
	return r.FitContext(context.Background(), data, init)
}

// FitContext is Fit with cancellation, checked between stages and iterations.
func (r *Reducer) FitContext(ctx context.Context, data [][]float64, init Init) (*Result, error) {
	n := len(data)
	if n == 0 {
		return nil, fmt.Errorf("%w: no points", ErrUnsupportedInput)
	}
	dims := len(data[0])
	if dims == 0 {
		return nil, fmt.Errorf("%w: points have zero dimensions", ErrUnsupportedInput)
	}
	flatData := make([]float64, n*dims)
	for i, row := range data {
		if len(row) != dims {
			return nil, fmt.Errorf("%w: point %d has %d dimensions, want %d", ErrUnsupportedInput, i, len(row), dims)
		}
		copy(flatData[i*dims:], row)
	}
	return fit(ctx, r.cfg, flatData, n, dims, init)
}

// FitMatrix embeds the rows of x.
func (r *Reducer) FitMatrix(ctx context.Context, x mat.Matrix, init Init) (*Result, error) {
	n, dims := x.Dims()
	if n == 0 || dims == 0 {
		return nil, fmt.Errorf("%w: empty matrix", ErrUnsupportedInput)
	}
	flatData := make([]float64, n*dims)
	for i := 0; i < n; i++ {
		mat.Row(flatData[i*dims:(i+1)*dims], i, x)
	}
	return fit(ctx, r.cfg, flatData, n, dims, init)
}

// Embed is shorthand for New(cfg) followed by Fit(data, InitRandom).
func Embed(data [][]float64, cfg Config) (*Result, error) {
	r, err := New(cfg)
	if err != nil {
		return nil, err
	}
	return r.Fit(data, InitRandom)
}
