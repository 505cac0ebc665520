package pacmap

import (
	"context"
	"fmt"
	"math"
	"math/rand/v2"
	"time"
)

// fitContext carries everything one fit derives from its input. All fields
// except embedding are read-only once preparePairs returns; embedding is
// owned by optimize.
type fitContext struct {
	n, dims  int
	data     []float64 // flat n*dims input points
	dist     []float64 // flat n*n Euclidean distances
	normDist []float64 // flat n*n density-normalized distances
	counts   pairCounts
	pairs    PairSets
	seed     uint64

	embedding []float64 // flat n*NDimensions, updated in place
}

// fit runs the full pipeline on flat row-major data.
func fit(ctx context.Context, cfg Config, data []float64, n, dims int, init Init) (*Result, error) {
	if err := validateInit(init); err != nil {
		return nil, err
	}
	counts, err := resolvePairCounts(cfg, n)
	if err != nil {
		return nil, err
	}
	if err := checkInput(data, n, dims, counts); err != nil {
		return nil, err
	}

	seed := cfg.Seed
	for seed == 0 {
		seed = rand.Uint64()
	}

	logger := cfg.Logger
	logger.Debug().
		Int("n", n).
		Int("dims", dims).
		Int("neighbour_pairs", counts.neighbours).
		Int("mid_near_pairs", midNearGroups).
		Int("further_pairs", counts.further).
		Uint64("seed", seed).
		Msg("pacmap: sampling pairs")

	start := time.Now()
	fc, err := preparePairs(ctx, cfg, data, n, dims, counts, seed)
	if err != nil {
		return nil, err
	}
	logger.Debug().Dur("elapsed", time.Since(start)).Msg("pacmap: pairs ready")

	fc.embedding = randomEmbedding(n, cfg.NDimensions, seed)

	losses, err := optimize(ctx, cfg, fc, start)
	if err != nil {
		return nil, err
	}

	ev := logger.Info().Int("n", n).Int("iterations", cfg.NumIterations).Dur("elapsed", time.Since(start))
	if len(losses) > 0 {
		ev = ev.Float64("loss", losses[len(losses)-1])
	}
	ev.Msg("pacmap: fit complete")

	return &Result{
		Embedding:      unflatten(fc.embedding, n, cfg.NDimensions),
		NeighbourPairs: fc.pairs.Neighbour,
		MidNearPairs:   fc.pairs.MidNear,
		FurtherPairs:   fc.pairs.Further,
		Loss:           losses,
		Seed:           seed,
	}, nil
}

// checkInput rejects point sets too small for density normalization or for
// the neighbour count, and points with non-finite coordinates.
func checkInput(data []float64, n, dims int, counts pairCounts) error {
	if n < MinPoints {
		return fmt.Errorf("%w: need at least %d points, got %d", ErrUnsupportedInput, MinPoints, n)
	}
	if counts.neighbours > n-2 {
		// One more point than neighbours plus self leaves a further-pair candidate.
		return fmt.Errorf("%w: %d neighbour pairs need at least %d points, got %d",
			ErrUnsupportedInput, counts.neighbours, counts.neighbours+2, n)
	}
	for k, v := range data {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%w: point %d has non-finite coordinate %v", ErrUnsupportedInput, k/dims, v)
		}
	}
	return nil
}

// preparePairs computes the distance matrices and the three pair sets.
func preparePairs(ctx context.Context, cfg Config, data []float64, n, dims int, counts pairCounts, seed uint64) (*fitContext, error) {
	fc := &fitContext{n: n, dims: dims, data: data, counts: counts, seed: seed}

	fc.dist = ComputePairwiseDistancesParallel(data, n, dims, cfg.Workers)
	sigma, err := ComputeDensityScalesParallel(fc.dist, n, cfg.Workers)
	if err != nil {
		return nil, err
	}
	fc.normDist = NormalizeDistancesParallel(fc.dist, sigma, n, cfg.Workers)
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("pacmap: cancelled before pair sampling: %w", err)
	}

	if fc.pairs.Neighbour, err = ComputeNeighbourPairs(fc.normDist, n, counts.neighbours, cfg.Workers); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("pacmap: cancelled after neighbour pairs: %w", err)
	}
	if fc.pairs.MidNear, err = ComputeMidNearPairs(ctx, fc.dist, n, seed, cfg.Workers); err != nil {
		return nil, err
	}
	if fc.pairs.Further, err = ComputeFurtherPairs(ctx, n, counts.further, fc.pairs.Neighbour, seed, cfg.Workers); err != nil {
		return nil, err
	}
	return fc, nil
}

// optimize runs cfg.NumIterations Adagrad steps on fc.embedding and returns
// the loss evaluated before each step. Ticks report time elapsed since start.
func optimize(ctx context.Context, cfg Config, fc *fitContext, start time.Time) ([]float64, error) {
	dims := cfg.NDimensions
	eval := newEvaluator(fc.n, dims, fc.pairs, cfg.Workers)
	opt := NewAdagrad(cfg.LearningRate, fc.n*dims)
	grad := make([]float64, fc.n*dims)
	losses := make([]float64, 0, cfg.NumIterations)

	phase := Phase(-1)
	for i := 0; i < cfg.NumIterations; i++ {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("pacmap: cancelled at iteration %d: %w", i, err)
		}

		if p := PhaseAt(i); p != phase {
			phase = p
			cfg.Logger.Debug().Int("iteration", i).Stringer("phase", phase).Msg("pacmap: entering phase")
		}
		w := WeightsAt(i)

		loss := eval.lossAndGradient(fc.embedding, w, grad)
		opt.Step(fc.embedding, grad)
		losses = append(losses, loss)

		cfg.Observer.Tick(Tick{
			Iteration: i,
			Total:     cfg.NumIterations,
			Phase:     phase,
			Weights:   w,
			Loss:      loss,
			Elapsed:   time.Since(start),
		})
	}

	return losses, nil
}

// unflatten splits flat row-major data into n rows of dims values.
func unflatten(flat []float64, n, dims int) [][]float64 {
	rows := make([][]float64, n)
	for i := range rows {
		rows[i] = append([]float64(nil), flat[i*dims:(i+1)*dims]...)
	}
	return rows
}
