package pacmap

import (
	"context"
	"fmt"
	"math/rand/v2"
	"sort"

	"golang.org/x/sync/errgroup"
)

const (
	// midNearGroups is the number of mid-near partners per point: one per
	// independently sampled candidate group.
	midNearGroups = 5

	// midNearCandidates is the size of each candidate group. The second
	// nearest candidate of the group becomes the mid-near partner.
	midNearCandidates = 6

	// minRejectionBudget is the floor on draws allowed per further pair
	// before sampling gives up.
	minRejectionBudget = 1000
)

// rejectionBudget returns the number of draws allowed for one further pair.
// With at least one valid candidate among n, each draw succeeds with
// probability >= 1/n, so 64n draws fail with probability below e^-64.
func rejectionBudget(n int) int {
	return max(minRejectionBudget, 64*n)
}

// sampleRows runs fn for every point in [0, n), with row ranges spread over
// numWorkers goroutines. The first error, or cancellation of ctx, stops the
// remaining ranges.
func sampleRows(ctx context.Context, n, numWorkers int, fn func(ctx context.Context, start, end int) error) error {
	numWorkers = max(numWorkers, 1)
	rowsPerWorker := (n + numWorkers - 1) / numWorkers

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(numWorkers)
	for start := 0; start < n; start += rowsPerWorker {
		end := min(start+rowsPerWorker, n)
		g.Go(func() error {
			return fn(ctx, start, end)
		})
	}
	return g.Wait()
}

// rankedIndex pairs a candidate index with its sort key.
type rankedIndex struct {
	dist float64
	idx  int
}

// ComputeNeighbourPairs returns, for each of the n points, the k points with
// the smallest normalized distance, closest first. normDist is flat n*n
// row-major. The point itself is never its own neighbour, even when duplicate
// points tie with it at distance zero; remaining ties go to the lower index.
func ComputeNeighbourPairs(normDist []float64, n, k, numWorkers int) ([][]int, error) {
	if err := checkSquare(normDist, n); err != nil {
		return nil, err
	}
	if k < 1 {
		return nil, fmt.Errorf("%w: number of neighbour pairs must be >= 1, got %d", ErrInvalidConfig, k)
	}
	if k > n-1 {
		return nil, fmt.Errorf("%w: %d neighbour pairs need at least %d points, got %d", ErrUnsupportedInput, k, k+1, n)
	}

	pairs := make([][]int, n)
	parallelRows(n, max(numWorkers, 1), func(_, start, end int) {
		candidates := make([]rankedIndex, 0, n-1)
		for i := start; i < end; i++ {
			candidates = candidates[:0]
			row := normDist[i*n : (i+1)*n]
			for j, d := range row {
				if j != i {
					candidates = append(candidates, rankedIndex{dist: d, idx: j})
				}
			}
			sort.Slice(candidates, func(a, b int) bool {
				if candidates[a].dist != candidates[b].dist {
					return candidates[a].dist < candidates[b].dist
				}
				return candidates[a].idx < candidates[b].idx
			})

			nbrs := make([]int, k)
			for r := range nbrs {
				nbrs[r] = candidates[r].idx
			}
			pairs[i] = nbrs
		}
	})

	return pairs, nil
}

// drawOther returns an index drawn uniformly from [0, n) \ {i}.
func drawOther(rng *rand.Rand, n, i int) int {
	c := rng.IntN(n - 1)
	if c >= i {
		c++
	}
	return c
}

// ComputeMidNearPairs samples the mid-near partners of each of the n points.
// For every point it draws midNearGroups groups of midNearCandidates indices
// (uniformly, with replacement, never the point itself) and keeps the second
// nearest member of each group by raw distance. distMatrix is the flat n*n
// Euclidean distance matrix. Sampling stops early when ctx is cancelled.
func ComputeMidNearPairs(ctx context.Context, distMatrix []float64, n int, seed uint64, numWorkers int) ([][]int, error) {
	if err := checkSquare(distMatrix, n); err != nil {
		return nil, err
	}
	if n < 2 {
		return nil, fmt.Errorf("%w: mid-near sampling needs at least 2 points, got %d", ErrUnsupportedInput, n)
	}

	pairs := make([][]int, n)
	err := sampleRows(ctx, n, numWorkers, func(ctx context.Context, start, end int) error {
		var group [midNearCandidates]rankedIndex
		for i := start; i < end; i++ {
			if err := ctx.Err(); err != nil {
				return err
			}
			rng := rand.New(newSource(seed, streamMidNear, i))
			row := distMatrix[i*n : (i+1)*n]
			mids := make([]int, midNearGroups)
			for g := range mids {
				for c := range group {
					j := drawOther(rng, n, i)
					group[c] = rankedIndex{dist: row[j], idx: j}
				}
				mids[g] = secondNearest(group[:])
			}
			pairs[i] = mids
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return pairs, nil
}

// secondNearest returns the index of the second smallest entry of group.
// Ties keep draw order, so equal distances resolve to the earlier draw.
func secondNearest(group []rankedIndex) int {
	first, second := -1, -1
	for c := range group {
		switch {
		case first < 0 || group[c].dist < group[first].dist:
			first, second = c, first
		case second < 0 || group[c].dist < group[second].dist:
			second = c
		}
	}
	return group[second].idx
}

// ComputeFurtherPairs samples k further partners for each of the n points.
// Partners are drawn uniformly from [0, n) by rejection, skipping the point
// itself and its neighbours. Partners may repeat.
//
// Returns an error wrapping ErrUnsupportedInput when some point has no valid
// candidate at all, or when the rejection budget runs out, and ctx.Err()
// when ctx is cancelled.
func ComputeFurtherPairs(ctx context.Context, n, k int, neighbours [][]int, seed uint64, numWorkers int) ([][]int, error) {
	if k < 1 {
		return nil, fmt.Errorf("%w: number of further pairs must be >= 1, got %d", ErrInvalidConfig, k)
	}
	if len(neighbours) != n {
		return nil, fmt.Errorf("%w: got neighbour pairs for %d points, want %d", ErrUnsupportedInput, len(neighbours), n)
	}

	budget := rejectionBudget(n)
	pairs := make([][]int, n)
	err := sampleRows(ctx, n, numWorkers, func(ctx context.Context, start, end int) error {
		excluded := make([]bool, n)
		for i := start; i < end; i++ {
			if err := ctx.Err(); err != nil {
				return err
			}

			valid := n - 1
			excluded[i] = true
			for _, j := range neighbours[i] {
				if !excluded[j] {
					excluded[j] = true
					valid--
				}
			}
			if valid < 1 {
				return fmt.Errorf("%w: point %d has no further-pair candidates among %d points", ErrUnsupportedInput, i, n)
			}

			rng := rand.New(newSource(seed, streamFurther, i))
			further := make([]int, k)
			for p := range further {
				j, ok := drawExcluding(rng, excluded, budget)
				if !ok {
					return fmt.Errorf("%w: further-pair sampling for point %d exhausted %d draws", ErrUnsupportedInput, i, budget)
				}
				further[p] = j
			}
			pairs[i] = further

			excluded[i] = false
			for _, j := range neighbours[i] {
				excluded[j] = false
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return pairs, nil
}

// drawExcluding draws indices uniformly from [0, len(excluded)) until one is
// not excluded, giving up after budget draws.
func drawExcluding(rng *rand.Rand, excluded []bool, budget int) (int, bool) {
	for range budget {
		j := rng.IntN(len(excluded))
		if !excluded[j] {
			return j, true
		}
	}
	return 0, false
}
