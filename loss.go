package pacmap

import "gonum.org/v1/gonum/floats"

// Saturation constants of the two attractive losses: (r+1)/(c+r+1).
const (
	neighbourLossScale = 10.0
	midNearLossScale   = 10000.0
)

// PairSets holds the three pair sets sampled once per fit. Row i of each set
// lists the partners of point i.
type PairSets struct {
	Neighbour [][]int
	MidNear   [][]int
	Further   [][]int
}

// attractiveTerm returns (r+1)/(c+r+1) and its derivative with respect to r.
func attractiveTerm(r, c float64) (loss, dLoss float64) {
	denom := c + r + 1
	return (r + 1) / denom, c / (denom * denom)
}

// repulsiveTerm returns 1/(1+(r+1)) and its derivative with respect to r.
func repulsiveTerm(r float64) (loss, dLoss float64) {
	denom := r + 2
	return 1 / denom, -1 / (denom * denom)
}

// pairLoss sums term(r) over every (i, j) in pairs for rows [start, end) of
// the flat embedding y. When grad is non-nil it also adds
// w * d(term)/dy into grad, using dr/dy_i = 2(y_i - y_j) = -dr/dy_j.
func pairLoss(y []float64, dims int, pairs [][]int, start, end int, term func(r float64) (float64, float64), w float64, grad []float64) float64 {
	var total float64
	for i := start; i < end; i++ {
		yi := y[i*dims : (i+1)*dims]
		for _, j := range pairs[i] {
			yj := y[j*dims : (j+1)*dims]
			r := euclideanSumOfSquares(yi, yj)
			loss, dLoss := term(r)
			total += loss
			if grad == nil || w == 0 {
				continue
			}
			g := 2 * w * dLoss
			gi := grad[i*dims : (i+1)*dims]
			gj := grad[j*dims : (j+1)*dims]
			for k := range yi {
				d := g * (yi[k] - yj[k])
				gi[k] += d
				gj[k] -= d
			}
		}
	}
	return total
}

func neighbourTerm(r float64) (float64, float64) { return attractiveTerm(r, neighbourLossScale) }
func midNearTerm(r float64) (float64, float64)   { return attractiveTerm(r, midNearLossScale) }

// NeighbourLoss is the sum over neighbour pairs of (r+1)/(10+r+1), where r is
// the squared embedding distance of the pair. y is flat row-major.
func NeighbourLoss(y []float64, dims int, pairs [][]int) float64 {
	return pairLoss(y, dims, pairs, 0, len(pairs), neighbourTerm, 0, nil)
}

// MidNearLoss is NeighbourLoss with 10000 in place of 10: a weak, long-range
// attraction.
func MidNearLoss(y []float64, dims int, pairs [][]int) float64 {
	return pairLoss(y, dims, pairs, 0, len(pairs), midNearTerm, 0, nil)
}

// FurtherLoss is the sum over further pairs of 1/(1+(r+1)). It shrinks as the
// pairs move apart.
func FurtherLoss(y []float64, dims int, pairs [][]int) float64 {
	return pairLoss(y, dims, pairs, 0, len(pairs), repulsiveTerm, 0, nil)
}

// TotalLoss returns the weighted sum of the three losses.
func TotalLoss(y []float64, dims int, pairs PairSets, w Weights) float64 {
	return w.Neighbour*NeighbourLoss(y, dims, pairs.Neighbour) +
		w.MidNear*MidNearLoss(y, dims, pairs.MidNear) +
		w.Further*FurtherLoss(y, dims, pairs.Further)
}

// Gradient returns the gradient of TotalLoss with respect to y.
func Gradient(y []float64, dims int, pairs PairSets, w Weights) []float64 {
	e := newEvaluator(len(y)/dims, dims, pairs, 1)
	grad := make([]float64, len(y))
	e.lossAndGradient(y, w, grad)
	return grad
}

// evaluator computes the weighted loss and its gradient over row ranges in
// parallel. Each worker accumulates into its own gradient buffer because a
// pair (i, j) also writes to row j, which may belong to another worker.
type evaluator struct {
	n, dims  int
	pairs    PairSets
	workers  int
	partials [][]float64
	losses   []float64
}

func newEvaluator(n, dims int, pairs PairSets, numWorkers int) *evaluator {
	numWorkers = max(min(numWorkers, n), 1)
	partials := make([][]float64, numWorkers)
	for w := range partials {
		partials[w] = make([]float64, n*dims)
	}
	return &evaluator{
		n:        n,
		dims:     dims,
		pairs:    pairs,
		workers:  numWorkers,
		partials: partials,
		losses:   make([]float64, numWorkers),
	}
}

// lossAndGradient writes the gradient of the weighted loss into grad and
// returns the loss. Buffers are reduced in worker order, so the result is
// deterministic for a fixed worker count.
func (e *evaluator) lossAndGradient(y []float64, w Weights, grad []float64) float64 {
	for k := range e.losses {
		e.losses[k] = 0
		clear(e.partials[k])
	}

	parallelRows(e.n, e.workers, func(worker, start, end int) {
		buf := e.partials[worker]
		loss := w.Neighbour * pairLoss(y, e.dims, e.pairs.Neighbour, start, end, neighbourTerm, w.Neighbour, buf)
		if w.MidNear != 0 {
			loss += w.MidNear * pairLoss(y, e.dims, e.pairs.MidNear, start, end, midNearTerm, w.MidNear, buf)
		}
		loss += w.Further * pairLoss(y, e.dims, e.pairs.Further, start, end, repulsiveTerm, w.Further, buf)
		e.losses[worker] = loss
	})

	copy(grad, e.partials[0])
	for k := 1; k < e.workers; k++ {
		floats.Add(grad, e.partials[k])
	}
	return floats.Sum(e.losses)
}
