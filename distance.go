package pacmap

import "math"

// EuclideanDistance returns the Euclidean (L2) distance between a and b.
func EuclideanDistance(a, b []float64) float64 {
	return math.Sqrt(euclideanSumOfSquares(a, b))
}

// SquaredEuclidean returns the squared Euclidean distance (skips sqrt).
func SquaredEuclidean(a, b []float64) float64 {
	return euclideanSumOfSquares(a, b)
}

func euclideanSumOfSquares(a, b []float64) float64 {
	var sum float64
	for i := range a {
		d := a[i] - b[i]
		sum += d * d
	}
	return sum
}

// ComputePairwiseDistances computes the full n*n Euclidean distance matrix.
// data is flat row-major with n rows and dims columns.
// Returns flat []float64 of length n*n. The diagonal is zero because it is
// never computed, not because the arithmetic happens to cancel.
func ComputePairwiseDistances(data []float64, n, dims int) []float64 {
	result := make([]float64, n*n)

	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			d := EuclideanDistance(data[i*dims:(i+1)*dims], data[j*dims:(j+1)*dims])
			result[i*n+j] = d
			result[j*n+i] = d
		}
	}

	return result
}

// ComputeCrossDistances computes the m*k matrix of Euclidean distances between
// the rows of a (m rows) and the rows of b (k rows), both flat row-major with
// dims columns. Entry [i*k+j] is the distance from a[i] to b[j].
func ComputeCrossDistances(a []float64, m int, b []float64, k, dims int) []float64 {
	result := make([]float64, m*k)

	for i := 0; i < m; i++ {
		ai := a[i*dims : (i+1)*dims]
		for j := 0; j < k; j++ {
			s := euclideanSumOfSquares(ai, b[j*dims:(j+1)*dims])
			result[i*k+j] = math.Sqrt(max(s, 0))
		}
	}

	return result
}
