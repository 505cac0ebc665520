package pacmap

import (
	"fmt"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// densityRanks is the number of smallest distances kept per row, the zero
// self-distance at rank 0 included. Ranks 4..6 feed the density estimate.
const densityRanks = 7

// MinPoints is the smallest point set for which the local density estimate
// is defined.
const MinPoints = densityRanks

// densityScale returns the mean of the 4th-6th smallest values of row.
// buf must have len(row) capacity and is overwritten.
func densityScale(row, buf []float64) float64 {
	buf = append(buf[:0], row...)
	sort.Float64s(buf)
	return stat.Mean(buf[densityRanks-3:densityRanks], nil)
}

// ComputeDensityScales computes the local density estimate sigma for every
// point of a flat n*n distance matrix. sigma[i] is the mean distance from i
// to its 4th, 5th and 6th nearest neighbours.
//
// Returns an error wrapping ErrUnsupportedInput when n < MinPoints and
// ErrDegenerateDensity when some sigma is zero.
func ComputeDensityScales(distMatrix []float64, n int) ([]float64, error) {
	if n < MinPoints {
		return nil, fmt.Errorf("%w: density normalization needs at least %d points, got %d", ErrUnsupportedInput, MinPoints, n)
	}

	sigma := make([]float64, n)
	buf := make([]float64, 0, n)
	for i := 0; i < n; i++ {
		sigma[i] = densityScale(distMatrix[i*n:(i+1)*n], buf)
	}

	if err := checkDensityScales(sigma); err != nil {
		return nil, err
	}
	return sigma, nil
}

// checkDensityScales reports the first point whose sigma is not positive.
func checkDensityScales(sigma []float64) error {
	for i, s := range sigma {
		if !(s > 0) {
			return fmt.Errorf("%w: point %d has sigma %v (duplicate points?)", ErrDegenerateDensity, i, s)
		}
	}
	return nil
}

// NormalizeDistances returns the n*n matrix with entries
// dist(i,j)^2 / (sigma[i]*sigma[j]).
func NormalizeDistances(distMatrix, sigma []float64, n int) []float64 {
	result := make([]float64, n*n)

	for i := 0; i < n; i++ {
		normalizeRow(result[i*n:(i+1)*n], distMatrix[i*n:(i+1)*n], sigma, i)
	}

	return result
}

func normalizeRow(dst, row, sigma []float64, i int) {
	si := sigma[i]
	for j, d := range row {
		dst[j] = d * d / (si * sigma[j])
	}
}
