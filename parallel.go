package pacmap

import (
	"fmt"
	"sync"
)

// parallelRows splits [0, n) into contiguous row ranges, one per worker, and
// runs fn on each range in its own goroutine. Since row ranges don't overlap,
// fn needs no synchronization for writes confined to its rows.
func parallelRows(n, numWorkers int, fn func(worker, start, end int)) {
	var wg sync.WaitGroup

	rowsPerWorker := (n + numWorkers - 1) / numWorkers

	for w := 0; w < numWorkers; w++ {
		startRow := w * rowsPerWorker
		endRow := startRow + rowsPerWorker
		if endRow > n {
			endRow = n
		}
		if startRow >= n {
			break
		}

		wg.Add(1)
		go func(worker, start, end int) {
			defer wg.Done()
			fn(worker, start, end)
		}(w, startRow, endRow)
	}

	wg.Wait()
}

// ComputePairwiseDistancesParallel computes the full n×n distance matrix using
// multiple goroutines. data is flat row-major with n rows and dims columns.
// numWorkers controls the degree of parallelism; if <= 1, it falls back to
// single-threaded ComputePairwiseDistances.
//
// The result is bitwise identical to ComputePairwiseDistances: a flat []float64
// of length n×n in row-major order.
func ComputePairwiseDistancesParallel(data []float64, n, dims, numWorkers int) []float64 {
	if numWorkers <= 1 || n <= 1 {
		return ComputePairwiseDistances(data, n, dims)
	}

	result := make([]float64, n*n)

	// Each worker computes dist(i,j) for all j > i in its row range and mirrors
	// it into row j. Every (i,j) cell is written by exactly one worker.
	parallelRows(n, numWorkers, func(_, start, end int) {
		for i := start; i < end; i++ {
			for j := i + 1; j < n; j++ {
				d := EuclideanDistance(data[i*dims:(i+1)*dims], data[j*dims:(j+1)*dims])
				result[i*n+j] = d
				result[j*n+i] = d
			}
		}
	})

	return result
}

// ComputeDensityScalesParallel computes density scales using multiple
// goroutines. Each worker handles a contiguous range of points independently.
// Falls back to sequential ComputeDensityScales if numWorkers <= 1.
func ComputeDensityScalesParallel(distMatrix []float64, n, numWorkers int) ([]float64, error) {
	if numWorkers <= 1 || n < MinPoints {
		return ComputeDensityScales(distMatrix, n)
	}

	sigma := make([]float64, n)
	parallelRows(n, numWorkers, func(_, start, end int) {
		buf := make([]float64, 0, n)
		for i := start; i < end; i++ {
			sigma[i] = densityScale(distMatrix[i*n:(i+1)*n], buf)
		}
	})

	if err := checkDensityScales(sigma); err != nil {
		return nil, err
	}
	return sigma, nil
}

// NormalizeDistancesParallel computes the normalized distance matrix using
// multiple goroutines. Falls back to sequential NormalizeDistances if
// numWorkers <= 1.
func NormalizeDistancesParallel(distMatrix, sigma []float64, n, numWorkers int) []float64 {
	if numWorkers <= 1 || n <= 1 {
		return NormalizeDistances(distMatrix, sigma, n)
	}

	result := make([]float64, n*n)
	parallelRows(n, numWorkers, func(_, start, end int) {
		for i := start; i < end; i++ {
			normalizeRow(result[i*n:(i+1)*n], distMatrix[i*n:(i+1)*n], sigma, i)
		}
	})

	return result
}

// checkSquare reports a distance matrix whose length is not n*n.
func checkSquare(distMatrix []float64, n int) error {
	if len(distMatrix) != n*n {
		return fmt.Errorf("%w: distMatrix length %d does not match n*n = %d (n=%d)", ErrUnsupportedInput, len(distMatrix), n*n, n)
	}
	return nil
}
