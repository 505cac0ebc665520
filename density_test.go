package pacmap

import (
	"errors"
	"testing"
)

// linePoints returns n points on the x axis at 0, 1, ..., n-1.
func linePoints(n int) []float64 {
	data := make([]float64, n*2)
	for i := 0; i < n; i++ {
		data[i*2] = float64(i)
	}
	return data
}

func TestComputeDensityScales_Line(t *testing.T) {
	n := 8
	dist := ComputePairwiseDistances(linePoints(n), n, 2)

	sigma, err := ComputeDensityScales(dist, n)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Point 0: sorted distances 0,1,2,3,4,5,6,7 -> ranks 4..6 = 4,5,6.
	if !almostEqual(sigma[0], 5, floatTol) {
		t.Errorf("sigma[0] = %v, expected 5", sigma[0])
	}
	// Point 3: sorted distances 0,1,1,2,2,3,3,4 -> ranks 4..6 = 2,3,3.
	if !almostEqual(sigma[3], 8.0/3.0, floatTol) {
		t.Errorf("sigma[3] = %v, expected 8/3", sigma[3])
	}
	// The line is symmetric about 3.5.
	for i := 0; i < n; i++ {
		if !almostEqual(sigma[i], sigma[n-1-i], floatTol) {
			t.Errorf("sigma[%d] = %v, sigma[%d] = %v, expected equal", i, sigma[i], n-1-i, sigma[n-1-i])
		}
	}
}

func TestComputeDensityScales_TooFewPoints(t *testing.T) {
	for n := 1; n < MinPoints; n++ {
		dist := ComputePairwiseDistances(linePoints(n), n, 2)
		_, err := ComputeDensityScales(dist, n)
		if !errors.Is(err, ErrUnsupportedInput) {
			t.Errorf("n=%d: expected ErrUnsupportedInput, got %v", n, err)
		}
	}
}

func TestComputeDensityScales_ExactlyMinPoints(t *testing.T) {
	dist := ComputePairwiseDistances(linePoints(MinPoints), MinPoints, 2)
	if _, err := ComputeDensityScales(dist, MinPoints); err != nil {
		t.Fatalf("unexpected error at n=%d: %v", MinPoints, err)
	}
}

func TestComputeDensityScales_DuplicatePoints(t *testing.T) {
	n := 8
	data := make([]float64, n*2)
	data[(n-1)*2] = 10 // seven points at the origin, one at (10, 0)
	dist := ComputePairwiseDistances(data, n, 2)

	_, err := ComputeDensityScales(dist, n)
	if !errors.Is(err, ErrDegenerateDensity) {
		t.Fatalf("expected ErrDegenerateDensity, got %v", err)
	}
}

func TestNormalizeDistances_HandComputed(t *testing.T) {
	n := 8
	dist := ComputePairwiseDistances(linePoints(n), n, 2)
	sigma, err := ComputeDensityScales(dist, n)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	norm := NormalizeDistances(dist, sigma, n)

	// dist(0,3) = 3, sigma0 = 5, sigma3 = 8/3 -> 9 / (40/3) = 27/40.
	if !almostEqual(norm[0*n+3], 27.0/40.0, floatTol) {
		t.Errorf("norm[0,3] = %v, expected 27/40", norm[0*n+3])
	}
	for i := 0; i < n; i++ {
		if norm[i*n+i] != 0 {
			t.Errorf("norm[%d,%d] = %v, expected 0", i, i, norm[i*n+i])
		}
		for j := 0; j < n; j++ {
			if norm[i*n+j] < 0 {
				t.Errorf("norm[%d,%d] = %v, expected non-negative", i, j, norm[i*n+j])
			}
			if !almostEqual(norm[i*n+j], norm[j*n+i], floatTol) {
				t.Errorf("norm[%d,%d] = %v != norm[%d,%d] = %v", i, j, norm[i*n+j], j, i, norm[j*n+i])
			}
		}
	}
}
