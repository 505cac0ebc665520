package pacmap

import (
	"math"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRand(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, 0))
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, 2, cfg.NDimensions)
	assert.Equal(t, 10, cfg.NumNeighbourPairs)
	assert.Equal(t, 0.5, cfg.RatioMidNearPairs)
	assert.Equal(t, 2.0, cfg.RatioFurtherPairs)
	assert.Equal(t, 1.0, cfg.LearningRate)
	assert.Equal(t, 450, cfg.NumIterations)
	assert.Zero(t, cfg.Seed)
	assert.Zero(t, cfg.Workers)
	assert.Nil(t, cfg.Logger)
	assert.Nil(t, cfg.Observer)
}

func TestConfigValidation(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"NDimensions = 1", func(c *Config) { c.NDimensions = 1 }},
		{"NDimensions = 0", func(c *Config) { c.NDimensions = 0 }},
		{"zero LearningRate", func(c *Config) { c.LearningRate = 0 }},
		{"negative LearningRate", func(c *Config) { c.LearningRate = -1 }},
		{"negative NumNeighbourPairs", func(c *Config) { c.NumNeighbourPairs = -1 }},
		{"zero RatioMidNearPairs", func(c *Config) { c.RatioMidNearPairs = 0 }},
		{"negative RatioFurtherPairs", func(c *Config) { c.RatioFurtherPairs = -2 }},
		{"negative NumIterations", func(c *Config) { c.NumIterations = -1 }},
		{"negative Workers", func(c *Config) { c.Workers = -3 }},
		{"mid-near count rounds to 0", func(c *Config) { c.NumNeighbourPairs = 1; c.RatioMidNearPairs = 0.4 }},
		{"further count rounds to 0", func(c *Config) { c.NumNeighbourPairs = 2; c.RatioFurtherPairs = 0.2 }},
		{"infinite RatioMidNearPairs", func(c *Config) { c.RatioMidNearPairs = math.Inf(1) }},
		{"NaN RatioMidNearPairs", func(c *Config) { c.RatioMidNearPairs = math.NaN() }},
		{"infinite RatioFurtherPairs", func(c *Config) { c.RatioFurtherPairs = math.Inf(1) }},
		{"NaN RatioFurtherPairs", func(c *Config) { c.RatioFurtherPairs = math.NaN() }},
		{"huge RatioFurtherPairs", func(c *Config) { c.RatioFurtherPairs = 1e15 }},
		{"huge RatioMidNearPairs", func(c *Config) { c.RatioMidNearPairs = 1e15 }},
		{"huge NumNeighbourPairs", func(c *Config) { c.NumNeighbourPairs = maxPairsPerPoint + 1 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			r, err := New(cfg)
			assert.ErrorIs(t, err, ErrInvalidConfig)
			assert.Nil(t, r)
		})
	}
}

func TestNew_AppliesDefaults(t *testing.T) {
	r, err := New(DefaultConfig())
	require.NoError(t, err)

	cfg := r.Config()
	assert.Positive(t, cfg.Workers)
	assert.NotNil(t, cfg.Logger)
	assert.NotNil(t, cfg.Observer)
}

func TestResolvePairCounts(t *testing.T) {
	tests := []struct {
		name      string
		nn        int
		n         int
		neighbour int
		midNear   int
		further   int
	}{
		{"explicit", 10, 50, 10, 5, 20},
		{"derived small", 0, 500, 10, 5, 20},
		{"derived at 10000", 0, 10000, 10, 5, 20},
		{"derived 100000", 0, 100000, 25, 13, 50},
		{"derived 1000000", 0, 1000000, 40, 20, 80},
		{"explicit odd", 3, 50, 3, 2, 6},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			cfg.NumNeighbourPairs = tt.nn
			pc, err := resolvePairCounts(cfg, tt.n)
			require.NoError(t, err)
			assert.Equal(t, tt.neighbour, pc.neighbours)
			assert.Equal(t, tt.midNear, pc.midNear)
			assert.Equal(t, tt.further, pc.further)
		})
	}
}

func TestResolvePairCounts_Bounds(t *testing.T) {
	tests := []struct {
		name    string
		nn      int
		midNear float64
		further float64
		wantErr bool
	}{
		{"at limit", 1, 1, maxPairsPerPoint, false},
		{"above limit", 1, 1, maxPairsPerPoint + 1, true},
		{"derived neighbours with huge further ratio", 0, 0.5, 1e15, true},
		{"derived neighbours with huge mid-near ratio", 0, 1e300, 2, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			cfg.NumNeighbourPairs = tt.nn
			cfg.RatioMidNearPairs = tt.midNear
			cfg.RatioFurtherPairs = tt.further
			_, err := resolvePairCounts(cfg, 1000)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidConfig)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestFit_HugeDerivedFurtherCountFailsCleanly(t *testing.T) {
	cfg := quickConfig(5)
	cfg.NumNeighbourPairs = 0
	cfg.RatioFurtherPairs = 1e15

	// With n unknown, New leaves the derived counts to Fit.
	r, err := New(cfg)
	require.NoError(t, err)

	_, err = r.Fit(cubePoints(), InitRandom)
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestResolvePairCounts_DerivedTooSmall(t *testing.T) {
	cfg := DefaultConfig()
	cfg.NumNeighbourPairs = 0
	cfg.RatioMidNearPairs = 0.01

	// New cannot know n yet, so the check happens at fit time.
	r, err := New(cfg)
	require.NoError(t, err)

	_, err = r.Fit(cubePoints(), InitRandom)
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestResultDense(t *testing.T) {
	r := &Result{Embedding: [][]float64{{1, 2}, {3, 4}, {5, 6}}}
	d := r.Dense()

	rows, cols := d.Dims()
	assert.Equal(t, 3, rows)
	assert.Equal(t, 2, cols)
	assert.Equal(t, 4.0, d.At(1, 1))

	empty := (&Result{}).Dense()
	assert.True(t, empty.IsEmpty())
}
