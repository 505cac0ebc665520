// Package pacmap implements Pairwise Controlled Manifold Approximation
// (PaCMAP), a dimensionality reduction method that preserves both local and
// global structure.
//
// PaCMAP samples three kinds of point pairs once, up front, and then
// optimizes a low-dimensional embedding under one loss term per kind:
//
//   - neighbour pairs, the nearest points under a density-normalized
//     distance, attract strongly;
//   - mid-near pairs, the second nearest of six random points, attract
//     weakly and keep the global layout;
//   - further pairs, random unrelated points, repel.
//
// The loss weights follow a three-phase schedule over the iterations, and the
// embedding is updated with Adagrad using closed-form gradients.
//
// Basic usage:
//
//	cfg := pacmap.DefaultConfig()
//	cfg.Seed = 42
//	result, err := pacmap.Embed(data, cfg)
//	// result.Embedding[i] is the 2-D position of point i
//
// For progress reporting, set Config.Observer:
//
//	cfg.Observer = pacmap.Observers(
//		pacmap.LogObserver(logger, 50),
//		pacmap.NewMetricsObserver(prometheus.DefaultRegisterer, "app"),
//	)
//
// Each stage is also exported on flat row-major matrices
// ([ComputePairwiseDistances], [ComputeDensityScales], [NormalizeDistances],
// [ComputeNeighbourPairs], [ComputeMidNearPairs], [ComputeFurtherPairs],
// [TotalLoss], [Gradient]) for callers that want to inspect or reuse them.
//
// At least [MinPoints] points are required, and more than
// NumNeighbourPairs+1, so that every point has a further-pair candidate.
package pacmap
