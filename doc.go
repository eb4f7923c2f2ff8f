// Package tsclust clusters monthly time series with a Bayesian nonparametric
// mixture model: a two-parameter Poisson-Dirichlet (Pitman-Yor) prior over
// partitions, estimated by Gibbs sampling with Metropolis-Hastings steps.
//
// Series sharing a cluster share latent trend/seasonal parameters and AR(1)
// random effects; each series keeps its own noise variance. The sampler
// sweeps cluster assignments through a generalized Pólya urn, improves mixing
// with a Rao-Blackwellized acceleration step, and updates the variance,
// correlation and concentration hyperparameters each iteration. The point
// estimate is the saved partition closest to the posterior similarity matrix.
//
// Basic usage:
//
//	cfg := tsclust.DefaultConfig()
//	cfg.MaxIter = 1000
//	result, err := tsclust.Cluster(data, cfg)
//	// result.Groups[i] is the group of series i (column i of data)
//	// result.NumGroups is the number of groups
//	// result.Heterogeneity scores the chosen partition (lower = tighter)
//
// data is a T×n matrix: one column per series on a common monthly grid.
// Columns are min-max scaled to [0,1] before sampling; constant columns are
// dropped and reported in Result.Removed.
//
// The model follows Nieto-Barajas and Contreras-Cristán (2014), "A Bayesian
// Non-Parametric Approach for Time Series Clustering", Bayesian Analysis 9(1).
package tsclust
