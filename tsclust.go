package tsclust

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// Config controls the sampler. Start with [DefaultConfig] and override the
// fields you need.
type Config struct {
	// MaxIter is the number of Gibbs sampling iterations. Default: 400.
	MaxIter int

	// Burnin is the number of initial iterations discarded from the chain.
	// Must be positive and smaller than MaxIter. 0 means MaxIter/10.
	Burnin int

	// Thinning keeps every Thinning-th post-burn-in iteration in the trace.
	// Default: 5.
	Thinning int

	// Level, Trend and Seasonality choose which covariate blocks participate
	// in clustering: a raised flag moves that block into the clustered
	// design matrix X, a lowered one into Z. Defaults: false, true, true.
	Level, Trend, Seasonality bool

	// Degree is the degree of the polynomial trend. Default: 2.
	Degree int

	// Inverse-gamma shape/rate hyperparameters for the noise, beta and alpha
	// variances. All must be positive. Defaults: 2, 1, 2, 1, 2, 1.
	C0Eps, C1Eps     float64
	C0Beta, C1Beta   float64
	C0Alpha, C1Alpha float64

	// PriorA enables the Metropolis-Hastings update of the discount
	// parameter a under a mixed prior: point mass at 0 with weight PiA,
	// Beta(Q0A, Q1A) otherwise. Default: false.
	PriorA   bool
	PiA      float64
	Q0A, Q1A float64

	// PriorB enables the Metropolis-Hastings update of the strength
	// parameter b under a Gamma(Q0B, scale Q1B) prior on a+b.
	// Default: false.
	PriorB   bool
	Q0B, Q1B float64

	// A is the initial (or fixed, when PriorA is false) discount parameter,
	// in [0,1). Default: 0.25. Note that 0 is a valid value and is taken
	// literally.
	A float64

	// B is the initial (or fixed, when PriorB is false) strength parameter;
	// must satisfy B > -A. Default: 0, taken literally.
	B float64

	// IndLPML enables accumulation of the log pseudo marginal likelihood.
	// Default: false.
	IndLPML bool

	// Seed seeds the sampler's random source. Runs with equal seeds, config
	// and data produce bit-identical traces. 0 means 1.
	Seed uint64

	// Workers bounds the goroutines used for the conditionally independent
	// per-series computations (covariance assembly, residuals, predictive
	// densities). Randomness always stays on one goroutine, so Workers does
	// not affect reproducibility. <= 1 means sequential.
	Workers int

	// Progress, when non-nil, is called every 50 iterations with the number
	// of completed iterations.
	Progress func(iter, maxIter int)
}

// DefaultConfig returns a Config with the reference defaults.
func DefaultConfig() Config {
	return Config{
		MaxIter:     400,
		Thinning:    5,
		Trend:       true,
		Seasonality: true,
		Degree:      2,
		C0Eps:       2, C1Eps: 1,
		C0Beta:      2, C1Beta: 1,
		C0Alpha:     2, C1Alpha: 1,
		PiA:         0.5,
		Q0A:         1, Q1A: 1,
		Q0B:         1, Q1B: 1,
		A:           0.25,
		Seed:        1,
	}
}

// applyDefaults fills zero-valued fields with their defaults. A and B are
// exempt: zero is meaningful for both.
func applyDefaults(cfg *Config) {
	if cfg.MaxIter == 0 {
		cfg.MaxIter = 400
	}
	if cfg.Burnin == 0 {
		cfg.Burnin = cfg.MaxIter / 10
	}
	if cfg.Thinning == 0 {
		cfg.Thinning = 5
	}
	if cfg.Degree == 0 {
		cfg.Degree = 2
	}
	if cfg.C0Eps == 0 {
		cfg.C0Eps = 2
	}
	if cfg.C1Eps == 0 {
		cfg.C1Eps = 1
	}
	if cfg.C0Beta == 0 {
		cfg.C0Beta = 2
	}
	if cfg.C1Beta == 0 {
		cfg.C1Beta = 1
	}
	if cfg.C0Alpha == 0 {
		cfg.C0Alpha = 2
	}
	if cfg.C1Alpha == 0 {
		cfg.C1Alpha = 1
	}
	if cfg.PiA == 0 {
		cfg.PiA = 0.5
	}
	if cfg.Q0A == 0 {
		cfg.Q0A = 1
	}
	if cfg.Q1A == 0 {
		cfg.Q1A = 1
	}
	if cfg.Q0B == 0 {
		cfg.Q0B = 1
	}
	if cfg.Q1B == 0 {
		cfg.Q1B = 1
	}
	if cfg.Seed == 0 {
		cfg.Seed = 1
	}
}

// validateConfig checks cfg and returns a descriptive error for the first
// violation found. Configuration errors are reported before sampling starts
// and never retried.
func validateConfig(cfg *Config) error {
	if cfg.MaxIter < 1 {
		return fmt.Errorf("tsclust: MaxIter must be a positive integer, got %d", cfg.MaxIter)
	}
	if cfg.Burnin < 1 {
		return fmt.Errorf("tsclust: Burnin must be a positive integer, got %d", cfg.Burnin)
	}
	if cfg.Burnin >= cfg.MaxIter {
		return fmt.Errorf("tsclust: Burnin (%d) must be smaller than MaxIter (%d)", cfg.Burnin, cfg.MaxIter)
	}
	if cfg.Thinning < 1 {
		return fmt.Errorf("tsclust: Thinning must be a positive integer, got %d", cfg.Thinning)
	}
	if cfg.Degree < 1 {
		return fmt.Errorf("tsclust: Degree must be a positive integer, got %d", cfg.Degree)
	}
	for _, h := range []struct {
		name string
		v    float64
	}{
		{"C0Eps", cfg.C0Eps}, {"C1Eps", cfg.C1Eps},
		{"C0Beta", cfg.C0Beta}, {"C1Beta", cfg.C1Beta},
		{"C0Alpha", cfg.C0Alpha}, {"C1Alpha", cfg.C1Alpha},
	} {
		if h.v <= 0 {
			return fmt.Errorf("tsclust: %s must be positive, got %g", h.name, h.v)
		}
	}
	if cfg.PiA <= 0 || cfg.PiA >= 1 {
		return fmt.Errorf("tsclust: PiA must be in (0,1), got %g", cfg.PiA)
	}
	for _, h := range []struct {
		name string
		v    float64
	}{
		{"Q0A", cfg.Q0A}, {"Q1A", cfg.Q1A}, {"Q0B", cfg.Q0B}, {"Q1B", cfg.Q1B},
	} {
		if h.v <= 0 {
			return fmt.Errorf("tsclust: %s must be positive, got %g", h.name, h.v)
		}
	}
	if cfg.A < 0 || cfg.A >= 1 {
		return fmt.Errorf("tsclust: A must be in [0,1), got %g", cfg.A)
	}
	if cfg.B <= -cfg.A {
		return fmt.Errorf("tsclust: B must be greater than -A, got B=%g A=%g", cfg.B, cfg.A)
	}
	if cfg.Workers < 0 {
		return fmt.Errorf("tsclust: Workers must be >= 0, got %d", cfg.Workers)
	}
	return nil
}

// Result contains the output of a clustering run.
type Result struct {
	// Groups assigns each series (post-removal column of Scaled) to a group
	// in 0..NumGroups-1.
	Groups []int

	// NumGroups is the number of groups in the chosen partition.
	NumGroups int

	// Heterogeneity is the within-cluster dispersion score of the chosen
	// partition; lower is tighter, 0 for all singletons.
	Heterogeneity float64

	// LPML is the log pseudo marginal likelihood. Only meaningful when
	// Config.IndLPML was set; NaN otherwise.
	LPML float64

	// Similarity is the n×n posterior co-clustering frequency matrix,
	// normalized by the number of saved iterations: entry (i,j) is the
	// fraction of saved iterations in which series i and j shared a group.
	// Symmetric, entries in [0,1], unit diagonal.
	Similarity *mat.SymDense

	// SavedIterations is the number of post-burn-in, thinned iterations
	// recorded in the trace.
	SavedIterations int

	// Acceptance rates of the three Metropolis-Hastings steps, relative to
	// MaxIter. AcceptRateA/AcceptRateB are 0 when the corresponding prior
	// is disabled.
	AcceptRateRho, AcceptRateA, AcceptRateB float64

	// Removed lists input columns dropped by the scaler for being constant.
	Removed []int

	// Scaled is the T×n scaled observation matrix the sampler saw; column i
	// is the trajectory of series i, useful for plotting groups.
	Scaled *mat.Dense

	// Trace holds the saved chain states.
	Trace *Trace
}

// Members returns the indices of the series assigned to group g in the
// chosen partition, in ascending order.
func (r *Result) Members(g int) []int {
	var members []int
	for i, gi := range r.Groups {
		if gi == g {
			members = append(members, i)
		}
	}
	return members
}

// Cluster runs the full pipeline on a T×n observation matrix (one column per
// monthly series): scaling, design-matrix construction, Gibbs/MH sampling,
// and posterior summarization. Returns an error for invalid configuration,
// degenerate data, or a fatal numerical failure during sampling.
func Cluster(data *mat.Dense, cfg Config) (*Result, error) {
	applyDefaults(&cfg)
	if err := validateConfig(&cfg); err != nil {
		return nil, err
	}

	scaled, err := ScaleSeries(data)
	if err != nil {
		return nil, err
	}
	T, _ := scaled.Data.Dims()

	des, err := DesignMatrices(cfg.Level, cfg.Trend, cfg.Seasonality, cfg.Degree, T)
	if err != nil {
		return nil, err
	}

	s, err := newSampler(scaled.Data, des, cfg)
	if err != nil {
		return nil, err
	}
	if err := s.run(); err != nil {
		return nil, err
	}
	return s.summarize(scaled)
}
