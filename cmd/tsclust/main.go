package main

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gonum.org/v1/gonum/mat"

	"github.com/tsclust/tsclust"
)

var (
	inputPath string

	maxIter  int
	burnin   int
	thinning int
	degree   int
	workers  int
	seed     uint64

	level       bool
	trend       bool
	seasonality bool

	c0eps, c1eps     float64
	c0beta, c1beta   float64
	c0alpha, c1alpha float64

	priorA bool
	priorB bool
	pia    float64
	q0a    float64
	q1a    float64
	q0b    float64
	q1b    float64
	aInit  float64
	bInit  float64

	indLPML bool
)

var rootCmd = &cobra.Command{
	Use:   "tsclust",
	Short: "Cluster monthly time series with a Pitman-Yor mixture model",
	Long: `Reads a CSV of monthly time series (first column: period label,
remaining columns: one series each, with a header row of series names),
scales every series to [0,1], and infers a clustering via Gibbs sampling
under a two-parameter Poisson-Dirichlet mixture model.`,
	RunE:          run,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.Flags().StringVarP(&inputPath, "input", "i", "", "CSV file with the time series (required)")
	_ = rootCmd.MarkFlagRequired("input")

	rootCmd.Flags().IntVar(&maxIter, "maxiter", 400, "number of Gibbs sampling iterations")
	rootCmd.Flags().IntVar(&burnin, "burnin", 0, "burn-in iterations (0 = maxiter/10)")
	rootCmd.Flags().IntVar(&thinning, "thinning", 5, "keep every thinning-th post-burn-in iteration")
	rootCmd.Flags().IntVar(&degree, "deg", 2, "degree of the polynomial trend")
	rootCmd.Flags().IntVar(&workers, "workers", 0, "goroutines for per-series computations (<=1 sequential)")
	rootCmd.Flags().Uint64Var(&seed, "seed", 1, "random seed; equal seeds reproduce the run")

	rootCmd.Flags().BoolVar(&level, "level", false, "cluster on the level")
	rootCmd.Flags().BoolVar(&trend, "trend", true, "cluster on the polynomial trend")
	rootCmd.Flags().BoolVar(&seasonality, "seasonality", true, "cluster on the seasonal components")

	rootCmd.Flags().Float64Var(&c0eps, "c0eps", 2, "shape of the sig2eps hyper-prior")
	rootCmd.Flags().Float64Var(&c1eps, "c1eps", 1, "rate of the sig2eps hyper-prior")
	rootCmd.Flags().Float64Var(&c0beta, "c0beta", 2, "shape of the sig2beta hyper-prior")
	rootCmd.Flags().Float64Var(&c1beta, "c1beta", 1, "rate of the sig2beta hyper-prior")
	rootCmd.Flags().Float64Var(&c0alpha, "c0alpha", 2, "shape of the sig2alpha hyper-prior")
	rootCmd.Flags().Float64Var(&c1alpha, "c1alpha", 1, "rate of the sig2alpha hyper-prior")

	rootCmd.Flags().BoolVar(&priorA, "priora", false, "sample the discount parameter a")
	rootCmd.Flags().BoolVar(&priorB, "priorb", false, "sample the strength parameter b")
	rootCmd.Flags().Float64Var(&pia, "pia", 0.5, "point-mass weight of the prior on a")
	rootCmd.Flags().Float64Var(&q0a, "q0a", 1, "first shape of the Beta prior on a")
	rootCmd.Flags().Float64Var(&q1a, "q1a", 1, "second shape of the Beta prior on a")
	rootCmd.Flags().Float64Var(&q0b, "q0b", 1, "shape of the Gamma prior on a+b")
	rootCmd.Flags().Float64Var(&q1b, "q1b", 1, "scale of the Gamma prior on a+b")
	rootCmd.Flags().Float64Var(&aInit, "a", 0.25, "initial/fixed discount parameter, in [0,1)")
	rootCmd.Flags().Float64Var(&bInit, "b", 0, "initial/fixed strength parameter, > -a")

	rootCmd.Flags().BoolVar(&indLPML, "lpml", false, "accumulate the log pseudo marginal likelihood")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, args []string) error {
	logger, err := zap.NewDevelopment()
	if err != nil {
		return err
	}
	defer func(logger *zap.Logger) {
		_ = logger.Sync()
	}(logger)

	names, data, err := readSeriesCSV(inputPath)
	if err != nil {
		return err
	}
	rows, cols := data.Dims()
	logger.Info("loaded series",
		zap.String("input", inputPath),
		zap.Int("periods", rows),
		zap.Int("series", cols))

	cfg := tsclust.DefaultConfig()
	cfg.MaxIter = maxIter
	cfg.Burnin = burnin
	cfg.Thinning = thinning
	cfg.Degree = degree
	cfg.Workers = workers
	cfg.Seed = seed
	cfg.Level = level
	cfg.Trend = trend
	cfg.Seasonality = seasonality
	cfg.C0Eps, cfg.C1Eps = c0eps, c1eps
	cfg.C0Beta, cfg.C1Beta = c0beta, c1beta
	cfg.C0Alpha, cfg.C1Alpha = c0alpha, c1alpha
	cfg.PriorA, cfg.PriorB = priorA, priorB
	cfg.PiA = pia
	cfg.Q0A, cfg.Q1A = q0a, q1a
	cfg.Q0B, cfg.Q1B = q0b, q1b
	cfg.A, cfg.B = aInit, bInit
	cfg.IndLPML = indLPML
	cfg.Progress = func(iter, maxIter int) {
		logger.Info("sampling",
			zap.Int("iteration", iter),
			zap.Int("of", maxIter),
			zap.Float64("progress", float64(iter)/float64(maxIter)))
	}

	result, err := tsclust.Cluster(data, cfg)
	if err != nil {
		logger.Fatal("clustering failed", zap.Error(err))
	}

	// Names of the series that survived scaling, in result order.
	kept := names
	if len(result.Removed) > 0 {
		removed := make(map[int]bool, len(result.Removed))
		for _, r := range result.Removed {
			removed[r] = true
			logger.Warn("removed constant series", zap.String("name", names[r]))
		}
		kept = kept[:0:0]
		for i, name := range names {
			if !removed[i] {
				kept = append(kept, name)
			}
		}
	}

	logger.Info("clustering finished",
		zap.Int("groups", result.NumGroups),
		zap.Int("saved_iterations", result.SavedIterations),
		zap.Float64("heterogeneity", result.Heterogeneity),
		zap.Float64("accept_rate_rho", result.AcceptRateRho))
	if indLPML {
		logger.Info("model fit", zap.Float64("lpml", result.LPML))
	}

	for g := 0; g < result.NumGroups; g++ {
		members := result.Members(g)
		groupNames := make([]string, len(members))
		for k, m := range members {
			groupNames[k] = kept[m]
		}
		fmt.Printf("group %d: %v\n", g, groupNames)
	}
	return nil
}

// readSeriesCSV parses a CSV whose header row names the series (first cell is
// the period-label column) and whose remaining rows hold one period each.
func readSeriesCSV(path string) ([]string, *mat.Dense, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, err
	}
	defer f.Close()

	records, err := csv.NewReader(f).ReadAll()
	if err != nil {
		return nil, nil, fmt.Errorf("reading %s: %w", path, err)
	}
	if len(records) < 2 || len(records[0]) < 2 {
		return nil, nil, fmt.Errorf("%s: need a header row and at least one series column", path)
	}

	names := records[0][1:]
	T := len(records) - 1
	n := len(names)
	data := mat.NewDense(T, n, nil)
	for t := 0; t < T; t++ {
		row := records[t+1]
		if len(row) != n+1 {
			return nil, nil, fmt.Errorf("%s: row %d has %d fields, want %d", path, t+2, len(row), n+1)
		}
		for j := 0; j < n; j++ {
			v, err := strconv.ParseFloat(row[j+1], 64)
			if err != nil {
				return nil, nil, fmt.Errorf("%s: row %d column %q: %w", path, t+2, names[j], err)
			}
			data.Set(t, j, v)
		}
	}
	return names, data, nil
}
