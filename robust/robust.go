// Package robust implements robust model estimation over observation
// populations containing an unknown fraction of outliers. Two engines
// are provided: a classic RANSAC hypothesize-and-test loop with an
// adaptive trial bound, and a graduated non-convexity IRLS loop for
// higher outlier ratios. The model being fit and the per-observation
// residual are injected by the caller through the Estimator and
// Evaluator interfaces.
package robust

import (
	"errors"

	"github.com/robustgeo/robustfit/consensus"
	"github.com/robustgeo/robustfit/sample"
)

var (
	// ErrInsufficientPopulation is returned when the population is
	// smaller than the configured minimal sample size.
	ErrInsufficientPopulation = sample.ErrInsufficientPopulation

	// ErrDegenerateSample is returned by Estimator implementations
	// when a minimal sample cannot determine a model (e.g. collinear
	// points). The engines retry such samples under a bounded budget.
	ErrDegenerateSample = errors.New("degenerate sample")

	// ErrDegenerateSampleExhausted is returned when consecutive
	// failed fits exceed the configured retry budget.
	ErrDegenerateSampleExhausted = errors.New("degenerate sample retry budget exhausted")

	// ErrNoConvergentModel is returned when a run terminates without
	// ever producing a usable model.
	ErrNoConvergentModel = errors.New("no convergent model")
)

// Estimator fits candidate models to a subset of observations. A
// minimal sample may determine zero, one, or several candidates; every
// returned candidate is scored. Implementations must be stateless
// across calls: the RANSAC engine invokes Fit concurrently from
// multiple sampling goroutines.
type Estimator[T, M any] interface {
	Fit(sub sample.Subset[T]) ([]M, error)
}

// WeightedEstimator additionally supports per-observation weights,
// index-aligned with the subset. The GNC-IRLS engine uses FitWeighted
// when available and otherwise falls back to a hard-cutoff fit.
type WeightedEstimator[T, M any] interface {
	Estimator[T, M]
	FitWeighted(sub sample.Subset[T], weights []float64) ([]M, error)
}

// Evaluator scores every observation of a population against a model.
// It must return exactly one cost per population element, index
// aligned; math.Inf(1) marks an observation that cannot be evaluated
// under the model.
type Evaluator[T, M any] interface {
	Evaluate(model M, pop *sample.Population[T]) []float64
}

// Result is the terminal output of an estimation run. It is fully
// populated before being returned and not modified afterwards.
type Result[M any] struct {
	// Model is the best model found.
	Model M
	// Inliers lists the population indices whose cost under Model is
	// at or below the inlier threshold, in ascending order.
	Inliers []int
	// Score is the consensus quality of Model.
	Score consensus.Score
	// FoundAt is the iteration at which Model was found.
	FoundAt int
	// Iterations is the total number of iterations executed.
	Iterations int
	// PopulationLen is the size of the population of the run.
	PopulationLen int
}

// InlierRatio returns the fraction of the population classified as
// inliers.
func (r *Result[M]) InlierRatio() float64 {
	if r.PopulationLen == 0 {
		return 0
	}
	return float64(len(r.Inliers)) / float64(r.PopulationLen)
}
