package robust

import (
	"context"
	"fmt"
	"math"

	"github.com/robustgeo/robustfit/consensus"
	"github.com/robustgeo/robustfit/sample"
)

// GNCIRLS is the graduated non-convexity IRLS engine. It optimizes
// over the full population with a Geman-McClure surrogate loss whose
// control parameter mu starts large (near-quadratic loss) and is
// annealed toward 1, progressively sharpening outlier rejection. Each
// outer iteration refits a weighted model, recomputes residuals, and
// rederives the weights; the loop is strictly sequential because every
// iteration depends on the previous weights.
type GNCIRLS[T, M any] struct {
	est  Estimator[T, M]
	eval Evaluator[T, M]
	cfg  Config

	// InitialModel optionally seeds the first weight vector from the
	// residuals of a caller-supplied guess instead of uniform ones.
	InitialModel *M
}

func NewGNCIRLS[T, M any](est Estimator[T, M], eval Evaluator[T, M], cfg Config) *GNCIRLS[T, M] {
	return &GNCIRLS[T, M]{est: est, eval: eval, cfg: cfg}
}

// Estimate runs the outer loop on pop. A failed weighted fit in one
// iteration falls back to the best model of an earlier iteration; the
// run fails with ErrNoConvergentModel only when no iteration ever
// produced a model. Cancelling ctx returns the best result so far if
// one exists.
func (g *GNCIRLS[T, M]) Estimate(ctx context.Context, pop *sample.Population[T]) (*Result[M], error) {
	n := pop.Len()
	if n < g.cfg.MinSampleSize {
		return nil, fmt.Errorf("%w: %d observations, minimal sample %d", ErrInsufficientPopulation, n, g.cfg.MinSampleSize)
	}
	mode := g.cfg.Scoring.Mode()
	theta := g.cfg.InlierThreshold

	mu := g.cfg.MuInit
	if mu < 1 {
		mu = 1
	}

	wt := make([]float64, n)
	for i := range wt {
		wt[i] = 1
	}
	if g.InitialModel != nil {
		if costs := g.eval.Evaluate(*g.InitialModel, pop); len(costs) == n {
			wt = gncWeights(costs, mu, theta)
		}
	}

	var best *Result[M]
	var cancelled bool
	outer := 0
	for outer < g.cfg.MaxOuterIterations {
		if ctx.Err() != nil {
			cancelled = true
			break
		}
		outer++

		models, err := g.fitWeighted(pop, wt)
		if err != nil || len(models) == 0 {
			// Keep the previous weights and anneal; the best model of
			// a prior iteration remains the fallback.
			mu = anneal(mu, g.cfg.MuFactor)
			continue
		}

		// Several candidates may come out of one fit; the weight
		// update follows the best-scoring one.
		var iterBest *Result[M]
		var iterCosts []float64
		for _, model := range models {
			costs := g.eval.Evaluate(model, pop)
			if len(costs) != n {
				continue
			}
			mask, score := consensus.Evaluate(costs, theta)
			if iterBest == nil || score.Better(iterBest.Score, mode) {
				iterBest = &Result[M]{
					Model:         model,
					Inliers:       mask,
					Score:         score,
					FoundAt:       outer,
					PopulationLen: n,
				}
				iterCosts = costs
			}
		}
		if iterBest == nil {
			mu = anneal(mu, g.cfg.MuFactor)
			continue
		}
		if best == nil || iterBest.Score.Better(best.Score, mode) {
			best = iterBest
		}

		next := gncWeights(iterCosts, mu, theta)
		var delta float64
		for i := range next {
			delta += math.Abs(next[i] - wt[i])
		}
		wt = next
		mu = anneal(mu, g.cfg.MuFactor)

		if delta < g.cfg.ConvergenceTolerance {
			break
		}
	}

	if best == nil {
		if cancelled {
			return nil, ctx.Err()
		}
		return nil, ErrNoConvergentModel
	}
	best.Iterations = outer
	return best, nil
}

// fitWeighted fits through the WeightedEstimator interface when the
// injected estimator supports it. Otherwise the fit is restricted to
// observations whose weight is at or above the configured cutoff, a
// degraded mode that turns the soft weights into a hard selection.
func (g *GNCIRLS[T, M]) fitWeighted(pop *sample.Population[T], wt []float64) ([]M, error) {
	if we, ok := g.est.(WeightedEstimator[T, M]); ok {
		return we.FitWeighted(sample.All(pop), wt)
	}
	idx := make([]int, 0, len(wt))
	for i, w := range wt {
		if w >= g.cfg.WeightCutoff {
			idx = append(idx, i)
		}
	}
	if len(idx) < g.cfg.MinSampleSize {
		return nil, ErrDegenerateSample
	}
	return g.est.Fit(sample.NewSubset(pop, idx))
}

// gncWeights is the Geman-McClure surrogate update
// wt[i] = mu*theta^2 / (mu*theta^2 + cost[i]^2), clamped to [0,1].
// Non-finite costs get zero weight. For a fixed residual the weight is
// non-increasing as mu decreases.
func gncWeights(costs []float64, mu, theta float64) []float64 {
	wt := make([]float64, len(costs))
	mt2 := mu * theta * theta
	for i, c := range costs {
		if math.IsNaN(c) || math.IsInf(c, 0) {
			continue
		}
		w := mt2 / (mt2 + c*c)
		if w < 0 {
			w = 0
		} else if w > 1 {
			w = 1
		}
		wt[i] = w
	}
	return wt
}

// anneal divides mu by factor, with a floor of 1 where the surrogate
// recovers the original non-convex loss.
func anneal(mu, factor float64) float64 {
	mu /= factor
	if mu < 1 {
		return 1
	}
	return mu
}
